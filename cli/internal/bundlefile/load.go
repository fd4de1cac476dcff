// Package bundlefile loads bundles named on the command line.
package bundlefile

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sk31337/oca/bindings/go/bundle"
	"github.com/sk31337/oca/cli/internal/render"
)

// Load reads and decodes a JSON, CBOR or YAML bundle file.
// YAML is recognised by the .yaml or .yml extension.
// Stored digests are recomputed, so a loaded bundle is always consistent.
func Load(path string) (*bundle.Bundle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading bundle failed: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if data, err = render.YAMLToJSON(data); err != nil {
			return nil, fmt.Errorf("loading bundle %s failed: %w", path, err)
		}
	}
	b, err := bundle.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("loading bundle %s failed: %w", path, err)
	}
	return b, nil
}
