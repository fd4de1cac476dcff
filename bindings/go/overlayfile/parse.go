package overlayfile

import (
	"bytes"
	"errors"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"sigs.k8s.io/yaml"

	"github.com/sk31337/oca/bindings/go/runtime"
)

var ErrInvalidOverlayFile = errors.New("invalid overlay file")

const schemaFile = "overlayfile.schema.json"

// JSONSchema returns the JSON schema of the overlay file document.
func JSONSchema() ([]byte, error) {
	return runtime.GenerateJSONSchemaForType(&File{})
}

var getSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	data, err := JSONSchema()
	if err != nil {
		return nil, err
	}
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal schema: %w", err)
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource(schemaFile, doc); err != nil {
		return nil, fmt.Errorf("failed to add schema: %w", err)
	}
	sch, err := c.Compile(schemaFile)
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema: %w", err)
	}
	return sch, nil
})

// Decode reads a YAML or JSON overlay file and checks it against its schema.
func Decode(data []byte) (*File, error) {
	raw, err := yaml.YAMLToJSON(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidOverlayFile, err)
	}
	instance, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidOverlayFile, err)
	}
	sch, err := getSchema()
	if err != nil {
		return nil, err
	}
	if err := sch.Validate(instance); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidOverlayFile, err)
	}

	var f File
	if err := Scheme.Decode(bytes.NewReader(raw), &f); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidOverlayFile, err)
	}
	if !Scheme.IsRegistered(f.Type) {
		return nil, fmt.Errorf("%w: unsupported type %q", ErrInvalidOverlayFile, f.Type)
	}
	return &f, nil
}

// Parse decodes an overlay file and resolves its rules.
func Parse(data []byte) (*Rules, error) {
	f, err := Decode(data)
	if err != nil {
		return nil, err
	}
	return f.Resolve()
}
