// Package spec defines the defaults configuration of the oca command line client.
// It is carried as an entry of a generic configuration file:
//
//	type: generic.config.oca.software/v1
//	configurations:
//	- type: defaults.config.oca.software/v1alpha1
//	  overlayFile: ./overlays.yaml
//	  nested: true
//	  verifyDigests: true
//	  concurrencyLimit: 8
package spec

import (
	"fmt"
	"slices"

	genericv1 "github.com/sk31337/oca/bindings/go/configuration/generic/v1/spec"
	"github.com/sk31337/oca/bindings/go/runtime"
)

const (
	// ConfigType defines the type identifier for defaults configurations
	ConfigType = "defaults.config.oca.software"
	Version    = "v1alpha1"

	DefaultConcurrencyLimit = 4
)

var Scheme = runtime.NewScheme()

func init() {
	Scheme.MustRegisterWithAlias(&Config{},
		runtime.NewVersionedType(ConfigType, Version),
		runtime.NewUnversionedType(ConfigType),
	)
}

// Config holds defaults for command flags that were not set explicitly.
type Config struct {
	Type runtime.Type `json:"type"`

	// OverlayFile is the path of the overlay file used to validate bundles.
	// If not defined, the built in rules apply.
	OverlayFile string `json:"overlayFile,omitempty"`

	// Nested encodes overlays with their fields under "properties".
	Nested *bool `json:"nested,omitempty"`

	// VerifyDigests recomputes and compares stored digests during validation.
	VerifyDigests *bool `json:"verifyDigests,omitempty"`

	// ConcurrencyLimit bounds the number of bundles processed in parallel.
	ConcurrencyLimit int `json:"concurrencyLimit,omitempty"`
}

func (c *Config) GetType() runtime.Type    { return c.Type }
func (c *Config) SetType(typ runtime.Type) { c.Type = typ }

// LookupConfig creates a new defaults configuration from a central V1 config.
// The flattened config lists the entry with the highest precedence first.
func LookupConfig(cfg *genericv1.Config) (*Config, error) {
	var merged *Config
	if cfg != nil {
		cfgs, err := genericv1.FilterForType[*Config](Scheme, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to filter config: %w", err)
		}
		// Merge lets later entries win
		slices.Reverse(cfgs)
		merged = Merge(cfgs...)
	}
	if merged == nil {
		merged = Merge(&Config{})
	}

	if merged.ConcurrencyLimit <= 0 {
		merged.ConcurrencyLimit = DefaultConcurrencyLimit
	}

	return merged, nil
}

// Merge merges the provided configs into a single config.
// Fields set in later configs override earlier ones.
func Merge(configs ...*Config) *Config {
	if len(configs) == 0 {
		return nil
	}

	merged := new(Config)
	merged.Type = runtime.NewVersionedType(ConfigType, Version)

	for _, config := range configs {
		if config.OverlayFile != "" {
			merged.OverlayFile = config.OverlayFile
		}
		if config.Nested != nil {
			merged.Nested = config.Nested
		}
		if config.VerifyDigests != nil {
			merged.VerifyDigests = config.VerifyDigests
		}
		if config.ConcurrencyLimit != 0 {
			merged.ConcurrencyLimit = config.ConcurrencyLimit
		}
	}

	return merged
}
