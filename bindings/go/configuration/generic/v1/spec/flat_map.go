package spec

import (
	"slices"

	"github.com/sk31337/oca/bindings/go/runtime"
)

// FlatMap merges the provided configs into a single config.
// Nested generic configurations are flattened, all other entries are taken over as they are.
// The result is ordered so that the entry declared LAST in the inputs comes first,
// which lets lookups treat the first match as the one with the highest precedence.
func FlatMap(configs ...*Config) *Config {
	merged := new(Config)
	merged.Type = runtime.NewVersionedType(ConfigType, ConfigTypeV1)
	merged.Configurations = make([]*runtime.Raw, 0)
	for _, config := range configs {
		merged.Configurations = append(merged.Configurations, flatten(config)...)
	}
	slices.Reverse(merged.Configurations)
	return merged
}

// flatten returns the non generic entries of config in declaration order.
func flatten(config *Config) []*runtime.Raw {
	if config == nil {
		return nil
	}
	var entries []*runtime.Raw
	for _, entry := range config.Configurations {
		var nested Config
		if err := Scheme.Convert(entry, &nested); err != nil {
			entries = append(entries, entry)
			continue
		}
		entries = append(entries, flatten(&nested)...)
	}
	return entries
}
