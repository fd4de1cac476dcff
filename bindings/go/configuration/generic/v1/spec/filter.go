package spec

import (
	"fmt"
	"slices"

	"github.com/sk31337/oca/bindings/go/runtime"
)

type FilterOptions struct {
	ConfigTypes []runtime.Type
}

// Filter filters the config based on the provided options.
// Only the FilterOptions.ConfigTypes are copied over.
// If none are specified, the config will be empty.
func Filter(config *Config, options *FilterOptions) (*Config, error) {
	if config == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	filtered := new(Config)
	filtered.Type = config.Type

	for _, entry := range config.Configurations {
		if slices.Contains(options.ConfigTypes, entry.GetType()) {
			filtered.Configurations = append(filtered.Configurations, entry)
		}
	}

	return filtered, nil
}

// FilterForType filters the configuration for a specific configuration type T
// and returns a slice of typed configurations in the order of the config.
func FilterForType[T runtime.Typed](scheme *runtime.Scheme, config *Config) ([]T, error) {
	typ, err := scheme.TypeForPrototype(*new(T))
	if err != nil {
		return nil, fmt.Errorf("failed to get type for prototype of type %T: %w", *new(T), err)
	}

	types := scheme.Aliases(typ)
	filtered, err := Filter(config, &FilterOptions{
		ConfigTypes: types,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to filter for types %v: %w", types, err)
	}
	typedConfigs := make([]T, 0, len(filtered.Configurations))
	for _, cfg := range filtered.Configurations {
		obj, err := scheme.NewObject(cfg.GetType())
		if err != nil {
			return nil, fmt.Errorf("failed to create object for type %s: %w", cfg.GetType(), err)
		}
		if err := scheme.Convert(cfg, obj); err != nil {
			return nil, fmt.Errorf("failed to convert config of type %s: %w", cfg.GetType(), err)
		}
		typed, ok := obj.(T)
		if !ok {
			return nil, fmt.Errorf("config of type %s is not a %T", cfg.GetType(), *new(T))
		}
		typedConfigs = append(typedConfigs, typed)
	}

	return typedConfigs, nil
}
