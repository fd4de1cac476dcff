package spec

import (
	"github.com/sk31337/oca/bindings/go/runtime"
)

var Scheme = runtime.NewScheme()

func init() {
	Scheme.MustRegisterWithAlias(&Config{}, runtime.NewVersionedType(ConfigType, ConfigTypeV1))
	Scheme.MustRegisterWithAlias(&Config{}, runtime.NewUnversionedType(ConfigType))
}

const (
	ConfigType   = "generic.config.oca.software"
	ConfigTypeV1 = "v1"
)

// Config holds configuration entities loaded through a configuration file.
// Entries are kept raw until a consumer looks up the type it understands,
// so unknown entries never break loading.
type Config struct {
	Type           runtime.Type   `json:"type"`
	Configurations []*runtime.Raw `json:"configurations"`
}

func (c *Config) GetType() runtime.Type    { return c.Type }
func (c *Config) SetType(typ runtime.Type) { c.Type = typ }
