// Package configuration combines the configuration types understood by oca.
package configuration

import (
	defaultsv1alpha1 "github.com/sk31337/oca/bindings/go/configuration/defaults/v1alpha1/spec"
	genericspecv1 "github.com/sk31337/oca/bindings/go/configuration/generic/v1/spec"
	"github.com/sk31337/oca/bindings/go/runtime"
)

var Scheme = runtime.NewScheme()

func init() {
	if err := Register(Scheme); err != nil {
		panic(err)
	}
}

func Register(scheme *runtime.Scheme) error {
	return scheme.RegisterSchemes(
		genericspecv1.Scheme,
		defaultsv1alpha1.Scheme,
	)
}

// Unknown returns the types of all entries in cfg that no registered configuration type understands.
func Unknown(cfg *genericspecv1.Config) []runtime.Type {
	if cfg == nil {
		return nil
	}
	var unknown []runtime.Type
	for _, entry := range cfg.Configurations {
		if !Scheme.IsRegistered(entry.GetType()) {
			unknown = append(unknown, entry.GetType())
		}
	}
	return unknown
}
