package setup

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/sk31337/oca/bindings/go/configuration"
	defaultsv1alpha1 "github.com/sk31337/oca/bindings/go/configuration/defaults/v1alpha1/spec"
	genericv1 "github.com/sk31337/oca/bindings/go/configuration/generic/v1/spec"
	"github.com/sk31337/oca/bindings/go/overlayfile"
	ocaconfig "github.com/sk31337/oca/cli/cmd/configuration"
	ocacmd "github.com/sk31337/oca/cli/cmd/internal/cmd"
	ocactx "github.com/sk31337/oca/cli/internal/context"
)

// OCAConfig loads the configuration file into the command context.
// A missing or broken configuration is not an error, the empty configuration is used instead.
func OCAConfig(cmd *cobra.Command) {
	cfg, err := ocaconfig.GetFlattenedOCAConfigForCommand(cmd)
	if err != nil {
		slog.DebugContext(cmd.Context(), "could not get configuration", slog.String("error", err.Error()))
		cfg = &genericv1.Config{}
	}
	for _, typ := range configuration.Unknown(cfg) {
		slog.DebugContext(cmd.Context(), "ignoring unknown configuration entry", slog.String("type", typ.String()))
	}

	cmd.SetContext(ocactx.WithConfiguration(cmd.Context(), cfg))
}

// DefaultsOption adjusts the defaults before command line flags are applied.
type DefaultsOption func(cfg *defaultsv1alpha1.Config)

func WithOverlayFile(path string) DefaultsOption {
	return func(cfg *defaultsv1alpha1.Config) {
		cfg.OverlayFile = path
	}
}

func WithConcurrencyLimit(limit int) DefaultsOption {
	return func(cfg *defaultsv1alpha1.Config) {
		cfg.ConcurrencyLimit = limit
	}
}

// Defaults resolves the defaults configuration and lets explicitly set flags override it.
func Defaults(cmd *cobra.Command, opts ...DefaultsOption) {
	cfg := ocactx.FromContext(cmd.Context()).Configuration()
	defaults, err := defaultsv1alpha1.LookupConfig(cfg)
	if err != nil {
		slog.DebugContext(cmd.Context(), "could not get defaults configuration", slog.String("error", err.Error()))
		defaults, _ = defaultsv1alpha1.LookupConfig(nil)
	}

	for _, opt := range opts {
		opt(defaults)
	}

	flags := cmd.Flags()
	if changed(cmd, ocacmd.OverlayFileFlag) {
		if v, err := flags.GetString(ocacmd.OverlayFileFlag); err == nil {
			override(cmd, ocacmd.OverlayFileFlag, defaults.OverlayFile != "", func() { defaults.OverlayFile = v })
		}
	}
	if changed(cmd, ocacmd.NestedFlag) {
		if v, err := flags.GetBool(ocacmd.NestedFlag); err == nil {
			override(cmd, ocacmd.NestedFlag, defaults.Nested != nil, func() { defaults.Nested = &v })
		}
	}
	if changed(cmd, ocacmd.VerifyDigestsFlag) {
		if v, err := flags.GetBool(ocacmd.VerifyDigestsFlag); err == nil {
			override(cmd, ocacmd.VerifyDigestsFlag, defaults.VerifyDigests != nil, func() { defaults.VerifyDigests = &v })
		}
	}
	if changed(cmd, ocacmd.ConcurrencyLimitFlag) {
		if v, err := flags.GetInt(ocacmd.ConcurrencyLimitFlag); err == nil {
			override(cmd, ocacmd.ConcurrencyLimitFlag, defaults.ConcurrencyLimit != defaultsv1alpha1.DefaultConcurrencyLimit, func() { defaults.ConcurrencyLimit = v })
		}
	}
	if defaults.ConcurrencyLimit <= 0 {
		defaults.ConcurrencyLimit = defaultsv1alpha1.DefaultConcurrencyLimit
	}

	cmd.SetContext(ocactx.WithDefaults(cmd.Context(), defaults))
}

// Rules loads the overlay file named by the defaults, or the built in rules if there is none.
func Rules(cmd *cobra.Command) error {
	rules := overlayfile.Default()
	if defaults := ocactx.FromContext(cmd.Context()).Defaults(); defaults != nil && defaults.OverlayFile != "" {
		data, err := os.ReadFile(defaults.OverlayFile)
		if err != nil {
			return fmt.Errorf("could not read overlay file: %w", err)
		}
		if rules, err = overlayfile.Parse(data); err != nil {
			return fmt.Errorf("could not parse overlay file %s: %w", defaults.OverlayFile, err)
		}
		slog.DebugContext(cmd.Context(), "loaded overlay file",
			slog.String("path", defaults.OverlayFile), slog.Int("kinds", len(rules.Kinds())))
	}
	cmd.SetContext(ocactx.WithRules(cmd.Context(), rules))
	return nil
}

func changed(cmd *cobra.Command, name string) bool {
	flag := cmd.Flags().Lookup(name)
	return flag != nil && flag.Changed
}

func override(cmd *cobra.Command, name string, configured bool, apply func()) {
	if configured {
		slog.DebugContext(cmd.Context(), "value from oca config is overwritten by flag", slog.String("flag", name))
	}
	apply()
}
