package build

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sk31337/oca/bindings/go/bundle"
	"github.com/sk31337/oca/bindings/go/ocafile"
	"github.com/sk31337/oca/bindings/go/validation"
	ocacmd "github.com/sk31337/oca/cli/cmd/internal/cmd"
	ocactx "github.com/sk31337/oca/cli/internal/context"
	"github.com/sk31337/oca/cli/internal/flags/enum"
	"github.com/sk31337/oca/cli/internal/flags/file"
	"github.com/sk31337/oca/cli/internal/render"
)

const (
	FlagFile           = "file"
	FlagSkipValidation = "skip-validation"
)

func New() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build an OCA bundle from an OCAfile",
		Args:  cobra.NoArgs,
		Long: `Build an OCA bundle from an OCAfile.

The OCAfile is compiled into a bundle, every digest is computed and the bundle
is validated against the overlay rules before it is written to stdout.
Validation errors abort the build unless validation is skipped.`,
		Example: strings.TrimSpace(`
oca build -f passport.ocafile
oca build -f passport.ocafile --nested -o yaml
oca build -f - --overlay-file overlays.yaml < passport.ocafile
`),
		RunE:              BuildBundle,
		DisableAutoGenTag: true,
	}

	file.VarP(cmd.Flags(), FlagFile, "f", "OCAfile", "path of the OCAfile to build, - reads from stdin")
	enum.VarP(cmd.Flags(), ocacmd.OutputFlag, "o", []string{render.OutputFormatJSON, render.OutputFormatYAML, render.OutputFormatCBOR}, "output format of the bundle")
	cmd.Flags().String(ocacmd.OverlayFileFlag, "", "overlay file with the rules the bundle is validated against")
	cmd.Flags().Bool(ocacmd.NestedFlag, false, "encode overlay fields under \"properties\"")
	cmd.Flags().Bool(FlagSkipValidation, false, "write the bundle even if it violates the overlay rules")

	return cmd
}

func BuildBundle(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	ocaCtx := ocactx.FromContext(ctx)

	src, err := file.Get(cmd.Flags(), FlagFile)
	if err != nil {
		return fmt.Errorf("getting file flag failed: %w", err)
	}
	output, err := enum.Get(cmd.Flags(), ocacmd.OutputFlag)
	if err != nil {
		return fmt.Errorf("getting output flag failed: %w", err)
	}
	skip, err := cmd.Flags().GetBool(FlagSkipValidation)
	if err != nil {
		return fmt.Errorf("getting skip-validation flag failed: %w", err)
	}

	data, err := src.Read(cmd.InOrStdin())
	if err != nil {
		return fmt.Errorf("reading OCAfile failed: %w", err)
	}

	b, err := ocafile.Compile(ctx, string(data), ocafile.WithLogger(slog.Default()))
	if err != nil {
		return fmt.Errorf("compiling %s failed: %w", src, err)
	}
	slog.InfoContext(ctx, "built bundle", slog.String("digest", b.Digest()), slog.Int("overlays", len(b.Overlays())))

	if !skip {
		result := validation.Validate(ctx, b,
			validation.WithRules(ocaCtx.Rules()),
			validation.WithLogger(slog.Default()),
		)
		if !result.Valid {
			return fmt.Errorf("bundle %s is invalid:\n%s", b.Digest(), result)
		}
	}

	opts := bundle.EncodeOptions{}
	if defaults := ocaCtx.Defaults(); defaults != nil && defaults.Nested != nil {
		opts.Nested = *defaults.Nested
	}
	encoded, err := encode(b, output, opts)
	if err != nil {
		return fmt.Errorf("encoding bundle as %q failed: %w", output, err)
	}
	if _, err := cmd.OutOrStdout().Write(encoded); err != nil {
		return fmt.Errorf("writing bundle failed: %w", err)
	}
	return nil
}

func encode(b *bundle.Bundle, output string, opts bundle.EncodeOptions) ([]byte, error) {
	switch output {
	case render.OutputFormatCBOR:
		opts.Format = bundle.FormatCBOR
		return bundle.Encode(b, opts)
	case render.OutputFormatYAML:
		opts.Format = bundle.FormatJSON
		data, err := bundle.Encode(b, opts)
		if err != nil {
			return nil, err
		}
		return render.JSONToYAML(data)
	case render.OutputFormatJSON:
		opts.Format = bundle.FormatJSON
		opts.Indent = "  "
		data, err := bundle.Encode(b, opts)
		if err != nil {
			return nil, err
		}
		return append(data, '\n'), nil
	default:
		return nil, fmt.Errorf("unknown output format: %q", output)
	}
}
