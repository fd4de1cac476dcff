package validate

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/gobwas/glob"
	"github.com/spf13/cobra"
	slogcontext "github.com/veqryn/slog-context"
	"golang.org/x/sync/errgroup"

	"github.com/sk31337/oca/bindings/go/validation"
	ocacmd "github.com/sk31337/oca/cli/cmd/internal/cmd"
	ocactx "github.com/sk31337/oca/cli/internal/context"
	"github.com/sk31337/oca/cli/internal/flags/enum"
	"github.com/sk31337/oca/cli/internal/render"
)

// ErrInvalid is returned after the results were written if any bundle is invalid.
var ErrInvalid = errors.New("invalid bundles")

const FlagInclude = "include"

func New() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate {bundle-file|directory}...",
		Short: "Validate OCA bundles against the overlay rules",
		Args:  cobra.MinimumNArgs(1),
		Long: `Validate one or more OCA bundles in JSON or CBOR encoding.

Every bundle is checked for structural well-formedness, for overlays that refer to
attributes the capture base does not define, for missing translations, dangling
flagged attributes and entry codes without a matching entry.
All problems of all bundles are reported, the command fails if any bundle is invalid.

Directories are walked recursively and every file whose name matches the include
pattern is validated.`,
		Example: strings.TrimSpace(`
oca validate passport.json
oca validate bundles/*.json --overlay-file overlays.yaml -o json
oca validate passport.json --verify-digests
oca validate bundles/ --include '*.{json,cbor}'
`),
		RunE:              ValidateBundles,
		DisableAutoGenTag: true,
	}

	enum.VarP(cmd.Flags(), ocacmd.OutputFlag, "o", []string{render.OutputFormatTable, render.OutputFormatJSON, render.OutputFormatYAML}, "output format of the validation results")
	cmd.Flags().String(ocacmd.OverlayFileFlag, "", "overlay file with the rules the bundles are validated against")
	cmd.Flags().Bool(ocacmd.VerifyDigestsFlag, false, "recompute every digest and report stored digests that do not match")
	cmd.Flags().Int(ocacmd.ConcurrencyLimitFlag, 4, "maximum amount of bundles validated in parallel")
	cmd.Flags().String(FlagInclude, "*.json", "glob pattern for the names of bundle files in directories")

	return cmd
}

func ValidateBundles(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	ocaCtx := ocactx.FromContext(ctx)
	defaults := ocaCtx.Defaults()
	if defaults == nil {
		return fmt.Errorf("could not retrieve defaults from context")
	}

	output, err := enum.Get(cmd.Flags(), ocacmd.OutputFlag)
	if err != nil {
		return fmt.Errorf("getting output flag failed: %w", err)
	}

	pattern, err := cmd.Flags().GetString(FlagInclude)
	if err != nil {
		return fmt.Errorf("getting include flag failed: %w", err)
	}
	include, err := glob.Compile(pattern)
	if err != nil {
		return fmt.Errorf("invalid include pattern %q: %w", pattern, err)
	}
	files, err := collect(args, include)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no bundle files matching %q found", pattern)
	}

	opts := []validation.Option{
		validation.WithRules(ocaCtx.Rules()),
	}
	if defaults.VerifyDigests != nil && *defaults.VerifyDigests {
		opts = append(opts, validation.WithDigestVerification())
	}

	results := make([]render.FileResult, len(files))
	eg, egctx := errgroup.WithContext(ctx)
	eg.SetLimit(defaults.ConcurrencyLimit)
	for i, path := range files {
		eg.Go(func() error {
			fctx := slogcontext.With(egctx, slog.String("file", path))
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("reading bundle failed: %w", err)
			}
			result := validation.ValidateJSON(fctx, data, append(slices.Clip(opts), validation.WithLogger(slogcontext.FromCtx(fctx)))...)
			slogcontext.Log(fctx, slog.LevelDebug, "validated bundle", slog.Bool("valid", result.Valid), slog.Int("errors", len(result.Errors)))
			results[i] = render.FileResult{File: path, Result: result}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return err
	}

	data, err := render.Results(output, results)
	if err != nil {
		return fmt.Errorf("generating output failed: %w", err)
	}
	if _, err := cmd.OutOrStdout().Write(data); err != nil {
		return fmt.Errorf("writing validation results failed: %w", err)
	}

	invalid := 0
	for _, res := range results {
		if !res.Valid {
			invalid++
		}
	}
	if invalid > 0 {
		return fmt.Errorf("%w: %d of %d", ErrInvalid, invalid, len(results))
	}
	return nil
}

// collect expands directories into the files below them whose names match include.
func collect(args []string, include glob.Glob) ([]string, error) {
	var files []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("reading bundle failed: %w", err)
		}
		if !info.IsDir() {
			files = append(files, arg)
			continue
		}
		err = filepath.WalkDir(arg, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && include.Match(d.Name()) {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walking %s failed: %w", arg, err)
		}
	}
	return files, nil
}
