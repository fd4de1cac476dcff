package validatedata

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sk31337/oca/bindings/go/validation"
	ocacmd "github.com/sk31337/oca/cli/cmd/internal/cmd"
	validatecmd "github.com/sk31337/oca/cli/cmd/validate"
	"github.com/sk31337/oca/cli/internal/bundlefile"
	"github.com/sk31337/oca/cli/internal/flags/enum"
	"github.com/sk31337/oca/cli/internal/render"
)

func New() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate-data {bundle-file} {data-file}",
		Short: "Validate a data record against an OCA bundle",
		Args:  cobra.ExactArgs(2),
		Long: `Validate a JSON data record against the attributes of an OCA bundle.

The record is checked against a JSON schema derived from the bundle: attribute types,
entry codes, cardinalities and mandatory conformance. DateTime and Text formats of
the format overlay are checked as well.`,
		Example: strings.TrimSpace(`
oca validate-data passport.json record.json
oca validate-data passport.json record.json -o json
`),
		RunE:              ValidateData,
		DisableAutoGenTag: true,
	}

	enum.VarP(cmd.Flags(), ocacmd.OutputFlag, "o", []string{render.OutputFormatTable, render.OutputFormatJSON, render.OutputFormatYAML}, "output format of the validation result")

	return cmd
}

func ValidateData(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	output, err := enum.Get(cmd.Flags(), ocacmd.OutputFlag)
	if err != nil {
		return fmt.Errorf("getting output flag failed: %w", err)
	}

	bundleFile, dataFile := args[0], args[1]
	b, err := bundlefile.Load(bundleFile)
	if err != nil {
		return err
	}
	record, err := os.ReadFile(dataFile)
	if err != nil {
		return fmt.Errorf("reading data record failed: %w", err)
	}

	result := validation.ValidateData(ctx, b, record, validation.WithLogger(slog.Default()))
	encoded, err := render.Results(output, []render.FileResult{{File: dataFile, Result: result}})
	if err != nil {
		return fmt.Errorf("generating output failed: %w", err)
	}
	if _, err := cmd.OutOrStdout().Write(encoded); err != nil {
		return fmt.Errorf("writing validation result failed: %w", err)
	}
	if !result.Valid {
		return fmt.Errorf("%w: data record %s", validatecmd.ErrInvalid, dataFile)
	}
	return nil
}
