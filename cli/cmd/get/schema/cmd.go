package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"sigs.k8s.io/yaml"

	"github.com/sk31337/oca/bindings/go/validation"
	ocacmd "github.com/sk31337/oca/cli/cmd/internal/cmd"
	"github.com/sk31337/oca/cli/internal/bundlefile"
	"github.com/sk31337/oca/cli/internal/flags/enum"
	"github.com/sk31337/oca/cli/internal/render"
)

func New() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schema {bundle-file}",
		Short: "Print the JSON schema that data records of an OCA bundle must satisfy",
		Args:  cobra.ExactArgs(1),
		Example: strings.TrimSpace(`
oca get schema passport.json
oca get schema passport.json -o yaml
`),
		RunE:              GetSchema,
		DisableAutoGenTag: true,
	}

	enum.VarP(cmd.Flags(), ocacmd.OutputFlag, "o", []string{render.OutputFormatJSON, render.OutputFormatYAML}, "output format of the schema")

	return cmd
}

func GetSchema(cmd *cobra.Command, args []string) error {
	output, err := enum.Get(cmd.Flags(), ocacmd.OutputFlag)
	if err != nil {
		return fmt.Errorf("getting output flag failed: %w", err)
	}
	b, err := bundlefile.Load(args[0])
	if err != nil {
		return err
	}
	schema, err := validation.DataSchema(b)
	if err != nil {
		return fmt.Errorf("deriving data schema failed: %w", err)
	}

	var data []byte
	switch output {
	case render.OutputFormatYAML:
		data, err = yaml.JSONToYAML(schema)
	default:
		var buf bytes.Buffer
		if err = json.Indent(&buf, schema, "", "  "); err == nil {
			buf.WriteByte('\n')
			data = buf.Bytes()
		}
	}
	if err != nil {
		return fmt.Errorf("generating output failed: %w", err)
	}
	if _, err := cmd.OutOrStdout().Write(data); err != nil {
		return fmt.Errorf("writing schema failed: %w", err)
	}
	return nil
}
