package ocafile

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	compiler "github.com/sk31337/oca/bindings/go/ocafile"
	"github.com/sk31337/oca/cli/internal/bundlefile"
)

const FlagName = "name"

func New() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ocafile {bundle-file}",
		Short: "Generate an OCAfile from an OCA bundle",
		Args:  cobra.ExactArgs(1),
		Long: `Generate an OCAfile from an OCA bundle.

Building the generated OCAfile again yields a bundle with the same digest.
The name of a bundle is not part of its projection, pass it with --name to
keep it in the OCAfile header.`,
		Example: strings.TrimSpace(`
oca generate ocafile passport.json > passport.ocafile
oca generate ocafile passport.json --name passport-schema
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := bundlefile.Load(args[0])
			if err != nil {
				return err
			}
			name, err := cmd.Flags().GetString(FlagName)
			if err != nil {
				return fmt.Errorf("getting name flag failed: %w", err)
			}
			text, err := compiler.Generate(b, compiler.WithName(name))
			if err != nil {
				return fmt.Errorf("generating OCAfile failed: %w", err)
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), text)
			return err
		},
		DisableAutoGenTag: true,
	}
	cmd.Flags().String(FlagName, "", "name written to the OCAfile header")
	return cmd
}
