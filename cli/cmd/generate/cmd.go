package generate

import (
	"github.com/spf13/cobra"

	"github.com/sk31337/oca/cli/cmd/generate/docs"
	"github.com/sk31337/oca/cli/cmd/generate/ocafile"
)

// New represents the generate command
func New() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate {ocafile|docs}",
		Short: "Generate OCAfiles from bundles or documentation for the oca CLI",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	cmd.AddCommand(ocafile.New())
	cmd.AddCommand(docs.New())
	return cmd
}
