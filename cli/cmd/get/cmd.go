package get

import (
	"github.com/spf13/cobra"

	"github.com/sk31337/oca/cli/cmd/get/attributes"
	"github.com/sk31337/oca/cli/cmd/get/schema"
)

// New represents any command that is related to retrieving ( "get"ting ) parts of a bundle
func New() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get {attributes|schema}",
		Short: "Get information from an OCA bundle",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	cmd.AddCommand(attributes.New())
	cmd.AddCommand(schema.New())
	return cmd
}
