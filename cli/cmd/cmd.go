package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/sk31337/oca/cli/cmd/build"
	"github.com/sk31337/oca/cli/cmd/configuration"
	"github.com/sk31337/oca/cli/cmd/generate"
	"github.com/sk31337/oca/cli/cmd/get"
	"github.com/sk31337/oca/cli/cmd/setup/hooks"
	"github.com/sk31337/oca/cli/cmd/validate"
	"github.com/sk31337/oca/cli/cmd/validatedata"
	"github.com/sk31337/oca/cli/cmd/version"
	"github.com/sk31337/oca/cli/internal/flags/log"
)

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once.
func Execute() {
	err := New().Execute()
	if err != nil {
		os.Exit(1)
	}
}

func New() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "oca [sub-command]",
		Short: "Build and validate Overlays Capture Architecture (OCA) bundles",
		Long: `The oca command line client compiles OCAfiles into content addressed OCA bundles,
validates bundles and data records against them and turns bundles back into OCAfiles.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
		PersistentPreRunE: hooks.PreRunE,
		DisableAutoGenTag: true,
		SilenceUsage:      true,
	}

	configuration.RegisterConfigFlag(cmd)
	log.RegisterLoggingFlags(cmd.PersistentFlags())

	cmd.AddCommand(build.New())
	cmd.AddCommand(validate.New())
	cmd.AddCommand(validatedata.New())
	cmd.AddCommand(get.New())
	cmd.AddCommand(generate.New())
	cmd.AddCommand(version.New())
	return cmd
}
