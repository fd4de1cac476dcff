package hooks

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/sk31337/oca/cli/cmd/setup"
	ocactx "github.com/sk31337/oca/cli/internal/context"
	"github.com/sk31337/oca/cli/internal/flags/log"
)

// PreRunE sets up the command with defaults (no extra options).
func PreRunE(cmd *cobra.Command, args []string) error {
	return PreRunEWithOptions(cmd, args)
}

// PreRunEWithOptions applies options, then overrides them with CLI flags.
func PreRunEWithOptions(cmd *cobra.Command, _ []string, opts ...setup.DefaultsOption) error {
	logger, err := log.GetBaseLogger(cmd)
	if err != nil {
		return fmt.Errorf("could not retrieve logger: %w", err)
	}
	slog.SetDefault(logger)

	setup.OCAConfig(cmd)
	setup.Defaults(cmd, opts...)
	if err := setup.Rules(cmd); err != nil {
		return err
	}

	ocactx.Register(cmd)

	// inherit IO from parent if exists
	if parent := cmd.Parent(); parent != nil {
		cmd.SetOut(parent.OutOrStdout())
		cmd.SetErr(parent.ErrOrStderr())
		cmd.SetIn(parent.InOrStdin())
	}

	return nil
}
