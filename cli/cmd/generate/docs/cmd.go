package docs

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/cobra/doc"

	"github.com/sk31337/oca/cli/internal/flags/enum"
)

const (
	FlagDirectory = "directory"
	FlagMode      = "mode"

	ModeMarkdown = "markdown"
	ModeMan      = "man"
)

func New() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "docs",
		Short: "Generate documentation for the oca CLI",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			dir, err := cmd.Flags().GetString(FlagDirectory)
			if err != nil {
				return err
			}
			mode, err := enum.Get(cmd.Flags(), FlagMode)
			if err != nil {
				return err
			}
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("creating documentation directory failed: %w", err)
			}
			root := cmd.Root()
			root.DisableAutoGenTag = true
			switch mode {
			case ModeMarkdown:
				return doc.GenMarkdownTree(root, dir)
			case ModeMan:
				return doc.GenManTree(root, &doc.GenManHeader{Title: "OCA", Section: "1"}, dir)
			default:
				return fmt.Errorf("unknown documentation mode %q", mode)
			}
		},
		DisableAutoGenTag: true,
	}
	cmd.Flags().String(FlagDirectory, "docs/reference", "directory the documentation is written to")
	enum.Var(cmd.Flags(), FlagMode, []string{ModeMarkdown, ModeMan}, "documentation format")
	return cmd
}
