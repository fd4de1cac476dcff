package attributes

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sk31337/oca/bindings/go/bundle"
	ocacmd "github.com/sk31337/oca/cli/cmd/internal/cmd"
	"github.com/sk31337/oca/cli/internal/bundlefile"
	"github.com/sk31337/oca/cli/internal/flags/enum"
	"github.com/sk31337/oca/cli/internal/render"
)

const FlagLanguage = "language"

func New() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "attributes {bundle-file}",
		Aliases: []string{"attribute", "attrs", "attr"},
		Short:   "List the attributes of an OCA bundle",
		Args:    cobra.ExactArgs(1),
		Long: `List the attributes of an OCA bundle in capture base order together with
their type, whether they are flagged, their conformance and their label.

Labels are taken from the label overlay of the requested language, or of the first
language of the bundle if none is requested.`,
		Example: strings.TrimSpace(`
oca get attributes passport.json
oca get attributes passport.json --language fr -o yaml
`),
		RunE:              GetAttributes,
		DisableAutoGenTag: true,
	}

	enum.VarP(cmd.Flags(), ocacmd.OutputFlag, "o", []string{render.OutputFormatTable, render.OutputFormatJSON, render.OutputFormatYAML}, "output format of the attributes")
	cmd.Flags().StringP(FlagLanguage, "l", "", "language of the labels")

	return cmd
}

// Attribute is one row of the attribute listing.
type Attribute struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Flagged     bool   `json:"flagged,omitempty"`
	Conformance string `json:"conformance,omitempty"`
	Label       string `json:"label,omitempty"`
}

func GetAttributes(cmd *cobra.Command, args []string) error {
	output, err := enum.Get(cmd.Flags(), ocacmd.OutputFlag)
	if err != nil {
		return fmt.Errorf("getting output flag failed: %w", err)
	}
	language, err := cmd.Flags().GetString(FlagLanguage)
	if err != nil {
		return fmt.Errorf("getting language flag failed: %w", err)
	}

	b, err := bundlefile.Load(args[0])
	if err != nil {
		return err
	}

	attrs, err := List(b, language)
	if err != nil {
		return err
	}

	var data []byte
	switch output {
	case render.OutputFormatTable:
		data = table(attrs)
	default:
		if data, err = render.Structured(output, attrs); err != nil {
			return fmt.Errorf("generating output failed: %w", err)
		}
	}
	if _, err := cmd.OutOrStdout().Write(data); err != nil {
		return fmt.Errorf("writing attributes failed: %w", err)
	}
	return nil
}

// List collects the attributes of b with the labels of the given language.
func List(b *bundle.Bundle, language string) ([]Attribute, error) {
	if language == "" {
		if languages := b.Languages(); len(languages) > 0 {
			language = languages[0]
		}
	} else if !hasLanguage(b, language) {
		return nil, fmt.Errorf("bundle has no overlays in language %q, available: %v", language, b.Languages())
	}

	labels := map[string]string{}
	for _, o := range b.OverlaysOf(bundle.KindLabel) {
		if l, ok := o.(*bundle.Label); ok && strings.EqualFold(l.Language, language) {
			labels = l.AttributeLabels
		}
	}
	conformances := map[string]string{}
	for _, o := range b.OverlaysOf(bundle.KindConformance) {
		if c, ok := o.(*bundle.Conformance); ok {
			conformances = c.AttributeConformances
		}
	}
	flagged := map[string]bool{}
	for _, name := range b.FlaggedAttributes() {
		flagged[name] = true
	}

	names := b.AttributeNames()
	attrs := make([]Attribute, 0, len(names))
	for _, name := range names {
		typ, _ := b.Attribute(name)
		attrs = append(attrs, Attribute{
			Name:        name,
			Type:        typ.String(),
			Flagged:     flagged[name],
			Conformance: conformances[name],
			Label:       labels[name],
		})
	}
	return attrs, nil
}

func hasLanguage(b *bundle.Bundle, language string) bool {
	for _, l := range b.Languages() {
		if strings.EqualFold(l, language) {
			return true
		}
	}
	return false
}
