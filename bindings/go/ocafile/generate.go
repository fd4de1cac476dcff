package ocafile

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/sk31337/oca/bindings/go/bundle"
)

const indentStep = "  "

type generateOptions struct {
	name string
}

// GenerateOption configures Generate.
type GenerateOption func(*generateOptions)

// WithName sets the name written to the OCAfile header.
// Bundles read from their projection carry no name, so it has to be given here.
func WithName(name string) GenerateOption {
	return func(o *generateOptions) {
		o.name = name
	}
}

// Generate renders a bundle as OCAfile text. Compiling the result yields a
// bundle with the same digest.
func Generate(b *bundle.Bundle, opts ...GenerateOption) (string, error) {
	options := &generateOptions{name: b.Name()}
	for _, opt := range opts {
		opt(options)
	}

	var sb strings.Builder

	if options.name != "" {
		fmt.Fprintf(&sb, "--%s=%s\n\n", HeaderName, token(options.name))
	}

	if names := b.AttributeNames(); len(names) > 0 {
		clauses := make([]string, 0, len(names))
		for _, name := range names {
			typ, _ := b.Attribute(name)
			clauses = append(clauses, name+"="+typ.String())
		}
		sb.WriteString("ADD ATTRIBUTE " + strings.Join(clauses, " \\\n    ") + "\n")
	}
	if flagged := b.FlaggedAttributes(); len(flagged) > 0 {
		sb.WriteString("ADD FLAGGED_ATTRIBUTES " + strings.Join(flagged, " ") + "\n")
	}
	if c := b.Classification(); c != "" {
		sb.WriteString("ADD CLASSIFICATION " + token(c) + "\n")
	}

	for _, o := range b.Overlays() {
		fields, err := overlayFields(o)
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&sb, "\nADD OVERLAY %s\n", strings.ToUpper(o.Kind().Snake()))
		if err := writeBlock(&sb, fields, indentStep); err != nil {
			return "", fmt.Errorf("%s overlay: %w", o.Kind(), err)
		}
	}
	return sb.String(), nil
}

func overlayFields(o bundle.Overlay) (map[string]any, error) {
	data, err := json.Marshal(o)
	if err != nil {
		return nil, err
	}
	fields := map[string]any{}
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, err
	}
	for _, key := range reserved {
		delete(fields, key)
	}
	return fields, nil
}

func writeBlock(sb *strings.Builder, fields map[string]any, indent string) error {
	keys := slices.Sorted(maps.Keys(fields))
	if i := slices.Index(keys, "language"); i > 0 {
		keys = append([]string{"language"}, slices.Delete(keys, i, i+1)...)
	}

	for _, key := range keys {
		switch v := fields[key].(type) {
		case string:
			fmt.Fprintf(sb, "%s%s=%s\n", indent, token(key), strconv.Quote(v))
		case []any:
			items := make([]string, 0, len(v))
			for _, item := range v {
				s, ok := item.(string)
				if !ok {
					return fmt.Errorf("%q: unsupported list item %v", key, item)
				}
				items = append(items, strconv.Quote(s))
			}
			fmt.Fprintf(sb, "%s%s=[%s]\n", indent, token(key), strings.Join(items, ", "))
		case map[string]any:
			if len(v) == 0 {
				continue
			}
			fmt.Fprintf(sb, "%s%s\n", indent, token(key))
			if err := writeBlock(sb, v, indent+indentStep); err != nil {
				return err
			}
		default:
			return fmt.Errorf("%q: unsupported value %v", key, v)
		}
	}
	return nil
}

// token returns s unquoted when the parser reads it back as a bare token.
func token(s string) string {
	if s == "" || strings.ContainsAny(s, " \t\"=#[],\\") {
		return strconv.Quote(s)
	}
	return s
}
