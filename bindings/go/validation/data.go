package validation

import (
	"bytes"
	"context"
	"encoding/json"
	"maps"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/sk31337/oca/bindings/go/bundle"
	"github.com/sk31337/oca/bindings/go/bundle/attribute"
	"github.com/sk31337/oca/bindings/go/condition"
)

const draft = "https://json-schema.org/draft/2020-12/schema"

// DataSchema derives the JSON schema of a data record captured by the bundle.
// Attribute types become JSON types, entry codes become enums, cardinalities
// bound arrays and attributes with mandatory conformance are required.
// Mandatory attributes guarded by a Conditional overlay are not required here,
// ValidateData checks them once their condition is known.
// Records may only hold attributes of the capture base.
func DataSchema(b *bundle.Bundle) ([]byte, error) {
	codes := map[string][]string{}
	for _, o := range b.OverlaysOf(bundle.KindEntryCode) {
		for attr, list := range o.(*bundle.EntryCode).AttributeEntryCodes {
			codes[attr] = list
		}
	}
	cardinalities := map[string]string{}
	for _, o := range b.OverlaysOf(bundle.KindCardinality) {
		for attr, value := range o.(*bundle.Cardinality).AttributeCardinalities {
			cardinalities[attr] = value
		}
	}
	conditions := attributeConditions(b)
	var required []string
	for attr := range mandatory(b) {
		if _, guarded := conditions[attr]; !guarded {
			required = append(required, attr)
		}
	}
	slices.Sort(required)

	properties := map[string]any{}
	for _, name := range b.AttributeNames() {
		typ, _ := b.Attribute(name)
		s := typeSchema(typ)
		if list, ok := codes[name]; ok {
			innermost(s)["enum"] = list
		}
		if value, ok := cardinalities[name]; ok && typ.IsArray() {
			if lower, upper, err := bundle.ParseCardinality(value); err == nil {
				s["minItems"] = lower
				if upper >= 0 {
					s["maxItems"] = upper
				}
			}
		}
		properties[name] = s
	}

	schema := map[string]any{
		"$schema":              draft,
		"type":                 "object",
		"properties":           properties,
		"additionalProperties": false,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return json.Marshal(schema)
}

func mandatory(b *bundle.Bundle) map[string]struct{} {
	out := map[string]struct{}{}
	for _, o := range b.OverlaysOf(bundle.KindConformance) {
		for attr, value := range o.(*bundle.Conformance).AttributeConformances {
			if value == bundle.ConformanceMandatory {
				out[attr] = struct{}{}
			}
		}
	}
	return out
}

func attributeConditions(b *bundle.Bundle) map[string]string {
	out := map[string]string{}
	for _, o := range b.OverlaysOf(bundle.KindConditional) {
		maps.Copy(out, o.(*bundle.Conditional).AttributeConditions)
	}
	return out
}

func typeSchema(t attribute.Type) map[string]any {
	if elem, ok := t.Elem(); ok {
		return map[string]any{"type": "array", "items": typeSchema(elem)}
	}
	if t.IsReference() {
		return map[string]any{"type": "object"}
	}
	scalar, _ := t.Scalar()
	switch scalar {
	case attribute.Numeric:
		return map[string]any{"type": "number"}
	case attribute.Boolean:
		return map[string]any{"type": "boolean"}
	default:
		return map[string]any{"type": "string"}
	}
}

func innermost(s map[string]any) map[string]any {
	for {
		items, ok := s["items"].(map[string]any)
		if !ok {
			return s
		}
		s = items
	}
}

// ValidateData checks a JSON data record against the bundle: the derived data
// schema first, then the Format overlay for DateTime and Text attributes and
// finally the conditions of the Conditional overlay.
func ValidateData(ctx context.Context, b *bundle.Bundle, record []byte, opts ...Option) *Result {
	options := newOptions(opts)
	c := &collector{}

	data, err := DataSchema(b)
	if err != nil {
		c.add(RuleInvalidData, "", "", "cannot derive data schema: %v", err)
		return c.result()
	}
	sch, err := compile("data.schema.json", data)
	if err != nil {
		c.add(RuleInvalidData, "", "", "cannot compile data schema: %v", err)
		return c.result()
	}
	instance, err := jsonschema.UnmarshalJSON(bytes.NewReader(record))
	if err != nil {
		c.add(RuleInvalidData, "", "", "record is not JSON: %v", err)
		return c.result()
	}

	if err := sch.Validate(instance); err != nil {
		for _, v := range violations(err) {
			switch {
			case len(v.properties) > 0:
				for _, name := range v.properties {
					c.add(RuleInvalidData, name, "", "%s", v.message)
				}
			default:
				c.add(RuleInvalidData, attributeAt(v.location), "", "%s: %s", v.location, v.message)
			}
		}
	}
	c.flush()

	if fields, ok := instance.(map[string]any); ok {
		checkFormats(ctx, c, b, fields, options)
		checkConditions(ctx, c, b, fields)
	}
	return c.result()
}

// checkConditions requires a value for a mandatory attribute whose condition holds
// and rejects any value for an attribute whose condition does not.
func checkConditions(ctx context.Context, c *collector, b *bundle.Bundle, fields map[string]any) {
	required := mandatory(b)
	for attr, expr := range attributeConditions(b) {
		cond, err := condition.Compile(expr)
		if err != nil {
			c.add(RuleInvalidData, attr, "", "%v", err)
			continue
		}
		met, err := cond.Eval(ctx, fields)
		if err != nil {
			c.add(RuleInvalidData, attr, "", "cannot check condition: %v", err)
			continue
		}
		value, present := fields[attr]
		present = present && value != nil
		_, isRequired := required[attr]
		switch {
		case met && isRequired && !present:
			c.add(RuleInvalidData, attr, "", "missing property %q required when %s", attr, expr)
		case !met && present:
			c.add(RuleConditionNotMet, attr, "", "value given although %s does not hold", expr)
		}
	}
	c.flush()
}

func attributeAt(location string) string {
	first, _, _ := strings.Cut(strings.TrimPrefix(location, "/"), "/")
	return first
}

func checkFormats(ctx context.Context, c *collector, b *bundle.Bundle, fields map[string]any, options *Options) {
	for _, o := range b.OverlaysOf(bundle.KindFormat) {
		for attr, format := range o.(*bundle.Format).AttributeFormats {
			typ, ok := b.Attribute(attr)
			value, present := fields[attr]
			if !ok || !present {
				continue
			}
			inner, _ := typ.Innermost()
			scalar, isScalar := inner.Scalar()
			var check func(string) bool
			switch {
			case isScalar && scalar == attribute.DateTime:
				layout, ok := dateLayout(format)
				if !ok {
					options.Logger.DebugContext(ctx, "unsupported date format", "realm", Realm, "attribute", attr, "format", format)
					continue
				}
				check = func(s string) bool {
					_, err := time.Parse(layout, s)
					return err == nil
				}
			case isScalar && scalar == attribute.Text:
				re, err := regexp.Compile("^(?:" + format + ")$")
				if err != nil {
					options.Logger.DebugContext(ctx, "format is not a regular expression", "realm", Realm, "attribute", attr, "format", format)
					continue
				}
				check = re.MatchString
			default:
				continue
			}
			for _, s := range stringsIn(value) {
				if !check(s) {
					c.add(RuleInvalidData, attr, "", "value %q does not match format %q", s, format)
				}
			}
		}
	}
	c.flush()
}

var dateTokens = strings.NewReplacer(
	"YYYY", "2006",
	"YY", "06",
	"MM", "01",
	"DD", "02",
	"HH", "15",
	"hh", "15",
	"mm", "04",
	"ss", "05",
)

// dateLayout converts a format such as YYYY-MM-DD into a time layout.
func dateLayout(format string) (string, bool) {
	switch strings.ToUpper(strings.ReplaceAll(format, " ", "")) {
	case "ISO8601", "RFC3339", "DATE-TIME":
		return time.RFC3339, true
	}
	layout := dateTokens.Replace(format)
	return layout, layout != format
}

// stringsIn returns the strings in v, descending into arrays.
func stringsIn(v any) []string {
	switch v := v.(type) {
	case string:
		return []string{v}
	case []any:
		var out []string
		for _, item := range v {
			out = append(out, stringsIn(item)...)
		}
		return out
	}
	return nil
}
