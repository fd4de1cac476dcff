package validation_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sk31337/oca/bindings/go/bundle"
	"github.com/sk31337/oca/bindings/go/bundle/attribute"
	"github.com/sk31337/oca/bindings/go/ocafile"
	"github.com/sk31337/oca/bindings/go/overlayfile"
	"github.com/sk31337/oca/bindings/go/said"
	"github.com/sk31337/oca/bindings/go/validation"
)

var digest = said.Sum([]byte("placeholder"))

// document renders a bundle document with the given attributes, flags and overlays.
func document(attributes, flagged string, overlays ...string) []byte {
	return fmt.Appendf(nil, `{
  "v": "OCAS02JSON000000_",
  "digest": %q,
  "capture_base": {
    "digest": %q,
    "type": "capture_base/2.0.0",
    "attributes": %s,
    "classification": "",
    "flagged_attributes": %s
  },
  "overlays": [%s]
}`, digest, digest, attributes, flagged, joinOverlays(overlays))
}

func joinOverlays(overlays []string) string {
	var buf bytes.Buffer
	for i, o := range overlays {
		if i > 0 {
			buf.WriteString(",")
		}
		buf.WriteString(o)
	}
	return buf.String()
}

func rules(t *testing.T, data string) *overlayfile.Rules {
	t.Helper()
	r, err := overlayfile.Parse([]byte(data))
	require.NoError(t, err)
	return r
}

func errorRules(result *validation.Result) []validation.Rule {
	out := make([]validation.Rule, 0, len(result.Errors))
	for _, e := range result.Errors {
		out = append(out, e.Rule)
	}
	return out
}

func TestValidate_EndToEnd(t *testing.T) {
	r := require.New(t)

	b, err := ocafile.Compile(t.Context(), "ADD Attribute x=Numeric\n")
	r.NoError(err)

	result := validation.Validate(t.Context(), b)
	r.True(result.Valid)
	r.NotNil(result.Errors)
	r.Empty(result.Errors)

	data, err := json.Marshal(result)
	r.NoError(err)
	r.JSONEq(`{"valid":true,"errors":[]}`, string(data))

	encoded, err := json.Marshal(b)
	r.NoError(err)
	fromJSON := validation.ValidateJSON(t.Context(), encoded, validation.WithDigestVerification())
	r.True(fromJSON.Valid, fromJSON.String())
}

func TestValidate_UnknownAttributeReference(t *testing.T) {
	r := require.New(t)

	builder := bundle.NewBuilder()
	r.NoError(builder.AddAttribute("name", attribute.NewScalar(attribute.Text)))
	label := bundle.KindLabel.New().(*bundle.Label)
	label.Language = "en"
	label.AttributeLabels = map[string]string{"name": "Name", "missing": "Missing"}
	r.NoError(builder.AddOverlay(label))
	b, err := builder.Finalize()
	r.NoError(err)

	result := validation.Validate(t.Context(), b)
	r.False(result.Valid)
	r.Equal([]validation.Error{{
		Rule:      validation.RuleUnknownAttributeReference,
		Attribute: "missing",
		Language:  "en",
		Message:   `Label overlay refers to attribute "missing" which is not in the capture base`,
	}}, result.Errors)
}

func TestValidate_ConditionReferences(t *testing.T) {
	r := require.New(t)

	b, err := ocafile.Compile(t.Context(), `ADD Attribute licence=Text
ADD Overlay Conditional
  attribute_conditions
    licence="${age} > 18"
`)
	r.NoError(err)

	result := validation.Validate(t.Context(), b)
	r.False(result.Valid)
	r.Equal([]validation.Error{{
		Rule:      validation.RuleUnknownAttributeReference,
		Attribute: "age",
		Message:   `Conditional overlay refers to attribute "age" which is not in the capture base`,
	}}, result.Errors)
}

func TestValidate_MissingTranslation(t *testing.T) {
	r := require.New(t)
	rs := rules(t, "type: overlayfile.oca.software/v1\noverlays:\n  meta:\n    requiredLanguages: [en, pl]\n")

	src := `ADD Attribute x=Text
ADD Overlay Meta
  language="en"
  name="Name"
`
	b, err := ocafile.Compile(t.Context(), src)
	r.NoError(err)

	result := validation.Validate(t.Context(), b, validation.WithRules(rs))
	r.False(result.Valid)
	r.Len(result.Errors, 1)
	r.Equal(validation.RuleMissingTranslation, result.Errors[0].Rule)
	r.Equal("pl", result.Errors[0].Language)

	b, err = ocafile.Compile(t.Context(), src+`ADD Overlay Meta
  language="pl"
  name="Nazwa"
`)
	r.NoError(err)
	result = validation.Validate(t.Context(), b, validation.WithRules(rs))
	r.True(result.Valid, result.String())
}

func TestValidate_OptionalOverlaysMayBeAbsent(t *testing.T) {
	b, err := ocafile.Compile(t.Context(), "--name=GICS-test\n")
	require.NoError(t, err)
	result := validation.Validate(t.Context(), b, validation.WithRules(rules(t, "type: overlayfile.oca.software/v1\noverlays:\n  meta:\n    requiresLanguage: true\n")))
	assert.True(t, result.Valid)
}

func TestValidate_FlaggedAttributesFromBuilder(t *testing.T) {
	r := require.New(t)
	builder := bundle.NewBuilder()
	r.NoError(builder.AddAttribute("ssn", attribute.NewScalar(attribute.Text)))
	r.NoError(builder.SetFlagged("ssn"))
	b, err := builder.Finalize()
	r.NoError(err)
	r.True(validation.Validate(t.Context(), b).Valid)
}

func TestValidate_EntryCodeMismatch(t *testing.T) {
	r := require.New(t)

	b, err := ocafile.Compile(t.Context(), `ADD Attribute attr=Text other=Text
ADD Overlay Entry_Code
  attribute_entry_codes
    attr=["o1", "o2"]
ADD Overlay Entry
  language="en"
  attribute_entries
    attr
      o1="One"
      o3="Three"
    other
      z="free text codes are fine without entry codes"
`)
	r.NoError(err)

	result := validation.Validate(t.Context(), b)
	r.False(result.Valid)
	r.Equal([]validation.Error{{
		Rule:      validation.RuleEntryCodeMismatch,
		Attribute: "attr",
		Language:  "en",
		Message:   `entry code "o3" of attribute "attr" is not one of its entry codes`,
	}}, result.Errors)
}

func TestValidate_UnsupportedVersion(t *testing.T) {
	r := require.New(t)
	b, err := ocafile.Compile(t.Context(), "ADD Attribute x=Text\nADD Overlay Format\n  attribute_formats\n    x=\"[a-z]+\"\n")
	r.NoError(err)

	result := validation.Validate(t.Context(), b, validation.WithRules(rules(t, "type: overlayfile.oca.software/v1\noverlays:\n  format:\n    versions: \">= 3.0.0\"\n")))
	r.Equal([]validation.Rule{validation.RuleUnsupportedVersion}, errorRules(result))

	result = validation.Validate(t.Context(), b, validation.WithRules(rules(t, "type: overlayfile.oca.software/v1\noverlays:\n  format:\n    versions: \"^2\"\n")))
	r.True(result.Valid)
}

func TestValidateJSON_MalformedBundle(t *testing.T) {
	tests := []struct {
		name  string
		data  string
		valid bool
		rules []validation.Rule
	}{
		{
			name:  "minimal",
			data:  `{"v":"OCAS02JSON000106_","digest":"EJDbEZp6bBKTe07It8XwPi6MaCMW8wtQsq5WIXrzMJfR","capture_base":{"digest":"EJDbEZp6bBKTe07It8XwPi6MaCMW8wtQsq5WIXrzMJfR","type":"capture_base/2.0.0","attributes":{}},"overlays":[]}`,
			valid: true,
		},
		{
			name:  "array",
			data:  `[]`,
			rules: []validation.Rule{validation.RuleMalformedBundle},
		},
		{
			name:  "not json",
			data:  `garbage`,
			rules: []validation.Rule{validation.RuleMalformedBundle},
		},
		{
			name:  "empty",
			data:  ``,
			rules: []validation.Rule{validation.RuleMalformedBundle},
		},
		{
			name:  "bad attribute type",
			data:  string(document(`{"a":"Integer"}`, `[]`)),
			rules: []validation.Rule{validation.RuleMalformedBundle},
		},
		{
			name:  "bad version string",
			data:  `{"v":"1.0","digest":"` + digest + `","capture_base":{"digest":"` + digest + `","type":"capture_base/2.0.0","attributes":{}},"overlays":[]}`,
			rules: []validation.Rule{validation.RuleMalformedBundle},
		},
		{
			name:  "unknown overlay kind",
			data:  string(document(`{"a":"Text"}`, `[]`, `{"type":"overlay/caption/2.0.0","attribute_captions":{"a":"A"}}`)),
			rules: []validation.Rule{validation.RuleUnknownOverlayKind},
		},
		{
			name:  "digest alias and nested properties",
			data:  `{"d":"` + digest + `","capture_base":{"d":"` + digest + `","type":"capture_base/2.0.0","attributes":{"a":"Text"}},"overlays":[{"type":"overlay/label/2.0.0","properties":{"language":"en","attribute_labels":{"a":"A"}}}]}`,
			valid: true,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := require.New(t)
			result := validation.ValidateJSON(t.Context(), []byte(tc.data))
			r.NotNil(result)
			r.NotNil(result.Errors)
			r.Equal(tc.valid, result.Valid, result.String())
			if !tc.valid {
				r.NotEmpty(result.Errors)
				r.Subset(tc.rules, errorRules(result), result.String())
			}
		})
	}
}

func TestValidateJSON_MissingDigest(t *testing.T) {
	tests := []struct {
		name string
		data string
		want []string
	}{
		{
			name: "empty object",
			data: `{}`,
			want: []string{
				"/: missing properties 'capture_base', 'overlays'",
				"/: missing property 'digest'",
			},
		},
		{
			name: "capture base without digest",
			data: `{"d":"` + digest + `","capture_base":{"type":"capture_base/2.0.0","attributes":{}},"overlays":[]}`,
			want: []string{"/capture_base: missing property 'digest'"},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := require.New(t)
			result := validation.ValidateJSON(t.Context(), []byte(tc.data))
			r.False(result.Valid)

			var messages []string
			for _, e := range result.Errors {
				r.NotContains(e.Message, "'d'")
				if strings.Contains(e.Message, "missing propert") {
					messages = append(messages, e.Message)
				}
			}
			r.Equal(tc.want, messages, result.String())
		})
	}
}

func TestValidateJSON_MissingFields(t *testing.T) {
	r := require.New(t)
	result := validation.ValidateJSON(t.Context(), []byte(`{"overlays":[]}`))
	r.False(result.Valid)
	r.NotEmpty(result.Errors)
	for _, e := range result.Errors {
		r.Equal(validation.RuleMalformedBundle, e.Rule)
	}

	again := validation.ValidateJSON(t.Context(), []byte(`{"overlays":[]}`))
	r.Equal(result, again)
}

func TestValidateJSON_Rules(t *testing.T) {
	r := require.New(t)

	data := document(`{"name":"Text","age":"Numeric"}`, `["age","ghost"]`,
		`{"type":"overlay/label/2.0.0","language":"en","attribute_labels":{"name":"Name","missing":"Missing"}}`,
		`{"type":"overlay/label/2.0.0","attribute_labels":{"name":"Name"}}`,
		`{"type":"overlay/label/2.0.0","language":"EN","attribute_labels":{"age":"Age"}}`,
		`{"type":"overlay/format/2.0.0","attribute_formats":{"age":"[0-9]+"}}`,
		`{"type":"overlay/format/2.0.0","attribute_formats":{"name":".*"}}`,
	)

	result := validation.ValidateJSON(t.Context(), data)
	r.False(result.Valid)
	r.Equal([]validation.Rule{
		validation.RuleUnknownAttributeReference,
		validation.RuleMissingLanguage,
		validation.RuleDanglingFlag,
		validation.RuleDuplicateOverlay,
		validation.RuleDuplicateOverlay,
	}, errorRules(result), result.String())

	r.Equal("missing", result.Errors[0].Attribute)
	r.Equal("ghost", result.Errors[2].Attribute)
	r.Equal("Format overlay appears more than once", result.Errors[3].Message)
	r.Equal("EN", result.Errors[4].Language)
}

func TestValidateJSON_DigestVerification(t *testing.T) {
	r := require.New(t)

	b, err := ocafile.Compile(t.Context(), "ADD Attribute a=Text\nADD Overlay Label\n  language=\"en\"\n  attribute_labels\n    a=\"Original\"\n")
	r.NoError(err)
	data, err := bundle.Encode(b, bundle.EncodeOptions{Nested: true})
	r.NoError(err)

	r.True(validation.ValidateJSON(t.Context(), data, validation.WithDigestVerification()).Valid)

	tampered := bytes.Replace(data, []byte("Original"), []byte("Tampered"), 1)
	r.True(validation.ValidateJSON(t.Context(), tampered).Valid)

	result := validation.ValidateJSON(t.Context(), tampered, validation.WithDigestVerification())
	r.False(result.Valid)
	r.Equal([]validation.Rule{validation.RuleDigestMismatch, validation.RuleDigestMismatch}, errorRules(result))
	r.Contains(result.Errors[0].Message, "Label overlay (en)")
	r.Contains(result.Errors[1].Message, "bundle")
}

func TestValidateJSON_CBOR(t *testing.T) {
	r := require.New(t)
	b, err := ocafile.Compile(t.Context(), "ADD Attribute a=Text\n")
	r.NoError(err)
	data, err := bundle.Encode(b, bundle.EncodeOptions{Format: bundle.FormatCBOR})
	r.NoError(err)

	result := validation.ValidateJSON(t.Context(), data, validation.WithDigestVerification())
	r.True(result.Valid, result.String())
}

func TestValidateDocument(t *testing.T) {
	r := require.New(t)

	doc, issues, err := bundle.DecodeDocument(document(`{"a":"Text"}`, `["b"]`))
	r.NoError(err)
	r.Empty(issues)

	result := validation.ValidateDocument(t.Context(), doc)
	r.Equal([]validation.Rule{validation.RuleDanglingFlag}, errorRules(result))

	r.False(validation.ValidateDocument(t.Context(), nil).Valid)
}
