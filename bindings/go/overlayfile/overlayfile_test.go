package overlayfile_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sk31337/oca/bindings/go/bundle"
	"github.com/sk31337/oca/bindings/go/overlayfile"
)

func TestParse(t *testing.T) {
	r := require.New(t)

	rules, err := overlayfile.Parse([]byte(`
type: overlayfile.oca.software/v1
overlays:
  meta:
    requiredLanguages: [pl, EN, en]
  Label:
    requiresLanguage: true
    versions: ">= 2.0.0, < 3.0.0"
  entry_code: {}
`))
	r.NoError(err)
	r.Equal([]bundle.Kind{bundle.KindMeta, bundle.KindLabel, bundle.KindEntryCode}, rules.Kinds())

	meta, ok := rules.Rule(bundle.KindMeta)
	r.True(ok)
	r.True(meta.RequiresLanguage)
	r.Equal([]string{"en", "pl"}, meta.RequiredLanguages)
	r.Nil(meta.Versions)
	r.True(meta.Supports("9.9.9"))

	label, ok := rules.Rule(bundle.KindLabel)
	r.True(ok)
	r.True(label.RequiresLanguage)
	r.Empty(label.RequiredLanguages)
	r.True(label.Supports("2.0.0"))
	r.True(label.Supports("2.5.1"))
	r.False(label.Supports("3.0.0"))
	r.False(label.Supports("not a version"))

	codes, ok := rules.Rule(bundle.KindEntryCode)
	r.True(ok)
	r.False(codes.RequiresLanguage)

	_, ok = rules.Rule(bundle.KindFormat)
	r.False(ok)
}

func TestParse_JSON(t *testing.T) {
	rules, err := overlayfile.Parse([]byte(`{"type":"overlayfile.oca.software","overlays":{"INFORMATION":{"requiredLanguages":["de"]}}}`))
	require.NoError(t, err)
	info, ok := rules.Rule(bundle.KindInformation)
	require.True(t, ok)
	assert.Equal(t, []string{"de"}, info.RequiredLanguages)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{name: "not yaml", data: "type: [unterminated"},
		{name: "missing type", data: "overlays: {}"},
		{name: "missing overlays", data: "type: overlayfile.oca.software/v1"},
		{name: "unregistered type", data: "type: other.oca.software/v1\noverlays: {}"},
		{name: "unknown field", data: "type: overlayfile.oca.software/v1\noverlays:\n  meta:\n    requireLanguage: true"},
		{name: "wrong field type", data: "type: overlayfile.oca.software/v1\noverlays:\n  meta:\n    requiredLanguages: en"},
		{name: "unknown kind", data: "type: overlayfile.oca.software/v1\noverlays:\n  caption: {}"},
		{name: "kind declared twice", data: "type: overlayfile.oca.software/v1\noverlays:\n  entry_code: {}\n  EntryCode: {}"},
		{name: "invalid language", data: "type: overlayfile.oca.software/v1\noverlays:\n  meta:\n    requiredLanguages: [\"e n\"]"},
		{name: "invalid constraint", data: "type: overlayfile.oca.software/v1\noverlays:\n  meta:\n    versions: \"~> banana\""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := overlayfile.Parse([]byte(tc.data))
			require.ErrorIs(t, err, overlayfile.ErrInvalidOverlayFile)
		})
	}
}

func TestParse_UnknownKindIsReported(t *testing.T) {
	_, err := overlayfile.Parse([]byte("type: overlayfile.oca.software/v1\noverlays:\n  caption: {}"))
	require.ErrorIs(t, err, bundle.ErrUnknownOverlayKind)
}

func TestDefault(t *testing.T) {
	r := require.New(t)
	rules := overlayfile.Default()
	r.Equal([]bundle.Kind{bundle.KindMeta, bundle.KindLabel, bundle.KindInformation, bundle.KindEntry}, rules.Kinds())
	for _, kind := range rules.Kinds() {
		rule, _ := rules.Rule(kind)
		r.True(rule.RequiresLanguage, kind.String())
		r.Empty(rule.RequiredLanguages)
	}

	var none *overlayfile.Rules
	_, ok := none.Rule(bundle.KindMeta)
	r.False(ok)
	r.Empty(none.Kinds())
}

func TestJSONSchema(t *testing.T) {
	r := require.New(t)
	data, err := overlayfile.JSONSchema()
	r.NoError(err)

	var schema struct {
		Defs map[string]struct {
			Properties map[string]any `json:"properties"`
			Required   []string       `json:"required"`
		} `json:"$defs"`
	}
	r.NoError(json.Unmarshal(data, &schema))
	r.Contains(schema.Defs, "File")
	r.ElementsMatch([]string{"type", "overlays"}, schema.Defs["File"].Required)
	r.Contains(schema.Defs["Rule"].Properties, "requiredLanguages")
	r.Empty(schema.Defs["Rule"].Required)
}
