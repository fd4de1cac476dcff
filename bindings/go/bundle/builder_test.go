package bundle_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sk31337/oca/bindings/go/bundle"
	"github.com/sk31337/oca/bindings/go/bundle/attribute"
	v1 "github.com/sk31337/oca/bindings/go/normalisation/json/v1"
	"github.com/sk31337/oca/bindings/go/said"
)

func meta(lang, name string) *bundle.Meta {
	o := bundle.KindMeta.New().(*bundle.Meta)
	o.Language = lang
	o.Name = name
	return o
}

func label(lang string, labels map[string]string) *bundle.Label {
	o := bundle.KindLabel.New().(*bundle.Label)
	o.Language = lang
	o.AttributeLabels = labels
	return o
}

func TestBuilder_EndToEnd(t *testing.T) {
	r := require.New(t)

	b := bundle.NewBuilder()
	r.NoError(b.AddAttribute("x", attribute.NewScalar(attribute.Numeric)))
	result, err := b.Finalize()
	r.NoError(err)

	r.True(said.IsValid(result.Digest()))
	cb := result.CaptureBase()
	r.True(said.IsValid(cb.Digest))
	r.Equal(bundle.CaptureBaseType, cb.Type)

	data, err := json.Marshal(result)
	r.NoError(err)

	var projected struct {
		V           string `json:"v"`
		Digest      string `json:"digest"`
		CaptureBase struct {
			Digest            string            `json:"digest"`
			Type              string            `json:"type"`
			Attributes        map[string]string `json:"attributes"`
			Classification    string            `json:"classification"`
			FlaggedAttributes []string          `json:"flagged_attributes"`
		} `json:"capture_base"`
		Overlays []any `json:"overlays"`
	}
	r.NoError(json.Unmarshal(data, &projected))
	r.Equal(map[string]string{"x": "Numeric"}, projected.CaptureBase.Attributes)
	r.Equal([]string{}, projected.CaptureBase.FlaggedAttributes)
	r.Equal([]any{}, projected.Overlays)
	r.Equal("capture_base/2.0.0", projected.CaptureBase.Type)
	r.Equal(result.Digest(), projected.Digest)
	r.Equal(result.Version(), projected.V)

	format, size, err := bundle.ParseVersion(projected.V)
	r.NoError(err)
	r.Equal(bundle.FormatJSON, format)
	r.Equal(len(data), size)
}

func TestBuilder_Attributes(t *testing.T) {
	r := require.New(t)

	b := bundle.NewBuilder()
	r.NoError(b.AddAttribute("name", attribute.NewScalar(attribute.Text)))
	r.NoError(b.AddAttribute("age", attribute.NewScalar(attribute.Numeric)))

	err := b.AddAttribute("name", attribute.NewScalar(attribute.Numeric))
	r.ErrorIs(err, bundle.ErrDuplicateAttribute)
	r.Equal(2, b.Len())
	r.Equal([]string{"name", "age"}, b.AttributeNames())

	r.ErrorIs(b.AddAttribute("", attribute.NewScalar(attribute.Text)), bundle.ErrInvalidAttributeName)
	r.ErrorIs(b.AddAttribute("first name", attribute.NewScalar(attribute.Text)), bundle.ErrInvalidAttributeName)
	r.ErrorIs(b.AddAttribute("empty", attribute.Type{}), attribute.ErrInvalidTypeSyntax)
	r.Equal(2, b.Len())

	r.ErrorIs(b.SetFlagged("ssn"), bundle.ErrUnknownAttribute)
	r.NoError(b.SetFlagged("name"))
	r.NoError(b.SetFlagged("age"))
	r.NoError(b.SetClassification("GICS:45102010"))

	result, err := b.Finalize()
	r.NoError(err)
	r.Equal([]string{"age", "name"}, result.FlaggedAttributes())
	r.Equal("GICS:45102010", result.Classification())
	r.Equal([]string{"name", "age"}, result.AttributeNames())
	typ, ok := result.Attribute("age")
	r.True(ok)
	r.Equal("Numeric", typ.String())
}

func TestBuilder_Finalized(t *testing.T) {
	r := require.New(t)

	b := bundle.NewBuilder()
	r.NoError(b.AddAttribute("x", attribute.NewScalar(attribute.Text)))
	_, err := b.Finalize()
	r.NoError(err)
	r.True(b.Finalized())

	r.ErrorIs(b.AddAttribute("y", attribute.NewScalar(attribute.Text)), bundle.ErrBuilderFinalized)
	r.ErrorIs(b.SetFlagged("x"), bundle.ErrBuilderFinalized)
	r.ErrorIs(b.SetClassification("c"), bundle.ErrBuilderFinalized)
	r.ErrorIs(b.SetName("n"), bundle.ErrBuilderFinalized)
	r.ErrorIs(b.AddOverlay(meta("en", "n")), bundle.ErrBuilderFinalized)
	_, err = b.Finalize()
	r.ErrorIs(err, bundle.ErrBuilderFinalized)

	// still inspectable
	r.Equal([]string{"x"}, b.AttributeNames())
}

func TestBuilder_DuplicateOverlays(t *testing.T) {
	r := require.New(t)

	b := bundle.NewBuilder()
	r.NoError(b.AddOverlay(meta("en", "Passport")))
	r.NoError(b.AddOverlay(meta("pl", "Paszport")))
	r.ErrorIs(b.AddOverlay(meta("en", "Other")), bundle.ErrDuplicateLanguageOverlay)
	r.ErrorIs(b.AddOverlay(meta("EN", "Other")), bundle.ErrDuplicateLanguageOverlay)
	r.NoError(b.AddOverlay(label("en", map[string]string{"x": "X"})))

	codes := bundle.KindEntryCode.New().(*bundle.EntryCode)
	codes.AttributeEntryCodes = map[string][]string{"x": {"a"}}
	r.NoError(b.AddOverlay(codes))
	r.ErrorIs(b.AddOverlay(codes), bundle.ErrDuplicateOverlay)
	r.Equal(4, b.Overlays())
}

func TestBuilder_InvalidOverlays(t *testing.T) {
	link := func(target string) bundle.Overlay {
		o := bundle.KindLink.New().(*bundle.Link)
		o.TargetBundle = target
		return o
	}
	unit := bundle.KindUnit.New().(*bundle.Unit)
	unit.AttributeUnits = map[string]string{"height": "cm"}

	cardinality := bundle.KindCardinality.New().(*bundle.Cardinality)
	cardinality.AttributeCardinalities = map[string]string{"x": "many"}

	badVersion := meta("en", "x")
	badVersion.Type.Version = "two"

	mismatch := meta("en", "x")
	mismatch.Type = bundle.KindLabel.Type(bundle.DefaultVersion)

	codes := bundle.KindEntryCode.New().(*bundle.EntryCode)
	codes.AttributeEntryCodes = map[string][]string{"x": {"a", "a"}}

	conditional := bundle.KindConditional.New().(*bundle.Conditional)
	conditional.AttributeConditions = map[string]string{"x": "${age} >"}

	tests := []struct {
		name    string
		overlay bundle.Overlay
	}{
		{"missing language", meta("", "x")},
		{"malformed language", meta("not a language", "x")},
		{"empty attribute key", label("en", map[string]string{"": "X"})},
		{"link without said", link("person")},
		{"unit without metric system", unit},
		{"invalid cardinality", cardinality},
		{"non semantic version", badVersion},
		{"type of another kind", mismatch},
		{"duplicate entry code", codes},
		{"condition that does not compile", conditional},
		{"nil", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := bundle.NewBuilder()
			assert.ErrorIs(t, b.AddOverlay(tt.overlay), bundle.ErrInvalidOverlay)
			assert.Zero(t, b.Overlays())
		})
	}

	t.Run("valid link", func(t *testing.T) {
		b := bundle.NewBuilder()
		assert.NoError(t, b.AddOverlay(link(said.Sum([]byte("other")))))
	})
}

func TestBuilder_OverlayMembershipIsDeferred(t *testing.T) {
	r := require.New(t)

	b := bundle.NewBuilder()
	r.NoError(b.AddOverlay(label("en", map[string]string{"later": "Later"})))
	r.NoError(b.AddAttribute("later", attribute.NewScalar(attribute.Text)))
	_, err := b.Finalize()
	r.NoError(err)
}

func TestBuilder_Determinism(t *testing.T) {
	build := func(langs ...string) *bundle.Bundle {
		b := bundle.NewBuilder()
		require.NoError(t, b.AddAttribute("x", attribute.NewScalar(attribute.Text)))
		for _, lang := range langs {
			require.NoError(t, b.AddOverlay(meta(lang, "name "+lang)))
		}
		result, err := b.Finalize()
		require.NoError(t, err)
		return result
	}

	a := build("en", "pl")
	b := build("pl", "en")
	assert.Equal(t, a.Digest(), b.Digest())
	assert.Equal(t, a.CaptureBase().Digest, b.CaptureBase().Digest)
	assert.Equal(t, []string{"en", "pl"}, a.Languages())

	c := build("en")
	assert.NotEqual(t, a.Digest(), c.Digest())
	assert.Equal(t, a.CaptureBase().Digest, c.CaptureBase().Digest)
}

func TestBuilder_OverlayDigests(t *testing.T) {
	r := require.New(t)

	b := bundle.NewBuilder()
	r.NoError(b.AddAttribute("x", attribute.NewScalar(attribute.Text)))
	o := label("en", map[string]string{"x": "X"})
	r.NoError(b.AddOverlay(o))

	// the builder keeps its own copy
	o.AttributeLabels["x"] = "changed"

	result, err := b.Finalize()
	r.NoError(err)

	labels := result.OverlaysOf(bundle.KindLabel)
	r.Len(labels, 1)
	r.Equal("X", labels[0].(*bundle.Label).AttributeLabels["x"])
	r.Equal(result.CaptureBase().Digest, labels[0].GetCaptureBase())
	r.True(said.IsValid(labels[0].GetDigest()))
	r.Empty(o.GetDigest())
}

func TestBuilder_NameIsNotHashed(t *testing.T) {
	r := require.New(t)

	named := bundle.NewBuilder()
	r.NoError(named.SetName("passport"))
	r.NoError(named.AddAttribute("x", attribute.NewScalar(attribute.Text)))
	a, err := named.Finalize()
	r.NoError(err)

	unnamed := bundle.NewBuilder()
	r.NoError(unnamed.AddAttribute("x", attribute.NewScalar(attribute.Text)))
	b, err := unnamed.Finalize()
	r.NoError(err)

	r.Equal("passport", a.Name())
	r.Equal(a.Digest(), b.Digest())
}

func TestBuilder_EmptyOverlayListIsDigested(t *testing.T) {
	r := require.New(t)

	b := bundle.NewBuilder()
	r.NoError(b.AddAttribute("x", attribute.NewScalar(attribute.Text)))
	result, err := b.Finalize()
	r.NoError(err)

	data, err := json.Marshal(result)
	r.NoError(err)
	doc, issues, err := bundle.DecodeDocument(data)
	r.NoError(err)
	r.Empty(issues)
	r.NotNil(doc.Overlays)

	ok, computed, err := said.Verify(doc, v1.BundleAlgorithm)
	r.NoError(err)
	r.True(ok, "stored %s, computed %s", doc.Digest, computed)
}

func TestBuilder_MetaExtrasAreDigested(t *testing.T) {
	digestOf := func(v string) string {
		t.Helper()
		r := require.New(t)

		b := bundle.NewBuilder()
		r.NoError(b.AddAttribute("x", attribute.NewScalar(attribute.Text)))
		m := meta("en", "Passport")
		m.Extra = map[string]string{"v": v, "overlays": v}
		r.NoError(b.AddOverlay(m))
		result, err := b.Finalize()
		r.NoError(err)

		metas := result.OverlaysOf(bundle.KindMeta)
		r.Len(metas, 1)
		return metas[0].GetDigest()
	}

	one, two := digestOf("one"), digestOf("two")
	assert.True(t, said.IsValid(one))
	assert.NotEqual(t, one, two)
}

func TestBundle_AccessorsReturnCopies(t *testing.T) {
	r := require.New(t)

	b := bundle.NewBuilder()
	r.NoError(b.AddAttribute("x", attribute.NewScalar(attribute.Text)))
	r.NoError(b.AddOverlay(label("en", map[string]string{"x": "X"})))
	result, err := b.Finalize()
	r.NoError(err)

	before, err := json.Marshal(result)
	r.NoError(err)

	result.Overlays()[0].(*bundle.Label).AttributeLabels["x"] = "changed"
	result.OverlaysOf(bundle.KindLabel)[0].(*bundle.Label).AttributeLabels["y"] = "added"
	result.Overlays()[0].SetDigest("")
	result.CaptureBase().FlaggedAttributes = append(result.CaptureBase().FlaggedAttributes, "x")

	after, err := json.Marshal(result)
	r.NoError(err)
	r.JSONEq(string(before), string(after))
	r.Equal("X", result.OverlaysOf(bundle.KindLabel)[0].(*bundle.Label).AttributeLabels["x"])
	r.Empty(result.OverlaysOf(bundle.KindMeta))
	r.NotNil(result.OverlaysOf(bundle.KindMeta))

	doc, _, err := bundle.DecodeDocument(after)
	r.NoError(err)
	ok, _, err := said.Verify(doc, v1.BundleAlgorithm)
	r.NoError(err)
	r.True(ok)
}

func TestBuilder_AddOverlayLeavesTheArgumentUntouched(t *testing.T) {
	r := require.New(t)

	b := bundle.NewBuilder()
	r.NoError(b.AddAttribute("x", attribute.NewScalar(attribute.Text)))
	o := &bundle.Label{AttributeLabels: map[string]string{"x": "X"}}
	o.Language = "en"
	r.NoError(b.AddOverlay(o))

	r.True(o.GetType().IsEmpty())
	r.Empty(o.GetCaptureBase())

	result, err := b.Finalize()
	r.NoError(err)
	labels := result.OverlaysOf(bundle.KindLabel)
	r.Len(labels, 1)
	r.Equal(bundle.KindLabel.Type(bundle.DefaultVersion), labels[0].GetType())
}

func TestValidateAttributeName(t *testing.T) {
	tests := []struct {
		name  string
		valid bool
	}{
		{"name", true},
		{"birth_date", true},
		{"issue#", true},
		{"a#b", true},
		{"", false},
		{"#name", false},
		{"first name", false},
		{"a=b", false},
		{`"quoted"`, false},
		{"list[0]", false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := bundle.ValidateAttributeName(tc.name)
			if tc.valid {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, bundle.ErrInvalidAttributeName)
		})
	}
}
