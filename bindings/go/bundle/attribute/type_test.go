package attribute_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sk31337/oca/bindings/go/bundle/attribute"
)

const ref = "EJDbEZp6bBKTe07It8XwPi6MaCMW8wtQsq5WIXrzMJfR"

func TestWireRoundTrip(t *testing.T) {
	tests := []struct {
		wire string
		dsl  string
	}{
		{`"Text"`, "Text"},
		{`"Numeric"`, "Numeric"},
		{`"Boolean"`, "Boolean"},
		{`"Binary"`, "Binary"},
		{`"DateTime"`, "DateTime"},
		{`"refs:` + ref + `"`, "refs:" + ref},
		{`"refn:person"`, "refn:person"},
		{`["Numeric"]`, "Array[Numeric]"},
		{`["refs:` + ref + `"]`, "Array[refs:" + ref + "]"},
		{`[["refs:` + ref + `"]]`, "Array[Array[refs:" + ref + "]]"},
		{`[[["DateTime"]]]`, "Array[Array[Array[DateTime]]]"},
	}

	for _, tt := range tests {
		t.Run(tt.dsl, func(t *testing.T) {
			r := require.New(t)

			var raw any
			r.NoError(json.Unmarshal([]byte(tt.wire), &raw))
			typ, err := attribute.Parse(raw)
			r.NoError(err)

			data, err := json.Marshal(typ.Wire())
			r.NoError(err)
			r.JSONEq(tt.wire, string(data))

			r.Equal(tt.dsl, typ.String())
			fromDSL, err := attribute.ParseString(tt.dsl)
			r.NoError(err)
			r.True(typ.Equal(fromDSL))

			var decoded attribute.Type
			r.NoError(json.Unmarshal([]byte(tt.wire), &decoded))
			r.True(typ.Equal(decoded))
			encoded, err := json.Marshal(decoded)
			r.NoError(err)
			r.JSONEq(tt.wire, string(encoded))
		})
	}
}

func TestParseInvalid(t *testing.T) {
	tests := []struct {
		name string
		raw  any
	}{
		{"unknown keyword", "Txt"},
		{"lower case scalar", "text"},
		{"empty string", ""},
		{"empty array", []any{}},
		{"two elements", []any{"Text", "Numeric"}},
		{"number", 42},
		{"nil", nil},
		{"empty said reference", "refs:"},
		{"malformed said reference", "refs:abc"},
		{"empty name reference", "refn:"},
		{"unknown reference prefix", "ref:" + ref},
		{"invalid nested element", []any{[]any{"Nope"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := attribute.Parse(tt.raw)
			assert.ErrorIs(t, err, attribute.ErrInvalidTypeSyntax)
		})
	}
}

func TestParseStringInvalid(t *testing.T) {
	for _, s := range []string{"Array[Text", "Array[]", "Array[Array[Foo]]", "List[Text]", "[Text]"} {
		t.Run(s, func(t *testing.T) {
			_, err := attribute.ParseString(s)
			assert.ErrorIs(t, err, attribute.ErrInvalidTypeSyntax)
		})
	}
}

func TestAccessors(t *testing.T) {
	r := require.New(t)

	typ := attribute.MustParseString("Array[Array[refs:" + ref + "]]")
	r.True(typ.IsArray())
	r.False(typ.IsScalar())

	elem, ok := typ.Elem()
	r.True(ok)
	r.Equal("Array[refs:"+ref+"]", elem.String())

	inner, depth := typ.Innermost()
	r.Equal(2, depth)
	r.True(inner.IsReference())
	reference, ok := inner.Reference()
	r.True(ok)
	r.Equal(attribute.BySAID, reference.Kind)
	r.Equal(ref, reference.Target)
	r.Equal([]attribute.Reference{{Kind: attribute.BySAID, Target: ref}}, typ.References())

	scalar, ok := attribute.NewScalar(attribute.Numeric).Scalar()
	r.True(ok)
	r.Equal(attribute.Numeric, scalar)
	r.Empty(attribute.NewScalar(attribute.Numeric).References())

	r.True(attribute.Type{}.IsZero())
	_, err := json.Marshal(attribute.Type{})
	r.Error(err)
}
