package ocafile_test

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sk31337/oca/bindings/go/bundle"
	"github.com/sk31337/oca/bindings/go/bundle/attribute"
	"github.com/sk31337/oca/bindings/go/ocafile"
	"github.com/sk31337/oca/bindings/go/said"
)

func TestGenerate_RoundTrip(t *testing.T) {
	r := require.New(t)

	b, err := ocafile.Compile(t.Context(), passport)
	r.NoError(err)

	text, err := ocafile.Generate(b)
	r.NoError(err)
	r.Contains(text, "--name=passport-schema\n")
	r.Contains(text, "ADD ATTRIBUTE passport_number=Text \\\n    issue_date=DateTime")
	r.Contains(text, "ADD FLAGGED_ATTRIBUTES passport_number\n")
	r.Contains(text, "ADD OVERLAY ENTRY_CODE\n  attribute_entry_codes\n    gender=[\"M\", \"F\", \"X\"]\n")
	r.Contains(text, "ADD OVERLAY META\n  language=\"en\"\n  classification=\"public\"\n")

	again, err := ocafile.Compile(t.Context(), text)
	r.NoError(err)
	r.Equal(b.Digest(), again.Digest())
	r.Equal(b.Name(), again.Name())
}

func TestGenerate_Programmatic(t *testing.T) {
	r := require.New(t)
	target := said.Sum([]byte("other bundle"))

	builder := bundle.NewBuilder()
	r.NoError(builder.SetName("with spaces"))
	r.NoError(builder.AddAttribute("refs", attribute.ArrayOf(attribute.RefSAID(target))))
	r.NoError(builder.AddAttribute("héight#1", attribute.NewScalar(attribute.Numeric)))
	r.NoError(builder.SetClassification("a b"))

	link := bundle.KindLink.New().(*bundle.Link)
	link.TargetBundle = target
	link.AttributeMapping = map[string]string{"refs": "items"}
	r.NoError(builder.AddOverlay(link))

	ce := bundle.KindCharacterEncoding.New().(*bundle.CharacterEncoding)
	ce.DefaultCharacterEncoding = "utf-8"
	r.NoError(builder.AddOverlay(ce))

	label := bundle.KindLabel.New().(*bundle.Label)
	label.Language = "pl"
	label.AttributeLabels = map[string]string{"héight#1": "Wzrost \"cm\""}
	r.NoError(builder.AddOverlay(label))

	b, err := builder.Finalize()
	r.NoError(err)

	text, err := ocafile.Generate(b)
	r.NoError(err)
	r.Contains(text, "--name=\"with spaces\"\n")
	r.Contains(text, "ADD CLASSIFICATION \"a b\"\n")
	r.Contains(text, "refs=Array[refs:"+target+"]")
	r.Contains(text, "    \"héight#1\"=\"Wzrost \\\"cm\\\"\"\n")
	r.Contains(text, "  target_bundle=\""+target+"\"\n")

	again, err := ocafile.Compile(t.Context(), text)
	r.NoError(err)
	r.Equal(b.Digest(), again.Digest())
	r.Equal("with spaces", again.Name())
}

func TestGenerate_WithName(t *testing.T) {
	r := require.New(t)

	b, err := ocafile.Compile(t.Context(), passport)
	r.NoError(err)
	data, err := json.Marshal(b)
	r.NoError(err)
	decoded, err := bundle.Decode(data)
	r.NoError(err)
	r.Empty(decoded.Name())

	text, err := ocafile.Generate(decoded)
	r.NoError(err)
	r.NotContains(text, "--name")

	text, err = ocafile.Generate(decoded, ocafile.WithName("passport-schema"))
	r.NoError(err)
	r.True(strings.HasPrefix(text, "--name=passport-schema\n"), text)

	again, err := ocafile.Compile(t.Context(), text)
	r.NoError(err)
	r.Equal("passport-schema", again.Name())
	r.Equal(decoded.Digest(), again.Digest())
}
