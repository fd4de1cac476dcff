package ocafile_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sk31337/oca/bindings/go/bundle"
	"github.com/sk31337/oca/bindings/go/ocafile"
)

func TestParse_Tree(t *testing.T) {
	r := require.New(t)

	f, err := ocafile.Parse(`--name=people
ADD Attribute gender=Text
ADD OVERLAY ENTRY
  language="en"
  attribute_entries
    gender
      "M"="Male"
      F=Female
ADD OVERLAY SENSITIVE
  attributes
    gender
`)
	r.NoError(err)

	r.Equal([]*ocafile.Header{{Line: 1, Key: "name", Value: "people"}}, f.Headers)
	r.Len(f.Statements, 3)

	attr := f.Statements[0].(*ocafile.AddAttribute)
	r.Equal(2, attr.Pos())
	r.Len(attr.Attributes, 1)
	r.Equal("gender", attr.Attributes[0].Name)
	r.Equal("Text", attr.Attributes[0].Type.String())

	entry := f.Statements[1].(*ocafile.AddOverlay)
	r.Equal(3, entry.Line)
	r.Equal(bundle.KindEntry, entry.Kind)
	r.Equal([]*ocafile.Node{
		{Line: 4, Key: "language", Value: &ocafile.Value{Kind: ocafile.ValueString, Str: "en", Quoted: true}},
		{Line: 5, Key: "attribute_entries", Children: []*ocafile.Node{
			{Line: 6, Key: "gender", Children: []*ocafile.Node{
				{Line: 7, Key: "M", Value: &ocafile.Value{Kind: ocafile.ValueString, Str: "Male", Quoted: true}},
				{Line: 8, Key: "F", Value: &ocafile.Value{Kind: ocafile.ValueString, Str: "Female"}},
			}},
		}},
	}, entry.Body)

	sensitive := f.Statements[2].(*ocafile.AddOverlay)
	r.Equal(bundle.KindSensitive, sensitive.Kind)
	r.Equal([]*ocafile.Node{
		{Line: 10, Key: "attributes", Children: []*ocafile.Node{{Line: 11, Key: "gender"}}},
	}, sensitive.Body)
}

func TestParse_ValuesAndStatements(t *testing.T) {
	r := require.New(t)

	f, err := ocafile.Parse(`ADD FLAGGED_ATTRIBUTES a b
ADD CLASSIFICATION "GICS 1"
ADD Overlay Entry_Code
  attribute_entry_codes
    a=[ "x" , y,"z,1" ]
    b=[]
`)
	r.NoError(err)
	r.Len(f.Statements, 3)

	r.Equal(&ocafile.AddFlagged{Line: 1, Names: []string{"a", "b"}}, f.Statements[0])
	r.Equal(&ocafile.AddClassification{Line: 2, Code: "GICS 1"}, f.Statements[1])

	codes := f.Statements[2].(*ocafile.AddOverlay).Body[0].Children
	r.Equal([]string{"x", "y", "z,1"}, codes[0].Value.List)
	r.Equal(ocafile.ValueList, codes[0].Value.Kind)
	r.Empty(codes[1].Value.List)
}

func TestParse_Empty(t *testing.T) {
	f, err := ocafile.Parse("\n# nothing here\n\n")
	require.NoError(t, err)
	require.Empty(t, f.Headers)
	require.Empty(t, f.Statements)
}
