package render_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sk31337/oca/cli/internal/render"
)

func TestJSONToYAML(t *testing.T) {
	tests := []struct {
		name string
		json string
		yaml string
	}{
		{
			name: "members keep their order",
			json: `{"name":"Text","birth_date":"DateTime","gender":"Text"}`,
			yaml: "name: Text\nbirth_date: DateTime\ngender: Text\n",
		},
		{
			name: "nested block style",
			json: `{"z":{"b":[1,2],"a":true},"empty":[]}`,
			yaml: "z:\n  b:\n    - 1\n    - 2\n  a: true\nempty: []\n",
		},
		{
			name: "strings that look like other types stay quoted",
			json: `{"version":"2.0","flag":"true","none":"","number":2}`,
			yaml: "version: \"2.0\"\nflag: \"true\"\nnone: \"\"\nnumber: 2\n",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := require.New(t)
			data, err := render.JSONToYAML([]byte(tc.json))
			r.NoError(err)
			r.Equal(tc.yaml, string(data))

			back, err := render.YAMLToJSON(data)
			r.NoError(err)
			r.Equal(tc.json, string(back))
		})
	}
}

func TestYAMLToJSON(t *testing.T) {
	r := require.New(t)

	data, err := render.YAMLToJSON([]byte("b: 1\na:\n  - x\n  - {d: null, c: 1.5}\n"))
	r.NoError(err)
	r.Equal(`{"b":1,"a":["x",{"d":null,"c":1.5}]}`, string(data))

	_, err = render.YAMLToJSON([]byte("a: [unterminated"))
	r.Error(err)
}
