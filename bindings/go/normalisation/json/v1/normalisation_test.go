package v1_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sk31337/oca/bindings/go/normalisation"
	v1 "github.com/sk31337/oca/bindings/go/normalisation/json/v1"
)

func TestNormalise(t *testing.T) {
	tests := []struct {
		name      string
		algorithm string
		input     any
		expected  string
	}{
		{
			name:      "version string is excluded from a bundle",
			algorithm: v1.BundleAlgorithm,
			input: map[string]any{
				"v":      "OCAS02JSON000106_",
				"digest": "############################################",
				"capture_base": map[string]any{
					"type":       "capture_base/2.0.0",
					"attributes": map[string]any{"x": "Numeric"},
				},
				"overlays": []any{},
			},
			expected: `{"capture_base":{"attributes":{"x":"Numeric"},"type":"capture_base/2.0.0"},"digest":"############################################","overlays":[]}`,
		},
		{
			name:      "nested overlay properties are flattened",
			algorithm: v1.BundleAlgorithm,
			input: map[string]any{
				"overlays": []any{
					map[string]any{
						"type": "overlay/meta/2.0.0",
						"properties": map[string]any{
							"language": "en",
							"name":     "Passport",
						},
					},
				},
			},
			expected: `{"overlays":[{"language":"en","name":"Passport","type":"overlay/meta/2.0.0"}]}`,
		},
		{
			name:      "a capture base keeps all fields",
			algorithm: v1.Algorithm,
			input: map[string]any{
				"type":               "capture_base/2.0.0",
				"digest":             "############################################",
				"attributes":         map[string]any{"b": "Text", "a": []any{"Numeric"}},
				"flagged_attributes": []any{"a"},
			},
			expected: `{"attributes":{"a":["Numeric"],"b":"Text"},"digest":"############################################","flagged_attributes":["a"],"type":"capture_base/2.0.0"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := normalisation.Normalise(tt.input, tt.algorithm)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, string(data))
		})
	}
}

func TestFlatAndNestedAgree(t *testing.T) {
	flat := map[string]any{
		"overlays": []any{map[string]any{"type": "overlay/label/2.0.0", "language": "en"}},
	}
	nested := map[string]any{
		"overlays": []any{map[string]any{"type": "overlay/label/2.0.0", "properties": map[string]any{"language": "en"}}},
	}
	a, err := normalisation.Normalise(flat, v1.BundleAlgorithm)
	require.NoError(t, err)
	b, err := normalisation.Normalise(nested, v1.BundleAlgorithm)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}

func TestOverlayMembersAreKept(t *testing.T) {
	tests := []struct {
		name     string
		input    map[string]any
		expected string
	}{
		{
			name:     "a v member of an overlay",
			input:    map[string]any{"type": "overlay/meta/2.0.0", "v": "one"},
			expected: `{"type":"overlay/meta/2.0.0","v":"one"}`,
		},
		{
			name:     "an overlays member of an overlay",
			input:    map[string]any{"type": "overlay/meta/2.0.0", "overlays": "all"},
			expected: `{"overlays":"all","type":"overlay/meta/2.0.0"}`,
		},
		{
			name: "nested properties",
			input: map[string]any{
				"type":       "overlay/meta/2.0.0",
				"properties": map[string]any{"language": "en", "v": "two"},
			},
			expected: `{"language":"en","type":"overlay/meta/2.0.0","v":"two"}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := normalisation.Normalise(tt.input, v1.Algorithm)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, string(data))
		})
	}
}
