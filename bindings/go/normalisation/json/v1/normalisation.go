package v1

import (
	norms "github.com/sk31337/oca/bindings/go/normalisation"
	"github.com/sk31337/oca/bindings/go/normalisation/engine/jcs"
)

const (
	// Algorithm digests a capture base or a single overlay as a whole.
	Algorithm = "ocaJSONNormalisation/v1"
	// BundleAlgorithm digests a bundle document from its identifying members only.
	BundleAlgorithm = "ocaJSONNormalisation/v1/bundle"
)

// ContentRules keep every member of a capture base or an overlay.
// A nested "properties" object is lifted first so both projections digest alike.
var ContentRules = jcs.MapValue{
	Mapping:  FlattenProperties,
	Continue: jcs.NoExcludes{},
}

// BundleRules keep the digest, the capture base and the overlays of a bundle.
// Everything else, like the v version string encoding the serialised size, is left out.
var BundleRules = jcs.MapIncludes{
	"digest":       nil,
	"capture_base": nil,
	"overlays":     jcs.ArrayExcludes{Continue: ContentRules},
}

func init() {
	norms.Normalisations.Register(Algorithm, algo{rules: ContentRules})
	norms.Normalisations.Register(BundleAlgorithm, algo{rules: BundleRules})
}

type algo struct {
	rules jcs.TransformationRules
}

// Normalise returns the canonical JSON form of v.
func (a algo) Normalise(v any) ([]byte, error) {
	return jcs.Normalise(v, a.rules)
}

// FlattenProperties lifts the members of a nested "properties" object into the overlay itself.
func FlattenProperties(v any) any {
	m, ok := v.(map[string]any)
	if !ok {
		return v
	}
	props, ok := m["properties"].(map[string]any)
	if !ok {
		return v
	}
	flat := make(map[string]any, len(m)+len(props))
	for k, val := range m {
		if k != "properties" {
			flat[k] = val
		}
	}
	for k, val := range props {
		if _, exists := flat[k]; !exists {
			flat[k] = val
		}
	}
	return flat
}
