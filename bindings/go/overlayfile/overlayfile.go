// Package overlayfile reads overlay files: rule documents declaring, per overlay
// kind, whether instances need a language, which languages are required and
// which overlay type versions are supported.
//
//	type: overlayfile.oca.software/v1
//	overlays:
//	  meta:
//	    requiredLanguages: [en, pl]
//	  label:
//	    requiresLanguage: true
//	    versions: ">= 2.0.0, < 3.0.0"
package overlayfile

import (
	"github.com/sk31337/oca/bindings/go/runtime"
)

const (
	Type    = "overlayfile.oca.software"
	Version = "v1"
)

var Scheme = runtime.NewScheme()

func init() {
	Scheme.MustRegisterWithAlias(&File{},
		runtime.NewVersionedType(Type, Version),
		runtime.NewUnversionedType(Type),
	)
}

// File is the document form of an overlay file.
type File struct {
	Type runtime.Type `json:"type"`
	// Overlays holds the rules keyed by overlay kind. Kind names are matched
	// case-insensitively, so "entry_code", "EntryCode" and "ENTRY-CODE" are the same kind.
	Overlays map[string]Rule `json:"overlays"`
}

func (f *File) GetType() runtime.Type    { return f.Type }
func (f *File) SetType(typ runtime.Type) { f.Type = typ }

// Rule is the set of rules for one overlay kind.
type Rule struct {
	RequiresLanguage  bool     `json:"requiresLanguage,omitempty" jsonschema_description:"Every overlay of the kind must carry a language tag."`
	RequiredLanguages []string `json:"requiredLanguages,omitempty" jsonschema_description:"Languages that must each have an overlay of the kind. Implies requiresLanguage."`
	Versions          string   `json:"versions,omitempty" jsonschema_description:"Semantic version constraint the overlay type version has to satisfy."`
}
