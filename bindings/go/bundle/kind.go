package bundle

import (
	"strings"

	"github.com/sk31337/oca/bindings/go/runtime"
)

const (
	// OverlayGroup is the group of every overlay type.
	OverlayGroup = "overlay"
	// DefaultVersion is the version assigned to overlays and capture bases built here.
	DefaultVersion = "2.0.0"
)

// CaptureBaseType is the type of every capture base built here.
var CaptureBaseType = runtime.NewVersionedType("capture_base", DefaultVersion)

// Kind is one of the closed set of overlay kinds.
type Kind int

const (
	KindMeta Kind = iota + 1
	KindLabel
	KindInformation
	KindEntry
	KindEntryCode
	KindFormat
	KindCharacterEncoding
	KindUnit
	KindClassification
	KindCardinality
	KindConformance
	KindStandard
	KindMapping
	KindSensitive
	KindLink
	KindConditional
)

type kindInfo struct {
	name      string
	snake     string
	localized bool
	new       func() Overlay
}

var kinds = map[Kind]kindInfo{
	KindMeta:              {"Meta", "meta", true, func() Overlay { return &Meta{} }},
	KindLabel:             {"Label", "label", true, func() Overlay { return &Label{} }},
	KindInformation:       {"Information", "information", true, func() Overlay { return &Information{} }},
	KindEntry:             {"Entry", "entry", true, func() Overlay { return &Entry{} }},
	KindEntryCode:         {"EntryCode", "entry_code", false, func() Overlay { return &EntryCode{} }},
	KindFormat:            {"Format", "format", false, func() Overlay { return &Format{} }},
	KindCharacterEncoding: {"CharacterEncoding", "character_encoding", false, func() Overlay { return &CharacterEncoding{} }},
	KindUnit:              {"Unit", "unit", false, func() Overlay { return &Unit{} }},
	KindClassification:    {"Classification", "classification", false, func() Overlay { return &Classification{} }},
	KindCardinality:       {"Cardinality", "cardinality", false, func() Overlay { return &Cardinality{} }},
	KindConformance:       {"Conformance", "conformance", false, func() Overlay { return &Conformance{} }},
	KindStandard:          {"Standard", "standard", false, func() Overlay { return &Standard{} }},
	KindMapping:           {"Mapping", "mapping", false, func() Overlay { return &Mapping{} }},
	KindSensitive:         {"Sensitive", "sensitive", false, func() Overlay { return &Sensitive{} }},
	KindLink:              {"Link", "link", false, func() Overlay { return &Link{} }},
	KindConditional:       {"Conditional", "conditional", false, func() Overlay { return &Conditional{} }},
}

// lookup maps the folded spelling of every kind to the kind.
var lookup = func() map[string]Kind {
	m := make(map[string]Kind, len(kinds))
	for k, info := range kinds {
		m[fold(info.name)] = k
	}
	return m
}()

// fold lower-cases s and drops separators, so that
// EntryCode, ENTRY_CODE, entry_code and entry-code are the same.
func fold(s string) string {
	return strings.Map(func(r rune) rune {
		if r == '_' || r == '-' {
			return -1
		}
		return r
	}, strings.ToLower(s))
}

// LookupKind finds a kind by name, ignoring case and separators.
func LookupKind(name string) (Kind, bool) {
	k, ok := lookup[fold(name)]
	return k, ok
}

// KindForType finds the kind of an overlay type such as overlay/entry_code/2.0.0.
func KindForType(typ runtime.Type) (Kind, bool) {
	if typ.Group != OverlayGroup {
		return 0, false
	}
	return LookupKind(typ.Name)
}

// Kinds returns all kinds in declaration order.
func Kinds() []Kind {
	all := make([]Kind, 0, len(kinds))
	for k := KindMeta; k <= KindConditional; k++ {
		all = append(all, k)
	}
	return all
}

func (k Kind) String() string {
	if info, ok := kinds[k]; ok {
		return info.name
	}
	return "Unknown"
}

// Snake returns the name used in overlay types.
func (k Kind) Snake() string {
	return kinds[k].snake
}

// Localized reports whether instances of the kind are keyed by language.
func (k Kind) Localized() bool {
	return kinds[k].localized
}

// Type returns the overlay type of the kind in the given version.
func (k Kind) Type(version string) runtime.Type {
	return runtime.NewGroupVersionedType(OverlayGroup, k.Snake(), version)
}

// New returns an empty overlay of the kind with the default type set.
func (k Kind) New() Overlay {
	info, ok := kinds[k]
	if !ok {
		return nil
	}
	o := info.new()
	o.SetType(k.Type(DefaultVersion))
	return o
}

// Scheme knows the prototypes of all overlay kinds in every version.
var Scheme = runtime.NewScheme()

func init() {
	for _, k := range Kinds() {
		Scheme.MustRegisterWithAlias(kinds[k].new(),
			k.Type(DefaultVersion),
			runtime.NewGroupType(OverlayGroup, k.Snake()),
		)
	}
}
