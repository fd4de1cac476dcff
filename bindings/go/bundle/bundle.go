// Package bundle implements the OCA bundle: a capture base of named, typed attributes
// plus overlays that attach labels, formats, entries and other metadata to it.
//
// Bundles are built with a Builder, which digests every part bottom-up when it is
// finalized. A Bundle never changes afterwards. The JSON projection of a bundle is a
// Document, which can also be read from untrusted input for validation.
package bundle

import (
	"errors"
	"fmt"
	"slices"

	"github.com/sk31337/oca/bindings/go/bundle/attribute"
)

// Bundle is an immutable, digested capture base with its overlays.
// Its accessors return copies.
type Bundle struct {
	name string
	doc  *Document
}

// Name returns the bundle name given at build time, if any.
func (b *Bundle) Name() string { return b.name }

// Digest returns the self-addressing identifier of the bundle.
func (b *Bundle) Digest() string { return b.doc.Digest }

// Version returns the version string of the compact JSON encoding.
func (b *Bundle) Version() string { return b.doc.V }

// CaptureBase returns a copy of the capture base.
func (b *Bundle) CaptureBase() *CaptureBase { return b.doc.CaptureBase.Clone() }

// Attribute returns the type of a capture base attribute.
func (b *Bundle) Attribute(name string) (attribute.Type, bool) {
	return b.doc.CaptureBase.Attribute(name)
}

// AttributeNames returns the capture base attributes in declaration order.
func (b *Bundle) AttributeNames() []string { return b.doc.CaptureBase.AttributeNames() }

// FlaggedAttributes returns the sorted flagged attributes.
func (b *Bundle) FlaggedAttributes() []string {
	return slices.Clone(b.doc.CaptureBase.FlaggedAttributes)
}

// Classification returns the classification code of the capture base.
func (b *Bundle) Classification() string { return b.doc.CaptureBase.Classification }

// Overlays returns copies of the overlays in canonical order.
func (b *Bundle) Overlays() []Overlay { return mustCloneOverlays(b.doc.Overlays) }

// OverlaysOf returns copies of the overlays of one kind in canonical order.
func (b *Bundle) OverlaysOf(kind Kind) []Overlay {
	var of []Overlay
	for _, o := range b.doc.Overlays {
		if o.Kind() == kind {
			of = append(of, o)
		}
	}
	return mustCloneOverlays(of)
}

// Languages returns the sorted languages of all localized overlays.
func (b *Bundle) Languages() []string {
	var langs []string
	for _, o := range b.doc.Overlays {
		if lang := o.GetLanguage(); lang != "" {
			langs = append(langs, lang)
		}
	}
	slices.Sort(langs)
	return slices.Compact(langs)
}

// Document returns a copy of the JSON projection of the bundle.
func (b *Bundle) Document() (*Document, error) {
	return b.doc.Clone()
}

func (b *Bundle) MarshalJSON() ([]byte, error) {
	return Encode(b, EncodeOptions{})
}

// FromDocument rebuilds a bundle from its projection. All digests are recomputed,
// stored ones are ignored.
func FromDocument(doc *Document) (*Bundle, error) {
	if doc == nil || doc.CaptureBase == nil {
		return nil, fmt.Errorf("%w: missing capture base", ErrMalformedBundle)
	}
	builder := NewBuilder()
	cb := doc.CaptureBase
	if cb.Attributes != nil {
		for pair := cb.Attributes.Oldest(); pair != nil; pair = pair.Next() {
			if err := builder.AddAttribute(pair.Key, pair.Value); err != nil {
				return nil, err
			}
		}
	}
	for _, name := range cb.FlaggedAttributes {
		if err := builder.SetFlagged(name); err != nil {
			return nil, err
		}
	}
	if err := builder.SetClassification(cb.Classification); err != nil {
		return nil, err
	}
	for _, o := range doc.Overlays {
		if err := builder.AddOverlay(o); err != nil {
			return nil, err
		}
	}
	return builder.Finalize()
}

// Decode reads a bundle from its JSON or CBOR projection and recomputes its digests.
// Unlike DecodeDocument it fails on any problem in the input.
func Decode(data []byte) (*Bundle, error) {
	doc, issues, err := DecodeDocument(data)
	if err != nil {
		return nil, err
	}
	if len(issues) > 0 {
		errs := make([]error, 0, len(issues))
		for _, issue := range issues {
			errs = append(errs, issue)
		}
		return nil, errors.Join(errs...)
	}
	return FromDocument(doc)
}
