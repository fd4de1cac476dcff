package bundle

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"unicode"

	"github.com/Masterminds/semver/v3"
	"golang.org/x/text/language"

	"github.com/sk31337/oca/bindings/go/bundle/attribute"
	v1 "github.com/sk31337/oca/bindings/go/normalisation/json/v1"
	"github.com/sk31337/oca/bindings/go/said"
)

// Builder accumulates a capture base and its overlays until Finalize freezes them
// into a Bundle. A Builder is owned by a single caller; concurrent builds use
// separate builders. A failed call leaves the builder unchanged.
type Builder struct {
	name           string
	attributes     *Attributes
	flagged        map[string]struct{}
	classification string
	overlays       []Overlay
	seen           map[overlayKey]struct{}
	finalized      bool
}

type overlayKey struct {
	kind Kind
	key  string
}

// NewBuilder returns an empty builder.
func NewBuilder() *Builder {
	return &Builder{
		attributes: NewAttributes(),
		flagged:    map[string]struct{}{},
		seen:       map[overlayKey]struct{}{},
	}
}

// SetName sets the bundle name. The name is metadata and not part of any digest.
func (b *Builder) SetName(name string) error {
	if b.finalized {
		return ErrBuilderFinalized
	}
	b.name = name
	return nil
}

// AddAttribute declares an attribute of the capture base.
func (b *Builder) AddAttribute(name string, typ attribute.Type) error {
	if b.finalized {
		return ErrBuilderFinalized
	}
	if err := ValidateAttributeName(name); err != nil {
		return err
	}
	if typ.IsZero() {
		return fmt.Errorf("attribute %q: %w", name, attribute.ErrInvalidTypeSyntax)
	}
	if _, exists := b.attributes.Get(name); exists {
		return fmt.Errorf("%w: %q", ErrDuplicateAttribute, name)
	}
	b.attributes.Set(name, typ)
	return nil
}

// SetFlagged flags a declared attribute.
func (b *Builder) SetFlagged(name string) error {
	if b.finalized {
		return ErrBuilderFinalized
	}
	if _, exists := b.attributes.Get(name); !exists {
		return fmt.Errorf("%w: cannot flag %q", ErrUnknownAttribute, name)
	}
	b.flagged[name] = struct{}{}
	return nil
}

// SetClassification sets the classification code of the capture base.
func (b *Builder) SetClassification(code string) error {
	if b.finalized {
		return ErrBuilderFinalized
	}
	b.classification = code
	return nil
}

// AddOverlay adds a copy of the overlay. Its shape is checked here; whether the
// attributes it refers to exist is left to validation, since overlays may be
// added before all attributes are declared.
func (b *Builder) AddOverlay(o Overlay) error {
	if b.finalized {
		return ErrBuilderFinalized
	}
	if o == nil {
		return fmt.Errorf("%w: nil overlay", ErrInvalidOverlay)
	}
	typ := o.GetType()
	if typ.IsEmpty() {
		typ = o.Kind().Type(DefaultVersion)
	}
	owned, err := cloneOverlayAs(o, typ)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidOverlay, err)
	}
	if err := CheckOverlay(owned); err != nil {
		return err
	}

	key := overlayKey{kind: owned.Kind()}
	switch {
	case owned.Kind().Localized():
		key.key = strings.ToLower(owned.GetLanguage())
	case owned.Kind() == KindLink:
		key.key = owned.(*Link).TargetBundle
	}
	if _, dup := b.seen[key]; dup {
		if owned.Kind().Localized() {
			return fmt.Errorf("%w: %s overlay for language %q", ErrDuplicateLanguageOverlay, owned.Kind(), owned.GetLanguage())
		}
		return fmt.Errorf("%w: %s overlay", ErrDuplicateOverlay, owned.Kind())
	}

	owned.SetDigest("")
	owned.SetCaptureBase("")

	b.seen[key] = struct{}{}
	b.overlays = append(b.overlays, owned)
	return nil
}

// AttributeNames returns the declared attributes in declaration order.
func (b *Builder) AttributeNames() []string {
	names := make([]string, 0, b.attributes.Len())
	for pair := b.attributes.Oldest(); pair != nil; pair = pair.Next() {
		names = append(names, pair.Key)
	}
	return names
}

// Len returns the number of declared attributes.
func (b *Builder) Len() int {
	return b.attributes.Len()
}

// Overlays returns the number of added overlays.
func (b *Builder) Overlays() int {
	return len(b.overlays)
}

// Finalized reports whether Finalize succeeded.
func (b *Builder) Finalized() bool {
	return b.finalized
}

// Finalize digests the capture base, then every overlay, then the bundle,
// and returns the immutable result. The builder cannot be used afterwards.
func (b *Builder) Finalize() (*Bundle, error) {
	if b.finalized {
		return nil, ErrBuilderFinalized
	}

	flagged := make([]string, 0, len(b.flagged))
	for name := range b.flagged {
		flagged = append(flagged, name)
	}
	slices.Sort(flagged)

	doc := &Document{
		CaptureBase: &CaptureBase{
			Type:              CaptureBaseType,
			Attributes:        b.attributes,
			Classification:    b.classification,
			FlaggedAttributes: flagged,
		},
		// an empty list is digested as [] exactly like it is encoded
		Overlays: append(make([]Overlay, 0, len(b.overlays)), b.overlays...),
	}
	if err := computeDigests(doc); err != nil {
		return nil, err
	}

	bundle := &Bundle{name: b.name, doc: doc}
	v, err := bundle.versionFor(EncodeOptions{})
	if err != nil {
		return nil, err
	}
	doc.V = v

	// the capture base now shares the attribute map, the builder must not touch it again
	b.finalized = true
	return bundle, nil
}

// computeDigests digests bottom-up: the capture base, the overlays attached to it
// and finally the document with its overlays in canonical order.
func computeDigests(doc *Document) error {
	cbDigest, err := said.Compute(doc.CaptureBase, v1.Algorithm)
	if err != nil {
		return fmt.Errorf("capture base: %w", err)
	}
	for _, o := range doc.Overlays {
		o.SetCaptureBase(cbDigest)
		if _, err := said.Compute(o, v1.Algorithm); err != nil {
			return fmt.Errorf("%s overlay: %w", o.Kind(), err)
		}
	}
	SortOverlays(doc.Overlays)
	if _, err := said.Compute(doc, v1.BundleAlgorithm); err != nil {
		return fmt.Errorf("bundle: %w", err)
	}
	return nil
}

// ValidateAttributeName accepts non-empty names without whitespace, quotes, brackets or '='.
// A leading '#' is rejected as it starts a comment in an OCAfile.
func ValidateAttributeName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidAttributeName)
	}
	if strings.HasPrefix(name, "#") {
		return fmt.Errorf("%w: %q starts with '#'", ErrInvalidAttributeName, name)
	}
	for _, r := range name {
		if unicode.IsSpace(r) || strings.ContainsRune(`"=[]\`, r) {
			return fmt.Errorf("%w: %q contains %q", ErrInvalidAttributeName, name, r)
		}
	}
	return nil
}

// CheckOverlay validates the shape of an overlay: its type and version,
// its language and its kind specific payload.
func CheckOverlay(o Overlay) error {
	typ := o.GetType()
	kind, ok := KindForType(typ)
	if !ok || kind != o.Kind() {
		return fmt.Errorf("%w: type %q does not match kind %s", ErrInvalidOverlay, typ, o.Kind())
	}
	if _, err := semver.StrictNewVersion(typ.Version); err != nil {
		return fmt.Errorf("%w: %s: version %q: %w", ErrInvalidOverlay, kind, typ.Version, err)
	}
	if kind.Localized() {
		if err := ValidateLanguage(o.GetLanguage()); err != nil {
			return fmt.Errorf("%w: %s: %w", ErrInvalidOverlay, kind, err)
		}
	}
	if err := o.Validate(); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrInvalidOverlay, kind, err)
	}
	return nil
}

// ValidateLanguage accepts well-formed BCP 47 tags, including unregistered subtags.
func ValidateLanguage(tag string) error {
	if tag == "" {
		return errors.New("missing language")
	}
	if _, err := language.Parse(tag); err != nil {
		var unknown language.ValueError
		if errors.As(err, &unknown) {
			return nil
		}
		return fmt.Errorf("invalid language %q: %w", tag, err)
	}
	return nil
}
