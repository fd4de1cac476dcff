package bundle

import (
	"cmp"
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/sk31337/oca/bindings/go/bundle/attribute"
	"github.com/sk31337/oca/bindings/go/runtime"
)

// Document is the plain JSON projection of a bundle.
// Unlike a Bundle it may be incomplete or inconsistent, which makes it the input of validation.
type Document struct {
	V           string       `json:"v,omitempty"`
	Digest      string       `json:"digest"`
	CaptureBase *CaptureBase `json:"capture_base"`
	Overlays    []Overlay    `json:"overlays"`
}

func (d *Document) GetDigest() string       { return d.Digest }
func (d *Document) SetDigest(digest string) { d.Digest = digest }

// Clone returns a deep copy of the document.
func (d *Document) Clone() (*Document, error) {
	c := &Document{V: d.V, Digest: d.Digest, Overlays: make([]Overlay, 0, len(d.Overlays))}
	if d.CaptureBase != nil {
		c.CaptureBase = d.CaptureBase.Clone()
	}
	for _, o := range d.Overlays {
		cloned, err := cloneOverlay(o)
		if err != nil {
			return nil, err
		}
		c.Overlays = append(c.Overlays, cloned)
	}
	return c, nil
}

// SortOverlays puts overlays into their canonical order: by type, language and digest.
func SortOverlays(overlays []Overlay) {
	slices.SortStableFunc(overlays, func(a, b Overlay) int {
		return cmp.Or(
			cmp.Compare(a.GetType().String(), b.GetType().String()),
			cmp.Compare(a.GetLanguage(), b.GetLanguage()),
			cmp.Compare(a.GetDigest(), b.GetDigest()),
		)
	})
}

func cloneOverlay(o Overlay) (Overlay, error) {
	return cloneOverlayAs(o, o.GetType())
}

// cloneOverlayAs deep copies an overlay and gives the copy the type typ.
// The original is never modified.
func cloneOverlayAs(o Overlay, typ runtime.Type) (Overlay, error) {
	clone := o.Kind().New()
	if clone == nil {
		return nil, fmt.Errorf("unknown overlay kind %s", o.Kind())
	}
	data, err := json.Marshal(o)
	if err != nil {
		return nil, fmt.Errorf("could not marshal overlay %s: %w", o.Kind(), err)
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("could not unmarshal overlay %s: %w", o.Kind(), err)
	}
	delete(fields, "type")
	if data, err = json.Marshal(fields); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(data, clone); err != nil {
		return nil, fmt.Errorf("could not unmarshal overlay %s: %w", o.Kind(), err)
	}
	clone.SetType(typ)
	return clone, nil
}

// mustCloneOverlays copies overlays owned by a finalized bundle.
// Those were produced by cloneOverlay before, so copying them again cannot fail.
func mustCloneOverlays(overlays []Overlay) []Overlay {
	out := make([]Overlay, 0, len(overlays))
	for _, o := range overlays {
		c, err := cloneOverlay(o)
		if err != nil {
			panic(fmt.Sprintf("bundle: copying %s overlay: %v", o.Kind(), err))
		}
		out = append(out, c)
	}
	return out
}

// DecodeDocument reads the JSON projection of a bundle.
// CBOR input is converted first. Comments are allowed, "d" is read as an alias of "digest" and overlay fields may be
// nested under "properties". Only input that is not a JSON object at all fails;
// every other problem is reported as an Issue and the affected part is left out.
func DecodeDocument(data []byte) (*Document, []*Issue, error) {
	data, err := ToJSON(data)
	if err != nil {
		return nil, nil, err
	}
	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrMalformedBundle, err)
	}
	if top == nil {
		return nil, nil, fmt.Errorf("%w: document is null", ErrMalformedBundle)
	}

	doc := &Document{
		CaptureBase: &CaptureBase{Attributes: NewAttributes(), FlaggedAttributes: []string{}},
		Overlays:    []Overlay{},
	}
	var issues []*Issue
	malformed := func(path string, err error) {
		issues = append(issues, &Issue{Path: path, Err: fmt.Errorf("%w: %w", ErrMalformedBundle, err)})
	}

	aliasDigest(top)
	if err := optionalString(top, "v", &doc.V); err != nil {
		malformed("v", err)
	}
	if err := requiredString(top, "digest", &doc.Digest); err != nil {
		malformed("digest", err)
	}

	if raw, ok := top["capture_base"]; ok {
		issues = append(issues, decodeCaptureBase(raw, doc.CaptureBase)...)
	} else {
		malformed("capture_base", errors.New("missing field"))
	}

	raw, ok := top["overlays"]
	if !ok {
		malformed("overlays", errors.New("missing field"))
		return doc, issues, nil
	}
	var overlays []json.RawMessage
	if err := json.Unmarshal(raw, &overlays); err != nil {
		malformed("overlays", err)
		return doc, issues, nil
	}
	for i, raw := range overlays {
		o, issue := decodeOverlay(raw)
		if issue != nil {
			issue.Path = fmt.Sprintf("overlays[%d]", i)
			issues = append(issues, issue)
			continue
		}
		doc.Overlays = append(doc.Overlays, o)
	}

	return doc, issues, nil
}

func decodeCaptureBase(data json.RawMessage, cb *CaptureBase) []*Issue {
	var issues []*Issue
	malformed := func(path string, err error) {
		issues = append(issues, &Issue{Path: "capture_base" + path, Err: fmt.Errorf("%w: %w", ErrMalformedBundle, err)})
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		malformed("", err)
		return issues
	}
	if fields == nil {
		malformed("", errors.New("expected an object"))
		return issues
	}
	aliasDigest(fields)

	if err := requiredString(fields, "digest", &cb.Digest); err != nil {
		malformed(".digest", err)
	}
	var typ string
	if err := requiredString(fields, "type", &typ); err != nil {
		malformed(".type", err)
	} else if parsed, err := runtime.TypeFromString(typ); err != nil {
		malformed(".type", err)
	} else {
		cb.Type = parsed
	}
	if err := optionalString(fields, "classification", &cb.Classification); err != nil {
		malformed(".classification", err)
	}
	if raw, ok := fields["flagged_attributes"]; ok && string(raw) != "null" {
		var flagged []string
		if err := json.Unmarshal(raw, &flagged); err != nil {
			malformed(".flagged_attributes", err)
		} else {
			cb.FlaggedAttributes = flagged
		}
	}

	raw, ok := fields["attributes"]
	if !ok {
		malformed(".attributes", errors.New("missing field"))
		return issues
	}
	attrs := orderedmap.New[string, json.RawMessage]()
	if err := json.Unmarshal(raw, attrs); err != nil {
		malformed(".attributes", err)
		return issues
	}
	for pair := attrs.Oldest(); pair != nil; pair = pair.Next() {
		var value any
		if err := json.Unmarshal(pair.Value, &value); err != nil {
			malformed(".attributes."+pair.Key, err)
			continue
		}
		typ, err := attribute.Parse(value)
		if err != nil {
			malformed(".attributes."+pair.Key, err)
			continue
		}
		cb.Attributes.Set(pair.Key, typ)
	}
	return issues
}

func decodeOverlay(data json.RawMessage) (Overlay, *Issue) {
	malformed := func(err error) *Issue {
		return &Issue{Err: fmt.Errorf("%w: %w", ErrMalformedBundle, err)}
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, malformed(err)
	}
	if fields == nil {
		return nil, malformed(errors.New("expected an object"))
	}
	aliasDigest(fields)
	if raw, ok := fields["properties"]; ok {
		var props map[string]json.RawMessage
		if err := json.Unmarshal(raw, &props); err != nil {
			return nil, malformed(fmt.Errorf("properties: %w", err))
		}
		delete(fields, "properties")
		for k, v := range props {
			if _, exists := fields[k]; !exists {
				fields[k] = v
			}
		}
	}

	var typeName string
	if err := requiredString(fields, "type", &typeName); err != nil {
		return nil, malformed(fmt.Errorf("type: %w", err))
	}
	typ, err := runtime.TypeFromString(typeName)
	if err != nil {
		return nil, malformed(err)
	}
	if _, ok := KindForType(typ); !ok {
		return nil, &Issue{Err: fmt.Errorf("%w: %s", ErrUnknownOverlayKind, typ)}
	}
	obj, err := Scheme.NewObject(typ)
	if err != nil {
		return nil, &Issue{Err: fmt.Errorf("%w: %w", ErrUnknownOverlayKind, err)}
	}
	o := obj.(Overlay)

	flat, err := json.Marshal(fields)
	if err != nil {
		return nil, malformed(err)
	}
	if err := json.Unmarshal(flat, o); err != nil {
		return nil, malformed(fmt.Errorf("%s: %w", typ, err))
	}
	return o, nil
}

func aliasDigest(fields map[string]json.RawMessage) {
	if _, ok := fields["digest"]; ok {
		return
	}
	if d, ok := fields["d"]; ok {
		fields["digest"] = d
		delete(fields, "d")
	}
}

func optionalString(fields map[string]json.RawMessage, key string, into *string) error {
	raw, ok := fields[key]
	if !ok || string(raw) == "null" {
		return nil
	}
	return json.Unmarshal(raw, into)
}

func requiredString(fields map[string]json.RawMessage, key string, into *string) error {
	if _, ok := fields[key]; !ok {
		return errors.New("missing field")
	}
	return optionalString(fields, key, into)
}
