package bundle

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"regexp"
	"slices"
	"strconv"

	"github.com/sk31337/oca/bindings/go/condition"
	"github.com/sk31337/oca/bindings/go/runtime"
	"github.com/sk31337/oca/bindings/go/said"
)

// Overlay is a layer of metadata attached to a capture base by attribute name.
type Overlay interface {
	runtime.Typed
	said.Addressable

	Kind() Kind
	// GetLanguage returns the language tag of localized kinds, empty otherwise.
	GetLanguage() string
	GetCaptureBase() string
	SetCaptureBase(string)
	// AttributeNames returns the sorted capture base attributes the overlay refers to.
	AttributeNames() []string
	// Validate checks the shape of the kind specific payload.
	Validate() error
}

// Header holds the fields shared by all overlays.
type Header struct {
	Digest      string       `json:"digest,omitempty"`
	CaptureBase string       `json:"capture_base,omitempty"`
	Type        runtime.Type `json:"type"`
}

func (h *Header) GetType() runtime.Type    { return h.Type }
func (h *Header) SetType(typ runtime.Type) { h.Type = typ }
func (h *Header) GetDigest() string        { return h.Digest }
func (h *Header) SetDigest(digest string)  { h.Digest = digest }
func (h *Header) GetCaptureBase() string   { return h.CaptureBase }
func (h *Header) SetCaptureBase(cb string) { h.CaptureBase = cb }

// Localized is embedded by kinds that exist once per language.
type Localized struct {
	Language string `json:"language"`
}

func (l *Localized) GetLanguage() string { return l.Language }

// Universal is embedded by kinds that do not depend on a language.
type Universal struct{}

func (Universal) GetLanguage() string { return "" }

// Meta carries the name and description of a bundle in one language.
// Any further properties are kept in Extra and serialised next to the known fields.
type Meta struct {
	Header
	Localized
	Name        string            `json:"name,omitempty"`
	Description string            `json:"description,omitempty"`
	Extra       map[string]string `json:"-"`
}

func (*Meta) Kind() Kind               { return KindMeta }
func (*Meta) AttributeNames() []string { return nil }
func (m *Meta) Validate() error {
	for k := range m.Extra {
		if k == "" {
			return errors.New("meta property with empty name")
		}
	}
	return nil
}

var metaFields = []string{"digest", "capture_base", "type", "language", "name", "description"}

func (m *Meta) MarshalJSON() ([]byte, error) {
	type plain Meta
	data, err := json.Marshal((*plain)(m))
	if err != nil || len(m.Extra) == 0 {
		return data, err
	}
	fields := map[string]any{}
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, err
	}
	for k, v := range m.Extra {
		if !slices.Contains(metaFields, k) {
			fields[k] = v
		}
	}
	return json.Marshal(fields)
}

func (m *Meta) UnmarshalJSON(data []byte) error {
	type plain Meta
	if err := json.Unmarshal(data, (*plain)(m)); err != nil {
		return err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	m.Extra = nil
	for k, raw := range fields {
		if slices.Contains(metaFields, k) {
			continue
		}
		var v string
		if err := json.Unmarshal(raw, &v); err != nil {
			return fmt.Errorf("meta property %q must be a string: %w", k, err)
		}
		if m.Extra == nil {
			m.Extra = map[string]string{}
		}
		m.Extra[k] = v
	}
	return nil
}

// Label maps attributes to their labels in one language.
type Label struct {
	Header
	Localized
	AttributeLabels map[string]string `json:"attribute_labels,omitempty"`
}

func (*Label) Kind() Kind                 { return KindLabel }
func (l *Label) AttributeNames() []string { return sortedKeys(l.AttributeLabels) }
func (l *Label) Validate() error          { return checkKeys(l.AttributeLabels) }

// Information maps attributes to a description in one language.
type Information struct {
	Header
	Localized
	AttributeInformation map[string]string `json:"attribute_information,omitempty"`
}

func (*Information) Kind() Kind                 { return KindInformation }
func (i *Information) AttributeNames() []string { return sortedKeys(i.AttributeInformation) }
func (i *Information) Validate() error          { return checkKeys(i.AttributeInformation) }

// Entry maps attributes to the human readable text of their entry codes in one language.
type Entry struct {
	Header
	Localized
	AttributeEntries map[string]map[string]string `json:"attribute_entries,omitempty"`
}

func (*Entry) Kind() Kind                 { return KindEntry }
func (e *Entry) AttributeNames() []string { return sortedKeys(e.AttributeEntries) }
func (e *Entry) Validate() error {
	if err := checkKeys(e.AttributeEntries); err != nil {
		return err
	}
	for attr, entries := range e.AttributeEntries {
		if len(entries) == 0 {
			return fmt.Errorf("attribute %q has no entries", attr)
		}
		for code := range entries {
			if code == "" {
				return fmt.Errorf("attribute %q has an entry with an empty code", attr)
			}
		}
	}
	return nil
}

// EntryCode maps attributes to the ordered set of codes they accept.
type EntryCode struct {
	Header
	Universal
	AttributeEntryCodes map[string][]string `json:"attribute_entry_codes,omitempty"`
}

func (*EntryCode) Kind() Kind                 { return KindEntryCode }
func (e *EntryCode) AttributeNames() []string { return sortedKeys(e.AttributeEntryCodes) }
func (e *EntryCode) Validate() error {
	if err := checkKeys(e.AttributeEntryCodes); err != nil {
		return err
	}
	for attr, codes := range e.AttributeEntryCodes {
		if len(codes) == 0 {
			return fmt.Errorf("attribute %q has no entry codes", attr)
		}
		seen := make(map[string]struct{}, len(codes))
		for _, code := range codes {
			if code == "" {
				return fmt.Errorf("attribute %q has an empty entry code", attr)
			}
			if _, dup := seen[code]; dup {
				return fmt.Errorf("attribute %q has entry code %q more than once", attr, code)
			}
			seen[code] = struct{}{}
		}
	}
	return nil
}

// Format maps attributes to a format pattern.
type Format struct {
	Header
	Universal
	AttributeFormats map[string]string `json:"attribute_formats,omitempty"`
}

func (*Format) Kind() Kind                 { return KindFormat }
func (f *Format) AttributeNames() []string { return sortedKeys(f.AttributeFormats) }
func (f *Format) Validate() error          { return checkKeys(f.AttributeFormats) }

// CharacterEncoding maps attributes to the encoding of their values.
type CharacterEncoding struct {
	Header
	Universal
	DefaultCharacterEncoding    string            `json:"default_character_encoding,omitempty"`
	AttributeCharacterEncodings map[string]string `json:"attribute_character_encodings,omitempty"`
}

func (*CharacterEncoding) Kind() Kind { return KindCharacterEncoding }
func (c *CharacterEncoding) AttributeNames() []string {
	return sortedKeys(c.AttributeCharacterEncodings)
}
func (c *CharacterEncoding) Validate() error { return checkKeys(c.AttributeCharacterEncodings) }

// Unit maps attributes to the unit of their values within one metric system.
type Unit struct {
	Header
	Universal
	MetricSystem   string            `json:"metric_system"`
	AttributeUnits map[string]string `json:"attribute_units,omitempty"`
}

func (*Unit) Kind() Kind                 { return KindUnit }
func (u *Unit) AttributeNames() []string { return sortedKeys(u.AttributeUnits) }
func (u *Unit) Validate() error {
	if u.MetricSystem == "" {
		return errors.New("unit overlay requires a metric system")
	}
	return checkKeys(u.AttributeUnits)
}

// Classification classifies the whole capture base.
type Classification struct {
	Header
	Universal
	Classification string `json:"classification"`
}

func (*Classification) Kind() Kind               { return KindClassification }
func (*Classification) AttributeNames() []string { return nil }
func (c *Classification) Validate() error {
	if c.Classification == "" {
		return errors.New("classification overlay requires a classification")
	}
	return nil
}

// Cardinality maps attributes to the number of values they hold: n, n..m or n..*.
type Cardinality struct {
	Header
	Universal
	AttributeCardinalities map[string]string `json:"attribute_cardinalities,omitempty"`
}

var cardinalityPattern = regexp.MustCompile(`^(\d+)(?:\.\.(\d+|\*))?$`)

func (*Cardinality) Kind() Kind                 { return KindCardinality }
func (c *Cardinality) AttributeNames() []string { return sortedKeys(c.AttributeCardinalities) }
func (c *Cardinality) Validate() error {
	if err := checkKeys(c.AttributeCardinalities); err != nil {
		return err
	}
	for attr, value := range c.AttributeCardinalities {
		if _, _, err := ParseCardinality(value); err != nil {
			return fmt.Errorf("attribute %q: %w", attr, err)
		}
	}
	return nil
}

// ParseCardinality returns the bounds of a cardinality. An unbounded maximum is -1.
func ParseCardinality(value string) (min, max int, err error) {
	m := cardinalityPattern.FindStringSubmatch(value)
	if m == nil {
		return 0, 0, fmt.Errorf("invalid cardinality %q", value)
	}
	if min, err = strconv.Atoi(m[1]); err != nil {
		return 0, 0, fmt.Errorf("invalid cardinality %q: %w", value, err)
	}
	switch m[2] {
	case "":
		return min, min, nil
	case "*":
		return min, -1, nil
	}
	if max, err = strconv.Atoi(m[2]); err != nil {
		return 0, 0, fmt.Errorf("invalid cardinality %q: %w", value, err)
	}
	if max < min {
		return 0, 0, fmt.Errorf("invalid cardinality %q: maximum below minimum", value)
	}
	return min, max, nil
}

// Conformance maps attributes to their conformance, O (optional) or M (mandatory)
// or the name of a conformance rule.
type Conformance struct {
	Header
	Universal
	AttributeConformances map[string]string `json:"attribute_conformances,omitempty"`
}

const (
	ConformanceOptional  = "O"
	ConformanceMandatory = "M"
)

func (*Conformance) Kind() Kind                 { return KindConformance }
func (c *Conformance) AttributeNames() []string { return sortedKeys(c.AttributeConformances) }
func (c *Conformance) Validate() error          { return checkValues(c.AttributeConformances) }

// Standard maps attributes to the standard their values follow.
type Standard struct {
	Header
	Universal
	AttributeStandards map[string]string `json:"attribute_standards,omitempty"`
}

func (*Standard) Kind() Kind                 { return KindStandard }
func (s *Standard) AttributeNames() []string { return sortedKeys(s.AttributeStandards) }
func (s *Standard) Validate() error          { return checkValues(s.AttributeStandards) }

// Mapping maps attributes to names in an external schema.
type Mapping struct {
	Header
	Universal
	AttributeMappings map[string]string `json:"attribute_mappings,omitempty"`
}

func (*Mapping) Kind() Kind                 { return KindMapping }
func (m *Mapping) AttributeNames() []string { return sortedKeys(m.AttributeMappings) }
func (m *Mapping) Validate() error          { return checkValues(m.AttributeMappings) }

// Sensitive lists the attributes holding sensitive data.
type Sensitive struct {
	Header
	Universal
	Attributes []string `json:"attributes,omitempty"`
}

func (*Sensitive) Kind() Kind { return KindSensitive }
func (s *Sensitive) AttributeNames() []string {
	names := slices.Clone(s.Attributes)
	slices.Sort(names)
	return slices.Compact(names)
}
func (s *Sensitive) Validate() error {
	if slices.Contains(s.Attributes, "") {
		return errors.New("empty attribute name")
	}
	return nil
}

// Link maps attributes onto the attributes of another bundle.
type Link struct {
	Header
	Universal
	TargetBundle     string            `json:"target_bundle"`
	AttributeMapping map[string]string `json:"attribute_mapping,omitempty"`
}

func (*Link) Kind() Kind                 { return KindLink }
func (l *Link) AttributeNames() []string { return sortedKeys(l.AttributeMapping) }
func (l *Link) Validate() error {
	if err := said.Validate(l.TargetBundle); err != nil {
		return fmt.Errorf("link target: %w", err)
	}
	return checkValues(l.AttributeMapping)
}

// Conditional maps attributes to the condition under which they are captured.
// Conditions refer to other attributes as ${name}, see package condition.
type Conditional struct {
	Header
	Universal
	AttributeConditions map[string]string `json:"attribute_conditions,omitempty"`
}

func (*Conditional) Kind() Kind { return KindConditional }

// AttributeNames includes the attributes the conditions refer to.
func (c *Conditional) AttributeNames() []string {
	names := sortedKeys(c.AttributeConditions)
	for _, expr := range c.AttributeConditions {
		if cond, err := condition.Compile(expr); err == nil {
			names = append(names, cond.References()...)
		}
	}
	slices.Sort(names)
	return slices.Compact(names)
}

func (c *Conditional) Validate() error {
	if err := checkValues(c.AttributeConditions); err != nil {
		return err
	}
	for attr, expr := range c.AttributeConditions {
		if _, err := condition.Compile(expr); err != nil {
			return fmt.Errorf("attribute %q: %w", attr, err)
		}
	}
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	return slices.Sorted(maps.Keys(m))
}

func checkKeys[V any](m map[string]V) error {
	if _, ok := m[""]; ok {
		return errors.New("empty attribute name")
	}
	return nil
}

func checkValues(m map[string]string) error {
	if err := checkKeys(m); err != nil {
		return err
	}
	for k, v := range m {
		if v == "" {
			return fmt.Errorf("attribute %q has an empty value", k)
		}
	}
	return nil
}
