package jcs

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/cyberphone/json-canonicalization/go/src/webpki.org/jsoncanonicalizer"
)

// Normalise prepares v with the given rules and returns its canonical JSON form.
func Normalise(v any, rules TransformationRules) ([]byte, error) {
	entries, err := PrepareNormalisation(Type, v, rules)
	if err != nil {
		return nil, err
	}
	return entries.Marshal("")
}

// Type is the default normalisation instance implementing the JCS algorithm.
var Type = normalisation{}

type normalisation struct{}

func (normalisation) NewArray() Normalised {
	return &normalised{value: make([]any, 0)}
}

func (normalisation) NewMap() Normalised {
	return &normalised{value: make(map[string]any)}
}

func (normalisation) NewValue(v any) Normalised {
	return &normalised{value: v}
}

func (normalisation) String() string {
	return "JCS(rfc8785) normalisation"
}

// normalised wraps a value undergoing normalisation.
type normalised struct {
	value any
}

func (n *normalised) Value() any {
	return n.value
}

// IsEmpty reports empty maps and arrays. Scalars are never empty.
func (n *normalised) IsEmpty() bool {
	switch v := n.value.(type) {
	case map[string]any:
		return len(v) == 0
	case []any:
		return len(v) == 0
	default:
		return false
	}
}

// Append panics if called on a non-array value.
func (n *normalised) Append(elem Normalised) {
	n.value = append(n.value.([]any), elem.Value())
}

// SetField panics if called on a non-map value.
func (n *normalised) SetField(name string, value Normalised) {
	var v any
	if value != nil {
		v = value.Value()
	}
	n.value.(map[string]any)[name] = v
}

func (n *normalised) String() string {
	data, err := json.Marshal(n.value)
	if err != nil {
		return fmt.Sprintf("<invalid: %v>", err)
	}
	return string(data)
}

// Marshal encodes the normalized value to JSON.
// Without indentation the output is canonicalized, with indentation it is meant for humans.
func (n *normalised) Marshal(gap string) ([]byte, error) {
	buffer := new(bytes.Buffer)
	encoder := json.NewEncoder(buffer)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", gap)

	if err := encoder.Encode(n.Value()); err != nil {
		return nil, err
	}
	if gap != "" {
		return buffer.Bytes(), nil
	}
	data, err := jsoncanonicalizer.Transform(buffer.Bytes())
	if err != nil {
		return nil, fmt.Errorf("cannot canonicalize json: %w", err)
	}
	return data, nil
}

// Normalisation creates normalized JSON structures.
type Normalisation interface {
	NewArray() Normalised
	NewMap() Normalised
	NewValue(v any) Normalised
	String() string
}

// Normalised represents a normalized JSON structure.
type Normalised interface {
	Value() any
	IsEmpty() bool
	Marshal(gap string) ([]byte, error)
	Append(Normalised)
	SetField(name string, value Normalised)
}

type null struct{}

func (n *null) IsEmpty() bool                          { return true }
func (n *null) Marshal(gap string) ([]byte, error)     { return json.Marshal(nil) }
func (n *null) String() string                         { return "null" }
func (n *null) Append(normalised Normalised)           { panic("append on null") }
func (n *null) Value() any                             { return nil }
func (n *null) SetField(name string, value Normalised) { panic("set field on null") }

// Null represents a normalized null value.
var Null Normalised = (*null)(nil)

// PrepareNormalisation converts v into a normalized structure by marshaling it to JSON
// and reading it back as a map, an array or a plain value.
func PrepareNormalisation(n Normalisation, v any, rules TransformationRules) (Normalised, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}

	decoder := json.NewDecoder(bytes.NewReader(data))
	var raw any
	if err := decoder.Decode(&raw); err != nil {
		return nil, err
	}

	// the root takes part in the rules like any nested value
	return Prepare(n, raw, rules)
}

// Prepare recursively converts v into a normalized structure, applying the rules on the way.
func Prepare(n Normalisation, v any, rules TransformationRules) (Normalised, error) {
	if v == nil {
		return Null, nil
	}

	if rules == nil {
		rules = NoExcludes{}
	}

	if mapper, ok := rules.(ValueMappingRule); ok {
		v = mapper.MapValue(v)
	}

	if _, err := json.Marshal(v); err != nil {
		return nil, fmt.Errorf("cannot marshal value: %w", err)
	}

	var result Normalised
	var err error
	switch typed := v.(type) {
	case map[string]any:
		result, err = prepareStruct(n, typed, rules)
	case []any:
		result, err = prepareArray(n, typed, rules)
	default:
		return n.NewValue(v), nil
	}
	if err != nil {
		return nil, err
	}
	if filter, ok := rules.(NormalisationFilter); ok {
		return filter.Filter(result)
	}
	return result, nil
}

func prepareStruct(n Normalisation, v map[string]any, rules TransformationRules) (Normalised, error) {
	if v == nil {
		return n.NewMap(), nil
	}

	if rules == nil {
		rules = NoExcludes{}
	}

	entries := n.NewMap()
	for key, value := range v {
		if value == nil {
			continue
		}
		name, mapped, prop := rules.Field(key, value)
		if name == "" {
			continue
		}
		nested, err := Prepare(n, mapped, prop)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", key, err)
		}
		// filtered out, or mapped to nothing
		if nested == nil || nested == Null {
			continue
		}
		entries.SetField(name, nested)
	}
	return entries, nil
}

func prepareArray(n Normalisation, v []any, rules TransformationRules) (Normalised, error) {
	if v == nil {
		return n.NewArray(), nil
	}

	if rules == nil {
		rules = NoExcludes{}
	}

	entries := n.NewArray()
	for index, value := range v {
		exclude, mapped, prop := rules.Element(value)
		if exclude {
			continue
		}
		nested, err := Prepare(n, mapped, prop)
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", index, err)
		}
		if nested == nil || nested == Null {
			// positions in an array are significant, keep a null
			entries.Append(n.NewValue(nil))
			continue
		}
		entries.Append(nested)
	}
	return entries, nil
}
