package jcs

// TransformationRules decides how fields and elements take part in the canonical form.
type TransformationRules interface {
	// Field returns the name to store the field under (empty to drop it),
	// the possibly transformed value and the rules for nested structures.
	Field(name string, value any) (string, any, TransformationRules)

	// Element reports whether an array element is dropped,
	// the possibly transformed value and the rules for nested structures.
	Element(v any) (bool, any, TransformationRules)

	NormalisationFilter
}

// ValueMappingRule transforms a value before any exclusion is applied.
type ValueMappingRule interface {
	MapValue(v any) any
}

// NormalisationFilter post-processes a normalized structure.
// Returning nil removes the value.
type NormalisationFilter interface {
	Filter(Normalised) (Normalised, error)
}

// MapExcludes drops the fields mapped to a nil rule.
// Any field not listed is included unchanged.
type MapExcludes map[string]TransformationRules

var _ TransformationRules = MapExcludes{}

func (r MapExcludes) Field(name string, value any) (string, any, TransformationRules) {
	if rule, ok := r[name]; ok {
		if rule == nil {
			return "", nil, nil
		}
		return name, value, rule
	}
	return name, value, NoExcludes{}
}

func (r MapExcludes) Element(value any) (bool, any, TransformationRules) {
	panic("invalid exclude structure, require array but found struct rules")
}

func (r MapExcludes) Filter(v Normalised) (Normalised, error) {
	return v, nil
}

// MapIncludes keeps only the listed fields.
type MapIncludes map[string]TransformationRules

var _ TransformationRules = MapIncludes{}

func (r MapIncludes) Field(name string, value any) (string, any, TransformationRules) {
	if rule, ok := r[name]; ok {
		if rule == nil {
			rule = NoExcludes{}
		}
		return name, value, rule
	}
	return "", nil, nil
}

func (r MapIncludes) Element(v any) (bool, any, TransformationRules) {
	panic("invalid exclude structure, require array but found struct rules")
}

func (r MapIncludes) Filter(v Normalised) (Normalised, error) {
	return v, nil
}

// NoExcludes keeps everything.
type NoExcludes struct{}

var _ TransformationRules = NoExcludes{}

func (r NoExcludes) Field(name string, value any) (string, any, TransformationRules) {
	return name, value, r
}

func (r NoExcludes) Element(value any) (bool, any, TransformationRules) {
	return false, value, r
}

func (r NoExcludes) Filter(v Normalised) (Normalised, error) {
	return v, nil
}

// ArrayExcludes applies the same rules to all elements of an array.
type ArrayExcludes struct {
	Continue TransformationRules
}

var _ TransformationRules = ArrayExcludes{}

func (r ArrayExcludes) Field(name string, value any) (string, any, TransformationRules) {
	panic("invalid exclude structure, require struct but found array rules")
}

func (r ArrayExcludes) Element(value any) (bool, any, TransformationRules) {
	return false, value, r.Continue
}

func (r ArrayExcludes) Filter(v Normalised) (Normalised, error) {
	return v, nil
}

// ValueMapper replaces a value before further rules are applied.
type ValueMapper func(v any) any

// MapValue transforms a value before Continue is applied.
type MapValue struct {
	Mapping  ValueMapper
	Continue TransformationRules
}

var (
	_ TransformationRules = MapValue{}
	_ ValueMappingRule    = MapValue{}
)

func (m MapValue) MapValue(value any) any {
	if m.Mapping != nil {
		return m.Mapping(value)
	}
	return value
}

func (m MapValue) Field(name string, value any) (string, any, TransformationRules) {
	if m.Continue != nil {
		return m.Continue.Field(name, value)
	}
	return name, value, NoExcludes{}
}

func (m MapValue) Element(value any) (bool, any, TransformationRules) {
	if m.Continue != nil {
		return m.Continue.Element(value)
	}
	return false, value, NoExcludes{}
}

func (m MapValue) Filter(v Normalised) (Normalised, error) {
	if m.Continue != nil {
		return m.Continue.Filter(v)
	}
	return v, nil
}
