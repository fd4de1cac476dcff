// Package attribute models the types of capture base attributes.
//
// A type is a scalar, a reference to another bundle, or an array of a type.
// Arrays nest without limit. Every type has two textual forms:
//
//   - the wire form used in bundle JSON, where an array is a one element JSON array:
//     "Numeric", ["Numeric"], [["refs:E..."]]
//   - the OCAfile form, where an array is written with Array[...]:
//     Numeric, Array[Numeric], Array[Array[refs:E...]]
//
// Parse and Wire as well as ParseString and String are exact inverses.
package attribute

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/sk31337/oca/bindings/go/said"
)

var ErrInvalidTypeSyntax = errors.New("invalid attribute type syntax")

// Scalar is a simple attribute kind.
type Scalar string

const (
	Text     Scalar = "Text"
	Numeric  Scalar = "Numeric"
	Boolean  Scalar = "Boolean"
	Binary   Scalar = "Binary"
	DateTime Scalar = "DateTime"
)

// Scalars lists all known scalars.
var Scalars = []Scalar{Text, Numeric, Boolean, Binary, DateTime}

func (s Scalar) valid() bool {
	switch s {
	case Text, Numeric, Boolean, Binary, DateTime:
		return true
	}
	return false
}

// ReferenceKind tells how a reference names its target.
type ReferenceKind string

const (
	// BySAID references a bundle by its digest.
	BySAID ReferenceKind = "refs"
	// ByName references a bundle by a name resolved outside of the bundle.
	ByName ReferenceKind = "refn"
)

// Reference points at another bundle. Existence of the target is never checked.
type Reference struct {
	Kind   ReferenceKind
	Target string
}

func (r Reference) String() string {
	return string(r.Kind) + ":" + r.Target
}

type form int

const (
	formInvalid form = iota
	formScalar
	formReference
	formArray
)

// Type is an attribute type. The zero value is not a valid type.
type Type struct {
	form   form
	scalar Scalar
	ref    Reference
	elem   *Type
}

// NewScalar returns the type of a scalar.
func NewScalar(s Scalar) Type {
	return Type{form: formScalar, scalar: s}
}

// RefSAID returns a reference to the bundle with the given digest.
func RefSAID(digest string) Type {
	return Type{form: formReference, ref: Reference{Kind: BySAID, Target: digest}}
}

// RefName returns a reference to the bundle with the given name.
func RefName(name string) Type {
	return Type{form: formReference, ref: Reference{Kind: ByName, Target: name}}
}

// ArrayOf returns an array of elem.
func ArrayOf(elem Type) Type {
	return Type{form: formArray, elem: &elem}
}

func (t Type) IsZero() bool      { return t.form == formInvalid }
func (t Type) IsScalar() bool    { return t.form == formScalar }
func (t Type) IsReference() bool { return t.form == formReference }
func (t Type) IsArray() bool     { return t.form == formArray }

// Scalar returns the scalar of a scalar type.
func (t Type) Scalar() (Scalar, bool) {
	return t.scalar, t.form == formScalar
}

// Reference returns the reference of a reference type.
func (t Type) Reference() (Reference, bool) {
	return t.ref, t.form == formReference
}

// Elem returns the element type of an array.
func (t Type) Elem() (Type, bool) {
	if t.form != formArray {
		return Type{}, false
	}
	return *t.elem, true
}

// Innermost returns the first type that is not an array, and the number of arrays around it.
func (t Type) Innermost() (Type, int) {
	depth := 0
	for t.form == formArray {
		t = *t.elem
		depth++
	}
	return t, depth
}

// References returns the bundle reference of the type, if any.
func (t Type) References() []Reference {
	inner, _ := t.Innermost()
	if inner.form != formReference {
		return nil
	}
	return []Reference{inner.ref}
}

// Equal reports whether both types are identical.
func (t Type) Equal(o Type) bool {
	if t.form != o.form {
		return false
	}
	switch t.form {
	case formScalar:
		return t.scalar == o.scalar
	case formReference:
		return t.ref == o.ref
	case formArray:
		return t.elem.Equal(*o.elem)
	}
	return true
}

// Wire returns the wire form: a string, or a one element slice for arrays.
func (t Type) Wire() any {
	switch t.form {
	case formScalar:
		return string(t.scalar)
	case formReference:
		return t.ref.String()
	case formArray:
		return []any{t.elem.Wire()}
	}
	return nil
}

// String returns the OCAfile form.
func (t Type) String() string {
	switch t.form {
	case formScalar:
		return string(t.scalar)
	case formReference:
		return t.ref.String()
	case formArray:
		return "Array[" + t.elem.String() + "]"
	}
	return ""
}

func (t Type) MarshalJSON() ([]byte, error) {
	if t.form == formInvalid {
		return nil, fmt.Errorf("%w: empty type", ErrInvalidTypeSyntax)
	}
	return json.Marshal(t.Wire())
}

func (t *Type) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := Parse(raw)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Parse reads the wire form of a type.
func Parse(raw any) (Type, error) {
	switch v := raw.(type) {
	case string:
		return parseName(v)
	case []any:
		if len(v) != 1 {
			return Type{}, fmt.Errorf("%w: array type must have exactly one element, got %d", ErrInvalidTypeSyntax, len(v))
		}
		elem, err := Parse(v[0])
		if err != nil {
			return Type{}, err
		}
		return ArrayOf(elem), nil
	case []string:
		if len(v) != 1 {
			return Type{}, fmt.Errorf("%w: array type must have exactly one element, got %d", ErrInvalidTypeSyntax, len(v))
		}
		elem, err := parseName(v[0])
		if err != nil {
			return Type{}, err
		}
		return ArrayOf(elem), nil
	case Type:
		if v.IsZero() {
			return Type{}, fmt.Errorf("%w: empty type", ErrInvalidTypeSyntax)
		}
		return v, nil
	default:
		return Type{}, fmt.Errorf("%w: unexpected %T", ErrInvalidTypeSyntax, raw)
	}
}

const arrayPrefix = "Array["

// ParseString reads the OCAfile form of a type.
func ParseString(s string) (Type, error) {
	if len(s) >= len(arrayPrefix) && strings.EqualFold(s[:len(arrayPrefix)], arrayPrefix) {
		if !strings.HasSuffix(s, "]") {
			return Type{}, fmt.Errorf("%w: %q misses a closing bracket", ErrInvalidTypeSyntax, s)
		}
		elem, err := ParseString(s[len(arrayPrefix) : len(s)-1])
		if err != nil {
			return Type{}, err
		}
		return ArrayOf(elem), nil
	}
	return parseName(s)
}

// MustParseString is ParseString for known good input.
func MustParseString(s string) Type {
	t, err := ParseString(s)
	if err != nil {
		panic(err)
	}
	return t
}

func parseName(s string) (Type, error) {
	if kind, target, ok := strings.Cut(s, ":"); ok {
		switch ReferenceKind(kind) {
		case BySAID:
			if err := said.Validate(target); err != nil {
				return Type{}, fmt.Errorf("%w: %w", ErrInvalidTypeSyntax, err)
			}
			return RefSAID(target), nil
		case ByName:
			if target == "" || strings.ContainsAny(target, " \t\r\n[]\"") {
				return Type{}, fmt.Errorf("%w: invalid reference name %q", ErrInvalidTypeSyntax, target)
			}
			return RefName(target), nil
		}
		return Type{}, fmt.Errorf("%w: unknown reference prefix %q", ErrInvalidTypeSyntax, kind)
	}
	if sc := Scalar(s); sc.valid() {
		return NewScalar(sc), nil
	}
	return Type{}, fmt.Errorf("%w: unknown type %q", ErrInvalidTypeSyntax, s)
}
