package runtime

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Typed is any object that is defined by a type that is versioned.
type Typed interface {
	// GetType returns the object's type
	GetType() Type
	SetType(Type)
}

// Type represents a structured type with an optional group, an optional version and a name.
// It is used to identify the type of an object in a versioned document.
// Group is the family of the type (for example "overlay"),
// Name is the name of the type and Version is a specific iteration of the type.
//
// Bundle documents use the forms
//   - "capture_base/2.0.0" (name/version)
//   - "overlay/label/2.0.0" (group/name/version)
type Type struct {
	Group   string
	Name    string
	Version string
}

// NewUnversionedType creates a new Type instance without a version.
func NewUnversionedType(name string) Type {
	return Type{Name: name}
}

// NewVersionedType creates a new Type instance with a version.
func NewVersionedType(name, version string) Type {
	return Type{Name: name, Version: version}
}

// NewGroupVersionedType creates a new Type instance with a group and a version.
func NewGroupVersionedType(group, name, version string) Type {
	return Type{Group: group, Name: name, Version: version}
}

// NewGroupType creates a new Type instance with a group but without a version.
func NewGroupType(group, name string) Type {
	return Type{Group: group, Name: name}
}

// TypeFromString parses a type string in the formats:
// - "name" (unversioned)
// - "name/version" (versioned)
// - "group/name/version" (grouped and versioned)
func TypeFromString(typ string) (Type, error) {
	parts := strings.Split(typ, "/")

	var t Type
	switch len(parts) {
	case 1:
		t = Type{Name: parts[0]}
	case 2:
		t = Type{Name: parts[0], Version: parts[1]}
	case 3:
		t = Type{Group: parts[0], Name: parts[1], Version: parts[2]}
		if t.Group == "" {
			return Type{}, fmt.Errorf("invalid type %q, empty group", typ)
		}
	default:
		return Type{}, fmt.Errorf("invalid type %q, too many segments", typ)
	}

	if t.Name == "" {
		return Type{}, fmt.Errorf("invalid type %q, missing name", typ)
	}
	if len(parts) > 1 && t.Version == "" {
		return Type{}, fmt.Errorf("invalid type %q, empty version", typ)
	}

	return t, nil
}

// Equal checks if two Types are the same.
func (t Type) Equal(other Type) bool {
	return t.Group == other.Group && t.Name == other.Name && t.Version == other.Version
}

// String returns the formatted Type string.
// - Unversioned: "name"
// - Versioned: "name/version"
// - Grouped: "group/name/version"
func (t Type) String() string {
	var b strings.Builder
	if t.Group != "" {
		b.WriteString(t.Group)
		b.WriteByte('/')
	}
	b.WriteString(t.Name)
	if t.Version != "" {
		b.WriteByte('/')
		b.WriteString(t.Version)
	}
	return b.String()
}

// GetGroup returns the group of the type.
func (t Type) GetGroup() string {
	return t.Group
}

// GetName returns the name of the type.
func (t Type) GetName() string {
	return t.Name
}

// GetVersion returns the version of the type.
func (t Type) GetVersion() string {
	return t.Version
}

// HasVersion checks if the type has a version associated with it.
func (t Type) HasVersion() bool {
	return t.Version != ""
}

// Unversioned returns the type without its version.
func (t Type) Unversioned() Type {
	return Type{Group: t.Group, Name: t.Name}
}

// IsEmpty checks if the Type is empty (no group, version or name).
func (t Type) IsEmpty() bool {
	return t.Group == "" && t.Version == "" && t.Name == ""
}

// MarshalJSON converts Type to a JSON string.
func (t Type) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON parses a JSON string into Type.
func (t *Type) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		var typed struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal(data, &typed); err != nil {
			return fmt.Errorf("could not unmarshal type: %w", err)
		}
		str = typed.Type
	}

	parsed, err := TypeFromString(str)
	if err != nil {
		return err
	}

	*t = parsed
	return nil
}
