package runtime

import (
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"reflect"
	"slices"
	"sync"

	"sigs.k8s.io/yaml"
)

// Scheme is a dynamic registry for Typed types.
type Scheme struct {
	mu sync.RWMutex
	// allowUnknown allows unknown types to be created.
	// if the constructors cannot determine a match,
	// this will trigger the creation of a Raw instead of failing.
	allowUnknown bool
	types        map[Type]any
}

// NewScheme creates a new registry.
func NewScheme(opts ...SchemeOption) *Scheme {
	reg := &Scheme{
		types: make(map[Type]any),
	}
	for _, opt := range opts {
		opt(reg)
	}
	return reg
}

type SchemeOption func(*Scheme)

// WithAllowUnknown allows unknown types to be created.
func WithAllowUnknown() SchemeOption {
	return func(registry *Scheme) {
		registry.allowUnknown = true
	}
}

func (r *Scheme) Clone() *Scheme {
	r.mu.RLock()
	defer r.mu.RUnlock()
	clone := NewScheme()
	clone.allowUnknown = r.allowUnknown
	maps.Copy(clone.types, r.types)
	return clone
}

func (r *Scheme) RegisterWithAlias(prototype any, types ...Type) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, typ := range types {
		if _, exists := r.types[typ]; exists {
			return fmt.Errorf("type %q is already registered", typ)
		}
		r.types[typ] = prototype
	}
	return nil
}

func (r *Scheme) MustRegisterWithAlias(prototype any, types ...Type) {
	if err := r.RegisterWithAlias(prototype, types...); err != nil {
		panic(err)
	}
}

// GetTypeFromAny uses reflection to extract the "Type" field from any struct.
func GetTypeFromAny(v any) (Type, error) {
	val := reflect.ValueOf(v)

	// Ensure v is a struct or a pointer to a struct
	if val.Kind() == reflect.Ptr {
		val = val.Elem()
	}

	if val.Kind() != reflect.Struct {
		return Type{}, fmt.Errorf("expected struct, got %s", val.Kind())
	}

	field := val.FieldByName("Type")
	if !field.IsValid() {
		return Type{}, fmt.Errorf("field 'Type' not found")
	}

	if field.Type() != reflect.TypeOf(Type{}) {
		return Type{}, fmt.Errorf("field 'Type' is not of expected Type struct")
	}

	return field.Interface().(Type), nil
}

// TypeForPrototype returns the versioned type registered for the prototype.
// If several versioned aliases exist, the lexically smallest is returned so the result is stable.
func (r *Scheme) TypeForPrototype(prototype any) (Type, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var found []Type
	for typ, proto := range r.types {
		// unversioned aliases only exist for lookups
		if !typ.HasVersion() {
			continue
		}
		if reflect.TypeOf(prototype).Elem() == reflect.TypeOf(proto).Elem() {
			found = append(found, typ)
		}
	}
	if len(found) == 0 {
		return Type{}, fmt.Errorf("prototype not found in registry")
	}
	slices.SortFunc(found, func(a, b Type) int {
		return compareStrings(a.String(), b.String())
	})
	return found[0], nil
}

// IsRegistered reports whether the type, or its unversioned alias, is known.
func (r *Scheme) IsRegistered(typ Type) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, exists := r.lookup(typ)
	return exists
}

// Types returns all registered types in a stable order.
func (r *Scheme) Types() []Type {
	r.mu.RLock()
	defer r.mu.RUnlock()
	types := slices.Collect(maps.Keys(r.types))
	slices.SortFunc(types, func(a, b Type) int {
		return compareStrings(a.String(), b.String())
	})
	return types
}

// Aliases returns every type registered with the same prototype as typ, in a stable order.
func (r *Scheme) Aliases(typ Type) []Type {
	r.mu.RLock()
	defer r.mu.RUnlock()

	proto, ok := r.lookup(typ)
	if !ok {
		return nil
	}
	want := reflect.TypeOf(proto)
	var aliases []Type
	for t, p := range r.types {
		if reflect.TypeOf(p) == want {
			aliases = append(aliases, t)
		}
	}
	slices.SortFunc(aliases, func(a, b Type) int {
		return compareStrings(a.String(), b.String())
	})
	return aliases
}

// RegisterSchemes registers all types known to the given schemes.
func (r *Scheme) RegisterSchemes(schemes ...*Scheme) error {
	for _, scheme := range schemes {
		scheme.mu.RLock()
		types := maps.Clone(scheme.types)
		scheme.mu.RUnlock()
		for typ, proto := range types {
			if err := r.RegisterWithAlias(proto, typ); err != nil {
				return err
			}
		}
	}
	return nil
}

func (r *Scheme) lookup(typ Type) (any, bool) {
	if proto, ok := r.types[typ]; ok {
		return proto, true
	}
	proto, ok := r.types[typ.Unversioned()]
	return proto, ok
}

// NewObject creates a new instance of the prototype registered for the type.
// A versioned type that is not registered falls back to its unversioned alias.
func (r *Scheme) NewObject(typ Type) (any, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	proto, exists := r.lookup(typ)
	if exists {
		t := reflect.TypeOf(proto)
		for t.Kind() == reflect.Ptr {
			t = t.Elem()
		}
		object := reflect.New(t).Interface()
		if typed, ok := object.(Typed); ok {
			typed.SetType(typ)
		}
		return object, nil
	}

	if r.allowUnknown {
		return &Raw{Type: typ}, nil
	}

	return nil, fmt.Errorf("unsupported type: %s", typ)
}

// Decode reads YAML or JSON data into the given registered object.
func (r *Scheme) Decode(data io.Reader, into any) error {
	if _, err := r.TypeForPrototype(into); err != nil && !r.allowUnknown {
		return fmt.Errorf("%T is not a valid registered type and cannot be decoded: %w", into, err)
	}
	bytes, err := io.ReadAll(data)
	if err != nil {
		return fmt.Errorf("could not read data: %w", err)
	}
	if err := yaml.Unmarshal(bytes, into); err != nil {
		return fmt.Errorf("failed to unmarshal raw: %w", err)
	}
	return nil
}

// Convert converts from a Raw (or an object of the same type) into the given object.
func (r *Scheme) Convert(from any, into any) error {
	if raw, ok := from.(*Raw); ok {
		if _, err := r.TypeForPrototype(into); err != nil && !r.allowUnknown {
			return fmt.Errorf("%T is not a valid registered type and cannot be decoded: %w", into, err)
		}
		if !r.IsRegistered(raw.Type) {
			return fmt.Errorf("cannot decode from unregistered type: %s", raw.Type)
		}
		// raw data is canonical JSON, yaml conversion would only lose precision
		if err := json.Unmarshal(raw.Data, into); err != nil {
			return fmt.Errorf("failed to unmarshal raw: %w", err)
		}
		return nil
	}

	intoValue := reflect.ValueOf(into)
	if intoValue.Kind() != reflect.Ptr || intoValue.IsNil() {
		return fmt.Errorf("into must be a non-nil pointer")
	}

	fromValue := reflect.ValueOf(from)
	if fromValue.Kind() == reflect.Ptr {
		fromValue = fromValue.Elem()
	}

	if !fromValue.IsValid() || fromValue.IsZero() {
		return fmt.Errorf("from must be a non-nil pointer")
	}

	if fromValue.Type() != intoValue.Elem().Type() {
		return fmt.Errorf("from and into must be the same type, cannot decode from %s into %s", fromValue.Type(), intoValue.Elem().Type())
	}

	intoValue.Elem().Set(fromValue)
	return nil
}

func compareStrings(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
