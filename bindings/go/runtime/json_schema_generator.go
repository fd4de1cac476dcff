package runtime

import (
	"fmt"
	"reflect"

	"github.com/invopop/jsonschema"
)

// TypePattern matches the string form of a Type as produced by Type.String.
const TypePattern = `^([a-z][a-z0-9_.]*/)?[a-zA-Z][a-zA-Z0-9_.]*(/[a-zA-Z0-9][a-zA-Z0-9.+-]*)?$`

// GenerateJSONSchemaForType takes a Type and uses reflection to generate a JSON Schema representation for it.
// It will also use the correct type representation as we don't marshal the type in object format.
func GenerateJSONSchemaForType(obj Typed) ([]byte, error) {
	if obj == nil {
		return nil, fmt.Errorf("cannot generate JSON schema for nil object")
	}

	if _, ok := obj.(*Raw); ok {
		return nil, fmt.Errorf("raw object type is unsupported")
	}

	r := &jsonschema.Reflector{
		Mapper: func(i reflect.Type) *jsonschema.Schema {
			if i == reflect.TypeOf(Type{}) {
				return &jsonschema.Schema{
					Type:    "string",
					Pattern: TypePattern,
				}
			}
			return nil
		},
	}

	schema, err := r.ReflectFromType(reflect.TypeOf(obj)).MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("failed to create json schema for object: %w", err)
	}

	return schema, nil
}
