package validation

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/santhosh-tekuri/jsonschema/v6/kind"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// BundleSchema is the JSON schema of the minimal bundle document shape.
//
//go:embed resources/bundle.schema.json
var BundleSchema []byte

var getBundleSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	return compile("resources/bundle.schema.json", BundleSchema)
})

func compile(name string, data []byte) (*jsonschema.Schema, error) {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal schema: %w", err)
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource(name, doc); err != nil {
		return nil, fmt.Errorf("failed to add schema: %w", err)
	}
	sch, err := c.Compile(name)
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema: %w", err)
	}
	return sch, nil
}

// checkStructure validates data against the bundle schema and reports whether it conforms.
func checkStructure(c *collector, data []byte) bool {
	sch, err := getBundleSchema()
	if err != nil {
		c.add(RuleMalformedBundle, "", "", "%v", err)
		return false
	}
	instance, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		c.add(RuleMalformedBundle, "", "", "document is not JSON: %v", err)
		return false
	}
	if err := sch.Validate(instance); err != nil {
		for _, v := range violations(err) {
			c.add(RuleMalformedBundle, "", "", "%s: %s", v.location, v.message)
		}
		return false
	}
	return true
}

var printer = message.NewPrinter(language.English)

type violation struct {
	// location is the JSON pointer of the offending value.
	location string
	// properties are the object members the violation is about, for
	// required and additionalProperties.
	properties []string
	message    string
}

// violations flattens a schema validation error into its leaf causes.
func violations(err error) []violation {
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return []violation{{location: "/", message: err.Error()}}
	}
	var out []violation
	var walk func(*jsonschema.ValidationError)
	walk = func(e *jsonschema.ValidationError) {
		if len(e.Causes) > 0 {
			for _, cause := range e.Causes {
				walk(cause)
			}
			return
		}
		v := violation{
			location: "/" + strings.Join(e.InstanceLocation, "/"),
			message:  e.ErrorKind.LocalizedString(printer),
		}
		switch k := e.ErrorKind.(type) {
		case *kind.Required:
			v.properties = slices.Clone(k.Missing)
		case *kind.AdditionalProperties:
			v.properties = slices.Clone(k.Properties)
		}
		out = append(out, v)
	}
	walk(ve)
	return out
}
