package bundle

import (
	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/sk31337/oca/bindings/go/bundle/attribute"
	"github.com/sk31337/oca/bindings/go/runtime"
)

// Attributes maps attribute names to their types in declaration order.
type Attributes = orderedmap.OrderedMap[string, attribute.Type]

// NewAttributes returns an empty attribute map.
func NewAttributes() *Attributes {
	return orderedmap.New[string, attribute.Type]()
}

// CaptureBase is the set of named, typed attributes every overlay refers to.
type CaptureBase struct {
	Digest            string       `json:"digest"`
	Type              runtime.Type `json:"type"`
	Attributes        *Attributes  `json:"attributes"`
	Classification    string       `json:"classification"`
	FlaggedAttributes []string     `json:"flagged_attributes"`
}

func (cb *CaptureBase) GetDigest() string       { return cb.Digest }
func (cb *CaptureBase) SetDigest(digest string) { cb.Digest = digest }

// Attribute returns the type of the named attribute.
func (cb *CaptureBase) Attribute(name string) (attribute.Type, bool) {
	if cb.Attributes == nil {
		return attribute.Type{}, false
	}
	return cb.Attributes.Get(name)
}

// AttributeNames returns the attribute names in declaration order.
func (cb *CaptureBase) AttributeNames() []string {
	if cb.Attributes == nil {
		return nil
	}
	names := make([]string, 0, cb.Attributes.Len())
	for pair := cb.Attributes.Oldest(); pair != nil; pair = pair.Next() {
		names = append(names, pair.Key)
	}
	return names
}

// Clone returns a deep copy.
func (cb *CaptureBase) Clone() *CaptureBase {
	c := *cb
	c.Attributes = NewAttributes()
	if cb.Attributes != nil {
		for pair := cb.Attributes.Oldest(); pair != nil; pair = pair.Next() {
			c.Attributes.Set(pair.Key, pair.Value)
		}
	}
	c.FlaggedAttributes = append([]string{}, cb.FlaggedAttributes...)
	return &c
}
