package bundle

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"regexp"
	"slices"
	"strconv"

	"github.com/fxamacker/cbor/v2"
	"github.com/tidwall/jsonc"
)

// Encoding is the serialisation format named in the version string.
type Encoding string

const (
	FormatJSON Encoding = "JSON"
	FormatCBOR Encoding = "CBOR"
)

const (
	versionProtocol = "OCAS"
	versionMajor    = "02"
	maxDocumentSize = 0xffffff
)

var versionPattern = regexp.MustCompile(`^OCAS(\d{2})(JSON|CBOR)([0-9a-f]{6})_$`)

// VersionString returns the version string of a document of the given format and size.
func VersionString(format Encoding, size int) string {
	return fmt.Sprintf("%s%s%s%06x_", versionProtocol, versionMajor, format, size)
}

// ParseVersion splits a version string into its format and document size.
func ParseVersion(v string) (Encoding, int, error) {
	m := versionPattern.FindStringSubmatch(v)
	if m == nil {
		return "", 0, fmt.Errorf("invalid version string %q", v)
	}
	if m[1] != versionMajor {
		return "", 0, fmt.Errorf("unsupported version %s in %q", m[1], v)
	}
	size, err := strconv.ParseInt(m[3], 16, 64)
	if err != nil {
		return "", 0, fmt.Errorf("invalid size in version string %q: %w", v, err)
	}
	return Encoding(m[2]), int(size), nil
}

// EncodeOptions controls the projection of a bundle.
type EncodeOptions struct {
	// Format defaults to JSON.
	Format Encoding
	// Nested moves the kind specific fields of every overlay under "properties".
	Nested bool
	// Indent pretty prints JSON output.
	Indent string
}

type encodedDocument struct {
	V           string       `json:"v"`
	Digest      string       `json:"digest"`
	CaptureBase *CaptureBase `json:"capture_base"`
	Overlays    []any        `json:"overlays"`
}

// Encode serialises the bundle. The version string carries the size of the exact output.
func Encode(b *Bundle, opts EncodeOptions) ([]byte, error) {
	v, err := b.versionFor(opts)
	if err != nil {
		return nil, err
	}
	return encodeWith(b, opts, v)
}

func (b *Bundle) versionFor(opts EncodeOptions) (string, error) {
	format := opts.Format
	if format == "" {
		format = FormatJSON
	}
	// the version string has a fixed width, so the placeholder does not change the size
	data, err := encodeWith(b, opts, VersionString(format, 0))
	if err != nil {
		return "", err
	}
	if len(data) > maxDocumentSize {
		return "", fmt.Errorf("encoded bundle of %d bytes exceeds the maximum of %d", len(data), maxDocumentSize)
	}
	return VersionString(format, len(data)), nil
}

func encodeWith(b *Bundle, opts EncodeOptions, v string) ([]byte, error) {
	doc := encodedDocument{
		V:           v,
		Digest:      b.doc.Digest,
		CaptureBase: b.doc.CaptureBase,
		Overlays:    make([]any, 0, len(b.doc.Overlays)),
	}
	for _, o := range b.doc.Overlays {
		if !opts.Nested {
			doc.Overlays = append(doc.Overlays, o)
			continue
		}
		nested, err := nestOverlay(o)
		if err != nil {
			return nil, err
		}
		doc.Overlays = append(doc.Overlays, nested)
	}

	switch opts.Format {
	case "", FormatJSON:
		return marshalJSON(doc, opts.Indent)
	case FormatCBOR:
		data, err := marshalJSON(doc, "")
		if err != nil {
			return nil, err
		}
		var generic any
		if err := json.Unmarshal(data, &generic); err != nil {
			return nil, err
		}
		em, err := cbor.CanonicalEncOptions().EncMode()
		if err != nil {
			return nil, err
		}
		return em.Marshal(generic)
	default:
		return nil, fmt.Errorf("unsupported format %q", opts.Format)
	}
}

func marshalJSON(v any, indent string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", indent)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

var headerFields = []string{"type", "digest", "capture_base"}

func nestOverlay(o Overlay) (map[string]any, error) {
	data, err := json.Marshal(o)
	if err != nil {
		return nil, err
	}
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, err
	}
	nested := map[string]any{}
	props := map[string]any{}
	for k, v := range fields {
		if slices.Contains(headerFields, k) {
			nested[k] = v
		} else {
			props[k] = v
		}
	}
	nested["properties"] = props
	return nested, nil
}

// ToJSON converts a CBOR encoded document into JSON and strips comments and
// trailing commas from JSON input.
func ToJSON(data []byte) ([]byte, error) {
	if len(data) == 0 || data[0]&0xe0 != 0xa0 {
		return jsonc.ToJSON(data), nil
	}
	dm, err := cbor.DecOptions{DefaultMapType: reflect.TypeOf(map[string]any(nil))}.DecMode()
	if err != nil {
		return nil, err
	}
	var generic any
	if err := dm.Unmarshal(data, &generic); err != nil {
		return nil, fmt.Errorf("%w: invalid CBOR: %w", ErrMalformedBundle, err)
	}
	return json.Marshal(generic)
}
