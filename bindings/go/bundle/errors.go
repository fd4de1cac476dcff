package bundle

import "errors"

var (
	ErrInvalidAttributeName     = errors.New("invalid attribute name")
	ErrDuplicateAttribute       = errors.New("duplicate attribute")
	ErrUnknownAttribute         = errors.New("unknown attribute")
	ErrInvalidOverlay           = errors.New("invalid overlay")
	ErrDuplicateOverlay         = errors.New("duplicate overlay")
	ErrDuplicateLanguageOverlay = errors.New("duplicate language overlay")
	ErrBuilderFinalized         = errors.New("builder already finalized")
	ErrUnknownOverlayKind       = errors.New("unknown overlay kind")
	ErrMalformedBundle          = errors.New("malformed bundle")
)

// Issue is a problem found while reading a bundle document.
// Path locates the offending part, for example overlays[2] or capture_base.attributes.age.
type Issue struct {
	Path string
	Err  error
}

func (i *Issue) Error() string {
	return i.Path + ": " + i.Err.Error()
}

func (i *Issue) Unwrap() error {
	return i.Err
}
