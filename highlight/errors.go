package highlight

import "errors"

// Fatal engine errors. Per-descriptor decode failures are logged and
// skipped instead of surfacing here.
var (
	// ErrMissingAnchor indicates that New was called without an anchor
	// element.
	ErrMissingAnchor = errors.New("missing anchor element")

	// ErrParse indicates that a serialized payload is not a JSON array of
	// highlight descriptors.
	ErrParse = errors.New("malformed serialized highlights")
)
