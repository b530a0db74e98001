package dom

import "errors"

// Tree primitive errors
var (
	// ErrNotText indicates that a text-node operation was applied to a
	// non-text node.
	ErrNotText = errors.New("node is not a text node")

	// ErrOffsetRange indicates that a split offset lies outside the text
	// node's rune length.
	ErrOffsetRange = errors.New("offset out of range")
)
