package domain

import "errors"

// Failure categories for indicator retrieval. Providers wrap these so callers
// can tell transport problems apart from unusable payloads; neither is fatal.
var (
	ErrNetwork    = errors.New("network error")
	ErrExtraction = errors.New("extraction error")
)
