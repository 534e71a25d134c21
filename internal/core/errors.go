package core

import "errors"

// Request-outcome taxonomy. Every failure a component reports wraps exactly
// one of these values so callers can classify it with errors.Is without
// inspecting message text.
var (
	// ErrInvalidRequest indicates malformed or empty caller input.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrNotFound indicates a referenced artifact does not exist.
	ErrNotFound = errors.New("artifact not found")
	// ErrIdentityNotFound indicates a speaker identity reference does not resolve.
	ErrIdentityNotFound = errors.New("speaker identity not found")
	// ErrSynthesisFailed indicates the synthesis engine could not produce audio.
	ErrSynthesisFailed = errors.New("synthesis failed")
	// ErrExtractionFailed indicates the embedding engine could not process the sample.
	ErrExtractionFailed = errors.New("embedding extraction failed")
	// ErrStoreWrite indicates the persistence medium rejected a write.
	ErrStoreWrite = errors.New("store write failed")
	// ErrStoreIO indicates a persistence medium fault other than a write rejection.
	ErrStoreIO = errors.New("store i/o failure")
)
