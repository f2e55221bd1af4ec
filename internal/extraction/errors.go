package extraction

import (
	"errors"
	"fmt"
)

// ErrMissingInput indicates a caller-contract violation (absent required
// argument). It is the only error Process surfaces under normal operation.
var ErrMissingInput = errors.New("missing required input")

// FetchError indicates the receipt image could not be retrieved.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetching %s: unexpected status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetching %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// UnsupportedMediaError indicates the fetched resource is not an image.
type UnsupportedMediaError struct {
	URL         string
	ContentType string
}

func (e *UnsupportedMediaError) Error() string {
	return fmt.Sprintf("fetching %s: unsupported content type %q", e.URL, e.ContentType)
}

// ExtractionError indicates the vision extraction call failed or returned
// content that could not be parsed.
type ExtractionError struct {
	Stage string // "call" or "parse"
	Err   error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("vision extraction %s: %v", e.Stage, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }
