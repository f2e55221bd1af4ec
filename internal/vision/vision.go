package vision

import "github.com/ChayanSD/reimburse-ai/internal/extraction"

// Extractor is the interface all vision backends satisfy: the pipeline's
// extraction contract plus resource cleanup.
type Extractor interface {
	extraction.Extractor
	// Close closes the backend and releases resources.
	Close() error
}
