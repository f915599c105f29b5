package album

import "errors"

// Pipeline-level failure kinds. Handlers map these to HTTP status codes;
// everything else is a plain internal error.
var (
	// ErrUnsupportedInput means the upload is not a supported image type.
	ErrUnsupportedInput = errors.New("unsupported input")

	// ErrEmbeddingFailure means a required embedding could not be computed.
	ErrEmbeddingFailure = errors.New("embedding failure")

	// ErrEnrichmentFailure means the describe step failed for an image.
	ErrEnrichmentFailure = errors.New("enrichment failure")

	// ErrCollaboratorUnavailable means an external model service could not
	// be reached.
	ErrCollaboratorUnavailable = errors.New("collaborator unavailable")

	// ErrNotReady means a required component has not been initialized.
	ErrNotReady = errors.New("service not ready")

	// ErrAlreadyRunning means the enrichment worker is already active.
	ErrAlreadyRunning = errors.New("enrichment already running")
)
