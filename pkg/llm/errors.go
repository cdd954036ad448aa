package llm

import "errors"

var (
	// ErrUnauthorized means the upstream rejected our credentials. Retrying
	// any model with the same credential would fail identically.
	ErrUnauthorized = errors.New("upstream credentials rejected")

	// ErrQuotaExceeded means the upstream reported quota or rate-limit
	// exhaustion, which is account-wide rather than model-specific.
	ErrQuotaExceeded = errors.New("upstream quota exceeded")

	// ErrModelUnavailable means this specific model cannot serve the request
	// (unknown model, unsupported parameters). Other candidates may still work.
	ErrModelUnavailable = errors.New("model unavailable")

	// ErrMalformed means the upstream returned a well-formed-but-unusable
	// payload. Indistinguishable from a garbled response, so it is transient.
	ErrMalformed = errors.New("malformed upstream response")
)
