package recommend

import "errors"

var (
	// ErrInvalidInput marks malformed inputs such as vectors of mismatched dimension.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidRequest marks a caller request that failed validation. Unlike
	// ErrInvalidInput raised while scoring, it is the caller's fault.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrEmbeddingUnavailable means the element embedding could not be computed.
	// The whole ranking request fails; there is no degraded result.
	ErrEmbeddingUnavailable = errors.New("embedding unavailable")

	// ErrCatalogUnavailable means the candidate list could not be fetched.
	ErrCatalogUnavailable = errors.New("content catalog unavailable")
)
