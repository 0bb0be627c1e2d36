// Package tthsderr defines the engine's error taxonomy (spec.md section 7).
// These are sentinel errors wrapped with context via fmt.Errorf("%w", ...) so
// callers and tests can errors.Is/errors.As against a stable surface while
// the human-readable message still carries per-failure detail.
package tthsderr

import "errors"

var (
	// ErrInvalidInput covers malformed tasks JSON, a count mismatch,
	// threads < 1, chunk_mb < 1, or an empty url/save_path. Reported
	// synchronously via a -1 return from the C ABI entry point; no session
	// is created and no events are emitted.
	ErrInvalidInput = errors.New("invalid input")

	// ErrProbeFailed means the ranged-GET probe exhausted its retry
	// budget. The owning Task moves to Failed and an err event fires; the
	// session continues other tasks.
	ErrProbeFailed = errors.New("probe failed")

	// ErrTooManyRedirects means the probe followed more than
	// config.MaxRedirects hops without resolving.
	ErrTooManyRedirects = errors.New("too many redirects")

	// ErrRangeUnsupported names the single-stream fallback condition, which
	// is not a failure. The engine takes that fallback silently and never
	// returns this error.
	ErrRangeUnsupported = errors.New("range requests not supported")

	// ErrIOError covers file open/preallocate/write/fsync failures.
	ErrIOError = errors.New("io error")

	// ErrNetworkError covers a chunk's GET attempt failing after retries.
	ErrNetworkError = errors.New("network error")

	// ErrCancelled is never surfaced as an err event: a stop is
	// caller-initiated and silent.
	ErrCancelled = errors.New("cancelled")

	// ErrRegistryMiss means a control operation referenced an unknown
	// session id.
	ErrRegistryMiss = errors.New("unknown session id")
)
