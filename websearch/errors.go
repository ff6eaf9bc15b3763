package websearch

import "errors"

var (
	// ErrInvalidBaseURL is returned when the aggregator URL is missing or malformed.
	ErrInvalidBaseURL = errors.New("invalid aggregator base URL")

	// ErrInvalidTimeout is returned when the request timeout is not positive.
	ErrInvalidTimeout = errors.New("timeout must be greater than 0")

	// ErrUnexpectedStatus marks a non-2xx aggregator response.
	ErrUnexpectedStatus = errors.New("unexpected aggregator status")

	// ErrMalformedResponse marks a body that is not JSON or lacks a results array.
	ErrMalformedResponse = errors.New("malformed aggregator response")

	// ErrBackoff marks a request skipped because the aggregator asked us to slow down.
	ErrBackoff = errors.New("aggregator rate limit backoff in effect")
)
