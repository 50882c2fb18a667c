package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrUpstreamUnavailable is returned when a scraping, search or agent service fails or times out
	ErrUpstreamUnavailable = errors.New("upstream service unavailable")

	// ErrMalformedPayload is returned when an upstream payload cannot be reduced to JSON
	ErrMalformedPayload = errors.New("malformed upstream payload")

	// ErrMissingPrecondition is returned when an operation lacks required product data
	ErrMissingPrecondition = errors.New("missing required precondition")

	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrFetchDocument is returned when the search service cannot fetch a seed URL
	ErrFetchDocument = fmt.Errorf("%w: fetch document error", ErrUpstreamUnavailable)
)
