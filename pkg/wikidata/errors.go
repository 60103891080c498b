package wikidata

import (
	"errors"
	"fmt"
)

var (
	// ErrFetch matches every failure to obtain a result set from the endpoint.
	ErrFetch = errors.New("wikidata fetch failed")
	// ErrNetwork indicates a failure in network communication (including timeouts).
	ErrNetwork = errors.New("wikidata network error")
	// ErrTimeout is the ErrNetwork case where the request ran past its deadline.
	ErrTimeout = fmt.Errorf("%w: timeout", ErrNetwork)
	// ErrStatus indicates the endpoint answered with a non-2xx status.
	ErrStatus = errors.New("wikidata status error")
	// ErrParse indicates a failure to parse the response.
	ErrParse = errors.New("wikidata parse error")
	// ErrInvalidQuery indicates the query parameters were rejected before sending.
	ErrInvalidQuery = errors.New("wikidata invalid query")
)

// FetchError is the single error class surfaced by a failed fetch.
// Kind is one of ErrNetwork, ErrTimeout, ErrStatus or ErrParse; Err carries the underlying cause.
type FetchError struct {
	Endpoint string
	Kind     error
	Err      error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("%v: %v", e.Kind, e.Err)
}

func (e *FetchError) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

// Is makes errors.Is(err, ErrFetch) hold for every FetchError.
func (e *FetchError) Is(target error) bool {
	return target == ErrFetch
}
