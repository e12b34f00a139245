package scrape

import (
	"errors"
	"fmt"
)

// FetchError reports a failure to retrieve or render a page: network errors,
// timeouts, and non-2xx HTTP statuses. It propagates to the HTTP layer
// unrecovered; only field-level extraction errors are absorbed.
type FetchError struct {
	URL        string
	StatusCode int // 0 when the failure happened before a response arrived
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: HTTP %d: %v", e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// NewFetchError wraps an error as a FetchError for the given URL.
func NewFetchError(url string, statusCode int, err error) error {
	return &FetchError{URL: url, StatusCode: statusCode, Err: err}
}

// IsFetchError reports whether err is (or wraps) a FetchError.
func IsFetchError(err error) bool {
	var fe *FetchError
	return errors.As(err, &fe)
}
