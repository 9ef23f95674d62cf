package fetch

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

var ErrInvalidJSON = errors.New("response body is not valid JSON")

// NetworkError is a transport failure: DNS, connection refused, reset.
type NetworkError struct {
	URL string
	Err error
}

func (e *NetworkError) Error() string { return fmt.Sprintf("fetch %s: %v", e.URL, e.Err) }
func (e *NetworkError) Unwrap() error { return e.Err }

// TimeoutError means an attempt exceeded its wall-clock budget and was aborted.
type TimeoutError struct {
	URL     string
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("fetch %s: timed out after %s", e.URL, e.Timeout)
}

// HTTPStatusError is a response outside the 2xx range.
type HTTPStatusError struct {
	URL        string
	StatusCode int
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("fetch %s: HTTP %d %s", e.URL, e.StatusCode, http.StatusText(e.StatusCode))
}

// FetchError is returned once every attempt for a URL has failed. Err is the
// error of the last attempt.
type FetchError struct {
	URL      string
	Attempts int
	Err      error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s failed after %d attempt(s): %v", e.URL, e.Attempts, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }
