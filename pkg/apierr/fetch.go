package apierr

import "fmt"

// bodyPreviewLen caps how much of an upstream response body a FetchError
// carries for diagnostics.
const bodyPreviewLen = 200

// FetchError is a raw transport or non-2xx failure as produced by a provider
// adapter, before classification. Status 0 means the request never completed
// (network failure). Adapters return these untouched; Classify is the single
// point that turns them into typed Errors.
type FetchError struct {
	Status int
	Body   string
	Err    error
}

// NewFetchError builds a FetchError, truncating the body preview.
func NewFetchError(status int, body string, err error) *FetchError {
	if len(body) > bodyPreviewLen {
		body = body[:bodyPreviewLen]
	}
	return &FetchError{Status: status, Body: body, Err: err}
}

func (e *FetchError) Error() string {
	switch {
	case e.Status == 0 && e.Err != nil:
		return fmt.Sprintf("network error: %v", e.Err)
	case e.Err != nil:
		return fmt.Sprintf("API request failed: %d: %v", e.Status, e.Err)
	case e.Body != "":
		return fmt.Sprintf("API request failed: %d - %s", e.Status, e.Body)
	default:
		return fmt.Sprintf("API request failed: %d", e.Status)
	}
}

func (e *FetchError) Unwrap() error { return e.Err }
