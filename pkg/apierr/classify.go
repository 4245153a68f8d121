package apierr

import (
	"errors"
	"strings"
)

// classifyRule maps a set of message substrings to an error code. Rules are
// evaluated in order; the first match wins, so more specific substrings must
// come before generic ones ("404" before "api").
type classifyRule struct {
	code       Code
	substrings []string
}

var classifyRules = []classifyRule{
	{CodeNotConfigured, []string{"not configured"}},
	{CodeUserNotFound, []string{"user not found", "404", "unable to fetch instagram profile"}},
	{CodeRateLimit, []string{"rate limit", "429"}},
	{CodeUnauthorized, []string{"401", "unauthorized"}},
	{CodeForbidden, []string{"403", "forbidden"}},
	{CodeServerError, []string{"500", "server error"}},
	{CodeNetworkError, []string{"network", "fetch", "connection refused", "no such host", "timeout"}},
	{CodeAPIError, []string{"api"}},
}

// Classify maps a raw failure to a typed *Error. It is a pure function over
// the failure's message and HTTP status. Already-classified errors pass
// through unchanged.
func Classify(err error) *Error {
	if err == nil {
		return nil
	}

	var typed *Error
	if errors.As(err, &typed) {
		return typed
	}

	var fetchErr *FetchError
	if errors.As(err, &fetchErr) {
		if e := classifyStatus(fetchErr); e != nil {
			return e
		}
	}

	msg := strings.ToLower(err.Error())
	for _, rule := range classifyRules {
		for _, sub := range rule.substrings {
			if strings.Contains(msg, sub) {
				return New(rule.code, "")
			}
		}
	}

	return New(CodeUnknown, err.Error())
}

// classifyStatus resolves a FetchError by its HTTP status. Status 0 (request
// never completed) and unrecognized statuses fall through to message
// matching.
func classifyStatus(e *FetchError) *Error {
	switch {
	case e.Status == 0:
		if e.Err != nil {
			return New(CodeNetworkError, e.Err.Error())
		}
		return nil
	case e.Status == 404:
		return New(CodeUserNotFound, "")
	case e.Status == 429:
		return New(CodeRateLimit, "")
	case e.Status == 401:
		return New(CodeUnauthorized, "")
	case e.Status == 403:
		return New(CodeForbidden, "")
	case e.Status >= 500:
		return New(CodeServerError, e.Body)
	default:
		return nil
	}
}

// Retryable reports whether a failure is worth retrying: network errors and
// upstream 5xx responses. Not-found, rate-limit, and auth failures are final.
func Retryable(err error) bool {
	if err == nil {
		return false
	}

	var typed *Error
	if errors.As(err, &typed) {
		return typed.Code == CodeNetworkError || typed.Code == CodeServerError
	}

	var fetchErr *FetchError
	if errors.As(err, &fetchErr) {
		return fetchErr.Status == 0 || fetchErr.Status >= 500
	}

	return false
}
