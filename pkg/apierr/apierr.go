// Package apierr defines the fixed error taxonomy for profile lookups and
// the classifier that maps raw failures into it.
package apierr

import (
	"fmt"
	"net/http"
)

// Code identifies one of the fixed error kinds surfaced to callers.
type Code string

const (
	CodeNotConfigured   Code = "API_NOT_CONFIGURED"
	CodeInvalidUsername Code = "INVALID_USERNAME"
	CodeUserNotFound    Code = "USER_NOT_FOUND"
	CodeRateLimit       Code = "RATE_LIMIT"
	CodeUnauthorized    Code = "UNAUTHORIZED"
	CodeForbidden       Code = "FORBIDDEN"
	CodeServerError     Code = "SERVER_ERROR"
	CodeNetworkError    Code = "NETWORK_ERROR"
	CodeAPIError        Code = "API_ERROR"
	CodeUnknown         Code = "UNKNOWN_ERROR"
)

// Error is a classified failure with a stable code, a short user-facing
// message, and optional diagnostic detail.
type Error struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

func (e *Error) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// messages holds the fixed user-facing message per code.
var messages = map[Code]string{
	CodeNotConfigured:   "API not configured",
	CodeInvalidUsername: "Invalid username or profile URL",
	CodeUserNotFound:    "Unable to fetch Instagram profile",
	CodeRateLimit:       "Rate limit exceeded",
	CodeUnauthorized:    "API authentication failed",
	CodeForbidden:       "Access forbidden",
	CodeServerError:     "Server error",
	CodeNetworkError:    "Network error",
	CodeAPIError:        "API service error",
	CodeUnknown:         "An unexpected error occurred",
}

// defaultDetails holds the canned diagnostic detail per code, used when the
// classifier has nothing more specific to attach.
var defaultDetails = map[Code]string{
	CodeNotConfigured:   "Configure the API credentials for the selected provider mode.",
	CodeUserNotFound:    "The username may not exist, the account may be private, or the API endpoint may have changed.",
	CodeRateLimit:       "Too many requests. Try again later or check your API plan limits.",
	CodeUnauthorized:    "Invalid API key or insufficient permissions.",
	CodeForbidden:       "Your API plan may not include access to this endpoint or user data.",
	CodeServerError:     "The upstream API service is experiencing issues. Try again later.",
	CodeNetworkError:    "Unable to connect to the API service.",
	CodeAPIError:        "The upstream API service encountered an error. Try again.",
	CodeUnknown:         "Try again later.",
}

// New builds an Error for the given code with its fixed message. An empty
// details string falls back to the canned detail for the code.
func New(code Code, details string) *Error {
	if details == "" {
		details = defaultDetails[code]
	}
	return &Error{
		Code:    code,
		Message: messages[code],
		Details: details,
	}
}

// HTTPStatus maps an error code to the status the HTTP surface responds with.
func (e *Error) HTTPStatus() int {
	switch e.Code {
	case CodeInvalidUsername:
		return http.StatusBadRequest
	case CodeUserNotFound:
		return http.StatusNotFound
	case CodeRateLimit:
		return http.StatusTooManyRequests
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeNotConfigured:
		return http.StatusServiceUnavailable
	case CodeServerError, CodeNetworkError, CodeAPIError:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
