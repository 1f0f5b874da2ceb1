package graph

import (
	"errors"
	"fmt"
)

// Category buckets API failures for retry handling.
type Category int

const (
	// CategoryRateLimit covers throttling and transient server faults.
	// Retried with exponential backoff.
	CategoryRateLimit Category = iota

	// CategoryTransport covers network-level failures where no API
	// response was received. Retried with linear backoff.
	CategoryTransport

	// CategoryFatal covers everything else: bad requests, permission
	// errors, unknown objects. Never retried.
	CategoryFatal
)

func (c Category) String() string {
	switch c {
	case CategoryRateLimit:
		return "rate_limit"
	case CategoryTransport:
		return "transport"
	default:
		return "fatal"
	}
}

// rateLimitCodes are the API error codes treated as throttling regardless
// of HTTP status. 17 and 80004 are the user/application request-limit
// codes; 4, 32 and 613 are the documented platform throttling codes with
// the same semantics.
var rateLimitCodes = map[int]bool{
	4:     true,
	17:    true,
	32:    true,
	613:   true,
	80004: true,
}

// codeInvalidToken is the OAuth error for an expired or revoked access
// token. Fatal for the current call, but it also drops the cached token.
const codeInvalidToken = 190

// Error is a classified Graph API failure.
type Error struct {
	StatusCode int
	Code       int
	Subcode    int
	Category   Category
	Message    string
}

func (e *Error) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("graph api error %d (%s, http %d): %s", e.Code, e.Category, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("graph api error (%s, http %d): %s", e.Category, e.StatusCode, e.Message)
}

// Retryable reports whether the failure is worth another attempt.
func (e *Error) Retryable() bool { return e.Category != CategoryFatal }

// classifyResponse builds an Error from a non-2xx response body.
func classifyResponse(statusCode int, body []byte) *Error {
	apiErr := &Error{StatusCode: statusCode, Category: CategoryFatal}

	if parsed, ok := decodeErrorBody(body); ok {
		apiErr.Code = parsed.Error.Code
		apiErr.Subcode = parsed.Error.ErrorSubcode
		apiErr.Message = parsed.Error.Message
		if parsed.Error.IsTransient || rateLimitCodes[parsed.Error.Code] {
			apiErr.Category = CategoryRateLimit
			return apiErr
		}
	} else {
		apiErr.Message = truncate(string(body), 200)
	}

	if statusCode == 429 || statusCode >= 500 {
		apiErr.Category = CategoryRateLimit
	}
	return apiErr
}

// classifyTransport wraps a network-level failure (no response received).
func classifyTransport(err error) *Error {
	return &Error{Category: CategoryTransport, Message: err.Error()}
}

// AsError extracts a classified *Error if err carries one.
func AsError(err error) (*Error, bool) {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
