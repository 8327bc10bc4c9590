package rest

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// APIError is the base of every error the API reports. The concrete wrapper
// type carries the classification; use errors.As to branch on it.
type APIError struct {
	StatusCode int
	Message    string
	RequestID  string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("ferris api: status %d: %s", e.StatusCode, e.Message)
}

type BadRequestError struct{ APIError }

type UnauthorizedError struct{ APIError }

type ForbiddenError struct{ APIError }

type NotFoundError struct{ APIError }

// UnavailableError reports a 5xx that survived the bounded retry loop.
type UnavailableError struct{ APIError }

// RateLimitedError reports a 429 that survived the bounded retry loop.
// The bucket has already been put into cooldown; retrying after RetryAfter
// is legal.
type RateLimitedError struct {
	APIError
	RetryAfter time.Duration
}

// IsRetryable reports whether the request that produced err may be retried
// without changing it. Only unavailability and rate limiting qualify.
func IsRetryable(err error) bool {
	var unavailable *UnavailableError
	var limited *RateLimitedError
	return errors.As(err, &unavailable) || errors.As(err, &limited)
}

// badRequestBody is the 400 body shape: a reason plus the offending position
// in the request payload.
type badRequestBody struct {
	Reason   string `json:"reason"`
	Location struct {
		Line      int `json:"line"`
		Character int `json:"character"`
	} `json:"location"`
}

func newStatusError(status int, body []byte, requestID string) error {
	base := APIError{
		StatusCode: status,
		Message:    strings.TrimSpace(string(body)),
		RequestID:  requestID,
	}
	switch {
	case status == http.StatusBadRequest:
		var parsed badRequestBody
		if err := json.Unmarshal(body, &parsed); err == nil && parsed.Reason != "" {
			base.Message = fmt.Sprintf("%s (line %d, character %d)",
				parsed.Reason, parsed.Location.Line, parsed.Location.Character)
		}
		return &BadRequestError{base}
	case status == http.StatusUnauthorized:
		return &UnauthorizedError{base}
	case status == http.StatusForbidden:
		return &ForbiddenError{base}
	case status == http.StatusNotFound:
		return &NotFoundError{base}
	case status >= 500 && status < 600:
		var parsed badRequestBody
		if err := json.Unmarshal(body, &parsed); err == nil && parsed.Reason != "" {
			base.Message = parsed.Reason
		}
		return &UnavailableError{base}
	default:
		return &base
	}
}
