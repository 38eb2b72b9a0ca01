package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// Kind classifies a failed request.
type Kind uint8

const (
	// KindUnavailable covers 5xx responses and transport failures.
	KindUnavailable Kind = iota + 1
	// KindRateLimited is an HTTP 429.
	KindRateLimited
	// KindRejected is any other 4xx: bad key, unknown model, bad request.
	KindRejected
	// KindInvalidResponse means the reply did not match the schema.
	KindInvalidResponse
	// KindTruncated means the reply hit the token limit.
	KindTruncated
)

func (k Kind) String() string {
	switch k {
	case KindUnavailable:
		return "provider unavailable"
	case KindRateLimited:
		return "rate limited"
	case KindRejected:
		return "request rejected"
	case KindInvalidResponse:
		return "invalid response"
	case KindTruncated:
		return "response truncated"
	}
	return "unknown failure"
}

// Error is returned by every provider in this package.
type Error struct {
	Kind     Kind
	Provider string
	// Status is the HTTP status, zero when no response arrived.
	Status int
	// RetryAfter is the server's requested backoff, if it sent one.
	RetryAfter time.Duration
	// Content is the offending reply for KindInvalidResponse and KindTruncated.
	Content json.RawMessage
	Err     error
}

func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Provider != "" {
		msg = e.Provider + ": " + msg
	}
	if e.Status != 0 {
		msg += fmt.Sprintf(" (HTTP %d)", e.Status)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the Kind of the first *Error in err's chain, or zero.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

// statusError classifies a vendor failure by HTTP status. Status zero means
// the request never got a response.
func statusError(provider string, status int, header http.Header, err error) *Error {
	e := &Error{Kind: KindUnavailable, Provider: provider, Status: status, Err: err}
	switch {
	case status == http.StatusTooManyRequests:
		e.Kind = KindRateLimited
		e.RetryAfter = retryAfter(header)
	case status >= 400 && status < 500:
		e.Kind = KindRejected
	}
	return e
}

// retryAfter reads a Retry-After header given in seconds.
func retryAfter(h http.Header) time.Duration {
	if h == nil {
		return 0
	}
	secs, err := strconv.Atoi(h.Get("Retry-After"))
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}
