package fetch

import (
	"errors"
	"fmt"
)

// ErrorKind classifies fetch failures so callers can tell a bad URL from a
// flaky network.
type ErrorKind string

const (
	KindStatus           ErrorKind = "StatusError"
	KindTransport        ErrorKind = "TransportError"
	KindTimeout          ErrorKind = "Timeout"
	KindTooManyRedirects ErrorKind = "TooManyRedirects"
	KindTooLarge         ErrorKind = "TooLarge"
)

// ErrInvalidURL is returned for URLs that are not absolute http(s) URLs.
var ErrInvalidURL = errors.New("invalid image URL")

// Error is a failed fetch.
type Error struct {
	Kind       ErrorKind
	URL        string
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindStatus:
		return fmt.Sprintf("fetching %s: unexpected HTTP status %d", e.URL, e.StatusCode)
	case KindTimeout:
		return fmt.Sprintf("fetching %s: timed out: %v", e.URL, e.Err)
	case KindTooManyRedirects:
		return fmt.Sprintf("fetching %s: too many redirects", e.URL)
	case KindTooLarge:
		return fmt.Sprintf("fetching %s: response body too large", e.URL)
	default:
		return fmt.Sprintf("fetching %s: %v", e.URL, e.Err)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of a fetch error, or "" when err is not one.
func KindOf(err error) ErrorKind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return ""
}
