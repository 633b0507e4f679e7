package scrape

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// ErrInvalidURL is returned before any network work for input that is not
// an absolute http(s) URL.
var ErrInvalidURL = errors.New("invalid url")

// FetchError reports that the source page could not be retrieved: network
// failure, non-2xx status or timeout.
type FetchError struct {
	URL string
	// StatusCode is set when the server answered with a non-2xx status.
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Timeout reports whether the fetch ran out of time. Callers may retry
// these.
func (e *FetchError) Timeout() bool {
	if errors.Is(e.Err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(e.Err, &ne) && ne.Timeout()
}

// ParseError reports a response that is not a usable HTML document.
type ParseError struct {
	URL         string
	ContentType string
	Err         error
}

func (e *ParseError) Error() string {
	if e.ContentType != "" {
		return fmt.Sprintf("parse %s (%s): %v", e.URL, e.ContentType, e.Err)
	}
	return fmt.Sprintf("parse %s: %v", e.URL, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }
