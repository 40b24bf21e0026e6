// Package validate parses and normalizes raw input into a canonical URL.
// Rejection here is the only condition that aborts a scan.
package validate

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

var (
	ErrEmptyURL      = errors.New("URL is empty")
	ErrURLTooLong    = errors.New("URL exceeds maximum length")
	ErrMalformedURL  = errors.New("URL is malformed")
	ErrInvalidScheme = errors.New("only http and https schemes are allowed")
	ErrMissingHost   = errors.New("URL must have a hostname")
)

// MaxURLLength caps accepted input; anything longer is rejected outright.
const MaxURLLength = 2048

// InvalidURLError wraps the rejection reason together with the raw input.
type InvalidURLError struct {
	Input  string
	Reason error
}

func (e *InvalidURLError) Error() string {
	return fmt.Sprintf("invalid URL %q: %v", e.Input, e.Reason)
}

func (e *InvalidURLError) Unwrap() error { return e.Reason }

// Normalize parses raw into a canonical URL with scheme, lowercased host and
// a non-empty path. Input without a scheme is assumed to be https.
func Normalize(raw string) (*url.URL, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, &InvalidURLError{Input: raw, Reason: ErrEmptyURL}
	}
	if len(trimmed) > MaxURLLength {
		return nil, &InvalidURLError{Input: raw, Reason: ErrURLTooLong}
	}

	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, &InvalidURLError{Input: raw, Reason: fmt.Errorf("%w: %v", ErrMalformedURL, err)}
	}
	if u.Scheme == "" {
		u, err = url.Parse("https://" + trimmed)
		if err != nil {
			return nil, &InvalidURLError{Input: raw, Reason: fmt.Errorf("%w: %v", ErrMalformedURL, err)}
		}
	}

	switch u.Scheme {
	case "http", "https":
	default:
		return nil, &InvalidURLError{Input: raw, Reason: ErrInvalidScheme}
	}

	if u.Hostname() == "" {
		return nil, &InvalidURLError{Input: raw, Reason: ErrMissingHost}
	}
	if strings.ContainsAny(u.Host, " \t") {
		return nil, &InvalidURLError{Input: raw, Reason: ErrMalformedURL}
	}

	u.Host = strings.ToLower(u.Host)
	if u.Path == "" {
		u.Path = "/"
	}
	u.Fragment = ""
	return u, nil
}
