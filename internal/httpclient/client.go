// Package httpclient builds the HTTP clients used by the analyzers and
// threat-intelligence providers.
package httpclient

import (
	"crypto/tls"
	"net"
	"net/http"
	"time"
)

// Config holds settings for the HTTP client.
type Config struct {
	Timeout  time.Duration
	Headers  http.Header // injected into every request (provider API keys)
	Insecure bool
	Retries  int // extra attempts on 5xx or network error
}

// headerRoundTripper wraps a base RoundTripper to inject static headers and
// retry transient failures with exponential backoff.
type headerRoundTripper struct {
	base    http.RoundTripper
	headers http.Header
	retries int
}

func (h *headerRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	if h.base == nil {
		h.base = http.DefaultTransport
	}

	var resp *http.Response
	var err error

	for attempt := 0; ; attempt++ {
		// Clone the request to avoid mutations across retries
		r := req.Clone(req.Context())
		if req.Body != nil {
			if req.GetBody != nil {
				if body, berr := req.GetBody(); berr == nil {
					r.Body = body
				}
			} else {
				r.Body = req.Body
			}
		}

		for k, vs := range h.headers {
			r.Header.Del(k)
			for _, v := range vs {
				r.Header.Add(k, v)
			}
		}

		resp, err = h.base.RoundTrip(r)
		if err == nil && resp.StatusCode < 500 {
			return resp, nil
		}

		if attempt >= h.retries {
			if err != nil {
				return nil, err
			}
			return resp, nil
		}

		if resp != nil {
			_ = resp.Body.Close()
		}
		time.Sleep(time.Duration(100*(1<<attempt)) * time.Millisecond)
	}
}

// New returns a configured HTTP client.
func New(cfg Config) *http.Client {
	transport := &http.Transport{
		TLSClientConfig: &tls.Config{InsecureSkipVerify: cfg.Insecure},
		DialContext: (&net.Dialer{
			Timeout:   cfg.Timeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2: true,
	}

	return &http.Client{
		Transport: &headerRoundTripper{
			base:    transport,
			headers: cfg.Headers,
			retries: cfg.Retries,
		},
		Timeout: cfg.Timeout,
	}
}
