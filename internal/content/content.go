// Package content issues one bounded GET against the target and extracts
// lightweight page signals. Everything here is best-effort: any network or
// decode failure yields an empty profile, never an error.
package content

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/phishguard/phishguard/internal/model"
)

const (
	defaultTimeout      = 10 * time.Second
	defaultMaxBodyBytes = 512 * 1024
)

var obfuscationRe = regexp.MustCompile(`(?i)eval\s*\(|document\.write\s*\(|fromCharCode|unescape\s*\(|atob\s*\(`)

var loginKeywordRe = regexp.MustCompile(`(?i)\b(log\s*in|login|sign\s*in|signin)\b`)

// Fetcher performs the bounded page fetch.
type Fetcher struct {
	client       *http.Client
	maxBodyBytes int64
}

// New returns a Fetcher using the given client. A nil client gets a default
// with the 10s content timeout; maxBodyBytes of 0 selects the 512KiB cap.
func New(client *http.Client, maxBodyBytes int64) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	if maxBodyBytes <= 0 {
		maxBodyBytes = defaultMaxBodyBytes
	}
	return &Fetcher{client: client, maxBodyBytes: maxBodyBytes}
}

// Fetch GETs the URL and extracts title, login form presence, external link
// count and obfuscated script indicators from at most maxBodyBytes of body.
func (f *Fetcher) Fetch(ctx context.Context, u *url.URL) model.ContentProfile {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return model.ContentProfile{}
	}
	req.Header.Set("User-Agent", "phishguard-scanner/1.0")

	resp, err := f.client.Do(req)
	if err != nil {
		return model.ContentProfile{}
	}
	defer func() { _ = resp.Body.Close() }()

	ct := resp.Header.Get("Content-Type")
	if ct != "" && !strings.Contains(ct, "text/") {
		return model.ContentProfile{}
	}

	buf := make([]byte, f.maxBodyBytes)
	n, _ := io.ReadFull(io.LimitReader(resp.Body, f.maxBodyBytes), buf)
	body := buf[:n]
	if len(body) == 0 {
		return model.ContentProfile{Retrieved: true}
	}
	return extract(body, u)
}

// extract walks the HTML token stream once, collecting all signals.
func extract(body []byte, base *url.URL) model.ContentProfile {
	profile := model.ContentProfile{Retrieved: true}
	profile.SuspiciousScripts = obfuscationRe.Match(body)

	tokenizer := html.NewTokenizer(strings.NewReader(string(body)))
	var inTitle, inForm, formHasLoginText bool
	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			return profile
		case html.StartTagToken, html.SelfClosingTagToken:
			tok := tokenizer.Token()
			switch tok.Data {
			case "title":
				inTitle = true
			case "form":
				inForm = true
			case "input":
				if inForm && attr(tok, "type") == "password" {
					profile.HasLoginForm = true
				}
			case "a":
				if external(attr(tok, "href"), base) {
					profile.ExternalLinks++
				}
			}
		case html.EndTagToken:
			tok := tokenizer.Token()
			switch tok.Data {
			case "title":
				inTitle = false
			case "form":
				if formHasLoginText {
					profile.HasLoginForm = true
				}
				inForm = false
				formHasLoginText = false
			}
		case html.TextToken:
			text := string(tokenizer.Text())
			if inTitle && profile.Title == "" {
				profile.Title = strings.TrimSpace(text)
			}
			if inForm && loginKeywordRe.MatchString(text) {
				formHasLoginText = true
			}
		}
	}
}

func attr(tok html.Token, name string) string {
	for _, a := range tok.Attr {
		if a.Key == name {
			return strings.ToLower(strings.TrimSpace(a.Val))
		}
	}
	return ""
}

// external reports whether href is an absolute http(s) link to another host.
func external(href string, base *url.URL) bool {
	if !strings.HasPrefix(href, "http://") && !strings.HasPrefix(href, "https://") {
		return false
	}
	u, err := url.Parse(href)
	if err != nil {
		return false
	}
	return !strings.EqualFold(u.Hostname(), base.Hostname())
}
