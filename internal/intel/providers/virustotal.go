package providers

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/phishguard/phishguard/internal/intel"
	"github.com/phishguard/phishguard/internal/model"
)

const (
	defaultVirusTotalBaseURL       = "https://www.virustotal.com"
	defaultVirusTotalSubmitTimeout = 10 * time.Second
)

// VirusTotalConfig configures the VirusTotal keyed-lookup provider.
type VirusTotalConfig struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
}

// virusTotal looks a URL up by the base64 of its canonical form. An unknown
// URL is submitted for future analysis without blocking the current scan.
type virusTotal struct {
	baseURL string
	apiKey  string
	client  *http.Client

	// submitDone receives after each fire-and-forget submission finishes;
	// only tests wait on it.
	submitDone chan struct{}
}

// NewVirusTotal returns the VirusTotal provider.
func NewVirusTotal(cfg VirusTotalConfig) intel.Provider {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultVirusTotalBaseURL
	}
	client := cfg.Client
	if client == nil {
		client = http.DefaultClient
	}
	return &virusTotal{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     cfg.APIKey,
		client:     client,
		submitDone: make(chan struct{}, 1),
	}
}

func (p *virusTotal) Name() string  { return "virustotal" }
func (p *virusTotal) Enabled() bool { return p.apiKey != "" }

// urlID is VirusTotal's deterministic encoding of a URL: unpadded
// URL-safe base64.
func urlID(target string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(target))
}

type vtURLResponse struct {
	Data struct {
		Attributes struct {
			LastAnalysisStats struct {
				Malicious  int `json:"malicious"`
				Suspicious int `json:"suspicious"`
				Harmless   int `json:"harmless"`
				Undetected int `json:"undetected"`
			} `json:"last_analysis_stats"`
		} `json:"attributes"`
	} `json:"data"`
}

func (p *virusTotal) Check(ctx context.Context, target string) model.ProviderResult {
	endpoint := p.baseURL + "/api/v3/urls/" + urlID(target)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return intel.Errored(p.Name(), err)
	}
	req.Header.Set("x-apikey", p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return intel.Errored(p.Name(), err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		// Unknown URL: hand it over for future analysis and move on.
		go p.submit(context.WithoutCancel(ctx), target)
		return intel.Submitted(p.Name(), map[string]any{"submitted": true})
	default:
		return intel.Errored(p.Name(), fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	var out vtURLResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return intel.Errored(p.Name(), fmt.Errorf("decode response: %w", err))
	}

	stats := out.Data.Attributes.LastAnalysisStats
	evidence := map[string]any{
		"malicious":  stats.Malicious,
		"suspicious": stats.Suspicious,
		"harmless":   stats.Harmless,
	}
	if stats.Malicious > 0 {
		return intel.Flagged(p.Name(), "malware", evidence)
	}
	return intel.Clean(p.Name(), evidence)
}

// submit posts the URL for analysis. Failures are deliberately dropped: the
// submission is advisory and the scan that triggered it has already moved on.
func (p *virusTotal) submit(ctx context.Context, target string) {
	defer func() {
		select {
		case p.submitDone <- struct{}{}:
		default:
		}
	}()
	ctx, cancel := context.WithTimeout(ctx, defaultVirusTotalSubmitTimeout)
	defer cancel()

	form := url.Values{"url": {target}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		p.baseURL+"/api/v3/urls", strings.NewReader(form.Encode()))
	if err != nil {
		return
	}
	req.Header.Set("x-apikey", p.apiKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.client.Do(req)
	if err != nil {
		return
	}
	_ = resp.Body.Close()
}
