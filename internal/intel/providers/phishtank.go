// Package providers holds the closed set of threat-intelligence provider
// implementations. Each one maps its native response shape into the shared
// ProviderResult and never lets a network failure escape as an error.
package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/phishguard/phishguard/internal/intel"
	"github.com/phishguard/phishguard/internal/model"
)

const defaultPhishTankBaseURL = "https://checkurl.phishtank.com"

// PhishTankConfig configures the PhishTank synchronous lookup provider.
type PhishTankConfig struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
}

// phishTank performs a single request/response reputation lookup.
type phishTank struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewPhishTank returns the PhishTank provider.
func NewPhishTank(cfg PhishTankConfig) intel.Provider {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultPhishTankBaseURL
	}
	client := cfg.Client
	if client == nil {
		client = http.DefaultClient
	}
	return &phishTank{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  cfg.APIKey,
		client:  client,
	}
}

func (p *phishTank) Name() string  { return "phishtank" }
func (p *phishTank) Enabled() bool { return p.apiKey != "" }

// phishTankResponse is the native checkurl response shape.
type phishTankResponse struct {
	Results struct {
		InDatabase      bool   `json:"in_database"`
		Valid           bool   `json:"valid"`
		Verified        bool   `json:"verified"`
		PhishID         int64  `json:"phish_id"`
		PhishDetailPage string `json:"phish_detail_page"`
	} `json:"results"`
}

func (p *phishTank) Check(ctx context.Context, target string) model.ProviderResult {
	form := url.Values{
		"url":     {target},
		"format":  {"json"},
		"app_key": {p.apiKey},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		p.baseURL+"/checkurl/", strings.NewReader(form.Encode()))
	if err != nil {
		return intel.Errored(p.Name(), err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.client.Do(req)
	if err != nil {
		return intel.Errored(p.Name(), err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return intel.Errored(p.Name(), fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	var out phishTankResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return intel.Errored(p.Name(), fmt.Errorf("decode response: %w", err))
	}

	evidence := map[string]any{
		"in_database": out.Results.InDatabase,
		"verified":    out.Results.Verified,
	}
	if out.Results.InDatabase && out.Results.Valid {
		evidence["phish_id"] = out.Results.PhishID
		if out.Results.PhishDetailPage != "" {
			evidence["detail_page"] = out.Results.PhishDetailPage
		}
		return intel.Flagged(p.Name(), "phishing", evidence)
	}
	return intel.Clean(p.Name(), evidence)
}
