package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/phishguard/phishguard/internal/intel"
	"github.com/phishguard/phishguard/internal/model"
)

const defaultSafeBrowsingBaseURL = "https://safebrowsing.googleapis.com"

// SafeBrowsingConfig configures the Google Safe Browsing lookup provider.
type SafeBrowsingConfig struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
}

type safeBrowsing struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewSafeBrowsing returns the Safe Browsing threatMatches provider.
func NewSafeBrowsing(cfg SafeBrowsingConfig) intel.Provider {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultSafeBrowsingBaseURL
	}
	client := cfg.Client
	if client == nil {
		client = http.DefaultClient
	}
	return &safeBrowsing{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  cfg.APIKey,
		client:  client,
	}
}

func (p *safeBrowsing) Name() string  { return "safebrowsing" }
func (p *safeBrowsing) Enabled() bool { return p.apiKey != "" }

type sbFindRequest struct {
	Client     sbClient     `json:"client"`
	ThreatInfo sbThreatInfo `json:"threatInfo"`
}

type sbClient struct {
	ClientID      string `json:"clientId"`
	ClientVersion string `json:"clientVersion"`
}

type sbThreatInfo struct {
	ThreatTypes      []string        `json:"threatTypes"`
	PlatformTypes    []string        `json:"platformTypes"`
	ThreatEntryTypes []string        `json:"threatEntryTypes"`
	ThreatEntries    []sbThreatEntry `json:"threatEntries"`
}

type sbThreatEntry struct {
	URL string `json:"url"`
}

type sbFindResponse struct {
	Matches []sbMatch `json:"matches"`
}

type sbMatch struct {
	ThreatType   string `json:"threatType"`
	PlatformType string `json:"platformType"`
	CacheHit     string `json:"cacheDuration,omitempty"`
}

func (p *safeBrowsing) Check(ctx context.Context, target string) model.ProviderResult {
	body, err := json.Marshal(sbFindRequest{
		Client: sbClient{ClientID: "phishguard", ClientVersion: "1.0"},
		ThreatInfo: sbThreatInfo{
			ThreatTypes:      []string{"MALWARE", "SOCIAL_ENGINEERING", "UNWANTED_SOFTWARE"},
			PlatformTypes:    []string{"ANY_PLATFORM"},
			ThreatEntryTypes: []string{"URL"},
			ThreatEntries:    []sbThreatEntry{{URL: target}},
		},
	})
	if err != nil {
		return intel.Errored(p.Name(), fmt.Errorf("marshal request: %w", err))
	}

	endpoint := p.baseURL + "/v4/threatMatches:find?key=" + url.QueryEscape(p.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return intel.Errored(p.Name(), err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return intel.Errored(p.Name(), err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return intel.Errored(p.Name(), fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	var out sbFindResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return intel.Errored(p.Name(), fmt.Errorf("decode response: %w", err))
	}
	if len(out.Matches) == 0 {
		return intel.Clean(p.Name(), nil)
	}

	types := make([]string, 0, len(out.Matches))
	for _, m := range out.Matches {
		types = append(types, m.ThreatType)
	}
	return intel.Flagged(p.Name(), categoryFor(types), map[string]any{"threat_types": types})
}

// categoryFor maps Safe Browsing threat types onto the shared categories,
// preferring malware over phishing over spam when several match.
func categoryFor(types []string) string {
	category := ""
	for _, t := range types {
		switch t {
		case "MALWARE":
			return "malware"
		case "SOCIAL_ENGINEERING":
			category = "phishing"
		case "UNWANTED_SOFTWARE":
			if category == "" {
				category = "spam"
			}
		}
	}
	return category
}
