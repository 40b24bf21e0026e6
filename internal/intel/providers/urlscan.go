package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/phishguard/phishguard/internal/intel"
	"github.com/phishguard/phishguard/internal/model"
)

const (
	defaultURLScanBaseURL      = "https://urlscan.io"
	defaultURLScanPollAttempts = 3
	defaultURLScanPollInterval = 5 * time.Second
)

// errResultPending signals the poll loop that the scan is still running.
var errResultPending = errors.New("urlscan: result not ready")

// URLScanConfig configures the urlscan.io submit-then-poll provider.
type URLScanConfig struct {
	BaseURL      string
	APIKey       string
	Client       *http.Client
	PollAttempts int
	PollInterval time.Duration
}

// urlScan submits the URL as a scan job and polls for the verdict within a
// fixed budget. Budget exhaustion yields PROCESSING, never an error.
type urlScan struct {
	baseURL      string
	apiKey       string
	client       *http.Client
	pollAttempts int
	pollInterval time.Duration
}

// NewURLScan returns the urlscan.io provider.
func NewURLScan(cfg URLScanConfig) intel.Provider {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultURLScanBaseURL
	}
	client := cfg.Client
	if client == nil {
		client = http.DefaultClient
	}
	attempts := cfg.PollAttempts
	if attempts <= 0 {
		attempts = defaultURLScanPollAttempts
	}
	interval := cfg.PollInterval
	if interval <= 0 {
		interval = defaultURLScanPollInterval
	}
	return &urlScan{
		baseURL:      strings.TrimRight(baseURL, "/"),
		apiKey:       cfg.APIKey,
		client:       client,
		pollAttempts: attempts,
		pollInterval: interval,
	}
}

func (p *urlScan) Name() string  { return "urlscan" }
func (p *urlScan) Enabled() bool { return p.apiKey != "" }

type urlScanSubmitResponse struct {
	UUID    string `json:"uuid"`
	Message string `json:"message"`
}

type urlScanResult struct {
	Verdicts struct {
		Overall struct {
			Malicious bool    `json:"malicious"`
			Score     float64 `json:"score"`
		} `json:"overall"`
	} `json:"verdicts"`
	Page struct {
		URL     string `json:"url"`
		Domain  string `json:"domain"`
		IP      string `json:"ip"`
		Country string `json:"country"`
		Server  string `json:"server"`
	} `json:"page"`
	Stats struct {
		Malicious int `json:"malicious"`
	} `json:"stats"`
}

func (p *urlScan) Check(ctx context.Context, target string) model.ProviderResult {
	jobID, err := p.submit(ctx, target)
	if err != nil {
		return intel.Errored(p.Name(), err)
	}
	evidence := map[string]any{"job_id": jobID}

	// The service needs time before the first result is plausible.
	select {
	case <-ctx.Done():
		return intel.Processing(p.Name(), evidence)
	case <-time.After(p.pollInterval):
	}

	var result *urlScanResult
	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(p.pollInterval), uint64(p.pollAttempts-1)),
		ctx)
	err = backoff.Retry(func() error {
		r, ready, ferr := p.fetchResult(ctx, jobID)
		if ferr != nil {
			return backoff.Permanent(ferr)
		}
		if !ready {
			return errResultPending
		}
		result = r
		return nil
	}, policy)

	switch {
	case err == nil:
	case errors.Is(err, errResultPending) || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled):
		return intel.Processing(p.Name(), evidence)
	default:
		return intel.Errored(p.Name(), err)
	}

	evidence["score"] = result.Verdicts.Overall.Score
	evidence["malicious_indicators"] = result.Stats.Malicious
	if result.Page.Domain != "" {
		evidence["page_domain"] = result.Page.Domain
	}
	if result.Page.IP != "" {
		evidence["page_ip"] = result.Page.IP
	}
	if result.Verdicts.Overall.Malicious {
		return intel.Flagged(p.Name(), "phishing", evidence)
	}
	return intel.Clean(p.Name(), evidence)
}

func (p *urlScan) submit(ctx context.Context, target string) (string, error) {
	body, err := json.Marshal(map[string]string{"url": target, "visibility": "unlisted"})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		p.baseURL+"/api/v1/scan/", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("API-Key", p.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("submit: unexpected status %d", resp.StatusCode)
	}

	var out urlScanSubmitResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("submit: decode response: %w", err)
	}
	if out.UUID == "" {
		return "", errors.New("submit: response carried no job id")
	}
	return out.UUID, nil
}

// fetchResult polls once. A 404 means the scan has not finished yet.
func (p *urlScan) fetchResult(ctx context.Context, jobID string) (*urlScanResult, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		p.baseURL+"/api/v1/result/"+jobID+"/", nil)
	if err != nil {
		return nil, false, err
	}
	req.Header.Set("API-Key", p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, false, err
	}
	defer func() { _ = resp.Body.Close() }()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, false, nil
	default:
		return nil, false, fmt.Errorf("poll: unexpected status %d", resp.StatusCode)
	}

	var out urlScanResult
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, false, fmt.Errorf("poll: decode response: %w", err)
	}
	return &out, true, nil
}
