package providers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phishguard/phishguard/internal/model"
)

const target = "https://suspicious.example/login"

func TestProvidersDisabledWithoutCredential(t *testing.T) {
	t.Parallel()
	assert.False(t, NewPhishTank(PhishTankConfig{}).Enabled())
	assert.False(t, NewSafeBrowsing(SafeBrowsingConfig{}).Enabled())
	assert.False(t, NewVirusTotal(VirusTotalConfig{}).Enabled())
	assert.False(t, NewURLScan(URLScanConfig{}).Enabled())

	assert.True(t, NewPhishTank(PhishTankConfig{APIKey: "k"}).Enabled())
}

func TestPhishTankFlagged(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/checkurl/", r.URL.Path)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, target, r.PostForm.Get("url"))
		assert.Equal(t, "k", r.PostForm.Get("app_key"))
		_, _ = w.Write([]byte(`{"results":{"in_database":true,"valid":true,"verified":true,"phish_id":812345,"phish_detail_page":"https://phishtank.example/phish_detail.php?phish_id=812345"}}`))
	}))
	defer srv.Close()

	p := NewPhishTank(PhishTankConfig{BaseURL: srv.URL, APIKey: "k"})
	res := p.Check(context.Background(), target)
	assert.Equal(t, model.StatusOKFlagged, res.Status)
	assert.Equal(t, "phishing", res.Category)
	assert.True(t, res.ContributesToReportCount)
	assert.Equal(t, int64(812345), res.Evidence["phish_id"])
}

func TestPhishTankClean(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"results":{"in_database":false}}`))
	}))
	defer srv.Close()

	res := NewPhishTank(PhishTankConfig{BaseURL: srv.URL, APIKey: "k"}).Check(context.Background(), target)
	assert.Equal(t, model.StatusOKClean, res.Status)
	assert.False(t, res.ContributesToReportCount)
}

func TestPhishTankNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	res := NewPhishTank(PhishTankConfig{BaseURL: srv.URL, APIKey: "k"}).Check(context.Background(), target)
	assert.Equal(t, model.StatusError, res.Status)
	assert.NotEmpty(t, res.Evidence["error"])
}

func TestSafeBrowsingMatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v4/threatMatches:find", r.URL.Path)
		assert.Equal(t, "k", r.URL.Query().Get("key"))

		var req sbFindRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.ThreatInfo.ThreatEntries, 1)
		assert.Equal(t, target, req.ThreatInfo.ThreatEntries[0].URL)

		_, _ = w.Write([]byte(`{"matches":[{"threatType":"SOCIAL_ENGINEERING","platformType":"ANY_PLATFORM"}]}`))
	}))
	defer srv.Close()

	res := NewSafeBrowsing(SafeBrowsingConfig{BaseURL: srv.URL, APIKey: "k"}).Check(context.Background(), target)
	assert.Equal(t, model.StatusOKFlagged, res.Status)
	assert.Equal(t, "phishing", res.Category)
}

func TestSafeBrowsingNoMatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	res := NewSafeBrowsing(SafeBrowsingConfig{BaseURL: srv.URL, APIKey: "k"}).Check(context.Background(), target)
	assert.Equal(t, model.StatusOKClean, res.Status)
}

func TestSafeBrowsingCategoryPrecedence(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "malware", categoryFor([]string{"SOCIAL_ENGINEERING", "MALWARE"}))
	assert.Equal(t, "phishing", categoryFor([]string{"UNWANTED_SOFTWARE", "SOCIAL_ENGINEERING"}))
	assert.Equal(t, "spam", categoryFor([]string{"UNWANTED_SOFTWARE"}))
}

func TestVirusTotalFlagged(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v3/urls/"+urlID(target), r.URL.Path)
		assert.Equal(t, "k", r.Header.Get("x-apikey"))
		_, _ = w.Write([]byte(`{"data":{"attributes":{"last_analysis_stats":{"malicious":4,"suspicious":1,"harmless":60}}}}`))
	}))
	defer srv.Close()

	res := NewVirusTotal(VirusTotalConfig{BaseURL: srv.URL, APIKey: "k"}).Check(context.Background(), target)
	assert.Equal(t, model.StatusOKFlagged, res.Status)
	assert.Equal(t, "malware", res.Category)
	assert.Equal(t, 4, res.Evidence["malicious"])
}

func TestVirusTotalUnknownURLSubmits(t *testing.T) {
	var submissions atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet:
			w.WriteHeader(http.StatusNotFound)
		case r.Method == http.MethodPost && r.URL.Path == "/api/v3/urls":
			require.NoError(t, r.ParseForm())
			assert.Equal(t, target, r.PostForm.Get("url"))
			submissions.Add(1)
			_, _ = w.Write([]byte(`{"data":{"id":"u-1"}}`))
		default:
			w.WriteHeader(http.StatusBadRequest)
		}
	}))
	defer srv.Close()

	p := NewVirusTotal(VirusTotalConfig{BaseURL: srv.URL, APIKey: "k"}).(*virusTotal)
	res := p.Check(context.Background(), target)
	assert.Equal(t, model.StatusSubmitted, res.Status)
	assert.False(t, res.ContributesToReportCount)

	select {
	case <-p.submitDone:
	case <-time.After(2 * time.Second):
		t.Fatal("expected fire-and-forget submission")
	}
	assert.Equal(t, int32(1), submissions.Load())
}

func TestURLScanPollsUntilReady(t *testing.T) {
	var polls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost:
			assert.Equal(t, "/api/v1/scan/", r.URL.Path)
			assert.Equal(t, "k", r.Header.Get("API-Key"))
			_, _ = w.Write([]byte(`{"uuid":"job-42","message":"Submission successful"}`))
		case r.Method == http.MethodGet:
			if polls.Add(1) < 2 {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			_, _ = w.Write([]byte(`{"verdicts":{"overall":{"malicious":true,"score":87}},"page":{"domain":"suspicious.example","ip":"198.51.100.7"},"stats":{"malicious":12}}`))
		}
	}))
	defer srv.Close()

	p := NewURLScan(URLScanConfig{
		BaseURL:      srv.URL,
		APIKey:       "k",
		PollAttempts: 3,
		PollInterval: 20 * time.Millisecond,
	})
	res := p.Check(context.Background(), target)
	assert.Equal(t, model.StatusOKFlagged, res.Status)
	assert.Equal(t, "phishing", res.Category)
	assert.Equal(t, "job-42", res.Evidence["job_id"])
	assert.Equal(t, int32(2), polls.Load())
}

func TestURLScanBudgetExhaustionIsProcessing(t *testing.T) {
	var polls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			_, _ = w.Write([]byte(`{"uuid":"job-43"}`))
			return
		}
		polls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	p := NewURLScan(URLScanConfig{
		BaseURL:      srv.URL,
		APIKey:       "k",
		PollAttempts: 3,
		PollInterval: 10 * time.Millisecond,
	})
	res := p.Check(context.Background(), target)
	assert.Equal(t, model.StatusProcessing, res.Status)
	assert.False(t, res.ContributesToReportCount)
	assert.Equal(t, "job-43", res.Evidence["job_id"])
	assert.Equal(t, int32(3), polls.Load())
}

func TestURLScanCleanVerdict(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			_, _ = w.Write([]byte(`{"uuid":"job-44"}`))
			return
		}
		_, _ = w.Write([]byte(`{"verdicts":{"overall":{"malicious":false,"score":0}},"page":{"domain":"example.com"},"stats":{"malicious":0}}`))
	}))
	defer srv.Close()

	p := NewURLScan(URLScanConfig{BaseURL: srv.URL, APIKey: "k", PollAttempts: 1, PollInterval: 10 * time.Millisecond})
	res := p.Check(context.Background(), target)
	assert.Equal(t, model.StatusOKClean, res.Status)
}

func TestURLScanSubmitFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	p := NewURLScan(URLScanConfig{BaseURL: srv.URL, APIKey: "k", PollAttempts: 1, PollInterval: time.Millisecond})
	res := p.Check(context.Background(), target)
	assert.Equal(t, model.StatusError, res.Status)
}
