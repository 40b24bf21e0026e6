package runner

import (
	"context"
	"net/url"
	"sync/atomic"
	"testing"

	"github.com/phishguard/phishguard/internal/engine"
	"github.com/phishguard/phishguard/internal/fuse"
	"github.com/phishguard/phishguard/internal/model"
)

type countingDomain struct{ calls atomic.Int32 }

func (c *countingDomain) Analyze(_ context.Context, u *url.URL) model.DomainProfile {
	c.calls.Add(1)
	return model.DomainProfile{Name: u.Hostname(), Reputation: model.ReputationGood, Resolved: true}
}

type nopSecurity struct{}

func (nopSecurity) Probe(_ context.Context, _ *url.URL) model.SecurityProfile {
	return model.SecurityProfile{HasHTTPS: true, HasSSL: true}
}

type nopContent struct{}

func (nopContent) Fetch(_ context.Context, _ *url.URL) model.ContentProfile {
	return model.ContentProfile{Retrieved: true}
}

type nopThreat struct{}

func (nopThreat) Check(_ context.Context, _ string) model.ThreatSummary {
	return model.ThreatSummary{Providers: map[string]model.ProviderResult{}}
}

func TestRunOrderAndErrors(t *testing.T) {
	domain := &countingDomain{}
	eng := engine.New(domain, nopSecurity{}, nopContent{}, nopThreat{}, fuse.DefaultPolicy())
	r := New(Config{Threads: 4}, eng)

	targets := []string{
		"https://a.example.com/",
		"not a url",
		"https://b.example.com/",
	}
	out := r.Run(context.Background(), targets)

	if len(out) != 3 {
		t.Fatalf("expected 3 outcomes, got %d", len(out))
	}
	for i, target := range targets {
		if out[i].Target != target {
			t.Fatalf("outcome %d out of order: got %q want %q", i, out[i].Target, target)
		}
	}
	if out[0].Err != nil || out[0].Result == nil {
		t.Fatalf("expected success for first target, got %v", out[0].Err)
	}
	if out[1].Err == nil {
		t.Fatal("expected error for malformed target")
	}
	if out[2].Err != nil || out[2].Result.Status != model.ScanSafe {
		t.Fatalf("unexpected third outcome: %+v", out[2])
	}
	if got := domain.calls.Load(); got != 2 {
		t.Fatalf("expected 2 domain lookups, got %d", got)
	}
}

func TestRunZeroThreadsDefaultsToOne(t *testing.T) {
	eng := engine.New(&countingDomain{}, nopSecurity{}, nopContent{}, nopThreat{}, fuse.DefaultPolicy())
	r := New(Config{}, eng)
	out := r.Run(context.Background(), []string{"https://example.com/"})
	if len(out) != 1 || out[0].Err != nil {
		t.Fatalf("unexpected outcome: %+v", out)
	}
}
