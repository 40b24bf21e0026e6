// Package engine wires the validator, the four concurrent analyses and the
// fusion step into one Scan call.
package engine

import (
	"context"
	"net/url"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/phishguard/phishguard/internal/fuse"
	"github.com/phishguard/phishguard/internal/model"
	"github.com/phishguard/phishguard/internal/validate"
)

// DomainAnalyzer scores the host's reputation.
type DomainAnalyzer interface {
	Analyze(ctx context.Context, u *url.URL) model.DomainProfile
}

// SecurityProber inspects transport security.
type SecurityProber interface {
	Probe(ctx context.Context, u *url.URL) model.SecurityProfile
}

// ContentFetcher extracts page signals.
type ContentFetcher interface {
	Fetch(ctx context.Context, u *url.URL) model.ContentProfile
}

// ThreatChecker queries the configured threat-intelligence providers.
type ThreatChecker interface {
	Check(ctx context.Context, target string) model.ThreatSummary
}

// Engine runs the full scan pipeline. It holds no per-scan state and is safe
// for concurrent use.
type Engine struct {
	domain   DomainAnalyzer
	security SecurityProber
	content  ContentFetcher
	threat   ThreatChecker
	policy   fuse.Policy
}

// New assembles an Engine from its four analyzers and a scoring policy.
func New(domain DomainAnalyzer, security SecurityProber, content ContentFetcher, threat ThreatChecker, policy fuse.Policy) *Engine {
	return &Engine{
		domain:   domain,
		security: security,
		content:  content,
		threat:   threat,
		policy:   policy,
	}
}

// Scan validates the request's URL and, if it passes, runs the four analyses
// concurrently against the immutable request and fuses their results. The
// returned error is always an *validate.InvalidURLError; every other failure
// mode is encoded inside the result.
func (e *Engine) Scan(ctx context.Context, req model.ScanRequest) (*model.ScanResult, error) {
	u, err := validate.Normalize(req.URL)
	if err != nil {
		return nil, err
	}
	started := time.Now()

	var (
		domain   model.DomainProfile
		security model.SecurityProfile
		content  model.ContentProfile
		threat   model.ThreatSummary
	)
	// Fusion is a barrier: it never runs on partial results. The analyzers
	// swallow their own failures, so Wait always returns nil.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { domain = e.domain.Analyze(gctx, u); return nil })
	g.Go(func() error { security = e.security.Probe(gctx, u); return nil })
	g.Go(func() error { content = e.content.Fetch(gctx, u); return nil })
	g.Go(func() error { threat = e.threat.Check(gctx, u.String()); return nil })
	_ = g.Wait()

	result := e.policy.Fuse(req, domain, security, content, threat)
	result.ID = uuid.NewString()
	result.URL = u.String()
	result.ScannedAt = started.UTC()
	result.DurationMs = time.Since(started).Milliseconds()
	return &result, nil
}
