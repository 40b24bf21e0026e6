package intel

import (
	"context"
	"sort"
	"time"

	"github.com/phishguard/phishguard/internal/model"
)

const defaultProviderTimeout = 30 * time.Second

// Aggregator queries all providers concurrently and merges their results.
// A single provider's failure or slowness never affects the others; total
// latency is bounded by the slowest provider's own budget, not the sum.
type Aggregator struct {
	providers []Provider
	timeout   time.Duration
}

// NewAggregator builds an Aggregator with a per-provider timeout
// (0 selects the 30s default).
func NewAggregator(timeout time.Duration, providers ...Provider) *Aggregator {
	if timeout == 0 {
		timeout = defaultProviderTimeout
	}
	return &Aggregator{providers: providers, timeout: timeout}
}

// Check runs every enabled provider in its own goroutine and returns once
// all have completed, errored or exhausted their budget.
func (a *Aggregator) Check(ctx context.Context, target string) model.ThreatSummary {
	results := make([]model.ProviderResult, len(a.providers))

	done := make(chan int, len(a.providers))
	running := 0
	for i, p := range a.providers {
		if !p.Enabled() {
			results[i] = NotConfigured(p.Name())
			continue
		}
		running++
		go func(i int, p Provider) {
			pctx, cancel := context.WithTimeout(ctx, a.timeout)
			defer cancel()
			results[i] = p.Check(pctx, target)
			done <- i
		}(i, p)
	}
	for ; running > 0; running-- {
		<-done
	}

	return summarize(results)
}

func summarize(results []model.ProviderResult) model.ThreatSummary {
	summary := model.ThreatSummary{Providers: make(map[string]model.ProviderResult, len(results))}
	for _, r := range results {
		summary.Providers[r.ProviderName] = r
		if r.Status == model.StatusOKFlagged && r.ContributesToReportCount {
			summary.ReportCount++
			summary.FlaggedProviders = append(summary.FlaggedProviders, r.ProviderName)
		}
	}
	sort.Strings(summary.FlaggedProviders)
	return summary
}
