// Package intel fans a URL out to the configured threat-intelligence
// providers and normalizes their heterogeneous responses into one summary.
package intel

import (
	"context"

	"github.com/phishguard/phishguard/internal/model"
)

// Provider is one external threat database. Implementations own their
// protocol (single lookup, keyed lookup, submit-then-poll) and must encode
// every failure into the returned ProviderResult instead of panicking or
// blocking past their context deadline.
type Provider interface {
	// Name is the stable identifier used in summaries and evidence.
	Name() string

	// Enabled reports whether the provider has the configuration it needs
	// (typically a credential). Disabled providers are never called.
	Enabled() bool

	// Check queries the provider for the given canonical URL.
	Check(ctx context.Context, target string) model.ProviderResult
}

// NotConfigured is the result for a provider lacking configuration. This is
// a normal state, not an error.
func NotConfigured(name string) model.ProviderResult {
	return model.ProviderResult{ProviderName: name, Status: model.StatusNotConfigured}
}

// Clean marks a provider lookup that completed with no match.
func Clean(name string, evidence map[string]any) model.ProviderResult {
	return model.ProviderResult{ProviderName: name, Status: model.StatusOKClean, Evidence: evidence}
}

// Flagged marks a provider lookup that matched. Only flagged results
// contribute to the report count.
func Flagged(name, category string, evidence map[string]any) model.ProviderResult {
	return model.ProviderResult{
		ProviderName:             name,
		Status:                   model.StatusOKFlagged,
		Category:                 category,
		Evidence:                 evidence,
		ContributesToReportCount: true,
	}
}

// Submitted marks a URL handed to the provider for future analysis.
func Submitted(name string, evidence map[string]any) model.ProviderResult {
	return model.ProviderResult{ProviderName: name, Status: model.StatusSubmitted, Evidence: evidence}
}

// Processing marks a submit-then-poll provider that exhausted its poll
// budget without a verdict.
func Processing(name string, evidence map[string]any) model.ProviderResult {
	return model.ProviderResult{ProviderName: name, Status: model.StatusProcessing, Evidence: evidence}
}

// Errored records a provider failure as evidence. The error never propagates.
func Errored(name string, err error) model.ProviderResult {
	return model.ProviderResult{
		ProviderName: name,
		Status:       model.StatusError,
		Evidence:     map[string]any{"error": err.Error()},
	}
}
