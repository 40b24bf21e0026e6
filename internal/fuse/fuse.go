// Package fuse combines the four analysis profiles and an optional
// client-supplied local score into the final scored verdict. The policy
// constants are configuration, not calibrated truth; DefaultPolicy holds the
// compatible values and every deployment may override them.
package fuse

import (
	"fmt"
	"math"
	"strings"

	"github.com/phishguard/phishguard/internal/model"
)

// Policy carries every scoring constant.
type Policy struct {
	DomainSuspicious  int
	DomainUnknown     int
	NoHTTPS           int
	NoCertificate     int
	LoginForm         int
	SuspiciousScripts int
	ThreatPerReport   int
	ThreatCap         int

	LocalWeight float64
	CloudWeight float64

	DangerThreshold  int
	WarningThreshold int

	BaseConfidence    float64
	ThreatConfidence  float64
	SSLConfidence     float64
	FactorsConfidence float64
	MaxConfidence     float64
}

// DefaultPolicy returns the standard scoring constants.
func DefaultPolicy() Policy {
	return Policy{
		DomainSuspicious:  30,
		DomainUnknown:     15,
		NoHTTPS:           15,
		NoCertificate:     5,
		LoginForm:         10,
		SuspiciousScripts: 10,
		ThreatPerReport:   10,
		ThreatCap:         30,

		LocalWeight: 0.4,
		CloudWeight: 0.6,

		DangerThreshold:  70,
		WarningThreshold: 40,

		BaseConfidence:    0.5,
		ThreatConfidence:  0.3,
		SSLConfidence:     0.1,
		FactorsConfidence: 0.15,
		MaxConfidence:     0.95,
	}
}

// CloudScore sums the additive per-category penalties, capped to [0,100].
func (p Policy) CloudScore(d model.DomainProfile, s model.SecurityProfile, c model.ContentProfile, t model.ThreatSummary) int {
	score := 0
	switch d.Reputation {
	case model.ReputationSuspicious:
		score += p.DomainSuspicious
	case model.ReputationUnknown:
		score += p.DomainUnknown
	}
	if !s.HasHTTPS {
		score += p.NoHTTPS
	} else if !s.HasSSL {
		score += p.NoCertificate
	}
	if c.HasLoginForm {
		score += p.LoginForm
	}
	if c.SuspiciousScripts {
		score += p.SuspiciousScripts
	}
	score += min(p.ThreatCap, t.ReportCount*p.ThreatPerReport)
	return clamp(score)
}

// Combine fuses a client local score with the cloud score using the fixed
// weighting. A nil local score leaves the cloud score untouched.
func (p Policy) Combine(local *int, cloud int) int {
	if local == nil {
		return cloud
	}
	ls := clamp(*local)
	return clamp(int(math.Round(float64(ls)*p.LocalWeight + float64(cloud)*p.CloudWeight)))
}

// StatusFor is the pure threshold classification of a combined score.
func (p Policy) StatusFor(score int) model.ScanStatus {
	switch {
	case score >= p.DangerThreshold:
		return model.ScanDanger
	case score >= p.WarningThreshold:
		return model.ScanWarning
	default:
		return model.ScanSafe
	}
}

// Fuse runs the full policy: score, status, confidence, factors, verdict and
// recommendation. It is deterministic and touches no network.
func (p Policy) Fuse(req model.ScanRequest, d model.DomainProfile, s model.SecurityProfile, c model.ContentProfile, t model.ThreatSummary) model.ScanResult {
	cloud := p.CloudScore(d, s, c, t)
	score := p.Combine(req.LocalScore, cloud)
	status := p.StatusFor(score)

	factors := p.factors(req, d, s, c, t)
	if len(factors) == 0 && status != model.ScanSafe && req.LocalScore != nil {
		factors = append(factors, fmt.Sprintf("Client-reported risk score of %d", clamp(*req.LocalScore)))
	}

	return model.ScanResult{
		Score:          score,
		Confidence:     p.confidence(t, s, len(factors)),
		Status:         status,
		Verdict:        verdict(status, d, c, t),
		Factors:        factors,
		Recommendation: recommendation(status),
		Domain:         d,
		Security:       s,
		Content:        c,
		Threat:         t,
	}
}

// factors concatenates client factors with engine factors in the fixed
// order: domain, HTTPS, SSL certificate, login form, scripts, threat hits.
func (p Policy) factors(req model.ScanRequest, d model.DomainProfile, s model.SecurityProfile, c model.ContentProfile, t model.ThreatSummary) []string {
	var factors []string
	factors = append(factors, req.LocalFactors...)

	switch d.Reputation {
	case model.ReputationSuspicious:
		factors = append(factors, "Suspicious domain: "+strings.Join(d.Flags, "; "))
	case model.ReputationUnknown:
		factors = append(factors, "Domain name did not resolve")
	}
	if !s.HasHTTPS {
		factors = append(factors, "Connection is not encrypted (no HTTPS)")
	} else if !s.HasSSL {
		factors = append(factors, "Could not retrieve an SSL certificate")
	}
	if c.HasLoginForm {
		factors = append(factors, "Page contains a login form")
	}
	if c.SuspiciousScripts {
		factors = append(factors, "Page contains obfuscated script patterns")
	}
	if t.ReportCount > 0 {
		factors = append(factors, fmt.Sprintf("Flagged by %d threat database(s): %s",
			t.ReportCount, strings.Join(t.FlaggedProviders, ", ")))
	}
	return factors
}

func (p Policy) confidence(t model.ThreatSummary, s model.SecurityProfile, factorCount int) float64 {
	conf := p.BaseConfidence
	if t.ReportCount > 0 {
		conf += p.ThreatConfidence
	}
	if s.HasSSL {
		conf += p.SSLConfidence
	}
	if factorCount > 3 {
		conf += p.FactorsConfidence
	}
	return math.Min(p.MaxConfidence, conf)
}

// verdict derives the category flags from provider categories and, failing
// those, from the strongest local signals.
func verdict(status model.ScanStatus, d model.DomainProfile, c model.ContentProfile, t model.ThreatSummary) model.Verdict {
	v := model.Verdict{IsSafe: status == model.ScanSafe}

	for _, name := range t.FlaggedProviders {
		switch t.Providers[name].Category {
		case "malware":
			v.IsMalware = true
		case "phishing":
			v.IsPhishing = true
		case "spam":
			v.IsSpam = true
		}
	}
	if !v.IsSafe && !v.IsPhishing {
		// No provider named a category; infer phishing from the classic
		// combination of a dressed-up domain and a credential form.
		v.IsPhishing = c.HasLoginForm || d.Reputation == model.ReputationSuspicious
	}

	switch {
	case v.IsSafe:
		v.Category = "safe"
	case v.IsMalware:
		v.Category = "malware"
	case v.IsPhishing:
		v.Category = "phishing"
	case v.IsSpam:
		v.Category = "spam"
	default:
		v.Category = "suspicious"
	}
	return v
}

func recommendation(status model.ScanStatus) string {
	switch status {
	case model.ScanDanger:
		return "Do not visit this URL. It shows strong indicators of phishing or malware."
	case model.ScanWarning:
		return "Proceed with caution. This URL shows suspicious characteristics."
	default:
		return "No significant threats detected. Standard caution is still advised."
	}
}

func clamp(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
