package model

import "time"

// ScanRequest is the immutable input to a single scan. LocalScore and
// LocalFactors come from a trusted client that pre-scored the URL on its side.
type ScanRequest struct {
	URL          string   `json:"url"`
	LocalScore   *int     `json:"localScore,omitempty"`
	LocalFactors []string `json:"localFactors,omitempty"`
}

// Reputation buckets a domain after heuristic analysis.
type Reputation string

const (
	ReputationGood       Reputation = "good"
	ReputationUnknown    Reputation = "unknown"
	ReputationSuspicious Reputation = "suspicious"
)

// DomainProfile is the outcome of domain reputation analysis for one scan.
type DomainProfile struct {
	Name       string     `json:"name"`
	Reputation Reputation `json:"reputation"`
	Resolved   bool       `json:"resolved"`
	// Flags lists the heuristic rules that fired, in evaluation order.
	Flags     []string `json:"flags,omitempty"`
	Age       string   `json:"age,omitempty"`
	Registrar string   `json:"registrar,omitempty"`
	Country   string   `json:"country,omitempty"`
}

// CertSummary holds the observational fields pulled from a peer certificate.
type CertSummary struct {
	Subject   string    `json:"subject"`
	Issuer    string    `json:"issuer"`
	NotBefore time.Time `json:"notBefore"`
	NotAfter  time.Time `json:"notAfter"`
}

// SecurityProfile is the outcome of the transport security probe.
type SecurityProfile struct {
	HasHTTPS bool         `json:"hasHttps"`
	HasSSL   bool         `json:"hasSsl"`
	Cert     *CertSummary `json:"cert,omitempty"`
}

// ContentProfile holds lightweight signals extracted from the page body.
// Retrieved is false when the fetch failed or the response was not text;
// in that case every other field is left at its zero value.
type ContentProfile struct {
	Retrieved         bool   `json:"retrieved"`
	Title             string `json:"title,omitempty"`
	HasLoginForm      bool   `json:"hasLoginForm"`
	ExternalLinks     int    `json:"externalLinks"`
	SuspiciousScripts bool   `json:"suspiciousScripts"`
}

// ProviderStatus classifies the outcome of one threat-intelligence lookup.
type ProviderStatus string

const (
	StatusNotConfigured ProviderStatus = "NOT_CONFIGURED"
	StatusOKClean       ProviderStatus = "OK_CLEAN"
	StatusOKFlagged     ProviderStatus = "OK_FLAGGED"
	StatusSubmitted     ProviderStatus = "SUBMITTED"
	StatusProcessing    ProviderStatus = "PROCESSING"
	StatusError         ProviderStatus = "ERROR"
)

// ProviderResult is the normalized outcome of querying a single provider.
type ProviderResult struct {
	ProviderName string         `json:"provider"`
	Status       ProviderStatus `json:"status"`
	// Category is the threat category claimed by a flagging provider:
	// "phishing", "malware" or "spam". Empty unless Status is OK_FLAGGED.
	Category string `json:"category,omitempty"`
	// Evidence carries provider-specific detail (match metadata, job ids,
	// error text) for the audit trail. It never influences scoring.
	Evidence                 map[string]any `json:"evidence,omitempty"`
	ContributesToReportCount bool           `json:"contributesToReportCount"`
}

// ThreatSummary aggregates all per-provider results for one scan.
type ThreatSummary struct {
	FlaggedProviders []string                  `json:"flaggedProviders,omitempty"`
	ReportCount      int                       `json:"reportCount"`
	Providers        map[string]ProviderResult `json:"providers,omitempty"`
}

// ScanStatus is the three-way classification derived from the combined score.
type ScanStatus string

const (
	ScanSafe    ScanStatus = "safe"
	ScanWarning ScanStatus = "warning"
	ScanDanger  ScanStatus = "danger"
)

// Verdict carries the boolean threat-category flags plus a single category
// label for callers that want one word.
type Verdict struct {
	IsSafe     bool   `json:"isSafe"`
	IsPhishing bool   `json:"isPhishing"`
	IsMalware  bool   `json:"isMalware"`
	IsSpam     bool   `json:"isSpam"`
	Category   string `json:"category"`
}

// ScanResult is the final output for a single scanned URL.
type ScanResult struct {
	ID             string          `json:"id"`
	URL            string          `json:"url"`
	Score          int             `json:"score"`
	Confidence     float64         `json:"confidence"`
	Status         ScanStatus      `json:"status"`
	Verdict        Verdict         `json:"verdict"`
	Factors        []string        `json:"factors,omitempty"`
	Recommendation string          `json:"recommendation"`
	Domain         DomainProfile   `json:"domain"`
	Security       SecurityProfile `json:"security"`
	Content        ContentProfile  `json:"content"`
	Threat         ThreatSummary   `json:"threat"`
	ScannedAt      time.Time       `json:"scannedAt"`
	DurationMs     int64           `json:"durationMs"`
}
