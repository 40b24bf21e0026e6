// Package config loads engine configuration from an optional YAML file with
// environment variable overrides for credentials and the listen address.
package config

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/phishguard/phishguard/internal/fuse"
	"github.com/phishguard/phishguard/internal/intel"
	"github.com/phishguard/phishguard/internal/intel/providers"
)

// Config is the root configuration document.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Scanner    ScannerConfig    `yaml:"scanner"`
	Heuristics HeuristicsConfig `yaml:"heuristics"`
	Providers  ProvidersConfig  `yaml:"providers"`
	Scoring    ScoringConfig    `yaml:"scoring"`
}

type ServerConfig struct {
	ListenAddr string `yaml:"listen_addr"`
}

// ScannerConfig bounds the per-analysis network budgets.
type ScannerConfig struct {
	DNSTimeout      time.Duration `yaml:"dns_timeout"`
	ProbeTimeout    time.Duration `yaml:"probe_timeout"`
	ContentTimeout  time.Duration `yaml:"content_timeout"`
	ProviderTimeout time.Duration `yaml:"provider_timeout"`
	MaxBodyBytes    int64         `yaml:"max_body_bytes"`
	Resolver        string        `yaml:"resolver"`
	Threads         int           `yaml:"threads"`
}

// HeuristicsConfig overrides the domain heuristic rule lists. Empty lists
// keep the built-in defaults.
type HeuristicsConfig struct {
	SuspiciousTLDs    []string `yaml:"suspicious_tlds"`
	SensitiveKeywords []string `yaml:"sensitive_keywords"`
	Allowlist         []string `yaml:"allowlist"`
}

// ProvidersConfig holds one credential block per threat-intelligence
// provider. A missing api_key leaves that provider NOT_CONFIGURED.
type ProvidersConfig struct {
	PhishTank    CredentialConfig `yaml:"phishtank"`
	SafeBrowsing CredentialConfig `yaml:"safebrowsing"`
	VirusTotal   CredentialConfig `yaml:"virustotal"`
	URLScan      URLScanConfig    `yaml:"urlscan"`
}

type CredentialConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
}

type URLScanConfig struct {
	APIKey       string        `yaml:"api_key"`
	BaseURL      string        `yaml:"base_url"`
	PollAttempts int           `yaml:"poll_attempts"`
	PollInterval time.Duration `yaml:"poll_interval"`
}

// ScoringConfig optionally overrides the fusion policy constants. Zero
// values keep the defaults.
type ScoringConfig struct {
	DomainSuspicious  int      `yaml:"domain_suspicious"`
	DomainUnknown     int      `yaml:"domain_unknown"`
	NoHTTPS           int      `yaml:"no_https"`
	NoCertificate     int      `yaml:"no_certificate"`
	LoginForm         int      `yaml:"login_form"`
	SuspiciousScripts int      `yaml:"suspicious_scripts"`
	ThreatPerReport   int      `yaml:"threat_per_report"`
	ThreatCap         int      `yaml:"threat_cap"`
	LocalWeight       *float64 `yaml:"local_weight"`
	CloudWeight       *float64 `yaml:"cloud_weight"`
	DangerThreshold   int      `yaml:"danger_threshold"`
	WarningThreshold  int      `yaml:"warning_threshold"`
}

// Load reads the optional YAML file at path and applies environment
// overrides. An empty path skips the file entirely.
func Load(path string) (Config, error) {
	cfg := Config{
		Server: ServerConfig{ListenAddr: ":8080"},
		Scanner: ScannerConfig{
			DNSTimeout:      5 * time.Second,
			ProbeTimeout:    5 * time.Second,
			ContentTimeout:  10 * time.Second,
			ProviderTimeout: 30 * time.Second,
			Threads:         10,
		},
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	overrideStr(&c.Server.ListenAddr, "PHISHGUARD_LISTEN_ADDR")
	overrideStr(&c.Scanner.Resolver, "PHISHGUARD_RESOLVER")
	overrideStr(&c.Providers.PhishTank.APIKey, "PHISHTANK_API_KEY")
	overrideStr(&c.Providers.SafeBrowsing.APIKey, "SAFEBROWSING_API_KEY")
	overrideStr(&c.Providers.VirusTotal.APIKey, "VIRUSTOTAL_API_KEY")
	overrideStr(&c.Providers.URLScan.APIKey, "URLSCAN_API_KEY")
}

func overrideStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// BuildProviders constructs the full provider set against a shared HTTP
// client. Providers without a credential stay in the set and report
// NOT_CONFIGURED.
func (c Config) BuildProviders(client *http.Client) []intel.Provider {
	return []intel.Provider{
		providers.NewPhishTank(providers.PhishTankConfig{
			BaseURL: c.Providers.PhishTank.BaseURL,
			APIKey:  c.Providers.PhishTank.APIKey,
			Client:  client,
		}),
		providers.NewSafeBrowsing(providers.SafeBrowsingConfig{
			BaseURL: c.Providers.SafeBrowsing.BaseURL,
			APIKey:  c.Providers.SafeBrowsing.APIKey,
			Client:  client,
		}),
		providers.NewVirusTotal(providers.VirusTotalConfig{
			BaseURL: c.Providers.VirusTotal.BaseURL,
			APIKey:  c.Providers.VirusTotal.APIKey,
			Client:  client,
		}),
		providers.NewURLScan(providers.URLScanConfig{
			BaseURL:      c.Providers.URLScan.BaseURL,
			APIKey:       c.Providers.URLScan.APIKey,
			Client:       client,
			PollAttempts: c.Providers.URLScan.PollAttempts,
			PollInterval: c.Providers.URLScan.PollInterval,
		}),
	}
}

// Policy applies the scoring overrides on top of the default fusion policy.
func (c Config) Policy() fuse.Policy {
	p := fuse.DefaultPolicy()
	overrideInt(&p.DomainSuspicious, c.Scoring.DomainSuspicious)
	overrideInt(&p.DomainUnknown, c.Scoring.DomainUnknown)
	overrideInt(&p.NoHTTPS, c.Scoring.NoHTTPS)
	overrideInt(&p.NoCertificate, c.Scoring.NoCertificate)
	overrideInt(&p.LoginForm, c.Scoring.LoginForm)
	overrideInt(&p.SuspiciousScripts, c.Scoring.SuspiciousScripts)
	overrideInt(&p.ThreatPerReport, c.Scoring.ThreatPerReport)
	overrideInt(&p.ThreatCap, c.Scoring.ThreatCap)
	overrideInt(&p.DangerThreshold, c.Scoring.DangerThreshold)
	overrideInt(&p.WarningThreshold, c.Scoring.WarningThreshold)
	if c.Scoring.LocalWeight != nil {
		p.LocalWeight = *c.Scoring.LocalWeight
	}
	if c.Scoring.CloudWeight != nil {
		p.CloudWeight = *c.Scoring.CloudWeight
	}
	return p
}

func overrideInt(dst *int, v int) {
	if v != 0 {
		*dst = v
	}
}
