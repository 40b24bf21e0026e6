// Package domainrep scores a hostname against heuristic reputation rules.
package domainrep

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/miekg/dns"
	"golang.org/x/net/publicsuffix"

	"github.com/phishguard/phishguard/internal/model"
)

const defaultTimeout = 5 * time.Second

// DefaultSuspiciousTLDs lists top-level domains with a high abuse rate.
var DefaultSuspiciousTLDs = []string{
	"tk", "ml", "ga", "cf", "gq", "xyz", "top", "click", "link", "work", "buzz", "rest",
}

// DefaultSensitiveKeywords are brand-impersonation terms matched against the
// hostname of non-allowlisted domains.
var DefaultSensitiveKeywords = []string{
	"login", "signin", "verify", "secure", "account", "banking",
	"update", "confirm", "wallet", "password", "paypal", "appleid",
}

// DefaultAllowlist holds registrable domains whose own subdomains may
// legitimately contain sensitive keywords (accounts.google.com and the like).
var DefaultAllowlist = []string{
	"google.com", "microsoft.com", "apple.com", "paypal.com",
	"amazon.com", "facebook.com", "github.com", "live.com",
}

// Config controls resolution and the heuristic rule lists.
type Config struct {
	// Resolver is a "host:port" DNS server address. Empty selects the
	// system resolver from /etc/resolv.conf.
	Resolver          string
	Timeout           time.Duration
	SuspiciousTLDs    []string
	SensitiveKeywords []string
	Allowlist         []string
}

// Analyzer resolves a host and applies the ordered heuristic checks.
type Analyzer struct {
	cfg    Config
	client *dns.Client
}

// New returns an Analyzer, filling unset config fields with the defaults.
func New(cfg Config) *Analyzer {
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.SuspiciousTLDs == nil {
		cfg.SuspiciousTLDs = DefaultSuspiciousTLDs
	}
	if cfg.SensitiveKeywords == nil {
		cfg.SensitiveKeywords = DefaultSensitiveKeywords
	}
	if cfg.Allowlist == nil {
		cfg.Allowlist = DefaultAllowlist
	}
	return &Analyzer{
		cfg:    cfg,
		client: &dns.Client{Timeout: cfg.Timeout},
	}
}

// Analyze resolves the URL's host and runs the heuristics. Resolution failure
// downgrades the reputation but never returns an error.
func (a *Analyzer) Analyze(ctx context.Context, u *url.URL) model.DomainProfile {
	host := u.Hostname()
	profile := model.DomainProfile{Name: host}

	profile.Resolved = a.resolves(ctx, host)
	profile.Flags = a.heuristics(host)

	switch {
	case len(profile.Flags) > 0:
		profile.Reputation = model.ReputationSuspicious
	case profile.Resolved:
		profile.Reputation = model.ReputationGood
	default:
		profile.Reputation = model.ReputationUnknown
	}
	return profile
}

// resolves attempts an A lookup, then AAAA. An IP-literal host is trivially
// resolved.
func (a *Analyzer) resolves(ctx context.Context, host string) bool {
	if net.ParseIP(host) != nil {
		return true
	}
	server := a.server()
	for _, qtype := range []uint16{dns.TypeA, dns.TypeAAAA} {
		msg := new(dns.Msg)
		msg.SetQuestion(dns.Fqdn(host), qtype)
		msg.RecursionDesired = true

		resp, _, err := a.client.ExchangeContext(ctx, msg, server)
		if err != nil {
			continue
		}
		if resp.Rcode == dns.RcodeSuccess && len(resp.Answer) > 0 {
			return true
		}
	}
	return false
}

func (a *Analyzer) server() string {
	if a.cfg.Resolver != "" {
		return a.cfg.Resolver
	}
	if conf, err := dns.ClientConfigFromFile("/etc/resolv.conf"); err == nil && len(conf.Servers) > 0 {
		return net.JoinHostPort(conf.Servers[0], conf.Port)
	}
	return "8.8.8.8:53"
}

// heuristics runs the ordered rule set and returns a description per fired
// rule. Order: suspicious TLD, IP-literal host, subdomain depth, sensitive
// keyword in hostname.
func (a *Analyzer) heuristics(host string) []string {
	host = strings.ToLower(host)
	var flags []string

	for _, tld := range a.cfg.SuspiciousTLDs {
		if strings.HasSuffix(host, "."+tld) {
			flags = append(flags, fmt.Sprintf("suspicious TLD .%s", tld))
			break
		}
	}

	if net.ParseIP(host) != nil {
		flags = append(flags, "host is an IP address")
		return flags // remaining rules are hostname-shaped
	}

	if labels := strings.Split(host, "."); len(labels) > 4 {
		flags = append(flags, fmt.Sprintf("excessive subdomain depth (%d labels)", len(labels)))
	}

	if !a.allowlisted(host) {
		for _, kw := range a.cfg.SensitiveKeywords {
			if strings.Contains(host, kw) {
				flags = append(flags, fmt.Sprintf("sensitive keyword %q in hostname", kw))
				break
			}
		}
	}
	return flags
}

// allowlisted reports whether the host's registrable domain is exempt from
// keyword matching.
func (a *Analyzer) allowlisted(host string) bool {
	registrable, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		registrable = host
	}
	for _, entry := range a.cfg.Allowlist {
		if registrable == strings.ToLower(entry) {
			return true
		}
	}
	return false
}
