// Package secprobe inspects a URL's transport security. The probe is
// diagnostic: it records what certificate the peer presents without
// enforcing hostname or chain trust.
package secprobe

import (
	"context"
	"crypto/tls"
	"net"
	"net/url"
	"time"

	"github.com/phishguard/phishguard/internal/model"
)

const defaultTimeout = 5 * time.Second

// Prober retrieves TLS certificate metadata for https URLs.
type Prober struct {
	Timeout time.Duration
}

// New returns a Prober with the given dial timeout (0 means the default 5s).
func New(timeout time.Duration) *Prober {
	if timeout == 0 {
		timeout = defaultTimeout
	}
	return &Prober{Timeout: timeout}
}

// Probe short-circuits for plain http. For https it dials the host with a
// bounded timeout and summarizes the peer certificate; any dial or timeout
// error degrades to HasSSL=false without failing the scan.
func (p *Prober) Probe(ctx context.Context, u *url.URL) model.SecurityProfile {
	if u.Scheme != "https" {
		return model.SecurityProfile{}
	}
	profile := model.SecurityProfile{HasHTTPS: true}

	ctx, cancel := context.WithTimeout(ctx, p.Timeout)
	defer cancel()

	port := u.Port()
	if port == "" {
		port = "443"
	}
	dialer := &tls.Dialer{
		NetDialer: &net.Dialer{Timeout: p.Timeout},
		Config: &tls.Config{
			// Observational probe: record the cert even when the chain
			// or hostname would fail verification.
			InsecureSkipVerify: true,
			ServerName:         u.Hostname(),
		},
	}
	conn, err := dialer.DialContext(ctx, "tcp", net.JoinHostPort(u.Hostname(), port))
	if err != nil {
		return profile
	}
	defer conn.Close()

	state := conn.(*tls.Conn).ConnectionState()
	if len(state.PeerCertificates) == 0 {
		return profile
	}
	cert := state.PeerCertificates[0]
	profile.HasSSL = true
	profile.Cert = &model.CertSummary{
		Subject:   cert.Subject.String(),
		Issuer:    cert.Issuer.String(),
		NotBefore: cert.NotBefore,
		NotAfter:  cert.NotAfter,
	}
	return profile
}
