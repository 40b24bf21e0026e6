// Package output renders scan results for the terminal and for files.
package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/phishguard/phishguard/internal/model"
)

// Printer writes a human readable scan report.
type Printer struct {
	w io.Writer
}

// NewPrinter returns a Printer writing to w.
func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w}
}

var (
	statusColors = map[model.ScanStatus]*color.Color{
		model.ScanSafe:    color.New(color.FgGreen, color.Bold),
		model.ScanWarning: color.New(color.FgYellow, color.Bold),
		model.ScanDanger:  color.New(color.FgRed, color.Bold),
	}
	dim  = color.New(color.FgHiBlack)
	cyan = color.New(color.FgCyan)
)

// Print renders one scan result.
func (p *Printer) Print(res *model.ScanResult) {
	fmt.Fprintf(p.w, "\n[+] Scanned: %s\n", res.URL)

	c, ok := statusColors[res.Status]
	if !ok {
		c = dim
	}
	fmt.Fprintf(p.w, "    Verdict: %s  (score %d/100, confidence %.2f)\n",
		c.Sprint(strings.ToUpper(string(res.Status))), res.Score, res.Confidence)
	if res.Verdict.Category != "" && !res.Verdict.IsSafe {
		fmt.Fprintf(p.w, "    Category: %s\n", res.Verdict.Category)
	}

	if len(res.Factors) > 0 {
		fmt.Fprintln(p.w, "    Risk factors:")
		for _, f := range res.Factors {
			fmt.Fprintf(p.w, "      - %s\n", f)
		}
	}

	fmt.Fprintf(p.w, "    Domain: %s (%s)\n", res.Domain.Name, res.Domain.Reputation)
	if res.Security.HasHTTPS && res.Security.Cert != nil {
		_, _ = cyan.Fprintf(p.w, "    Certificate: %s, expires %s\n",
			res.Security.Cert.Issuer, res.Security.Cert.NotAfter.Format("2006-01-02"))
	}
	for _, name := range res.Threat.FlaggedProviders {
		fmt.Fprintf(p.w, "    Flagged by: %s\n", name)
	}

	fmt.Fprintf(p.w, "    %s\n", res.Recommendation)
	_, _ = dim.Fprintf(p.w, "    scan %s finished in %dms\n", res.ID, res.DurationMs)
}

// PrintError reports a failed target in the same layout as Print.
func (p *Printer) PrintError(target string, err error) {
	fmt.Fprintf(p.w, "\n[+] Scanned: %s\n", target)
	red := color.New(color.FgRed)
	_, _ = red.Fprintf(p.w, "    [!] %v\n", err)
}
