package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/phishguard/phishguard/internal/config"
	"github.com/phishguard/phishguard/internal/content"
	"github.com/phishguard/phishguard/internal/domainrep"
	"github.com/phishguard/phishguard/internal/engine"
	"github.com/phishguard/phishguard/internal/httpclient"
	"github.com/phishguard/phishguard/internal/intel"
	"github.com/phishguard/phishguard/internal/secprobe"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "phishguard",
	Short: "Score URLs for phishing and malware risk",
	Long:  "phishguard validates a URL and runs domain, transport, content and threat-intelligence analyses concurrently, fusing them into a 0-100 risk score.",
}

func Execute() {
	// Credentials may live in a local .env; a missing file is fine.
	_ = godotenv.Load()

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML config file")
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "[-] Error: %v\n", err)
		os.Exit(1)
	}
}

// buildEngine assembles the scan pipeline from the loaded configuration.
func buildEngine(cfg config.Config) *engine.Engine {
	client := httpclient.New(httpclient.Config{
		Timeout: cfg.Scanner.ContentTimeout,
		Retries: 1,
	})
	domain := domainrep.New(domainrep.Config{
		Resolver:          cfg.Scanner.Resolver,
		Timeout:           cfg.Scanner.DNSTimeout,
		SuspiciousTLDs:    cfg.Heuristics.SuspiciousTLDs,
		SensitiveKeywords: cfg.Heuristics.SensitiveKeywords,
		Allowlist:         cfg.Heuristics.Allowlist,
	})
	security := secprobe.New(cfg.Scanner.ProbeTimeout)
	fetcher := content.New(client, cfg.Scanner.MaxBodyBytes)
	aggregator := intel.NewAggregator(cfg.Scanner.ProviderTimeout, cfg.BuildProviders(client)...)
	return engine.New(domain, security, fetcher, aggregator, cfg.Policy())
}
