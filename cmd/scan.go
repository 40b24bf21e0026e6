package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/phishguard/phishguard/internal/banner"
	"github.com/phishguard/phishguard/internal/config"
	"github.com/phishguard/phishguard/internal/model"
	"github.com/phishguard/phishguard/internal/output"
	"github.com/phishguard/phishguard/internal/runner"
)

var (
	inputFile  string
	localScore int
	jsonlPath  string
	threads    int
	rateLimit  int
	silent     bool
)

var scanCmd = &cobra.Command{
	Use:   "scan [url]",
	Short: "Scan one URL, or a file of URLs with -f",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if !silent {
			banner.PrintBanner()
		}

		var localPtr *int
		if cmd.Flags().Changed("local-score") {
			localPtr = &localScore
		}

		switch {
		case inputFile != "":
			if len(args) > 0 {
				return errors.New("provide either a URL argument or -f, not both")
			}
			return scanFile(cmd.Context(), cfg, inputFile)
		case len(args) == 1:
			return scanOne(cmd.Context(), cfg, args[0], localPtr)
		default:
			return errors.New("provide a URL argument or an input file with -f")
		}
	},
}

func init() {
	scanCmd.Flags().StringVarP(&inputFile, "file", "f", "", "File with one URL per line")
	scanCmd.Flags().IntVar(&localScore, "local-score", 0, "Client-side heuristic score (0-100) to blend in")
	scanCmd.Flags().StringVarP(&jsonlPath, "output", "o", "", "JSONL output file")
	scanCmd.Flags().IntVarP(&threads, "threads", "t", 0, "Concurrent scans for file mode (default from config)")
	scanCmd.Flags().IntVar(&rateLimit, "rl", 0, "Global rate limit (scans per second)")
	scanCmd.Flags().BoolVar(&silent, "silent", false, "Suppress the banner")
	rootCmd.AddCommand(scanCmd)
}

func scanOne(ctx context.Context, cfg config.Config, target string, localPtr *int) error {
	eng := buildEngine(cfg)
	res, err := eng.Scan(ctx, model.ScanRequest{URL: target, LocalScore: localPtr})
	if err != nil {
		return err
	}
	output.NewPrinter(os.Stdout).Print(res)
	if jsonlPath != "" {
		return writeJSONL([]runner.Outcome{{Target: target, Result: res}})
	}
	return nil
}

func scanFile(ctx context.Context, cfg config.Config, path string) error {
	targets, err := readTargets(path)
	if err != nil {
		return err
	}
	if len(targets) == 0 {
		return fmt.Errorf("no targets in %s", path)
	}

	n := threads
	if n <= 0 {
		n = cfg.Scanner.Threads
	}
	r := runner.New(runner.Config{Threads: n, RateLimit: rateLimit}, buildEngine(cfg))
	outcomes := r.Run(ctx, targets)

	printer := output.NewPrinter(os.Stdout)
	failed := 0
	for _, oc := range outcomes {
		if oc.Err != nil {
			printer.PrintError(oc.Target, oc.Err)
			failed++
			continue
		}
		printer.Print(oc.Result)
	}
	if jsonlPath != "" {
		if err := writeJSONL(outcomes); err != nil {
			return err
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d targets failed", failed, len(outcomes))
	}
	return nil
}

func readTargets(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var targets []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		targets = append(targets, line)
	}
	return targets, sc.Err()
}

func writeJSONL(outcomes []runner.Outcome) error {
	f, err := os.Create(jsonlPath)
	if err != nil {
		return err
	}
	defer f.Close()

	w := output.NewJSONLWriter(f)
	for _, oc := range outcomes {
		if oc.Result == nil {
			continue
		}
		if err := w.Write(oc.Result); err != nil {
			return err
		}
	}
	return w.Close()
}
