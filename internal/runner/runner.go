package runner

import (
	"context"
	"sync"
	"time"

	"github.com/phishguard/phishguard/internal/engine"
	"github.com/phishguard/phishguard/internal/model"
)

// Config holds settings for the runner.
type Config struct {
	Threads   int
	RateLimit int // scans per second, 0 = unlimited
}

// Outcome pairs a target with its scan result or error.
type Outcome struct {
	Target string
	Result *model.ScanResult
	Err    error
}

// Runner coordinates concurrent scans.
type Runner struct {
	cfg    Config
	engine *engine.Engine
}

// New creates a new Runner.
func New(cfg Config, eng *engine.Engine) *Runner {
	if cfg.Threads <= 0 {
		cfg.Threads = 1
	}
	return &Runner{cfg: cfg, engine: eng}
}

// Run scans targets and returns one outcome per target, in input order.
func (r *Runner) Run(ctx context.Context, targets []string) []Outcome {
	out := make([]Outcome, len(targets))
	mu := &sync.Mutex{}
	var (
		rateCh <-chan time.Time
		ticker *time.Ticker
	)
	if r.cfg.RateLimit > 0 {
		ticker = time.NewTicker(time.Second / time.Duration(r.cfg.RateLimit))
		rateCh = ticker.C
		defer ticker.Stop()
	}

	type job struct {
		idx    int
		target string
	}

	jobs := make(chan job)
	wg := sync.WaitGroup{}
	for i := 0; i < r.cfg.Threads; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for jb := range jobs {
				if rateCh != nil {
					select {
					case <-ctx.Done():
						return
					case <-rateCh:
					}
				}
				res, err := r.engine.Scan(ctx, model.ScanRequest{URL: jb.target})
				mu.Lock()
				out[jb.idx] = Outcome{Target: jb.target, Result: res, Err: err}
				mu.Unlock()
			}
		}()
	}

	go func() {
		for i, t := range targets {
			if ctx.Err() != nil {
				break
			}
			jobs <- job{idx: i, target: t}
		}
		close(jobs)
	}()

	wg.Wait()
	return out
}
