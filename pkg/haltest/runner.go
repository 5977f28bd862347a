package haltest

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/bft-labs/halport/pkg/log"
)

// DefaultCaseTimeout bounds a single case run by Runner.
const DefaultCaseTimeout = 30 * time.Second

// Result is the outcome of one case.
type Result struct {
	Name     string
	Passed   bool
	Messages []string
	Duration time.Duration
}

// Runner runs the suite outside go test.
type Runner struct {
	// NewTarget creates a fresh target per case.
	NewTarget func() (*Target, error)

	// Filter selects cases whose name contains it. Empty runs all.
	Filter string

	// CaseTimeout bounds each case. Default: DefaultCaseTimeout
	CaseTimeout time.Duration

	Logger log.Logger
}

// Run executes the selected cases in order and returns their results.
func (r *Runner) Run(ctx context.Context) []Result {
	logger := log.Component(r.Logger, "haltest")
	timeout := r.CaseTimeout
	if timeout <= 0 {
		timeout = DefaultCaseTimeout
	}

	var results []Result
	for _, c := range Cases() {
		if r.Filter != "" && !strings.Contains(c.Name, r.Filter) {
			continue
		}
		if ctx.Err() != nil {
			break
		}
		res := r.runCase(ctx, c, timeout)
		if res.Passed {
			logger.Info("case passed", log.String("case", c.Name), log.Duration("took", res.Duration))
		} else {
			logger.Error("case failed",
				log.String("case", c.Name),
				log.String("messages", strings.Join(res.Messages, "; ")),
			)
		}
		results = append(results, res)
	}
	return results
}

func (r *Runner) runCase(ctx context.Context, c Case, timeout time.Duration) Result {
	start := time.Now()
	res := Result{Name: c.Name}

	tg, err := r.NewTarget()
	if err != nil {
		res.Messages = []string{fmt.Sprintf("create target: %v", err)}
		res.Duration = time.Since(start)
		return res
	}

	rec := &recorder{}
	done := make(chan struct{})
	go func() {
		defer close(done)
		defer func() {
			if v := recover(); v != nil {
				rec.Errorf("panic: %v", v)
			}
		}()
		c.Run(rec, tg)
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-done:
		if tg.Close != nil {
			tg.Close()
		}
	case <-timer.C:
		// The case goroutine is abandoned with its target.
		rec.Errorf("timed out after %s", timeout)
	case <-ctx.Done():
		rec.Errorf("cancelled: %v", ctx.Err())
	}

	res.Passed, res.Messages = rec.result()
	res.Duration = time.Since(start)
	return res
}

// Passed reports whether every result passed.
func Passed(results []Result) bool {
	for _, r := range results {
		if !r.Passed {
			return false
		}
	}
	return true
}

// recorder implements T for Runner. FailNow ends the case goroutine.
type recorder struct {
	mu     sync.Mutex
	failed bool
	msgs   []string
}

func (r *recorder) Helper() {}

func (r *recorder) Errorf(format string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failed = true
	r.msgs = append(r.msgs, strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (r *recorder) Logf(format string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, fmt.Sprintf(format, args...))
}

func (r *recorder) FailNow() {
	r.mu.Lock()
	r.failed = true
	r.mu.Unlock()
	runtime.Goexit()
}

func (r *recorder) result() (bool, []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return !r.failed, append([]string(nil), r.msgs...)
}
