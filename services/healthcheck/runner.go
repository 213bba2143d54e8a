// Package healthcheck verifies a deployment end to end: credentials, provider
// reachability, a real generation through the failover chain, rate limiting
// and the optional database.
package healthcheck

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/upb/llm-content-gateway/config"
	"github.com/upb/llm-content-gateway/services/providers"
	"github.com/upb/llm-content-gateway/services/retry"
	"github.com/upb/llm-content-gateway/services/routing"
	"go.uber.org/zap"
)

// Status is the outcome of one check
type Status string

const (
	StatusPass    Status = "pass"
	StatusWarning Status = "warning"
	StatusFail    Status = "fail"
)

const (
	probePrompt     = `Say "OK" if you can read this.`
	limiterAcquires = 3
)

// Result is one line of the health report
type Result struct {
	Check   string         `json:"check"`
	Status  Status         `json:"status"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// Generator is the slice of the provider manager the checks exercise
type Generator interface {
	AvailableProviders() []string
	CheckProviderHealth(ctx context.Context) map[string]bool
	GenerateWithFallback(ctx context.Context, prompt, systemInstruction string, cfg *providers.GenerationConfig) (*routing.GenerationResult, error)
}

// RateLimiter grants request slots per provider
type RateLimiter interface {
	Acquire(ctx context.Context, id providers.ProviderID) error
}

// DatabaseChecker pings the persistence store
type DatabaseChecker interface {
	HealthCheck(ctx context.Context) error
}

// Options wires the runner. Database is nil when persistence is disabled.
type Options struct {
	Providers config.ProvidersConfig
	Generator Generator
	Limiter   RateLimiter
	Database  DatabaseChecker
	Now       func() time.Time
}

// Runner executes the checks in order
type Runner struct {
	opts   Options
	logger *zap.Logger
}

// NewRunner creates a new Runner
func NewRunner(opts Options, logger *zap.Logger) *Runner {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{opts: opts, logger: logger}
}

// Run executes every check and returns the results in report order
func (r *Runner) Run(ctx context.Context) []Result {
	var results []Result
	results = append(results, r.checkEnvironment()...)
	results = append(results, r.checkProviderHealth(ctx)...)
	results = append(results, r.checkGeneration(ctx))
	results = append(results, r.checkRateLimiter(ctx))
	if r.opts.Database != nil {
		results = append(results, r.checkDatabase(ctx))
	}
	return results
}

func (r *Runner) checkEnvironment() []Result {
	var results []Result
	configured := 0

	for _, d := range providers.Catalog() {
		envVar := d.CredentialEnv[0]
		if r.opts.Providers[d.ID].Configured() {
			configured++
			results = append(results, Result{
				Check:   "Environment",
				Status:  StatusPass,
				Message: fmt.Sprintf("%s credential is configured", d.Name),
				Details: map[string]any{"env": envVar},
			})
			continue
		}
		results = append(results, Result{
			Check:   "Environment",
			Status:  StatusWarning,
			Message: fmt.Sprintf("%s credential is missing (set %s)", d.Name, envVar),
			Details: map[string]any{"env": envVar},
		})
	}

	if configured == 0 {
		results = append(results, Result{
			Check:   "Environment",
			Status:  StatusFail,
			Message: "No AI provider credentials configured",
		})
	}

	if r.opts.Database == nil {
		results = append(results, Result{
			Check:   "Environment",
			Status:  StatusWarning,
			Message: "DATABASE_URL / DB_HOST not set; generated results will not be saved",
		})
	}
	return results
}

func (r *Runner) checkProviderHealth(ctx context.Context) []Result {
	available := r.opts.Generator.AvailableProviders()
	if len(available) == 0 {
		return nil
	}

	health := r.opts.Generator.CheckProviderHealth(ctx)
	results := make([]Result, 0, len(available))
	for _, name := range available {
		if health[name] {
			results = append(results, Result{Check: "Provider " + name, Status: StatusPass, Message: "reachable"})
			continue
		}
		r.logger.Warn("provider health check failed", zap.String("provider", name))
		results = append(results, Result{Check: "Provider " + name, Status: StatusFail, Message: "health check failed"})
	}
	return results
}

func (r *Runner) checkGeneration(ctx context.Context) Result {
	const check = "Generation"

	start := r.opts.Now()
	res, err := r.opts.Generator.GenerateWithFallback(ctx, probePrompt, "", &providers.GenerationConfig{
		Temperature:     providers.Float64(0),
		MaxOutputTokens: providers.Int(10),
	})
	elapsed := r.opts.Now().Sub(start)

	if err != nil {
		details := map[string]any{"error": err.Error()}
		switch classifyFailure(err) {
		case failureOverloaded:
			return Result{Check: check, Status: StatusWarning, Message: "providers are overloaded (temporary issue)", Details: details}
		case failureRateLimited:
			return Result{Check: check, Status: StatusWarning, Message: "rate limit exceeded", Details: details}
		default:
			return Result{Check: check, Status: StatusFail, Message: "generation failed", Details: details}
		}
	}

	details := map[string]any{
		"provider":   res.Provider,
		"latency_ms": elapsed.Milliseconds(),
	}
	if !strings.Contains(strings.ToLower(res.Content), "ok") {
		details["response"] = res.Content
		return Result{Check: check, Status: StatusWarning, Message: "responded with unexpected content", Details: details}
	}

	return Result{
		Check:   check,
		Status:  StatusPass,
		Message: fmt.Sprintf("%s responded in %dms (%s)", res.Provider, elapsed.Milliseconds(), gradeLatency(elapsed)),
		Details: details,
	}
}

type failureKind int

const (
	failureOther failureKind = iota
	failureOverloaded
	failureRateLimited
)

// classifyFailure treats an aggregate failure as temporary only when every
// provider attempt was overloaded or rate limited
func classifyFailure(err error) failureKind {
	var all *routing.AllProvidersFailedError
	if !errors.As(err, &all) || len(all.Attempts) == 0 {
		return classifyOne(err)
	}

	kind := failureRateLimited
	for _, attempt := range all.Attempts {
		switch classifyOne(attempt) {
		case failureOther:
			return failureOther
		case failureOverloaded:
			kind = failureOverloaded
		}
	}
	return kind
}

func classifyOne(err error) failureKind {
	switch {
	case retry.IsOverloaded(err):
		return failureOverloaded
	case retry.IsRateLimited(err):
		return failureRateLimited
	default:
		return failureOther
	}
}

func gradeLatency(d time.Duration) string {
	switch {
	case d < 2*time.Second:
		return "excellent"
	case d < 5*time.Second:
		return "acceptable"
	default:
		return "slow"
	}
}

func (r *Runner) checkRateLimiter(ctx context.Context) Result {
	const check = "Rate limiter"

	configured := r.opts.Providers.Configured()
	if len(configured) == 0 || r.opts.Limiter == nil {
		return Result{Check: check, Status: StatusWarning, Message: "skipped: no configured provider"}
	}
	id := configured[0]

	var total time.Duration
	for i := 0; i < limiterAcquires; i++ {
		start := r.opts.Now()
		if err := r.opts.Limiter.Acquire(ctx, id); err != nil {
			return Result{Check: check, Status: StatusFail, Message: "acquire failed", Details: map[string]any{"error": err.Error()}}
		}
		total += r.opts.Now().Sub(start)
	}
	avg := total / limiterAcquires

	return Result{
		Check:   check,
		Status:  StatusPass,
		Message: fmt.Sprintf("%d acquires on %s, average wait %s", limiterAcquires, providers.MustLookup(id).Name, avg.Round(time.Millisecond)),
		Details: map[string]any{"provider": string(id), "avg_wait_ms": avg.Milliseconds()},
	}
}

func (r *Runner) checkDatabase(ctx context.Context) Result {
	if err := r.opts.Database.HealthCheck(ctx); err != nil {
		return Result{Check: "Database", Status: StatusFail, Message: "unreachable", Details: map[string]any{"error": err.Error()}}
	}
	return Result{Check: "Database", Status: StatusPass, Message: "reachable"}
}
