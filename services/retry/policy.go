package retry

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

// MaxJitter bounds the random component added to every backoff delay
const MaxJitter = time.Second

// Config is the per-provider retry budget
type Config struct {
	MaxRetries   int
	InitialDelay time.Duration
	MaxDelay     time.Duration
}

// Backoff yields min(initial*2^attempt + jitter, max) for attempt = 0, 1, ...
type Backoff struct {
	Initial time.Duration
	Max     time.Duration
	Jitter  func() time.Duration

	attempt int
}

// NextBackOff implements backoff.BackOff
func (b *Backoff) NextBackOff() time.Duration {
	delay := b.Initial << b.attempt
	if delay < b.Initial {
		// shifted past int64
		delay = b.Max
	}
	if b.Jitter != nil {
		delay += b.Jitter()
	}
	if b.Max > 0 && delay > b.Max {
		delay = b.Max
	}
	b.attempt++
	return delay
}

// Reset implements backoff.BackOff
func (b *Backoff) Reset() { b.attempt = 0 }

// Policy runs an operation with exponential backoff for retryable failures
type Policy struct {
	logger   *zap.Logger
	jitter   func() time.Duration
	newTimer func() backoff.Timer
}

// Option configures a Policy
type Option func(*Policy)

// WithJitter replaces the random jitter source
func WithJitter(fn func() time.Duration) Option {
	return func(p *Policy) { p.jitter = fn }
}

// WithTimer replaces the timer used to wait between attempts
func WithTimer(fn func() backoff.Timer) Option {
	return func(p *Policy) { p.newTimer = fn }
}

// NewPolicy creates a retry policy
func NewPolicy(logger *zap.Logger, opts ...Option) *Policy {
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &Policy{
		logger: logger,
		jitter: func() time.Duration { return rand.N(MaxJitter) },
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run invokes op until it succeeds, fails with a non-retryable error, or
// cfg.MaxRetries retries are spent. The last error is returned unchanged.
// The returned count is the number of retries performed.
func (p *Policy) Run(ctx context.Context, name string, cfg Config, op func(ctx context.Context) error) (int, error) {
	maxRetries := cfg.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}

	b := backoff.WithContext(
		backoff.WithMaxRetries(&Backoff{Initial: cfg.InitialDelay, Max: cfg.MaxDelay, Jitter: p.jitter}, uint64(maxRetries)),
		ctx,
	)

	retries := 0
	operation := func() error {
		err := op(ctx)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil || !IsRetryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}
	notify := func(err error, delay time.Duration) {
		retries++
		p.logger.Warn("retrying provider call",
			zap.String("provider", name),
			zap.Int("attempt", retries),
			zap.Int("max_retries", maxRetries),
			zap.Duration("delay", delay),
			zap.Error(err),
		)
	}

	var timer backoff.Timer
	if p.newTimer != nil {
		timer = p.newTimer()
	}

	err := backoff.RetryNotifyWithTimer(operation, b, notify, timer)
	return retries, err
}
