package routing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/upb/llm-content-gateway/internal/observability"
	"github.com/upb/llm-content-gateway/services/providers"
	"github.com/upb/llm-content-gateway/services/retry"
	"go.uber.org/zap"
)

// RateLimiter gates calls to one provider
type RateLimiter interface {
	Acquire(ctx context.Context, id providers.ProviderID) error
}

// Retrier runs an operation under a retry budget and reports the retries spent
type Retrier interface {
	Run(ctx context.Context, name string, cfg retry.Config, op func(ctx context.Context) error) (int, error)
}

// GenerationResult is the text produced by the first successful provider
type GenerationResult struct {
	Content  string `json:"content"`
	Provider string `json:"provider"`
}

// ProviderManager drives sequential failover across the registered providers
type ProviderManager struct {
	registry     *providers.Registry
	limiter      RateLimiter
	retrier      Retrier
	retryConfigs map[providers.ProviderID]retry.Config
	metrics      *observability.Metrics
	logger       *zap.Logger
}

// NewProviderManager creates a manager. retryConfigs may omit providers, which
// then use their catalogue limits. A nil metrics recorder discards measurements.
func NewProviderManager(
	registry *providers.Registry,
	limiter RateLimiter,
	retrier Retrier,
	retryConfigs map[providers.ProviderID]retry.Config,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *ProviderManager {
	if metrics == nil {
		metrics = observability.NewNopMetrics()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProviderManager{
		registry:     registry,
		limiter:      limiter,
		retrier:      retrier,
		retryConfigs: retryConfigs,
		metrics:      metrics,
		logger:       logger,
	}
}

// GenerateWithFallback tries every available provider in ascending priority
// order and returns the first success. Each request starts again from the
// highest-priority provider.
func (m *ProviderManager) GenerateWithFallback(ctx context.Context, prompt, systemInstruction string, cfg *providers.GenerationConfig) (*GenerationResult, error) {
	available := m.registry.Available()
	if len(available) == 0 {
		m.metrics.RecordGeneration(ctx, observability.OutcomeNoProviders)
		return nil, ErrNoProvidersConfigured
	}

	attempts := make([]AttemptError, 0, len(available))

	for _, provider := range available {
		content, err := m.attempt(ctx, provider, prompt, systemInstruction, cfg)
		if err == nil {
			m.metrics.RecordGeneration(ctx, observability.OutcomeSuccess)
			m.logger.Info("content generated",
				zap.String("provider", provider.Name()),
				zap.Int("failed_attempts", len(attempts)),
			)
			return &GenerationResult{Content: content, Provider: provider.Name()}, nil
		}

		attempts = append(attempts, AttemptError{
			Provider:  provider.Name(),
			Message:   err.Error(),
			Retryable: retry.IsRetryable(err),
			err:       err,
		})

		if ctxErr := ctx.Err(); ctxErr != nil {
			m.metrics.RecordGeneration(ctx, observability.OutcomeCancelled)
			return nil, fmt.Errorf("generation cancelled during %s: %w", provider.Name(), ctxErr)
		}

		m.logger.Warn("provider failed, trying next",
			zap.String("provider", provider.Name()),
			zap.Error(err),
		)
	}

	m.metrics.RecordGeneration(ctx, observability.OutcomeAllFailed)
	m.logger.Error("all providers failed", zap.Int("providers", len(attempts)))

	return nil, &AllProvidersFailedError{Attempts: attempts}
}

// attempt runs one provider under its rate limit and retry budget
func (m *ProviderManager) attempt(ctx context.Context, provider providers.Provider, prompt, systemInstruction string, cfg *providers.GenerationConfig) (string, error) {
	start := time.Now()

	if err := m.limiter.Acquire(ctx, provider.ID()); err != nil {
		m.metrics.RecordAttempt(ctx, provider.Name(), observability.OutcomeRateLimited, time.Since(start))
		return "", err
	}

	m.logger.Debug("trying provider",
		zap.String("provider", provider.Name()),
		zap.Int("priority", provider.Priority()),
	)

	var content string
	retries, err := m.retrier.Run(ctx, provider.Name(), m.retryConfig(provider.ID()), func(ctx context.Context) error {
		text, genErr := provider.Generate(ctx, prompt, systemInstruction, cfg)
		if genErr != nil {
			return genErr
		}
		content = text
		return nil
	})

	m.metrics.RecordRetries(ctx, provider.Name(), retries)
	outcome := observability.OutcomeSuccess
	if err != nil {
		outcome = observability.OutcomeFailure
	}
	m.metrics.RecordAttempt(ctx, provider.Name(), outcome, time.Since(start))

	return content, err
}

func (m *ProviderManager) retryConfig(id providers.ProviderID) retry.Config {
	if cfg, ok := m.retryConfigs[id]; ok {
		return cfg
	}
	if d, ok := providers.Lookup(id); ok {
		return retry.Config{
			MaxRetries:   d.Limits.MaxRetries,
			InitialDelay: d.Limits.InitialDelay,
			MaxDelay:     d.Limits.MaxDelay,
		}
	}
	return retry.Config{}
}

// AvailableProviders returns the names of configured providers in priority order
func (m *ProviderManager) AvailableProviders() []string {
	available := m.registry.Available()
	names := make([]string, len(available))
	for i, p := range available {
		names[i] = p.Name()
	}
	return names
}

// CheckProviderHealth probes every registered provider sequentially.
// Unconfigured providers report false without any network call.
func (m *ProviderManager) CheckProviderHealth(ctx context.Context) map[string]bool {
	all := m.registry.All()
	health := make(map[string]bool, len(all))
	for _, p := range all {
		if !p.IsAvailable() {
			health[p.Name()] = false
			continue
		}
		health[p.Name()] = p.HealthCheck(ctx)
	}
	return health
}

// Limiter exposes the rate limiter for diagnostics
func (m *ProviderManager) Limiter() RateLimiter { return m.limiter }

// IsNoProviders reports whether err means nothing is configured
func IsNoProviders(err error) bool { return errors.Is(err, ErrNoProvidersConfigured) }

// IsAllFailed reports whether err is an aggregate failover error
func IsAllFailed(err error) bool {
	var allErr *AllProvidersFailedError
	return errors.As(err, &allErr)
}
