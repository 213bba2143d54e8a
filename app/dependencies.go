package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/upb/llm-content-gateway/config"
	"github.com/upb/llm-content-gateway/identity"
	"github.com/upb/llm-content-gateway/internal/observability"
	"github.com/upb/llm-content-gateway/middleware"
	"github.com/upb/llm-content-gateway/repositories/postgres"
	"github.com/upb/llm-content-gateway/services/content"
	"github.com/upb/llm-content-gateway/services/history"
	"github.com/upb/llm-content-gateway/services/providers"
	"github.com/upb/llm-content-gateway/services/providers/gemini"
	"github.com/upb/llm-content-gateway/services/providers/huggingface"
	"github.com/upb/llm-content-gateway/services/providers/openaicompat"
	"github.com/upb/llm-content-gateway/services/ratelimit"
	"github.com/upb/llm-content-gateway/services/retry"
	"github.com/upb/llm-content-gateway/services/routing"
	"go.opentelemetry.io/otel"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/zap"
)

// Dependencies holds all application dependencies.
// This is the central wiring point for dependency injection.
type Dependencies struct {
	// Infrastructure
	Config *config.Config
	DB     *postgres.DB // nil when persistence is disabled
	Logger *zap.Logger

	RepoFactory *postgres.RepositoryFactory

	// Failover core
	Registry *providers.Registry
	Limiter  *ratelimit.Limiter
	Retrier  *retry.Policy
	Manager  *routing.ProviderManager

	// Services
	Content *content.Service
	History *history.Service // nil when persistence is disabled

	// Observability
	Metrics       *observability.Metrics
	MetricsReader *sdkmetric.ManualReader // nil when metrics are disabled
	meterProvider *sdkmetric.MeterProvider

	AuthMiddleware *middleware.AuthMiddleware
}

// NewDependencies creates and wires up all application dependencies.
func NewDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}

	if err := deps.initDatabase(ctx, cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if err := deps.initMetrics(cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize metrics: %w", err)
	}

	if err := deps.initProviders(cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize providers: %w", err)
	}

	deps.initServices(cfg)
	deps.initAuth(cfg)

	logger.Info("all dependencies initialized successfully",
		zap.Strings("providers", deps.Manager.AvailableProviders()),
		zap.Bool("persistence", deps.DB != nil))
	return deps, nil
}

// initDatabase connects to PostgreSQL when a database is configured
func (d *Dependencies) initDatabase(ctx context.Context, cfg *config.Config) error {
	if !cfg.PersistenceEnabled() {
		d.Logger.Warn("no database configured, generated results will not be persisted")
		return nil
	}

	factory, err := postgres.NewRepositoryFactory(ctx, cfg.Database, d.Logger)
	if err != nil {
		return fmt.Errorf("failed to create repository factory: %w", err)
	}

	if err := factory.GetDB().InitSchema(ctx); err != nil {
		_ = factory.Close()
		return err
	}

	d.RepoFactory = factory
	d.DB = factory.GetDB()

	d.Logger.Info("database connection established",
		zap.String("connection", cfg.Database.LogString()))
	return nil
}

// initMetrics installs an SDK meter provider backed by a manual reader, or
// no-op instruments when metrics are disabled.
func (d *Dependencies) initMetrics(cfg *config.Config) error {
	if !cfg.Observability.MetricsEnabled {
		d.Metrics = observability.NewNopMetrics()
		return nil
	}

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(mp)

	metrics, err := observability.NewMetrics(mp)
	if err != nil {
		return err
	}

	d.Metrics = metrics
	d.MetricsReader = reader
	d.meterProvider = mp
	return nil
}

// initProviders builds the adapters, limiter, retry policy and failover manager
func (d *Dependencies) initProviders(cfg *config.Config) error {
	registry, err := BuildRegistry(cfg.Providers)
	if err != nil {
		return err
	}

	rpm := make(map[providers.ProviderID]int, len(cfg.Providers))
	retryConfigs := make(map[providers.ProviderID]retry.Config, len(cfg.Providers))
	for id, settings := range cfg.Providers {
		rpm[id] = settings.RequestsPerMinute
		retryConfigs[id] = retry.Config{
			MaxRetries:   settings.MaxRetries,
			InitialDelay: settings.RetryDelay,
			MaxDelay:     settings.MaxRetryDelay,
		}
	}

	d.Registry = registry
	d.Limiter = ratelimit.NewLimiter(rpm, d.Logger.Named("ratelimit"))
	d.Retrier = retry.NewPolicy(d.Logger.Named("retry"))
	d.Manager = routing.NewProviderManager(registry, d.Limiter, d.Retrier, retryConfigs, d.Metrics, d.Logger.Named("routing"))

	if len(registry.Available()) == 0 {
		d.Logger.Warn("no AI providers configured")
	}
	return nil
}

func (d *Dependencies) initServices(cfg *config.Config) {
	d.Content = content.NewService(d.Manager, content.Config{
		ChunkInterval: cfg.Content.StreamChunkInterval,
	}, d.Logger.Named("content"))

	if d.RepoFactory != nil {
		d.History = history.NewService(d.RepoFactory.NewRepositories(), d.RepoFactory.GetTransactionManager(), d.Logger.Named("history"))
	}
}

func (d *Dependencies) initAuth(cfg *config.Config) {
	if cfg.Auth.JWTSecret == "" {
		d.Logger.Warn("no JWT secret configured, authenticated endpoints will reject every request")
		d.AuthMiddleware = middleware.NewAuthMiddleware(rejectAllValidator{}, d.Logger)
		return
	}

	validator := identity.NewValidator(identity.Config{
		Secret:   cfg.Auth.JWTSecret,
		Issuer:   cfg.Auth.Issuer,
		Audience: cfg.Auth.Audience,
	})
	d.AuthMiddleware = middleware.NewAuthMiddleware(validator, d.Logger)
}

// BuildRegistry creates every catalogue adapter from its settings. Providers
// without a credential are still registered so health reports can list them.
func BuildRegistry(settings config.ProvidersConfig) (*providers.Registry, error) {
	configs := make(map[providers.ProviderID]providers.ProviderConfig, len(settings))
	for id, s := range settings {
		configs[id] = providers.ProviderConfig{
			APIKey:  s.APIKey,
			BaseURL: s.BaseURL,
			Model:   s.Model,
			Timeout: s.Timeout,
		}
	}

	return providers.NewRegistryBuilder().
		WithProviderBuilder(providers.Gemini, func(c providers.ProviderConfig) (providers.Provider, error) {
			return gemini.NewGeminiAdapter(c), nil
		}).
		WithProviderBuilder(providers.Groq, func(c providers.ProviderConfig) (providers.Provider, error) {
			return openaicompat.NewGroqAdapter(c), nil
		}).
		WithProviderBuilder(providers.Together, func(c providers.ProviderConfig) (providers.Provider, error) {
			return openaicompat.NewTogetherAdapter(c), nil
		}).
		WithProviderBuilder(providers.HuggingFace, func(c providers.ProviderConfig) (providers.Provider, error) {
			return huggingface.NewHuggingFaceAdapter(c), nil
		}).
		Build(configs)
}

// rejectAllValidator rejects all tokens (used when no JWT secret is configured)
type rejectAllValidator struct{}

func (rejectAllValidator) ValidateToken(context.Context, string) (*identity.Claims, error) {
	return nil, identity.ErrInvalidToken
}

// Close gracefully shuts down all dependencies
func (d *Dependencies) Close(ctx context.Context) error {
	d.Logger.Info("shutting down dependencies")

	var errs []error

	if d.meterProvider != nil {
		if err := d.meterProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to shut down meter provider: %w", err))
		}
	}

	if d.RepoFactory != nil {
		if err := d.RepoFactory.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		} else {
			d.Logger.Info("database connection closed")
		}
	}

	_ = d.Logger.Sync()

	return errors.Join(errs...)
}
