package providers

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrEmptyOutput is returned when a backend answers successfully but with blank text
	ErrEmptyOutput = errors.New("no content generated")

	// ErrMissingAPIKey is returned by Generate when the adapter has no credential
	ErrMissingAPIKey = errors.New("API key not configured")
)

// Provider represents a unified text-generation backend
type Provider interface {
	// ID returns the stable provider identifier
	ID() ProviderID

	// Name returns the human-readable provider name (e.g., "Google Gemini")
	Name() string

	// Priority orders providers during failover (lower is tried first)
	Priority() int

	// IsAvailable reports whether a credential is configured. It performs no I/O.
	IsAvailable() bool

	// HealthCheck issues one lightweight request and reports reachability.
	// It never returns an error; any failure is reported as false.
	HealthCheck(ctx context.Context) bool

	// Generate issues exactly one generation request and returns the produced text.
	// Retrying is the caller's responsibility.
	Generate(ctx context.Context, prompt, systemInstruction string, cfg *GenerationConfig) (string, error)
}

// GenerationConfig holds provider-agnostic sampling knobs.
// Nil fields fall back to DefaultGenerationConfig.
type GenerationConfig struct {
	// Temperature controls randomness
	Temperature *float64 `json:"temperature,omitempty" validate:"omitempty,gte=0,lte=2"`

	// TopP controls nucleus sampling
	TopP *float64 `json:"topP,omitempty" validate:"omitempty,gte=0,lte=1"`

	// TopK limits sampling to the K most likely tokens
	TopK *int `json:"topK,omitempty" validate:"omitempty,gt=0"`

	// MaxOutputTokens limits the response length
	MaxOutputTokens *int `json:"maxOutputTokens,omitempty" validate:"omitempty,gt=0"`
}

// DefaultGenerationConfig returns the sampling defaults shared by every adapter
func DefaultGenerationConfig() GenerationConfig {
	return GenerationConfig{
		Temperature:     Float64(0.9),
		TopP:            Float64(0.95),
		TopK:            Int(40),
		MaxOutputTokens: Int(8192),
	}
}

// Resolve merges cfg over the defaults. A nil cfg yields the defaults.
func (cfg *GenerationConfig) Resolve() GenerationConfig {
	out := DefaultGenerationConfig()
	if cfg == nil {
		return out
	}
	if cfg.Temperature != nil {
		out.Temperature = cfg.Temperature
	}
	if cfg.TopP != nil {
		out.TopP = cfg.TopP
	}
	if cfg.TopK != nil {
		out.TopK = cfg.TopK
	}
	if cfg.MaxOutputTokens != nil {
		out.MaxOutputTokens = cfg.MaxOutputTokens
	}
	return out
}

// Float64 returns a pointer to v
func Float64(v float64) *float64 { return &v }

// Int returns a pointer to v
func Int(v int) *int { return &v }

// ProviderConfig holds common configuration for adapters
type ProviderConfig struct {
	// APIKey for authentication. Empty means the provider is not configured.
	APIKey string

	// BaseURL for the API (optional override)
	BaseURL string

	// Model to request
	Model string

	// Timeout for a single request
	Timeout time.Duration

	// Priority overrides the catalogue priority when non-zero
	Priority int
}

// ProviderError represents a transport or HTTP failure from a backend
type ProviderError struct {
	// Provider that generated the error
	Provider string

	// StatusCode is the HTTP status code, 0 for transport failures
	StatusCode int

	// Message is the raw backend message
	Message string

	// Cause is the underlying error
	Cause error
}

// Error implements the error interface
func (e *ProviderError) Error() string {
	if e.StatusCode == 0 {
		if e.Cause != nil {
			return fmt.Sprintf("%s request failed: %v", e.Provider, e.Cause)
		}
		return fmt.Sprintf("%s request failed: %s", e.Provider, e.Message)
	}
	return fmt.Sprintf("%s API error: %d - %s", e.Provider, e.StatusCode, e.Message)
}

// Unwrap implements error unwrapping
func (e *ProviderError) Unwrap() error {
	return e.Cause
}

// NewProviderError creates a new provider error
func NewProviderError(provider string, statusCode int, message string, cause error) *ProviderError {
	return &ProviderError{
		Provider:   provider,
		StatusCode: statusCode,
		Message:    message,
		Cause:      cause,
	}
}

// StatusCode extracts the HTTP status of a ProviderError anywhere in err's chain
func StatusCode(err error) int {
	var provErr *ProviderError
	if errors.As(err, &provErr) {
		return provErr.StatusCode
	}
	return 0
}
