package providers_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/upb/llm-content-gateway/services/providers"
	"github.com/upb/llm-content-gateway/services/providers/providertest"
)

func TestGenerationConfig_Resolve(t *testing.T) {
	t.Run("nil config yields defaults", func(t *testing.T) {
		var cfg *providers.GenerationConfig
		got := cfg.Resolve()

		assert.Equal(t, 0.9, *got.Temperature)
		assert.Equal(t, 0.95, *got.TopP)
		assert.Equal(t, 40, *got.TopK)
		assert.Equal(t, 8192, *got.MaxOutputTokens)
	})

	t.Run("explicit values win", func(t *testing.T) {
		cfg := &providers.GenerationConfig{
			Temperature:     providers.Float64(0),
			MaxOutputTokens: providers.Int(10),
		}
		got := cfg.Resolve()

		assert.Equal(t, 0.0, *got.Temperature)
		assert.Equal(t, 10, *got.MaxOutputTokens)
		assert.Equal(t, 0.95, *got.TopP)
		assert.Equal(t, 40, *got.TopK)
	})
}

func TestProviderError(t *testing.T) {
	t.Run("HTTP error message keeps status and body", func(t *testing.T) {
		err := providers.NewProviderError("Groq", 429, `{"error":"rate limit"}`, nil)
		assert.Equal(t, `Groq API error: 429 - {"error":"rate limit"}`, err.Error())
		assert.Equal(t, 429, providers.StatusCode(err))
	})

	t.Run("transport error unwraps cause", func(t *testing.T) {
		cause := errors.New("read tcp: connection reset by peer")
		err := providers.NewProviderError("Hugging Face", 0, "", cause)

		assert.Contains(t, err.Error(), "connection reset by peer")
		assert.ErrorIs(t, err, cause)
		assert.Equal(t, 0, providers.StatusCode(err))
	})

	t.Run("status code found through wrapping", func(t *testing.T) {
		err := providers.NewProviderError("Google Gemini", 503, "overloaded", nil)
		wrapped := errors.Join(errors.New("outer"), err)
		assert.Equal(t, 503, providers.StatusCode(wrapped))
	})
}

func TestCatalog(t *testing.T) {
	catalog := providers.Catalog()
	require.Len(t, catalog, 4)

	seen := map[int]bool{}
	for i, d := range catalog {
		assert.Equal(t, i+1, d.Priority, "catalogue must be in priority order")
		assert.False(t, seen[d.Priority])
		seen[d.Priority] = true
		assert.NotEmpty(t, d.CredentialEnv)
		assert.Greater(t, d.Limits.RequestsPerMinute, 0)
	}

	hf := providers.MustLookup(providers.HuggingFace)
	assert.Equal(t, 10, hf.Limits.RequestsPerMinute)
	assert.Equal(t, "Hugging Face", hf.Name)

	_, ok := providers.Lookup("unknown")
	assert.False(t, ok)
}

func TestRegistry(t *testing.T) {
	t.Run("orders by priority regardless of registration order", func(t *testing.T) {
		r := providers.NewRegistry()
		require.NoError(t, r.RegisterProvider(providertest.New(providers.Together, "Together AI", 3)))
		require.NoError(t, r.RegisterProvider(providertest.New(providers.Gemini, "Google Gemini", 1)))
		require.NoError(t, r.RegisterProvider(providertest.New(providers.Groq, "Groq", 2)))

		assert.Equal(t, []string{"Google Gemini", "Groq", "Together AI"}, r.ListProviders())
		assert.Equal(t, 3, r.GetProviderCount())
	})

	t.Run("available filters unconfigured providers", func(t *testing.T) {
		r := providers.NewRegistry()
		require.NoError(t, r.RegisterProvider(providertest.New(providers.Gemini, "Google Gemini", 1).SetAvailable(false)))
		require.NoError(t, r.RegisterProvider(providertest.New(providers.Groq, "Groq", 2)))

		available := r.Available()
		require.Len(t, available, 1)
		assert.Equal(t, "Groq", available[0].Name())
		assert.Len(t, r.All(), 2)
	})

	t.Run("rejects invalid registrations", func(t *testing.T) {
		r := providers.NewRegistry()
		assert.Error(t, r.RegisterProvider(nil))
		assert.Error(t, r.RegisterProvider(providertest.New("", "nameless", 9)))

		require.NoError(t, r.RegisterProvider(providertest.New(providers.Gemini, "Google Gemini", 1)))
		assert.ErrorIs(t, r.RegisterProvider(providertest.New(providers.Gemini, "Again", 5)), providers.ErrProviderAlreadyRegistered)
		assert.ErrorIs(t, r.RegisterProvider(providertest.New(providers.Groq, "Groq", 1)), providers.ErrDuplicatePriority)
	})

	t.Run("lookup by id", func(t *testing.T) {
		r := providers.NewRegistry()
		require.NoError(t, r.RegisterProvider(providertest.New(providers.Groq, "Groq", 2)))

		p, err := r.GetProvider(providers.Groq)
		require.NoError(t, err)
		assert.Equal(t, "Groq", p.Name())

		_, err = r.GetProvider(providers.Gemini)
		assert.ErrorIs(t, err, providers.ErrProviderNotFound)
	})
}

func TestRegistryBuilder(t *testing.T) {
	builder := providers.NewRegistryBuilder().
		WithProviderBuilder(providers.Groq, func(cfg providers.ProviderConfig) (providers.Provider, error) {
			return providertest.New(providers.Groq, "Groq", 2).SetAvailable(cfg.APIKey != ""), nil
		}).
		WithProviderBuilder(providers.Gemini, func(cfg providers.ProviderConfig) (providers.Provider, error) {
			return providertest.New(providers.Gemini, "Google Gemini", 1).SetAvailable(cfg.APIKey != ""), nil
		})

	registry, err := builder.Build(map[providers.ProviderID]providers.ProviderConfig{
		providers.Groq: {APIKey: "gsk-test"},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"Google Gemini", "Groq"}, registry.ListProviders())
	require.Len(t, registry.Available(), 1)
	assert.Equal(t, providers.Groq, registry.Available()[0].ID())

	t.Run("builder failure is reported", func(t *testing.T) {
		_, err := providers.NewRegistryBuilder().
			WithProviderBuilder(providers.Together, func(providers.ProviderConfig) (providers.Provider, error) {
				return nil, errors.New("boom")
			}).
			Build(nil)
		assert.ErrorContains(t, err, "failed to build provider together")
	})
}
