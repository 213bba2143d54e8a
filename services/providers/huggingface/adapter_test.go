package huggingface

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/upb/llm-content-gateway/services/providers"
)

func TestFormatPrompt(t *testing.T) {
	tests := []struct {
		name   string
		prompt string
		system string
		want   string
	}{
		{
			name:   "with system instruction",
			prompt: "Write a slogan",
			system: "Be witty",
			want:   "<|system|>Be witty</s>\n<|user|>Write a slogan</s>\n<|assistant|>",
		},
		{
			name:   "without system instruction",
			prompt: "Write a slogan",
			want:   "<|user|>Write a slogan</s>\n<|assistant|>",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, formatPrompt(tt.prompt, tt.system))
		})
	}
}

func TestHuggingFaceAdapter_Generate(t *testing.T) {
	var captured inferenceRequest
	var path, auth string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		auth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&captured)
		_, _ = w.Write([]byte(`[{"generated_text":"A bold new slogan"}]`))
	}))
	defer server.Close()

	adapter := NewHuggingFaceAdapter(providers.ProviderConfig{APIKey: "hf_test", BaseURL: server.URL})

	text, err := adapter.Generate(context.Background(), "Write a slogan", "", &providers.GenerationConfig{TopK: providers.Int(5)})
	require.NoError(t, err)

	assert.Equal(t, "A bold new slogan", text)
	assert.Equal(t, "/models/meta-llama/Meta-Llama-3-70B-Instruct", path)
	assert.Equal(t, "Bearer hf_test", auth)
	assert.Equal(t, "<|user|>Write a slogan</s>\n<|assistant|>", captured.Inputs)
	assert.Equal(t, 5, captured.Parameters.TopK)
	assert.Equal(t, 8192, captured.Parameters.MaxNewTokens)
	assert.False(t, captured.Parameters.ReturnFullText)
}

func TestHuggingFaceAdapter_GenerateObjectResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"generated_text":"single shape"}`))
	}))
	defer server.Close()

	adapter := NewHuggingFaceAdapter(providers.ProviderConfig{APIKey: "hf", BaseURL: server.URL})
	text, err := adapter.Generate(context.Background(), "p", "s", nil)
	require.NoError(t, err)
	assert.Equal(t, "single shape", text)
}

func TestHuggingFaceAdapter_GenerateErrors(t *testing.T) {
	t.Run("model loading", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"error":"Model is currently loading","estimated_time":20}`))
		}))
		defer server.Close()

		adapter := NewHuggingFaceAdapter(providers.ProviderConfig{APIKey: "hf", BaseURL: server.URL})
		_, err := adapter.Generate(context.Background(), "p", "", nil)
		require.Error(t, err)

		assert.Equal(t, 503, providers.StatusCode(err))
		assert.Contains(t, err.Error(), "Hugging Face API error: 503 - ")
		assert.Contains(t, err.Error(), "currently loading")
	})

	t.Run("empty output", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`[{"generated_text":""}]`))
		}))
		defer server.Close()

		adapter := NewHuggingFaceAdapter(providers.ProviderConfig{APIKey: "hf", BaseURL: server.URL})
		_, err := adapter.Generate(context.Background(), "p", "", nil)
		assert.ErrorIs(t, err, providers.ErrEmptyOutput)
	})

	t.Run("missing key", func(t *testing.T) {
		_, err := NewHuggingFaceAdapter(providers.ProviderConfig{}).Generate(context.Background(), "p", "", nil)
		assert.ErrorIs(t, err, providers.ErrMissingAPIKey)
	})
}

func TestHuggingFaceAdapter_HealthCheck(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer good" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{"name":"someone"}`))
	}))
	defer server.Close()

	healthy := NewHuggingFaceAdapter(providers.ProviderConfig{APIKey: "good"}, WithWhoAmIURL(server.URL))
	assert.True(t, healthy.HealthCheck(context.Background()))

	rejected := NewHuggingFaceAdapter(providers.ProviderConfig{APIKey: "bad"}, WithWhoAmIURL(server.URL))
	assert.False(t, rejected.HealthCheck(context.Background()))

	unconfigured := NewHuggingFaceAdapter(providers.ProviderConfig{}, WithWhoAmIURL(server.URL))
	assert.False(t, unconfigured.HealthCheck(context.Background()))
}
