package content

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestCheckProviderStatus(t *testing.T) {
	tests := []struct {
		name      string
		available []string
		health    map[string]bool
		want      string
	}{
		{
			name:      "nothing configured",
			available: []string{},
			health:    map[string]bool{"Google Gemini": false, "Groq": false},
			want:      "No AI providers configured. Add at least one API key to get started.",
		},
		{
			name:      "single provider",
			available: []string{"Groq"},
			health:    map[string]bool{"Google Gemini": false, "Groq": true},
			want:      "Only one provider configured. Add more providers for better reliability.",
		},
		{
			name:      "all unhealthy",
			available: []string{"Google Gemini", "Groq"},
			health:    map[string]bool{"Google Gemini": false, "Groq": false},
			want:      "All providers are currently unhealthy. Please check your API keys and try again.",
		},
		{
			name:      "partially healthy",
			available: []string{"Google Gemini", "Groq", "Together AI"},
			health:    map[string]bool{"Google Gemini": true, "Groq": false, "Together AI": true, "Hugging Face": false},
			want:      "2/3 providers are healthy. Some providers may be experiencing issues.",
		},
		{
			name:      "all healthy",
			available: []string{"Google Gemini", "Groq"},
			health:    map[string]bool{"Google Gemini": true, "Groq": true, "Together AI": false},
			want:      "All providers are healthy and ready to use!",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := new(MockGenerator)
			gen.On("AvailableProviders").Return(tt.available)
			gen.On("CheckProviderHealth", mock.Anything).Return(tt.health)

			status := newTestService(gen).CheckProviderStatus(context.Background())

			assert.Equal(t, tt.want, status.Recommendation)
			assert.Equal(t, tt.available, status.Available)
			assert.Equal(t, tt.health, status.Health)
		})
	}
}

func TestRecommendedAPIKeys(t *testing.T) {
	keys := newTestService(new(MockGenerator)).RecommendedAPIKeys()
	require.Len(t, keys, 4)

	assert.Equal(t, APIKeyInfo{
		Name:        "Google Gemini",
		EnvVar:      "GEMINI_API_KEY",
		URL:         "https://aistudio.google.com/app/apikey",
		Free:        true,
		Description: "Primary provider - Fast and reliable (Free tier available)",
	}, keys[0])
	assert.Equal(t, "Groq", keys[1].Name)
	assert.Equal(t, "Together AI", keys[2].Name)
	assert.Equal(t, "HUGGINGFACE_API_KEY", keys[3].EnvVar)
}
