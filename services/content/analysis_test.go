package content

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/upb/llm-content-gateway/services/providers"
)

func TestAnalyzeContent(t *testing.T) {
	tests := []struct {
		name     string
		response string
		want     map[string]any
	}{
		{
			name:     "plain json object",
			response: `{"score": 8, "tone": "upbeat"}`,
			want:     map[string]any{"score": float64(8), "tone": "upbeat"},
		},
		{
			name:     "fenced json object",
			response: "```json\n{\"score\": 6}\n```",
			want:     map[string]any{"score": float64(6)},
		},
		{
			name:     "prose",
			response: "The tone is upbeat.",
			want:     map[string]any{"analysis": "The tone is upbeat."},
		},
		{
			name:     "json array is not an analysis object",
			response: `[1, 2, 3]`,
			want:     map[string]any{"analysis": "[1, 2, 3]"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := new(MockGenerator)
			gen.On("GenerateWithFallback", mock.Anything,
				"Analyze the sentiment and emotional tone of this content. Provide a score from 1-10 and key insights:\n\nGreat product!",
				"You are a sentiment analysis expert. Provide structured JSON output.",
				(*providers.GenerationConfig)(nil),
			).Return(result(tt.response), nil)

			got, err := newTestService(gen).AnalyzeContent(context.Background(), "Great product!", AnalysisSentiment)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			gen.AssertExpectations(t)
		})
	}
}

func TestAnalyzeContent_UnknownType(t *testing.T) {
	gen := new(MockGenerator)

	_, err := newTestService(gen).AnalyzeContent(context.Background(), "text", AnalysisType("vibes"))
	assert.ErrorIs(t, err, ErrUnknownAnalysisType)
	gen.AssertNotCalled(t, "GenerateWithFallback", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestAnalysisType_Valid(t *testing.T) {
	for _, kind := range []AnalysisType{AnalysisSentiment, AnalysisReadability, AnalysisSEO, AnalysisEngagement} {
		assert.True(t, kind.Valid(), kind)
	}
	assert.False(t, AnalysisType("").Valid())
}

func TestGetSuggestions(t *testing.T) {
	tests := []struct {
		name     string
		response string
		want     []string
	}{
		{
			name:     "json array",
			response: `["Add a CTA", "Shorten the intro"]`,
			want:     []string{"Add a CTA", "Shorten the intro"},
		},
		{
			name:     "object with suggestions",
			response: "```json\n{\"suggestions\": [\"Use active voice\"]}\n```",
			want:     []string{"Use active voice"},
		},
		{
			name:     "markdown list",
			response: "1. Add urgency\n- Mention the discount\n* Use an emoji\n\n",
			want:     []string{"Add urgency", "Mention the discount", "Use an emoji"},
		},
		{
			name:     "capped at five",
			response: `["a","b","c","d","e","f","g"]`,
			want:     []string{"a", "b", "c", "d", "e"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := new(MockGenerator)
			gen.On("GenerateWithFallback", mock.Anything,
				mock.MatchedBy(func(prompt string) bool {
					return strings.Contains(prompt, "Email Writer content") && strings.HasSuffix(prompt, "\n\nHello team")
				}),
				mock.Anything, (*providers.GenerationConfig)(nil),
			).Return(result(tt.response), nil)

			got, err := newTestService(gen).GetSuggestions(context.Background(), "Hello team", "Email Writer")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStripCodeFence(t *testing.T) {
	assert.Equal(t, `{"a":1}`, stripCodeFence("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, stripCodeFence("```\n{\"a\":1}\n```"))
	assert.Equal(t, "no fence", stripCodeFence("  no fence \n"))
}
