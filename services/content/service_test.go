package content

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/upb/llm-content-gateway/services/providers"
	"github.com/upb/llm-content-gateway/services/routing"
	"go.uber.org/zap"
)

// MockGenerator is a mock implementation of Generator
type MockGenerator struct {
	mock.Mock
}

func (m *MockGenerator) GenerateWithFallback(ctx context.Context, prompt, systemInstruction string, cfg *providers.GenerationConfig) (*routing.GenerationResult, error) {
	args := m.Called(ctx, prompt, systemInstruction, cfg)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*routing.GenerationResult), args.Error(1)
}

func (m *MockGenerator) AvailableProviders() []string {
	args := m.Called()
	return args.Get(0).([]string)
}

func (m *MockGenerator) CheckProviderHealth(ctx context.Context) map[string]bool {
	args := m.Called(ctx)
	return args.Get(0).(map[string]bool)
}

func newTestService(gen Generator) *Service {
	return NewService(gen, Config{ChunkInterval: 0}, zap.NewNop())
}

func result(content string) *routing.GenerationResult {
	return &routing.GenerationResult{Content: content, Provider: "Google Gemini"}
}

func TestGenerateContent(t *testing.T) {
	gen := new(MockGenerator)
	cfg := &providers.GenerationConfig{Temperature: providers.Float64(0.2)}
	gen.On("GenerateWithFallback", mock.Anything, "Write a headline", "Be punchy", cfg).Return(result("Big News"), nil)

	svc := newTestService(gen)
	got, err := svc.GenerateContent(context.Background(), "Write a headline", "Be punchy", cfg)

	require.NoError(t, err)
	assert.Equal(t, "Big News", got.Content)
	assert.Equal(t, "Google Gemini", got.Provider)
	gen.AssertExpectations(t)
}

func TestGenerateContent_EmptyPrompt(t *testing.T) {
	gen := new(MockGenerator)
	svc := newTestService(gen)

	_, err := svc.GenerateContent(context.Background(), "   ", "", nil)
	assert.ErrorIs(t, err, ErrEmptyPrompt)
	gen.AssertNotCalled(t, "GenerateWithFallback", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestGenerateContent_PropagatesTypedErrors(t *testing.T) {
	gen := new(MockGenerator)
	gen.On("GenerateWithFallback", mock.Anything, "x", "", (*providers.GenerationConfig)(nil)).Return(nil, routing.ErrNoProvidersConfigured)

	svc := newTestService(gen)
	_, err := svc.GenerateContent(context.Background(), "x", "", nil)

	assert.ErrorIs(t, err, routing.ErrNoProvidersConfigured)
	assert.Equal(t, MsgNotConfigured, UserMessage(err))
}

func TestGenerateContentStream(t *testing.T) {
	gen := new(MockGenerator)
	gen.On("GenerateWithFallback", mock.Anything, "p", "", (*providers.GenerationConfig)(nil)).Return(result("one two  three"), nil)

	svc := newTestService(gen)

	var chunks []string
	got, err := svc.GenerateContentStream(context.Background(), "p", "", nil, func(text string) error {
		chunks = append(chunks, text)
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"one", "one two", "one two ", "one two  three"}, chunks)
	assert.Equal(t, got.Content, chunks[len(chunks)-1])
}

func TestGenerateContentStream_SingleWord(t *testing.T) {
	gen := new(MockGenerator)
	gen.On("GenerateWithFallback", mock.Anything, "p", "", (*providers.GenerationConfig)(nil)).Return(result("OK"), nil)

	var chunks []string
	_, err := newTestService(gen).GenerateContentStream(context.Background(), "p", "", nil, func(text string) error {
		chunks = append(chunks, text)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"OK"}, chunks)
}

func TestGenerateContentStream_Pacing(t *testing.T) {
	gen := new(MockGenerator)
	gen.On("GenerateWithFallback", mock.Anything, "p", "", (*providers.GenerationConfig)(nil)).Return(result("a b c"), nil)

	svc := NewService(gen, Config{ChunkInterval: 10 * time.Millisecond}, nil)

	start := time.Now()
	_, err := svc.GenerateContentStream(context.Background(), "p", "", nil, func(string) error { return nil })
	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond, "one pause after each of the three chunks")
}

func TestGenerateContentStream_Cancelled(t *testing.T) {
	gen := new(MockGenerator)
	gen.On("GenerateWithFallback", mock.Anything, "p", "", (*providers.GenerationConfig)(nil)).Return(result("a b c d e"), nil)

	svc := NewService(gen, Config{ChunkInterval: time.Hour}, nil)
	ctx, cancel := context.WithCancel(context.Background())

	var chunks []string
	_, err := svc.GenerateContentStream(ctx, "p", "", nil, func(text string) error {
		chunks = append(chunks, text)
		cancel()
		return nil
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []string{"a"}, chunks)
}

func TestGenerateContentStream_ConsumerError(t *testing.T) {
	gen := new(MockGenerator)
	gen.On("GenerateWithFallback", mock.Anything, "p", "", (*providers.GenerationConfig)(nil)).Return(result("a b"), nil)

	boom := errors.New("client went away")
	_, err := newTestService(gen).GenerateContentStream(context.Background(), "p", "", nil, func(string) error { return boom })
	assert.ErrorIs(t, err, boom)
}

func TestGenerateConversation(t *testing.T) {
	gen := new(MockGenerator)
	expectedPrompt := "User: Hi\n\nAssistant: Hello! How can I help?\n\nUser: Write a tweet\n\nAssistant:"
	gen.On("GenerateWithFallback", mock.Anything, expectedPrompt, "Be friendly", (*providers.GenerationConfig)(nil)).Return(result("Here you go"), nil)

	svc := newTestService(gen)
	got, err := svc.GenerateConversation(context.Background(), []Turn{
		{Role: RoleUser, Text: "Hi"},
		{Role: RoleModel, Text: "Hello! How can I help?"},
		{Role: RoleUser, Text: "Write a tweet"},
	}, "Be friendly")

	require.NoError(t, err)
	assert.Equal(t, "Here you go", got.Content)
	gen.AssertExpectations(t)

	_, err = svc.GenerateConversation(context.Background(), nil, "")
	assert.ErrorIs(t, err, ErrEmptyPrompt)
}

func TestApplySuggestion(t *testing.T) {
	gen := new(MockGenerator)
	prompt := "Original Content:\nOld copy\n\nApply this improvement: Add a CTA\n\nProvide ONLY the improved version."
	gen.On("GenerateWithFallback", mock.Anything, prompt, "You are an expert editor applying specific improvements.", (*providers.GenerationConfig)(nil)).
		Return(result("New copy now"), nil)

	var last string
	got, err := newTestService(gen).ApplySuggestion(context.Background(), "Old copy", "Add a CTA", func(text string) error {
		last = text
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, "New copy now", got.Content)
	assert.Equal(t, got.Content, last)
	gen.AssertExpectations(t)
}

func TestRefineContent(t *testing.T) {
	gen := new(MockGenerator)
	prompt := "Original Content:\nDraft\n\nInstruction: Make it shorter\n\nPlease output ONLY the refined version of the content."
	gen.On("GenerateWithFallback", mock.Anything, prompt, "You are an expert editor refining content based on user instructions.", (*providers.GenerationConfig)(nil)).
		Return(result("Short"), nil)

	got, err := newTestService(gen).RefineContent(context.Background(), "Draft", "Make it shorter", nil)
	require.NoError(t, err)
	assert.Equal(t, "Short", got.Content)
}

func TestUserMessage(t *testing.T) {
	allFailed := &routing.AllProvidersFailedError{Attempts: []routing.AttemptError{{Provider: "Groq", Message: "429"}}}

	tests := []struct {
		name string
		err  error
		want string
	}{
		{"no providers", fmt.Errorf("wrap: %w", routing.ErrNoProvidersConfigured), MsgNotConfigured},
		{"all failed wins over inner text", allFailed, MsgAllFailed},
		{"overloaded", providers.NewProviderError("Google Gemini", 503, "UNAVAILABLE", nil), MsgHighDemand},
		{"quota", errors.New("RESOURCE_EXHAUSTED: quota exceeded"), MsgRateLimited},
		{"rate limit", errors.New("Rate limit reached"), MsgRateLimited},
		{"api key", providers.NewProviderError("Groq", 0, "", providers.ErrMissingAPIKey), MsgInvalidAPIKey},
		{"network", errors.New("read: connection reset by peer"), MsgNetworkIssue},
		{"timeout", errors.New("ETIMEDOUT"), MsgNetworkIssue},
		{"other", errors.New("something odd"), MsgGenericFailure},
		{"nil", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, UserMessage(tt.err))
		})
	}
}
