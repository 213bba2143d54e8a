// Package content is the application-facing facade over the provider
// failover loop: plain generation, paced streaming, conversations,
// analysis and editing suggestions.
package content

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/upb/llm-content-gateway/services/providers"
	"github.com/upb/llm-content-gateway/services/routing"
	"go.uber.org/zap"
)

// DefaultChunkInterval is the pause after each streamed chunk
const DefaultChunkInterval = 50 * time.Millisecond

// ErrEmptyPrompt is returned before any provider call when there is nothing to send
var ErrEmptyPrompt = errors.New("prompt must not be empty")

// Generator is the failover engine the service delegates to
type Generator interface {
	GenerateWithFallback(ctx context.Context, prompt, systemInstruction string, cfg *providers.GenerationConfig) (*routing.GenerationResult, error)
	AvailableProviders() []string
	CheckProviderHealth(ctx context.Context) map[string]bool
}

// ChunkFunc receives the growing prefix of a streamed response
type ChunkFunc func(text string) error

// Config holds facade settings
type Config struct {
	// ChunkInterval is the pause after every streamed chunk
	ChunkInterval time.Duration
}

// Service implements the content operations
type Service struct {
	generator     Generator
	chunkInterval time.Duration
	logger        *zap.Logger
}

// NewService creates a content service
func NewService(generator Generator, cfg Config, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	interval := cfg.ChunkInterval
	if interval < 0 {
		interval = 0
	}
	return &Service{
		generator:     generator,
		chunkInterval: interval,
		logger:        logger,
	}
}

// GenerateContent runs one prompt through the failover loop
func (s *Service) GenerateContent(ctx context.Context, prompt, systemInstruction string, cfg *providers.GenerationConfig) (*routing.GenerationResult, error) {
	if strings.TrimSpace(prompt) == "" {
		return nil, ErrEmptyPrompt
	}

	result, err := s.generator.GenerateWithFallback(ctx, prompt, systemInstruction, cfg)
	if err != nil {
		s.logger.Error("content generation failed", zap.Error(err))
		return nil, err
	}
	return result, nil
}

// GenerateContentStream resolves the full text first, then replays it word by
// word through onChunk. The pacing is synthetic; the final chunk always equals
// the returned content.
func (s *Service) GenerateContentStream(ctx context.Context, prompt, systemInstruction string, cfg *providers.GenerationConfig, onChunk ChunkFunc) (*routing.GenerationResult, error) {
	result, err := s.GenerateContent(ctx, prompt, systemInstruction, cfg)
	if err != nil {
		return nil, err
	}

	if onChunk == nil {
		return result, nil
	}

	if err := s.replay(ctx, result.Content, onChunk); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Service) replay(ctx context.Context, text string, onChunk ChunkFunc) error {
	words := strings.Split(text, " ")

	var sb strings.Builder
	for i, word := range words {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(word)

		if err := onChunk(sb.String()); err != nil {
			return fmt.Errorf("stream consumer: %w", err)
		}
		if err := s.pause(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) pause(ctx context.Context) error {
	if s.chunkInterval == 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(s.chunkInterval)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Role of a conversation turn
type Role string

const (
	RoleUser      Role = "user"
	RoleModel     Role = "model"
	RoleAssistant Role = "assistant"
)

// Turn is one message of a conversation history
type Turn struct {
	Role Role   `json:"role" validate:"required,oneof=user model assistant"`
	Text string `json:"text" validate:"required"`
}

// GenerateConversation flattens history into a transcript and asks for the next assistant turn.
// No session state is kept between calls.
func (s *Service) GenerateConversation(ctx context.Context, history []Turn, systemInstruction string) (*routing.GenerationResult, error) {
	if len(history) == 0 {
		return nil, ErrEmptyPrompt
	}
	return s.GenerateContent(ctx, conversationPrompt(history), systemInstruction, nil)
}

func conversationPrompt(history []Turn) string {
	lines := make([]string, len(history))
	for i, turn := range history {
		speaker := "Assistant"
		if turn.Role == RoleUser {
			speaker = "User"
		}
		lines[i] = speaker + ": " + turn.Text
	}
	return strings.Join(lines, "\n\n") + "\n\nAssistant:"
}

// ApplySuggestion rewrites content with one improvement, streamed through onChunk
func (s *Service) ApplySuggestion(ctx context.Context, content, suggestion string, onChunk ChunkFunc) (*routing.GenerationResult, error) {
	prompt := fmt.Sprintf("Original Content:\n%s\n\nApply this improvement: %s\n\nProvide ONLY the improved version.", content, suggestion)
	return s.GenerateContentStream(ctx, prompt, "You are an expert editor applying specific improvements.", nil, onChunk)
}

// RefineContent rewrites content following a free-form instruction, streamed through onChunk
func (s *Service) RefineContent(ctx context.Context, content, instruction string, onChunk ChunkFunc) (*routing.GenerationResult, error) {
	prompt := fmt.Sprintf("Original Content:\n%s\n\nInstruction: %s\n\nPlease output ONLY the refined version of the content.", content, instruction)
	return s.GenerateContentStream(ctx, prompt, "You are an expert editor refining content based on user instructions.", nil, onChunk)
}
