// Package openaicompat adapts OpenAI-compatible chat completion backends
// (Groq, Together AI) to the providers.Provider contract.
package openaicompat

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"github.com/upb/llm-content-gateway/services/providers"
)

// Adapter implements providers.Provider over an OpenAI-compatible API
type Adapter struct {
	id         providers.ProviderID
	descriptor providers.Descriptor
	config     providers.ProviderConfig
	api        *openai.Client
}

// NewGroqAdapter creates the Groq adapter
func NewGroqAdapter(config providers.ProviderConfig) *Adapter {
	return newAdapter(providers.Groq, config)
}

// NewTogetherAdapter creates the Together AI adapter
func NewTogetherAdapter(config providers.ProviderConfig) *Adapter {
	return newAdapter(providers.Together, config)
}

func newAdapter(id providers.ProviderID, config providers.ProviderConfig) *Adapter {
	descriptor := providers.MustLookup(id)

	if config.BaseURL == "" {
		config.BaseURL = descriptor.DefaultBaseURL
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")

	if config.Model == "" {
		config.Model = descriptor.DefaultModel
	}

	if config.Timeout == 0 {
		config.Timeout = descriptor.Limits.Timeout
	}

	if config.Priority != 0 {
		descriptor.Priority = config.Priority
	}

	clientConfig := openai.DefaultConfig(config.APIKey)
	clientConfig.BaseURL = config.BaseURL
	clientConfig.HTTPClient = &http.Client{Timeout: config.Timeout}

	return &Adapter{
		id:         id,
		descriptor: descriptor,
		config:     config,
		api:        openai.NewClientWithConfig(clientConfig),
	}
}

func (a *Adapter) ID() providers.ProviderID { return a.id }

func (a *Adapter) Name() string { return a.descriptor.Name }

func (a *Adapter) Priority() int { return a.descriptor.Priority }

func (a *Adapter) IsAvailable() bool { return a.config.APIKey != "" }

// HealthCheck lists models; any error means unhealthy
func (a *Adapter) HealthCheck(ctx context.Context) bool {
	if !a.IsAvailable() {
		return false
	}
	_, err := a.api.ListModels(ctx)
	return err == nil
}

// Generate performs one chat completion with an optional system message
func (a *Adapter) Generate(ctx context.Context, prompt, systemInstruction string, cfg *providers.GenerationConfig) (string, error) {
	if !a.IsAvailable() {
		return "", providers.NewProviderError(a.Name(), 0, "", providers.ErrMissingAPIKey)
	}

	resp, err := a.api.CreateChatCompletion(ctx, a.buildRequest(prompt, systemInstruction, cfg))
	if err != nil {
		return "", a.translateError(err)
	}

	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", fmt.Errorf("%s: %w", a.Name(), providers.ErrEmptyOutput)
	}

	return resp.Choices[0].Message.Content, nil
}

// buildRequest drops topK, which the OpenAI wire format does not carry
func (a *Adapter) buildRequest(prompt, systemInstruction string, cfg *providers.GenerationConfig) openai.ChatCompletionRequest {
	resolved := cfg.Resolve()

	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if systemInstruction != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: systemInstruction,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: prompt,
	})

	// go-openai omits a zero temperature, which backends read as their default
	temperature := float32(*resolved.Temperature)
	if temperature == 0 {
		temperature = math.SmallestNonzeroFloat32
	}

	return openai.ChatCompletionRequest{
		Model:       a.config.Model,
		Messages:    messages,
		Temperature: temperature,
		TopP:        float32(*resolved.TopP),
		MaxTokens:   *resolved.MaxOutputTokens,
	}
}

// translateError maps go-openai errors to ProviderError, preserving status and message
func (a *Adapter) translateError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return providers.NewProviderError(a.Name(), apiErr.HTTPStatusCode, apiErr.Message, err)
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		message := strings.TrimSpace(string(reqErr.Body))
		if message == "" && reqErr.Err != nil {
			message = reqErr.Err.Error()
		}
		return providers.NewProviderError(a.Name(), reqErr.HTTPStatusCode, message, err)
	}

	return providers.NewProviderError(a.Name(), 0, "", err)
}
