package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/upb/llm-content-gateway/services/providers"
)

// GeminiAdapter implements the Provider interface for the Google Gemini REST API
type GeminiAdapter struct {
	config     providers.ProviderConfig
	descriptor providers.Descriptor
	httpClient *http.Client
}

// NewGeminiAdapter creates a new Gemini adapter
func NewGeminiAdapter(config providers.ProviderConfig) *GeminiAdapter {
	descriptor := providers.MustLookup(providers.Gemini)

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

	return &GeminiAdapter{
		config:     config,
		descriptor: descriptor,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
	}
}

func (a *GeminiAdapter) ID() providers.ProviderID { return providers.Gemini }

// Name returns the provider name
func (a *GeminiAdapter) Name() string { return a.descriptor.Name }

func (a *GeminiAdapter) Priority() int { return a.descriptor.Priority }

// IsAvailable reports whether an API key is configured
func (a *GeminiAdapter) IsAvailable() bool {
	return a.config.APIKey != ""
}

// HealthCheck lists a single model to confirm the key and endpoint work
func (a *GeminiAdapter) HealthCheck(ctx context.Context) bool {
	if !a.IsAvailable() {
		return false
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.config.BaseURL+"/v1beta/models?pageSize=1", nil)
	if err != nil {
		return false
	}
	req.Header.Set("x-goog-api-key", a.config.APIKey)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	return resp.StatusCode == http.StatusOK
}

// Generate performs one generateContent call
func (a *GeminiAdapter) Generate(ctx context.Context, prompt, systemInstruction string, cfg *providers.GenerationConfig) (string, error) {
	if !a.IsAvailable() {
		return "", providers.NewProviderError(a.Name(), 0, "", providers.ErrMissingAPIKey)
	}

	reqBody, err := json.Marshal(a.buildRequest(prompt, systemInstruction, cfg))
	if err != nil {
		return "", providers.NewProviderError(a.Name(), 0, "failed to marshal request", err)
	}

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent", a.config.BaseURL, url.PathEscape(a.config.Model))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(reqBody))
	if err != nil {
		return "", providers.NewProviderError(a.Name(), 0, "failed to create request", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", a.config.APIKey)

	httpResp, err := a.httpClient.Do(httpReq)
	if err != nil {
		return "", providers.NewProviderError(a.Name(), 0, "", err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return "", providers.NewProviderError(a.Name(), 0, "failed to read response", err)
	}

	if httpResp.StatusCode != http.StatusOK {
		return "", a.handleErrorResponse(httpResp.StatusCode, respBody)
	}

	text := extractText(respBody)
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%s: %w", a.Name(), providers.ErrEmptyOutput)
	}

	return text, nil
}

// buildRequest converts the unified arguments to the Gemini request shape
func (a *GeminiAdapter) buildRequest(prompt, systemInstruction string, cfg *providers.GenerationConfig) *geminiRequest {
	resolved := cfg.Resolve()

	req := &geminiRequest{
		Contents: []geminiContent{
			{Role: "user", Parts: []geminiPart{{Text: prompt}}},
		},
		GenerationConfig: geminiGenerationConfig{
			Temperature:     resolved.Temperature,
			TopP:            resolved.TopP,
			TopK:            resolved.TopK,
			MaxOutputTokens: resolved.MaxOutputTokens,
		},
	}

	if systemInstruction != "" {
		req.SystemInstruction = &geminiContent{Parts: []geminiPart{{Text: systemInstruction}}}
	}

	return req
}

// handleErrorResponse keeps the backend message for retry classification
func (a *GeminiAdapter) handleErrorResponse(statusCode int, body []byte) error {
	message := strings.TrimSpace(string(body))
	if gjson.ValidBytes(body) {
		if m := gjson.GetBytes(body, "error.message"); m.Exists() {
			message = m.String()
			if status := gjson.GetBytes(body, "error.status"); status.Exists() {
				message = status.String() + ": " + message
			}
		}
	}
	return providers.NewProviderError(a.Name(), statusCode, message, nil)
}

// extractText joins the text parts of the first candidate
func extractText(body []byte) string {
	var sb strings.Builder
	for _, part := range gjson.GetBytes(body, "candidates.0.content.parts").Array() {
		sb.WriteString(part.Get("text").String())
	}
	return sb.String()
}

// Gemini-specific request types

type geminiRequest struct {
	Contents          []geminiContent        `json:"contents"`
	SystemInstruction *geminiContent         `json:"systemInstruction,omitempty"`
	GenerationConfig  geminiGenerationConfig `json:"generationConfig"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiGenerationConfig struct {
	Temperature     *float64 `json:"temperature,omitempty"`
	TopP            *float64 `json:"topP,omitempty"`
	TopK            *int     `json:"topK,omitempty"`
	MaxOutputTokens *int     `json:"maxOutputTokens,omitempty"`
}
