package huggingface

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/upb/llm-content-gateway/services/providers"
)

// DefaultWhoAmIURL is the token introspection endpoint used for health checks
const DefaultWhoAmIURL = "https://huggingface.co/api/whoami-v2"

// HuggingFaceAdapter implements the Provider interface for the Hugging Face Inference API
type HuggingFaceAdapter struct {
	config     providers.ProviderConfig
	descriptor providers.Descriptor
	whoAmIURL  string
	httpClient *http.Client
}

// Option customizes the adapter
type Option func(*HuggingFaceAdapter)

// WithWhoAmIURL overrides the health check endpoint
func WithWhoAmIURL(url string) Option {
	return func(a *HuggingFaceAdapter) {
		a.whoAmIURL = url
	}
}

// NewHuggingFaceAdapter creates a new Hugging Face adapter
func NewHuggingFaceAdapter(config providers.ProviderConfig, opts ...Option) *HuggingFaceAdapter {
	descriptor := providers.MustLookup(providers.HuggingFace)

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

	a := &HuggingFaceAdapter{
		config:     config,
		descriptor: descriptor,
		whoAmIURL:  DefaultWhoAmIURL,
		httpClient: &http.Client{Timeout: config.Timeout},
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *HuggingFaceAdapter) ID() providers.ProviderID { return providers.HuggingFace }

func (a *HuggingFaceAdapter) Name() string { return a.descriptor.Name }

func (a *HuggingFaceAdapter) Priority() int { return a.descriptor.Priority }

func (a *HuggingFaceAdapter) IsAvailable() bool { return a.config.APIKey != "" }

// HealthCheck validates the token against the whoami endpoint
func (a *HuggingFaceAdapter) HealthCheck(ctx context.Context) bool {
	if !a.IsAvailable() {
		return false
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.whoAmIURL, nil)
	if err != nil {
		return false
	}
	req.Header.Set("Authorization", "Bearer "+a.config.APIKey)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	return resp.StatusCode == http.StatusOK
}

// Generate runs one text-generation inference call
func (a *HuggingFaceAdapter) Generate(ctx context.Context, prompt, systemInstruction string, cfg *providers.GenerationConfig) (string, error) {
	if !a.IsAvailable() {
		return "", providers.NewProviderError(a.Name(), 0, "", providers.ErrMissingAPIKey)
	}

	resolved := cfg.Resolve()
	reqBody, err := json.Marshal(inferenceRequest{
		Inputs: formatPrompt(prompt, systemInstruction),
		Parameters: inferenceParameters{
			MaxNewTokens:   *resolved.MaxOutputTokens,
			Temperature:    *resolved.Temperature,
			TopP:           *resolved.TopP,
			TopK:           *resolved.TopK,
			ReturnFullText: false,
		},
	})
	if err != nil {
		return "", providers.NewProviderError(a.Name(), 0, "failed to marshal request", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.config.BaseURL+"/models/"+a.config.Model, bytes.NewReader(reqBody))
	if err != nil {
		return "", providers.NewProviderError(a.Name(), 0, "failed to create request", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+a.config.APIKey)

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
		return "", providers.NewProviderError(a.Name(), httpResp.StatusCode, strings.TrimSpace(string(respBody)), nil)
	}

	text := generatedText(respBody)
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%s: %w", a.Name(), providers.ErrEmptyOutput)
	}

	return text, nil
}

// formatPrompt renders the chat template expected by instruction-tuned models
func formatPrompt(prompt, systemInstruction string) string {
	var sb strings.Builder
	if systemInstruction != "" {
		sb.WriteString("<|system|>")
		sb.WriteString(systemInstruction)
		sb.WriteString("</s>\n")
	}
	sb.WriteString("<|user|>")
	sb.WriteString(prompt)
	sb.WriteString("</s>\n<|assistant|>")
	return sb.String()
}

// generatedText accepts both the list and the single-object response shapes
func generatedText(body []byte) string {
	if r := gjson.GetBytes(body, "0.generated_text"); r.Exists() {
		return r.String()
	}
	return gjson.GetBytes(body, "generated_text").String()
}

type inferenceRequest struct {
	Inputs     string              `json:"inputs"`
	Parameters inferenceParameters `json:"parameters"`
}

type inferenceParameters struct {
	MaxNewTokens   int     `json:"max_new_tokens"`
	Temperature    float64 `json:"temperature"`
	TopP           float64 `json:"top_p"`
	TopK           int     `json:"top_k"`
	ReturnFullText bool    `json:"return_full_text"`
}
