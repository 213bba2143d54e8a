package content

import (
	"context"
	"fmt"
	"strings"

	"github.com/upb/llm-content-gateway/services/providers"
	"github.com/upb/llm-content-gateway/services/routing"
)

// ProviderStatus summarizes configuration and reachability of all providers
type ProviderStatus struct {
	Available      []string        `json:"available"`
	Health         map[string]bool `json:"health"`
	Recommendation string          `json:"recommendation"`
}

// CheckProviderStatus probes every provider and attaches an operator hint
func (s *Service) CheckProviderStatus(ctx context.Context) *ProviderStatus {
	available := s.generator.AvailableProviders()
	health := s.generator.CheckProviderHealth(ctx)

	return &ProviderStatus{
		Available:      available,
		Health:         health,
		Recommendation: recommendation(available, health),
	}
}

func recommendation(available []string, health map[string]bool) string {
	switch len(available) {
	case 0:
		return "No AI providers configured. Add at least one API key to get started."
	case 1:
		return "Only one provider configured. Add more providers for better reliability."
	}

	healthy := 0
	for _, ok := range health {
		if ok {
			healthy++
		}
	}

	switch {
	case healthy == 0:
		return "All providers are currently unhealthy. Please check your API keys and try again."
	case healthy < len(available):
		return fmt.Sprintf("%d/%d providers are healthy. Some providers may be experiencing issues.", healthy, len(available))
	default:
		return "All providers are healthy and ready to use!"
	}
}

// APIKeyInfo tells an operator where to obtain a provider credential
type APIKeyInfo struct {
	Name        string `json:"name"`
	EnvVar      string `json:"envVar"`
	URL         string `json:"url"`
	Free        bool   `json:"free"`
	Description string `json:"description"`
}

// RecommendedAPIKeys lists every supported provider in priority order
func (s *Service) RecommendedAPIKeys() []APIKeyInfo {
	catalog := providers.Catalog()
	out := make([]APIKeyInfo, 0, len(catalog))
	for _, d := range catalog {
		out = append(out, APIKeyInfo{
			Name:        d.Name,
			EnvVar:      d.CredentialEnv[0],
			URL:         d.KeyURL,
			Free:        d.Free,
			Description: d.Description,
		})
	}
	return out
}

// User-facing failure messages
const (
	MsgNotConfigured  = "AI service not configured. Please add API keys in Settings."
	MsgAllFailed      = "All AI services are currently unavailable. Please try again in a few moments."
	MsgHighDemand     = "AI service is experiencing high demand. Trying alternative providers..."
	MsgRateLimited    = "Rate limit reached. Switching to alternative provider..."
	MsgInvalidAPIKey  = "API Key is missing or invalid. Please check your configuration."
	MsgNetworkIssue   = "Network connection issue. Please check your internet and try again."
	MsgGenericFailure = "An error occurred while generating content. Please try again."
)

// UserMessage maps a generation error to one short actionable sentence.
// Raw backend text is never returned.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	if routing.IsNoProviders(err) {
		return MsgNotConfigured
	}
	if routing.IsAllFailed(err) {
		return MsgAllFailed
	}

	msg := strings.ToLower(err.Error())
	switch {
	case containsAny(msg, "503", "overloaded"):
		return MsgHighDemand
	case containsAny(msg, "429", "rate limit", "quota"):
		return MsgRateLimited
	case strings.Contains(msg, "api key"):
		return MsgInvalidAPIKey
	case containsAny(msg, "econnreset", "etimedout", "timeout", "connection reset"):
		return MsgNetworkIssue
	default:
		return MsgGenericFailure
	}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
