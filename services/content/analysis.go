package content

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/tidwall/gjson"
)

// AnalysisType selects one of the fixed analysis prompts
type AnalysisType string

const (
	AnalysisSentiment   AnalysisType = "sentiment"
	AnalysisReadability AnalysisType = "readability"
	AnalysisSEO         AnalysisType = "seo"
	AnalysisEngagement  AnalysisType = "engagement"
)

// MaxSuggestions caps GetSuggestions output
const MaxSuggestions = 5

// ErrUnknownAnalysisType is returned for kinds outside the fixed set
var ErrUnknownAnalysisType = errors.New("unknown analysis type")

type analysisPrompt struct {
	prefix string
	system string
}

var analysisPrompts = map[AnalysisType]analysisPrompt{
	AnalysisSentiment: {
		prefix: "Analyze the sentiment and emotional tone of this content. Provide a score from 1-10 and key insights:",
		system: "You are a sentiment analysis expert. Provide structured JSON output.",
	},
	AnalysisReadability: {
		prefix: "Analyze the readability of this content. Provide Flesch Reading Ease score, grade level, and suggestions:",
		system: "You are a readability expert. Provide structured JSON output.",
	},
	AnalysisSEO: {
		prefix: "Analyze this content for SEO. Provide keyword density, meta description suggestion, and SEO score:",
		system: "You are an SEO expert. Provide structured JSON output.",
	},
	AnalysisEngagement: {
		prefix: "Analyze the engagement potential of this content. Rate hooks, CTAs, and emotional triggers:",
		system: "You are a content engagement expert. Provide structured JSON output.",
	},
}

// Valid reports whether t is a known analysis kind
func (t AnalysisType) Valid() bool {
	_, ok := analysisPrompts[t]
	return ok
}

// AnalyzeContent asks for a structured analysis and parses it opportunistically.
// Anything that is not a JSON object comes back as {"analysis": raw}.
func (s *Service) AnalyzeContent(ctx context.Context, content string, kind AnalysisType) (map[string]any, error) {
	p, ok := analysisPrompts[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAnalysisType, kind)
	}

	result, err := s.GenerateContent(ctx, p.prefix+"\n\n"+content, p.system, nil)
	if err != nil {
		return nil, err
	}

	return parseAnalysis(result.Content), nil
}

func parseAnalysis(raw string) map[string]any {
	body := stripCodeFence(raw)
	if gjson.Valid(body) && gjson.Parse(body).IsObject() {
		var out map[string]any
		if err := json.Unmarshal([]byte(body), &out); err == nil {
			return out
		}
	}
	return map[string]any{"analysis": raw}
}

// GetSuggestions returns up to MaxSuggestions improvement ideas for content
func (s *Service) GetSuggestions(ctx context.Context, content, agentType string) ([]string, error) {
	prompt := fmt.Sprintf(
		"Suggest %d specific, actionable improvements for this %s content. Respond with a JSON array of short strings only:\n\n%s",
		MaxSuggestions, agentType, content,
	)

	result, err := s.GenerateContent(ctx, prompt, "You are an expert content strategist. Provide structured JSON output.", nil)
	if err != nil {
		return nil, err
	}

	suggestions := parseSuggestions(result.Content)
	if len(suggestions) > MaxSuggestions {
		suggestions = suggestions[:MaxSuggestions]
	}
	return suggestions, nil
}

var listMarker = regexp.MustCompile(`^\s*(?:[-*•]|\d+[.)])\s*`)

func parseSuggestions(raw string) []string {
	body := stripCodeFence(raw)

	if gjson.Valid(body) {
		parsed := gjson.Parse(body)
		if parsed.IsArray() {
			return collectStrings(parsed)
		}
		if list := parsed.Get("suggestions"); list.IsArray() {
			return collectStrings(list)
		}
	}

	var out []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(listMarker.ReplaceAllString(line, ""))
		if line == "" || strings.HasPrefix(line, "```") {
			continue
		}
		out = append(out, line)
	}
	return out
}

func collectStrings(list gjson.Result) []string {
	var out []string
	list.ForEach(func(_, value gjson.Result) bool {
		if text := strings.TrimSpace(value.String()); text != "" {
			out = append(out, text)
		}
		return true
	})
	return out
}

var codeFence = regexp.MustCompile("(?s)^```[a-zA-Z]*\\s*\\n?(.*?)\\n?```$")

// stripCodeFence unwraps a single Markdown code block if the text is exactly one
func stripCodeFence(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if m := codeFence.FindStringSubmatch(trimmed); m != nil {
		return strings.TrimSpace(m[1])
	}
	return trimmed
}
