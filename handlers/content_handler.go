package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/upb/llm-content-gateway/middleware"
	"github.com/upb/llm-content-gateway/models"
	"github.com/upb/llm-content-gateway/services"
	"github.com/upb/llm-content-gateway/services/content"
	"github.com/upb/llm-content-gateway/services/history"
	"github.com/upb/llm-content-gateway/services/providers"
	"github.com/upb/llm-content-gateway/services/routing"
	"github.com/upb/llm-content-gateway/utils"
	"go.uber.org/zap"
)

// ContentService is the content facade used by the handler
type ContentService interface {
	GenerateContent(ctx context.Context, prompt, systemInstruction string, cfg *providers.GenerationConfig) (*routing.GenerationResult, error)
	GenerateContentStream(ctx context.Context, prompt, systemInstruction string, cfg *providers.GenerationConfig, onChunk content.ChunkFunc) (*routing.GenerationResult, error)
	GenerateConversation(ctx context.Context, turns []content.Turn, systemInstruction string) (*routing.GenerationResult, error)
	AnalyzeContent(ctx context.Context, text string, kind content.AnalysisType) (map[string]any, error)
	GetSuggestions(ctx context.Context, text, agentType string) ([]string, error)
	ApplySuggestion(ctx context.Context, text, suggestion string, onChunk content.ChunkFunc) (*routing.GenerationResult, error)
	RefineContent(ctx context.Context, text, instruction string, onChunk content.ChunkFunc) (*routing.GenerationResult, error)
}

// ResultRecorder persists generated output. It is nil when no database is configured.
type ResultRecorder interface {
	SaveResult(ctx context.Context, req history.SaveRequest) (*models.GeneratedResult, error)
}

// GenerateRequest is the body of the generate and stream endpoints
type GenerateRequest struct {
	Prompt            string                      `json:"prompt" validate:"notblank"`
	SystemInstruction string                      `json:"systemInstruction,omitempty"`
	Config            *providers.GenerationConfig `json:"config,omitempty"`
	ProjectID         *uuid.UUID                  `json:"projectId,omitempty"`
	AgentID           string                      `json:"agentId,omitempty" validate:"max=100"`
	Inputs            map[string]interface{}      `json:"inputs,omitempty"`
}

// ConversationRequest carries the full history of a chat session
type ConversationRequest struct {
	History           []content.Turn `json:"history" validate:"required,min=1,dive"`
	SystemInstruction string         `json:"systemInstruction,omitempty"`
}

// AnalyzeRequest asks for one kind of content analysis
type AnalyzeRequest struct {
	Content string `json:"content" validate:"notblank"`
	Type    string `json:"type" validate:"required,oneof=sentiment readability seo engagement"`
}

// SuggestionsRequest asks for editing suggestions
type SuggestionsRequest struct {
	Content   string `json:"content" validate:"notblank"`
	AgentType string `json:"agentType" validate:"required"`
}

// ApplySuggestionRequest applies one suggestion to content
type ApplySuggestionRequest struct {
	Content    string `json:"content" validate:"notblank"`
	Suggestion string `json:"suggestion" validate:"notblank"`
}

// RefineRequest rewrites content following an instruction
type RefineRequest struct {
	Content     string `json:"content" validate:"notblank"`
	Instruction string `json:"instruction" validate:"notblank"`
}

// GenerateResponse is the body returned by every single-shot generation
type GenerateResponse struct {
	Content  string     `json:"content"`
	Provider string     `json:"provider"`
	ResultID *uuid.UUID `json:"resultId,omitempty"`
}

// SuggestionsResponse wraps the suggestion list
type SuggestionsResponse struct {
	Suggestions []string `json:"suggestions"`
}

type chunkEvent struct {
	Text string `json:"text"`
}

type errorEvent struct {
	Message string `json:"message"`
}

// ContentHandler serves the content endpoints
type ContentHandler struct {
	service  ContentService
	recorder ResultRecorder
	logger   *zap.Logger
}

// NewContentHandler creates a new ContentHandler. recorder may be nil.
func NewContentHandler(service ContentService, recorder ResultRecorder, logger *zap.Logger) *ContentHandler {
	return &ContentHandler{
		service:  service,
		recorder: recorder,
		logger:   logger,
	}
}

// HandleGenerate handles POST /api/v1/content/generate
func (h *ContentHandler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req GenerateRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.ProjectID != nil && h.recorder == nil {
		HandleServiceError(w, services.ErrPersistenceDisabled, h.logger)
		return
	}

	result, err := h.service.GenerateContent(ctx, req.Prompt, req.SystemInstruction, req.Config)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	resp := GenerateResponse{Content: result.Content, Provider: result.Provider}
	if req.ProjectID != nil {
		saved, err := h.recorder.SaveResult(ctx, history.SaveRequest{
			ProjectID: *req.ProjectID,
			AgentID:   req.AgentID,
			UserID:    middleware.GetUserIDFromContext(ctx),
			Content:   result.Content,
			Provider:  result.Provider,
			Inputs:    saveInputs(req),
		})
		if err != nil {
			HandleServiceError(w, err, h.logger)
			return
		}
		resp.ResultID = &saved.ID
	}

	_ = utils.WriteOK(w, resp)
}

// HandleStream handles POST /api/v1/content/stream. Each chunk is the
// growing response prefix; a final "done" event carries the provider.
func (h *ContentHandler) HandleStream(w http.ResponseWriter, r *http.Request) {
	var req GenerateRequest
	if !h.decode(w, r, &req) {
		return
	}

	var stream *utils.EventStream
	onChunk := func(text string) error {
		if stream == nil {
			var err error
			if stream, err = utils.NewEventStream(w); err != nil {
				return err
			}
		}
		return stream.Send("", chunkEvent{Text: text})
	}

	result, err := h.service.GenerateContentStream(r.Context(), req.Prompt, req.SystemInstruction, req.Config, onChunk)
	if err != nil {
		if stream == nil {
			h.fail(w, r, err)
			return
		}
		h.logger.Warn("stream aborted",
			zap.String("request_id", middleware.GetRequestIDFromContext(r.Context())),
			zap.Error(err))
		_ = stream.Send("error", errorEvent{Message: content.UserMessage(err)})
		return
	}

	if stream == nil {
		if stream, err = utils.NewEventStream(w); err != nil {
			h.logger.Error("failed to open event stream", zap.Error(err))
			return
		}
	}
	_ = stream.Send("done", GenerateResponse{Content: result.Content, Provider: result.Provider})
}

// HandleConversation handles POST /api/v1/content/conversation
func (h *ContentHandler) HandleConversation(w http.ResponseWriter, r *http.Request) {
	var req ConversationRequest
	if !h.decode(w, r, &req) {
		return
	}

	result, err := h.service.GenerateConversation(r.Context(), req.History, req.SystemInstruction)
	h.respond(w, r, result, err)
}

// HandleAnalyze handles POST /api/v1/content/analyze
func (h *ContentHandler) HandleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeRequest
	if !h.decode(w, r, &req) {
		return
	}

	analysis, err := h.service.AnalyzeContent(r.Context(), req.Content, content.AnalysisType(req.Type))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	_ = utils.WriteOK(w, analysis)
}

// HandleSuggestions handles POST /api/v1/content/suggestions
func (h *ContentHandler) HandleSuggestions(w http.ResponseWriter, r *http.Request) {
	var req SuggestionsRequest
	if !h.decode(w, r, &req) {
		return
	}

	suggestions, err := h.service.GetSuggestions(r.Context(), req.Content, req.AgentType)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if suggestions == nil {
		suggestions = []string{}
	}
	_ = utils.WriteOK(w, SuggestionsResponse{Suggestions: suggestions})
}

// HandleApplySuggestion handles POST /api/v1/content/suggestions/apply
func (h *ContentHandler) HandleApplySuggestion(w http.ResponseWriter, r *http.Request) {
	var req ApplySuggestionRequest
	if !h.decode(w, r, &req) {
		return
	}

	result, err := h.service.ApplySuggestion(r.Context(), req.Content, req.Suggestion, nil)
	h.respond(w, r, result, err)
}

// HandleRefine handles POST /api/v1/content/refine
func (h *ContentHandler) HandleRefine(w http.ResponseWriter, r *http.Request) {
	var req RefineRequest
	if !h.decode(w, r, &req) {
		return
	}

	result, err := h.service.RefineContent(r.Context(), req.Content, req.Instruction, nil)
	h.respond(w, r, result, err)
}

// decode parses and validates the body, writing a 400 on failure
func (h *ContentHandler) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	requestID := middleware.GetRequestIDFromContext(r.Context())

	if err := utils.DecodeJSON(r, dst); err != nil {
		h.logger.Warn("failed to parse request body",
			zap.String("request_id", requestID),
			zap.Error(err))
		_ = utils.WriteBadRequest(w, "Invalid request body", map[string]interface{}{"body": err.Error()})
		return false
	}
	if err := utils.ValidateStruct(dst); err != nil {
		h.logger.Warn("request validation failed",
			zap.String("request_id", requestID),
			zap.Error(err))
		HandleValidationError(w, err, h.logger)
		return false
	}
	return true
}

func (h *ContentHandler) respond(w http.ResponseWriter, r *http.Request, result *routing.GenerationResult, err error) {
	if err != nil {
		h.fail(w, r, err)
		return
	}
	_ = utils.WriteOK(w, GenerateResponse{Content: result.Content, Provider: result.Provider})
}

func (h *ContentHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, context.Canceled) {
		h.logger.Debug("client went away",
			zap.String("request_id", middleware.GetRequestIDFromContext(r.Context())))
		return
	}
	h.logger.Warn("generation failed",
		zap.String("request_id", middleware.GetRequestIDFromContext(r.Context())),
		zap.Error(err))
	HandleServiceError(w, generationError(err), h.logger)
}

func saveInputs(req GenerateRequest) map[string]interface{} {
	inputs := make(map[string]interface{}, len(req.Inputs)+2)
	for k, v := range req.Inputs {
		inputs[k] = v
	}
	inputs["prompt"] = req.Prompt
	if req.SystemInstruction != "" {
		inputs["systemInstruction"] = req.SystemInstruction
	}
	return inputs
}
