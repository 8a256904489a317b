package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	types "github.com/studiostory/studiostory-backend/internal/domain"
	"github.com/studiostory/studiostory-backend/internal/http/response"
	"github.com/studiostory/studiostory-backend/internal/pkg/dbctx"
	"github.com/studiostory/studiostory-backend/internal/platform/logger"
	"github.com/studiostory/studiostory-backend/internal/services"
)

type LearningHandler struct {
	log         *logger.Logger
	learning    services.LearningService
	suggestions services.SuggestionService
	scoring     services.ScoringService
}

func NewLearningHandler(
	baseLog *logger.Logger,
	learning services.LearningService,
	suggestions services.SuggestionService,
	scoring services.ScoringService,
) *LearningHandler {
	return &LearningHandler{
		log:         baseLog.With("handler", "LearningHandler"),
		learning:    learning,
		suggestions: suggestions,
		scoring:     scoring,
	}
}

type feedbackRequest struct {
	ProjectID *uuid.UUID            `json:"project_id,omitempty"`
	Prompt    types.GeneratedPrompt `json:"prompt"`
	Feedback  types.Feedback        `json:"feedback"`
}

func (h *LearningHandler) RecordFeedback(c *gin.Context) {
	var req feedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid body")
		return
	}
	if req.Feedback.Rating != types.RatingUp && req.Feedback.Rating != types.RatingDown {
		response.BadRequest(c, "rating must be up or down")
		return
	}
	prefs, err := h.learning.RecordFeedback(dbctx.New(c.Request.Context()), req.ProjectID, req.Prompt, req.Feedback)
	if err != nil {
		response.Err(c, err)
		return
	}
	response.OK(c, gin.H{"preferences": prefs})
}

type promptRequest struct {
	Prompt types.GeneratedPrompt `json:"prompt"`
}

func (h *LearningHandler) Suggestions(c *gin.Context) {
	var req promptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid body")
		return
	}
	out := h.suggestions.GenerateRefinementSuggestionsAI(c.Request.Context(), dbctx.New(c.Request.Context()), req.Prompt)
	response.OK(c, out)
}

func (h *LearningHandler) Explanation(c *gin.Context) {
	var req promptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid body")
		return
	}
	out, err := h.suggestions.GeneratePromptExplanation(dbctx.New(c.Request.Context()), req.Prompt)
	if err != nil {
		response.Err(c, err)
		return
	}
	response.OK(c, out)
}

func (h *LearningHandler) Variants(c *gin.Context) {
	var req promptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid body")
		return
	}
	out, err := h.suggestions.GenerateABVariants(dbctx.New(c.Request.Context()), req.Prompt)
	if err != nil {
		response.Err(c, err)
		return
	}
	response.OK(c, out)
}

func (h *LearningHandler) VariantResult(c *gin.Context) {
	var req struct {
		Label    string `json:"label"`
		Positive bool   `json:"positive"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Label == "" {
		response.BadRequest(c, "invalid body")
		return
	}
	stat, err := h.suggestions.RecordVariantResult(dbctx.New(c.Request.Context()), req.Label, req.Positive)
	if err != nil {
		response.Err(c, err)
		return
	}
	response.OK(c, stat)
}

func (h *LearningHandler) Sentiment(c *gin.Context) {
	var req struct {
		Text string `json:"text"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid body")
		return
	}
	response.OK(c, h.suggestions.AnalyzeTextSentiment(req.Text))
}

func (h *LearningHandler) Status(c *gin.Context) {
	status, err := h.scoring.GetLearningStatus(dbctx.New(c.Request.Context()))
	if err != nil {
		response.Err(c, err)
		return
	}
	response.OK(c, status)
}

func (h *LearningHandler) Context(c *gin.Context) {
	learned, err := h.scoring.BuildLearnedContext(dbctx.New(c.Request.Context()))
	if err != nil {
		response.Err(c, err)
		return
	}
	response.OK(c, learned)
}

func (h *LearningHandler) ScorePrompt(c *gin.Context) {
	var req promptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid body")
		return
	}
	score, err := h.scoring.ScorePrompt(dbctx.New(c.Request.Context()), req.Prompt)
	if err != nil {
		response.Err(c, err)
		return
	}
	response.OK(c, gin.H{"score": score})
}

func (h *LearningHandler) SmartSuggestions(c *gin.Context) {
	out, err := h.suggestions.GenerateSmartSuggestions(dbctx.New(c.Request.Context()))
	if err != nil {
		response.Err(c, err)
		return
	}
	response.OK(c, out)
}

func (h *LearningHandler) SmartSuggestionShown(c *gin.Context) {
	var req types.SmartSuggestion
	if err := c.ShouldBindJSON(&req); err != nil || req.ID == uuid.Nil {
		response.BadRequest(c, "invalid body")
		return
	}
	if err := h.suggestions.MarkSuggestionShown(dbctx.New(c.Request.Context()), &req); err != nil {
		response.Err(c, err)
		return
	}
	response.OK(c, req)
}

func (h *LearningHandler) SmartSuggestionAccepted(c *gin.Context) {
	id, err := uuid.Parse(c.Param("suggestionID"))
	if err != nil {
		response.BadRequest(c, "invalid suggestion id")
		return
	}
	var req struct {
		Accepted bool `json:"accepted"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid body")
		return
	}
	if err := h.suggestions.MarkSuggestionAccepted(dbctx.New(c.Request.Context()), id, req.Accepted); err != nil {
		response.Err(c, err)
		return
	}
	response.NoContent(c)
}

func (h *LearningHandler) ShownSuggestions(c *gin.Context) {
	out, err := h.suggestions.ListShownSuggestions(dbctx.New(c.Request.Context()), 20)
	if err != nil {
		response.Err(c, err)
		return
	}
	response.OK(c, out)
}

func (h *LearningHandler) LearnCombinations(c *gin.Context) {
	out, err := h.learning.LearnDimensionCombinations(dbctx.New(c.Request.Context()))
	if err != nil {
		response.Err(c, err)
		return
	}
	response.OK(c, out)
}
