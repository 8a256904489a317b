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

type SessionHandler struct {
	log      *logger.Logger
	tracker  services.SessionTracker
	learning services.LearningService
}

func NewSessionHandler(baseLog *logger.Logger, tracker services.SessionTracker, learning services.LearningService) *SessionHandler {
	return &SessionHandler{
		log:      baseLog.With("handler", "SessionHandler"),
		tracker:  tracker,
		learning: learning,
	}
}

func (h *SessionHandler) Start(c *gin.Context) {
	var req struct {
		ProjectID  *uuid.UUID                `json:"project_id,omitempty"`
		Dimensions []types.DimensionSnapshot `json:"dimensions"`
		BaseImage  string                    `json:"base_image,omitempty"`
		OutputMode string                    `json:"output_mode,omitempty"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid body")
		return
	}
	session := h.tracker.Start(services.StartSessionInput{
		ProjectID:  req.ProjectID,
		Dimensions: req.Dimensions,
		BaseImage:  req.BaseImage,
		OutputMode: req.OutputMode,
	})
	response.Created(c, session)
}

func (h *SessionHandler) Active(c *gin.Context) {
	response.OK(c, h.tracker.Active())
}

func (h *SessionHandler) MarkSatisfied(c *gin.Context) {
	var req struct {
		FinalFeedback string `json:"final_feedback,omitempty"`
	}
	_ = c.ShouldBindJSON(&req)

	dbc := dbctx.New(c.Request.Context())
	session, err := h.tracker.MarkSatisfied(dbc, req.FinalFeedback)
	if err != nil {
		response.Err(c, err)
		return
	}
	if session == nil {
		response.NotFound(c, "no_active_session")
		return
	}

	// A satisfied session feeds the combination learner right away.
	if _, err := h.learning.LearnDimensionCombinations(dbc); err != nil {
		h.log.Warn("Combination learning pass failed", "error", err)
	}
	response.OK(c, session)
}

func (h *SessionHandler) End(c *gin.Context) {
	var req struct {
		FinalFeedback string `json:"final_feedback,omitempty"`
	}
	_ = c.ShouldBindJSON(&req)

	session, err := h.tracker.EndUnsuccessful(dbctx.New(c.Request.Context()), req.FinalFeedback)
	if err != nil {
		response.Err(c, err)
		return
	}
	if session == nil {
		response.NotFound(c, "no_active_session")
		return
	}
	response.OK(c, session)
}
