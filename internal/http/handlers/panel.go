package handlers

import (
	"github.com/gin-gonic/gin"

	types "github.com/studiostory/studiostory-backend/internal/domain"
	"github.com/studiostory/studiostory-backend/internal/http/response"
	"github.com/studiostory/studiostory-backend/internal/pkg/dbctx"
	"github.com/studiostory/studiostory-backend/internal/platform/logger"
	"github.com/studiostory/studiostory-backend/internal/services"
)

type PanelHandler struct {
	log   *logger.Logger
	panel services.PanelService
}

func NewPanelHandler(baseLog *logger.Logger, panel services.PanelService) *PanelHandler {
	return &PanelHandler{
		log:   baseLog.With("handler", "PanelHandler"),
		panel: panel,
	}
}

func (h *PanelHandler) Activate(c *gin.Context) {
	projectID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	state, err := h.panel.SetActiveProject(dbctx.New(c.Request.Context()), projectID)
	if err != nil {
		response.Err(c, err)
		return
	}
	response.OK(c, state)
}

// Save resolves the image server-side: clients name the prompt, the stored
// generation record supplies the URL.
func (h *PanelHandler) Save(c *gin.Context) {
	var req struct {
		PromptID string `json:"prompt_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.PromptID == "" {
		response.BadRequest(c, "prompt_id required")
		return
	}
	saved, err := h.panel.SaveGeneratedImage(dbctx.New(c.Request.Context()), req.PromptID)
	if err != nil {
		response.Err(c, err)
		return
	}
	response.OK(c, gin.H{"saved": saved})
}

func (h *PanelHandler) Get(c *gin.Context) {
	state, err := h.panel.GetPanelState(dbctx.New(c.Request.Context()))
	if err != nil {
		response.Err(c, err)
		return
	}
	response.OK(c, state)
}

func (h *PanelHandler) ResetTracking(c *gin.Context) {
	h.panel.ResetSaveTracking()
	response.NoContent(c)
}

func (h *PanelHandler) Hydrate(c *gin.Context) {
	projectID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Images []*types.SavedPanelImage `json:"images"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid body")
		return
	}
	h.panel.HydratePanelImages(projectID, req.Images)
	response.NoContent(c)
}

func (h *PanelHandler) Clear(c *gin.Context) {
	if err := h.panel.ClearPanel(dbctx.New(c.Request.Context())); err != nil {
		response.Err(c, err)
		return
	}
	response.NoContent(c)
}
