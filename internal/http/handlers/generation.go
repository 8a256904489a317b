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

type GenerationHandler struct {
	log        *logger.Logger
	generation services.GenerationService
	composer   services.PromptComposer
	dimensions services.DimensionService
}

func NewGenerationHandler(
	baseLog *logger.Logger,
	generation services.GenerationService,
	composer services.PromptComposer,
	dimensions services.DimensionService,
) *GenerationHandler {
	return &GenerationHandler{
		log:        baseLog.With("handler", "GenerationHandler"),
		generation: generation,
		composer:   composer,
		dimensions: dimensions,
	}
}

// Compose builds a prompt batch from the given dimension stack without
// starting generation, so the client can preview and edit.
func (h *GenerationHandler) Compose(c *gin.Context) {
	var req struct {
		Dimensions      []types.Dimension `json:"dimensions"`
		BaseDescription string            `json:"base_description,omitempty"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid body")
		return
	}
	if err := h.dimensions.Validate(req.Dimensions); err != nil {
		response.Err(c, err)
		return
	}
	prompts, err := h.composer.Compose(dbctx.New(c.Request.Context()), req.Dimensions, req.BaseDescription)
	if err != nil {
		response.Err(c, err)
		return
	}
	response.OK(c, prompts)
}

func (h *GenerationHandler) Start(c *gin.Context) {
	var req struct {
		ProjectID  *uuid.UUID              `json:"project_id,omitempty"`
		Prompts    []types.GeneratedPrompt `json:"prompts"`
		BaseImage  string                  `json:"base_image,omitempty"`
		OutputMode string                  `json:"output_mode,omitempty"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid body")
		return
	}
	if len(req.Prompts) == 0 {
		response.BadRequest(c, "prompts required")
		return
	}
	records, err := h.generation.StartGeneration(dbctx.New(c.Request.Context()), services.StartGenerationInput{
		ProjectID:  req.ProjectID,
		Prompts:    req.Prompts,
		BaseImage:  req.BaseImage,
		OutputMode: req.OutputMode,
	})
	if err != nil {
		response.Err(c, err)
		return
	}
	response.Created(c, records)
}

func (h *GenerationHandler) CheckPrompt(c *gin.Context) {
	promptID := c.Param("promptID")
	if promptID == "" {
		response.BadRequest(c, "prompt id required")
		return
	}
	rec, err := h.generation.CheckPrompt(dbctx.New(c.Request.Context()), promptID)
	if err != nil {
		response.Err(c, err)
		return
	}
	if rec == nil {
		response.NotFound(c, "generation_not_found")
		return
	}
	response.OK(c, rec)
}

func (h *GenerationHandler) ListByProject(c *gin.Context) {
	projectID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	out, err := h.generation.ListByProject(dbctx.New(c.Request.Context()), projectID)
	if err != nil {
		response.Err(c, err)
		return
	}
	response.OK(c, out)
}

func (h *GenerationHandler) Delete(c *gin.Context) {
	id, ok := pathUUID(c, "generationID")
	if !ok {
		return
	}
	if err := h.generation.Delete(dbctx.New(c.Request.Context()), id); err != nil {
		response.Err(c, err)
		return
	}
	response.NoContent(c)
}
