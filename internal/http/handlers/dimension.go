package handlers

import (
	"github.com/gin-gonic/gin"

	types "github.com/studiostory/studiostory-backend/internal/domain"
	"github.com/studiostory/studiostory-backend/internal/http/response"
	"github.com/studiostory/studiostory-backend/internal/pkg/dbctx"
	"github.com/studiostory/studiostory-backend/internal/platform/logger"
	"github.com/studiostory/studiostory-backend/internal/services"
)

type DimensionHandler struct {
	log        *logger.Logger
	dimensions services.DimensionService
}

func NewDimensionHandler(baseLog *logger.Logger, dimensions services.DimensionService) *DimensionHandler {
	return &DimensionHandler{
		log:        baseLog.With("handler", "DimensionHandler"),
		dimensions: dimensions,
	}
}

func (h *DimensionHandler) Types(c *gin.Context) {
	response.OK(c, h.dimensions.Types())
}

func (h *DimensionHandler) Presets(c *gin.Context) {
	response.OK(c, h.dimensions.Presets())
}

func (h *DimensionHandler) ApplyPreset(c *gin.Context) {
	var req struct {
		Name string `json:"name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Name == "" {
		response.BadRequest(c, "name required")
		return
	}
	dims, err := h.dimensions.ApplyPreset(req.Name)
	if err != nil {
		response.Err(c, err)
		return
	}
	response.OK(c, dims)
}

func (h *DimensionHandler) Save(c *gin.Context) {
	projectID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Dimensions []types.Dimension `json:"dimensions"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid body")
		return
	}
	if err := h.dimensions.SaveDimensions(dbctx.New(c.Request.Context()), projectID, req.Dimensions); err != nil {
		response.Err(c, err)
		return
	}
	response.OK(c, req.Dimensions)
}

func (h *DimensionHandler) Load(c *gin.Context) {
	projectID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	dims, err := h.dimensions.LoadDimensions(dbctx.New(c.Request.Context()), projectID)
	if err != nil {
		response.Err(c, err)
		return
	}
	response.OK(c, dims)
}
