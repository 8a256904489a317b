package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/studiostory/studiostory-backend/internal/http/response"
	"github.com/studiostory/studiostory-backend/internal/pkg/dbctx"
	"github.com/studiostory/studiostory-backend/internal/platform/logger"
	"github.com/studiostory/studiostory-backend/internal/services"
)

type ProjectHandler struct {
	log      *logger.Logger
	projects services.ProjectService
	scripts  services.ScriptService
}

func NewProjectHandler(baseLog *logger.Logger, projects services.ProjectService, scripts services.ScriptService) *ProjectHandler {
	return &ProjectHandler{
		log:      baseLog.With("handler", "ProjectHandler"),
		projects: projects,
		scripts:  scripts,
	}
}

func pathUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		response.BadRequest(c, "invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

func (h *ProjectHandler) Create(c *gin.Context) {
	var input services.CreateProjectInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.BadRequest(c, "invalid body")
		return
	}
	p, err := h.projects.CreateProject(dbctx.New(c.Request.Context()), input)
	if err != nil {
		response.Err(c, err)
		return
	}
	response.Created(c, p)
}

func (h *ProjectHandler) Get(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	p, err := h.projects.GetProject(dbctx.New(c.Request.Context()), id)
	if err != nil {
		response.Err(c, err)
		return
	}
	response.OK(c, p)
}

func (h *ProjectHandler) List(c *gin.Context) {
	out, err := h.projects.ListProjects(dbctx.New(c.Request.Context()))
	if err != nil {
		response.Err(c, err)
		return
	}
	response.OK(c, out)
}

func (h *ProjectHandler) Update(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var body struct {
		Name        *string `json:"name"`
		Description *string `json:"description"`
		BaseImage   *string `json:"base_image"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid body")
		return
	}
	updates := map[string]any{}
	if body.Name != nil {
		updates["name"] = *body.Name
	}
	if body.Description != nil {
		updates["description"] = *body.Description
	}
	if body.BaseImage != nil {
		updates["base_image"] = *body.BaseImage
	}
	p, err := h.projects.UpdateProject(dbctx.New(c.Request.Context()), id, updates)
	if err != nil {
		response.Err(c, err)
		return
	}
	response.OK(c, p)
}

func (h *ProjectHandler) Delete(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	if err := h.projects.DeleteProject(dbctx.New(c.Request.Context()), id); err != nil {
		response.Err(c, err)
		return
	}
	response.NoContent(c)
}

func (h *ProjectHandler) CreateCharacter(c *gin.Context) {
	projectID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var input services.CreateCharacterInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.BadRequest(c, "invalid body")
		return
	}
	out, err := h.projects.CreateCharacter(dbctx.New(c.Request.Context()), projectID, input)
	if err != nil {
		response.Err(c, err)
		return
	}
	response.Created(c, out)
}

func (h *ProjectHandler) ListCharacters(c *gin.Context) {
	projectID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	out, err := h.projects.ListCharacters(dbctx.New(c.Request.Context()), projectID)
	if err != nil {
		response.Err(c, err)
		return
	}
	response.OK(c, out)
}

func (h *ProjectHandler) UpdateCharacter(c *gin.Context) {
	id, ok := pathUUID(c, "characterID")
	if !ok {
		return
	}
	updates, ok := bindUpdates(c, "name", "role", "description", "avatar_url")
	if !ok {
		return
	}
	if err := h.projects.UpdateCharacter(dbctx.New(c.Request.Context()), id, updates); err != nil {
		response.Err(c, err)
		return
	}
	response.NoContent(c)
}

func (h *ProjectHandler) DeleteCharacter(c *gin.Context) {
	id, ok := pathUUID(c, "characterID")
	if !ok {
		return
	}
	if err := h.projects.DeleteCharacter(dbctx.New(c.Request.Context()), id); err != nil {
		response.Err(c, err)
		return
	}
	response.NoContent(c)
}

func (h *ProjectHandler) CreateFaction(c *gin.Context) {
	projectID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var input services.CreateFactionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.BadRequest(c, "invalid body")
		return
	}
	out, err := h.projects.CreateFaction(dbctx.New(c.Request.Context()), projectID, input)
	if err != nil {
		response.Err(c, err)
		return
	}
	response.Created(c, out)
}

func (h *ProjectHandler) ListFactions(c *gin.Context) {
	projectID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	out, err := h.projects.ListFactions(dbctx.New(c.Request.Context()), projectID)
	if err != nil {
		response.Err(c, err)
		return
	}
	response.OK(c, out)
}

func (h *ProjectHandler) UpdateFaction(c *gin.Context) {
	id, ok := pathUUID(c, "factionID")
	if !ok {
		return
	}
	updates, ok := bindUpdates(c, "name", "description", "ideology", "color", "avatar_url")
	if !ok {
		return
	}
	if err := h.projects.UpdateFaction(dbctx.New(c.Request.Context()), id, updates); err != nil {
		response.Err(c, err)
		return
	}
	response.NoContent(c)
}

func (h *ProjectHandler) DeleteFaction(c *gin.Context) {
	id, ok := pathUUID(c, "factionID")
	if !ok {
		return
	}
	if err := h.projects.DeleteFaction(dbctx.New(c.Request.Context()), id); err != nil {
		response.Err(c, err)
		return
	}
	response.NoContent(c)
}

func (h *ProjectHandler) CreateScene(c *gin.Context) {
	projectID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var input services.CreateSceneInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.BadRequest(c, "invalid body")
		return
	}
	out, err := h.projects.CreateScene(dbctx.New(c.Request.Context()), projectID, input)
	if err != nil {
		response.Err(c, err)
		return
	}
	response.Created(c, out)
}

func (h *ProjectHandler) ListScenes(c *gin.Context) {
	projectID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	out, err := h.projects.ListScenes(dbctx.New(c.Request.Context()), projectID)
	if err != nil {
		response.Err(c, err)
		return
	}
	response.OK(c, out)
}

func (h *ProjectHandler) UpdateScene(c *gin.Context) {
	id, ok := pathUUID(c, "sceneID")
	if !ok {
		return
	}
	updates, ok := bindUpdates(c, "title", "summary", "script", "sort_index")
	if !ok {
		return
	}
	if err := h.projects.UpdateScene(dbctx.New(c.Request.Context()), id, updates); err != nil {
		response.Err(c, err)
		return
	}
	response.NoContent(c)
}

func (h *ProjectHandler) DeleteScene(c *gin.Context) {
	id, ok := pathUUID(c, "sceneID")
	if !ok {
		return
	}
	if err := h.projects.DeleteScene(dbctx.New(c.Request.Context()), id); err != nil {
		response.Err(c, err)
		return
	}
	response.NoContent(c)
}

func (h *ProjectHandler) DraftSceneScript(c *gin.Context) {
	id, ok := pathUUID(c, "sceneID")
	if !ok {
		return
	}
	script, err := h.scripts.DraftSceneScript(c.Request.Context(), dbctx.New(c.Request.Context()), id)
	if err != nil {
		response.Err(c, err)
		return
	}
	response.OK(c, gin.H{"script": script})
}

// bindUpdates reads the body as a flat object and keeps only allowed keys,
// so a client cannot poke arbitrary columns through the update path.
func bindUpdates(c *gin.Context, allowed ...string) (map[string]any, bool) {
	var body map[string]any
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid body")
		return nil, false
	}
	updates := map[string]any{}
	for _, key := range allowed {
		if v, ok := body[key]; ok {
			updates[key] = v
		}
	}
	return updates, true
}
