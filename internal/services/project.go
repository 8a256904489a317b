package services

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/studiostory/studiostory-backend/internal/data/repos"
	types "github.com/studiostory/studiostory-backend/internal/domain"
	"github.com/studiostory/studiostory-backend/internal/pkg/dbctx"
	"github.com/studiostory/studiostory-backend/internal/platform/apierr"
	"github.com/studiostory/studiostory-backend/internal/platform/logger"
)

type CreateProjectInput struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	BaseImage   string `json:"base_image,omitempty"`
}

type CreateCharacterInput struct {
	Name        string `json:"name"`
	Role        string `json:"role,omitempty"`
	Description string `json:"description,omitempty"`
}

type CreateFactionInput struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Ideology    string `json:"ideology,omitempty"`
	Color       string `json:"color,omitempty"`
}

type CreateSceneInput struct {
	Title     string `json:"title"`
	Summary   string `json:"summary,omitempty"`
	SortIndex int    `json:"sort_index"`
}

// ProjectService manages projects and their story entities. New entities get
// a placeholder avatar immediately so the UI never renders an empty tile.
type ProjectService interface {
	CreateProject(dbc dbctx.Context, input CreateProjectInput) (*types.Project, error)
	GetProject(dbc dbctx.Context, id uuid.UUID) (*types.Project, error)
	ListProjects(dbc dbctx.Context) ([]*types.Project, error)
	UpdateProject(dbc dbctx.Context, id uuid.UUID, updates map[string]any) (*types.Project, error)
	DeleteProject(dbc dbctx.Context, id uuid.UUID) error

	CreateCharacter(dbc dbctx.Context, projectID uuid.UUID, input CreateCharacterInput) (*types.Character, error)
	ListCharacters(dbc dbctx.Context, projectID uuid.UUID) ([]*types.Character, error)
	UpdateCharacter(dbc dbctx.Context, id uuid.UUID, updates map[string]any) error
	DeleteCharacter(dbc dbctx.Context, id uuid.UUID) error

	CreateFaction(dbc dbctx.Context, projectID uuid.UUID, input CreateFactionInput) (*types.Faction, error)
	ListFactions(dbc dbctx.Context, projectID uuid.UUID) ([]*types.Faction, error)
	UpdateFaction(dbc dbctx.Context, id uuid.UUID, updates map[string]any) error
	DeleteFaction(dbc dbctx.Context, id uuid.UUID) error

	CreateScene(dbc dbctx.Context, projectID uuid.UUID, input CreateSceneInput) (*types.Scene, error)
	GetScene(dbc dbctx.Context, id uuid.UUID) (*types.Scene, error)
	ListScenes(dbc dbctx.Context, projectID uuid.UUID) ([]*types.Scene, error)
	UpdateScene(dbc dbctx.Context, id uuid.UUID, updates map[string]any) error
	DeleteScene(dbc dbctx.Context, id uuid.UUID) error
}

type projectService struct {
	log        *logger.Logger
	projects   repos.ProjectRepo
	characters repos.CharacterRepo
	factions   repos.FactionRepo
	scenes     repos.SceneRepo
	avatars    AvatarService
}

func NewProjectService(
	baseLog *logger.Logger,
	projects repos.ProjectRepo,
	characters repos.CharacterRepo,
	factions repos.FactionRepo,
	scenes repos.SceneRepo,
	avatars AvatarService,
) ProjectService {
	return &projectService{
		log:        baseLog.With("service", "ProjectService"),
		projects:   projects,
		characters: characters,
		factions:   factions,
		scenes:     scenes,
		avatars:    avatars,
	}
}

func (s *projectService) CreateProject(dbc dbctx.Context, input CreateProjectInput) (*types.Project, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apierr.NewValidation(apierr.FieldError{Field: "name", Message: "required"})
	}
	now := time.Now().UTC()
	p := &types.Project{
		ID:          uuid.New(),
		Name:        name,
		Description: strings.TrimSpace(input.Description),
		BaseImage:   input.BaseImage,
		AvatarURL:   s.avatars.Placeholder(name),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.projects.Create(dbc, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *projectService) GetProject(dbc dbctx.Context, id uuid.UUID) (*types.Project, error) {
	p, err := s.projects.Get(dbc, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, apierr.New(http.StatusNotFound, "project_not_found", nil)
	}
	return p, nil
}

func (s *projectService) ListProjects(dbc dbctx.Context) ([]*types.Project, error) {
	return s.projects.List(dbc)
}

func (s *projectService) UpdateProject(dbc dbctx.Context, id uuid.UUID, updates map[string]any) (*types.Project, error) {
	if _, err := s.GetProject(dbc, id); err != nil {
		return nil, err
	}
	if err := s.projects.Update(dbc, id, updates); err != nil {
		return nil, err
	}
	return s.projects.Get(dbc, id)
}

func (s *projectService) DeleteProject(dbc dbctx.Context, id uuid.UUID) error {
	return s.projects.Delete(dbc, id)
}

func (s *projectService) CreateCharacter(dbc dbctx.Context, projectID uuid.UUID, input CreateCharacterInput) (*types.Character, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apierr.NewValidation(apierr.FieldError{Field: "name", Message: "required"})
	}
	if _, err := s.GetProject(dbc, projectID); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	c := &types.Character{
		ID:          uuid.New(),
		ProjectID:   projectID,
		Name:        name,
		Role:        strings.TrimSpace(input.Role),
		Description: strings.TrimSpace(input.Description),
		AvatarURL:   s.avatars.Placeholder(name),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.characters.Create(dbc, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *projectService) ListCharacters(dbc dbctx.Context, projectID uuid.UUID) ([]*types.Character, error) {
	return s.characters.ListByProject(dbc, projectID)
}

func (s *projectService) UpdateCharacter(dbc dbctx.Context, id uuid.UUID, updates map[string]any) error {
	return s.characters.Update(dbc, id, updates)
}

func (s *projectService) DeleteCharacter(dbc dbctx.Context, id uuid.UUID) error {
	return s.characters.Delete(dbc, id)
}

func (s *projectService) CreateFaction(dbc dbctx.Context, projectID uuid.UUID, input CreateFactionInput) (*types.Faction, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apierr.NewValidation(apierr.FieldError{Field: "name", Message: "required"})
	}
	if _, err := s.GetProject(dbc, projectID); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	f := &types.Faction{
		ID:          uuid.New(),
		ProjectID:   projectID,
		Name:        name,
		Description: strings.TrimSpace(input.Description),
		Ideology:    strings.TrimSpace(input.Ideology),
		Color:       strings.TrimSpace(input.Color),
		AvatarURL:   s.avatars.Placeholder(name),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.factions.Create(dbc, f); err != nil {
		return nil, err
	}
	return f, nil
}

func (s *projectService) ListFactions(dbc dbctx.Context, projectID uuid.UUID) ([]*types.Faction, error) {
	return s.factions.ListByProject(dbc, projectID)
}

func (s *projectService) UpdateFaction(dbc dbctx.Context, id uuid.UUID, updates map[string]any) error {
	return s.factions.Update(dbc, id, updates)
}

func (s *projectService) DeleteFaction(dbc dbctx.Context, id uuid.UUID) error {
	return s.factions.Delete(dbc, id)
}

func (s *projectService) CreateScene(dbc dbctx.Context, projectID uuid.UUID, input CreateSceneInput) (*types.Scene, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, apierr.NewValidation(apierr.FieldError{Field: "title", Message: "required"})
	}
	if _, err := s.GetProject(dbc, projectID); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	sc := &types.Scene{
		ID:        uuid.New(),
		ProjectID: projectID,
		Title:     title,
		Summary:   strings.TrimSpace(input.Summary),
		SortIndex: input.SortIndex,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.scenes.Create(dbc, sc); err != nil {
		return nil, err
	}
	return sc, nil
}

func (s *projectService) GetScene(dbc dbctx.Context, id uuid.UUID) (*types.Scene, error) {
	sc, err := s.scenes.Get(dbc, id)
	if err != nil {
		return nil, err
	}
	if sc == nil {
		return nil, apierr.New(http.StatusNotFound, "scene_not_found", nil)
	}
	return sc, nil
}

func (s *projectService) ListScenes(dbc dbctx.Context, projectID uuid.UUID) ([]*types.Scene, error) {
	return s.scenes.ListByProject(dbc, projectID)
}

func (s *projectService) UpdateScene(dbc dbctx.Context, id uuid.UUID, updates map[string]any) error {
	return s.scenes.Update(dbc, id, updates)
}

func (s *projectService) DeleteScene(dbc dbctx.Context, id uuid.UUID) error {
	return s.scenes.Delete(dbc, id)
}
