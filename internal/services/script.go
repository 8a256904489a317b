package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/studiostory/studiostory-backend/internal/clients/textgen"
	types "github.com/studiostory/studiostory-backend/internal/domain"
	"github.com/studiostory/studiostory-backend/internal/pkg/dbctx"
	"github.com/studiostory/studiostory-backend/internal/platform/apierr"
	"github.com/studiostory/studiostory-backend/internal/platform/logger"
)

// ScriptService drafts scene scripts with the text model, grounded in the
// project's characters and factions. Without a configured model it returns a
// structured outline stub the writer fills in by hand.
type ScriptService interface {
	DraftSceneScript(ctx context.Context, dbc dbctx.Context, sceneID uuid.UUID) (string, error)
}

type scriptService struct {
	log      *logger.Logger
	projects ProjectService
	text     textgen.Client
}

func NewScriptService(baseLog *logger.Logger, projects ProjectService, text textgen.Client) ScriptService {
	return &scriptService{
		log:      baseLog.With("service", "ScriptService"),
		projects: projects,
		text:     text,
	}
}

func (s *scriptService) DraftSceneScript(ctx context.Context, dbc dbctx.Context, sceneID uuid.UUID) (string, error) {
	if sceneID == uuid.Nil {
		return "", apierr.NewValidation(apierr.FieldError{Field: "scene_id", Message: "required"})
	}
	scene, err := s.projects.GetScene(dbc, sceneID)
	if err != nil {
		return "", err
	}
	characters, err := s.projects.ListCharacters(dbc, scene.ProjectID)
	if err != nil {
		return "", err
	}
	factions, err := s.projects.ListFactions(dbc, scene.ProjectID)
	if err != nil {
		return "", err
	}

	script, err := s.draftWithModel(ctx, scene, characters, factions)
	if err != nil {
		s.log.Debug("Model drafting unavailable, using outline", "scene_id", sceneID, "error", err)
		script = outlineStub(scene, characters)
	}

	if err := s.projects.UpdateScene(dbc, sceneID, map[string]any{"script": script}); err != nil {
		return "", err
	}
	return script, nil
}

func (s *scriptService) draftWithModel(ctx context.Context, scene *types.Scene, characters []*types.Character, factions []*types.Faction) (string, error) {
	if s.text == nil {
		return "", textgen.ErrDisabled
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Scene: %s\n", scene.Title)
	if scene.Summary != "" {
		fmt.Fprintf(&b, "Summary: %s\n", scene.Summary)
	}
	if len(characters) > 0 {
		b.WriteString("Characters:\n")
		for _, c := range characters {
			fmt.Fprintf(&b, "- %s (%s): %s\n", c.Name, c.Role, c.Description)
		}
	}
	if len(factions) > 0 {
		b.WriteString("Factions:\n")
		for _, f := range factions {
			fmt.Fprintf(&b, "- %s: %s\n", f.Name, f.Ideology)
		}
	}
	b.WriteString("\nWrite the scene as a screenplay-format script.")

	system := "You are a screenwriter. Write vivid, production-ready scene scripts in standard screenplay format."
	script, err := s.text.GenerateText(ctx, system, b.String())
	if err != nil {
		return "", err
	}
	return textgen.StripCodeFences(script), nil
}

func outlineStub(scene *types.Scene, characters []*types.Character) string {
	var b strings.Builder
	fmt.Fprintf(&b, "INT./EXT. %s\n\n", strings.ToUpper(scene.Title))
	if scene.Summary != "" {
		fmt.Fprintf(&b, "%s\n\n", scene.Summary)
	}
	for _, c := range characters {
		fmt.Fprintf(&b, "%s\n  (beat)\n  ...\n\n", strings.ToUpper(c.Name))
	}
	b.WriteString("FADE OUT.\n")
	return b.String()
}
