package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/studiostory/studiostory-backend/internal/clients/imagegen"
	"github.com/studiostory/studiostory-backend/internal/clients/textgen"
	"github.com/studiostory/studiostory-backend/internal/data/db"
	"github.com/studiostory/studiostory-backend/internal/data/kvstore"
	"github.com/studiostory/studiostory-backend/internal/data/repos"
	types "github.com/studiostory/studiostory-backend/internal/domain"
	"github.com/studiostory/studiostory-backend/internal/pkg/dbctx"
	"github.com/studiostory/studiostory-backend/internal/platform/logger"
	"github.com/studiostory/studiostory-backend/internal/realtime"
	"github.com/studiostory/studiostory-backend/internal/realtime/bus"
	"github.com/studiostory/studiostory-backend/internal/services"
)

// App assembles the whole backend: storage, learned-state services, external
// clients, the event bus and the HTTP surface.
type App struct {
	Cfg Config
	Log *logger.Logger

	DB  *db.Service
	KV  kvstore.Store
	Bus bus.Bus
	Hub *realtime.Hub

	Repos    Repos
	Services Services

	server  *http.Server
	hubStop context.CancelFunc
}

type Repos struct {
	Profiles     repos.LearnerProfileRepo
	Preferences  repos.UserPreferenceRepo
	Patterns     repos.PromptPatternRepo
	Sessions     repos.GenerationSessionRepo
	Combinations repos.DimensionCombinationRepo
	Styles       repos.StylePreferenceRepo
	Feedback     repos.FeedbackEventRepo
	Suggestions  repos.SmartSuggestionRepo
	Variants     repos.VariantStatRepo
	Images       repos.GeneratedImageRepo
	Projects     repos.ProjectRepo
	Characters   repos.CharacterRepo
	Factions     repos.FactionRepo
	Scenes       repos.SceneRepo
}

type Services struct {
	Tracker     services.SessionTracker
	Learning    services.LearningService
	Suggestions services.SuggestionService
	Scoring     services.ScoringService
	Panel       services.PanelService
	Generation  services.GenerationService
	Projects    services.ProjectService
	Avatars     services.AvatarService
	Dimensions  services.DimensionService
	Composer    services.PromptComposer
	Scripts     services.ScriptService
}

func New(cfg Config, logg *logger.Logger) (*App, error) {
	a := &App{Cfg: cfg, Log: logg}

	dbService, err := db.NewService(logg)
	if err != nil {
		return nil, err
	}
	if err := dbService.AutoMigrateAll(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	a.DB = dbService
	gdb := dbService.DB()

	a.KV = kvstore.NewStore(gdb, logg)

	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		a.Bus = bus.NewRedisBus(redis.NewClient(opts), logg)
	} else {
		a.Bus = bus.NewMemoryBus(logg)
	}
	a.Hub = realtime.NewHub(logg)

	a.Repos = Repos{
		Profiles:     repos.NewLearnerProfileRepo(gdb, logg),
		Preferences:  repos.NewUserPreferenceRepo(gdb, logg),
		Patterns:     repos.NewPromptPatternRepo(gdb, logg),
		Sessions:     repos.NewGenerationSessionRepo(gdb, logg),
		Combinations: repos.NewDimensionCombinationRepo(gdb, logg),
		Styles:       repos.NewStylePreferenceRepo(gdb, logg),
		Feedback:     repos.NewFeedbackEventRepo(gdb, logg),
		Suggestions:  repos.NewSmartSuggestionRepo(gdb, logg),
		Variants:     repos.NewVariantStatRepo(gdb, logg),
		Images:       repos.NewGeneratedImageRepo(gdb, logg),
		Projects:     repos.NewProjectRepo(gdb, logg),
		Characters:   repos.NewCharacterRepo(gdb, logg),
		Factions:     repos.NewFactionRepo(gdb, logg),
		Scenes:       repos.NewSceneRepo(gdb, logg),
	}

	// All learned record families hang off the single local profile.
	if err := a.Repos.Profiles.Ensure(dbctx.Background(), types.DefaultProfileID); err != nil {
		return nil, fmt.Errorf("ensure profile: %w", err)
	}

	textClient := textgen.New(cfg.TextGen, logg)
	imageClient := imagegen.New(cfg.ImageGen, logg)

	tracker := services.NewSessionTracker(logg, a.Repos.Sessions)
	learning := services.NewLearningService(logg, a.Repos.Preferences, a.Repos.Patterns,
		a.Repos.Sessions, a.Repos.Combinations, a.Repos.Styles, a.Repos.Feedback)
	scoring := services.NewScoringService(logg, a.Repos.Preferences, a.Repos.Patterns,
		a.Repos.Combinations, a.Repos.Feedback, a.Repos.Sessions)
	suggestions := services.NewSuggestionService(logg, a.Repos.Preferences, a.Repos.Patterns,
		a.Repos.Feedback, a.Repos.Combinations, a.Repos.Variants, a.Repos.Suggestions,
		a.Repos.Sessions, textClient)
	panel := services.NewPanelService(logg, a.KV, a.Repos.Images, a.Bus)
	generation := services.NewGenerationService(logg, a.Repos.Images, imageClient, tracker, panel, a.Bus)
	avatars := services.NewAvatarService(logg)
	projects := services.NewProjectService(logg, a.Repos.Projects, a.Repos.Characters,
		a.Repos.Factions, a.Repos.Scenes, avatars)
	dimensions, err := services.NewDimensionService(logg, a.KV)
	if err != nil {
		return nil, err
	}
	composer := services.NewPromptComposer(logg, scoring)
	scripts := services.NewScriptService(logg, projects, textClient)

	a.Services = Services{
		Tracker:     tracker,
		Learning:    learning,
		Suggestions: suggestions,
		Scoring:     scoring,
		Panel:       panel,
		Generation:  generation,
		Projects:    projects,
		Avatars:     avatars,
		Dimensions:  dimensions,
		Composer:    composer,
		Scripts:     scripts,
	}
	return a, nil
}

func (a *App) Run() error {
	hubCtx, cancel := context.WithCancel(context.Background())
	a.hubStop = cancel
	go a.Hub.Run(hubCtx, a.Bus)

	a.server = &http.Server{
		Addr:              ":" + a.Cfg.Port,
		Handler:           a.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	a.Log.Info("Listening", "port", a.Cfg.Port, "mode", a.Cfg.Mode)
	if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (a *App) Shutdown(ctx context.Context) error {
	a.Log.Info("Shutting down")
	a.Services.Generation.Shutdown()
	if a.hubStop != nil {
		a.hubStop()
	}
	_ = a.Bus.Close()
	if a.server != nil {
		return a.server.Shutdown(ctx)
	}
	return nil
}
