package app

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/studiostory/studiostory-backend/internal/http/handlers"
)

func (a *App) Router() *gin.Engine {
	if a.Cfg.Mode == "prod" || a.Cfg.Mode == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestLogger(a.Log))
	r.Use(cors.New(cors.Config{
		AllowOrigins:     a.Cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	health := handlers.NewHealthHandler(a.Log, a.DB.DB())
	project := handlers.NewProjectHandler(a.Log, a.Services.Projects, a.Services.Scripts)
	learning := handlers.NewLearningHandler(a.Log, a.Services.Learning, a.Services.Suggestions, a.Services.Scoring)
	session := handlers.NewSessionHandler(a.Log, a.Services.Tracker, a.Services.Learning)
	panel := handlers.NewPanelHandler(a.Log, a.Services.Panel)
	generation := handlers.NewGenerationHandler(a.Log, a.Services.Generation, a.Services.Composer, a.Services.Dimensions)
	dimension := handlers.NewDimensionHandler(a.Log, a.Services.Dimensions)
	rt := handlers.NewRealtimeHandler(a.Log, a.Hub)

	r.GET("/healthz", health.Healthz)
	r.GET("/readyz", health.Readyz)

	api := r.Group("/api/v1")
	{
		projects := api.Group("/projects")
		{
			projects.POST("", project.Create)
			projects.GET("", project.List)
			projects.GET("/:id", project.Get)
			projects.PATCH("/:id", project.Update)
			projects.DELETE("/:id", project.Delete)

			projects.POST("/:id/characters", project.CreateCharacter)
			projects.GET("/:id/characters", project.ListCharacters)
			projects.POST("/:id/factions", project.CreateFaction)
			projects.GET("/:id/factions", project.ListFactions)
			projects.POST("/:id/scenes", project.CreateScene)
			projects.GET("/:id/scenes", project.ListScenes)

			projects.POST("/:id/panel/activate", panel.Activate)
			projects.POST("/:id/panel/hydrate", panel.Hydrate)
			projects.PUT("/:id/dimensions", dimension.Save)
			projects.GET("/:id/dimensions", dimension.Load)
			projects.GET("/:id/generations", generation.ListByProject)
		}

		api.PATCH("/characters/:characterID", project.UpdateCharacter)
		api.DELETE("/characters/:characterID", project.DeleteCharacter)
		api.PATCH("/factions/:factionID", project.UpdateFaction)
		api.DELETE("/factions/:factionID", project.DeleteFaction)
		api.PATCH("/scenes/:sceneID", project.UpdateScene)
		api.DELETE("/scenes/:sceneID", project.DeleteScene)
		api.POST("/scenes/:sceneID/script", project.DraftSceneScript)

		learn := api.Group("/learning")
		{
			learn.POST("/feedback", learning.RecordFeedback)
			learn.POST("/suggestions", learning.Suggestions)
			learn.POST("/explanation", learning.Explanation)
			learn.POST("/variants", learning.Variants)
			learn.POST("/variants/result", learning.VariantResult)
			learn.POST("/sentiment", learning.Sentiment)
			learn.POST("/score", learning.ScorePrompt)
			learn.POST("/combinations", learning.LearnCombinations)
			learn.GET("/status", learning.Status)
			learn.GET("/context", learning.Context)
			learn.GET("/smart-suggestions", learning.SmartSuggestions)
			learn.GET("/smart-suggestions/shown", learning.ShownSuggestions)
			learn.POST("/smart-suggestions/shown", learning.SmartSuggestionShown)
			learn.POST("/smart-suggestions/:suggestionID/accepted", learning.SmartSuggestionAccepted)
		}

		sessions := api.Group("/sessions")
		{
			sessions.POST("", session.Start)
			sessions.GET("/active", session.Active)
			sessions.POST("/satisfied", session.MarkSatisfied)
			sessions.POST("/end", session.End)
		}

		panelGroup := api.Group("/panel")
		{
			panelGroup.GET("", panel.Get)
			panelGroup.POST("/save", panel.Save)
			panelGroup.POST("/reset-tracking", panel.ResetTracking)
			panelGroup.DELETE("", panel.Clear)
		}

		gen := api.Group("/generations")
		{
			gen.POST("/compose", generation.Compose)
			gen.POST("", generation.Start)
			gen.GET("/prompt/:promptID", generation.CheckPrompt)
			gen.DELETE("/:generationID", generation.Delete)
		}

		dims := api.Group("/dimensions")
		{
			dims.GET("/types", dimension.Types)
			dims.GET("/presets", dimension.Presets)
			dims.POST("/presets/apply", dimension.ApplyPreset)
		}

		api.GET("/events", rt.Stream)
	}

	return r
}
