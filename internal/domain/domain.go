package domain

import (
	"github.com/studiostory/studiostory-backend/internal/domain/learning"
	"github.com/studiostory/studiostory-backend/internal/domain/project"
	"github.com/studiostory/studiostory-backend/internal/domain/remix"
)

const (
	DefaultProfileID = learning.DefaultProfileID

	CategoryComposition = learning.CategoryComposition
	CategorySetting     = learning.CategorySetting
	CategorySubject     = learning.CategorySubject
	CategoryStyle       = learning.CategoryStyle
	CategoryMood        = learning.CategoryMood
	CategoryQuality     = learning.CategoryQuality
	CategoryAvoid       = learning.CategoryAvoid

	SourceExplicit = learning.SourceExplicit
	SourceInferred = learning.SourceInferred

	StyleCategoryLighting    = learning.StyleCategoryLighting
	StyleCategoryRendering   = learning.StyleCategoryRendering
	StyleCategoryComposition = learning.StyleCategoryComposition
	StyleCategoryColor       = learning.StyleCategoryColor
	StyleCategoryTexture     = learning.StyleCategoryTexture
	StyleCategoryDetail      = learning.StyleCategoryDetail

	RatingUp   = learning.RatingUp
	RatingDown = learning.RatingDown

	MinPatternObservations       = learning.MinPatternObservations
	PatternTypeElementCombination = learning.PatternTypeElementCombination

	SentimentPositive = learning.SentimentPositive
	SentimentNegative = learning.SentimentNegative
	SentimentNeutral  = learning.SentimentNeutral

	SuggestionActionAdd          = learning.SuggestionActionAdd
	SuggestionActionRemove       = learning.SuggestionActionRemove
	SuggestionActionEmphasize    = learning.SuggestionActionEmphasize
	SuggestionActionDeemphasize  = learning.SuggestionActionDeemphasize
	SuggestionActionAdjustWeight = learning.SuggestionActionAdjustWeight

	SuggestionTypeDimension  = learning.SuggestionTypeDimension
	SuggestionTypeWeight     = learning.SuggestionTypeWeight
	SuggestionTypeOutputMode = learning.SuggestionTypeOutputMode

	GenerationStatusPending  = remix.GenerationStatusPending
	GenerationStatusComplete = remix.GenerationStatusComplete
	GenerationStatusFailed   = remix.GenerationStatusFailed

	PanelSideLeft  = remix.PanelSideLeft
	PanelSideRight = remix.PanelSideRight
	SlotsPerSide   = remix.SlotsPerSide

	OutputModeImage = remix.OutputModeImage
	OutputModeVideo = remix.OutputModeVideo

	FilterModeStructure  = remix.FilterModeStructure
	FilterModeSilhouette = remix.FilterModeSilhouette
	FilterModePalette    = remix.FilterModePalette
	FilterModeNone       = remix.FilterModeNone

	TransformModeReplace = remix.TransformModeReplace
	TransformModeBlend   = remix.TransformModeBlend
	TransformModeStylize = remix.TransformModeStylize
)

type (
	LearnerProfile              = learning.LearnerProfile
	UserPreference              = learning.UserPreference
	PromptPattern               = learning.PromptPattern
	GenerationSession           = learning.GenerationSession
	DimensionCombinationPattern = learning.DimensionCombinationPattern
	StylePreference             = learning.StylePreference
	SmartSuggestion             = learning.SmartSuggestion
	VariantStat                 = learning.VariantStat
	FeedbackEvent               = learning.FeedbackEvent

	Feedback             = learning.Feedback
	RefinementSuggestion = learning.RefinementSuggestion
	LearnedContext       = learning.LearnedContext
	ElementExplanation   = learning.ElementExplanation
	PromptExplanation    = learning.PromptExplanation
	SentimentResult      = learning.SentimentResult
	LearningStatus       = learning.LearningStatus

	Dimension         = remix.Dimension
	DimensionSnapshot = remix.DimensionSnapshot
	PromptElement     = remix.PromptElement
	GeneratedPrompt   = remix.GeneratedPrompt
	PromptVariant     = remix.PromptVariant
	GeneratedImage    = remix.GeneratedImage
	SavedPanelImage   = remix.SavedPanelImage
	PanelState        = remix.PanelState

	Project   = project.Project
	Character = project.Character
	Faction   = project.Faction
	Scene     = project.Scene
)

// NewPanelState returns an empty fixed-size panel.
func NewPanelState() *PanelState { return remix.NewPanelState() }

func ValidFilterMode(m string) bool { return remix.ValidFilterMode(m) }

func ValidTransformMode(m string) bool { return remix.ValidTransformMode(m) }
