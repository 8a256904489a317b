package project

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Project struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string         `gorm:"column:name;not null" json:"name"`
	Description string         `gorm:"column:description;type:text" json:"description,omitempty"`
	BaseImage   string         `gorm:"column:base_image;type:text" json:"base_image,omitempty"`
	AvatarURL   string         `gorm:"column:avatar_url" json:"avatar_url,omitempty"`
	CreatedAt   time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Project) TableName() string { return "project" }

type Character struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	ProjectID   uuid.UUID      `gorm:"type:uuid;not null;index" json:"project_id"`
	Name        string         `gorm:"column:name;not null" json:"name"`
	Role        string         `gorm:"column:role" json:"role,omitempty"`
	Description string         `gorm:"column:description;type:text" json:"description,omitempty"`
	Traits      datatypes.JSON `gorm:"column:traits" json:"traits,omitempty"`
	AvatarURL   string         `gorm:"column:avatar_url" json:"avatar_url,omitempty"`
	CreatedAt   time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Character) TableName() string { return "character" }

type Faction struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	ProjectID   uuid.UUID      `gorm:"type:uuid;not null;index" json:"project_id"`
	Name        string         `gorm:"column:name;not null" json:"name"`
	Description string         `gorm:"column:description;type:text" json:"description,omitempty"`
	Ideology    string         `gorm:"column:ideology" json:"ideology,omitempty"`
	Color       string         `gorm:"column:color" json:"color,omitempty"`
	AvatarURL   string         `gorm:"column:avatar_url" json:"avatar_url,omitempty"`
	CreatedAt   time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Faction) TableName() string { return "faction" }

type Scene struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	ProjectID uuid.UUID      `gorm:"type:uuid;not null;index" json:"project_id"`
	Title     string         `gorm:"column:title;not null" json:"title"`
	Summary   string         `gorm:"column:summary;type:text" json:"summary,omitempty"`
	Script    string         `gorm:"column:script;type:text" json:"script,omitempty"`
	SortIndex int            `gorm:"column:sort_index;not null;default:0" json:"sort_index"`
	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Scene) TableName() string { return "scene" }
