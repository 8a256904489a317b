package services

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/studiostory/studiostory-backend/internal/data/kvstore"
	types "github.com/studiostory/studiostory-backend/internal/domain"
	"github.com/studiostory/studiostory-backend/internal/pkg/dbctx"
	"github.com/studiostory/studiostory-backend/internal/platform/apierr"
	"github.com/studiostory/studiostory-backend/internal/platform/logger"
)

//go:embed presets.yaml
var presetsYAML []byte

type DimensionType struct {
	ID          string `yaml:"id" json:"id"`
	Label       string `yaml:"label" json:"label"`
	Description string `yaml:"description" json:"description"`
}

type DimensionPreset struct {
	Name       string            `yaml:"name" json:"name"`
	Dimensions []presetDimension `yaml:"dimensions" json:"dimensions"`
}

type presetDimension struct {
	Type          string `yaml:"type" json:"type"`
	Reference     string `yaml:"reference" json:"reference"`
	FilterMode    string `yaml:"filter_mode" json:"filter_mode"`
	TransformMode string `yaml:"transform_mode" json:"transform_mode"`
	Weight        int    `yaml:"weight" json:"weight"`
}

type presetFile struct {
	Types    []DimensionType `yaml:"types"`
	Defaults struct {
		FilterMode    string `yaml:"filter_mode"`
		TransformMode string `yaml:"transform_mode"`
		Weight        int    `yaml:"weight"`
	} `yaml:"defaults"`
	Presets []DimensionPreset `yaml:"presets"`
}

func dimensionsKey(projectID uuid.UUID) string { return "dimensions:" + projectID.String() }

// DimensionService validates and persists the per-project dimension stack and
// serves the built-in type catalog and presets.
type DimensionService interface {
	Types() []DimensionType
	Presets() []DimensionPreset
	// ApplyPreset expands a named preset into full dimensions with fresh IDs.
	ApplyPreset(name string) ([]types.Dimension, error)
	Validate(dims []types.Dimension) error
	SaveDimensions(dbc dbctx.Context, projectID uuid.UUID, dims []types.Dimension) error
	LoadDimensions(dbc dbctx.Context, projectID uuid.UUID) ([]types.Dimension, error)
	Snapshots(dims []types.Dimension) []types.DimensionSnapshot
}

type dimensionService struct {
	log     *logger.Logger
	kv      kvstore.Store
	catalog presetFile
	typeIDs map[string]bool
}

func NewDimensionService(baseLog *logger.Logger, kv kvstore.Store) (DimensionService, error) {
	s := &dimensionService{
		log:     baseLog.With("service", "DimensionService"),
		kv:      kv,
		typeIDs: map[string]bool{},
	}
	if err := yaml.Unmarshal(presetsYAML, &s.catalog); err != nil {
		return nil, fmt.Errorf("parse dimension presets: %w", err)
	}
	for _, t := range s.catalog.Types {
		s.typeIDs[t.ID] = true
	}
	return s, nil
}

func (s *dimensionService) Types() []DimensionType {
	return append([]DimensionType(nil), s.catalog.Types...)
}

func (s *dimensionService) Presets() []DimensionPreset {
	return append([]DimensionPreset(nil), s.catalog.Presets...)
}

func (s *dimensionService) ApplyPreset(name string) ([]types.Dimension, error) {
	for _, preset := range s.catalog.Presets {
		if !strings.EqualFold(preset.Name, name) {
			continue
		}
		out := make([]types.Dimension, 0, len(preset.Dimensions))
		for _, d := range preset.Dimensions {
			dim := types.Dimension{
				ID:            uuid.NewString(),
				Type:          d.Type,
				Reference:     d.Reference,
				FilterMode:    d.FilterMode,
				TransformMode: d.TransformMode,
				Weight:        d.Weight,
			}
			s.applyDefaults(&dim)
			out = append(out, dim)
		}
		return out, nil
	}
	return nil, apierr.NewValidation(apierr.FieldError{Field: "preset", Message: "unknown preset " + name})
}

func (s *dimensionService) applyDefaults(dim *types.Dimension) {
	if dim.FilterMode == "" {
		dim.FilterMode = s.catalog.Defaults.FilterMode
	}
	if dim.TransformMode == "" {
		dim.TransformMode = s.catalog.Defaults.TransformMode
	}
	if dim.Weight == 0 {
		dim.Weight = s.catalog.Defaults.Weight
	}
}

func (s *dimensionService) Validate(dims []types.Dimension) error {
	fields := []apierr.FieldError{}
	for i, d := range dims {
		prefix := fmt.Sprintf("dimensions[%d]", i)
		if !s.typeIDs[d.Type] {
			fields = append(fields, apierr.FieldError{Field: prefix + ".type", Message: "unknown dimension type " + d.Type})
		}
		if strings.TrimSpace(d.Reference) == "" {
			fields = append(fields, apierr.FieldError{Field: prefix + ".reference", Message: "required"})
		}
		if !types.ValidFilterMode(d.FilterMode) {
			fields = append(fields, apierr.FieldError{Field: prefix + ".filter_mode", Message: "invalid filter mode " + d.FilterMode})
		}
		if !types.ValidTransformMode(d.TransformMode) {
			fields = append(fields, apierr.FieldError{Field: prefix + ".transform_mode", Message: "invalid transform mode " + d.TransformMode})
		}
		if d.Weight < 0 || d.Weight > 100 {
			fields = append(fields, apierr.FieldError{Field: prefix + ".weight", Message: "must be between 0 and 100"})
		}
	}
	if len(fields) > 0 {
		return apierr.NewValidation(fields...)
	}
	return nil
}

func (s *dimensionService) SaveDimensions(dbc dbctx.Context, projectID uuid.UUID, dims []types.Dimension) error {
	if projectID == uuid.Nil {
		return apierr.NewValidation(apierr.FieldError{Field: "project_id", Message: "required"})
	}
	if err := s.Validate(dims); err != nil {
		return err
	}
	for i := range dims {
		if dims[i].ID == "" {
			dims[i].ID = uuid.NewString()
		}
	}
	raw, err := json.Marshal(dims)
	if err != nil {
		return err
	}
	return s.kv.Save(dbc, dimensionsKey(projectID), raw)
}

func (s *dimensionService) LoadDimensions(dbc dbctx.Context, projectID uuid.UUID) ([]types.Dimension, error) {
	if projectID == uuid.Nil {
		return []types.Dimension{}, nil
	}
	raw, err := s.kv.Load(dbc, dimensionsKey(projectID))
	if err != nil {
		return nil, err
	}
	out := []types.Dimension{}
	if len(raw) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		s.log.Warn("Discarding unreadable dimension state", "project_id", projectID, "error", err)
		return []types.Dimension{}, nil
	}
	return out, nil
}

func (s *dimensionService) Snapshots(dims []types.Dimension) []types.DimensionSnapshot {
	out := make([]types.DimensionSnapshot, 0, len(dims))
	for _, d := range dims {
		out = append(out, types.DimensionSnapshot{
			Type:      d.Type,
			Reference: d.Reference,
			Weight:    d.Weight,
		})
	}
	return out
}
