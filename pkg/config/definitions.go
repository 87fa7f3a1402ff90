package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// ServiceDefinitions is the startup description of everything the proxy
// serves: grids, caches, sources, layers and output formats. Loaded once
// from a config file; immutable afterwards.
type ServiceDefinitions struct {
	Grids   []GridDef   `mapstructure:"grids" validate:"dive"`
	Caches  []CacheDef  `mapstructure:"caches" validate:"min=1,dive"`
	Sources []SourceDef `mapstructure:"sources" validate:"min=1,dive"`
	Layers  []LayerDef  `mapstructure:"layers" validate:"min=1,dive"`
	Formats []FormatDef `mapstructure:"formats" validate:"dive"`
}

type GridDef struct {
	Name string `mapstructure:"name" validate:"required"`
	// Base selects a preset definition: "web_mercator" or "geodetic".
	// Empty base requires an explicit bbox and srs.
	Base        string    `mapstructure:"base" validate:"omitempty,oneof=web_mercator geodetic"`
	SRS         string    `mapstructure:"srs"`
	BBox        []float64 `mapstructure:"bbox" validate:"omitempty,len=4"`
	Origin      string    `mapstructure:"origin" validate:"omitempty,oneof=nw sw"`
	Resolutions []float64 `mapstructure:"resolutions"`
	Levels      int       `mapstructure:"levels" validate:"omitempty,min=1"`
	TileSize    []int     `mapstructure:"tile_size" validate:"omitempty,len=2"`
}

type CacheDef struct {
	Name       string   `mapstructure:"name" validate:"required"`
	Format     string   `mapstructure:"format" validate:"required"`
	Grids      []string `mapstructure:"grids" validate:"min=1"`
	Sources    []string `mapstructure:"sources" validate:"min=1"`
	MetaSize   []int    `mapstructure:"meta_size" validate:"omitempty,len=2"`
	MetaBuffer int      `mapstructure:"meta_buffer" validate:"min=0"`
}

type SourceDef struct {
	Name         string   `mapstructure:"name" validate:"required"`
	Type         string   `mapstructure:"type" validate:"required,oneof=wms"`
	URL          string   `mapstructure:"url" validate:"required,url"`
	Layers       []string `mapstructure:"layers" validate:"min=1"`
	Version      string   `mapstructure:"version" validate:"omitempty,oneof=1.1.1 1.3.0"`
	FeatureInfo  bool     `mapstructure:"featureinfo"`
	SupportedSRS []string `mapstructure:"supported_srs"`
	MinRes       float64  `mapstructure:"min_res" validate:"min=0"`
	MaxRes       float64  `mapstructure:"max_res" validate:"min=0"`
}

type LayerDef struct {
	Name   string   `mapstructure:"name" validate:"required"`
	Title  string   `mapstructure:"title"`
	Caches []string `mapstructure:"caches" validate:"min=1"`
}

type FormatDef struct {
	Name     string `mapstructure:"name" validate:"required"`
	MimeType string `mapstructure:"mime_type" validate:"required"`
	Colors   int    `mapstructure:"colors" validate:"min=0"`
	Quality  int    `mapstructure:"quality" validate:"min=0,max=100"`
}

// LoadDefinitions reads and validates the service definitions file.
// viper picks the format from the file extension (yaml, toml, json).
func LoadDefinitions(path string) (*ServiceDefinitions, error) {
	v := viper.New()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read definitions file %s: %w", path, err)
	}

	var defs ServiceDefinitions
	if err := v.Unmarshal(&defs); err != nil {
		return nil, fmt.Errorf("unmarshal definitions: %w", err)
	}

	validate := validator.New()
	if err := validate.Struct(&defs); err != nil {
		return nil, fmt.Errorf("validate definitions: %w", err)
	}

	return &defs, nil
}
