// Package config handles configuration loading and shared data structures.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/dresden-air/airmap/internal/dataset"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Defaults applied by Load.
const (
	DefaultOverpassEndpoint = "http://overpass-api.de/api/interpreter"
	DefaultBoundaryName     = "dresden_grenze"
	DefaultBoundaryLabel    = "Dresden Stadtgrenze"

	// GeoJSONExt is appended to every layer name to form its file name.
	GeoJSONExt = ".geojson"
)

// DefaultBoundaryQuery selects the administrative boundary of Dresden inside Saxony.
const DefaultBoundaryQuery = `[out:json];
area["name"="Sachsen"]["boundary"="administrative"]["admin_level"="4"]->.a;
relation["name"="Dresden"]["boundary"="administrative"]["admin_level"="6"](area.a);
out geom;`

// Config represents the root configuration file structure.
type Config struct {
	Boundary  *Boundary `yaml:"boundary,omitempty"`
	InputDir  string    `yaml:"input_dir" validate:"required"`
	OutputDir string    `yaml:"output_dir" validate:"required"`
	Datasets  []Dataset `yaml:"datasets" validate:"required,min=1,unique=Name,dive"`
}

// Dataset is one CSV export and the layer converted from it.
type Dataset struct {
	Name string       `yaml:"name" validate:"required,excludesall=/\\"`
	Kind dataset.Kind `yaml:"kind" validate:"required,oneof=no2_street pm10_street no2_area pm10_area"`
	Year string       `yaml:"year" validate:"required,numeric,len=4"`

	// Input is relative to InputDir unless absolute.
	Input string `yaml:"input" validate:"required"`

	// ValueColumn overrides the kind's year-dependent source column.
	ValueColumn string `yaml:"value_column,omitempty"`
}

// Boundary configures the city boundary download.
type Boundary struct {
	Endpoint string `yaml:"endpoint,omitempty" validate:"omitempty,url"`
	Query    string `yaml:"query,omitempty"`
	Name     string `yaml:"name,omitempty" validate:"omitempty,excludesall=/\\"`
	Label    string `yaml:"label,omitempty"`
}

// Load reads and parses the YAML configuration file from the specified path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	return Parse(data)
}

// Parse decodes, defaults and validates a configuration document.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	cfg.applyDefaults()

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Boundary == nil {
		return
	}
	if c.Boundary.Endpoint == "" {
		c.Boundary.Endpoint = DefaultOverpassEndpoint
	}
	if c.Boundary.Query == "" {
		c.Boundary.Query = DefaultBoundaryQuery
	}
	if c.Boundary.Name == "" {
		c.Boundary.Name = DefaultBoundaryName
	}
	if c.Boundary.Label == "" {
		c.Boundary.Label = DefaultBoundaryLabel
	}
}

// InputPath resolves the CSV path of a dataset.
func (c *Config) InputPath(ds Dataset) string {
	if filepath.IsAbs(ds.Input) {
		return ds.Input
	}
	return filepath.Join(c.InputDir, ds.Input)
}

// LayerPath returns the GeoJSON file written for a layer name.
func (c *Config) LayerPath(name string) string {
	return filepath.Join(c.OutputDir, name+GeoJSONExt)
}

// SourceColumn returns the CSV column holding the dataset's pollutant value.
func (ds Dataset) SourceColumn() (string, error) {
	if ds.ValueColumn != "" {
		return ds.ValueColumn, nil
	}
	p, err := ds.Kind.Profile()
	if err != nil {
		return "", err
	}
	return p.SourceColumn(ds.Year), nil
}

// Dataset looks up a dataset by name.
func (c *Config) Dataset(name string) (Dataset, bool) {
	for _, ds := range c.Datasets {
		if ds.Name == name {
			return ds, true
		}
	}
	return Dataset{}, false
}
