package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/banshee-data/occupancy.dataset/internal/dataset"
	"github.com/banshee-data/occupancy.dataset/internal/dataset/scaler"
)

// DefaultDatasetConfigPath is the canonical defaults file for dataset builds.
const DefaultDatasetConfigPath = "config/dataset.defaults.json"

const maxConfigFileSize = 1 * 1024 * 1024 // 1MB

// DatasetConfig holds every externally tunable knob of a dataset build.
// Nil fields fall back to the defaults returned by the Get* accessors, so a
// partial file only overrides what it names.
type DatasetConfig struct {
	// Cross-validation
	Folds *int   `json:"folds,omitempty" yaml:"folds,omitempty"`
	Seed  *int64 `json:"seed,omitempty" yaml:"seed,omitempty"`

	// Operating window applied during unification, [start, end) in hours.
	StartHour *int `json:"start_hour,omitempty" yaml:"start_hour,omitempty"`
	EndHour   *int `json:"end_hour,omitempty" yaml:"end_hour,omitempty"`

	// Canonical day bounds used by the continuity filter, in hours.
	DayStartHour *int `json:"day_start_hour,omitempty" yaml:"day_start_hour,omitempty"`
	DayEndHour   *int `json:"day_end_hour,omitempty" yaml:"day_end_hour,omitempty"`

	GapToleranceMinutes *int `json:"gap_tolerance_minutes,omitempty" yaml:"gap_tolerance_minutes,omitempty"`
	WindowSize          *int `json:"window_size,omitempty" yaml:"window_size,omitempty"`

	// Location names dropped after the merge, e.g. ["hodnik"].
	ExcludedLocations []string `json:"excluded_locations,omitempty" yaml:"excluded_locations,omitempty"`

	// Optional joins
	JoinWeather        *bool `json:"join_weather,omitempty" yaml:"join_weather,omitempty"`
	InterpolateWeather *bool `json:"interpolate_weather,omitempty" yaml:"interpolate_weather,omitempty"`

	Scale         *bool   `json:"scale,omitempty" yaml:"scale,omitempty"`
	ScaleMethod   *string `json:"scale_method,omitempty" yaml:"scale_method,omitempty"` // "robust" or "standard"
	DecodeWorkers *int    `json:"decode_workers,omitempty" yaml:"decode_workers,omitempty"`
	OutputDir     *string `json:"output_dir,omitempty" yaml:"output_dir,omitempty"`
}

// LoadDatasetConfig reads a DatasetConfig from a .json, .yaml or .yml file.
// The file must be under 1MB and pass Validate.
func LoadDatasetConfig(path string) (*DatasetConfig, error) {
	cleanPath := filepath.Clean(path)
	ext := strings.ToLower(filepath.Ext(cleanPath))
	if ext != ".json" && ext != ".yaml" && ext != ".yml" {
		return nil, fmt.Errorf("config file must have .json, .yaml or .yml extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if fileInfo.Size() > maxConfigFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxConfigFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &DatasetConfig{}
	if ext == ".json" {
		err = json.Unmarshal(data, cfg)
	} else {
		err = yaml.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", filepath.Base(cleanPath), err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks the values that are set. Unset fields are not checked
// because their defaults are valid.
func (c *DatasetConfig) Validate() error {
	if c.Folds != nil && *c.Folds < 2 {
		return fmt.Errorf("folds must be at least 2, got %d", *c.Folds)
	}
	if c.WindowSize != nil && *c.WindowSize < 1 {
		return fmt.Errorf("window_size must be positive, got %d", *c.WindowSize)
	}
	if c.GapToleranceMinutes != nil && *c.GapToleranceMinutes < 1 {
		return fmt.Errorf("gap_tolerance_minutes must be positive, got %d", *c.GapToleranceMinutes)
	}
	if c.DecodeWorkers != nil && *c.DecodeWorkers < 1 {
		return fmt.Errorf("decode_workers must be positive, got %d", *c.DecodeWorkers)
	}

	if err := validateHours("start_hour", "end_hour", c.GetStartHour(), c.GetEndHour()); err != nil {
		return err
	}
	if err := validateHours("day_start_hour", "day_end_hour", c.GetDayStartHour(), c.GetDayEndHour()); err != nil {
		return err
	}

	if _, err := c.ExcludedLocationSet(); err != nil {
		return err
	}
	if _, err := scaler.ParseMethod(c.GetScaleMethod()); err != nil {
		return fmt.Errorf("scale_method: %w", err)
	}
	return nil
}

func validateHours(startName, endName string, start, end int) error {
	if start < 0 || start > 23 {
		return fmt.Errorf("%s must be between 0 and 23, got %d", startName, start)
	}
	if end < 1 || end > 24 {
		return fmt.Errorf("%s must be between 1 and 24, got %d", endName, end)
	}
	if start >= end {
		return fmt.Errorf("%s (%d) must be before %s (%d)", startName, start, endName, end)
	}
	return nil
}

// GetFolds returns the folds value or the default.
func (c *DatasetConfig) GetFolds() int {
	if c.Folds == nil {
		return 10
	}
	return *c.Folds
}

// GetSeed returns the shuffle seed or the default.
func (c *DatasetConfig) GetSeed() int64 {
	if c.Seed == nil {
		return 42
	}
	return *c.Seed
}

// GetStartHour returns the start_hour value or the default.
func (c *DatasetConfig) GetStartHour() int {
	if c.StartHour == nil {
		return 4
	}
	return *c.StartHour
}

// GetEndHour returns the end_hour value or the default.
func (c *DatasetConfig) GetEndHour() int {
	if c.EndHour == nil {
		return 16
	}
	return *c.EndHour
}

// GetDayStartHour returns the day_start_hour value or the default.
func (c *DatasetConfig) GetDayStartHour() int {
	if c.DayStartHour == nil {
		return 4
	}
	return *c.DayStartHour
}

// GetDayEndHour returns the day_end_hour value or the default.
func (c *DatasetConfig) GetDayEndHour() int {
	if c.DayEndHour == nil {
		return 16
	}
	return *c.DayEndHour
}

// GetGapToleranceMinutes returns the gap_tolerance_minutes value or the default.
func (c *DatasetConfig) GetGapToleranceMinutes() int {
	if c.GapToleranceMinutes == nil {
		return 2
	}
	return *c.GapToleranceMinutes
}

// GetWindowSize returns the window_size value or the default.
func (c *DatasetConfig) GetWindowSize() int {
	if c.WindowSize == nil {
		return 180
	}
	return *c.WindowSize
}

// GetJoinWeather returns the join_weather value or the default.
func (c *DatasetConfig) GetJoinWeather() bool {
	if c.JoinWeather == nil {
		return true
	}
	return *c.JoinWeather
}

// GetInterpolateWeather returns the interpolate_weather value or the default.
func (c *DatasetConfig) GetInterpolateWeather() bool {
	if c.InterpolateWeather == nil {
		return true
	}
	return *c.InterpolateWeather
}

// GetScale returns the scale value or the default.
func (c *DatasetConfig) GetScale() bool {
	if c.Scale == nil {
		return true
	}
	return *c.Scale
}

// GetScaleMethod returns the scale_method value or the default.
func (c *DatasetConfig) GetScaleMethod() string {
	if c.ScaleMethod == nil || *c.ScaleMethod == "" {
		return "robust"
	}
	return *c.ScaleMethod
}

// GetDecodeWorkers returns the decode_workers value or the default.
func (c *DatasetConfig) GetDecodeWorkers() int {
	if c.DecodeWorkers == nil {
		return 8
	}
	return *c.DecodeWorkers
}

// GetOutputDir returns the output_dir value or the default.
func (c *DatasetConfig) GetOutputDir() string {
	if c.OutputDir == nil || *c.OutputDir == "" {
		return "out"
	}
	return *c.OutputDir
}

// ExcludedLocationSet resolves ExcludedLocations. A nil list yields the
// default exclusions; an explicit empty list excludes nothing.
func (c *DatasetConfig) ExcludedLocationSet() (dataset.LocationSet, error) {
	if c.ExcludedLocations == nil {
		return dataset.NewLocationSet(dataset.DefaultExcludedLocations...), nil
	}
	set := dataset.NewLocationSet()
	for _, name := range c.ExcludedLocations {
		loc, err := dataset.ParseLocation(name)
		if err != nil {
			return nil, fmt.Errorf("excluded_locations: %w", err)
		}
		set[loc] = struct{}{}
	}
	return set, nil
}
