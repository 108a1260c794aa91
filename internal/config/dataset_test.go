package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/occupancy.dataset/internal/dataset"
)

func TestDatasetConfigDefaults(t *testing.T) {
	cfg := &DatasetConfig{}

	if got := cfg.GetFolds(); got != 10 {
		t.Errorf("GetFolds() = %d, want 10", got)
	}
	if got := cfg.GetSeed(); got != 42 {
		t.Errorf("GetSeed() = %d, want 42", got)
	}
	if got := cfg.GetStartHour(); got != 4 {
		t.Errorf("GetStartHour() = %d, want 4", got)
	}
	if got := cfg.GetEndHour(); got != 16 {
		t.Errorf("GetEndHour() = %d, want 16", got)
	}
	if got := cfg.GetDayStartHour(); got != 4 {
		t.Errorf("GetDayStartHour() = %d, want 4", got)
	}
	if got := cfg.GetDayEndHour(); got != 16 {
		t.Errorf("GetDayEndHour() = %d, want 16", got)
	}
	if got := cfg.GetGapToleranceMinutes(); got != 2 {
		t.Errorf("GetGapToleranceMinutes() = %d, want 2", got)
	}
	if got := cfg.GetWindowSize(); got != 180 {
		t.Errorf("GetWindowSize() = %d, want 180", got)
	}
	if !cfg.GetJoinWeather() || !cfg.GetInterpolateWeather() || !cfg.GetScale() {
		t.Error("joins and scaling should default to enabled")
	}
	if got := cfg.GetDecodeWorkers(); got != 8 {
		t.Errorf("GetDecodeWorkers() = %d, want 8", got)
	}
	if got := cfg.GetScaleMethod(); got != "robust" {
		t.Errorf("GetScaleMethod() = %q, want robust", got)
	}
	if got := cfg.GetOutputDir(); got != "out" {
		t.Errorf("GetOutputDir() = %q, want out", got)
	}

	set, err := cfg.ExcludedLocationSet()
	if err != nil {
		t.Fatalf("ExcludedLocationSet() error: %v", err)
	}
	for _, loc := range dataset.DefaultExcludedLocations {
		if !set.Contains(loc) {
			t.Errorf("default exclusions missing %s", loc)
		}
	}
}

func TestLoadDatasetConfigDefaultsFile(t *testing.T) {
	path := filepath.Join("..", "..", DefaultDatasetConfigPath)
	cfg, err := LoadDatasetConfig(path)
	require.NoError(t, err)

	// The checked-in file must agree with the built-in defaults.
	empty := &DatasetConfig{}
	assert.Equal(t, empty.GetFolds(), cfg.GetFolds())
	assert.Equal(t, empty.GetSeed(), cfg.GetSeed())
	assert.Equal(t, empty.GetWindowSize(), cfg.GetWindowSize())
	assert.Equal(t, empty.GetGapToleranceMinutes(), cfg.GetGapToleranceMinutes())
	assert.Equal(t, empty.GetStartHour(), cfg.GetStartHour())
	assert.Equal(t, empty.GetEndHour(), cfg.GetEndHour())
	assert.Equal(t, empty.GetDecodeWorkers(), cfg.GetDecodeWorkers())

	want, _ := empty.ExcludedLocationSet()
	got, err := cfg.ExcludedLocationSet()
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestLoadDatasetConfigYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dataset.yaml")
	content := `
folds: 5
seed: 7
window_size: 60
join_weather: false
excluded_locations: []
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadDatasetConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.GetFolds())
	assert.Equal(t, int64(7), cfg.GetSeed())
	assert.Equal(t, 60, cfg.GetWindowSize())
	assert.False(t, cfg.GetJoinWeather())
	assert.True(t, cfg.GetInterpolateWeather(), "unset field keeps its default")

	set, err := cfg.ExcludedLocationSet()
	require.NoError(t, err)
	assert.Empty(t, set, "explicit empty list excludes nothing")
}

func TestLoadDatasetConfigPartialJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "partial.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"start_hour": 6, "excluded_locations": ["Hodnik"]}`), 0o644))

	cfg, err := LoadDatasetConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 6, cfg.GetStartHour())
	assert.Equal(t, 16, cfg.GetEndHour())

	set, err := cfg.ExcludedLocationSet()
	require.NoError(t, err)
	assert.True(t, set.Contains(dataset.Hodnik))
	assert.False(t, set.Contains(dataset.Zbornica))
}

func TestLoadDatasetConfigRejects(t *testing.T) {
	dir := t.TempDir()

	write := func(name, content string) string {
		p := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
		return p
	}

	tests := []struct {
		name    string
		path    string
		wantErr string
	}{
		{"extension", write("dataset.toml", "folds = 3"), "extension"},
		{"missing", filepath.Join(dir, "nope.json"), "stat"},
		{"malformed", write("bad.json", "{not json"), "parse"},
		{"one fold", write("one.json", `{"folds": 1}`), "folds"},
		{"inverted hours", write("hours.json", `{"start_hour": 16, "end_hour": 4}`), "start_hour"},
		{"unknown location", write("loc.yml", "excluded_locations: [kitchen]"), "kitchen"},
		{"zero window", write("win.json", `{"window_size": 0}`), "window_size"},
		{"unknown scaler", write("scale.yaml", "scale_method: minmax"), "scale_method"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadDatasetConfig(tt.path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadDatasetConfigRejectsLargeFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "large.json")

	var b strings.Builder
	b.WriteString(`{"folds": 10, "pad": "`)
	b.WriteString(strings.Repeat("x", maxConfigFileSize))
	b.WriteString(`"}`)
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o644))

	_, err := LoadDatasetConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "too large")
}

func TestDatasetConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     DatasetConfig
		wantErr bool
	}{
		{"empty", DatasetConfig{}, false},
		{"two folds", DatasetConfig{Folds: ptrInt(2)}, false},
		{"zero workers", DatasetConfig{DecodeWorkers: ptrInt(0)}, true},
		{"zero tolerance", DatasetConfig{GapToleranceMinutes: ptrInt(0)}, true},
		{"end past midnight", DatasetConfig{DayEndHour: ptrInt(25)}, true},
		{"full day", DatasetConfig{StartHour: ptrInt(0), EndHour: ptrInt(24)}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func ptrInt(v int) *int { return &v }
