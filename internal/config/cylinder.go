package config

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/banshee-data/cylinder.roi/internal/mesh"
	"github.com/banshee-data/cylinder.roi/internal/roi"
)

// DefaultConfigPath is the path to the canonical cylinder defaults file.
const DefaultConfigPath = "config/cylinder.defaults.json"

// Parameter ranges offered to operators. The ROI core only requires positive
// values; these limits belong to the configuration surface.
const (
	MinRadiusMM = 0.1
	MaxRadiusMM = 100.0
	MinHeightMM = 0.1
	MaxHeightMM = 500.0

	DefaultRadiusMM = 5.0
	DefaultHeightMM = 20.0
)

// CylinderConfig is the JSON configuration for a cylinder ROI run. Omitted
// fields fall back to the defaults returned by the Get* accessors, so partial
// files are safe.
type CylinderConfig struct {
	RadiusMM               *float64 `json:"radius_mm,omitempty"`
	HeightMM               *float64 `json:"height_mm,omitempty"`
	Resolution             *int     `json:"resolution,omitempty"`
	UseComputedOrientation *bool    `json:"use_computed_orientation,omitempty"`
	Workers                *int     `json:"workers,omitempty"`

	// Output locations
	DatabasePath *string `json:"database_path,omitempty"`
	OutputDir    *string `json:"output_dir,omitempty"`
}

// Helper functions to create pointers
func ptrFloat64(v float64) *float64 { return &v }
func ptrBool(v bool) *bool          { return &v }
func ptrString(v string) *string    { return &v }
func ptrInt(v int) *int             { return &v }

// EmptyCylinderConfig returns a CylinderConfig with all fields unset.
func EmptyCylinderConfig() *CylinderConfig {
	return &CylinderConfig{}
}

// DefaultCylinderConfig returns a config with every field set to its default.
func DefaultCylinderConfig() *CylinderConfig {
	return &CylinderConfig{
		RadiusMM:               ptrFloat64(DefaultRadiusMM),
		HeightMM:               ptrFloat64(DefaultHeightMM),
		Resolution:             ptrInt(mesh.DefaultResolution),
		UseComputedOrientation: ptrBool(false),
		Workers:                ptrInt(0),
		DatabasePath:           ptrString("scene.db"),
		OutputDir:              ptrString(""),
	}
}

// LoadCylinderConfig loads a CylinderConfig from a JSON file.
// The file must have a .json extension and be under 1MB.
func LoadCylinderConfig(path string) (*CylinderConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyCylinderConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// MustLoadDefaultConfig loads DefaultConfigPath, searching the current
// directory and its parents up to the repository root. Panics if the file
// cannot be loaded, intended for test setup.
func MustLoadDefaultConfig() *CylinderConfig {
	candidates := []string{
		DefaultConfigPath,
		"../" + DefaultConfigPath,
		"../../" + DefaultConfigPath,    // from internal/config/
		"../../../" + DefaultConfigPath, // deeper packages
	}
	for _, path := range candidates {
		if cfg, err := LoadCylinderConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that set values are inside the operator ranges.
func (c *CylinderConfig) Validate() error {
	if c.RadiusMM != nil {
		if r := *c.RadiusMM; math.IsNaN(r) || r < MinRadiusMM || r > MaxRadiusMM {
			return fmt.Errorf("radius_mm must be between %.1f and %.1f, got %f", MinRadiusMM, MaxRadiusMM, r)
		}
	}
	if c.HeightMM != nil {
		if h := *c.HeightMM; math.IsNaN(h) || h < MinHeightMM || h > MaxHeightMM {
			return fmt.Errorf("height_mm must be between %.1f and %.1f, got %f", MinHeightMM, MaxHeightMM, h)
		}
	}
	if c.Resolution != nil && *c.Resolution < 3 {
		return fmt.Errorf("resolution must be at least 3, got %d", *c.Resolution)
	}
	if c.Workers != nil && *c.Workers < 0 {
		return fmt.Errorf("workers must be non-negative, got %d", *c.Workers)
	}
	return nil
}

// GetRadiusMM returns the radius_mm value or the default.
func (c *CylinderConfig) GetRadiusMM() float64 {
	if c.RadiusMM == nil {
		return DefaultRadiusMM
	}
	return *c.RadiusMM
}

// GetHeightMM returns the height_mm value or the default.
func (c *CylinderConfig) GetHeightMM() float64 {
	if c.HeightMM == nil {
		return DefaultHeightMM
	}
	return *c.HeightMM
}

// GetResolution returns the resolution value or the default.
func (c *CylinderConfig) GetResolution() int {
	if c.Resolution == nil {
		return mesh.DefaultResolution
	}
	return *c.Resolution
}

// GetUseComputedOrientation returns the use_computed_orientation value or
// the default (false: legacy upright placement).
func (c *CylinderConfig) GetUseComputedOrientation() bool {
	if c.UseComputedOrientation == nil {
		return false
	}
	return *c.UseComputedOrientation
}

// GetWorkers returns the workers value or the default (sequential).
func (c *CylinderConfig) GetWorkers() int {
	if c.Workers == nil {
		return 0
	}
	return *c.Workers
}

// GetDatabasePath returns the database_path value or the default.
func (c *CylinderConfig) GetDatabasePath() string {
	if c.DatabasePath == nil || *c.DatabasePath == "" {
		return "scene.db"
	}
	return *c.DatabasePath
}

// GetOutputDir returns the output_dir value; empty disables mesh export.
func (c *CylinderConfig) GetOutputDir() string {
	if c.OutputDir == nil {
		return ""
	}
	return *c.OutputDir
}

// CylinderSpec returns the mesh spec described by the config.
func (c *CylinderConfig) CylinderSpec() mesh.CylinderSpec {
	return mesh.CylinderSpec{
		Radius:     c.GetRadiusMM(),
		Height:     c.GetHeightMM(),
		Resolution: c.GetResolution(),
	}
}

// GeneratorOptions returns the ROI generator options described by the config.
func (c *CylinderConfig) GeneratorOptions() roi.Options {
	return roi.Options{
		UseComputedOrientation: c.GetUseComputedOrientation(),
		Workers:                c.GetWorkers(),
	}
}
