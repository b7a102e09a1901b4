package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/banshee-data/cylinder.roi/internal/mesh"
)

func TestDefaultCylinderConfig(t *testing.T) {
	cfg := DefaultCylinderConfig()

	// Test that defaults are set via pointers
	if cfg.RadiusMM == nil || *cfg.RadiusMM != 5.0 {
		t.Errorf("Expected RadiusMM 5.0, got %v", cfg.RadiusMM)
	}
	if cfg.HeightMM == nil || *cfg.HeightMM != 20.0 {
		t.Errorf("Expected HeightMM 20.0, got %v", cfg.HeightMM)
	}
	if cfg.Resolution == nil || *cfg.Resolution != mesh.DefaultResolution {
		t.Errorf("Expected Resolution %d, got %v", mesh.DefaultResolution, cfg.Resolution)
	}
	if cfg.UseComputedOrientation == nil || *cfg.UseComputedOrientation {
		t.Errorf("Expected UseComputedOrientation false, got %v", cfg.UseComputedOrientation)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}

	spec := cfg.CylinderSpec()
	if spec != mesh.NewCylinderSpec(5, 20) {
		t.Errorf("CylinderSpec() = %+v", spec)
	}
}

func TestEmptyConfigGetters(t *testing.T) {
	cfg := EmptyCylinderConfig()

	if cfg.GetRadiusMM() != DefaultRadiusMM {
		t.Errorf("GetRadiusMM() = %f, want %f", cfg.GetRadiusMM(), DefaultRadiusMM)
	}
	if cfg.GetHeightMM() != DefaultHeightMM {
		t.Errorf("GetHeightMM() = %f, want %f", cfg.GetHeightMM(), DefaultHeightMM)
	}
	if cfg.GetResolution() != mesh.DefaultResolution {
		t.Errorf("GetResolution() = %d", cfg.GetResolution())
	}
	if cfg.GetUseComputedOrientation() {
		t.Error("GetUseComputedOrientation() = true, want false")
	}
	if cfg.GetWorkers() != 0 {
		t.Errorf("GetWorkers() = %d, want 0", cfg.GetWorkers())
	}
	if cfg.GetDatabasePath() != "scene.db" {
		t.Errorf("GetDatabasePath() = %q", cfg.GetDatabasePath())
	}
	if cfg.GetOutputDir() != "" {
		t.Errorf("GetOutputDir() = %q", cfg.GetOutputDir())
	}

	opts := cfg.GeneratorOptions()
	if opts.UseComputedOrientation || opts.Workers != 0 {
		t.Errorf("GeneratorOptions() = %+v", opts)
	}
}

func TestLoadCylinderConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "test_config.json")

	// Partial file: unset fields keep their defaults.
	testJSON := `{
  "radius_mm": 2.5,
  "height_mm": 40,
  "use_computed_orientation": true,
  "workers": 4
}`
	if err := os.WriteFile(configPath, []byte(testJSON), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	cfg, err := LoadCylinderConfig(configPath)
	if err != nil {
		t.Fatalf("LoadCylinderConfig failed: %v", err)
	}

	if cfg.GetRadiusMM() != 2.5 {
		t.Errorf("GetRadiusMM() = %f, want 2.5", cfg.GetRadiusMM())
	}
	if cfg.GetHeightMM() != 40 {
		t.Errorf("GetHeightMM() = %f, want 40", cfg.GetHeightMM())
	}
	if cfg.GetResolution() != mesh.DefaultResolution {
		t.Errorf("GetResolution() = %d, want default", cfg.GetResolution())
	}
	opts := cfg.GeneratorOptions()
	if !opts.UseComputedOrientation || opts.Workers != 4 {
		t.Errorf("GeneratorOptions() = %+v", opts)
	}
}

func TestLoadCylinderConfig_Errors(t *testing.T) {
	tmpDir := t.TempDir()

	write := func(name, body string) string {
		p := filepath.Join(tmpDir, name)
		if err := os.WriteFile(p, []byte(body), 0644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
		return p
	}

	tests := []struct {
		name    string
		path    string
		wantErr string
	}{
		{"wrong extension", write("config.yaml", `{}`), ".json extension"},
		{"missing file", filepath.Join(tmpDir, "missing.json"), "failed to stat"},
		{"bad json", write("bad.json", `{"radius_mm":`), "failed to parse"},
		{"radius too small", write("r.json", `{"radius_mm": 0.05}`), "radius_mm"},
		{"radius too large", write("r2.json", `{"radius_mm": 100.5}`), "radius_mm"},
		{"height too large", write("h.json", `{"height_mm": 501}`), "height_mm"},
		{"resolution", write("res.json", `{"resolution": 2}`), "resolution"},
		{"workers", write("w.json", `{"workers": -1}`), "workers"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadCylinderConfig(tt.path)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadCylinderConfig_TooLarge(t *testing.T) {
	p := filepath.Join(t.TempDir(), "big.json")
	big := `{"radius_mm": 5` + strings.Repeat(" ", 1024*1024) + `}`
	if err := os.WriteFile(p, []byte(big), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadCylinderConfig(p); err == nil || !strings.Contains(err.Error(), "too large") {
		t.Errorf("expected size error, got %v", err)
	}
}

func TestMustLoadDefaultConfig(t *testing.T) {
	cfg := MustLoadDefaultConfig()
	if cfg.GetRadiusMM() != DefaultRadiusMM || cfg.GetHeightMM() != DefaultHeightMM {
		t.Errorf("defaults file disagrees with code defaults: r=%f h=%f", cfg.GetRadiusMM(), cfg.GetHeightMM())
	}
	if cfg.GetResolution() != mesh.DefaultResolution {
		t.Errorf("defaults file resolution = %d", cfg.GetResolution())
	}
}

func TestValidate_Boundaries(t *testing.T) {
	for _, r := range []float64{MinRadiusMM, MaxRadiusMM} {
		cfg := EmptyCylinderConfig()
		cfg.RadiusMM = ptrFloat64(r)
		if err := cfg.Validate(); err != nil {
			t.Errorf("radius %f should be accepted: %v", r, err)
		}
	}
	for _, h := range []float64{MinHeightMM, MaxHeightMM} {
		cfg := EmptyCylinderConfig()
		cfg.HeightMM = ptrFloat64(h)
		if err := cfg.Validate(); err != nil {
			t.Errorf("height %f should be accepted: %v", h, err)
		}
	}
}
