package main

import (
	"bytes"
	"context"
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/cylinder.roi/internal/db"
	"github.com/banshee-data/cylinder.roi/internal/export"
	"github.com/banshee-data/cylinder.roi/internal/fsutil"
	"github.com/banshee-data/cylinder.roi/internal/monitoring"
	"github.com/banshee-data/cylinder.roi/internal/roi"
	"github.com/banshee-data/cylinder.roi/internal/scene/sqlite"
	"github.com/banshee-data/cylinder.roi/internal/testutil"
)

const abcMarkups = `{"markups": [{"coordinateSystem": "RAS", "controlPoints": [
	{"label": "A", "position": [0, 0, 0]},
	{"label": "B", "position": [0, 0, 10]},
	{"label": "C", "position": [5, 0, 10]}
]}]}`

func memFS(t *testing.T, files map[string]string) *fsutil.MemoryFileSystem {
	t.Helper()
	fsys := fsutil.NewMemoryFileSystem()
	for name, body := range files {
		require.NoError(t, fsys.WriteFile(name, []byte(body), 0644))
	}
	return fsys
}

func TestParseFlags_Overrides(t *testing.T) {
	o, err := parseFlags([]string{"-markups", "abc.mrk.json", "-radius", "2.5", "-oriented", "-db", "x.db"}, &bytes.Buffer{})
	require.NoError(t, err)

	require.NotNil(t, o.overrides.RadiusMM)
	assert.Equal(t, 2.5, *o.overrides.RadiusMM)
	require.NotNil(t, o.overrides.UseComputedOrientation)
	assert.True(t, *o.overrides.UseComputedOrientation)
	assert.Nil(t, o.overrides.HeightMM, "unset flags must not override the config")
	assert.Nil(t, o.overrides.OutputDir)

	cfg, err := o.loadConfig()
	require.NoError(t, err)
	assert.Equal(t, 2.5, cfg.GetRadiusMM())
	assert.Equal(t, 20.0, cfg.GetHeightMM())
	assert.Equal(t, "x.db", cfg.GetDatabasePath())
	assert.Equal(t, roi.Options{UseComputedOrientation: true}, cfg.GeneratorOptions())
}

func TestLoadConfig_FileThenFlags(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cyl.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"radius_mm": 7, "height_mm": 30}`), 0644))

	o, err := parseFlags([]string{"-config", path, "-height", "12"}, &bytes.Buffer{})
	require.NoError(t, err)
	cfg, err := o.loadConfig()
	require.NoError(t, err)
	assert.Equal(t, 7.0, cfg.GetRadiusMM())
	assert.Equal(t, 12.0, cfg.GetHeightMM())

	o, err = parseFlags([]string{"-radius", "1000"}, &bytes.Buffer{})
	require.NoError(t, err)
	_, err = o.loadConfig()
	assert.ErrorContains(t, err, "radius_mm")
}

func TestRun_Generate(t *testing.T) {
	testutil.SilenceLogs(t)
	dbPath := filepath.Join(t.TempDir(), "scene.db")
	fsys := memFS(t, map[string]string{"abc.mrk.json": abcMarkups})

	var stdout bytes.Buffer
	err := run(context.Background(), fsys, []string{
		"-markups", "abc.mrk.json",
		"-db", dbPath,
		"-out", "export",
		"-preview", "footprint.svg",
		"-resolution", "12",
	}, &stdout, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, "Created 3 SegmentationNode(s).\n", stdout.String())

	man, err := export.ReadManifest(fsys, "export")
	require.NoError(t, err)
	assert.Equal(t, "abc", man.Source)
	assert.Len(t, man.ROIs, 3)
	assert.Equal(t, 12, man.Resolution)

	svg, err := fsys.ReadFile("footprint.svg")
	require.NoError(t, err)
	assert.Contains(t, string(svg), "<svg")

	database, err := db.NewDB(dbPath)
	require.NoError(t, err)
	defer database.Close()
	store := sqlite.NewStore(database.DB)

	rois, err := store.ListROIs(context.Background())
	require.NoError(t, err)
	assert.Len(t, rois, 3)

	runs, err := store.ListRuns(context.Background())
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "abc", runs[0].SourceName)
	assert.Equal(t, 3, runs[0].PointCount)
	assert.Equal(t, 12, runs[0].Resolution)
}

func TestRun_ExportLogsOnce(t *testing.T) {
	var lines []string
	restore := monitoring.Capture(&lines)
	defer restore()

	fsys := memFS(t, map[string]string{"abc.mrk.json": abcMarkups})
	args := []string{"-markups", "abc.mrk.json", "-db", filepath.Join(t.TempDir(), "scene.db"), "-out", "export"}
	require.NoError(t, run(context.Background(), fsys, args, &bytes.Buffer{}, &bytes.Buffer{}))

	exports := 0
	for _, line := range lines {
		if strings.HasPrefix(line, "[export]") {
			exports++
		}
	}
	assert.Equal(t, 1, exports, "log lines: %q", lines)
}

func TestRun_Errors(t *testing.T) {
	testutil.SilenceLogs(t)
	dbPath := filepath.Join(t.TempDir(), "scene.db")
	empty := `{"markups": [{"controlPoints": []}]}`
	fsys := memFS(t, map[string]string{"empty.mrk.json": empty, "abc.mrk.json": abcMarkups})

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"missing markups", []string{"-db", dbPath}, "-markups is required"},
		{"unknown file", []string{"-markups", "nope.fcsv", "-db", dbPath}, "failed to open markups"},
		{"empty input", []string{"-markups", "empty.mrk.json", "-db", dbPath}, roi.ErrEmptyInputSet.Error()},
		{"bad preview format", []string{"-markups", "abc.mrk.json", "-db", dbPath, "-preview", "x.gif"}, "unsupported plot format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := run(context.Background(), fsys, tt.args, &bytes.Buffer{}, &bytes.Buffer{})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestRun_VersionAndHelp(t *testing.T) {
	var stdout bytes.Buffer
	require.NoError(t, run(context.Background(), fsutil.NewMemoryFileSystem(), []string{"-version"}, &stdout, &bytes.Buffer{}))
	assert.True(t, strings.HasPrefix(stdout.String(), "cylroi "))

	var stderr bytes.Buffer
	err := run(context.Background(), fsutil.NewMemoryFileSystem(), []string{"-h"}, &bytes.Buffer{}, &stderr)
	assert.ErrorIs(t, err, flag.ErrHelp)
	assert.Contains(t, stderr.String(), "cylroi migrate")
}

func TestRun_Migrate(t *testing.T) {
	testutil.SilenceLogs(t)
	dbPath := filepath.Join(t.TempDir(), "scene.db")

	var out bytes.Buffer
	require.NoError(t, run(context.Background(), nil, []string{"migrate", "up", "-db", dbPath}, &out, &bytes.Buffer{}))
	assert.Contains(t, out.String(), "Current version: 2")

	out.Reset()
	require.NoError(t, run(context.Background(), nil, []string{"migrate", "-db", dbPath, "status"}, &out, &bytes.Buffer{}))
	assert.Contains(t, out.String(), "Dirty: false")

	assert.Error(t, run(context.Background(), nil, []string{"migrate", "up", "-db"}, &out, &bytes.Buffer{}))
}
