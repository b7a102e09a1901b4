// Package export writes generated cylinder ROIs to disk as binary STL
// surfaces with a JSON manifest.
package export

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/banshee-data/cylinder.roi/internal/fsutil"
	"github.com/banshee-data/cylinder.roi/internal/mesh"
	"github.com/banshee-data/cylinder.roi/internal/monitoring"
	"github.com/banshee-data/cylinder.roi/internal/roi"
	"github.com/banshee-data/cylinder.roi/internal/security"
)

// ManifestName is the file name of the manifest inside the export directory.
const ManifestName = "manifest.json"

// Options controls how surfaces are written.
type Options struct {
	// World writes each surface with its placement applied. Otherwise the
	// canonical mesh is written and the placement is only in the manifest.
	World bool
}

// Entry describes one exported ROI.
type Entry struct {
	Index     int         `json:"index"`
	Label     string      `json:"label"`
	Container string      `json:"container"`
	Transform string      `json:"transform"`
	Position  [3]float64  `json:"position"`
	Direction [3]float64  `json:"direction"`
	Placement [16]float64 `json:"placement"`
	File      string      `json:"file"`
	Triangles int         `json:"triangles"`
}

// Manifest lists every exported ROI in input order.
type Manifest struct {
	Source     string  `json:"source,omitempty"`
	RadiusMM   float64 `json:"radius_mm"`
	HeightMM   float64 `json:"height_mm"`
	Resolution int     `json:"resolution"`
	World      bool    `json:"world"`
	ROIs       []Entry `json:"rois"`
}

// Write stores one STL per result under dir plus ManifestName, and returns
// the manifest. File names are "<index>_<label>.stl" with the label
// sanitised, so duplicate labels do not collide.
func Write(fsys fsutil.FileSystem, dir, source string, spec mesh.CylinderSpec, results []roi.Result, opts Options) (*Manifest, error) {
	if err := fsys.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create export dir: %w", err)
	}

	man := &Manifest{
		Source:     source,
		RadiusMM:   spec.Radius,
		HeightMM:   spec.Height,
		Resolution: spec.Resolution,
		World:      opts.World,
		ROIs:       make([]Entry, 0, len(results)),
	}

	for _, r := range results {
		name := fmt.Sprintf("%03d_%s.stl", r.Index+1, security.SanitizeFilename(r.Label))
		path, err := security.JoinWithin(dir, name)
		if err != nil {
			return nil, err
		}

		surface := r.Mesh
		if opts.World {
			surface = r.WorldMesh()
		}
		if err := writeSTL(fsys, path, surface, r.ContainerName()); err != nil {
			return nil, err
		}

		d := r.Direction.Vec()
		man.ROIs = append(man.ROIs, Entry{
			Index:     r.Index,
			Label:     r.Label,
			Container: r.ContainerName(),
			Transform: r.TransformName(),
			Position:  [3]float64{r.Position.X, r.Position.Y, r.Position.Z},
			Direction: [3]float64{d.X, d.Y, d.Z},
			Placement: r.Placement.T,
			File:      name,
			Triangles: surface.NumTriangles(),
		})
	}

	data, err := json.MarshalIndent(man, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode manifest: %w", err)
	}
	if err := fsys.WriteFile(filepath.Join(dir, ManifestName), data, 0644); err != nil {
		return nil, fmt.Errorf("write manifest: %w", err)
	}

	monitoring.Logf("[export] wrote %d surfaces to %s", len(results), dir)
	return man, nil
}

func writeSTL(fsys fsutil.FileSystem, path string, m *mesh.Mesh, name string) (err error) {
	f, err := fsys.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("close %s: %w", path, cerr)
		}
	}()
	if err := mesh.WriteSTL(f, m, name); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// ReadManifest loads a manifest written by Write.
func ReadManifest(fsys fsutil.FileSystem, dir string) (*Manifest, error) {
	data, err := fsys.ReadFile(filepath.Join(dir, ManifestName))
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	var man Manifest
	if err := json.Unmarshal(data, &man); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	return &man, nil
}
