package landmark

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/banshee-data/cylinder.roi/internal/fsutil"
)

// Load reads the first point list from a markup file. The format is chosen by
// extension: .json (including .mrk.json) or .fcsv.
func Load(fsys fsutil.FileSystem, path string) (*Sequence, error) {
	f, err := fsys.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open markups: %w", err)
	}
	defer f.Close()

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	name = strings.TrimSuffix(name, ".mrk")

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		seqs, err := ReadMarkupsJSON(f)
		if err != nil {
			return nil, err
		}
		if seqs[0].Name == "" {
			seqs[0].Name = name
		}
		return seqs[0], nil
	case ".fcsv":
		seq, err := ReadFCSV(f)
		if err != nil {
			return nil, err
		}
		seq.Name = name
		return seq, nil
	default:
		return nil, fmt.Errorf("unsupported markups extension %q (want .json or .fcsv)", ext)
	}
}
