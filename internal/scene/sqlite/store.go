// Package sqlite persists scene nodes in the scene database.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/banshee-data/cylinder.roi/internal/geometry"
	"github.com/banshee-data/cylinder.roi/internal/mesh"
	"github.com/banshee-data/cylinder.roi/internal/scene"
	"github.com/banshee-data/cylinder.roi/internal/timeutil"
)

var (
	_ scene.Scene  = (*Store)(nil)
	_ scene.Lister = (*Store)(nil)
)

// Store implements scene.Scene over the transform_nodes, segmentation_nodes
// and segments tables.
type Store struct {
	db    *sql.DB
	clock timeutil.Clock
}

// NewStore creates a Store. The schema must already be migrated.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db, clock: timeutil.RealClock{}}
}

// SetClock replaces the clock used for created/updated timestamps.
func (s *Store) SetClock(c timeutil.Clock) {
	s.clock = c
}

func (s *Store) nowNs() int64 {
	return s.clock.Now().UnixNano()
}

func (s *Store) FindByName(ctx context.Context, kind scene.Kind, name string) (scene.Handle, bool, error) {
	table, err := tableFor(kind)
	if err != nil {
		return scene.Handle{}, false, err
	}

	var id string
	err = s.db.QueryRowContext(ctx, `SELECT node_id FROM `+table+` WHERE name = ?`, name).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return scene.Handle{}, false, nil
	}
	if err != nil {
		return scene.Handle{}, false, fmt.Errorf("find %s: %w", kind, err)
	}
	return scene.Handle{ID: id, Name: name, Kind: kind}, true, nil
}

func (s *Store) CreateTransform(ctx context.Context, name string) (scene.Handle, error) {
	h := scene.Handle{ID: uuid.New().String(), Name: name, Kind: scene.KindTransform}
	matrix, err := encodePlacement(geometry.Identity())
	if err != nil {
		return scene.Handle{}, err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO transform_nodes (node_id, name, matrix_json, created_at_ns)
		VALUES (?, ?, ?, ?)
	`, h.ID, h.Name, matrix, s.nowNs())
	if err != nil {
		return scene.Handle{}, fmt.Errorf("insert transform: %w", err)
	}
	return h, nil
}

func (s *Store) CreateSegmentation(ctx context.Context, name string) (scene.Handle, error) {
	h := scene.Handle{ID: uuid.New().String(), Name: name, Kind: scene.KindSegmentation}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO segmentation_nodes (node_id, name, created_at_ns)
		VALUES (?, ?, ?)
	`, h.ID, h.Name, s.nowNs())
	if err != nil {
		return scene.Handle{}, fmt.Errorf("insert segmentation: %w", err)
	}
	return h, nil
}

func (s *Store) SetTransform(ctx context.Context, transform scene.Handle, p geometry.Placement) error {
	matrix, err := encodePlacement(p)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE transform_nodes SET matrix_json = ?, updated_at_ns = ? WHERE node_id = ?
	`, matrix, s.nowNs(), transform.ID)
	if err != nil {
		return fmt.Errorf("update transform: %w", err)
	}
	return requireRow(res, "transform", transform.ID)
}

func (s *Store) Observe(ctx context.Context, segmentation, transform scene.Handle) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE segmentation_nodes SET transform_id = ?, updated_at_ns = ? WHERE node_id = ?
	`, transform.ID, s.nowNs(), segmentation.ID)
	if err != nil {
		// A dangling transform ID fails the foreign key.
		return fmt.Errorf("observe transform %s: %w", transform.ID, err)
	}
	return requireRow(res, "segmentation", segmentation.ID)
}

// ReplaceSegments deletes the container's segments and inserts segs in one
// transaction, so readers never see a half-replaced container.
func (s *Store) ReplaceSegments(ctx context.Context, segmentation scene.Handle, segs []scene.Segment) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	var exists int
	err = tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM segmentation_nodes WHERE node_id = ?`, segmentation.ID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check segmentation: %w", err)
	}
	if exists == 0 {
		return fmt.Errorf("segmentation %s: %w", segmentation.ID, scene.ErrNodeNotFound)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM segments WHERE segmentation_id = ?`, segmentation.ID); err != nil {
		return fmt.Errorf("delete segments: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO segments (segment_id, segmentation_id, name, position, triangle_count, surface_blob)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare segment insert: %w", err)
	}
	defer stmt.Close()

	for i, sg := range segs {
		if sg.Surface == nil {
			return fmt.Errorf("segment %q has no surface", sg.Name)
		}
		_, err := stmt.ExecContext(ctx, uuid.New().String(), segmentation.ID, sg.Name, i,
			sg.Surface.NumTriangles(), mesh.Marshal(sg.Surface))
		if err != nil {
			return fmt.Errorf("insert segment %q: %w", sg.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Segments loads the stored segments of a container with their surfaces.
func (s *Store) Segments(ctx context.Context, segmentation scene.Handle) ([]scene.Segment, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, surface_blob FROM segments WHERE segmentation_id = ? ORDER BY position
	`, segmentation.ID)
	if err != nil {
		return nil, fmt.Errorf("query segments: %w", err)
	}
	defer rows.Close()

	var out []scene.Segment
	for rows.Next() {
		var name string
		var blob []byte
		if err := rows.Scan(&name, &blob); err != nil {
			return nil, fmt.Errorf("scan segment row: %w", err)
		}
		m, err := mesh.Unmarshal(blob)
		if err != nil {
			return nil, fmt.Errorf("decode segment %q: %w", name, err)
		}
		out = append(out, scene.Segment{Name: name, Surface: m})
	}
	return out, rows.Err()
}

// Placement returns the stored placement of a transform node.
func (s *Store) Placement(ctx context.Context, transform scene.Handle) (geometry.Placement, error) {
	var matrix string
	err := s.db.QueryRowContext(ctx, `SELECT matrix_json FROM transform_nodes WHERE node_id = ?`, transform.ID).Scan(&matrix)
	if errors.Is(err, sql.ErrNoRows) {
		return geometry.Placement{}, fmt.Errorf("transform %s: %w", transform.ID, scene.ErrNodeNotFound)
	}
	if err != nil {
		return geometry.Placement{}, fmt.Errorf("get transform: %w", err)
	}
	return decodePlacement(matrix)
}

// ListROIs returns every segmentation container with its observed transform
// and segment summary, ordered by container name.
func (s *Store) ListROIs(ctx context.Context) ([]scene.ROIRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT sn.node_id, sn.name, tn.node_id, tn.name, tn.matrix_json, sg.name, sg.triangle_count
		FROM segmentation_nodes sn
		LEFT JOIN transform_nodes tn ON tn.node_id = sn.transform_id
		LEFT JOIN segments sg ON sg.segmentation_id = sn.node_id
		ORDER BY sn.name, sg.position
	`)
	if err != nil {
		return nil, fmt.Errorf("list rois: %w", err)
	}
	defer rows.Close()

	var out []scene.ROIRecord
	for rows.Next() {
		var segID, segName string
		var tfID, tfName, matrix, sgName sql.NullString
		var triangles sql.NullInt64
		if err := rows.Scan(&segID, &segName, &tfID, &tfName, &matrix, &sgName, &triangles); err != nil {
			return nil, fmt.Errorf("scan roi row: %w", err)
		}

		if len(out) == 0 || out[len(out)-1].Segmentation.ID != segID {
			rec := scene.ROIRecord{
				Segmentation: scene.Handle{ID: segID, Name: segName, Kind: scene.KindSegmentation},
				Segments:     []scene.SegmentInfo{},
			}
			if tfID.Valid {
				rec.Transform = &scene.Handle{ID: tfID.String, Name: tfName.String, Kind: scene.KindTransform}
				p, err := decodePlacement(matrix.String)
				if err != nil {
					return nil, err
				}
				rec.Placement = &p
			}
			out = append(out, rec)
		}
		if sgName.Valid {
			last := &out[len(out)-1]
			last.Segments = append(last.Segments, scene.SegmentInfo{Name: sgName.String, Triangles: int(triangles.Int64)})
		}
	}
	return out, rows.Err()
}

// Run is one recorded generation over a point list.
type Run struct {
	RunID                  string  `json:"run_id"`
	SourceName             string  `json:"source_name"`
	PointCount             int     `json:"point_count"`
	RadiusMM               float64 `json:"radius_mm"`
	HeightMM               float64 `json:"height_mm"`
	Resolution             int     `json:"resolution"`
	UseComputedOrientation bool    `json:"use_computed_orientation"`
	CreatedAtNs            int64   `json:"created_at_ns"`
}

// InsertRun records a generation run. If run.RunID is empty, a new UUID is
// generated.
func (s *Store) InsertRun(ctx context.Context, run *Run) error {
	if run.RunID == "" {
		run.RunID = uuid.New().String()
	}
	if run.CreatedAtNs == 0 {
		run.CreatedAtNs = s.nowNs()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO roi_runs (
			run_id, source_name, point_count, radius_mm, height_mm,
			resolution, use_computed_orientation, created_at_ns
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		run.RunID,
		run.SourceName,
		run.PointCount,
		run.RadiusMM,
		run.HeightMM,
		run.Resolution,
		run.UseComputedOrientation,
		run.CreatedAtNs,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// ListRuns returns recorded runs, newest first.
func (s *Store) ListRuns(ctx context.Context) ([]*Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, source_name, point_count, radius_mm, height_mm,
		       resolution, use_computed_orientation, created_at_ns
		FROM roi_runs
		ORDER BY created_at_ns DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(
			&r.RunID,
			&r.SourceName,
			&r.PointCount,
			&r.RadiusMM,
			&r.HeightMM,
			&r.Resolution,
			&r.UseComputedOrientation,
			&r.CreatedAtNs,
		); err != nil {
			return nil, fmt.Errorf("scan run row: %w", err)
		}
		runs = append(runs, &r)
	}
	return runs, rows.Err()
}

func tableFor(kind scene.Kind) (string, error) {
	switch kind {
	case scene.KindTransform:
		return "transform_nodes", nil
	case scene.KindSegmentation:
		return "segmentation_nodes", nil
	default:
		return "", fmt.Errorf("unknown node kind %q", kind)
	}
}

func requireRow(res sql.Result, kind, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", kind, id, scene.ErrNodeNotFound)
	}
	return nil
}

func encodePlacement(p geometry.Placement) (string, error) {
	b, err := json.Marshal(p.T)
	if err != nil {
		return "", fmt.Errorf("encode placement: %w", err)
	}
	return string(b), nil
}

func decodePlacement(s string) (geometry.Placement, error) {
	var p geometry.Placement
	if err := json.Unmarshal([]byte(s), &p.T); err != nil {
		return geometry.Placement{}, fmt.Errorf("decode placement: %w", err)
	}
	return p, nil
}
