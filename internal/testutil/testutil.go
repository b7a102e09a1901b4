// Package testutil holds fixtures shared by package tests.
package testutil

import (
	"path/filepath"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/cylinder.roi/internal/db"
	"github.com/banshee-data/cylinder.roi/internal/landmark"
	"github.com/banshee-data/cylinder.roi/internal/monitoring"
)

// SilenceLogs installs a no-op monitoring logger for the duration of t.
func SilenceLogs(t testing.TB) {
	t.Helper()
	original := monitoring.Logf
	monitoring.SetLogger(nil)
	t.Cleanup(func() { monitoring.Logf = original })
}

// ABC returns the three-point reference sequence: A at the origin, B ten
// units up Z, C five units along X from B.
func ABC() *landmark.Sequence {
	return landmark.NewSequence("abc",
		landmark.ControlPoint{Position: r3.Vec{X: 0, Y: 0, Z: 0}, Label: "A"},
		landmark.ControlPoint{Position: r3.Vec{X: 0, Y: 0, Z: 10}, Label: "B"},
		landmark.ControlPoint{Position: r3.Vec{X: 5, Y: 0, Z: 10}, Label: "C"},
	)
}

// AssertVecNear reports an error unless every component of got is within tol
// of want.
func AssertVecNear(t testing.TB, want, got r3.Vec, tol float64, label string) {
	t.Helper()
	d := r3.Sub(got, want)
	if abs(d.X) > tol || abs(d.Y) > tol || abs(d.Z) > tol {
		t.Errorf("%s: got (%g, %g, %g), want (%g, %g, %g) within %g",
			label, got.X, got.Y, got.Z, want.X, want.Y, want.Z, tol)
	}
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// NewTestDB opens a migrated scene database in a temp directory and closes
// it when t finishes.
func NewTestDB(t testing.TB) *db.DB {
	t.Helper()
	database, err := db.NewDB(filepath.Join(t.TempDir(), "scene.db"))
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return database
}
