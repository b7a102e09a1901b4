package testutil

import (
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/cylinder.roi/internal/monitoring"
)

func TestSilenceLogs(t *testing.T) {
	called := false
	original := monitoring.Logf
	monitoring.SetLogger(func(string, ...interface{}) { called = true })
	defer func() { monitoring.Logf = original }()

	t.Run("silenced", func(t *testing.T) {
		SilenceLogs(t)
		monitoring.Logf("hidden")
	})
	if called {
		t.Error("logger was called while silenced")
	}

	monitoring.Logf("visible")
	if !called {
		t.Error("logger was not restored after the subtest")
	}
}

func TestABC(t *testing.T) {
	seq := ABC()
	if seq.Count() != 3 {
		t.Fatalf("Count() = %d, want 3", seq.Count())
	}
	if seq.LabelAt(2) != "C" || seq.PositionAt(2) != (r3.Vec{X: 5, Z: 10}) {
		t.Errorf("unexpected C: %s %v", seq.LabelAt(2), seq.PositionAt(2))
	}
}

func TestAssertVecNear(t *testing.T) {
	AssertVecNear(t, r3.Vec{X: 1}, r3.Vec{X: 1 + 1e-12}, 1e-9, "near")

	rec := &recordingTB{TB: t}
	AssertVecNear(rec, r3.Vec{X: 1}, r3.Vec{X: 2}, 1e-9, "far")
	if !rec.failed {
		t.Error("AssertVecNear should fail for distant vectors")
	}
}

type recordingTB struct {
	testing.TB
	failed bool
}

func (r *recordingTB) Helper() {}

func (r *recordingTB) Errorf(string, ...interface{}) { r.failed = true }

func TestNewTestDB(t *testing.T) {
	database := NewTestDB(t)
	var n int
	if err := database.QueryRow(`SELECT COUNT(*) FROM segmentation_nodes`).Scan(&n); err != nil {
		t.Fatalf("schema not migrated: %v", err)
	}
}
