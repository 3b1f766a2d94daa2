package history

import (
	"path/filepath"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestRecordAndGet(t *testing.T) {
	store := openTestStore(t)

	id, err := store.Record(Run{
		Project:           "demo-app",
		Target:            "/tmp/demo-app",
		Features:          []string{"auth", "docker"},
		Status:            StatusOK,
		FilesCopied:       42,
		InjectionsApplied: 5,
		StartedAt:         time.Now(),
		DurationMS:        120,
	})
	if err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if id == 0 {
		t.Error("expected a non-zero run ID")
	}

	run, err := store.Get(id)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if run.Project != "demo-app" || run.Status != StatusOK {
		t.Errorf("unexpected run: %+v", run)
	}
	if len(run.Features) != 2 || run.Features[0] != "auth" {
		t.Errorf("features not round-tripped: %v", run.Features)
	}
	if run.FilesCopied != 42 || run.InjectionsApplied != 5 {
		t.Errorf("counters not round-tripped: %+v", run)
	}
}

func TestGetMissing(t *testing.T) {
	store := openTestStore(t)

	if _, err := store.Get(999); err == nil {
		t.Error("expected an error for an unknown run ID")
	}
}

func TestRecentOrderAndLimit(t *testing.T) {
	store := openTestStore(t)

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		_, err := store.Record(Run{
			Project:   "p",
			Target:    "/tmp/p",
			Status:    StatusOK,
			StartedAt: base.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatal(err)
		}
	}

	runs, err := store.Recent(3)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(runs) != 3 {
		t.Fatalf("expected 3 runs, got %d", len(runs))
	}
	for i := 1; i < len(runs); i++ {
		if runs[i].StartedAt.After(runs[i-1].StartedAt) {
			t.Error("runs should be ordered newest first")
		}
	}

	all, err := store.Recent(0)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 5 {
		t.Errorf("limit 0 should fall back to the default, got %d runs", len(all))
	}
}

func TestRecordFailedRun(t *testing.T) {
	store := openTestStore(t)

	id, err := store.Record(Run{
		Project:   "demo",
		Target:    "/tmp/demo",
		Status:    StatusFailed,
		Error:     "manifest merge failed: file does not exist",
		StartedAt: time.Now(),
	})
	if err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	run, err := store.Get(id)
	if err != nil {
		t.Fatal(err)
	}
	if run.Status != StatusFailed || run.Error == "" {
		t.Errorf("failure details lost: %+v", run)
	}
}
