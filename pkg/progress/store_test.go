package progress

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	json "github.com/goccy/go-json"

	"github.com/vanderheijden86/guidepost/pkg/tour"
)

func openTemp(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "nested", "progress.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// stores runs a test against every Store implementation.
func stores(t *testing.T, fn func(t *testing.T, s Store)) {
	t.Run("sqlite", func(t *testing.T) { fn(t, openTemp(t)) })
	t.Run("memory", func(t *testing.T) { fn(t, NewMemoryStore()) })
}

func TestStore_OutcomeMarksPageSeen(t *testing.T) {
	stores(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		if done, err := s.HasCompleted(ctx, "list"); err != nil || done {
			t.Fatalf("expected fresh page, got %v %v", done, err)
		}
		if err := s.RecordOutcome(ctx, "list", 4, tour.OutcomeCompleted); err != nil {
			t.Fatal(err)
		}
		if err := s.RecordOutcome(ctx, "board", 1, tour.OutcomeSkipped); err != nil {
			t.Fatal(err)
		}
		for _, key := range []string{"list", "board"} {
			if done, _ := s.HasCompleted(ctx, key); !done {
				t.Errorf("expected %s to count as seen", key)
			}
		}
		if done, _ := s.HasCompleted(ctx, "detail"); done {
			t.Error("expected untouched page to be unseen")
		}
	})
}

func TestStore_ResetProgress(t *testing.T) {
	stores(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		_ = s.RecordOutcome(ctx, "list", 4, tour.OutcomeCompleted)
		if err := s.ResetProgress(ctx, "list"); err != nil {
			t.Fatal(err)
		}
		if done, _ := s.HasCompleted(ctx, "list"); done {
			t.Error("expected reset to clear completion")
		}
		// Resetting an unknown page is fine.
		if err := s.ResetProgress(ctx, "never"); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})
}

func TestStore_ListKeepsLatest(t *testing.T) {
	stores(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		_ = s.RecordOutcome(ctx, "list", 2, tour.OutcomeSkipped)
		_ = s.ResetProgress(ctx, "list")
		_ = s.RecordOutcome(ctx, "list", 8, tour.OutcomeCompleted)
		_ = s.RecordOutcome(ctx, "board", 3, tour.OutcomeCompleted)

		recs, err := s.List(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if len(recs) != 2 || recs[0].PageKey != "board" || recs[1].PageKey != "list" {
			t.Fatalf("expected board, list; got %+v", recs)
		}
		list := recs[1]
		if list.StepsViewed != 8 || list.Outcome != tour.OutcomeCompleted {
			t.Errorf("expected latest outcome, got %+v", list)
		}
		if list.Resets != 1 {
			t.Errorf("expected 1 reset, got %d", list.Resets)
		}
		if list.RunID == "" || list.UpdatedAt.IsZero() {
			t.Errorf("expected run id and timestamp, got %+v", list)
		}
	})
}

func TestSQLiteStore_RunHistory(t *testing.T) {
	s := openTemp(t)
	tick := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { tick = tick.Add(time.Second); return tick }
	ctx := context.Background()

	_ = s.RecordOutcome(ctx, "list", 1, tour.OutcomeSkipped)
	_ = s.RecordOutcome(ctx, "board", 3, tour.OutcomeCompleted)
	_ = s.RecordOutcome(ctx, "list", 4, tour.OutcomeCompleted)

	runs, err := s.Runs(ctx, "list")
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 list runs, got %d", len(runs))
	}
	if runs[0].Outcome != tour.OutcomeSkipped || runs[1].StepsViewed != 4 {
		t.Errorf("expected history oldest first, got %+v", runs)
	}
	if runs[0].ID == runs[1].ID {
		t.Error("expected distinct run ids")
	}
	all, _ := s.Runs(ctx, "")
	if len(all) != 3 {
		t.Errorf("expected 3 runs total, got %d", len(all))
	}
}

func TestStore_KeepsTourRunID(t *testing.T) {
	ctx := tour.WithRunID(context.Background(), "run-42")
	stores(t, func(t *testing.T, s Store) {
		if err := s.RecordOutcome(ctx, "list", 3, tour.OutcomeSkipped); err != nil {
			t.Fatal(err)
		}
		recs, err := s.List(ctx)
		if err != nil || len(recs) != 1 {
			t.Fatalf("List: %v %+v", err, recs)
		}
		if recs[0].RunID != "run-42" {
			t.Errorf("expected run id run-42, got %q", recs[0].RunID)
		}
	})

	s := openTemp(t)
	_ = s.RecordOutcome(ctx, "board", 1, tour.OutcomeSkipped)
	runs, err := s.Runs(ctx, "board")
	if err != nil || len(runs) != 1 {
		t.Fatalf("Runs: %v %+v", err, runs)
	}
	if runs[0].RunID != "run-42" || runs[0].ID == "run-42" {
		t.Errorf("expected run id kept beside a row id, got %+v", runs[0])
	}
}

func TestSQLiteStore_PersistsAcrossOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "progress.db")
	s, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	_ = s.RecordOutcome(context.Background(), "settings", 3, tour.OutcomeCompleted)
	s.Close()

	s, err = Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()
	if done, _ := s.HasCompleted(context.Background(), "settings"); !done {
		t.Error("expected progress to survive reopen")
	}
	v, dirty, err := SchemaVersion(s.db)
	if err != nil || dirty || v != 3 {
		t.Errorf("expected clean schema version 3, got %d dirty=%v err=%v", v, dirty, err)
	}
}

func TestSQLiteStore_InMemory(t *testing.T) {
	s, err := Open(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	ctx := context.Background()
	_ = s.RecordOutcome(ctx, "list", 1, tour.OutcomeSkipped)
	if done, _ := s.HasCompleted(ctx, "list"); !done {
		t.Error("expected in-memory database to keep state on its single connection")
	}
}

func TestBuildReport(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	_ = s.RecordOutcome(ctx, "board", 3, tour.OutcomeCompleted)
	_ = s.RecordOutcome(ctx, "retired", 2, tour.OutcomeSkipped)

	rep, err := BuildReport(ctx, s, []PageInfo{{Key: "list", Name: "Issue list"}, {Key: "board", Name: "Board"}})
	if err != nil {
		t.Fatal(err)
	}
	if len(rep.Pages) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rep.Pages))
	}
	if rep.Pages[0].PageKey != "list" || rep.Pages[0].Seen {
		t.Errorf("expected unseen list first, got %+v", rep.Pages[0])
	}
	if !rep.Pages[1].Seen || rep.Pages[1].Record.StepsViewed != 3 {
		t.Errorf("expected board seen with 3 steps, got %+v", rep.Pages[1])
	}
	if rep.Pages[2].PageKey != "retired" {
		t.Errorf("expected orphaned record last, got %s", rep.Pages[2].PageKey)
	}

	var buf bytes.Buffer
	if err := rep.WriteJSON(&buf); err != nil {
		t.Fatal(err)
	}
	var decoded Report
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("report is not valid JSON: %v", err)
	}
	if len(decoded.Pages) != 3 || decoded.Pages[1].Record.Outcome != tour.OutcomeCompleted {
		t.Errorf("unexpected decoded report: %+v", decoded)
	}

	buf.Reset()
	if err := rep.WriteTable(&buf); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, "PAGE") || !strings.Contains(out, "completed") || !strings.Contains(out, "new") {
		t.Errorf("unexpected table:\n%s", out)
	}
}
