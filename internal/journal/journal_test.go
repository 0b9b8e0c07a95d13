package journal

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"
)

func openTestJournal(t *testing.T) *Journal {
	t.Helper()
	j, err := Open(context.Background(), filepath.Join(t.TempDir(), "journal.db"), slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { j.Close() })
	return j
}

func TestOpenEmptyPath(t *testing.T) {
	j, err := Open(context.Background(), "", slog.Default())
	if err != nil || j != nil {
		t.Errorf("Open(\"\") = %v, %v; want nil, nil", j, err)
	}
}

func TestNilJournal(t *testing.T) {
	var j *Journal
	ctx := context.Background()
	if j.Enabled() {
		t.Error("nil journal should not be enabled")
	}
	if err := j.Record(ctx, Change{Op: OpAdd}); err != nil {
		t.Errorf("Record on nil journal = %v", err)
	}
	if got, err := j.Recent(ctx, 10); err != nil || got != nil {
		t.Errorf("Recent on nil journal = %v, %v", got, err)
	}
	if err := j.Close(); err != nil {
		t.Errorf("Close on nil journal = %v", err)
	}
}

func TestRecordAndRecent(t *testing.T) {
	j := openTestJournal(t)
	ctx := context.Background()

	changes := []Change{
		{Op: OpAdd, Position: 3, Target: "c.com", Note: "third"},
		{Op: OpToggle, Position: 1, Target: "a.com", Commented: true, Remote: "127.0.0.1:5000"},
		{Op: OpRemove, Position: 2},
	}
	for _, c := range changes {
		if err := j.Record(ctx, c); err != nil {
			t.Fatalf("Record(%s): %v", c.Op, err)
		}
	}

	got, err := j.Recent(ctx, 0)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("Recent returned %d changes, want 3", len(got))
	}
	if got[0].Op != OpRemove || got[2].Op != OpAdd {
		t.Errorf("order = %s, %s, %s; want newest first", got[0].Op, got[1].Op, got[2].Op)
	}
	if !got[1].Commented || got[1].Remote != "127.0.0.1:5000" || got[1].Target != "a.com" {
		t.Errorf("toggle change = %+v", got[1])
	}
	if got[2].Note != "third" || got[2].Position != 3 {
		t.Errorf("add change = %+v", got[2])
	}
	if time.Since(got[0].At) > time.Minute {
		t.Errorf("At = %v, want recent", got[0].At)
	}
}

func TestRecentLimit(t *testing.T) {
	j := openTestJournal(t)
	ctx := context.Background()
	for i := 1; i <= 5; i++ {
		if err := j.Record(ctx, Change{Op: OpModify, Position: i}); err != nil {
			t.Fatal(err)
		}
	}
	got, err := j.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(got) != 2 || got[0].Position != 5 || got[1].Position != 4 {
		t.Errorf("Recent(2) = %+v", got)
	}
}

func TestReopenKeepsHistory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "journal.db")
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx := context.Background()

	j, err := Open(ctx, path, logger)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := j.Record(ctx, Change{Op: OpAdd, Position: 1, Target: "a.com"}); err != nil {
		t.Fatal(err)
	}
	j.Close()

	j, err = Open(ctx, path, logger)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer j.Close()
	got, err := j.Recent(ctx, 10)
	if err != nil || len(got) != 1 || got[0].Target != "a.com" {
		t.Errorf("after reopen Recent = %+v, %v", got, err)
	}
}
