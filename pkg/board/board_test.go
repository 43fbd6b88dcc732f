package board

import (
	"bytes"
	"context"
	"errors"
	"os"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/harrisonrobin/whattodo/pkg/logger"
	"github.com/harrisonrobin/whattodo/pkg/model"
	"github.com/harrisonrobin/whattodo/pkg/orgmode"
	"github.com/harrisonrobin/whattodo/pkg/schedule"
	"github.com/harrisonrobin/whattodo/pkg/slot"
	"github.com/harrisonrobin/whattodo/pkg/store"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time {
	c.t = c.t.Add(time.Second)
	return c.t
}

func newBoard(t *testing.T) (*Board, *fakeClock) {
	t.Helper()
	clock := &fakeClock{t: time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)}
	return New(context.Background(), store.New(slot.NewMemory(nil)), clock.Now), clock
}

func add(t *testing.T, b *Board, title string, duration int, deadline time.Duration) model.Task {
	t.Helper()
	d := model.NewDraft(b.Now())
	d.Title = title
	d.Duration = duration
	d.Deadline = b.Now().Add(deadline)
	task, err := b.Add(context.Background(), d)
	if err != nil {
		t.Fatalf("Add(%s) failed: %v", title, err)
	}
	return task
}

func titles(tasks []model.Task) []string {
	out := make([]string, len(tasks))
	for i, t := range tasks {
		out[i] = t.Title
	}
	return out
}

func TestSelectAndReset(t *testing.T) {
	b, _ := newBoard(t)
	add(t, b, "A", 10, 24*time.Hour)
	add(t, b, "B", 5, 48*time.Hour)

	got, err := b.Select(schedule.SPT)
	if err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	if !slices.Equal(titles(got), []string{"B", "A"}) {
		t.Errorf("SPT: expected [B A], got %v", titles(got))
	}
	if k, ok := b.Selected(); !ok || k != schedule.SPT {
		t.Errorf("Expected SPT selected, got %v %v", k, ok)
	}

	got, _ = b.Select(schedule.EDF)
	if !slices.Equal(titles(got), []string{"A", "B"}) {
		t.Errorf("EDF: expected [A B], got %v", titles(got))
	}

	b.Select(schedule.SPT)
	if got := b.Reset(); !slices.Equal(titles(got), []string{"A", "B"}) {
		t.Errorf("Reset: expected insertion order, got %v", titles(got))
	}
	if _, ok := b.Selected(); ok {
		t.Error("Expected no selection after reset")
	}
	if !slices.Equal(titles(b.Tasks()), []string{"A", "B"}) {
		t.Error("Selecting a strategy must not change the stored order")
	}
}

func TestAddClearsSelection(t *testing.T) {
	b, _ := newBoard(t)
	add(t, b, "long", 60, time.Hour)
	add(t, b, "short", 5, time.Hour)
	b.Select(schedule.SPT)

	add(t, b, "new", 30, time.Hour)
	if _, ok := b.Selected(); ok {
		t.Error("Expected selection to be cleared by Add")
	}
	if got := titles(b.Display(true)); !slices.Equal(got, []string{"long", "short", "new"}) {
		t.Errorf("Expected insertion order after Add, got %v", got)
	}
}

func TestSelectNothingToSchedule(t *testing.T) {
	b, _ := newBoard(t)
	if _, err := b.Select(schedule.HPF); !errors.Is(err, ErrNothingToSchedule) {
		t.Errorf("Expected ErrNothingToSchedule on empty board, got %v", err)
	}

	task := add(t, b, "only", 30, time.Hour)
	b.SetCompleted(context.Background(), task.ID, true)
	if b.IncompleteCount() != 0 {
		t.Fatal("Expected no incomplete tasks")
	}
	if _, err := b.Select(schedule.HPF); !errors.Is(err, ErrNothingToSchedule) {
		t.Errorf("Expected ErrNothingToSchedule with only completed tasks, got %v", err)
	}
}

func TestCompletedGoesToTail(t *testing.T) {
	ctx := context.Background()
	b, _ := newBoard(t)
	done := add(t, b, "done", 5, time.Hour)
	add(t, b, "open", 120, 72*time.Hour)
	if err := b.SetCompleted(ctx, done.ID, true); err != nil {
		t.Fatalf("SetCompleted failed: %v", err)
	}

	for _, k := range schedule.Kinds() {
		got, err := b.Select(k)
		if err != nil {
			t.Fatalf("%s: Select failed: %v", k, err)
		}
		if !slices.Equal(titles(got), []string{"open", "done"}) {
			t.Errorf("%s: expected [open done], got %v", k, titles(got))
		}
	}
}

func TestSetCompletedReappliesSelection(t *testing.T) {
	ctx := context.Background()
	b, _ := newBoard(t)
	a := add(t, b, "a", 30, time.Hour)
	add(t, b, "b", 10, time.Hour)
	add(t, b, "c", 20, time.Hour)
	b.Select(schedule.SPT)

	if err := b.SetCompleted(ctx, a.ID, true); err != nil {
		t.Fatalf("SetCompleted failed: %v", err)
	}
	if got := titles(b.Display(true)); !slices.Equal(got, []string{"b", "c", "a"}) {
		t.Errorf("Expected SPT order with completed tail, got %v", got)
	}
	if got := titles(b.Display(false)); !slices.Equal(got, []string{"b", "c"}) {
		t.Errorf("Expected completed tasks hidden, got %v", got)
	}
}

func TestAddInvalidLeavesBoardUnchanged(t *testing.T) {
	b, _ := newBoard(t)
	add(t, b, "keep", 30, time.Hour)

	d := model.NewDraft(b.Now())
	d.Title = "bad"
	d.Duration = 0
	if _, err := b.Add(context.Background(), d); !errors.Is(err, model.ErrInvalidDuration) {
		t.Errorf("Expected ErrInvalidDuration, got %v", err)
	}
	d.Duration = 30
	d.Title = "  "
	if _, err := b.Add(context.Background(), d); !errors.Is(err, model.ErrEmptyTitle) {
		t.Errorf("Expected ErrEmptyTitle, got %v", err)
	}
	if n := len(b.Tasks()); n != 1 {
		t.Errorf("Expected 1 task, got %d", n)
	}
}

func TestBoardLoadsExistingStore(t *testing.T) {
	ctx := context.Background()
	mem := slot.NewMemory(nil)
	clock := &fakeClock{t: time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)}
	first := New(ctx, store.New(mem), clock.Now)
	add(t, first, "persisted", 30, time.Hour)

	second := New(ctx, store.New(mem), clock.Now)
	if got := titles(second.Display(true)); !slices.Equal(got, []string{"persisted"}) {
		t.Errorf("Expected task from mirror, got %v", got)
	}
}

func TestImportMergesByID(t *testing.T) {
	ctx := context.Background()
	b, clock := newBoard(t)
	existing := add(t, b, "existing", 30, time.Hour)
	b.Select(schedule.SPT)

	incoming := []model.Task{
		{ID: existing.ID, Title: "existing", Duration: 30, Importance: 3, Deadline: existing.Deadline, CreatedAt: existing.CreatedAt, Completed: true},
		{ID: "org-1", Title: "from org", Duration: 15, Importance: 5, Deadline: clock.t.Add(time.Hour), CreatedAt: clock.t},
		{ID: "org-1", Title: "from org", Duration: 15, Importance: 5, Deadline: clock.t.Add(time.Hour), CreatedAt: clock.t},
	}
	res, err := b.Import(ctx, incoming)
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if res != (ImportResult{Added: 1, Updated: 1, Unchanged: 1}) {
		t.Errorf("Unexpected result %+v", res)
	}
	if _, ok := b.Selected(); ok {
		t.Error("Expected import to clear the selection")
	}
	got := b.Tasks()
	if len(got) != 2 || !got[0].Completed || got[1].ID != "org-1" {
		t.Errorf("Unexpected tasks after import: %+v", got)
	}
}

func TestImportStopsOnInvalidTask(t *testing.T) {
	b, clock := newBoard(t)
	bad := []model.Task{
		{ID: "ok", Title: "ok", Duration: 15, Importance: 3, Deadline: clock.t, CreatedAt: clock.t},
		{ID: "bad", Title: "bad", Duration: 0, Importance: 3, Deadline: clock.t, CreatedAt: clock.t},
	}
	res, err := b.Import(context.Background(), bad)
	if !errors.Is(err, model.ErrInvalidDuration) {
		t.Errorf("Expected ErrInvalidDuration, got %v", err)
	}
	if res.Added != 1 || len(b.Display(true)) != 1 {
		t.Errorf("Expected the valid task to stay imported, got %+v", res)
	}
}

func TestReimportOrgIsIdempotent(t *testing.T) {
	ctx := context.Background()
	b, clock := newBoard(t)
	const doc = "* TODO Write report\n  DEADLINE: <2026-10-21 Wed>\n"

	for i, want := range []ImportResult{{Added: 1}, {Unchanged: 1}} {
		tasks, err := orgmode.Parse(strings.NewReader(doc), "report.org", clock.Now())
		if err != nil {
			t.Fatalf("Parse failed: %v", err)
		}
		res, err := b.Import(ctx, tasks)
		if err != nil {
			t.Fatalf("Import %d failed: %v", i+1, err)
		}
		if res != want {
			t.Errorf("Import %d: expected %+v, got %+v", i+1, want, res)
		}
	}
	if n := len(b.Tasks()); n != 1 {
		t.Errorf("Expected 1 stored task after two imports, got %d", n)
	}
}

func TestImportKeepsStoredFields(t *testing.T) {
	b, _ := newBoard(t)
	existing := add(t, b, "existing", 30, time.Hour)

	var logs bytes.Buffer
	logger.Init(&logs, true)
	defer logger.Init(os.Stderr, false)

	edited := existing
	edited.Title = "renamed elsewhere"
	edited.Importance = 5
	res, err := b.Import(context.Background(), []model.Task{edited})
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if res != (ImportResult{Unchanged: 1}) {
		t.Errorf("Unexpected result %+v", res)
	}
	if got := b.Tasks()[0]; got.Title != "existing" || got.Importance != existing.Importance {
		t.Errorf("Expected stored fields to win, got %+v", got)
	}
	if !strings.Contains(logs.String(), "keeping stored title, importance") {
		t.Errorf("Expected drift to be logged, got %q", logs.String())
	}
}
