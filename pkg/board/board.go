// Package board owns the state behind the task list view: the store, the
// selected strategy and the order the list is currently shown in.
package board

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/harrisonrobin/whattodo/pkg/logger"
	"github.com/harrisonrobin/whattodo/pkg/model"
	"github.com/harrisonrobin/whattodo/pkg/schedule"
	"github.com/harrisonrobin/whattodo/pkg/store"
)

// ErrNothingToSchedule is returned by Select when every task is completed.
var ErrNothingToSchedule = errors.New("no incomplete tasks to schedule")

type Board struct {
	mu       sync.Mutex
	store    *store.Store
	now      func() time.Time
	selected *schedule.Kind
	display  []model.Task
}

// New loads the store and shows its tasks in insertion order. A nil clock means time.Now.
func New(ctx context.Context, s *store.Store, clock func() time.Time) *Board {
	if clock == nil {
		clock = time.Now
	}
	b := &Board{store: s, now: clock}
	b.display = s.Load(ctx)
	return b
}

// Add builds a task from the draft and stores it. The selection is cleared.
func (b *Board) Add(ctx context.Context, d model.Draft) (model.Task, error) {
	task, err := d.Build(b.now())
	if err != nil {
		return model.Task{}, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	tasks, err := b.store.Add(ctx, task)
	if err != nil {
		return model.Task{}, err
	}
	b.selected = nil
	b.display = tasks
	return task, nil
}

// ImportResult counts what Import did.
type ImportResult struct {
	Added     int
	Updated   int
	Unchanged int
}

// Import merges tasks read from another tool. Unknown ids are appended and
// known ids only take over the completed flag. The selection is cleared.
func (b *Board) Import(ctx context.Context, tasks []model.Task) (ImportResult, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	known := make(map[string]model.Task)
	for _, t := range b.store.Tasks() {
		known[t.ID] = t
	}

	var res ImportResult
	defer func() {
		b.selected = nil
		b.refresh()
	}()
	for _, t := range tasks {
		stored, ok := known[t.ID]
		if ok {
			if drift := fieldDrift(stored, t); drift != "" {
				logger.Debug("import %s: keeping stored %s", t.ID, drift)
			}
		}
		switch {
		case !ok:
			if _, err := b.store.Add(ctx, t); err != nil {
				return res, fmt.Errorf("import %q: %w", t.Title, err)
			}
			known[t.ID] = t
			res.Added++
		case stored.Completed != t.Completed:
			if err := b.store.SetCompleted(ctx, t.ID, t.Completed); err != nil {
				return res, fmt.Errorf("import %q: %w", t.Title, err)
			}
			stored.Completed = t.Completed
			known[t.ID] = stored
			res.Updated++
		default:
			res.Unchanged++
		}
	}
	return res, nil
}

// SetCompleted toggles a task and refreshes the display under the current selection.
func (b *Board) SetCompleted(ctx context.Context, id string, completed bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.store.SetCompleted(ctx, id, completed); err != nil {
		return err
	}
	b.refresh()
	return nil
}

// Select orders the display by k.
func (b *Board) Select(k schedule.Kind) ([]model.Task, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if countIncomplete(b.store.Tasks()) == 0 {
		return nil, ErrNothingToSchedule
	}
	b.selected = &k
	b.refresh()
	return b.copyDisplay(), nil
}

// Reset goes back to insertion order.
func (b *Board) Reset() []model.Task {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.selected = nil
	b.refresh()
	return b.copyDisplay()
}

// Selected returns the active strategy, if any.
func (b *Board) Selected() (schedule.Kind, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.selected == nil {
		return 0, false
	}
	return *b.selected, true
}

// Display returns the tasks in display order. Completed tasks are left out
// unless showCompleted is set.
func (b *Board) Display(showCompleted bool) []model.Task {
	b.mu.Lock()
	defer b.mu.Unlock()

	if showCompleted {
		return b.copyDisplay()
	}
	incomplete, _ := model.Partition(b.display)
	if incomplete == nil {
		return []model.Task{}
	}
	return incomplete
}

// Tasks returns the stored tasks in insertion order.
func (b *Board) Tasks() []model.Task {
	return b.store.Tasks()
}

func (b *Board) IncompleteCount() int {
	return countIncomplete(b.store.Tasks())
}

// Now returns the board's clock reading.
func (b *Board) Now() time.Time {
	return b.now()
}

func (b *Board) refresh() {
	tasks := b.store.Tasks()
	if b.selected == nil {
		b.display = tasks
		return
	}
	b.display = schedule.Arrange(*b.selected, tasks, b.now())
}

func (b *Board) copyDisplay() []model.Task {
	out := make([]model.Task, len(b.display))
	copy(out, b.display)
	return out
}

// fieldDrift names the fields besides Completed where incoming differs from stored.
func fieldDrift(stored, incoming model.Task) string {
	var fields []string
	if stored.Title != incoming.Title {
		fields = append(fields, "title")
	}
	if stored.Duration != incoming.Duration {
		fields = append(fields, "duration")
	}
	if stored.Importance != incoming.Importance {
		fields = append(fields, "importance")
	}
	if !stored.Deadline.Equal(incoming.Deadline) {
		fields = append(fields, "deadline")
	}
	return strings.Join(fields, ", ")
}

func countIncomplete(tasks []model.Task) int {
	n := 0
	for _, t := range tasks {
		if !t.Completed {
			n++
		}
	}
	return n
}
