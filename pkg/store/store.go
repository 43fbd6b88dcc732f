package store

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/harrisonrobin/whattodo/pkg/logger"
	"github.com/harrisonrobin/whattodo/pkg/model"
	"github.com/harrisonrobin/whattodo/pkg/slot"
)

// Store is the ordered task collection. Every mutation rewrites the whole
// mirror before it returns.
type Store struct {
	mu    sync.Mutex
	slot  slot.Slot
	tasks []model.Task
}

func New(s slot.Slot) *Store {
	return &Store{slot: s}
}

// Load replaces the in-memory collection with the mirror's contents. A missing
// or unreadable mirror leaves an empty collection.
func (s *Store) Load(ctx context.Context) []model.Task {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tasks = nil
	data, err := s.slot.Read(ctx)
	if err != nil {
		if !errors.Is(err, slot.ErrEmpty) {
			logger.Warn("could not read saved tasks, starting empty: %v", err)
		}
		return []model.Task{}
	}

	tasks, err := Decode(data)
	if err != nil {
		logger.Warn("error parsing saved tasks, starting empty: %v", err)
		return []model.Task{}
	}
	s.tasks = tasks
	logger.Debug("loaded %d tasks", len(tasks))
	return slices.Clone(s.tasks)
}

// Tasks returns a copy of the collection in insertion order.
func (s *Store) Tasks() []model.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneTasks(s.tasks)
}

// Add appends task and persists the collection.
func (s *Store) Add(ctx context.Context, task model.Task) ([]model.Task, error) {
	if err := task.Validate(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.indexOf(task.ID) >= 0 {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateID, task.ID)
	}

	s.tasks = append(s.tasks, task)
	if err := s.persist(ctx); err != nil {
		s.tasks = s.tasks[:len(s.tasks)-1]
		return nil, err
	}
	return cloneTasks(s.tasks), nil
}

// SetCompleted sets the completed flag of task id. An unknown id is ignored.
func (s *Store) SetCompleted(ctx context.Context, id string, completed bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		logger.Debug("set completed: no task with id %s", id)
		return nil
	}
	previous := s.tasks[i].Completed
	if previous == completed {
		return nil
	}

	s.tasks[i].Completed = completed
	if err := s.persist(ctx); err != nil {
		s.tasks[i].Completed = previous
		return err
	}
	return nil
}

func (s *Store) Close() error {
	return s.slot.Close()
}

func (s *Store) indexOf(id string) int {
	return slices.IndexFunc(s.tasks, func(t model.Task) bool { return t.ID == id })
}

func (s *Store) persist(ctx context.Context) error {
	data, err := Encode(s.tasks)
	if err != nil {
		return fmt.Errorf("failed to encode tasks: %w", err)
	}
	if err := s.slot.Write(ctx, data); err != nil {
		return fmt.Errorf("failed to save tasks: %w", err)
	}
	return nil
}

func cloneTasks(tasks []model.Task) []model.Task {
	if tasks == nil {
		return []model.Task{}
	}
	return slices.Clone(tasks)
}
