package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	MinImportance = 1
	MaxImportance = 5
)

var (
	ErrMissingID         = errors.New("task id is empty")
	ErrEmptyTitle        = errors.New("please enter a task title")
	ErrInvalidDuration   = errors.New("invalid duration")
	ErrInvalidImportance = errors.New("invalid importance")
	ErrDeadlinePassed    = errors.New("deadline is before today")
)

// Task is one user-created unit of work.
// Duration is in minutes.
type Task struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Duration    int       `json:"duration"`
	Importance  int       `json:"importance"`
	Deadline    time.Time `json:"deadline"`
	Completed   bool      `json:"completed"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Validate checks the invariants every stored task must hold.
func (t Task) Validate() error {
	if t.ID == "" {
		return ErrMissingID
	}
	if strings.TrimSpace(t.Title) == "" {
		return ErrEmptyTitle
	}
	if t.Duration <= 0 {
		return fmt.Errorf("%w: %d minutes, must be positive", ErrInvalidDuration, t.Duration)
	}
	if t.Importance < MinImportance || t.Importance > MaxImportance {
		return fmt.Errorf("%w: %d, must be between %d and %d", ErrInvalidImportance, t.Importance, MinImportance, MaxImportance)
	}
	return nil
}

// EstimatedDuration returns Duration as a time.Duration.
func (t Task) EstimatedDuration() time.Duration {
	return time.Duration(t.Duration) * time.Minute
}

// Overdue reports whether an incomplete task's deadline has passed.
func (t Task) Overdue(now time.Time) bool {
	return !t.Completed && t.Deadline.Before(now)
}

var importanceLabels = [...]string{"Very Low", "Low", "Medium", "High", "Critical"}

// ImportanceLabel returns the display name for an importance level, or "" if out of range.
func ImportanceLabel(importance int) string {
	if importance < MinImportance || importance > MaxImportance {
		return ""
	}
	return importanceLabels[importance-1]
}

// Partition splits tasks into incomplete and completed, preserving relative order.
func Partition(tasks []Task) (incomplete, completed []Task) {
	for _, t := range tasks {
		if t.Completed {
			completed = append(completed, t)
		} else {
			incomplete = append(incomplete, t)
		}
	}
	return incomplete, completed
}
