package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Form limits for new tasks. Stored tasks only need Duration > 0.
const (
	MinDuration     = 5
	MaxDuration     = 180
	DurationStep    = 5
	DefaultDuration = 30

	DefaultImportance = 3

	DefaultDeadlineOffset = 24 * time.Hour
)

// Draft holds the user's input for a task that has not been created yet.
type Draft struct {
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Duration    int       `json:"duration"`
	Importance  int       `json:"importance"`
	Deadline    time.Time `json:"deadline"`
}

// NewDraft returns a draft filled with the form defaults.
func NewDraft(now time.Time) Draft {
	return Draft{
		Duration:   DefaultDuration,
		Importance: DefaultImportance,
		Deadline:   now.Add(DefaultDeadlineOffset),
	}
}

// Validate checks the draft against the input form rules.
func (d Draft) Validate(now time.Time) error {
	if strings.TrimSpace(d.Title) == "" {
		return ErrEmptyTitle
	}
	if d.Duration < MinDuration || d.Duration > MaxDuration || d.Duration%DurationStep != 0 {
		return fmt.Errorf("%w: %d minutes, must be %d-%d in steps of %d",
			ErrInvalidDuration, d.Duration, MinDuration, MaxDuration, DurationStep)
	}
	if d.Importance < MinImportance || d.Importance > MaxImportance {
		return fmt.Errorf("%w: %d, must be between %d and %d", ErrInvalidImportance, d.Importance, MinImportance, MaxImportance)
	}
	if d.Deadline.Before(StartOfDay(now)) {
		return fmt.Errorf("%w: %s", ErrDeadlinePassed, d.Deadline.Format("2006-01-02"))
	}
	return nil
}

// Build validates the draft and turns it into a new incomplete Task created at now.
func (d Draft) Build(now time.Time) (Task, error) {
	if err := d.Validate(now); err != nil {
		return Task{}, err
	}
	return Task{
		ID:          uuid.NewString(),
		Title:       strings.TrimSpace(d.Title),
		Description: strings.TrimSpace(d.Description),
		Duration:    d.Duration,
		Importance:  d.Importance,
		Deadline:    d.Deadline.Truncate(time.Millisecond),
		CreatedAt:   now.Truncate(time.Millisecond),
	}, nil
}

// StartOfDay returns local midnight of t's day.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// SnapDuration clamps minutes to the form range and rounds to the nearest step.
func SnapDuration(minutes int) int {
	if minutes <= MinDuration {
		return MinDuration
	}
	if minutes >= MaxDuration {
		return MaxDuration
	}
	snapped := (minutes + DurationStep/2) / DurationStep * DurationStep
	if snapped < MinDuration {
		return MinDuration
	}
	return snapped
}
