package taskwarrior

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/harrisonrobin/whattodo/pkg/model"
	"github.com/harrisonrobin/whattodo/pkg/util"
)

const (
	PENDING   = "pending"
	COMPLETED = "completed"
	WAITING   = "waiting"
	DELETED   = "deleted"
	RECURRING = "recurring"
)

var ErrNoDue = errors.New("task has no due date")

type CustomTime struct {
	time.Time
}

const taskwarriorTimeLayout = "20060102T150405Z" // YYYYMMDDTHHMMSSZ, 'Z' indicates UTC

// UnmarshalJSON implements the json.Unmarshaler interface for CustomTime.
func (ct *CustomTime) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "0" {
		ct.Time = time.Time{}
		return nil
	}

	t, err := time.Parse(taskwarriorTimeLayout, s)
	if err != nil {
		return fmt.Errorf("failed to parse Taskwarrior time string '%s': %w", s, err)
	}
	ct.Time = t
	return nil
}

// MarshalJSON implements the json.Marshaler interface for CustomTime.
func (ct CustomTime) MarshalJSON() ([]byte, error) {
	if ct.Time.IsZero() {
		return []byte(`""`), nil
	}
	return []byte(`"` + ct.Time.Format(taskwarriorTimeLayout) + `"`), nil
}

// Task is one entry of `task export`.
type Task struct {
	UUID        string      `json:"uuid"`
	Description string      `json:"description"`
	Due         *CustomTime `json:"due,omitempty"`
	Entry       *CustomTime `json:"entry,omitempty"`
	Status      string      `json:"status"`
	Priority    string      `json:"priority,omitempty"`
	Project     string      `json:"project,omitempty"`
	Tags        []string    `json:"tags,omitempty"`
	Annotations []struct {
		Description string      `json:"description"`
		Entry       *CustomTime `json:"entry"`
	} `json:"annotations,omitempty"`
	// est is a UDA holding an ISO 8601 duration such as PT1H30M.
	Est string `json:"est,omitempty"`
}

// Importance maps Taskwarrior's H/M/L priority onto the 1..5 scale.
func (t *Task) Importance() int {
	switch strings.ToUpper(t.Priority) {
	case "H":
		return 5
	case "L":
		return 1
	}
	return model.DefaultImportance
}

// Skipped reports whether the task should not be imported at all.
func (t *Task) Skipped() bool {
	return t.Status == DELETED || t.Status == RECURRING
}

// ToTask converts the export entry into a stored task. now stands in for a
// missing entry date.
func (t *Task) ToTask(now time.Time) (model.Task, error) {
	if t.Due == nil || t.Due.IsZero() {
		return model.Task{}, fmt.Errorf("%w: %s", ErrNoDue, t.UUID)
	}

	duration := model.DefaultDuration
	if est, err := util.ParseDuration(t.Est); err == nil && est > 0 {
		duration = model.SnapDuration(util.Minutes(est))
	}

	created := now
	if t.Entry != nil && !t.Entry.IsZero() {
		created = t.Entry.Time
	}

	id := t.UUID
	if id == "" {
		id = uuid.NewString()
	}

	var notes []string
	if t.Project != "" {
		notes = append(notes, "project: "+t.Project)
	}
	for _, ann := range t.Annotations {
		notes = append(notes, ann.Description)
	}

	task := model.Task{
		ID:          id,
		Title:       strings.TrimSpace(t.Description),
		Description: strings.Join(notes, "\n"),
		Duration:    duration,
		Importance:  t.Importance(),
		Deadline:    t.Due.Time.Truncate(time.Millisecond),
		Completed:   t.Status == COMPLETED,
		CreatedAt:   created.Truncate(time.Millisecond),
	}
	if err := task.Validate(); err != nil {
		return model.Task{}, fmt.Errorf("task %s: %w", t.UUID, err)
	}
	return task, nil
}
