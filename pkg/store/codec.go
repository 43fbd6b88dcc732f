package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/harrisonrobin/whattodo/pkg/model"
)

// TimeLayout matches JavaScript's Date.toISOString: UTC with milliseconds.
const TimeLayout = "2006-01-02T15:04:05.000Z07:00"

var ErrDuplicateID = errors.New("duplicate task id")

type record struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Duration    int    `json:"duration"`
	Importance  int    `json:"importance"`
	Deadline    string `json:"deadline"`
	Completed   bool   `json:"completed"`
	CreatedAt   string `json:"createdAt"`
}

func formatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

func parseTime(field, s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, fmt.Errorf("missing %s", field)
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse %s %q: %w", field, s, err)
	}
	return t, nil
}

// Encode serializes the collection in the mirror format.
func Encode(tasks []model.Task) ([]byte, error) {
	records := make([]record, len(tasks))
	for i, t := range tasks {
		records[i] = record{
			ID:          t.ID,
			Title:       t.Title,
			Description: t.Description,
			Duration:    t.Duration,
			Importance:  t.Importance,
			Deadline:    formatTime(t.Deadline),
			Completed:   t.Completed,
			CreatedAt:   formatTime(t.CreatedAt),
		}
	}
	return json.Marshal(records)
}

// Decode parses a mirror payload. Any unknown field, invalid task or duplicate
// id rejects the whole payload.
func Decode(data []byte) ([]model.Task, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var records []record
	if err := dec.Decode(&records); err != nil {
		return nil, fmt.Errorf("failed to decode task list: %w", err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.New("failed to decode task list: trailing data")
	}

	tasks := make([]model.Task, 0, len(records))
	seen := make(map[string]bool, len(records))
	for i, r := range records {
		deadline, err := parseTime("deadline", r.Deadline)
		if err != nil {
			return nil, fmt.Errorf("task %d: %w", i, err)
		}
		createdAt, err := parseTime("createdAt", r.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("task %d: %w", i, err)
		}
		t := model.Task{
			ID:          r.ID,
			Title:       r.Title,
			Description: r.Description,
			Duration:    r.Duration,
			Importance:  r.Importance,
			Deadline:    deadline,
			Completed:   r.Completed,
			CreatedAt:   createdAt,
		}
		if err := t.Validate(); err != nil {
			return nil, fmt.Errorf("task %d: %w", i, err)
		}
		if seen[t.ID] {
			return nil, fmt.Errorf("task %d: %w: %s", i, ErrDuplicateID, t.ID)
		}
		seen[t.ID] = true
		tasks = append(tasks, t)
	}
	return tasks, nil
}
