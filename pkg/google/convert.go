package google

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/harrisonrobin/whattodo/pkg/colors"
	"github.com/harrisonrobin/whattodo/pkg/model"
	"github.com/harrisonrobin/whattodo/pkg/util"
	"google.golang.org/api/calendar/v3"
)

// TaskIDProperty is the private extended property holding the task id on each event.
const TaskIDProperty = "whattodo_id"

// ConvertTaskToCalendarEvent lays a task out as a block that ends at its
// deadline and is as long as its estimate.
func ConvertTaskToCalendarEvent(task model.Task, now time.Time) (*calendar.Event, error) {
	if err := task.Validate(); err != nil {
		return nil, fmt.Errorf("could not convert task %q: %w", task.ID, err)
	}

	prefix := ""
	if task.Completed {
		prefix = "✓"
	} else if task.Overdue(now) {
		prefix = "!"
	}
	summary := task.Title
	if prefix != "" {
		summary = fmt.Sprintf("%s %s", prefix, task.Title)
	}

	end := task.Deadline
	start := end.Add(-task.EstimatedDuration())

	var desc strings.Builder
	if task.Description != "" {
		desc.WriteString(task.Description)
		desc.WriteString("\n\n")
	}
	fmt.Fprintf(&desc, "Importance: %s (%d)\n", model.ImportanceLabel(task.Importance), task.Importance)
	fmt.Fprintf(&desc, "Estimated: %s\n", util.FormatMinutes(task.Duration))
	if task.Completed {
		desc.WriteString("Status: completed\n")
	} else {
		desc.WriteString("Status: pending\n")
	}
	fmt.Fprintf(&desc, "ID: %s\n", task.ID)

	return &calendar.Event{
		Summary:     summary,
		Description: desc.String(),
		ColorId:     colors.ForTask(task),
		Start:       &calendar.EventDateTime{DateTime: start.Format(time.RFC3339)},
		End:         &calendar.EventDateTime{DateTime: end.Format(time.RFC3339)},
		ExtendedProperties: &calendar.EventExtendedProperties{
			Private: map[string]string{TaskIDProperty: task.ID},
		},
	}, nil
}

// EventNeedsUpdate returns a patch holding the fields of target that differ
// from existing, or nil when the event is current.
func EventNeedsUpdate(existing, target *calendar.Event) (*calendar.Event, error) {
	patch := &calendar.Event{}
	needsUpdate := false

	if existing.Summary != target.Summary {
		patch.Summary = target.Summary
		needsUpdate = true
	}
	if existing.Description != target.Description {
		patch.Description = target.Description
		needsUpdate = true
	}
	if existing.ColorId != target.ColorId {
		patch.ColorId = target.ColorId
		needsUpdate = true
	}

	same, err := sameSpan(existing, target)
	if err != nil {
		return nil, err
	}
	if !same {
		patch.Start = target.Start
		patch.End = target.End
		needsUpdate = true
	}

	if needsUpdate {
		return patch, nil
	}
	return nil, nil
}

func sameSpan(existing, target *calendar.Event) (bool, error) {
	// All-day or malformed events get rewritten.
	if existing.Start == nil || existing.End == nil || existing.Start.DateTime == "" || existing.End.DateTime == "" {
		return false, nil
	}
	if target.Start == nil || target.End == nil {
		return false, errors.New("target event has no time span")
	}
	pairs := [][2]string{
		{existing.Start.DateTime, target.Start.DateTime},
		{existing.End.DateTime, target.End.DateTime},
	}
	for _, p := range pairs {
		a, err := time.Parse(time.RFC3339, p[0])
		if err != nil {
			return false, err
		}
		b, err := time.Parse(time.RFC3339, p[1])
		if err != nil {
			return false, err
		}
		if !a.Equal(b) {
			return false, nil
		}
	}
	return true, nil
}
