package overdue

import (
	"fmt"
	"time"

	"github.com/harrisonrobin/whattodo/pkg/model"
)

type Kind string

const (
	Overdue     Kind = "overdue"
	DueToday    Kind = "today"
	DueTomorrow Kind = "tomorrow"
	Upcoming    Kind = "upcoming"
)

// Status is a deadline relative to now, with its display label.
type Status struct {
	Kind  Kind   `json:"kind"`
	Label string `json:"label"`
}

// Classify buckets a deadline by the hours left until it.
func Classify(deadline, now time.Time) Status {
	left := deadline.Sub(now)
	switch {
	case left < 0:
		return Status{Kind: Overdue, Label: "Overdue"}
	case left < 24*time.Hour:
		return Status{Kind: DueToday, Label: "Due today"}
	case left < 48*time.Hour:
		return Status{Kind: DueTomorrow, Label: "Due tomorrow"}
	}
	return Status{Kind: Upcoming, Label: fmt.Sprintf("Due %s", deadline.Format("Jan 2"))}
}

// Sweep returns the incomplete tasks whose deadline has passed, in input order.
func Sweep(tasks []model.Task, now time.Time) []model.Task {
	var swept []model.Task
	for _, t := range tasks {
		if t.Overdue(now) {
			swept = append(swept, t)
		}
	}
	return swept
}
