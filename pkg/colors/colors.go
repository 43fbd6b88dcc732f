package colors

import "github.com/harrisonrobin/whattodo/pkg/model"

// Google Calendar event color ids.
const (
	Graphite  = "8"
	Sage      = "2"
	Peacock   = "7"
	Banana    = "5"
	Tangerine = "6"
	Tomato    = "11"
)

var byImportance = [...]string{Sage, Peacock, Banana, Tangerine, Tomato}

// ForImportance maps importance 1..5 to a calendar color, coolest to hottest.
func ForImportance(importance int) string {
	if importance < model.MinImportance || importance > model.MaxImportance {
		return Peacock
	}
	return byImportance[importance-1]
}

// ForTask greys out completed tasks and otherwise colors by importance.
func ForTask(t model.Task) string {
	if t.Completed {
		return Graphite
	}
	return ForImportance(t.Importance)
}

// ANSI escape codes for the terminal list.
const (
	ansiReset  = "\033[0m"
	ansiRed    = "\033[31m"
	ansiYellow = "\033[33m"
	ansiGreen  = "\033[32m"
	ansiGrey   = "\033[90m"
)

// Terminal wraps s in an ANSI color suited to the task's state.
func Terminal(t model.Task, overdue bool, s string) string {
	var code string
	switch {
	case t.Completed:
		code = ansiGrey
	case overdue:
		code = ansiRed
	case t.Importance >= 4:
		code = ansiYellow
	default:
		code = ansiGreen
	}
	return code + s + ansiReset
}
