package orgmode

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/harrisonrobin/whattodo/pkg/logger"
	"github.com/harrisonrobin/whattodo/pkg/model"
	"github.com/harrisonrobin/whattodo/pkg/util"
)

var (
	headingRegex  = regexp.MustCompile(`^\*+\s+(TODO|DONE)\s+(?:\[#([A-E])\]\s*)?(.*?)(?:\s+:[\w@:]+:)?\s*$`)
	deadlineRegex = regexp.MustCompile(`DEADLINE:\s+<(\d{4}-\d{2}-\d{2})(?:\s+[A-Za-z]{2,3})?(?:\s+(\d{1,2}:\d{2}))?[^>]*>`)
	propertyRegex = regexp.MustCompile(`^:([A-Za-z_]+):\s*(.*)$`)
	headingStart  = regexp.MustCompile(`^\*+\s`)
)

// entry accumulates one heading until the next one starts.
type entry struct {
	task     model.Task
	deadline bool
	line     int
}

// parseFile parses an Org-mode file and returns a slice of tasks.
func parseFile(filePath string, now time.Time) ([]model.Task, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	source := filePath
	if abs, err := filepath.Abs(filePath); err == nil {
		source = abs
	}
	return Parse(file, source, now)
}

// ParseFiles parses multiple Org-mode files and returns a slice of tasks.
func ParseFiles(filePaths []string, now time.Time) ([]model.Task, error) {
	var allTasks []model.Task
	for _, filePath := range filePaths {
		tasks, err := parseFile(filePath, now)
		if err != nil {
			return nil, err
		}
		allTasks = append(allTasks, tasks...)
	}
	return allTasks, nil
}

// Parse reads TODO and DONE headings. Priorities [#A]..[#E] become importance
// 5..1, the EFFORT property becomes the duration and the DEADLINE timestamp
// the deadline. Headings without a deadline are skipped. A heading without
// an ID property gets one derived from source and its title, so parsing the
// same file again yields the same ids.
func Parse(r io.Reader, source string, now time.Time) ([]model.Task, error) {
	logger.Debug("parsing org file: %s", source)
	scanner := bufio.NewScanner(r)
	var tasks []model.Task
	var current *entry
	lineNo := 0
	seen := make(map[string]int)

	flush := func() {
		if current == nil {
			return
		}
		t := current.task
		if t.ID == "" {
			t.ID = stableID(source, t.Title, seen[t.Title])
			seen[t.Title]++
		}
		if !current.deadline {
			logger.Warn("%s:%d: skipping %q, it has no DEADLINE", source, current.line, t.Title)
		} else if err := t.Validate(); err != nil {
			logger.Warn("%s:%d: skipping %q: %v", source, current.line, t.Title, err)
		} else {
			tasks = append(tasks, t)
		}
		current = nil
	}

	for scanner.Scan() {
		lineNo++
		raw := scanner.Text()
		line := strings.TrimSpace(raw)

		if headingStart.MatchString(raw) {
			flush()
			matches := headingRegex.FindStringSubmatch(line)
			if matches == nil {
				continue
			}
			current = &entry{line: lineNo, task: model.Task{
				Title:      strings.TrimSpace(matches[3]),
				Completed:  matches[1] == "DONE",
				Importance: importanceFromPriority(matches[2]),
				Duration:   model.DefaultDuration,
				CreatedAt:  now.Truncate(time.Millisecond),
			}}
			continue
		}
		if current == nil {
			continue
		}

		if matches := deadlineRegex.FindStringSubmatch(line); matches != nil {
			if deadline, err := parseDeadline(matches[1], matches[2]); err == nil {
				current.task.Deadline = deadline
				current.deadline = true
			} else {
				logger.Warn("%s:%d: bad deadline: %v", source, lineNo, err)
			}
			continue
		}

		if matches := propertyRegex.FindStringSubmatch(line); matches != nil {
			applyProperty(&current.task, strings.ToUpper(matches[1]), strings.TrimSpace(matches[2]), source, lineNo)
		}
	}
	flush()

	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return tasks, nil
}

// stableID names the n-th ID-less heading titled title in source.
func stableID(source, title string, n int) string {
	name := fmt.Sprintf("%s#%s#%d", source, title, n)
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(name)).String()
}

func applyProperty(t *model.Task, name, value, source string, lineNo int) {
	switch name {
	case "ID":
		t.ID = value
	case "EFFORT":
		effort, err := util.ParseEffort(value)
		if err != nil {
			logger.Warn("%s:%d: %v", source, lineNo, err)
			return
		}
		if effort > 0 {
			t.Duration = model.SnapDuration(util.Minutes(effort))
		}
	case "DESCRIPTION":
		t.Description = value
	case "CREATED":
		if created, err := parseOrgTimestamp(value); err == nil {
			t.CreatedAt = created
		}
	}
}

// importanceFromPriority maps A (highest) to 5 and E to 1. No cookie means medium.
func importanceFromPriority(p string) int {
	if p == "" {
		return model.DefaultImportance
	}
	return model.MaxImportance - int(p[0]-'A')
}

func parseDeadline(date, clock string) (time.Time, error) {
	if clock == "" {
		day, err := time.ParseInLocation("2006-01-02", date, time.Local)
		if err != nil {
			return time.Time{}, err
		}
		return day.Add(24*time.Hour - time.Minute), nil
	}
	return time.ParseInLocation("2006-01-02 15:04", date+" "+clock, time.Local)
}

// parseOrgTimestamp reads [2026-10-19 Mon 09:00] or <2026-10-19 Mon>.
func parseOrgTimestamp(s string) (time.Time, error) {
	s = strings.Trim(s, "[]<>")
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return time.Time{}, io.ErrUnexpectedEOF
	}
	clock := ""
	if len(fields) >= 3 {
		clock = fields[2]
	}
	if clock == "" {
		return time.ParseInLocation("2006-01-02", fields[0], time.Local)
	}
	return time.ParseInLocation("2006-01-02 15:04", fields[0]+" "+clock, time.Local)
}

// FilterTasks keeps the tasks whose title contains the filter string, ignoring case.
func FilterTasks(tasks []model.Task, filter string) []model.Task {
	if filter == "" {
		return tasks
	}
	needle := strings.ToLower(filter)
	var filteredTasks []model.Task
	for _, task := range tasks {
		if strings.Contains(strings.ToLower(task.Title), needle) {
			filteredTasks = append(filteredTasks, task)
		}
	}
	return filteredTasks
}
