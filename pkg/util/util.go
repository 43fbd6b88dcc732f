package util

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var isoDurationPart = regexp.MustCompile(`(\d+)([HMS])`)

// ParseDuration parses ISO 8601 duration format (PT1H30M) from Taskwarrior JSON export
func ParseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}

	if len(s) < 2 || s[0] != 'P' {
		return 0, fmt.Errorf("invalid ISO 8601 duration format: %s", s)
	}

	s = s[1:]
	var total time.Duration

	// Day component before the T, e.g. P1DT2H
	if i := strings.IndexByte(s, 'D'); i >= 0 && (strings.IndexByte(s, 'T') < 0 || i < strings.IndexByte(s, 'T')) {
		days, err := strconv.Atoi(s[:i])
		if err != nil {
			return 0, fmt.Errorf("invalid ISO 8601 day component: P%s", s)
		}
		total += time.Duration(days) * 24 * time.Hour
		s = s[i+1:]
	}

	if s != "" {
		if s[0] != 'T' {
			return 0, fmt.Errorf("invalid ISO 8601 duration (missing T): P%s", s)
		}
		for _, match := range isoDurationPart.FindAllStringSubmatch(s[1:], -1) {
			value, _ := strconv.Atoi(match[1])
			switch match[2] {
			case "H":
				total += time.Duration(value) * time.Hour
			case "M":
				total += time.Duration(value) * time.Minute
			case "S":
				total += time.Duration(value) * time.Second
			}
		}
	}

	if total == 0 {
		return 0, fmt.Errorf("invalid ISO 8601 duration: P%s", s)
	}

	return total, nil
}

// ParseEffort parses an Org-mode effort value: "H:MM", "MM" or a Go duration like "1h30m".
func ParseEffort(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	if h, m, ok := strings.Cut(s, ":"); ok {
		hours, err := strconv.Atoi(h)
		if err != nil {
			return 0, fmt.Errorf("invalid effort %q: %w", s, err)
		}
		minutes, err := strconv.Atoi(m)
		if err != nil {
			return 0, fmt.Errorf("invalid effort %q: %w", s, err)
		}
		return time.Duration(hours)*time.Hour + time.Duration(minutes)*time.Minute, nil
	}
	if minutes, err := strconv.Atoi(s); err == nil {
		return time.Duration(minutes) * time.Minute, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid effort %q: %w", s, err)
	}
	return d, nil
}

// Minutes rounds d to whole minutes.
func Minutes(d time.Duration) int {
	return int(d.Round(time.Minute) / time.Minute)
}

// FormatMinutes renders a task duration the way the list shows it: "45 min", "2h", "1h 30m".
func FormatMinutes(minutes int) string {
	if minutes < 60 {
		return fmt.Sprintf("%d min", minutes)
	}
	h, m := minutes/60, minutes%60
	if m == 0 {
		return fmt.Sprintf("%dh", h)
	}
	return fmt.Sprintf("%dh %dm", h, m)
}

// ParseDeadline accepts RFC 3339, "2006-01-02 15:04" or a bare date, which
// means the end of that day. Dates without a zone are read in loc.
func ParseDeadline(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	if t, err := time.ParseInLocation("2006-01-02 15:04", s, loc); err == nil {
		return t, nil
	}
	if t, err := time.ParseInLocation("2006-01-02", s, loc); err == nil {
		return t.Add(24*time.Hour - time.Minute), nil
	}
	return time.Time{}, fmt.Errorf("unrecognized deadline %q, use YYYY-MM-DD, \"YYYY-MM-DD HH:MM\" or RFC 3339", s)
}
