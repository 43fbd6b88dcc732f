package cli

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/harrisonrobin/whattodo/pkg/colors"
	"github.com/harrisonrobin/whattodo/pkg/model"
	"github.com/harrisonrobin/whattodo/pkg/overdue"
	"github.com/harrisonrobin/whattodo/pkg/util"
	"gopkg.in/yaml.v3"
)

const (
	formatTable = "table"
	formatJSON  = "json"
	formatYAML  = "yaml"

	shortIDLen = 8
)

func checkFormat(format string, allowed ...string) error {
	for _, f := range allowed {
		if format == f {
			return nil
		}
	}
	return fmt.Errorf("unknown output format %q, use one of %s", format, strings.Join(allowed, ", "))
}

// taskRow is a task as json and yaml output show it.
type taskRow struct {
	ID          string `json:"id" yaml:"id"`
	Title       string `json:"title" yaml:"title"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Duration    int    `json:"duration" yaml:"duration"`
	Importance  int    `json:"importance" yaml:"importance"`
	Deadline    string `json:"deadline" yaml:"deadline"`
	Completed   bool   `json:"completed" yaml:"completed"`
	CreatedAt   string `json:"createdAt" yaml:"createdAt"`
	Status      string `json:"status" yaml:"status"`
}

func toRow(t model.Task, now time.Time) taskRow {
	status := overdue.Classify(t.Deadline, now).Label
	if t.Completed {
		status = "Completed"
	}
	return taskRow{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Duration:    t.Duration,
		Importance:  t.Importance,
		Deadline:    t.Deadline.Format(time.RFC3339),
		Completed:   t.Completed,
		CreatedAt:   t.CreatedAt.Format(time.RFC3339),
		Status:      status,
	}
}

func writeStructured(w io.Writer, format string, v interface{}) error {
	switch format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	}
	return fmt.Errorf("unknown output format %q", format)
}

// writeTasks renders tasks in order. Table rows are colored when color is set.
func writeTasks(w io.Writer, format string, tasks []model.Task, now time.Time, color bool) error {
	if format != formatTable {
		rows := make([]taskRow, 0, len(tasks))
		for _, t := range tasks {
			rows = append(rows, toRow(t, now))
		}
		return writeStructured(w, format, rows)
	}

	if len(tasks) == 0 {
		_, err := fmt.Fprintln(w, "No tasks.")
		return err
	}

	var buf bytes.Buffer
	tw := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tDURATION\tIMPORTANCE\tDEADLINE\tSTATUS")
	for _, t := range tasks {
		row := toRow(t, now)
		mark := " "
		if t.Completed {
			mark = "✓"
		}
		fmt.Fprintf(tw, "%s\t%s %s\t%s\t%s\t%s\t%s\n",
			shortID(t.ID), mark, t.Title,
			util.FormatMinutes(t.Duration),
			model.ImportanceLabel(t.Importance),
			t.Deadline.Local().Format("Mon Jan 2 15:04"),
			row.Status)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	sc := bufio.NewScanner(&buf)
	for i := 0; sc.Scan(); i++ {
		line := sc.Text()
		if color && i > 0 {
			t := tasks[i-1]
			line = colors.Terminal(t, t.Overdue(now), line)
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return sc.Err()
}

func shortID(id string) string {
	if len(id) > shortIDLen {
		return id[:shortIDLen]
	}
	return id
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}
