package orgmode

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const sample = `#+TITLE: Work
* TODO [#A] Ship release :work:
  DEADLINE: <2026-10-21 Wed 17:00>
  :PROPERTIES:
  :ID: 3f1a2b4c-0000-4000-8000-000000000001
  :EFFORT: 1:30
  :END:
* DONE Write notes
  DEADLINE: <2026-10-20 Tue>
  :PROPERTIES:
  :EFFORT: 0:22
  :DESCRIPTION: meeting recap
  :END:
* TODO Someday maybe
  :PROPERTIES:
  :EFFORT: 0:10
  :END:
** TODO [#E] Tiny chore
   SCHEDULED: <2026-10-19 Mon> DEADLINE: <2026-10-22 Thu 09:15>
* Notes
  DEADLINE: <2026-10-25 Sun>
`

func TestParse(t *testing.T) {
	now := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)
	tasks, err := Parse(strings.NewReader(sample), "work.org", now)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(tasks) != 3 {
		t.Fatalf("Expected 3 tasks, got %d: %+v", len(tasks), tasks)
	}

	release := tasks[0]
	if release.Title != "Ship release" {
		t.Errorf("Expected tags stripped from title, got %q", release.Title)
	}
	if release.ID != "3f1a2b4c-0000-4000-8000-000000000001" {
		t.Errorf("Expected :ID: property, got %s", release.ID)
	}
	if release.Importance != 5 || release.Duration != 90 {
		t.Errorf("Expected importance 5 and 90 minutes, got %d and %d", release.Importance, release.Duration)
	}
	wantDeadline := time.Date(2026, 10, 21, 17, 0, 0, 0, time.Local)
	if !release.Deadline.Equal(wantDeadline) {
		t.Errorf("Expected deadline %v, got %v", wantDeadline, release.Deadline)
	}

	notes := tasks[1]
	if !notes.Completed || notes.Duration != 20 || notes.Importance != 3 {
		t.Errorf("Unexpected DONE task: %+v", notes)
	}
	if notes.Description != "meeting recap" {
		t.Errorf("Expected description property, got %q", notes.Description)
	}
	if notes.ID == "" {
		t.Error("Expected generated id")
	}
	if notes.Deadline.Hour() != 23 || notes.Deadline.Minute() != 59 {
		t.Errorf("Expected date-only deadline at end of day, got %v", notes.Deadline)
	}

	chore := tasks[2]
	if chore.Title != "Tiny chore" || chore.Importance != 1 {
		t.Errorf("Unexpected nested task: %+v", chore)
	}
	if chore.Deadline.Hour() != 9 || chore.Deadline.Minute() != 15 {
		t.Errorf("Expected DEADLINE rather than SCHEDULED, got %v", chore.Deadline)
	}
	if !chore.CreatedAt.Equal(now) {
		t.Errorf("Expected CreatedAt to default to now, got %v", chore.CreatedAt)
	}
}

func TestParseFiles(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.org")
	b := filepath.Join(dir, "b.org")
	os.WriteFile(a, []byte("* TODO One\n  DEADLINE: <2026-11-01 Sun>\n"), 0600)
	os.WriteFile(b, []byte("* TODO Two\n  DEADLINE: <2026-11-02 Mon>\n"), 0600)

	tasks, err := ParseFiles([]string{a, b}, time.Now())
	if err != nil {
		t.Fatalf("ParseFiles failed: %v", err)
	}
	if len(tasks) != 2 || tasks[0].Title != "One" || tasks[1].Title != "Two" {
		t.Errorf("Unexpected tasks: %+v", tasks)
	}

	if _, err := ParseFiles([]string{filepath.Join(dir, "missing.org")}, time.Now()); err == nil {
		t.Error("Expected error for missing file")
	}
}

func TestFilterTasks(t *testing.T) {
	tasks, _ := Parse(strings.NewReader(sample), "work.org", time.Now())
	got := FilterTasks(tasks, "CHORE")
	if len(got) != 1 || got[0].Title != "Tiny chore" {
		t.Errorf("Expected only 'Tiny chore', got %+v", got)
	}
	if len(FilterTasks(tasks, "")) != len(tasks) {
		t.Error("Empty filter should keep every task")
	}
}

func TestParseStableIDs(t *testing.T) {
	const doc = `* TODO Water plants
  DEADLINE: <2026-10-21 Wed>
* TODO Water plants
  DEADLINE: <2026-10-28 Wed>
`
	now := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)
	first, err := Parse(strings.NewReader(doc), "garden.org", now)
	if err != nil || len(first) != 2 {
		t.Fatalf("Parse failed: %v %+v", err, first)
	}
	again, _ := Parse(strings.NewReader(doc), "garden.org", now.Add(time.Hour))
	for i := range first {
		if first[i].ID != again[i].ID {
			t.Errorf("Expected task %d to keep its id, got %s then %s", i, first[i].ID, again[i].ID)
		}
	}
	if first[0].ID == first[1].ID {
		t.Error("Expected repeated titles to get distinct ids")
	}

	other, _ := Parse(strings.NewReader(doc), "balcony.org", now)
	if other[0].ID == first[0].ID {
		t.Error("Expected ids to depend on the source file")
	}
}
