// Package index remembers which Google Calendar event each task was exported
// to, so a sync can patch the event without searching the calendar.
package index

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const (
	indexFile     = "calendar_events.json"
	formatVersion = 1
)

// Entry is one exported task.
type Entry struct {
	EventID  string    `json:"eventId"`
	SyncedAt time.Time `json:"syncedAt"`
}

type indexFileFormat struct {
	Version int              `json:"version"`
	Events  map[string]Entry `json:"events"`
}

type EventIndex struct {
	Path string

	mu      sync.RWMutex
	entries map[string]Entry
	dirty   bool
	now     func() time.Time
}

// NewEventIndex opens the index kept in dir. A missing file is an empty index.
func NewEventIndex(dir string) (*EventIndex, error) {
	idx := &EventIndex{
		Path:    filepath.Join(dir, indexFile),
		entries: make(map[string]Entry),
		now:     time.Now,
	}
	if err := idx.load(); err != nil {
		return nil, err
	}
	return idx, nil
}

func (idx *EventIndex) load() error {
	data, err := os.ReadFile(idx.Path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}

	var f indexFileFormat
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("failed to decode %s: %w", idx.Path, err)
	}
	if f.Version != formatVersion {
		return fmt.Errorf("%s has unsupported version %d", idx.Path, f.Version)
	}
	for taskID, e := range f.Events {
		idx.entries[taskID] = e
	}
	return nil
}

// Save writes the index if anything changed since the last load or save.
func (idx *EventIndex) Save() error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if !idx.dirty {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(idx.Path), 0700); err != nil {
		return err
	}
	data, err := json.MarshalIndent(indexFileFormat{Version: formatVersion, Events: idx.entries}, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(idx.Path, data, 0600); err != nil {
		return err
	}
	idx.dirty = false
	return nil
}

// Get returns the event id for taskID, or "".
func (idx *EventIndex) Get(taskID string) string {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.entries[taskID].EventID
}

// Lookup returns the full entry for taskID.
func (idx *EventIndex) Lookup(taskID string) (Entry, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	e, ok := idx.entries[taskID]
	return e, ok
}

// Set records that taskID was synced to eventID just now.
func (idx *EventIndex) Set(taskID, eventID string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.entries[taskID] = Entry{EventID: eventID, SyncedAt: idx.now().UTC()}
	idx.dirty = true
}

func (idx *EventIndex) Remove(taskID string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if _, ok := idx.entries[taskID]; ok {
		delete(idx.entries, taskID)
		idx.dirty = true
	}
}

// Prune drops the entries of tasks not in live and returns how many went.
func (idx *EventIndex) Prune(live []string) int {
	keep := make(map[string]bool, len(live))
	for _, id := range live {
		keep[id] = true
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()
	n := 0
	for taskID := range idx.entries {
		if !keep[taskID] {
			delete(idx.entries, taskID)
			n++
		}
	}
	if n > 0 {
		idx.dirty = true
	}
	return n
}

func (idx *EventIndex) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.entries)
}
