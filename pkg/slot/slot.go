// Package slot holds the persisted mirror: one named value that stores the whole
// serialized task collection. Every backend reads and writes it as a single blob.
package slot

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

const (
	BackendFile     = "file"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendMongo    = "mongo"

	DefaultKey = "tasks"
)

// ErrEmpty is returned by Read when nothing has been written to the slot yet.
var ErrEmpty = errors.New("slot is empty")

type Slot interface {
	Read(ctx context.Context) ([]byte, error)
	Write(ctx context.Context, data []byte) error
	Close() error
}

// Options selects and configures a backend.
type Options struct {
	Backend    string
	Path       string // file and sqlite
	DSN        string // postgres and mongo
	Database   string // mongo
	Collection string // mongo
	Key        string
}

// Open returns the slot for opts.Backend.
func Open(ctx context.Context, opts Options) (Slot, error) {
	key := opts.Key
	if key == "" {
		key = DefaultKey
	}
	switch opts.Backend {
	case "", BackendFile:
		path, err := expandHome(opts.Path)
		if err != nil {
			return nil, err
		}
		return NewFile(path), nil
	case BackendSQLite:
		path, err := expandHome(opts.Path)
		if err != nil {
			return nil, err
		}
		return OpenSQLite(ctx, path, key)
	case BackendPostgres:
		return OpenPostgres(ctx, opts.DSN, key)
	case BackendMongo:
		return OpenMongo(ctx, opts.DSN, opts.Database, opts.Collection, key)
	}
	return nil, fmt.Errorf("unknown storage backend %q", opts.Backend)
}

// expandHome replaces a leading ~ with the user's home directory.
func expandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot expand %s: %w", path, err)
	}
	return filepath.Join(home, path[1:]), nil
}

// Memory keeps the slot in process. It backs tests and dry runs.
type Memory struct {
	mu   sync.Mutex
	data []byte
	// Fail makes the next Write return this error.
	Fail error
}

func NewMemory(initial []byte) *Memory {
	return &Memory{data: initial}
}

func (m *Memory) Read(ctx context.Context) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data == nil {
		return nil, ErrEmpty
	}
	return append([]byte(nil), m.data...), nil
}

func (m *Memory) Write(ctx context.Context, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail != nil {
		err := m.Fail
		m.Fail = nil
		return err
	}
	m.data = append([]byte(nil), data...)
	return nil
}

func (m *Memory) Close() error { return nil }
