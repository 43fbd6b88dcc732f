package slot

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func exerciseSlot(t *testing.T, s Slot) {
	t.Helper()
	ctx := context.Background()

	if _, err := s.Read(ctx); !errors.Is(err, ErrEmpty) {
		t.Fatalf("Expected ErrEmpty on fresh slot, got %v", err)
	}

	if err := s.Write(ctx, []byte(`[{"id":"1"}]`)); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	got, err := s.Read(ctx)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if string(got) != `[{"id":"1"}]` {
		t.Errorf("Unexpected payload: %s", got)
	}

	if err := s.Write(ctx, []byte(`[]`)); err != nil {
		t.Fatalf("Overwrite failed: %v", err)
	}
	got, err = s.Read(ctx)
	if err != nil {
		t.Fatalf("Read after overwrite failed: %v", err)
	}
	if string(got) != `[]` {
		t.Errorf("Expected overwritten payload, got %s", got)
	}
}

func TestMemory(t *testing.T) {
	exerciseSlot(t, NewMemory(nil))
}

func TestMemoryFail(t *testing.T) {
	m := NewMemory([]byte("old"))
	m.Fail = errors.New("disk full")
	if err := m.Write(context.Background(), []byte("new")); err == nil {
		t.Fatal("Expected injected failure")
	}
	got, _ := m.Read(context.Background())
	if string(got) != "old" {
		t.Errorf("Failed write should not change data, got %s", got)
	}
	if err := m.Write(context.Background(), []byte("new")); err != nil {
		t.Errorf("Failure should only apply once, got %v", err)
	}
}

func TestFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "tasks.json")
	exerciseSlot(t, NewFile(path))

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Expected file to exist: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("Expected 0600 permissions, got %v", info.Mode().Perm())
	}
	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Errorf("Expected temp files to be cleaned up, found %d entries", len(entries))
	}
}

func TestSQLite(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "tasks.db")
	s, err := OpenSQLite(ctx, path, "tasks")
	if err != nil {
		t.Fatalf("OpenSQLite failed: %v", err)
	}
	defer s.Close()
	exerciseSlot(t, s)

	// A second key in the same database is independent.
	other, err := OpenSQLite(ctx, path, "archive")
	if err != nil {
		t.Fatalf("OpenSQLite failed: %v", err)
	}
	defer other.Close()
	if _, err := other.Read(ctx); !errors.Is(err, ErrEmpty) {
		t.Errorf("Expected other key to be empty, got %v", err)
	}
}

func TestOpenBackends(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	s, err := Open(ctx, Options{Path: filepath.Join(dir, "tasks.json")})
	if err != nil {
		t.Fatalf("Open file failed: %v", err)
	}
	if _, ok := s.(*File); !ok {
		t.Errorf("Expected default backend to be *File, got %T", s)
	}

	s, err = Open(ctx, Options{Backend: BackendSQLite, Path: filepath.Join(dir, "tasks.db")})
	if err != nil {
		t.Fatalf("Open sqlite failed: %v", err)
	}
	s.Close()

	if _, err := Open(ctx, Options{Backend: "redis"}); err == nil {
		t.Error("Expected error for unknown backend")
	}
	if _, err := Open(ctx, Options{Backend: BackendPostgres}); err == nil {
		t.Error("Expected error for postgres without dsn")
	}
}

func TestPostgres(t *testing.T) {
	dsn := os.Getenv("WHATTODO_TEST_PG_DSN")
	if dsn == "" {
		t.Skip("WHATTODO_TEST_PG_DSN not set")
	}
	ctx := context.Background()
	s, err := OpenPostgres(ctx, dsn, "test-"+t.Name())
	if err != nil {
		t.Fatalf("OpenPostgres failed: %v", err)
	}
	defer s.Close()
	s.db.ExecContext(ctx, `DELETE FROM slots WHERE name = $1`, s.key)
	exerciseSlot(t, s)
}

func TestMongo(t *testing.T) {
	uri := os.Getenv("WHATTODO_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("WHATTODO_TEST_MONGO_URI not set")
	}
	ctx := context.Background()
	s, err := OpenMongo(ctx, uri, "whattodo_test", "slots", "test-"+t.Name())
	if err != nil {
		t.Fatalf("OpenMongo failed: %v", err)
	}
	defer s.Close()
	s.coll.Drop(ctx)
	exerciseSlot(t, s)
}

func TestOpenExpandsHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	s, err := Open(context.Background(), Options{Path: "~/whattodo/tasks.json"})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if got, want := s.(*File).Path, filepath.Join(home, "whattodo", "tasks.json"); got != want {
		t.Errorf("Expected %s, got %s", want, got)
	}

	s, err = Open(context.Background(), Options{Backend: BackendSQLite, Path: "~/whattodo/tasks.db"})
	if err != nil {
		t.Fatalf("Open sqlite failed: %v", err)
	}
	s.Close()
	if _, err := os.Stat(filepath.Join(home, "whattodo", "tasks.db")); err != nil {
		t.Errorf("Expected sqlite database under home: %v", err)
	}

	if got, _ := expandHome("~other/x"); got != "~other/x" {
		t.Errorf("Expected ~user paths untouched, got %s", got)
	}
}
