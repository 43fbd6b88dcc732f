package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/harrisonrobin/whattodo/pkg/slot"
)

func TestLoadDefaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("WHATTODO_HOME", dir)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Calendar != DefaultCalendar {
		t.Errorf("Expected default calendar, got %q", cfg.Calendar)
	}
	if cfg.Storage.Backend != slot.BackendFile {
		t.Errorf("Expected file backend, got %q", cfg.Storage.Backend)
	}
	if cfg.Storage.Path != filepath.Join(dir, "tasks.json") {
		t.Errorf("Unexpected storage path %q", cfg.Storage.Path)
	}
	if cfg.Storage.Key != slot.DefaultKey {
		t.Errorf("Expected key %q, got %q", slot.DefaultKey, cfg.Storage.Key)
	}
	if cfg.Server.Addr != DefaultAddr || len(cfg.Server.AllowedOrigins) != 1 || cfg.Server.AllowedOrigins[0] != "*" {
		t.Errorf("Unexpected server defaults: %+v", cfg.Server)
	}
}

func TestSaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("WHATTODO_HOME", dir)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	cfg.Calendar = "Work"
	cfg.Storage.Backend = slot.BackendSQLite
	cfg.Storage.Path = filepath.Join(dir, "tasks.db")
	cfg.Server.AllowedOrigins = []string{"http://localhost:5173"}
	if err := Save(cfg); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	raw, err := os.ReadFile(filepath.Join(dir, configFile))
	if err != nil {
		t.Fatalf("Expected config file: %v", err)
	}
	if strings.Contains(string(raw), "tasks.db") {
		t.Errorf("Default sqlite path should not be written out: %s", raw)
	}

	loaded, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Calendar != "Work" || loaded.Storage.Backend != slot.BackendSQLite {
		t.Errorf("Unexpected config after reload: %+v", loaded)
	}
	if loaded.Storage.Path != filepath.Join(dir, "tasks.db") {
		t.Errorf("Expected sqlite default path, got %q", loaded.Storage.Path)
	}
	if len(loaded.Server.AllowedOrigins) != 1 || loaded.Server.AllowedOrigins[0] != "http://localhost:5173" {
		t.Errorf("Unexpected origins: %v", loaded.Server.AllowedOrigins)
	}
}

func TestEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("WHATTODO_HOME", dir)
	t.Setenv("WHATTODO_CALENDAR", "Personal")
	t.Setenv("WHATTODO_STORAGE_BACKEND", "postgres")
	t.Setenv("WHATTODO_STORAGE_DSN", "host=localhost dbname=todo sslmode=disable")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Calendar != "Personal" {
		t.Errorf("Expected calendar from env, got %q", cfg.Calendar)
	}
	opts := cfg.SlotOptions()
	if opts.Backend != slot.BackendPostgres || opts.DSN != "host=localhost dbname=todo sslmode=disable" {
		t.Errorf("Unexpected slot options: %+v", opts)
	}
}

func TestLoadRejectsBrokenFile(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("WHATTODO_HOME", dir)
	os.WriteFile(filepath.Join(dir, configFile), []byte("{broken"), 0600)

	if _, err := Load(); err == nil {
		t.Error("Expected error for malformed config")
	}
}
