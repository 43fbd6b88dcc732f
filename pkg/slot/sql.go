package slot

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// SQL keeps the slot as one row of a slots table. The same statements run on
// SQLite and PostgreSQL.
type SQL struct {
	db  *sql.DB
	key string
}

const slotsSchema = `
	CREATE TABLE IF NOT EXISTS slots (
		name TEXT PRIMARY KEY,
		payload TEXT NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`

// OpenSQLite opens (and creates) a SQLite database at path.
func OpenSQLite(ctx context.Context, path, key string) (*SQL, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	return newSQL(ctx, db, key)
}

// OpenPostgres connects with a lib/pq connection string.
func OpenPostgres(ctx context.Context, dsn, key string) (*SQL, error) {
	if dsn == "" {
		return nil, errors.New("postgres backend needs storage.dsn")
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	return newSQL(ctx, db, key)
}

func newSQL(ctx context.Context, db *sql.DB, key string) (*SQL, error) {
	if _, err := db.ExecContext(ctx, slotsSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create slots table: %w", err)
	}
	return &SQL{db: db, key: key}, nil
}

func (s *SQL) Read(ctx context.Context) ([]byte, error) {
	var payload string
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM slots WHERE name = $1`, s.key).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrEmpty
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read slot %q: %w", s.key, err)
	}
	return []byte(payload), nil
}

func (s *SQL) Write(ctx context.Context, data []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO slots (name, payload, updated_at) VALUES ($1, $2, $3)
		ON CONFLICT (name) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`,
		s.key, string(data), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to write slot %q: %w", s.key, err)
	}
	return nil
}

func (s *SQL) Close() error {
	return s.db.Close()
}
