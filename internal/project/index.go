package project

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// Index is a local SQLite-backed record of generations: one row per project
// (identifier, the prompt that produced it, creation time). It backs the
// listing endpoint and the retention sweep; the files themselves live in the
// Store.
type Index struct {
	db *sql.DB
}

func OpenIndex(path string) (*Index, error) {
	p := filepath.Clean(strings.TrimSpace(path))
	if p == "" {
		return nil, errors.New("missing index db path")
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", p)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(`PRAGMA busy_timeout=3000;`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pragma busy_timeout: %w", err)
	}
	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS projects (
			id                 TEXT PRIMARY KEY,
			prompt             TEXT NOT NULL,
			created_at_unix_ms INTEGER NOT NULL
		)`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init index schema: %w", err)
	}
	if _, err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_projects_created_at ON projects(created_at_unix_ms)`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init index schema: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	return &Index{db: db}, nil
}

func (ix *Index) Close() error {
	if ix == nil || ix.db == nil {
		return nil
	}
	return ix.db.Close()
}

type Record struct {
	ID        string    `json:"id"`
	Prompt    string    `json:"prompt"`
	CreatedAt time.Time `json:"createdAt"`
}

func (ix *Index) Add(ctx context.Context, id, prompt string) error {
	return ix.addAt(ctx, id, prompt, time.Now())
}

func (ix *Index) addAt(ctx context.Context, id, prompt string, at time.Time) error {
	_, err := ix.db.ExecContext(ctx,
		`INSERT INTO projects (id, prompt, created_at_unix_ms) VALUES (?, ?, ?)`,
		id, prompt, at.UnixMilli())
	return err
}

// List returns all recorded projects, newest first.
func (ix *Index) List(ctx context.Context) ([]Record, error) {
	rows, err := ix.db.QueryContext(ctx,
		`SELECT id, prompt, created_at_unix_ms FROM projects ORDER BY created_at_unix_ms DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Record{}
	for rows.Next() {
		var rec Record
		var ms int64
		if err := rows.Scan(&rec.ID, &rec.Prompt, &ms); err != nil {
			return nil, err
		}
		rec.CreatedAt = time.UnixMilli(ms)
		out = append(out, rec)
	}
	return out, rows.Err()
}

// OlderThan returns the identifiers of projects created before cutoff.
func (ix *Index) OlderThan(ctx context.Context, cutoff time.Time) ([]string, error) {
	rows, err := ix.db.QueryContext(ctx,
		`SELECT id FROM projects WHERE created_at_unix_ms < ?`, cutoff.UnixMilli())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (ix *Index) Delete(ctx context.Context, id string) error {
	_, err := ix.db.ExecContext(ctx, `DELETE FROM projects WHERE id = ?`, id)
	return err
}
