// Package sqlite provides a SQLite-backed draft store. Drafts are stored
// one row each as JSON payloads; the in-memory store serves reads and the
// database is re-synced after every write.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite" // pure go sqlite driver

	"annotcore/internal/infra/persistence/memory"
	"annotcore/pkg/domain"
)

// Compile-time contract assertion.
var _ domain.DraftStore = (*Store)(nil)

// Store persists drafts to a single SQLite table while delegating reads to
// the wrapped in-memory store hydrated at open time.
type Store struct {
	*memory.Store
	db   *sql.DB
	mu   sync.Mutex
	path string
}

// NewStore opens (creating if needed) the draft database at path.
func NewStore(path string) (*Store, error) {
	if path == "" {
		path = "annotcore-drafts.db"
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil && !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("create dirs: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS drafts (
		id TEXT PRIMARY KEY,
		payload BLOB NOT NULL
	)`); err != nil {
		return nil, fmt.Errorf("create drafts table: %w", err)
	}
	s := &Store{Store: memory.NewStore(), db: db, path: path}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) load() error {
	rows, err := s.db.Query(`SELECT payload FROM drafts`)
	if err != nil {
		return fmt.Errorf("select drafts: %w", err)
	}
	defer func() { _ = rows.Close() }()
	var drafts []domain.Draft
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return fmt.Errorf("scan draft: %w", err)
		}
		var draft domain.Draft
		if err := json.Unmarshal(payload, &draft); err != nil {
			return fmt.Errorf("decode draft: %w", err)
		}
		drafts = append(drafts, draft)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate drafts: %w", err)
	}
	s.Import(drafts)
	return nil
}

// Put stores the draft in memory and upserts its JSON payload.
func (s *Store) Put(ctx context.Context, draft domain.Draft) error {
	if err := s.Store.Put(ctx, draft); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	payload, err := json.Marshal(draft)
	if err != nil {
		return fmt.Errorf("encode draft: %w", err)
	}
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO drafts(id,payload) VALUES(?,?) ON CONFLICT(id) DO UPDATE SET payload=excluded.payload`,
		draft.ID, payload); err != nil {
		return fmt.Errorf("upsert draft %s: %w", draft.ID, err)
	}
	return nil
}

// Delete removes the draft from memory and from the database.
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := s.Store.Delete(ctx, id); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.db.ExecContext(ctx, `DELETE FROM drafts WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete draft %s: %w", id, err)
	}
	return nil
}

// Close releases the database handle.
func (s *Store) Close() error { return s.db.Close() }

// DB exposes the underlying sql.DB for integration testing hooks.
func (s *Store) DB() *sql.DB { return s.db }

// Path returns the configured database path.
func (s *Store) Path() string { return s.path }
