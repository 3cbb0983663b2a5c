// Package postgres provides a Postgres-backed draft store mirroring the
// SQLite store's semantics: one JSONB payload row per draft, reads served
// by the wrapped in-memory store hydrated at open time.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver

	"annotcore/internal/infra/persistence/memory"
	"annotcore/pkg/domain"
)

// Compile-time contract assertion.
var _ domain.DraftStore = (*Store)(nil)

const (
	defaultDriver = "pgx"
	defaultDSN    = "postgres://localhost/annotcore?sslmode=disable"
)

var (
	sqlOpen = sql.Open
	openMu  sync.Mutex
)

// Store persists drafts to Postgres while reusing the in-memory store for
// reads.
type Store struct {
	*memory.Store
	db *sql.DB
	mu sync.Mutex
}

// NewStore opens a Postgres-backed draft store using the provided DSN
// (falls back to a local default), ensures the drafts table exists, and
// hydrates the in-memory store.
func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		dsn = defaultDSN
	}
	openMu.Lock()
	db, err := sqlOpen(defaultDriver, dsn)
	openMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS drafts (
		id TEXT PRIMARY KEY,
		payload JSONB NOT NULL
	)`); err != nil {
		return nil, fmt.Errorf("ensure drafts table: %w", err)
	}
	s := &Store{Store: memory.NewStore(), db: db}
	if err := s.load(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) load(ctx context.Context) error {
	rows, err := s.db.QueryContext(ctx, `SELECT payload FROM drafts`)
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

// Put stores the draft in memory and upserts its JSONB payload.
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
		`INSERT INTO drafts(id,payload) VALUES($1,$2) ON CONFLICT(id) DO UPDATE SET payload=EXCLUDED.payload`,
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
	if _, err := s.db.ExecContext(ctx, `DELETE FROM drafts WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete draft %s: %w", id, err)
	}
	return nil
}

// Close releases the database handle.
func (s *Store) Close() error { return s.db.Close() }

// DB exposes the underlying sql.DB for integration testing hooks.
func (s *Store) DB() *sql.DB { return s.db }

// OverrideSQLOpen swaps the sqlOpen function for tests and returns a
// restore function.
func OverrideSQLOpen(fn func(driverName, dataSourceName string) (*sql.DB, error)) func() {
	openMu.Lock()
	defer openMu.Unlock()
	prev := sqlOpen
	sqlOpen = fn
	return func() {
		openMu.Lock()
		defer openMu.Unlock()
		sqlOpen = prev
	}
}
