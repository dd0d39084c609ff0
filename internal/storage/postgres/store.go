// Package postgres stores progress and XP documents in a PostgreSQL JSONB
// table, for deployments where several daemons share one database.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lib/pq"
	"github.com/sqlc-dev/pqtype"

	"github.com/jayainhufs/coding-sam/internal/storage"
)

// DefaultTable is used when no table name is configured.
const DefaultTable = "coding_sam_kv"

// Store implements storage.Store using PostgreSQL.
//
// Subscribers only see writes made through this Store value; writes from
// other processes are picked up on the next Get.
type Store struct {
	pool   *pgxpool.Pool
	table  string
	notify storage.Notifier
}

// Connect opens a pool and verifies the server is reachable.
func Connect(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return pool, nil
}

// NewStore creates a store over pool using table (DefaultTable if empty).
func NewStore(pool *pgxpool.Pool, table string) *Store {
	return &Store{pool: pool, table: quoteTable(table)}
}

func quoteTable(table string) string {
	if table == "" {
		table = DefaultTable
	}
	return pq.QuoteIdentifier(table)
}

// EnsureSchema creates the table if it does not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			key        TEXT PRIMARY KEY,
			value      JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`, s.table)
	if _, err := s.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("create table: %w", err)
	}
	return nil
}

// Get returns the JSON document stored under key. A row whose value is
// NULL, as left by tables created outside EnsureSchema, reads as missing.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	query := fmt.Sprintf(`SELECT value FROM %s WHERE key = $1`, s.table)

	var doc pqtype.NullRawMessage
	err := s.pool.QueryRow(ctx, query, key).Scan(&doc)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query value: %w", err)
	}
	return documentBytes(doc)
}

// documentBytes maps a nullable JSONB column onto the store contract.
func documentBytes(doc pqtype.NullRawMessage) ([]byte, error) {
	if !doc.Valid {
		return nil, storage.ErrNotFound
	}
	return []byte(doc.RawMessage), nil
}

// Set upserts the document and notifies subscribers.
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (key, value, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE SET
			value = EXCLUDED.value,
			updated_at = EXCLUDED.updated_at
	`, s.table)

	if !json.Valid(value) {
		return fmt.Errorf("set %s: value is not a JSON document", key)
	}

	if _, err := s.pool.Exec(ctx, query, key, json.RawMessage(value)); err != nil {
		return fmt.Errorf("upsert value: %w", err)
	}

	s.notify.Notify(key, append([]byte(nil), value...))
	return nil
}

// Subscribe registers fn for writes of key made through this store.
func (s *Store) Subscribe(key string, fn storage.Callback) func() {
	return s.notify.Subscribe(key, fn)
}

// Close releases the pool.
func (s *Store) Close() {
	s.pool.Close()
}

var _ storage.Store = (*Store)(nil)
