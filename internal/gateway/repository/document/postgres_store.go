package document

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// PostgresStore keeps documents in a single JSONB table keyed by
// (partition_key, id).
type PostgresStore struct {
	db *sql.DB

	schemaOnce sync.Once
	schemaErr  error
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// OpenPostgres connects through the pgx stdlib driver and verifies the
// connection.
func OpenPostgres(ctx context.Context, dsn string) (*PostgresStore, error) {
	db, err := sql.Open("pgx", strings.TrimSpace(dsn))
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return NewPostgresStore(db), nil
}

func (s *PostgresStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *PostgresStore) ensureSchema(ctx context.Context) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("store is nil")
	}
	s.schemaOnce.Do(func() {
		_, s.schemaErr = s.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS documents (
  partition_key TEXT NOT NULL,
  id TEXT NOT NULL,
  body JSONB NOT NULL,
  created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
  updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
  PRIMARY KEY (partition_key, id)
)`)
	})
	return s.schemaErr
}

func (s *PostgresStore) Put(ctx context.Context, partitionKey, id string, doc []byte) error {
	partitionKey, id, err := normalizeKey(partitionKey, id)
	if err != nil {
		return err
	}
	if err := s.ensureSchema(ctx); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
INSERT INTO documents (partition_key, id, body)
VALUES ($1, $2, $3::jsonb)
ON CONFLICT (partition_key, id) DO UPDATE SET
  body = EXCLUDED.body,
  updated_at = NOW()`,
		partitionKey, id, string(doc),
	)
	return err
}

func (s *PostgresStore) Get(ctx context.Context, partitionKey, id string) ([]byte, error) {
	partitionKey, id, err := normalizeKey(partitionKey, id)
	if err != nil {
		return nil, err
	}
	if err := s.ensureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	var body string
	err = s.db.QueryRowContext(ctx,
		`SELECT body::text FROM documents WHERE partition_key = $1 AND id = $2`,
		partitionKey, id,
	).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return []byte(body), nil
}

func (s *PostgresStore) Delete(ctx context.Context, partitionKey, id string) error {
	partitionKey, id, err := normalizeKey(partitionKey, id)
	if err != nil {
		return err
	}
	if err := s.ensureSchema(ctx); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`DELETE FROM documents WHERE partition_key = $1 AND id = $2`,
		partitionKey, id,
	)
	return err
}
