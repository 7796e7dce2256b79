package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dd0wney/cyberdna/pkg/legend"
)

// PGStore keeps one JSONB row per legend
type PGStore struct {
	pool  *pgxpool.Pool
	table string // sanitized identifier
}

// NewPGStore connects to databaseURL and creates the table if needed
func NewPGStore(ctx context.Context, databaseURL, table string) (*PGStore, error) {
	if table == "" {
		table = "legends"
	}

	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, opError("postgres", "open", "", fmt.Errorf("failed to parse database URL: %w", err))
	}

	cfg.MaxConns = 10
	cfg.MinConns = 1
	cfg.MaxConnLifetime = 5 * time.Minute
	cfg.MaxConnIdleTime = 1 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, opError("postgres", "open", "", fmt.Errorf("failed to create connection pool: %w", err))
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, opError("postgres", "open", "", fmt.Errorf("database unreachable: %w", err))
	}

	s := &PGStore{pool: pool, table: pgx.Identifier{table}.Sanitize()}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, opError("postgres", "open", "", fmt.Errorf("migration failed: %w", err))
	}
	return s, nil
}

func (s *PGStore) migrate(ctx context.Context) error {
	schema := fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS %s (
		name TEXT PRIMARY KEY,
		snapshot_id TEXT NOT NULL,
		fingerprint TEXT NOT NULL,
		total_processes INTEGER NOT NULL,
		document JSONB NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`, s.table)

	_, err := s.pool.Exec(ctx, schema)
	return err
}

func (s *PGStore) Backend() string { return "postgres" }

// Ping checks database connectivity
func (s *PGStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Save upserts the document for name
func (s *PGStore) Save(ctx context.Context, name string, doc *legend.Document) error {
	if err := ValidateName(name); err != nil {
		return opError("postgres", "save", name, err)
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return opError("postgres", "save", name, fmt.Errorf("failed to marshal legend: %w", err))
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (name, snapshot_id, fingerprint, total_processes, document, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (name) DO UPDATE SET
			snapshot_id = EXCLUDED.snapshot_id,
			fingerprint = EXCLUDED.fingerprint,
			total_processes = EXCLUDED.total_processes,
			document = EXCLUDED.document,
			updated_at = EXCLUDED.updated_at
	`, s.table)

	_, err = s.pool.Exec(ctx, query,
		name,
		doc.Metadata.SnapshotID,
		doc.Metadata.Fingerprint,
		doc.Metadata.TotalProcesses,
		data,
		time.Now().UTC(),
	)
	return opError("postgres", "save", name, err)
}

// Load reads the document for name
func (s *PGStore) Load(ctx context.Context, name string) (*legend.Document, error) {
	if err := ValidateName(name); err != nil {
		return nil, opError("postgres", "load", name, err)
	}

	var data []byte
	query := fmt.Sprintf(`SELECT document FROM %s WHERE name = $1`, s.table)
	err := s.pool.QueryRow(ctx, query, name).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, opError("postgres", "load", name, ErrNotFound)
	}
	if err != nil {
		return nil, opError("postgres", "load", name, err)
	}

	doc := &legend.Document{}
	if err := json.Unmarshal(data, doc); err != nil {
		return nil, opError("postgres", "load", name, fmt.Errorf("failed to decode legend: %w", err))
	}
	return doc, nil
}

// List returns stored names in lexical order
func (s *PGStore) List(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, fmt.Sprintf(`SELECT name FROM %s ORDER BY name`, s.table))
	if err != nil {
		return nil, opError("postgres", "list", "", err)
	}
	names, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, opError("postgres", "list", "", err)
	}
	return names, nil
}

// Delete removes the row for name
func (s *PGStore) Delete(ctx context.Context, name string) error {
	if err := ValidateName(name); err != nil {
		return opError("postgres", "delete", name, err)
	}
	tag, err := s.pool.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE name = $1`, s.table), name)
	if err != nil {
		return opError("postgres", "delete", name, err)
	}
	if tag.RowsAffected() == 0 {
		return opError("postgres", "delete", name, ErrNotFound)
	}
	return nil
}

// Close closes the connection pool
func (s *PGStore) Close() error {
	s.pool.Close()
	return nil
}
