package divcache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Rshan11/submittal4subs-sub001/internal/divisions"
)

// PostgresStore persists cache records in a document_indexes table so
// resolutions survive restarts and are shared across instances.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, connStr string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

// Initialize sets up the cache table.
func (s *PostgresStore) Initialize(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
        CREATE TABLE IF NOT EXISTS document_indexes (
            document_hash TEXT PRIMARY KEY,
            division_map  JSONB NOT NULL,
            total_pages   INTEGER NOT NULL,
            cached_at     TIMESTAMPTZ NOT NULL,
            last_accessed TIMESTAMPTZ NOT NULL,
            access_count  BIGINT NOT NULL DEFAULT 0
        )
    `)
	if err != nil {
		return fmt.Errorf("failed to create document_indexes table: %w", err)
	}
	_, err = s.pool.Exec(ctx, `
        CREATE INDEX IF NOT EXISTS document_indexes_last_accessed_idx
            ON document_indexes (last_accessed)
    `)
	if err != nil {
		return fmt.Errorf("failed to create access index: %w", err)
	}
	return nil
}

func (s *PostgresStore) Load(ctx context.Context, hash string) (*CacheRecord, error) {
	row := s.pool.QueryRow(ctx, `
        SELECT division_map, total_pages, cached_at, last_accessed, access_count
        FROM document_indexes WHERE document_hash = $1
    `, hash)

	var (
		mapJSON []byte
		rec     = CacheRecord{DocumentHash: hash}
	)
	err := row.Scan(&mapJSON, &rec.TotalPages, &rec.CachedAt, &rec.LastAccessed, &rec.AccessCount)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load cache record: %w", err)
	}
	var m divisions.DivisionMap
	if err := json.Unmarshal(mapJSON, &m); err != nil {
		return nil, fmt.Errorf("failed to decode division map: %w", err)
	}
	rec.DivisionMap = &m
	return &rec, nil
}

// Save upserts the record. The row replaces any previous resolution for
// the hash in one statement, so readers never see a torn record.
func (s *PostgresStore) Save(ctx context.Context, rec *CacheRecord) error {
	mapJSON, err := json.Marshal(rec.DivisionMap)
	if err != nil {
		return fmt.Errorf("failed to encode division map: %w", err)
	}
	_, err = s.pool.Exec(ctx, `
        INSERT INTO document_indexes
            (document_hash, division_map, total_pages, cached_at, last_accessed, access_count)
        VALUES ($1, $2, $3, $4, $5, $6)
        ON CONFLICT (document_hash) DO UPDATE SET
            division_map  = EXCLUDED.division_map,
            total_pages   = EXCLUDED.total_pages,
            cached_at     = EXCLUDED.cached_at,
            last_accessed = EXCLUDED.last_accessed,
            access_count  = EXCLUDED.access_count
    `, rec.DocumentHash, mapJSON, rec.TotalPages, rec.CachedAt, rec.LastAccessed, rec.AccessCount)
	if err != nil {
		return fmt.Errorf("failed to save cache record: %w", err)
	}
	return nil
}

func (s *PostgresStore) Touch(ctx context.Context, hash string, at time.Time) error {
	_, err := s.pool.Exec(ctx, `
        UPDATE document_indexes
        SET last_accessed = $2, access_count = access_count + 1
        WHERE document_hash = $1
    `, hash, at)
	if err != nil {
		return fmt.Errorf("failed to touch cache record: %w", err)
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, hash string) error {
	_, err := s.pool.Exec(ctx, `
        DELETE FROM document_indexes WHERE document_hash = $1
    `, hash)
	if err != nil {
		return fmt.Errorf("failed to delete cache record: %w", err)
	}
	return nil
}

func (s *PostgresStore) Evict(ctx context.Context, olderThan time.Time, maxAccessCount int64) (int, error) {
	tag, err := s.pool.Exec(ctx, `
        DELETE FROM document_indexes
        WHERE last_accessed < $1 AND access_count < $2
    `, olderThan, maxAccessCount)
	if err != nil {
		return 0, fmt.Errorf("failed to evict cache records: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

func (s *PostgresStore) Close() {
	s.pool.Close()
}
