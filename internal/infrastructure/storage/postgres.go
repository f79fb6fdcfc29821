package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/lib/pq"

	"NewsNarrator/internal/domain"
	"NewsNarrator/internal/ports"
)

const defaultTable = "documents"

// Schema creates the document table; seq preserves first-insert order across upserts.
const Schema = `CREATE TABLE IF NOT EXISTS documents (
    seq        BIGSERIAL,
    category   TEXT        NOT NULL,
    id         TEXT        NOT NULL,
    content    TEXT        NOT NULL DEFAULT '',
    metadata   JSONB       NOT NULL DEFAULT '{}'::jsonb,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    PRIMARY KEY (category, id)
)`

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// PostgresStore persists records into a single JSONB-backed table.
type PostgresStore struct {
	db    *sql.DB
	table string
}

var _ ports.DocumentStore = (*PostgresStore)(nil)

// OpenPostgres connects with lib/pq and verifies the connection.
func OpenPostgres(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// NewPostgresStore wires a sql.DB implementation.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db, table: defaultTable}
}

// EnsureSchema creates the documents table when missing.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// Write upserts the record by (category, id).
func (s *PostgresStore) Write(ctx context.Context, record domain.Record) error {
	query, args, err := s.writeStatement(record)
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert %s/%s: %w", record.Category, record.ID, err)
	}
	return nil
}

// ReadAll returns every record of the category in first-insert order.
func (s *PostgresStore) ReadAll(ctx context.Context, category domain.Category) ([]domain.Record, error) {
	query, args, err := s.readAllStatement(category)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", category, err)
	}

	records := make([]domain.Record, 0)
	for rows.Next() {
		var (
			rec  = domain.Record{Category: category}
			meta []byte
		)
		if err := rows.Scan(&rec.ID, &rec.Content, &meta); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("scan record: %w", err)
		}
		if rec.Metadata, err = decodeMetadata(meta); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("record %s: %w", rec.ID, err)
		}
		records = append(records, rec)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("rows iteration: %w", rowsErr)
	}

	if closeErr := rows.Close(); closeErr != nil {
		return nil, fmt.Errorf("close rows: %w", closeErr)
	}

	return records, nil
}

// Count reports the number of records in the category.
func (s *PostgresStore) Count(ctx context.Context, category domain.Category) (int, error) {
	query, args, err := s.countStatement(category)
	if err != nil {
		return 0, err
	}
	var n int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", category, err)
	}
	return n, nil
}

func (s *PostgresStore) writeStatement(record domain.Record) (string, []any, error) {
	if err := record.Validate(); err != nil {
		return "", nil, err
	}
	meta, err := json.Marshal(record.Metadata)
	if err != nil {
		return "", nil, fmt.Errorf("encode metadata: %w", err)
	}
	return psql.Insert(s.table).
		Columns("category", "id", "content", "metadata").
		Values(string(record.Category), record.ID, record.Content, string(meta)).
		Suffix(`ON CONFLICT (category, id) DO UPDATE
              SET content = EXCLUDED.content,
                  metadata = EXCLUDED.metadata,
                  updated_at = NOW()`).
		ToSql()
}

func (s *PostgresStore) readAllStatement(category domain.Category) (string, []any, error) {
	if err := category.Validate(); err != nil {
		return "", nil, err
	}
	return psql.Select("id", "content", "metadata").
		From(s.table).
		Where(sq.Eq{"category": string(category)}).
		OrderBy("seq").
		ToSql()
}

func (s *PostgresStore) countStatement(category domain.Category) (string, []any, error) {
	if err := category.Validate(); err != nil {
		return "", nil, err
	}
	return psql.Select("COUNT(*)").
		From(s.table).
		Where(sq.Eq{"category": string(category)}).
		ToSql()
}

func decodeMetadata(raw []byte) (domain.Metadata, error) {
	if len(raw) == 0 {
		return domain.Metadata{}, nil
	}
	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("decode metadata: %w", err)
	}
	return domain.NormalizeMetadata(decoded)
}
