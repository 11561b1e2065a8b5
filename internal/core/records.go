package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrRecordsDisabled is returned when upload history is requested but no
// metadata store is configured.
var ErrRecordsDisabled = errors.New("upload history is not enabled")

// DefaultRecentUploads is the page size for RecentUploads when none is given.
const DefaultRecentUploads = 20

// MaxRecentUploads caps RecentUploads.
const MaxRecentUploads = 500

// UploadRecord is the metadata kept for every analyzed upload. The file
// contents are never stored.
type UploadRecord struct {
	ID         uuid.UUID `json:"id"`
	FileName   string    `json:"file_name"`
	Size       int64     `json:"size_bytes"`
	UploadedAt time.Time `json:"uploaded_at"`
	Extension  string    `json:"extension"`
	UploaderID string    `json:"uploader_id"`
	Operation  string    `json:"operation"`
}

// RecordStore persists upload metadata.
type RecordStore interface {
	SaveUpload(ctx context.Context, rec UploadRecord) error
	RecentUploads(ctx context.Context, limit int) ([]UploadRecord, error)
}

// DBTX is the subset of pgx used by PgRecordStore. It is satisfied by
// *pgxpool.Pool, *pgx.Conn and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PgRecordStore stores upload records in PostgreSQL.
type PgRecordStore struct {
	db DBTX
}

// NewPgRecordStore wraps a connection pool or transaction.
func NewPgRecordStore(db DBTX) *PgRecordStore {
	return &PgRecordStore{db: db}
}

const createUploadRecords = `
CREATE TABLE IF NOT EXISTS upload_records (
    id          UUID PRIMARY KEY,
    file_name   TEXT        NOT NULL,
    size_bytes  BIGINT      NOT NULL,
    uploaded_at TIMESTAMPTZ NOT NULL,
    extension   TEXT        NOT NULL,
    uploader_id TEXT        NOT NULL,
    operation   TEXT        NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS upload_records_uploaded_at_idx ON upload_records (uploaded_at DESC);
`

// EnsureSchema creates the upload_records table if it does not exist.
func (s *PgRecordStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, createUploadRecords); err != nil {
		return fmt.Errorf("create upload_records: %w", err)
	}
	return nil
}

const insertUploadRecord = `
INSERT INTO upload_records (id, file_name, size_bytes, uploaded_at, extension, uploader_id, operation)
VALUES ($1, $2, $3, $4, $5, $6, $7)
`

// SaveUpload inserts one record.
func (s *PgRecordStore) SaveUpload(ctx context.Context, rec UploadRecord) error {
	_, err := s.db.Exec(ctx, insertUploadRecord,
		rec.ID.String(),
		rec.FileName,
		rec.Size,
		rec.UploadedAt,
		rec.Extension,
		rec.UploaderID,
		rec.Operation,
	)
	if err != nil {
		return fmt.Errorf("insert upload record: %w", err)
	}
	return nil
}

const listUploadRecords = `
SELECT id::text, file_name, size_bytes, uploaded_at, extension, uploader_id, operation
FROM upload_records
ORDER BY uploaded_at DESC
LIMIT $1
`

// RecentUploads returns the newest records first.
func (s *PgRecordStore) RecentUploads(ctx context.Context, limit int) ([]UploadRecord, error) {
	rows, err := s.db.Query(ctx, listUploadRecords, clampRecentLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("list upload records: %w", err)
	}

	records, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (UploadRecord, error) {
		var rec UploadRecord
		var id string
		if err := row.Scan(&id, &rec.FileName, &rec.Size, &rec.UploadedAt, &rec.Extension, &rec.UploaderID, &rec.Operation); err != nil {
			return rec, err
		}
		parsed, err := uuid.Parse(id)
		if err != nil {
			return rec, fmt.Errorf("parse record id %q: %w", id, err)
		}
		rec.ID = parsed
		return rec, nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan upload records: %w", err)
	}
	return records, nil
}

func clampRecentLimit(limit int) int {
	if limit <= 0 {
		return DefaultRecentUploads
	}
	if limit > MaxRecentUploads {
		return MaxRecentUploads
	}
	return limit
}
