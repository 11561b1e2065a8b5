package core

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// fakeDB records statements and serves canned rows.
type fakeDB struct {
	execs    []string
	args     [][]any
	execErr  error
	rows     [][]any
	queryErr error
	limit    any
}

func (f *fakeDB) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.execs = append(f.execs, sql)
	f.args = append(f.args, args)
	return pgconn.NewCommandTag("INSERT 0 1"), f.execErr
}

func (f *fakeDB) Query(_ context.Context, _ string, args ...any) (pgx.Rows, error) {
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	if len(args) > 0 {
		f.limit = args[0]
	}
	return &fakeRows{data: f.rows, pos: -1}, nil
}

// fakeRows implements pgx.Rows over in-memory values.
type fakeRows struct {
	data [][]any
	pos  int
}

func (r *fakeRows) Close()                                       {}
func (r *fakeRows) Err() error                                   { return nil }
func (r *fakeRows) CommandTag() pgconn.CommandTag                { return pgconn.NewCommandTag("SELECT") }
func (r *fakeRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *fakeRows) RawValues() [][]byte                          { return nil }
func (r *fakeRows) Conn() *pgx.Conn                              { return nil }
func (r *fakeRows) Values() ([]any, error)                       { return r.data[r.pos], nil }

func (r *fakeRows) Next() bool {
	r.pos++
	return r.pos < len(r.data)
}

func (r *fakeRows) Scan(dest ...any) error {
	row := r.data[r.pos]
	if len(dest) != len(row) {
		return errors.New("scan: wrong number of destinations")
	}
	for i, d := range dest {
		switch p := d.(type) {
		case *string:
			*p = row[i].(string)
		case *int64:
			*p = row[i].(int64)
		case *time.Time:
			*p = row[i].(time.Time)
		default:
			return errors.New("scan: unsupported destination")
		}
	}
	return nil
}

func TestPgRecordStore_EnsureSchema(t *testing.T) {
	db := &fakeDB{}
	store := NewPgRecordStore(db)

	if err := store.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("EnsureSchema() error = %v", err)
	}
	if len(db.execs) != 1 || !strings.Contains(db.execs[0], "CREATE TABLE IF NOT EXISTS upload_records") {
		t.Errorf("EnsureSchema() executed %q", db.execs)
	}
}

func TestPgRecordStore_SaveUpload(t *testing.T) {
	db := &fakeDB{}
	store := NewPgRecordStore(db)

	rec := UploadRecord{
		ID:         uuid.New(),
		FileName:   "people.csv",
		Size:       42,
		UploadedAt: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		Extension:  "csv",
		UploaderID: "10.0.0.1",
		Operation:  OpSummary,
	}
	if err := store.SaveUpload(context.Background(), rec); err != nil {
		t.Fatalf("SaveUpload() error = %v", err)
	}

	args := db.args[0]
	if len(args) != 7 {
		t.Fatalf("got %d args, want 7", len(args))
	}
	if args[0] != rec.ID.String() || args[1] != "people.csv" || args[2] != int64(42) || args[6] != OpSummary {
		t.Errorf("SaveUpload() args = %v", args)
	}

	db.execErr = errors.New("connection refused")
	if err := store.SaveUpload(context.Background(), rec); !errors.Is(err, db.execErr) {
		t.Errorf("SaveUpload() error = %v, want wrapped %v", err, db.execErr)
	}
}

func TestPgRecordStore_RecentUploads(t *testing.T) {
	id := uuid.New()
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	db := &fakeDB{rows: [][]any{
		{id.String(), "sales.xlsx", int64(2048), at, "xlsx", "anon", OpUpload},
	}}
	store := NewPgRecordStore(db)

	got, err := store.RecentUploads(context.Background(), 0)
	if err != nil {
		t.Fatalf("RecentUploads() error = %v", err)
	}
	if db.limit != DefaultRecentUploads {
		t.Errorf("limit = %v, want %d", db.limit, DefaultRecentUploads)
	}
	if len(got) != 1 {
		t.Fatalf("got %d records, want 1", len(got))
	}
	if got[0].ID != id || got[0].FileName != "sales.xlsx" || !got[0].UploadedAt.Equal(at) {
		t.Errorf("record = %+v", got[0])
	}

	db.rows = [][]any{{"not-a-uuid", "x.csv", int64(1), at, "csv", "anon", OpUpload}}
	if _, err := store.RecentUploads(context.Background(), 10); err == nil {
		t.Error("RecentUploads() with bad id should fail")
	}
}

func TestClampRecentLimit(t *testing.T) {
	tests := []struct {
		in, want int
	}{
		{-1, DefaultRecentUploads},
		{0, DefaultRecentUploads},
		{7, 7},
		{MaxRecentUploads + 1, MaxRecentUploads},
	}
	for _, tt := range tests {
		if got := clampRecentLimit(tt.in); got != tt.want {
			t.Errorf("clampRecentLimit(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

// memRecordStore is an in-memory RecordStore for service tests.
type memRecordStore struct {
	mu      sync.Mutex
	records []UploadRecord
	err     error
}

func (m *memRecordStore) SaveUpload(_ context.Context, rec UploadRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.records = append(m.records, rec)
	return nil
}

func (m *memRecordStore) RecentUploads(_ context.Context, limit int) ([]UploadRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	limit = clampRecentLimit(limit)
	out := make([]UploadRecord, 0, limit)
	for i := len(m.records) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.records[i])
	}
	return out, nil
}
