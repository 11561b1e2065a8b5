package core

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/JonMunkholm/tabstat/internal/config"
	"github.com/JonMunkholm/tabstat/internal/dataset"
)

const peopleCSV = "Name,Age\nAlice,30\nBob,25\n,40\n"

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Upload: config.UploadConfig{
			MaxConcurrent: 2,
			MaxWaitTime:   time.Second,
			Timeout:       5 * time.Second,
			Dir:           t.TempDir(),
			Compress:      true,
		},
		Analysis: config.AnalysisConfig{
			PreviewRows:      5,
			DefaultPageSize:  10,
			FilterLimit:      50,
			CategoricalRatio: 0.5,
		},
	}
}

func newTestService(t *testing.T, records RecordStore) *Service {
	t.Helper()
	s, err := NewService(testConfig(t), records)
	if err != nil {
		t.Fatalf("NewService() error = %v", err)
	}
	return s
}

func csvUpload(body string) Upload {
	return Upload{FileName: "people.csv", Body: strings.NewReader(body)}
}

// drained waits for background analyses and asserts no working copy is left.
func drained(t *testing.T, s *Service) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.WaitForDrain(ctx); err != nil {
		t.Fatalf("WaitForDrain() error = %v", err)
	}
	entries, err := os.ReadDir(s.workspace.Dir())
	if err != nil {
		t.Fatalf("ReadDir() error = %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("%d working copies left behind", len(entries))
	}
}

func strPtr(s string) *string { return &s }

func TestService_Preview(t *testing.T) {
	s := newTestService(t, nil)

	rows, err := s.Preview(context.Background(), csvUpload(peopleCSV))
	if err != nil {
		t.Fatalf("Preview() error = %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want 3", len(rows))
	}
	if v, _ := rows[0].Get("Name"); v != "Alice" {
		t.Errorf("rows[0].Name = %v, want Alice", v)
	}
	if v, _ := rows[1].Get("Age"); v != 25.0 {
		t.Errorf("rows[1].Age = %v, want 25", v)
	}
	if v, ok := rows[2].Get("Name"); !ok || v != nil {
		t.Errorf("rows[2].Name = %v, %v, want absent", v, ok)
	}

	drained(t, s)
}

func TestService_PreviewCapsRows(t *testing.T) {
	s := newTestService(t, nil)

	var b strings.Builder
	b.WriteString("n\n")
	for i := 0; i < 12; i++ {
		fmt.Fprintf(&b, "%d\n", i)
	}

	rows, err := s.Preview(context.Background(), csvUpload(b.String()))
	if err != nil {
		t.Fatalf("Preview() error = %v", err)
	}
	if len(rows) != 5 {
		t.Errorf("got %d rows, want 5", len(rows))
	}
}

func TestService_InputErrors(t *testing.T) {
	tests := []struct {
		name    string
		upload  Upload
		wantErr error
	}{
		{"no body", Upload{FileName: "a.csv"}, ErrNoFileProvided},
		{"empty filename", Upload{FileName: "  ", Body: strings.NewReader("a\n1\n")}, ErrNoFileProvided},
		{"unsupported extension", Upload{FileName: "report.pdf", Body: strings.NewReader("x")}, dataset.ErrUnsupportedFormat},
		{"ragged csv", csvUpload("Name,Age\nAlice,30\nBob\n"), dataset.ErrParse},
		{"empty input", csvUpload(""), dataset.ErrParse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestService(t, nil)
			_, err := s.Summary(context.Background(), tt.upload)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Summary() error = %v, want %v", err, tt.wantErr)
			}
			drained(t, s)
		})
	}
}

func TestService_Summary(t *testing.T) {
	s := newTestService(t, nil)

	report, err := s.Summary(context.Background(), csvUpload(peopleCSV))
	if err != nil {
		t.Fatalf("Summary() error = %v", err)
	}
	if report.Rows != 3 {
		t.Errorf("Rows = %d, want 3", report.Rows)
	}
	age := report.Columns["Age"]
	if age == nil || age.Mean == nil || *age.Mean != 95.0/3 {
		t.Errorf("Age summary = %+v, want mean 31.67", age)
	}
	if name := report.Columns["Name"]; name == nil || name.NonAbsent != 2 {
		t.Errorf("Name summary = %+v, want 2 non-absent", name)
	}
}

func TestService_Page(t *testing.T) {
	var b strings.Builder
	b.WriteString("n\n")
	for i := 1; i <= 12; i++ {
		fmt.Fprintf(&b, "%d\n", i)
	}
	body := b.String()

	tests := []struct {
		name        string
		page        int
		perPage     int
		wantRows    int
		wantFirst   float64
		wantPage    int
		wantPerPage int
		wantPages   int
	}{
		{"second page", 2, 5, 5, 6, 2, 5, 3},
		{"last partial page", 3, 5, 2, 11, 3, 5, 3},
		{"zero coerced to one", 0, 0, 1, 1, 1, 1, 12},
		{"negative coerced to one", -2, -3, 1, 1, 1, 1, 12},
		{"past the end", 100, 10, 0, 0, 100, 10, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestService(t, nil)
			res, err := s.Page(context.Background(), csvUpload(body), tt.page, tt.perPage)
			if err != nil {
				t.Fatalf("Page() error = %v", err)
			}
			if res.Rows == nil {
				t.Fatal("Rows is nil, want empty slice")
			}
			if len(res.Rows) != tt.wantRows {
				t.Fatalf("got %d rows, want %d", len(res.Rows), tt.wantRows)
			}
			if tt.wantRows > 0 {
				if v, _ := res.Rows[0].Get("n"); v != tt.wantFirst {
					t.Errorf("first row n = %v, want %v", v, tt.wantFirst)
				}
			}
			if res.Page != tt.wantPage || res.PerPage != tt.wantPerPage {
				t.Errorf("page/per_page = %d/%d, want %d/%d", res.Page, res.PerPage, tt.wantPage, tt.wantPerPage)
			}
			if res.TotalRows != 12 || res.TotalPages != tt.wantPages {
				t.Errorf("totals = %d/%d, want 12/%d", res.TotalRows, res.TotalPages, tt.wantPages)
			}
		})
	}
}

func TestService_GroupedSummary(t *testing.T) {
	const body = "Dept,Salary\nA,10\nB,20\nA,30\n,5\n"

	t.Run("groups by key", func(t *testing.T) {
		s := newTestService(t, nil)
		res, err := s.GroupedSummary(context.Background(), csvUpload(body), "Dept")
		if err != nil {
			t.Fatalf("GroupedSummary() error = %v", err)
		}
		sizes := res.Sizes()
		if sizes["A"] != 2 || sizes["B"] != 1 || sizes[dataset.AbsentGroupKey] != 1 {
			t.Errorf("Sizes() = %v", sizes)
		}
	})

	t.Run("missing column", func(t *testing.T) {
		s := newTestService(t, nil)
		_, err := s.GroupedSummary(context.Background(), csvUpload(body), " ")
		if !errors.Is(err, ErrMissingColumn) {
			t.Errorf("GroupedSummary() error = %v, want ErrMissingColumn", err)
		}
	})

	t.Run("unknown column", func(t *testing.T) {
		s := newTestService(t, nil)
		_, err := s.GroupedSummary(context.Background(), csvUpload(body), "Region")
		if !errors.Is(err, dataset.ErrUnknownColumn) {
			t.Errorf("GroupedSummary() error = %v, want ErrUnknownColumn", err)
		}
		drained(t, s)
	})
}

func TestService_Filter(t *testing.T) {
	spec := dataset.FilterSpec{{Column: "Age", Op: dataset.OpGreater, Operand: strPtr("26")}}

	tests := []struct {
		name      string
		limit     int
		wantCount int
	}{
		{"default limit", 0, 2},
		{"explicit limit", 1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestService(t, nil)
			res, err := s.Filter(context.Background(), csvUpload(peopleCSV), spec, tt.limit)
			if err != nil {
				t.Fatalf("Filter() error = %v", err)
			}
			if res.Count != tt.wantCount || len(res.Rows) != tt.wantCount {
				t.Errorf("count = %d (%d rows), want %d", res.Count, len(res.Rows), tt.wantCount)
			}
		})
	}
}

func TestService_Records(t *testing.T) {
	store := &memRecordStore{}
	s := newTestService(t, store)

	ctx := ContextWithUploaderID(context.Background(), "tester")
	if _, err := s.Summary(ctx, csvUpload(peopleCSV)); err != nil {
		t.Fatalf("Summary() error = %v", err)
	}

	recs, err := s.RecentUploads(context.Background(), 10)
	if err != nil {
		t.Fatalf("RecentUploads() error = %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("got %d records, want 1", len(recs))
	}
	rec := recs[0]
	if rec.FileName != "people.csv" || rec.Extension != "csv" || rec.Operation != OpSummary {
		t.Errorf("record = %+v", rec)
	}
	if rec.UploaderID != "tester" {
		t.Errorf("UploaderID = %q, want tester", rec.UploaderID)
	}
	if rec.Size != int64(len(peopleCSV)) {
		t.Errorf("Size = %d, want %d", rec.Size, len(peopleCSV))
	}
}

func TestService_RecordFailureDoesNotFailRequest(t *testing.T) {
	s := newTestService(t, &memRecordStore{err: errors.New("connection refused")})

	if _, err := s.Preview(context.Background(), csvUpload(peopleCSV)); err != nil {
		t.Errorf("Preview() error = %v, want nil", err)
	}
}

func TestService_RecordsDisabled(t *testing.T) {
	s := newTestService(t, nil)

	if s.RecordsEnabled() {
		t.Error("RecordsEnabled() = true, want false")
	}
	if _, err := s.RecentUploads(context.Background(), 5); !errors.Is(err, ErrRecordsDisabled) {
		t.Errorf("RecentUploads() error = %v, want ErrRecordsDisabled", err)
	}
}

func TestService_TooManyUploads(t *testing.T) {
	cfg := testConfig(t)
	cfg.Upload.MaxConcurrent = 1
	cfg.Upload.MaxWaitTime = 20 * time.Millisecond
	s, err := NewService(cfg, nil)
	if err != nil {
		t.Fatalf("NewService() error = %v", err)
	}

	if err := s.limiter.Acquire(context.Background()); err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	defer s.limiter.Release()

	_, err = s.Summary(context.Background(), csvUpload(peopleCSV))
	if !errors.Is(err, ErrTooManyUploads) {
		t.Errorf("Summary() error = %v, want ErrTooManyUploads", err)
	}
}

func TestAnalyze_Timeout(t *testing.T) {
	s := newTestService(t, nil)
	s.timeout = 20 * time.Millisecond

	block := make(chan struct{})
	_, err := analyze(context.Background(), s, csvUpload(peopleCSV), "test", func(*dataset.Table) (int, error) {
		<-block
		return 1, nil
	})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("analyze() error = %v, want DeadlineExceeded", err)
	}
	if MapError(err).Code != "UPL005" {
		t.Errorf("MapError(%v).Code = %q, want UPL005", err, MapError(err).Code)
	}

	// The abandoned analysis still holds its slot until it finishes.
	if got := s.LimiterStatus().Active; got != 1 {
		t.Errorf("Active = %d, want 1", got)
	}

	// Shutdown cannot drain while the abandoned analysis is still running.
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := s.WaitForDrain(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("WaitForDrain() error = %v, want DeadlineExceeded", err)
	}

	close(block)
	drained(t, s)

	if got := s.LimiterStatus().Active; got != 0 {
		t.Errorf("Active after drain = %d, want 0", got)
	}
}
