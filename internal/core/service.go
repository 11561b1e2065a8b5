package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/JonMunkholm/tabstat/internal/config"
	"github.com/JonMunkholm/tabstat/internal/dataset"
	"github.com/JonMunkholm/tabstat/internal/logging"
)

var (
	// ErrNoFileProvided is returned when a request carries no file or the
	// file has an empty name.
	ErrNoFileProvided = errors.New("no file provided")

	// ErrMissingColumn is returned when a grouped summary is requested
	// without a group column.
	ErrMissingColumn = errors.New("missing group column")

	// ErrFileTooLarge is returned when the upload exceeds the size limit.
	ErrFileTooLarge = errors.New("file too large")
)

// Operation names recorded with each upload.
const (
	OpUpload  = "upload"
	OpSummary = "summary"
	OpPreview = "preview"
	OpGroup   = "grouped_summary"
	OpFilter  = "filter"
)

// Upload is one file received from a client.
type Upload struct {
	FileName string
	Body     io.Reader
}

// PageResult is one window of rows plus the paging metadata.
type PageResult struct {
	Rows       []dataset.Row `json:"preview"`
	Page       int           `json:"page"`
	PerPage    int           `json:"per_page"`
	TotalRows  int           `json:"total_rows"`
	TotalPages int           `json:"total_pages"`
}

// FilterResult holds the rows matching a filter, capped at the limit.
type FilterResult struct {
	Rows  []dataset.Row `json:"filtered"`
	Count int           `json:"count"`
}

// Service runs one analysis per request. A file is staged, parsed, analyzed
// and discarded; nothing is cached between requests.
type Service struct {
	workspace *Workspace
	limiter   *Limiter
	records   RecordStore // nil when history is disabled
	timeout   time.Duration
	opts      dataset.Options
	analysis  config.AnalysisConfig
}

// NewService creates a Service from configuration. records may be nil.
func NewService(cfg *config.Config, records RecordStore) (*Service, error) {
	ws, err := NewWorkspace(cfg.Upload.Dir, cfg.Upload.Compress)
	if err != nil {
		return nil, err
	}

	timeout := cfg.Upload.Timeout
	if timeout <= 0 {
		timeout = time.Minute
	}

	return &Service{
		workspace: ws,
		limiter:   NewLimiter(cfg.Upload.MaxConcurrent, cfg.Upload.MaxWaitTime),
		records:   records,
		timeout:   timeout,
		opts: dataset.Options{
			Delimiter:        cfg.Analysis.DelimiterRune(),
			CategoricalRatio: cfg.Analysis.CategoricalRatio,
		},
		analysis: cfg.Analysis,
	}, nil
}

// Preview returns the first rows of the file for the upload endpoint.
func (s *Service) Preview(ctx context.Context, up Upload) ([]dataset.Row, error) {
	return analyze(ctx, s, up, OpUpload, func(t *dataset.Table) ([]dataset.Row, error) {
		return dataset.Head(t, s.analysis.PreviewRows), nil
	})
}

// Summary computes descriptive statistics for every column.
func (s *Service) Summary(ctx context.Context, up Upload) (*dataset.SummaryReport, error) {
	return analyze(ctx, s, up, OpSummary, func(t *dataset.Table) (*dataset.SummaryReport, error) {
		return dataset.Summarize(t), nil
	})
}

// Page returns one page of rows. Non-positive page and perPage are coerced
// to 1.
func (s *Service) Page(ctx context.Context, up Upload, page, perPage int) (*PageResult, error) {
	page = max(page, 1)
	perPage = max(perPage, 1)

	return analyze(ctx, s, up, OpPreview, func(t *dataset.Table) (*PageResult, error) {
		return &PageResult{
			Rows:       dataset.Page(t, page, perPage),
			Page:       page,
			PerPage:    perPage,
			TotalRows:  t.Len(),
			TotalPages: dataset.TotalPages(t, perPage),
		}, nil
	})
}

// GroupedSummary aggregates every other column by the values of groupBy.
func (s *Service) GroupedSummary(ctx context.Context, up Upload, groupBy string) (*dataset.GroupAggregationResult, error) {
	if strings.TrimSpace(groupBy) == "" {
		return nil, ErrMissingColumn
	}

	return analyze(ctx, s, up, OpGroup, func(t *dataset.Table) (*dataset.GroupAggregationResult, error) {
		return dataset.AggregateByGroup(t, groupBy)
	})
}

// Filter returns rows matching every predicate, at most limit of them.
// Non-positive limit selects the configured filter limit.
func (s *Service) Filter(ctx context.Context, up Upload, spec dataset.FilterSpec, limit int) (*FilterResult, error) {
	if limit < 1 {
		limit = s.analysis.FilterLimit
	}

	return analyze(ctx, s, up, OpFilter, func(t *dataset.Table) (*FilterResult, error) {
		rows := dataset.Filter(t, spec, limit)
		return &FilterResult{Rows: rows, Count: len(rows)}, nil
	})
}

// RecentUploads lists upload records, newest first.
func (s *Service) RecentUploads(ctx context.Context, limit int) ([]UploadRecord, error) {
	if s.records == nil {
		return nil, ErrRecordsDisabled
	}
	return s.records.RecentUploads(ctx, limit)
}

// RecordsEnabled reports whether upload records are kept.
func (s *Service) RecordsEnabled() bool {
	return s.records != nil
}

// LimiterStatus returns the state of the analysis limiter.
func (s *Service) LimiterStatus() LimiterStatus {
	return s.limiter.Status()
}

// WaitForDrain blocks until in-flight analyses finish or ctx ends.
func (s *Service) WaitForDrain(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}

type outcome[T any] struct {
	v   T
	err error
}

// analyze stages the upload and runs fn over the parsed table under the
// configured timeout.
//
// Staging happens on the caller's goroutine because the request body is
// only readable while the handler runs. Parsing and fn run on their own
// goroutine, which owns the working copy and the limiter slot: when the
// timeout fires first the caller returns immediately and the goroutine
// cleans up once the CPU-bound work ends.
func analyze[T any](ctx context.Context, s *Service, up Upload, op string, fn func(*dataset.Table) (T, error)) (T, error) {
	var zero T

	if up.Body == nil || strings.TrimSpace(up.FileName) == "" {
		return zero, ErrNoFileProvided
	}
	format, err := dataset.FormatFromFilename(up.FileName)
	if err != nil {
		return zero, err
	}

	if err := s.limiter.Acquire(ctx); err != nil {
		return zero, err
	}

	wc, err := s.workspace.Stage(up.Body, format)
	if err != nil {
		s.limiter.Release()
		return zero, err
	}

	log := logging.WithFields(ctx,
		"upload_id", wc.ID,
		"operation", op,
		"file", up.FileName,
		"uploader", UploaderFromContext(ctx),
		"user_agent", GetUserAgentFromContext(ctx),
	)
	s.saveRecord(ctx, log, up, wc, op)

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	done := make(chan outcome[T], 1)
	go func() {
		defer s.limiter.Release()
		defer func() {
			if err := wc.Remove(); err != nil {
				log.Warn("working copy not removed", "error", err)
			}
		}()

		data, err := wc.ReadAll()
		if err != nil {
			done <- outcome[T]{err: err}
			return
		}
		tbl, err := dataset.Load(data, string(format), s.opts)
		if err != nil {
			done <- outcome[T]{err: fmt.Errorf("load %s: %w", up.FileName, err)}
			return
		}
		v, err := fn(tbl)
		if err == nil {
			log.Info("analysis finished",
				"rows", tbl.Len(),
				"columns", tbl.Width(),
				"duration", time.Since(start),
			)
		}
		done <- outcome[T]{v: v, err: err}
	}()

	select {
	case out := <-done:
		return out.v, out.err
	case <-ctx.Done():
		log.Warn("analysis abandoned", "error", ctx.Err(), "elapsed", time.Since(start))
		return zero, fmt.Errorf("%s: %w", op, ctx.Err())
	}
}

// saveRecord stores upload metadata. Store failures never fail the request.
func (s *Service) saveRecord(ctx context.Context, logger *slog.Logger, up Upload, wc *WorkingCopy, op string) {
	if s.records == nil {
		return
	}

	rec := UploadRecord{
		ID:         wc.ID,
		FileName:   up.FileName,
		Size:       wc.Size,
		UploadedAt: time.Now().UTC(),
		Extension:  string(wc.Format),
		UploaderID: UploaderFromContext(ctx),
		Operation:  op,
	}
	if err := s.records.SaveUpload(ctx, rec); err != nil {
		logger.Warn("upload record not saved", "error", err)
	}
}
