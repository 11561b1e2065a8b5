package web

import (
	"net/http"

	"github.com/JonMunkholm/tabstat/internal/core"
	"github.com/JonMunkholm/tabstat/internal/dataset"
	"github.com/JonMunkholm/tabstat/internal/logging"
)

type uploadResponse struct {
	Message string        `json:"message"`
	Preview []dataset.Row `json:"preview"`
}

type summaryResponse struct {
	Summary *dataset.SummaryReport `json:"summary"`
}

type groupedSummaryResponse struct {
	GroupedSummary *dataset.GroupAggregationResult `json:"grouped_summary"`
	GroupSizes     map[string]int                  `json:"group_sizes"`
	KeyColumn      string                          `json:"key_column"`
}

type uploadsResponse struct {
	Uploads []core.UploadRecord `json:"uploads"`
	Count   int                 `json:"count"`
}

// handleIndex renders the status page.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	err := indexPage(indexData{
		Limiter:        s.service.LimiterStatus(),
		RecordsEnabled: s.service.RecordsEnabled(),
		MaxFileSize:    s.cfg.Upload.MaxFileSize,
		PreviewRows:    s.cfg.Analysis.PreviewRows,
		FilterLimit:    s.cfg.Analysis.FilterLimit,
	}).Render(r.Context(), w)
	if err != nil {
		logging.FromContext(r.Context()).Error("render index", "error", err)
	}
}

// handleHealth reports liveness.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, map[string]string{"status": "ok"})
}

// handleStatus returns the current state of the analysis limiter.
// Used for monitoring and to check if the system can accept more uploads.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, s.service.LimiterStatus())
}

// handleRecentUploads lists upload records, newest first.
func (s *Server) handleRecentUploads(w http.ResponseWriter, r *http.Request) {
	records, err := s.service.RecentUploads(r.Context(), intParam(r, "limit", core.DefaultRecentUploads))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, r, uploadsResponse{Uploads: records, Count: len(records)})
}

// handleUpload parses the file and returns its first rows.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	up, done, err := s.readUpload(w, r)
	defer done()
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	rows, err := s.service.Preview(WithRequestMetadata(r.Context(), r), up)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, r, uploadResponse{Message: "Upload successful", Preview: rows})
}

// handleSummary returns descriptive statistics for every column.
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	up, done, err := s.readUpload(w, r)
	defer done()
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	report, err := s.service.Summary(WithRequestMetadata(r.Context(), r), up)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, r, summaryResponse{Summary: report})
}

// handlePreview returns one page of rows.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	up, done, err := s.readUpload(w, r)
	defer done()
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	page := intParam(r, "page", 1)
	perPage := intParam(r, "per_page", s.cfg.Analysis.DefaultPageSize)

	res, err := s.service.Page(WithRequestMetadata(r.Context(), r), up, page, perPage)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, r, res)
}

// handleGroupedSummary aggregates the file by the group_by column.
func (s *Server) handleGroupedSummary(w http.ResponseWriter, r *http.Request) {
	up, done, err := s.readUpload(w, r)
	defer done()
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	res, err := s.service.GroupedSummary(WithRequestMetadata(r.Context(), r), up, r.FormValue("group_by"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, r, groupedSummaryResponse{
		GroupedSummary: res,
		GroupSizes:     res.Sizes(),
		KeyColumn:      res.KeyColumn,
	})
}

// handleFilter returns rows matching every predicate.
func (s *Server) handleFilter(w http.ResponseWriter, r *http.Request) {
	up, done, err := s.readUpload(w, r)
	defer done()
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	spec, err := parseFilterSpec(r)
	if err != nil {
		// Unreadable predicates are ignored like predicates on unknown columns.
		logging.FromContext(r.Context()).Warn("ignoring filters", "error", err)
	}
	limit := intParam(r, "limit", s.cfg.Analysis.FilterLimit)

	res, err := s.service.Filter(WithRequestMetadata(r.Context(), r), up, spec, limit)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, r, res)
}
