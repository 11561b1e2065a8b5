package web

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/JonMunkholm/tabstat/internal/core"
	"github.com/JonMunkholm/tabstat/internal/dataset"
)

// multipartMemory is how much of a multipart form is kept in memory before
// spilling to temporary files.
const multipartMemory = 32 << 20

// readUpload enforces the size limit, parses the multipart form and returns
// the file from the "file" field. The caller must call the returned close
// function.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) (core.Upload, func(), error) {
	noop := func() {}

	if limit := s.cfg.Upload.MaxFileSize; limit > 0 {
		if r.ContentLength > limit {
			return core.Upload{}, noop, fmt.Errorf("%w: %d bytes exceeds %d", core.ErrFileTooLarge, r.ContentLength, limit)
		}
		r.Body = http.MaxBytesReader(w, r.Body, limit)
	}

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			return core.Upload{}, noop, fmt.Errorf("%w: limit %d bytes", core.ErrFileTooLarge, tooLarge.Limit)
		case errors.Is(err, http.ErrNotMultipart), errors.Is(err, http.ErrMissingBoundary):
			return core.Upload{}, noop, core.ErrNoFileProvided
		}
		return core.Upload{}, noop, fmt.Errorf("read form: %w", err)
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return core.Upload{}, noop, core.ErrNoFileProvided
		}
		return core.Upload{}, noop, fmt.Errorf("read file: %w", err)
	}

	return core.Upload{FileName: header.Filename, Body: file}, func() { file.Close() }, nil
}

// intParam parses an integer form or query value. Missing and non-numeric
// values yield defaultVal; range checks are left to the caller.
func intParam(r *http.Request, name string, defaultVal int) int {
	val := strings.TrimSpace(r.FormValue(name))
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return i
}

// parseFilterSpec collects predicates from two sources:
//
//	filters={"Age":{"gt":26},"Name":{"eq":"Bob"}}
//	filter[Age]=gt:26
//
// Unknown operators are skipped. A malformed filters object is reported
// along with the predicates that could still be read.
func parseFilterSpec(r *http.Request) (dataset.FilterSpec, error) {
	var spec dataset.FilterSpec
	var jsonErr error

	if raw := strings.TrimSpace(r.FormValue("filters")); raw != "" {
		preds, err := parseFilterJSON([]byte(raw))
		if err != nil {
			jsonErr = fmt.Errorf("invalid filters: %w", err)
		}
		spec = append(spec, preds...)
	}

	if err := r.ParseForm(); err == nil {
		keys := make([]string, 0, len(r.Form))
		for key := range r.Form {
			keys = append(keys, key)
		}
		sort.Strings(keys)

		for _, key := range keys {
			if !strings.HasPrefix(key, "filter[") || !strings.HasSuffix(key, "]") {
				continue
			}
			col := key[len("filter[") : len(key)-1]
			if col == "" {
				continue
			}
			for _, val := range r.Form[key] {
				opStr, operand, ok := strings.Cut(val, ":")
				if !ok {
					continue
				}
				op, ok := dataset.ParseOperator(opStr)
				if !ok {
					continue
				}
				spec = append(spec, dataset.Predicate{Column: col, Op: op, Operand: &operand})
			}
		}
	}

	return spec, jsonErr
}

// parseFilterJSON decodes {column: {operator: operand}}. Columns and
// operators are visited in sorted order so predicate order is deterministic.
func parseFilterJSON(data []byte) (dataset.FilterSpec, error) {
	var obj map[string]map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil {
		return nil, err
	}

	cols := make([]string, 0, len(obj))
	for col := range obj {
		cols = append(cols, col)
	}
	sort.Strings(cols)

	var spec dataset.FilterSpec
	for _, col := range cols {
		ops := make([]string, 0, len(obj[col]))
		for op := range obj[col] {
			ops = append(ops, op)
		}
		sort.Strings(ops)

		for _, opStr := range ops {
			op, ok := dataset.ParseOperator(opStr)
			if !ok {
				continue
			}
			spec = append(spec, dataset.Predicate{
				Column:  col,
				Op:      op,
				Operand: operandText(obj[col][opStr]),
			})
		}
	}
	return spec, nil
}

// operandText renders a JSON operand as the text a cell would hold.
// null yields nil, which matches nothing.
func operandText(raw json.RawMessage) *string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}
	var s string
	if raw[0] == '"' && json.Unmarshal(raw, &s) == nil {
		return &s
	}
	s = string(raw)
	return &s
}
