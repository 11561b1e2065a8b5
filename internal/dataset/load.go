package dataset

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/extrame/xls"
	"github.com/h2non/filetype"
	"github.com/xuri/excelize/v2"
)

// Load decodes data according to the declared extension and infers a type
// for every column.
func Load(data []byte, ext string, opts Options) (*Table, error) {
	format, err := ParseFormat(ext)
	if err != nil {
		return nil, err
	}

	var header []string
	var records [][]string
	switch format {
	case FormatCSV:
		header, records, err = readCSV(data, opts.Delimiter)
	case FormatXLSX:
		header, records, err = readXLSX(data)
	case FormatXLS:
		header, records, err = readXLS(data)
	}
	if err != nil {
		return nil, err
	}

	return buildTable(format, header, records, opts)
}

// LoadReader reads r to the end and calls Load. The extension is validated
// before any bytes are read.
func LoadReader(r io.Reader, ext string, opts Options) (*Table, error) {
	if _, err := ParseFormat(ext); err != nil {
		return nil, err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	return Load(data, ext, opts)
}

func buildTable(format Format, header []string, records [][]string, opts Options) (*Table, error) {
	if len(header) == 0 {
		return nil, newParseError(format, 0, 0, 0, errNoHeader)
	}

	names := uniqueHeaders(header)
	columns := make([]*Column, len(names))
	cells := make([]string, len(records))
	for j, name := range names {
		for i, rec := range records {
			cells[i] = rec[j]
		}
		columns[j] = inferColumn(name, cells, opts)
	}

	t, err := NewTable(columns)
	if err != nil {
		return nil, err
	}
	return t, nil
}

// uniqueHeaders cleans header cells, names blank ones "Unnamed: <index>"
// and suffixes repeats with ".1", ".2", ... until every name is unique.
func uniqueHeaders(raw []string) []string {
	out := make([]string, len(raw))
	used := make(map[string]bool, len(raw))
	counts := make(map[string]int, len(raw))

	for i, h := range raw {
		h = cleanCell(h)
		if h == "" {
			h = fmt.Sprintf("Unnamed: %d", i)
		}
		name := h
		for used[name] {
			counts[h]++
			name = fmt.Sprintf("%s.%d", h, counts[h])
		}
		used[name] = true
		out[i] = name
	}
	return out
}

// ----------------------------------------------------------------------------
// Spreadsheets
// ----------------------------------------------------------------------------

// checkContainer rejects bytes that are recognizably some other kind of
// file, such as an image renamed to .xlsx.
func checkContainer(format Format, data []byte) error {
	if len(data) == 0 {
		return newParseError(format, 0, 0, 0, errNoHeader)
	}
	kind, _ := filetype.Match(data)
	if kind != filetype.Unknown && !filetype.IsDocument(data) && !filetype.IsArchive(data) {
		return newParseError(format, 0, 0, 0, fmt.Errorf("content is %s, not a spreadsheet", kind.MIME.Value))
	}
	return nil
}

func readXLSX(data []byte) ([]string, [][]string, error) {
	if err := checkContainer(FormatXLSX, data); err != nil {
		return nil, nil, err
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, nil, newParseError(FormatXLSX, 0, 0, 0, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil, newParseError(FormatXLSX, 0, 0, -1, errNoHeader)
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, nil, newParseError(FormatXLSX, 0, 0, -1, err)
	}
	return gridFromRows(FormatXLSX, rows)
}

func readXLS(data []byte) (header []string, records [][]string, err error) {
	if err := checkContainer(FormatXLS, data); err != nil {
		return nil, nil, err
	}

	// The BIFF decoder panics on some truncated or corrupt workbooks.
	defer func() {
		if r := recover(); r != nil {
			header, records = nil, nil
			err = newParseError(FormatXLS, 0, 0, -1, fmt.Errorf("corrupt workbook: %v", r))
		}
	}()

	wb, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return nil, nil, newParseError(FormatXLS, 0, 0, 0, err)
	}
	if wb.NumSheets() == 0 {
		return nil, nil, newParseError(FormatXLS, 0, 0, -1, errNoHeader)
	}
	sheet := wb.GetSheet(0)
	if sheet == nil {
		return nil, nil, newParseError(FormatXLS, 0, 0, -1, errNoHeader)
	}

	rows := make([][]string, 0, int(sheet.MaxRow)+1)
	for i := 0; i <= int(sheet.MaxRow); i++ {
		row := sheet.Row(i)
		if row == nil {
			rows = append(rows, nil)
			continue
		}
		cells := make([]string, 0, row.LastCol())
		for j := 0; j < row.LastCol(); j++ {
			cells = append(cells, row.Col(j))
		}
		rows = append(rows, cells)
	}
	return gridFromRows(FormatXLS, rows)
}

// gridFromRows applies the spreadsheet grid rules: entirely empty rows are
// skipped, the first remaining row is the header, short rows are padded and
// rows with content beyond the header width are rejected.
func gridFromRows(format Format, rows [][]string) ([]string, [][]string, error) {
	var header []string
	var records [][]string

	for i, row := range rows {
		row = trimTrailingBlank(row)
		if len(row) == 0 {
			continue
		}
		if header == nil {
			header = row
			continue
		}
		if len(row) > len(header) {
			return nil, nil, newParseError(format, i+1, len(header)+1, -1,
				fmt.Errorf("row has %d cells, header has %d", len(row), len(header)))
		}
		if len(row) < len(header) {
			padded := make([]string, len(header))
			copy(padded, row)
			row = padded
		}
		records = append(records, row)
	}

	if header == nil {
		return nil, nil, newParseError(format, 0, 0, -1, errNoHeader)
	}
	return header, records, nil
}

func trimTrailingBlank(row []string) []string {
	n := len(row)
	for n > 0 && strings.TrimSpace(row[n-1]) == "" {
		n--
	}
	return row[:n]
}
