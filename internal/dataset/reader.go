package dataset

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
)

// delimiterCandidates are the separators considered when sniffing.
// Comma is first so it wins ties.
var delimiterCandidates = []rune{',', ';', '\t', '|'}

var errNoHeader = errors.New("no header row")

// decodeText normalizes raw upload bytes to UTF-8. A UTF-8 BOM is dropped,
// UTF-16 input with a BOM is decoded, and ill-formed sequences become U+FFFD.
func decodeText(data []byte) ([]byte, error) {
	chain := transform.Chain(unicode.BOMOverride(transform.Nop), runes.ReplaceIllFormed())
	out, _, err := transform.Bytes(chain, data)
	if err != nil {
		return nil, fmt.Errorf("decode text: %w", err)
	}
	return out, nil
}

// sniffDelimiter picks the candidate occurring most often outside quotes on
// the first line. Comma is returned when nothing else is more frequent.
func sniffDelimiter(data []byte) rune {
	line := data
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		line = data[:i]
	}

	counts := make(map[rune]int, len(delimiterCandidates))
	inQuotes := false
	for _, r := range string(line) {
		if r == '"' {
			inQuotes = !inQuotes
			continue
		}
		if !inQuotes {
			counts[r]++
		}
	}

	best := ','
	for _, d := range delimiterCandidates {
		if counts[d] > counts[best] {
			best = d
		}
	}
	return best
}

// readCSV returns the header and data records of a delimited text file.
// Every data record must be exactly as wide as the header.
func readCSV(data []byte, delimiter rune) ([]string, [][]string, error) {
	text, err := decodeText(data)
	if err != nil {
		return nil, nil, newParseError(FormatCSV, 0, 0, 0, err)
	}

	if delimiter == 0 {
		delimiter = sniffDelimiter(text)
	}

	r := csv.NewReader(bytes.NewReader(text))
	r.Comma = delimiter
	r.LazyQuotes = true
	r.FieldsPerRecord = 0

	header, err := r.Read()
	if err == io.EOF {
		return nil, nil, newParseError(FormatCSV, 0, 0, 0, errNoHeader)
	}
	if err != nil {
		return nil, nil, csvParseError(err, 0)
	}

	var records [][]string
	for {
		offset := r.InputOffset()
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, csvParseError(err, offset)
		}
		records = append(records, record)
	}
	return header, records, nil
}

func csvParseError(err error, offset int64) error {
	var pe *csv.ParseError
	if errors.As(err, &pe) {
		return newParseError(FormatCSV, pe.Line, pe.Column, offset, pe.Err)
	}
	return newParseError(FormatCSV, 0, 0, offset, err)
}
