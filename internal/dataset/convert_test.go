package dataset

import (
	"testing"
	"time"
)

// ----------------------------------------------------------------------------
// parseNumber Tests
// ----------------------------------------------------------------------------

func TestParseNumber(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		wantOK bool
		want   float64
	}{
		// Valid: plain numbers
		{name: "integer", input: "123", wantOK: true, want: 123},
		{name: "negative", input: "-456", wantOK: true, want: -456},
		{name: "decimal", input: "123.45", wantOK: true, want: 123.45},
		{name: "leading decimal point", input: ".99", wantOK: true, want: 0.99},
		{name: "scientific", input: "1e3", wantOK: true, want: 1000},
		{name: "surrounding whitespace", input: "  42  ", wantOK: true, want: 42},

		// Valid: export artifacts
		{name: "dollar and commas", input: "$1,234.56", wantOK: true, want: 1234.56},
		{name: "euro", input: "€99", wantOK: true, want: 99},
		{name: "pound", input: "£5", wantOK: true, want: 5},
		{name: "accounting negative", input: "(12.5)", wantOK: true, want: -12.5},
		{name: "accounting with currency", input: "($1,000)", wantOK: true, want: -1000},

		// Invalid
		{name: "empty", input: "", wantOK: false},
		{name: "text", input: "abc", wantOK: false},
		{name: "double negative", input: "(-5)", wantOK: false},
		{name: "infinity", input: "Inf", wantOK: false},
		{name: "nan", input: "NaN", wantOK: false},
		{name: "trailing text", input: "12kg", wantOK: false},
		{name: "two points", input: "1.2.3", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := parseNumber(tt.input)
			if ok != tt.wantOK {
				t.Fatalf("parseNumber(%q) ok = %v, want %v", tt.input, ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Errorf("parseNumber(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

// ----------------------------------------------------------------------------
// parseDate Tests
// ----------------------------------------------------------------------------

func TestParseDate(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		wantOK bool
		want   time.Time
	}{
		{name: "ISO", input: "2024-01-15", wantOK: true, want: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)},
		{name: "US slashes", input: "1/15/2024", wantOK: true, want: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)},
		{name: "dotted", input: "01.15.2024", wantOK: true, want: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)},
		{name: "month name", input: "Jan 15, 2024", wantOK: true, want: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)},
		{name: "compact", input: "20240115", wantOK: true, want: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)},
		{name: "RFC 3339", input: "2024-01-15T10:30:00Z", wantOK: true, want: time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)},
		{name: "datetime with space", input: "2024-01-15 10:30:00", wantOK: true, want: time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)},
		{name: "two digit year recent", input: "1/15/24", wantOK: true, want: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)},
		{name: "two digit year pivots back", input: "1/15/99", wantOK: true, want: time.Date(1999, 1, 15, 0, 0, 0, 0, time.UTC)},

		{name: "empty", input: "", wantOK: false},
		{name: "text", input: "not a date", wantOK: false},
		{name: "invalid month", input: "13/45/2024", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := parseDate(tt.input)
			if ok != tt.wantOK {
				t.Fatalf("parseDate(%q) ok = %v, want %v", tt.input, ok, tt.wantOK)
			}
			if ok && !got.Equal(tt.want) {
				t.Errorf("parseDate(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

// ----------------------------------------------------------------------------
// parseBool Tests
// ----------------------------------------------------------------------------

func TestParseBool(t *testing.T) {
	tests := []struct {
		input  string
		want   bool
		wantOK bool
	}{
		{"true", true, true},
		{"TRUE", true, true},
		{"Yes", true, true},
		{"y", true, true},
		{"t", true, true},
		{"false", false, true},
		{"No", false, true},
		{"F", false, true},
		{"1", false, false},
		{"0", false, false},
		{"maybe", false, false},
		{"", false, false},
	}

	for _, tt := range tests {
		got, ok := parseBool(tt.input)
		if ok != tt.wantOK || got != tt.want {
			t.Errorf("parseBool(%q) = (%v, %v), want (%v, %v)", tt.input, got, ok, tt.want, tt.wantOK)
		}
	}
}

// ----------------------------------------------------------------------------
// cleanCell / isAbsentToken Tests
// ----------------------------------------------------------------------------

func TestCleanCell(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"  plain  ", "plain"},
		{`="00123"`, "00123"},
		{`"quoted"`, "quoted"},
		{"'single'", "single"},
		{`" padded "`, "padded"},
		{`"`, `"`},
		{"", ""},
	}

	for _, tt := range tests {
		if got := cleanCell(tt.input); got != tt.want {
			t.Errorf("cleanCell(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestIsAbsentToken(t *testing.T) {
	for _, s := range []string{"", "NA", "N/A", "null", "NULL", "NaN", "None", "#N/A", "<NA>"} {
		if !isAbsentToken(s) {
			t.Errorf("isAbsentToken(%q) = false, want true", s)
		}
	}
	for _, s := range []string{"0", "none", "-", "n.a.", "Null"} {
		if isAbsentToken(s) {
			t.Errorf("isAbsentToken(%q) = true, want false", s)
		}
	}
}
