package web

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/tabstat/internal/core"
)

// indexData is what the status page shows.
type indexData struct {
	Limiter        core.LimiterStatus
	RecordsEnabled bool
	MaxFileSize    int64
	PreviewRows    int
	FilterLimit    int
}

var indexEndpoints = [][2]string{
	{"POST /upload", "first rows of the file"},
	{"POST /summary", "descriptive statistics per column"},
	{"POST /preview", "one page of rows (page, per_page)"},
	{"POST /grouped_summary", "measures per group (group_by)"},
	{"POST /filter", "rows matching filters (filters, limit)"},
	{"GET /api/status", "analysis slots in use"},
	{"GET /api/uploads", "recent upload records"},
}

// indexPage renders the service status page.
func indexPage(d indexData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		records := "disabled"
		if d.RecordsEnabled {
			records = "enabled"
		}

		if _, err := io.WriteString(w, `<!doctype html><html lang="en"><head><meta charset="utf-8"><title>tabstat</title>`+
			`<style>body{font-family:system-ui,sans-serif;margin:2rem;color:#1f2937}table{border-collapse:collapse}`+
			`td,th{padding:.25rem .75rem;border-bottom:1px solid #e5e7eb;text-align:left}code{color:#2563eb}</style>`+
			`</head><body><h1>tabstat is running</h1>`); err != nil {
			return err
		}

		rows := [][2]string{
			{"Active analyses", strconv.Itoa(d.Limiter.Active)},
			{"Free slots", strconv.Itoa(d.Limiter.Available)},
			{"Max concurrent", strconv.Itoa(d.Limiter.MaxConcurrent)},
			{"Max file size", formatBytes(d.MaxFileSize)},
			{"Preview rows", strconv.Itoa(d.PreviewRows)},
			{"Filter limit", strconv.Itoa(d.FilterLimit)},
			{"Upload records", records},
		}
		if err := writeTable(w, "Status", rows, false); err != nil {
			return err
		}
		if err := writeTable(w, "Endpoints", indexEndpoints, true); err != nil {
			return err
		}

		_, err := io.WriteString(w, `</body></html>`)
		return err
	})
}

func writeTable(w io.Writer, title string, rows [][2]string, code bool) error {
	if _, err := fmt.Fprintf(w, "<h2>%s</h2><table>", templ.EscapeString(title)); err != nil {
		return err
	}
	for _, row := range rows {
		key := templ.EscapeString(row[0])
		if code {
			key = "<code>" + key + "</code>"
		}
		if _, err := fmt.Fprintf(w, "<tr><th>%s</th><td>%s</td></tr>", key, templ.EscapeString(row[1])); err != nil {
			return err
		}
	}
	_, err := io.WriteString(w, "</table>")
	return err
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return strconv.FormatInt(n, 10) + " B"
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
