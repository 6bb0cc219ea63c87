// Package reporting serializes audit-result objects into the formats
// consumers ask for: an HTML document with the result data and renderer
// embedded, a CSV table of audits, or pretty-printed JSON.
package reporting

import (
	"fmt"
	"strconv"
	"strings"
)

// Format identifies a report output format.
type Format string

const (
	FormatHTML Format = "html"
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

// AuditResult is the well-formed result object handed to the report
// generator. Its content comes from the audit engine; this package only
// transforms it.
type AuditResult struct {
	URL        string     `json:"url"`
	FetchTime  string     `json:"fetchTime"`
	Categories []Category `json:"categories"`
}

// Category groups related audits.
type Category struct {
	ID     string  `json:"id"`
	Title  string  `json:"title"`
	Score  *float64 `json:"score"`
	Audits []Audit `json:"audits"`
}

// Audit is one check's outcome. A nil Score means the audit produced no
// numeric result.
type Audit struct {
	Name  string   `json:"name"`
	Title string   `json:"title"`
	Type  string   `json:"type"`
	Score *float64 `json:"score"`
}

// GenerateReports renders the result once per requested format, in
// requested order.
func GenerateReports(result *AuditResult, formats []Format) ([]string, error) {
	if result == nil {
		return nil, fmt.Errorf("audit result is required")
	}

	documents := make([]string, 0, len(formats))
	for _, format := range formats {
		doc, err := GenerateReport(result, format)
		if err != nil {
			return nil, err
		}
		documents = append(documents, doc)
	}
	return documents, nil
}

// GenerateReport renders the result in a single format.
func GenerateReport(result *AuditResult, format Format) (string, error) {
	if result == nil {
		return "", fmt.Errorf("audit result is required")
	}

	switch format {
	case FormatHTML:
		return generateHTML(result)
	case FormatCSV:
		return generateCSV(result), nil
	case FormatJSON:
		return generateJSON(result)
	default:
		return "", fmt.Errorf("unknown report format %q", format)
	}
}

// generateCSV renders one row per audit under the fixed header. Every
// field is double-quote-wrapped with internal quotes doubled; a null
// numeric score renders as -1.
func generateCSV(result *AuditResult) string {
	var b strings.Builder
	b.WriteString("category,name,title,type,score\n")

	for _, category := range result.Categories {
		for _, audit := range category.Audits {
			row := []string{
				category.Title,
				audit.Name,
				audit.Title,
				audit.Type,
				formatScore(audit.Score),
			}
			for i, field := range row {
				if i > 0 {
					b.WriteByte(',')
				}
				b.WriteString(quoteCSVField(field))
			}
			b.WriteByte('\n')
		}
	}

	return b.String()
}

func quoteCSVField(field string) string {
	return `"` + strings.ReplaceAll(field, `"`, `""`) + `"`
}

func formatScore(score *float64) string {
	if score == nil {
		return "-1"
	}
	return strconv.FormatFloat(*score, 'f', -1, 64)
}
