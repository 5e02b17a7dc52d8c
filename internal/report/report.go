// Package report renders lookup results as downloadable files.
package report

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/hyperjump/osintrat/internal/models"
)

const (
	FormatText = "txt"
	FormatXLSX = "xlsx"
)

// Render writes result in the given format and returns the file contents and name.
func Render(result *models.SearchResult, format string) ([]byte, string, error) {
	switch format {
	case "", FormatText:
		return Text(result), FileName(result, FormatText), nil
	case FormatXLSX:
		data, err := XLSX(result)
		if err != nil {
			return nil, "", err
		}
		return data, FileName(result, FormatXLSX), nil
	default:
		return nil, "", fmt.Errorf("unknown report format %q", format)
	}
}

// FileName returns search_results_<type>.<ext>.
func FileName(result *models.SearchResult, ext string) string {
	t := string(result.SearchType)
	if t == "" {
		t = "unknown"
	}
	return fmt.Sprintf("search_results_%s.%s", t, ext)
}

// Text renders the plain-text results file: a header with the query, its type and the
// count, then one block per record listing its non-blank fields.
func Text(result *models.SearchResult) []byte {
	var lines []string
	lines = append(lines, "🔍 USER SEARCH RESULTS")
	lines = append(lines, strings.Repeat("=", 40))
	lines = append(lines, "\nQuery: "+orNA(result.Query))
	lines = append(lines, "Search Type: "+capitalize(orNA(string(result.SearchType))))
	lines = append(lines, fmt.Sprintf("Results Found: %d", result.Count))
	lines = append(lines, "\n"+strings.Repeat("=", 60)+"\n")

	if result.ResultsFound {
		for i, r := range result.Records {
			lines = append(lines, fmt.Sprintf("Result #%d", i+1))
			lines = append(lines, strings.Repeat("-", 30))
			for _, f := range r.Fields() {
				if isBlank(f.Value) {
					continue
				}
				lines = append(lines, fmt.Sprintf("%s: %s", f.Label, models.Stringify(f.Value)))
			}
			lines = append(lines, "\n")
		}
	} else {
		lines = append(lines, "No results found for your query.\n")
	}

	lines = append(lines, strings.Repeat("=", 30))
	lines = append(lines, "Search completed successfully.\n")
	return []byte(strings.Join(lines, "\n"))
}

// XLSX renders the results as a single-sheet workbook with a header row.
func XLSX(result *models.SearchResult) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	var header []interface{}
	for _, field := range (&models.SearchRecord{}).Fields() {
		header = append(header, field.Label)
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}
	for i, r := range result.Records {
		var row []interface{}
		for _, field := range r.Fields() {
			if isBlank(field.Value) {
				row = append(row, "")
				continue
			}
			row = append(row, models.Stringify(field.Value))
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return nil, fmt.Errorf("write row %d: %w", i+1, err)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// isBlank reports values left out of reports: missing, empty, zero, "N/A" or "{}".
func isBlank(v interface{}) bool {
	s := models.Stringify(v)
	switch s {
	case "", "N/A", "{}":
		return true
	case "0":
		_, isString := v.(string)
		return !isString
	}
	return false
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}
