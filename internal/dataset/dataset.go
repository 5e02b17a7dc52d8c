// Package dataset reads record dumps (JSON lines, CSV, XLSX) for import into a local index.
package dataset

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Reader yields records one at a time. Next returns io.EOF after the last record.
type Reader interface {
	Next() (map[string]interface{}, error)
	Close() error
}

// Open opens the dump at path and picks a reader from its extension:
// .jsonl/.ndjson/.json for JSON lines, .csv for comma-separated, .xlsx for spreadsheets.
func Open(path string) (Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	r, err := NewReader(f, filepath.Ext(path))
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return &fileReader{Reader: r, file: f}, nil
}

// NewReader returns a reader for content in the format named by ext (with leading dot).
func NewReader(r io.Reader, ext string) (Reader, error) {
	switch strings.ToLower(ext) {
	case ".jsonl", ".ndjson", ".json", "":
		return NewJSONLReader(r), nil
	case ".csv":
		return NewCSVReader(r)
	case ".xlsx":
		return NewXLSXReader(r)
	default:
		return nil, fmt.Errorf("unsupported dataset format %q", ext)
	}
}

// fileReader closes the underlying file along with the format reader.
type fileReader struct {
	Reader
	file *os.File
}

func (f *fileReader) Close() error {
	err := f.Reader.Close()
	if cerr := f.file.Close(); err == nil {
		err = cerr
	}
	return err
}

// rowRecord maps a header row and a data row onto a record, skipping blank cells.
func rowRecord(header, row []string) map[string]interface{} {
	rec := make(map[string]interface{}, len(header))
	for i, key := range header {
		if key == "" || i >= len(row) {
			continue
		}
		v := strings.TrimSpace(row[i])
		if v == "" {
			continue
		}
		rec[key] = v
	}
	return rec
}

// normalizeHeader trims header cells and strips a UTF-8 byte order mark.
func normalizeHeader(header []string) []string {
	out := make([]string, len(header))
	for i, h := range header {
		out[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}
	return out
}
