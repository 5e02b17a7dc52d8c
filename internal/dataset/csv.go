package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
)

// CSVReader reads comma-separated rows keyed by the header row.
type CSVReader struct {
	r      *csv.Reader
	header []string
}

// NewCSVReader reads the header row of r. An empty input yields a reader with no records.
func NewCSVReader(r io.Reader) (*CSVReader, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return &CSVReader{r: cr}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	return &CSVReader{r: cr, header: normalizeHeader(header)}, nil
}

func (c *CSVReader) Next() (map[string]interface{}, error) {
	if c.header == nil {
		return nil, io.EOF
	}
	for {
		row, err := c.r.Read()
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		if rec := rowRecord(c.header, row); len(rec) > 0 {
			return rec, nil
		}
	}
}

func (c *CSVReader) Close() error { return nil }
