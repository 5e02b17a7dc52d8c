package dataset

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
)

// JSONLReader reads one JSON object per line. Blank lines are skipped.
type JSONLReader struct {
	scanner *bufio.Scanner
	line    int
}

// NewJSONLReader creates a reader over r. Lines may be up to 4 MiB long.
func NewJSONLReader(r io.Reader) *JSONLReader {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	return &JSONLReader{scanner: scanner}
}

func (j *JSONLReader) Next() (map[string]interface{}, error) {
	for j.scanner.Scan() {
		j.line++
		raw := j.scanner.Bytes()
		if len(raw) == 0 {
			continue
		}
		var rec map[string]interface{}
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, fmt.Errorf("line %d: %w", j.line, err)
		}
		return rec, nil
	}
	if err := j.scanner.Err(); err != nil {
		return nil, fmt.Errorf("read records: %w", err)
	}
	return nil, io.EOF
}

func (j *JSONLReader) Close() error { return nil }
