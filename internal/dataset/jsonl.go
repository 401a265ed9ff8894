package dataset

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

const maxLineBytes = 64 * 1024 * 1024

// LoadRecords reads the source dataset, a single JSON array of records.
func LoadRecords(r io.Reader) ([]Record, error) {
	decoder := json.NewDecoder(r)

	var records []Record
	if err := decoder.Decode(&records); err != nil {
		return nil, fmt.Errorf("error decoding dataset: %w", err)
	}

	var extra json.RawMessage
	if err := decoder.Decode(&extra); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("error decoding dataset: unexpected data after the record array (offset %d)", decoder.InputOffset())
	}
	return records, nil
}

// ReadLines decodes newline delimited JSON. Blank lines are skipped.
func ReadLines[T any](r io.Reader) ([]T, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	var rows []T
	line := 0
	for scanner.Scan() {
		line++
		text := bytes.TrimSpace(scanner.Bytes())
		if len(text) == 0 {
			continue
		}
		var row T
		if err := json.Unmarshal(text, &row); err != nil {
			return nil, fmt.Errorf("error decoding line %d: %w", line, err)
		}
		rows = append(rows, row)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading lines: %w", err)
	}
	return rows, nil
}

// WriteLines encodes one JSON document per line.
func WriteLines[T any](w io.Writer, rows []T) error {
	encoder := json.NewEncoder(w)
	encoder.SetEscapeHTML(false)
	for i, row := range rows {
		if err := encoder.Encode(row); err != nil {
			return fmt.Errorf("error encoding row %d: %w", i, err)
		}
	}
	return nil
}
