// Package csv reads resource URLs from spreadsheet exports.
package csv

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
)

// URLReader reads one column of a comma-separated file
type URLReader struct {
	column int
}

// NewURLReader creates a reader for the given zero-based column
func NewURLReader(column int) (*URLReader, error) {
	if column < 0 {
		return nil, fmt.Errorf("column index must not be negative, got %d", column)
	}
	return &URLReader{column: column}, nil
}

// ReadFile returns the non-empty values of the column, in file order.
// Rows too short to hold the column are skipped.
func (r *URLReader) ReadFile(filePath string) ([]string, error) {
	//nolint:gosec // G304: filePath is the operator-provided spreadsheet
	f, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", filePath, err)
	}
	//nolint:errcheck // Defer close on read-only file
	defer f.Close()

	return r.Read(f)
}

// Read returns the non-empty values of the column from r
func (r *URLReader) Read(in io.Reader) ([]string, error) {
	reader := csv.NewReader(in)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	urls := make([]string, 0)
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse CSV: %w", err)
		}

		if len(row) <= r.column || row[r.column] == "" {
			continue
		}
		urls = append(urls, row[r.column])
	}

	return urls, nil
}
