package processor

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// Separator used by the Dresden open-data CSV exports.
const Separator = ';'

var utf8BOM = []byte("\ufeff")

// Record is one CSV row keyed by column name.
type Record map[string]string

// Table is a fully materialized CSV file.
type Table struct {
	Columns []string
	Rows    []Record
	index   map[string]struct{}
}

// HasColumn reports whether the header contains the column.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.index[name]
	return ok
}

// ReadTableFile reads a semicolon separated UTF-8 file.
func ReadTableFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	// Explicitly ignore close error as it's a read-only operation
	defer func() { _ = f.Close() }()

	return ReadTable(f)
}

// ReadTable reads a header line followed by data rows.
// A leading UTF-8 BOM is skipped. Short rows leave the missing columns
// empty; extra cells are ignored.
func ReadTable(r io.Reader) (*Table, error) {
	br := bufio.NewReader(r)
	if head, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}

	reader := csv.NewReader(br)
	reader.Comma = Separator
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, errors.New("empty csv: missing header")
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	t := &Table{
		Columns: make([]string, len(header)),
		index:   make(map[string]struct{}, len(header)),
	}
	for i, name := range header {
		name = strings.TrimSpace(name)
		t.Columns[i] = name
		t.index[name] = struct{}{}
	}

	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", len(t.Rows)+1, err)
		}

		rec := make(Record, len(t.Columns))
		for i, name := range t.Columns {
			if i < len(row) {
				rec[name] = row[i]
			}
		}
		t.Rows = append(t.Rows, rec)
	}

	return t, nil
}
