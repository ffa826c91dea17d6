package parsers

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/username/stationetl/src/security/validation"
)

var (
	ErrNotCSV    = errors.New("file extension is not .csv")
	ErrEmptyFile = errors.New("file has no data rows")
)

const Delimiter = ';'

// Row is one raw data record keyed by upper-cased header name.
type Row struct {
	Line   int // 1-based data row number
	Values map[string]string
}

// Get returns the trimmed value for a column, "" when absent.
func (r Row) Get(col string) string {
	return strings.TrimSpace(r.Values[strings.ToUpper(col)])
}

// Batch is a parsed file: its non-empty header cells and the data rows.
type Batch struct {
	Headers []string
	Rows    []Row
}

// IsCSV reports whether the file name carries a .csv extension (any case).
func IsCSV(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".csv")
}

// ReadFile opens and parses a semicolon separated file.
func ReadFile(path string) (*Batch, error) {
	if !IsCSV(path) {
		return nil, fmt.Errorf("%w: %s", ErrNotCSV, filepath.Base(path))
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	if _, err := validation.ValidateCSVContent(f); err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return Parse(f)
}

// Parse reads a semicolon separated stream. The first record is the header;
// empty header cells are dropped together with their column. Blank lines are ignored.
func Parse(r io.Reader) (*Batch, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = Delimiter
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, ErrEmptyFile
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	type column struct {
		index int
		name  string
	}
	var cols []column
	batch := &Batch{}
	for i, h := range header {
		name := strings.ToUpper(strings.TrimSpace(h))
		if name == "" {
			continue
		}
		cols = append(cols, column{index: i, name: name})
		batch.Headers = append(batch.Headers, name)
	}

	line := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV record after data row %d: %w", line, err)
		}
		if isBlank(record) {
			continue
		}
		line++
		values := make(map[string]string, len(cols))
		for _, c := range cols {
			if c.index < len(record) {
				values[c.name] = record[c.index]
			}
		}
		batch.Rows = append(batch.Rows, Row{Line: line, Values: values})
	}

	if len(batch.Rows) == 0 {
		return batch, ErrEmptyFile
	}
	return batch, nil
}

func isBlank(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
