// Package datafile reads and writes the CSV files exchanged between pipeline stages.
//
// Every reader locates fields by header name, so column order is free. Undefined
// values are written as empty cells and read back as undefined.
package datafile

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"keeling-pipeline/internal/models"
)

// DateLayout is the date format of every date column
const DateLayout = "2006-01-02"

// CommentChar starts a comment that runs to the end of the line in the Scripps files
const CommentChar = '"'

// Table is a parsed CSV file: a trimmed header and the data rows
type Table struct {
	Path   string
	Header []string
	Rows   [][]string
	index  map[string]int
}

// ReadCommented parses CSV text where every line is truncated at the first comment
// character and blank lines are skipped. The first remaining line is the header.
func ReadCommented(r io.Reader) (*Table, error) {
	var body strings.Builder

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if i := strings.IndexRune(line, CommentChar); i >= 0 {
			line = line[:i]
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		body.WriteString(line)
		body.WriteByte('\n')
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading input: %w", err)
	}

	return parse(strings.NewReader(body.String()))
}

// ReadFile parses a plain CSV file written by this package
func ReadFile(path string) (*Table, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer file.Close()

	t, err := parse(file)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	t.Path = path
	return t, nil
}

func parse(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}

	t := &Table{index: make(map[string]int)}
	if len(records) == 0 {
		return t, nil
	}

	t.Header = make([]string, len(records[0]))
	for i, name := range records[0] {
		t.Header[i] = strings.TrimSpace(name)
		if _, seen := t.index[t.Header[i]]; !seen {
			t.index[t.Header[i]] = i
		}
	}
	t.Rows = records[1:]
	return t, nil
}

// Column returns the index of the named column, or -1
func (t *Table) Column(name string) int {
	if i, ok := t.index[name]; ok {
		return i
	}
	return -1
}

// Require returns the indexes of the named columns or a SchemaError listing the absent ones
func (t *Table) Require(names ...string) ([]int, error) {
	idx := make([]int, len(names))
	var missing []string
	for i, name := range names {
		idx[i] = t.Column(name)
		if idx[i] < 0 {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, &models.SchemaError{Path: t.Path, Missing: missing, Columns: t.Header}
	}
	return idx, nil
}

// Cell returns the trimmed cell at column i, or "" when the row is short or i < 0
func Cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// ParseFloat parses a numeric cell. Empty, non-numeric and sentinel cells are undefined.
func ParseFloat(s string) models.NullFloat {
	s = strings.TrimSpace(s)
	if s == "" {
		return models.Undefined()
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v == models.MissingSentinel {
		return models.Undefined()
	}
	return models.NullFloat(v)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatDate(t time.Time) string {
	return t.Format(DateLayout)
}

func parseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, strings.TrimSpace(s))
}

func parseInt(s string) (int, error) {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		f, ferr := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if ferr != nil || f != float64(int(f)) {
			return 0, err
		}
		return int(f), nil
	}
	return v, nil
}

// writeFile writes header and rows to path through a temp file in the same directory
func writeFile(path string, header []string, rows [][]string) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	w := csv.NewWriter(tmp)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("failed to write rows: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to move %s into place: %w", path, err)
	}
	return nil
}

// IsNotExist reports whether err stems from a missing file
func IsNotExist(err error) bool {
	return errors.Is(err, os.ErrNotExist)
}
