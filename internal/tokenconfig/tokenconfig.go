// Package tokenconfig parses the pipe-delimited tabular text format used by
// ".build.info": a header row whose columns are annotated with a "!type"
// suffix, followed by data rows.
package tokenconfig

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Row is one data row, keyed by header column name (the "!type" suffix
// already stripped).
type Row map[string]string

// Table is a parsed token-config file: a header-derived column order and
// the data rows in file order.
type Table struct {
	Columns []string
	Rows    []Row
}

// Parse reads a token-config table from r. The first non-blank,
// non-comment line is the header; every subsequent line is a data row with
// the same field count.
func Parse(r io.Reader) (*Table, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	var header []string
	t := &Table{}
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" || strings.HasPrefix(strings.TrimSpace(line), "#") {
			continue
		}
		fields := strings.Split(line, "|")
		if header == nil {
			header = make([]string, len(fields))
			for i, f := range fields {
				name := f
				if idx := strings.IndexByte(f, '!'); idx >= 0 {
					name = f[:idx]
				}
				header[i] = name
			}
			t.Columns = header
			continue
		}
		if len(fields) != len(header) {
			return nil, fmt.Errorf("tokenconfig: row has %d fields, want %d", len(fields), len(header))
		}
		row := make(Row, len(header))
		for i, name := range header {
			row[name] = fields[i]
		}
		t.Rows = append(t.Rows, row)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("tokenconfig: %w", err)
	}
	if header == nil {
		return nil, fmt.Errorf("tokenconfig: no header row found")
	}
	return t, nil
}

// ActiveRow scans rows in order and returns the first whose "Active" column
// parses to a nonzero integer. ok is false if no row qualifies.
func (t *Table) ActiveRow() (row Row, ok bool) {
	for _, r := range t.Rows {
		v, err := strconv.Atoi(strings.TrimSpace(r["Active"]))
		if err == nil && v != 0 {
			return r, true
		}
	}
	return nil, false
}

// BuildID returns the fourth dot-separated component of the row's "Version"
// column, if present.
func (r Row) BuildID() (string, bool) {
	parts := strings.Split(r["Version"], ".")
	if len(parts) != 4 {
		return "", false
	}
	return parts[3], true
}

// ConfigPath returns the XX/YY/FULL path, relative to {root}/data/config,
// for a build-config hash taken from this row's named column (e.g. "Build
// Key").
func (r Row) ConfigPath(column string) (string, bool) {
	key := strings.TrimSpace(r[column])
	if len(key) < 4 {
		return "", false
	}
	return key[0:2] + "/" + key[2:4] + "/" + key, true
}
