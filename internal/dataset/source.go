package dataset

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Load reads the CSV file at path and parses it. File errors (missing,
// unreadable) propagate to the caller; row-level problems inside the file
// follow the lossy Parse contract.
func Load(path string) ([]DataPoint, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read dataset %s: %w", path, err)
	}
	return Parse(string(raw)), nil
}

// Save writes records back out as CSV with the given column order. It is the
// inverse of Parse for well-formed records and exists so the warehouse
// fallback can refresh the local file.
func Save(path string, columns []string, points []DataPoint) error {
	var sb strings.Builder
	sb.WriteString(strings.Join(columns, ","))
	sb.WriteByte('\n')

	row := make([]string, len(columns))
	for _, p := range points {
		for i, name := range columns {
			if name == DateKey {
				row[i] = p.Date()
				continue
			}
			row[i] = strconv.FormatFloat(p.Value(name), 'f', -1, 64)
		}
		sb.WriteString(strings.Join(row, ","))
		sb.WriteByte('\n')
	}

	if err := os.WriteFile(path, []byte(sb.String()), 0o644); err != nil {
		return fmt.Errorf("write dataset %s: %w", path, err)
	}
	return nil
}
