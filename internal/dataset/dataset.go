// Package dataset converts the flat historical price CSV into the typed
// records the dashboard charts from. The format is deliberately simple:
// comma-separated, newline-delimited, first line is the header, one column
// named "date", every other column numeric.
package dataset

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"
)

// DateKey is the canonical name of the date column.
const DateKey = "date"

// DataPoint is one normalized row of the ingested dataset, keyed by the
// lowercased, trimmed header names. The DateKey entry holds the raw date
// string; every other entry holds a float64.
type DataPoint map[string]any

// Date returns the record's date string.
func (p DataPoint) Date() string {
	s, _ := p[DateKey].(string)
	return s
}

// Value returns the numeric field for the given canonical name, 0 if absent.
func (p DataPoint) Value(name string) float64 {
	v, _ := p[name].(float64)
	return v
}

type fieldKind int

const (
	kindNumeric fieldKind = iota
	kindDate
)

// schema is the header-derived field set, fixed for one parse call.
type schema struct {
	names []string
	kinds []fieldKind
}

func bindSchema(header []string) schema {
	s := schema{
		names: make([]string, len(header)),
		kinds: make([]fieldKind, len(header)),
	}
	for i, name := range header {
		name = strings.ToLower(strings.TrimSpace(name))
		s.names[i] = name
		if name == DateKey {
			s.kinds[i] = kindDate
		}
	}
	return s
}

// RowIssue describes one row or cell the lossy parse silently recovered from.
type RowIssue struct {
	Line   int    // 1-based line number in the raw input
	Field  string // offending field, empty for row-level problems
	Reason string
}

// ParseError reports the issues ParseStrict found. The records alongside it
// are still well formed; the error exists so callers can refuse lossy input.
type ParseError struct {
	Issues []RowIssue
}

func (e *ParseError) Error() string {
	if len(e.Issues) == 1 {
		i := e.Issues[0]
		return fmt.Sprintf("dataset: line %d: %s", i.Line, i.Reason)
	}
	return fmt.Sprintf("dataset: %d rows had issues (first: line %d: %s)",
		len(e.Issues), e.Issues[0].Line, e.Issues[0].Reason)
}

// Parse converts raw CSV text into a chronologically ascending record
// collection. Malformed rows (wrong column count, missing or unparseable
// date) are dropped and failed numeric cells default to 0; row-level
// problems never fail the parse. Header-only or empty input yields an
// empty collection.
func Parse(raw string) []DataPoint {
	points, _ := parse(raw, nil)
	return points
}

// ParseStrict runs the same pipeline as Parse but additionally reports every
// dropped row and defaulted cell through a *ParseError. The returned records
// are identical to what Parse would produce.
func ParseStrict(raw string) ([]DataPoint, error) {
	var issues []RowIssue
	points, _ := parse(raw, &issues)
	if len(issues) > 0 {
		return points, &ParseError{Issues: issues}
	}
	return points, nil
}

type datedPoint struct {
	ts    time.Time
	point DataPoint
}

func parse(raw string, issues *[]RowIssue) ([]DataPoint, schema) {
	report := func(line int, field, reason string) {
		if issues != nil {
			*issues = append(*issues, RowIssue{Line: line, Field: field, Reason: reason})
		}
	}

	var sc schema
	var rows []datedPoint
	haveHeader := false

	for i, line := range strings.Split(raw, "\n") {
		lineNo := i + 1
		if strings.TrimSpace(line) == "" {
			continue
		}
		fields := strings.Split(line, ",")

		if !haveHeader {
			sc = bindSchema(fields)
			haveHeader = true
			continue
		}

		if len(fields) != len(sc.names) {
			report(lineNo, "", fmt.Sprintf("expected %d fields, got %d", len(sc.names), len(fields)))
			continue
		}

		point := make(DataPoint, len(sc.names))
		for col, rawValue := range fields {
			value := strings.TrimSpace(rawValue)
			if sc.kinds[col] == kindDate {
				point[sc.names[col]] = value
				continue
			}
			n, err := strconv.ParseFloat(value, 64)
			if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
				report(lineNo, sc.names[col], fmt.Sprintf("non-numeric value %q defaulted to 0", value))
				n = 0
			}
			point[sc.names[col]] = n
		}

		date := point.Date()
		if date == "" {
			report(lineNo, DateKey, "missing date")
			continue
		}
		ts, err := ParseDate(date)
		if err != nil {
			report(lineNo, DateKey, fmt.Sprintf("unparseable date %q", date))
			continue
		}
		rows = append(rows, datedPoint{ts: ts, point: point})
	}

	// Stable: equal dates keep their original relative order.
	sort.SliceStable(rows, func(a, b int) bool { return rows[a].ts.Before(rows[b].ts) })

	points := make([]DataPoint, len(rows))
	for i, r := range rows {
		points[i] = r.point
	}
	return points, sc
}

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006/01/02",
	"01/02/2006",
}

// ParseDate parses the date formats the historical datasets use.
func ParseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range dateLayouts {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", value)
}
