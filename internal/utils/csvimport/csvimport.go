// Package csvimport parses bank CSV statement exports into bookable rows.
// Banks disagree on delimiters, separators and date formats, so everything
// is configurable; unset options fall back to sensible defaults.
package csvimport

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Options control statement parsing.
type Options struct {
	SkipRows    int    // header rows to skip before the data starts
	Delimiter   string // field delimiter, default ","
	Thousands   string // thousands separator to strip, default none
	DecimalSep  string // decimal separator, default "."
	DateLayout  string // Go reference layout of the date column, default "2006-01-02"
	ValueColumn int    // default 0
	DateColumn  int    // default 1
	DescColumn  int    // default 2
}

func (o Options) withDefaults() Options {
	if o.Delimiter == "" {
		o.Delimiter = ","
	}
	if o.DecimalSep == "" {
		o.DecimalSep = "."
	}
	if o.DateLayout == "" {
		o.DateLayout = "2006-01-02"
	}
	if o.DateColumn == 0 && o.ValueColumn == 0 && o.DescColumn == 0 {
		o.ValueColumn, o.DateColumn, o.DescColumn = 0, 1, 2
	}
	return o
}

// Row is one parsed statement line. Value keeps the sign of the export:
// negative means money left the account.
type Row struct {
	Value       decimal.Decimal
	Date        time.Time
	Description string
}

// Parse reads the statement and returns its rows in file order.
func Parse(r io.Reader, opts Options) ([]Row, error) {
	opts = opts.withDefaults()
	if len(opts.Delimiter) != 1 {
		return nil, fmt.Errorf("delimiter must be a single character, got %q", opts.Delimiter)
	}

	reader := csv.NewReader(r)
	reader.Comma = rune(opts.Delimiter[0])
	reader.FieldsPerRecord = -1 // banks pad trailing columns inconsistently

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read csv: %w", err)
	}
	if opts.SkipRows > len(records) {
		return nil, fmt.Errorf("skipRows %d exceeds row count %d", opts.SkipRows, len(records))
	}
	records = records[opts.SkipRows:]

	maxCol := opts.ValueColumn
	if opts.DateColumn > maxCol {
		maxCol = opts.DateColumn
	}
	if opts.DescColumn > maxCol {
		maxCol = opts.DescColumn
	}

	rows := make([]Row, 0, len(records))
	for i, record := range records {
		if len(record) <= maxCol {
			return nil, fmt.Errorf("row %d has %d columns, need at least %d", i+opts.SkipRows+1, len(record), maxCol+1)
		}

		value, err := parseValue(record[opts.ValueColumn], opts.Thousands, opts.DecimalSep)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+opts.SkipRows+1, err)
		}

		date, err := time.ParseInLocation(opts.DateLayout, strings.TrimSpace(record[opts.DateColumn]), time.UTC)
		if err != nil {
			return nil, fmt.Errorf("row %d: invalid date %q: %w", i+opts.SkipRows+1, record[opts.DateColumn], err)
		}

		rows = append(rows, Row{
			Value:       value,
			Date:        date,
			Description: strings.TrimSpace(record[opts.DescColumn]),
		})
	}
	return rows, nil
}

func parseValue(raw, thousands, decimalSep string) (decimal.Decimal, error) {
	s := strings.TrimSpace(raw)
	if thousands != "" {
		s = strings.ReplaceAll(s, thousands, "")
	}
	if decimalSep != "." {
		s = strings.ReplaceAll(s, decimalSep, ".")
	}
	value, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid value %q: %w", raw, err)
	}
	return value, nil
}
