package dataset

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"
)

// ctxCheckInterval is how many rows are parsed between cancellation checks
const ctxCheckInterval = 1000

// Options tune parsing
type Options struct {
	// MaxRows bounds the number of data rows. Zero means unlimited.
	MaxRows int
}

// Option configures parsing
type Option func(*Options)

// WithMaxRows limits the number of data rows accepted
func WithMaxRows(n int) Option {
	return func(o *Options) {
		o.MaxRows = n
	}
}

func buildOptions(opts []Option) Options {
	var o Options
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// columnMap maps canonical column names to header positions
type columnMap map[string]int

// mapHeader matches header cells against the known columns
func mapHeader(header []string) columnMap {
	cols := make(columnMap)
	for i, cell := range header {
		name := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(cell, "\ufeff")))
		for _, known := range KnownColumns {
			if name == strings.ToLower(known) {
				if _, dup := cols[known]; !dup {
					cols[known] = i
				}
			}
		}
	}
	return cols
}

// present returns the mapped columns in header order
func (m columnMap) present() []string {
	out := make([]string, 0, len(m))
	for name := range m {
		out = append(out, name)
	}
	sort.Slice(out, func(i, j int) bool { return m[out[i]] < m[out[j]] })
	return out
}

// missing returns the unmapped known columns in canonical order
func (m columnMap) missing() []string {
	out := []string{}
	for _, known := range KnownColumns {
		if _, ok := m[known]; !ok {
			out = append(out, known)
		}
	}
	return out
}

// rowBuilder turns raw rows into records with a fixed header mapping
type rowBuilder struct {
	cols    columnMap
	opts    Options
	records []Record
	totals  Totals
}

func newRowBuilder(header []string, opts Options) (*rowBuilder, error) {
	cols := mapHeader(header)
	if len(cols) == 0 {
		return nil, ErrNoKnownColumns
	}
	return &rowBuilder{cols: cols, opts: opts}, nil
}

// add parses one data row. line is the 1-based row number in the source.
func (b *rowBuilder) add(ctx context.Context, line int, row []string) error {
	if isBlank(row) {
		return nil
	}

	if b.opts.MaxRows > 0 && len(b.records) >= b.opts.MaxRows {
		return fmt.Errorf("%w: limit is %d", ErrTooManyRows, b.opts.MaxRows)
	}

	if len(b.records)%ctxCheckInterval == 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
	}

	var rec Record
	for name, idx := range b.cols {
		var raw string
		if idx < len(row) {
			raw = row[idx]
		}

		v, err := parseNumber(raw)
		if err != nil {
			return fmt.Errorf("%w: row %d column %s: %q", ErrMalformedValue, line, name, raw)
		}

		switch name {
		case ColumnRevenue:
			rec.Revenue = v
		case ColumnCost:
			rec.Cost = v
		case ColumnEmployees:
			rec.Employees = v
		case ColumnCustomers:
			rec.Customers = v
		case ColumnInventory:
			rec.Inventory = v
		}
	}

	if err := b.accumulate(line, rec); err != nil {
		return err
	}
	b.records = append(b.records, rec)
	return nil
}

// accumulate adds rec to the running totals
func (b *rowBuilder) accumulate(line int, rec Record) error {
	t := &b.totals
	t.Revenue += rec.Revenue
	t.Cost += rec.Cost
	t.Employees += rec.Employees
	t.Customers += rec.Customers
	t.Inventory += rec.Inventory

	for _, c := range []struct {
		name  string
		total float64
	}{
		{ColumnRevenue, t.Revenue},
		{ColumnCost, t.Cost},
		{ColumnEmployees, t.Employees},
		{ColumnCustomers, t.Customers},
		{ColumnInventory, t.Inventory},
	} {
		if math.Abs(c.total) > MaxColumnTotal {
			return fmt.Errorf("%w: column %s exceeds %g at row %d", ErrValueOutOfRange, c.name, MaxColumnTotal, line)
		}
	}
	return nil
}

func (b *rowBuilder) dataset(name, source string) *Dataset {
	return &Dataset{
		Name:     name,
		Source:   source,
		Columns:  b.cols.present(),
		Records:  b.records,
		Missing:  b.cols.missing(),
		LoadedAt: time.Now().UTC(),
	}
}

// parseNumber accepts plain numbers, thousands separators and a leading
// dollar sign after an optional minus. Empty cells read as zero.
func parseNumber(raw string) (float64, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, nil
	}

	neg, prefixed := false, false
	if strings.HasPrefix(s, "-") {
		neg, prefixed = true, true
		s = s[1:]
	}
	if strings.HasPrefix(s, "$") {
		prefixed = true
		s = strings.TrimSpace(s[1:])
	}
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return 0, fmt.Errorf("no digits")
	}
	if prefixed && (s[0] == '-' || s[0] == '+') {
		return 0, fmt.Errorf("sign after prefix")
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("not a finite number")
	}

	if neg {
		v = -v
	}
	return v, nil
}

func isBlank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
