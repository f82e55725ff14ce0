package dataset

import (
	"errors"
	"time"
)

// Known column names in canonical order
const (
	ColumnRevenue   = "Revenue"
	ColumnCost      = "Cost"
	ColumnEmployees = "Employees"
	ColumnCustomers = "Customers"
	ColumnInventory = "Inventory"
)

// KnownColumns lists the recognised columns in canonical order
var KnownColumns = []string{
	ColumnRevenue,
	ColumnCost,
	ColumnEmployees,
	ColumnCustomers,
	ColumnInventory,
}

// Source labels
const (
	SourceCSV    = "csv"
	SourceExcel  = "excel"
	SourceSheets = "sheets"
)

var (
	// ErrEmptyFile is returned when the input has no header row
	ErrEmptyFile = errors.New("dataset is empty")
	// ErrNoKnownColumns is returned when the header names none of the known columns
	ErrNoKnownColumns = errors.New("header contains none of the known columns")
	// ErrMalformedValue is returned when a known column holds a non-numeric cell
	ErrMalformedValue = errors.New("malformed numeric value")
	// ErrUnsupportedFormat is returned for file extensions other than csv, xlsx and xlsm
	ErrUnsupportedFormat = errors.New("unsupported file format")
	// ErrTooManyRows is returned when the data rows exceed the configured limit
	ErrTooManyRows = errors.New("too many rows")
	// ErrValueOutOfRange is returned when a column total leaves ±MaxColumnTotal
	ErrValueOutOfRange = errors.New("column total out of range")
)

// MaxColumnTotal bounds the magnitude of every column total
const MaxColumnTotal = 1e18

// Record is one data row
type Record struct {
	Revenue   float64 `json:"revenue"`
	Cost      float64 `json:"cost"`
	Employees float64 `json:"employees"`
	Customers float64 `json:"customers"`
	Inventory float64 `json:"inventory"`
}

// Dataset is an ingested table
type Dataset struct {
	Name     string    `json:"name"`
	Source   string    `json:"source"`
	Columns  []string  `json:"columns"`
	Records  []Record  `json:"-"`
	Missing  []string  `json:"missing"`
	LoadedAt time.Time `json:"loaded_at"`
}

// Rows returns the number of data rows
func (d *Dataset) Rows() int {
	return len(d.Records)
}

// Totals are the column sums of a dataset
type Totals struct {
	Revenue   float64 `json:"revenue"`
	Cost      float64 `json:"cost"`
	Employees float64 `json:"employees"`
	Customers float64 `json:"customers"`
	Inventory float64 `json:"inventory"`
	Rows      int     `json:"rows"`
}

// Sum reduces a dataset to its column totals
func Sum(ds *Dataset) Totals {
	var t Totals
	if ds == nil {
		return t
	}

	for _, r := range ds.Records {
		t.Revenue += r.Revenue
		t.Cost += r.Cost
		t.Employees += r.Employees
		t.Customers += r.Customers
		t.Inventory += r.Inventory
	}
	t.Rows = len(ds.Records)

	return t
}
