package testutil

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"
)

// SampleCSV is a small dataset with all five known columns.
// Totals: revenue 600000, cost 450000, employees 10, customers 120, inventory 90000.
const SampleCSV = `Revenue,Cost,Employees,Customers,Inventory
100000,80000,2,20,15000
200000,150000,3,40,30000
300000,220000,5,60,45000
`

// SampleRows is SampleCSV as a cell grid
var SampleRows = [][]string{
	{"Revenue", "Cost", "Employees", "Customers", "Inventory"},
	{"100000", "80000", "2", "20", "15000"},
	{"200000", "150000", "3", "40", "30000"},
	{"300000", "220000", "5", "60", "45000"},
}

// WriteSampleCSV writes SampleCSV into dir and returns its path
func WriteSampleCSV(t *testing.T, dir string) string {
	t.Helper()

	path := filepath.Join(dir, "sample.csv")
	if err := os.WriteFile(path, []byte(SampleCSV), 0644); err != nil {
		t.Fatalf("write sample csv: %v", err)
	}
	return path
}

// BuildXLSX returns an xlsx workbook holding rows on the named sheet.
// Extra sheets listed in leading are created first, left empty.
func BuildXLSX(t *testing.T, sheet string, rows [][]string, leading ...string) []byte {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	for _, name := range leading {
		if _, err := f.NewSheet(name); err != nil {
			t.Fatalf("new sheet: %v", err)
		}
	}

	if _, err := f.NewSheet(sheet); err != nil {
		t.Fatalf("new sheet: %v", err)
	}
	for i, row := range rows {
		cells := make([]interface{}, len(row))
		for j, v := range row {
			cells[j] = v
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatalf("cell name: %v", err)
		}
		if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
			t.Fatalf("set row: %v", err)
		}
	}

	// Drop the default sheet unless the caller uses it
	if sheet != "Sheet1" {
		found := false
		for _, name := range leading {
			if name == "Sheet1" {
				found = true
			}
		}
		if !found {
			if err := f.DeleteSheet("Sheet1"); err != nil {
				t.Fatalf("delete sheet: %v", err)
			}
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		t.Fatalf("write workbook: %v", err)
	}
	return buf.Bytes()
}
