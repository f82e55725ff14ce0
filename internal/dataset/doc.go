// Package dataset ingests tabular business data into totals the KPI
// engine can reduce.
//
// A dataset has up to five known columns: Revenue, Cost, Employees,
// Customers and Inventory. Headers are matched case-insensitively after
// trimming and unknown columns are ignored. A known column that is absent
// from the header is recorded in Dataset.Missing and reads as zero, as
// does an empty cell. A cell that is present but not numeric aborts the
// whole load with ErrMalformedValue. So does a column whose running total
// leaves ±MaxColumnTotal (ErrValueOutOfRange). Text that cannot be read as
// CSV or as a workbook at all is reported as a PARSING AppError.
//
// Three sources feed the same row parser:
//
//	ParseCSV    comma separated text
//	ParseExcel  .xlsx / .xlsm workbooks, first sheet with a known header
//	LoadSheet   a Google Sheets range
//
// A loaded Dataset is never mutated.
package dataset
