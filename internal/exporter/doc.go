// Package exporter renders KPI reports for download.
//
// Two formats are supported:
//
// CSV: one section,metric,value row per figure, optionally prefixed with a
// UTF-8 BOM so Excel detects the encoding.
//
// XLSX: a workbook with KPIs, Forecast and Insights sheets.
//
// Example usage:
//
//	format, err := exporter.ParseFormat("xlsx")
//	if err != nil {
//	    return err
//	}
//	w.Header().Set("Content-Type", format.ContentType())
//	err = exporter.Write(w, format, report)
package exporter
