package exporter

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	apperrors "bizpulse/internal/errors"
	"bizpulse/internal/kpi"
)

// Format is an export file format
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// ErrUnknownFormat is returned for formats other than csv and xlsx
var ErrUnknownFormat = errors.New("unknown export format")

// ParseFormat parses a format name case-insensitively
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case FormatCSV:
		return FormatCSV, nil
	case FormatXLSX:
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

// ContentType returns the MIME type of the format
func (f Format) ContentType() string {
	if f == FormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv; charset=utf-8"
}

// Extension returns the file extension including the dot
func (f Format) Extension() string {
	return "." + string(f)
}

// Write renders report in the given format
func Write(w io.Writer, f Format, report kpi.Report) error {
	switch f {
	case FormatCSV:
		return WriteCSV(w, report, WriteOptions{BOMPrefix: true})
	case FormatXLSX:
		return WriteXLSX(w, report)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, f)
	}
}

// WriteFile renders report to path, creating parent directories
func WriteFile(path string, f Format, report kpi.Report) error {
	if _, err := ParseFormat(string(f)); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return apperrors.NewStorageError("failed to create export directory", err).
			WithContext("path", filepath.Dir(path))
	}

	file, err := os.Create(path)
	if err != nil {
		return apperrors.NewStorageError("failed to create export file", err).
			WithContext("path", path)
	}

	if err := Write(file, f, report); err != nil {
		file.Close()
		return apperrors.NewStorageError("failed to write export", err).
			WithContext("path", path).
			WithContext("format", string(f))
	}
	if err := file.Close(); err != nil {
		return apperrors.NewStorageError("failed to close export file", err).
			WithContext("path", path)
	}
	return nil
}

// formatFloat formats money and counts with exactly 2 decimal places
func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', 2, 64)
}

// formatRatio keeps four decimals so small ratios survive
func formatRatio(f float64) string {
	return strconv.FormatFloat(f, 'f', 4, 64)
}
