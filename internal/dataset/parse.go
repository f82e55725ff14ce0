package dataset

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Parse dispatches on the file extension of filename
func Parse(ctx context.Context, r io.Reader, filename string, opts ...Option) (*Dataset, error) {
	name := filepath.Base(filename)

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		return ParseCSV(ctx, r, name, opts...)
	case ".xlsx", ".xlsm":
		return ParseExcel(ctx, r, name, opts...)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, name)
	}
}

// ParseFile opens and parses a dataset from disk
func ParseFile(ctx context.Context, path string, opts ...Option) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return Parse(ctx, f, path, opts...)
}

// SupportedExtension reports whether Parse understands filename
func SupportedExtension(filename string) bool {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv", ".xlsx", ".xlsm":
		return true
	}
	return false
}
