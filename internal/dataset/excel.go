package dataset

import (
	"context"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	apierrors "bizpulse/internal/errors"
)

// ParseExcel reads the first worksheet whose first non-empty row names at
// least one known column.
func ParseExcel(ctx context.Context, r io.Reader, name string, opts ...Option) (*Dataset, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, apierrors.NewParsingError("file is not a readable workbook", err)
	}
	defer f.Close()

	sawHeader := false
	for _, sheet := range f.GetSheetList() {
		// Raw values keep display formats such as "1.2K" out of the parser
		rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, apierrors.NewParsingError("sheet "+sheet+" could not be read", err).
				WithContext("sheet", sheet)
		}

		start := firstNonBlank(rows)
		if start < 0 {
			continue
		}
		sawHeader = true

		builder, err := newRowBuilder(rows[start], buildOptions(opts))
		if err != nil {
			continue
		}

		for i := start + 1; i < len(rows); i++ {
			if err := builder.add(ctx, i+1, rows[i]); err != nil {
				return nil, fmt.Errorf("sheet %s: %w", sheet, err)
			}
		}

		return builder.dataset(name, SourceExcel), nil
	}

	if !sawHeader {
		return nil, ErrEmptyFile
	}
	return nil, ErrNoKnownColumns
}

func firstNonBlank(rows [][]string) int {
	for i, row := range rows {
		if !isBlank(row) {
			return i
		}
	}
	return -1
}
