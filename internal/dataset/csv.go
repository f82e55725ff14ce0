package dataset

import (
	"context"
	"encoding/csv"
	"errors"
	"io"

	apierrors "bizpulse/internal/errors"
)

// ParseCSV reads a comma separated dataset. The first record is the header.
func ParseCSV(ctx context.Context, r io.Reader, name string, opts ...Option) (*Dataset, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrEmptyFile
	}
	if err != nil {
		return nil, malformedCSV(err)
	}

	builder, err := newRowBuilder(header, buildOptions(opts))
	if err != nil {
		return nil, err
	}

	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, malformedCSV(err)
		}

		line, _ := reader.FieldPos(0)
		if err := builder.add(ctx, line, row); err != nil {
			return nil, err
		}
	}

	return builder.dataset(name, SourceCSV), nil
}

// malformedCSV classifies reader failures. Quoting and encoding errors are
// problems of the input, not of the server.
func malformedCSV(err error) error {
	appErr := apierrors.NewParsingError("file is not valid CSV", err)
	var perr *csv.ParseError
	if errors.As(err, &perr) {
		appErr.WithContext("line", perr.Line).WithContext("column", perr.Column)
	}
	return appErr
}
