package dataset

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	apierrors "bizpulse/internal/errors"
)

// DefaultSheetRange is read when a SheetsSource has no range
const DefaultSheetRange = "A:E"

// SheetsSource identifies a range inside a Google spreadsheet
type SheetsSource struct {
	SpreadsheetID string
	Range         string
}

// ValueReader reads a cell range as rows of values
type ValueReader interface {
	ReadRange(ctx context.Context, spreadsheetID, readRange string) ([][]interface{}, error)
}

// SheetsClient reads ranges through the Google Sheets v4 API
type SheetsClient struct {
	service *sheets.Service
}

// NewSheetsClient creates a read-only Sheets client
func NewSheetsClient(ctx context.Context, opts ...option.ClientOption) (*SheetsClient, error) {
	opts = append([]option.ClientOption{option.WithScopes(sheets.SpreadsheetsReadonlyScope)}, opts...)

	svc, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return &SheetsClient{service: svc}, nil
}

// NewSheetsClientFromFile creates a client authenticated with a service account file
func NewSheetsClientFromFile(ctx context.Context, credentialsFile string) (*SheetsClient, error) {
	return NewSheetsClient(ctx, option.WithCredentialsFile(credentialsFile))
}

// ReadRange implements ValueReader. A missing spreadsheet or range is a
// NOT_FOUND AppError; other API and transport failures are NETWORK errors.
func (c *SheetsClient) ReadRange(ctx context.Context, spreadsheetID, readRange string) ([][]interface{}, error) {
	resp, err := c.service.Spreadsheets.Values.Get(spreadsheetID, readRange).
		ValueRenderOption("UNFORMATTED_VALUE").
		Context(ctx).
		Do()
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		var gerr *googleapi.Error
		if errors.As(err, &gerr) && gerr.Code == http.StatusNotFound {
			return nil, apierrors.NewNotFoundError("spreadsheet "+spreadsheetID).
				WithContext("range", readRange)
		}
		return nil, apierrors.NewNetworkError("google sheets request failed", err).
			WithContext("spreadsheet_id", spreadsheetID)
	}
	return resp.Values, nil
}

// LoadSheet reads src through reader and parses it like a CSV table
func LoadSheet(ctx context.Context, reader ValueReader, src SheetsSource, opts ...Option) (*Dataset, error) {
	rng := src.Range
	if rng == "" {
		rng = DefaultSheetRange
	}

	values, err := reader.ReadRange(ctx, src.SpreadsheetID, rng)
	if err != nil {
		return nil, fmt.Errorf("read sheet %s!%s: %w", src.SpreadsheetID, rng, err)
	}

	rows := make([][]string, len(values))
	for i, row := range values {
		rows[i] = make([]string, len(row))
		for j, cell := range row {
			rows[i][j] = cellString(cell)
		}
	}

	start := firstNonBlank(rows)
	if start < 0 {
		return nil, ErrEmptyFile
	}

	builder, err := newRowBuilder(rows[start], buildOptions(opts))
	if err != nil {
		return nil, err
	}

	for i := start + 1; i < len(rows); i++ {
		if err := builder.add(ctx, i+1, rows[i]); err != nil {
			return nil, err
		}
	}

	return builder.dataset(src.SpreadsheetID+"!"+rng, SourceSheets), nil
}

// cellString renders a JSON-decoded cell value
func cellString(v interface{}) string {
	switch c := v.(type) {
	case nil:
		return ""
	case string:
		return c
	case float64:
		return strconv.FormatFloat(c, 'f', -1, 64)
	default:
		return fmt.Sprint(c)
	}
}
