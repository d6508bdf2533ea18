package store

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// SheetValues abstracts the spreadsheet values API for the store layer.
// Implemented by googleSheetValues; tests substitute an in-memory fake.
type SheetValues interface {
	Get(ctx context.Context, readRange string) ([][]any, error)
	Update(ctx context.Context, writeRange string, rows [][]any) error
	Append(ctx context.Context, writeRange string, rows [][]any) error
}

// SheetsConfig identifies the remote spreadsheet and its credentials.
type SheetsConfig struct {
	SpreadsheetID   string
	SheetName       string
	CredentialsFile string
}

// SheetsStore keeps ratings in a Google Sheets worksheet: a header row
// followed by one row per rating. Upsert works against a fetched snapshot of
// the sheet so the remote backend gives the same (item_id, reviewer)
// uniqueness guarantee as the local ones: an existing row is updated in
// place, a new pair is appended.
type SheetsStore struct {
	values    SheetValues
	sheetName string
	logger    *zap.Logger
}

// NewSheetsStore dials the Sheets API with a service-account credentials file
// and returns a store bound to one worksheet.
func NewSheetsStore(ctx context.Context, cfg SheetsConfig, logger *zap.Logger) (*SheetsStore, error) {
	if cfg.SpreadsheetID == "" {
		return nil, fmt.Errorf("sheets store: spreadsheet id is required")
	}

	opts := []option.ClientOption{option.WithScopes(sheets.SpreadsheetsScope)}
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	svc, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating sheets service: %w", err)
	}

	return NewSheetsStoreWithValues(&googleSheetValues{
		svc:           svc,
		spreadsheetID: cfg.SpreadsheetID,
	}, cfg.SheetName, logger), nil
}

// NewSheetsStoreWithValues wires a store onto an existing values client.
func NewSheetsStoreWithValues(values SheetValues, sheetName string, logger *zap.Logger) *SheetsStore {
	if sheetName == "" {
		sheetName = "reviews"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SheetsStore{values: values, sheetName: sheetName, logger: logger}
}

func (s *SheetsStore) LoadAll(ctx context.Context) ([]Rating, error) {
	rows, err := s.values.Get(ctx, s.sheetName)
	if err != nil {
		return nil, fmt.Errorf("%w: reading sheet %s: %v", ErrUnavailable, s.sheetName, err)
	}
	if len(rows) == 0 {
		return []Rating{}, nil
	}

	cols := columnIndex(stringCells(rows[0]))
	ratings := make([]Rating, 0, len(rows)-1)
	for i, row := range rows[1:] {
		r, err := decodeRow(cols, stringCells(row))
		if err != nil {
			s.logger.Warn("skipping malformed sheet row",
				zap.String("sheet", s.sheetName),
				zap.Int("row", i+2),
				zap.Error(err))
			continue
		}
		ratings = append(ratings, r)
	}
	return ratings, nil
}

func (s *SheetsStore) Upsert(ctx context.Context, r Rating) error {
	rows, err := s.values.Get(ctx, s.sheetName)
	if err != nil {
		return fmt.Errorf("%w: snapshotting sheet %s: %v", ErrWriteFailed, s.sheetName, err)
	}

	newRow := anyCells(encodeRow(r))

	// Empty sheet: write header and the first row together.
	if len(rows) == 0 {
		payload := [][]any{anyCells(csvHeader), newRow}
		if err := s.values.Update(ctx, fmt.Sprintf("%s!A1", s.sheetName), payload); err != nil {
			return fmt.Errorf("%w: initializing sheet %s: %v", ErrWriteFailed, s.sheetName, err)
		}
		return nil
	}

	cols := columnIndex(stringCells(rows[0]))
	for i, row := range rows[1:] {
		cells := stringCells(row)
		if field(cols, cells, "item_id") == r.ItemID && field(cols, cells, "reviewer") == r.Reviewer {
			// Sheet rows are 1-based and row 1 is the header.
			writeRange := fmt.Sprintf("%s!A%d", s.sheetName, i+2)
			if err := s.values.Update(ctx, writeRange, [][]any{newRow}); err != nil {
				return fmt.Errorf("%w: updating row %d: %v", ErrWriteFailed, i+2, err)
			}
			return nil
		}
	}

	if err := s.values.Append(ctx, s.sheetName, [][]any{newRow}); err != nil {
		return fmt.Errorf("%w: appending row: %v", ErrWriteFailed, err)
	}
	return nil
}

func (s *SheetsStore) Close() error { return nil }

func stringCells(row []any) []string {
	out := make([]string, len(row))
	for i, cell := range row {
		if s, ok := cell.(string); ok {
			out[i] = s
			continue
		}
		out[i] = fmt.Sprint(cell)
	}
	return out
}

func anyCells(row []string) []any {
	out := make([]any, len(row))
	for i, cell := range row {
		out[i] = cell
	}
	return out
}

// googleSheetValues adapts the generated Sheets client to SheetValues.
type googleSheetValues struct {
	svc           *sheets.Service
	spreadsheetID string
}

func (g *googleSheetValues) Get(ctx context.Context, readRange string) ([][]any, error) {
	resp, err := g.svc.Spreadsheets.Values.Get(g.spreadsheetID, readRange).Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	return resp.Values, nil
}

func (g *googleSheetValues) Update(ctx context.Context, writeRange string, rows [][]any) error {
	_, err := g.svc.Spreadsheets.Values.
		Update(g.spreadsheetID, writeRange, &sheets.ValueRange{Values: rows}).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	return err
}

func (g *googleSheetValues) Append(ctx context.Context, writeRange string, rows [][]any) error {
	_, err := g.svc.Spreadsheets.Values.
		Append(g.spreadsheetID, writeRange, &sheets.ValueRange{Values: rows}).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	return err
}
