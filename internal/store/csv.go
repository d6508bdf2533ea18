package store

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"go.uber.org/zap"
)

// csvHeader is the review-file column order. Existing files written by older
// tool versions are read by header name, so column reordering is tolerated.
var csvHeader = []string{
	"id",
	"item_id",
	"reviewer",
	"bullying_type",
	"age_group",
	"scenario",
	"cyberbullying_presence",
	"content_authenticity",
	"label",
	"comments",
	"created_at",
}

// CSVStore keeps ratings in a single CSV file with a header row. Every upsert
// rewrites the whole file: read all, drop any row with the same
// (item_id, reviewer), append the new row, write to a temp file, rename.
type CSVStore struct {
	path   string
	logger *zap.Logger
}

// NewCSVStore creates a store backed by the CSV file at path. The file is
// created lazily on first upsert.
func NewCSVStore(path string, logger *zap.Logger) *CSVStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CSVStore{path: path, logger: logger}
}

func (s *CSVStore) LoadAll(ctx context.Context) ([]Rating, error) {
	f, err := os.Open(s.path)
	if os.IsNotExist(err) {
		return []Rating{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: opening %s: %v", ErrUnavailable, s.path, err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", ErrUnavailable, s.path, err)
	}
	if len(rows) == 0 {
		return []Rating{}, nil
	}

	cols := columnIndex(rows[0])
	ratings := make([]Rating, 0, len(rows)-1)
	for i, row := range rows[1:] {
		r, err := decodeRow(cols, row)
		if err != nil {
			// A single bad row should not lose the rest of the file.
			s.logger.Warn("skipping malformed review row",
				zap.String("file", s.path),
				zap.Int("row", i+2),
				zap.Error(err))
			continue
		}
		ratings = append(ratings, r)
	}
	return ratings, nil
}

func (s *CSVStore) Upsert(ctx context.Context, r Rating) error {
	existing, err := s.LoadAll(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrWriteFailed, err)
	}

	kept := make([]Rating, 0, len(existing)+1)
	for _, e := range existing {
		if e.ItemID == r.ItemID && e.Reviewer == r.Reviewer {
			continue
		}
		kept = append(kept, e)
	}
	kept = append(kept, r)

	if err := s.writeAll(kept); err != nil {
		return fmt.Errorf("%w: %v", ErrWriteFailed, err)
	}
	return nil
}

// writeAll rewrites the file atomically via a temp file in the same directory.
func (s *CSVStore) writeAll(ratings []Rating) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating review directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	w := csv.NewWriter(tmp)
	if err := w.Write(csvHeader); err != nil {
		tmp.Close()
		return fmt.Errorf("writing header: %w", err)
	}
	for _, r := range ratings {
		if err := w.Write(encodeRow(r)); err != nil {
			tmp.Close()
			return fmt.Errorf("writing row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		return fmt.Errorf("flushing rows: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replacing %s: %w", s.path, err)
	}
	return nil
}

func (s *CSVStore) Close() error { return nil }

func columnIndex(header []string) map[string]int {
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[name] = i
	}
	return cols
}

func field(cols map[string]int, row []string, name string) string {
	i, ok := cols[name]
	if !ok || i >= len(row) {
		return ""
	}
	return row[i]
}

func decodeRow(cols map[string]int, row []string) (Rating, error) {
	r := Rating{
		ID:           field(cols, row, "id"),
		ItemID:       field(cols, row, "item_id"),
		Reviewer:     field(cols, row, "reviewer"),
		BullyingType: field(cols, row, "bullying_type"),
		AgeGroup:     field(cols, row, "age_group"),
		Scenario:     field(cols, row, "scenario"),
		Label:        field(cols, row, "label"),
		Comments:     field(cols, row, "comments"),
	}
	if r.ItemID == "" {
		return Rating{}, fmt.Errorf("missing item_id")
	}

	var err error
	if v := field(cols, row, "cyberbullying_presence"); v != "" {
		if r.Presence, err = strconv.Atoi(v); err != nil {
			return Rating{}, fmt.Errorf("bad cyberbullying_presence %q", v)
		}
	}
	if v := field(cols, row, "content_authenticity"); v != "" {
		if r.Authenticity, err = strconv.Atoi(v); err != nil {
			return Rating{}, fmt.Errorf("bad content_authenticity %q", v)
		}
	}
	if v := field(cols, row, "created_at"); v != "" {
		if r.CreatedAt, err = time.Parse(time.RFC3339, v); err != nil {
			return Rating{}, fmt.Errorf("bad created_at %q", v)
		}
	}
	return r, nil
}

func encodeRow(r Rating) []string {
	createdAt := ""
	if !r.CreatedAt.IsZero() {
		createdAt = r.CreatedAt.UTC().Format(time.RFC3339)
	}
	return []string{
		r.ID,
		r.ItemID,
		r.Reviewer,
		r.BullyingType,
		r.AgeGroup,
		r.Scenario,
		strconv.Itoa(r.Presence),
		strconv.Itoa(r.Authenticity),
		r.Label,
		r.Comments,
		createdAt,
	}
}
