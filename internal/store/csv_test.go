package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func newTestCSV(t *testing.T) *CSVStore {
	t.Helper()
	return NewCSVStore(filepath.Join(t.TempDir(), "reviews.csv"), nil)
}

func testRating(itemID, reviewer string) Rating {
	return Rating{
		ID:           "r-" + itemID + "-" + reviewer,
		ItemID:       itemID,
		Reviewer:     reviewer,
		BullyingType: "harassment",
		AgeGroup:     "16-18",
		Scenario:     "group chat pile-on",
		Presence:     4,
		Authenticity: 3,
		Comments:     "escalates quickly",
		CreatedAt:    time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestCSVLoadAllMissingFile(t *testing.T) {
	s := newTestCSV(t)

	ratings, err := s.LoadAll(context.Background())
	if err != nil {
		t.Fatalf("LoadAll on missing file failed: %v", err)
	}
	if len(ratings) != 0 {
		t.Errorf("got %d ratings from missing file", len(ratings))
	}
}

func TestCSVUpsertRoundTrip(t *testing.T) {
	s := newTestCSV(t)
	ctx := context.Background()

	want := testRating("conv-001", "X")
	if err := s.Upsert(ctx, want); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	ratings, err := s.LoadAll(ctx)
	if err != nil {
		t.Fatalf("LoadAll failed: %v", err)
	}
	if len(ratings) != 1 {
		t.Fatalf("got %d ratings, want 1", len(ratings))
	}
	if ratings[0] != want {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", ratings[0], want)
	}
}

func TestCSVUpsertReplacesSamePair(t *testing.T) {
	s := newTestCSV(t)
	ctx := context.Background()

	first := testRating("conv-001", "X")
	if err := s.Upsert(ctx, first); err != nil {
		t.Fatalf("first Upsert failed: %v", err)
	}

	second := first
	second.ID = "r-2"
	second.Presence = 1
	second.Comments = "changed my mind"
	if err := s.Upsert(ctx, second); err != nil {
		t.Fatalf("second Upsert failed: %v", err)
	}

	ratings, err := s.LoadAll(ctx)
	if err != nil {
		t.Fatalf("LoadAll failed: %v", err)
	}
	if len(ratings) != 1 {
		t.Fatalf("got %d ratings, want 1 after resubmission", len(ratings))
	}
	if ratings[0].Presence != 1 || ratings[0].Comments != "changed my mind" {
		t.Errorf("kept record is not the second submission: %+v", ratings[0])
	}
}

func TestCSVDistinctPairsCoexist(t *testing.T) {
	s := newTestCSV(t)
	ctx := context.Background()

	for _, r := range []Rating{
		testRating("conv-001", "X"),
		testRating("conv-001", "Y"),
		testRating("conv-002", "X"),
	} {
		if err := s.Upsert(ctx, r); err != nil {
			t.Fatalf("Upsert(%s, %s) failed: %v", r.ItemID, r.Reviewer, err)
		}
	}

	ratings, err := s.LoadAll(ctx)
	if err != nil {
		t.Fatalf("LoadAll failed: %v", err)
	}
	if len(ratings) != 3 {
		t.Errorf("got %d ratings, want 3", len(ratings))
	}
}

func TestCSVHeaderWritten(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reviews.csv")
	s := NewCSVStore(path, nil)

	if err := s.Upsert(context.Background(), testRating("conv-001", "X")); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading file: %v", err)
	}
	firstLine := strings.SplitN(string(data), "\n", 2)[0]
	if firstLine != strings.Join(csvHeader, ",") {
		t.Errorf("header = %q", firstLine)
	}
}

func TestCSVMalformedRowSkipped(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reviews.csv")
	content := "id,item_id,reviewer,bullying_type,age_group,scenario,cyberbullying_presence,content_authenticity,label,comments,created_at\n" +
		"r-1,conv-001,X,,,,notanumber,3,,,\n" +
		"r-2,conv-002,X,,,,4,3,,,2025-06-01T12:00:00Z\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	s := NewCSVStore(path, nil)
	ratings, err := s.LoadAll(context.Background())
	if err != nil {
		t.Fatalf("LoadAll failed: %v", err)
	}
	if len(ratings) != 1 || ratings[0].ItemID != "conv-002" {
		t.Errorf("got %+v, want only conv-002", ratings)
	}
}

func TestCSVCorruptFileUnavailable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reviews.csv")
	// Unbalanced quote makes the whole file unparsable.
	if err := os.WriteFile(path, []byte("id,reviewer\n\"broken\n"), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	s := NewCSVStore(path, nil)
	if _, err := s.LoadAll(context.Background()); !errors.Is(err, ErrUnavailable) {
		t.Errorf("err = %v, want ErrUnavailable", err)
	}
}

func TestCSVColumnOrderTolerance(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reviews.csv")
	content := "reviewer,item_id,cyberbullying_presence,content_authenticity\n" +
		"X,conv-009,2,5\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	s := NewCSVStore(path, nil)
	ratings, err := s.LoadAll(context.Background())
	if err != nil {
		t.Fatalf("LoadAll failed: %v", err)
	}
	if len(ratings) != 1 {
		t.Fatalf("got %d ratings, want 1", len(ratings))
	}
	r := ratings[0]
	if r.ItemID != "conv-009" || r.Reviewer != "X" || r.Presence != 2 || r.Authenticity != 5 {
		t.Errorf("decoded rating = %+v", r)
	}
}
