package store

import (
	"context"
	"errors"
	"time"
)

// ErrUnavailable indicates the backing store exists but cannot be read
// (corrupt rows, unreachable service). Callers may degrade to an empty
// completed set with a warning; a missing-but-creatable store is not an error.
var ErrUnavailable = errors.New("review store unavailable")

// ErrWriteFailed indicates an upsert did not reach durable storage. The
// caller must treat the rating as unsaved.
var ErrWriteFailed = errors.New("review store write failed")

// Rating is one reviewer's stored assessment of one item. At most one Rating
// exists per (ItemID, Reviewer) pair; resubmission replaces the prior record.
type Rating struct {
	ID           string    `json:"id"`
	ItemID       string    `json:"item_id"`
	Reviewer     string    `json:"reviewer"`
	BullyingType string    `json:"bullying_type,omitempty"`
	AgeGroup     string    `json:"age_group,omitempty"`
	Scenario     string    `json:"scenario,omitempty"`
	Presence     int       `json:"cyberbullying_presence"`
	Authenticity int       `json:"content_authenticity"`
	Label        string    `json:"label,omitempty"`
	Comments     string    `json:"comments,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// Store persists ratings with upsert semantics keyed by (ItemID, Reviewer).
// Implemented by CSVStore, SQLiteStore, and SheetsStore.
type Store interface {
	// LoadAll returns every stored rating. A store that does not exist yet
	// returns an empty slice, not an error.
	LoadAll(ctx context.Context) ([]Rating, error)

	// Upsert inserts the rating, replacing any existing record for the same
	// (ItemID, Reviewer) pair. Failures wrap ErrWriteFailed.
	Upsert(ctx context.Context, r Rating) error

	Close() error
}
