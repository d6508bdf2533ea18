// Package session implements the review state machine: position tracking over
// the ordered catalog, the already-reviewed set, skip navigation, and the
// submit path that upserts ratings into the store.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"convrev/internal/catalog"
	"convrev/internal/store"
)

// ErrEmptyReviewer blocks submissions until a reviewer name is set.
var ErrEmptyReviewer = errors.New("reviewer name is required")

// ErrIndexOutOfRange is returned by JumpTo for positions outside the catalog.
var ErrIndexOutOfRange = errors.New("index out of range")

// ErrAllReviewed signals that no unreviewed item exists after the current
// position for the current reviewer.
var ErrAllReviewed = errors.New("all items reviewed")

// Direction selects the advance step.
type Direction int

const (
	Next Direction = iota
	Previous
)

// State is an immutable snapshot of a session. Operations return a fresh
// State; callers redraw from it rather than reaching into the session.
type State struct {
	Index        int    `json:"index"`
	Reviewer     string `json:"reviewer"`
	SkipReviewed bool   `json:"skip_reviewed"`
	Total        int    `json:"total"`
	Reviewed     int    `json:"reviewed"`
	Complete     bool   `json:"complete"`
}

// Percent returns review progress as 0–100.
func (s State) Percent() int {
	if s.Total == 0 {
		return 0
	}
	return s.Reviewed * 100 / s.Total
}

// Payload carries one submission's rubric values. The session copies item
// metadata into the stored record itself; the payload is otherwise opaque to
// the state machine.
type Payload struct {
	Presence     int    `json:"cyberbullying_presence"`
	Authenticity int    `json:"content_authenticity"`
	Label        string `json:"label,omitempty"`
	Comments     string `json:"comments,omitempty"`
}

// SubmitResult reports what happened after a successful submission.
type SubmitResult struct {
	State State
	// Advanced is true when the session moved to a later unreviewed item.
	Advanced bool
	// Complete is true when no unreviewed item remains after the submitted
	// position. The index moves to the last item.
	Complete bool
}

type pair struct {
	itemID   string
	reviewer string
}

// Session owns one reviewer's walk through the catalog. All methods are safe
// for concurrent use; each operation runs to completion under the lock, so
// user actions are serialized exactly as a single-page UI would issue them.
type Session struct {
	cat    *catalog.Catalog
	store  store.Store
	logger *zap.Logger

	mu           sync.Mutex
	index        int
	reviewer     string
	skipReviewed bool
	completed    map[pair]struct{}
}

// New reads the store once and seeds the completed set from its ratings. An
// unreadable store degrades to an empty completed set with a warning; losing
// skip state is recoverable, losing a session is not.
func New(ctx context.Context, cat *catalog.Catalog, st store.Store, logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}

	ratings, err := st.LoadAll(ctx)
	if err != nil {
		logger.Warn("could not load existing reviews, starting with empty completed set", zap.Error(err))
		ratings = nil
	}
	return NewSeeded(cat, st, logger, ratings)
}

// NewSeeded builds a session from an already-loaded ratings snapshot, so many
// sessions can share one startup read of the store.
func NewSeeded(cat *catalog.Catalog, st store.Store, logger *zap.Logger, ratings []store.Rating) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Session{
		cat:          cat,
		store:        st,
		logger:       logger,
		skipReviewed: true,
		completed:    make(map[pair]struct{}, len(ratings)),
	}
	for _, r := range ratings {
		s.completed[pair{itemID: r.ItemID, reviewer: r.Reviewer}] = struct{}{}
	}
	return s
}

// State returns the current snapshot.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

// SetReviewer stores the trimmed reviewer name. The completed set is not
// recomputed: filtering by reviewer happens at query time, so switching
// reviewers mid-session immediately changes which items count as reviewed.
func (s *Session) SetReviewer(name string) (State, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return s.State(), ErrEmptyReviewer
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.reviewer = name
	return s.snapshot(), nil
}

// SetSkipReviewed toggles skip-already-reviewed navigation.
func (s *Session) SetSkipReviewed(enabled bool) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.skipReviewed = enabled
	return s.snapshot()
}

// JumpTo moves to an explicit position. Positions outside [0, Total-1] are
// rejected with ErrIndexOutOfRange; the session is never left in an invalid
// state.
func (s *Session) JumpTo(index int) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if index < 0 || index >= s.cat.Len() {
		return s.snapshot(), fmt.Errorf("%w: %d not in [0, %d)", ErrIndexOutOfRange, index, s.cat.Len())
	}
	s.index = index
	return s.snapshot(), nil
}

// Advance moves one step in the given direction. At either boundary it is a
// no-op, not an error.
func (s *Session) Advance(dir Direction) State {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch dir {
	case Next:
		if s.index < s.cat.Len()-1 {
			s.index++
		}
	case Previous:
		if s.index > 0 {
			s.index--
		}
	}
	return s.snapshot()
}

// NextUnreviewed scans forward from index+1 and moves to the first item the
// current reviewer has not rated. When none exists the index is unchanged and
// ErrAllReviewed is returned.
func (s *Session) NextUnreviewed() (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i, ok := s.scanUnreviewed(s.index + 1); ok {
		s.index = i
		return s.snapshot(), nil
	}
	return s.snapshot(), ErrAllReviewed
}

// SkipReviewed advances past already-reviewed items until it reaches an
// unreviewed one or the last index, whichever comes first. It only acts when
// the toggle is on and a reviewer is set, and it runs to a fixed point, so it
// is safe to call on every state read.
func (s *Session) SkipReviewed() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.skipLocked()
	return s.snapshot()
}

func (s *Session) skipLocked() {
	if !s.skipReviewed || s.reviewer == "" {
		return
	}
	for s.index < s.cat.Len()-1 && s.isReviewed(s.index) {
		s.index++
	}
}

// Current returns the item at the current position, after applying skip
// navigation. ok is false on an empty catalog.
func (s *Session) Current() (catalog.Item, State, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.skipLocked()
	if s.cat.Len() == 0 {
		return catalog.Item{}, s.snapshot(), false
	}
	return s.cat.At(s.index), s.snapshot(), true
}

// Submit validates the reviewer, upserts a rating for itemID, marks the pair
// reviewed, and auto-advances to the next unreviewed item. On a store write
// failure the completed set is left untouched so the unsaved rating is never
// reported as done.
func (s *Session) Submit(ctx context.Context, itemID string, p Payload) (SubmitResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if strings.TrimSpace(s.reviewer) == "" {
		return SubmitResult{State: s.snapshot()}, ErrEmptyReviewer
	}

	item, ok := s.cat.ByID(itemID)
	if !ok {
		return SubmitResult{State: s.snapshot()}, fmt.Errorf("unknown item %q", itemID)
	}

	r := store.Rating{
		ID:           uuid.New().String(),
		ItemID:       item.ID,
		Reviewer:     s.reviewer,
		BullyingType: item.BullyingType,
		AgeGroup:     item.AgeGroup,
		Scenario:     item.Scenario,
		Presence:     p.Presence,
		Authenticity: p.Authenticity,
		Label:        p.Label,
		Comments:     p.Comments,
		CreatedAt:    time.Now().UTC(),
	}

	if err := s.store.Upsert(ctx, r); err != nil {
		s.logger.Error("saving review failed",
			zap.String("item_id", item.ID),
			zap.String("reviewer", s.reviewer),
			zap.Error(err))
		return SubmitResult{State: s.snapshot()}, err
	}

	s.completed[pair{itemID: item.ID, reviewer: s.reviewer}] = struct{}{}

	if i, ok := s.scanUnreviewed(s.index + 1); ok {
		s.index = i
		return SubmitResult{State: s.snapshot(), Advanced: true}, nil
	}
	s.index = s.cat.Len() - 1
	return SubmitResult{State: s.snapshot(), Complete: true}, nil
}

// scanUnreviewed returns the first index >= from whose item the current
// reviewer has not rated.
func (s *Session) scanUnreviewed(from int) (int, bool) {
	if s.reviewer == "" {
		if from < s.cat.Len() {
			return from, true
		}
		return 0, false
	}
	for i := from; i < s.cat.Len(); i++ {
		if !s.isReviewed(i) {
			return i, true
		}
	}
	return 0, false
}

func (s *Session) isReviewed(index int) bool {
	_, ok := s.completed[pair{itemID: s.cat.At(index).ID, reviewer: s.reviewer}]
	return ok
}

func (s *Session) snapshot() State {
	reviewed := 0
	if s.reviewer != "" {
		for i := 0; i < s.cat.Len(); i++ {
			if s.isReviewed(i) {
				reviewed++
			}
		}
	}
	return State{
		Index:        s.index,
		Reviewer:     s.reviewer,
		SkipReviewed: s.skipReviewed,
		Total:        s.cat.Len(),
		Reviewed:     reviewed,
		Complete:     s.cat.Len() > 0 && s.reviewer != "" && reviewed == s.cat.Len(),
	}
}
