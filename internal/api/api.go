// Package api exposes the review service over HTTP and MCP. The HTTP surface
// is a thin JSON layer over session.Manager; state machine rules live in the
// session package and are not re-implemented here.
package api

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"convrev/internal/catalog"
	"convrev/internal/session"
	"convrev/internal/store"
)

const maxRequestBodySize = 1 << 20 // 1MB

// Deps holds everything the HTTP handlers need.
type Deps struct {
	Catalog  *catalog.Catalog
	Sessions *session.Manager
	Store    store.Store
	Token    string
	Logger   *zap.Logger
}

// NewHandler builds the chi router with all review routes registered.
// Everything except /health requires the bearer token.
func NewHandler(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})

	r.Group(func(r chi.Router) {
		r.Use(BearerAuth(deps.Token))

		r.Get("/items", handleListItems(deps))
		r.Get("/items/{id}", handleGetItem(deps))
		r.Get("/ratings", handleListRatings(deps))
		r.Get("/progress", handleProgress(deps))
		r.Get("/export/csv", handleExportCSV(deps))
		r.Get("/export/json", handleExportJSON(deps))

		r.Post("/sessions", handleCreateSession(deps))
		r.Get("/sessions/{id}", handleGetSession(deps))
		r.Delete("/sessions/{id}", handleDeleteSession(deps))
		r.Post("/sessions/{id}/reviewer", handleSetReviewer(deps))
		r.Post("/sessions/{id}/skip", handleSetSkip(deps))
		r.Post("/sessions/{id}/jump", handleJump(deps))
		r.Post("/sessions/{id}/advance", handleAdvance(deps))
		r.Post("/sessions/{id}/next-unreviewed", handleNextUnreviewed(deps))
		r.Post("/sessions/{id}/ratings", handleSubmitRating(deps))
	})

	return r
}

func handleListItems(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := parseIntParam(r, "limit", 20, 200)
		offset := parseIntParam(r, "offset", 0, 0)

		items := deps.Catalog.Items()
		if offset > len(items) {
			offset = len(items)
		}
		end := offset + limit
		if end > len(items) {
			end = len(items)
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"total": len(items),
			"items": items[offset:end],
		})
	}
}

func handleGetItem(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		item, ok := deps.Catalog.ByID(id)
		if !ok {
			httpError(w, http.StatusNotFound, "not_found", "item %q not found", id)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(item)
	}
}

func handleListRatings(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ratings, err := loadRatings(deps, r)
		if err != nil {
			httpError(w, http.StatusBadGateway, "api_error", "failed to load ratings: %v", err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(ratings)
	}
}

func handleProgress(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reviewer := r.URL.Query().Get("reviewer")
		if reviewer == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "reviewer is required")
			return
		}

		ratings, err := deps.Store.LoadAll(r.Context())
		if err != nil {
			httpError(w, http.StatusBadGateway, "api_error", "failed to load ratings: %v", err)
			return
		}

		// Count items in the catalog this reviewer has rated. Ratings for
		// items no longer in the catalog do not count toward progress.
		seen := make(map[string]struct{})
		for _, rt := range ratings {
			if rt.Reviewer != reviewer {
				continue
			}
			if _, ok := deps.Catalog.ByID(rt.ItemID); !ok {
				continue
			}
			seen[rt.ItemID] = struct{}{}
		}

		total := deps.Catalog.Len()
		reviewed := len(seen)
		percent := 0
		if total > 0 {
			percent = reviewed * 100 / total
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"reviewer": reviewer,
			"total":    total,
			"reviewed": reviewed,
			"percent":  percent,
			"complete": total > 0 && reviewed == total,
		})
	}
}

var exportHeader = []string{
	"id", "item_id", "reviewer", "bullying_type", "age_group", "scenario",
	"cyberbullying_presence", "content_authenticity", "label", "comments", "created_at",
}

func handleExportCSV(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ratings, err := loadRatings(deps, r)
		if err != nil {
			httpError(w, http.StatusBadGateway, "api_error", "failed to load ratings: %v", err)
			return
		}

		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="conversation_reviews.csv"`)

		cw := csv.NewWriter(w)
		if err := cw.Write(exportHeader); err != nil {
			deps.Logger.Warn("csv export aborted", zap.Error(err))
			return
		}
		for _, rt := range ratings {
			row := []string{
				rt.ID, rt.ItemID, rt.Reviewer, rt.BullyingType, rt.AgeGroup, rt.Scenario,
				strconv.Itoa(rt.Presence), strconv.Itoa(rt.Authenticity),
				rt.Label, rt.Comments, rt.CreatedAt.UTC().Format(time.RFC3339),
			}
			if err := cw.Write(row); err != nil {
				deps.Logger.Warn("csv export aborted", zap.Error(err))
				return
			}
		}
		cw.Flush()
	}
}

func handleExportJSON(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ratings, err := loadRatings(deps, r)
		if err != nil {
			httpError(w, http.StatusBadGateway, "api_error", "failed to load ratings: %v", err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Content-Disposition", `attachment; filename="conversation_reviews.json"`)
		json.NewEncoder(w).Encode(ratings)
	}
}

// loadRatings reads the store and applies the optional ?reviewer= filter.
func loadRatings(deps Deps, r *http.Request) ([]store.Rating, error) {
	ratings, err := deps.Store.LoadAll(r.Context())
	if err != nil {
		return nil, err
	}

	if reviewer := r.URL.Query().Get("reviewer"); reviewer != "" {
		filtered := ratings[:0]
		for _, rt := range ratings {
			if rt.Reviewer == reviewer {
				filtered = append(filtered, rt)
			}
		}
		ratings = filtered
	}
	if ratings == nil {
		ratings = []store.Rating{}
	}
	return ratings, nil
}

type createSessionRequest struct {
	Reviewer string `json:"reviewer"`
}

// sessionView is the standard response for session endpoints: the fresh
// state snapshot plus the item now under review, if any.
type sessionView struct {
	SessionID string        `json:"session_id,omitempty"`
	State     session.State `json:"state"`
	Item      *catalog.Item `json:"item,omitempty"`
}

func handleCreateSession(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		var req createSessionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}

		id, sess, err := deps.Sessions.Create(req.Reviewer)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to create session: %v", err)
			return
		}

		writeSession(w, id, sess)
	}
}

func handleGetSession(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := deps.Sessions.Get(chi.URLParam(r, "id"))
		if !ok {
			httpError(w, http.StatusNotFound, "not_found", "session not found")
			return
		}
		writeSession(w, "", sess)
	}
}

func handleDeleteSession(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if _, ok := deps.Sessions.Get(id); !ok {
			httpError(w, http.StatusNotFound, "not_found", "session not found")
			return
		}
		deps.Sessions.Delete(id)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "deleted"})
	}
}

func handleSetReviewer(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := deps.Sessions.Get(chi.URLParam(r, "id"))
		if !ok {
			httpError(w, http.StatusNotFound, "not_found", "session not found")
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		var req struct {
			Reviewer string `json:"reviewer"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}

		if _, err := sess.SetReviewer(req.Reviewer); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
			return
		}
		writeSession(w, "", sess)
	}
}

func handleSetSkip(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := deps.Sessions.Get(chi.URLParam(r, "id"))
		if !ok {
			httpError(w, http.StatusNotFound, "not_found", "session not found")
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		var req struct {
			Enabled bool `json:"enabled"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}

		sess.SetSkipReviewed(req.Enabled)
		writeSession(w, "", sess)
	}
}

func handleJump(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := deps.Sessions.Get(chi.URLParam(r, "id"))
		if !ok {
			httpError(w, http.StatusNotFound, "not_found", "session not found")
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		var req struct {
			Index int `json:"index"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}

		if _, err := sess.JumpTo(req.Index); err != nil {
			if errors.Is(err, session.ErrIndexOutOfRange) {
				httpError(w, http.StatusBadRequest, "invalid_request_error", "index %d out of range", req.Index)
				return
			}
			httpError(w, http.StatusInternalServerError, "api_error", "%v", err)
			return
		}
		writeSession(w, "", sess)
	}
}

func handleAdvance(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := deps.Sessions.Get(chi.URLParam(r, "id"))
		if !ok {
			httpError(w, http.StatusNotFound, "not_found", "session not found")
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		var req struct {
			Direction string `json:"direction"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}

		dir := session.Next
		switch req.Direction {
		case "", "next":
		case "previous":
			dir = session.Previous
		default:
			httpError(w, http.StatusBadRequest, "invalid_request_error", "direction must be next or previous")
			return
		}

		sess.Advance(dir)
		writeSession(w, "", sess)
	}
}

func handleNextUnreviewed(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := deps.Sessions.Get(chi.URLParam(r, "id"))
		if !ok {
			httpError(w, http.StatusNotFound, "not_found", "session not found")
			return
		}

		allReviewed := false
		if _, err := sess.NextUnreviewed(); err != nil {
			if !errors.Is(err, session.ErrAllReviewed) {
				httpError(w, http.StatusInternalServerError, "api_error", "%v", err)
				return
			}
			allReviewed = true
		}

		item, state, ok := sess.Current()
		view := sessionView{State: state}
		if ok {
			view.Item = &item
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"session":      view,
			"all_reviewed": allReviewed,
		})
	}
}

type submitRequest struct {
	ItemID       string `json:"item_id"`
	Presence     int    `json:"cyberbullying_presence"`
	Authenticity int    `json:"content_authenticity"`
	Label        string `json:"label"`
	Comments     string `json:"comments"`
}

func handleSubmitRating(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := deps.Sessions.Get(chi.URLParam(r, "id"))
		if !ok {
			httpError(w, http.StatusNotFound, "not_found", "session not found")
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		var req submitRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		if req.ItemID == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "item_id is required")
			return
		}

		// Scores are clamped, not rejected. The stored record is always on
		// the 1-5 scale.
		payload := session.Payload{
			Presence:     clampScore(req.Presence),
			Authenticity: clampScore(req.Authenticity),
			Label:        req.Label,
			Comments:     req.Comments,
		}

		result, err := sess.Submit(r.Context(), req.ItemID, payload)
		switch {
		case errors.Is(err, session.ErrEmptyReviewer):
			httpError(w, http.StatusBadRequest, "invalid_request_error", "reviewer is required before submitting")
			return
		case errors.Is(err, store.ErrWriteFailed):
			httpError(w, http.StatusBadGateway, "api_error", "failed to save review: %v", err)
			return
		case err != nil:
			httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
			return
		}

		// Current applies skip navigation, so its state snapshot is the one
		// that matches the item actually being served.
		item, state, hasItem := sess.Current()
		view := sessionView{State: state}
		if hasItem {
			view.Item = &item
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"session":  view,
			"advanced": result.Advanced,
			"complete": result.Complete,
		})
	}
}

func clampScore(v int) int {
	if v < 1 {
		return 1
	}
	if v > 5 {
		return 5
	}
	return v
}

func writeSession(w http.ResponseWriter, id string, sess *session.Session) {
	item, state, ok := sess.Current()
	view := sessionView{SessionID: id, State: state}
	if ok {
		view.Item = &item
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(view)
}

func parseIntParam(r *http.Request, key string, defaultVal, maxVal int) int {
	s := r.URL.Query().Get(key)
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 0 {
		return defaultVal
	}
	if maxVal > 0 && v > maxVal {
		return maxVal
	}
	return v
}
