// Package tui is the interactive review screen. It drives a single
// session.Session directly; all navigation and persistence rules live there.
package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"convrev/internal/catalog"
	"convrev/internal/session"
)

// focus selects which part of the screen receives key input.
type focus int

const (
	focusReviewer focus = iota // typing the reviewer name
	focusScores                // rubric navigation and scoring
	focusComments              // typing free-form comments
	focusLabel                 // typing the label
	focusJump                  // typing a jump index
	focusHelp                  // review guide overlay
)

// scoreField selects which rubric score 1-5 keys apply to.
type scoreField int

const (
	fieldPresence scoreField = iota
	fieldAuthenticity
)

const defaultScore = 3

// Model is the bubbletea model for the review screen.
type Model struct {
	Session *session.Session
	Styles  Styles

	// Snapshot of the session after the last operation.
	State   session.State
	Item    catalog.Item
	HasItem bool

	// Form state for the item on screen.
	Focus        focus
	Field        scoreField
	Presence     int
	Authenticity int
	Label        string
	Comments     string

	// Text entry buffer for reviewer, jump, comments and label modes.
	Input string

	// Transient status line, cleared on the next action.
	Status  string
	IsError bool

	Width    int
	Height   int
	Quitting bool
}

// NewModel builds the model and takes the first session snapshot. When the
// session already has a reviewer the name prompt is skipped.
func NewModel(sess *session.Session) *Model {
	m := &Model{
		Session:      sess,
		Styles:       DefaultStyles(),
		Presence:     defaultScore,
		Authenticity: defaultScore,
	}
	m.refresh()
	if m.State.Reviewer == "" {
		m.Focus = focusReviewer
	} else {
		m.Focus = focusScores
	}
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// refresh re-reads the current item and state from the session and resets the
// per-item form.
func (m *Model) refresh() {
	m.Item, m.State, m.HasItem = m.Session.Current()
	m.resetForm()
}

func (m *Model) resetForm() {
	m.Field = fieldPresence
	m.Presence = defaultScore
	m.Authenticity = defaultScore
	m.Label = ""
	m.Comments = ""
}

// submitResultMsg carries the outcome of an asynchronous submit.
type submitResultMsg struct {
	Result session.SubmitResult
	Err    error
}

// submitCmd persists the current form through the session.
func submitCmd(sess *session.Session, itemID string, p session.Payload) tea.Cmd {
	return func() tea.Msg {
		res, err := sess.Submit(context.Background(), itemID, p)
		return submitResultMsg{Result: res, Err: err}
	}
}
