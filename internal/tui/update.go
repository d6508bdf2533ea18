package tui

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"convrev/internal/session"
)

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case submitResultMsg:
		return m.handleSubmitResult(msg)
	}

	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		m.Quitting = true
		return m, tea.Quit
	}

	switch m.Focus {
	case focusReviewer:
		return m.handleTextEntry(msg, func(text string) {
			if _, err := m.Session.SetReviewer(text); err != nil {
				m.setError("reviewer name is required")
				return
			}
			m.Focus = focusScores
			m.refresh()
		})

	case focusComments:
		return m.handleTextEntry(msg, func(text string) {
			m.Comments = text
			m.Focus = focusScores
		})

	case focusLabel:
		return m.handleTextEntry(msg, func(text string) {
			m.Label = text
			m.Focus = focusScores
		})

	case focusJump:
		return m.handleTextEntry(msg, func(text string) {
			m.Focus = focusScores
			index, err := strconv.Atoi(strings.TrimSpace(text))
			if err != nil {
				m.setError(fmt.Sprintf("not a number: %s", text))
				return
			}
			// The prompt shows 1-based positions.
			if _, err := m.Session.JumpTo(index - 1); err != nil {
				if errors.Is(err, session.ErrIndexOutOfRange) {
					m.setError(fmt.Sprintf("no item %d (have 1-%d)", index, m.State.Total))
				} else {
					m.setError(err.Error())
				}
				return
			}
			m.refresh()
		})

	case focusHelp:
		switch msg.String() {
		case "esc", "q", "?":
			m.Focus = focusScores
		}
		return m, nil
	}

	return m.handleScoresKey(msg)
}

func (m *Model) handleScoresKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.clearStatus()

	switch msg.String() {
	case "q":
		m.Quitting = true
		return m, tea.Quit

	case "?":
		m.Focus = focusHelp

	case "tab", "up", "down":
		if m.Field == fieldPresence {
			m.Field = fieldAuthenticity
		} else {
			m.Field = fieldPresence
		}

	case "1", "2", "3", "4", "5":
		score := int(msg.String()[0] - '0')
		if m.Field == fieldPresence {
			m.Presence = score
		} else {
			m.Authenticity = score
		}

	case "left":
		m.adjustScore(-1)

	case "right":
		m.adjustScore(1)

	case "n":
		m.Session.Advance(session.Next)
		m.refresh()

	case "p":
		m.Session.Advance(session.Previous)
		m.refresh()

	case "u":
		if _, err := m.Session.NextUnreviewed(); err != nil {
			if errors.Is(err, session.ErrAllReviewed) {
				m.setStatus("no unreviewed items ahead")
			} else {
				m.setError(err.Error())
			}
			return m, nil
		}
		m.refresh()

	case "g":
		m.Input = ""
		m.Focus = focusJump

	case "s":
		m.Session.SetSkipReviewed(!m.State.SkipReviewed)
		m.refresh()

	case "c":
		m.Input = m.Comments
		m.Focus = focusComments

	case "t":
		m.Input = m.Label
		m.Focus = focusLabel

	case "r":
		m.Input = ""
		m.Focus = focusReviewer

	case "enter":
		if !m.HasItem {
			return m, nil
		}
		payload := session.Payload{
			Presence:     m.Presence,
			Authenticity: m.Authenticity,
			Label:        m.Label,
			Comments:     m.Comments,
		}
		return m, submitCmd(m.Session, m.Item.ID, payload)
	}

	return m, nil
}

// handleTextEntry implements a minimal line editor for prompt modes. Enter
// commits through done, esc cancels back to the score screen.
func (m *Model) handleTextEntry(msg tea.KeyMsg, done func(text string)) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		text := m.Input
		m.Input = ""
		done(text)

	case tea.KeyEsc:
		m.Input = ""
		if m.Focus != focusReviewer || m.State.Reviewer != "" {
			m.Focus = focusScores
		}

	case tea.KeyBackspace:
		if len(m.Input) > 0 {
			runes := []rune(m.Input)
			m.Input = string(runes[:len(runes)-1])
		}

	case tea.KeySpace:
		m.Input += " "

	case tea.KeyRunes:
		m.Input += string(msg.Runes)
	}

	return m, nil
}

func (m *Model) handleSubmitResult(msg submitResultMsg) (tea.Model, tea.Cmd) {
	if msg.Err != nil {
		switch {
		case errors.Is(msg.Err, session.ErrEmptyReviewer):
			m.setError("set a reviewer first (press r)")
		default:
			// The form is kept so the review can be retried.
			m.setError(fmt.Sprintf("save failed: %v", msg.Err))
		}
		return m, nil
	}

	if msg.Result.Complete {
		m.setStatus(fmt.Sprintf("saved %s, all %d items reviewed", m.Item.ID, msg.Result.State.Total))
	} else {
		m.setStatus(fmt.Sprintf("saved %s", m.Item.ID))
	}
	m.refresh()
	return m, nil
}

func (m *Model) adjustScore(delta int) {
	clamp := func(v int) int {
		if v < 1 {
			return 1
		}
		if v > 5 {
			return 5
		}
		return v
	}
	if m.Field == fieldPresence {
		m.Presence = clamp(m.Presence + delta)
	} else {
		m.Authenticity = clamp(m.Authenticity + delta)
	}
}

func (m *Model) setStatus(text string) {
	m.Status = text
	m.IsError = false
}

func (m *Model) setError(text string) {
	m.Status = text
	m.IsError = true
}

func (m *Model) clearStatus() {
	m.Status = ""
	m.IsError = false
}
