package tui

import (
	"fmt"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"convrev/internal/catalog"
	"convrev/internal/session"
	"convrev/internal/store"
)

func newTestModel(t *testing.T, n int, reviewer string) *Model {
	t.Helper()
	st, err := store.OpenSQLite(":memory:")
	if err != nil {
		t.Fatalf("OpenSQLite(:memory:) failed: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	items := make([]catalog.Item, n)
	for i := range items {
		items[i] = catalog.Item{
			ID:           fmt.Sprintf("conv-%03d", i),
			Scenario:     fmt.Sprintf("scenario %d", i),
			Conversation: []catalog.Turn{{Sender: "user_a", Text: "hey"}},
		}
	}

	sess := session.NewSeeded(catalog.New(items), st, zap.NewNop(), nil)
	if reviewer != "" {
		if _, err := sess.SetReviewer(reviewer); err != nil {
			t.Fatalf("SetReviewer(%q) failed: %v", reviewer, err)
		}
	}
	return NewModel(sess)
}

func press(t *testing.T, m *Model, keys ...tea.KeyMsg) tea.Cmd {
	t.Helper()
	var cmd tea.Cmd
	for _, k := range keys {
		_, cmd = m.Update(k)
	}
	return cmd
}

func runeKey(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func TestNewModel_PromptsForReviewerWhenUnset(t *testing.T) {
	m := newTestModel(t, 3, "")
	if m.Focus != focusReviewer {
		t.Fatalf("focus = %d, want reviewer prompt", m.Focus)
	}

	press(t, m, runeKey('a'), runeKey('l'), tea.KeyMsg{Type: tea.KeyEnter})

	if m.Focus != focusScores {
		t.Fatalf("focus = %d, want scores after entering name", m.Focus)
	}
	if m.State.Reviewer != "al" {
		t.Errorf("reviewer = %q, want al", m.State.Reviewer)
	}
}

func TestNewModel_SkipsPromptWhenReviewerSet(t *testing.T) {
	m := newTestModel(t, 3, "alice")
	if m.Focus != focusScores {
		t.Fatalf("focus = %d, want scores", m.Focus)
	}
}

func TestScoreKeys_SetFocusedField(t *testing.T) {
	m := newTestModel(t, 3, "alice")

	press(t, m, runeKey('5'))
	if m.Presence != 5 {
		t.Errorf("presence = %d, want 5", m.Presence)
	}
	if m.Authenticity != defaultScore {
		t.Errorf("authenticity = %d, want default %d", m.Authenticity, defaultScore)
	}

	press(t, m, tea.KeyMsg{Type: tea.KeyTab}, runeKey('2'))
	if m.Authenticity != 2 {
		t.Errorf("authenticity = %d, want 2", m.Authenticity)
	}
	if m.Presence != 5 {
		t.Errorf("presence = %d, want 5 unchanged", m.Presence)
	}
}

func TestArrowKeys_ClampScores(t *testing.T) {
	m := newTestModel(t, 3, "alice")

	for range 10 {
		press(t, m, tea.KeyMsg{Type: tea.KeyRight})
	}
	if m.Presence != 5 {
		t.Errorf("presence = %d, want clamped at 5", m.Presence)
	}

	for range 10 {
		press(t, m, tea.KeyMsg{Type: tea.KeyLeft})
	}
	if m.Presence != 1 {
		t.Errorf("presence = %d, want clamped at 1", m.Presence)
	}
}

func TestSubmit_AdvancesAndResetsForm(t *testing.T) {
	m := newTestModel(t, 3, "alice")

	press(t, m, runeKey('4'))
	cmd := press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("enter produced no command")
	}
	m.Update(cmd())

	if m.State.Index != 1 {
		t.Errorf("index = %d, want 1 after submit", m.State.Index)
	}
	if m.State.Reviewed != 1 {
		t.Errorf("reviewed = %d, want 1", m.State.Reviewed)
	}
	if m.Presence != defaultScore || m.Authenticity != defaultScore {
		t.Errorf("form not reset: presence %d authenticity %d", m.Presence, m.Authenticity)
	}
	if m.IsError {
		t.Errorf("unexpected error status: %s", m.Status)
	}
}

func TestNavigation_ResetsForm(t *testing.T) {
	m := newTestModel(t, 3, "alice")

	press(t, m, runeKey('5'), runeKey('n'))
	if m.State.Index != 1 {
		t.Fatalf("index = %d, want 1", m.State.Index)
	}
	if m.Presence != defaultScore {
		t.Errorf("presence = %d, want reset to %d", m.Presence, defaultScore)
	}

	press(t, m, runeKey('p'))
	if m.State.Index != 0 {
		t.Fatalf("index = %d, want 0", m.State.Index)
	}
}

func TestJump_OutOfRangeShowsError(t *testing.T) {
	m := newTestModel(t, 3, "alice")

	press(t, m, runeKey('g'), runeKey('9'), tea.KeyMsg{Type: tea.KeyEnter})

	if !m.IsError {
		t.Fatal("expected error status for out-of-range jump")
	}
	if m.State.Index != 0 {
		t.Errorf("index = %d, want unchanged 0", m.State.Index)
	}
}

func TestJump_OneBased(t *testing.T) {
	m := newTestModel(t, 3, "alice")

	press(t, m, runeKey('g'), runeKey('3'), tea.KeyMsg{Type: tea.KeyEnter})

	if m.IsError {
		t.Fatalf("unexpected error: %s", m.Status)
	}
	if m.State.Index != 2 {
		t.Errorf("index = %d, want 2 for jump to item 3", m.State.Index)
	}
}

func TestComments_CommitAndCancel(t *testing.T) {
	m := newTestModel(t, 3, "alice")

	press(t, m, runeKey('c'), runeKey('o'), runeKey('k'), tea.KeyMsg{Type: tea.KeyEnter})
	if m.Comments != "ok" {
		t.Errorf("comments = %q, want ok", m.Comments)
	}
	if m.Focus != focusScores {
		t.Errorf("focus = %d, want scores", m.Focus)
	}

	press(t, m, runeKey('c'), runeKey('x'), tea.KeyMsg{Type: tea.KeyEsc})
	if m.Comments != "ok" {
		t.Errorf("comments = %q, want unchanged after esc", m.Comments)
	}
}

func TestHelp_Toggle(t *testing.T) {
	m := newTestModel(t, 3, "alice")

	press(t, m, runeKey('?'))
	if m.Focus != focusHelp {
		t.Fatalf("focus = %d, want help", m.Focus)
	}
	press(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	if m.Focus != focusScores {
		t.Fatalf("focus = %d, want scores", m.Focus)
	}
}

func TestSubmitAll_ReportsComplete(t *testing.T) {
	m := newTestModel(t, 1, "alice")

	cmd := press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m.Update(cmd())

	if !m.State.Complete {
		t.Error("state.complete = false, want true after reviewing the only item")
	}
}
