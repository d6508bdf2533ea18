package tui

import (
	"fmt"
	"strings"
)

// View implements tea.Model.
func (m *Model) View() string {
	if m.Quitting {
		return ""
	}

	switch m.Focus {
	case focusReviewer:
		return m.renderReviewerPrompt()
	case focusHelp:
		return m.renderHelp()
	}

	var b strings.Builder

	b.WriteString(m.renderHeader())
	b.WriteString("\n\n")

	if !m.HasItem {
		b.WriteString("  Catalog is empty, nothing to review.\n")
		b.WriteString(m.renderFooter())
		return b.String()
	}

	b.WriteString(m.renderItem())
	b.WriteString("\n")
	b.WriteString(m.renderForm())
	b.WriteString("\n")
	b.WriteString(m.renderStatus())
	b.WriteString(m.renderFooter())

	return b.String()
}

func (m *Model) renderReviewerPrompt() string {
	var b strings.Builder
	b.WriteString(m.Styles.Title.Render("convrev"))
	b.WriteString("\n\n")
	b.WriteString(m.Styles.Prompt.Render("  Reviewer name: "))
	b.WriteString(m.Input)
	b.WriteString("▌\n")
	if m.Status != "" {
		b.WriteString("\n  " + m.Styles.StatusError.Render(m.Status) + "\n")
	}
	b.WriteString(m.Styles.Footer.Render("  enter to continue"))
	return b.String()
}

func (m *Model) renderHeader() string {
	title := m.Styles.Title.Render("convrev")
	reviewer := m.Styles.Reviewer.Render(m.State.Reviewer)
	progress := m.renderProgressBar(m.State.Reviewed, m.State.Total, 20)
	counts := fmt.Sprintf("%d/%d reviewed (%d%%)", m.State.Reviewed, m.State.Total, m.State.Percent())

	skip := "skip reviewed: off"
	if m.State.SkipReviewed {
		skip = "skip reviewed: on"
	}

	return fmt.Sprintf("%s  %s  %s %s  %s",
		title, reviewer, progress, counts, m.Styles.Meta.Render(skip))
}

func (m *Model) renderItem() string {
	var b strings.Builder

	position := fmt.Sprintf("item %d of %d", m.State.Index+1, m.State.Total)
	fmt.Fprintf(&b, "  %s  %s\n", m.Styles.ItemID.Render(m.Item.ID), m.Styles.Meta.Render(position))

	var meta []string
	if m.Item.BullyingType != "" {
		meta = append(meta, "type: "+m.Item.BullyingType)
	}
	if m.Item.AgeGroup != "" {
		meta = append(meta, "age: "+m.Item.AgeGroup)
	}
	if len(meta) > 0 {
		b.WriteString("  " + m.Styles.Meta.Render(strings.Join(meta, "  ")) + "\n")
	}
	if m.Item.Scenario != "" {
		b.WriteString("  " + m.Styles.Story.Render(m.Item.Scenario) + "\n")
	}
	if m.Item.MiniStory != "" {
		b.WriteString("  " + m.Styles.Story.Render(m.Item.MiniStory) + "\n")
	}
	b.WriteString("\n")

	for _, turn := range m.Item.Conversation {
		b.WriteString("  " + m.Styles.Sender.Render(turn.Sender+":") + " " + m.Styles.TurnText.Render(turn.Text) + "\n")
	}

	return b.String()
}

func (m *Model) renderForm() string {
	var b strings.Builder

	b.WriteString(m.renderScoreLine("Cyberbullying presence", m.Presence, m.Field == fieldPresence))
	b.WriteString(m.renderScoreLine("Content authenticity  ", m.Authenticity, m.Field == fieldAuthenticity))

	if m.Label != "" {
		fmt.Fprintf(&b, "  %s %s\n", m.Styles.Meta.Render("label:"), m.Label)
	}
	if m.Comments != "" {
		fmt.Fprintf(&b, "  %s %s\n", m.Styles.Meta.Render("comments:"), m.Comments)
	}

	switch m.Focus {
	case focusComments:
		b.WriteString("\n  " + m.Styles.Prompt.Render("Comments: ") + m.Input + "▌\n")
	case focusLabel:
		b.WriteString("\n  " + m.Styles.Prompt.Render("Label: ") + m.Input + "▌\n")
	case focusJump:
		b.WriteString("\n  " + m.Styles.Prompt.Render("Jump to item: ") + m.Input + "▌\n")
	}

	return b.String()
}

func (m *Model) renderScoreLine(name string, score int, active bool) string {
	nameStyle := m.Styles.FieldInactive
	marker := " "
	if active {
		nameStyle = m.Styles.FieldActive
		marker = ">"
	}

	var cells []string
	for i := 1; i <= 5; i++ {
		cell := fmt.Sprintf("%d", i)
		if i == score {
			cells = append(cells, m.Styles.ScoreSelected.Render("["+cell+"]"))
		} else {
			cells = append(cells, m.Styles.ScoreEmpty.Render(" "+cell+" "))
		}
	}

	return fmt.Sprintf("  %s %s %s\n", marker, nameStyle.Render(name), strings.Join(cells, " "))
}

func (m *Model) renderProgressBar(completed, total, width int) string {
	if total == 0 {
		total = 1
	}

	filled := (completed * width) / total
	if filled > width {
		filled = width
	}

	return "[" +
		m.Styles.ProgressFilled.Render(strings.Repeat("█", filled)) +
		m.Styles.ProgressEmpty.Render(strings.Repeat("░", width-filled)) +
		"]"
}

func (m *Model) renderStatus() string {
	if m.Status == "" {
		return ""
	}
	style := m.Styles.StatusOK
	if m.IsError {
		style = m.Styles.StatusError
	}
	return "  " + style.Render(m.Status) + "\n"
}

func (m *Model) renderFooter() string {
	key := func(k string) string { return m.Styles.FooterKey.Render(k) }
	return m.Styles.Footer.Render(fmt.Sprintf(
		"  %s submit  %s/%s prev/next  %s unreviewed  %s jump  %s skip  %s comments  %s label  %s reviewer  %s guide  %s quit",
		key("enter"), key("p"), key("n"), key("u"), key("g"), key("s"), key("c"), key("t"), key("r"), key("?"), key("q")))
}

func (m *Model) renderHelp() string {
	var b strings.Builder
	b.WriteString(m.Styles.Title.Render("Review guide"))
	b.WriteString("\n\n")
	b.WriteString(m.Styles.Help.Render(helpText))
	b.WriteString(m.Styles.Footer.Render("\n  esc to go back"))
	return b.String()
}

const helpText = `  Score each conversation on two 1-5 scales. Press tab to switch
  between them and 1-5 (or left/right) to pick a value.

  Cyberbullying presence
    1  no bullying behavior at all
    2  mild teasing, could be read as friendly
    3  ambiguous hostility
    4  clear targeted bullying
    5  severe or sustained harassment

  Content authenticity
    1  obviously artificial
    2  stilted phrasing, weak persona consistency
    3  plausible but generic
    4  natural tone with realistic detail
    5  indistinguishable from a real conversation

  Submitting saves the review and moves to the next unreviewed item.
  Reviewing an item again replaces your previous review of it.
`
