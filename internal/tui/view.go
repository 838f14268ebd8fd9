package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/sutra/internal/calendar"
	"github.com/julianstephens/sutra/internal/constants"
)

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var content string
	switch m.state {
	case constants.StateLoading:
		content = mutedStyle.Render("Connecting...")
	case constants.StateSignedOut:
		content = m.viewSignedOut()
	case constants.StateHabits:
		content = m.viewHabits()
	case constants.StateHistory:
		content = m.historyModel.View()
	case constants.StateAddHabit, constants.StateEditHabit, constants.StateEditDisplayName:
		content = m.viewForm()
	case constants.StateConfirmDelete:
		content = m.viewConfirmDelete()
	}

	parts := []string{m.viewHeader()}
	if m.banner != "" {
		parts = append(parts, dangerStyle.Render(m.banner))
	}
	parts = append(parts, content, m.help.View(m.keys))

	return docStyle.Render(lipgloss.JoinVertical(lipgloss.Left, parts...))
}

func (m Model) viewHeader() string {
	title := titleStyle.Render(constants.AppName)
	if m.state == constants.StateSignedOut || m.identity.principal == "" {
		return title
	}
	who := m.identity.name
	if who == "" {
		who = m.identity.principal
	}
	if m.identity.role != "" {
		who += " (" + string(m.identity.role) + ")"
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, title, identityStyle.Render(who))
}

func (m Model) viewSignedOut() string {
	return lipgloss.JoinVertical(lipgloss.Left,
		"You are signed out.",
		mutedStyle.Render("Press L to sign in."),
	)
}

func (m Model) viewHabits() string {
	var b strings.Builder
	if m.loadErr != "" {
		b.WriteString(dangerStyle.Render(m.loadErr))
		b.WriteString("\n")
	}
	if m.loading && len(m.habits) == 0 {
		b.WriteString(mutedStyle.Render("Loading habits..."))
		return b.String()
	}
	if len(m.habits) == 0 {
		b.WriteString(mutedStyle.Render("No habits yet. Press a to add one."))
		return b.String()
	}

	today := m.todayString()
	strip := calendar.TwoWeekStrip(m.today())
	done := 0
	cards := make([]string, len(m.habits))
	for i, h := range m.habits {
		c := m.card(h, strip, i == m.cursor)
		if c.Completions.Completed(today) {
			done++
		}
		cards[i] = c.View()
	}
	b.WriteString(lipgloss.JoinVertical(lipgloss.Left, cards...))
	b.WriteString("\n")
	b.WriteString(mutedStyle.Render(fmt.Sprintf("Completed today: %d/%d", done, len(m.habits))))
	return b.String()
}

func (m Model) viewForm() string {
	if m.form == nil {
		return ""
	}
	var parts []string
	if m.formError != "" {
		parts = append(parts, dangerStyle.Render(m.formError))
	}
	if m.submitting {
		parts = append(parts, warningStyle.Render("Saving..."))
	}
	parts = append(parts, m.form.View())
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m Model) viewConfirmDelete() string {
	if m.habitToDelete == nil {
		return ""
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		dangerStyle.Render(fmt.Sprintf("Delete habit %q and all its completions?", m.habitToDelete.Name)),
		mutedStyle.Render("y to confirm, n to cancel"),
	)
}
