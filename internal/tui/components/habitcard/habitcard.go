// Package habitcard renders the compact habit card: name, category, and the
// previous and current week of completions.
package habitcard

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/sutra/internal/calendar"
	"github.com/julianstephens/sutra/internal/models"
)

const (
	cellWidth   = 5
	filledMark  = "●"
	emptyMark   = "○"
	pendingMark = "◌"
)

var (
	nameStyle     = lipgloss.NewStyle().Bold(true)
	categoryStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Italic(true)
	labelStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(cellWidth).Align(lipgloss.Center)
	cellStyle     = lipgloss.NewStyle().Width(cellWidth).Align(lipgloss.Center)
	todayStyle    = cellStyle.Underline(true)
)

// Card holds what a card needs to draw itself
type Card struct {
	Habit       models.Habit
	Strip       calendar.Strip
	Completions models.CompletionsByDate
	Selected    bool
	// Loaded is false while the completions have not been fetched yet.
	Loaded bool
}

// Cell returns the mark for one strip day.
func (c Card) Cell(d calendar.Day) string {
	switch {
	case !c.Loaded:
		return pendingMark
	case c.Completions.Completed(d.Date):
		return filledMark
	default:
		return emptyMark
	}
}

func (c Card) row(days []calendar.Day) string {
	color := lipgloss.Color(c.Habit.Color)
	cells := make([]string, len(days))
	for i, d := range days {
		style := cellStyle
		if d.IsToday {
			style = todayStyle
		}
		mark := c.Cell(d)
		if mark == filledMark {
			style = style.Foreground(color)
		}
		cells[i] = style.Render(mark)
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cells...)
}

// View renders the card.
func (c Card) View() string {
	labels := make([]string, len(calendar.DayNames))
	for i, n := range calendar.DayNames {
		labels[i] = labelStyle.Render(n)
	}

	title := nameStyle.Render(c.Habit.Name) + "  " + categoryStyle.Render(strings.ToLower(string(c.Habit.Category)))
	body := lipgloss.JoinVertical(lipgloss.Left,
		title,
		lipgloss.JoinHorizontal(lipgloss.Top, labels...),
		c.row(c.Strip.Previous),
		c.row(c.Strip.Current),
	)

	border := lipgloss.RoundedBorder()
	if c.Selected {
		border = lipgloss.ThickBorder()
	}
	return lipgloss.NewStyle().
		Border(border).
		BorderForeground(lipgloss.Color(c.Habit.Color)).
		Padding(0, 1).
		Render(body)
}
