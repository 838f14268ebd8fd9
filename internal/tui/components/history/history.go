// Package history renders the six-month completion grid of one habit.
package history

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/sutra/internal/calendar"
	"github.com/julianstephens/sutra/internal/models"
)

const (
	cellWidth    = 4
	monthsPerRow = 3
)

var (
	monthStyle  = lipgloss.NewStyle().Bold(true).MarginBottom(1)
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(cellWidth).Align(lipgloss.Right)
	dayStyle    = lipgloss.NewStyle().Width(cellWidth).Align(lipgloss.Right)
	blockStyle  = lipgloss.NewStyle().MarginRight(3).MarginBottom(1)
)

// Model is the history view of one habit
type Model struct {
	Habit       models.Habit
	Months      []calendar.Month
	Completions models.CompletionsByDate
}

// New builds the history for habit as of today.
func New(habit models.Habit, today time.Time, completions models.CompletionsByDate) Model {
	return Model{
		Habit:       habit,
		Months:      calendar.SixMonthHistory(today),
		Completions: completions,
	}
}

func (m Model) cell(c calendar.Cell) string {
	if c.IsEmpty {
		return dayStyle.Render("")
	}
	style := dayStyle
	if m.Completions.Completed(c.Date) {
		style = style.Foreground(lipgloss.Color(m.Habit.Color)).Bold(true)
	}
	if c.IsToday {
		style = style.Underline(true)
	}
	return style.Render(fmt.Sprintf("%d", c.Day))
}

func (m Model) month(mo calendar.Month) string {
	headers := make([]string, len(calendar.WeekdayNames))
	for i, n := range calendar.WeekdayNames {
		headers[i] = headerStyle.Render(n)
	}

	rows := []string{monthStyle.Render(mo.Label), lipgloss.JoinHorizontal(lipgloss.Top, headers...)}
	for _, week := range mo.Weeks {
		cells := make([]string, len(week))
		for i, c := range week {
			cells[i] = m.cell(c)
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cells...))
	}
	return blockStyle.Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

// Total returns the number of completed dates.
func (m Model) Total() int {
	return len(m.Completions.CompletedDates())
}

// View renders the months in rows of three.
func (m Model) View() string {
	var rows []string
	for i := 0; i < len(m.Months); i += monthsPerRow {
		end := min(i+monthsPerRow, len(m.Months))
		blocks := make([]string, 0, monthsPerRow)
		for _, mo := range m.Months[i:end] {
			blocks = append(blocks, m.month(mo))
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, blocks...))
	}

	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color(m.Habit.Color)).
		Render(m.Habit.Name)
	summary := fmt.Sprintf("%d completions in the last %d months", m.Total(), calendar.HistoryMonths)
	return lipgloss.JoinVertical(lipgloss.Left, title, summary, "", lipgloss.JoinVertical(lipgloss.Left, rows...))
}
