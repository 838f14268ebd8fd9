package habits

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/julianstephens/sutra/internal/calendar"
	"github.com/julianstephens/sutra/internal/models"
)

const nameWidth = 24

func truncate(s string, width int) string {
	if utf8.RuneCountInString(s) <= width {
		return s
	}
	r := []rune(s)
	return string(r[:width-3]) + "..."
}

func mark(completions models.CompletionsByDate, day calendar.Day) string {
	switch {
	case completions.Completed(day.Date):
		return "x"
	case day.IsToday:
		return "_"
	default:
		return "."
	}
}

// renderStrip prints the habit name followed by the previous and current week rows.
func renderStrip(w io.Writer, h models.Habit, strip calendar.Strip, completions models.CompletionsByDate) {
	fmt.Fprintf(w, "%s  [%s]\n", h.Name, h.Category)
	fmt.Fprintf(w, "  %s\n", strings.Join(calendar.DayNames, " "))

	row := func(days []calendar.Day) {
		cells := make([]string, len(days))
		for i, d := range days {
			cells[i] = fmt.Sprintf(" %s ", mark(completions, d))
		}
		fmt.Fprintf(w, "  %s\n", strings.Join(cells, " "))
	}
	row(strip.Previous)
	row(strip.Current)
}

// renderHistory prints one Sunday-first grid per month. Completed days are
// starred; days outside the month or after today are blank.
func renderHistory(w io.Writer, months []calendar.Month, completions models.CompletionsByDate) {
	for _, m := range months {
		fmt.Fprintln(w, m.Label)
		fmt.Fprintf(w, " %s\n", strings.Join(calendar.WeekdayNames, "  "))
		for _, week := range m.Weeks {
			var b strings.Builder
			for _, c := range week {
				switch {
				case c.IsEmpty:
					b.WriteString("    ")
				case completions.Completed(c.Date):
					fmt.Fprintf(&b, "%3d*", c.Day)
				default:
					fmt.Fprintf(&b, "%3d ", c.Day)
				}
			}
			fmt.Fprintln(w, strings.TrimRight(b.String(), " "))
		}
		fmt.Fprintln(w)
	}
}
