// Package calendar builds the day grids shown on habit cards and in the
// completion history. Both builders are pure functions of "today"; all
// dates are rendered in today's location.
package calendar

import (
	"time"

	"github.com/julianstephens/sutra/internal/utils"
)

// DayNames are the strip column headers, Monday first.
var DayNames = []string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

// WeekdayNames are the history column headers, Sunday first.
var WeekdayNames = []string{"Su", "Mo", "Tu", "We", "Th", "Fr", "Sa"}

// HistoryMonths is the number of months shown in the history view, current month included.
const HistoryMonths = 6

// Week identifies a row of the two-week strip
type Week string

const (
	PreviousWeek Week = "previous"
	CurrentWeek  Week = "current"
)

// Day is one cell of the two-week strip
type Day struct {
	Date     string
	DayIndex int // 0 = Monday
	Week     Week
	IsToday  bool
}

// Strip is the compact two-week view: the whole previous week and the
// current week up to and including today.
type Strip struct {
	Previous []Day
	Current  []Day
}

// Days returns the previous week followed by the current week.
func (s Strip) Days() []Day {
	out := make([]Day, 0, len(s.Previous)+len(s.Current))
	out = append(out, s.Previous...)
	return append(out, s.Current...)
}

// Today returns the today cell of the strip.
func (s Strip) Today() Day {
	return s.Current[len(s.Current)-1]
}

// mondayIndex converts Go's Sunday-based weekday to a Monday-based index.
func mondayIndex(wd time.Weekday) int {
	return (int(wd) + 6) % 7
}

// TwoWeekStrip builds the strip for today. The current week starts on the
// Monday on or before today and stops at today; future days are never emitted.
func TwoWeekStrip(today time.Time) Strip {
	today = utils.StartOfDay(today)
	offset := mondayIndex(today.Weekday())
	monday := today.AddDate(0, 0, -offset)
	prevMonday := monday.AddDate(0, 0, -7)

	strip := Strip{
		Previous: make([]Day, 0, 7),
		Current:  make([]Day, 0, offset+1),
	}
	for i := 0; i < 7; i++ {
		strip.Previous = append(strip.Previous, Day{
			Date:     utils.FormatDate(prevMonday.AddDate(0, 0, i)),
			DayIndex: i,
			Week:     PreviousWeek,
		})
	}
	for i := 0; i <= offset; i++ {
		strip.Current = append(strip.Current, Day{
			Date:     utils.FormatDate(monday.AddDate(0, 0, i)),
			DayIndex: i,
			Week:     CurrentWeek,
			IsToday:  i == offset,
		})
	}
	return strip
}

// Cell is one square of a month grid. Empty cells pad the grid outside the
// month and hide future days; they carry no date.
type Cell struct {
	Date    string
	Day     int
	IsEmpty bool
	IsToday bool
}

// Month is one calendar month laid out in Sunday-based weeks
type Month struct {
	Year  int
	Month time.Month
	Label string
	Weeks [][]Cell
}

// Cells returns the month's cells in row order.
func (m Month) Cells() []Cell {
	var out []Cell
	for _, w := range m.Weeks {
		out = append(out, w...)
	}
	return out
}

// SixMonthHistory returns the grids for the five months before today's
// month followed by today's month.
func SixMonthHistory(today time.Time) []Month {
	today = utils.StartOfDay(today)
	todayStr := utils.FormatDate(today)
	loc := today.Location()

	months := make([]Month, 0, HistoryMonths)
	for i := HistoryMonths - 1; i >= 0; i-- {
		first := time.Date(today.Year(), today.Month()-time.Month(i), 1, 0, 0, 0, 0, loc)
		months = append(months, buildMonth(first, today, todayStr))
	}
	return months
}

func buildMonth(first, today time.Time, todayStr string) Month {
	leading := int(first.Weekday())
	daysInMonth := first.AddDate(0, 1, -1).Day()
	weeks := (leading + daysInMonth + 6) / 7

	m := Month{
		Year:  first.Year(),
		Month: first.Month(),
		Label: first.Format("January 2006"),
		Weeks: make([][]Cell, weeks),
	}
	for w := 0; w < weeks; w++ {
		row := make([]Cell, 7)
		for d := 0; d < 7; d++ {
			day := w*7 + d - leading + 1
			if day < 1 || day > daysInMonth {
				row[d] = Cell{IsEmpty: true}
				continue
			}
			date := time.Date(first.Year(), first.Month(), day, 0, 0, 0, 0, first.Location())
			if date.After(today) {
				row[d] = Cell{IsEmpty: true}
				continue
			}
			dateStr := utils.FormatDate(date)
			row[d] = Cell{Date: dateStr, Day: day, IsToday: dateStr == todayStr}
		}
		m.Weeks[w] = row
	}
	return m
}
