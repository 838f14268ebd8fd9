package models

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/julianstephens/sutra/internal/constants"
)

// Category groups habits for display
type Category string

const (
	CategoryHealth        Category = "health"
	CategoryExercise      Category = "exercise"
	CategoryWork          Category = "work"
	CategoryEducation     Category = "education"
	CategoryHobby         Category = "hobby"
	CategorySocial        Category = "social"
	CategoryFinance       Category = "finance"
	CategoryMiscellaneous Category = "miscellaneous"
)

// Categories lists every category in display order
var Categories = []Category{
	CategoryHealth,
	CategoryExercise,
	CategoryWork,
	CategoryEducation,
	CategoryHobby,
	CategorySocial,
	CategoryFinance,
	CategoryMiscellaneous,
}

var hexColorPattern = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// ParseCategory parses a category name case-insensitively. Empty input yields miscellaneous.
func ParseCategory(s string) (Category, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return CategoryMiscellaneous, nil
	}
	c := Category(s)
	if !c.Valid() {
		return "", fmt.Errorf("invalid category: %s", s)
	}
	return c, nil
}

// Habit represents a tracked practice as returned by the backend
type Habit struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Color     string   `json:"color"`
	Category  Category `json:"category"`
	CreatedAt string   `json:"created_at"` // YYYY-MM-DD format
}

// Completion is the completed flag of one habit on one day
type Completion struct {
	HabitID   string `json:"habit_id"`
	Date      string `json:"date"` // YYYY-MM-DD format
	Completed bool   `json:"completed"`
}

// CompletionsByDate maps a day to the latest completion for that day.
// Values of this type are never modified in place; With returns a copy.
type CompletionsByDate map[string]Completion

// CollapseCompletions reduces raw completion records to one entry per date.
// Records are applied in the order given, so the last record for a date wins.
func CollapseCompletions(records []Completion) CompletionsByDate {
	out := make(CompletionsByDate, len(records))
	for _, c := range records {
		out[c.Date] = c
	}
	return out
}

// With returns a copy of m where the entry for c.Date is replaced by c.
func (m CompletionsByDate) With(c Completion) CompletionsByDate {
	out := make(CompletionsByDate, len(m)+1)
	for date, existing := range m {
		out[date] = existing
	}
	out[c.Date] = c
	return out
}

// Completed reports whether the habit is marked completed on date.
func (m CompletionsByDate) Completed(date string) bool {
	return m[date].Completed
}

// CompletedDates returns the completed dates in ascending order.
func (m CompletionsByDate) CompletedDates() []string {
	var dates []string
	for date, c := range m {
		if c.Completed {
			dates = append(dates, date)
		}
	}
	sort.Strings(dates)
	return dates
}

// ValidateHabitInput checks the fields a user supplies when creating or editing a habit.
func ValidateHabitInput(name, color string, category Category) error {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return fmt.Errorf("habit name cannot be empty")
	}
	if utf8.RuneCountInString(trimmed) > constants.MaxHabitNameLen {
		return fmt.Errorf("habit name must be at most %d characters", constants.MaxHabitNameLen)
	}
	if !hexColorPattern.MatchString(color) {
		return fmt.Errorf("invalid color %q (expected #RRGGBB)", color)
	}
	if !category.Valid() {
		return fmt.Errorf("invalid category: %s", category)
	}
	return nil
}
