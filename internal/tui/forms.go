package tui

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/sutra/internal/constants"
	"github.com/julianstephens/sutra/internal/models"
)

type HabitFormModel struct {
	// ID is empty when creating.
	ID       string
	Name     string
	Color    string
	Category models.Category
}

type DisplayNameFormModel struct {
	Name string
}

func validateHabitName(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return fmt.Errorf("habit name cannot be empty")
	}
	if utf8.RuneCountInString(s) > constants.MaxHabitNameLen {
		return fmt.Errorf("habit name must be at most %d characters", constants.MaxHabitNameLen)
	}
	return nil
}

func colorOptions() []huh.Option[string] {
	opts := make([]huh.Option[string], len(constants.PresetColors))
	for i, c := range constants.PresetColors {
		swatch := lipgloss.NewStyle().Foreground(lipgloss.Color(c)).Render("■")
		opts[i] = huh.NewOption(swatch+" "+c, c)
	}
	return opts
}

func categoryOptions() []huh.Option[models.Category] {
	opts := make([]huh.Option[models.Category], len(models.Categories))
	for i, c := range models.Categories {
		opts[i] = huh.NewOption(string(c), c)
	}
	return opts
}

// NewHabitForm creates the form for adding or editing a habit
func NewHabitForm(fm *HabitFormModel) *huh.Form {
	title := "New Habit"
	if fm.ID != "" {
		title = "Edit Habit"
	}
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title(title).
				Placeholder("Habit name").
				CharLimit(constants.MaxHabitNameLen).
				Value(&fm.Name).
				Validate(validateHabitName),
			huh.NewSelect[string]().
				Title("Color").
				Options(colorOptions()...).
				Value(&fm.Color),
			huh.NewSelect[models.Category]().
				Title("Category").
				Options(categoryOptions()...).
				Value(&fm.Category),
		),
	).WithTheme(huh.ThemeDracula())
}

// NewDisplayNameForm creates the form for changing the display name
func NewDisplayNameForm(fm *DisplayNameFormModel) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Display Name").
				Value(&fm.Name).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("display name cannot be empty")
					}
					return nil
				}),
		),
	).WithTheme(huh.ThemeDracula())
}
