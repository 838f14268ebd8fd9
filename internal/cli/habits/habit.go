package habits

import (
	"context"
	"fmt"
	"strings"

	"github.com/julianstephens/sutra/internal/calendar"
	"github.com/julianstephens/sutra/internal/cli"
	"github.com/julianstephens/sutra/internal/models"
	"github.com/julianstephens/sutra/internal/utils"
)

type HabitCmd struct {
	Add     HabitAddCmd     `cmd:"" help:"Add a new habit."`
	List    HabitListCmd    `cmd:"" help:"List habits."`
	Edit    HabitEditCmd    `cmd:"" help:"Edit a habit."`
	Delete  HabitDeleteCmd  `cmd:"" help:"Delete a habit and its completions."`
	Mark    HabitMarkCmd    `cmd:"" help:"Mark a habit as done for a day."`
	Today   HabitTodayCmd   `cmd:"" help:"Show the two-week strip of every habit."`
	History HabitHistoryCmd `cmd:"" help:"Show six months of completions for a habit."`
}

type HabitAddCmd struct {
	Name     string `arg:"" help:"Habit name."`
	Color    string `help:"Color as #RRGGBB (default: random preset)."`
	Category string `help:"Category (health, exercise, education, work, finance, social, mindfulness, miscellaneous)." default:"miscellaneous"`
}

func (c *HabitAddCmd) Run(ctx *cli.Context) error {
	category, err := models.ParseCategory(c.Category)
	if err != nil {
		return err
	}

	id, err := ctx.Habits.CreateHabit(context.Background(), c.Name, c.Color, category)
	if err != nil {
		return err
	}

	ctx.Printf("Added habit: %s (%s)\n", strings.TrimSpace(c.Name), id)
	return nil
}

type HabitListCmd struct{}

func (c *HabitListCmd) Run(ctx *cli.Context) error {
	habits, err := ctx.Habits.Habits(context.Background())
	if err != nil {
		return err
	}

	if len(habits) == 0 {
		ctx.Println("No habits found.")
		return nil
	}

	for _, h := range habits {
		ctx.Printf("%-*s  %-13s %s  %s\n", nameWidth, truncate(h.Name, nameWidth), h.Category, h.Color, h.ID)
	}
	return nil
}

type HabitEditCmd struct {
	Ref      string `arg:"" help:"Habit id or name."`
	Name     string `help:"New name."`
	Color    string `help:"New color as #RRGGBB."`
	Category string `help:"New category."`
}

func (c *HabitEditCmd) Run(ctx *cli.Context) error {
	bg := context.Background()
	habit, err := ctx.Habits.FindHabit(bg, c.Ref)
	if err != nil {
		return err
	}

	name, color, category := habit.Name, habit.Color, habit.Category
	if c.Name != "" {
		name = c.Name
	}
	if c.Color != "" {
		color = c.Color
	}
	if c.Category != "" {
		if category, err = models.ParseCategory(c.Category); err != nil {
			return err
		}
	}

	if err := ctx.Habits.UpdateHabit(bg, habit.ID, name, color, category); err != nil {
		return err
	}

	ctx.Printf("Updated habit: %s\n", strings.TrimSpace(name))
	return nil
}

type HabitDeleteCmd struct {
	Ref string `arg:"" help:"Habit id or name."`
}

func (c *HabitDeleteCmd) Run(ctx *cli.Context) error {
	bg := context.Background()
	habit, err := ctx.Habits.FindHabit(bg, c.Ref)
	if err != nil {
		return err
	}

	if err := ctx.Habits.DeleteHabit(bg, habit.ID); err != nil {
		return err
	}

	ctx.Printf("Deleted habit: %s\n", habit.Name)
	return nil
}

type HabitMarkCmd struct {
	Ref  string `arg:"" help:"Habit id or name."`
	Date string `help:"Date in YYYY-MM-DD format (default: today)."`
	Undo bool   `help:"Mark the day as not done."`
}

func (c *HabitMarkCmd) Run(ctx *cli.Context) error {
	bg := context.Background()
	habit, err := ctx.Habits.FindHabit(bg, c.Ref)
	if err != nil {
		return err
	}

	day := c.Date
	if day == "" {
		day = ctx.TodayString()
	} else if !utils.ValidateDateFormat(day) {
		return fmt.Errorf("invalid date format: %s (expected YYYY-MM-DD)", day)
	}

	if err := ctx.Habits.MarkCompletion(bg, habit.ID, day, !c.Undo); err != nil {
		return err
	}

	if c.Undo {
		ctx.Printf("Unmarked habit %q for %s\n", habit.Name, day)
	} else {
		ctx.Printf("Marked habit %q for %s\n", habit.Name, day)
	}
	return nil
}

type HabitTodayCmd struct{}

func (c *HabitTodayCmd) Run(ctx *cli.Context) error {
	bg := context.Background()
	habits, err := ctx.Habits.Habits(bg)
	if err != nil {
		return err
	}

	if len(habits) == 0 {
		ctx.Println("No habits found.")
		return nil
	}

	if err := ctx.Habits.PrefetchCompletions(bg, habits); err != nil {
		return err
	}

	strip := calendar.TwoWeekStrip(ctx.Today())
	today := strip.Today().Date
	ctx.Printf("Habits for %s:\n\n", today)

	done := 0
	for _, h := range habits {
		completions, _ := ctx.Habits.CachedCompletions(h.ID)
		if completions.Completed(today) {
			done++
		}
		renderStrip(ctx.Writer(), h, strip, completions)
		ctx.Println()
	}

	ctx.Printf("Completed today: %d/%d\n", done, len(habits))
	return nil
}

type HabitHistoryCmd struct {
	Ref string `arg:"" help:"Habit id or name."`
}

func (c *HabitHistoryCmd) Run(ctx *cli.Context) error {
	bg := context.Background()
	habit, err := ctx.Habits.FindHabit(bg, c.Ref)
	if err != nil {
		return err
	}

	completions, err := ctx.Habits.Completions(bg, habit.ID)
	if err != nil {
		return err
	}

	ctx.Printf("%s - last %d months\n\n", habit.Name, calendar.HistoryMonths)
	renderHistory(ctx.Writer(), calendar.SixMonthHistory(ctx.Today()), completions)
	ctx.Printf("Total completions: %d\n", len(completions.CompletedDates()))
	return nil
}
