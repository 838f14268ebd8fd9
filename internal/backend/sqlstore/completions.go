package sqlstore

import (
	"context"
	"fmt"

	"github.com/julianstephens/sutra/internal/models"
	"github.com/julianstephens/sutra/internal/utils"
)

// GetHabitCompletions returns every completion record for a habit the caller
// owns, in the order they were recorded. A date may appear more than once.
func (a *Actor) GetHabitCompletions(ctx context.Context, habitID string) ([]models.Completion, error) {
	if err := a.requireUser(ctx, "view completions"); err != nil {
		return nil, err
	}

	rows, err := a.store.query(ctx, a.store.db, `
		SELECT c.habit_id, c.date, c.completed
		FROM completions c
		JOIN habits h ON h.id = c.habit_id
		WHERE c.habit_id = ? AND h.owner = ?
		ORDER BY c.seq`, habitID, a.principal)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	completions := []models.Completion{}
	for rows.Next() {
		var c models.Completion
		if err := rows.Scan(&c.HabitID, &c.Date, &c.Completed); err != nil {
			return nil, err
		}
		completions = append(completions, c)
	}
	return completions, wrapConnErr(rows.Err())
}

// MarkCompletion records the completed flag for one day of a habit the caller owns.
func (a *Actor) MarkCompletion(ctx context.Context, habitID, date string, completed bool) (bool, error) {
	if err := a.requireUser(ctx, "mark completions"); err != nil {
		return false, err
	}
	if !utils.ValidateDateFormat(date) {
		return false, fmt.Errorf("invalid date %q (expected YYYY-MM-DD)", date)
	}

	s := a.store
	owned, err := a.owns(ctx, s.db, habitID)
	if err != nil || !owned {
		return false, err
	}

	_, err = s.exec(ctx, s.db, `
		INSERT INTO completions (habit_id, date, completed, recorded_at)
		VALUES (?, ?, ?, ?)`, habitID, date, completed, s.now().UTC())
	if err != nil {
		return false, err
	}
	return true, nil
}
