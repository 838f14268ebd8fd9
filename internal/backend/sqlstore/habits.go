package sqlstore

import (
	"context"
	"database/sql"
	"strings"

	"github.com/julianstephens/sutra/internal/logger"
	"github.com/julianstephens/sutra/internal/models"
)

// GetHabits returns the caller's habits, oldest first.
func (a *Actor) GetHabits(ctx context.Context) ([]models.Habit, error) {
	if err := a.requireUser(ctx, "view habits"); err != nil {
		return nil, err
	}

	rows, err := a.store.query(ctx, a.store.db, `
		SELECT id, name, color, category, created_at
		FROM habits WHERE owner = ?
		ORDER BY created_at, name`, a.principal)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	habits := []models.Habit{}
	for rows.Next() {
		var h models.Habit
		var category string
		if err := rows.Scan(&h.ID, &h.Name, &h.Color, &category, &h.CreatedAt); err != nil {
			return nil, err
		}
		h.Category = models.Category(category)
		habits = append(habits, h)
	}
	return habits, wrapConnErr(rows.Err())
}

// CreateHabit stores a new habit owned by the caller and returns its id.
func (a *Actor) CreateHabit(ctx context.Context, name, color string, category models.Category) (string, error) {
	if err := a.requireUser(ctx, "create habits"); err != nil {
		return "", err
	}
	if err := models.ValidateHabitInput(name, color, category); err != nil {
		return "", err
	}

	s := a.store
	id := s.newID()
	_, err := s.exec(ctx, s.db, `
		INSERT INTO habits (id, owner, name, color, category, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		id, a.principal, strings.TrimSpace(name), color, string(category), s.today())
	if err != nil {
		return "", err
	}
	logger.Debug("Habit created", "id", id, "owner", a.principal)
	return id, nil
}

// UpdateHabit rewrites a habit the caller owns. It reports false when no such habit exists.
func (a *Actor) UpdateHabit(ctx context.Context, id, name, color string, category models.Category) (bool, error) {
	if err := a.requireUser(ctx, "update habits"); err != nil {
		return false, err
	}
	if err := models.ValidateHabitInput(name, color, category); err != nil {
		return false, err
	}

	res, err := a.store.exec(ctx, a.store.db, `
		UPDATE habits SET name = ?, color = ?, category = ?
		WHERE id = ? AND owner = ?`,
		strings.TrimSpace(name), color, string(category), id, a.principal)
	if err != nil {
		return false, err
	}
	return affected(res)
}

// DeleteHabit removes a habit the caller owns together with its completions.
func (a *Actor) DeleteHabit(ctx context.Context, id string) (bool, error) {
	if err := a.requireUser(ctx, "delete habits"); err != nil {
		return false, err
	}

	s := a.store
	var deleted bool
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		owned, err := a.owns(ctx, tx, id)
		if err != nil || !owned {
			return err
		}
		if _, err := s.exec(ctx, tx, `DELETE FROM completions WHERE habit_id = ?`, id); err != nil {
			return err
		}
		res, err := s.exec(ctx, tx, `DELETE FROM habits WHERE id = ? AND owner = ?`, id, a.principal)
		if err != nil {
			return err
		}
		deleted, err = affected(res)
		return err
	})
	return deleted, err
}

func (a *Actor) owns(ctx context.Context, q execer, habitID string) (bool, error) {
	var n int
	err := a.store.queryRow(ctx, q, `SELECT COUNT(*) FROM habits WHERE id = ? AND owner = ?`, habitID, a.principal).Scan(&n)
	if err != nil {
		return false, wrapConnErr(err)
	}
	return n > 0, nil
}

func affected(res sql.Result) (bool, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
