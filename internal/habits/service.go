// Package habits holds the read operations and mutations the front ends use.
// Reads go through the session's query cache; mutations call the backend and
// then invalidate or rewrite the affected cache entries.
package habits

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/julianstephens/sutra/internal/backend"
	"github.com/julianstephens/sutra/internal/constants"
	apperrors "github.com/julianstephens/sutra/internal/errors"
	"github.com/julianstephens/sutra/internal/logger"
	"github.com/julianstephens/sutra/internal/models"
	"github.com/julianstephens/sutra/internal/query"
)

// prefetchLimit caps concurrent completion reads.
const prefetchLimit = 4

// Source provides the actor, identity, and cache of the current session
type Source interface {
	Actor() (backend.Actor, bool)
	Identity() (models.Identity, bool)
	Cache() *query.Client
}

// Service runs habit reads and mutations against a Source
type Service struct {
	src Source

	// PickColor chooses a color when a habit is created without one.
	PickColor func() string
}

// NewService returns a service bound to src.
func NewService(src Source) *Service {
	return &Service{
		src:       src,
		PickColor: RandomPresetColor,
	}
}

// RandomPresetColor returns one of the preset colors at random.
func RandomPresetColor() string {
	return constants.PresetColors[rand.IntN(len(constants.PresetColors))]
}

func (s *Service) cache() *query.Client {
	return s.src.Cache()
}

// actor returns the backend actor for mutations, which are never queued.
func (s *Service) actor() (backend.Actor, error) {
	actor, ok := s.src.Actor()
	if !ok {
		return nil, apperrors.ErrClientNotReady
	}
	return actor, nil
}

// Habits returns the habit list. It returns nil without error while no actor is connected.
func (s *Service) Habits(ctx context.Context) ([]models.Habit, error) {
	actor, ok := s.src.Actor()
	if !ok {
		return nil, nil
	}
	return query.Fetch(ctx, s.cache(), query.HabitsKey(), actor.GetHabits)
}

// CachedHabits returns the cached habit list without fetching.
func (s *Service) CachedHabits() ([]models.Habit, bool) {
	return query.GetData[[]models.Habit](s.cache(), query.HabitsKey())
}

// FindHabit resolves ref as a habit id or, failing that, an exact name.
func (s *Service) FindHabit(ctx context.Context, ref string) (models.Habit, error) {
	habits, err := s.Habits(ctx)
	if err != nil {
		return models.Habit{}, err
	}
	for _, h := range habits {
		if h.ID == ref {
			return h, nil
		}
	}
	for _, h := range habits {
		if strings.EqualFold(h.Name, ref) {
			return h, nil
		}
	}
	return models.Habit{}, fmt.Errorf("habit %q: %w", ref, apperrors.ErrNotFound)
}

// CreateHabit creates a habit and invalidates the habit list. An empty color
// picks a random preset.
func (s *Service) CreateHabit(ctx context.Context, name, color string, category models.Category) (string, error) {
	actor, err := s.actor()
	if err != nil {
		return "", err
	}
	name = strings.TrimSpace(name)
	if color == "" {
		color = s.PickColor()
	}
	if err := models.ValidateHabitInput(name, color, category); err != nil {
		return "", err
	}

	id, err := actor.CreateHabit(ctx, name, color, category)
	if err != nil {
		logger.Error("Failed to create habit", "name", name, "error", err)
		return "", err
	}
	s.cache().Invalidate(query.HabitsKey())
	logger.Debug("Habit created", "id", id)
	return id, nil
}

// UpdateHabit rewrites a habit and invalidates the habit list.
func (s *Service) UpdateHabit(ctx context.Context, id, name, color string, category models.Category) error {
	actor, err := s.actor()
	if err != nil {
		return err
	}
	name = strings.TrimSpace(name)
	if err := models.ValidateHabitInput(name, color, category); err != nil {
		return err
	}

	ok, err := actor.UpdateHabit(ctx, id, name, color, category)
	if err != nil {
		logger.Error("Failed to update habit", "id", id, "error", err)
		return err
	}
	if !ok {
		return fmt.Errorf("habit %s: %w", id, apperrors.ErrNotFound)
	}
	s.cache().Invalidate(query.HabitsKey())
	return nil
}

// DeleteHabit deletes a habit, invalidates the habit list, and drops its completions.
func (s *Service) DeleteHabit(ctx context.Context, id string) error {
	actor, err := s.actor()
	if err != nil {
		return err
	}

	ok, err := actor.DeleteHabit(ctx, id)
	if err != nil {
		logger.Error("Failed to delete habit", "id", id, "error", err)
		return err
	}
	if !ok {
		return fmt.Errorf("habit %s: %w", id, apperrors.ErrNotFound)
	}
	s.cache().Invalidate(query.HabitsKey())
	s.cache().RemoveData(query.CompletionsKey(id))
	return nil
}

// PrefetchCompletions loads the completions of several habits concurrently.
// It returns the first error; the other reads still complete.
func (s *Service) PrefetchCompletions(ctx context.Context, habits []models.Habit) error {
	var g errgroup.Group
	g.SetLimit(prefetchLimit)
	for _, h := range habits {
		g.Go(func() error {
			_, err := s.Completions(ctx, h.ID)
			return err
		})
	}
	return g.Wait()
}

// RefreshHabitData marks the habit list and the completions of every habit
// stale, so the next reads refetch them.
func (s *Service) RefreshHabitData() {
	s.cache().Invalidate(query.HabitsKey())
	s.cache().InvalidateName(constants.QueryCompletions)
}
