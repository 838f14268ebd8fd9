package habits

import (
	"context"
	"fmt"
	"sync"

	"github.com/julianstephens/sutra/internal/backend"
	apperrors "github.com/julianstephens/sutra/internal/errors"
	"github.com/julianstephens/sutra/internal/logger"
	"github.com/julianstephens/sutra/internal/models"
	"github.com/julianstephens/sutra/internal/query"
	"github.com/julianstephens/sutra/internal/utils"
)

// Completions returns the date-to-completion map for habitID. The backend may
// return several records per date; the last one in response order wins.
func (s *Service) Completions(ctx context.Context, habitID string) (models.CompletionsByDate, error) {
	actor, ok := s.src.Actor()
	if !ok || habitID == "" {
		return nil, nil
	}
	return query.Fetch(ctx, s.cache(), query.CompletionsKey(habitID), func(ctx context.Context) (models.CompletionsByDate, error) {
		records, err := actor.GetHabitCompletions(ctx, habitID)
		if err != nil {
			return nil, err
		}
		return models.CollapseCompletions(records), nil
	})
}

// CachedCompletions returns the cached completions for habitID without fetching.
func (s *Service) CachedCompletions(habitID string) (models.CompletionsByDate, bool) {
	return query.GetData[models.CompletionsByDate](s.cache(), query.CompletionsKey(habitID))
}

func (s *Service) completionUpdates() *query.Optimistic[query.Key, models.CompletionsByDate] {
	return query.NewOptimistic(query.Typed[models.CompletionsByDate](s.cache()))
}

func setCompletion(c models.Completion) func(models.CompletionsByDate, bool) models.CompletionsByDate {
	return func(current models.CompletionsByDate, _ bool) models.CompletionsByDate {
		return current.With(c)
	}
}

// PendingCompletion is a completion mark that is already visible in the cache
// but not yet confirmed by the backend.
type PendingCompletion struct {
	actor backend.Actor
	opt   *query.Optimistic[query.Key, models.CompletionsByDate]
	key   query.Key
	snap  query.Snapshot[models.CompletionsByDate]
	value models.Completion

	once sync.Once
	err  error
}

// Value returns the provisional completion.
func (p *PendingCompletion) Value() models.Completion {
	return p.value
}

// BeginMarkCompletion snapshots the cached completions of habitID and writes
// the new value for date. Entries for other dates are left untouched. The
// backend is not called until Settle.
func (s *Service) BeginMarkCompletion(habitID, date string, completed bool) (*PendingCompletion, error) {
	actor, err := s.actor()
	if err != nil {
		return nil, err
	}
	if !utils.ValidateDateFormat(date) {
		return nil, fmt.Errorf("invalid date %q (expected YYYY-MM-DD)", date)
	}

	p := &PendingCompletion{
		actor: actor,
		opt:   s.completionUpdates(),
		key:   query.CompletionsKey(habitID),
		value: models.Completion{HabitID: habitID, Date: date, Completed: completed},
	}
	p.snap = p.opt.Snapshot(p.key)
	p.opt.Apply(p.key, setCompletion(p.value))
	return p, nil
}

// Settle sends the mark to the backend. On success the value is written
// again, replacing anything a concurrent read stored meanwhile. On failure
// the snapshot taken by BeginMarkCompletion is restored and the error is
// returned. Neither outcome invalidates the key. Settle runs at most once.
func (p *PendingCompletion) Settle(ctx context.Context) error {
	p.once.Do(func() {
		v := p.value
		ok, err := p.actor.MarkCompletion(ctx, v.HabitID, v.Date, v.Completed)
		if err == nil && !ok {
			err = fmt.Errorf("habit %s: %w", v.HabitID, apperrors.ErrNotFound)
		}
		p.opt.Reconcile(p.key, p.snap, err, setCompletion(v))
		log := logger.With("habit", v.HabitID, "date", v.Date, "completed", v.Completed)
		if err != nil {
			log.Error("Failed to mark completion", "error", err)
		} else {
			log.Debug("Completion marked")
		}
		p.err = err
	})
	return p.err
}

// MarkCompletion sets the completed flag of habitID on date with an optimistic cache update.
func (s *Service) MarkCompletion(ctx context.Context, habitID, date string, completed bool) error {
	p, err := s.BeginMarkCompletion(habitID, date, completed)
	if err != nil {
		return err
	}
	return p.Settle(ctx)
}

// ToggleCompletion marks date as the opposite of its cached state.
func (s *Service) ToggleCompletion(ctx context.Context, habitID, date string) error {
	current, _ := s.CachedCompletions(habitID)
	return s.MarkCompletion(ctx, habitID, date, !current.Completed(date))
}
