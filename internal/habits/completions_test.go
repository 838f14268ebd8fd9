package habits

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/julianstephens/sutra/internal/errors"
	"github.com/julianstephens/sutra/internal/models"
	"github.com/julianstephens/sutra/internal/query"
)

const today = "2026-03-08"

func seedHabit(t *testing.T, svc *Service, actor interface {
	AddHabit(models.Habit)
	AddCompletions(...models.Completion)
}) models.CompletionsByDate {
	t.Helper()
	actor.AddHabit(models.Habit{ID: "h1", Name: "Drink water", Color: "#22C55E", Category: models.CategoryHealth})
	actor.AddCompletions(
		models.Completion{HabitID: "h1", Date: "2026-03-06", Completed: true},
		models.Completion{HabitID: "h1", Date: "2026-03-07", Completed: true},
		models.Completion{HabitID: "h1", Date: today, Completed: false},
	)
	m, err := svc.Completions(context.Background(), "h1")
	require.NoError(t, err)
	return m
}

func TestMarkCompletionAppliesImmediately(t *testing.T) {
	svc, actor, _ := newTestService(t)
	before := seedHabit(t, svc, actor)

	pending, err := svc.BeginMarkCompletion("h1", today, true)
	require.NoError(t, err)

	cached, _ := svc.CachedCompletions("h1")
	assert.True(t, cached.Completed(today), "the toggle is visible before the backend answers")
	assert.Empty(t, actor.Calls("MarkCompletion"))
	assert.False(t, before.Completed(today), "the previous map is not modified in place")

	require.NoError(t, pending.Settle(context.Background()))
	assert.Len(t, actor.Calls("MarkCompletion"), 1)
}

func TestMarkCompletionSuccess(t *testing.T) {
	ctx := context.Background()
	svc, actor, src := newTestService(t)
	seedHabit(t, svc, actor)

	require.NoError(t, svc.MarkCompletion(ctx, "h1", today, true))

	cached, _ := svc.CachedCompletions("h1")
	assert.True(t, cached.Completed(today))
	assert.True(t, cached.Completed("2026-03-06"))
	assert.True(t, cached.Completed("2026-03-07"))

	st := src.cache.State(query.CompletionsKey("h1"))
	assert.False(t, st.Stale, "settlement does not invalidate the key")
	assert.Len(t, actor.Calls("GetHabitCompletions"), 1, "settlement does not refetch")
	assert.Equal(t, []any{"h1", today, true}, actor.Calls("MarkCompletion")[0].Args)
}

func TestMarkCompletionFailureRestoresSnapshot(t *testing.T) {
	ctx := context.Background()
	svc, actor, _ := newTestService(t)
	before := seedHabit(t, svc, actor)
	actor.Fail("MarkCompletion", errors.New("Unauthorized: Only users can mark completions"))

	err := svc.MarkCompletion(ctx, "h1", today, true)
	require.Error(t, err)
	assert.Equal(t, apperrors.Unauthorized, apperrors.Classify(err))

	after, _ := svc.CachedCompletions("h1")
	assert.Equal(t, before, after, "every entry, including other dates, is restored exactly")
	assert.False(t, after.Completed(today))
}

func TestMarkCompletionFalseResultRollsBack(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)

	err := svc.MarkCompletion(ctx, "unknown", today, true)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	_, ok := svc.CachedCompletions("unknown")
	assert.False(t, ok, "no entry existed before, so none remains")
}

func TestMarkCompletionRejectsBadDate(t *testing.T) {
	svc, actor, _ := newTestService(t)
	before := seedHabit(t, svc, actor)

	_, err := svc.BeginMarkCompletion("h1", "08/03/2026", true)
	assert.Error(t, err)

	after, _ := svc.CachedCompletions("h1")
	assert.Equal(t, before, after)
}

func TestSettleReappliesAfterInterleavedRead(t *testing.T) {
	ctx := context.Background()
	svc, actor, src := newTestService(t)
	before := seedHabit(t, svc, actor)

	pending, err := svc.BeginMarkCompletion("h1", today, true)
	require.NoError(t, err)

	// a read that started earlier lands between the optimistic write and the answer
	query.SetData(src.cache, query.CompletionsKey("h1"), before)

	require.NoError(t, pending.Settle(ctx))
	cached, _ := svc.CachedCompletions("h1")
	assert.True(t, cached.Completed(today))
}

func TestSettleRunsOnce(t *testing.T) {
	ctx := context.Background()
	svc, actor, _ := newTestService(t)
	seedHabit(t, svc, actor)

	pending, err := svc.BeginMarkCompletion("h1", today, true)
	require.NoError(t, err)
	require.NoError(t, pending.Settle(ctx))
	require.NoError(t, pending.Settle(ctx))
	assert.Len(t, actor.Calls("MarkCompletion"), 1)
	assert.Equal(t, models.Completion{HabitID: "h1", Date: today, Completed: true}, pending.Value())
}

// Two marks of the same date overlap. The second succeeds, then the first
// fails and restores a snapshot taken before either mark, so the cache shows
// the date incomplete although the backend recorded it.
func TestOverlappingMarksLastRestoreWins(t *testing.T) {
	ctx := context.Background()
	svc, actor, _ := newTestService(t)
	before := seedHabit(t, svc, actor)

	first, err := svc.BeginMarkCompletion("h1", today, true)
	require.NoError(t, err)
	second, err := svc.BeginMarkCompletion("h1", today, true)
	require.NoError(t, err)

	require.NoError(t, second.Settle(ctx))

	actor.Fail("MarkCompletion", errors.New("network error"))
	require.Error(t, first.Settle(ctx))

	cached, _ := svc.CachedCompletions("h1")
	assert.Equal(t, before, cached)
	assert.False(t, cached.Completed(today))

	actor.Fail("MarkCompletion", nil)
	backend, err := actor.GetHabitCompletions(ctx, "h1")
	require.NoError(t, err)
	assert.True(t, models.CollapseCompletions(backend).Completed(today))
}

func TestOverlappingTogglesSecondSnapshotSeesFirst(t *testing.T) {
	ctx := context.Background()
	svc, actor, _ := newTestService(t)
	seedHabit(t, svc, actor)

	first, err := svc.BeginMarkCompletion("h1", today, true)
	require.NoError(t, err)
	second, err := svc.BeginMarkCompletion("h1", today, false)
	require.NoError(t, err)

	require.NoError(t, first.Settle(ctx))
	actor.Fail("MarkCompletion", errors.New("network error"))
	require.Error(t, second.Settle(ctx))

	// the second snapshot held the first toggle's provisional value
	cached, _ := svc.CachedCompletions("h1")
	assert.True(t, cached.Completed(today))
}

func TestToggleCompletion(t *testing.T) {
	ctx := context.Background()
	svc, actor, _ := newTestService(t)
	seedHabit(t, svc, actor)

	require.NoError(t, svc.ToggleCompletion(ctx, "h1", today))
	cached, _ := svc.CachedCompletions("h1")
	assert.True(t, cached.Completed(today))

	require.NoError(t, svc.ToggleCompletion(ctx, "h1", today))
	cached, _ = svc.CachedCompletions("h1")
	assert.False(t, cached.Completed(today))

	calls := actor.Calls("MarkCompletion")
	require.Len(t, calls, 2)
	assert.Equal(t, true, calls[0].Args[2])
	assert.Equal(t, false, calls[1].Args[2])
}

func TestMarkCompletionWhileBackendBlocked(t *testing.T) {
	svc, actor, _ := newTestService(t)
	seedHabit(t, svc, actor)
	gate := actor.Block("MarkCompletion")

	done := make(chan error, 1)
	go func() {
		done <- svc.MarkCompletion(context.Background(), "h1", today, true)
	}()

	require.Eventually(t, func() bool {
		return len(actor.Calls("MarkCompletion")) == 1
	}, time.Second, time.Millisecond)

	cached, _ := svc.CachedCompletions("h1")
	assert.True(t, cached.Completed(today), "the optimistic value is shown while the call is pending")

	close(gate)
	require.NoError(t, <-done)
}
