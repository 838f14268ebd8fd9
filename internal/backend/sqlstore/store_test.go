package sqlstore

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	apperrors "github.com/julianstephens/sutra/internal/errors"
	"github.com/julianstephens/sutra/internal/models"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	s := NewSQLite(filepath.Join(t.TempDir(), "sutra.db"))
	s.now = func() time.Time { return time.Date(2026, time.March, 8, 9, 30, 0, 0, time.UTC) }
	if err := s.Init(context.Background(), nil); err != nil {
		t.Fatalf("Init() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func connect(t *testing.T, s *Store, principal string) *Actor {
	t.Helper()
	actor, err := s.Connect(context.Background(), models.Identity{Principal: principal})
	if err != nil {
		t.Fatalf("Connect(%q) failed: %v", principal, err)
	}
	return actor.(*Actor)
}

func register(t *testing.T, a *Actor) {
	t.Helper()
	if err := a.AssignCallerUserRole(context.Background(), a.Principal(), models.RoleUser); err != nil {
		t.Fatalf("self registration failed: %v", err)
	}
}

func TestLoadRequiresInit(t *testing.T) {
	s := NewSQLite(filepath.Join(t.TempDir(), "missing.db"))
	if err := s.Load(context.Background()); err == nil {
		t.Fatal("Load() on a missing database should fail")
	}
}

func TestInitThenLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "sutra.db")
	ctx := context.Background()

	s := NewSQLite(path)
	if err := s.Init(ctx, nil); err != nil {
		t.Fatalf("Init() failed: %v", err)
	}
	s.Close()

	reopened := NewSQLite(path)
	defer reopened.Close()
	if err := reopened.Load(ctx); err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	st, err := reopened.SchemaStatus(ctx)
	if err != nil {
		t.Fatalf("SchemaStatus() failed: %v", err)
	}
	if !st.UpToDate() || st.Current != st.Latest {
		t.Errorf("unexpected schema status %+v", st)
	}
	if reopened.Location() != path {
		t.Errorf("Location() = %q, want %q", reopened.Location(), path)
	}
}

func TestConnectBeforeOpen(t *testing.T) {
	s := NewSQLite(filepath.Join(t.TempDir(), "sutra.db"))
	_, err := s.Connect(context.Background(), models.Identity{Principal: "alice"})
	if !errors.Is(err, apperrors.ErrClientNotReady) {
		t.Errorf("Connect() error = %v, want ErrClientNotReady", err)
	}
}

func TestRoleAssignment(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)
	alice := connect(t, s, "alice")
	bob := connect(t, s, "bob")
	anon := connect(t, s, "")

	if role, _ := alice.GetCallerUserRole(ctx); role != models.RoleGuest {
		t.Fatalf("unregistered role = %q, want guest", role)
	}

	// the first registration bootstraps the admin
	register(t, alice)
	if admin, _ := alice.IsCallerAdmin(ctx); !admin {
		t.Fatal("first registered principal should be admin")
	}

	// registering again never downgrades
	register(t, alice)
	if role, _ := alice.GetCallerUserRole(ctx); role != models.RoleAdmin {
		t.Errorf("role after repeat registration = %q, want admin", role)
	}

	register(t, bob)
	if role, _ := bob.GetCallerUserRole(ctx); role != models.RoleUser {
		t.Errorf("second principal role = %q, want user", role)
	}

	if err := bob.AssignCallerUserRole(ctx, "carol", models.RoleUser); !errors.Is(err, apperrors.ErrUnauthorized) {
		t.Errorf("non-admin assigning another principal: error = %v, want ErrUnauthorized", err)
	}
	if err := bob.AssignCallerUserRole(ctx, "bob", models.RoleAdmin); !errors.Is(err, apperrors.ErrUnauthorized) {
		t.Errorf("non-admin self-promotion: error = %v, want ErrUnauthorized", err)
	}

	if err := alice.AssignCallerUserRole(ctx, "bob", models.RoleAdmin); err != nil {
		t.Fatalf("admin assignment failed: %v", err)
	}
	if admin, _ := bob.IsCallerAdmin(ctx); !admin {
		t.Error("bob should be admin after promotion")
	}

	if err := anon.AssignCallerUserRole(ctx, models.Anonymous().Principal, models.RoleUser); !errors.Is(err, apperrors.ErrUnauthorized) {
		t.Errorf("anonymous registration: error = %v, want ErrUnauthorized", err)
	}
	if err := alice.AssignCallerUserRole(ctx, "bob", models.UserRole("owner")); err == nil {
		t.Error("unknown role should be rejected")
	}
}

func TestGuestIsUnauthorized(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)
	guest := connect(t, s, "guest-principal")

	_, err := guest.CreateHabit(ctx, "Drink water", "#22C55E", models.CategoryHealth)
	if !errors.Is(err, apperrors.ErrUnauthorized) {
		t.Fatalf("CreateHabit() as guest error = %v, want ErrUnauthorized", err)
	}
	if apperrors.Classify(err) != apperrors.Unauthorized {
		t.Errorf("Classify() = %v, want Unauthorized", apperrors.Classify(err))
	}
	if _, err := guest.GetHabits(ctx); !errors.Is(err, apperrors.ErrUnauthorized) {
		t.Errorf("GetHabits() as guest error = %v, want ErrUnauthorized", err)
	}
}

func TestHabitLifecycle(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)
	ids := 0
	s.newID = func() string {
		ids++
		return fmt.Sprintf("habit-%d", ids)
	}
	alice := connect(t, s, "alice")
	register(t, alice)

	id, err := alice.CreateHabit(ctx, "  Drink water ", "#22C55E", models.CategoryHealth)
	if err != nil {
		t.Fatalf("CreateHabit() failed: %v", err)
	}
	if id != "habit-1" {
		t.Errorf("CreateHabit() id = %q", id)
	}

	habits, err := alice.GetHabits(ctx)
	if err != nil {
		t.Fatalf("GetHabits() failed: %v", err)
	}
	want := models.Habit{ID: "habit-1", Name: "Drink water", Color: "#22C55E", Category: models.CategoryHealth, CreatedAt: "2026-03-08"}
	if len(habits) != 1 || habits[0] != want {
		t.Fatalf("GetHabits() = %+v, want [%+v]", habits, want)
	}

	ok, err := alice.UpdateHabit(ctx, id, "Drink more water", "#3B82F6", models.CategoryHealth)
	if err != nil || !ok {
		t.Fatalf("UpdateHabit() = %v, %v", ok, err)
	}
	ok, err = alice.UpdateHabit(ctx, "missing", "Name", "#3B82F6", models.CategoryHealth)
	if err != nil || ok {
		t.Errorf("UpdateHabit() on missing habit = %v, %v", ok, err)
	}
	if _, err := alice.UpdateHabit(ctx, id, "", "#3B82F6", models.CategoryHealth); err == nil {
		t.Error("UpdateHabit() with empty name should fail")
	}

	ok, err = alice.DeleteHabit(ctx, id)
	if err != nil || !ok {
		t.Fatalf("DeleteHabit() = %v, %v", ok, err)
	}
	ok, err = alice.DeleteHabit(ctx, id)
	if err != nil || ok {
		t.Errorf("second DeleteHabit() = %v, %v", ok, err)
	}
}

func TestHabitsAreOwnerScoped(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)
	alice := connect(t, s, "alice")
	bob := connect(t, s, "bob")
	register(t, alice)
	register(t, bob)

	id, err := alice.CreateHabit(ctx, "Read", "#A855F7", models.CategoryEducation)
	if err != nil {
		t.Fatalf("CreateHabit() failed: %v", err)
	}

	if habits, _ := bob.GetHabits(ctx); len(habits) != 0 {
		t.Errorf("bob sees %d habits, want 0", len(habits))
	}
	if ok, _ := bob.UpdateHabit(ctx, id, "Mine now", "#A855F7", models.CategoryEducation); ok {
		t.Error("bob updated alice's habit")
	}
	if ok, _ := bob.MarkCompletion(ctx, id, "2026-03-08", true); ok {
		t.Error("bob marked alice's habit")
	}
	if ok, _ := bob.DeleteHabit(ctx, id); ok {
		t.Error("bob deleted alice's habit")
	}
	if records, _ := bob.GetHabitCompletions(ctx, id); len(records) != 0 {
		t.Errorf("bob sees %d completions", len(records))
	}
}

func TestCompletionsAreAppendOnly(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)
	alice := connect(t, s, "alice")
	register(t, alice)

	id, err := alice.CreateHabit(ctx, "Stretch", "#10B981", models.CategoryExercise)
	if err != nil {
		t.Fatalf("CreateHabit() failed: %v", err)
	}

	marks := []struct {
		date      string
		completed bool
	}{
		{"2026-03-07", true},
		{"2026-03-08", true},
		{"2026-03-08", false},
		{"2026-03-08", true},
	}
	for _, m := range marks {
		ok, err := alice.MarkCompletion(ctx, id, m.date, m.completed)
		if err != nil || !ok {
			t.Fatalf("MarkCompletion(%s) = %v, %v", m.date, ok, err)
		}
	}

	records, err := alice.GetHabitCompletions(ctx, id)
	if err != nil {
		t.Fatalf("GetHabitCompletions() failed: %v", err)
	}
	if len(records) != len(marks) {
		t.Fatalf("got %d records, want %d", len(records), len(marks))
	}
	for i, m := range marks {
		if records[i].Date != m.date || records[i].Completed != m.completed || records[i].HabitID != id {
			t.Errorf("records[%d] = %+v", i, records[i])
		}
	}

	collapsed := models.CollapseCompletions(records)
	if !collapsed.Completed("2026-03-08") || len(collapsed) != 2 {
		t.Errorf("collapsed = %+v", collapsed)
	}

	if _, err := alice.MarkCompletion(ctx, id, "03/08/2026", true); err == nil {
		t.Error("MarkCompletion() with a malformed date should fail")
	}

	if ok, _ := alice.DeleteHabit(ctx, id); !ok {
		t.Fatal("DeleteHabit() failed")
	}
	var left int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM completions WHERE habit_id = ?`, id).Scan(&left); err != nil {
		t.Fatalf("count completions: %v", err)
	}
	if left != 0 {
		t.Errorf("%d completions left after delete", left)
	}
}

func TestProfiles(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)
	alice := connect(t, s, "alice")
	bob := connect(t, s, "bob")
	register(t, alice)
	register(t, bob)

	profile, err := alice.GetCallerUserProfile(ctx)
	if err != nil || profile != nil {
		t.Fatalf("GetCallerUserProfile() before save = %+v, %v", profile, err)
	}
	if _, ok, err := alice.GetDisplayName(ctx); err != nil || ok {
		t.Fatalf("GetDisplayName() before save = %v, %v", ok, err)
	}

	if err := alice.SaveCallerUserProfile(ctx, models.UserProfile{DisplayName: "Alice"}); err != nil {
		t.Fatalf("SaveCallerUserProfile() failed: %v", err)
	}
	if err := alice.SetDisplayName(ctx, "  Alice L. "); err != nil {
		t.Fatalf("SetDisplayName() failed: %v", err)
	}
	name, ok, err := alice.GetDisplayName(ctx)
	if err != nil || !ok || name != "Alice L." {
		t.Errorf("GetDisplayName() = %q, %v, %v", name, ok, err)
	}
	if err := alice.SetDisplayName(ctx, "   "); err == nil {
		t.Error("SetDisplayName() with a blank name should fail")
	}

	// alice is admin, bob is not
	if p, err := alice.GetUserProfile(ctx, "bob"); err != nil || p != nil {
		t.Errorf("admin GetUserProfile(bob) = %+v, %v", p, err)
	}
	if _, err := bob.GetUserProfile(ctx, "alice"); !errors.Is(err, apperrors.ErrUnauthorized) {
		t.Errorf("non-admin GetUserProfile(alice) error = %v, want ErrUnauthorized", err)
	}
}

func TestWrapConnErr(t *testing.T) {
	if wrapConnErr(nil) != nil {
		t.Error("wrapConnErr(nil) should be nil")
	}
	plain := errors.New("syntax error")
	if wrapConnErr(plain) != plain {
		t.Error("wrapConnErr() changed a non-transport error")
	}
	wrapped := wrapConnErr(fmt.Errorf("dial: %w", driver.ErrBadConn))
	if !errors.Is(wrapped, apperrors.ErrConnectivity) {
		t.Errorf("wrapConnErr() = %v, want ErrConnectivity", wrapped)
	}
	if again := wrapConnErr(wrapped); again != wrapped {
		t.Error("wrapConnErr() wrapped twice")
	}
}

func TestPing(t *testing.T) {
	ctx := context.Background()
	missing := NewSQLite(filepath.Join(t.TempDir(), "missing.db"))
	if err := missing.Ping(ctx); err == nil {
		t.Error("Ping() on an uninitialized database should fail")
	}
	if _, err := missing.SchemaStatus(ctx); err == nil {
		t.Error("SchemaStatus() on a closed store should fail")
	}

	s := setupTestStore(t)
	if err := s.Ping(ctx); err != nil {
		t.Errorf("Ping() failed: %v", err)
	}
}
