// Package testutil provides in-memory backend doubles for tests.
package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/julianstephens/sutra/internal/backend"
	"github.com/julianstephens/sutra/internal/models"
)

// Call records one invocation of a FakeActor method
type Call struct {
	Method string
	Args   []any
}

// FakeActor is an in-memory backend.Actor that records calls and can be told
// to fail or block individual methods.
type FakeActor struct {
	mu          sync.Mutex
	habits      []models.Habit
	completions map[string][]models.Completion
	profile     *models.UserProfile
	others      map[string]models.UserProfile
	role        models.UserRole
	calls       []Call
	errs        map[string]error
	gates       map[string]chan struct{}
	nextID      int
}

var _ backend.Actor = (*FakeActor)(nil)

// NewFakeActor returns an empty actor whose caller holds the user role.
func NewFakeActor() *FakeActor {
	return &FakeActor{
		completions: make(map[string][]models.Completion),
		others:      make(map[string]models.UserProfile),
		role:        models.RoleUser,
		errs:        make(map[string]error),
		gates:       make(map[string]chan struct{}),
	}
}

// Fail makes every later call to method return err. A nil err clears it.
func (f *FakeActor) Fail(method string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err == nil {
		delete(f.errs, method)
		return
	}
	f.errs[method] = err
}

// Block makes calls to method wait until the returned channel is closed.
func (f *FakeActor) Block(method string) chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	gate := make(chan struct{})
	f.gates[method] = gate
	return gate
}

// AddHabit seeds a habit.
func (f *FakeActor) AddHabit(h models.Habit) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.habits = append(f.habits, h)
}

// AddCompletions seeds raw completion records in response order.
func (f *FakeActor) AddCompletions(records ...models.Completion) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range records {
		f.completions[c.HabitID] = append(f.completions[c.HabitID], c)
	}
}

// AddUserProfile seeds the profile GetUserProfile returns for principal.
func (f *FakeActor) AddUserProfile(principal string, p models.UserProfile) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.others[principal] = p
}

// SetRole sets the caller's role.
func (f *FakeActor) SetRole(role models.UserRole) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.role = role
}

// Calls returns the recorded calls of method.
func (f *FakeActor) Calls(method string) []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Call
	for _, c := range f.calls {
		if c.Method == method {
			out = append(out, c)
		}
	}
	return out
}

// record logs the call, waits on any gate, and returns the injected error.
func (f *FakeActor) record(ctx context.Context, method string, args ...any) error {
	f.mu.Lock()
	f.calls = append(f.calls, Call{Method: method, Args: args})
	gate := f.gates[method]
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	return f.errs[method]
}

func (f *FakeActor) GetHabits(ctx context.Context) ([]models.Habit, error) {
	if err := f.record(ctx, "GetHabits"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.Habit{}, f.habits...), nil
}

func (f *FakeActor) CreateHabit(ctx context.Context, name, color string, category models.Category) (string, error) {
	if err := f.record(ctx, "CreateHabit", name, color, category); err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	id := fmt.Sprintf("habit-%d", f.nextID)
	f.habits = append(f.habits, models.Habit{ID: id, Name: name, Color: color, Category: category})
	return id, nil
}

func (f *FakeActor) UpdateHabit(ctx context.Context, id, name, color string, category models.Category) (bool, error) {
	if err := f.record(ctx, "UpdateHabit", id, name, color, category); err != nil {
		return false, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.habits {
		if f.habits[i].ID == id {
			f.habits[i].Name, f.habits[i].Color, f.habits[i].Category = name, color, category
			return true, nil
		}
	}
	return false, nil
}

func (f *FakeActor) DeleteHabit(ctx context.Context, id string) (bool, error) {
	if err := f.record(ctx, "DeleteHabit", id); err != nil {
		return false, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.habits {
		if f.habits[i].ID == id {
			f.habits = append(f.habits[:i], f.habits[i+1:]...)
			delete(f.completions, id)
			return true, nil
		}
	}
	return false, nil
}

func (f *FakeActor) GetHabitCompletions(ctx context.Context, habitID string) ([]models.Completion, error) {
	if err := f.record(ctx, "GetHabitCompletions", habitID); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.Completion{}, f.completions[habitID]...), nil
}

func (f *FakeActor) MarkCompletion(ctx context.Context, habitID, date string, completed bool) (bool, error) {
	if err := f.record(ctx, "MarkCompletion", habitID, date, completed); err != nil {
		return false, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, h := range f.habits {
		if h.ID == habitID {
			f.completions[habitID] = append(f.completions[habitID], models.Completion{HabitID: habitID, Date: date, Completed: completed})
			return true, nil
		}
	}
	return false, nil
}

func (f *FakeActor) GetCallerUserProfile(ctx context.Context) (*models.UserProfile, error) {
	if err := f.record(ctx, "GetCallerUserProfile"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.profile == nil {
		return nil, nil
	}
	p := *f.profile
	return &p, nil
}

func (f *FakeActor) SaveCallerUserProfile(ctx context.Context, profile models.UserProfile) error {
	if err := f.record(ctx, "SaveCallerUserProfile", profile); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.profile = &profile
	return nil
}

func (f *FakeActor) GetUserProfile(ctx context.Context, principal string) (*models.UserProfile, error) {
	if err := f.record(ctx, "GetUserProfile", principal); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.others[principal]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (f *FakeActor) GetDisplayName(ctx context.Context) (string, bool, error) {
	if err := f.record(ctx, "GetDisplayName"); err != nil {
		return "", false, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.profile == nil {
		return "", false, nil
	}
	return f.profile.DisplayName, true, nil
}

func (f *FakeActor) SetDisplayName(ctx context.Context, name string) error {
	if err := f.record(ctx, "SetDisplayName", name); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.profile = &models.UserProfile{DisplayName: name}
	return nil
}

func (f *FakeActor) GetCallerUserRole(ctx context.Context) (models.UserRole, error) {
	if err := f.record(ctx, "GetCallerUserRole"); err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.role, nil
}

func (f *FakeActor) AssignCallerUserRole(ctx context.Context, principal string, role models.UserRole) error {
	if err := f.record(ctx, "AssignCallerUserRole", principal, role); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.role != models.RoleAdmin {
		f.role = role
	}
	return nil
}

func (f *FakeActor) IsCallerAdmin(ctx context.Context) (bool, error) {
	if err := f.record(ctx, "IsCallerAdmin"); err != nil {
		return false, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.role == models.RoleAdmin, nil
}

// FakeConnector hands out one FakeActor per principal.
type FakeConnector struct {
	mu     sync.Mutex
	actors map[string]*FakeActor
	err    error
}

var _ backend.Connector = (*FakeConnector)(nil)

func NewFakeConnector() *FakeConnector {
	return &FakeConnector{actors: make(map[string]*FakeActor)}
}

// Fail makes Connect return err. A nil err clears it.
func (c *FakeConnector) Fail(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.err = err
}

// ActorFor returns the actor for principal, creating it if needed.
func (c *FakeConnector) ActorFor(principal string) *FakeActor {
	c.mu.Lock()
	defer c.mu.Unlock()
	a, ok := c.actors[principal]
	if !ok {
		a = NewFakeActor()
		c.actors[principal] = a
	}
	return a
}

func (c *FakeConnector) Connect(_ context.Context, identity models.Identity) (backend.Actor, error) {
	c.mu.Lock()
	err := c.err
	c.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return c.ActorFor(identity.Principal), nil
}
