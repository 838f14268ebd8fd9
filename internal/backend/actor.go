// Package backend defines the remote data contract the client cache talks to.
// An Actor is bound to one caller principal; every call may fail and callers
// classify failures with the errors package.
package backend

import (
	"context"

	"github.com/julianstephens/sutra/internal/models"
)

// Actor is the capability object for one caller
type Actor interface {
	GetHabits(ctx context.Context) ([]models.Habit, error)
	CreateHabit(ctx context.Context, name, color string, category models.Category) (string, error)
	UpdateHabit(ctx context.Context, id, name, color string, category models.Category) (bool, error)
	DeleteHabit(ctx context.Context, id string) (bool, error)

	GetHabitCompletions(ctx context.Context, habitID string) ([]models.Completion, error)
	MarkCompletion(ctx context.Context, habitID, date string, completed bool) (bool, error)

	GetCallerUserProfile(ctx context.Context) (*models.UserProfile, error)
	SaveCallerUserProfile(ctx context.Context, profile models.UserProfile) error
	GetUserProfile(ctx context.Context, principal string) (*models.UserProfile, error)
	GetDisplayName(ctx context.Context) (string, bool, error)
	SetDisplayName(ctx context.Context, name string) error

	GetCallerUserRole(ctx context.Context) (models.UserRole, error)
	AssignCallerUserRole(ctx context.Context, principal string, role models.UserRole) error
	IsCallerAdmin(ctx context.Context) (bool, error)
}

// Connector creates actors. An anonymous identity yields an actor that can
// only answer role queries.
type Connector interface {
	Connect(ctx context.Context, identity models.Identity) (Actor, error)
}
