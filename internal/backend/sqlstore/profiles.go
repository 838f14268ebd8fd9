package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/julianstephens/sutra/internal/models"
)

func (a *Actor) profileOf(ctx context.Context, principal string) (*models.UserProfile, error) {
	var name string
	err := a.store.queryRow(ctx, a.store.db,
		`SELECT display_name FROM user_profiles WHERE principal = ?`, principal).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, wrapConnErr(err)
	}
	return &models.UserProfile{DisplayName: name}, nil
}

// GetCallerUserProfile returns the caller's profile, or nil if none was saved.
func (a *Actor) GetCallerUserProfile(ctx context.Context) (*models.UserProfile, error) {
	if err := a.requireUser(ctx, "view profiles"); err != nil {
		return nil, err
	}
	return a.profileOf(ctx, a.principal)
}

// SaveCallerUserProfile creates or replaces the caller's profile.
func (a *Actor) SaveCallerUserProfile(ctx context.Context, profile models.UserProfile) error {
	if err := a.requireUser(ctx, "save profiles"); err != nil {
		return err
	}
	name := strings.TrimSpace(profile.DisplayName)
	if name == "" {
		return fmt.Errorf("display name cannot be empty")
	}

	_, err := a.store.exec(ctx, a.store.db, `
		INSERT INTO user_profiles (principal, display_name) VALUES (?, ?)
		ON CONFLICT (principal) DO UPDATE SET display_name = excluded.display_name`,
		a.principal, name)
	return err
}

// GetUserProfile returns another principal's profile. Only the principal
// itself or an admin may read it.
func (a *Actor) GetUserProfile(ctx context.Context, principal string) (*models.UserProfile, error) {
	if principal != a.principal {
		admin, err := a.IsCallerAdmin(ctx)
		if err != nil {
			return nil, err
		}
		if !admin {
			return nil, unauthorized("can only view your own profile")
		}
	}
	return a.profileOf(ctx, principal)
}

// GetDisplayName returns the caller's display name and whether one is set.
func (a *Actor) GetDisplayName(ctx context.Context) (string, bool, error) {
	profile, err := a.GetCallerUserProfile(ctx)
	if err != nil || profile == nil {
		return "", false, err
	}
	return profile.DisplayName, true, nil
}

// SetDisplayName is SaveCallerUserProfile for the name alone.
func (a *Actor) SetDisplayName(ctx context.Context, name string) error {
	return a.SaveCallerUserProfile(ctx, models.UserProfile{DisplayName: name})
}
