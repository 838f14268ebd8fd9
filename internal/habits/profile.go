package habits

import (
	"context"
	"strings"

	"github.com/julianstephens/sutra/internal/backend"
	"github.com/julianstephens/sutra/internal/logger"
	"github.com/julianstephens/sutra/internal/models"
	"github.com/julianstephens/sutra/internal/query"
)

// authenticatedActor returns the actor only when a signed-in identity is present.
func (s *Service) authenticatedActor() (backend.Actor, bool) {
	if _, ok := s.src.Identity(); !ok {
		return nil, false
	}
	return s.src.Actor()
}

// Profile returns the caller's profile, or nil when signed out or unset.
func (s *Service) Profile(ctx context.Context) (*models.UserProfile, error) {
	actor, ok := s.authenticatedActor()
	if !ok {
		return nil, nil
	}
	return query.Fetch(ctx, s.cache(), query.ProfileKey(), actor.GetCallerUserProfile)
}

// DisplayName returns the caller's display name, or "" when signed out or unset.
func (s *Service) DisplayName(ctx context.Context) (string, error) {
	actor, ok := s.authenticatedActor()
	if !ok {
		return "", nil
	}
	return query.Fetch(ctx, s.cache(), query.DisplayNameKey(), func(ctx context.Context) (string, error) {
		name, _, err := actor.GetDisplayName(ctx)
		return name, err
	})
}

// Role returns the caller's role, or "" when signed out.
func (s *Service) Role(ctx context.Context) (models.UserRole, error) {
	actor, ok := s.authenticatedActor()
	if !ok {
		return "", nil
	}
	return query.Fetch(ctx, s.cache(), query.RoleKey(), actor.GetCallerUserRole)
}

// IsAdmin reports whether the caller is an admin; false when signed out.
func (s *Service) IsAdmin(ctx context.Context) (bool, error) {
	actor, ok := s.authenticatedActor()
	if !ok {
		return false, nil
	}
	return query.Fetch(ctx, s.cache(), query.AdminKey(), actor.IsCallerAdmin)
}

// UserProfile returns the profile of principal, or nil when signed out or
// unset. Reading another principal's profile requires the admin role.
func (s *Service) UserProfile(ctx context.Context, principal string) (*models.UserProfile, error) {
	actor, ok := s.authenticatedActor()
	if !ok || principal == "" {
		return nil, nil
	}
	return query.Fetch(ctx, s.cache(), query.UserProfileKey(principal), func(ctx context.Context) (*models.UserProfile, error) {
		return actor.GetUserProfile(ctx, principal)
	})
}

func (s *Service) invalidateProfile() {
	s.cache().Invalidate(query.ProfileKey())
	s.cache().Invalidate(query.DisplayNameKey())
	if id, ok := s.src.Identity(); ok {
		s.cache().Invalidate(query.UserProfileKey(id.Principal))
	}
}

// SaveProfile saves the caller's profile.
func (s *Service) SaveProfile(ctx context.Context, profile models.UserProfile) error {
	actor, err := s.actor()
	if err != nil {
		return err
	}
	profile.DisplayName = strings.TrimSpace(profile.DisplayName)
	if err := actor.SaveCallerUserProfile(ctx, profile); err != nil {
		logger.Error("Failed to save profile", "error", err)
		return err
	}
	s.invalidateProfile()
	return nil
}

// SetDisplayName changes the caller's display name.
func (s *Service) SetDisplayName(ctx context.Context, name string) error {
	actor, err := s.actor()
	if err != nil {
		return err
	}
	name = strings.TrimSpace(name)
	if err := actor.SetDisplayName(ctx, name); err != nil {
		logger.Error("Failed to set display name", "error", err)
		return err
	}
	s.invalidateProfile()
	return nil
}

// AssignRole assigns role to principal. The caller must be an admin unless
// it is registering itself as user.
func (s *Service) AssignRole(ctx context.Context, principal string, role models.UserRole) error {
	actor, err := s.actor()
	if err != nil {
		return err
	}
	if err := actor.AssignCallerUserRole(ctx, principal, role); err != nil {
		logger.Error("Failed to assign role", "principal", principal, "role", role, "error", err)
		return err
	}
	s.cache().Invalidate(query.RoleKey())
	s.cache().Invalidate(query.AdminKey())
	return nil
}
