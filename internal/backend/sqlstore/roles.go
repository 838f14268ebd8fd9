package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/julianstephens/sutra/internal/backend"
	apperrors "github.com/julianstephens/sutra/internal/errors"
	"github.com/julianstephens/sutra/internal/logger"
	"github.com/julianstephens/sutra/internal/models"
)

// Actor is a backend.Actor bound to one principal
type Actor struct {
	store     *Store
	principal string
}

var _ backend.Actor = (*Actor)(nil)

// Principal returns the principal the actor acts for.
func (a *Actor) Principal() string {
	return a.principal
}

func (a *Actor) anonymous() bool {
	return models.Identity{Principal: a.principal}.IsAnonymous()
}

func unauthorized(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{apperrors.ErrUnauthorized}, args...)...)
}

func roleOf(ctx context.Context, s *Store, q execer, principal string) (models.UserRole, bool, error) {
	var role string
	err := s.queryRow(ctx, q, `SELECT role FROM user_roles WHERE principal = ?`, principal).Scan(&role)
	if errors.Is(err, sql.ErrNoRows) {
		return models.RoleGuest, false, nil
	}
	if err != nil {
		return "", false, wrapConnErr(err)
	}
	return models.UserRole(role), true, nil
}

// requireUser fails with ErrUnauthorized unless the caller holds user or admin.
func (a *Actor) requireUser(ctx context.Context, action string) error {
	role, err := a.GetCallerUserRole(ctx)
	if err != nil {
		return err
	}
	if !role.CanUseApp() {
		return unauthorized("only users can %s", action)
	}
	return nil
}

// GetCallerUserRole returns the caller's role; principals without one are guests.
func (a *Actor) GetCallerUserRole(ctx context.Context) (models.UserRole, error) {
	if a.anonymous() {
		return models.RoleGuest, nil
	}
	role, _, err := roleOf(ctx, a.store, a.store.db, a.principal)
	return role, err
}

// IsCallerAdmin reports whether the caller holds the admin role.
func (a *Actor) IsCallerAdmin(ctx context.Context) (bool, error) {
	role, err := a.GetCallerUserRole(ctx)
	if err != nil {
		return false, err
	}
	return role == models.RoleAdmin, nil
}

// AssignCallerUserRole assigns role to principal.
//
// A caller registering itself as user is always allowed and idempotent: an
// existing role is never downgraded, and the first principal to register while
// no admin exists becomes admin. Every other assignment requires an admin caller.
func (a *Actor) AssignCallerUserRole(ctx context.Context, principal string, role models.UserRole) error {
	role, err := models.ParseUserRole(string(role))
	if err != nil {
		return err
	}
	if (models.Identity{Principal: principal}).IsAnonymous() {
		return unauthorized("the anonymous principal cannot hold a role")
	}
	if a.anonymous() {
		return unauthorized("sign in to assign roles")
	}

	s := a.store
	selfRegistration := principal == a.principal && role == models.RoleUser

	return s.withTx(ctx, func(tx *sql.Tx) error {
		if selfRegistration {
			current, exists, err := roleOf(ctx, s, tx, principal)
			if err != nil {
				return err
			}
			if exists && current.CanUseApp() {
				return nil
			}

			var admins int
			if err := s.queryRow(ctx, tx, `SELECT COUNT(*) FROM user_roles WHERE role = ?`, string(models.RoleAdmin)).Scan(&admins); err != nil {
				return wrapConnErr(err)
			}
			granted := models.RoleUser
			if admins == 0 {
				granted = models.RoleAdmin
			}
			logger.Info("Registered principal", "principal", principal, "role", granted)
			return upsertRole(ctx, s, tx, principal, granted)
		}

		callerRole, _, err := roleOf(ctx, s, tx, a.principal)
		if err != nil {
			return err
		}
		if callerRole != models.RoleAdmin {
			return unauthorized("only admins can assign user roles")
		}
		logger.Info("Assigned role", "principal", principal, "role", role, "by", a.principal)
		return upsertRole(ctx, s, tx, principal, role)
	})
}

func upsertRole(ctx context.Context, s *Store, tx *sql.Tx, principal string, role models.UserRole) error {
	_, err := s.exec(ctx, tx, `
		INSERT INTO user_roles (principal, role, assigned_at) VALUES (?, ?, ?)
		ON CONFLICT (principal) DO UPDATE SET role = excluded.role, assigned_at = excluded.assigned_at`,
		principal, string(role), s.now().UTC())
	return err
}
