package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/julianstephens/sutra/internal/backend"
	"github.com/julianstephens/sutra/internal/logger"
	"github.com/julianstephens/sutra/internal/models"
)

// RoleState is the progress of the one-shot role assignment
type RoleState int

const (
	RoleNotStarted RoleState = iota
	RoleInFlight
	RoleDone
	RoleFailed
)

func (s RoleState) String() string {
	switch s {
	case RoleInFlight:
		return "in-flight"
	case RoleDone:
		return "done"
	case RoleFailed:
		return "failed"
	default:
		return "not-started"
	}
}

// RoleAssignment assigns the base user role to a principal at most once per
// session. The state moves to InFlight before the remote call; a failed call
// moves it to Failed, from which the next Ensure tries again.
type RoleAssignment struct {
	mu        sync.Mutex
	principal string
	state     RoleState
	attempts  int
}

// State returns the current state.
func (r *RoleAssignment) State() RoleState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Attempts returns the number of remote calls made for the current principal.
func (r *RoleAssignment) Attempts() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.attempts
}

// Reset forgets any previous assignment.
func (r *RoleAssignment) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.principal = ""
	r.state = RoleNotStarted
	r.attempts = 0
}

// Ensure assigns the user role to identity unless an assignment for it is in
// flight or already done. It reports whether a remote call was made.
// A different principal than the last one restarts the machine.
func (r *RoleAssignment) Ensure(ctx context.Context, actor backend.Actor, identity models.Identity) (bool, error) {
	if actor == nil || identity.IsAnonymous() {
		return false, nil
	}

	r.mu.Lock()
	if r.principal != identity.Principal {
		r.principal = identity.Principal
		r.state = RoleNotStarted
		r.attempts = 0
	}
	if r.state == RoleInFlight || r.state == RoleDone {
		r.mu.Unlock()
		return false, nil
	}
	r.state = RoleInFlight
	r.attempts++
	attempt := r.attempts
	r.mu.Unlock()

	log := logger.With("principal", identity.Principal, "attempt", attempt)
	err := actor.AssignCallerUserRole(ctx, identity.Principal, models.RoleUser)

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.principal != identity.Principal {
		// reset while the call was running; the result belongs to an old session
		return true, err
	}
	if err != nil {
		r.state = RoleFailed
		log.Warn("Failed to ensure user role", "error", err)
		return true, fmt.Errorf("assign user role: %w", err)
	}
	r.state = RoleDone
	log.Debug("User role ensured")
	return true, nil
}
