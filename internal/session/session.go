// Package session ties the identity provider, the backend connection, and the
// query cache together for the lifetime of one signed-in identity.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/julianstephens/sutra/internal/backend"
	"github.com/julianstephens/sutra/internal/logger"
	"github.com/julianstephens/sutra/internal/models"
	"github.com/julianstephens/sutra/internal/query"
)

// Session owns the cache and the actor for the current identity. It
// satisfies habits.Source.
type Session struct {
	provider  Provider
	connector backend.Connector
	cache     *query.Client
	roles     RoleAssignment

	mu       sync.RWMutex
	actor    backend.Actor
	identity models.Identity
	signedIn bool
}

// New returns a session that has not connected yet.
func New(provider Provider, connector backend.Connector) *Session {
	return &Session{
		provider:  provider,
		connector: connector,
		cache:     query.NewClient(),
	}
}

// Cache returns the session's query cache.
func (s *Session) Cache() *query.Client {
	return s.cache
}

// Actor returns the backend actor, or false while none is connected.
func (s *Session) Actor() (backend.Actor, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.actor, s.actor != nil
}

// Identity returns the signed-in identity, or false when signed out.
func (s *Session) Identity() (models.Identity, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.identity, s.signedIn
}

// Roles exposes the role assignment state.
func (s *Session) Roles() *RoleAssignment {
	return &s.roles
}

// Connect builds an actor for the provider's current identity, or an
// anonymous actor when signed out.
func (s *Session) Connect(ctx context.Context) error {
	id, ok := s.provider.Identity()
	if !ok {
		id = models.Anonymous()
	}

	s.mu.Lock()
	s.actor = nil
	s.identity, s.signedIn = id, ok
	s.mu.Unlock()

	actor, err := s.connector.Connect(ctx, id)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.identity != id {
		// identity changed while connecting
		return nil
	}
	s.actor = actor
	return nil
}

// Login signs in through the provider and starts a fresh session for the new identity.
func (s *Session) Login(ctx context.Context) (models.Identity, error) {
	id, err := s.provider.Login(ctx)
	if err != nil {
		return models.Identity{}, err
	}
	return id, s.restart(ctx)
}

// LoginAs signs in as principal when the provider supports it.
func (s *Session) LoginAs(ctx context.Context, principal string) (models.Identity, error) {
	p, ok := s.provider.(PrincipalLogin)
	if !ok {
		return models.Identity{}, errors.New("identity provider cannot sign in as a given principal")
	}
	id, err := p.LoginAs(ctx, principal)
	if err != nil {
		return models.Identity{}, err
	}
	return id, s.restart(ctx)
}

// Logout signs out, discards everything cached for the old identity, and
// reconnects anonymously.
func (s *Session) Logout(ctx context.Context) error {
	if err := s.provider.Clear(ctx); err != nil {
		return err
	}
	return s.restart(ctx)
}

func (s *Session) restart(ctx context.Context) error {
	s.cache.Clear()
	s.roles.Reset()
	return s.Connect(ctx)
}

// EnsureRole performs the one-shot user role assignment for the signed-in
// identity and reports whether this call assigned it. Failures are logged and
// left for a later retry. On success the cached role queries are invalidated.
func (s *Session) EnsureRole(ctx context.Context) bool {
	actor, ready := s.Actor()
	id, signedIn := s.Identity()
	if !ready || !signedIn {
		return false
	}
	called, err := s.roles.Ensure(ctx, actor, id)
	if !called || err != nil {
		return false
	}
	s.cache.Invalidate(query.RoleKey())
	s.cache.Invalidate(query.AdminKey())
	return true
}

// EnsureRoleAsync runs EnsureRole in the background. The returned channel
// receives its result and is then closed.
func (s *Session) EnsureRoleAsync(ctx context.Context) <-chan bool {
	done := make(chan bool, 1)
	go func() {
		defer close(done)
		done <- s.EnsureRole(ctx)
	}()
	return done
}

// Close drops the actor and the cache.
func (s *Session) Close() {
	s.mu.Lock()
	s.actor = nil
	s.mu.Unlock()
	s.cache.Clear()
	logger.Debug("Session closed")
}
