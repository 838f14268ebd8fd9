package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/julianstephens/sutra/internal/keyring"
	"github.com/julianstephens/sutra/internal/logger"
	"github.com/julianstephens/sutra/internal/models"
)

// Provider supplies the signed-in identity
type Provider interface {
	// Identity returns the current identity, or false when signed out.
	Identity() (models.Identity, bool)
	// Login signs in and returns the new identity.
	Login(ctx context.Context) (models.Identity, error)
	// Clear signs out.
	Clear(ctx context.Context) error
}

// PrincipalLogin is implemented by providers that can sign in as a known principal.
type PrincipalLogin interface {
	LoginAs(ctx context.Context, principal string) (models.Identity, error)
}

// KeyringProvider keeps the signed-in principal in the OS keyring.
type KeyringProvider struct {
	// NewPrincipal mints a principal for a first login.
	NewPrincipal func() string
}

// NewKeyringProvider returns a provider that mints random UUID principals.
func NewKeyringProvider() *KeyringProvider {
	return &KeyringProvider{NewPrincipal: uuid.NewString}
}

func (p *KeyringProvider) Identity() (models.Identity, bool) {
	principal, err := keyring.GetPrincipal()
	if err != nil {
		if !errors.Is(err, keyring.ErrNotFound) {
			logger.Warn("Failed to read identity from keyring", "error", err)
		}
		return models.Identity{}, false
	}
	return models.Identity{Principal: principal}, true
}

// Login reuses the stored principal, or mints and stores a new one.
func (p *KeyringProvider) Login(ctx context.Context) (models.Identity, error) {
	if id, ok := p.Identity(); ok {
		return id, nil
	}
	return p.LoginAs(ctx, p.NewPrincipal())
}

func (p *KeyringProvider) LoginAs(_ context.Context, principal string) (models.Identity, error) {
	if err := keyring.SetPrincipal(principal); err != nil {
		return models.Identity{}, fmt.Errorf("login failed: %w", err)
	}
	logger.Info("Signed in", "principal", principal)
	return models.Identity{Principal: principal}, nil
}

func (p *KeyringProvider) Clear(context.Context) error {
	if err := keyring.DeletePrincipal(); err != nil {
		return fmt.Errorf("logout failed: %w", err)
	}
	logger.Info("Signed out")
	return nil
}

// MemoryProvider holds the identity in memory.
type MemoryProvider struct {
	mu        sync.Mutex
	principal string
	next      func() string
}

// NewMemoryProvider returns a signed-out provider whose Login yields principal.
func NewMemoryProvider(principal string) *MemoryProvider {
	return &MemoryProvider{next: func() string { return principal }}
}

func (p *MemoryProvider) Identity() (models.Identity, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.principal == "" {
		return models.Identity{}, false
	}
	return models.Identity{Principal: p.principal}, true
}

func (p *MemoryProvider) Login(ctx context.Context) (models.Identity, error) {
	return p.LoginAs(ctx, p.next())
}

func (p *MemoryProvider) LoginAs(_ context.Context, principal string) (models.Identity, error) {
	if (models.Identity{Principal: principal}).IsAnonymous() {
		return models.Identity{}, errors.New("login failed: invalid principal")
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.principal = principal
	return models.Identity{Principal: principal}, nil
}

func (p *MemoryProvider) Clear(context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.principal = ""
	return nil
}
