package session

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gokeyring "github.com/zalando/go-keyring"

	"github.com/julianstephens/sutra/internal/constants"
	"github.com/julianstephens/sutra/internal/models"
	"github.com/julianstephens/sutra/internal/query"
	"github.com/julianstephens/sutra/internal/testutil"
)

func TestConnectSignedOutIsAnonymous(t *testing.T) {
	connector := testutil.NewFakeConnector()
	s := New(NewMemoryProvider("alice"), connector)

	_, ok := s.Actor()
	assert.False(t, ok, "no actor before Connect")

	require.NoError(t, s.Connect(context.Background()))

	_, ok = s.Actor()
	assert.True(t, ok)
	_, signedIn := s.Identity()
	assert.False(t, signedIn)

	s.EnsureRole(context.Background())
	assert.Empty(t, connector.ActorFor(constants.AnonymousPrincipal).Calls("AssignCallerUserRole"))
}

func TestConnectFailureLeavesNoActor(t *testing.T) {
	connector := testutil.NewFakeConnector()
	connector.Fail(errors.New("network error"))
	s := New(NewMemoryProvider("alice"), connector)

	err := s.Connect(context.Background())
	require.Error(t, err)
	_, ok := s.Actor()
	assert.False(t, ok)
}

func TestLoginClearsCacheAndEnsuresRole(t *testing.T) {
	ctx := context.Background()
	connector := testutil.NewFakeConnector()
	s := New(NewMemoryProvider("alice"), connector)
	require.NoError(t, s.Connect(ctx))
	query.SetData(s.Cache(), query.HabitsKey(), []models.Habit{{ID: "anon"}})

	id, err := s.Login(ctx)
	require.NoError(t, err)
	assert.Equal(t, "alice", id.Principal)
	assert.Empty(t, s.Cache().Keys())

	got, signedIn := s.Identity()
	assert.True(t, signedIn)
	assert.Equal(t, "alice", got.Principal)

	query.SetData(s.Cache(), query.RoleKey(), models.RoleGuest)
	assert.True(t, s.EnsureRole(ctx))
	assert.False(t, s.EnsureRole(ctx), "already assigned")

	actor := connector.ActorFor("alice")
	assert.Len(t, actor.Calls("AssignCallerUserRole"), 1)
	assert.True(t, s.Cache().State(query.RoleKey()).Stale)
	assert.Equal(t, RoleDone, s.Roles().State())
}

func TestEnsureRoleFailureIsRetried(t *testing.T) {
	ctx := context.Background()
	connector := testutil.NewFakeConnector()
	s := New(NewMemoryProvider("alice"), connector)
	_, err := s.Login(ctx)
	require.NoError(t, err)

	actor := connector.ActorFor("alice")
	actor.Fail("AssignCallerUserRole", errors.New("network error"))
	assert.False(t, <-s.EnsureRoleAsync(ctx))
	assert.Equal(t, RoleFailed, s.Roles().State())

	actor.Fail("AssignCallerUserRole", nil)
	assert.True(t, <-s.EnsureRoleAsync(ctx))
	assert.Equal(t, RoleDone, s.Roles().State())
	assert.Len(t, actor.Calls("AssignCallerUserRole"), 2)
}

func TestLogoutResetsSession(t *testing.T) {
	ctx := context.Background()
	connector := testutil.NewFakeConnector()
	s := New(NewMemoryProvider("alice"), connector)
	_, err := s.Login(ctx)
	require.NoError(t, err)
	s.EnsureRole(ctx)
	query.SetData(s.Cache(), query.HabitsKey(), []models.Habit{{ID: "h1"}})

	require.NoError(t, s.Logout(ctx))

	assert.Empty(t, s.Cache().Keys())
	assert.Equal(t, RoleNotStarted, s.Roles().State())
	_, signedIn := s.Identity()
	assert.False(t, signedIn)
	_, ok := s.Actor()
	assert.True(t, ok, "reconnected anonymously")
}

func TestLoginAsRejectsAnonymous(t *testing.T) {
	s := New(NewMemoryProvider("alice"), testutil.NewFakeConnector())

	_, err := s.LoginAs(context.Background(), constants.AnonymousPrincipal)
	assert.Error(t, err)
	_, signedIn := s.Identity()
	assert.False(t, signedIn)
}

func TestCloseDropsActor(t *testing.T) {
	ctx := context.Background()
	s := New(NewMemoryProvider("alice"), testutil.NewFakeConnector())
	_, err := s.Login(ctx)
	require.NoError(t, err)

	s.Close()
	_, ok := s.Actor()
	assert.False(t, ok)
}

func TestKeyringProvider(t *testing.T) {
	gokeyring.MockInit()
	ctx := context.Background()
	p := NewKeyringProvider()
	p.NewPrincipal = func() string { return "principal-1" }

	_, ok := p.Identity()
	assert.False(t, ok)

	id, err := p.Login(ctx)
	require.NoError(t, err)
	assert.Equal(t, "principal-1", id.Principal)

	p.NewPrincipal = func() string { return "principal-2" }
	id, err = p.Login(ctx)
	require.NoError(t, err)
	assert.Equal(t, "principal-1", id.Principal, "an existing principal is reused")

	require.NoError(t, p.Clear(ctx))
	_, ok = p.Identity()
	assert.False(t, ok)
	require.NoError(t, p.Clear(ctx))
}

func TestKeyringProviderMintsUUIDs(t *testing.T) {
	gokeyring.MockInit()
	p := NewKeyringProvider()

	id, err := p.Login(context.Background())
	require.NoError(t, err)
	assert.Len(t, id.Principal, 36)
}
