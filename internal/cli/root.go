package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/julianstephens/sutra/internal/backend/sqlstore"
	"github.com/julianstephens/sutra/internal/habits"
	"github.com/julianstephens/sutra/internal/models"
	"github.com/julianstephens/sutra/internal/session"
	"github.com/julianstephens/sutra/internal/utils"
)

// ErrNotSignedIn is returned by commands that need a signed-in identity.
var ErrNotSignedIn = errors.New("not signed in, run 'sutra login' first")

type Context struct {
	Store    *sqlstore.Store
	Session  *session.Session
	Habits   *habits.Service
	Location *time.Location

	// Out receives command output. Nil means stdout.
	Out io.Writer
	// Now is the clock used for "today". Nil means time.Now.
	Now func() time.Time
}

// NewContext wires a session and habit service over store.
func NewContext(store *sqlstore.Store, provider session.Provider, loc *time.Location) *Context {
	sess := session.New(provider, store)
	return &Context{
		Store:    store,
		Session:  sess,
		Habits:   habits.NewService(sess),
		Location: loc,
	}
}

// Start connects the session and performs the one-shot role assignment.
func (c *Context) Start(ctx context.Context) error {
	if err := c.Session.Connect(ctx); err != nil {
		return err
	}
	c.Session.EnsureRole(ctx)
	return nil
}

func (c *Context) out() io.Writer {
	if c.Out == nil {
		return os.Stdout
	}
	return c.Out
}

// Printf writes formatted command output.
func (c *Context) Printf(format string, args ...any) {
	fmt.Fprintf(c.out(), format, args...)
}

// Println writes a line of command output.
func (c *Context) Println(args ...any) {
	fmt.Fprintln(c.out(), args...)
}

// Writer returns the command output writer.
func (c *Context) Writer() io.Writer {
	return c.out()
}

// Today returns the current time in the configured location.
func (c *Context) Today() time.Time {
	now := time.Now
	if c.Now != nil {
		now = c.Now
	}
	loc := c.Location
	if loc == nil {
		loc = time.Local
	}
	return now().In(loc)
}

// TodayString returns today's date as YYYY-MM-DD.
func (c *Context) TodayString() string {
	return utils.FormatDate(c.Today())
}

// RequireSignedIn returns the signed-in identity or ErrNotSignedIn.
func (c *Context) RequireSignedIn() (models.Identity, error) {
	id, ok := c.Session.Identity()
	if !ok {
		return models.Identity{}, ErrNotSignedIn
	}
	return id, nil
}
