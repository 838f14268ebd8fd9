package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/sutra/internal/habits"
	"github.com/julianstephens/sutra/internal/models"
	"github.com/julianstephens/sutra/internal/session"
)

// roleTimeout bounds the background role assignment. A timed out attempt
// is left failed and retried on the next sign-in.
const roleTimeout = 30 * time.Second

type sessionReadyMsg struct {
	signedIn bool
}

// roleEnsuredMsg reports the end of a background role assignment for principal.
type roleEnsuredMsg struct {
	principal string
	assigned  bool
}

type habitsLoadedMsg struct {
	habits []models.Habit
	err    error
}

type completionsLoadedMsg struct {
	err error
}

type identityLoadedMsg struct {
	principal string
	name      string
	role      models.UserRole
	err       error
}

// mutationOp names a mutation for messages and banners
type mutationOp string

const (
	opCreate      mutationOp = "create habit"
	opUpdate      mutationOp = "update habit"
	opDelete      mutationOp = "delete habit"
	opToggle      mutationOp = "mark completion"
	opDisplayName mutationOp = "set display name"
	opLogin       mutationOp = "login"
	opLogout      mutationOp = "logout"
)

type mutationDoneMsg struct {
	op  mutationOp
	err error
}

// sessionReadyCmd reports the current identity. It never waits on the backend.
func sessionReadyCmd(sess *session.Session) tea.Cmd {
	return func() tea.Msg {
		_, signedIn := sess.Identity()
		return sessionReadyMsg{signedIn: signedIn}
	}
}

// ensureRoleCmd runs the one-shot role assignment alongside the first reads.
func ensureRoleCmd(ctx context.Context, sess *session.Session) tea.Cmd {
	id, _ := sess.Identity()
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, roleTimeout)
		defer cancel()
		return roleEnsuredMsg{principal: id.Principal, assigned: <-sess.EnsureRoleAsync(ctx)}
	}
}

func loadHabitsCmd(ctx context.Context, svc *habits.Service) tea.Cmd {
	return func() tea.Msg {
		hs, err := svc.Habits(ctx)
		return habitsLoadedMsg{habits: hs, err: err}
	}
}

func loadCompletionsCmd(ctx context.Context, svc *habits.Service, hs []models.Habit) tea.Cmd {
	return func() tea.Msg {
		return completionsLoadedMsg{err: svc.PrefetchCompletions(ctx, hs)}
	}
}

func loadIdentityCmd(ctx context.Context, sess *session.Session, svc *habits.Service) tea.Cmd {
	return func() tea.Msg {
		id, _ := sess.Identity()
		msg := identityLoadedMsg{principal: id.Principal}
		if msg.name, msg.err = svc.DisplayName(ctx); msg.err != nil {
			return msg
		}
		msg.role, msg.err = svc.Role(ctx)
		return msg
	}
}

func settleCmd(ctx context.Context, p *habits.PendingCompletion) tea.Cmd {
	return func() tea.Msg {
		return mutationDoneMsg{op: opToggle, err: p.Settle(ctx)}
	}
}

func mutationCmd(op mutationOp, fn func() error) tea.Cmd {
	return func() tea.Msg {
		return mutationDoneMsg{op: op, err: fn()}
	}
}
