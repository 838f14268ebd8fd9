// Package tui is the bubbletea front end. The query cache owned by the
// session is the only state shared with background commands; the model
// re-reads it on every render.
package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/help"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/julianstephens/sutra/internal/calendar"
	"github.com/julianstephens/sutra/internal/constants"
	"github.com/julianstephens/sutra/internal/habits"
	"github.com/julianstephens/sutra/internal/models"
	"github.com/julianstephens/sutra/internal/session"
	"github.com/julianstephens/sutra/internal/tui/components/habitcard"
	"github.com/julianstephens/sutra/internal/tui/components/history"
	"github.com/julianstephens/sutra/internal/utils"
)

type Model struct {
	ctx     context.Context
	session *session.Session
	svc     *habits.Service
	loc     *time.Location
	now     func() time.Time

	state    constants.SessionState
	keys     KeyMap
	help     help.Model
	quitting bool
	width    int
	height   int

	habits   []models.Habit
	cursor   int
	loading  bool
	loadErr  string // read failures, shown inline
	banner   string // mutation failures
	identity identityLoadedMsg

	form       *huh.Form
	habitForm  *HabitFormModel
	nameForm   *DisplayNameFormModel
	formError  string
	submitting bool

	habitToDelete *models.Habit
	historyModel  history.Model
}

// NewModel returns the root model over a connected session.
func NewModel(ctx context.Context, sess *session.Session, svc *habits.Service, loc *time.Location) Model {
	if loc == nil {
		loc = time.Local
	}
	return Model{
		ctx:     ctx,
		session: sess,
		svc:     svc,
		loc:     loc,
		now:     time.Now,
		state:   constants.StateLoading,
		keys:    DefaultKeyMap(),
		help:    help.New(),
	}
}

func (m Model) Init() tea.Cmd {
	return sessionReadyCmd(m.session)
}

func (m Model) today() time.Time {
	return m.now().In(m.loc)
}

func (m Model) todayString() string {
	return utils.FormatDate(m.today())
}

func (m Model) selected() (models.Habit, bool) {
	if m.cursor < 0 || m.cursor >= len(m.habits) {
		return models.Habit{}, false
	}
	return m.habits[m.cursor], true
}

func (m Model) card(h models.Habit, strip calendar.Strip, selected bool) habitcard.Card {
	completions, loaded := m.svc.CachedCompletions(h.ID)
	return habitcard.Card{
		Habit:       h,
		Strip:       strip,
		Completions: completions,
		Selected:    selected,
		Loaded:      loaded,
	}
}

// reload refetches the habit list and the identity header.
func (m *Model) reload() tea.Cmd {
	m.loading = true
	m.loadErr = ""
	return tea.Batch(
		loadHabitsCmd(m.ctx, m.svc),
		loadIdentityCmd(m.ctx, m.session, m.svc),
	)
}
