package tui

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/julianstephens/sutra/internal/constants"
	apperrors "github.com/julianstephens/sutra/internal/errors"
	"github.com/julianstephens/sutra/internal/logger"
	"github.com/julianstephens/sutra/internal/models"
	"github.com/julianstephens/sutra/internal/tui/components/history"
)

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case sessionReadyMsg:
		m.banner = ""
		if !msg.signedIn {
			m.state = constants.StateSignedOut
			m.habits = nil
			m.cursor = 0
			m.identity = identityLoadedMsg{}
			return m, nil
		}
		m.state = constants.StateHabits
		return m, tea.Batch(m.reload(), ensureRoleCmd(m.ctx, m.session))

	case roleEnsuredMsg:
		if !msg.assigned {
			return m, nil
		}
		// Reads that ran before the role existed may have been refused.
		id, signedIn := m.session.Identity()
		if !signedIn || id.Principal != msg.principal || m.state == constants.StateSignedOut {
			return m, nil
		}
		m.svc.RefreshHabitData()
		return m, m.reload()

	case habitsLoadedMsg:
		m.loading = false
		if msg.err != nil {
			logger.Warn("Failed to load habits", "error", msg.err)
			m.loadErr = apperrors.UserMessage(msg.err)
			return m, nil
		}
		m.loadErr = ""
		m.habits = msg.habits
		if m.cursor >= len(m.habits) {
			m.cursor = max(len(m.habits)-1, 0)
		}
		return m, loadCompletionsCmd(m.ctx, m.svc, m.habits)

	case completionsLoadedMsg:
		if msg.err != nil {
			logger.Warn("Failed to load completions", "error", msg.err)
			m.loadErr = apperrors.UserMessage(msg.err)
		}
		return m, nil

	case identityLoadedMsg:
		if msg.err != nil {
			logger.Warn("Failed to load profile", "error", msg.err)
			m.loadErr = apperrors.UserMessage(msg.err)
		}
		m.identity = msg
		return m, nil

	case mutationDoneMsg:
		return m.handleMutationDone(msg)
	}

	switch m.state {
	case constants.StateAddHabit, constants.StateEditHabit, constants.StateEditDisplayName:
		return m.updateForm(msg)
	}

	if msg, ok := msg.(tea.KeyMsg); ok {
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleMutationDone(msg mutationDoneMsg) (tea.Model, tea.Cmd) {
	switch msg.op {
	case opToggle:
		if msg.err != nil {
			m.banner = "Could not " + string(msg.op) + ": " + apperrors.UserMessage(msg.err)
		}
		return m, nil

	case opCreate, opUpdate, opDisplayName:
		m.submitting = false
		if msg.err != nil {
			// Keep the form open with the entered values so the user can retry.
			m.formError = apperrors.UserMessage(msg.err)
			m.form = m.rebuildForm()
			return m, m.form.Init()
		}
		m.closeForm()
		return m, m.reload()

	case opDelete:
		m.habitToDelete = nil
		m.state = constants.StateHabits
		if msg.err != nil {
			m.banner = "Could not " + string(msg.op) + ": " + apperrors.UserMessage(msg.err)
			return m, nil
		}
		return m, m.reload()

	case opLogin, opLogout:
		if msg.err != nil {
			m.banner = "Could not " + string(msg.op) + ": " + apperrors.UserMessage(msg.err)
			return m, nil
		}
		m.state = constants.StateLoading
		m.habits = nil
		m.cursor = 0
		m.loadErr = ""
		return m, sessionReadyCmd(m.session)
	}
	return m, nil
}

func (m Model) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && msg.Type == tea.KeyEsc {
		m.closeForm()
		return m, nil
	}
	if m.submitting {
		return m, nil
	}

	var cmds []tea.Cmd
	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}
	cmds = append(cmds, cmd)

	switch m.form.State {
	case huh.StateCompleted:
		m.submitting = true
		m.formError = ""
		cmds = append(cmds, m.submitForm())
	case huh.StateAborted:
		m.closeForm()
	}
	return m, tea.Batch(cmds...)
}

func (m Model) rebuildForm() *huh.Form {
	if m.state == constants.StateEditDisplayName {
		return NewDisplayNameForm(m.nameForm)
	}
	return NewHabitForm(m.habitForm)
}

func (m *Model) closeForm() {
	m.state = constants.StateHabits
	m.form = nil
	m.habitForm = nil
	m.nameForm = nil
	m.formError = ""
	m.submitting = false
}

// submitForm copies the bound values so the command does not race the form.
func (m Model) submitForm() tea.Cmd {
	ctx, svc := m.ctx, m.svc
	switch m.state {
	case constants.StateAddHabit:
		fm := *m.habitForm
		return mutationCmd(opCreate, func() error {
			_, err := svc.CreateHabit(ctx, fm.Name, fm.Color, fm.Category)
			return err
		})
	case constants.StateEditHabit:
		fm := *m.habitForm
		return mutationCmd(opUpdate, func() error {
			return svc.UpdateHabit(ctx, fm.ID, fm.Name, fm.Color, fm.Category)
		})
	case constants.StateEditDisplayName:
		profile := models.UserProfile{DisplayName: m.nameForm.Name}
		return mutationCmd(opDisplayName, func() error {
			return svc.SaveProfile(ctx, profile)
		})
	}
	return nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		m.quitting = true
		return m, tea.Quit
	}
	if key.Matches(msg, m.keys.Help) {
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	}

	switch m.state {
	case constants.StateSignedOut:
		if key.Matches(msg, m.keys.Login) {
			return m, m.loginCmd()
		}

	case constants.StateConfirmDelete:
		switch msg.String() {
		case "y", "Y":
			if m.habitToDelete == nil {
				m.state = constants.StateHabits
				return m, nil
			}
			ctx, svc, id := m.ctx, m.svc, m.habitToDelete.ID
			return m, mutationCmd(opDelete, func() error {
				return svc.DeleteHabit(ctx, id)
			})
		case "n", "N", "esc":
			m.habitToDelete = nil
			m.state = constants.StateHabits
		}

	case constants.StateHistory:
		if key.Matches(msg, m.keys.Back, m.keys.History) {
			m.state = constants.StateHabits
		}

	case constants.StateHabits:
		return m.handleHabitsKey(msg)
	}
	return m, nil
}

func (m Model) handleHabitsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.habits)-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.Toggle):
		return m.toggleToday()
	case key.Matches(msg, m.keys.Add):
		m.habitForm = &HabitFormModel{
			Color:    m.svc.PickColor(),
			Category: models.CategoryMiscellaneous,
		}
		m.formError = ""
		m.form = NewHabitForm(m.habitForm)
		m.state = constants.StateAddHabit
		return m, m.form.Init()
	case key.Matches(msg, m.keys.Edit):
		h, ok := m.selected()
		if !ok {
			return m, nil
		}
		m.habitForm = &HabitFormModel{ID: h.ID, Name: h.Name, Color: h.Color, Category: h.Category}
		m.formError = ""
		m.form = NewHabitForm(m.habitForm)
		m.state = constants.StateEditHabit
		return m, m.form.Init()
	case key.Matches(msg, m.keys.Delete):
		if h, ok := m.selected(); ok {
			m.habitToDelete = &h
			m.state = constants.StateConfirmDelete
		}
	case key.Matches(msg, m.keys.History):
		if h, ok := m.selected(); ok {
			completions, _ := m.svc.CachedCompletions(h.ID)
			m.historyModel = history.New(h, m.today(), completions)
			m.state = constants.StateHistory
		}
	case key.Matches(msg, m.keys.Name):
		m.nameForm = &DisplayNameFormModel{Name: m.identity.name}
		m.formError = ""
		m.form = NewDisplayNameForm(m.nameForm)
		m.state = constants.StateEditDisplayName
		return m, m.form.Init()
	case key.Matches(msg, m.keys.Login):
		ctx, sess := m.ctx, m.session
		return m, mutationCmd(opLogout, func() error {
			return sess.Logout(ctx)
		})
	case key.Matches(msg, m.keys.Refresh):
		m.session.Cache().InvalidateAll()
		m.banner = ""
		return m, m.reload()
	}
	return m, nil
}

func (m Model) loginCmd() tea.Cmd {
	ctx, sess := m.ctx, m.session
	return mutationCmd(opLogin, func() error {
		_, err := sess.Login(ctx)
		return err
	})
}

// toggleToday flips today's mark on the selected habit. The cache is written
// before the backend call so the card updates on the next render.
func (m Model) toggleToday() (tea.Model, tea.Cmd) {
	h, ok := m.selected()
	if !ok {
		return m, nil
	}
	current, loaded := m.svc.CachedCompletions(h.ID)
	if !loaded {
		// Writing now would replace the pending fetch with a one-day map.
		m.banner = "Completions for " + h.Name + " are still loading."
		return m, nil
	}
	today := m.todayString()
	p, err := m.svc.BeginMarkCompletion(h.ID, today, !current.Completed(today))
	if err != nil {
		m.banner = "Could not " + string(opToggle) + ": " + apperrors.UserMessage(err)
		return m, nil
	}
	m.banner = ""
	return m, settleCmd(m.ctx, p)
}
