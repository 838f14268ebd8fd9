package system

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/sutra/internal/cli"
	"github.com/julianstephens/sutra/internal/tui"
)

type TuiCmd struct{}

func (c *TuiCmd) Run(ctx *cli.Context) error {
	bg, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := tui.NewModel(bg, ctx.Session, ctx.Habits, ctx.Location)
	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("tui: %w", err)
	}
	return nil
}
