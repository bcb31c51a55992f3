package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/bnema/moonbix-cli/internal/application"
	"github.com/bnema/moonbix-cli/internal/domain"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type accountSettledMsg struct {
	snapshot application.AccountSnapshot
}

type collectDoneMsg struct {
	snapshots []application.AccountSnapshot
}

// statusSpinnerModel counts accounts as their profiles arrive.
type statusSpinnerModel struct {
	spinner   spinner.Model
	collect   tea.Cmd
	total     int
	settled   int
	failed    int
	last      domain.AccountName
	snapshots []application.AccountSnapshot
	done      bool
}

func newStatusSpinnerModel(total int, collect tea.Cmd) statusSpinnerModel {
	s := spinner.New(
		spinner.WithSpinner(spinner.Dot),
		spinner.WithStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("220"))),
	)

	return statusSpinnerModel{spinner: s, collect: collect, total: total}
}

func (m statusSpinnerModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.collect)
}

func (m statusSpinnerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case accountSettledMsg:
		m.settled++
		m.last = msg.snapshot.Name
		if msg.snapshot.Err != nil {
			m.failed++
		}
		return m, nil
	case collectDoneMsg:
		m.done = true
		m.snapshots = msg.snapshots
		return m, tea.Quit
	default:
		return m, nil
	}
}

func (m statusSpinnerModel) View() string {
	if m.done {
		return ""
	}

	label := fmt.Sprintf("%s Fetching account profiles %d/%d", m.spinner.View(), m.settled, m.total)
	if m.last != "" {
		label += fmt.Sprintf(" (last: %s)", m.last)
	}
	if m.failed > 0 {
		label += fmt.Sprintf(", %d failed", m.failed)
	}
	return label
}

// collectWithSpinner runs the snapshot collection while a spinner on output
// reports per-account progress.
func collectWithSpinner(ctx context.Context, output io.Writer, service *application.SnapshotService, entries []application.FleetEntry) ([]application.AccountSnapshot, error) {
	var p *tea.Program

	collect := func() tea.Msg {
		service.OnSnapshot(func(snapshot application.AccountSnapshot) {
			p.Send(accountSettledMsg{snapshot: snapshot})
		})
		return collectDoneMsg{snapshots: service.Collect(ctx, entries)}
	}

	p = tea.NewProgram(
		newStatusSpinnerModel(len(entries), collect),
		tea.WithInput(nil),
		tea.WithOutput(output),
		tea.WithContext(ctx),
	)

	finalModel, err := p.Run()
	if err != nil {
		return nil, err
	}

	result, ok := finalModel.(statusSpinnerModel)
	if !ok {
		return nil, fmt.Errorf("unexpected final spinner model type %T", finalModel)
	}

	return result.snapshots, nil
}
