package status

import (
	"errors"
	"fmt"
	"io"

	"github.com/bnema/moonbix-cli/internal/application"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"
)

var ErrUnexpectedRenderModel = errors.New("unexpected final bubbletea model type")

// fleetSummary totals the accounts that answered; failed accounts only
// count as unavailable.
type fleetSummary struct {
	Accounts    int
	Balance     float64
	Tickets     int
	Unavailable int
}

func summarize(snapshots []application.AccountSnapshot) fleetSummary {
	summary := fleetSummary{Accounts: len(snapshots)}
	for _, snapshot := range snapshots {
		if snapshot.Err != nil {
			summary.Unavailable++
			continue
		}
		summary.Balance += snapshot.Profile.Balance
		summary.Tickets += max(snapshot.Profile.TicketsAvailable, 0)
	}
	return summary
}

func (s fleetSummary) String() string {
	line := fmt.Sprintf("accounts: %d | balance: %s | tickets: %d", s.Accounts, humanize.Commaf(s.Balance), s.Tickets)
	if s.Unavailable > 0 {
		line += fmt.Sprintf(" | unavailable: %d", s.Unavailable)
	}
	return line
}

type snapshotsReadyMsg struct {
	summary fleetSummary
}

type model struct {
	snapshots []application.AccountSnapshot
	summary   fleetSummary
	opts      RenderOptions
	styles    styles
	output    string
}

func (m model) Init() tea.Cmd {
	snapshots := m.snapshots
	return func() tea.Msg {
		return snapshotsReadyMsg{summary: summarize(snapshots)}
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	ready, ok := msg.(snapshotsReadyMsg)
	if !ok {
		return m, nil
	}

	m.summary = ready.summary
	m.output = renderView(m)
	return m, tea.Quit
}

func (m model) View() string {
	return m.output
}

// Render lays out the snapshots in entry order. The program never touches
// the terminal; only the final frame is returned.
func Render(snapshots []application.AccountSnapshot, opts RenderOptions) (string, error) {
	p := tea.NewProgram(
		model{snapshots: snapshots, opts: opts, styles: newStyles()},
		tea.WithInput(nil),
		tea.WithOutput(io.Discard),
	)

	finalModel, err := p.Run()
	if err != nil {
		return "", fmt.Errorf("render %d snapshots: %w", len(snapshots), err)
	}

	rendered, ok := finalModel.(model)
	if !ok {
		return "", ErrUnexpectedRenderModel
	}

	return rendered.View(), nil
}
