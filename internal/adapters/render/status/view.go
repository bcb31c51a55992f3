package status

import (
	"fmt"
	"strings"
	"time"

	"github.com/bnema/moonbix-cli/internal/application"
	"github.com/bnema/moonbix-cli/internal/domain"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
)

type RenderOptions struct {
	Now time.Time
}

func renderView(m model) string {
	s := m.styles
	lines := []string{
		s.title.Render("Moonbix Accounts"),
		s.header.Render(m.summary.String()),
	}

	if len(m.snapshots) == 0 {
		lines = append(lines, s.empty.Render("No accounts configured."))
		return lipgloss.JoinVertical(lipgloss.Left, lines...)
	}

	for _, snapshot := range m.snapshots {
		lines = append(lines, s.section.Render(renderAccount(snapshot, m.opts, s)))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func renderAccount(snapshot application.AccountSnapshot, opts RenderOptions, s styles) string {
	parts := []string{s.account.Render(strings.TrimSpace(string(snapshot.Name)))}

	if snapshot.Err != nil {
		parts = append(parts, s.warning.Render("error: "+snapshot.Err.Error()))
		return lipgloss.JoinVertical(lipgloss.Left, parts...)
	}

	profile := snapshot.Profile
	parts = append(parts,
		s.key.Render("balance: ")+s.detail.Render(humanize.Commaf(profile.Balance)),
		ticketLine(profile.TicketsAvailable, s),
		s.key.Render("refresh: ")+s.meta.Render(refreshText(profile, opts.Now)),
	)

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func ticketLine(tickets int, s styles) string {
	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		s.key.Render("tickets:"),
		" ",
		renderTicketBar(tickets, domain.MaxTickets, s),
		" ",
		s.detail.Render(fmt.Sprintf("%d/%d", tickets, domain.MaxTickets)),
	)
}

func renderTicketBar(tickets, capacity int, s styles) string {
	if capacity <= 0 {
		return ""
	}

	filled := min(max(tickets, 0), capacity)

	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		s.barBracket.Render("["),
		s.barFill.Render(strings.Repeat("=", filled)),
		s.barEmpty.Render(strings.Repeat("-", capacity-filled)),
		s.barBracket.Render("]"),
	)
}

// refreshText prefers a relative time when the refresh instant is known and
// falls back to the message computed with the profile.
func refreshText(profile domain.Profile, now time.Time) string {
	if profile.RefreshAt.IsZero() {
		return profile.RefreshMessage
	}
	if now.IsZero() {
		return fmt.Sprintf("%s (%s)", profile.RefreshMessage, profile.RefreshAt.Format("15:04"))
	}
	if !profile.RefreshAt.After(now) {
		return "due now"
	}

	return fmt.Sprintf("%s (%s)", humanize.RelTime(profile.RefreshAt, now, "ago", "from now"), profile.RefreshAt.Format("15:04"))
}
