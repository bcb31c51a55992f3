package domain

import (
	"fmt"
	"time"
)

const (
	MaxTickets = 6

	refreshBufferInterval  = 480_000 * time.Millisecond
	refreshBufferIntervals = 5

	RefreshNotApplicable = "N/A"
)

// RefreshBuffer is added on top of the remote countdown so the next cycle
// never lands before the service's own refresh boundary.
const RefreshBuffer = refreshBufferIntervals * refreshBufferInterval

// ProfileMeta is the subset of the remote user-info payload the engine reads.
type ProfileMeta struct {
	TotalGrade       float64
	TotalAttempts    int
	ConsumedAttempts int
	RefreshCountdown time.Duration
}

type Profile struct {
	Balance          float64
	TicketsAvailable int
	RefreshDelay     time.Duration
	// RefreshAt is zero when the remote reported no pending refresh.
	RefreshAt      time.Time
	RefreshMessage string
}

// NewProfile rebuilds a profile from remote metadata. Ticket availability is
// taken as-is from the remote accounting and is never clamped.
func NewProfile(meta ProfileMeta, now time.Time) Profile {
	delay := meta.RefreshCountdown + RefreshBuffer

	profile := Profile{
		Balance:          meta.TotalGrade,
		TicketsAvailable: meta.TotalAttempts - meta.ConsumedAttempts,
		RefreshDelay:     delay,
		RefreshMessage:   RefreshNotApplicable,
	}

	if meta.RefreshCountdown != 0 {
		profile.RefreshAt = now.Add(delay)
		profile.RefreshMessage = FormatRefreshETA(delay)
	}

	return profile
}

// FormatRefreshETA renders a wait in the coarsest whole unit that is at least one.
func FormatRefreshETA(d time.Duration) string {
	seconds := int(d / time.Second)
	minutes := seconds / 60
	hours := minutes / 60

	switch {
	case minutes < 1:
		return fmt.Sprintf("%d seconds again", seconds)
	case minutes < 60:
		return fmt.Sprintf("%d minutes again", minutes)
	default:
		return fmt.Sprintf("%d hours again", hours)
	}
}
