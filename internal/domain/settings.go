package domain

import (
	"fmt"
	"time"
)

type RestartPolicy struct {
	Enabled        bool
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

type Settings struct {
	AutoTask bool
	AutoGame bool
	// MinPoints, MaxPoints and IntervalMinutes are accepted for compatibility
	// with existing config files; the engine does not read them.
	MinPoints        int
	MaxPoints        int
	IntervalMinutes  int
	ReloginEachCycle bool
	// TaskResetCron re-enables the task pass once its next activation has
	// passed. Empty means tasks run on the first cycle only.
	TaskResetCron string
	Restart       RestartPolicy
}

func DefaultSettings() Settings {
	return Settings{
		AutoTask:        true,
		AutoGame:        true,
		MinPoints:       100,
		MaxPoints:       300,
		IntervalMinutes: 60,
		Restart: RestartPolicy{
			InitialBackoff: 30 * time.Second,
			MaxBackoff:     30 * time.Minute,
		},
	}
}

func (s Settings) Validate() error {
	if s.MinPoints < 0 || s.MaxPoints < 0 {
		return fmt.Errorf("point range must not be negative")
	}
	if s.MinPoints > s.MaxPoints {
		return fmt.Errorf("min_points %d exceeds max_points %d", s.MinPoints, s.MaxPoints)
	}
	if s.IntervalMinutes < 0 {
		return fmt.Errorf("interval_minutes must not be negative")
	}
	if s.Restart.InitialBackoff < 0 || s.Restart.MaxBackoff < 0 {
		return fmt.Errorf("restart backoff must not be negative")
	}
	if s.Restart.Enabled && s.Restart.MaxBackoff < s.Restart.InitialBackoff {
		return fmt.Errorf("restart.max_backoff %s is below restart.initial_backoff %s", s.Restart.MaxBackoff, s.Restart.InitialBackoff)
	}

	return nil
}
