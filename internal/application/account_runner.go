package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bnema/moonbix-cli/internal/domain"
	"github.com/bnema/moonbix-cli/internal/ports"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

type RunnerDeps struct {
	Credential domain.Credential
	Transport  ports.Transport
	Scorer     ports.GameScorer
	Clock      ports.Clock
	Logger     logrus.FieldLogger
	Settings   domain.Settings
	Timings    GameTimings
	// Once stops the runner after the first cycle instead of sleeping.
	Once bool
}

type CycleReport struct {
	Cycle   int
	Tasks   *TaskReport
	Games   *GameReport
	Profile domain.Profile
}

// AccountRunner drives one account through login, tasks and games, then
// sleeps until tickets refresh and starts over.
type AccountRunner struct {
	deps      RunnerDeps
	tasks     *TaskOrchestrator
	games     *GameLoopController
	retry     RetryPolicy
	taskReset cron.Schedule
	onCycle   func(CycleReport)
}

func NewAccountRunner(deps RunnerDeps) (*AccountRunner, error) {
	if err := deps.Credential.Validate(); err != nil {
		return nil, err
	}
	if deps.Transport == nil {
		return nil, errors.New("transport is required")
	}
	if deps.Settings.AutoGame && deps.Scorer == nil {
		return nil, errors.New("scorer is required when auto_game is enabled")
	}
	if deps.Clock == nil {
		deps.Clock = ports.SystemClock{}
	}
	if deps.Logger == nil {
		deps.Logger = logrus.StandardLogger()
	}

	runner := &AccountRunner{
		deps:  deps,
		tasks: NewTaskOrchestrator(deps.Transport, deps.Clock, deps.Logger),
		games: NewGameLoopController(deps.Transport, deps.Scorer, deps.Clock, deps.Logger, deps.Timings),
		retry: DefaultRetryPolicy(deps.Clock, deps.Logger),
	}

	if deps.Settings.TaskResetCron != "" {
		schedule, err := ParseTaskResetCron(deps.Settings.TaskResetCron)
		if err != nil {
			return nil, err
		}
		runner.taskReset = schedule
	}

	return runner, nil
}

// ParseTaskResetCron accepts a standard five-field cron expression.
func ParseTaskResetCron(expr string) (cron.Schedule, error) {
	schedule, err := cron.ParseStandard(expr)
	if err != nil {
		return nil, fmt.Errorf("parse task reset cron %q: %w", expr, err)
	}
	return schedule, nil
}

// OnCycle registers a callback invoked after every completed cycle.
func (r *AccountRunner) OnCycle(fn func(CycleReport)) {
	r.onCycle = fn
}

// Run loops until ctx is cancelled, Once is set, or an unhandled error
// occurs. Unhandled errors are logged and returned; the runner does not
// reschedule itself after one.
func (r *AccountRunner) Run(ctx context.Context) error {
	err := r.run(ctx)
	switch {
	case err == nil:
		return nil
	case ctx.Err() != nil:
		r.deps.Logger.Info("automation cancelled")
		return ctx.Err()
	default:
		r.deps.Logger.WithError(err).Error("automation stopped")
		return err
	}
}

func (r *AccountRunner) run(ctx context.Context) error {
	session, err := r.openSession(ctx)
	if err != nil {
		return err
	}

	var lastTaskPass time.Time
	for cycle := 1; ; cycle++ {
		if cycle > 1 {
			if r.deps.Settings.ReloginEachCycle {
				session, err = r.openSession(ctx)
				if err != nil {
					return err
				}
			} else if _, err := r.refresh(ctx, session, true); err != nil {
				return err
			}
		}

		report := CycleReport{Cycle: cycle}

		if r.deps.Settings.AutoTask && r.taskPassDue(cycle, lastTaskPass) {
			lastTaskPass = r.deps.Clock.Now()
			tasks, err := r.tasks.CompleteOutstandingTasks(ctx, session)
			if err != nil {
				return err
			}
			report.Tasks = &tasks
		}

		if r.deps.Settings.AutoGame {
			games, err := r.games.PlayUntilExhausted(ctx, session)
			if err != nil {
				return err
			}
			report.Games = &games
		}

		profile, err := r.refresh(ctx, session, false)
		if err != nil {
			return err
		}
		report.Profile = profile

		r.deps.Logger.Info("account processing complete")
		r.deps.Logger.Infof("sleep %s", profile.RefreshMessage)
		if r.onCycle != nil {
			r.onCycle(report)
		}

		if r.deps.Once {
			return nil
		}

		if err := r.deps.Clock.Sleep(ctx, profile.RefreshDelay); err != nil {
			return err
		}
	}
}

func (r *AccountRunner) openSession(ctx context.Context) (*AuthSession, error) {
	session := NewAuthSession(r.deps.Credential, r.deps.Transport, r.deps.Clock, r.deps.Logger)
	_, err := Retry(ctx, r.retry, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, session.Login(ctx)
	})
	if err != nil {
		return nil, err
	}
	if _, err := r.refresh(ctx, session, true); err != nil {
		return nil, err
	}
	return session, nil
}

func (r *AccountRunner) refresh(ctx context.Context, session *AuthSession, announce bool) (domain.Profile, error) {
	return Retry(ctx, r.retry, func(ctx context.Context) (domain.Profile, error) {
		return session.RefreshProfile(ctx, announce)
	})
}

// taskPassDue reports whether tasks run this cycle. Tasks are day-scoped, so
// after the first cycle they only run again once the reset schedule fires.
func (r *AccountRunner) taskPassDue(cycle int, lastPass time.Time) bool {
	if cycle == 1 {
		return true
	}
	if r.taskReset == nil {
		return false
	}
	return !r.taskReset.Next(lastPass).After(r.deps.Clock.Now())
}
