package application

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bnema/moonbix-cli/internal/domain"
	"github.com/bnema/moonbix-cli/internal/logging"
	"github.com/bnema/moonbix-cli/internal/ports"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

type FleetEntry struct {
	Credential domain.Credential
	Proxy      string
}

type Runner interface {
	Run(ctx context.Context) error
}

// RunnerFactory builds a fresh runner, and with it a fresh session, for an entry.
type RunnerFactory func(entry FleetEntry) (Runner, error)

// AssignProxies pairs credentials with proxies by position. Accounts past
// the end of the proxy list connect directly.
func AssignProxies(credentials []domain.Credential, proxies []string) []FleetEntry {
	entries := make([]FleetEntry, 0, len(credentials))
	for i, credential := range credentials {
		entry := FleetEntry{Credential: credential}
		if i < len(proxies) {
			entry.Proxy = proxies[i]
		}
		entries = append(entries, entry)
	}
	return entries
}

type FleetScheduler struct {
	entries []FleetEntry
	factory RunnerFactory
	restart domain.RestartPolicy
	clock   ports.Clock
	log     logrus.FieldLogger
}

func NewFleetScheduler(entries []FleetEntry, factory RunnerFactory, restart domain.RestartPolicy, clock ports.Clock, log logrus.FieldLogger) *FleetScheduler {
	if clock == nil {
		clock = ports.SystemClock{}
	}

	return &FleetScheduler{
		entries: entries,
		factory: factory,
		restart: restart,
		clock:   clock,
		log:     log,
	}
}

// Run starts every account concurrently and waits until all of them have
// settled. A failing account never stops the others; the returned error
// joins the per-account failures.
func (f *FleetScheduler) Run(ctx context.Context) error {
	if len(f.entries) == 0 {
		return errors.New("no accounts configured")
	}

	// The group only joins the runners. Wait reports a single error, so
	// per-account failures are collected here and joined instead.
	var (
		g      errgroup.Group
		mu     sync.Mutex
		failed []error
	)

	for _, entry := range f.entries {
		g.Go(func() error {
			if err := f.supervise(ctx, entry); err != nil && !errors.Is(err, context.Canceled) {
				mu.Lock()
				failed = append(failed, fmt.Errorf("account %s: %w", entry.Credential.Name, err))
				mu.Unlock()
			}
			return nil
		})
	}

	_ = g.Wait()

	return errors.Join(failed...)
}

func (f *FleetScheduler) supervise(ctx context.Context, entry FleetEntry) error {
	log := logging.ForAccount(f.log, entry.Credential.Name)
	backoff := f.restart.InitialBackoff

	for {
		runner, err := f.factory(entry)
		if err != nil {
			log.WithError(err).Error("cannot start automation")
			return err
		}

		err = runner.Run(ctx)
		if err == nil || ctx.Err() != nil || !f.restart.Enabled {
			return err
		}

		log.WithError(err).Warnf("restarting automation in %s", backoff)
		if err := f.clock.Sleep(ctx, backoff); err != nil {
			return err
		}
		backoff = nextBackoff(backoff, f.restart.MaxBackoff)
	}
}

func nextBackoff(current, limit time.Duration) time.Duration {
	if current <= 0 {
		current = time.Second
	}
	next := current * 2
	if limit > 0 && next > limit {
		return limit
	}
	return next
}
