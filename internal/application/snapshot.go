package application

import (
	"context"
	"time"

	"github.com/bnema/moonbix-cli/internal/domain"
	"github.com/bnema/moonbix-cli/internal/logging"
	"github.com/bnema/moonbix-cli/internal/ports"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const snapshotConcurrency = 4

type AccountSnapshot struct {
	Name       domain.AccountName
	Profile    domain.Profile
	CapturedAt time.Time
	Err        error
}

type TransportFactory func(entry FleetEntry) (ports.Transport, error)

// SnapshotService logs accounts in and reads their profile without playing.
type SnapshotService struct {
	transports TransportFactory
	clock      ports.Clock
	log        logrus.FieldLogger
	onSnapshot func(AccountSnapshot)
}

func NewSnapshotService(transports TransportFactory, clock ports.Clock, log logrus.FieldLogger) *SnapshotService {
	if clock == nil {
		clock = ports.SystemClock{}
	}

	return &SnapshotService{transports: transports, clock: clock, log: log}
}

// OnSnapshot registers a callback invoked as each account settles. It may be
// called from several goroutines at once.
func (s *SnapshotService) OnSnapshot(fn func(AccountSnapshot)) {
	s.onSnapshot = fn
}

// Collect returns one snapshot per entry, in entry order. Per-account
// failures are reported on the snapshot rather than returned.
func (s *SnapshotService) Collect(ctx context.Context, entries []FleetEntry) []AccountSnapshot {
	snapshots := make([]AccountSnapshot, len(entries))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(snapshotConcurrency)

	for i, entry := range entries {
		g.Go(func() error {
			snapshots[i] = s.snapshot(ctx, entry)
			if s.onSnapshot != nil {
				s.onSnapshot(snapshots[i])
			}
			return nil
		})
	}
	_ = g.Wait()

	return snapshots
}

func (s *SnapshotService) snapshot(ctx context.Context, entry FleetEntry) AccountSnapshot {
	snapshot := AccountSnapshot{Name: entry.Credential.Name}

	transport, err := s.transports(entry)
	if err != nil {
		snapshot.Err = err
		return snapshot
	}

	session := NewAuthSession(entry.Credential, transport, s.clock, logging.ForAccount(s.log, entry.Credential.Name))
	if err := session.Login(ctx); err != nil {
		snapshot.Err = err
		return snapshot
	}

	profile, err := session.RefreshProfile(ctx, false)
	if err != nil {
		snapshot.Err = err
		return snapshot
	}

	snapshot.Profile = profile
	snapshot.CapturedAt = s.clock.Now()
	return snapshot
}
