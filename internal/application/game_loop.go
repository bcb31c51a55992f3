package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bnema/moonbix-cli/internal/domain"
	"github.com/bnema/moonbix-cli/internal/ports"
	"github.com/sirupsen/logrus"
)

type GameTimings struct {
	// BeforeStart paces consecutive game-start calls.
	BeforeStart time.Duration
	// ThinkTime approximates a human round before the result is submitted.
	ThinkTime time.Duration
	// AfterUnplayable is the pause after a round the scorer could not resolve.
	AfterUnplayable time.Duration
	// AfterResult is the pause after a start failure or any submission.
	AfterResult time.Duration
}

func DefaultGameTimings() GameTimings {
	return GameTimings{
		BeforeStart:     time.Second,
		ThinkTime:       60 * time.Second,
		AfterUnplayable: 3 * time.Second,
		AfterResult:     time.Second,
	}
}

type GameReport struct {
	Rounds     int
	Submitted  int
	Failed     int
	Unplayable int
	Points     int
}

type GameLoopController struct {
	transport ports.Transport
	scorer    ports.GameScorer
	clock     ports.Clock
	log       logrus.FieldLogger
	timings   GameTimings
	retry     RetryPolicy
}

func NewGameLoopController(transport ports.Transport, scorer ports.GameScorer, clock ports.Clock, log logrus.FieldLogger, timings GameTimings) *GameLoopController {
	if clock == nil {
		clock = ports.SystemClock{}
	}

	return &GameLoopController{
		transport: transport,
		scorer:    scorer,
		clock:     clock,
		log:       log,
		timings:   timings,
		retry:     DefaultRetryPolicy(clock, log),
	}
}

// PlayUntilExhausted plays rounds while the session has tickets. Round
// failures never end the loop; only context cancellation does.
func (g *GameLoopController) PlayUntilExhausted(ctx context.Context, session *AuthSession) (GameReport, error) {
	var report GameReport

	for ticketsLeft(session) > 0 {
		if err := g.clock.Sleep(ctx, g.timings.BeforeStart); err != nil {
			return report, err
		}

		report.Rounds++
		result, err := g.playRound(ctx, session)
		if err != nil {
			if ctx.Err() != nil {
				return report, ctx.Err()
			}

			pause := g.timings.AfterResult
			if errors.Is(err, domain.ErrUnplayable) {
				report.Unplayable++
				pause = g.timings.AfterUnplayable
				g.log.WithError(err).Warn("game: cannot receive game data")
			} else {
				report.Failed++
				g.log.WithError(err).Error("game: round failed")
			}

			if err := g.clock.Sleep(ctx, pause); err != nil {
				return report, err
			}
			continue
		}

		remaining := session.spendTicket()
		report.Submitted++
		report.Points += result.Score
		g.log.Infof("game: completed, received %d points", result.Score)
		g.log.Warnf("game: tickets remaining %d/%d", remaining, domain.MaxTickets)

		if err := g.clock.Sleep(ctx, g.timings.AfterResult); err != nil {
			return report, err
		}
	}

	return report, nil
}

func (g *GameLoopController) playRound(ctx context.Context, session *AuthSession) (domain.GameResult, error) {
	round, err := g.startRound(ctx, session)
	if err != nil {
		return domain.GameResult{}, err
	}

	result, err := g.scorer.Score(ctx, round.Start)
	if err != nil {
		if errors.Is(err, domain.ErrUnplayable) {
			return domain.GameResult{}, err
		}
		return domain.GameResult{}, fmt.Errorf("score round: %w: %w", domain.ErrUnplayable, err)
	}
	if !result.Playable() {
		return domain.GameResult{}, fmt.Errorf("score round: %w: no payload", domain.ErrUnplayable)
	}
	round.Result = &result

	g.log.Infof("game: playing, submitting in %s", g.timings.ThinkTime)
	if err := g.clock.Sleep(ctx, g.timings.ThinkTime); err != nil {
		return domain.GameResult{}, err
	}

	if err := g.submitRound(ctx, session, round); err != nil {
		return domain.GameResult{}, err
	}

	return result, nil
}

func (g *GameLoopController) startRound(ctx context.Context, session *AuthSession) (domain.GameRound, error) {
	envelope, err := Retry(ctx, g.retry, func(ctx context.Context) (ports.Envelope, error) {
		return g.transport.Send(ctx, ports.EndpointGameStart, session.Token(), gameResource())
	})
	if err != nil {
		return domain.GameRound{}, fmt.Errorf("start game: %w: %w", domain.ErrGameRound, err)
	}
	// Game start only checks the code; success is not reliably set here.
	if envelope.Code != ports.SuccessCode {
		return domain.GameRound{}, &domain.RemoteError{Kind: domain.ErrGameRound, Op: "start game", Code: envelope.Code, Message: envelope.Message}
	}

	g.log.Info("game: started")
	return domain.GameRound{Start: domain.GameStart(envelope.Raw)}, nil
}

func (g *GameLoopController) submitRound(ctx context.Context, session *AuthSession, round domain.GameRound) error {
	body := gameCompleteRequest{
		ResourceID: domain.GameResourceID,
		Payload:    round.Result.Payload,
		Log:        round.Result.Score,
	}
	// Sent once; a failed submission leaves the ticket unspent.
	envelope, err := g.transport.Send(ctx, ports.EndpointGameComplete, session.Token(), body)
	if err != nil {
		return fmt.Errorf("complete game: %w: %w", domain.ErrGameRound, err)
	}
	if !envelope.OK() {
		return &domain.RemoteError{Kind: domain.ErrGameRound, Op: "complete game", Code: envelope.Code, Message: envelope.Message}
	}

	return nil
}

func ticketsLeft(session *AuthSession) int {
	profile, ok := session.Profile()
	if !ok {
		return 0
	}
	return profile.TicketsAvailable
}
