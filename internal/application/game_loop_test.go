package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bnema/moonbix-cli/internal/domain"
	"github.com/bnema/moonbix-cli/internal/ports"
	"github.com/bnema/moonbix-cli/internal/ports/mocks"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var startBody = []byte(`{"code":"000000","data":{"gameTag":"g-1"}}`)

func startEnvelope() ports.Envelope {
	// Success is deliberately unset: start only checks the code.
	return ports.Envelope{Code: ports.SuccessCode, Raw: startBody}
}

func submitFor(payload string, score int) any {
	return mock.MatchedBy(func(body gameCompleteRequest) bool {
		return body.ResourceID == domain.GameResourceID && body.Payload == payload && body.Log == score
	})
}

func newTestGameLoop(t *testing.T, tickets int) (*GameLoopController, *AuthSession, *mocks.MockTransport, *mocks.MockGameScorer, *fakeClock, logrus.FieldLogger) {
	t.Helper()

	transport := mocks.NewMockTransport(t)
	scorer := mocks.NewMockGameScorer(t)
	clock := newFakeClock(testNow())
	log, _ := newTestLogger()

	loop := NewGameLoopController(transport, scorer, clock, log, DefaultGameTimings())
	return loop, profiledSession(transport, clock, log, tickets), transport, scorer, clock, log
}

func TestPlayUntilExhaustedSpendsOneTicketPerSubmission(t *testing.T) {
	t.Parallel()

	loop, session, transport, scorer, clock, _ := newTestGameLoop(t, 2)

	transport.On("Send", anyCtx(), ports.EndpointGameStart, "token-abc", resourceRequest{ResourceID: domain.GameResourceID}).
		Return(startEnvelope(), nil).Twice()
	scorer.On("Score", anyCtx(), domain.GameStart(startBody)).
		Return(domain.GameResult{Score: 180, Payload: "p"}, nil).Twice()
	transport.On("Send", anyCtx(), ports.EndpointGameComplete, "token-abc", submitFor("p", 180)).
		Return(okEnvelope(t, nil), nil).Twice()

	report, err := loop.PlayUntilExhausted(context.Background(), session)
	require.NoError(t, err)

	assert.Equal(t, GameReport{Rounds: 2, Submitted: 2, Points: 360}, report)
	assert.Equal(t, 0, ticketsLeft(session))
	assert.Equal(t, []time.Duration{
		time.Second, 60 * time.Second, time.Second,
		time.Second, 60 * time.Second, time.Second,
	}, clock.Sleeps())
}

func TestPlayUntilExhaustedRetriesAfterUnplayableRound(t *testing.T) {
	t.Parallel()

	loop, session, transport, scorer, clock, _ := newTestGameLoop(t, 1)

	transport.On("Send", anyCtx(), ports.EndpointGameStart, "token-abc", mock.Anything).
		Return(startEnvelope(), nil).Twice()
	scorer.On("Score", anyCtx(), mock.Anything).
		Return(domain.GameResult{}, nil).Once()
	scorer.On("Score", anyCtx(), mock.Anything).
		Return(domain.GameResult{Score: 120, Payload: "second"}, nil).Once()
	transport.On("Send", anyCtx(), ports.EndpointGameComplete, "token-abc", submitFor("second", 120)).
		Return(okEnvelope(t, nil), nil).Once()

	report, err := loop.PlayUntilExhausted(context.Background(), session)
	require.NoError(t, err)

	assert.Equal(t, GameReport{Rounds: 2, Submitted: 1, Unplayable: 1, Points: 120}, report)
	assert.Equal(t, 0, ticketsLeft(session))
	assert.Equal(t, []time.Duration{
		time.Second, 3 * time.Second,
		time.Second, 60 * time.Second, time.Second,
	}, clock.Sleeps())
}

func TestPlayUntilExhaustedTreatsScorerErrorAsUnplayable(t *testing.T) {
	t.Parallel()

	loop, session, transport, scorer, _, _ := newTestGameLoop(t, 1)

	transport.On("Send", anyCtx(), ports.EndpointGameStart, "token-abc", mock.Anything).
		Return(startEnvelope(), nil).Twice()
	scorer.On("Score", anyCtx(), mock.Anything).
		Return(domain.GameResult{}, errors.New("connection refused")).Once()
	scorer.On("Score", anyCtx(), mock.Anything).
		Return(domain.GameResult{Score: 10, Payload: "x"}, nil).Once()
	transport.On("Send", anyCtx(), ports.EndpointGameComplete, "token-abc", mock.Anything).
		Return(okEnvelope(t, nil), nil).Once()

	report, err := loop.PlayUntilExhausted(context.Background(), session)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Unplayable)
	assert.Equal(t, 1, report.Submitted)
}

func TestPlayUntilExhaustedKeepsTicketWhenStartFails(t *testing.T) {
	t.Parallel()

	loop, session, transport, scorer, clock, _ := newTestGameLoop(t, 1)

	transport.On("Send", anyCtx(), ports.EndpointGameStart, "token-abc", mock.Anything).
		Return(failEnvelope("116002", "attempts not enough"), nil).Once()
	transport.On("Send", anyCtx(), ports.EndpointGameStart, "token-abc", mock.Anything).
		Return(startEnvelope(), nil).Once()
	scorer.On("Score", anyCtx(), mock.Anything).
		Return(domain.GameResult{Score: 50, Payload: "p"}, nil).Once()
	transport.On("Send", anyCtx(), ports.EndpointGameComplete, "token-abc", mock.Anything).
		Return(okEnvelope(t, nil), nil).Once()

	report, err := loop.PlayUntilExhausted(context.Background(), session)
	require.NoError(t, err)

	assert.Equal(t, GameReport{Rounds: 2, Submitted: 1, Failed: 1, Points: 50}, report)
	assert.Equal(t, []time.Duration{
		time.Second, time.Second,
		time.Second, 60 * time.Second, time.Second,
	}, clock.Sleeps())
}

func TestPlayUntilExhaustedKeepsTicketWhenSubmitFails(t *testing.T) {
	t.Parallel()

	loop, session, transport, scorer, _, _ := newTestGameLoop(t, 1)

	transport.On("Send", anyCtx(), ports.EndpointGameStart, "token-abc", mock.Anything).
		Return(startEnvelope(), nil).Twice()
	scorer.On("Score", anyCtx(), mock.Anything).
		Return(domain.GameResult{Score: 50, Payload: "p"}, nil).Twice()
	transport.On("Send", anyCtx(), ports.EndpointGameComplete, "token-abc", mock.Anything).
		Return(failEnvelope("116004", "invalid payload"), nil).Once()
	transport.On("Send", anyCtx(), ports.EndpointGameComplete, "token-abc", mock.Anything).
		Return(okEnvelope(t, nil), nil).Once()

	report, err := loop.PlayUntilExhausted(context.Background(), session)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, 1, report.Submitted)
	assert.Equal(t, 0, ticketsLeft(session))
}

func TestPlayUntilExhaustedSubmitsTransientFailureOnce(t *testing.T) {
	t.Parallel()

	loop, session, transport, scorer, clock, _ := newTestGameLoop(t, 1)

	transport.On("Send", anyCtx(), ports.EndpointGameStart, "token-abc", mock.Anything).
		Return(startEnvelope(), nil).Twice()
	scorer.On("Score", anyCtx(), mock.Anything).
		Return(domain.GameResult{Score: 50, Payload: "p"}, nil).Twice()
	transport.On("Send", anyCtx(), ports.EndpointGameComplete, "token-abc", mock.Anything).
		Return(ports.Envelope{}, domain.ErrTransient).Once()
	transport.On("Send", anyCtx(), ports.EndpointGameComplete, "token-abc", mock.Anything).
		Return(okEnvelope(t, nil), nil).Once()

	report, err := loop.PlayUntilExhausted(context.Background(), session)
	require.NoError(t, err)

	// One submission per round: the transient failure is not resent.
	assert.Equal(t, GameReport{Rounds: 2, Submitted: 1, Failed: 1, Points: 50}, report)
	assert.Equal(t, 0, ticketsLeft(session))
	transport.AssertNumberOfCalls(t, "Send", 4)
	assert.Equal(t, []time.Duration{
		time.Second, 60 * time.Second, time.Second,
		time.Second, 60 * time.Second, time.Second,
	}, clock.Sleeps())
}

func TestPlayUntilExhaustedRetriesTransientStart(t *testing.T) {
	t.Parallel()

	loop, session, transport, scorer, clock, _ := newTestGameLoop(t, 1)

	transport.On("Send", anyCtx(), ports.EndpointGameStart, "token-abc", mock.Anything).
		Return(ports.Envelope{}, domain.ErrTransient).Once()
	transport.On("Send", anyCtx(), ports.EndpointGameStart, "token-abc", mock.Anything).
		Return(startEnvelope(), nil).Once()
	scorer.On("Score", anyCtx(), mock.Anything).
		Return(domain.GameResult{Score: 75, Payload: "p"}, nil).Once()
	transport.On("Send", anyCtx(), ports.EndpointGameComplete, "token-abc", mock.Anything).
		Return(okEnvelope(t, nil), nil).Once()

	report, err := loop.PlayUntilExhausted(context.Background(), session)
	require.NoError(t, err)

	assert.Equal(t, GameReport{Rounds: 1, Submitted: 1, Points: 75}, report)
	assert.Equal(t, []time.Duration{
		time.Second, time.Second, 60 * time.Second, time.Second,
	}, clock.Sleeps())
}

func TestPlayUntilExhaustedWithoutTicketsDoesNothing(t *testing.T) {
	t.Parallel()

	loop, session, _, _, clock, _ := newTestGameLoop(t, 0)

	report, err := loop.PlayUntilExhausted(context.Background(), session)
	require.NoError(t, err)
	assert.Equal(t, GameReport{}, report)
	assert.Empty(t, clock.Sleeps())
}

func TestPlayUntilExhaustedStopsOnCancellation(t *testing.T) {
	t.Parallel()

	loop, session, _, _, _, _ := newTestGameLoop(t, 3)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := loop.PlayUntilExhausted(ctx, session)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 3, ticketsLeft(session))
}
