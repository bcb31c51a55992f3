package application

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/bnema/moonbix-cli/internal/domain"
	"github.com/bnema/moonbix-cli/internal/ports"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	sleeps []time.Duration
	// onSleep runs before every sleep is recorded.
	onSleep func(d time.Duration)
}

func newFakeClock(now time.Time) *fakeClock {
	return &fakeClock{now: now}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	if c.onSleep != nil {
		c.onSleep(d)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.sleeps = append(c.sleeps, d)
	c.now = c.now.Add(d)
	return nil
}

func (c *fakeClock) Sleeps() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]time.Duration(nil), c.sleeps...)
}

func testNow() time.Time {
	return time.Date(2026, 2, 14, 12, 0, 0, 0, time.UTC)
}

func newTestLogger() (logrus.FieldLogger, *test.Hook) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	return logger, hook
}

func okEnvelope(t *testing.T, data any) ports.Envelope {
	t.Helper()

	raw, err := json.Marshal(data)
	require.NoError(t, err)

	body, err := json.Marshal(map[string]any{"code": ports.SuccessCode, "success": true, "data": json.RawMessage(raw)})
	require.NoError(t, err)

	return ports.Envelope{Code: ports.SuccessCode, Success: true, Data: raw, Raw: body}
}

func failEnvelope(code, message string) ports.Envelope {
	return ports.Envelope{Code: code, Success: false, Message: message}
}

func userInfo(total, consumed int, countdownMs int64) map[string]any {
	return map[string]any{
		"metaInfo": map[string]any{
			"totalGrade":                  1000,
			"totalAttempts":               total,
			"consumedAttempts":            consumed,
			"attemptRefreshCountDownTime": countdownMs,
		},
	}
}

func taskList(tasks ...map[string]any) map[string]any {
	return map[string]any{
		"data": []any{
			map[string]any{"taskList": map[string]any{"data": tasks}},
		},
	}
}

func profiledSession(transport ports.Transport, clock ports.Clock, log logrus.FieldLogger, tickets int) *AuthSession {
	session := NewAuthSession(domain.Credential{Name: "alice", LoginQuery: "query_id=1"}, transport, clock, log)
	session.state = StateProfiled
	session.token = "token-abc"
	session.profile = domain.Profile{TicketsAvailable: tickets}
	return session
}

func anyCtx() any {
	return mock.Anything
}

func messages(hook *test.Hook, level logrus.Level) []string {
	var out []string
	for _, entry := range hook.AllEntries() {
		if entry.Level == level {
			out = append(out, entry.Message)
		}
	}
	return out
}
