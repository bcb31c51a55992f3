package application

import (
	"context"
	"errors"
	"time"

	"github.com/bnema/moonbix-cli/internal/domain"
	"github.com/bnema/moonbix-cli/internal/logging"
	"github.com/bnema/moonbix-cli/internal/ports"
	"github.com/sirupsen/logrus"
)

const (
	defaultRetryAttempts = 3
	defaultRetryDelay    = time.Second
)

// RetryPolicy retries an operation while it fails with domain.ErrTransient.
type RetryPolicy struct {
	MaxAttempts int
	Delay       time.Duration
	Clock       ports.Clock
	Logger      logrus.FieldLogger
}

func DefaultRetryPolicy(clock ports.Clock, logger logrus.FieldLogger) RetryPolicy {
	return RetryPolicy{
		MaxAttempts: defaultRetryAttempts,
		Delay:       defaultRetryDelay,
		Clock:       clock,
		Logger:      logger,
	}
}

// Retry runs op under policy. Non-transient errors are returned on first
// occurrence; running out of attempts yields a *domain.RetryExhaustedError.
func Retry[T any](ctx context.Context, policy RetryPolicy, op func(context.Context) (T, error)) (T, error) {
	var zero T

	maxAttempts := policy.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 1
	}
	clock := policy.Clock
	if clock == nil {
		clock = ports.SystemClock{}
	}

	for attempt := 1; ; attempt++ {
		result, err := op(ctx)
		if err == nil {
			return result, nil
		}
		if !errors.Is(err, domain.ErrTransient) {
			return zero, err
		}
		if attempt >= maxAttempts {
			return zero, &domain.RetryExhaustedError{Attempts: attempt, Last: err}
		}

		if policy.Logger != nil {
			policy.Logger.
				WithField(logging.FieldAttempt, formatAttempt(attempt, maxAttempts)).
				WithError(err).
				Warn("api call failed, retrying")
		}

		if err := clock.Sleep(ctx, policy.Delay); err != nil {
			return zero, err
		}
	}
}
