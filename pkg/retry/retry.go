package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/careerpath/careerpath-backend/pkg/logger"
)

// Policy describes a bounded exponential-backoff retry schedule.
type Policy struct {
	MaxAttempts     int           // total attempts, including the first
	InitialInterval time.Duration // delay before the second attempt
	MaxInterval     time.Duration // cap on any single delay
	Multiplier      float64       // growth factor between delays
}

// DefaultPolicy mirrors the analysis backend schedule: 3 attempts,
// 4s initial delay, 10s cap.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:     3,
		InitialInterval: 4 * time.Second,
		MaxInterval:     10 * time.Second,
		Multiplier:      2.0,
	}
}

// Permanent marks an error as non-retryable: Do returns it immediately
// without consuming further attempts.
func Permanent(err error) error {
	return backoff.Permanent(err)
}

// Do runs op with the given policy until it succeeds, the attempts are
// exhausted, or ctx is cancelled. The last error is returned.
//
// op is retried on ANY error unless it is wrapped with Permanent.
func Do(ctx context.Context, p Policy, log *logger.Logger, name string, op func() error) error {
	if p.MaxAttempts < 1 {
		p.MaxAttempts = 1
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.InitialInterval
	b.MaxInterval = p.MaxInterval
	b.Multiplier = p.Multiplier
	b.RandomizationFactor = 0
	b.MaxElapsedTime = 0 // bounded by attempt count, not wall clock

	attempt := 0
	wrapped := func() error {
		attempt++
		err := op()
		if err != nil && log != nil {
			log.Warn().
				Err(err).
				Str("operation", name).
				Int("attempt", attempt).
				Int("max_attempts", p.MaxAttempts).
				Msg("operation failed")
		}
		return err
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(b, uint64(p.MaxAttempts-1)),
		ctx,
	)
	return backoff.Retry(wrapped, policy)
}
