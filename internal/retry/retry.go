package retry

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"
)

// Policy bounds how often a remote call is re-attempted. Retries only apply to
// failures the classifier reports as transient; authorization and validation
// failures must never be retried.
type Policy struct {
	// MaxAttempts is the total number of attempts, including the first one.
	MaxAttempts int
	// Delay is the pause before each retry.
	Delay time.Duration
}

// DefaultPolicy retries twice with a one second pause, mirroring the
// two-retries-after-reauth behaviour of the remote store client.
var DefaultPolicy = Policy{MaxAttempts: 3, Delay: time.Second}

// Do runs fn until it succeeds, the policy is exhausted, or the context is
// cancelled. retryable decides whether a given failure is worth another
// attempt. The last error is returned unwrapped so callers can classify it.
func Do(ctx context.Context, p Policy, retryable func(error) bool, fn func(ctx context.Context) error) error {
	if p.MaxAttempts < 1 {
		p.MaxAttempts = 1
	}

	var err error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		err = fn(ctx)
		if err == nil {
			return nil
		}
		if !retryable(err) || attempt == p.MaxAttempts {
			return err
		}
		log.Debugf("retrying after transient failure (attempt %d/%d): %v", attempt, p.MaxAttempts, err)

		timer := time.NewTimer(p.Delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	return err
}
