// Package retry runs an operation with exponential backoff while it fails with a
// transient error. Invalid and fatal errors are returned at once.
package retry

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/rodvb29/Furniture-Adding-by-Matterport/errors"
)

// Config controls the backoff
type Config struct {
	MaxAttempts  int           // Attempts including the first; values below 1 mean one attempt
	InitialDelay time.Duration // Delay after the first failure
	MaxDelay     time.Duration // Upper bound for a single delay
	Multiplier   float64       // Growth factor per attempt
	Jitter       bool          // Add up to 25% random delay
}

// DefaultConfig returns defaults suited to connecting at startup
func DefaultConfig() Config {
	return Config{
		MaxAttempts:  5,
		InitialDelay: 200 * time.Millisecond,
		MaxDelay:     5 * time.Second,
		Multiplier:   2.0,
		Jitter:       true,
	}
}

func (c Config) normalized() (Config, error) {
	if c.InitialDelay < 0 || c.MaxDelay < 0 || c.Multiplier < 0 {
		return c, errors.WrapInvalid(
			fmt.Errorf("%w: negative retry setting", errors.ErrInvalidConfig),
			"Retry", "Do", "validate config")
	}
	if c.MaxAttempts < 1 {
		c.MaxAttempts = 1
	}
	if c.InitialDelay == 0 {
		c.InitialDelay = 100 * time.Millisecond
	}
	if c.MaxDelay == 0 {
		c.MaxDelay = 5 * time.Second
	}
	if c.Multiplier == 0 {
		c.Multiplier = 2.0
	}
	if c.MaxDelay < c.InitialDelay {
		return c, errors.WrapInvalid(
			fmt.Errorf("%w: max delay below initial delay", errors.ErrInvalidConfig),
			"Retry", "Do", "validate config")
	}
	return c, nil
}

// Do calls fn until it succeeds, returns a non-transient error, the attempts run out
// or ctx is done. The last error is returned wrapped.
func Do(ctx context.Context, cfg Config, fn func() error) error {
	cfg, err := cfg.normalized()
	if err != nil {
		return err
	}

	delay := cfg.InitialDelay
	var lastErr error
	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if !errors.IsTransient(lastErr) {
			return lastErr
		}
		if attempt == cfg.MaxAttempts {
			break
		}

		sleep := delay
		if cfg.Jitter && delay >= 4 {
			sleep += rand.N(delay / 4)
		}
		timer := time.NewTimer(sleep)
		select {
		case <-ctx.Done():
			timer.Stop()
			return errors.WrapTransient(
				fmt.Errorf("%w (last error: %w)", ctx.Err(), lastErr),
				"Retry", "Do", fmt.Sprintf("backoff before attempt %d", attempt+1))
		case <-timer.C:
		}

		delay = min(time.Duration(float64(delay)*cfg.Multiplier), cfg.MaxDelay)
	}

	return errors.Wrap(lastErr, "Retry", "Do", fmt.Sprintf("%d attempts", cfg.MaxAttempts))
}
