// Package retry decides how often and how long to wait before repeating a
// failed manual download.
package retry

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/TeXLuaCATS/manager/internal/logfields"
)

type BackoffMode string

const (
	BackoffFixed       BackoffMode = "fixed"
	BackoffLinear      BackoffMode = "linear"
	BackoffExponential BackoffMode = "exponential"
)

// Policy is a value type; copies are independent.
type Policy struct {
	Mode       BackoffMode
	Initial    time.Duration
	Max        time.Duration
	MaxRetries int // attempts after the first one
}

// DefaultPolicy waits 1s, then 2s, and never more than 30s.
func DefaultPolicy() Policy {
	return Policy{Mode: BackoffLinear, Initial: time.Second, Max: 30 * time.Second, MaxRetries: 2}
}

// NewPolicy starts from DefaultPolicy and applies every usable argument.
// Unknown modes, non-positive durations and negative retry counts are
// ignored. Initial never exceeds max.
func NewPolicy(mode BackoffMode, initial, maxDelay time.Duration, retries int) Policy {
	p := DefaultPolicy()
	switch mode {
	case BackoffFixed, BackoffLinear, BackoffExponential:
		p.Mode = mode
	}
	if initial > 0 {
		p.Initial = initial
	}
	if maxDelay > 0 {
		p.Max = maxDelay
	}
	if retries >= 0 {
		p.MaxRetries = retries
	}
	p.Initial = min(p.Initial, p.Max)
	return p
}

// Delay is the wait before retry n, counting from 1.
func (p Policy) Delay(n int) time.Duration {
	if n < 1 {
		return 0
	}
	var d time.Duration
	switch p.Mode {
	case BackoffFixed:
		d = p.Initial
	case BackoffExponential:
		d = p.Initial << (n - 1)
		if d <= 0 || d>>(n-1) != p.Initial {
			return p.Max
		}
	default:
		d = p.Initial * time.Duration(n)
	}
	return min(d, p.Max)
}

func (p Policy) Validate() error {
	switch {
	case p.Initial <= 0:
		return errors.New("initial delay must be positive")
	case p.Max <= 0:
		return errors.New("maximum delay must be positive")
	case p.MaxRetries < 0:
		return errors.New("retry count cannot be negative")
	}
	return nil
}

// Do runs op until it succeeds, fails with an error retryable rejects, or
// the retries run out, and returns the last error. A cancelled ctx ends the
// wait between attempts.
func (p Policy) Do(ctx context.Context, op func(ctx context.Context) error, retryable func(error) bool) error {
	err := op(ctx)
	for n := 1; err != nil && n <= p.MaxRetries && retryable(err); n++ {
		delay := p.Delay(n)
		slog.Debug("Retrying", slog.Int("attempt", n), logfields.Duration(delay), logfields.Error(err))

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return err
		case <-timer.C:
		}
		err = op(ctx)
	}
	return err
}
