package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultPolicy(t *testing.T) {
	p := DefaultPolicy()
	assert.Equal(t, BackoffLinear, p.Mode)
	assert.Equal(t, time.Second, p.Initial)
	assert.Equal(t, 30*time.Second, p.Max)
	assert.Equal(t, 2, p.MaxRetries)
}

// Initial larger than max is clamped.
func TestNewPolicyOverrides(t *testing.T) {
	p := NewPolicy(BackoffFixed, 5*time.Second, 2*time.Second, 5)
	assert.Equal(t, 2*time.Second, p.Initial)
	assert.Equal(t, 2*time.Second, p.Max)
	assert.Equal(t, BackoffFixed, p.Mode)
	assert.Equal(t, 5, p.MaxRetries)

	p = NewPolicy("random", 0, 0, -1)
	assert.Equal(t, DefaultPolicy(), p)
}

func TestDelayModes(t *testing.T) {
	tests := []struct {
		name   string
		policy Policy
		want   []time.Duration
	}{
		{
			name:   "fixed",
			policy: NewPolicy(BackoffFixed, 100*time.Millisecond, 500*time.Millisecond, 3),
			want:   []time.Duration{100 * time.Millisecond, 100 * time.Millisecond, 100 * time.Millisecond},
		},
		{
			name:   "linear is capped",
			policy: NewPolicy(BackoffLinear, 100*time.Millisecond, 250*time.Millisecond, 5),
			want:   []time.Duration{100 * time.Millisecond, 200 * time.Millisecond, 250 * time.Millisecond, 250 * time.Millisecond},
		},
		{
			name:   "exponential is capped",
			policy: NewPolicy(BackoffExponential, 50*time.Millisecond, 160*time.Millisecond, 5),
			want:   []time.Duration{50 * time.Millisecond, 100 * time.Millisecond, 160 * time.Millisecond, 160 * time.Millisecond},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for i, want := range tt.want {
				assert.Equal(t, want, tt.policy.Delay(i+1), "attempt %d", i+1)
			}
		})
	}
}

func TestDelayEdgeCases(t *testing.T) {
	p := NewPolicy(BackoffLinear, 10*time.Millisecond, 20*time.Millisecond, 1)
	assert.Zero(t, p.Delay(0))
	assert.Zero(t, p.Delay(-1))
}

func TestValidate(t *testing.T) {
	assert.Error(t, Policy{Mode: BackoffLinear, Initial: 0, Max: time.Second, MaxRetries: 1}.Validate())
	assert.Error(t, Policy{Mode: BackoffLinear, Initial: time.Second, Max: 0, MaxRetries: 1}.Validate())
	assert.Error(t, Policy{Mode: BackoffLinear, Initial: time.Second, Max: time.Second, MaxRetries: -1}.Validate())
	assert.NoError(t, DefaultPolicy().Validate())
}

func TestDo(t *testing.T) {
	transient := errors.New("transient")
	permanent := errors.New("permanent")
	retryable := func(err error) bool { return errors.Is(err, transient) }
	policy := NewPolicy(BackoffFixed, time.Millisecond, time.Millisecond, 3)

	t.Run("succeeds after transient failures", func(t *testing.T) {
		calls := 0
		err := policy.Do(context.Background(), func(context.Context) error {
			calls++
			if calls < 3 {
				return transient
			}
			return nil
		}, retryable)
		require.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("gives up after max retries", func(t *testing.T) {
		calls := 0
		err := policy.Do(context.Background(), func(context.Context) error {
			calls++
			return transient
		}, retryable)
		assert.ErrorIs(t, err, transient)
		assert.Equal(t, 4, calls)
	})

	t.Run("does not retry permanent errors", func(t *testing.T) {
		calls := 0
		err := policy.Do(context.Background(), func(context.Context) error {
			calls++
			return permanent
		}, retryable)
		assert.ErrorIs(t, err, permanent)
		assert.Equal(t, 1, calls)
	})

	t.Run("stops waiting when canceled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		slow := NewPolicy(BackoffFixed, time.Hour, time.Hour, 3)
		calls := 0
		err := slow.Do(ctx, func(context.Context) error {
			calls++
			cancel()
			return transient
		}, retryable)
		assert.ErrorIs(t, err, transient)
		assert.Equal(t, 1, calls)
	})
}
