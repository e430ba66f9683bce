package daemon

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	derrors "github.com/TeXLuaCATS/manager/internal/errors"
)

func newTestScheduler(t *testing.T) *Scheduler {
	t.Helper()
	s, err := NewScheduler()
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Stop(context.Background()) })
	return s
}

func TestScheduler_Registration(t *testing.T) {
	noop := func(context.Context) error { return nil }

	tests := []struct {
		name     string
		schedule func(*Scheduler) (string, error)
		valid    bool
	}{
		{"nightly cron", func(s *Scheduler) (string, error) { return s.ScheduleCron("dist", "0 3 * * *", noop) }, true},
		{"garbage cron", func(s *Scheduler) (string, error) { return s.ScheduleCron("dist", "every night", noop) }, false},
		{"hourly", func(s *Scheduler) (string, error) { return s.ScheduleEvery("format", time.Hour, noop) }, true},
		{"zero interval", func(s *Scheduler) (string, error) { return s.ScheduleEvery("format", 0, noop) }, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			id, err := tc.schedule(newTestScheduler(t))
			if !tc.valid {
				require.Error(t, err)
				assert.True(t, derrors.IsCategory(err, derrors.CategoryValidation))
				return
			}
			require.NoError(t, err)
			assert.NotEmpty(t, id)
		})
	}
}

func TestScheduler_RunsTasks(t *testing.T) {
	s := newTestScheduler(t)

	var runs atomic.Int32
	_, err := s.ScheduleEvery("tick", 50*time.Millisecond, func(ctx context.Context) error {
		runs.Add(1)
		return ctx.Err()
	})
	require.NoError(t, err)

	s.Start(t.Context())
	assert.Eventually(t, func() bool { return runs.Load() >= 2 }, 5*time.Second, 10*time.Millisecond)
}
