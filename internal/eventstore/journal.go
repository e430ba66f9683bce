package eventstore

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/TeXLuaCATS/manager/internal/logfields"
)

// Journal records the events of one run in a store and forwards them to
// an optional publisher. Recording failures are logged and never fail the
// run.
type Journal struct {
	store     Store
	publisher Publisher
	runID     string
	started   time.Time

	mu sync.Mutex
}

// Begin starts a run of command over subprojects and records RunStarted.
// Either store or publisher may be nil.
func Begin(ctx context.Context, store Store, publisher Publisher, command string, subprojects []string) *Journal {
	j := &Journal{
		store:     store,
		publisher: publisher,
		runID:     uuid.NewString(),
		started:   time.Now(),
	}
	event, err := NewRunStarted(j.runID, command, subprojects)
	j.record(ctx, event, err)
	return j
}

// RunID identifies the run.
func (j *Journal) RunID() string { return j.runID }

// ObserveStage records a StageCompleted event.
func (j *Journal) ObserveStage(subproject, stage string, d time.Duration, err error) {
	event, eerr := NewStageCompleted(j.runID, subproject, stage, d, err)
	j.record(context.Background(), event, eerr)
}

// Finish records RunCompleted with the outcome of the run.
func (j *Journal) Finish(ctx context.Context, runErr error) {
	event, err := NewRunCompleted(j.runID, time.Since(j.started), runErr)
	j.record(ctx, event, err)
}

func (j *Journal) record(ctx context.Context, event Event, err error) {
	if err != nil {
		slog.Warn("Unable to create event", logfields.RunID(j.runID), logfields.Error(err))
		return
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	if j.store != nil {
		if err := j.store.Append(ctx, event); err != nil {
			slog.Warn("Unable to store event", logfields.RunID(j.runID), slog.String("type", event.Type()), logfields.Error(err))
		}
	}
	if j.publisher != nil {
		if err := j.publisher.Publish(ctx, event); err != nil {
			slog.Warn("Unable to publish event", logfields.RunID(j.runID), slog.String("type", event.Type()), logfields.Error(err))
		}
	}
}
