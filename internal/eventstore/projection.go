// Package eventstore records the runs of the manager as events and
// projects them into a run history.
package eventstore

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"
)

// DefaultHistorySize bounds the history when no size is given.
const DefaultHistorySize = 100

// RunSummary is a read model summarizing a finished or running command.
type RunSummary struct {
	RunID        string        `json:"run_id"`
	Command      string        `json:"command"`
	Subprojects  []string      `json:"subprojects"`
	Status       string        `json:"status"`
	StartedAt    time.Time     `json:"started_at"`
	CompletedAt  *time.Time    `json:"completed_at,omitempty"`
	Duration     time.Duration `json:"duration,omitempty"`
	Stages       int           `json:"stages"`
	FailedStage  string        `json:"failed_stage,omitempty"`
	ErrorMessage string        `json:"error_message,omitempty"`
}

// RunHistoryProjection maintains an in-memory view of the run history,
// reconstructed from the events of the store.
type RunHistoryProjection struct {
	mu      sync.RWMutex
	store   Store
	runs    map[string]*RunSummary
	maxSize int
}

// NewRunHistoryProjection creates a new projection backed by the given store.
func NewRunHistoryProjection(store Store, maxHistorySize int) *RunHistoryProjection {
	if maxHistorySize <= 0 {
		maxHistorySize = DefaultHistorySize
	}
	return &RunHistoryProjection{
		store:   store,
		runs:    make(map[string]*RunSummary),
		maxSize: maxHistorySize,
	}
}

// Rebuild reconstructs the projection from all events in the store.
func (p *RunHistoryProjection) Rebuild(ctx context.Context) error {
	events, err := p.store.GetRange(ctx, time.Time{}, time.Now().Add(time.Hour))
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.runs = make(map[string]*RunSummary)
	for _, event := range events {
		p.applyEventLocked(event)
	}
	return nil
}

// Apply processes a single event and updates the projection.
func (p *RunHistoryProjection) Apply(event Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.applyEventLocked(event)
}

func (p *RunHistoryProjection) applyEventLocked(event Event) {
	runID := event.RunID()
	if runID == "" {
		return
	}

	summary, exists := p.runs[runID]
	if !exists {
		summary = &RunSummary{
			RunID:     runID,
			Status:    StatusRunning,
			StartedAt: event.Timestamp(),
		}
		p.runs[runID] = summary
	}

	switch event.Type() {
	case TypeRunStarted:
		summary.StartedAt = event.Timestamp()
		var payload struct {
			Command     string   `json:"command"`
			Subprojects []string `json:"subprojects"`
		}
		if err := json.Unmarshal(event.Payload(), &payload); err == nil {
			summary.Command = payload.Command
			summary.Subprojects = payload.Subprojects
		}

	case TypeStageCompleted:
		summary.Stages++
		var payload struct {
			Subproject string `json:"subproject"`
			Stage      string `json:"stage"`
			Error      string `json:"error"`
		}
		if err := json.Unmarshal(event.Payload(), &payload); err == nil && payload.Error != "" && summary.FailedStage == "" {
			summary.FailedStage = payload.Subproject + "/" + payload.Stage
		}

	case TypeRunCompleted:
		completed := event.Timestamp()
		summary.CompletedAt = &completed
		summary.Duration = completed.Sub(summary.StartedAt)
		var payload struct {
			Status string `json:"status"`
			Error  string `json:"error"`
		}
		if err := json.Unmarshal(event.Payload(), &payload); err == nil {
			summary.Status = payload.Status
			summary.ErrorMessage = payload.Error
		}
	}
}

// History returns at most the configured number of runs, newest first.
func (p *RunHistoryProjection) History() []RunSummary {
	p.mu.RLock()
	defer p.mu.RUnlock()

	history := make([]RunSummary, 0, len(p.runs))
	for _, summary := range p.runs {
		history = append(history, *summary)
	}
	sort.SliceStable(history, func(i, j int) bool {
		if history[i].StartedAt.Equal(history[j].StartedAt) {
			return history[i].RunID > history[j].RunID
		}
		return history[i].StartedAt.After(history[j].StartedAt)
	})
	if len(history) > p.maxSize {
		history = history[:p.maxSize]
	}
	return history
}

// GetRun returns a copy of the summary of a run.
func (p *RunHistoryProjection) GetRun(runID string) (RunSummary, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	summary, exists := p.runs[runID]
	if !exists {
		return RunSummary{}, false
	}
	return *summary, true
}
