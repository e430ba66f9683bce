package eventstore

import (
	"encoding/json"
	"time"

	derrors "github.com/TeXLuaCATS/manager/internal/errors"
)

// Event type names.
const (
	TypeRunStarted     = "RunStarted"
	TypeStageCompleted = "StageCompleted"
	TypeRunCompleted   = "RunCompleted"
)

// Run statuses.
const (
	StatusRunning   = "running"
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

// RunStarted is emitted when a command begins.
type RunStarted struct {
	BaseEvent
	Command     string   `json:"command"`
	Subprojects []string `json:"subprojects"`
}

// NewRunStarted creates a RunStarted event.
func NewRunStarted(runID, command string, subprojects []string) (*RunStarted, error) {
	payload, err := json.Marshal(map[string]any{
		"command":     command,
		"subprojects": subprojects,
	})
	if err != nil {
		return nil, derrors.InternalError("marshal RunStarted payload", err).
			WithContext("run_id", runID)
	}

	return &RunStarted{
		BaseEvent: BaseEvent{
			EventRunID:     runID,
			EventType:      TypeRunStarted,
			EventTimestamp: time.Now(),
			EventPayload:   payload,
		},
		Command:     command,
		Subprojects: subprojects,
	}, nil
}

// StageCompleted is emitted when a stage of a subproject finished,
// successfully or not.
type StageCompleted struct {
	BaseEvent
	Subproject string        `json:"subproject"`
	Stage      string        `json:"stage"`
	Duration   time.Duration `json:"duration_ms"`
	Error      string        `json:"error,omitempty"`
}

// NewStageCompleted creates a StageCompleted event.
func NewStageCompleted(runID, subproject, stage string, duration time.Duration, stageErr error) (*StageCompleted, error) {
	var message string
	if stageErr != nil {
		message = stageErr.Error()
	}
	payload, err := json.Marshal(map[string]any{
		"subproject":  subproject,
		"stage":       stage,
		"duration_ms": duration.Milliseconds(),
		"error":       message,
	})
	if err != nil {
		return nil, derrors.InternalError("marshal StageCompleted payload", err).
			WithContext("run_id", runID).
			WithContext("stage", stage)
	}

	return &StageCompleted{
		BaseEvent: BaseEvent{
			EventRunID:     runID,
			EventType:      TypeStageCompleted,
			EventTimestamp: time.Now(),
			EventPayload:   payload,
			EventMetadata:  map[string]string{"subproject": subproject},
		},
		Subproject: subproject,
		Stage:      stage,
		Duration:   duration,
		Error:      message,
	}, nil
}

// RunCompleted is emitted when a command returned.
type RunCompleted struct {
	BaseEvent
	Status   string        `json:"status"`
	Duration time.Duration `json:"duration_ms"`
	Error    string        `json:"error,omitempty"`
}

// NewRunCompleted creates a RunCompleted event. The status derives from
// runErr.
func NewRunCompleted(runID string, duration time.Duration, runErr error) (*RunCompleted, error) {
	status := StatusSucceeded
	var message string
	if runErr != nil {
		status = StatusFailed
		message = runErr.Error()
	}
	payload, err := json.Marshal(map[string]any{
		"status":      status,
		"duration_ms": duration.Milliseconds(),
		"error":       message,
	})
	if err != nil {
		return nil, derrors.InternalError("marshal RunCompleted payload", err).
			WithContext("run_id", runID)
	}

	return &RunCompleted{
		BaseEvent: BaseEvent{
			EventRunID:     runID,
			EventType:      TypeRunCompleted,
			EventTimestamp: time.Now(),
			EventPayload:   payload,
		},
		Status:   status,
		Duration: duration,
		Error:    message,
	}, nil
}
