package metrics

import (
	"context"
	"errors"
	"time"

	derrors "github.com/TeXLuaCATS/manager/internal/errors"
)

// ResultLabel enumerates stage result categories for counters.
type ResultLabel string

const (
	ResultSuccess  ResultLabel = "success"
	ResultWarning  ResultLabel = "warning"
	ResultFatal    ResultLabel = "fatal"
	ResultCanceled ResultLabel = "canceled"
)

// ResultFor classifies the error a stage or run returned.
func ResultFor(err error) ResultLabel {
	switch {
	case err == nil:
		return ResultSuccess
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return ResultCanceled
	}
	if me, ok := derrors.As(err); ok && me.Severity == derrors.SeverityWarning {
		return ResultWarning
	}
	return ResultFatal
}

// Recorder defines the observability hooks of a run. Implementations
// must be safe for concurrent use.
type Recorder interface {
	ObserveStage(subproject, stage string, d time.Duration, err error)
	ObserveRun(command string, d time.Duration, err error)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveStage(string, string, time.Duration, error) {}
func (NoopRecorder) ObserveRun(string, time.Duration, error)           {}
