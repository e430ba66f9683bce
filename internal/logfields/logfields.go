package logfields

import (
	"log/slog"
	"time"
)

// Canonical log field name constants to avoid drift across packages.
const (
	KeyRunID      = "run_id"
	KeyCommand    = "command"
	KeySubproject = "subproject"
	KeyStage      = "stage"
	KeyPass       = "pass"
	KeyPath       = "path"
	KeyDest       = "dest"
	KeyURL        = "url"
	KeyCommit     = "commit"
	KeyRepo       = "repository"
	KeyCount      = "count"
	KeyDurationMS = "duration_ms"
	KeySchedule   = "schedule_name"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func RunID(id string) slog.Attr       { return slog.String(KeyRunID, id) }
func Command(c string) slog.Attr      { return slog.String(KeyCommand, c) }
func Subproject(n string) slog.Attr   { return slog.String(KeySubproject, n) }
func Stage(name string) slog.Attr     { return slog.String(KeyStage, name) }
func Pass(name string) slog.Attr      { return slog.String(KeyPass, name) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func Dest(p string) slog.Attr         { return slog.String(KeyDest, p) }
func URL(u string) slog.Attr          { return slog.String(KeyURL, u) }
func Commit(id string) slog.Attr      { return slog.String(KeyCommit, id) }
func Repository(r string) slog.Attr   { return slog.String(KeyRepo, r) }
func Count(n int) slog.Attr           { return slog.Int(KeyCount, n) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func ScheduleName(n string) slog.Attr { return slog.String(KeySchedule, n) }

// Duration converts a time.Duration into the duration_ms field.
func Duration(d time.Duration) slog.Attr {
	return DurationMS(float64(d.Microseconds()) / 1000)
}

func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
