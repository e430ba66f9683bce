package logfields

import (
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStringFields(t *testing.T) {
	for key, attr := range map[string]slog.Attr{
		KeyRunID:      RunID("run"),
		KeyCommand:    Command("run"),
		KeySubproject: Subproject("run"),
		KeyStage:      Stage("run"),
		KeyPass:       Pass("run"),
		KeyPath:       Path("run"),
		KeyDest:       Dest("run"),
		KeyURL:        URL("run"),
		KeyCommit:     Commit("run"),
		KeyRepo:       Repository("run"),
		KeySchedule:   ScheduleName("run"),
	} {
		assert.Equal(t, key, attr.Key)
		assert.Equal(t, "run", attr.Value.String(), key)
	}
}

func TestDurationIsMilliseconds(t *testing.T) {
	attr := Duration(1500 * time.Microsecond)
	assert.Equal(t, KeyDurationMS, attr.Key)
	assert.InDelta(t, 1.5, attr.Value.Float64(), 1e-9)

	count := Count(5)
	assert.Equal(t, KeyCount, count.Key)
	assert.EqualValues(t, 5, count.Value.Int64())
}

func TestErrorField(t *testing.T) {
	assert.Equal(t, slog.String(KeyError, ""), Error(nil))
	assert.Equal(t, slog.String(KeyError, "stylua missing"), Error(errors.New("stylua missing")))
}
