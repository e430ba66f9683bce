package commands

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TeXLuaCATS/manager/internal/eventstore"
)

func sampleRuns() []eventstore.RunSummary {
	started := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	completed := started.Add(1500 * time.Millisecond)
	return []eventstore.RunSummary{
		{
			RunID:        "run-2",
			Command:      "dist",
			Subprojects:  []string{"LuaTeX", "lpeg"},
			Status:       eventstore.StatusFailed,
			StartedAt:    started,
			CompletedAt:  &completed,
			Duration:     1500 * time.Millisecond,
			Stages:       3,
			FailedStage:  "LuaTeX/distribute",
			ErrorMessage: "boom",
		},
		{
			RunID:       "run-1",
			Command:     "format",
			Subprojects: []string{"lpeg"},
			Status:      eventstore.StatusSucceeded,
			StartedAt:   started.Add(-time.Hour),
			Stages:      1,
		},
	}
}

func TestPrintHistory_Table(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, PrintHistory(&out, sampleRuns(), false))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "STARTED"))
	assert.Contains(t, lines[1], "dist")
	assert.Contains(t, lines[1], "LuaTeX,lpeg")
	assert.Contains(t, lines[1], "1.5s")
	assert.Contains(t, lines[1], "LuaTeX/distribute: boom")
	assert.Contains(t, lines[2], "succeeded")
}

func TestPrintHistory_JSON(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, PrintHistory(&out, sampleRuns(), true))

	var decoded []map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &decoded))
	require.Len(t, decoded, 2)
	assert.Equal(t, "run-2", decoded[0]["run_id"])
	assert.Equal(t, "LuaTeX/distribute", decoded[0]["failed_stage"])
	assert.NotContains(t, decoded[1], "completed_at")
}

func TestPrintHistory_Empty(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, PrintHistory(&out, nil, false))
	assert.Equal(t, "STARTED  COMMAND  SUBPROJECTS  STATUS  DURATION  STAGES  ERROR\n", out.String())
}
