package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	derrors "github.com/TeXLuaCATS/manager/internal/errors"
)

func TestWriteStarterConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "manager.yaml")

	var out bytes.Buffer
	require.NoError(t, writeStarterConfig(&out, path, false))
	assert.Contains(t, out.String(), "Wrote "+path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "${GITHUB_TOKEN}")

	err = writeStarterConfig(&out, path, false)
	require.Error(t, err)
	assert.True(t, derrors.IsCategory(err, derrors.CategoryConfig))

	require.NoError(t, writeStarterConfig(&out, path, true))
}
