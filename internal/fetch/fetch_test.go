package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	derrors "github.com/TeXLuaCATS/manager/internal/errors"
	"github.com/TeXLuaCATS/manager/internal/retry"
)

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/luatex-nodes.tex", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("\\startsection[title={Nodes}]\n"))
	})
	mux.HandleFunc("/missing.tex", func(w http.ResponseWriter, _ *http.Request) {
		http.NotFound(w, nil)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestFetch(t *testing.T) {
	srv := newServer(t)

	body, err := New().Fetch(context.Background(), srv.URL+"/luatex-nodes.tex")
	require.NoError(t, err)
	assert.Equal(t, "\\startsection[title={Nodes}]\n", string(body))
}

func TestFetch_NotFound(t *testing.T) {
	srv := newServer(t)

	_, err := New().Fetch(context.Background(), srv.URL+"/missing.tex")
	require.Error(t, err)
	assert.True(t, derrors.IsCategory(err, derrors.CategoryNetwork))
	me, ok := derrors.As(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusNotFound, me.Context["status"])
}

func countingServer(t *testing.T, failures int32, status int) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if hits.Add(1) <= failures {
			w.WriteHeader(status)
			return
		}
		_, _ = w.Write([]byte("---@meta\n"))
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func fastPolicy(retries int) retry.Policy {
	return retry.NewPolicy(retry.BackoffFixed, time.Millisecond, time.Millisecond, retries)
}

func TestFetch_RetriesServerErrors(t *testing.T) {
	srv, hits := countingServer(t, 2, http.StatusServiceUnavailable)

	body, err := NewWithPolicy(time.Second, fastPolicy(2)).Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "---@meta\n", string(body))
	assert.Equal(t, int32(3), hits.Load())
}

func TestFetch_GivesUp(t *testing.T) {
	srv, hits := countingServer(t, 10, http.StatusTooManyRequests)

	_, err := NewWithPolicy(time.Second, fastPolicy(1)).Fetch(context.Background(), srv.URL)
	require.Error(t, err)
	assert.True(t, derrors.IsCategory(err, derrors.CategoryNetwork))
	assert.Equal(t, int32(2), hits.Load())
}

func TestFetch_ClientErrorsAreNotRetried(t *testing.T) {
	srv, hits := countingServer(t, 10, http.StatusForbidden)

	_, err := NewWithPolicy(time.Second, fastPolicy(3)).Fetch(context.Background(), srv.URL)
	require.Error(t, err)
	assert.Equal(t, int32(1), hits.Load())
}

func TestFetch_Canceled(t *testing.T) {
	srv := newServer(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New().Fetch(ctx, srv.URL+"/luatex-nodes.tex")
	require.Error(t, err)
	assert.True(t, derrors.IsCategory(err, derrors.CategoryNetwork))
}

func TestDownload(t *testing.T) {
	srv := newServer(t)
	dest := filepath.Join(t.TempDir(), "resources", "manual", "luatex-nodes.tex")

	require.NoError(t, New().Download(context.Background(), srv.URL+"/luatex-nodes.tex", dest))

	content, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Contains(t, string(content), "Nodes")

	info, err := os.Stat(dest)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o044), info.Mode().Perm()&0o044, "manual must be world readable")
}
