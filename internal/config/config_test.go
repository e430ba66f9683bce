package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	derrors "github.com/TeXLuaCATS/manager/internal/errors"
	"github.com/TeXLuaCATS/manager/internal/retry"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "manager.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_AppliesDefaults(t *testing.T) {
	path := writeConfig(t, "base_path: /srv/meta\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/srv/meta", cfg.BasePath)
	assert.Equal(t, "stylua", cfg.Tools.Stylua)
	assert.Equal(t, "luatex", cfg.Tools.LuaTeX)
	assert.Equal(t, DefaultBranch, cfg.Git.Branch)
	assert.Equal(t, AuthTypeNone, cfg.Git.Auth.Type)
	assert.True(t, cfg.Git.Auth.IsZero())
	assert.Equal(t, DefaultSubject, cfg.Events.Subject)
	assert.Equal(t, 30*time.Second, cfg.ExampleTimeoutDuration())
	assert.Equal(t, []string{"format", "dist"}, cfg.Schedule.Commands)
}

func TestLoad_ExpandsEnvironment(t *testing.T) {
	t.Setenv("MANAGER_TEST_TOKEN", "s3cret")
	path := writeConfig(t, `
base_path: /srv/meta
git:
  auth:
    type: token
    token: ${MANAGER_TEST_TOKEN}
tools:
  example_timeout: 5s
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "s3cret", cfg.Git.Auth.Token)
	assert.Equal(t, 5*time.Second, cfg.ExampleTimeoutDuration())
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.True(t, derrors.IsCategory(err, derrors.CategoryConfig))
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "base_path: [unterminated\n")
	_, err := Load(path)
	require.Error(t, err)
	assert.True(t, derrors.IsCategory(err, derrors.CategoryConfig))
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"token without token", func(c *Config) { c.Git.Auth = &AuthConfig{Type: AuthTypeToken} }, true},
		{"basic without password", func(c *Config) { c.Git.Auth = &AuthConfig{Type: AuthTypeBasic, Username: "u"} }, true},
		{"basic complete", func(c *Config) {
			c.Git.Auth = &AuthConfig{Type: AuthTypeBasic, Username: "u", Password: "p"}
		}, false},
		{"ssh", func(c *Config) { c.Git.Auth = &AuthConfig{Type: AuthTypeSSH} }, false},
		{"unknown auth", func(c *Config) { c.Git.Auth = &AuthConfig{Type: "kerberos"} }, true},
		{"bad timeout", func(c *Config) { c.Tools.ExampleTimeout = "soon" }, true},
		{"schedule too short", func(c *Config) { c.Schedule.Every = "10s" }, true},
		{"bad fetch delay", func(c *Config) { c.Fetch.RetryDelay = "later" }, true},
		{"unknown backoff", func(c *Config) { c.Fetch.Backoff = "random" }, true},
		{"negative retries", func(c *Config) {
			retries := -1
			c.Fetch.Retries = &retries
		}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := ValidateConfig(cfg)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, derrors.IsCategory(err, derrors.CategoryValidation))
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestRetryPolicy(t *testing.T) {
	assert.Equal(t, retry.DefaultPolicy(), Default().RetryPolicy())
	assert.Equal(t, 60*time.Second, Default().FetchTimeoutDuration())

	path := writeConfig(t, `
base_path: /srv/meta
fetch:
  timeout: 10s
  retries: 0
  backoff: exponential
  retry_delay: 250ms
  max_delay: 2s
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	policy := cfg.RetryPolicy()
	assert.Equal(t, retry.BackoffExponential, policy.Mode)
	assert.Equal(t, 0, policy.MaxRetries)
	assert.Equal(t, 250*time.Millisecond, policy.Initial)
	assert.Equal(t, 2*time.Second, policy.Max)
	assert.Equal(t, 10*time.Second, cfg.FetchTimeoutDuration())
}

func TestInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "manager.yaml")
	require.NoError(t, Init(path, false))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "${GITHUB_TOKEN}")

	err = Init(path, false)
	require.Error(t, err)
	require.NoError(t, Init(path, true))
}

func TestLayout(t *testing.T) {
	l := NewLayout("/meta")
	assert.Equal(t, "/meta/LuaCATS/upstream/lpeg", l.LibraryBase("lpeg"))
	assert.Equal(t, "/meta/TeXLuaCATS/LuaTeX", l.TeXBase("LuaTeX"))
	assert.Equal(t, "/meta/LuaCATS/downstream/tex-luametatex", l.Downstream("LuaMetaTeX"))
	assert.Equal(t, "/meta/dist/LuaTeX", l.Dist("LuaTeX"))
	assert.Equal(t, "/meta/stylua.toml", l.StyluaConfig())
	assert.Equal(t, "/meta/vscode_extension", l.VSCodeExtension())
	assert.Equal(t, "/abs/x.lua", l.Resolve("/abs/x.lua"))
	assert.Equal(t, "/meta/examples/x.lua", l.Resolve("examples/x.lua"))
}
