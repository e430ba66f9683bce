package auth

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TeXLuaCATS/manager/internal/config"
)

func TestCreateAuth(t *testing.T) {
	tests := []struct {
		name       string
		authConfig *config.AuthConfig
		wantNil    bool
		wantErr    bool
	}{
		{"nil config", nil, true, false},
		{"empty type", &config.AuthConfig{}, true, false},
		{"none", &config.AuthConfig{Type: config.AuthTypeNone}, true, false},
		{"token", &config.AuthConfig{Type: config.AuthTypeToken, Token: "t"}, false, false},
		{"token missing", &config.AuthConfig{Type: config.AuthTypeToken}, true, true},
		{"basic", &config.AuthConfig{Type: config.AuthTypeBasic, Username: "u", Password: "p"}, false, false},
		{"basic missing password", &config.AuthConfig{Type: config.AuthTypeBasic, Username: "u"}, true, true},
		{"ssh missing key", &config.AuthConfig{Type: config.AuthTypeSSH, KeyPath: "/nonexistent/id_rsa"}, true, true},
		{"unsupported", &config.AuthConfig{Type: "kerberos"}, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			method, err := CreateAuth(tt.authConfig)
			if tt.wantErr {
				require.Error(t, err)
				var authErr *Error
				assert.True(t, errors.As(err, &authErr))
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.wantNil, method == nil)
		})
	}
}

func TestCreateAuth_TokenUsesBasicAuth(t *testing.T) {
	method, err := CreateAuth(&config.AuthConfig{Type: config.AuthTypeToken, Token: "secret"})
	require.NoError(t, err)

	basic, ok := method.(*http.BasicAuth)
	require.True(t, ok)
	assert.Equal(t, "token", basic.Username)
	assert.Equal(t, "secret", basic.Password)
}

func TestCreateAuth_SSHInvalidKey(t *testing.T) {
	keyPath := filepath.Join(t.TempDir(), "id_rsa")
	require.NoError(t, os.WriteFile(keyPath, []byte("not a key"), 0o600))

	_, err := CreateAuth(&config.AuthConfig{Type: config.AuthTypeSSH, KeyPath: keyPath})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create authentication")
}
