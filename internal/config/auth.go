package config

import (
	"fmt"

	derrors "github.com/TeXLuaCATS/manager/internal/errors"
)

// AuthType names how the manager authenticates against the LuaCATS git
// remotes when pushing synchronized libraries.
type AuthType string

const (
	AuthTypeNone  AuthType = "none"
	AuthTypeSSH   AuthType = "ssh"
	AuthTypeToken AuthType = "token" // GitHub personal access token
	AuthTypeBasic AuthType = "basic"
)

// AuthConfig is the git.auth section. Secrets usually come from the
// environment through ${VAR} expansion, e.g. token: ${GITHUB_TOKEN}.
type AuthConfig struct {
	Type     AuthType `yaml:"type"`
	Username string   `yaml:"username,omitempty"`
	Password string   `yaml:"password,omitempty"`
	Token    string   `yaml:"token,omitempty"`
	KeyPath  string   `yaml:"key_path,omitempty"`
}

// IsZero is true for a missing section and for type none.
func (a *AuthConfig) IsZero() bool {
	return a == nil || a.Type == "" || a.Type == AuthTypeNone
}

// validate checks that the fields required by the selected type are set.
// Whether an SSH key file exists is only checked when credentials are built.
func (a *AuthConfig) validate() error {
	if a.IsZero() {
		return nil
	}
	switch a.Type {
	case AuthTypeSSH:
		return nil
	case AuthTypeToken:
		if a.Token == "" {
			return derrors.ValidationFailed("git.auth.token", "token authentication requires a token")
		}
	case AuthTypeBasic:
		if a.Username == "" || a.Password == "" {
			return derrors.ValidationFailed("git.auth", "basic authentication requires username and password")
		}
	default:
		return derrors.ValidationFailed("git.auth.type", fmt.Sprintf("unsupported authentication type %q", a.Type))
	}
	return nil
}
