package auth

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/go-git/go-git/v5/plumbing/transport/ssh"

	"github.com/TeXLuaCATS/manager/internal/config"
)

type noneProvider struct{}

func (noneProvider) Type() config.AuthType { return config.AuthTypeNone }

func (noneProvider) CreateAuth(*config.AuthConfig) (transport.AuthMethod, error) {
	return nil, nil //nolint:nilnil // no authentication
}

func (noneProvider) ValidateConfig(*config.AuthConfig) error { return nil }

type sshProvider struct{}

func (sshProvider) Type() config.AuthType { return config.AuthTypeSSH }

func (sshProvider) keyPath(authCfg *config.AuthConfig) string {
	if authCfg.KeyPath != "" {
		return authCfg.KeyPath
	}
	return filepath.Join(os.Getenv("HOME"), ".ssh", "id_rsa")
}

func (p sshProvider) CreateAuth(authCfg *config.AuthConfig) (transport.AuthMethod, error) {
	keyPath := p.keyPath(authCfg)
	publicKeys, err := ssh.NewPublicKeysFromFile("git", keyPath, "")
	if err != nil {
		return nil, fmt.Errorf("failed to load SSH key from %s: %w", keyPath, err)
	}
	return publicKeys, nil
}

func (p sshProvider) ValidateConfig(authCfg *config.AuthConfig) error {
	keyPath := p.keyPath(authCfg)
	if _, err := os.Stat(keyPath); os.IsNotExist(err) {
		return fmt.Errorf("SSH key file does not exist: %s", keyPath)
	}
	return nil
}

type tokenProvider struct{}

func (tokenProvider) Type() config.AuthType { return config.AuthTypeToken }

func (tokenProvider) CreateAuth(authCfg *config.AuthConfig) (transport.AuthMethod, error) {
	// GitHub accepts any non-empty username with a personal access token.
	return &http.BasicAuth{Username: "token", Password: authCfg.Token}, nil
}

func (tokenProvider) ValidateConfig(authCfg *config.AuthConfig) error {
	if authCfg.Token == "" {
		return fmt.Errorf("token authentication requires a token")
	}
	return nil
}

type basicProvider struct{}

func (basicProvider) Type() config.AuthType { return config.AuthTypeBasic }

func (basicProvider) CreateAuth(authCfg *config.AuthConfig) (transport.AuthMethod, error) {
	return &http.BasicAuth{Username: authCfg.Username, Password: authCfg.Password}, nil
}

func (basicProvider) ValidateConfig(authCfg *config.AuthConfig) error {
	if authCfg.Username == "" || authCfg.Password == "" {
		return fmt.Errorf("basic authentication requires username and password")
	}
	return nil
}
