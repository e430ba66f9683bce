// Package auth builds go-git transport credentials from the git section of
// the configuration.
package auth

import (
	"fmt"

	"github.com/go-git/go-git/v5/plumbing/transport"

	"github.com/TeXLuaCATS/manager/internal/config"
)

// Provider creates credentials for one authentication type.
type Provider interface {
	Type() config.AuthType
	// CreateAuth returns nil, nil when no credentials are needed.
	CreateAuth(authCfg *config.AuthConfig) (transport.AuthMethod, error)
	ValidateConfig(authCfg *config.AuthConfig) error
}

// Registry maps authentication types to providers.
type Registry struct {
	providers map[config.AuthType]Provider
}

// NewRegistry creates a registry with the none, ssh, token and basic providers.
func NewRegistry() *Registry {
	r := &Registry{providers: make(map[config.AuthType]Provider)}
	r.Register(noneProvider{})
	r.Register(sshProvider{})
	r.Register(tokenProvider{})
	r.Register(basicProvider{})
	return r
}

// Register adds or replaces the provider of its type.
func (r *Registry) Register(p Provider) {
	r.providers[p.Type()] = p
}

// CreateAuth validates authCfg and creates credentials with the matching
// provider. A nil configuration means no authentication.
func (r *Registry) CreateAuth(authCfg *config.AuthConfig) (transport.AuthMethod, error) {
	if authCfg.IsZero() {
		authCfg = &config.AuthConfig{Type: config.AuthTypeNone}
	}
	authType := authCfg.Type

	provider, ok := r.providers[authType]
	if !ok {
		return nil, &Error{Type: authType, Message: "unsupported authentication type"}
	}
	if err := provider.ValidateConfig(authCfg); err != nil {
		return nil, &Error{Type: authType, Message: "configuration validation failed", Cause: err}
	}
	method, err := provider.CreateAuth(authCfg)
	if err != nil {
		return nil, &Error{Type: authType, Message: "failed to create authentication", Cause: err}
	}
	return method, nil
}

// DefaultRegistry holds the standard providers.
var DefaultRegistry = NewRegistry()

// CreateAuth uses the default registry.
func CreateAuth(authCfg *config.AuthConfig) (transport.AuthMethod, error) {
	return DefaultRegistry.CreateAuth(authCfg)
}

// Error is an authentication failure.
type Error struct {
	Type    config.AuthType
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("auth error (%s): %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("auth error (%s): %s", e.Type, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }
