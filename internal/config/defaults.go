package config

import (
	"os"
	"time"

	"github.com/TeXLuaCATS/manager/internal/retry"
)

const (
	DefaultBranch         = "main"
	DefaultSubject        = "texluacats.manager.runs"
	DefaultExampleTimeout = 30 * time.Second
	DefaultScheduleEvery  = "1h"
	DefaultFetchTimeout   = 60 * time.Second
	DefaultFetchRetries   = 2
)

// applyDefaults fills in every empty field.
func applyDefaults(cfg *Config) error {
	if cfg.BasePath == "" {
		wd, err := os.Getwd()
		if err != nil {
			return err
		}
		cfg.BasePath = wd
	}

	t := &cfg.Tools
	setDefault(&t.Stylua, "stylua")
	setDefault(&t.Pygmentize, "pygmentize")
	setDefault(&t.EmmyLuaDoc, "emmylua_doc")
	setDefault(&t.MkDocs, "mkdocs")
	setDefault(&t.LuaTeX, "luatex")
	setDefault(&t.ExampleTimeout, DefaultExampleTimeout.String())

	f := &cfg.Fetch
	setDefault(&f.Timeout, DefaultFetchTimeout.String())
	setDefault(&f.Backoff, "linear")
	setDefault(&f.RetryDelay, "1s")
	setDefault(&f.MaxDelay, "30s")
	if f.Retries == nil {
		retries := DefaultFetchRetries
		f.Retries = &retries
	}

	setDefault(&cfg.Git.Branch, DefaultBranch)
	setDefault(&cfg.Git.AuthorName, "TeXLuaCATS manager")
	setDefault(&cfg.Git.AuthorEmail, "manager@texluacats.invalid")
	if cfg.Git.Auth == nil {
		cfg.Git.Auth = &AuthConfig{Type: AuthTypeNone}
	}
	setDefault((*string)(&cfg.Git.Auth.Type), string(AuthTypeNone))

	setDefault(&cfg.Events.Subject, DefaultSubject)
	setDefault(&cfg.Schedule.Every, DefaultScheduleEvery)
	if len(cfg.Schedule.Commands) == 0 {
		cfg.Schedule.Commands = []string{"format", "dist"}
	}
	return nil
}

func setDefault(field *string, value string) {
	if *field == "" {
		*field = value
	}
}

// ExampleTimeoutDuration parses Tools.ExampleTimeout, falling back to the
// default for invalid values.
func (c *Config) ExampleTimeoutDuration() time.Duration {
	d, err := time.ParseDuration(c.Tools.ExampleTimeout)
	if err != nil || d <= 0 {
		return DefaultExampleTimeout
	}
	return d
}

// FetchTimeoutDuration parses Fetch.Timeout, falling back to the default
// for invalid values.
func (c *Config) FetchTimeoutDuration() time.Duration {
	d, err := time.ParseDuration(c.Fetch.Timeout)
	if err != nil || d <= 0 {
		return DefaultFetchTimeout
	}
	return d
}

// RetryPolicy builds the download retry policy. Invalid values fall back
// to the defaults of the retry package.
func (c *Config) RetryPolicy() retry.Policy {
	initial, _ := time.ParseDuration(c.Fetch.RetryDelay)
	maxDelay, _ := time.ParseDuration(c.Fetch.MaxDelay)
	retries := -1
	if c.Fetch.Retries != nil {
		retries = *c.Fetch.Retries
	}
	return retry.NewPolicy(retry.BackoffMode(c.Fetch.Backoff), initial, maxDelay, retries)
}
