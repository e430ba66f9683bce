package config

import (
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	derrors "github.com/TeXLuaCATS/manager/internal/errors"
)

// Config is the configuration of the manager. Every field is optional;
// command line flags override the values read from the file.
type Config struct {
	// BasePath is the parent directory of the meta repository checkout.
	BasePath   string            `yaml:"base_path"`
	Subproject string            `yaml:"subproject,omitempty"`
	Debug      bool              `yaml:"debug,omitempty"`
	Tools      ToolsConfig       `yaml:"tools"`
	Fetch      FetchConfig       `yaml:"fetch"`
	Git        GitConfig         `yaml:"git"`
	Events     EventsConfig      `yaml:"events"`
	Metrics    MetricsConfig     `yaml:"metrics"`
	Schedule   ScheduleConfig    `yaml:"schedule"`
	Commits    map[string]string `yaml:"commits,omitempty"`
}

// ToolsConfig holds the external programs invoked by the pipeline.
type ToolsConfig struct {
	Stylua         string `yaml:"stylua"`
	Pygmentize     string `yaml:"pygmentize"`
	EmmyLuaDoc     string `yaml:"emmylua_doc"`
	MkDocs         string `yaml:"mkdocs"`
	LuaTeX         string `yaml:"luatex"`
	ExampleTimeout string `yaml:"example_timeout"`
}

// FetchConfig configures downloads of manuals and external definitions.
// Backoff is fixed, linear or exponential.
type FetchConfig struct {
	Timeout    string `yaml:"timeout"`
	Retries    *int   `yaml:"retries,omitempty"`
	Backoff    string `yaml:"backoff"`
	RetryDelay string `yaml:"retry_delay"`
	MaxDelay   string `yaml:"max_delay"`
}

// GitConfig configures commits and pushes to the subproject remotes.
type GitConfig struct {
	Branch      string      `yaml:"branch"`
	AuthorName  string      `yaml:"author_name"`
	AuthorEmail string      `yaml:"author_email"`
	Auth        *AuthConfig `yaml:"auth,omitempty"`
}

// EventsConfig configures the run history and its notifications.
type EventsConfig struct {
	// Database is the SQLite file of the run history. Empty disables it.
	Database string `yaml:"database"`
	// NATSURL enables publishing run events. Empty disables it.
	NATSURL string `yaml:"nats_url"`
	Subject string `yaml:"subject"`
}

// MetricsConfig configures the Prometheus text file export.
type MetricsConfig struct {
	File string `yaml:"file"`
}

// ScheduleConfig configures the `schedule` command. Cron takes precedence
// over Every when set.
type ScheduleConfig struct {
	Every    string   `yaml:"every"`
	Cron     string   `yaml:"cron,omitempty"`
	Commands []string `yaml:"commands"`
}

// Load reads a YAML configuration file. Environment variables referenced as
// ${NAME} are expanded; a .env file in the working directory is loaded
// first when present.
func Load(configPath string) (*Config, error) {
	if err := loadEnvFile(); err != nil {
		slog.Debug("No .env file loaded", slog.String("error", err.Error()))
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, derrors.ConfigInvalid(configPath, fmt.Errorf("configuration file not found"))
	}

	data, err := os.ReadFile(configPath) // #nosec G304 -- user supplied configuration path
	if err != nil {
		return nil, derrors.ConfigInvalid(configPath, err)
	}

	expandedData := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, derrors.ConfigInvalid(configPath, fmt.Errorf("failed to unmarshal config: %w", err))
	}

	if err := applyDefaults(&cfg); err != nil {
		return nil, derrors.ConfigInvalid(configPath, err)
	}
	if err := ValidateConfig(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns a configuration with all defaults applied.
func Default() *Config {
	cfg := &Config{}
	_ = applyDefaults(cfg)
	return cfg
}

// Init writes an example configuration file.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return derrors.ConfigInvalid(configPath, fmt.Errorf("configuration file already exists (use --force to overwrite)"))
	}

	example := Default()
	example.Git.Auth = &AuthConfig{Type: AuthTypeToken, Token: "${GITHUB_TOKEN}"}
	example.Events.Database = "manager-events.db"

	data, err := yaml.Marshal(example)
	if err != nil {
		return derrors.InternalError("failed to marshal config", err)
	}
	if err := os.WriteFile(configPath, data, 0o600); err != nil {
		return derrors.IOFailed("write", configPath, err)
	}
	return nil
}
