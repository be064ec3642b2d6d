// Package config loads the actor configuration from YAML.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/eliteGoblin/focusd/actor/internal/domain"
	"github.com/eliteGoblin/focusd/actor/internal/policy"
)

// Config holds the daemon configuration.
type Config struct {
	// TickInterval is how often every orchestrator runs.
	TickInterval time.Duration `yaml:"tick_interval"`
	// HeartbeatInterval is how often the daemon records that it is alive.
	HeartbeatInterval time.Duration `yaml:"heartbeat_interval"`
	// PromptTimeout bounds how long a prompt waits for the user.
	PromptTimeout time.Duration `yaml:"prompt_timeout"`

	Log   LogConfig   `yaml:"log"`
	Store StoreConfig `yaml:"store"`

	// Allowed in every activity.
	WhitelistedCommands []string `yaml:"whitelisted_commands"`
	WhitelistedTitles   []string `yaml:"whitelisted_titles"`
	// TerminalEmulators are searched for blacklisted commands.
	TerminalEmulators []string `yaml:"terminal_emulators"`

	Activities []policy.ActivitySpec  `yaml:"activities"`
	Flows      []policy.FlowSpec      `yaml:"flows"`
	Trackers   []policy.TrackerSpec   `yaml:"trackers"`
	Blocklists []policy.BlocklistSpec `yaml:"blocklists"`

	// Entered when the daemon starts. A default flow takes precedence.
	DefaultActivity string `yaml:"default_activity,omitempty"`
	DefaultFlow     string `yaml:"default_flow,omitempty"`
}

// LogConfig selects where the daemon logs.
type LogConfig struct {
	Path  string `yaml:"path"`
	Debug bool   `yaml:"debug"`
}

// StoreConfig selects the tracker database.
type StoreConfig struct {
	Dir       string `yaml:"dir"`
	Encrypted bool   `yaml:"encrypted"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		TickInterval:      5 * time.Second,
		HeartbeatInterval: 30 * time.Second,
		PromptTimeout:     5 * time.Minute,
		Log: LogConfig{
			Path: "~/.local/state/actor/actor.log",
		},
		Store: StoreConfig{
			Dir:       "~/.local/share/actor",
			Encrypted: true,
		},
		TerminalEmulators: []string{
			"gnome-terminal",
			"konsole",
			"xfce4-terminal",
			"terminator",
			"tilix",
			"alacritty",
			"kitty",
			"urxvt",
			"xterm",
		},
	}
}

// DefaultPath returns ~/.config/actor/config.yaml, honouring XDG_CONFIG_HOME.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "config.yaml"
	}
	return filepath.Join(dir, "actor", "config.yaml")
}

// Load reads path over the defaults. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg.expand(), nil
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", domain.NewConfigError(path, err.Error()))
	}

	cfg.expand()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Save writes cfg to path, creating parent directories if needed.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config cannot be nil")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

// Validate reports the first problem as a *domain.ConfigError.
func (c *Config) Validate() error {
	if c.TickInterval <= 0 {
		return domain.NewConfigError("tick_interval", "must be positive")
	}
	if c.HeartbeatInterval <= 0 {
		return domain.NewConfigError("heartbeat_interval", "must be positive")
	}
	if c.PromptTimeout <= 0 {
		return domain.NewConfigError("prompt_timeout", "must be positive")
	}
	if c.Store.Dir == "" {
		return domain.NewConfigError("store.dir", "must not be empty")
	}

	activities, err := uniqueNames("activities", len(c.Activities), func(i int) string { return c.Activities[i].Name })
	if err != nil {
		return err
	}
	flows, err := uniqueNames("flows", len(c.Flows), func(i int) string { return c.Flows[i].Name })
	if err != nil {
		return err
	}
	if _, err := uniqueNames("trackers", len(c.Trackers), func(i int) string { return c.Trackers[i].Name }); err != nil {
		return err
	}

	if c.DefaultActivity != "" && !activities[c.DefaultActivity] {
		return domain.NewConfigError("default_activity", fmt.Sprintf("unknown activity %q", c.DefaultActivity))
	}
	if c.DefaultFlow != "" && !flows[c.DefaultFlow] {
		return domain.NewConfigError("default_flow", fmt.Sprintf("unknown flow %q", c.DefaultFlow))
	}
	return nil
}

func uniqueNames(field string, n int, name func(int) string) (map[string]bool, error) {
	seen := make(map[string]bool, n)
	for i := 0; i < n; i++ {
		v := name(i)
		if v == "" {
			return nil, domain.NewConfigError(fmt.Sprintf("%s[%d].name", field, i), "must not be empty")
		}
		if seen[v] {
			return nil, domain.NewConfigError(field, fmt.Sprintf("duplicate name %q", v))
		}
		seen[v] = true
	}
	return seen, nil
}

// PolicySet converts the orchestrator sections for the policy package.
func (c *Config) PolicySet() policy.Set {
	return policy.Set{
		Globals: policy.Globals{
			WhitelistedCommands: c.WhitelistedCommands,
			WhitelistedTitles:   c.WhitelistedTitles,
			TerminalEmulators:   c.TerminalEmulators,
		},
		Activities: c.Activities,
		Flows:      c.Flows,
		Trackers:   c.Trackers,
		Blocklists: c.Blocklists,
	}
}

// expand resolves ~ in the file locations.
func (c *Config) expand() *Config {
	c.Log.Path = expandHome(c.Log.Path)
	c.Store.Dir = expandHome(c.Store.Dir)
	return c
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
