// Package config provides a unified configuration system for a treesync
// deployment: the dispatcher's tick cadence, its per-tick drain bound, the
// Joining-state snapshot timeout, the floating-point equality epsilon, and
// the authority mode.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// AuthorityMode selects whether a Dispatcher is the tree's authority (joins
// via a snapshot request and answers other peers' requests once synced) or
// a router (synced on connect, never requests or answers snapshots)
// (SPEC_FULL.md, "authority mode is a constructor parameter, not a guess").
type AuthorityMode string

const (
	Authoritative AuthorityMode = "authoritative"
	Router        AuthorityMode = "router"
)

// Config is the complete treesync deployment configuration.
type Config struct {
	Dispatcher DispatcherConfig `yaml:"dispatcher" json:"dispatcher"`
	Logging    LoggingConfig    `yaml:"logging" json:"logging"`
	Features   map[string]bool  `yaml:"features" json:"features"`

	Version string `yaml:"version" json:"version"`
	Profile string `yaml:"profile" json:"profile"`
}

// DispatcherConfig tunes the root Dispatcher's state machine.
type DispatcherConfig struct {
	Mode AuthorityMode `yaml:"mode" json:"mode" env:"TREESYNC_MODE" default:"authoritative"`

	// TickInterval is how often the dispatcher drains its inbound queue.
	TickInterval time.Duration `yaml:"tick_interval" json:"tick_interval" env:"TREESYNC_TICK_INTERVAL" default:"20ms"`

	// MaxDrainPerTick bounds how many inbound records one tick applies,
	// so a burst of patches cannot starve the rest of the process.
	MaxDrainPerTick int `yaml:"max_drain_per_tick" json:"max_drain_per_tick" env:"TREESYNC_MAX_DRAIN" default:"256"`

	// JoiningTimeout bounds how long the Joining state waits for a
	// Snapshot before re-requesting one.
	JoiningTimeout time.Duration `yaml:"joining_timeout" json:"joining_timeout" env:"TREESYNC_JOINING_TIMEOUT" default:"2s"`

	// SnapshotRequestRate bounds how often a Joining or resyncing peer
	// may re-emit a SnapshotRequest, in requests per second.
	SnapshotRequestRate float64 `yaml:"snapshot_request_rate" json:"snapshot_request_rate" env:"TREESYNC_SNAPSHOT_RATE" default:"1"`

	// Epsilon is the tolerance used by float64 cells that opt into
	// epsilon equality (SPEC_FULL.md's resolution of the floating-point
	// equality Open Question); never hardcoded into a cell.
	Epsilon float64 `yaml:"epsilon" json:"epsilon" env:"TREESYNC_EPSILON" default:"0.0001"`
}

// LoggingConfig controls the ambient structured logger.
type LoggingConfig struct {
	Level       string `yaml:"level" json:"level" env:"TREESYNC_LOG_LEVEL" default:"info"`
	EnableColor bool   `yaml:"enable_color" json:"enable_color" env:"TREESYNC_LOG_COLOR" default:"true"`
}

// Manager owns the active Config and notifies registered hooks when it
// changes, whether from an explicit Load or a watched file reload.
type Manager struct {
	mu          sync.RWMutex
	config      *Config
	configPath  string
	changeHooks []func(*Config)
}

// NewManager constructs a Manager seeded with DefaultConfig.
func NewManager() *Manager {
	return &Manager{
		config:      DefaultConfig(),
		changeHooks: make([]func(*Config), 0),
	}
}

// DefaultConfig returns the configuration used when no file is loaded.
func DefaultConfig() *Config {
	return &Config{
		Dispatcher: DispatcherConfig{
			Mode:                Authoritative,
			TickInterval:        20 * time.Millisecond,
			MaxDrainPerTick:     256,
			JoiningTimeout:      2 * time.Second,
			SnapshotRequestRate: 1,
			Epsilon:             0.0001,
		},
		Logging: LoggingConfig{
			Level:       "info",
			EnableColor: true,
		},
		Features: make(map[string]bool),
		Version:  "1.0",
		Profile:  "default",
	}
}

// Load reads path, applies environment overrides, validates the result, and
// makes it the active configuration. It does not read a TOML profile
// overlay; LoadTOMLOverlay applies one separately.
func (m *Manager) Load(path string) error {
	expanded, err := expandPath(path)
	if err != nil {
		return fmt.Errorf("expanding config path: %w", err)
	}

	data, err := os.ReadFile(expanded)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}
	if err := NewLoader().LoadFromEnvironment(cfg); err != nil {
		return fmt.Errorf("applying environment overrides: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return fmt.Errorf("validating configuration: %w", err)
	}

	m.mu.Lock()
	m.config = cfg
	m.configPath = expanded
	m.mu.Unlock()

	m.notifyChangeHooks(cfg)
	return nil
}

// Get returns a copy of the active configuration.
func (m *Manager) Get() *Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	cfgCopy := *m.config
	return &cfgCopy
}

// ConfigPath returns the path Load last read, or "" if none has been
// loaded.
func (m *Manager) ConfigPath() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.configPath
}

// Update applies updateFunc to a copy of the active configuration,
// validates it, and swaps it in on success.
func (m *Manager) Update(updateFunc func(*Config)) error {
	m.mu.Lock()
	cfgCopy := *m.config
	updateFunc(&cfgCopy)
	if err := Validate(&cfgCopy); err != nil {
		m.mu.Unlock()
		return fmt.Errorf("validating updated configuration: %w", err)
	}
	m.config = &cfgCopy
	m.mu.Unlock()

	m.notifyChangeHooks(&cfgCopy)
	return nil
}

// OnChange registers hook to run (in its own goroutine) whenever the
// active configuration changes.
func (m *Manager) OnChange(hook func(*Config)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.changeHooks = append(m.changeHooks, hook)
}

func (m *Manager) notifyChangeHooks(cfg *Config) {
	m.mu.RLock()
	hooks := make([]func(*Config), len(m.changeHooks))
	copy(hooks, m.changeHooks)
	m.mu.RUnlock()

	for _, hook := range hooks {
		go hook(cfg)
	}
}

func expandPath(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	if path[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		path = filepath.Join(home, path[1:])
	}
	return os.ExpandEnv(path), nil
}
