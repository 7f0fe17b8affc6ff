package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Loader handles configuration loading from environment variables, walking
// a Config's struct tags by reflection rather than one hand-written
// override per field.
type Loader struct {
	envPrefix string
}

// NewLoader constructs a Loader using the TREESYNC_ environment prefix for
// any field without an explicit env tag.
func NewLoader() *Loader {
	return &Loader{envPrefix: "TREESYNC_"}
}

// LoadFromEnvironment applies environment variable overrides to cfg.
func (l *Loader) LoadFromEnvironment(cfg *Config) error {
	return l.applyEnvOverrides(reflect.ValueOf(cfg).Elem(), "")
}

func (l *Loader) applyEnvOverrides(v reflect.Value, prefix string) error {
	t := v.Type()

	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		fieldType := t.Field(i)
		if !field.CanSet() {
			continue
		}

		envName := fieldType.Tag.Get("env")
		if envName == "" {
			name := strings.ToUpper(fieldType.Name)
			if prefix != "" {
				envName = l.envPrefix + prefix + "_" + name
			} else {
				envName = l.envPrefix + name
			}
		}

		switch {
		case field.Kind() == reflect.Struct:
			newPrefix := strings.ToUpper(fieldType.Name)
			if prefix != "" {
				newPrefix = prefix + "_" + newPrefix
			}
			if err := l.applyEnvOverrides(field, newPrefix); err != nil {
				return err
			}

		case field.Type() == reflect.TypeOf(time.Duration(0)):
			if value := os.Getenv(envName); value != "" {
				d, err := time.ParseDuration(value)
				if err != nil {
					return fmt.Errorf("parsing duration from %s: %w", envName, err)
				}
				field.Set(reflect.ValueOf(d))
			}

		case field.Kind() == reflect.String:
			if value := os.Getenv(envName); value != "" {
				field.SetString(value)
			}

		case field.Kind() == reflect.Bool:
			if value := os.Getenv(envName); value != "" {
				b, err := strconv.ParseBool(value)
				if err != nil {
					return fmt.Errorf("parsing bool from %s: %w", envName, err)
				}
				field.SetBool(b)
			}

		case field.Kind() == reflect.Int:
			if value := os.Getenv(envName); value != "" {
				n, err := strconv.ParseInt(value, 10, 64)
				if err != nil {
					return fmt.Errorf("parsing int from %s: %w", envName, err)
				}
				field.SetInt(n)
			}

		case field.Kind() == reflect.Float64:
			if value := os.Getenv(envName); value != "" {
				f, err := strconv.ParseFloat(value, 64)
				if err != nil {
					return fmt.Errorf("parsing float from %s: %w", envName, err)
				}
				field.SetFloat(f)
			}

		case field.Kind() == reflect.Map && fieldType.Name == "Features":
			l.loadFeaturesFromEnv(field, envName)
		}
	}
	return nil
}

func (l *Loader) loadFeaturesFromEnv(field reflect.Value, prefix string) {
	if field.IsNil() {
		field.Set(reflect.MakeMap(field.Type()))
	}
	featurePrefix := prefix + "_"
	for _, env := range os.Environ() {
		if !strings.HasPrefix(env, featurePrefix) {
			continue
		}
		parts := strings.SplitN(env, "=", 2)
		if len(parts) != 2 {
			continue
		}
		name := strings.ToLower(strings.TrimPrefix(parts[0], featurePrefix))
		if v, err := strconv.ParseBool(parts[1]); err == nil {
			field.SetMapIndex(reflect.ValueOf(name), reflect.ValueOf(v))
		}
	}
}

// tomlOverlay is the subset of Config a per-environment TOML profile file
// is allowed to override — deliberately smaller than Config itself, since
// a profile overlay tunes deployment knobs, not the whole document.
type tomlOverlay struct {
	Dispatcher struct {
		Mode                string  `toml:"mode"`
		TickIntervalMS      int     `toml:"tick_interval_ms"`
		MaxDrainPerTick     int     `toml:"max_drain_per_tick"`
		JoiningTimeoutMS    int     `toml:"joining_timeout_ms"`
		SnapshotRequestRate float64 `toml:"snapshot_request_rate"`
		Epsilon             float64 `toml:"epsilon"`
	} `toml:"dispatcher"`
}

// LoadTOMLOverlay reads a TOML profile file and applies any non-zero
// fields over cfg, for environment-specific overrides layered on top of
// the base YAML document (SPEC_FULL.md's ambient configuration section).
func LoadTOMLOverlay(cfg *Config, path string) error {
	var overlay tomlOverlay
	if _, err := toml.DecodeFile(path, &overlay); err != nil {
		return fmt.Errorf("decoding TOML overlay %s: %w", path, err)
	}

	d := &overlay.Dispatcher
	if d.Mode != "" {
		cfg.Dispatcher.Mode = AuthorityMode(d.Mode)
	}
	if d.TickIntervalMS > 0 {
		cfg.Dispatcher.TickInterval = time.Duration(d.TickIntervalMS) * time.Millisecond
	}
	if d.MaxDrainPerTick > 0 {
		cfg.Dispatcher.MaxDrainPerTick = d.MaxDrainPerTick
	}
	if d.JoiningTimeoutMS > 0 {
		cfg.Dispatcher.JoiningTimeout = time.Duration(d.JoiningTimeoutMS) * time.Millisecond
	}
	if d.SnapshotRequestRate > 0 {
		cfg.Dispatcher.SnapshotRequestRate = d.SnapshotRequestRate
	}
	if d.Epsilon > 0 {
		cfg.Dispatcher.Epsilon = d.Epsilon
	}
	return nil
}

// MergeConfigs layers overlays onto base in order, returning a new Config.
// Zero-valued overlay fields never clobber a set base value, except
// Logging.EnableColor, which is always taken from the overlay.
func MergeConfigs(base *Config, overlays ...*Config) *Config {
	result := *base
	if base.Features != nil {
		result.Features = make(map[string]bool, len(base.Features))
		for k, v := range base.Features {
			result.Features[k] = v
		}
	}
	for _, overlay := range overlays {
		if overlay == nil {
			continue
		}
		mergeDispatcher(&result.Dispatcher, &overlay.Dispatcher)
		mergeLogging(&result.Logging, &overlay.Logging)

		if overlay.Features != nil {
			if result.Features == nil {
				result.Features = make(map[string]bool)
			}
			for k, v := range overlay.Features {
				result.Features[k] = v
			}
		}
		if overlay.Version != "" {
			result.Version = overlay.Version
		}
		if overlay.Profile != "" {
			result.Profile = overlay.Profile
		}
	}
	return &result
}

func mergeDispatcher(base, overlay *DispatcherConfig) {
	if overlay.Mode != "" {
		base.Mode = overlay.Mode
	}
	if overlay.TickInterval > 0 {
		base.TickInterval = overlay.TickInterval
	}
	if overlay.MaxDrainPerTick > 0 {
		base.MaxDrainPerTick = overlay.MaxDrainPerTick
	}
	if overlay.JoiningTimeout > 0 {
		base.JoiningTimeout = overlay.JoiningTimeout
	}
	if overlay.SnapshotRequestRate > 0 {
		base.SnapshotRequestRate = overlay.SnapshotRequestRate
	}
	if overlay.Epsilon > 0 {
		base.Epsilon = overlay.Epsilon
	}
}

func mergeLogging(base, overlay *LoggingConfig) {
	if overlay.Level != "" {
		base.Level = overlay.Level
	}
	base.EnableColor = overlay.EnableColor
}
