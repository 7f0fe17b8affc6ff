package config

import (
	"embed"
	"fmt"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed profiles/*.yaml
var profilesFS embed.FS

// ProfileManager loads named, embedded deployment profiles (e.g. "dev",
// "prod") and applies them on top of a Manager's active configuration.
type ProfileManager struct {
	manager *Manager
}

// NewProfileManager constructs a ProfileManager bound to manager.
func NewProfileManager(manager *Manager) *ProfileManager {
	return &ProfileManager{manager: manager}
}

// ListProfiles returns the names of every embedded profile.
func (pm *ProfileManager) ListProfiles() ([]string, error) {
	entries, err := profilesFS.ReadDir("profiles")
	if err != nil {
		return nil, fmt.Errorf("reading profiles directory: %w", err)
	}

	var profiles []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".yaml") {
			profiles = append(profiles, strings.TrimSuffix(entry.Name(), ".yaml"))
		}
	}
	return profiles, nil
}

// LoadProfile loads name as a standalone Config, layered over
// DefaultConfig.
func (pm *ProfileManager) LoadProfile(name string) (*Config, error) {
	data, err := profilesFS.ReadFile(filepath.Join("profiles", name+".yaml"))
	if err != nil {
		return nil, fmt.Errorf("reading profile %s: %w", name, err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing profile %s: %w", name, err)
	}
	cfg.Profile = name

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("validating profile %s: %w", name, err)
	}
	return cfg, nil
}

// ApplyProfile loads name and merges it over the manager's current
// configuration.
func (pm *ProfileManager) ApplyProfile(name string) error {
	profile, err := pm.LoadProfile(name)
	if err != nil {
		return err
	}
	merged := MergeConfigs(pm.manager.Get(), profile)
	return pm.manager.Update(func(cfg *Config) { *cfg = *merged })
}
