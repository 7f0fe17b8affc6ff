package config

import (
	"context"
	"fmt"
	"log"
	"os"
	"sync"
	"time"
)

// FileWatcher polls a configuration file for changes and reloads the
// bound Manager when its mtime advances.
type FileWatcher struct {
	manager     *Manager
	watchedPath string
	lastModTime time.Time
	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	interval    time.Duration
	logger      Logger

	// modeChangeHooks fire when a reload changes Dispatcher.Mode. A
	// running Dispatcher captures its AuthorityMode once, at
	// construction (see pkg/treesync.NewDispatcher), so a hot-reloaded
	// mode flip never takes effect on its own — callers that need one
	// to matter register a hook here to rebuild the Dispatcher.
	modeChangeHooks []func(old, updated AuthorityMode)
}

// Logger is the minimal structured-logging surface FileWatcher, Dispatcher,
// and the NATS transport need. Warnf is for routing/type errors on an
// inbound record (the offending path rendered via Path.Format); Debugf is
// for state transitions and dropped patches.
type Logger interface {
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
	Debugf(format string, args ...interface{})
}

// DefaultLogger logs through the standard library's log package.
type DefaultLogger struct{}

func (l DefaultLogger) Infof(format string, args ...interface{}) {
	log.Printf("[INFO] "+format, args...)
}

func (l DefaultLogger) Warnf(format string, args ...interface{}) {
	log.Printf("[WARN] "+format, args...)
}

func (l DefaultLogger) Errorf(format string, args ...interface{}) {
	log.Printf("[ERROR] "+format, args...)
}

func (l DefaultLogger) Debugf(format string, args ...interface{}) {
	log.Printf("[DEBUG] "+format, args...)
}

// NewFileWatcher constructs a FileWatcher bound to manager. A nil logger
// defaults to DefaultLogger.
func NewFileWatcher(manager *Manager, logger Logger) *FileWatcher {
	if logger == nil {
		logger = DefaultLogger{}
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &FileWatcher{
		manager:  manager,
		ctx:      ctx,
		cancel:   cancel,
		interval: 2 * time.Second,
		logger:   logger,
	}
}

// Watch starts polling configPath for changes in a background goroutine.
func (fw *FileWatcher) Watch(configPath string) error {
	expandedPath, err := expandPath(configPath)
	if err != nil {
		return fmt.Errorf("expanding config path: %w", err)
	}

	stat, err := os.Stat(expandedPath)
	if err != nil {
		return fmt.Errorf("checking config file: %w", err)
	}

	fw.watchedPath = expandedPath
	fw.lastModTime = stat.ModTime()

	fw.logger.Infof("watching config file: %s", expandedPath)

	fw.wg.Add(1)
	go fw.watchLoop()

	return nil
}

// Stop halts the watch loop and blocks until it has exited.
func (fw *FileWatcher) Stop() {
	fw.logger.Infof("stopping config file watcher")
	fw.cancel()
	fw.wg.Wait()
}

// SetInterval sets the polling interval. Must be called before Watch.
func (fw *FileWatcher) SetInterval(interval time.Duration) {
	fw.interval = interval
}

// OnModeChange registers hook to run whenever a reload changes
// Dispatcher.Mode. Since a live Dispatcher fixes its AuthorityMode at
// construction, a caller running one typically uses this to rebuild it
// against the new mode rather than assume the reload applied on its own.
func (fw *FileWatcher) OnModeChange(hook func(old, updated AuthorityMode)) {
	fw.modeChangeHooks = append(fw.modeChangeHooks, hook)
}

func (fw *FileWatcher) watchLoop() {
	defer fw.wg.Done()

	ticker := time.NewTicker(fw.interval)
	defer ticker.Stop()

	for {
		select {
		case <-fw.ctx.Done():
			fw.logger.Debugf("config watcher stopped")
			return

		case <-ticker.C:
			if err := fw.checkForChanges(); err != nil {
				fw.logger.Errorf("checking for config changes: %v", err)
			}
		}
	}
}

func (fw *FileWatcher) checkForChanges() error {
	stat, err := os.Stat(fw.watchedPath)
	if err != nil {
		if os.IsNotExist(err) {
			fw.logger.Errorf("config file no longer exists: %s", fw.watchedPath)
			return nil
		}
		return err
	}

	modTime := stat.ModTime()
	if modTime.After(fw.lastModTime) {
		fw.logger.Infof("config file changed, reloading: %s", fw.watchedPath)

		if err := fw.reloadConfig(); err != nil {
			fw.logger.Errorf("failed to reload config: %v", err)
			return err
		}

		fw.lastModTime = modTime
		fw.logger.Infof("config reloaded successfully")
	}

	return nil
}

func (fw *FileWatcher) reloadConfig() error {
	oldCfg := fw.manager.Get()

	if err := fw.manager.Load(fw.watchedPath); err != nil {
		fw.logger.Errorf("failed to load new config, keeping current: %v", err)
		return err
	}

	newCfg := fw.manager.Get()
	fw.reportChanges(oldCfg, newCfg)

	fw.logger.Infof("config hot-reload completed")
	return nil
}

// reportChanges logs every field-level difference NewChangeDetector finds
// between oldCfg and newCfg, and runs any registered mode-change hooks —
// flagging dispatcher.mode specially, since it is the one field a running
// Dispatcher cannot pick up from a hot reload on its own.
func (fw *FileWatcher) reportChanges(oldCfg, newCfg *Config) {
	events := NewChangeDetector(oldCfg, newCfg).DetectChanges()
	for _, ev := range events {
		if ev.Path == "dispatcher.mode" {
			fw.logger.Warnf("config reload changed %s (%v -> %v); a running Dispatcher will not pick this up until it is reconstructed", ev.Path, ev.OldValue, ev.NewValue)
			continue
		}
		fw.logger.Infof("config reload changed %s (%v -> %v)", ev.Path, ev.OldValue, ev.NewValue)
	}

	if oldCfg.Dispatcher.Mode == newCfg.Dispatcher.Mode {
		return
	}
	for _, hook := range fw.modeChangeHooks {
		go hook(oldCfg.Dispatcher.Mode, newCfg.Dispatcher.Mode)
	}
}

// ChangeType classifies one field-level difference between two Configs.
type ChangeType string

const (
	ChangeTypeAdd    ChangeType = "add"
	ChangeTypeModify ChangeType = "modify"
	ChangeTypeDelete ChangeType = "delete"
)

// ConfigChangeEvent describes one field-level difference found by
// ChangeDetector.
type ConfigChangeEvent struct {
	Type     ChangeType
	Path     string
	OldValue interface{}
	NewValue interface{}
	Time     time.Time
}

// ChangeDetector diffs two Configs field by field, for logging exactly
// what changed on a hot reload rather than just that something did.
type ChangeDetector struct {
	oldConfig *Config
	newConfig *Config
}

// NewChangeDetector constructs a ChangeDetector comparing oldConfig against
// newConfig.
func NewChangeDetector(oldConfig, newConfig *Config) *ChangeDetector {
	return &ChangeDetector{oldConfig: oldConfig, newConfig: newConfig}
}

// DetectChanges returns one ConfigChangeEvent per differing dispatcher field
// and per added, removed, or changed feature flag. Logging, version, and
// profile fields are not compared.
func (cd *ChangeDetector) DetectChanges() []ConfigChangeEvent {
	var events []ConfigChangeEvent
	now := time.Now()

	oldD, newD := &cd.oldConfig.Dispatcher, &cd.newConfig.Dispatcher
	if oldD.Mode != newD.Mode {
		events = append(events, ConfigChangeEvent{Type: ChangeTypeModify, Path: "dispatcher.mode", OldValue: oldD.Mode, NewValue: newD.Mode, Time: now})
	}
	if oldD.TickInterval != newD.TickInterval {
		events = append(events, ConfigChangeEvent{Type: ChangeTypeModify, Path: "dispatcher.tick_interval", OldValue: oldD.TickInterval, NewValue: newD.TickInterval, Time: now})
	}
	if oldD.MaxDrainPerTick != newD.MaxDrainPerTick {
		events = append(events, ConfigChangeEvent{Type: ChangeTypeModify, Path: "dispatcher.max_drain_per_tick", OldValue: oldD.MaxDrainPerTick, NewValue: newD.MaxDrainPerTick, Time: now})
	}
	if oldD.JoiningTimeout != newD.JoiningTimeout {
		events = append(events, ConfigChangeEvent{Type: ChangeTypeModify, Path: "dispatcher.joining_timeout", OldValue: oldD.JoiningTimeout, NewValue: newD.JoiningTimeout, Time: now})
	}
	if oldD.SnapshotRequestRate != newD.SnapshotRequestRate {
		events = append(events, ConfigChangeEvent{Type: ChangeTypeModify, Path: "dispatcher.snapshot_request_rate", OldValue: oldD.SnapshotRequestRate, NewValue: newD.SnapshotRequestRate, Time: now})
	}
	if oldD.Epsilon != newD.Epsilon {
		events = append(events, ConfigChangeEvent{Type: ChangeTypeModify, Path: "dispatcher.epsilon", OldValue: oldD.Epsilon, NewValue: newD.Epsilon, Time: now})
	}

	for name, newValue := range cd.newConfig.Features {
		if oldValue, exists := cd.oldConfig.Features[name]; exists {
			if oldValue != newValue {
				events = append(events, ConfigChangeEvent{Type: ChangeTypeModify, Path: fmt.Sprintf("features.%s", name), OldValue: oldValue, NewValue: newValue, Time: now})
			}
		} else {
			events = append(events, ConfigChangeEvent{Type: ChangeTypeAdd, Path: fmt.Sprintf("features.%s", name), NewValue: newValue, Time: now})
		}
	}
	for name, oldValue := range cd.oldConfig.Features {
		if _, exists := cd.newConfig.Features[name]; !exists {
			events = append(events, ConfigChangeEvent{Type: ChangeTypeDelete, Path: fmt.Sprintf("features.%s", name), OldValue: oldValue, Time: now})
		}
	}

	return events
}
