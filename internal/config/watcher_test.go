package config

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

type capturingLogger struct {
	lines []string
}

func (l *capturingLogger) Infof(format string, args ...interface{})  { l.lines = append(l.lines, format) }
func (l *capturingLogger) Warnf(format string, args ...interface{})  { l.lines = append(l.lines, format) }
func (l *capturingLogger) Errorf(format string, args ...interface{}) { l.lines = append(l.lines, format) }
func (l *capturingLogger) Debugf(format string, args ...interface{}) { l.lines = append(l.lines, format) }

func TestFileWatcherReload(t *testing.T) {
	Convey("FileWatcher", t, func() {
		dir := t.TempDir()
		path := filepath.Join(dir, "treesync.yaml")
		So(os.WriteFile(path, []byte("version: \"1.0\"\ndispatcher:\n  mode: authoritative\n  tick_interval: 20ms\n  max_drain_per_tick: 256\n  joining_timeout: 2s\n  snapshot_request_rate: 1\n  epsilon: 0.0001\nlogging:\n  level: info\n"), 0o644), ShouldBeNil)

		m := NewManager()
		So(m.Load(path), ShouldBeNil)

		logger := &capturingLogger{}
		fw := NewFileWatcher(m, logger)
		fw.SetInterval(10 * time.Millisecond)

		Convey("picks up a changed file", func() {
			So(fw.Watch(path), ShouldBeNil)
			defer fw.Stop()

			time.Sleep(15 * time.Millisecond)
			updated := "version: \"1.0\"\ndispatcher:\n  mode: router\n  tick_interval: 20ms\n  max_drain_per_tick: 256\n  joining_timeout: 2s\n  snapshot_request_rate: 1\n  epsilon: 0.0001\nlogging:\n  level: info\n"
			So(os.WriteFile(path, []byte(updated), 0o644), ShouldBeNil)
			So(os.Chtimes(path, time.Now().Add(time.Second), time.Now().Add(time.Second)), ShouldBeNil)

			So(waitUntil(func() bool { return m.Get().Dispatcher.Mode == Router }, 2*time.Second), ShouldBeTrue)
		})

		Convey("errors on a nonexistent path", func() {
			So(fw.Watch(filepath.Join(dir, "missing.yaml")), ShouldNotBeNil)
		})

		Convey("fires mode-change hooks only when dispatcher.mode actually changes", func() {
			var got []string
			var mu sync.Mutex
			fw.OnModeChange(func(old, updated AuthorityMode) {
				mu.Lock()
				got = append(got, string(old)+"->"+string(updated))
				mu.Unlock()
			})

			So(fw.Watch(path), ShouldBeNil)
			defer fw.Stop()

			time.Sleep(15 * time.Millisecond)
			unchanged := "version: \"1.0\"\ndispatcher:\n  mode: authoritative\n  tick_interval: 30ms\n  max_drain_per_tick: 256\n  joining_timeout: 2s\n  snapshot_request_rate: 1\n  epsilon: 0.0001\nlogging:\n  level: info\n"
			So(os.WriteFile(path, []byte(unchanged), 0o644), ShouldBeNil)
			So(os.Chtimes(path, time.Now().Add(time.Second), time.Now().Add(time.Second)), ShouldBeNil)
			So(waitUntil(func() bool { return m.Get().Dispatcher.TickInterval == 30*time.Millisecond }, 2*time.Second), ShouldBeTrue)

			mu.Lock()
			So(got, ShouldBeEmpty)
			mu.Unlock()

			routed := "version: \"1.0\"\ndispatcher:\n  mode: router\n  tick_interval: 30ms\n  max_drain_per_tick: 256\n  joining_timeout: 2s\n  snapshot_request_rate: 1\n  epsilon: 0.0001\nlogging:\n  level: info\n"
			So(os.WriteFile(path, []byte(routed), 0o644), ShouldBeNil)
			So(os.Chtimes(path, time.Now().Add(2*time.Second), time.Now().Add(2*time.Second)), ShouldBeNil)
			So(waitUntil(func() bool { return m.Get().Dispatcher.Mode == Router }, 2*time.Second), ShouldBeTrue)

			So(waitUntil(func() bool {
				mu.Lock()
				defer mu.Unlock()
				return len(got) == 1
			}, 2*time.Second), ShouldBeTrue)
			mu.Lock()
			So(got[0], ShouldEqual, "authoritative->router")
			mu.Unlock()
		})
	})
}

func waitUntil(cond func() bool, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return cond()
}

func TestChangeDetector(t *testing.T) {
	Convey("ChangeDetector.DetectChanges", t, func() {
		oldCfg := DefaultConfig()
		newCfg := DefaultConfig()

		Convey("reports no events for identical configs", func() {
			cd := NewChangeDetector(oldCfg, newCfg)
			So(cd.DetectChanges(), ShouldBeEmpty)
		})

		Convey("reports a modify event for a changed dispatcher field", func() {
			newCfg.Dispatcher.MaxDrainPerTick = 999
			cd := NewChangeDetector(oldCfg, newCfg)
			events := cd.DetectChanges()
			So(events, ShouldHaveLength, 1)
			So(events[0].Path, ShouldEqual, "dispatcher.max_drain_per_tick")
			So(events[0].Type, ShouldEqual, ChangeTypeModify)
		})

		Convey("reports an add event for a new feature flag", func() {
			newCfg.Features = map[string]bool{"x": true}
			cd := NewChangeDetector(oldCfg, newCfg)
			events := cd.DetectChanges()
			So(events, ShouldHaveLength, 1)
			So(events[0].Type, ShouldEqual, ChangeTypeAdd)
		})

		Convey("reports a delete event for a removed feature flag", func() {
			oldCfg.Features = map[string]bool{"x": true}
			cd := NewChangeDetector(oldCfg, newCfg)
			events := cd.DetectChanges()
			So(events, ShouldHaveLength, 1)
			So(events[0].Type, ShouldEqual, ChangeTypeDelete)
		})
	})
}
