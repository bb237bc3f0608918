// ABOUTME: Polling watcher over hook directories for discovery-cache invalidation
// ABOUTME: Fingerprints entry names, modes, and mtimes so chmod toggles are seen too

package config

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"time"
)

// Watcher monitors directories for changes by polling at regular intervals.
// A directory that does not exist yet is watched for its creation.
type Watcher struct {
	dirs     func() []string
	onChange func()
	interval time.Duration
	prints   map[string]string
	stopCh   chan struct{}
	mu       sync.Mutex
	running  bool
	stopOnce sync.Once
}

// NewWatcher creates a watcher that calls onChange when any monitored
// directory's contents change.
func NewWatcher(dirs []string, onChange func()) *Watcher {
	fixed := append([]string(nil), dirs...)
	return NewDynamicWatcher(func() []string { return fixed }, onChange)
}

// NewDynamicWatcher creates a watcher that asks dirs for the directory set
// on every check, always with the watcher's lock held. A directory that
// joins the set counts as changed when it already exists.
func NewDynamicWatcher(dirs func() []string, onChange func()) *Watcher {
	return &Watcher{
		dirs:     dirs,
		onChange: onChange,
		interval: DefaultWatchInterval,
		prints:   make(map[string]string),
		stopCh:   make(chan struct{}),
	}
}

// SetInterval overrides the default polling interval.
func (w *Watcher) SetInterval(d time.Duration) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.interval = d
}

// Start begins polling in a goroutine. Safe to call multiple times; subsequent calls are no-ops.
func (w *Watcher) Start() {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return
	}
	w.running = true
	w.snapshotLocked()
	w.mu.Unlock()

	go w.loop()
}

// Stop halts the polling goroutine. Safe to call multiple times and concurrently.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
		close(w.stopCh)
	})
}

// ForceCheck triggers an immediate check outside the polling cycle.
func (w *Watcher) ForceCheck() {
	w.mu.Lock()
	changed := w.checkLocked()
	if changed {
		w.snapshotLocked()
	}
	w.mu.Unlock()

	if changed {
		w.onChange()
	}
}

func (w *Watcher) loop() {
	w.mu.Lock()
	interval := w.interval
	w.mu.Unlock()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.ForceCheck()
		}
	}
}

// checkLocked compares current fingerprints with the snapshot. Must hold mu.
func (w *Watcher) checkLocked() bool {
	for _, dir := range w.dirs() {
		if fingerprint(dir) != w.prints[dir] {
			return true
		}
	}
	return false
}

// snapshotLocked records current fingerprints. Must hold mu.
func (w *Watcher) snapshotLocked() {
	prints := make(map[string]string)
	for _, dir := range w.dirs() {
		prints[dir] = fingerprint(dir)
	}
	w.prints = prints
}

// fingerprint summarises a directory's entries; "" for a missing directory.
func fingerprint(dir string) string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return ""
	}
	lines := make([]string, 0, len(entries)+1)
	lines = append(lines, "dir")
	for _, e := range entries {
		info, err := e.Info()
		if err != nil {
			continue
		}
		lines = append(lines, fmt.Sprintf("%s|%v|%d|%d", e.Name(), info.Mode(), info.Size(), info.ModTime().UnixNano()))
	}
	sort.Strings(lines[1:])
	return strings.Join(lines, "\n")
}
