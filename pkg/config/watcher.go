// Copyright 2026 © The Anemos Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// fingerprint identifies a file revision. Size is tracked alongside the
// mod time so rewrites within the same clock tick are still noticed.
type fingerprint struct {
	mod  time.Time
	size int64
}

// Watcher polls a set of configuration files and reloads when any of
// them changes on disk.
type Watcher struct {
	mu       sync.RWMutex
	files    []string
	interval time.Duration
	seen     map[string]fingerprint
	config   *Config
	onChange []func(*Config)
	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
	logger   *slog.Logger
}

// WatcherOption configures the watcher.
type WatcherOption func(*Watcher)

// WithWatchInterval sets the polling interval for file changes.
func WithWatchInterval(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		if d > 0 {
			w.interval = d
		}
	}
}

// WithWatchLogger sets the logger for the watcher.
func WithWatchLogger(logger *slog.Logger) WatcherOption {
	return func(w *Watcher) {
		w.logger = logger
	}
}

// NewWatcher builds a watcher over the given files and loads the initial
// configuration from the first of them.
func NewWatcher(files []string, opts ...WatcherOption) (*Watcher, error) {
	w := &Watcher{
		files:    files,
		interval: 1 * time.Second,
		seen:     make(map[string]fingerprint),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
		logger:   slog.Default(),
	}

	for _, opt := range opts {
		opt(w)
	}

	for _, f := range files {
		if fp, ok := stat(f); ok {
			w.seen[f] = fp
		}
	}

	cfg, err := w.load()
	if err != nil {
		return nil, err
	}
	w.config = cfg

	return w, nil
}

func stat(path string) (fingerprint, bool) {
	info, err := os.Stat(path)
	if err != nil {
		return fingerprint{}, false
	}
	return fingerprint{mod: info.ModTime(), size: info.Size()}, true
}

// OnChange registers a callback invoked after every successful reload.
func (w *Watcher) OnChange(fn func(*Config)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onChange = append(w.onChange, fn)
}

// Config returns the most recently loaded configuration.
func (w *Watcher) Config() *Config {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.config
}

// Start begins polling in the background until ctx is done or Stop is
// called.
func (w *Watcher) Start(ctx context.Context) {
	go w.run(ctx)
}

// Stop halts polling and waits for the poll loop to exit.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() { close(w.stop) })
	<-w.done
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.done)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stop:
			return
		case <-ticker.C:
			if changed := w.changedFiles(); len(changed) > 0 {
				w.reload(changed)
			}
		}
	}
}

// changedFiles re-stats every watched file and returns the ones whose
// fingerprint moved. Missing files keep their last fingerprint so they
// fire once more when they reappear.
func (w *Watcher) changedFiles() []string {
	w.mu.Lock()
	defer w.mu.Unlock()

	var changed []string
	for _, f := range w.files {
		fp, ok := stat(f)
		if !ok {
			continue
		}
		if prev, tracked := w.seen[f]; !tracked || fp != prev {
			w.seen[f] = fp
			changed = append(changed, f)
		}
	}
	return changed
}

func (w *Watcher) reload(changed []string) {
	w.logger.Info("config changed, reloading", "files", changed)

	cfg, err := w.load()
	if err != nil {
		w.logger.Error("config reload failed, keeping previous", "error", err)
		return
	}

	w.mu.Lock()
	w.config = cfg
	listeners := make([]func(*Config), len(w.onChange))
	copy(listeners, w.onChange)
	w.mu.Unlock()

	for _, fn := range listeners {
		fn(cfg)
	}
}

// load reads the full configuration. The first watched file is the base
// config; profile siblings are layered by Load itself.
func (w *Watcher) load() (*Config, error) {
	if len(w.files) == 0 {
		return Load("")
	}
	return Load(w.files[0])
}

// WatchConfig builds a watcher over configPath and any profile siblings
// present next to it, starts it, and returns the initial configuration.
func WatchConfig(ctx context.Context, configPath string, opts ...WatcherOption) (*Watcher, *Config, error) {
	var files []string
	if configPath != "" {
		files = append(files, configPath)
		files = append(files, profileSiblings(configPath)...)
	}

	w, err := NewWatcher(files, opts...)
	if err != nil {
		return nil, nil, err
	}

	w.Start(ctx)
	return w, w.Config(), nil
}

// profileSiblings returns the config.<profile>.yaml variants that exist
// beside the base config file.
func profileSiblings(configPath string) []string {
	dir := filepath.Dir(configPath)
	ext := filepath.Ext(configPath)
	name := strings.TrimSuffix(filepath.Base(configPath), ext)

	var siblings []string
	for _, profile := range []string{"dev", "prod", "staging", "local"} {
		p := filepath.Join(dir, name+"."+profile+ext)
		if _, err := os.Stat(p); err == nil {
			siblings = append(siblings, p)
		}
	}
	return siblings
}

// ReloadableConfig is a thread-safe holder for the live configuration,
// swapped wholesale on reload.
type ReloadableConfig struct {
	mu     sync.RWMutex
	config *Config
}

// NewReloadableConfig wraps cfg for atomic replacement.
func NewReloadableConfig(cfg *Config) *ReloadableConfig {
	return &ReloadableConfig{config: cfg}
}

// Get returns the current configuration.
func (r *ReloadableConfig) Get() *Config {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.config
}

// Update atomically replaces the configuration.
func (r *ReloadableConfig) Update(cfg *Config) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.config = cfg
}

// NWS returns the weather service configuration.
func (r *ReloadableConfig) NWS() NWSConfig {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.config.NWS
}

// Orchestrator returns the orchestrator configuration.
func (r *ReloadableConfig) Orchestrator() OrchestratorConfig {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.config.Orchestrator
}

// Telemetry returns the telemetry configuration.
func (r *ReloadableConfig) Telemetry() TelemetryConfig {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.config.Telemetry
}

// Log returns the log configuration.
func (r *ReloadableConfig) Log() LogConfig {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.config.Log
}
