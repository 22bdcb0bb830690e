// SPDX-License-Identifier: MIT

package config

import (
	"context"
	"path/filepath"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"

	"github.com/agentworld/simbridge/internal/log"
)

// HTTPConfigHolder provides hot-reloadable access to the HTTP config document.
// All extensions share one holder; Current is safe for concurrent use.
type HTTPConfigHolder struct {
	path    string
	current atomic.Pointer[HTTPConfig]
}

// NewHTTPConfigHolder loads path (or defaults) and returns a holder.
func NewHTTPConfigHolder(path string) *HTTPConfigHolder {
	h := &HTTPConfigHolder{path: path}
	cfg := LoadHTTPConfig(path)
	h.current.Store(&cfg)
	return h
}

// Current returns the active HTTP config.
func (h *HTTPConfigHolder) Current() HTTPConfig {
	return *h.current.Load()
}

// Reload re-reads the config file and swaps the active document.
func (h *HTTPConfigHolder) Reload() {
	cfg := LoadHTTPConfig(h.path)
	h.current.Store(&cfg)
}

// Watch re-loads the document whenever the file changes on disk.
// Blocks until ctx is cancelled. A missing file is not an error; the holder
// keeps serving defaults until the file appears.
func (h *HTTPConfigHolder) Watch(ctx context.Context) error {
	if h.path == "" {
		<-ctx.Done()
		return nil
	}
	logger := log.WithComponent("config")

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	// Watch the directory: editors replace files, which drops file watches.
	if err := watcher.Add(filepath.Dir(h.path)); err != nil {
		return err
	}

	target := filepath.Clean(h.path)
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			h.Reload()
			logger.Info().Str("path", h.path).Str("event", "config.reloaded").
				Msg("http config reloaded")
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn().Err(err).Msg("config watcher error")
		}
	}
}
