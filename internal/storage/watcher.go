// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 Jade Signer Authors

package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// watchDebounce coalesces bursts of filesystem events into one reload.
const watchDebounce = 500 * time.Millisecond

// Watch reloads c whenever a keyfile document in a directory backend is
// created, modified, removed or renamed by another process. It returns an
// error if the backend is not a directory or the watcher cannot start, and
// otherwise runs until ctx is done. onReload, if non-nil, is called after
// each reload.
func Watch(ctx context.Context, c *Controller, onReload func()) error {
	if c.Type() != TypeDir {
		return fmt.Errorf("keystore watching requires the %q backend, not %q", TypeDir, c.Type())
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	if err := watcher.Add(c.KeystorePath()); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("failed to watch keystore directory: %w", err)
	}

	c.logger.Info("keystore watcher enabled", "path", c.KeystorePath())

	go func() {
		defer func() { _ = watcher.Close() }()

		var debounce *time.Timer
		defer func() {
			if debounce != nil {
				debounce.Stop()
			}
		}()

		for {
			select {
			case <-ctx.Done():
				return

			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !strings.HasSuffix(event.Name, keyfileExt) {
					continue
				}
				if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
					continue
				}
				if debounce != nil {
					debounce.Stop()
				}
				debounce = time.AfterFunc(watchDebounce, func() {
					c.Reload()
					if onReload != nil {
						onReload()
					}
				})

			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				c.logger.Warn("keystore watcher error", "error", err)
			}
		}
	}()

	return nil
}
