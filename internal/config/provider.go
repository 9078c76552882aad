package config

import (
	"context"
	"path/filepath"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/fsnotify/fsnotify"
	"github.com/xaionaro-go/xsync"
)

// Provider hands out immutable config snapshots and optionally keeps them
// in sync with the config file. Each recording start takes its own snapshot,
// so a reload never affects a recording already in flight.
type Provider struct {
	locker  xsync.Mutex
	current Config
}

// NewProvider resolves the initial snapshot.
func NewProvider() (*Provider, error) {
	cfg, err := Load()
	if err != nil {
		return nil, err
	}
	return &Provider{current: cfg}, nil
}

// Snapshot returns the current config.
func (p *Provider) Snapshot(ctx context.Context) Config {
	return xsync.DoR1(ctx, &p.locker, func() Config {
		return p.current
	})
}

// Watch re-resolves the config whenever the config file changes. It blocks
// until ctx is cancelled. A config file that fails to resolve keeps the
// previous snapshot in place.
func (p *Provider) Watch(ctx context.Context) error {
	path := FilePath()
	if path == "" {
		logger.Debugf(ctx, "no config file present, hot reload disabled")
		<-ctx.Done()
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() {
		if err := watcher.Close(); err != nil {
			logger.Warnf(ctx, "failed to close config watcher: %v", err)
		}
	}()

	// Watch the directory, not the file: editors replace the file on save.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return err
	}
	logger.Infof(ctx, "watching %s for config changes", path)

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Name != path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			cfg, err := Load()
			if err != nil {
				logger.Warnf(ctx, "config reload failed, keeping previous: %v", err)
				continue
			}
			p.locker.Do(ctx, func() {
				p.current = cfg
			})
			logger.Infof(ctx, "config reloaded (fps=%d container=%s codec=%s)",
				cfg.FPS, cfg.Container, cfg.Codec)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warnf(ctx, "config watcher error: %v", err)
		}
	}
}
