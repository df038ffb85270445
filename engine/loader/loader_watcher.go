package loader

import (
	"context"
	"os"
	"path/filepath"

	"github.com/Carmen-Shannon/oxy-gltf/common"
	"github.com/Carmen-Shannon/oxy-gltf/engine/model"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
)

// Watch watches the directories of every cached file asset. Assets cached later are
// picked up when their directory is already watched. Reloads run on the watch
// goroutine, so the loader's device must accept calls from it.
func (l *loader) Watch(ctx context.Context, onReload func(name string, asset *model.SceneAsset, err error)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "failed to create file watcher")
	}

	dirs := make(map[string]struct{})
	for name := range l.Assets() {
		abs, err := filepath.Abs(name)
		if err != nil {
			continue
		}
		if info, err := os.Stat(abs); err != nil || info.IsDir() {
			continue
		}
		dirs[filepath.Dir(abs)] = struct{}{}
	}
	for dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			watcher.Close()
			return errors.Wrapf(err, "failed to watch %s", dir)
		}
	}

	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case e, ok := <-watcher.Events:
				if !ok {
					return
				}
				if e.Op&(fsnotify.Create|fsnotify.Write) == 0 {
					continue
				}
				name, ok := l.cachedName(e.Name)
				if !ok {
					continue
				}
				common.LogInfo("Reloading changed asset", "path", name)
				asset, err := l.reload(ctx, name)
				if err != nil {
					common.LogError("Failed to reload asset", "path", name, "err", err)
				}
				if onReload != nil {
					onReload(name, asset, err)
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				common.LogError("File watcher error", "err", err)
			}
		}
	}()
	return nil
}

// cachedName returns the cache key whose absolute path is file.
func (l *loader) cachedName(file string) (string, bool) {
	target, err := filepath.Abs(file)
	if err != nil {
		return "", false
	}
	for name := range l.Assets() {
		if abs, err := filepath.Abs(name); err == nil && abs == target {
			return name, true
		}
	}
	return "", false
}

// reload prepares name again and replaces the cached asset. The cached asset survives a failed reload.
func (l *loader) reload(ctx context.Context, name string) (*model.SceneAsset, error) {
	prepared, err := l.Prepare(ctx, name)
	if err != nil {
		return nil, err
	}
	return l.upload(name, prepared)
}
