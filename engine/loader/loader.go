package loader

import (
	"context"
	"io"
	"io/fs"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-gltf/common"
	"github.com/Carmen-Shannon/oxy-gltf/engine/model"
	"github.com/Carmen-Shannon/oxy-gltf/engine/profiler"
	"github.com/Carmen-Shannon/oxy-gltf/engine/renderer"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/pkg/errors"
)

// LoaderBackendType identifies the asset file format backend to use.
type LoaderBackendType int

const (
	// BackendTypeGLTF selects the glTF/GLB loader backend.
	BackendTypeGLTF LoaderBackendType = iota
)

// ErrUnsupportedFormat is returned for paths whose extension no backend decodes.
var ErrUnsupportedFormat = errors.New("unsupported asset format")

// loader is the implementation of the Loader interface.
type loader struct {
	mu sync.RWMutex

	device   renderer.GraphicsDevice
	textures TextureResolver
	cfg      Config
	profiler *profiler.Profiler

	assetCache map[string]*model.SceneAsset

	backendType LoaderBackendType
	backend     loaderBackend
}

// Loader defines the public-facing interface for loading and caching scene assets.
// It abstracts the file format behind a backend and manages a cache of previously
// loaded assets. Without a device, assets are prepared on the CPU only.
type Loader interface {
	// Load imports an asset file and caches the result.
	// If the asset is already cached (by file path), the cached version is returned.
	//
	// Parameters:
	//   - ctx: context for cancellation
	//   - path: the file path to the asset file
	//
	// Returns:
	//   - *model.SceneAsset: the loaded and cached asset
	//   - error: error if loading fails
	Load(ctx context.Context, path string) (*model.SceneAsset, error)

	// LoadFS imports an asset from fsys and caches it by path.
	//
	// Parameters:
	//   - ctx: context for cancellation
	//   - fsys: the file system holding the asset and its sidecar files
	//   - path: the slash-separated path inside fsys
	//
	// Returns:
	//   - *model.SceneAsset: the loaded and cached asset
	//   - error: error if loading fails
	LoadFS(ctx context.Context, fsys fs.FS, path string) (*model.SceneAsset, error)

	// LoadReader imports a self-contained asset from a reader stream and caches it by the given name.
	//
	// Parameters:
	//   - ctx: context for cancellation
	//   - name: the cache key for the loaded asset
	//   - r: the reader providing glTF JSON or GLB data
	//
	// Returns:
	//   - *model.SceneAsset: the loaded asset
	//   - error: error if loading fails
	LoadReader(ctx context.Context, name string, r io.Reader) (*model.SceneAsset, error)

	// LoadBatch prepares several asset files in parallel on a worker pool, then uploads
	// them one by one on the calling goroutine. Files that fail are reported together,
	// and the assets that succeeded are still cached.
	//
	// Parameters:
	//   - ctx: context for cancellation
	//   - paths: the file paths to load
	//
	// Returns:
	//   - []*model.SceneAsset: the assets in the order of paths, nil where loading failed
	//   - error: the joined errors of the failed files
	LoadBatch(ctx context.Context, paths []string) ([]*model.SceneAsset, error)

	// Prepare imports an asset file on the CPU without creating GPU resources or caching it.
	//
	// Parameters:
	//   - ctx: context for cancellation
	//   - path: the file path to the asset file
	//
	// Returns:
	//   - *PreparedAsset: the prepared asset
	//   - error: error if preparation fails
	Prepare(ctx context.Context, path string) (*PreparedAsset, error)

	// Upload creates the GPU resources of a prepared asset on the loader's device and
	// caches it under its location. Without a device the CPU-only asset is cached.
	//
	// Parameters:
	//   - prepared: the asset returned by Prepare
	//
	// Returns:
	//   - *model.SceneAsset: the uploaded asset
	//   - error: error if resource creation fails, in which case the asset is disposed
	Upload(prepared *PreparedAsset) (*model.SceneAsset, error)

	// Get retrieves a cached asset by name. Returns nil if not found.
	//
	// Parameters:
	//   - name: the cache key to look up
	//
	// Returns:
	//   - *model.SceneAsset: the cached asset or nil
	Get(name string) *model.SceneAsset

	// Assets returns a copy of the asset cache.
	//
	// Returns:
	//   - map[string]*model.SceneAsset: all cached assets keyed by name
	Assets() map[string]*model.SceneAsset

	// Evict removes an asset from the cache and disposes it.
	//
	// Parameters:
	//   - name: the cache key
	//
	// Returns:
	//   - bool: false if nothing was cached under name
	Evict(name string) bool

	// Watch reloads cached file assets whenever their source changes, until ctx is done.
	// The reloaded asset replaces the cached one, which is disposed.
	//
	// Parameters:
	//   - ctx: context ending the watch
	//   - onReload: optional callback receiving each reload result
	//
	// Returns:
	//   - error: error if the file watcher cannot be created
	Watch(ctx context.Context, onReload func(name string, asset *model.SceneAsset, err error)) error

	// Release disposes every cached asset and empties the cache.
	Release()
}

var _ Loader = &loader{}

// NewLoader creates a new Loader instance with the specified backend type and options applied.
//
// Parameters:
//   - backendType: the type of loader backend to use (e.g., BackendTypeGLTF)
//   - options: a variadic list of LoaderBuilderOption functions to configure the Loader
//
// Returns:
//   - Loader: a new instance of Loader configured with the provided backend and options
func NewLoader(backendType LoaderBackendType, options ...LoaderBuilderOption) Loader {
	l := &loader{
		mu:          sync.RWMutex{},
		cfg:         DefaultConfig(),
		assetCache:  make(map[string]*model.SceneAsset),
		backendType: backendType,
	}

	for _, option := range options {
		option(l)
	}

	// The backend is built after options so WithConfig and WithTextureResolver reach the importer.
	switch backendType {
	case BackendTypeGLTF:
		l.backend = newGLTFLoaderBackend(l.cfg, l.textures)
	}
	common.SetLogLevel(l.cfg.LogLevel)
	return l
}

func (l *loader) Load(ctx context.Context, path string) (*model.SceneAsset, error) {
	if cached := l.Get(path); cached != nil {
		common.LogInfo("Asset cache hit", "path", path)
		return cached, nil
	}

	prepared, err := l.Prepare(ctx, path)
	if err != nil {
		return nil, err
	}
	return l.Upload(prepared)
}

func (l *loader) LoadFS(ctx context.Context, fsys fs.FS, path string) (*model.SceneAsset, error) {
	if cached := l.Get(path); cached != nil {
		return cached, nil
	}

	backend, err := l.resolveBackend(path)
	if err != nil {
		return nil, err
	}
	prepared, err := backend.PrepareFS(ctx, fsys, path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load %s", path)
	}
	return l.upload(path, prepared)
}

func (l *loader) LoadReader(ctx context.Context, name string, r io.Reader) (*model.SceneAsset, error) {
	if cached := l.Get(name); cached != nil {
		return cached, nil
	}

	prepared, err := l.backend.PrepareReader(ctx, name, r)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load from reader %q", name)
	}
	return l.upload(name, prepared)
}

func (l *loader) LoadBatch(ctx context.Context, paths []string) ([]*model.SceneAsset, error) {
	assets := make([]*model.SceneAsset, len(paths))
	prepared := make([]*PreparedAsset, len(paths))
	errs := make([]error, len(paths))

	pool := worker.NewDynamicWorkerPool(max(l.cfg.Workers, 1), max(len(paths), 1), 1*time.Second)
	defer pool.Stop()

	// pool.Wait only watches the queue, not running tasks, so a WaitGroup is the barrier.
	// Results are written to distinct slice slots.
	var wg sync.WaitGroup
	for i, path := range paths {
		if cached := l.Get(path); cached != nil {
			assets[i] = cached
			continue
		}

		wg.Add(1)
		idx, p := i, path
		pool.SubmitTask(worker.Task{
			ID: idx,
			Do: func() (any, error) {
				defer wg.Done()
				prepared[idx], errs[idx] = l.Prepare(ctx, p)
				return nil, errs[idx]
			},
		})
	}
	wg.Wait()

	var failed []string
	for i, p := range prepared {
		if errs[i] == nil && p != nil {
			assets[i], errs[i] = l.Upload(p)
		}
		if errs[i] != nil {
			failed = append(failed, errs[i].Error())
		}
	}

	if len(failed) > 0 {
		return assets, errors.Errorf("failed to load %d of %d assets: %s", len(failed), len(paths), strings.Join(failed, "; "))
	}
	return assets, nil
}

func (l *loader) Prepare(ctx context.Context, path string) (*PreparedAsset, error) {
	defer l.profiler.Track("prepare")()

	backend, err := l.resolveBackend(path)
	if err != nil {
		return nil, err
	}
	prepared, err := backend.Prepare(ctx, path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load %s", path)
	}
	return prepared, nil
}

func (l *loader) Upload(prepared *PreparedAsset) (*model.SceneAsset, error) {
	return l.upload(prepared.Location(), prepared)
}

// upload creates the GPU resources of prepared when a device is configured and caches the result under name.
// If another load cached name first, the newer asset replaces it and the older one is disposed.
func (l *loader) upload(name string, prepared *PreparedAsset) (*model.SceneAsset, error) {
	asset := prepared.Asset()
	if l.device != nil {
		defer l.profiler.Track("upload")()
		var err error
		if asset, err = prepared.Upload(l.device); err != nil {
			return nil, errors.Wrapf(err, "failed to upload %s", name)
		}
	}

	l.mu.Lock()
	previous := l.assetCache[name]
	l.assetCache[name] = asset
	l.mu.Unlock()

	if previous != nil && previous != asset {
		previous.Dispose()
	}
	return asset, nil
}

func (l *loader) Get(name string) *model.SceneAsset {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.assetCache[name]
}

func (l *loader) Assets() map[string]*model.SceneAsset {
	l.mu.RLock()
	defer l.mu.RUnlock()

	result := make(map[string]*model.SceneAsset, len(l.assetCache))
	for k, v := range l.assetCache {
		result[k] = v
	}
	return result
}

func (l *loader) Evict(name string) bool {
	l.mu.Lock()
	asset, ok := l.assetCache[name]
	delete(l.assetCache, name)
	l.mu.Unlock()

	if ok {
		asset.Dispose()
	}
	return ok
}

func (l *loader) Release() {
	l.mu.Lock()
	cache := l.assetCache
	l.assetCache = make(map[string]*model.SceneAsset)
	l.mu.Unlock()

	for _, asset := range cache {
		asset.Dispose()
	}
}

// resolveBackend selects an appropriate loader backend based on the file extension.
// Currently only glTF/GLB is supported.
func (l *loader) resolveBackend(path string) (loaderBackend, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".gltf", ".glb":
		return l.backend, nil
	default:
		return nil, errors.Wrapf(ErrUnsupportedFormat, "extension %q", ext)
	}
}
