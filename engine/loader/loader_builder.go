package loader

import (
	"github.com/Carmen-Shannon/oxy-gltf/common"
	"github.com/Carmen-Shannon/oxy-gltf/engine/model"
	"github.com/Carmen-Shannon/oxy-gltf/engine/profiler"
	"github.com/Carmen-Shannon/oxy-gltf/engine/renderer"
)

// LoaderBuilderOption is a functional option for configuring a Loader via NewLoader.
type LoaderBuilderOption func(*loader)

// WithDevice is an option builder that sets the GraphicsDevice assets are uploaded to.
//
// Parameters:
//   - device: the device instance
//
// Returns:
//   - LoaderBuilderOption: a function that applies the device option to a loader
func WithDevice(device renderer.GraphicsDevice) LoaderBuilderOption {
	return func(l *loader) {
		l.device = device
	}
}

// WithTextureResolver is an option builder that supplies caller-owned textures to the importer.
//
// Parameters:
//   - r: the texture resolver
//
// Returns:
//   - LoaderBuilderOption: a function that applies the resolver option to a loader
func WithTextureResolver(r TextureResolver) LoaderBuilderOption {
	return func(l *loader) {
		l.textures = r
	}
}

// WithConfig is an option builder that sets the loader configuration.
// Zero numeric fields and an empty log level fall back to DefaultConfig.
//
// Parameters:
//   - cfg: the configuration
//
// Returns:
//   - LoaderBuilderOption: a function that applies the config option to a loader
func WithConfig(cfg Config) LoaderBuilderOption {
	return func(l *loader) {
		def := DefaultConfig()
		cfg.MaxWeights = common.Clamp(common.Coalesce(cfg.MaxWeights, def.MaxWeights), 1, model.MaxWeights)
		cfg.Workers = common.Coalesce(cfg.Workers, def.Workers)
		cfg.LogLevel = common.Coalesce(cfg.LogLevel, def.LogLevel)
		l.cfg = cfg
	}
}

// WithAsset is an option builder that pre-populates the asset cache.
//
// Parameters:
//   - key: the cache key for the asset
//   - asset: the asset to cache
//
// Returns:
//   - LoaderBuilderOption: a function that applies the asset option to a loader
func WithAsset(key string, asset *model.SceneAsset) LoaderBuilderOption {
	return func(l *loader) {
		l.assetCache[key] = asset
	}
}

// WithProfiler is an option builder that records prepare and upload timings into p.
//
// Parameters:
//   - p: the profiler to record into
//
// Returns:
//   - LoaderBuilderOption: a function that applies the profiler option to a loader
func WithProfiler(p *profiler.Profiler) LoaderBuilderOption {
	return func(l *loader) {
		l.profiler = p
	}
}
