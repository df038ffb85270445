package loader

import (
	"context"
	"io"
	"io/fs"

	"github.com/pkg/errors"
)

// gltfLoaderBackendImpl is the implementation of gltfLoaderBackend.
type gltfLoaderBackendImpl struct {
	importer gltfImporter
}

// gltfLoaderBackend is a loaderBackend implementation for glTF/GLB files.
// It picks a DataFileResolver for the source and delegates to the gltfImporter.
type gltfLoaderBackend interface {
	loaderBackend
}

var _ gltfLoaderBackend = &gltfLoaderBackendImpl{}

// newGLTFLoaderBackend creates a new glTF loader backend.
//
// Parameters:
//   - cfg: the import configuration
//   - textures: optional resolver for borrowed textures, may be nil
//
// Returns:
//   - gltfLoaderBackend: the loader backend for glTF/GLB files
func newGLTFLoaderBackend(cfg Config, textures TextureResolver) gltfLoaderBackend {
	return &gltfLoaderBackendImpl{
		importer: newGLTFImporter(cfg, textures),
	}
}

func (b *gltfLoaderBackendImpl) Prepare(ctx context.Context, path string) (*PreparedAsset, error) {
	return b.importer.Prepare(ctx, NewFileResolver(), path)
}

func (b *gltfLoaderBackendImpl) PrepareFS(ctx context.Context, fsys fs.FS, path string) (*PreparedAsset, error) {
	return b.importer.Prepare(ctx, NewFSResolver(fsys), path)
}

func (b *gltfLoaderBackendImpl) PrepareReader(ctx context.Context, name string, r io.Reader) (*PreparedAsset, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read asset stream")
	}
	return b.importer.Prepare(ctx, NewMemoryResolver(data), name)
}
