package loader

import (
	"context"
	"io"
	"io/fs"
)

// loaderBackend defines the generic interface for preparing assets from files or streams.
// Concrete implementations (e.g., gltfLoaderBackend) handle format-specific details.
type loaderBackend interface {
	// Prepare imports the asset at the given operating system path on the CPU.
	//
	// Parameters:
	//   - ctx: context for cancellation
	//   - path: the file path to load
	//
	// Returns:
	//   - *PreparedAsset: the prepared asset
	//   - error: error if loading fails
	Prepare(ctx context.Context, path string) (*PreparedAsset, error)

	// PrepareFS imports the asset at path inside fsys. Sidecar files are resolved in fsys as well.
	//
	// Parameters:
	//   - ctx: context for cancellation
	//   - fsys: the file system holding the asset and its sidecars
	//   - path: the slash-separated path inside fsys
	//
	// Returns:
	//   - *PreparedAsset: the prepared asset
	//   - error: error if loading fails
	PrepareFS(ctx context.Context, fsys fs.FS, path string) (*PreparedAsset, error)

	// PrepareReader imports a self-contained asset from a reader stream.
	// The stream may hold glTF JSON with embedded buffers or a GLB container.
	//
	// Parameters:
	//   - ctx: context for cancellation
	//   - name: the location reported by the prepared asset, its base name names the asset
	//   - r: the reader providing asset data
	//
	// Returns:
	//   - *PreparedAsset: the prepared asset
	//   - error: error if loading fails
	PrepareReader(ctx context.Context, name string, r io.Reader) (*PreparedAsset, error)
}
