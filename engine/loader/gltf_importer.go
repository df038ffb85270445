package loader

import (
	"context"
	"fmt"
	"path"
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-gltf/common"
	"github.com/Carmen-Shannon/oxy-gltf/engine/model"
	"github.com/Carmen-Shannon/oxy-gltf/engine/renderer"

	"github.com/pkg/errors"
	"github.com/qmuntal/gltf"
)

// gltfImporterImpl is the implementation of the gltfImporter interface.
type gltfImporterImpl struct {
	cfg      Config
	registry *ExtensionRegistry
	textures TextureResolver
}

// gltfImporter orchestrates a full glTF/GLB import. The CPU work happens in Prepare,
// which never touches a device. The result is uploaded separately.
type gltfImporter interface {
	// Prepare loads the document at location through resolver and builds the complete
	// scene asset on the CPU.
	//
	// Parameters:
	//   - ctx: context for cancellation, checked between import stages
	//   - resolver: the resolver providing the document and its files
	//   - location: the document location understood by resolver
	//
	// Returns:
	//   - *PreparedAsset: the asset with staged texture data, ready for Upload
	//   - error: FormatError for invalid content, or an IO or cancellation error
	Prepare(ctx context.Context, resolver DataFileResolver, location string) (*PreparedAsset, error)
}

var _ gltfImporter = &gltfImporterImpl{}

// newGLTFImporter creates a new glTF importer.
//
// Parameters:
//   - cfg: the import configuration
//   - textures: optional resolver for borrowed textures, may be nil
//
// Returns:
//   - gltfImporter: the importer
func newGLTFImporter(cfg Config, textures TextureResolver) gltfImporter {
	return &gltfImporterImpl{
		cfg:      cfg,
		registry: NewExtensionRegistry(),
		textures: textures,
	}
}

// importContext is the mutable state of a single import.
// Every memo and dedup set lives here, so concurrent imports share nothing.
type importContext struct {
	ctx             context.Context
	cfg             Config
	resolver        DataFileResolver
	doc             *gltf.Document
	reader          *accessorReader
	textureResolver TextureResolver
	asset           *model.SceneAsset

	textures        map[textureKey]*model.Texture
	staging         map[*model.Texture]*common.TextureStagingData
	pendingTextures []*model.Texture
	materials       map[int]*model.Material
	meshes          map[int][]*model.NodePart
	skins           map[int]*model.Skin
	nodes           map[int]*model.Node
	building        map[int]bool
	pendingSkins    []pendingSkin
	lights          []model.Light
}

func (imp *gltfImporterImpl) Prepare(ctx context.Context, resolver DataFileResolver, location string) (*PreparedAsset, error) {
	start := time.Now()
	if err := resolver.Load(ctx, location); err != nil {
		return nil, err
	}
	doc := resolver.Root()
	common.LogDebug("Decoded document", "location", location, "elapsed", time.Since(start))

	if err := imp.registry.CheckRequired(doc.ExtensionsRequired); err != nil {
		return nil, err
	}

	ic := &importContext{
		ctx:             ctx,
		cfg:             imp.cfg,
		resolver:        resolver,
		doc:             doc,
		reader:          newAccessorReader(resolver),
		textureResolver: imp.textures,
		asset:           model.NewSceneAsset(model.WithName(assetName(location))),
		textures:        make(map[textureKey]*model.Texture),
		staging:         make(map[*model.Texture]*common.TextureStagingData),
		materials:       make(map[int]*model.Material),
		meshes:          make(map[int][]*model.NodePart),
		skins:           make(map[int]*model.Skin),
		nodes:           make(map[int]*model.Node),
		building:        make(map[int]bool),
	}

	stage := time.Now()
	if err := ic.buildScenes(); err != nil {
		ic.asset.Dispose()
		return nil, err
	}
	common.LogDebug("Built scenes", "location", location, "elapsed", time.Since(stage))

	stage = time.Now()
	if err := ic.importAnimations(); err != nil {
		ic.asset.Dispose()
		return nil, err
	}
	// Animation targets outside every scene are built on demand and may carry skins.
	if err := ic.resolvePendingSkins(); err != nil {
		ic.asset.Dispose()
		return nil, err
	}
	common.LogDebug("Imported animations", "location", location, "elapsed", time.Since(stage))

	return &PreparedAsset{
		location: location,
		asset:    ic.asset,
		textures: ic.pendingTextures,
		staging:  ic.staging,
	}, nil
}

// assetName returns the file name of location without its extension.
func assetName(location string) string {
	if location == "" {
		return "memory"
	}
	base := path.Base(location)
	return base[:len(base)-len(path.Ext(base))]
}

// PreparedAsset is a scene asset whose CPU data is complete and whose GPU resources
// have not been created yet.
type PreparedAsset struct {
	mu       sync.Mutex
	location string
	asset    *model.SceneAsset
	textures []*model.Texture
	staging  map[*model.Texture]*common.TextureStagingData
	uploaded bool
}

// Location returns the location the asset was prepared from.
func (p *PreparedAsset) Location() string {
	return p.location
}

// Asset returns the prepared asset. Its meshes and textures have no GPU resources until Upload succeeds.
func (p *PreparedAsset) Asset() *model.SceneAsset {
	return p.asset
}

// Upload creates every GPU buffer and texture of the asset on device.
// Resources are tracked by the asset as they are created, and the asset is disposed
// before any error is returned. Upload must run on the goroutine owning the device.
//
// Parameters:
//   - device: the device to create resources on
//
// Returns:
//   - *model.SceneAsset: the uploaded asset
//   - error: error if the asset was already uploaded or a resource could not be created
func (p *PreparedAsset) Upload(device renderer.GraphicsDevice) (*model.SceneAsset, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.uploaded {
		return nil, errors.Errorf("asset %s was already uploaded", p.asset.Name())
	}
	if p.asset.Disposed() {
		return nil, errors.Errorf("asset %s was disposed", p.asset.Name())
	}
	p.uploaded = true

	start := time.Now()
	for _, mesh := range p.asset.Meshes() {
		if err := mesh.Upload(device); err != nil {
			p.asset.Dispose()
			return nil, errors.Wrapf(err, "failed to upload mesh %s", mesh.Name)
		}
	}

	for _, tex := range p.textures {
		staging := p.staging[tex]
		res, err := device.CreateTexture(fmt.Sprintf("%s %s", tex.Name, tex.ID), *staging, tex.Sampler)
		if err != nil {
			p.asset.Dispose()
			return nil, errors.Wrapf(err, "failed to upload texture %s", tex.Name)
		}
		tex.Resource = res
	}
	p.staging = nil

	common.LogDebug("Uploaded asset", "asset", p.asset.Name(), "elapsed", time.Since(start))
	return p.asset, nil
}
