package loader

import (
	"context"
	"fmt"

	"github.com/Carmen-Shannon/oxy-gltf/common"
	"github.com/Carmen-Shannon/oxy-gltf/engine/model"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// TextureResolver supplies textures owned by the caller.
// Textures it returns are marked borrowed and are never released by the asset.
type TextureResolver interface {
	// ResolveTexture looks up a texture for the given glTF texture index.
	//
	// Parameters:
	//   - ctx: context for cancellation
	//   - location: the location of the document being imported
	//   - index: the glTF texture index
	//   - mipmaps: whether the sampler samples mip levels
	//
	// Returns:
	//   - *model.Texture: the texture, or nil to let the importer decode the image itself
	//   - error: error if the lookup fails
	ResolveTexture(ctx context.Context, location string, index int, mipmaps bool) (*model.Texture, error)
}

// textureKey identifies a texture within one load. The same source needs a separate
// texture when one use samples mip levels and another does not.
type textureKey struct {
	index   int
	mipmaps bool
}

// importTexture returns the texture for glTF texture index, decoding it on first use.
//
// Parameters:
//   - ic: the per-load import state
//   - index: the glTF texture index
//
// Returns:
//   - *model.Texture: the deduplicated texture
//   - error: FormatError for bad references, or a decode error
func (ic *importContext) importTexture(index int) (*model.Texture, error) {
	subject := fmt.Sprintf("texture %d", index)
	if index < 0 || index >= len(ic.doc.Textures) {
		return nil, newFormatError(ErrInvalidIndex, subject, "texture does not exist")
	}
	tex := ic.doc.Textures[index]

	sampler := mapSampler(nil)
	if tex.Sampler != nil {
		si := int(*tex.Sampler)
		if si >= len(ic.doc.Samplers) {
			return nil, newFormatError(ErrInvalidIndex, subject, "sampler %d does not exist", si)
		}
		sampler = mapSampler(ic.doc.Samplers[si])
	}

	key := textureKey{index: index, mipmaps: sampler.UsesMipmaps}
	if t, ok := ic.textures[key]; ok {
		return t, nil
	}

	if ic.textureResolver != nil {
		borrowed, err := ic.textureResolver.ResolveTexture(ic.ctx, ic.resolver.Location(), index, key.mipmaps)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to resolve %s", subject)
		}
		if borrowed != nil {
			borrowed.Borrowed = true
			ic.textures[key] = borrowed
			ic.asset.TrackTexture(borrowed)
			return borrowed, nil
		}
	}

	if tex.Source == nil {
		return nil, newFormatError(ErrMissingAttribute, subject, "texture has no source image")
	}
	if err := ic.ctx.Err(); err != nil {
		return nil, err
	}

	staging, err := ic.resolver.LoadImage(ic.ctx, int(*tex.Source))
	if err != nil {
		return nil, err
	}
	if key.mipmaps {
		if ic.cfg.GenerateMipmaps {
			staging.GenerateMipmaps()
		} else {
			common.LogWarn("Mipmap filter without mip levels, generation disabled", "texture", index)
			sampler.UsesMipmaps = false
		}
	}

	name := tex.Name
	if name == "" {
		name = fmt.Sprintf("texture_%d", index)
	}

	t := &model.Texture{
		ID:        uuid.New(),
		Name:      name,
		Width:     staging.Width,
		Height:    staging.Height,
		MipLevels: staging.MipLevelCount(),
		Sampler:   sampler,
	}
	ic.textures[key] = t
	ic.staging[t] = staging
	ic.pendingTextures = append(ic.pendingTextures, t)
	ic.asset.TrackTexture(t)
	return t, nil
}
