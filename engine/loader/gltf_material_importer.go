package loader

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-gltf/engine/model"

	"github.com/qmuntal/gltf"
)

// defaultMaterialIndex keys the material used by primitives that reference none.
const defaultMaterialIndex = -1

// importMaterial returns the material for glTF material index, building it on first use.
// Passing defaultMaterialIndex yields the shared default material of the load.
//
// Parameters:
//   - index: the glTF material index, or defaultMaterialIndex
//
// Returns:
//   - *model.Material: the deduplicated material
//   - error: FormatError for bad references or payloads
func (ic *importContext) importMaterial(index int) (*model.Material, error) {
	if m, ok := ic.materials[index]; ok {
		return m, nil
	}

	if index == defaultMaterialIndex {
		m := model.NewMaterial("default")
		ic.materials[index] = m
		ic.asset.TrackMaterial(m)
		return m, nil
	}

	subject := fmt.Sprintf("material %d", index)
	if index < 0 || index >= len(ic.doc.Materials) {
		return nil, newFormatError(ErrInvalidIndex, subject, "material does not exist")
	}
	gm := ic.doc.Materials[index]

	name := gm.Name
	if name == "" {
		name = fmt.Sprintf("material_%d", index)
	}
	m := model.NewMaterial(name)
	m.AlphaMode = mapAlphaMode(gm.AlphaMode)
	m.AlphaCutoff = float32(gm.AlphaCutoffOrDefault())
	m.DoubleSided = gm.DoubleSided
	for i, v := range gm.EmissiveFactor {
		m.Emissive[i] = float32(v)
	}

	if pbr := gm.PBRMetallicRoughness; pbr != nil {
		for i, v := range pbr.BaseColorFactorOrDefault() {
			m.BaseColor[i] = float32(v)
		}
		m.Metallic = float32(pbr.MetallicFactorOrDefault())
		m.Roughness = float32(pbr.RoughnessFactorOrDefault())

		if ti := pbr.BaseColorTexture; ti != nil {
			if err := bindTextureInfo(ic, m, model.SlotBaseColor, int(ti.Index), int(ti.TexCoord), ti.Extensions, 1); err != nil {
				return nil, err
			}
		}
		if ti := pbr.MetallicRoughnessTexture; ti != nil {
			if err := bindTextureInfo(ic, m, model.SlotMetallicRoughness, int(ti.Index), int(ti.TexCoord), ti.Extensions, 1); err != nil {
				return nil, err
			}
		}
	}

	if nt := gm.NormalTexture; nt != nil && nt.Index != nil {
		scale := float32(1)
		if nt.Scale != nil {
			scale = float32(*nt.Scale)
		}
		if err := bindTextureInfo(ic, m, model.SlotNormal, int(*nt.Index), int(nt.TexCoord), nt.Extensions, scale); err != nil {
			return nil, err
		}
	}
	if ot := gm.OcclusionTexture; ot != nil && ot.Index != nil {
		strength := float32(1)
		if ot.Strength != nil {
			strength = float32(*ot.Strength)
		}
		if err := bindTextureInfo(ic, m, model.SlotOcclusion, int(*ot.Index), int(ot.TexCoord), ot.Extensions, strength); err != nil {
			return nil, err
		}
	}
	if ti := gm.EmissiveTexture; ti != nil {
		if err := bindTextureInfo(ic, m, model.SlotEmissive, int(ti.Index), int(ti.TexCoord), ti.Extensions, 1); err != nil {
			return nil, err
		}
	}

	if err := ic.applySpecularGlossiness(m, gm); err != nil {
		return nil, err
	}
	if _, ok := gm.Extensions[ExtUnlit]; ok {
		m.Shading = model.ShadingUnlit
	}

	ic.materials[index] = m
	ic.asset.TrackMaterial(m)
	return m, nil
}

// applySpecularGlossiness switches m to the specular-glossiness model when gm carries
// the KHR_materials_pbrSpecularGlossiness extension.
func (ic *importContext) applySpecularGlossiness(m *model.Material, gm *gltf.Material) error {
	var sg extSpecularGlossiness
	found, err := lookupExtension(gm.Extensions, ExtSpecularGlossiness, &sg)
	if err != nil || !found {
		return err
	}

	m.Shading = model.ShadingSpecularGlossiness
	if sg.DiffuseFactor != nil {
		m.DiffuseFactor = *sg.DiffuseFactor
	}
	if sg.SpecularFactor != nil {
		m.SpecularFactor = *sg.SpecularFactor
	}
	if sg.GlossinessFactor != nil {
		m.Glossiness = *sg.GlossinessFactor
	}

	if ti := sg.DiffuseTexture; ti != nil {
		if err := bindTextureInfo(ic, m, model.SlotDiffuse, ti.Index, ti.TexCoord, ti.Extensions, 1); err != nil {
			return err
		}
	}
	if ti := sg.SpecularGlossinessTexture; ti != nil {
		if err := bindTextureInfo(ic, m, model.SlotSpecularGlossiness, ti.Index, ti.TexCoord, ti.Extensions, 1); err != nil {
			return err
		}
	}
	return nil
}

// bindTextureInfo imports a texture reference and stores it in slot.
// A KHR_texture_transform block on the reference adds a UV transform and may override the UV channel.
//
// Parameters:
//   - m: the material receiving the binding
//   - slot: the material slot
//   - index: the glTF texture index
//   - texCoord: the UV channel declared by the reference
//   - exts: the extensions of the reference
//   - scale: normal scale or occlusion strength, 1 for other slots
//
// Returns:
//   - error: error if the texture or its transform cannot be imported
func bindTextureInfo[M ~map[string]V, V any](ic *importContext, m *model.Material, slot model.TextureSlot, index, texCoord int, exts M, scale float32) error {
	tex, err := ic.importTexture(index)
	if err != nil {
		return err
	}

	binding := &model.TextureBinding{
		Texture:   tex,
		UVChannel: texCoord,
		Scale:     scale,
	}

	var tt extTextureTransform
	found, err := lookupExtension(exts, ExtTextureTransform, &tt)
	if err != nil {
		return err
	}
	if found {
		transform := &model.UVTransform{
			Rotation: tt.Rotation,
			Scale:    [2]float32{1, 1},
		}
		if tt.Offset != nil {
			transform.Offset = *tt.Offset
		}
		if tt.Scale != nil {
			transform.Scale = *tt.Scale
		}
		if tt.TexCoord != nil {
			binding.UVChannel = *tt.TexCoord
		}
		binding.Transform = transform
	}

	m.Textures[slot] = binding
	return nil
}
