package model

import (
	"math"

	"github.com/Carmen-Shannon/oxy-gltf/common"
	"github.com/Carmen-Shannon/oxy-gltf/engine/renderer"
	"github.com/google/uuid"
)

// ShadingModel selects which set of material factors applies.
type ShadingModel int

const (
	ShadingMetallicRoughness ShadingModel = iota
	ShadingSpecularGlossiness
	ShadingUnlit
)

// AlphaMode mirrors the glTF alpha modes.
type AlphaMode int

const (
	AlphaOpaque AlphaMode = iota
	AlphaMask
	AlphaBlend
)

// TextureSlot names the role a texture plays in a material.
type TextureSlot int

const (
	SlotBaseColor TextureSlot = iota
	SlotMetallicRoughness
	SlotNormal
	SlotOcclusion
	SlotEmissive
	SlotDiffuse
	SlotSpecularGlossiness
)

func (s TextureSlot) String() string {
	switch s {
	case SlotBaseColor:
		return "baseColor"
	case SlotMetallicRoughness:
		return "metallicRoughness"
	case SlotNormal:
		return "normal"
	case SlotOcclusion:
		return "occlusion"
	case SlotEmissive:
		return "emissive"
	case SlotDiffuse:
		return "diffuse"
	case SlotSpecularGlossiness:
		return "specularGlossiness"
	}
	return "unknown"
}

// UVTransform is a texture coordinate transform.
type UVTransform struct {
	Offset   [2]float32
	Rotation float32
	Scale    [2]float32
}

// Matrix returns the column-major 3x3 matrix T * R * S applied to texture coordinates.
func (u UVTransform) Matrix() [9]float32 {
	s, c := math.Sincos(float64(u.Rotation))
	sin, cos := float32(s), float32(c)
	return [9]float32{
		cos * u.Scale[0], -sin * u.Scale[0], 0,
		sin * u.Scale[1], cos * u.Scale[1], 0,
		u.Offset[0], u.Offset[1], 1,
	}
}

// TextureBinding ties a texture to a material slot.
type TextureBinding struct {
	Texture *Texture

	// UVChannel is the texture coordinate set, already overridden by any UV transform.
	UVChannel int

	// Transform is nil when the texture has no UV transform.
	Transform *UVTransform

	// Scale is the normal scale or occlusion strength. It is 1 for other slots.
	Scale float32
}

// Material is a bag of surface properties.
type Material struct {
	ID   uuid.UUID
	Name string

	Shading ShadingModel

	BaseColor [4]float32
	Metallic  float32
	Roughness float32

	DiffuseFactor  [4]float32
	SpecularFactor [3]float32
	Glossiness     float32

	Emissive    [3]float32
	AlphaMode   AlphaMode
	AlphaCutoff float32
	DoubleSided bool

	Textures map[TextureSlot]*TextureBinding
}

// NewMaterial creates a material with the glTF default factors.
//
// Parameters:
//   - name: the material identifier
//
// Returns:
//   - *Material: the new material
func NewMaterial(name string) *Material {
	return &Material{
		ID:             uuid.New(),
		Name:           name,
		BaseColor:      [4]float32{1, 1, 1, 1},
		Metallic:       1,
		Roughness:      1,
		DiffuseFactor:  [4]float32{1, 1, 1, 1},
		SpecularFactor: [3]float32{1, 1, 1},
		Glossiness:     1,
		AlphaCutoff:    0.5,
		Textures:       make(map[TextureSlot]*TextureBinding),
	}
}

// Texture returns the binding in slot, or nil.
func (m *Material) Texture(slot TextureSlot) *TextureBinding {
	return m.Textures[slot]
}

// NormalMap returns the normal map binding, or nil.
func (m *Material) NormalMap() *TextureBinding {
	return m.Textures[SlotNormal]
}

// Texture is an image uploaded with its sampler state.
type Texture struct {
	ID   uuid.UUID
	Name string

	Width     uint32
	Height    uint32
	MipLevels uint32
	Sampler   common.SamplerStagingData

	Resource renderer.Resource

	// Borrowed textures come from a caller-supplied resolver and are never released by the asset.
	Borrowed bool
}

func (t *Texture) release() {
	if t.Borrowed || t.Resource == nil {
		return
	}
	t.Resource.Release()
	t.Resource = nil
}
