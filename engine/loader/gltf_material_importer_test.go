package loader

import (
	"context"
	"testing"

	"github.com/Carmen-Shannon/oxy-gltf/common"
	"github.com/Carmen-Shannon/oxy-gltf/engine/model"
	"github.com/Carmen-Shannon/oxy-gltf/engine/renderer"
)

// materialFixture builds one mesh with a primitive per material, all sharing a 4x4 mipmapped texture.
func materialFixture(t *testing.T, materials ...map[string]any) *fixture {
	t.Helper()
	f := newFixture()
	img := f.image(t, 4, 4)
	f.add("samplers", map[string]any{"magFilter": 9729, "minFilter": 9987})
	f.add("textures", map[string]any{"source": img, "sampler": 0})

	pos := f.floats("VEC3", 0, 0, 0, 1, 0, 0, 0, 1, 0)
	uv0 := f.floats("VEC2", 0, 0, 1, 0, 0, 1)
	uv1 := f.floats("VEC2", 0, 0, 1, 0, 0, 1)

	var prims []any
	for i, m := range materials {
		f.add("materials", m)
		prims = append(prims, map[string]any{
			"attributes": map[string]any{"POSITION": pos, "TEXCOORD_0": uv0, "TEXCOORD_1": uv1},
			"material":   i,
		})
	}
	f.add("meshes", map[string]any{"primitives": prims})
	f.add("nodes", map[string]any{"mesh": 0})
	f.add("scenes", map[string]any{"nodes": []int{0}})
	return f
}

func TestImportMaterial_MetallicRoughness(t *testing.T) {
	f := materialFixture(t, map[string]any{
		"name":        "painted",
		"alphaMode":   "MASK",
		"alphaCutoff": 0.3,
		"doubleSided": true,
		"pbrMetallicRoughness": map[string]any{
			"baseColorFactor": []float32{0.5, 0.5, 0.5, 1},
			"metallicFactor":  0,
			"baseColorTexture": map[string]any{
				"index": 0,
				"extensions": map[string]any{ExtTextureTransform: map[string]any{
					"offset":   []float32{0.5, 0},
					"scale":    []float32{2, 2},
					"texCoord": 1,
				}},
			},
		},
	})

	asset := mustPrepare(t, f.json(t)).Asset()
	m := asset.Scene().Roots[0].Parts[0].Material
	if m.Name != "painted" || m.Shading != model.ShadingMetallicRoughness {
		t.Errorf("material = %q shading %v", m.Name, m.Shading)
	}
	if m.AlphaMode != model.AlphaMask || !approx(m.AlphaCutoff, 0.3) || !m.DoubleSided {
		t.Errorf("alpha = %v %v, double sided %v", m.AlphaMode, m.AlphaCutoff, m.DoubleSided)
	}
	if m.BaseColor != [4]float32{0.5, 0.5, 0.5, 1} || m.Metallic != 0 || m.Roughness != 1 {
		t.Errorf("factors = %v %v %v", m.BaseColor, m.Metallic, m.Roughness)
	}

	binding := m.Texture(model.SlotBaseColor)
	if binding == nil || binding.Transform == nil {
		t.Fatalf("base color binding = %+v, want a transformed texture", binding)
	}
	if binding.UVChannel != 1 {
		t.Errorf("UV channel = %d, want the transform override 1", binding.UVChannel)
	}
	if binding.Transform.Offset != [2]float32{0.5, 0} || binding.Transform.Scale != [2]float32{2, 2} {
		t.Errorf("transform = %+v", binding.Transform)
	}
}

func TestImportMaterial_Extensions(t *testing.T) {
	f := materialFixture(t,
		map[string]any{
			"pbrMetallicRoughness": map[string]any{"baseColorTexture": map[string]any{"index": 0}},
			"extensions":           map[string]any{ExtUnlit: map[string]any{}},
		},
		map[string]any{
			"extensions": map[string]any{ExtSpecularGlossiness: map[string]any{
				"diffuseFactor":    []float32{1, 0, 0, 1},
				"specularFactor":   []float32{0.2, 0.2, 0.2},
				"glossinessFactor": 0.25,
				"diffuseTexture":   map[string]any{"index": 0},
			}},
		},
	)

	asset := mustPrepare(t, f.json(t)).Asset()
	parts := asset.Scene().Roots[0].Parts
	unlit, sg := parts[0].Material, parts[1].Material

	if unlit.Shading != model.ShadingUnlit {
		t.Errorf("unlit shading = %v", unlit.Shading)
	}
	if sg.Shading != model.ShadingSpecularGlossiness {
		t.Errorf("specular-glossiness shading = %v", sg.Shading)
	}
	if sg.DiffuseFactor != [4]float32{1, 0, 0, 1} || !approx(sg.Glossiness, 0.25) || !approx(sg.SpecularFactor[0], 0.2) {
		t.Errorf("specular-glossiness factors = %v %v %v", sg.DiffuseFactor, sg.SpecularFactor, sg.Glossiness)
	}

	if unlit.Texture(model.SlotBaseColor).Texture != sg.Texture(model.SlotDiffuse).Texture {
		t.Error("one source texture was imported twice")
	}
	if got := len(asset.Textures()); got != 1 {
		t.Errorf("asset tracks %d textures, want 1", got)
	}
	if got := len(asset.Materials()); got != 2 {
		t.Errorf("asset tracks %d materials, want 2", got)
	}
}

func TestImportTexture_Mipmaps(t *testing.T) {
	tests := []struct {
		name     string
		generate bool
		levels   uint32
	}{
		{"generated", true, 3},
		{"disabled", false, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := materialFixture(t, map[string]any{
				"pbrMetallicRoughness": map[string]any{"baseColorTexture": map[string]any{"index": 0}},
			})
			cfg := DefaultConfig()
			cfg.GenerateMipmaps = tt.generate

			prepared, err := prepare(t, f.json(t), cfg, nil)
			if err != nil {
				t.Fatalf("Prepare: %v", err)
			}
			tex := prepared.Asset().Textures()[0]
			if tex.Width != 4 || tex.Height != 4 || tex.MipLevels != tt.levels {
				t.Errorf("texture %dx%d with %d levels, want 4x4 with %d", tex.Width, tex.Height, tex.MipLevels, tt.levels)
			}
			if tex.Sampler.UsesMipmaps != tt.generate {
				t.Errorf("sampler uses mipmaps = %v, want %v", tex.Sampler.UsesMipmaps, tt.generate)
			}

			device := renderer.NewHeadlessDevice(0)
			if _, err := prepared.Upload(device); err != nil {
				t.Fatalf("Upload: %v", err)
			}
			if got := device.LiveOfKind(renderer.ResourceTexture); got != 1 {
				t.Errorf("live textures = %d, want 1", got)
			}
			prepared.Asset().Dispose()
			if device.Live() != 0 {
				t.Errorf("%d resources live after Dispose", device.Live())
			}
		})
	}
}

func TestImportMaterial_NormalMapTangents(t *testing.T) {
	normalMapped := map[string]any{"normalTexture": map[string]any{"index": 0, "scale": 0.5}}

	t.Run("generated", func(t *testing.T) {
		f := materialFixture(t, normalMapped)
		part := mustPrepare(t, f.json(t)).Asset().Scene().Roots[0].Parts[0]
		if _, ok := part.MeshPart.Mesh.Layout.Find(model.UsageTangent, 0); !ok {
			t.Error("layout has no generated tangent")
		}
		if got := part.Material.NormalMap().Scale; !approx(got, 0.5) {
			t.Errorf("normal scale = %v, want 0.5", got)
		}
	})

	t.Run("missing texcoord", func(t *testing.T) {
		f := newFixture()
		img := f.image(t, 2, 2)
		f.add("textures", map[string]any{"source": img})
		f.add("materials", normalMapped)
		f.add("meshes", map[string]any{"primitives": []any{map[string]any{
			"attributes": map[string]any{"POSITION": f.floats("VEC3", 0, 0, 0, 1, 0, 0, 0, 1, 0)},
			"material":   0,
		}}})
		f.add("nodes", map[string]any{"mesh": 0})
		f.add("scenes", map[string]any{"nodes": []int{0}})

		_, err := prepare(t, f.json(t), DefaultConfig(), nil)
		requireKind(t, err, ErrMissingAttribute)
	})
}

// borrowedTextures hands out one caller-owned texture for every request.
type borrowedTextures struct {
	texture *model.Texture
	calls   int
}

func (b *borrowedTextures) ResolveTexture(_ context.Context, _ string, _ int, _ bool) (*model.Texture, error) {
	b.calls++
	return b.texture, nil
}

func TestImportTexture_BorrowedIsNotReleased(t *testing.T) {
	device := renderer.NewHeadlessDevice(0)
	res, err := device.CreateTexture("shared", common.TextureStagingData{Pixels: make([]byte, 4), Width: 1, Height: 1}, common.SamplerStagingData{})
	if err != nil {
		t.Fatalf("CreateTexture: %v", err)
	}
	textures := &borrowedTextures{texture: &model.Texture{Name: "shared", Resource: res}}

	f := materialFixture(t,
		map[string]any{"pbrMetallicRoughness": map[string]any{"baseColorTexture": map[string]any{"index": 0}}},
		map[string]any{"emissiveTexture": map[string]any{"index": 0}},
	)
	prepared, err := prepare(t, f.json(t), DefaultConfig(), textures)
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if textures.calls != 1 {
		t.Errorf("resolver called %d times, want 1", textures.calls)
	}
	if !textures.texture.Borrowed {
		t.Error("resolved texture not marked borrowed")
	}

	asset, err := prepared.Upload(device)
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if got := device.LiveOfKind(renderer.ResourceTexture); got != 1 {
		t.Errorf("live textures = %d, want only the borrowed one", got)
	}

	asset.Dispose()
	if got := device.LiveOfKind(renderer.ResourceTexture); got != 1 {
		t.Errorf("borrowed texture released by Dispose")
	}
	if device.LiveOfKind(renderer.ResourceVertexBuffer) != 0 {
		t.Error("owned vertex buffers survived Dispose")
	}
}
