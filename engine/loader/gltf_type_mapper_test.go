package loader

import (
	"slices"
	"testing"

	"github.com/Carmen-Shannon/oxy-gltf/engine/model"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/qmuntal/gltf"
)

func TestMapPrimitiveMode(t *testing.T) {
	tests := []struct {
		mode     gltf.PrimitiveMode
		topology model.PrimitiveTopology
		assembly primitiveAssembly
	}{
		{gltf.PrimitiveTriangles, model.TopologyTriangles, assemblyList},
		{gltf.PrimitiveTriangleStrip, model.TopologyTriangles, assemblyStrip},
		{gltf.PrimitiveTriangleFan, model.TopologyTriangles, assemblyFan},
		{gltf.PrimitiveLines, model.TopologyLines, assemblyList},
		{gltf.PrimitiveLineStrip, model.TopologyLines, assemblyStrip},
		{gltf.PrimitiveLineLoop, model.TopologyLines, assemblyLoop},
		{gltf.PrimitivePoints, model.TopologyPoints, assemblyList},
	}
	for _, tt := range tests {
		topology, assembly, err := mapPrimitiveMode(tt.mode)
		if err != nil {
			t.Fatalf("mapPrimitiveMode(%v): %v", tt.mode, err)
		}
		if topology != tt.topology || assembly != tt.assembly {
			t.Errorf("mapPrimitiveMode(%v) = %v, %v; want %v, %v", tt.mode, topology, assembly, tt.topology, tt.assembly)
		}
	}

	_, _, err := mapPrimitiveMode(gltf.PrimitiveMode(42))
	requireKind(t, err, ErrUnsupportedPrimitiveMode)
}

func TestAssembleIndices(t *testing.T) {
	tests := []struct {
		name     string
		in       []uint32
		topology model.PrimitiveTopology
		assembly primitiveAssembly
		want     []uint32
	}{
		{"triangle list", []uint32{0, 1, 2}, model.TopologyTriangles, assemblyList, []uint32{0, 1, 2}},
		{"triangle strip", []uint32{0, 1, 2, 3, 4}, model.TopologyTriangles, assemblyStrip, []uint32{0, 1, 2, 1, 3, 2, 2, 3, 4}},
		{"triangle fan", []uint32{0, 1, 2, 3}, model.TopologyTriangles, assemblyFan, []uint32{1, 2, 0, 2, 3, 0}},
		{"short strip", []uint32{0, 1}, model.TopologyTriangles, assemblyStrip, []uint32{}},
		{"line strip", []uint32{0, 1, 2}, model.TopologyLines, assemblyStrip, []uint32{0, 1, 1, 2}},
		{"line loop", []uint32{0, 1, 2}, model.TopologyLines, assemblyLoop, []uint32{0, 1, 1, 2, 2, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := assembleIndices(tt.in, tt.topology, tt.assembly)
			if !slices.Equal(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMapSampler(t *testing.T) {
	def := mapSampler(nil)
	if def.MagFilter != wgpu.FilterModeLinear || def.AddressModeU != wgpu.AddressModeRepeat || def.UsesMipmaps {
		t.Errorf("default sampler = %+v", def)
	}

	s := mapSampler(&gltf.Sampler{
		MagFilter: gltf.MagNearest,
		MinFilter: gltf.MinLinearMipMapLinear,
		WrapS:     gltf.WrapClampToEdge,
		WrapT:     gltf.WrapMirroredRepeat,
	})
	if s.MagFilter != wgpu.FilterModeNearest {
		t.Errorf("MagFilter = %v, want nearest", s.MagFilter)
	}
	if !s.UsesMipmaps || s.MipmapFilter != wgpu.MipmapFilterModeLinear {
		t.Errorf("mip selection = %v %v, want linear mipmaps", s.UsesMipmaps, s.MipmapFilter)
	}
	if s.AddressModeU != wgpu.AddressModeClampToEdge || s.AddressModeV != wgpu.AddressModeMirrorRepeat {
		t.Errorf("address modes = %v %v", s.AddressModeU, s.AddressModeV)
	}
}

func TestMapInterpolation(t *testing.T) {
	tests := []struct {
		in   gltf.Interpolation
		want model.Interpolation
	}{
		{gltf.InterpolationLinear, model.InterpolationLinear},
		{gltf.InterpolationStep, model.InterpolationStep},
		{gltf.InterpolationCubicSpline, model.InterpolationCubicSpline},
	}
	for _, tt := range tests {
		got, err := mapInterpolation(tt.in)
		if err != nil || got != tt.want {
			t.Errorf("mapInterpolation(%v) = %v, %v; want %v", tt.in, got, err, tt.want)
		}
	}
}
