package loader

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-gltf/common"
	"github.com/Carmen-Shannon/oxy-gltf/engine/model"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/qmuntal/gltf"
)

// primitiveAssembly says how a source primitive list is turned into the engine topology.
type primitiveAssembly int

const (
	assemblyList primitiveAssembly = iota
	assemblyStrip
	assemblyLoop
	assemblyFan
)

// componentSize returns the byte width of one component.
func componentSize(ct gltf.ComponentType) int {
	switch ct {
	case gltf.ComponentByte, gltf.ComponentUbyte:
		return 1
	case gltf.ComponentShort, gltf.ComponentUshort:
		return 2
	default:
		return 4
	}
}

// componentTypeName returns the glTF spelling of a component type for error messages.
func componentTypeName(ct gltf.ComponentType) string {
	switch ct {
	case gltf.ComponentByte:
		return "byte"
	case gltf.ComponentUbyte:
		return "ubyte"
	case gltf.ComponentShort:
		return "short"
	case gltf.ComponentUshort:
		return "ushort"
	case gltf.ComponentUint:
		return "uint"
	case gltf.ComponentFloat:
		return "float"
	}
	return fmt.Sprintf("component(%d)", ct)
}

// elementSize returns the number of components in one element.
func elementSize(t gltf.AccessorType) int {
	switch t {
	case gltf.AccessorScalar:
		return 1
	case gltf.AccessorVec2:
		return 2
	case gltf.AccessorVec3:
		return 3
	case gltf.AccessorVec4, gltf.AccessorMat2:
		return 4
	case gltf.AccessorMat3:
		return 9
	case gltf.AccessorMat4:
		return 16
	}
	return 0
}

// elementByteSize returns the packed byte size of one element.
func elementByteSize(t gltf.AccessorType, ct gltf.ComponentType) int {
	return elementSize(t) * componentSize(ct)
}

// accessorTypeName returns the glTF spelling of an accessor type.
func accessorTypeName(t gltf.AccessorType) string {
	switch t {
	case gltf.AccessorScalar:
		return "SCALAR"
	case gltf.AccessorVec2:
		return "VEC2"
	case gltf.AccessorVec3:
		return "VEC3"
	case gltf.AccessorVec4:
		return "VEC4"
	case gltf.AccessorMat2:
		return "MAT2"
	case gltf.AccessorMat3:
		return "MAT3"
	case gltf.AccessorMat4:
		return "MAT4"
	}
	return fmt.Sprintf("type(%d)", t)
}

// mapPrimitiveMode converts a glTF primitive mode to the engine topology and the assembly needed to reach it.
func mapPrimitiveMode(mode gltf.PrimitiveMode) (model.PrimitiveTopology, primitiveAssembly, error) {
	switch mode {
	case gltf.PrimitiveTriangles:
		return model.TopologyTriangles, assemblyList, nil
	case gltf.PrimitiveTriangleStrip:
		return model.TopologyTriangles, assemblyStrip, nil
	case gltf.PrimitiveTriangleFan:
		return model.TopologyTriangles, assemblyFan, nil
	case gltf.PrimitiveLines:
		return model.TopologyLines, assemblyList, nil
	case gltf.PrimitiveLineStrip:
		return model.TopologyLines, assemblyStrip, nil
	case gltf.PrimitiveLineLoop:
		return model.TopologyLines, assemblyLoop, nil
	case gltf.PrimitivePoints:
		return model.TopologyPoints, assemblyList, nil
	}
	return 0, 0, newFormatError(ErrUnsupportedPrimitiveMode, fmt.Sprintf("mode %d", mode), "primitive mode is not supported")
}

// mapInterpolation converts a glTF sampler interpolation to the engine enum.
func mapInterpolation(i gltf.Interpolation) (model.Interpolation, error) {
	switch i {
	case gltf.InterpolationLinear:
		return model.InterpolationLinear, nil
	case gltf.InterpolationStep:
		return model.InterpolationStep, nil
	case gltf.InterpolationCubicSpline:
		return model.InterpolationCubicSpline, nil
	}
	return 0, newFormatError(ErrUnknownInterpolation, fmt.Sprintf("interpolation %d", i), "interpolation is not supported")
}

// interpolationNames are the interpolation strings accepted in documents.
var interpolationNames = map[string]bool{
	"LINEAR":      true,
	"STEP":        true,
	"CUBICSPLINE": true,
}

// channelPathNames are the animation target paths accepted in documents.
var channelPathNames = map[string]bool{
	"translation": true,
	"rotation":    true,
	"scale":       true,
	"weights":     true,
}

// cameraTypeNames are the camera types accepted in documents.
var cameraTypeNames = map[string]bool{
	"perspective":  true,
	"orthographic": true,
}

// mapAlphaMode converts a glTF alpha mode to the engine enum.
func mapAlphaMode(m gltf.AlphaMode) model.AlphaMode {
	switch m {
	case gltf.AlphaMask:
		return model.AlphaMask
	case gltf.AlphaBlend:
		return model.AlphaBlend
	}
	return model.AlphaOpaque
}

// mapSampler converts a glTF sampler to staging data.
// Unset fields fall back to the glTF defaults of linear filtering and repeat wrapping.
// Reference: https://registry.khronos.org/glTF/specs/2.0/glTF-2.0.html#reference-sampler
//
// Parameters:
//   - s: the glTF sampler, or nil for the default sampler
//
// Returns:
//   - common.SamplerStagingData: the converted sampler state
func mapSampler(s *gltf.Sampler) common.SamplerStagingData {
	result := common.SamplerStagingData{
		AddressModeU:  wgpu.AddressModeRepeat,
		AddressModeV:  wgpu.AddressModeRepeat,
		AddressModeW:  wgpu.AddressModeRepeat,
		MagFilter:     wgpu.FilterModeLinear,
		MinFilter:     wgpu.FilterModeLinear,
		MipmapFilter:  wgpu.MipmapFilterModeNearest,
		MaxAnisotropy: 1,
	}
	if s == nil {
		return result
	}

	switch s.MagFilter {
	case gltf.MagNearest:
		result.MagFilter = wgpu.FilterModeNearest
	case gltf.MagLinear:
		result.MagFilter = wgpu.FilterModeLinear
	}

	switch s.MinFilter {
	case gltf.MinNearest:
		result.MinFilter = wgpu.FilterModeNearest
	case gltf.MinLinear:
		result.MinFilter = wgpu.FilterModeLinear
	case gltf.MinNearestMipMapNearest:
		result.MinFilter, result.MipmapFilter, result.UsesMipmaps = wgpu.FilterModeNearest, wgpu.MipmapFilterModeNearest, true
	case gltf.MinLinearMipMapNearest:
		result.MinFilter, result.MipmapFilter, result.UsesMipmaps = wgpu.FilterModeLinear, wgpu.MipmapFilterModeNearest, true
	case gltf.MinNearestMipMapLinear:
		result.MinFilter, result.MipmapFilter, result.UsesMipmaps = wgpu.FilterModeNearest, wgpu.MipmapFilterModeLinear, true
	case gltf.MinLinearMipMapLinear:
		result.MinFilter, result.MipmapFilter, result.UsesMipmaps = wgpu.FilterModeLinear, wgpu.MipmapFilterModeLinear, true
	}

	result.AddressModeU = mapWrap(s.WrapS)
	result.AddressModeV = mapWrap(s.WrapT)

	return result
}

// mapWrap converts a glTF wrap mode to a wgpu address mode.
func mapWrap(wrap gltf.WrappingMode) wgpu.AddressMode {
	switch wrap {
	case gltf.WrapClampToEdge:
		return wgpu.AddressModeClampToEdge
	case gltf.WrapMirroredRepeat:
		return wgpu.AddressModeMirrorRepeat
	default:
		return wgpu.AddressModeRepeat
	}
}
