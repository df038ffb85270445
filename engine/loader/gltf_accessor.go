package loader

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/qmuntal/gltf"
	"golang.org/x/exp/constraints"
)

// accessorReader reads typed accessor data through a resolver.
// Every read honours the buffer view stride, so interleaved sources are supported,
// and returns exactly count * elementSize values.
type accessorReader struct {
	resolver DataFileResolver
}

// newAccessorReader creates an accessorReader over the resolver's document.
func newAccessorReader(r DataFileResolver) *accessorReader {
	return &accessorReader{resolver: r}
}

// accessor looks up an accessor by index.
func (a *accessorReader) accessor(index int) (*gltf.Accessor, error) {
	doc := a.resolver.Root()
	if index < 0 || index >= len(doc.Accessors) {
		return nil, newFormatError(ErrInvalidIndex, fmt.Sprintf("accessor %d", index), "accessor does not exist")
	}
	return doc.Accessors[index], nil
}

// readPacked returns the accessor's elements tightly packed, with any sparse substitution applied.
func (a *accessorReader) readPacked(index int) (*gltf.Accessor, []byte, error) {
	acc, err := a.accessor(index)
	if err != nil {
		return nil, nil, err
	}

	subject := fmt.Sprintf("accessor %d", index)
	elemBytes := elementByteSize(acc.Type, acc.ComponentType)
	if elemBytes == 0 {
		return nil, nil, newFormatError(ErrMalformed, subject, "unknown accessor type")
	}
	count := int(acc.Count)
	packed := make([]byte, count*elemBytes)

	switch {
	case acc.BufferView != nil:
		if err := a.copyStrided(packed, int(*acc.BufferView), int(acc.ByteOffset), count, elemBytes, subject); err != nil {
			return nil, nil, err
		}
	case acc.Sparse == nil:
		return nil, nil, newFormatError(ErrMissingBufferView, subject, "accessor data is not stored in a buffer view")
	}

	if acc.Sparse != nil {
		if err := a.applySparse(acc, packed, elemBytes, subject); err != nil {
			return nil, nil, err
		}
	}

	return acc, packed, nil
}

// copyStrided copies count elements from a buffer view into dst, stepping by the view's stride.
func (a *accessorReader) copyStrided(dst []byte, viewIndex, byteOffset, count, elemBytes int, subject string) error {
	view, err := bufferViewBytes(a.resolver, viewIndex)
	if err != nil {
		return err
	}

	stride := elemBytes
	if bs := int(a.resolver.Root().BufferViews[viewIndex].ByteStride); bs > 0 {
		stride = bs
	}

	if count > 0 {
		last := byteOffset + (count-1)*stride + elemBytes
		if last > len(view) {
			return newFormatError(ErrMalformed, subject, "reads %d bytes past the end of buffer view %d", last-len(view), viewIndex)
		}
	}

	for i := 0; i < count; i++ {
		src := byteOffset + i*stride
		copy(dst[i*elemBytes:(i+1)*elemBytes], view[src:src+elemBytes])
	}
	return nil
}

// applySparse overwrites the elements listed by a sparse accessor.
func (a *accessorReader) applySparse(acc *gltf.Accessor, packed []byte, elemBytes int, subject string) error {
	sp := acc.Sparse
	n := int(sp.Count)

	idxType := sp.Indices.ComponentType
	idxSize := componentSize(idxType)
	if idxType != gltf.ComponentUbyte && idxType != gltf.ComponentUshort && idxType != gltf.ComponentUint {
		return newFormatError(ErrBadComponentType, subject, "sparse indices must be unsigned, got %s", componentTypeName(idxType))
	}

	rawIdx := make([]byte, n*idxSize)
	if err := a.copyStrided(rawIdx, int(sp.Indices.BufferView), int(sp.Indices.ByteOffset), n, idxSize, subject); err != nil {
		return err
	}
	rawVal := make([]byte, n*elemBytes)
	if err := a.copyStrided(rawVal, int(sp.Values.BufferView), int(sp.Values.ByteOffset), n, elemBytes, subject); err != nil {
		return err
	}

	count := len(packed) / elemBytes
	for i := 0; i < n; i++ {
		target := int(readUnsigned(rawIdx[i*idxSize:], idxType))
		if target >= count {
			return newFormatError(ErrMalformed, subject, "sparse index %d out of range", target)
		}
		copy(packed[target*elemBytes:(target+1)*elemBytes], rawVal[i*elemBytes:(i+1)*elemBytes])
	}
	return nil
}

// readUnsigned decodes one little-endian unsigned component.
func readUnsigned(b []byte, ct gltf.ComponentType) uint32 {
	switch ct {
	case gltf.ComponentUbyte:
		return uint32(b[0])
	case gltf.ComponentUshort:
		return uint32(binary.LittleEndian.Uint16(b))
	default:
		return binary.LittleEndian.Uint32(b)
	}
}

// requireComponent fails with a FormatError unless acc uses ct.
func requireComponent(acc *gltf.Accessor, index int, ct gltf.ComponentType) error {
	if acc.ComponentType != ct {
		return newFormatError(ErrBadComponentType, fmt.Sprintf("accessor %d", index), "expected %s components, got %s", componentTypeName(ct), componentTypeName(acc.ComponentType))
	}
	return nil
}

// ReadFloats reads a float accessor.
//
// Parameters:
//   - index: the accessor index
//
// Returns:
//   - []float32: count * elementSize values
//   - error: FormatError if the accessor is not float or cannot be read
func (a *accessorReader) ReadFloats(index int) ([]float32, error) {
	acc, err := a.accessor(index)
	if err != nil {
		return nil, err
	}
	if err := requireComponent(acc, index, gltf.ComponentFloat); err != nil {
		return nil, err
	}
	_, packed, err := a.readPacked(index)
	if err != nil {
		return nil, err
	}

	out := make([]float32, len(packed)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(packed[i*4:]))
	}
	return out, nil
}

// ReadNormalizedFloats reads a float accessor or a normalized integer accessor as floats.
// Integer components are mapped to [0, 1] or [-1, 1] following the glTF normalization rules.
func (a *accessorReader) ReadNormalizedFloats(index int) ([]float32, error) {
	acc, err := a.accessor(index)
	if err != nil {
		return nil, err
	}
	if acc.ComponentType == gltf.ComponentFloat {
		return a.ReadFloats(index)
	}
	if !acc.Normalized || acc.ComponentType == gltf.ComponentUint {
		return nil, newFormatError(ErrBadComponentType, fmt.Sprintf("accessor %d", index), "%s components must be normalized", componentTypeName(acc.ComponentType))
	}

	_, packed, err := a.readPacked(index)
	if err != nil {
		return nil, err
	}

	size := componentSize(acc.ComponentType)
	out := make([]float32, len(packed)/size)
	for i := range out {
		b := packed[i*size:]
		switch acc.ComponentType {
		case gltf.ComponentByte:
			out[i] = max(float32(int8(b[0]))/127, -1)
		case gltf.ComponentUbyte:
			out[i] = normalizeUnsigned(b[0])
		case gltf.ComponentShort:
			out[i] = max(float32(int16(binary.LittleEndian.Uint16(b)))/32767, -1)
		case gltf.ComponentUshort:
			out[i] = normalizeUnsigned(binary.LittleEndian.Uint16(b))
		}
	}
	return out, nil
}

// normalizeUnsigned maps an unsigned integer to [0, 1].
func normalizeUnsigned[T constraints.Unsigned](v T) float32 {
	return float32(v) / float32(^T(0))
}

// ReadBytes reads an unsigned byte accessor.
func (a *accessorReader) ReadBytes(index int) ([]uint8, error) {
	acc, err := a.accessor(index)
	if err != nil {
		return nil, err
	}
	if err := requireComponent(acc, index, gltf.ComponentUbyte); err != nil {
		return nil, err
	}
	_, packed, err := a.readPacked(index)
	return packed, err
}

// ReadUint16s reads an unsigned short accessor.
func (a *accessorReader) ReadUint16s(index int) ([]uint16, error) {
	acc, err := a.accessor(index)
	if err != nil {
		return nil, err
	}
	if err := requireComponent(acc, index, gltf.ComponentUshort); err != nil {
		return nil, err
	}
	_, packed, err := a.readPacked(index)
	if err != nil {
		return nil, err
	}

	out := make([]uint16, len(packed)/2)
	for i := range out {
		out[i] = binary.LittleEndian.Uint16(packed[i*2:])
	}
	return out, nil
}

// ReadInt32s reads an unsigned int accessor as 32-bit integers.
func (a *accessorReader) ReadInt32s(index int) ([]int32, error) {
	acc, err := a.accessor(index)
	if err != nil {
		return nil, err
	}
	if err := requireComponent(acc, index, gltf.ComponentUint); err != nil {
		return nil, err
	}
	_, packed, err := a.readPacked(index)
	if err != nil {
		return nil, err
	}

	out := make([]int32, len(packed)/4)
	for i := range out {
		out[i] = int32(binary.LittleEndian.Uint32(packed[i*4:]))
	}
	return out, nil
}

// ReadIndices reads a SCALAR index accessor of any unsigned width.
//
// Returns:
//   - []uint32: the indices widened to 32 bits
//   - gltf.ComponentType: the source component type
//   - error: FormatError if the accessor is not SCALAR or not unsigned
func (a *accessorReader) ReadIndices(index int) ([]uint32, gltf.ComponentType, error) {
	acc, err := a.accessor(index)
	if err != nil {
		return nil, 0, err
	}
	subject := fmt.Sprintf("accessor %d", index)
	if acc.Type != gltf.AccessorScalar {
		return nil, 0, newFormatError(ErrBadComponentType, subject, "indices must be SCALAR, got %s", accessorTypeName(acc.Type))
	}

	var out []uint32
	switch acc.ComponentType {
	case gltf.ComponentUbyte:
		b, err := a.ReadBytes(index)
		if err != nil {
			return nil, 0, err
		}
		out = widen(b)
	case gltf.ComponentUshort:
		s, err := a.ReadUint16s(index)
		if err != nil {
			return nil, 0, err
		}
		out = widen(s)
	case gltf.ComponentUint:
		i32, err := a.ReadInt32s(index)
		if err != nil {
			return nil, 0, err
		}
		out = widen(i32)
	default:
		return nil, 0, newFormatError(ErrBadComponentType, subject, "indices cannot use %s components", componentTypeName(acc.ComponentType))
	}
	return out, acc.ComponentType, nil
}

// widen converts integer values to uint32.
func widen[T constraints.Integer](in []T) []uint32 {
	out := make([]uint32, len(in))
	for i, v := range in {
		out[i] = uint32(v)
	}
	return out
}
