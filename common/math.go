package common

import (
	"unsafe"

	"github.com/go-gl/mathgl/mgl32"
)

// Identity4 returns a column-major 4x4 identity matrix.
//
// Returns:
//   - [16]float32: the identity matrix
func Identity4() [16]float32 {
	return [16]float32(mgl32.Ident4())
}

// SliceToBytes converts any slice to a byte slice for GPU buffer uploads.
// Uses unsafe pointer operations to create a view into the original data.
// WARNING: The returned slice shares memory with the input - do not modify.
//
// Parameters:
//   - data: source slice of any type
//
// Returns:
//   - []byte: byte slice view of the input data, or nil if input is empty
func SliceToBytes[T any](data []T) []byte {
	if len(data) == 0 {
		return nil
	}
	var zero T
	size := unsafe.Sizeof(zero)
	totalBytes := int(size) * len(data)
	return unsafe.Slice((*byte)(unsafe.Pointer(&data[0])), totalBytes)
}

// IsIdentity4 reports whether m is exactly the identity matrix.
//
// Parameters:
//   - m: column-major matrix to test
//
// Returns:
//   - bool: true if m equals the identity matrix
func IsIdentity4(m [16]float32) bool {
	return m == Identity4()
}

// DecomposeMatrix splits a column-major affine transform into translation, rotation and scale.
// Translation is read from column 3, scale from the lengths of the basis columns and rotation
// from the normalized basis. A negative determinant flips the X scale so the remaining basis
// stays a proper rotation.
//
// Parameters:
//   - m: column-major 4x4 matrix
//
// Returns:
//   - [3]float32: translation
//   - [4]float32: rotation quaternion as [x, y, z, w]
//   - [3]float32: scale
func DecomposeMatrix(m [16]float32) ([3]float32, [4]float32, [3]float32) {
	mat := mgl32.Mat4(m)
	translation := [3]float32{m[12], m[13], m[14]}

	sx := mat.Col(0).Vec3().Len()
	sy := mat.Col(1).Vec3().Len()
	sz := mat.Col(2).Vec3().Len()
	if mat.Mat3().Det() < 0 {
		sx = -sx
	}
	scale := [3]float32{sx, sy, sz}

	rot := mgl32.Ident4()
	for col, s := range scale {
		if s == 0 {
			continue
		}
		for row := 0; row < 3; row++ {
			rot[col*4+row] = m[col*4+row] / s
		}
	}
	q := mgl32.Mat4ToQuat(rot).Normalize()

	return translation, [4]float32{q.V[0], q.V[1], q.V[2], q.W}, scale
}

// ComposeTRS builds a column-major model matrix from translation, rotation and scale.
// The result is T * R * S.
//
// Parameters:
//   - t: translation
//   - r: rotation quaternion as [x, y, z, w]
//   - s: scale
//
// Returns:
//   - [16]float32: the composed matrix
func ComposeTRS(t [3]float32, r [4]float32, s [3]float32) [16]float32 {
	q := mgl32.Quat{W: r[3], V: mgl32.Vec3{r[0], r[1], r[2]}}
	m := mgl32.Translate3D(t[0], t[1], t[2]).Mul4(q.Mat4()).Mul4(mgl32.Scale3D(s[0], s[1], s[2]))
	return [16]float32(m)
}

// Mul4 multiplies two column-major 4x4 matrices.
// Result: a * b
//
// Parameters:
//   - a: left-hand matrix
//   - b: right-hand matrix
//
// Returns:
//   - [16]float32: the product
func Mul4(a, b [16]float32) [16]float32 {
	return [16]float32(mgl32.Mat4(a).Mul4(mgl32.Mat4(b)))
}
