package loader

import (
	"github.com/go-gl/mathgl/mgl32"
)

// vertexView addresses one attribute of an interleaved float vertex buffer.
type vertexView struct {
	data   []float32
	stride int
	offset int
}

func (v vertexView) vec2(i uint32) mgl32.Vec2 {
	p := int(i)*v.stride + v.offset
	return mgl32.Vec2{v.data[p], v.data[p+1]}
}

func (v vertexView) vec3(i uint32) mgl32.Vec3 {
	p := int(i)*v.stride + v.offset
	return mgl32.Vec3{v.data[p], v.data[p+1], v.data[p+2]}
}

func (v vertexView) set(i uint32, values ...float32) {
	copy(v.data[int(i)*v.stride+v.offset:], values)
}

// generateNormals writes a face normal to every vertex of every triangle.
// Each triangle overwrites the normals of its three vertices, so a vertex shared by
// several triangles keeps the normal of the last one in index order.
//
// Parameters:
//   - positions: view of the position attribute
//   - normals: view of the normal attribute to fill
//   - indices: triangle list indices
func generateNormals(positions, normals vertexView, indices []uint32) {
	for t := 0; t+2 < len(indices); t += 3 {
		i0, i1, i2 := indices[t], indices[t+1], indices[t+2]
		p0, p1, p2 := positions.vec3(i0), positions.vec3(i1), positions.vec3(i2)

		n := p1.Sub(p0).Cross(p2.Sub(p0))
		if n.Len() > 0 {
			n = n.Normalize()
		}
		for _, i := range [3]uint32{i0, i1, i2} {
			normals.set(i, n[0], n[1], n[2])
		}
	}
}

// generateTangents computes per-vertex tangents from the UV derivatives of each triangle.
// The tangent is orthogonalised against the normal, and the fourth component stores the
// handedness of the bitangent.
// Reference: Lengyel, "Computing Tangent Space Basis Vectors for an Arbitrary Mesh"
//
// Parameters:
//   - positions: view of the position attribute
//   - normals: view of the normal attribute
//   - uvs: view of the texture coordinate set used by the normal map
//   - tangents: view of the four-component tangent attribute to fill
//   - vertexCount: number of vertices in the buffer
//   - indices: triangle list indices
func generateTangents(positions, normals, uvs, tangents vertexView, vertexCount int, indices []uint32) {
	tan1 := make([]mgl32.Vec3, vertexCount)
	tan2 := make([]mgl32.Vec3, vertexCount)

	for t := 0; t+2 < len(indices); t += 3 {
		i0, i1, i2 := indices[t], indices[t+1], indices[t+2]
		v0, v1, v2 := positions.vec3(i0), positions.vec3(i1), positions.vec3(i2)
		w0, w1, w2 := uvs.vec2(i0), uvs.vec2(i1), uvs.vec2(i2)

		e1, e2 := v1.Sub(v0), v2.Sub(v0)
		s1, s2 := w1.X()-w0.X(), w2.X()-w0.X()
		t1, t2 := w1.Y()-w0.Y(), w2.Y()-w0.Y()

		// Degenerate UVs yield infinities here.
		r := 1 / (s1*t2 - s2*t1)
		sdir := e1.Mul(t2).Sub(e2.Mul(t1)).Mul(r)
		tdir := e2.Mul(s1).Sub(e1.Mul(s2)).Mul(r)

		for _, i := range [3]uint32{i0, i1, i2} {
			tan1[i] = tan1[i].Add(sdir)
			tan2[i] = tan2[i].Add(tdir)
		}
	}

	for i := range vertexCount {
		n := normals.vec3(uint32(i))
		t := tan1[i]

		// Gram-Schmidt
		ortho := t.Sub(n.Mul(n.Dot(t)))
		if ortho.Len() > 0 {
			ortho = ortho.Normalize()
		}

		w := float32(1)
		if n.Cross(t).Dot(tan2[i]) < 0 {
			w = -1
		}
		tangents.set(uint32(i), ortho[0], ortho[1], ortho[2], w)
	}
}
