package loader

import (
	"math"
)

const (
	// splitGroupSize is the number of source vertices covered by one homogeneous group.
	splitGroupSize = math.MaxUint16

	// maxLocalIndex is the largest index a split group may emit.
	maxLocalIndex = math.MaxUint16 - 1
)

// splitGroup is one 16-bit addressable chunk of a split mesh.
type splitGroup struct {
	Vertices []float32
	Indices  []uint16
}

// splitMesh partitions a mesh with 32-bit indices into groups whose indices fit in 16 bits.
//
// Primitives whose vertices all fall into the same block of splitGroupSize source
// vertices are rebased into that block's group. The remaining primitives are
// reindexed into fresh groups, each pass filling one group and deferring what does
// not fit to the next pass.
//
// Parameters:
//   - vertices: the interleaved source vertices
//   - stride: the vertex size in floats
//   - indices: the 32-bit primitive list indices
//   - perPrimitive: indices per primitive (3 triangles, 2 lines, 1 points)
//
// Returns:
//   - []splitGroup: the groups, none with an index above maxLocalIndex
func splitMesh(vertices []float32, stride int, indices []uint32, perPrimitive int) []splitGroup {
	vertexCount := len(vertices) / stride
	blocks := (vertexCount + splitGroupSize - 1) / splitGroupSize

	homogeneous := make([][]uint16, blocks)
	largest := make([]int, blocks)
	var remainder [][]uint32

	for p := 0; p+perPrimitive <= len(indices); p += perPrimitive {
		prim := indices[p : p+perPrimitive]
		block := int(prim[0]) / splitGroupSize
		same := true
		for _, idx := range prim[1:] {
			if int(idx)/splitGroupSize != block {
				same = false
				break
			}
		}
		if !same {
			remainder = append(remainder, prim)
			continue
		}
		base := block * splitGroupSize
		for _, idx := range prim {
			local := int(idx) - base
			homogeneous[block] = append(homogeneous[block], uint16(local))
			largest[block] = max(largest[block], local)
		}
	}

	var groups []splitGroup
	for block, idx := range homogeneous {
		if len(idx) == 0 {
			continue
		}
		start := block * splitGroupSize * stride
		end := start + (largest[block]+1)*stride
		groups = append(groups, splitGroup{
			Vertices: append([]float32(nil), vertices[start:end]...),
			Indices:  idx,
		})
	}

	current, next := remainder, [][]uint32(nil)
	for len(current) > 0 {
		remap := make(map[uint32]uint16)
		var group splitGroup

		for _, prim := range current {
			fresh := 0
			for _, idx := range prim {
				if _, ok := remap[idx]; !ok {
					fresh++
				}
			}
			if len(remap)+fresh > maxLocalIndex+1 {
				next = append(next, prim)
				continue
			}
			for _, idx := range prim {
				local, ok := remap[idx]
				if !ok {
					local = uint16(len(remap))
					remap[idx] = local
					src := int(idx) * stride
					group.Vertices = append(group.Vertices, vertices[src:src+stride]...)
				}
				group.Indices = append(group.Indices, local)
			}
		}

		groups = append(groups, group)
		current, next = next, current[:0]
	}

	return groups
}
