package loader

import (
	"fmt"
	"math"

	"github.com/Carmen-Shannon/oxy-gltf/common"
	"github.com/Carmen-Shannon/oxy-gltf/engine/model"

	"github.com/google/uuid"
	"github.com/qmuntal/gltf"
)

// bonesPerGroup is the number of joint influences packed into one bone group.
const bonesPerGroup = 4

// attributeStream is a source accessor bound to its slot in the interleaved vertex.
type attributeStream struct {
	attr     model.VertexAttribute
	accessor int
	morph    bool
}

// boneGroup pairs the JOINTS_n and WEIGHTS_n accessors of one set with their vertex slots.
type boneGroup struct {
	joints, weights         int
	jointsAttr, weightsAttr model.VertexAttribute
}

// importMesh returns the part templates of glTF mesh index, importing it on first use.
// Nodes instantiating the mesh copy the templates and attach their own skinning data.
//
// Parameters:
//   - index: the glTF mesh index
//
// Returns:
//   - []*model.NodePart: one template per primitive split group
//   - error: FormatError if any primitive is invalid
func (ic *importContext) importMesh(index int) ([]*model.NodePart, error) {
	if parts, ok := ic.meshes[index]; ok {
		return parts, nil
	}
	if index < 0 || index >= len(ic.doc.Meshes) {
		return nil, newFormatError(ErrInvalidIndex, fmt.Sprintf("mesh %d", index), "mesh does not exist")
	}

	gm := ic.doc.Meshes[index]
	name := gm.Name
	if name == "" {
		name = fmt.Sprintf("mesh_%d", index)
	}

	var parts []*model.NodePart
	for p, prim := range gm.Primitives {
		if err := ic.ctx.Err(); err != nil {
			return nil, err
		}
		primParts, err := ic.importPrimitive(fmt.Sprintf("%s_%d", name, p), prim)
		if err != nil {
			return nil, err
		}
		parts = append(parts, primParts...)
	}

	ic.meshes[index] = parts
	return parts, nil
}

// importPrimitive converts one glTF primitive into interleaved meshes with 16-bit indices.
//
// Parameters:
//   - name: the base name of the generated meshes and parts
//   - prim: the source primitive
//
// Returns:
//   - []*model.NodePart: one part per split group
//   - error: FormatError naming the offending attribute or index
func (ic *importContext) importPrimitive(name string, prim *gltf.Primitive) ([]*model.NodePart, error) {
	topology, assembly, err := mapPrimitiveMode(prim.Mode)
	if err != nil {
		return nil, err
	}

	materialIndex := defaultMaterialIndex
	if prim.Material != nil {
		materialIndex = int(*prim.Material)
	}
	material, err := ic.importMaterial(materialIndex)
	if err != nil {
		return nil, err
	}

	attrs, err := parseAttributes(prim.Attributes)
	if err != nil {
		return nil, err
	}

	var (
		layout      model.VertexLayout
		streams     []attributeStream
		jointSets   = make(map[int]int)
		weightSets  = make(map[int]int)
		vertexCount = -1
	)

	for _, a := range attrs {
		if a.Semantic.Kind == SemanticCustom {
			common.LogWarn("Skipping custom vertex attribute", "primitive", name, "attribute", a.Semantic.Name)
			continue
		}

		acc, err := ic.reader.accessor(a.Accessor)
		if err != nil {
			return nil, err
		}
		if vertexCount < 0 {
			vertexCount = int(acc.Count)
		} else if int(acc.Count) != vertexCount {
			return nil, newFormatError(ErrMalformed, a.Semantic.Name, "has %d elements, expected %d", acc.Count, vertexCount)
		}

		usage, components, err := attributeFormat(a.Semantic, acc)
		if err != nil {
			return nil, err
		}

		switch a.Semantic.Kind {
		case SemanticJoints:
			jointSets[a.Semantic.Set] = a.Accessor
		case SemanticWeights:
			weightSets[a.Semantic.Set] = a.Accessor
		default:
			attr := layout.Add(usage, a.Semantic.Set, components, model.NoMorphTarget)
			streams = append(streams, attributeStream{attr: attr, accessor: a.Accessor})
		}
	}

	positionAttr, ok := layout.Find(model.UsagePosition, 0)
	if !ok {
		return nil, newFormatError(ErrMissingAttribute, name, "primitive has no POSITION attribute")
	}

	morphStreams, err := ic.morphTargets(name, prim, vertexCount, &layout)
	if err != nil {
		return nil, err
	}
	streams = append(streams, morphStreams...)

	var genNormals, genTangents bool
	var normalAttr, tangentAttr, uvAttr model.VertexAttribute
	if topology == model.TopologyTriangles {
		normalAttr, ok = layout.Find(model.UsageNormal, 0)
		if !ok {
			normalAttr = layout.Add(model.UsageNormal, 0, 3, model.NoMorphTarget)
			genNormals = true
		}

		tangentAttr, ok = layout.Find(model.UsageTangent, 0)
		if normalMap := material.NormalMap(); !ok && normalMap != nil {
			uvAttr, ok = layout.Find(model.UsageTexCoord, normalMap.UVChannel)
			if !ok {
				return nil, newFormatError(ErrMissingAttribute, fmt.Sprintf("TEXCOORD_%d", normalMap.UVChannel),
					"normal map of %q needs texture coordinates to generate tangents", material.Name)
			}
			tangentAttr = layout.Add(model.UsageTangent, 0, 4, model.NoMorphTarget)
			genTangents = true
		}
	}

	bones, err := boneGroups(jointSets, weightSets, &layout)
	if err != nil {
		return nil, err
	}

	stride := layout.Stride
	vertices := make([]float32, vertexCount*stride)

	for _, g := range bones {
		if err := ic.writeBoneGroup(vertices, stride, g); err != nil {
			return nil, err
		}
	}
	for _, s := range streams {
		var values []float32
		if s.morph {
			values, err = ic.reader.ReadFloats(s.accessor)
		} else {
			values, err = ic.reader.ReadNormalizedFloats(s.accessor)
		}
		if err != nil {
			return nil, err
		}
		writeStream(vertices, stride, s.attr, values)
	}

	indices, wide, err := ic.primitiveIndices(prim, vertexCount)
	if err != nil {
		return nil, err
	}
	indices = assembleIndices(indices, topology, assembly)

	positions := vertexView{data: vertices, stride: stride, offset: positionAttr.Offset}
	if genNormals {
		generateNormals(positions, vertexView{data: vertices, stride: stride, offset: normalAttr.Offset}, indices)
	}
	if genTangents {
		generateTangents(
			positions,
			vertexView{data: vertices, stride: stride, offset: normalAttr.Offset},
			vertexView{data: vertices, stride: stride, offset: uvAttr.Offset},
			vertexView{data: vertices, stride: stride, offset: tangentAttr.Offset},
			vertexCount,
			indices,
		)
	}

	var groups []splitGroup
	if wide {
		groups = splitMesh(vertices, stride, indices, topology.VerticesPerPrimitive())
		var splitVertices, splitIndices int
		for _, g := range groups {
			splitVertices += len(g.Vertices) / stride
			splitIndices += len(g.Indices)
		}
		common.LogInfo("Split primitive for 16-bit indices",
			"primitive", name,
			"vertices", vertexCount,
			"indices", len(indices),
			"split_vertices", splitVertices,
			"split_indices", splitIndices,
			"groups", len(groups),
		)
	} else {
		narrow := make([]uint16, len(indices))
		for i, idx := range indices {
			narrow[i] = uint16(idx)
		}
		groups = []splitGroup{{Vertices: vertices, Indices: narrow}}
	}

	parts := make([]*model.NodePart, 0, len(groups))
	for g, group := range groups {
		partName := name
		if len(groups) > 1 {
			partName = fmt.Sprintf("%s_%d", name, g)
		}

		mesh := &model.Mesh{
			ID:       uuid.New(),
			Name:     partName,
			Layout:   layout,
			Vertices: group.Vertices,
			Indices:  group.Indices,
		}
		ic.asset.TrackMesh(mesh)

		part := &model.MeshPart{
			ID:       uuid.New(),
			Name:     partName,
			Mesh:     mesh,
			Topology: topology,
			Offset:   0,
			Size:     len(group.Indices),
		}
		part.BoundsMin, part.BoundsMax = computeBounds(vertexView{data: group.Vertices, stride: stride, offset: positionAttr.Offset}, len(group.Vertices)/stride)

		parts = append(parts, &model.NodePart{
			MeshPart:     part,
			Material:     material,
			MorphTargets: len(prim.Targets),
		})
	}
	return parts, nil
}

// attributeFormat validates the type and component combination of a base attribute.
//
// Returns:
//   - model.VertexUsage: the engine usage
//   - int: number of floats in the interleaved vertex
//   - error: FormatError naming the attribute
func attributeFormat(sem Semantic, acc *gltf.Accessor) (model.VertexUsage, int, error) {
	ct := acc.ComponentType
	isFloat := ct == gltf.ComponentFloat
	unorm := acc.Normalized && (ct == gltf.ComponentUbyte || ct == gltf.ComponentUshort)

	var usage model.VertexUsage
	valid := false
	switch sem.Kind {
	case SemanticPosition:
		usage, valid = model.UsagePosition, acc.Type == gltf.AccessorVec3 && isFloat
	case SemanticNormal:
		usage, valid = model.UsageNormal, acc.Type == gltf.AccessorVec3 && isFloat
	case SemanticTangent:
		usage, valid = model.UsageTangent, acc.Type == gltf.AccessorVec4 && isFloat
	case SemanticTexCoord:
		usage, valid = model.UsageTexCoord, acc.Type == gltf.AccessorVec2 && (isFloat || unorm)
	case SemanticColor:
		usage = model.UsageColor
		valid = (acc.Type == gltf.AccessorVec3 || acc.Type == gltf.AccessorVec4) && (isFloat || unorm)
	case SemanticJoints:
		usage = model.UsageBoneIndices
		valid = acc.Type == gltf.AccessorVec4 && (ct == gltf.ComponentUbyte || ct == gltf.ComponentUshort)
	case SemanticWeights:
		usage, valid = model.UsageBoneWeights, acc.Type == gltf.AccessorVec4 && (isFloat || unorm)
	}

	if !valid {
		return 0, 0, newFormatError(ErrBadComponentType, sem.Name, "%s of %s components is not allowed", accessorTypeName(acc.Type), componentTypeName(ct))
	}
	return usage, elementSize(acc.Type), nil
}

// morphTargets adds the attributes of every morph target of prim to layout.
func (ic *importContext) morphTargets(name string, prim *gltf.Primitive, vertexCount int, layout *model.VertexLayout) ([]attributeStream, error) {
	if len(prim.Targets) > ic.cfg.MaxWeights {
		return nil, newFormatError(ErrMalformed, name, "primitive has %d morph targets, at most %d are supported", len(prim.Targets), ic.cfg.MaxWeights)
	}

	var streams []attributeStream
	for t, target := range prim.Targets {
		attrs, err := parseAttributes(target)
		if err != nil {
			return nil, err
		}
		for _, a := range attrs {
			var usage model.VertexUsage
			switch a.Semantic.Kind {
			case SemanticPosition:
				usage = model.UsagePosition
			case SemanticNormal:
				usage = model.UsageNormal
			case SemanticTangent:
				usage = model.UsageTangent
			default:
				return nil, newFormatError(ErrUnknownSemantic, a.Semantic.Name, "morph target %d may only displace POSITION, NORMAL and TANGENT", t)
			}

			acc, err := ic.reader.accessor(a.Accessor)
			if err != nil {
				return nil, err
			}
			if acc.Type != gltf.AccessorVec3 || acc.ComponentType != gltf.ComponentFloat {
				return nil, newFormatError(ErrBadComponentType, a.Semantic.Name, "morph target %d must be VEC3 of float components", t)
			}
			if int(acc.Count) != vertexCount {
				return nil, newFormatError(ErrMalformed, a.Semantic.Name, "morph target %d has %d elements, expected %d", t, acc.Count, vertexCount)
			}

			attr := layout.Add(usage, 0, 3, t)
			streams = append(streams, attributeStream{attr: attr, accessor: a.Accessor, morph: true})
		}
	}
	return streams, nil
}

// boneGroups pairs joint and weight sets and reserves their slots at the end of the layout.
func boneGroups(jointSets, weightSets map[int]int, layout *model.VertexLayout) ([]boneGroup, error) {
	groups := make([]boneGroup, 0, len(jointSets))
	for set := range len(jointSets) {
		joints, ok := jointSets[set]
		if !ok {
			return nil, newFormatError(ErrMissingAttribute, fmt.Sprintf("JOINTS_%d", set), "joint sets must be numbered from 0 without gaps")
		}
		weights, ok := weightSets[set]
		if !ok {
			return nil, newFormatError(ErrMissingAttribute, fmt.Sprintf("WEIGHTS_%d", set), "JOINTS_%d has no matching weights", set)
		}
		groups = append(groups, boneGroup{joints: joints, weights: weights})
	}
	if len(weightSets) != len(jointSets) {
		return nil, newFormatError(ErrMissingAttribute, fmt.Sprintf("JOINTS_%d", len(jointSets)), "weight set has no matching joints")
	}

	for i := range groups {
		groups[i].jointsAttr = layout.Add(model.UsageBoneIndices, i, bonesPerGroup, model.NoMorphTarget)
		groups[i].weightsAttr = layout.Add(model.UsageBoneWeights, i, bonesPerGroup, model.NoMorphTarget)
	}
	return groups, nil
}

// writeBoneGroup reads one joint and weight set fully and interleaves it into vertices.
func (ic *importContext) writeBoneGroup(vertices []float32, stride int, g boneGroup) error {
	acc, err := ic.reader.accessor(g.joints)
	if err != nil {
		return err
	}

	var joints []uint32
	if acc.ComponentType == gltf.ComponentUbyte {
		b, err := ic.reader.ReadBytes(g.joints)
		if err != nil {
			return err
		}
		joints = widen(b)
	} else {
		s, err := ic.reader.ReadUint16s(g.joints)
		if err != nil {
			return err
		}
		joints = widen(s)
	}

	weights, err := ic.reader.ReadNormalizedFloats(g.weights)
	if err != nil {
		return err
	}

	asFloats := make([]float32, len(joints))
	for i, j := range joints {
		asFloats[i] = float32(j)
	}
	writeStream(vertices, stride, g.jointsAttr, asFloats)
	writeStream(vertices, stride, g.weightsAttr, weights)
	return nil
}

// writeStream copies packed attribute values into their slot of every vertex.
func writeStream(vertices []float32, stride int, attr model.VertexAttribute, values []float32) {
	n := attr.Components
	for v := 0; v*n < len(values) && v*stride < len(vertices); v++ {
		copy(vertices[v*stride+attr.Offset:v*stride+attr.Offset+n], values[v*n:(v+1)*n])
	}
}

// primitiveIndices reads or generates the index list of prim.
//
// Returns:
//   - []uint32: the indices, each below vertexCount
//   - bool: true if the indices need splitting to fit 16 bits
//   - error: FormatError for unreadable or out of range indices
func (ic *importContext) primitiveIndices(prim *gltf.Primitive, vertexCount int) ([]uint32, bool, error) {
	if prim.Indices == nil {
		indices := make([]uint32, vertexCount)
		for i := range indices {
			indices[i] = uint32(i)
		}
		return indices, vertexCount > maxLocalIndex+1, nil
	}

	accessor := int(*prim.Indices)
	indices, ct, err := ic.reader.ReadIndices(accessor)
	if err != nil {
		return nil, false, err
	}
	for _, idx := range indices {
		if ct == gltf.ComponentUshort && idx == math.MaxUint16 {
			return nil, false, newFormatError(ErrInvalidIndex, fmt.Sprintf("accessor %d", accessor), "index %d is the primitive restart value", idx)
		}
		if int(idx) >= vertexCount {
			return nil, false, newFormatError(ErrInvalidIndex, fmt.Sprintf("accessor %d", accessor), "index %d exceeds vertex count %d", idx, vertexCount)
		}
	}
	return indices, ct == gltf.ComponentUint, nil
}

// assembleIndices converts strips, fans and loops into plain primitive lists.
// Reference: https://registry.khronos.org/glTF/specs/2.0/glTF-2.0.html#topologies
func assembleIndices(indices []uint32, topology model.PrimitiveTopology, assembly primitiveAssembly) []uint32 {
	n := len(indices)
	switch {
	case assembly == assemblyList:
		return indices

	case topology == model.TopologyTriangles && assembly == assemblyStrip:
		out := make([]uint32, 0, max(n-2, 0)*3)
		for i := 0; i+2 < n; i++ {
			if i%2 == 0 {
				out = append(out, indices[i], indices[i+1], indices[i+2])
			} else {
				out = append(out, indices[i], indices[i+2], indices[i+1])
			}
		}
		return out

	case topology == model.TopologyTriangles && assembly == assemblyFan:
		out := make([]uint32, 0, max(n-2, 0)*3)
		for i := 1; i+1 < n; i++ {
			out = append(out, indices[i], indices[i+1], indices[0])
		}
		return out

	case topology == model.TopologyLines && (assembly == assemblyStrip || assembly == assemblyLoop):
		out := make([]uint32, 0, n*2)
		for i := 0; i+1 < n; i++ {
			out = append(out, indices[i], indices[i+1])
		}
		if assembly == assemblyLoop && n > 1 {
			out = append(out, indices[n-1], indices[0])
		}
		return out
	}
	return indices
}

// computeBounds returns the axis-aligned bounds of the first count positions.
func computeBounds(positions vertexView, count int) ([3]float32, [3]float32) {
	if count == 0 {
		return [3]float32{}, [3]float32{}
	}
	lo := [3]float32{math.MaxFloat32, math.MaxFloat32, math.MaxFloat32}
	hi := [3]float32{-math.MaxFloat32, -math.MaxFloat32, -math.MaxFloat32}
	for i := range count {
		p := positions.vec3(uint32(i))
		for c := range 3 {
			lo[c] = min(lo[c], p[c])
			hi[c] = max(hi[c], p[c])
		}
	}
	return lo, hi
}
