package model

import (
	"github.com/Carmen-Shannon/oxy-gltf/engine/renderer"
	"github.com/google/uuid"
)

// VertexUsage identifies what a vertex attribute holds.
type VertexUsage int

const (
	UsagePosition VertexUsage = iota
	UsageNormal
	UsageTangent
	UsageTexCoord
	UsageColor
	UsageBoneIndices
	UsageBoneWeights
)

func (u VertexUsage) String() string {
	switch u {
	case UsagePosition:
		return "position"
	case UsageNormal:
		return "normal"
	case UsageTangent:
		return "tangent"
	case UsageTexCoord:
		return "texcoord"
	case UsageColor:
		return "color"
	case UsageBoneIndices:
		return "bone_indices"
	case UsageBoneWeights:
		return "bone_weights"
	}
	return "unknown"
}

// NoMorphTarget marks a base (non-morph) vertex attribute.
const NoMorphTarget = -1

// VertexAttribute describes one attribute inside an interleaved float vertex.
type VertexAttribute struct {
	Usage VertexUsage

	// Unit is the set index, such as 1 for TEXCOORD_1, or the bone group index for skinning data.
	Unit int

	// Components is the number of floats the attribute occupies.
	Components int

	// Offset is the attribute start in floats from the beginning of the vertex.
	Offset int

	// MorphTarget is the target index for morph deltas, or NoMorphTarget.
	MorphTarget int
}

// VertexLayout is the ordered attribute list of an interleaved vertex.
type VertexLayout struct {
	Attributes []VertexAttribute

	// Stride is the vertex size in floats.
	Stride int
}

// Add appends an attribute at the end of the vertex.
//
// Parameters:
//   - usage: what the attribute holds
//   - unit: set index or bone group index
//   - components: number of floats
//   - morphTarget: target index or NoMorphTarget
//
// Returns:
//   - VertexAttribute: the appended attribute with its offset assigned
func (l *VertexLayout) Add(usage VertexUsage, unit, components, morphTarget int) VertexAttribute {
	attr := VertexAttribute{
		Usage:       usage,
		Unit:        unit,
		Components:  components,
		Offset:      l.Stride,
		MorphTarget: morphTarget,
	}
	l.Attributes = append(l.Attributes, attr)
	l.Stride += components
	return attr
}

// Find looks up a base attribute by usage and unit.
//
// Returns:
//   - VertexAttribute: the matching attribute
//   - bool: false if the layout has no such attribute
func (l VertexLayout) Find(usage VertexUsage, unit int) (VertexAttribute, bool) {
	return l.FindMorph(usage, unit, NoMorphTarget)
}

// FindMorph looks up an attribute by usage, unit and morph target.
func (l VertexLayout) FindMorph(usage VertexUsage, unit, morphTarget int) (VertexAttribute, bool) {
	for _, a := range l.Attributes {
		if a.Usage == usage && a.Unit == unit && a.MorphTarget == morphTarget {
			return a, true
		}
	}
	return VertexAttribute{}, false
}

// PrimitiveTopology is the primitive assembly mode of a mesh part.
type PrimitiveTopology int

const (
	TopologyTriangles PrimitiveTopology = iota
	TopologyLines
	TopologyPoints
)

// VerticesPerPrimitive returns 3 for triangles, 2 for lines and 1 for points.
func (t PrimitiveTopology) VerticesPerPrimitive() int {
	switch t {
	case TopologyLines:
		return 2
	case TopologyPoints:
		return 1
	}
	return 3
}

// Mesh is one interleaved vertex buffer with its 16-bit index buffer.
// The CPU copies are kept so that the asset can be inspected and re-uploaded.
type Mesh struct {
	ID   uuid.UUID
	Name string

	Layout   VertexLayout
	Vertices []float32
	Indices  []uint16

	// VertexBuffer and IndexBuffer are nil until the mesh is uploaded.
	VertexBuffer renderer.Resource
	IndexBuffer  renderer.Resource
}

// VertexCount returns the number of vertices in the mesh.
func (m *Mesh) VertexCount() int {
	if m.Layout.Stride == 0 {
		return 0
	}
	return len(m.Vertices) / m.Layout.Stride
}

// Vertex returns the float slice of the vertex at index i.
func (m *Mesh) Vertex(i int) []float32 {
	return m.Vertices[i*m.Layout.Stride : (i+1)*m.Layout.Stride]
}

// Upload creates the GPU buffers for the mesh.
//
// Parameters:
//   - device: the device to create buffers on
//
// Returns:
//   - error: error if a buffer could not be created; buffers created before the failure stay attached
func (m *Mesh) Upload(device renderer.GraphicsDevice) error {
	vb, err := device.CreateVertexBuffer(m.Name+" Vertex Buffer", m.Vertices)
	if err != nil {
		return err
	}
	m.VertexBuffer = vb

	if len(m.Indices) > 0 {
		ib, err := device.CreateIndexBuffer(m.Name+" Index Buffer", m.Indices)
		if err != nil {
			return err
		}
		m.IndexBuffer = ib
	}
	return nil
}

func (m *Mesh) release() {
	if m.VertexBuffer != nil {
		m.VertexBuffer.Release()
		m.VertexBuffer = nil
	}
	if m.IndexBuffer != nil {
		m.IndexBuffer.Release()
		m.IndexBuffer = nil
	}
}

// MeshPart is a drawable range of a mesh.
type MeshPart struct {
	ID   uuid.UUID
	Name string

	Mesh     *Mesh
	Topology PrimitiveTopology

	// Offset is the first index of the range and Size the number of indices.
	Offset int
	Size   int

	BoundsMin [3]float32
	BoundsMax [3]float32
}
