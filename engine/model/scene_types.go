package model

import (
	"github.com/Carmen-Shannon/oxy-gltf/common"
	"github.com/google/uuid"
)

// Skin is a joint hierarchy with one inverse bind matrix per joint.
type Skin struct {
	Name                string
	Joints              []*Node
	InverseBindMatrices [][16]float32
}

// NodePart is a mesh part drawn by a node with one material.
type NodePart struct {
	MeshPart *MeshPart
	Material *Material

	// Bones and InverseBindMatrices are only set on skinned parts.
	Bones               []*Node
	InverseBindMatrices map[*Node][16]float32

	// MorphTargets is the number of morph targets interleaved into the part's vertices.
	MorphTargets int
}

// Skinned reports whether the part carries bones.
func (p *NodePart) Skinned() bool {
	return len(p.Bones) > 0
}

// CameraProjection selects the camera model.
type CameraProjection int

const (
	ProjectionPerspective CameraProjection = iota
	ProjectionOrthographic
)

// Camera is a camera attached to a node.
// For perspective cameras a zero AspectRatio means the viewport aspect and a zero ZFar means infinite.
type Camera struct {
	Name        string
	Projection  CameraProjection
	YFov        float32
	AspectRatio float32
	XMag        float32
	YMag        float32
	ZNear       float32
	ZFar        float32
}

// LightType is a punctual light kind.
type LightType int

const (
	LightDirectional LightType = iota
	LightPoint
	LightSpot
)

// Light is a punctual light attached to a node.
// A zero Range means the light has no cutoff distance.
type Light struct {
	Name           string
	Type           LightType
	Color          [3]float32
	Intensity      float32
	Range          float32
	InnerConeAngle float32
	OuterConeAngle float32
}

// Node is an entity of the scene tree.
// A parent owns its children, and the tree has no cycles.
type Node struct {
	ID    uuid.UUID
	Name  string
	Index int

	Transform Transform
	Parent    *Node
	Children  []*Node

	Parts  []*NodePart
	Camera *Camera
	Light  *Light
	Skin   *Skin

	// Morph is nil for nodes without morph targets.
	Morph *MorphState
}

// NewNode creates a node with an identity transform.
//
// Parameters:
//   - name: the node identifier
//   - index: the source node index
//
// Returns:
//   - *Node: the new node
func NewNode(name string, index int) *Node {
	return &Node{
		ID:        uuid.New(),
		Name:      name,
		Index:     index,
		Transform: IdentityTransform(),
	}
}

// AddChild attaches child below n.
func (n *Node) AddChild(child *Node) {
	child.Parent = n
	n.Children = append(n.Children, child)
}

// LocalMatrix returns the node's local transform matrix.
func (n *Node) LocalMatrix() [16]float32 {
	return n.Transform.Matrix()
}

// WorldMatrix returns the product of all ancestor transforms with the local one.
func (n *Node) WorldMatrix() [16]float32 {
	m := n.LocalMatrix()
	for p := n.Parent; p != nil; p = p.Parent {
		m = common.Mul4(p.LocalMatrix(), m)
	}
	return m
}

// Walk visits n and its descendants depth first.
// Returning false from fn skips the node's children.
func (n *Node) Walk(fn func(*Node) bool) {
	if !fn(n) {
		return
	}
	for _, c := range n.Children {
		c.Walk(fn)
	}
}

// Find returns the first node in the subtree with the given name, or nil.
func (n *Node) Find(name string) *Node {
	var found *Node
	n.Walk(func(c *Node) bool {
		if found != nil {
			return false
		}
		if c.Name == name {
			found = c
			return false
		}
		return true
	})
	return found
}

// Scene is a forest of root nodes.
// Meshes, MeshParts and Materials list each instance reachable from Roots exactly once.
type Scene struct {
	Name  string
	Roots []*Node

	Cameras map[*Node]*Camera
	Lights  map[*Node]*Light

	Meshes    []*Mesh
	MeshParts []*MeshPart
	Materials []*Material
}

// Walk visits every node of the scene depth first.
func (s *Scene) Walk(fn func(*Node) bool) {
	for _, r := range s.Roots {
		r.Walk(fn)
	}
}

// Find returns the first node with the given name, or nil.
func (s *Scene) Find(name string) *Node {
	for _, r := range s.Roots {
		if n := r.Find(name); n != nil {
			return n
		}
	}
	return nil
}
