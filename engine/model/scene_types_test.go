package model

import (
	"math"
	"testing"
)

func near(a, b float32) bool {
	return math.Abs(float64(a-b)) < 1e-4
}

func TestNode_WorldMatrix(t *testing.T) {
	root := NewNode("root", 0)
	root.Transform.Translation = [3]float32{1, 0, 0}
	root.Transform.Scale = [3]float32{2, 2, 2}

	child := NewNode("child", 1)
	child.Transform.Translation = [3]float32{0, 3, 0}
	// 90 degrees about Z, as (x, y, z, w).
	child.Transform.Rotation = [4]float32{0, 0, float32(math.Sqrt2 / 2), float32(math.Sqrt2 / 2)}
	root.AddChild(child)

	m := child.WorldMatrix()
	// The child's origin lands at root translation plus the scaled child offset.
	if !near(m[12], 1) || !near(m[13], 6) || !near(m[14], 0) {
		t.Errorf("world translation = %v", m[12:15])
	}
	// The child's X axis is rotated onto Y and scaled by the parent.
	if !near(m[0], 0) || !near(m[1], 2) {
		t.Errorf("world X axis = %v, want (0 2 0)", m[0:3])
	}
	if child.Parent != root {
		t.Error("AddChild did not set the parent")
	}
}

func TestNode_WalkAndFind(t *testing.T) {
	root := NewNode("root", 0)
	a := NewNode("a", 1)
	b := NewNode("b", 2)
	leaf := NewNode("leaf", 3)
	root.AddChild(a)
	root.AddChild(b)
	a.AddChild(leaf)

	var order []string
	root.Walk(func(n *Node) bool {
		order = append(order, n.Name)
		return true
	})
	if got := len(order); got != 4 || order[0] != "root" || order[1] != "a" || order[2] != "leaf" || order[3] != "b" {
		t.Errorf("walk order = %v, want depth first", order)
	}

	var pruned []string
	root.Walk(func(n *Node) bool {
		pruned = append(pruned, n.Name)
		return n.Name != "a"
	})
	if len(pruned) != 3 {
		t.Errorf("pruned walk = %v, want leaf skipped", pruned)
	}

	scene := &Scene{Roots: []*Node{root}}
	if scene.Find("leaf") != leaf || scene.Find("missing") != nil {
		t.Error("Find did not locate nodes by name")
	}
}

func TestWeightVector(t *testing.T) {
	w := NewWeightVector([]float32{1, 2, 3})
	if w.Count != 3 || len(w.Slice()) != 3 || w.Slice()[2] != 3 {
		t.Errorf("vector = %+v", w)
	}

	long := make([]float32, MaxWeights+3)
	if got := NewWeightVector(long).Count; got != MaxWeights {
		t.Errorf("count = %d, want capacity %d", got, MaxWeights)
	}
}

func TestVertexLayout(t *testing.T) {
	var l VertexLayout
	pos := l.Add(UsagePosition, 0, 3, NoMorphTarget)
	uv := l.Add(UsageTexCoord, 1, 2, NoMorphTarget)
	morph := l.Add(UsagePosition, 0, 3, 0)

	if pos.Offset != 0 || uv.Offset != 3 || morph.Offset != 5 || l.Stride != 8 {
		t.Errorf("offsets %d %d %d stride %d", pos.Offset, uv.Offset, morph.Offset, l.Stride)
	}
	if got, ok := l.Find(UsagePosition, 0); !ok || got.Offset != 0 {
		t.Errorf("Find returned the morph target attribute %+v", got)
	}
	if got, ok := l.FindMorph(UsagePosition, 0, 0); !ok || got.Offset != 5 {
		t.Errorf("FindMorph = %+v", got)
	}
	if _, ok := l.Find(UsageTexCoord, 0); ok {
		t.Error("found a texcoord unit that was never added")
	}

	mesh := &Mesh{Layout: l, Vertices: make([]float32, 3*l.Stride)}
	mesh.Vertex(2)[uv.Offset] = 7
	if mesh.VertexCount() != 3 || mesh.Vertices[2*8+3] != 7 {
		t.Error("Vertex does not address the interleaved buffer")
	}
}

func TestUVTransform_Matrix(t *testing.T) {
	m := UVTransform{Offset: [2]float32{0.5, 0.25}, Scale: [2]float32{2, 3}}.Matrix()
	want := [9]float32{2, 0, 0, 0, 3, 0, 0.5, 0.25, 1}
	for i := range m {
		if !near(m[i], want[i]) {
			t.Fatalf("matrix = %v, want %v", m, want)
		}
	}
}
