package model

import (
	"github.com/Carmen-Shannon/oxy-gltf/common"
)

// --- Transform Types ---

// Transform represents a decomposed local transform.
type Transform struct {
	// Translation is the position offset.
	Translation [3]float32

	// Rotation is the orientation as a quaternion (x, y, z, w).
	Rotation [4]float32

	// Scale is the scale factor along each axis.
	Scale [3]float32
}

// IdentityTransform returns a transform with no translation, no rotation and unit scale.
func IdentityTransform() Transform {
	return Transform{
		Rotation: [4]float32{0, 0, 0, 1},
		Scale:    [3]float32{1, 1, 1},
	}
}

// Matrix composes the transform into a column-major T * R * S matrix.
//
// Returns:
//   - [16]float32: the local transform matrix
func (t Transform) Matrix() [16]float32 {
	return common.ComposeTRS(t.Translation, t.Rotation, t.Scale)
}

// --- Morph Weight Types ---

// MaxWeights is the capacity of a WeightVector.
const MaxWeights = 8

// WeightVector is a fixed-capacity vector of morph-target blend weights.
// Only the first Count entries of Values are meaningful.
type WeightVector struct {
	Values [MaxWeights]float32
	Count  int
}

// NewWeightVector copies values into a WeightVector.
// Values beyond MaxWeights are dropped.
//
// Parameters:
//   - values: the weights to copy
//
// Returns:
//   - WeightVector: the populated vector
func NewWeightVector(values []float32) WeightVector {
	var w WeightVector
	w.Count = copy(w.Values[:], values)
	return w
}

// Slice returns the meaningful weights as a slice backed by the vector.
func (w *WeightVector) Slice() []float32 {
	return w.Values[:w.Count]
}

// MorphState holds the optional morph data of a node.
type MorphState struct {
	// Weights are the current blend weights, one per morph target.
	Weights WeightVector

	// TargetNames are the optional names of the targets, read from mesh extras.
	TargetNames []string
}

// --- Animation Types ---

// Interpolation selects how values are evaluated between keyframes.
type Interpolation int

const (
	InterpolationLinear Interpolation = iota
	InterpolationStep
	InterpolationCubicSpline
)

func (i Interpolation) String() string {
	switch i {
	case InterpolationStep:
		return "STEP"
	case InterpolationCubicSpline:
		return "CUBICSPLINE"
	default:
		return "LINEAR"
	}
}

// Keyframe stores one sample of a track.
// InTangent and OutTangent are only set for cubic-spline tracks.
type Keyframe[T any] struct {
	// Time is the keyframe timestamp in seconds.
	Time float32

	// Value is the sampled value.
	Value T

	InTangent  T
	OutTangent T
}

// Track is a time-ordered list of keyframes for one animated property.
type Track[T any] struct {
	Interpolation Interpolation
	Keyframes     []Keyframe[T]
}

// Duration returns the time of the last keyframe, or 0 for an empty track.
func (t *Track[T]) Duration() float32 {
	if t == nil || len(t.Keyframes) == 0 {
		return 0
	}
	return t.Keyframes[len(t.Keyframes)-1].Time
}

// NodeAnimation holds the independently timed tracks animating one node.
// A nil track means the property is not animated.
type NodeAnimation struct {
	Node        *Node
	Translation *Track[[3]float32]
	Rotation    *Track[[4]float32]
	Scale       *Track[[3]float32]
	Weights     *Track[WeightVector]
}

// Animation3D is a named set of node animations.
type Animation3D struct {
	// Name is the animation identifier.
	Name string

	// Duration is the maximum input time over all samplers, in seconds.
	Duration float32

	// Nodes contains one entry per animated node.
	Nodes []*NodeAnimation
}

// NodeAnimation returns the entry animating n, or nil.
func (a *Animation3D) NodeAnimation(n *Node) *NodeAnimation {
	for _, na := range a.Nodes {
		if na.Node == n {
			return na
		}
	}
	return nil
}
