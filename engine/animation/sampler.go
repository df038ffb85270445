package animation

import (
	"math"
	"slices"
	"sync"

	"github.com/Carmen-Shannon/oxy-gltf/engine/model"

	"github.com/go-gl/mathgl/mgl32"
)

// sampler is the implementation of the Sampler interface.
type sampler struct {
	mu sync.Mutex

	anim  *model.Animation3D
	time  float32
	speed float32
	loop  bool
}

// Sampler evaluates an Animation3D on the CPU and writes the result into the animated
// nodes' transforms and morph weights.
type Sampler interface {
	// Animation returns the sampled animation.
	//
	// Returns:
	//   - *model.Animation3D: the animation
	Animation() *model.Animation3D

	// Time returns the current playback time in seconds.
	//
	// Returns:
	//   - float32: the playback time
	Time() float32

	// SetTime moves playback to t, wrapped or clamped to the animation duration.
	//
	// Parameters:
	//   - t: the new playback time in seconds
	SetTime(t float32)

	// SetSpeed sets the playback speed multiplier applied by Advance.
	//
	// Parameters:
	//   - speed: the multiplier, 1 for real time
	SetSpeed(speed float32)

	// Advance moves playback forward by deltaTime scaled by the speed, then applies the pose.
	//
	// Parameters:
	//   - deltaTime: elapsed time since the last call in seconds
	Advance(deltaTime float32)

	// Apply writes the pose at the current time into the animated nodes.
	Apply()

	// Finished reports whether a non-looping sampler reached the end of the animation.
	//
	// Returns:
	//   - bool: true once playback time equals the duration
	Finished() bool
}

var _ Sampler = &sampler{}

// NewSampler creates a Sampler for anim with the provided options applied.
// Playback starts at time 0 with speed 1 and looping enabled.
//
// Parameters:
//   - anim: the animation to sample
//   - options: variadic list of SamplerBuilderOption functions
//
// Returns:
//   - Sampler: the new sampler
func NewSampler(anim *model.Animation3D, options ...SamplerBuilderOption) Sampler {
	s := &sampler{
		anim:  anim,
		speed: 1,
		loop:  true,
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

func (s *sampler) Animation() *model.Animation3D {
	return s.anim
}

func (s *sampler) Time() float32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.time
}

func (s *sampler) SetTime(t float32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.time = s.wrap(t)
}

func (s *sampler) SetSpeed(speed float32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.speed = speed
}

func (s *sampler) Advance(deltaTime float32) {
	s.mu.Lock()
	s.time = s.wrap(s.time + deltaTime*s.speed)
	s.mu.Unlock()
	s.Apply()
}

func (s *sampler) Finished() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.loop && s.time >= s.anim.Duration
}

func (s *sampler) wrap(t float32) float32 {
	d := s.anim.Duration
	if d <= 0 {
		return 0
	}
	if s.loop {
		t = float32(math.Mod(float64(t), float64(d)))
		if t < 0 {
			t += d
		}
		return t
	}
	return min(max(t, 0), d)
}

func (s *sampler) Apply() {
	t := s.Time()
	for _, na := range s.anim.Nodes {
		node := na.Node
		if v, ok := Sample(na.Translation, t, mixVec3, nil); ok {
			node.Transform.Translation = v
		}
		if v, ok := Sample(na.Rotation, t, mixQuat, slerpQuat); ok {
			node.Transform.Rotation = normalizeQuat(v)
		}
		if v, ok := Sample(na.Scale, t, mixVec3, nil); ok {
			node.Transform.Scale = v
		}
		if v, ok := Sample(na.Weights, t, mixWeights, nil); ok && node.Morph != nil {
			node.Morph.Weights = v
		}
	}
}

// MixFunc returns the linear combination a*wa + b*wb.
type MixFunc[T any] func(a, b T, wa, wb float32) T

// Sample evaluates track at time t.
// Times before the first keyframe yield the first value and times after the last yield the last value.
//
// Parameters:
//   - track: the track to evaluate, may be nil
//   - t: the time in seconds
//   - mix: linear combination of two values
//   - interpolate: optional replacement for linear interpolation, such as slerp for rotations
//
// Returns:
//   - T: the sampled value
//   - bool: false if the track is nil or empty
func Sample[T any](track *model.Track[T], t float32, mix MixFunc[T], interpolate func(a, b T, f float32) T) (T, bool) {
	var zero T
	if track == nil || len(track.Keyframes) == 0 {
		return zero, false
	}
	keys := track.Keyframes

	next, _ := slices.BinarySearchFunc(keys, t, func(k model.Keyframe[T], t float32) int {
		switch {
		case k.Time < t:
			return -1
		case k.Time > t:
			return 1
		}
		return 0
	})
	if next < len(keys) && keys[next].Time == t {
		return keys[next].Value, true
	}
	if next == 0 {
		return keys[0].Value, true
	}
	if next == len(keys) {
		return keys[len(keys)-1].Value, true
	}

	k0, k1 := keys[next-1], keys[next]
	dt := k1.Time - k0.Time
	f := (t - k0.Time) / dt

	switch track.Interpolation {
	case model.InterpolationStep:
		return k0.Value, true
	case model.InterpolationCubicSpline:
		// Hermite basis with tangents scaled by the keyframe spacing.
		f2, f3 := f*f, f*f*f
		h00 := 2*f3 - 3*f2 + 1
		h10 := f3 - 2*f2 + f
		h01 := -2*f3 + 3*f2
		h11 := f3 - f2
		start := mix(k0.Value, k0.OutTangent, h00, h10*dt)
		end := mix(k1.Value, k1.InTangent, h01, h11*dt)
		return mix(start, end, 1, 1), true
	default:
		if interpolate != nil {
			return interpolate(k0.Value, k1.Value, f), true
		}
		return mix(k0.Value, k1.Value, 1-f, f), true
	}
}

func mixVec3(a, b [3]float32, wa, wb float32) [3]float32 {
	return [3]float32{a[0]*wa + b[0]*wb, a[1]*wa + b[1]*wb, a[2]*wa + b[2]*wb}
}

func mixQuat(a, b [4]float32, wa, wb float32) [4]float32 {
	return [4]float32{a[0]*wa + b[0]*wb, a[1]*wa + b[1]*wb, a[2]*wa + b[2]*wb, a[3]*wa + b[3]*wb}
}

func mixWeights(a, b model.WeightVector, wa, wb float32) model.WeightVector {
	out := model.WeightVector{Count: max(a.Count, b.Count)}
	for i := range out.Count {
		out.Values[i] = a.Values[i]*wa + b.Values[i]*wb
	}
	return out
}

// slerpQuat interpolates two (x, y, z, w) rotations along the shortest arc.
func slerpQuat(a, b [4]float32, f float32) [4]float32 {
	qa := mgl32.Quat{W: a[3], V: mgl32.Vec3{a[0], a[1], a[2]}}
	qb := mgl32.Quat{W: b[3], V: mgl32.Vec3{b[0], b[1], b[2]}}
	if qa.Dot(qb) < 0 {
		qb = qb.Scale(-1)
	}
	q := mgl32.QuatSlerp(qa, qb, f)
	return [4]float32{q.V[0], q.V[1], q.V[2], q.W}
}

func normalizeQuat(q [4]float32) [4]float32 {
	l := float32(math.Sqrt(float64(q[0]*q[0] + q[1]*q[1] + q[2]*q[2] + q[3]*q[3])))
	if l == 0 {
		return [4]float32{0, 0, 0, 1}
	}
	return [4]float32{q[0] / l, q[1] / l, q[2] / l, q[3] / l}
}
