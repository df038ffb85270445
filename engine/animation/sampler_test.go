package animation

import (
	"math"
	"testing"

	"github.com/Carmen-Shannon/oxy-gltf/engine/model"
)

func near(a, b float32) bool {
	return math.Abs(float64(a-b)) < 1e-4
}

func near3(a, b [3]float32) bool {
	return near(a[0], b[0]) && near(a[1], b[1]) && near(a[2], b[2])
}

// ramp is a track moving along X from 0 at t=1 to 10 at t=3.
func ramp(interpolation model.Interpolation) *model.Track[[3]float32] {
	return &model.Track[[3]float32]{
		Interpolation: interpolation,
		Keyframes: []model.Keyframe[[3]float32]{
			{Time: 1, Value: [3]float32{0, 0, 0}},
			{Time: 3, Value: [3]float32{10, 0, 0}},
		},
	}
}

func TestSample(t *testing.T) {
	tests := []struct {
		name  string
		track *model.Track[[3]float32]
		time  float32
		want  [3]float32
	}{
		{"linear midpoint", ramp(model.InterpolationLinear), 2, [3]float32{5, 0, 0}},
		{"linear quarter", ramp(model.InterpolationLinear), 1.5, [3]float32{2.5, 0, 0}},
		{"step holds previous", ramp(model.InterpolationStep), 2.9, [3]float32{0, 0, 0}},
		{"exact keyframe", ramp(model.InterpolationStep), 3, [3]float32{10, 0, 0}},
		{"before first clamps", ramp(model.InterpolationLinear), 0, [3]float32{0, 0, 0}},
		{"after last clamps", ramp(model.InterpolationLinear), 7, [3]float32{10, 0, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Sample(tt.track, tt.time, mixVec3, nil)
			if !ok {
				t.Fatal("Sample reported no value")
			}
			if !near3(got, tt.want) {
				t.Errorf("Sample(%v) = %v, want %v", tt.time, got, tt.want)
			}
		})
	}

	if _, ok := Sample[[3]float32](nil, 1, mixVec3, nil); ok {
		t.Error("nil track produced a value")
	}
	if _, ok := Sample(&model.Track[[3]float32]{}, 1, mixVec3, nil); ok {
		t.Error("empty track produced a value")
	}
}

func TestSample_CubicSpline(t *testing.T) {
	track := &model.Track[[3]float32]{
		Interpolation: model.InterpolationCubicSpline,
		Keyframes: []model.Keyframe[[3]float32]{
			{Time: 0, Value: [3]float32{0, 0, 0}, OutTangent: [3]float32{1, 0, 0}},
			{Time: 2, Value: [3]float32{1, 1, 0}},
		},
	}

	// f=0.5, dt=2: h10*dt = 0.25 from the out-tangent plus h01 = 0.5 from the end value.
	got, _ := Sample(track, 1, mixVec3, nil)
	if !near3(got, [3]float32{0.75, 0.5, 0}) {
		t.Errorf("cubic midpoint = %v, want [0.75 0.5 0]", got)
	}

	got, _ = Sample(track, 2, mixVec3, nil)
	if got != [3]float32{1, 1, 0} {
		t.Errorf("cubic end = %v", got)
	}
}

func TestSlerpQuat_TakesShortestArc(t *testing.T) {
	s45, c45 := float32(math.Sin(math.Pi/4)), float32(math.Cos(math.Pi/4))
	identity := [4]float32{0, 0, 0, 1}
	// The negated quaternion of a 90 degree turn about Z describes the same rotation.
	turn := [4]float32{0, 0, -s45, -c45}

	got := slerpQuat(identity, turn, 0.5)
	s, c := float32(math.Sin(math.Pi/8)), float32(math.Cos(math.Pi/8))
	if !near(got[2], s) || !near(got[3], c) {
		t.Errorf("halfway = %v, want a 45 degree turn (0 0 %v %v)", got, s, c)
	}
}

func TestSampler_Playback(t *testing.T) {
	anim := &model.Animation3D{Name: "ramp", Duration: 2}

	t.Run("loop wraps", func(t *testing.T) {
		s := NewSampler(anim)
		s.SetTime(5)
		if !near(s.Time(), 1) {
			t.Errorf("time = %v, want 1", s.Time())
		}
		s.SetTime(-0.5)
		if !near(s.Time(), 1.5) {
			t.Errorf("time = %v, want 1.5", s.Time())
		}
		if s.Finished() {
			t.Error("a looping sampler never finishes")
		}
	})

	t.Run("speed scales advance", func(t *testing.T) {
		s := NewSampler(anim, WithSpeed(2), WithStartTime(1))
		s.Advance(0.75)
		if !near(s.Time(), 0.5) {
			t.Errorf("time = %v, want 0.5", s.Time())
		}
	})

	t.Run("clamped playback finishes", func(t *testing.T) {
		s := NewSampler(anim, WithLoop(false))
		s.Advance(1)
		if s.Finished() {
			t.Error("finished halfway through")
		}
		s.Advance(10)
		if !s.Finished() || s.Time() != 2 {
			t.Errorf("time = %v finished = %v, want 2 and finished", s.Time(), s.Finished())
		}
	})
}

func TestSampler_ApplyWritesNodes(t *testing.T) {
	mover := model.NewNode("mover", 0)
	morphed := model.NewNode("morphed", 1)
	morphed.Morph = &model.MorphState{Weights: model.NewWeightVector([]float32{0, 0})}
	still := model.NewNode("still", 2)

	anim := &model.Animation3D{
		Duration: 3,
		Nodes: []*model.NodeAnimation{
			{Node: mover, Translation: ramp(model.InterpolationLinear)},
			{Node: morphed, Weights: &model.Track[model.WeightVector]{Keyframes: []model.Keyframe[model.WeightVector]{
				{Time: 0, Value: model.NewWeightVector([]float32{0, 1})},
				{Time: 2, Value: model.NewWeightVector([]float32{1, 0})},
			}}},
			{Node: still, Weights: &model.Track[model.WeightVector]{Keyframes: []model.Keyframe[model.WeightVector]{
				{Time: 0, Value: model.NewWeightVector([]float32{1})},
			}}},
		},
	}

	s := NewSampler(anim, WithLoop(false))
	s.SetTime(2)
	s.Apply()

	if !near3(mover.Transform.Translation, [3]float32{5, 0, 0}) {
		t.Errorf("translation = %v, want [5 0 0]", mover.Transform.Translation)
	}
	if mover.Transform.Scale != [3]float32{1, 1, 1} {
		t.Errorf("unanimated scale changed to %v", mover.Transform.Scale)
	}
	if w := morphed.Morph.Weights; w.Count != 2 || !near(w.Values[0], 1) || !near(w.Values[1], 0) {
		t.Errorf("weights = %+v, want [1 0]", w)
	}
	if still.Morph != nil {
		t.Error("weights were attached to a node without morph targets")
	}

	s.SetTime(1)
	s.Apply()
	if w := morphed.Morph.Weights; !near(w.Values[0], 0.5) || !near(w.Values[1], 0.5) {
		t.Errorf("weights at 1s = %+v, want [0.5 0.5]", w)
	}
}
