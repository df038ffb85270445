package loader

import (
	"fmt"
	"slices"

	"github.com/Carmen-Shannon/oxy-gltf/common"
	"github.com/Carmen-Shannon/oxy-gltf/engine/model"

	"github.com/qmuntal/gltf"
)

// importAnimations converts every animation of the document into the asset.
// Nodes must already be built.
//
// Returns:
//   - error: FormatError for bad samplers, targets or paths
func (ic *importContext) importAnimations() error {
	for i, ga := range ic.doc.Animations {
		if err := ic.ctx.Err(); err != nil {
			return err
		}
		anim, err := ic.importAnimation(i, ga)
		if err != nil {
			return err
		}
		ic.asset.AddAnimation(anim)
	}
	return nil
}

func (ic *importContext) importAnimation(index int, ga *gltf.Animation) (*model.Animation3D, error) {
	anim := &model.Animation3D{Name: common.Coalesce(ga.Name, fmt.Sprintf("animation_%d", index))}
	byNode := make(map[*model.Node]*model.NodeAnimation)

	for c, ch := range ga.Channels {
		subject := fmt.Sprintf("animation %d channel %d", index, c)
		if ch.Target.Node == nil {
			// Targets outside the core node set belong to extensions.
			continue
		}
		if ch.Sampler == nil || int(*ch.Sampler) >= len(ga.Samplers) {
			return nil, newFormatError(ErrInvalidIndex, subject, "channel has no valid sampler")
		}
		sampler := ga.Samplers[*ch.Sampler]
		if sampler.Input == nil || sampler.Output == nil {
			return nil, newFormatError(ErrMissingAttribute, subject, "sampler needs input and output accessors")
		}

		node, err := ic.buildNode(int(*ch.Target.Node))
		if err != nil {
			return nil, err
		}
		interpolation, err := mapInterpolation(sampler.Interpolation)
		if err != nil {
			return nil, err
		}

		input, err := ic.reader.ReadFloats(int(*sampler.Input))
		if err != nil {
			return nil, err
		}
		if len(input) == 0 {
			return nil, newFormatError(ErrMalformed, subject, "sampler input is empty")
		}
		output, err := ic.reader.ReadNormalizedFloats(int(*sampler.Output))
		if err != nil {
			return nil, err
		}
		anim.Duration = max(anim.Duration, slices.Max(input))

		na, ok := byNode[node]
		if !ok {
			na = &model.NodeAnimation{Node: node}
			byNode[node] = na
			anim.Nodes = append(anim.Nodes, na)
		}

		switch ch.Target.Path {
		case gltf.TRSTranslation:
			na.Translation, err = buildTrack(subject, input, output, 3, interpolation, vec3)
		case gltf.TRSRotation:
			na.Rotation, err = buildTrack(subject, input, output, 4, interpolation, vec4)
		case gltf.TRSScale:
			na.Scale, err = buildTrack(subject, input, output, 3, interpolation, vec3)
		case gltf.TRSWeights:
			if node.Morph == nil {
				return nil, newFormatError(ErrMissingAttribute, subject, "weights target %q has no morph targets", node.Name)
			}
			width := node.Morph.Weights.Count
			if width > ic.cfg.MaxWeights {
				return nil, newFormatError(ErrMalformed, subject, "%d morph weights exceed the maximum of %d", width, ic.cfg.MaxWeights)
			}
			na.Weights, err = buildTrack(subject, input, output, width, interpolation, model.NewWeightVector)
		default:
			return nil, newFormatError(ErrMalformed, subject, "unknown channel path %v", ch.Target.Path)
		}
		if err != nil {
			return nil, err
		}
	}

	return anim, nil
}

func vec3(v []float32) [3]float32 {
	return [3]float32{v[0], v[1], v[2]}
}

func vec4(v []float32) [4]float32 {
	return [4]float32{v[0], v[1], v[2], v[3]}
}

// buildTrack turns sampler input and output data into keyframes.
// Cubic-spline output holds (in-tangent, value, out-tangent) triples per keyframe.
// When the first keyframe starts after 0, a keyframe holding the first value is
// inserted at 0 so the property is defined for the whole clip.
//
// Parameters:
//   - subject: the channel, for error messages
//   - input: keyframe times
//   - output: flat keyframe values
//   - width: floats per value
//   - interpolation: the sampler interpolation
//   - pack: converts width floats to a value
//
// Returns:
//   - *model.Track[T]: the track
//   - error: FormatError if output does not match input
func buildTrack[T any](subject string, input, output []float32, width int, interpolation model.Interpolation, pack func([]float32) T) (*model.Track[T], error) {
	perKey := width
	if interpolation == model.InterpolationCubicSpline {
		perKey = width * 3
	}
	if width == 0 || len(output) != len(input)*perKey {
		return nil, newFormatError(ErrMalformed, subject, "%d output values for %d keyframes of %d floats", len(output), len(input), perKey)
	}

	track := &model.Track[T]{
		Interpolation: interpolation,
		Keyframes:     make([]model.Keyframe[T], 0, len(input)+1),
	}
	for k, t := range input {
		data := output[k*perKey : (k+1)*perKey]
		key := model.Keyframe[T]{Time: t}
		if interpolation == model.InterpolationCubicSpline {
			key.InTangent = pack(data[:width])
			key.Value = pack(data[width : 2*width])
			key.OutTangent = pack(data[2*width:])
		} else {
			key.Value = pack(data)
		}
		track.Keyframes = append(track.Keyframes, key)
	}

	if first := track.Keyframes[0]; first.Time > 0 {
		lead := model.Keyframe[T]{Time: 0, Value: first.Value}
		if interpolation == model.InterpolationCubicSpline {
			lead.InTangent, lead.OutTangent = pack(make([]float32, width)), pack(make([]float32, width))
		}
		track.Keyframes = slices.Insert(track.Keyframes, 0, lead)
	}
	return track, nil
}
