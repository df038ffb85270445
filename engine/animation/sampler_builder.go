package animation

// SamplerBuilderOption is a functional option for configuring a Sampler during construction.
type SamplerBuilderOption func(*sampler)

// WithLoop is an option builder that sets whether playback wraps around at the end of the animation.
//
// Parameters:
//   - loop: true to wrap, false to clamp at the duration
//
// Returns:
//   - SamplerBuilderOption: a function that applies the loop option to a sampler
func WithLoop(loop bool) SamplerBuilderOption {
	return func(s *sampler) {
		s.loop = loop
	}
}

// WithSpeed is an option builder that sets the playback speed multiplier.
//
// Parameters:
//   - speed: the multiplier, 1 for real time
//
// Returns:
//   - SamplerBuilderOption: a function that applies the speed option to a sampler
func WithSpeed(speed float32) SamplerBuilderOption {
	return func(s *sampler) {
		s.speed = speed
	}
}

// WithStartTime is an option builder that sets the initial playback time.
//
// Parameters:
//   - t: the start time in seconds
//
// Returns:
//   - SamplerBuilderOption: a function that applies the start time option to a sampler
func WithStartTime(t float32) SamplerBuilderOption {
	return func(s *sampler) {
		s.time = s.wrap(t)
	}
}
