package smoother

import (
	"go.viam.com/smoother/spatialmath"
)

// Stream filters a single sequence of samples, remembering the last output between calls. It is
// the in-process form of a channel for callers that have no external store to read the previous
// output from. A Stream is not safe for concurrent use.
type Stream struct {
	channel Channel
	last    spatialmath.RigidTransform
	primed  bool
}

// NewStream returns a stream using the given channel's cutoff and activation. The first sample
// passes through unfiltered and becomes the starting output.
func NewStream(channel Channel) *Stream {
	return &Stream{channel: channel}
}

// Next filters one sample taken dt seconds after the previous one.
func (s *Stream) Next(input spatialmath.RigidTransform, dt float64) spatialmath.RigidTransform {
	if !s.primed {
		s.last = input
		s.primed = true
		return input
	}
	s.last = s.channel.Step(input, s.last, dt)
	return s.last
}

// Last returns the most recent output and whether there has been one.
func (s *Stream) Last() (spatialmath.RigidTransform, bool) {
	return s.last, s.primed
}

// Reset forgets the last output so the next sample seeds the stream again.
func (s *Stream) Reset() {
	s.last = spatialmath.RigidTransform{}
	s.primed = false
}

// SetChannel changes the cutoff and activation used from the next sample on. The last output is kept,
// so reactivating a stream resumes from wherever it was.
func (s *Stream) SetChannel(channel Channel) {
	s.channel = channel
}
