// Package smoother implements a one-pole low-pass filter over streams of rigid transforms.
//
// Each step blends the previous filtered output toward the newest raw sample. The previous output
// is always passed in by the caller, so the filter itself holds no state and channels can be
// stepped from independent goroutines.
package smoother

import (
	"time"

	"go.viam.com/smoother/spatialmath"
)

const (
	// DefaultCutoffHz is the cutoff frequency a new channel starts with.
	DefaultCutoffHz = 7.5
	// DefaultTickInterval is the nominal time between steps.
	DefaultTickInterval = 15 * time.Millisecond
)

// Weights returns the blend weights of the previous output and the current input for a step of
// dt seconds at the given cutoff frequency in Hz.
func Weights(cutoffHz, dt float64) (previous, current float64) {
	return 1, dt * cutoffHz
}

// Step computes the next filtered transform. When active is false the input passes through
// unchanged and previousOutput is ignored. Otherwise the result is
// Blend(previousOutput, 1, input, dt*cutoffHz): larger cutoffs or longer steps follow the input
// more closely, and as dt*cutoffHz approaches zero the output holds still.
//
// dt should be the true elapsed time in seconds since the previous step for cutoffHz to mean
// anything as a frequency.
func Step(input, previousOutput spatialmath.RigidTransform, cutoffHz float64, active bool, dt float64) spatialmath.RigidTransform {
	if !active {
		return input
	}
	weightPrevious, weightCurrent := Weights(cutoffHz, dt)
	return spatialmath.Blend(previousOutput, weightPrevious, input, weightCurrent)
}
