package smoother

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"

	"go.viam.com/smoother/spatialmath"
	"go.viam.com/smoother/utils"
)

var (
	quarterTurnZ = spatialmath.NewRigidTransform(
		(&spatialmath.R4AA{Theta: math.Pi / 2, RZ: 1}).RotationMatrix(),
		r3.Vector{X: 10},
	)
	someTransform = spatialmath.NewRigidTransform(
		(&spatialmath.R4AA{Theta: 1.1, RX: 0.4, RY: -0.1, RZ: 0.9}).RotationMatrix(),
		r3.Vector{X: -3, Y: 7, Z: 0.5},
	)
)

func TestWeights(t *testing.T) {
	prev, cur := Weights(DefaultCutoffHz, DefaultTickInterval.Seconds())
	test.That(t, prev, test.ShouldEqual, 1.)
	test.That(t, cur, test.ShouldAlmostEqual, 0.1125)
}

func TestStepInactivePassesThrough(t *testing.T) {
	for _, tc := range []struct {
		cutoff, dt float64
	}{
		{DefaultCutoffHz, 0.015},
		{0, 0},
		{1e6, 10},
		{math.NaN(), -1},
	} {
		got := Step(quarterTurnZ, someTransform, tc.cutoff, false, tc.dt)
		test.That(t, got, test.ShouldResemble, quarterTurnZ)
	}
}

func TestStepScenario(t *testing.T) {
	got := Step(quarterTurnZ, spatialmath.NewZeroTransform(), 7.5, true, 0.015)

	wB := 0.1125 / 1.1125
	test.That(t, got.Translation().X, test.ShouldAlmostEqual, 10*wB, 1e-12)
	test.That(t, got.Translation().X, test.ShouldAlmostEqual, 1.011, 1e-3)
	test.That(t, got.Translation().Y, test.ShouldAlmostEqual, 0)
	test.That(t, got.Translation().Z, test.ShouldAlmostEqual, 0)

	aa := spatialmath.QuatToR4AA(got.Quaternion())
	test.That(t, utils.RadToDeg(aa.Theta), test.ShouldAlmostEqual, 90*wB, 1e-9)
	test.That(t, utils.RadToDeg(aa.Theta), test.ShouldAlmostEqual, 9.1, 0.01)
	test.That(t, aa.RZ, test.ShouldAlmostEqual, 1, 1e-9)
}

func TestStepLimits(t *testing.T) {
	t.Run("vanishing cutoff holds the previous output", func(t *testing.T) {
		got := Step(quarterTurnZ, someTransform, 1e-9, true, 0.015)
		test.That(t, spatialmath.TransformAlmostEqual(got, someTransform, 1e-8), test.ShouldBeTrue)
	})

	t.Run("vanishing dt holds the previous output", func(t *testing.T) {
		got := Step(quarterTurnZ, someTransform, DefaultCutoffHz, true, 0)
		test.That(t, spatialmath.TransformAlmostEqual(got, someTransform, 1e-9), test.ShouldBeTrue)
	})

	t.Run("huge cutoff follows the input", func(t *testing.T) {
		got := Step(quarterTurnZ, someTransform, 1e12, true, 0.015)
		test.That(t, spatialmath.TransformAlmostEqual(got, quarterTurnZ, 1e-8), test.ShouldBeTrue)
	})

	t.Run("output approaches input over repeated steps", func(t *testing.T) {
		out := someTransform
		prevDist := math.Inf(1)
		for i := 0; i < 200; i++ {
			out = Step(quarterTurnZ, out, DefaultCutoffHz, true, 0.015)
			dist := out.Translation().Sub(quarterTurnZ.Translation()).Norm()
			test.That(t, dist, test.ShouldBeLessThan, prevDist)
			prevDist = dist
		}
		test.That(t, spatialmath.TransformAlmostEqual(out, quarterTurnZ, 1e-6), test.ShouldBeTrue)
	})
}

func TestStepResumesFromPreviousOutput(t *testing.T) {
	// switching off and on again has no memory beyond what is passed in as the previous output
	held := Step(quarterTurnZ, someTransform, DefaultCutoffHz, true, 0.015)
	passed := Step(someTransform, held, DefaultCutoffHz, false, 0.015)
	test.That(t, passed, test.ShouldResemble, someTransform)

	resumed := Step(quarterTurnZ, held, DefaultCutoffHz, true, 0.015)
	test.That(t, resumed, test.ShouldResemble, Step(quarterTurnZ, held, DefaultCutoffHz, true, 0.015))
}
