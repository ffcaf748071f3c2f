package spatialmath

import (
	"math"
	"math/rand"
	"testing"

	"go.viam.com/test"
	"gonum.org/v1/gonum/num/quat"
)

// represent a 45 degree rotation around the x axis
var (
	th   = math.Pi / 4.
	q45x = quat.Number{Real: math.Cos(th / 2.), Imag: math.Sin(th / 2.)}
)

func randomUnitQuat(rnd *rand.Rand) quat.Number {
	for {
		q := quat.Number{Real: rnd.NormFloat64(), Imag: rnd.NormFloat64(), Jmag: rnd.NormFloat64(), Kmag: rnd.NormFloat64()}
		if n := quat.Abs(q); n > 1e-3 {
			return quat.Scale(1/n, q)
		}
	}
}

func TestMatrixToQuaternion(t *testing.T) {
	rm, err := NewRotationMatrix([]float64{
		0, -1, 0,
		1, 0, 0,
		0, 0, 1,
	})
	test.That(t, err, test.ShouldBeNil)
	q := MatrixToQuaternion(rm)
	test.That(t, q.Real, test.ShouldAlmostEqual, math.Sqrt2/2)
	test.That(t, q.Imag, test.ShouldAlmostEqual, 0)
	test.That(t, q.Jmag, test.ShouldAlmostEqual, 0)
	test.That(t, q.Kmag, test.ShouldAlmostEqual, math.Sqrt2/2)

	q = MatrixToQuaternion(NewIdentityRotationMatrix())
	test.That(t, q, test.ShouldResemble, quat.Number{Real: 1})

	t.Run("half turns use the diagonal branches", func(t *testing.T) {
		for _, axis := range []*R4AA{
			{Theta: math.Pi, RX: 1},
			{Theta: math.Pi, RY: 1},
			{Theta: math.Pi, RZ: 1},
			{Theta: math.Pi, RX: 1, RY: 1, RZ: 1},
		} {
			want := axis.ToQuat()
			got := MatrixToQuaternion(QuaternionToMatrix(want))
			test.That(t, OrientationAlmostEqual(got, want, 1e-9), test.ShouldBeTrue)
			test.That(t, quat.Abs(got), test.ShouldAlmostEqual, 1)
		}
	})
}

func TestQuaternionMatrixRoundTrip(t *testing.T) {
	rnd := rand.New(rand.NewSource(1))
	for i := 0; i < 1000; i++ {
		q := randomUnitQuat(rnd)
		rm := QuaternionToMatrix(q)
		test.That(t, rm.IsOrthonormal(1e-9), test.ShouldBeTrue)
		got := MatrixToQuaternion(rm)
		test.That(t, OrientationAlmostEqual(got, q, 1e-9), test.ShouldBeTrue)
	}
}

func TestQuaternionToMatrixNormalizes(t *testing.T) {
	q := (&R4AA{Theta: 1.2, RX: 0.3, RY: -0.4, RZ: 0.5}).ToQuat()
	unit := QuaternionToMatrix(q)
	scaled := QuaternionToMatrix(quat.Scale(1.01, q))
	test.That(t, RotationMatrixAlmostEqual(unit, scaled, 1e-12), test.ShouldBeTrue)

	test.That(t, QuaternionToMatrix(quat.Number{}), test.ShouldResemble, NewIdentityRotationMatrix())
}

func TestSlerp(t *testing.T) {
	q1 := q45x
	q2 := quat.Conj(q45x)
	s1 := Slerp(q1, q2, 0.25)
	s2 := Slerp(q1, q2, 0.5)

	expect1 := quat.Number{Real: 0.9808, Imag: 0.1951}
	expect2 := quat.Number{Real: 1}

	test.That(t, s1.Real, test.ShouldAlmostEqual, expect1.Real, 0.001)
	test.That(t, s1.Imag, test.ShouldAlmostEqual, expect1.Imag, 0.001)
	test.That(t, s1.Jmag, test.ShouldAlmostEqual, expect1.Jmag, 0.001)
	test.That(t, s1.Kmag, test.ShouldAlmostEqual, expect1.Kmag, 0.001)
	test.That(t, s2.Real, test.ShouldAlmostEqual, expect2.Real)
	test.That(t, s2.Imag, test.ShouldAlmostEqual, expect2.Imag)
	test.That(t, s2.Jmag, test.ShouldAlmostEqual, expect2.Jmag)
	test.That(t, s2.Kmag, test.ShouldAlmostEqual, expect2.Kmag)
}

func TestSlerpEndpoints(t *testing.T) {
	rnd := rand.New(rand.NewSource(2))
	for i := 0; i < 200; i++ {
		a := randomUnitQuat(rnd)
		b := randomUnitQuat(rnd)

		test.That(t, QuaternionAlmostEqual(Slerp(a, b, 0), a, 1e-9), test.ShouldBeTrue)
		test.That(t, QuaternionAlmostEqual(SlerpWithSign(a, b, 0, false), a, 1e-9), test.ShouldBeTrue)
		test.That(t, QuaternionAlmostEqual(SlerpWithSign(a, b, 1, false), b, 1e-9), test.ShouldBeTrue)

		// with the sign adjusted the far end is b or its antipode, which is the same rotation
		end := Slerp(a, b, 1)
		if quat.Mul(quat.Conj(a), b).Real >= 0 {
			test.That(t, QuaternionAlmostEqual(end, b, 1e-9), test.ShouldBeTrue)
		} else {
			test.That(t, QuaternionAlmostEqual(end, Flip(b), 1e-9), test.ShouldBeTrue)
		}
	}
}

func TestSlerpUnitNorm(t *testing.T) {
	rnd := rand.New(rand.NewSource(3))
	for i := 0; i < 200; i++ {
		a := randomUnitQuat(rnd)
		b := randomUnitQuat(rnd)
		for _, tt := range []float64{0.1, 0.25, 0.5, 0.75, 0.9} {
			test.That(t, quat.Abs(Slerp(a, b, tt)), test.ShouldAlmostEqual, 1, 1e-6)
		}
	}
}

func TestSlerpConstantAngularVelocity(t *testing.T) {
	from := quat.Number{Real: 1}
	to := (&R4AA{Theta: math.Pi / 2, RZ: 1}).ToQuat()
	for _, tt := range []float64{0.1, 0.3, 0.6} {
		aa := QuatToR4AA(Slerp(from, to, tt))
		test.That(t, aa.Theta, test.ShouldAlmostEqual, tt*math.Pi/2, 1e-9)
		test.That(t, aa.RZ, test.ShouldAlmostEqual, 1, 1e-9)
	}
}

func TestSlerpSignAdjustment(t *testing.T) {
	a := (&R4AA{Theta: 0.7, RX: 1, RY: 2, RZ: 0.5}).ToQuat()
	nudge := (&R4AA{Theta: 0.05, RX: 0, RY: 0, RZ: 1}).ToQuat()
	// b is the same rotation as a nudged by 0.05 radians, but in the opposite hemisphere
	b := Flip(quat.Mul(nudge, a))

	short := Slerp(a, b, 0.5)
	long := SlerpWithSign(a, b, 0.5, false)

	test.That(t, AngleBetween(a, short), test.ShouldAlmostEqual, 0.025, 1e-6)
	test.That(t, AngleBetween(a, long), test.ShouldBeGreaterThan, math.Pi/2)
	test.That(t, AngleBetween(a, long), test.ShouldBeGreaterThan, AngleBetween(a, short))
}

func TestSlerpNearlyParallel(t *testing.T) {
	a := quat.Number{Real: 1}
	b := (&R4AA{Theta: 1e-3, RZ: 1}).ToQuat()
	// 1 - cos(theta/2) is well under the cutoff so the blend is linear
	got := Slerp(a, b, 0.5)
	want := quat.Add(quat.Scale(0.5, a), quat.Scale(0.5, b))
	test.That(t, got, test.ShouldResemble, want)

	same := Slerp(a, a, 0.3)
	test.That(t, QuaternionAlmostEqual(same, a, 1e-15), test.ShouldBeTrue)
}

func TestSlerpInPlace(t *testing.T) {
	a := q45x
	b := quat.Conj(q45x)
	want := Slerp(a, b, 0.4)

	a = Slerp(a, b, 0.4)
	test.That(t, a, test.ShouldResemble, want)

	b = Slerp(q45x, b, 0.4)
	test.That(t, b, test.ShouldResemble, want)
}

func TestQuatToR4AA(t *testing.T) {
	aa := QuatToR4AA(q45x)
	test.That(t, aa.Theta, test.ShouldAlmostEqual, th)
	test.That(t, aa.RX, test.ShouldAlmostEqual, 1)
	test.That(t, aa.RY, test.ShouldAlmostEqual, 0)
	test.That(t, aa.RZ, test.ShouldAlmostEqual, 0)

	aa = QuatToR4AA(quat.Number{Real: 1})
	test.That(t, aa, test.ShouldResemble, R4AA{0, 1, 0, 0})
}
