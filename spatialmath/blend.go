package spatialmath

import "math"

// Blend returns the weighted combination of two transforms. Weights are normalized by their sum,
// the rotation is slerped from a toward b by b's normalized weight, and the translation is
// interpolated linearly. A weight of zero on b returns a's rotation and translation, and an
// infinite weight on exactly one side returns that side.
//
// Both weights must be non-negative with a positive sum. A sum that is zero, negative or NaN is a
// caller error; rather than spreading NaN into the result, a is returned unchanged.
func Blend(a RigidTransform, weightA float64, b RigidTransform, weightB float64) RigidTransform {
	switch {
	case math.IsInf(weightB, 1) && !math.IsInf(weightA, 1):
		return b
	case math.IsInf(weightA, 1):
		return a
	}
	sum := weightA + weightB
	if !(sum > 0) {
		return a
	}
	wA := weightA / sum
	wB := weightB / sum

	q := Slerp(a.Quaternion(), b.Quaternion(), wB)

	return RigidTransform{
		rotation:    *QuaternionToMatrix(q),
		translation: a.translation.Mul(wA).Add(b.translation.Mul(wB)),
	}
}
