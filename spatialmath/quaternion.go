// Package spatialmath defines spatial mathematical operations on rigid transforms.
package spatialmath

import (
	"math"

	"gonum.org/v1/gonum/num/quat"
)

// Below this distance from 1 the cosine between two quaternions is treated as parallel and
// slerp falls back to a linear blend, since sin(theta) is too close to zero to divide by.
const slerpEpsilon = 1e-4

// MatrixToQuaternion converts a rotation matrix to a unit quaternion, with Real holding w and
// Imag, Jmag, Kmag holding x, y, z. The matrix is assumed to be orthonormal; if it is not the
// result is not meaningful, but no error is signaled.
// See: https://www.euclideanspace.com/maths/geometry/rotations/conversions/matrixToQuaternion/
func MatrixToQuaternion(rm *RotationMatrix) quat.Number {
	m00, m01, m02 := rm.At(0, 0), rm.At(0, 1), rm.At(0, 2)
	m10, m11, m12 := rm.At(1, 0), rm.At(1, 1), rm.At(1, 2)
	m20, m21, m22 := rm.At(2, 0), rm.At(2, 1), rm.At(2, 2)

	var q quat.Number
	// pick the largest of w, x, y, z to divide by
	tr := m00 + m11 + m22
	switch {
	case tr > 0:
		s := math.Sqrt(tr+1) * 2
		q = quat.Number{Real: 0.25 * s, Imag: (m21 - m12) / s, Jmag: (m02 - m20) / s, Kmag: (m10 - m01) / s}
	case m00 > m11 && m00 > m22:
		s := math.Sqrt(1+m00-m11-m22) * 2
		q = quat.Number{Real: (m21 - m12) / s, Imag: 0.25 * s, Jmag: (m01 + m10) / s, Kmag: (m02 + m20) / s}
	case m11 > m22:
		s := math.Sqrt(1+m11-m00-m22) * 2
		q = quat.Number{Real: (m02 - m20) / s, Imag: (m01 + m10) / s, Jmag: 0.25 * s, Kmag: (m12 + m21) / s}
	default:
		s := math.Sqrt(1+m22-m00-m11) * 2
		q = quat.Number{Real: (m10 - m01) / s, Imag: (m02 + m20) / s, Jmag: (m12 + m21) / s, Kmag: 0.25 * s}
	}

	if n := quat.Abs(q); n > 0 {
		q = quat.Scale(1/n, q)
	}
	return q
}

// QuaternionToMatrix converts a quaternion to a rotation matrix. A quaternion that is not quite
// unit length, such as the output of Slerp, is normalized as part of the conversion. The zero
// quaternion maps to the identity.
func QuaternionToMatrix(q quat.Number) *RotationMatrix {
	w, x, y, z := q.Real, q.Imag, q.Jmag, q.Kmag
	n := w*w + x*x + y*y + z*z
	if n == 0 {
		return NewIdentityRotationMatrix()
	}
	s := 2 / n

	return &RotationMatrix{mat: [9]float64{
		1 - s*(y*y+z*z), s * (x*y - w*z), s * (x*z + w*y),
		s * (x*y + w*z), 1 - s*(x*x+z*z), s * (y*z - w*x),
		s * (x*z - w*y), s * (y*z + w*x), 1 - s*(x*x+y*y),
	}}
}

// Slerp spherically interpolates between two rotations along the shorter of the two great
// circle arcs. t=0 returns from and t=1 returns to, or its negation when the arc was flipped.
func Slerp(from, to quat.Number, t float64) quat.Number {
	return SlerpWithSign(from, to, t, true)
}

// SlerpWithSign is Slerp with control over the sign adjustment. With adjustSign false a pair of
// quaternions with a negative dot product is interpolated the long way around, which is rarely
// what a caller wants for orientations since q and -q describe the same rotation.
// The result is not renormalized.
func SlerpWithSign(from, to quat.Number, t float64, adjustSign bool) quat.Number {
	cosom := from.Real*to.Real + from.Imag*to.Imag + from.Jmag*to.Jmag + from.Kmag*to.Kmag

	if adjustSign && cosom < 0 {
		cosom = -cosom
		to = Flip(to)
	}

	var sclp, sclq float64
	if 1-cosom > slerpEpsilon {
		omega := math.Acos(cosom)
		sinom := math.Sin(omega)
		sclp = math.Sin((1-t)*omega) / sinom
		sclq = math.Sin(t*omega) / sinom
	} else {
		sclp = 1 - t
		sclq = t
	}

	return quat.Add(quat.Scale(sclp, from), quat.Scale(sclq, to))
}

// QuaternionAlmostEqual is an equality test for all the float components of a quaternion. Quaternions have double coverage, q == -q, and
// this function will *not* account for this. Use OrientationAlmostEqual unless you're certain this is what you want.
func QuaternionAlmostEqual(a, b quat.Number, tol float64) bool {
	return math.Abs(a.Real-b.Real) < tol &&
		math.Abs(a.Imag-b.Imag) < tol &&
		math.Abs(a.Jmag-b.Jmag) < tol &&
		math.Abs(a.Kmag-b.Kmag) < tol
}

// OrientationAlmostEqual returns whether two quaternions describe approximately the same rotation,
// accounting for q and -q being the same rotation.
func OrientationAlmostEqual(a, b quat.Number, tol float64) bool {
	return QuaternionAlmostEqual(a, b, tol) || QuaternionAlmostEqual(a, Flip(b), tol)
}

// QuatNorm returns the norm of the imaginary part of the quaternion, i.e. sin(theta/2) for a unit rotation quaternion.
func QuatNorm(q quat.Number) float64 {
	return math.Sqrt(q.Imag*q.Imag + q.Jmag*q.Jmag + q.Kmag*q.Kmag)
}

// Flip will multiply a quaternion by -1, returning a quaternion representing the same orientation but in the opposing octant.
func Flip(q quat.Number) quat.Number {
	return quat.Number{Real: -q.Real, Imag: -q.Imag, Jmag: -q.Jmag, Kmag: -q.Kmag}
}

// AngleBetween returns the angle in radians of the rotation taking a to b. Neither input needs
// to be exactly unit length.
func AngleBetween(a, b quat.Number) float64 {
	na, nb := quat.Abs(a), quat.Abs(b)
	if na == 0 || nb == 0 {
		return 0
	}
	dot := math.Abs(a.Real*b.Real+a.Imag*b.Imag+a.Jmag*b.Jmag+a.Kmag*b.Kmag) / (na * nb)
	if dot > 1 {
		dot = 1
	}
	return 2 * math.Acos(dot)
}
