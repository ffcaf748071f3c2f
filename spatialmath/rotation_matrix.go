package spatialmath

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/num/quat"
)

// RotationMatrix is a 3x3 matrix in row major order.
// m[3*r + c] is the element in the r'th row and c'th column.
type RotationMatrix struct {
	mat [9]float64
}

// NewRotationMatrix creates the rotation matrix from a slice of 9 values in row major order.
// The matrix is not checked for orthonormality.
func NewRotationMatrix(m []float64) (*RotationMatrix, error) {
	if len(m) != 9 {
		return nil, errors.Errorf("input slice has %d elements, need exactly 9", len(m))
	}
	rm := &RotationMatrix{}
	copy(rm.mat[:], m)
	return rm, nil
}

// NewIdentityRotationMatrix returns the rotation matrix of no rotation.
func NewIdentityRotationMatrix() *RotationMatrix {
	return &RotationMatrix{mat: [9]float64{1, 0, 0, 0, 1, 0, 0, 0, 1}}
}

// At returns the element at row r and column c.
func (rm *RotationMatrix) At(row, col int) float64 {
	return rm.mat[row*3+col]
}

// Row returns the r'th row of the matrix as a vector.
func (rm *RotationMatrix) Row(row int) r3.Vector {
	return r3.Vector{X: rm.At(row, 0), Y: rm.At(row, 1), Z: rm.At(row, 2)}
}

// Col returns the c'th column of the matrix as a vector.
func (rm *RotationMatrix) Col(col int) r3.Vector {
	return r3.Vector{X: rm.At(0, col), Y: rm.At(1, col), Z: rm.At(2, col)}
}

// Quaternion returns the orientation in quaternion representation.
func (rm *RotationMatrix) Quaternion() quat.Number {
	return MatrixToQuaternion(rm)
}

// IsOrthonormal reports whether the columns are unit length and mutually perpendicular and the
// determinant is +1, all within tol. Nothing in this package requires it to hold; conversions of
// a matrix that fails it produce garbage quaternions rather than errors.
func (rm *RotationMatrix) IsOrthonormal(tol float64) bool {
	c0, c1, c2 := rm.Col(0), rm.Col(1), rm.Col(2)
	if math.Abs(c0.Norm()-1) > tol || math.Abs(c1.Norm()-1) > tol || math.Abs(c2.Norm()-1) > tol {
		return false
	}
	if math.Abs(c0.Dot(c1)) > tol || math.Abs(c0.Dot(c2)) > tol || math.Abs(c1.Dot(c2)) > tol {
		return false
	}
	return math.Abs(c0.Cross(c1).Dot(c2)-1) <= tol
}

// RotationMatrixAlmostEqual returns whether every element of the two matrices is within eps.
func RotationMatrixAlmostEqual(a, b *RotationMatrix, eps float64) bool {
	for i := range a.mat {
		if math.Abs(a.mat[i]-b.mat[i]) > eps {
			return false
		}
	}
	return true
}
