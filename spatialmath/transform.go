package spatialmath

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/num/quat"
)

// RigidTransform is a rotation followed by a translation, with no scaling or shear. It is a value
// type and safe to copy. The zero value has an all-zero rotation block and is not a valid
// transform; use NewZeroTransform for the identity.
type RigidTransform struct {
	rotation    RotationMatrix
	translation r3.Vector
}

// NewZeroTransform returns the identity transform.
func NewZeroTransform() RigidTransform {
	return RigidTransform{rotation: *NewIdentityRotationMatrix()}
}

// NewRigidTransform builds a transform from a rotation and a translation. A nil rotation is the identity.
func NewRigidTransform(rotation *RotationMatrix, translation r3.Vector) RigidTransform {
	if rotation == nil {
		rotation = NewIdentityRotationMatrix()
	}
	return RigidTransform{rotation: *rotation, translation: translation}
}

// NewRigidTransformFromQuat builds a transform from a rotation quaternion and a translation.
func NewRigidTransformFromQuat(q quat.Number, translation r3.Vector) RigidTransform {
	return RigidTransform{rotation: *QuaternionToMatrix(q), translation: translation}
}

// NewRigidTransformFromMatrix decomposes a 4x4 homogeneous matrix into its rotation block and
// translation column. The fourth row is ignored and the rotation block is taken as is.
func NewRigidTransformFromMatrix(m mgl64.Mat4) RigidTransform {
	var rt RigidTransform
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			rt.rotation.mat[r*3+c] = m.At(r, c)
		}
	}
	rt.translation = r3.Vector{X: m.At(0, 3), Y: m.At(1, 3), Z: m.At(2, 3)}
	return rt
}

// Rotation returns a copy of the rotation block.
func (rt RigidTransform) Rotation() *RotationMatrix {
	rm := rt.rotation
	return &rm
}

// Translation returns the translation column.
func (rt RigidTransform) Translation() r3.Vector {
	return rt.translation
}

// Quaternion returns the rotation block as a unit quaternion.
func (rt RigidTransform) Quaternion() quat.Number {
	return MatrixToQuaternion(&rt.rotation)
}

// Matrix returns the homogeneous 4x4 form. The fourth row is always (0, 0, 0, 1).
func (rt RigidTransform) Matrix() mgl64.Mat4 {
	m := mgl64.Ident4()
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			m.Set(r, c, rt.rotation.At(r, c))
		}
	}
	m.Set(0, 3, rt.translation.X)
	m.Set(1, 3, rt.translation.Y)
	m.Set(2, 3, rt.translation.Z)
	return m
}

// String returns a compact, human readable form: the translation followed by the rotation as an axis angle in degrees.
func (rt RigidTransform) String() string {
	aa := QuatToR4AA(rt.Quaternion())
	return fmt.Sprintf("{X:%.3f Y:%.3f Z:%.3f Theta:%.3fdeg Axis:(%.3f, %.3f, %.3f)}",
		rt.translation.X, rt.translation.Y, rt.translation.Z,
		aa.Theta*180/math.Pi, aa.RX, aa.RY, aa.RZ)
}

// TransformAlmostEqual returns whether two transforms have every rotation element and every
// translation component within eps of each other.
func TransformAlmostEqual(a, b RigidTransform, eps float64) bool {
	if !RotationMatrixAlmostEqual(&a.rotation, &b.rotation, eps) {
		return false
	}
	d := a.translation.Sub(b.translation)
	return math.Abs(d.X) <= eps && math.Abs(d.Y) <= eps && math.Abs(d.Z) <= eps
}

type transformJSON struct {
	Matrix []float64 `json:"matrix"`
}

// RowMajor returns the 4x4 homogeneous matrix as 16 values in row major order.
func (rt RigidTransform) RowMajor() []float64 {
	m := rt.Matrix()
	rows := make([]float64, 0, 16)
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			rows = append(rows, m.At(r, c))
		}
	}
	return rows
}

// NewRigidTransformFromRowMajor is the inverse of RowMajor.
func NewRigidTransformFromRowMajor(rows []float64) (RigidTransform, error) {
	if len(rows) != 16 {
		return RigidTransform{}, errors.Errorf("transform matrix has %d elements, need exactly 16", len(rows))
	}
	var m mgl64.Mat4
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			m.Set(r, c, rows[r*4+c])
		}
	}
	return NewRigidTransformFromMatrix(m), nil
}

// MarshalJSON encodes the transform as {"matrix": RowMajor()}.
func (rt RigidTransform) MarshalJSON() ([]byte, error) {
	return json.Marshal(transformJSON{Matrix: rt.RowMajor()})
}

// UnmarshalJSON decodes a transform written by MarshalJSON.
func (rt *RigidTransform) UnmarshalJSON(data []byte) error {
	var tj transformJSON
	if err := json.Unmarshal(data, &tj); err != nil {
		return err
	}
	decoded, err := NewRigidTransformFromRowMajor(tj.Matrix)
	if err != nil {
		return err
	}
	*rt = decoded
	return nil
}
