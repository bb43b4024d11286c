// Package types contains shared value types used across the showroom packages
package types

import (
	"fmt"
	"math"
)

// Vector3 is a position, direction or scale in scene space
type Vector3 struct {
	X float64 `json:"x" yaml:"x" toml:"x"`
	Y float64 `json:"y" yaml:"y" toml:"y"`
	Z float64 `json:"z" yaml:"z" toml:"z"`
}

// Vec3 is shorthand for constructing a Vector3
func Vec3(x, y, z float64) Vector3 {
	return Vector3{X: x, Y: y, Z: z}
}

// One is the identity scale
var One = Vector3{X: 1, Y: 1, Z: 1}

// Add returns v + o
func (v Vector3) Add(o Vector3) Vector3 {
	return Vector3{X: v.X + o.X, Y: v.Y + o.Y, Z: v.Z + o.Z}
}

// Sub returns v - o
func (v Vector3) Sub(o Vector3) Vector3 {
	return Vector3{X: v.X - o.X, Y: v.Y - o.Y, Z: v.Z - o.Z}
}

// Scale returns v * s
func (v Vector3) Scale(s float64) Vector3 {
	return Vector3{X: v.X * s, Y: v.Y * s, Z: v.Z * s}
}

// Length returns the euclidean length of v
func (v Vector3) Length() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// Lerp interpolates from v towards o by t in [0,1]
func (v Vector3) Lerp(o Vector3, t float64) Vector3 {
	if t <= 0 {
		return v
	}
	if t >= 1 {
		return o
	}
	return v.Add(o.Sub(v).Scale(t))
}

// String implements fmt.Stringer
func (v Vector3) String() string {
	return fmt.Sprintf("(%g, %g, %g)", v.X, v.Y, v.Z)
}

// Quaternion is a unit rotation
type Quaternion struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
	Z float64 `json:"z" yaml:"z"`
	W float64 `json:"w" yaml:"w"`
}

// IdentityQuaternion is the zero rotation
var IdentityQuaternion = Quaternion{W: 1}

// QuaternionFromEuler builds a rotation from Euler angles in radians applied in
// YXZ order, the convention the host camera pose uses.
func QuaternionFromEuler(x, y, z float64) Quaternion {
	c1, s1 := math.Cos(x/2), math.Sin(x/2)
	c2, s2 := math.Cos(y/2), math.Sin(y/2)
	c3, s3 := math.Cos(z/2), math.Sin(z/2)

	return Quaternion{
		X: s1*c2*c3 + c1*s2*s3,
		Y: c1*s2*c3 - s1*c2*s3,
		Z: c1*c2*s3 - s1*s2*c3,
		W: c1*c2*c3 + s1*s2*s3,
	}
}

// QuaternionFromEulerDegrees is QuaternionFromEuler with angles in degrees
func QuaternionFromEulerDegrees(v Vector3) Quaternion {
	return QuaternionFromEuler(v.X*math.Pi/180, v.Y*math.Pi/180, v.Z*math.Pi/180)
}

// Pose is a camera position, orientation and projection.
// Projection is stored column-major.
type Pose struct {
	Position   Vector3     `json:"position" yaml:"position"`
	Rotation   Quaternion  `json:"rotation" yaml:"rotation"`
	Projection [16]float64 `json:"projection" yaml:"projection"`
}

// TransposeMatrix converts a row-major 4x4 matrix to column-major and back
func TransposeMatrix(m [16]float64) [16]float64 {
	var out [16]float64
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			out[c*4+r] = m[r*4+c]
		}
	}
	return out
}
