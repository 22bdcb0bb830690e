// SPDX-License-Identifier: MIT

package cinematic

import "math"

// Vec3 is a 3-component vector. The host coordinate system is Z-up.
type Vec3 [3]float64

// Add returns v + o.
func (v Vec3) Add(o Vec3) Vec3 {
	return Vec3{v[0] + o[0], v[1] + o[1], v[2] + o[2]}
}

// Sub returns v - o.
func (v Vec3) Sub(o Vec3) Vec3 {
	return Vec3{v[0] - o[0], v[1] - o[1], v[2] - o[2]}
}

// Scale returns v * s.
func (v Vec3) Scale(s float64) Vec3 {
	return Vec3{v[0] * s, v[1] * s, v[2] * s}
}

// Dot returns the dot product.
func (v Vec3) Dot(o Vec3) float64 {
	return v[0]*o[0] + v[1]*o[1] + v[2]*o[2]
}

// Cross returns the cross product v × o.
func (v Vec3) Cross(o Vec3) Vec3 {
	return Vec3{
		v[1]*o[2] - v[2]*o[1],
		v[2]*o[0] - v[0]*o[2],
		v[0]*o[1] - v[1]*o[0],
	}
}

// Length returns the Euclidean norm.
func (v Vec3) Length() float64 {
	return math.Sqrt(v.Dot(v))
}

// Normalized returns v scaled to unit length, or the zero vector.
func (v Vec3) Normalized() Vec3 {
	l := v.Length()
	if l == 0 {
		return Vec3{}
	}
	return v.Scale(1 / l)
}

// Lerp interpolates between v and o at t.
func Lerp(v, o Vec3, t float64) Vec3 {
	return Vec3{
		v[0] + (o[0]-v[0])*t,
		v[1] + (o[1]-v[1])*t,
		v[2] + (o[2]-v[2])*t,
	}
}

// Distance returns the Euclidean distance between two points.
func Distance(a, b Vec3) float64 {
	return b.Sub(a).Length()
}

// Midpoint returns the point halfway between a and b.
func Midpoint(a, b Vec3) Vec3 {
	return Lerp(a, b, 0.5)
}

// zUp is the host world up axis.
var zUp = Vec3{0, 0, 1}

// RotationToTarget converts camera Euler angles [pitch, yaw, roll] in degrees
// to a look-at target: the local forward vector (0, 0, -1) rotated by
// Rz(yaw)·Ry(pitch)·Rx(roll) and offset from position by distance.
func RotationToTarget(position Vec3, rotation Vec3, distance float64) Vec3 {
	pitch := rotation[0] * math.Pi / 180
	yaw := rotation[1] * math.Pi / 180
	roll := rotation[2] * math.Pi / 180

	forward := Vec3{0, 0, -1}
	forward = rotateX(forward, roll)
	forward = rotateY(forward, pitch)
	forward = rotateZ(forward, yaw)

	return position.Add(forward.Normalized().Scale(distance))
}

func rotateX(v Vec3, a float64) Vec3 {
	s, c := math.Sin(a), math.Cos(a)
	return Vec3{v[0], v[1]*c - v[2]*s, v[1]*s + v[2]*c}
}

func rotateY(v Vec3, a float64) Vec3 {
	s, c := math.Sin(a), math.Cos(a)
	return Vec3{v[0]*c + v[2]*s, v[1], -v[0]*s + v[2]*c}
}

func rotateZ(v Vec3, a float64) Vec3 {
	s, c := math.Sin(a), math.Cos(a)
	return Vec3{v[0]*c - v[1]*s, v[0]*s + v[1]*c, v[2]}
}
