package physics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// ShapeKind identifies the collider geometry attached to a body.
type ShapeKind uint8

const (
	ShapeCuboid ShapeKind = iota
	ShapeBall
	ShapeCapsule
	ShapeCylinder
)

// Shape describes collider geometry. Capsules and cylinders are aligned
// with the body's local Y axis; HalfHeight covers the cylindrical section
// only, so a capsule's full half-extent along Y is HalfHeight + Radius.
type Shape struct {
	Kind        ShapeKind
	HalfExtents mgl64.Vec3
	Radius      float64
	HalfHeight  float64
}

// Cuboid returns a box shape with the given half-extents.
func Cuboid(hx, hy, hz float64) Shape {
	return Shape{Kind: ShapeCuboid, HalfExtents: mgl64.Vec3{hx, hy, hz}}
}

// Ball returns a sphere shape with the given radius.
func Ball(radius float64) Shape {
	return Shape{Kind: ShapeBall, Radius: radius}
}

// CapsuleY returns a capsule aligned with local Y.
func CapsuleY(halfHeight, radius float64) Shape {
	return Shape{Kind: ShapeCapsule, HalfHeight: halfHeight, Radius: radius}
}

// CylinderY returns a cylinder aligned with local Y.
func CylinderY(halfHeight, radius float64) Shape {
	return Shape{Kind: ShapeCylinder, HalfHeight: halfHeight, Radius: radius}
}

func (s Shape) volume() float64 {
	switch s.Kind {
	case ShapeCuboid:
		return 8 * s.HalfExtents[0] * s.HalfExtents[1] * s.HalfExtents[2]
	case ShapeBall:
		return 4.0 / 3.0 * math.Pi * s.Radius * s.Radius * s.Radius
	case ShapeCapsule:
		cyl := math.Pi * s.Radius * s.Radius * 2 * s.HalfHeight
		cap := 4.0 / 3.0 * math.Pi * s.Radius * s.Radius * s.Radius
		return cyl + cap
	case ShapeCylinder:
		return math.Pi * s.Radius * s.Radius * 2 * s.HalfHeight
	}
	return 0
}

// worldHalfExtents returns the half-extents of the shape's world-space
// AABB under the given rotation.
func (s Shape) worldHalfExtents(rot mgl64.Quat) mgl64.Vec3 {
	switch s.Kind {
	case ShapeBall:
		return mgl64.Vec3{s.Radius, s.Radius, s.Radius}
	case ShapeCapsule, ShapeCylinder:
		axis := rot.Rotate(mgl64.Vec3{0, s.HalfHeight, 0})
		return mgl64.Vec3{
			math.Abs(axis[0]) + s.Radius,
			math.Abs(axis[1]) + s.Radius,
			math.Abs(axis[2]) + s.Radius,
		}
	default:
		ax := rot.Rotate(mgl64.Vec3{s.HalfExtents[0], 0, 0})
		ay := rot.Rotate(mgl64.Vec3{0, s.HalfExtents[1], 0})
		az := rot.Rotate(mgl64.Vec3{0, 0, s.HalfExtents[2]})
		return mgl64.Vec3{
			math.Abs(ax[0]) + math.Abs(ay[0]) + math.Abs(az[0]),
			math.Abs(ax[1]) + math.Abs(ay[1]) + math.Abs(az[1]),
			math.Abs(ax[2]) + math.Abs(ay[2]) + math.Abs(az[2]),
		}
	}
}

func (s Shape) boundingRadius() float64 {
	switch s.Kind {
	case ShapeBall:
		return s.Radius
	case ShapeCapsule, ShapeCylinder:
		return s.HalfHeight + s.Radius
	default:
		return s.HalfExtents.Len()
	}
}
