package physics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// RayFilter narrows which bodies a raycast may hit.
type RayFilter struct {
	Exclude        Handle
	ExcludeSensors bool
}

// RayHit describes the closest intersection found by Raycast. Toi is the
// distance along the (unit) ray direction; Normal is the surface normal
// at the entry face.
type RayHit struct {
	Body   Handle
	Toi    float64
	Normal mgl64.Vec3
}

// Raycast finds the closest body whose world AABB intersects the ray
// within maxToi. dir must be a unit vector.
func (w *World) Raycast(origin, dir mgl64.Vec3, maxToi float64, filter RayFilter) (RayHit, bool) {
	best := RayHit{Toi: math.Inf(1)}
	found := false
	for _, h := range w.order {
		b := w.bodies[h]
		if !b.hasCollider {
			continue
		}
		if h == filter.Exclude {
			continue
		}
		if filter.ExcludeSensors && b.sensor {
			continue
		}
		half := b.shape.worldHalfExtents(b.rot)
		toi, normal, ok := rayAABB(origin, dir, b.pos, half, maxToi)
		if ok && toi < best.Toi {
			best = RayHit{Body: h, Toi: toi, Normal: normal}
			found = true
		}
	}
	return best, found
}

// rayAABB is the slab intersection test against an axis-aligned box.
func rayAABB(origin, dir, center, half mgl64.Vec3, maxToi float64) (float64, mgl64.Vec3, bool) {
	tmin := 0.0
	tmax := maxToi
	entryAxis := -1
	entrySign := 0.0

	for i := 0; i < 3; i++ {
		lo := center[i] - half[i]
		hi := center[i] + half[i]
		if math.Abs(dir[i]) < 1e-12 {
			if origin[i] < lo || origin[i] > hi {
				return 0, mgl64.Vec3{}, false
			}
			continue
		}
		inv := 1 / dir[i]
		t1 := (lo - origin[i]) * inv
		t2 := (hi - origin[i]) * inv
		sign := -1.0
		if t1 > t2 {
			t1, t2 = t2, t1
			sign = 1.0
		}
		if t1 > tmin {
			tmin = t1
			entryAxis = i
			entrySign = sign
		}
		if t2 < tmax {
			tmax = t2
		}
		if tmin > tmax {
			return 0, mgl64.Vec3{}, false
		}
	}

	var normal mgl64.Vec3
	if entryAxis >= 0 {
		normal[entryAxis] = entrySign
	} else {
		// Ray started inside the box.
		normal = mgl64.Vec3{0, 1, 0}
	}
	return tmin, normal, true
}
