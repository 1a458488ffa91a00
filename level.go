package server

import (
	"github.com/go-gl/mathgl/mgl64"

	"skyjack/server/internal/physics"
)

const levelObstacleCount = 10

var obstacleColors = []string{
	"#8d6e63", "#78909c", "#a1887f", "#90a4ae", "#6d4c41",
}

// buildLevel creates the fixed geometry: the ground slab plus a set of
// randomly placed cubes, and records the cubes as level objects for the
// INIT payload. The ground is implicit and not listed.
func (w *World) buildLevel() {
	ground := w.phys.CreateBody(physics.BodyDesc{
		Type:     physics.BodyFixed,
		Position: mgl64.Vec3{0, -0.5, 0},
	})
	w.phys.AttachCollider(ground, physics.ColliderDesc{
		Shape:    physics.Cuboid(50, 0.5, 50),
		Density:  1,
		Friction: 0.8,
	})

	w.level = make([]LevelObject, 0, levelObstacleCount)
	for i := 0; i < levelObstacleCount; i++ {
		pos := mgl64.Vec3{
			-40 + w.rng.Float64()*80,
			1,
			-40 + w.rng.Float64()*80,
		}

		body := w.phys.CreateBody(physics.BodyDesc{
			Type:     physics.BodyFixed,
			Position: pos,
		})
		w.phys.AttachCollider(body, physics.ColliderDesc{
			Shape:    physics.Cuboid(1, 1, 1),
			Density:  1,
			Friction: 0.8,
		})

		w.level = append(w.level, LevelObject{
			Position: vec3From(pos),
			Size:     Vec3{2, 2, 2},
			Color:    obstacleColors[i%len(obstacleColors)],
		})
	}
}

// seedEntities places the world's vehicles and carriables at their
// fixed pads. One ghost is deliberately heavier than the carry limit.
func (w *World) seedEntities() {
	// Pads sit on the margin lane outside the random-cube region so
	// level generation can never bury them.
	w.spawnVehicle(VehicleCar, mgl64.Vec3{45, 1, 10})
	w.spawnVehicle(VehicleHelicopter, mgl64.Vec3{45, 1.5, -10})
	w.spawnVehicle(VehiclePlane, mgl64.Vec3{45, 1, -30})

	w.spawnGhost(GhostShape{Type: GhostShapeBox, Width: 1, Height: 1, Depth: 1}, 10, "#ef5350", mgl64.Vec3{-45, 0.5, 4})
	w.spawnGhost(GhostShape{Type: GhostShapeBox, Width: 1.5, Height: 0.8, Depth: 1}, 20, "#ab47bc", mgl64.Vec3{-45, 0.4, 8})
	w.spawnGhost(GhostShape{Type: GhostShapeSphere, Radius: 0.6}, 8, "#42a5f5", mgl64.Vec3{-45, 0.6, -4})
	w.spawnGhost(GhostShape{Type: GhostShapeSphere, Radius: 0.4}, 4, "#26a69a", mgl64.Vec3{-45, 0.4, -8})
	w.spawnGhost(GhostShape{Type: GhostShapeCylinder, Radius: 0.5, Height: 1.2}, 15, "#ffa726", mgl64.Vec3{-45, 0.6, 12})
	w.spawnGhost(GhostShape{Type: GhostShapeBox, Width: 2, Height: 2, Depth: 2}, 80, "#5d4037", mgl64.Vec3{-45, 1, -14})
}
