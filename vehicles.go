package server

import (
	"github.com/go-gl/mathgl/mgl64"

	"skyjack/server/internal/physics"
)

// vehicleState is the authoritative record for one vehicle. Vehicles
// are created at world init and never destroyed.
type vehicleState struct {
	id  string
	typ string
	pos mgl64.Vec3
	rot mgl64.Quat
	vel mgl64.Vec3

	driverID string
	engineOn bool
	throttle float64
}

func (v *vehicleState) snapshot() VehicleSnapshot {
	return VehicleSnapshot{
		ID:       v.id,
		Type:     v.typ,
		Position: vec3From(v.pos),
		Rotation: quatFrom(v.rot),
		Velocity: vec3From(v.vel),
		Driver:   v.driverID,
		EngineOn: v.engineOn,
		Throttle: v.throttle,
	}
}

type vehicleTuning struct {
	halfExtents    mgl64.Vec3
	mass           float64
	linearDamping  float64
	angularDamping float64
}

// Per-type body tuning. Damping values drive the handling feel of each
// input model in input.go.
func tuningForVehicle(typ string) vehicleTuning {
	switch typ {
	case VehicleHelicopter:
		return vehicleTuning{
			halfExtents:    mgl64.Vec3{1, 1, 2.5},
			mass:           10,
			linearDamping:  1.0,
			angularDamping: 1.5,
		}
	case VehiclePlane:
		return vehicleTuning{
			halfExtents:    mgl64.Vec3{1.5, 0.5, 3},
			mass:           12,
			linearDamping:  0.5,
			angularDamping: 1.0,
		}
	default: // car
		return vehicleTuning{
			halfExtents:    mgl64.Vec3{1, 0.5, 2},
			mass:           8,
			linearDamping:  2.0,
			angularDamping: 2.0,
		}
	}
}

func (w *World) spawnVehicle(typ string, pos mgl64.Vec3) *vehicleState {
	tuning := tuningForVehicle(typ)

	body := w.phys.CreateBody(physics.BodyDesc{
		Type:           physics.BodyDynamic,
		Position:       pos,
		LinearDamping:  tuning.linearDamping,
		AngularDamping: tuning.angularDamping,
		Mass:           tuning.mass,
	})
	w.phys.AttachCollider(body, physics.ColliderDesc{
		Shape:       physics.Cuboid(tuning.halfExtents[0], tuning.halfExtents[1], tuning.halfExtents[2]),
		Density:     1,
		Friction:    0.7,
		Restitution: 0.1,
	})

	v := &vehicleState{
		id:  w.nextVehicleID(),
		typ: typ,
		pos: pos,
		rot: mgl64.QuatIdent(),
	}
	w.vehicles[v.id] = v
	w.vehicleBodies[v.id] = body
	return v
}
