package server

import (
	"math"
	"sort"

	"github.com/go-gl/mathgl/mgl64"

	"skyjack/server/internal/physics"
)

// resolveInputs maps every player's latest intent onto their body,
// dispatched by control context. It runs once per tick, before the
// physics step, so grounded state from the previous tick gates the
// on-foot rules.
func (w *World) resolveInputs() {
	ids := make([]string, 0, len(w.players))
	for id := range w.players {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		p := w.players[id]
		if p.vehicleID != "" {
			v, ok := w.vehicles[p.vehicleID]
			if !ok {
				continue
			}
			body, ok := w.vehicleBodies[v.id]
			if !ok {
				continue
			}
			switch v.typ {
			case VehicleHelicopter:
				w.driveHelicopter(p, v, body)
			case VehiclePlane:
				w.drivePlane(p, v, body)
			default:
				w.driveCar(p, body)
			}
			continue
		}

		body, ok := w.playerBodies[id]
		if !ok {
			continue
		}
		w.moveOnFoot(p, body)
	}
}

// planarForward flattens a direction onto the XZ plane. A vertical
// input falls back to -Z so movement never degenerates.
func planarForward(v mgl64.Vec3) mgl64.Vec3 {
	f := mgl64.Vec3{v[0], 0, v[2]}
	if f.Len() < 1e-9 {
		return mgl64.Vec3{0, 0, -1}
	}
	return f.Normalize()
}

// moveDirection sums the WASD booleans into a unit (or zero) planar
// direction relative to forward.
func moveDirection(in InputIntent, forward mgl64.Vec3) mgl64.Vec3 {
	right := mgl64.Vec3{-forward[2], 0, forward[0]}
	var dir mgl64.Vec3
	if in.MoveForward {
		dir = dir.Add(forward)
	}
	if in.MoveBackward {
		dir = dir.Sub(forward)
	}
	if in.MoveRight {
		dir = dir.Add(right)
	}
	if in.MoveLeft {
		dir = dir.Sub(right)
	}
	if dir.Len() < 1e-9 {
		return mgl64.Vec3{}
	}
	return dir.Normalize()
}

// moveOnFoot applies the grounded velocity-set discipline: the server
// writes horizontal velocity directly instead of integrating impulses,
// which keeps response crisp at any frame timing.
func (w *World) moveOnFoot(p *playerState, body physics.Handle) {
	in := p.intent
	forward := planarForward(p.look)
	dir := moveDirection(in, forward)
	speed := w.cfg.Player.Speed

	vel := w.phys.LinearVelocity(body)
	if p.grounded {
		if dir.Len() > 0 {
			vel[0] = vel[0]*0.9 + dir[0]*speed*0.15
			vel[2] = vel[2]*0.9 + dir[2]*speed*0.15
		} else {
			vel[0] *= 0.8
			vel[2] *= 0.8
		}
		w.phys.SetLinearVelocity(body, vel)

		// Small downward bias keeps slope contact between rays.
		w.phys.ApplyImpulse(body, mgl64.Vec3{0, -0.2, 0})

		if in.Jump && vel[1] < 0.5 {
			w.phys.ApplyImpulse(body, mgl64.Vec3{0, w.cfg.Player.JumpForce, 0})
		}
	} else if dir.Len() > 0 {
		w.phys.ApplyImpulse(body, dir.Mul(0.02))
	}
}

func (w *World) driveCar(p *playerState, body physics.Handle) {
	in := p.intent
	cfg := w.cfg.Vehicle

	forward := planarForward(w.phys.Rotation(body).Rotate(mgl64.Vec3{0, 0, -1}))

	if in.MoveForward {
		w.phys.ApplyImpulse(body, forward.Mul(cfg.CarSpeed*2))
	}
	if in.MoveBackward {
		w.phys.ApplyImpulse(body, forward.Mul(-cfg.CarSpeed))
	}

	vel := w.phys.LinearVelocity(body)
	planarSpeed := math.Hypot(vel[0], vel[2])
	if planarSpeed > 0.5 || in.MoveForward || in.MoveBackward {
		if in.MoveLeft {
			w.phys.ApplyTorqueImpulse(body, mgl64.Vec3{0, cfg.CarTurnSpeed, 0})
		}
		if in.MoveRight {
			w.phys.ApplyTorqueImpulse(body, mgl64.Vec3{0, -cfg.CarTurnSpeed, 0})
		}
	}

	// Keeps the chassis planted over bumps.
	w.phys.ApplyImpulse(body, mgl64.Vec3{0, -1, 0})
}

func (w *World) driveHelicopter(p *playerState, v *vehicleState, body physics.Handle) {
	in := p.intent
	cfg := w.cfg.Vehicle

	aboveCeiling := w.phys.Translation(body)[1] > cfg.HeliMaxAlt
	switch {
	case in.Jump:
		v.engineOn = true
		if !aboveCeiling {
			w.phys.ApplyImpulse(body, mgl64.Vec3{0, cfg.HeliLift, 0})
		}
	case in.wantsDescend():
		w.phys.ApplyImpulse(body, mgl64.Vec3{0, -cfg.HeliLift * 0.5, 0})
	case !aboveCeiling:
		// Hover trim: partial gravity compensation whenever neither
		// vertical key is held.
		w.phys.ApplyImpulse(body, mgl64.Vec3{0, 2.0, 0})
	}

	forward := planarForward(w.phys.Rotation(body).Rotate(mgl64.Vec3{0, 0, -1}))
	right := mgl64.Vec3{-forward[2], 0, forward[0]}

	if in.MoveForward {
		w.phys.ApplyImpulse(body, forward.Mul(cfg.HeliLift))
		w.phys.ApplyTorqueImpulse(body, right.Mul(-cfg.HeliTiltAngle))
	}
	if in.MoveBackward {
		w.phys.ApplyImpulse(body, forward.Mul(-cfg.HeliLift*0.5))
		w.phys.ApplyTorqueImpulse(body, right.Mul(cfg.HeliTiltAngle))
	}
	if in.MoveLeft {
		w.phys.ApplyTorqueImpulse(body, mgl64.Vec3{0, cfg.HeliTurnSpeed, 0})
	}
	if in.MoveRight {
		w.phys.ApplyTorqueImpulse(body, mgl64.Vec3{0, -cfg.HeliTurnSpeed, 0})
	}
}

func (w *World) drivePlane(p *playerState, v *vehicleState, body physics.Handle) {
	in := p.intent
	cfg := w.cfg.Vehicle

	if in.MoveForward {
		v.throttle = math.Min(1, v.throttle+0.02)
	}
	if in.MoveBackward {
		v.throttle = math.Max(0, v.throttle-0.02)
	}

	rot := w.phys.Rotation(body)
	forward := rot.Rotate(mgl64.Vec3{0, 0, -1})
	if v.throttle > 0 {
		w.phys.ApplyImpulse(body, forward.Mul(v.throttle*cfg.PlaneAccel))
	}

	speed := w.phys.LinearVelocity(body).Len()
	if speed > cfg.PlaneMinSpeed {
		lift := math.Min(speed*cfg.PlaneLiftCoef, 15)
		w.phys.ApplyImpulse(body, mgl64.Vec3{0, lift, 0})
	}

	right := rot.Rotate(mgl64.Vec3{1, 0, 0})
	if in.Jump {
		w.phys.ApplyTorqueImpulse(body, right.Mul(cfg.PlanePitchSpeed))
	}
	if in.wantsDescend() {
		w.phys.ApplyTorqueImpulse(body, right.Mul(-cfg.PlanePitchSpeed))
	}
	if in.MoveLeft {
		w.phys.ApplyTorqueImpulse(body, forward.Mul(cfg.PlaneTurnSpeed))
		w.phys.ApplyTorqueImpulse(body, mgl64.Vec3{0, cfg.PlaneTurnSpeed * 0.5, 0})
	}
	if in.MoveRight {
		w.phys.ApplyTorqueImpulse(body, forward.Mul(-cfg.PlaneTurnSpeed))
		w.phys.ApplyTorqueImpulse(body, mgl64.Vec3{0, -cfg.PlaneTurnSpeed * 0.5, 0})
	}
}
