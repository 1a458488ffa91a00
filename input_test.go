package server

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func TestOnFootSetsHorizontalVelocityDirectly(t *testing.T) {
	w := newTestWorld()
	p := w.SpawnPlayer("mov001")
	body := w.playerBodies[p.id]
	p.grounded = true
	p.intent = InputIntent{MoveForward: true, LookDirection: &Vec3{0, 0, -1}}
	p.look = mgl64.Vec3{0, 0, -1}

	w.resolveInputs()

	vel := w.phys.LinearVelocity(body)
	want := -w.cfg.Player.Speed * 0.15
	if math.Abs(vel[2]-want) > 1e-9 {
		t.Fatalf("vel.z = %v, want %v", vel[2], want)
	}
	if vel[0] != 0 {
		t.Fatalf("vel.x = %v, want 0", vel[0])
	}
}

func TestOnFootBlendKeepsNinetyPercent(t *testing.T) {
	w := newTestWorld()
	p := w.SpawnPlayer("mov002")
	body := w.playerBodies[p.id]
	p.grounded = true
	p.look = mgl64.Vec3{0, 0, -1}
	p.intent = InputIntent{MoveForward: true}
	w.phys.SetLinearVelocity(body, mgl64.Vec3{0, 0, -2})

	w.resolveInputs()

	vel := w.phys.LinearVelocity(body)
	want := -2*0.9 - w.cfg.Player.Speed*0.15
	if math.Abs(vel[2]-want) > 1e-9 {
		t.Fatalf("vel.z = %v, want %v", vel[2], want)
	}
}

func TestOnFootDampsWhenIdle(t *testing.T) {
	w := newTestWorld()
	p := w.SpawnPlayer("mov003")
	body := w.playerBodies[p.id]
	p.grounded = true
	w.phys.SetLinearVelocity(body, mgl64.Vec3{5, 0, 5})

	w.resolveInputs()

	vel := w.phys.LinearVelocity(body)
	if math.Abs(vel[0]-4) > 1e-9 || math.Abs(vel[2]-4) > 1e-9 {
		t.Fatalf("horizontal velocity = (%v, %v), want (4, 4)", vel[0], vel[2])
	}
}

func TestJumpOnlyWhenGroundedAndSlow(t *testing.T) {
	w := newTestWorld()
	p := w.SpawnPlayer("jmp001")
	body := w.playerBodies[p.id]
	p.intent = InputIntent{Jump: true}

	// Airborne: jump ignored.
	p.grounded = false
	w.resolveInputs()
	if vel := w.phys.LinearVelocity(body); vel[1] > 0 {
		t.Fatalf("airborne jump applied: vy=%v", vel[1])
	}

	// Grounded but already rising fast: gated.
	p.grounded = true
	w.phys.SetLinearVelocity(body, mgl64.Vec3{0, 1, 0})
	w.resolveInputs()
	if vel := w.phys.LinearVelocity(body); vel[1] > 1 {
		t.Fatalf("jump applied despite vy >= 0.5: vy=%v", vel[1])
	}

	// Grounded and slow: jump fires.
	w.phys.SetLinearVelocity(body, mgl64.Vec3{})
	w.resolveInputs()
	vel := w.phys.LinearVelocity(body)
	if vel[1] < w.cfg.Player.JumpForce-0.5 {
		t.Fatalf("expected a jump impulse, vy=%v", vel[1])
	}
}

func TestAirborneDriftIsWeak(t *testing.T) {
	w := newTestWorld()
	p := w.SpawnPlayer("air001")
	body := w.playerBodies[p.id]
	p.grounded = false
	p.look = mgl64.Vec3{0, 0, -1}
	p.intent = InputIntent{MoveForward: true}

	w.resolveInputs()

	vel := w.phys.LinearVelocity(body)
	if math.Abs(vel[2]-(-0.02)) > 1e-9 {
		t.Fatalf("airborne drift vel.z = %v, want -0.02", vel[2])
	}
}

func TestCarAcceleratesForwardMonotonically(t *testing.T) {
	w := newTestWorld()
	tickWorld(w, 90) // let the vehicles settle onto the ground
	p := w.SpawnPlayer("car101")
	car := findVehicle(w, VehicleCar)
	p.pos = car.pos
	if _, ok := w.EnterVehicle(p.id, car.id); !ok {
		t.Fatal("enter failed")
	}
	p.intent = InputIntent{MoveForward: true}

	body := w.vehicleBodies[car.id]
	dt := 1 / w.cfg.TickRate
	lastForward := 0.0
	for i := 0; i < 10; i++ {
		w.resolveInputs()
		w.phys.Step(dt)
		forward := -w.phys.LinearVelocity(body)[2]
		if forward <= lastForward {
			t.Fatalf("tick %d: forward speed %v did not increase past %v", i, forward, lastForward)
		}
		lastForward = forward
	}
}

func TestCarYawRequiresMotionOrThrottle(t *testing.T) {
	w := newTestWorld()
	p := w.SpawnPlayer("car102")
	car := findVehicle(w, VehicleCar)
	p.pos = car.pos
	if _, ok := w.EnterVehicle(p.id, car.id); !ok {
		t.Fatal("enter failed")
	}
	body := w.vehicleBodies[car.id]

	// Stationary with steering only: no yaw.
	p.intent = InputIntent{MoveLeft: true}
	w.resolveInputs()
	if av := w.phys.AngularVelocity(body); av[1] != 0 {
		t.Fatalf("stationary car yawed: %v", av[1])
	}

	// Throttle unlocks steering.
	p.intent = InputIntent{MoveForward: true, MoveLeft: true}
	w.resolveInputs()
	if av := w.phys.AngularVelocity(body); av[1] <= 0 {
		t.Fatalf("expected positive yaw, got %v", av[1])
	}
}

func TestHelicopterLiftAndCeiling(t *testing.T) {
	w := newTestWorld()
	p := w.SpawnPlayer("hel001")
	heli := findVehicle(w, VehicleHelicopter)
	p.pos = heli.pos
	if _, ok := w.EnterVehicle(p.id, heli.id); !ok {
		t.Fatal("enter failed")
	}
	body := w.vehicleBodies[heli.id]

	p.intent = InputIntent{Jump: true}
	w.resolveInputs()
	if !heli.engineOn {
		t.Fatal("engine should start on first lift input")
	}
	if vel := w.phys.LinearVelocity(body); vel[1] <= 0 {
		t.Fatalf("expected upward velocity, got %v", vel[1])
	}

	// Above the ceiling the upward force clamps to zero.
	w.phys.SetTranslation(body, mgl64.Vec3{0, w.cfg.Vehicle.HeliMaxAlt + 5, 0})
	w.phys.SetLinearVelocity(body, mgl64.Vec3{})
	w.resolveInputs()
	if vel := w.phys.LinearVelocity(body); vel[1] != 0 {
		t.Fatalf("ceiling violated: vy=%v", vel[1])
	}
}

func TestHelicopterHoverTrimWithoutVerticalInput(t *testing.T) {
	w := newTestWorld()
	p := w.SpawnPlayer("hel003")
	heli := findVehicle(w, VehicleHelicopter)
	p.pos = heli.pos
	if _, ok := w.EnterVehicle(p.id, heli.id); !ok {
		t.Fatal("enter failed")
	}
	body := w.vehicleBodies[heli.id]

	// No vertical key, engine never started: the trim still fires.
	p.intent = InputIntent{MoveForward: true}
	w.resolveInputs()
	if vel := w.phys.LinearVelocity(body); vel[1] <= 0 {
		t.Fatalf("expected hover trim, vy=%v", vel[1])
	}

	// Above the ceiling the trim clamps like the main lift.
	w.phys.SetTranslation(body, mgl64.Vec3{0, w.cfg.Vehicle.HeliMaxAlt + 5, 0})
	w.phys.SetLinearVelocity(body, mgl64.Vec3{})
	p.intent = InputIntent{}
	w.resolveInputs()
	if vel := w.phys.LinearVelocity(body); vel[1] != 0 {
		t.Fatalf("trim applied above the ceiling: vy=%v", vel[1])
	}
}

func TestHelicopterDescend(t *testing.T) {
	w := newTestWorld()
	p := w.SpawnPlayer("hel002")
	heli := findVehicle(w, VehicleHelicopter)
	p.pos = heli.pos
	if _, ok := w.EnterVehicle(p.id, heli.id); !ok {
		t.Fatal("enter failed")
	}
	body := w.vehicleBodies[heli.id]

	p.intent = InputIntent{Shift: true}
	w.resolveInputs()
	if vel := w.phys.LinearVelocity(body); vel[1] >= 0 {
		t.Fatalf("expected downward velocity, got %v", vel[1])
	}
}

func TestPlaneThrottleAccumulatesAndClamps(t *testing.T) {
	w := newTestWorld()
	p := w.SpawnPlayer("pln001")
	plane := findVehicle(w, VehiclePlane)
	p.pos = plane.pos
	if _, ok := w.EnterVehicle(p.id, plane.id); !ok {
		t.Fatal("enter failed")
	}

	p.intent = InputIntent{MoveForward: true}
	for i := 0; i < 60; i++ {
		w.resolveInputs()
	}
	if plane.throttle != 1 {
		t.Fatalf("throttle = %v, want clamped at 1", plane.throttle)
	}

	p.intent = InputIntent{MoveBackward: true}
	for i := 0; i < 60; i++ {
		w.resolveInputs()
	}
	if plane.throttle != 0 {
		t.Fatalf("throttle = %v, want clamped at 0", plane.throttle)
	}
}

func TestPlaneLiftNeedsAirspeed(t *testing.T) {
	w := newTestWorld()
	p := w.SpawnPlayer("pln002")
	plane := findVehicle(w, VehiclePlane)
	p.pos = plane.pos
	if _, ok := w.EnterVehicle(p.id, plane.id); !ok {
		t.Fatal("enter failed")
	}
	body := w.vehicleBodies[plane.id]
	p.intent = InputIntent{}

	// Slow: no lift.
	w.phys.SetLinearVelocity(body, mgl64.Vec3{0, 0, -w.cfg.Vehicle.PlaneMinSpeed * 0.5})
	w.resolveInputs()
	if vel := w.phys.LinearVelocity(body); vel[1] != 0 {
		t.Fatalf("lift applied below min speed: vy=%v", vel[1])
	}

	// Fast: lift along +Y.
	w.phys.SetLinearVelocity(body, mgl64.Vec3{0, 0, -w.cfg.Vehicle.PlaneMinSpeed * 2})
	w.resolveInputs()
	if vel := w.phys.LinearVelocity(body); vel[1] <= 0 {
		t.Fatalf("expected lift, vy=%v", vel[1])
	}
}

func TestLookDirectionSteersMovement(t *testing.T) {
	w := newTestWorld()
	p := w.SpawnPlayer("lok001")
	body := w.playerBodies[p.id]
	p.grounded = true

	w.SetIntent(p.id, InputIntent{MoveForward: true, LookDirection: &Vec3{1, -0.5, 0}})
	w.resolveInputs()

	vel := w.phys.LinearVelocity(body)
	if vel[0] <= 0 || math.Abs(vel[2]) > 1e-9 {
		t.Fatalf("movement did not follow planar look: %v", vel)
	}
}
