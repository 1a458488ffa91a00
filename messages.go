package server

import "github.com/go-gl/mathgl/mgl64"

// Message type tags. Every frame on the wire is one JSON object with a
// "type" field and a flat payload.
const (
	// Client → server.
	MsgJoin         = "JOIN"
	MsgInput        = "INPUT"
	MsgFire         = "FIRE"
	MsgEnterVehicle = "ENTER_VEHICLE"
	MsgExitVehicle  = "EXIT_VEHICLE"
	MsgGrabGhost    = "GRAB_GHOST"
	MsgDropGhost    = "DROP_GHOST"
	MsgThrowGhost   = "THROW_GHOST"
	MsgHeartbeat    = "HEARTBEAT"

	// Server → client.
	MsgInit             = "INIT"
	MsgPlayerJoined     = "PLAYER_JOINED"
	MsgPlayerLeft       = "PLAYER_LEFT"
	MsgVehicleUpdate    = "VEHICLE_UPDATE"
	MsgGhostUpdate      = "GHOST_UPDATE"
	MsgProjectileSpawn  = "PROJECTILE_SPAWN"
	MsgProjectileRemove = "PROJECTILE_REMOVE"
	MsgHit              = "HIT"
	MsgGameState        = "GAME_STATE"
)

// Vec3 is the wire form of a 3-vector.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Quat is the wire form of a unit quaternion.
type Quat struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
	W float64 `json:"w"`
}

func vec3From(v mgl64.Vec3) Vec3 { return Vec3{v[0], v[1], v[2]} }
func (v Vec3) mgl() mgl64.Vec3   { return mgl64.Vec3{v.X, v.Y, v.Z} }
func quatFrom(q mgl64.Quat) Quat { return Quat{q.V[0], q.V[1], q.V[2], q.W} }

// InputIntent is the client's per-frame input. Booleans default to
// false; a nil LookDirection leaves the player's look unchanged.
type InputIntent struct {
	MoveForward   bool  `json:"moveForward"`
	MoveBackward  bool  `json:"moveBackward"`
	MoveLeft      bool  `json:"moveLeft"`
	MoveRight     bool  `json:"moveRight"`
	Jump          bool  `json:"jump"`
	Descend       bool  `json:"descend"`
	Shift         bool  `json:"shift"`
	LookDirection *Vec3 `json:"lookDirection"`
}

func (in InputIntent) wantsDescend() bool { return in.Descend || in.Shift }

// Control modes reported in player snapshots.
const (
	ModeOnFoot   = "ON_FOOT"
	ModeDriving  = "DRIVING"
	ModeCarrying = "CARRYING"
)

// ControlContext tags how a player's input is interpreted.
type ControlContext struct {
	Mode      string `json:"mode"`
	VehicleID string `json:"vehicleId,omitempty"`
	GhostID   string `json:"ghostId,omitempty"`
}

// PlayerSnapshot is a player's authoritative state as broadcast.
type PlayerSnapshot struct {
	ID            string         `json:"id"`
	Position      Vec3           `json:"position"`
	Rotation      Quat           `json:"rotation"`
	Velocity      Vec3           `json:"velocity"`
	Health        int            `json:"health"`
	LookDirection Vec3           `json:"lookDirection"`
	Grounded      bool           `json:"grounded"`
	Context       ControlContext `json:"context"`
}

// Vehicle types.
const (
	VehicleCar        = "CAR"
	VehicleHelicopter = "HELICOPTER"
	VehiclePlane      = "PLANE"
)

// VehicleSnapshot is a vehicle's authoritative state as broadcast.
type VehicleSnapshot struct {
	ID       string  `json:"id"`
	Type     string  `json:"type"`
	Position Vec3    `json:"position"`
	Rotation Quat    `json:"rotation"`
	Velocity Vec3    `json:"velocity"`
	Driver   string  `json:"driver,omitempty"`
	EngineOn bool    `json:"engineOn,omitempty"`
	Throttle float64 `json:"throttle,omitempty"`
}

// Ghost collider shapes.
const (
	GhostShapeBox      = "BOX"
	GhostShapeSphere   = "SPHERE"
	GhostShapeCylinder = "CYLINDER"
)

// GhostShape describes a carriable's collider on the wire.
type GhostShape struct {
	Type   string  `json:"type"`
	Width  float64 `json:"width,omitempty"`
	Height float64 `json:"height,omitempty"`
	Depth  float64 `json:"depth,omitempty"`
	Radius float64 `json:"radius,omitempty"`
}

// GhostSnapshot is a carriable's authoritative state as broadcast.
type GhostSnapshot struct {
	ID       string     `json:"id"`
	Shape    GhostShape `json:"shape"`
	Mass     float64    `json:"mass"`
	Position Vec3       `json:"position"`
	Rotation Quat       `json:"rotation"`
	Velocity Vec3       `json:"velocity"`
	Carrier  string     `json:"carrier,omitempty"`
	Color    string     `json:"color"`
}

// ProjectileSnapshot is a live projectile as broadcast.
type ProjectileSnapshot struct {
	ID       string `json:"id"`
	Position Vec3   `json:"position"`
	Velocity Vec3   `json:"velocity"`
	Owner    string `json:"owner"`
}

// LevelObject is an immutable static obstacle sent once in INIT.
type LevelObject struct {
	Position Vec3   `json:"position"`
	Size     Vec3   `json:"size"`
	Color    string `json:"color"`
}

// GameState is the per-tick world snapshot.
type GameState struct {
	Players     []PlayerSnapshot     `json:"players"`
	Projectiles []ProjectileSnapshot `json:"projectiles"`
	Vehicles    []VehicleSnapshot    `json:"vehicles"`
	Ghosts      []GhostSnapshot      `json:"ghosts"`
	ServerTime  int64                `json:"serverTime"`
}

type initMessage struct {
	Type     string        `json:"type"`
	PlayerID string        `json:"playerId"`
	Level    []LevelObject `json:"level"`
}

type playerJoinedMessage struct {
	Type   string         `json:"type"`
	Player PlayerSnapshot `json:"player"`
}

type playerLeftMessage struct {
	Type     string `json:"type"`
	PlayerID string `json:"playerId"`
}

type vehicleUpdateMessage struct {
	Type    string          `json:"type"`
	Vehicle VehicleSnapshot `json:"vehicle"`
}

type ghostUpdateMessage struct {
	Type  string        `json:"type"`
	Ghost GhostSnapshot `json:"ghost"`
}

type projectileSpawnMessage struct {
	Type       string             `json:"type"`
	Projectile ProjectileSnapshot `json:"projectile"`
}

type projectileRemoveMessage struct {
	Type         string `json:"type"`
	ProjectileID string `json:"projectileId"`
}

type hitMessage struct {
	Type   string `json:"type"`
	Target string `json:"target"`
	Damage int    `json:"damage"`
	Health int    `json:"health"`
}

type gameStateMessage struct {
	Type  string    `json:"type"`
	State GameState `json:"state"`
}
