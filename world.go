package server

import (
	"math/rand"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/rs/zerolog"

	"skyjack/server/internal/config"
	"skyjack/server/internal/physics"
)

// World is the single authoritative simulation: the physics world, the
// entity registry, and the level. All access happens under the hub's
// lock on the tick goroutine or between ticks.
type World struct {
	cfg *config.Config
	log zerolog.Logger

	phys *physics.World

	players     map[string]*playerState
	vehicles    map[string]*vehicleState
	ghosts      map[string]*ghostState
	projectiles map[string]*projectileState

	// Body maps are kept in lockstep with the entity maps above; an
	// orphaned handle is a bug.
	playerBodies     map[string]physics.Handle
	vehicleBodies    map[string]physics.Handle
	ghostBodies      map[string]physics.Handle
	projectileBodies map[string]physics.Handle

	level      []LevelObject
	spawnPoint mgl64.Vec3

	vehicleSeq    uint64
	ghostSeq      uint64
	projectileSeq uint64

	tick uint64
	rng  *rand.Rand
}

// NewWorld builds the physics world, level geometry, vehicles, and
// ghosts. The seed drives obstacle placement and player id generation.
func NewWorld(cfg *config.Config, log zerolog.Logger, seed int64) *World {
	gravity := mgl64.Vec3{cfg.Gravity.X, cfg.Gravity.Y, cfg.Gravity.Z}

	w := &World{
		cfg:  cfg,
		log:  log,
		phys: physics.NewWorld(gravity),

		players:     make(map[string]*playerState),
		vehicles:    make(map[string]*vehicleState),
		ghosts:      make(map[string]*ghostState),
		projectiles: make(map[string]*projectileState),

		playerBodies:     make(map[string]physics.Handle),
		vehicleBodies:    make(map[string]physics.Handle),
		ghostBodies:      make(map[string]physics.Handle),
		projectileBodies: make(map[string]physics.Handle),

		spawnPoint: mgl64.Vec3{0, 5, 0},
		rng:        rand.New(rand.NewSource(seed)),
	}

	w.buildLevel()
	w.seedEntities()

	log.Info().
		Int("levelObjects", len(w.level)).
		Int("vehicles", len(w.vehicles)).
		Int("ghosts", len(w.ghosts)).
		Int("bodies", w.phys.BodyCount()).
		Msg("world built")

	return w
}

// Level returns the static level objects sent in INIT.
func (w *World) Level() []LevelObject { return w.level }

// SetIntent stores the latest input intent for a player. Look direction
// updates immediately so interactions between ticks aim correctly.
func (w *World) SetIntent(playerID string, intent InputIntent) bool {
	p, ok := w.players[playerID]
	if !ok {
		return false
	}
	p.intent = intent
	if intent.LookDirection != nil {
		look := intent.LookDirection.mgl()
		if look.Len() > 1e-9 {
			p.look = look.Normalize()
		}
	}
	p.lastSeen = time.Now()
	return true
}

// Snapshot assembles the per-tick GAME_STATE payload.
func (w *World) Snapshot(now time.Time) GameState {
	state := GameState{
		Players:     make([]PlayerSnapshot, 0, len(w.players)),
		Projectiles: make([]ProjectileSnapshot, 0, len(w.projectiles)),
		Vehicles:    make([]VehicleSnapshot, 0, len(w.vehicles)),
		Ghosts:      make([]GhostSnapshot, 0, len(w.ghosts)),
		ServerTime:  now.UnixMilli(),
	}
	for _, p := range w.players {
		state.Players = append(state.Players, p.snapshot())
	}
	for _, q := range w.projectiles {
		state.Projectiles = append(state.Projectiles, q.snapshot())
	}
	for _, v := range w.vehicles {
		state.Vehicles = append(state.Vehicles, v.snapshot())
	}
	for _, g := range w.ghosts {
		state.Ghosts = append(state.Ghosts, g.snapshot())
	}
	return state
}

func (w *World) player(id string) (*playerState, bool) {
	p, ok := w.players[id]
	return p, ok
}

// touch refreshes a player's liveness clock.
func (w *World) touch(playerID string) {
	if p, ok := w.players[playerID]; ok {
		p.lastSeen = time.Now()
	}
}

// stalePlayers lists players whose last inbound frame is older than
// maxAge. The hub runs the normal disconnect path for each.
func (w *World) stalePlayers(now time.Time, maxAge time.Duration) []string {
	var stale []string
	for id, p := range w.players {
		if now.Sub(p.lastSeen) > maxAge {
			stale = append(stale, id)
		}
	}
	return stale
}
