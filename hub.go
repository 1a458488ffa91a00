package server

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"skyjack/server/internal/config"
)

const (
	writeWait         = 10 * time.Second
	heartbeatInterval = 2 * time.Second
	disconnectAfter   = 3 * heartbeatInterval
)

// Conn is the subset of a websocket connection the hub writes to.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

type subscriber struct {
	conn Conn
	mu   sync.Mutex
}

func (s *subscriber) write(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteMessage(websocket.TextMessage, data)
}

// Hub owns the world and every live session. Handlers and the tick
// loop serialise on one mutex, so no world mutation ever races the
// physics step.
type Hub struct {
	mu          sync.Mutex
	cfg         *config.Config
	log         zerolog.Logger
	world       *World
	subscribers map[string]*subscriber
}

// NewHub builds a hub around a freshly seeded world.
func NewHub(cfg *config.Config, log zerolog.Logger) *Hub {
	return NewHubWithSeed(cfg, log, time.Now().UnixNano())
}

// NewHubWithSeed pins the world seed; tests use it for stable levels.
func NewHubWithSeed(cfg *config.Config, log zerolog.Logger, seed int64) *Hub {
	return &Hub{
		cfg:         cfg,
		log:         log,
		world:       NewWorld(cfg, log, seed),
		subscribers: make(map[string]*subscriber),
	}
}

// Config exposes the hub's tunables to the HTTP layer.
func (h *Hub) Config() *config.Config { return h.cfg }

// Connect registers a new session, assigns a player id, and sends INIT
// with the level. The player record itself is created on JOIN. The
// subscriber's write mutex is held across registration so a concurrent
// broadcast can never beat INIT onto the wire.
func (h *Hub) Connect(conn Conn) (string, error) {
	sub := &subscriber{conn: conn}
	sub.mu.Lock()

	h.mu.Lock()
	id := h.world.NewPlayerID()
	for _, taken := h.subscribers[id]; taken; _, taken = h.subscribers[id] {
		id = h.world.NewPlayerID()
	}
	h.subscribers[id] = sub
	level := h.world.Level()
	h.mu.Unlock()

	data, err := json.Marshal(initMessage{Type: MsgInit, PlayerID: id, Level: level})
	if err == nil {
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		err = conn.WriteMessage(websocket.TextMessage, data)
	}
	sub.mu.Unlock()

	if err != nil {
		h.mu.Lock()
		delete(h.subscribers, id)
		h.mu.Unlock()
		return "", err
	}

	h.log.Info().Str("player", id).Msg("session connected")
	return id, nil
}

// HandleJoin creates the player's record and body and announces it.
func (h *Hub) HandleJoin(playerID string) {
	h.mu.Lock()
	if _, exists := h.world.player(playerID); exists {
		h.mu.Unlock()
		return
	}
	p := h.world.SpawnPlayer(playerID)
	snap := p.snapshot()
	h.mu.Unlock()

	h.log.Info().Str("player", playerID).Msg("player joined")
	h.broadcast(playerJoinedMessage{Type: MsgPlayerJoined, Player: snap})
}

// HandleInput stores the latest intent for the next tick.
func (h *Hub) HandleInput(playerID string, intent InputIntent) {
	h.mu.Lock()
	h.world.SetIntent(playerID, intent)
	h.mu.Unlock()
}

// HandleFire runs the fire interaction and announces the projectile.
func (h *Hub) HandleFire(playerID string, direction, origin Vec3) {
	h.mu.Lock()
	h.world.touch(playerID)
	snap, ok := h.world.Fire(playerID, direction, origin, time.Now())
	h.mu.Unlock()
	if ok {
		h.broadcast(projectileSpawnMessage{Type: MsgProjectileSpawn, Projectile: *snap})
	}
}

// HandleEnterVehicle seats the player if preconditions hold.
func (h *Hub) HandleEnterVehicle(playerID, vehicleID string) {
	h.mu.Lock()
	h.world.touch(playerID)
	snap, ok := h.world.EnterVehicle(playerID, vehicleID)
	h.mu.Unlock()
	if ok {
		h.broadcast(vehicleUpdateMessage{Type: MsgVehicleUpdate, Vehicle: *snap})
	}
}

// HandleExitVehicle vacates the player's vehicle if any.
func (h *Hub) HandleExitVehicle(playerID string) {
	h.mu.Lock()
	h.world.touch(playerID)
	snap, ok := h.world.ExitVehicle(playerID)
	h.mu.Unlock()
	if ok {
		h.broadcast(vehicleUpdateMessage{Type: MsgVehicleUpdate, Vehicle: *snap})
	}
}

// HandleGrabGhost picks up a carriable if preconditions hold.
func (h *Hub) HandleGrabGhost(playerID, ghostID string) {
	h.mu.Lock()
	h.world.touch(playerID)
	snap, ok := h.world.GrabGhost(playerID, ghostID)
	h.mu.Unlock()
	if ok {
		h.broadcast(ghostUpdateMessage{Type: MsgGhostUpdate, Ghost: *snap})
	}
}

// HandleDropGhost releases the held carriable.
func (h *Hub) HandleDropGhost(playerID string) {
	h.mu.Lock()
	h.world.touch(playerID)
	snap, ok := h.world.DropGhost(playerID)
	h.mu.Unlock()
	if ok {
		h.broadcast(ghostUpdateMessage{Type: MsgGhostUpdate, Ghost: *snap})
	}
}

// HandleThrowGhost releases the held carriable along a direction.
func (h *Hub) HandleThrowGhost(playerID string, direction Vec3) {
	h.mu.Lock()
	h.world.touch(playerID)
	snap, ok := h.world.ThrowGhost(playerID, direction)
	h.mu.Unlock()
	if ok {
		h.broadcast(ghostUpdateMessage{Type: MsgGhostUpdate, Ghost: *snap})
	}
}

// UpdateHeartbeat feeds the stale-player reaper and returns the
// measured round-trip time. A sample stamped ahead of the server clock
// counts as a zero RTT; a sample older than the disconnect window is
// kept for liveness but not folded into the RTT.
func (h *Hub) UpdateHeartbeat(playerID string, receivedAt time.Time, clientSent int64) (time.Duration, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	p, ok := h.world.player(playerID)
	if !ok {
		return 0, false
	}

	// A heartbeat arriving close to the reap deadline means the client
	// barely outran the disconnect path in Tick.
	if idle := receivedAt.Sub(p.lastSeen); idle > disconnectAfter/2 {
		h.log.Debug().Str("player", playerID).Dur("idle", idle).Msg("late heartbeat")
	}
	p.lastSeen = receivedAt

	if clientSent <= 0 {
		return p.lastRTT, true
	}
	sample := receivedAt.Sub(time.UnixMilli(clientSent))
	if sample < 0 {
		sample = 0
	}
	if sample < disconnectAfter {
		p.lastRTT = sample
	}
	return p.lastRTT, true
}

// Disconnect tears down a session: vacate vehicle, drop ghost, free the
// body, delete records, announce departure.
func (h *Hub) Disconnect(playerID string) {
	h.mu.Lock()
	sub, subOK := h.subscribers[playerID]
	if subOK {
		delete(h.subscribers, playerID)
	}
	vehicleSnap, ghostSnap, playerOK := h.world.RemovePlayer(playerID)
	h.mu.Unlock()

	if subOK {
		sub.conn.Close()
	}
	if !playerOK {
		return
	}

	h.log.Info().Str("player", playerID).Msg("player left")
	if vehicleSnap != nil {
		h.broadcast(vehicleUpdateMessage{Type: MsgVehicleUpdate, Vehicle: *vehicleSnap})
	}
	if ghostSnap != nil {
		h.broadcast(ghostUpdateMessage{Type: MsgGhostUpdate, Ghost: *ghostSnap})
	}
	h.broadcast(playerLeftMessage{Type: MsgPlayerLeft, PlayerID: playerID})
}

// SendTo writes one message to a single session.
func (h *Hub) SendTo(playerID string, payload any) bool {
	h.mu.Lock()
	sub, ok := h.subscribers[playerID]
	h.mu.Unlock()
	if !ok {
		return false
	}
	data, err := json.Marshal(payload)
	if err != nil {
		h.log.Error().Err(err).Msg("failed to marshal message")
		return false
	}
	return sub.write(data) == nil
}

// RunSimulation drives the fixed-rate tick loop until stop closes.
func (h *Hub) RunSimulation(stop <-chan struct{}) {
	period := time.Duration(float64(time.Second) / h.cfg.TickRate)
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-stop:
			return
		case now := <-ticker.C:
			dt := now.Sub(last).Seconds()
			if dt <= 0 {
				dt = 1 / h.cfg.TickRate
			}
			last = now
			h.Tick(now, dt)
		}
	}
}

// Tick advances the world once and broadcasts the results. Exposed so
// tests can step the simulation deterministically.
func (h *Hub) Tick(now time.Time, dt float64) {
	h.mu.Lock()
	stale := h.world.stalePlayers(now, disconnectAfter)
	events := h.world.Advance(now, dt)
	state := h.world.Snapshot(now)
	h.mu.Unlock()

	for _, id := range stale {
		h.log.Warn().Str("player", id).Msg("disconnecting: heartbeat timeout")
		h.Disconnect(id)
	}

	for _, hit := range events.Hits {
		h.broadcast(hitMessage{Type: MsgHit, Target: hit.Target, Damage: hit.Damage, Health: hit.Health})
	}
	for _, id := range events.RemovedProjectiles {
		h.broadcast(projectileRemoveMessage{Type: MsgProjectileRemove, ProjectileID: id})
	}
	h.broadcast(gameStateMessage{Type: MsgGameState, State: state})
}

// broadcast sends one payload to every open session, dropping sessions
// whose writes fail.
func (h *Hub) broadcast(payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		h.log.Error().Err(err).Msg("failed to marshal broadcast")
		return
	}

	h.mu.Lock()
	subs := make(map[string]*subscriber, len(h.subscribers))
	for id, sub := range h.subscribers {
		subs[id] = sub
	}
	h.mu.Unlock()

	var failed []string
	for id, sub := range subs {
		if err := sub.write(data); err != nil {
			h.log.Warn().Str("player", id).Err(err).Msg("dropping session: write failed")
			failed = append(failed, id)
		}
	}
	for _, id := range failed {
		h.Disconnect(id)
	}
}

// DiagnosticsSnapshot summarises session liveness for the diagnostics
// endpoint.
func (h *Hub) DiagnosticsSnapshot() []DiagnosticsPlayer {
	h.mu.Lock()
	defer h.mu.Unlock()

	players := make([]DiagnosticsPlayer, 0, len(h.world.players))
	for id, p := range h.world.players {
		players = append(players, DiagnosticsPlayer{
			ID:        id,
			LastSeen:  p.lastSeen.UnixMilli(),
			RTTMillis: p.lastRTT.Milliseconds(),
		})
	}
	return players
}

// EntityCounts reports live entity totals for diagnostics.
func (h *Hub) EntityCounts() (players, vehicles, ghosts, projectiles int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.world.players), len(h.world.vehicles), len(h.world.ghosts), len(h.world.projectiles)
}

// DiagnosticsPlayer is one row of the diagnostics payload.
type DiagnosticsPlayer struct {
	ID        string `json:"id"`
	LastSeen  int64  `json:"lastSeen"`
	RTTMillis int64  `json:"rttMillis"`
}

// HeartbeatInterval exposes the liveness cadence to the HTTP layer.
func HeartbeatInterval() time.Duration { return heartbeatInterval }
