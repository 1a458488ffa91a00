package server

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"skyjack/server/internal/config"
)

// fakeConn records every frame the hub writes to it.
type fakeConn struct {
	mu     sync.Mutex
	frames [][]byte
	failed bool
	closed bool
}

func (c *fakeConn) WriteMessage(messageType int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failed {
		return errors.New("broken pipe")
	}
	buf := make([]byte, len(data))
	copy(buf, data)
	c.frames = append(c.frames, buf)
	return nil
}

func (c *fakeConn) SetWriteDeadline(t time.Time) error { return nil }

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeConn) typed() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	types := make([]string, 0, len(c.frames))
	for _, frame := range c.frames {
		var envelope struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal(frame, &envelope); err == nil {
			types = append(types, envelope.Type)
		}
	}
	return types
}

func (c *fakeConn) lastOfType(msgType string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := len(c.frames) - 1; i >= 0; i-- {
		var envelope struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal(c.frames[i], &envelope); err == nil && envelope.Type == msgType {
			return c.frames[i], true
		}
	}
	return nil, false
}

func newTestHub() *Hub {
	return NewHubWithSeed(config.Default(), zerolog.Nop(), testSeed)
}

func TestConnectSendsInitWithLevel(t *testing.T) {
	h := newTestHub()
	conn := &fakeConn{}

	id, err := h.Connect(conn)
	if err != nil {
		t.Fatalf("connect failed: %v", err)
	}
	if id == "" {
		t.Fatal("empty player id")
	}

	frame, ok := conn.lastOfType(MsgInit)
	if !ok {
		t.Fatal("no INIT frame")
	}
	var init struct {
		PlayerID string        `json:"playerId"`
		Level    []LevelObject `json:"level"`
	}
	if err := json.Unmarshal(frame, &init); err != nil {
		t.Fatalf("bad INIT payload: %v", err)
	}
	if init.PlayerID != id {
		t.Fatalf("INIT player id = %q, want %q", init.PlayerID, id)
	}
	if len(init.Level) != levelObstacleCount {
		t.Fatalf("INIT level entries = %d, want %d", len(init.Level), levelObstacleCount)
	}
}

func TestJoinThenTickDeliversGameState(t *testing.T) {
	h := newTestHub()
	conn := &fakeConn{}
	id, err := h.Connect(conn)
	if err != nil {
		t.Fatalf("connect failed: %v", err)
	}

	h.HandleJoin(id)
	h.Tick(time.Now(), 1/h.cfg.TickRate)

	frame, ok := conn.lastOfType(MsgGameState)
	if !ok {
		t.Fatalf("no GAME_STATE frame, got %v", conn.typed())
	}
	var msg struct {
		State GameState `json:"state"`
	}
	if err := json.Unmarshal(frame, &msg); err != nil {
		t.Fatalf("bad GAME_STATE payload: %v", err)
	}
	if len(msg.State.Players) != 1 {
		t.Fatalf("players in snapshot = %d, want 1", len(msg.State.Players))
	}
	p := msg.State.Players[0]
	if p.ID != id {
		t.Fatalf("snapshot player = %q, want %q", p.ID, id)
	}
	if dx, dy := p.Position.X, p.Position.Y; dx*dx > 1 || (dy-5)*(dy-5) > 1 {
		t.Fatalf("snapshot position = %+v, want near (0,5,0)", p.Position)
	}
	if p.Velocity.Y >= 0 {
		t.Fatalf("snapshot velocity.y = %v, want negative after a step", p.Velocity.Y)
	}
}

func TestDuplicateJoinIsIgnored(t *testing.T) {
	h := newTestHub()
	conn := &fakeConn{}
	id, _ := h.Connect(conn)

	h.HandleJoin(id)
	h.HandleJoin(id)

	players, _, _, _ := h.EntityCounts()
	if players != 1 {
		t.Fatalf("players = %d, want 1", players)
	}
}

func TestFireBroadcastsOncePerCooldown(t *testing.T) {
	h := newTestHub()
	conn := &fakeConn{}
	id, _ := h.Connect(conn)
	h.HandleJoin(id)

	// Two fires in quick succession: one spawn broadcast.
	h.HandleFire(id, Vec3{0, 0, -1}, Vec3{0, 5, 0})
	h.HandleFire(id, Vec3{0, 0, -1}, Vec3{0, 5, 0})

	spawns := 0
	for _, typ := range conn.typed() {
		if typ == MsgProjectileSpawn {
			spawns++
		}
	}
	if spawns != 1 {
		t.Fatalf("PROJECTILE_SPAWN broadcasts = %d, want 1", spawns)
	}
}

func TestDisconnectBroadcastsReleases(t *testing.T) {
	h := newTestHub()

	observerConn := &fakeConn{}
	observer, _ := h.Connect(observerConn)
	h.HandleJoin(observer)

	driverConn := &fakeConn{}
	driver, _ := h.Connect(driverConn)
	h.HandleJoin(driver)

	// Seat the driver, then disconnect them.
	h.mu.Lock()
	car := findVehicle(h.world, VehicleCar)
	h.world.players[driver].pos = car.pos
	h.mu.Unlock()
	h.HandleEnterVehicle(driver, car.id)
	before := len(observerConn.typed())

	h.Disconnect(driver)

	if !driverConn.closed {
		t.Fatal("disconnected session not closed")
	}

	sawVehicle, sawLeft := false, false
	for _, typ := range observerConn.typed()[before:] {
		switch typ {
		case MsgVehicleUpdate:
			sawVehicle = true
		case MsgPlayerLeft:
			sawLeft = true
		}
	}
	if !sawVehicle {
		t.Fatal("no VEHICLE_UPDATE after the driver disconnected")
	}
	if !sawLeft {
		t.Fatal("no PLAYER_LEFT after disconnect")
	}

	players, _, _, _ := h.EntityCounts()
	if players != 1 {
		t.Fatalf("players = %d, want 1", players)
	}
}

func TestBroadcastDropsFailedSessions(t *testing.T) {
	h := newTestHub()

	healthy := &fakeConn{}
	healthyID, _ := h.Connect(healthy)
	h.HandleJoin(healthyID)

	broken := &fakeConn{}
	brokenID, _ := h.Connect(broken)
	h.HandleJoin(brokenID)
	broken.mu.Lock()
	broken.failed = true
	broken.mu.Unlock()

	h.Tick(time.Now(), 1/h.cfg.TickRate)

	h.mu.Lock()
	_, stillSubscribed := h.subscribers[brokenID]
	h.mu.Unlock()
	if stillSubscribed {
		t.Fatal("failed session still subscribed")
	}

	if _, ok := healthy.lastOfType(MsgGameState); !ok {
		t.Fatal("healthy session missed the snapshot")
	}
}

func TestHeartbeatUpdatesRTT(t *testing.T) {
	h := newTestHub()
	conn := &fakeConn{}
	id, _ := h.Connect(conn)
	h.HandleJoin(id)

	now := time.Now()
	rtt, ok := h.UpdateHeartbeat(id, now, now.Add(-50*time.Millisecond).UnixMilli())
	if !ok {
		t.Fatal("heartbeat rejected")
	}
	if rtt <= 0 {
		t.Fatalf("rtt = %v, want positive", rtt)
	}
}

func TestStalePlayersAreReaped(t *testing.T) {
	h := newTestHub()
	conn := &fakeConn{}
	id, _ := h.Connect(conn)
	h.HandleJoin(id)

	h.mu.Lock()
	h.world.players[id].lastSeen = time.Now().Add(-2 * disconnectAfter)
	h.mu.Unlock()

	h.Tick(time.Now(), 1/h.cfg.TickRate)

	players, _, _, _ := h.EntityCounts()
	if players != 0 {
		t.Fatalf("stale player survived the reap: %d", players)
	}
	if !conn.closed {
		t.Fatal("stale session left open")
	}
}

func TestGameStateTimesAreMonotonic(t *testing.T) {
	h := newTestHub()
	conn := &fakeConn{}
	id, _ := h.Connect(conn)
	h.HandleJoin(id)

	now := time.Now()
	for i := 0; i < 5; i++ {
		h.Tick(now.Add(time.Duration(i)*33*time.Millisecond), 1/h.cfg.TickRate)
	}

	var last int64
	for _, frame := range conn.frames {
		var msg struct {
			Type  string `json:"type"`
			State struct {
				ServerTime int64 `json:"serverTime"`
			} `json:"state"`
		}
		if err := json.Unmarshal(frame, &msg); err != nil || msg.Type != MsgGameState {
			continue
		}
		if msg.State.ServerTime < last {
			t.Fatalf("serverTime went backwards: %d after %d", msg.State.ServerTime, last)
		}
		last = msg.State.ServerTime
	}
	if last == 0 {
		t.Fatal("no GAME_STATE frames observed")
	}
}
