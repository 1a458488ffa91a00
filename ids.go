package server

import (
	"fmt"
	"strconv"
)

// Vehicles, ghosts, and projectiles get monotonic category-prefixed
// ids; players get short random base-36 strings so ids do not leak join
// order across reconnects.

func (w *World) nextVehicleID() string {
	w.vehicleSeq++
	return fmt.Sprintf("vehicle_%d", w.vehicleSeq)
}

func (w *World) nextGhostID() string {
	w.ghostSeq++
	return fmt.Sprintf("ghost_%d", w.ghostSeq)
}

func (w *World) nextProjectileID() string {
	w.projectileSeq++
	return fmt.Sprintf("proj_%d", w.projectileSeq)
}

// NewPlayerID returns a fresh random base-36 id not held by any live
// player.
func (w *World) NewPlayerID() string {
	for {
		id := strconv.FormatUint(w.rng.Uint64()&0xffffffffff, 36)
		if _, taken := w.players[id]; !taken && id != "" {
			return id
		}
	}
}
