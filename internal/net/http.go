// Package net mounts the server's HTTP surface: the websocket endpoint
// plus health and diagnostics.
package net

import (
	"encoding/json"
	nethttp "net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	server "skyjack/server"
)

// NewHTTPHandler wires /ws, /health, and /diagnostics around the hub.
func NewHTTPHandler(hub *server.Hub, log zerolog.Logger) nethttp.Handler {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *nethttp.Request) bool {
			return true
		},
	}

	mux := nethttp.NewServeMux()

	mux.HandleFunc("/health", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte("ok"))
	})

	mux.HandleFunc("/diagnostics", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		players, vehicles, ghosts, projectiles := hub.EntityCounts()
		payload := struct {
			Status      string                     `json:"status"`
			ServerTime  int64                      `json:"serverTime"`
			TickRate    float64                    `json:"tickRate"`
			Heartbeat   int64                      `json:"heartbeatMillis"`
			Players     int                        `json:"players"`
			Vehicles    int                        `json:"vehicles"`
			Ghosts      int                        `json:"ghosts"`
			Projectiles int                        `json:"projectiles"`
			Sessions    []server.DiagnosticsPlayer `json:"sessions"`
		}{
			Status:      "ok",
			ServerTime:  time.Now().UnixMilli(),
			TickRate:    hub.Config().TickRate,
			Heartbeat:   server.HeartbeatInterval().Milliseconds(),
			Players:     players,
			Vehicles:    vehicles,
			Ghosts:      ghosts,
			Projectiles: projectiles,
			Sessions:    hub.DiagnosticsSnapshot(),
		}

		data, err := json.Marshal(payload)
		if err != nil {
			nethttp.Error(w, "failed to encode", nethttp.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(data)
	})

	mux.HandleFunc("/ws", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Warn().Err(err).Msg("websocket upgrade failed")
			return
		}
		s := &session{hub: hub, log: log}
		s.serve(conn)
	})

	return mux
}
