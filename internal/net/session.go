package net

import (
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	server "skyjack/server"
)

// clientMessage is the flat decode target for every inbound frame.
// Unknown fields are ignored; missing fields fail the type's own guard
// and the frame is dropped without closing the session.
type clientMessage struct {
	Type      string              `json:"type"`
	Input     *server.InputIntent `json:"input"`
	Direction *server.Vec3        `json:"direction"`
	Origin    *server.Vec3        `json:"origin"`
	VehicleID string              `json:"vehicleId"`
	GhostID   string              `json:"ghostId"`
	SentAt    int64               `json:"sentAt"`
}

type heartbeatAck struct {
	Type       string `json:"type"`
	ServerTime int64  `json:"serverTime"`
	ClientTime int64  `json:"clientTime"`
	RTTMillis  int64  `json:"rtt"`
}

// session pumps one websocket connection into the hub.
type session struct {
	hub *server.Hub
	log zerolog.Logger
}

// serve registers the connection, then reads frames until the peer
// goes away. The hub's disconnect path runs exactly once on exit.
func (s *session) serve(conn *websocket.Conn) {
	playerID, err := s.hub.Connect(conn)
	if err != nil {
		s.log.Warn().Err(err).Msg("failed to initialise session")
		conn.Close()
		return
	}
	defer s.hub.Disconnect(playerID)

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var msg clientMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			s.log.Debug().Str("player", playerID).Err(err).Msg("discarding malformed frame")
			continue
		}

		switch msg.Type {
		case server.MsgJoin:
			s.hub.HandleJoin(playerID)
		case server.MsgInput:
			if msg.Input == nil {
				continue
			}
			s.hub.HandleInput(playerID, *msg.Input)
		case server.MsgFire:
			if msg.Direction == nil || msg.Origin == nil {
				continue
			}
			s.hub.HandleFire(playerID, *msg.Direction, *msg.Origin)
		case server.MsgEnterVehicle:
			if msg.VehicleID == "" {
				continue
			}
			s.hub.HandleEnterVehicle(playerID, msg.VehicleID)
		case server.MsgExitVehicle:
			s.hub.HandleExitVehicle(playerID)
		case server.MsgGrabGhost:
			if msg.GhostID == "" {
				continue
			}
			s.hub.HandleGrabGhost(playerID, msg.GhostID)
		case server.MsgDropGhost:
			s.hub.HandleDropGhost(playerID)
		case server.MsgThrowGhost:
			if msg.Direction == nil {
				continue
			}
			s.hub.HandleThrowGhost(playerID, *msg.Direction)
		case server.MsgHeartbeat:
			now := time.Now()
			rtt, ok := s.hub.UpdateHeartbeat(playerID, now, msg.SentAt)
			if !ok {
				continue
			}
			s.hub.SendTo(playerID, heartbeatAck{
				Type:       server.MsgHeartbeat,
				ServerTime: now.UnixMilli(),
				ClientTime: msg.SentAt,
				RTTMillis:  rtt.Milliseconds(),
			})
		default:
			s.log.Debug().Str("player", playerID).Str("type", msg.Type).Msg("unknown message type")
		}
	}
}
