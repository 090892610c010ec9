package signal

import (
	"context"
	"encoding/json"
	"time"

	"github.com/dkeye/MeetingRoom/internal/core"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// writePump closes the connection on exit so a blocked readPump returns too.
func (ctl *SignalWSController) writePump(ctx context.Context, c *WsSignalConn) {
	defer c.Close()
	var tick <-chan time.Time
	if ctl.opts.PingPeriod > 0 {
		ticker := time.NewTicker(ctl.opts.PingPeriod)
		defer ticker.Stop()
		tick = ticker.C
	}
	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "signal").Msg("writePump ctx done")
			return
		case <-tick:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second)); err != nil {
				log.Warn().Err(err).Str("module", "signal").Msg("writePump ping")
				return
			}
		case data, ok := <-c.send:
			if !ok {
				log.Warn().Str("module", "signal").Msg("writePump channel closed")
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second)); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump write error")
				return
			}
		}
	}
}

// readPump owns the member's presence: when it returns the member leaves its room.
func (ctl *SignalWSController) readPump(ctx context.Context, sid core.SessionID, c *WsSignalConn) {
	defer func() {
		log.Info().Str("module", "signal").Str("sid", string(sid)).Msg("readPump closing")
		ctl.leaveRoom(sid)
		ctl.Orch.OnDisconnect(sid)
		c.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "signal").Str("sid", string(sid)).Msg("readPump ctx done")
			return
		default:
			_, data, err := c.conn.ReadMessage()
			if err != nil {
				log.Error().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("readPump read error")
				return
			}
			ctl.handleSignal(sid, c, data)
		}
	}
}

func (ctl *SignalWSController) handleSignal(sid core.SessionID, c core.SignalConnection, data []byte) {
	var env struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad json")
		sendError(c, "bad_json")
		return
	}

	switch env.Type {
	case "create_room":
		ctl.handleCreateRoom(sid, c, data)
	case "join":
		ctl.handleJoin(sid, c, data)
	case "leave":
		ctl.handleLeave(sid, c)
	case "ping":
		ctl.handlePing(c)
	case "rename":
		ctl.handleRename(sid, c, data)
	case "whoami":
		ctl.handleWhoAmI(sid, c)
	default:
		log.Warn().Str("module", "signal").Str("type", env.Type).Msg("unknown signal")
		sendError(c, "unknown_type")
	}
}

func marshal(v any) (core.Frame, bool) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("marshal")
		return nil, false
	}
	return b, true
}

func sendJSON(c core.SignalConnection, v any) {
	if b, ok := marshal(v); ok {
		_ = c.TrySend(b)
	}
}

func sendError(c core.SignalConnection, msg string) {
	sendJSON(c, map[string]any{
		"type":  "error",
		"error": msg,
	})
}
