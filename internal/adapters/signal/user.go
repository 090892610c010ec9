package signal

import (
	"encoding/json"

	"github.com/dkeye/MeetingRoom/internal/core"
	"github.com/dkeye/MeetingRoom/internal/domain"
	"github.com/rs/zerolog/log"
)

func (ctl *SignalWSController) handleRename(
	sid core.SessionID,
	conn core.SignalConnection,
	data []byte,
) {
	type renamePayload struct {
		Type string `json:"type"`
		Name string `json:"name"`
	}
	var p renamePayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad rename payload")
		sendError(conn, "bad_payload")
		return
	}

	log.Info().Str("module", "signal").Str("sid", string(sid)).Str("name", p.Name).Msg("rename")
	if err := ctl.Orch.Registry.UpdateUsername(sid, p.Name); err != nil {
		sendError(conn, "invalid_name")
		return
	}
	ctl.handleWhoAmI(sid, conn)
	user, _ := ctl.Orch.Registry.GetOrCreateUser(sid)
	ctl.BroadcastFrom(sid, memberEvent("member_updated", user))
}

func (ctl *SignalWSController) handleWhoAmI(
	sid core.SessionID,
	conn core.SignalConnection,
) {
	user, _ := ctl.Orch.Registry.GetOrCreateUser(sid)

	resp := struct {
		Type     string          `json:"type"`
		ID       domain.UserID   `json:"id"`
		Username string          `json:"username"`
		Room     domain.RoomID   `json:"room,omitempty"`
		RoomName domain.RoomName `json:"room_name,omitempty"`
	}{
		Type:     "whoami",
		ID:       user.ID,
		Username: user.Username,
	}
	if roomID, _, ok := ctl.Orch.Registry.RoomOf(sid); ok {
		if room, ok := ctl.Orch.Rooms.GetRoom(roomID); ok {
			resp.RoomName = room.Room().Name
			resp.Room = roomID
		}
	}
	sendJSON(conn, resp)
}
