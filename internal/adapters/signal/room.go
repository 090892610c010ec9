package signal

import (
	"encoding/json"
	"errors"

	"github.com/dkeye/MeetingRoom/internal/app/orch"
	"github.com/dkeye/MeetingRoom/internal/core"
	"github.com/dkeye/MeetingRoom/internal/domain"
	"github.com/rs/zerolog/log"
)

func (ctl *SignalWSController) handleCreateRoom(
	sid core.SessionID,
	conn core.SignalConnection,
	data []byte,
) {
	type createPayload struct {
		Type     string `json:"type"`
		Name     string `json:"name"`
		Personal bool   `json:"personal"`
	}
	var p createPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad create_room payload")
		sendError(conn, "bad_payload")
		return
	}

	room, _, err := ctl.Orch.OpenRoom(ctl.ctx, p.Name, p.Personal, domain.UserID(sid))
	if err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("create_room")
		sendError(conn, "invalid_room_name")
		return
	}
	resp := struct {
		Type     string          `json:"type"`
		Room     domain.RoomID   `json:"room"`
		RoomName domain.RoomName `json:"room_name"`
		Personal bool            `json:"personal"`
	}{
		Type:     "room_created",
		Room:     room.Room().ID,
		RoomName: room.Room().Name,
		Personal: room.Room().Personal,
	}
	sendJSON(conn, resp)
}

func (ctl *SignalWSController) handleJoin(
	sid core.SessionID,
	conn core.SignalConnection,
	data []byte,
) {
	type joinPayload struct {
		Type string `json:"type"`
		Room string `json:"room"`
		Name string `json:"name,omitempty"`
	}
	var p joinPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad join payload")
		sendError(conn, "bad_payload")
		return
	}
	if !ctl.limiter.Allow(domain.UserID(sid)) {
		log.Warn().Str("module", "signal").Str("sid", string(sid)).Msg("join rate limited")
		sendError(conn, "too_many_joins")
		return
	}

	if p.Name != "" {
		if err := ctl.Orch.Registry.UpdateUsername(sid, p.Name); err != nil {
			sendError(conn, "invalid_name")
			return
		}
		log.Info().Str("module", "signal").Str("sid", string(sid)).Str("name", p.Name).Msg("rename on join")
	}

	roomID := domain.RoomID(p.Room)
	if prev, _, ok := ctl.Orch.Registry.RoomOf(sid); ok && prev != roomID {
		ctl.leaveRoom(sid)
	}

	log.Info().Str("module", "signal").Str("sid", string(sid)).Str("room_id", p.Room).Msg("join")
	if err := ctl.Orch.Join(sid, roomID); err != nil {
		if errors.Is(err, orch.ErrRoomNotFound) {
			sendError(conn, "room is not exists")
			return
		}
		log.Error().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("join failed")
		sendError(conn, "join_failed")
		return
	}
	room, ok := ctl.Orch.Rooms.GetRoom(roomID)
	if !ok {
		sendError(conn, "room is not exists")
		return
	}

	clientResp := struct {
		Type     string           `json:"type"`
		Room     domain.RoomID    `json:"room"`
		RoomName domain.RoomName  `json:"room_name"`
		Personal bool             `json:"personal"`
		Members  []core.MemberDTO `json:"members"`
		Count    int              `json:"count"`
	}{
		Type:     "room_state",
		Room:     room.Room().ID,
		RoomName: room.Room().Name,
		Personal: room.Room().Personal,
		Members:  room.MembersSnapshot(),
		Count:    room.MemberCount(),
	}
	sendJSON(conn, clientResp)

	user, _ := ctl.Orch.Registry.GetOrCreateUser(sid)
	ctl.BroadcastFrom(sid, memberEvent("member_joined", user))
}

// handleLeave leaves the current room; the connection stays open.
func (ctl *SignalWSController) handleLeave(
	sid core.SessionID,
	conn core.SignalConnection,
) {
	log.Info().Str("module", "signal").Str("sid", string(sid)).Msg("leave")
	ctl.leaveRoom(sid)
	sendJSON(conn, map[string]any{
		"type": "left",
	})
}

// leaveRoom removes sid from its room and tells the remaining members.
func (ctl *SignalWSController) leaveRoom(sid core.SessionID) {
	roomID, _, ok := ctl.Orch.Registry.RoomOf(sid)
	if !ok {
		return
	}
	ctl.Orch.KickBySID(sid)
	user, _ := ctl.Orch.Registry.GetOrCreateUser(sid)
	ctl.BroadcastRoom(roomID, memberEvent("member_left", user))
}

func memberEvent(kind string, user *domain.User) any {
	return struct {
		Type string      `json:"type"`
		User domain.User `json:"user"`
	}{
		Type: kind,
		User: *user,
	}
}
