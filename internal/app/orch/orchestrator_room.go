package orch

import (
	"context"
	"fmt"

	"github.com/dkeye/MeetingRoom/internal/core"
	"github.com/dkeye/MeetingRoom/internal/domain"
	"github.com/dkeye/MeetingRoom/internal/meeting"
	"github.com/dkeye/MeetingRoom/internal/report"
	"github.com/rs/zerolog/log"
)

// OpenRoom creates a room owned by owner and starts its meeting controller.
// The controller lives until the room is evicted or ctx is done.
func (o *Orchestrator) OpenRoom(ctx context.Context, name string, personal bool, owner domain.UserID) (core.RoomService, *meeting.Controller, error) {
	room, err := o.Rooms.CreateRoom(name, personal)
	if err != nil {
		return nil, nil, fmt.Errorf("open room: %w", err)
	}
	id := room.Room().ID

	cfg := o.Settings.Meeting
	cfg.SelfID = owner
	sink := report.NewFileSink(o.Settings.ReportFS, o.Settings.ReportDir, string(id))
	nav := func(path string) {
		log.Info().Str("module", "orch").Str("room", string(id)).Str("to", path).Msg("room view closed")
	}
	ctrl := meeting.New(&callSession{o: o, room: room}, sink, nav, cfg)

	o.mu.Lock()
	o.meetings[id] = ctrl
	o.mu.Unlock()

	go ctrl.Run(ctx)
	log.Info().Str("module", "orch").Str("room", string(id)).Str("name", name).Bool("personal", personal).Msg("room opened")
	return room, ctrl, nil
}

func (o *Orchestrator) Join(sid core.SessionID, roomID domain.RoomID) error {
	room, ok := o.Rooms.GetRoom(roomID)
	if !ok {
		return ErrRoomNotFound
	}
	if from, _, ok := o.Registry.RoomOf(sid); ok {
		o.KickBySID(sid)
		log.Info().Str("sid", string(sid)).Str("from_room", string(from)).Msg("kicked from room")
	}
	session, ok := o.Registry.GetSession(sid)
	if !ok {
		return fmt.Errorf("join %s: no signal session for %s", roomID, sid)
	}
	room.AddMember(sid, session)
	o.Registry.UpdateRoom(sid, roomID)
	log.Info().Str("sid", string(sid)).Str("room", string(roomID)).Msg("added to room")
	return nil
}

func (o *Orchestrator) KickBySID(sid core.SessionID) {
	roomID, session, ok := o.Registry.RoomOf(sid)
	if !ok {
		return
	}
	if o.Policy != nil {
		o.Policy.Forget(session)
	}
	if room, ok := o.Rooms.GetRoom(roomID); ok {
		room.RemoveMember(sid)
	}
	o.Registry.RemoveRoom(sid)
}

// OnDisconnect runs when the signalling connection of sid goes away.
func (o *Orchestrator) OnDisconnect(sid core.SessionID) {
	o.KickBySID(sid)
	o.Registry.Unbind(sid)
}

// EvictRoom removes every member, stops the room and drops its controller.
func (o *Orchestrator) EvictRoom(id domain.RoomID) {
	for _, snap := range o.Registry.MembersOfRoom(id) {
		o.KickBySID(snap.SID)
	}
	o.Rooms.StopRoom(id)

	o.mu.Lock()
	delete(o.meetings, id)
	o.mu.Unlock()
	log.Info().Str("module", "orch").Str("room", string(id)).Msg("room evicted")
}

// callSession exposes a room to its meeting controller.
type callSession struct {
	o    *Orchestrator
	room core.RoomService
}

func (s *callSession) Presence() <-chan domain.PresenceEvent { return s.room.Presence() }

func (s *callSession) Personal() bool { return s.room.Room().Personal }

func (s *callSession) Leave(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.o.EvictRoom(s.room.Room().ID)
	return nil
}
