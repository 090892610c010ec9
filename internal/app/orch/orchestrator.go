package orch

import (
	"errors"
	"sync"

	"github.com/dkeye/MeetingRoom/internal/app"
	"github.com/dkeye/MeetingRoom/internal/core"
	"github.com/dkeye/MeetingRoom/internal/domain"
	"github.com/dkeye/MeetingRoom/internal/meeting"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

var ErrRoomNotFound = errors.New("room not found")

// Settings shape every meeting controller the orchestrator opens.
type Settings struct {
	// Meeting is the per-room controller config; SelfID is set to the room owner.
	Meeting   meeting.Config
	ReportFS  afero.Fs
	ReportDir string
}

type Orchestrator struct {
	Registry *app.Registry
	Rooms    core.RoomManager
	Policy   app.Policy
	Settings Settings

	mu       sync.RWMutex
	meetings map[domain.RoomID]*meeting.Controller
}

func New(reg *app.Registry, rooms core.RoomManager, policy app.Policy, settings Settings) *Orchestrator {
	if settings.ReportFS == nil {
		settings.ReportFS = afero.NewOsFs()
	}
	return &Orchestrator{
		Registry: reg,
		Rooms:    rooms,
		Policy:   policy,
		Settings: settings,
		meetings: make(map[domain.RoomID]*meeting.Controller),
	}
}

func (o *Orchestrator) Meeting(id domain.RoomID) (*meeting.Controller, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	m, ok := o.meetings[id]
	return m, ok
}

func (o *Orchestrator) OnFrame(sid core.SessionID, data core.Frame) {
	roomID, _, ok := o.Registry.RoomOf(sid)
	if !ok {
		return
	}
	room, ok := o.Rooms.GetRoom(roomID)
	if !ok {
		return
	}
	o.broadcast(room, sid, data)
}

func (o *Orchestrator) broadcast(room core.RoomService, from core.SessionID, data core.Frame) {
	res := room.Broadcast(from, data)
	if o.Policy == nil {
		return
	}
	for _, slow := range res.Dropped {
		switch o.Policy.OnBackPressure(room, slow) {
		case app.KickMember:
			for _, snap := range o.Registry.MembersOfRoom(room.Room().ID) {
				if snap.Session == slow {
					o.KickBySID(snap.SID)
					o.Registry.Cancel(snap.SID)
				}
			}
		case app.MarkSlow:
			log.Warn().Str("module", "orch").Str("room", string(room.Room().ID)).Str("user", string(slow.Meta().User.ID)).Msg("slow member")
		case app.DropFrame, app.NoAction:
		}
	}
}

// BroadcastRoom sends data to every member of room id.
func (o *Orchestrator) BroadcastRoom(id domain.RoomID, data core.Frame) {
	room, ok := o.Rooms.GetRoom(id)
	if !ok {
		return
	}
	o.broadcast(room, "", data)
}
