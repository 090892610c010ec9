package core

import (
	"context"
	"sync"

	"github.com/dkeye/MeetingRoom/internal/domain"
	"github.com/rs/zerolog/log"
)

// roomImpl is a threadsafe in-memory room.
// It never closes adapter-owned resources.
type roomImpl struct {
	room *domain.Room
	ctx  context.Context

	mu       sync.RWMutex
	bySID    map[SessionID]MemberSession
	byUser   map[domain.UserID]SessionID
	presence chan domain.PresenceEvent
	closed   bool
}

// NewRoomService builds a room whose presence channel holds up to buffer
// pending events. Publication gives up once ctx is done.
func NewRoomService(ctx context.Context, room *domain.Room, buffer int) RoomService {
	if buffer < 0 {
		buffer = 0
	}
	return &roomImpl{
		room:     room,
		ctx:      ctx,
		bySID:    make(map[SessionID]MemberSession),
		byUser:   make(map[domain.UserID]SessionID),
		presence: make(chan domain.PresenceEvent, buffer),
	}
}

func (r *roomImpl) Room() *domain.Room { return r.room }

func (r *roomImpl) Presence() <-chan domain.PresenceEvent { return r.presence }

func (r *roomImpl) MemberCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.bySID)
}

func (r *roomImpl) AddMember(sid SessionID, ms MemberSession) {
	u := ms.Meta().User.ID
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bySID[sid] = ms
	r.byUser[u] = sid
	r.publishLocked(domain.PresenceEvent{Kind: domain.PresenceJoined, AttendeeID: u})
	log.Info().Str("module", "core.room").Str("sid", string(sid)).Str("user", string(u)).Msg("member added")
}

// RemoveMember reports whether sid was a member.
func (r *roomImpl) RemoveMember(sid SessionID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	ms, ok := r.bySID[sid]
	if !ok {
		return false
	}
	u := ms.Meta().User.ID
	delete(r.byUser, u)
	delete(r.bySID, sid)
	r.publishLocked(domain.PresenceEvent{Kind: domain.PresenceLeft, AttendeeID: u})
	log.Info().Str("module", "core.room").Str("sid", string(sid)).Msg("member removed")
	return true
}

// publishLocked must be called with r.mu held so events keep membership order.
func (r *roomImpl) publishLocked(ev domain.PresenceEvent) {
	if r.closed {
		return
	}
	select {
	case r.presence <- ev:
	case <-r.ctx.Done():
		log.Warn().Str("module", "core.room").Str("room", string(r.room.ID)).Str("kind", string(ev.Kind)).Msg("presence event dropped on shutdown")
	}
}

func (r *roomImpl) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	r.closed = true
	close(r.presence)
}

func (r *roomImpl) Broadcast(from SessionID, data Frame) PublishResult {
	r.mu.RLock()
	defer r.mu.RUnlock()
	res := PublishResult{}
	for sid, m := range r.bySID {
		if sid == from {
			continue
		}
		if m.Signal() == nil {
			continue
		}
		if err := m.Signal().TrySend(data); err != nil {
			res.Dropped = append(res.Dropped, m)
			continue
		}
		res.SendTo++
	}
	log.Debug().Str("module", "core.room").Str("from", string(from)).Int("sent_to", res.SendTo).Int("dropped", len(res.Dropped)).Msg("broadcast result")
	return res
}

func (r *roomImpl) MembersSnapshot() []MemberDTO {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]MemberDTO, 0, len(r.bySID))
	for _, ms := range r.bySID {
		u := ms.Meta().User
		out = append(out, MemberDTO{ID: u.ID, Username: u.Username})
	}
	return out
}
