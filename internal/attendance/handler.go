package attendance

import (
	"context"
	"sync"
	"time"

	"github.com/dkeye/MeetingRoom/internal/domain"
	"github.com/rs/zerolog/log"
)

// Handler turns presence events into Store mutations.
type Handler struct {
	store *Store
	now   func() time.Time

	mu sync.Mutex
	// implicit holds ids whose join was recorded before the session announced it.
	implicit map[domain.UserID]struct{}
}

// NewHandler returns a Handler writing to store. A nil now uses time.Now.
func NewHandler(store *Store, now func() time.Time) *Handler {
	if now == nil {
		now = time.Now
	}
	return &Handler{store: store, now: now, implicit: make(map[domain.UserID]struct{})}
}

// OnImplicitJoin records id as present without waiting for the session.
// The first announced join of id that follows is absorbed into this record
// as long as it is still open.
func (h *Handler) OnImplicitJoin(id domain.UserID) {
	h.mu.Lock()
	h.implicit[id] = struct{}{}
	h.mu.Unlock()
	h.append(id)
}

func (h *Handler) OnJoin(id domain.UserID) {
	if h.absorb(id) {
		log.Debug().Str("module", "attendance.handler").Str("attendee", string(id)).Msg("join already recorded")
		return
	}
	h.append(id)
}

func (h *Handler) absorb(id domain.UserID) bool {
	h.mu.Lock()
	_, pending := h.implicit[id]
	delete(h.implicit, id)
	h.mu.Unlock()
	return pending && h.store.HasOpen(id)
}

func (h *Handler) append(id domain.UserID) {
	h.store.Append(domain.NewAttendanceRecord(id, h.now()))
	log.Debug().Str("module", "attendance.handler").Str("attendee", string(id)).Msg("join recorded")
}

// OnExit is a no-op for ids without an open record; presence delivery is
// not exactly-once.
func (h *Handler) OnExit(id domain.UserID) {
	h.mu.Lock()
	delete(h.implicit, id)
	h.mu.Unlock()
	if h.store.MarkExit(id, h.now().UnixMilli()) {
		log.Debug().Str("module", "attendance.handler").Str("attendee", string(id)).Msg("exit recorded")
	}
}

func (h *Handler) Handle(ev domain.PresenceEvent) {
	switch ev.Kind {
	case domain.PresenceJoined:
		h.OnJoin(ev.AttendeeID)
	case domain.PresenceLeft:
		h.OnExit(ev.AttendeeID)
	default:
		log.Warn().Str("module", "attendance.handler").Str("kind", string(ev.Kind)).Msg("unknown presence event")
	}
}

// Run drains events in arrival order until the channel is closed or ctx is done.
func (h *Handler) Run(ctx context.Context, events <-chan domain.PresenceEvent) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			h.Handle(ev)
		}
	}
}
