package app

import (
	"context"
	"sync"

	"github.com/dkeye/MeetingRoom/internal/core"
	"github.com/dkeye/MeetingRoom/internal/domain"
)

// RoomManagerImpl keeps rooms by id. Rooms share the manager's lifetime.
type RoomManagerImpl struct {
	ctx    context.Context
	buffer int

	mu    sync.RWMutex
	rooms map[domain.RoomID]core.RoomService
}

// NewRoomManager returns a RoomManager whose rooms buffer up to
// presenceBuffer presence events each.
func NewRoomManager(ctx context.Context, presenceBuffer int) core.RoomManager {
	return &RoomManagerImpl{
		ctx:    ctx,
		buffer: presenceBuffer,
		rooms:  make(map[domain.RoomID]core.RoomService),
	}
}

func (m *RoomManagerImpl) CreateRoom(name string, personal bool) (core.RoomService, error) {
	meta, err := domain.NewRoom(name, personal)
	if err != nil {
		return nil, err
	}
	room := core.NewRoomService(m.ctx, meta, m.buffer)
	m.mu.Lock()
	m.rooms[meta.ID] = room
	m.mu.Unlock()
	return room, nil
}

func (m *RoomManagerImpl) GetRoom(id domain.RoomID) (core.RoomService, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	room, ok := m.rooms[id]
	return room, ok
}

func (m *RoomManagerImpl) List() []core.RoomInfo {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]core.RoomInfo, 0, len(m.rooms))
	for id, r := range m.rooms {
		meta := r.Room()
		out = append(out, core.RoomInfo{ID: id, Name: meta.Name, Personal: meta.Personal, MemberCount: r.MemberCount()})
	}
	return out
}

func (m *RoomManagerImpl) StopRoom(id domain.RoomID) {
	m.mu.Lock()
	room, ok := m.rooms[id]
	delete(m.rooms, id)
	m.mu.Unlock()
	if ok {
		room.Close()
	}
}
