package app

import (
	"sync"

	"github.com/dkeye/MeetingRoom/internal/core"
)

type BackpressureAction int

const (
	NoAction BackpressureAction = iota
	MarkSlow
	KickMember
	DropFrame
)

// Policy decides what happens to a member whose signalling queue is full.
type Policy interface {
	OnBackPressure(room core.RoomService, member core.MemberSession) BackpressureAction
	// Forget drops whatever is tracked for a member that left its room.
	Forget(member core.MemberSession)
}

// StrikePolicy marks a member slow on each dropped frame and kicks it once
// it reaches the limit. A kicked member's exit lands in the attendance
// history like any other leave.
type StrikePolicy struct {
	limit int

	mu      sync.Mutex
	strikes map[core.MemberSession]int
}

// NewStrikePolicy kicks on the limit-th drop; limit <= 1 kicks immediately.
func NewStrikePolicy(limit int) *StrikePolicy {
	if limit < 1 {
		limit = 1
	}
	return &StrikePolicy{limit: limit, strikes: make(map[core.MemberSession]int)}
}

func (p *StrikePolicy) OnBackPressure(_ core.RoomService, member core.MemberSession) BackpressureAction {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.strikes[member]++
	if p.strikes[member] < p.limit {
		return MarkSlow
	}
	delete(p.strikes, member)
	return KickMember
}

func (p *StrikePolicy) Forget(member core.MemberSession) {
	p.mu.Lock()
	delete(p.strikes, member)
	p.mu.Unlock()
}
