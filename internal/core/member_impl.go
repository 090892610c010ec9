package core

import "github.com/dkeye/MeetingRoom/internal/domain"

// memberSession implements MemberSession by pairing meta + transport.
type memberSession struct {
	meta   *domain.Member
	signal SignalConnection
}

func NewMemberSession(meta *domain.Member) MemberSession {
	return &memberSession{meta: meta}
}

func (m *memberSession) Meta() *domain.Member     { return m.meta }
func (m *memberSession) Signal() SignalConnection { return m.signal }

func (m *memberSession) UpdateSignal(sc SignalConnection) MemberSession {
	m.signal = sc
	return m
}
