package domain

type PresenceKind string

const (
	PresenceJoined PresenceKind = "joined"
	PresenceLeft   PresenceKind = "left"
)

// PresenceEvent is a join or exit notification from the call session.
type PresenceEvent struct {
	Kind       PresenceKind `json:"kind"`
	AttendeeID UserID       `json:"attendee_id"`
}
