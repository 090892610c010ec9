package domain

import (
	"errors"

	"github.com/google/uuid"
)

const MaxRoomNameLen = 36

var ErrRoomNameEmpty = errors.New("room name empty")

type (
	RoomName string
	RoomID   string
)

type Room struct {
	ID   RoomID
	Name RoomName
	// Personal marks an ad-hoc room owned by a single user. Such rooms
	// don't offer the "end call for everyone" control.
	Personal bool
}

// NewRoom assigns a fresh id and truncates over-long names.
func NewRoom(name string, personal bool) (*Room, error) {
	if name == "" {
		return nil, ErrRoomNameEmpty
	}
	if len(name) > MaxRoomNameLen {
		name = name[:MaxRoomNameLen]
	}
	return &Room{
		ID:       RoomID(uuid.NewString()),
		Name:     RoomName(name),
		Personal: personal,
	}, nil
}
