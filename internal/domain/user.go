// Package domain contains entity without logic, just meta-data
package domain

import "errors"

const MaxUsernameLen = 36

var (
	ErrUsernameTooLong = errors.New("username too long")
	ErrUsernameEmpty   = errors.New("username empty")
)

// UserID doubles as the attendee id in attendance records.
type UserID string

type User struct {
	ID       UserID `json:"id"`
	Username string `json:"username"`
}

// Guest builds the placeholder user for a freshly connected client.
func Guest(id UserID) *User {
	return &User{ID: id, Username: "guest"}
}

func (u *User) SetUsername(username string) error {
	if err := validateUsername(username); err != nil {
		return err
	}
	u.Username = username
	return nil
}

func validateUsername(username string) error {
	if len(username) == 0 {
		return ErrUsernameEmpty
	}
	if len(username) > MaxUsernameLen {
		return ErrUsernameTooLong
	}
	return nil
}

// Member is a user's presence in one room.
type Member struct {
	User *User
}

func NewMember(user *User) *Member {
	return &Member{User: user}
}
