package event

import (
	"fmt"

	"heybuddy/domain"
)

type Type string

const (
	JoinedType  Type = "joined"
	LeftType    Type = "left"
	MessageType Type = "message"
	HistoryType Type = "history"
)

// DomainEvent is something a participant observes about its room.
type DomainEvent interface {
	Type() Type
	RoomID() domain.RoomID
}

// Joined is sent to every member, the newcomer included.
type Joined struct {
	Room         domain.RoomID
	DisplayName  string
	UsersInRoom  int
	Announcement string
}

func NewJoined(room domain.RoomID, displayName string, usersInRoom int) Joined {
	return Joined{
		Room:         room,
		DisplayName:  displayName,
		UsersInRoom:  usersInRoom,
		Announcement: fmt.Sprintf("%s joined the chat", displayName),
	}
}

func (j Joined) Type() Type            { return JoinedType }
func (j Joined) RoomID() domain.RoomID { return j.Room }

// Left is sent to the members remaining after a departure.
type Left struct {
	Room         domain.RoomID
	DisplayName  string
	UsersInRoom  int
	Announcement string
}

func NewLeft(room domain.RoomID, displayName string, usersInRoom int) Left {
	return Left{
		Room:         room,
		DisplayName:  displayName,
		UsersInRoom:  usersInRoom,
		Announcement: fmt.Sprintf("%s left the chat", displayName),
	}
}

func (l Left) Type() Type            { return LeftType }
func (l Left) RoomID() domain.RoomID { return l.Room }

// MessagePosted is a live relay of one appended message.
type MessagePosted struct {
	Room    domain.RoomID
	Message domain.Message
}

func (m MessagePosted) Type() Type            { return MessageType }
func (m MessagePosted) RoomID() domain.RoomID { return m.Room }

// History is the catch-up snapshot of a room log, delivered once to a newcomer.
type History struct {
	Room     domain.RoomID
	Messages []domain.Message
}

func (h History) Type() Type            { return HistoryType }
func (h History) RoomID() domain.RoomID { return h.Room }
