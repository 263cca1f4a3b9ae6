package domain

import "time"

// JoinResult is returned to a participant after start_chat or new_chat.
type JoinResult struct {
	RoomID      RoomID
	UsersInRoom int
}

// RoomStatus is returned by get_room_status.
type RoomStatus struct {
	RoomID      RoomID
	UsersInRoom int
	MemberNames []string
}

// RoomSummary is a read-only view of a room used for inspection.
type RoomSummary struct {
	RoomID      RoomID
	UsersInRoom int
	Messages    int
	CreatedAt   time.Time
}

// Stats counts what the lifecycle engine currently holds.
type Stats struct {
	Rooms       int
	Sessions    int
	Connections int
}
