package domain

import (
	"time"

	"github.com/samber/lo"
)

// RoomCapacity is the number of participants a room pairs together.
const RoomCapacity = 2

type RoomID string

// Member is a connection occupying a seat in a room.
type Member struct {
	Connection  ConnectionID
	DisplayName string
	JoinedAt    time.Time
}

// Room is a two-seat conversation unit. Members are kept in join order.
// The message log of a room is kept by the room registry, not here.
type Room struct {
	ID        RoomID
	Members   []Member
	CreatedAt time.Time
}

func NewRoom(id RoomID, createdAt time.Time) *Room {
	return &Room{
		ID:        id,
		Members:   nil,
		CreatedAt: createdAt,
	}
}

func (r *Room) IsFull() bool {
	return len(r.Members) >= RoomCapacity
}

func (r *Room) IsEmpty() bool {
	return len(r.Members) == 0
}

// AddMember appends a member at the end of the seat list.
// It reports false when the room is already full.
func (r *Room) AddMember(m Member) bool {
	if r.IsFull() {
		return false
	}
	r.Members = append(r.Members, m)
	return true
}

// RemoveMember drops the seat held by conn and reports whether one was found.
func (r *Room) RemoveMember(conn ConnectionID) bool {
	before := len(r.Members)
	r.Members = lo.Filter(r.Members, func(m Member, _ int) bool {
		return m.Connection != conn
	})
	return len(r.Members) != before
}

func (r *Room) HasMember(conn ConnectionID) bool {
	return lo.ContainsBy(r.Members, func(m Member) bool {
		return m.Connection == conn
	})
}

func (r *Room) MemberNames() []string {
	return lo.Map(r.Members, func(m Member, _ int) string {
		return m.DisplayName
	})
}

// Snapshot returns a copy that shares nothing mutable with r.
func (r *Room) Snapshot() Room {
	members := make([]Member, len(r.Members))
	copy(members, r.Members)
	return Room{ID: r.ID, Members: members, CreatedAt: r.CreatedAt}
}
