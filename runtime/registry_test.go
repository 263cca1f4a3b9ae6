package runtime

import (
	"testing"

	"heybuddy/domain"
	"heybuddy/errors"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestSessionRegistry_Create_And_Lookup(t *testing.T) {
	req := require.New(t)
	registry := NewSessionRegistry()
	conn := domain.ConnectionID(uuid.NewString())

	// Given no session exists
	_, ok := registry.Lookup(conn)
	req.False(ok)

	// When a session is created
	req.NoError(registry.Create(conn, "alice", "room_1"))

	// Then it can be looked up
	session, ok := registry.Lookup(conn)
	req.True(ok)
	req.Equal(domain.Session{Connection: conn, DisplayName: "alice", Room: "room_1"}, session)
	req.Equal(1, registry.Len())
}

func TestSessionRegistry_Create_Never_Overwrites(t *testing.T) {
	req := require.New(t)
	registry := NewSessionRegistry()
	conn := domain.ConnectionID(uuid.NewString())
	req.NoError(registry.Create(conn, "alice", "room_1"))

	// When the same connection registers again
	err := registry.Create(conn, "mallory", "room_2")

	// Then it is refused and the first session is kept
	req.ErrorIs(err, errors.ErrAlreadyInRoom)
	session, _ := registry.Lookup(conn)
	req.Equal("alice", session.DisplayName)
	req.Equal(domain.RoomID("room_1"), session.Room)
}

func TestSessionRegistry_Remove(t *testing.T) {
	req := require.New(t)
	registry := NewSessionRegistry()
	conn1 := domain.ConnectionID(uuid.NewString())
	conn2 := domain.ConnectionID(uuid.NewString())
	req.NoError(registry.Create(conn1, "alice", "room_1"))
	req.NoError(registry.Create(conn2, "bob", "room_1"))

	// When a participant is removed
	registry.Remove(conn1)

	// Then only the other participant is left
	_, ok := registry.Lookup(conn1)
	req.False(ok)
	_, ok = registry.Lookup(conn2)
	req.True(ok)
	req.Equal(1, registry.Len())

	// And removing an absent session is a no-op
	registry.Remove(conn1)
	req.Equal(1, registry.Len())
}
