package runtime

import (
	"log/slog"

	"heybuddy/domain"
)

// Matchmaker seats an arriving connection in the first room with a free seat,
// creating a room when every existing one is full.
type Matchmaker struct {
	log   *slog.Logger
	rooms *RoomRegistry
}

func NewMatchmaker(log *slog.Logger, rooms *RoomRegistry) *Matchmaker {
	return &Matchmaker{log: log, rooms: rooms}
}

// Assign returns the room conn was seated in and its membership count.
func (m *Matchmaker) Assign(conn domain.ConnectionID, displayName string) (domain.RoomID, int, error) {
	roomID, ok := m.rooms.FindAvailableRoom()
	if !ok {
		var err error
		if roomID, err = m.rooms.CreateRoom(); err != nil {
			return "", 0, err
		}
	}

	users, err := m.rooms.Join(roomID, conn, displayName)
	if err != nil {
		// A freshly created room must not outlive a failed join
		m.rooms.Prune(roomID)
		return "", 0, err
	}
	m.log.Debug("Connection matched", "connection_id", conn, "room_id", roomID, "users_in_room", users)
	return roomID, users, nil
}
