package runtime

import (
	"fmt"
	"log/slog"
	"time"

	"heybuddy/domain"
	"heybuddy/errors"
	"heybuddy/repositories"

	"github.com/samber/lo"
)

const maxIDAttempts = 10

// IDGenerator hands out fresh room identifiers.
type IDGenerator interface {
	New() domain.RoomID
}

// RoomRegistry owns every live room, its seats and its message log.
//
// Rooms are kept in creation order so that matchmaking is deterministic.
// Like SessionRegistry it relies on the Orchestrator lock.
type RoomRegistry struct {
	log      *slog.Logger
	rooms    map[domain.RoomID]*domain.Room
	order    []domain.RoomID
	messages repositories.IMessageRepository
	idg      IDGenerator
	now      func() time.Time
}

func NewRoomRegistry(log *slog.Logger, messages repositories.IMessageRepository, idg IDGenerator) *RoomRegistry {
	return &RoomRegistry{
		log:      log,
		rooms:    make(map[domain.RoomID]*domain.Room),
		messages: messages,
		idg:      idg,
		now:      time.Now,
	}
}

// FindAvailableRoom returns the first room, in creation order, with a free seat.
func (r *RoomRegistry) FindAvailableRoom() (domain.RoomID, bool) {
	for _, id := range r.order {
		if !r.rooms[id].IsFull() {
			return id, true
		}
	}
	return "", false
}

// CreateRoom allocates an empty room under a never used identifier.
func (r *RoomRegistry) CreateRoom() (domain.RoomID, error) {
	for i := 0; i < maxIDAttempts; i++ {
		id := r.idg.New()
		if _, exists := r.rooms[id]; exists {
			r.log.Warn("Room id collision, generating a new one", "room_id", id)
			continue
		}
		r.rooms[id] = domain.NewRoom(id, r.now())
		r.order = append(r.order, id)
		r.log.Debug("Room created", "room_id", id)
		return id, nil
	}
	return "", errors.ErrRoomIDGeneration
}

// Join seats conn in the room and returns the new membership count.
func (r *RoomRegistry) Join(roomID domain.RoomID, conn domain.ConnectionID, displayName string) (int, error) {
	room, ok := r.rooms[roomID]
	if !ok {
		return 0, errors.ErrRoomNotFound
	}
	added := room.AddMember(domain.Member{
		Connection:  conn,
		DisplayName: displayName,
		JoinedAt:    r.now(),
	})
	if !added {
		return len(room.Members), fmt.Errorf("%w: %s", errors.ErrRoomFull, roomID)
	}
	return len(room.Members), nil
}

// Leave frees the seat of conn. When nobody is left the room and its log are
// deleted within the same call, so an empty room is never observable.
func (r *RoomRegistry) Leave(roomID domain.RoomID, conn domain.ConnectionID) (remaining int, deleted bool, err error) {
	room, ok := r.rooms[roomID]
	if !ok {
		return 0, false, errors.ErrRoomNotFound
	}
	if !room.RemoveMember(conn) {
		r.log.Warn("Connection was not seated in room", "room_id", roomID, "connection_id", conn)
	}
	if room.IsEmpty() {
		r.delete(roomID)
		return 0, true, nil
	}
	return len(room.Members), false, nil
}

// Prune deletes roomID if it has no member left.
func (r *RoomRegistry) Prune(roomID domain.RoomID) bool {
	room, ok := r.rooms[roomID]
	if !ok || !room.IsEmpty() {
		return false
	}
	r.delete(roomID)
	return true
}

func (r *RoomRegistry) delete(roomID domain.RoomID) {
	delete(r.rooms, roomID)
	r.order = lo.Without(r.order, roomID)
	// The room is gone either way; a stale log is unreachable under a never reused id
	if err := r.messages.Drop(roomID); err != nil {
		r.log.Error("Failed to drop room log", "room_id", roomID, "error", err)
	}
	r.log.Debug("Room deleted (empty)", "room_id", roomID)
}

// Append adds a message at the end of the room log.
func (r *RoomRegistry) Append(roomID domain.RoomID, message domain.Message) error {
	if _, ok := r.rooms[roomID]; !ok {
		return errors.ErrRoomNotFound
	}
	if err := r.messages.Append(roomID, message); err != nil {
		return errors.Internal(err)
	}
	return nil
}

// History returns the room log, oldest first.
func (r *RoomRegistry) History(roomID domain.RoomID) ([]domain.Message, error) {
	if _, ok := r.rooms[roomID]; !ok {
		return nil, errors.ErrRoomNotFound
	}
	messages, err := r.messages.List(roomID)
	if err != nil {
		return nil, errors.Internal(err)
	}
	return messages, nil
}

// Room returns a detached copy of the room.
func (r *RoomRegistry) Room(roomID domain.RoomID) (domain.Room, bool) {
	room, ok := r.rooms[roomID]
	if !ok {
		return domain.Room{}, false
	}
	return room.Snapshot(), true
}

func (r *RoomRegistry) Summaries() []domain.RoomSummary {
	return lo.Map(r.order, func(id domain.RoomID, _ int) domain.RoomSummary {
		room := r.rooms[id]
		count, err := r.messages.Count(id)
		if err != nil {
			r.log.Warn("Failed to count room messages", "room_id", id, "error", err)
		}
		return domain.RoomSummary{
			RoomID:      id,
			UsersInRoom: len(room.Members),
			Messages:    count,
			CreatedAt:   room.CreatedAt,
		}
	})
}

func (r *RoomRegistry) Len() int {
	return len(r.rooms)
}
