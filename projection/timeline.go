// Package projection builds the local view a participant has of its room
// from the events it receives. It does not emit events.
package projection

import (
	"context"
	"sync"

	"heybuddy/domain"
	"heybuddy/domain/event"
)

// Timeline holds the messages of the current room as seen by one participant.
type Timeline struct {
	mu          sync.Mutex
	Owner       string
	Room        domain.RoomID
	UsersInRoom int
	Messages    []domain.Message
}

func NewTimeline(owner string) *Timeline {
	return &Timeline{Owner: owner}
}

// Consume applies e. A history replaces the timeline, since it is only
// received right after joining a room.
func (t *Timeline) Consume(_ context.Context, e event.DomainEvent) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch evt := e.(type) {
	case event.History:
		t.Room = evt.Room
		t.Messages = append([]domain.Message(nil), evt.Messages...)
	case event.MessagePosted:
		if evt.Room != t.Room {
			return nil
		}
		t.Messages = append(t.Messages, evt.Message)
	case event.Joined:
		t.Room = evt.Room
		t.UsersInRoom = evt.UsersInRoom
	case event.Left:
		t.UsersInRoom = evt.UsersInRoom
	}
	return nil
}

// IsOwn reports whether m was written under the owner's display name.
// Names are not unique, so this is a display hint only.
func (t *Timeline) IsOwn(m domain.Message) bool {
	return m.Author == t.Owner
}

// Reset forgets the current room, e.g. after leaving it.
func (t *Timeline) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.Room = ""
	t.UsersInRoom = 0
	t.Messages = nil
}

func (t *Timeline) Snapshot() []domain.Message {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]domain.Message(nil), t.Messages...)
}
