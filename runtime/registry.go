package runtime

import (
	"heybuddy/domain"
	"heybuddy/errors"
)

// SessionRegistry maps a connection to the room it occupies.
//
// It holds no lock of its own: the Orchestrator serializes every access
// together with the RoomRegistry, so both registries change atomically.
type SessionRegistry struct {
	sessions map[domain.ConnectionID]domain.Session
}

func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{
		sessions: make(map[domain.ConnectionID]domain.Session),
	}
}

// Create registers a session for conn.
// It never overwrites: an existing session yields ErrAlreadyInRoom.
func (r *SessionRegistry) Create(conn domain.ConnectionID, displayName string, roomID domain.RoomID) error {
	if _, ok := r.sessions[conn]; ok {
		return errors.ErrAlreadyInRoom
	}
	r.sessions[conn] = domain.Session{
		Connection:  conn,
		DisplayName: displayName,
		Room:        roomID,
	}
	return nil
}

// Lookup returns the session of conn. A missing session is a normal state.
func (r *SessionRegistry) Lookup(conn domain.ConnectionID) (domain.Session, bool) {
	session, ok := r.sessions[conn]
	return session, ok
}

// Remove deletes the session of conn, if any.
func (r *SessionRegistry) Remove(conn domain.ConnectionID) {
	delete(r.sessions, conn)
}

func (r *SessionRegistry) Len() int {
	return len(r.sessions)
}
