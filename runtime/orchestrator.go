// Package runtime holds the room lifecycle engine: registries, matchmaking,
// and the orchestrator that turns participant actions into state changes and events.
package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"heybuddy/contract"
	"heybuddy/domain"
	"heybuddy/domain/event"
	"heybuddy/errors"

	"github.com/google/uuid"
)

var _ contract.IOrchestrator = (*Orchestrator)(nil)

// Orchestrator is the entry point of every participant action.
//
// A single mutex guards the session registry, the room registry and the sink
// directory together: each action is one critical section, events included,
// so the order in which members observe messages is the append order.
type Orchestrator struct {
	mu          sync.Mutex
	log         *slog.Logger
	sessions    *SessionRegistry
	rooms       *RoomRegistry
	matchmaker  *Matchmaker
	sinks       map[domain.ConnectionID]contract.EventSink
	observers   []contract.EventSink
	sinkTimeout time.Duration
	now         func() time.Time
}

func NewOrchestrator(log *slog.Logger, sessions *SessionRegistry, rooms *RoomRegistry,
	matchmaker *Matchmaker, sinkTimeout time.Duration) *Orchestrator {
	return &Orchestrator{
		log:         log,
		sessions:    sessions,
		rooms:       rooms,
		matchmaker:  matchmaker,
		sinks:       make(map[domain.ConnectionID]contract.EventSink),
		sinkTimeout: sinkTimeout,
		now:         time.Now,
	}
}

// Observe registers sinks receiving every event broadcast to any room.
func (o *Orchestrator) Observe(sinks ...contract.EventSink) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.observers = append(o.observers, sinks...)
}

// Connect attaches the outbound sink of a freshly opened connection.
// The connection stays anonymous until it starts a chat.
func (o *Orchestrator) Connect(conn domain.ConnectionID, sink contract.EventSink) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.sinks[conn] = sink
	o.log.Debug("Connection attached", "connection_id", conn)
}

// StartChat matches conn into a room. It refuses a connection already in a room.
func (o *Orchestrator) StartChat(ctx context.Context, conn domain.ConnectionID, displayName string) (res domain.JoinResult, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	defer o.recoverAction("start_chat", conn, &err)

	if _, ok := o.sessions.Lookup(conn); ok {
		return domain.JoinResult{}, errors.ErrAlreadyInRoom
	}
	return o.join(ctx, conn, displayName)
}

// NewChat leaves the current room, if any, then matches conn again.
func (o *Orchestrator) NewChat(ctx context.Context, conn domain.ConnectionID, displayName string) (res domain.JoinResult, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	defer o.recoverAction("new_chat", conn, &err)

	if session, ok := o.sessions.Lookup(conn); ok {
		o.leave(ctx, session)
	}
	return o.join(ctx, conn, displayName)
}

// SendMessage appends text to the room log of conn and relays it to every member, sender included.
func (o *Orchestrator) SendMessage(ctx context.Context, conn domain.ConnectionID, text string) (err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	defer o.recoverAction("send_message", conn, &err)

	session, ok := o.sessions.Lookup(conn)
	if !ok {
		return errors.ErrNotInRoom
	}

	message := domain.Message{
		ID:               uuid.New(),
		Author:           session.DisplayName,
		Text:             text,
		At:               o.now().UTC(),
		AuthorConnection: conn,
	}
	if err := o.rooms.Append(session.Room, message); err != nil {
		return err
	}

	room, _ := o.rooms.Room(session.Room)
	o.broadcast(ctx, room, event.MessagePosted{Room: session.Room, Message: message})
	return nil
}

// LeaveChat makes conn anonymous again without closing its connection.
func (o *Orchestrator) LeaveChat(ctx context.Context, conn domain.ConnectionID) (err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	defer o.recoverAction("leave_chat", conn, &err)

	session, ok := o.sessions.Lookup(conn)
	if !ok {
		return errors.ErrNotInRoom
	}
	o.leave(ctx, session)
	return nil
}

// RoomStatus reports the room of conn and who sits in it. It changes nothing.
func (o *Orchestrator) RoomStatus(_ context.Context, conn domain.ConnectionID) (status domain.RoomStatus, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	defer o.recoverAction("get_room_status", conn, &err)

	session, ok := o.sessions.Lookup(conn)
	if !ok {
		return domain.RoomStatus{}, errors.ErrNotInRoom
	}
	room, ok := o.rooms.Room(session.Room)
	if !ok {
		o.log.Warn("Session references a missing room", "connection_id", conn, "room_id", session.Room)
		return domain.RoomStatus{RoomID: session.Room, MemberNames: []string{}}, nil
	}
	return domain.RoomStatus{
		RoomID:      room.ID,
		UsersInRoom: len(room.Members),
		MemberNames: room.MemberNames(),
	}, nil
}

// Disconnect is called by the transport once a connection is gone.
// There is nobody to answer to, so failures are only logged.
func (o *Orchestrator) Disconnect(ctx context.Context, conn domain.ConnectionID) {
	o.mu.Lock()
	defer o.mu.Unlock()

	var err error
	defer func() {
		if err != nil {
			o.log.Error("Error in disconnect", "connection_id", conn, "error", err)
		}
	}()
	defer o.recoverAction("disconnect", conn, &err)

	if session, ok := o.sessions.Lookup(conn); ok {
		o.leave(ctx, session)
		o.log.Info("User disconnected", "display_name", session.DisplayName, "connection_id", conn)
	}
	delete(o.sinks, conn)
}

// Rooms lists live rooms in creation order.
func (o *Orchestrator) Rooms() []domain.RoomSummary {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.rooms.Summaries()
}

func (o *Orchestrator) Stats() domain.Stats {
	o.mu.Lock()
	defer o.mu.Unlock()
	return domain.Stats{
		Rooms:       o.rooms.Len(),
		Sessions:    o.sessions.Len(),
		Connections: len(o.sinks),
	}
}

// join seats conn, registers its session, announces it to the room
// and hands the newcomer the room log as it is at this instant.
func (o *Orchestrator) join(ctx context.Context, conn domain.ConnectionID, displayName string) (domain.JoinResult, error) {
	roomID, users, err := o.matchmaker.Assign(conn, displayName)
	if err != nil {
		return domain.JoinResult{}, classify(err)
	}
	if err := o.sessions.Create(conn, displayName, roomID); err != nil {
		o.undoSeat(roomID, conn)
		return domain.JoinResult{}, err
	}
	history, err := o.rooms.History(roomID)
	if err != nil {
		o.sessions.Remove(conn)
		o.undoSeat(roomID, conn)
		return domain.JoinResult{}, classify(err)
	}

	room, _ := o.rooms.Room(roomID)
	o.broadcast(ctx, room, event.NewJoined(roomID, displayName, users))
	o.deliver(ctx, conn, event.History{Room: roomID, Messages: history})

	o.log.Info("User joined room",
		"display_name", displayName,
		"connection_id", conn,
		"room_id", roomID,
		"users_in_room", users)
	return domain.JoinResult{RoomID: roomID, UsersInRoom: users}, nil
}

// leave frees the seat of the session, tells whoever is left, and always drops the session.
func (o *Orchestrator) leave(ctx context.Context, session domain.Session) {
	defer o.sessions.Remove(session.Connection)

	remaining, deleted, err := o.rooms.Leave(session.Room, session.Connection)
	if err != nil {
		o.log.Warn("Leaving a room that no longer exists",
			"connection_id", session.Connection, "room_id", session.Room, "error", err)
		return
	}
	if deleted {
		o.log.Info("Room deleted (empty)", "room_id", session.Room)
		return
	}

	room, _ := o.rooms.Room(session.Room)
	o.broadcast(ctx, room, event.NewLeft(session.Room, session.DisplayName, remaining))
	o.log.Info("User left room",
		"display_name", session.DisplayName,
		"room_id", session.Room,
		"users_in_room", remaining)
}

func (o *Orchestrator) undoSeat(roomID domain.RoomID, conn domain.ConnectionID) {
	if _, _, err := o.rooms.Leave(roomID, conn); err != nil {
		o.log.Error("Failed to undo seat", "room_id", roomID, "connection_id", conn, "error", err)
	}
}

// broadcast delivers evt to every member of room, then to the observers.
func (o *Orchestrator) broadcast(ctx context.Context, room domain.Room, evt event.DomainEvent) {
	for _, member := range room.Members {
		o.deliver(ctx, member.Connection, evt)
	}
	for _, observer := range o.observers {
		o.consume(ctx, observer, evt, "observer", fmt.Sprintf("%T", observer))
	}
}

func (o *Orchestrator) deliver(ctx context.Context, conn domain.ConnectionID, evt event.DomainEvent) {
	sink, ok := o.sinks[conn]
	if !ok {
		o.log.Debug("No sink attached, event dropped", "connection_id", conn, "type", evt.Type())
		return
	}
	o.consume(ctx, sink, evt, "connection_id", string(conn))
}

// consume is best effort: a failing or panicking sink never affects the
// committed state nor the delivery to other recipients.
func (o *Orchestrator) consume(ctx context.Context, sink contract.EventSink, evt event.DomainEvent, key, value string) {
	defer func() {
		if r := recover(); r != nil {
			o.log.Error("Sink panicked", key, value, "type", evt.Type(), "panic", r)
		}
	}()
	sinkCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), o.sinkTimeout)
	defer cancel()
	if err := sink.Consume(sinkCtx, evt); err != nil {
		o.log.Warn("Failed to deliver event", key, value, "type", evt.Type(), "room_id", evt.RoomID(), "error", err)
	}
}

func (o *Orchestrator) recoverAction(action string, conn domain.ConnectionID, err *error) {
	if r := recover(); r != nil {
		o.log.Error("Action panicked", "action", action, "connection_id", conn, "panic", r)
		*err = fmt.Errorf("%w: %s: %v", errors.ErrInternal, action, r)
	}
}

// classify keeps known failure kinds and turns anything else into an internal error.
func classify(err error) error {
	if errors.KindOf(err) == errors.KindInternal {
		return errors.Internal(err)
	}
	return err
}
