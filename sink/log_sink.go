// Package sink holds observer sinks plugged into the orchestrator.
package sink

import (
	"context"
	"log/slog"

	"heybuddy/domain/event"
)

// LogSink writes every broadcast event at debug level. Message text is
// never logged, only its size.
type LogSink struct {
	log *slog.Logger
}

func NewLogSink(log *slog.Logger) LogSink {
	return LogSink{log: log}
}

func (l LogSink) Consume(ctx context.Context, e event.DomainEvent) error {
	switch evt := e.(type) {
	case event.Joined:
		l.log.DebugContext(ctx, "Event joined", "room_id", evt.Room, "display_name", evt.DisplayName, "users_in_room", evt.UsersInRoom)
	case event.Left:
		l.log.DebugContext(ctx, "Event left", "room_id", evt.Room, "display_name", evt.DisplayName, "users_in_room", evt.UsersInRoom)
	case event.MessagePosted:
		l.log.DebugContext(ctx, "Event message", "room_id", evt.Room, "message_id", evt.Message.ID, "size", len(evt.Message.Text))
	default:
		l.log.DebugContext(ctx, "Event", "type", e.Type(), "room_id", e.RoomID())
	}
	return nil
}
