package websocket

import (
	"encoding/json"
	"fmt"
	"time"

	"heybuddy/domain"
	"heybuddy/domain/event"
	"heybuddy/errors"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

type Action string

const (
	ActionStartChat     Action = "start_chat"
	ActionSendMessage   Action = "send_message"
	ActionNewChat       Action = "new_chat"
	ActionLeaveChat     Action = "leave_chat"
	ActionGetRoomStatus Action = "get_room_status"
)

const AckType = "ack"

// Request is an inbound frame. ID is echoed back in the matching ack.
type Request struct {
	ID      int64           `json:"id"`
	Action  Action          `json:"action" validate:"required,oneof=start_chat send_message new_chat leave_chat get_room_status"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type JoinPayload struct {
	DisplayName string `json:"displayName"`
}

type SendPayload struct {
	Text string `json:"text"`
}

// AckPayload answers exactly one request.
type AckPayload struct {
	Success     bool        `json:"success"`
	Message     string      `json:"message"`
	Error       errors.Kind `json:"error,omitempty"`
	RoomID      string      `json:"roomId,omitempty"`
	UsersInRoom *int        `json:"usersInRoom,omitempty"`
	MemberNames []string    `json:"memberNames,omitempty"`
}

type AckFrame struct {
	Type    string     `json:"type"`
	ID      int64      `json:"id"`
	Payload AckPayload `json:"payload"`
}

// EventFrame carries an unsolicited event: joined, left, message or history.
type EventFrame struct {
	Type    event.Type `json:"type"`
	Payload any        `json:"payload"`
}

type PresencePayload struct {
	DisplayName string `json:"displayName"`
	UsersInRoom int    `json:"usersInRoom"`
	Message     string `json:"message"`
}

type MessagePayload struct {
	ID                 string    `json:"id"`
	DisplayName        string    `json:"displayName"`
	Text               string    `json:"text"`
	Timestamp          time.Time `json:"timestamp"`
	AuthorConnectionID string    `json:"authorConnectionId"`
}

func ToMessagePayload(m domain.Message) MessagePayload {
	return MessagePayload{
		ID:                 m.ID.String(),
		DisplayName:        m.Author,
		Text:               m.Text,
		Timestamp:          m.At,
		AuthorConnectionID: string(m.AuthorConnection),
	}
}

func ToEventFrame(e event.DomainEvent) (EventFrame, error) {
	switch evt := e.(type) {
	case event.Joined:
		return EventFrame{Type: evt.Type(), Payload: PresencePayload{
			DisplayName: evt.DisplayName,
			UsersInRoom: evt.UsersInRoom,
			Message:     evt.Announcement,
		}}, nil
	case event.Left:
		return EventFrame{Type: evt.Type(), Payload: PresencePayload{
			DisplayName: evt.DisplayName,
			UsersInRoom: evt.UsersInRoom,
			Message:     evt.Announcement,
		}}, nil
	case event.MessagePosted:
		return EventFrame{Type: evt.Type(), Payload: ToMessagePayload(evt.Message)}, nil
	case event.History:
		return EventFrame{Type: evt.Type(), Payload: lo.Map(evt.Messages, func(m domain.Message, _ int) MessagePayload {
			return ToMessagePayload(m)
		})}, nil
	default:
		return EventFrame{}, fmt.Errorf("%w: unsupported event %T", errors.ErrInternal, e)
	}
}

func EncodeEvent(e event.DomainEvent) ([]byte, error) {
	frame, err := ToEventFrame(e)
	if err != nil {
		return nil, err
	}
	return json.Marshal(frame)
}

func joinAck(message string, res domain.JoinResult) AckPayload {
	return AckPayload{
		Success:     true,
		Message:     message,
		RoomID:      string(res.RoomID),
		UsersInRoom: lo.ToPtr(res.UsersInRoom),
	}
}

func statusAck(status domain.RoomStatus) AckPayload {
	return AckPayload{
		Success:     true,
		Message:     "Room status",
		RoomID:      string(status.RoomID),
		UsersInRoom: lo.ToPtr(status.UsersInRoom),
		MemberNames: status.MemberNames,
	}
}

func failureAck(err error) AckPayload {
	return AckPayload{
		Success: false,
		Message: errors.Describe(err),
		Error:   errors.KindOf(err),
	}
}

// statusFailureAck words a refused get_room_status the way status requests always have.
func statusFailureAck(err error) AckPayload {
	ack := failureAck(err)
	if ack.Error == errors.KindNotInRoom {
		ack.Message = "Not in a chat room"
	}
	return ack
}

// InboundFrame is any frame sent by the server, as read by a client.
type InboundFrame struct {
	Type    string          `json:"type"`
	ID      int64           `json:"id,omitempty"`
	Payload json.RawMessage `json:"payload"`
}

func (f InboundFrame) IsAck() bool {
	return f.Type == AckType
}

// DecodeEvent turns an event frame back into a domain event. Payloads carry
// no room id, the caller supplies the room the connection is in.
func DecodeEvent(f InboundFrame, room domain.RoomID) (event.DomainEvent, error) {
	switch event.Type(f.Type) {
	case event.JoinedType, event.LeftType:
		var p PresencePayload
		if err := json.Unmarshal(f.Payload, &p); err != nil {
			return nil, err
		}
		if event.Type(f.Type) == event.JoinedType {
			return event.Joined{Room: room, DisplayName: p.DisplayName, UsersInRoom: p.UsersInRoom, Announcement: p.Message}, nil
		}
		return event.Left{Room: room, DisplayName: p.DisplayName, UsersInRoom: p.UsersInRoom, Announcement: p.Message}, nil
	case event.MessageType:
		var p MessagePayload
		if err := json.Unmarshal(f.Payload, &p); err != nil {
			return nil, err
		}
		return event.MessagePosted{Room: room, Message: p.toDomain()}, nil
	case event.HistoryType:
		var p []MessagePayload
		if err := json.Unmarshal(f.Payload, &p); err != nil {
			return nil, err
		}
		return event.History{Room: room, Messages: lo.Map(p, func(m MessagePayload, _ int) domain.Message {
			return m.toDomain()
		})}, nil
	default:
		return nil, fmt.Errorf("%w: unknown frame type %q", errors.ErrInvalidRequest, f.Type)
	}
}

func (m MessagePayload) toDomain() domain.Message {
	id, _ := uuid.Parse(m.ID)
	return domain.Message{
		ID:               id,
		Author:           m.DisplayName,
		Text:             m.Text,
		At:               m.Timestamp,
		AuthorConnection: domain.ConnectionID(m.AuthorConnectionID),
	}
}
