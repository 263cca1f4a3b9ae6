package errors

import (
	"errors"
	"fmt"
)

var (
	ErrAlreadyInRoom    = fmt.Errorf("already in a chat room")
	ErrNotInRoom        = fmt.Errorf("not in a chat room")
	ErrRoomNotFound     = fmt.Errorf("chat room not found")
	ErrRoomFull         = fmt.Errorf("chat room is full")
	ErrInternal         = fmt.Errorf("internal error")
	ErrRoomIDGeneration = fmt.Errorf("failed to generate unique room ID after multiple attempts")
	ErrInvalidRequest   = fmt.Errorf("invalid request")
	ErrSinkFull         = fmt.Errorf("sink buffer full")
	ErrSinkClosed       = fmt.Errorf("sink closed")
	ErrWorkerPanic      = fmt.Errorf("worker panic")
	ErrWorkerGaveUp     = fmt.Errorf("worker exceeded its restart budget")
)

// Kind is the stable name of an error as seen by participants.
type Kind string

const (
	KindAlreadyInRoom  Kind = "AlreadyInRoom"
	KindNotInRoom      Kind = "NotInRoom"
	KindRoomNotFound   Kind = "RoomNotFound"
	KindRoomFull       Kind = "RoomFull"
	KindInvalidRequest Kind = "InvalidRequest"
	KindInternal       Kind = "InternalError"
)

// KindOf classifies err. Anything not recognised is an internal error.
func KindOf(err error) Kind {
	switch {
	case errors.Is(err, ErrAlreadyInRoom):
		return KindAlreadyInRoom
	case errors.Is(err, ErrNotInRoom):
		return KindNotInRoom
	case errors.Is(err, ErrRoomNotFound):
		return KindRoomNotFound
	case errors.Is(err, ErrRoomFull):
		return KindRoomFull
	case errors.Is(err, ErrInvalidRequest):
		return KindInvalidRequest
	default:
		return KindInternal
	}
}

// Describe returns the message shown to a participant for err.
func Describe(err error) string {
	switch KindOf(err) {
	case KindAlreadyInRoom:
		return "You are already in a chat room. Leave the current room first."
	case KindNotInRoom:
		return "You are not in a chat room"
	case KindRoomNotFound:
		return "Chat room not found"
	case KindRoomFull:
		return "Chat room is full"
	case KindInvalidRequest:
		return "Invalid request: " + err.Error()
	default:
		return "Internal error: " + err.Error()
	}
}

// Internal wraps an unexpected failure so that it classifies as KindInternal.
func Internal(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrInternal) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrInternal, err)
}
