//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"
	"reflect"

	"heybuddy/domain"
	"heybuddy/domain/event"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

// Worker doesn't protect itself
// Can be silly, focused
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// This is used for logging and supervision purposes during worker initialization
// or lifecycle events, avoiding the need for manual naming in the Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// EventSink receives the events addressed to one connection, or to an observer.
// Consume must not block past ctx.
type EventSink interface {
	Consume(ctx context.Context, e event.DomainEvent) error
}

// IOrchestrator is the lifecycle engine as seen by a transport.
type IOrchestrator interface {
	Connect(conn domain.ConnectionID, sink EventSink)
	StartChat(ctx context.Context, conn domain.ConnectionID, displayName string) (domain.JoinResult, error)
	SendMessage(ctx context.Context, conn domain.ConnectionID, text string) error
	NewChat(ctx context.Context, conn domain.ConnectionID, displayName string) (domain.JoinResult, error)
	LeaveChat(ctx context.Context, conn domain.ConnectionID) error
	RoomStatus(ctx context.Context, conn domain.ConnectionID) (domain.RoomStatus, error)
	Disconnect(ctx context.Context, conn domain.ConnectionID)
	Rooms() []domain.RoomSummary
	Stats() domain.Stats
}
