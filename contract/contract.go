//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"
	"reflect"

	"partner-hub/domain"
	"partner-hub/domain/event"
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

// EventSink is one live connection's inbox. Consume must never block
// longer than the sink's delivery timeout; a saturated or dying
// connection returns an error that callers log and swallow.
type EventSink interface {
	Consume(ctx context.Context, e event.Event) error
}

// IRegistry tracks live connections, the user identities that own
// them, and their room memberships. All methods are safe for
// concurrent use; check-then-insert and remove-if-empty sequences are
// atomic under the registry's lock.
type IRegistry interface {
	// Connect records a connection under its authenticated owner.
	// Reports whether this was the user's zero-to-one transition.
	Connect(userID, connectionID string, sink EventSink) (first bool)
	// Disconnect removes the connection and all of its room
	// memberships. Reports whether this was the user's one-to-zero
	// transition.
	Disconnect(userID, connectionID string) (last bool)
	// Resolve returns the live sinks for a user. Empty means the
	// recipient is offline, which is a normal outcome, not a fault.
	Resolve(userID string) []EventSink
	// SinksExcept returns every live sink not owned by userID. Used
	// for presence announcements.
	SinksExcept(userID string) []EventSink
	JoinRoom(connectionID string, roomID domain.RoomID)
	LeaveRoom(connectionID string, roomID domain.RoomID)
	SinksForRoom(roomID domain.RoomID) []EventSink
	Snapshot() []domain.PresenceEntry
}

// IDispatcher pushes already-persisted domain events to live
// connections. Every method is fire-and-forget: an offline recipient
// or a failed transport write never surfaces to the caller.
type IDispatcher interface {
	NotifyMessage(ctx context.Context, receiverID string, e event.MessageReceived)
	NotifyConversationUpdated(ctx context.Context, receiverID string, e event.ConversationUpdated)
	NotifyMessageRead(ctx context.Context, receiverID string, e event.MessageRead)
	NotifyConversationRead(ctx context.Context, receiverID string, e event.ConversationRead)
	SendTyping(ctx context.Context, senderID, receiverID string)
	SendStopTyping(ctx context.Context, senderID, receiverID string)
	BroadcastToRoom(ctx context.Context, roomID domain.RoomID, e event.Event)
}
