package runtime

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"partner-hub/contract"
	"partner-hub/domain"
	"partner-hub/domain/event"
	"partner-hub/observability"
)

// recordingSink captures everything delivered to one connection.
type recordingSink struct {
	mu     sync.Mutex
	events []event.Event
	fail   error
}

func (s *recordingSink) Consume(_ context.Context, e event.Event) error {
	if s.fail != nil {
		return s.fail
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
	return nil
}

func (s *recordingSink) Events() []event.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]event.Event(nil), s.events...)
}

func newDispatcher() (*Dispatcher, *Registry, *observability.HubMonitor) {
	registry := NewRegistry()
	monitor := observability.NewHubMonitor()
	return NewDispatcher(slog.Default(), registry, monitor, 16), registry, monitor
}

func TestDispatcher_NotifyMessage_OfflineRecipient(t *testing.T) {
	req := require.New(t)
	dispatcher, _, monitor := newDispatcher()

	// When dispatching to a user with no live connection
	dispatcher.NotifyMessage(context.Background(), uuid.NewString(), event.MessageReceived{
		ID:      uuid.New(),
		Content: "hello",
	})

	// Then nothing was sent and nothing failed
	stats := monitor.GetLatest()
	req.Zero(stats.EventsDispatched)
	req.Zero(stats.SendFailures)
}

func TestDispatcher_NotifyMessage_TwoTabs(t *testing.T) {
	req := require.New(t)
	dispatcher, _, monitor := newDispatcher()
	receiverID := uuid.NewString()
	tab1 := &recordingSink{}
	tab2 := &recordingSink{}

	dispatcher.HandleConnect(receiverID, uuid.NewString(), tab1)
	dispatcher.HandleConnect(receiverID, uuid.NewString(), tab2)

	msg := event.MessageReceived{
		ID:             uuid.New(),
		ConversationID: "partnership-3",
		SenderID:       uuid.NewString(),
		Content:        "shall we co-brand the booth?",
		SentAt:         time.Now().UTC(),
	}
	dispatcher.NotifyMessage(context.Background(), receiverID, msg)

	// Both tabs got exactly one copy with identical payload content
	req.Len(tab1.Events(), 1)
	req.Len(tab2.Events(), 1)
	req.Equal(msg, tab1.Events()[0])
	req.Equal(msg, tab2.Events()[0])
	req.EqualValues(2, monitor.GetLatest().EventsDispatched)
}

func TestDispatcher_NoBacklogForLateConnect(t *testing.T) {
	req := require.New(t)
	dispatcher, _, _ := newDispatcher()
	receiverID := uuid.NewString()

	// Given B is offline, a first message is dispatched to nobody
	m1 := event.MessageReceived{ID: uuid.New(), Content: "first"}
	dispatcher.NotifyMessage(context.Background(), receiverID, m1)

	// When B connects and a second message is dispatched
	tab := &recordingSink{}
	dispatcher.HandleConnect(receiverID, uuid.NewString(), tab)
	m2 := event.MessageReceived{ID: uuid.New(), Content: "second"}
	dispatcher.NotifyMessage(context.Background(), receiverID, m2)

	// Then only the second message arrives, m1 is not redelivered
	req.Len(tab.Events(), 1)
	req.Equal(m2, tab.Events()[0])
}

func TestDispatcher_FailingSinkDoesNotAbortOthers(t *testing.T) {
	req := require.New(t)
	dispatcher, _, monitor := newDispatcher()
	receiverID := uuid.NewString()
	broken := &recordingSink{fail: context.DeadlineExceeded}
	healthy := &recordingSink{}

	dispatcher.HandleConnect(receiverID, uuid.NewString(), broken)
	dispatcher.HandleConnect(receiverID, uuid.NewString(), healthy)

	dispatcher.NotifyMessageRead(context.Background(), receiverID, event.MessageRead{
		MessageID: uuid.New(),
		ReaderID:  uuid.NewString(),
	})

	// The healthy connection still got the event; the failure was
	// only counted and logged
	req.Len(healthy.Events(), 1)
	stats := monitor.GetLatest()
	req.EqualValues(1, stats.EventsDispatched)
	req.EqualValues(1, stats.SendFailures)
}

func TestDispatcher_PresenceTransitions(t *testing.T) {
	req := require.New(t)
	dispatcher, _, _ := newDispatcher()
	userID := uuid.NewString()
	connA := uuid.NewString()
	connB := uuid.NewString()

	// When a user opens two tabs and closes both
	dispatcher.HandleConnect(userID, connA, &recordingSink{})
	dispatcher.HandleConnect(userID, connB, &recordingSink{})
	dispatcher.HandleDisconnect(userID, connA)
	dispatcher.HandleDisconnect(userID, connB)

	// Then exactly one online and one offline transition were queued
	var transitions []event.Event
drain:
	for {
		select {
		case e := <-dispatcher.PresenceEvents():
			transitions = append(transitions, e)
		default:
			break drain
		}
	}
	req.Len(transitions, 2)
	req.Equal(event.UserOnline{UserID: userID}, transitions[0])
	req.Equal(event.UserOffline{UserID: userID}, transitions[1])
}

func TestDispatcher_Typing(t *testing.T) {
	req := require.New(t)
	dispatcher, _, _ := newDispatcher()
	senderID := uuid.NewString()
	receiverID := uuid.NewString()
	tab := &recordingSink{}

	dispatcher.HandleConnect(receiverID, uuid.NewString(), tab)

	dispatcher.SendTyping(context.Background(), senderID, receiverID)
	dispatcher.SendStopTyping(context.Background(), senderID, receiverID)

	events := tab.Events()
	req.Len(events, 2)
	req.Equal(event.UserTyping{SenderID: senderID}, events[0])
	req.Equal(event.UserStoppedTyping{SenderID: senderID}, events[1])

	// Offline receivers drop the signal silently
	dispatcher.SendTyping(context.Background(), senderID, uuid.NewString())
}

func TestDispatcher_BroadcastToRoom(t *testing.T) {
	req := require.New(t)
	dispatcher, _, _ := newDispatcher()
	roomID := domain.RoomID("partnership-3")
	userA := uuid.NewString()
	userB := uuid.NewString()
	connA := uuid.NewString()
	connB := uuid.NewString()
	tabA := &recordingSink{}
	tabB := &recordingSink{}

	// Given A and B joined the same room
	dispatcher.HandleConnect(userA, connA, tabA)
	dispatcher.HandleConnect(userB, connB, tabB)
	dispatcher.JoinRoom(connA, roomID)
	dispatcher.JoinRoom(connB, roomID)

	update := event.ConversationUpdated{ConversationID: string(roomID), Preview: "new offer"}
	dispatcher.BroadcastToRoom(context.Background(), roomID, update)

	req.Len(tabA.Events(), 1)
	req.Len(tabB.Events(), 1)

	// When A disconnects, the next broadcast reaches only B
	dispatcher.HandleDisconnect(userA, connA)
	dispatcher.BroadcastToRoom(context.Background(), roomID, update)

	req.Len(tabA.Events(), 1)
	req.Len(tabB.Events(), 2)
}

var _ contract.IDispatcher = (*Dispatcher)(nil)
var _ contract.IRegistry = (*Registry)(nil)
