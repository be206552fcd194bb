package runtime

import (
	"context"
	"log/slog"

	"partner-hub/contract"
	"partner-hub/domain"
	"partner-hub/domain/event"
	"partner-hub/observability"
)

// Dispatcher pushes notification events to live connections. It is
// invoked by the message service only after the durable write has
// committed, so every failure in here is swallowed after logging: the
// worst user-visible outcome is a missed live update, never data loss.
type Dispatcher struct {
	log      *slog.Logger
	registry contract.IRegistry
	monitor  *observability.HubMonitor
	presence chan event.Event
}

func NewDispatcher(log *slog.Logger, registry contract.IRegistry,
	monitor *observability.HubMonitor, presenceBufferSize int) *Dispatcher {
	return &Dispatcher{
		log:      log,
		registry: registry,
		monitor:  monitor,
		presence: make(chan event.Event, presenceBufferSize),
	}
}

// PresenceEvents exposes the transition stream drained by the
// presence fanout worker.
func (d *Dispatcher) PresenceEvents() <-chan event.Event {
	return d.presence
}

// HandleConnect registers the connection. On the user's zero-to-one
// transition a UserOnline event is queued for broadcast to everyone
// else.
func (d *Dispatcher) HandleConnect(userID, connectionID string, sink contract.EventSink) {
	d.monitor.ConnectionOpened()
	if d.registry.Connect(userID, connectionID, sink) {
		d.monitor.UserOnline()
		d.publishPresence(event.UserOnline{UserID: userID})
	}
}

// HandleDisconnect unregisters the connection and its room
// memberships. On the one-to-zero transition a UserOffline event is
// queued.
func (d *Dispatcher) HandleDisconnect(userID, connectionID string) {
	d.monitor.ConnectionClosed()
	if d.registry.Disconnect(userID, connectionID) {
		d.monitor.UserOffline()
		d.publishPresence(event.UserOffline{UserID: userID})
	}
}

func (d *Dispatcher) JoinRoom(connectionID string, roomID domain.RoomID) {
	d.registry.JoinRoom(connectionID, roomID)
	d.monitor.IncrRoomJoins()
}

func (d *Dispatcher) LeaveRoom(connectionID string, roomID domain.RoomID) {
	d.registry.LeaveRoom(connectionID, roomID)
}

func (d *Dispatcher) NotifyMessage(ctx context.Context, receiverID string, e event.MessageReceived) {
	d.deliver(ctx, d.registry.Resolve(receiverID), e)
}

func (d *Dispatcher) NotifyConversationUpdated(ctx context.Context, receiverID string, e event.ConversationUpdated) {
	d.deliver(ctx, d.registry.Resolve(receiverID), e)
}

func (d *Dispatcher) NotifyMessageRead(ctx context.Context, receiverID string, e event.MessageRead) {
	d.deliver(ctx, d.registry.Resolve(receiverID), e)
}

func (d *Dispatcher) NotifyConversationRead(ctx context.Context, receiverID string, e event.ConversationRead) {
	d.deliver(ctx, d.registry.Resolve(receiverID), e)
}

// SendTyping relays an ephemeral signal to the receiver's live
// connections. Nothing is stored; an offline receiver drops it.
func (d *Dispatcher) SendTyping(ctx context.Context, senderID, receiverID string) {
	d.deliver(ctx, d.registry.Resolve(receiverID), event.UserTyping{SenderID: senderID})
}

func (d *Dispatcher) SendStopTyping(ctx context.Context, senderID, receiverID string) {
	d.deliver(ctx, d.registry.Resolve(receiverID), event.UserStoppedTyping{SenderID: senderID})
}

// BroadcastToRoom delivers to every connection currently in the room.
// A connection mid-disconnect may miss the event; the message itself
// is separately durable.
func (d *Dispatcher) BroadcastToRoom(ctx context.Context, roomID domain.RoomID, e event.Event) {
	d.deliver(ctx, d.registry.SinksForRoom(roomID), e)
}

// deliver pushes one event to each sink. A failed send is logged and
// counted but never aborts delivery to the remaining sinks, and never
// reaches the caller.
func (d *Dispatcher) deliver(ctx context.Context, sinks []contract.EventSink, e event.Event) {
	for _, sink := range sinks {
		if err := sink.Consume(ctx, e); err != nil {
			d.monitor.IncrSendFailures()
			d.log.Warn("event delivery failed",
				"kind", e.Kind(),
				"error", err)
			continue
		}
		d.monitor.IncrEventsDispatched()
	}
}

// publishPresence never blocks the connect path. Presence is
// best-effort like everything else; under pressure the transition is
// dropped and counted.
func (d *Dispatcher) publishPresence(e event.Event) {
	select {
	case d.presence <- e:
	default:
		d.monitor.IncrEventsDropped()
		d.log.Debug("presence event dropped, fanout buffer full",
			"kind", e.Kind())
	}
}
