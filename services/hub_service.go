package services

import (
	"context"

	"partner-hub/contract"
	"partner-hub/domain"
	"partner-hub/domain/event"
	"partner-hub/observability"
	"partner-hub/runtime"
)

// IHubService is the single entry point the transport layers use.
// Transport code never touches the registry or dispatcher directly.
type IHubService interface {
	Connect(userID, connectionID string, sink contract.EventSink)
	Disconnect(userID, connectionID string)
	JoinRoom(connectionID string, roomID domain.RoomID)
	LeaveRoom(connectionID string, roomID domain.RoomID)
	Typing(ctx context.Context, senderID, receiverID string)
	StopTyping(ctx context.Context, senderID, receiverID string)
	NotifyMessage(ctx context.Context, receiverID string, e event.MessageReceived)
	NotifyConversationUpdated(ctx context.Context, receiverID string, e event.ConversationUpdated)
	NotifyMessageRead(ctx context.Context, receiverID string, e event.MessageRead)
	NotifyConversationRead(ctx context.Context, receiverID string, e event.ConversationRead)
	BroadcastToRoom(ctx context.Context, roomID domain.RoomID, e event.Event)
	Presence() []domain.PresenceEntry
	Stats() observability.HubStats
}

type HubService struct {
	dispatcher *runtime.Dispatcher
	registry   contract.IRegistry
	monitor    *observability.HubMonitor
}

func NewHubService(dispatcher *runtime.Dispatcher, registry contract.IRegistry,
	monitor *observability.HubMonitor) *HubService {
	return &HubService{dispatcher: dispatcher, registry: registry, monitor: monitor}
}

func (s *HubService) Connect(userID, connectionID string, sink contract.EventSink) {
	s.dispatcher.HandleConnect(userID, connectionID, sink)
}

func (s *HubService) Disconnect(userID, connectionID string) {
	s.dispatcher.HandleDisconnect(userID, connectionID)
}

func (s *HubService) JoinRoom(connectionID string, roomID domain.RoomID) {
	s.dispatcher.JoinRoom(connectionID, roomID)
}

func (s *HubService) LeaveRoom(connectionID string, roomID domain.RoomID) {
	s.dispatcher.LeaveRoom(connectionID, roomID)
}

func (s *HubService) Typing(ctx context.Context, senderID, receiverID string) {
	s.dispatcher.SendTyping(ctx, senderID, receiverID)
}

func (s *HubService) StopTyping(ctx context.Context, senderID, receiverID string) {
	s.dispatcher.SendStopTyping(ctx, senderID, receiverID)
}

func (s *HubService) NotifyMessage(ctx context.Context, receiverID string, e event.MessageReceived) {
	s.dispatcher.NotifyMessage(ctx, receiverID, e)
}

func (s *HubService) NotifyConversationUpdated(ctx context.Context, receiverID string, e event.ConversationUpdated) {
	s.dispatcher.NotifyConversationUpdated(ctx, receiverID, e)
}

func (s *HubService) NotifyMessageRead(ctx context.Context, receiverID string, e event.MessageRead) {
	s.dispatcher.NotifyMessageRead(ctx, receiverID, e)
}

func (s *HubService) NotifyConversationRead(ctx context.Context, receiverID string, e event.ConversationRead) {
	s.dispatcher.NotifyConversationRead(ctx, receiverID, e)
}

func (s *HubService) BroadcastToRoom(ctx context.Context, roomID domain.RoomID, e event.Event) {
	s.dispatcher.BroadcastToRoom(ctx, roomID, e)
}

func (s *HubService) Presence() []domain.PresenceEntry {
	return s.registry.Snapshot()
}

func (s *HubService) Stats() observability.HubStats {
	return s.monitor.GetLatest()
}
