package httpapi

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"partner-hub/domain"
	"partner-hub/domain/event"
)

type messagePayload struct {
	ID             string    `json:"id" validate:"required,uuid"`
	ConversationID string    `json:"conversationId" validate:"required"`
	SenderID       string    `json:"senderId" validate:"required"`
	Content        string    `json:"content" validate:"required"`
	SentAt         time.Time `json:"sentAt" validate:"required"`
}

type messageRequest struct {
	ReceiverID string         `json:"receiverId" validate:"required"`
	Message    messagePayload `json:"message" validate:"required"`
}

// handleMessage pushes an already-persisted chat message to the
// receiver's live connections. The message service commits before
// calling here; a 202 with zero deliveries is the normal offline case.
func (s *Server) handleMessage(w http.ResponseWriter, r *http.Request) {
	var req messageRequest
	if err := s.decode(r, &req); err != nil {
		s.respondError(w, err)
		return
	}

	s.hub.NotifyMessage(r.Context(), req.ReceiverID, event.MessageReceived{
		ID:             uuid.MustParse(req.Message.ID),
		ConversationID: req.Message.ConversationID,
		SenderID:       req.Message.SenderID,
		Content:        req.Message.Content,
		SentAt:         req.Message.SentAt,
	})
	s.accepted(w)
}

type conversationUpdatedRequest struct {
	ReceiverID     string    `json:"receiverId" validate:"required"`
	ConversationID string    `json:"conversationId" validate:"required"`
	LastSenderID   string    `json:"lastSenderId" validate:"required"`
	Preview        string    `json:"preview"`
	UpdatedAt      time.Time `json:"updatedAt" validate:"required"`
}

func (s *Server) handleConversationUpdated(w http.ResponseWriter, r *http.Request) {
	var req conversationUpdatedRequest
	if err := s.decode(r, &req); err != nil {
		s.respondError(w, err)
		return
	}

	s.hub.NotifyConversationUpdated(r.Context(), req.ReceiverID, event.ConversationUpdated{
		ConversationID: req.ConversationID,
		LastSenderID:   req.LastSenderID,
		Preview:        req.Preview,
		UpdatedAt:      req.UpdatedAt,
	})
	s.accepted(w)
}

type messageReadRequest struct {
	ReceiverID     string `json:"receiverId" validate:"required"`
	MessageID      string `json:"messageId" validate:"required,uuid"`
	ConversationID string `json:"conversationId" validate:"required"`
	ReaderID       string `json:"readerId" validate:"required"`
}

func (s *Server) handleMessageRead(w http.ResponseWriter, r *http.Request) {
	var req messageReadRequest
	if err := s.decode(r, &req); err != nil {
		s.respondError(w, err)
		return
	}

	s.hub.NotifyMessageRead(r.Context(), req.ReceiverID, event.MessageRead{
		MessageID:      uuid.MustParse(req.MessageID),
		ConversationID: req.ConversationID,
		ReaderID:       req.ReaderID,
		ReadAt:         time.Now().UTC(),
	})
	s.accepted(w)
}

type conversationReadRequest struct {
	ReceiverID     string `json:"receiverId" validate:"required"`
	ConversationID string `json:"conversationId" validate:"required"`
	ReaderID       string `json:"readerId" validate:"required"`
}

func (s *Server) handleConversationRead(w http.ResponseWriter, r *http.Request) {
	var req conversationReadRequest
	if err := s.decode(r, &req); err != nil {
		s.respondError(w, err)
		return
	}

	s.hub.NotifyConversationRead(r.Context(), req.ReceiverID, event.ConversationRead{
		ConversationID: req.ConversationID,
		ReaderID:       req.ReaderID,
		ReadAt:         time.Now().UTC(),
	})
	s.accepted(w)
}

type roomBroadcastRequest struct {
	RoomID       string    `json:"roomId" validate:"required"`
	LastSenderID string    `json:"lastSenderId" validate:"required"`
	Preview      string    `json:"preview"`
	UpdatedAt    time.Time `json:"updatedAt" validate:"required"`
}

// handleRoomBroadcast fans a conversation update out to every
// connection currently joined to the room instead of a single user.
func (s *Server) handleRoomBroadcast(w http.ResponseWriter, r *http.Request) {
	var req roomBroadcastRequest
	if err := s.decode(r, &req); err != nil {
		s.respondError(w, err)
		return
	}

	s.hub.BroadcastToRoom(r.Context(), domain.RoomID(req.RoomID), event.ConversationUpdated{
		ConversationID: req.RoomID,
		LastSenderID:   req.LastSenderID,
		Preview:        req.Preview,
		UpdatedAt:      req.UpdatedAt,
	})
	s.accepted(w)
}

func (s *Server) handlePresence(w http.ResponseWriter, r *http.Request) {
	s.respond(w, http.StatusOK, s.hub.Presence())
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	s.respond(w, http.StatusOK, s.hub.Stats())
}
