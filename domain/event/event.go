package event

import (
	"time"

	"github.com/google/uuid"
)

// Kind is the client-facing name of a notification event. Clients
// subscribe to these names over the socket; the values are part of the
// wire contract and must not change without a client migration.
type Kind string

const (
	KindReceiveMessage           Kind = "ReceiveMessage"
	KindConversationUpdated      Kind = "ConversationUpdated"
	KindMessageMarkedAsRead      Kind = "MessageMarkedAsRead"
	KindConversationMarkedAsRead Kind = "ConversationMarkedAsRead"
	KindUserOnline               Kind = "UserOnline"
	KindUserOffline              Kind = "UserOffline"
	KindUserTyping               Kind = "UserTyping"
	KindUserStoppedTyping        Kind = "UserStoppedTyping"
)

// Event is a transient notification payload pushed to live connections.
// Events are never persisted here; the chat message itself is owned by
// the external message service, which commits before dispatch runs.
type Event interface {
	Kind() Kind
}

// MessageReceived carries an already-persisted chat message to the
// receiver's live connections.
type MessageReceived struct {
	ID             uuid.UUID `json:"id"`
	ConversationID string    `json:"conversationId"`
	SenderID       string    `json:"senderId"`
	Content        string    `json:"content"`
	SentAt         time.Time `json:"sentAt"`
}

func (MessageReceived) Kind() Kind { return KindReceiveMessage }

// ConversationUpdated refreshes a conversation list entry (last
// message preview, timestamp) on the receiver's side.
type ConversationUpdated struct {
	ConversationID string    `json:"conversationId"`
	LastSenderID   string    `json:"lastSenderId"`
	Preview        string    `json:"preview"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

func (ConversationUpdated) Kind() Kind { return KindConversationUpdated }

type MessageRead struct {
	MessageID      uuid.UUID `json:"messageId"`
	ConversationID string    `json:"conversationId"`
	ReaderID       string    `json:"readerId"`
	ReadAt         time.Time `json:"readAt"`
}

func (MessageRead) Kind() Kind { return KindMessageMarkedAsRead }

type ConversationRead struct {
	ConversationID string    `json:"conversationId"`
	ReaderID       string    `json:"readerId"`
	ReadAt         time.Time `json:"readAt"`
}

func (ConversationRead) Kind() Kind { return KindConversationMarkedAsRead }

// UserOnline fires exactly once per zero-to-one connection transition.
type UserOnline struct {
	UserID string `json:"userId"`
}

func (UserOnline) Kind() Kind { return KindUserOnline }

// UserOffline fires exactly once per one-to-zero connection transition.
type UserOffline struct {
	UserID string `json:"userId"`
}

func (UserOffline) Kind() Kind { return KindUserOffline }

// UserTyping is an ephemeral signal. Dropped silently when the
// receiver is offline.
type UserTyping struct {
	SenderID string `json:"senderId"`
}

func (UserTyping) Kind() Kind { return KindUserTyping }

type UserStoppedTyping struct {
	SenderID string `json:"senderId"`
}

func (UserStoppedTyping) Kind() Kind { return KindUserStoppedTyping }
