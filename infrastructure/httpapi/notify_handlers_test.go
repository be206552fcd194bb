package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"partner-hub/domain/event"
	"partner-hub/observability"
	"partner-hub/runtime"
	"partner-hub/services"
)

type recordingSink struct {
	mu     sync.Mutex
	events []event.Event
}

func (s *recordingSink) Consume(_ context.Context, e event.Event) error {
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

type apiFixture struct {
	server  *httptest.Server
	service *services.HubService
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	log := slog.Default()
	registry := runtime.NewRegistry()
	monitor := observability.NewHubMonitor()
	dispatcher := runtime.NewDispatcher(log, registry, monitor, 16)
	service := services.NewHubService(dispatcher, registry, monitor)

	api := NewServer(log, service)
	router := api.Router([]string{"*"}, http.NotFoundHandler())
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return &apiFixture{server: server, service: service}
}

func (f *apiFixture) post(t *testing.T, path string, body any) *http.Response {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(f.server.URL+path, "application/json", bytes.NewReader(raw))
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func TestHandleMessage_OnlineReceiver(t *testing.T) {
	req := require.New(t)
	fixture := newAPIFixture(t)
	tab := &recordingSink{}
	fixture.service.Connect("sponsor-7", uuid.NewString(), tab)

	messageID := uuid.NewString()
	resp := fixture.post(t, "/internal/notifications/message", map[string]any{
		"receiverId": "sponsor-7",
		"message": map[string]any{
			"id":             messageID,
			"conversationId": "partnership-3",
			"senderId":       "organizer-42",
			"content":        "booth layout attached",
			"sentAt":         time.Now().UTC().Format(time.RFC3339Nano),
		},
	})

	req.Equal(http.StatusAccepted, resp.StatusCode)
	events := tab.Events()
	req.Len(events, 1)
	msg, ok := events[0].(event.MessageReceived)
	req.True(ok)
	req.Equal(messageID, msg.ID.String())
	req.Equal("booth layout attached", msg.Content)
}

func TestHandleMessage_OfflineReceiverStillAccepted(t *testing.T) {
	req := require.New(t)
	fixture := newAPIFixture(t)

	resp := fixture.post(t, "/internal/notifications/message", map[string]any{
		"receiverId": "nobody-home",
		"message": map[string]any{
			"id":             uuid.NewString(),
			"conversationId": "partnership-3",
			"senderId":       "organizer-42",
			"content":        "anyone there?",
			"sentAt":         time.Now().UTC().Format(time.RFC3339Nano),
		},
	})

	// At-most-once: the durable store already has the message, the
	// hub simply had nobody to push it to
	req.Equal(http.StatusAccepted, resp.StatusCode)
}

func TestHandleMessage_InvalidPayload(t *testing.T) {
	req := require.New(t)
	fixture := newAPIFixture(t)

	tests := []struct {
		name string
		body map[string]any
	}{
		{"missing receiver", map[string]any{
			"message": map[string]any{
				"id":             uuid.NewString(),
				"conversationId": "p-3",
				"senderId":       "o-42",
				"content":        "x",
				"sentAt":         time.Now().UTC().Format(time.RFC3339Nano),
			},
		}},
		{"malformed message id", map[string]any{
			"receiverId": "sponsor-7",
			"message": map[string]any{
				"id":             "not-a-uuid",
				"conversationId": "p-3",
				"senderId":       "o-42",
				"content":        "x",
				"sentAt":         time.Now().UTC().Format(time.RFC3339Nano),
			},
		}},
		{"empty body", map[string]any{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := fixture.post(t, "/internal/notifications/message", tt.body)
			req.Equal(http.StatusBadRequest, resp.StatusCode)
		})
	}
}

func TestHandleMessageRead(t *testing.T) {
	req := require.New(t)
	fixture := newAPIFixture(t)
	tab := &recordingSink{}
	fixture.service.Connect("organizer-42", uuid.NewString(), tab)

	resp := fixture.post(t, "/internal/notifications/message-read", map[string]any{
		"receiverId":     "organizer-42",
		"messageId":      uuid.NewString(),
		"conversationId": "partnership-3",
		"readerId":       "sponsor-7",
	})

	req.Equal(http.StatusAccepted, resp.StatusCode)
	events := tab.Events()
	req.Len(events, 1)
	req.Equal(event.KindMessageMarkedAsRead, events[0].Kind())
}

func TestHandleConversationRead(t *testing.T) {
	req := require.New(t)
	fixture := newAPIFixture(t)
	tab := &recordingSink{}
	fixture.service.Connect("organizer-42", uuid.NewString(), tab)

	resp := fixture.post(t, "/internal/notifications/conversation-read", map[string]any{
		"receiverId":     "organizer-42",
		"conversationId": "partnership-3",
		"readerId":       "sponsor-7",
	})

	req.Equal(http.StatusAccepted, resp.StatusCode)
	events := tab.Events()
	req.Len(events, 1)
	read, ok := events[0].(event.ConversationRead)
	req.True(ok)
	req.Equal("sponsor-7", read.ReaderID)
}

func TestHandleRoomBroadcast(t *testing.T) {
	req := require.New(t)
	fixture := newAPIFixture(t)
	tabA := &recordingSink{}
	tabB := &recordingSink{}
	connA := uuid.NewString()
	connB := uuid.NewString()
	fixture.service.Connect("organizer-42", connA, tabA)
	fixture.service.Connect("sponsor-7", connB, tabB)
	fixture.service.JoinRoom(connA, "partnership-3")
	fixture.service.JoinRoom(connB, "partnership-3")

	resp := fixture.post(t, "/internal/notifications/room", map[string]any{
		"roomId":       "partnership-3",
		"lastSenderId": "organizer-42",
		"preview":      "contract draft v2",
		"updatedAt":    time.Now().UTC().Format(time.RFC3339Nano),
	})

	req.Equal(http.StatusAccepted, resp.StatusCode)
	req.Len(tabA.Events(), 1)
	req.Len(tabB.Events(), 1)
}

func TestHandlePresenceAndStats(t *testing.T) {
	req := require.New(t)
	fixture := newAPIFixture(t)
	fixture.service.Connect("organizer-42", uuid.NewString(), &recordingSink{})

	resp, err := http.Get(fixture.server.URL + "/internal/presence")
	req.NoError(err)
	defer resp.Body.Close()
	req.Equal(http.StatusOK, resp.StatusCode)

	var entries []map[string]any
	req.NoError(json.NewDecoder(resp.Body).Decode(&entries))
	req.Len(entries, 1)
	req.Equal("organizer-42", entries[0]["userId"])

	statsResp, err := http.Get(fixture.server.URL + "/internal/stats")
	req.NoError(err)
	defer statsResp.Body.Close()
	req.Equal(http.StatusOK, statsResp.StatusCode)

	var stats map[string]any
	req.NoError(json.NewDecoder(statsResp.Body).Decode(&stats))
	req.EqualValues(1, stats["active_connections"])
}

func TestHealthz(t *testing.T) {
	req := require.New(t)
	fixture := newAPIFixture(t)

	resp, err := http.Get(fixture.server.URL + "/healthz")
	req.NoError(err)
	defer resp.Body.Close()
	req.Equal(http.StatusOK, resp.StatusCode)
}
