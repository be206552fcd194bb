package httpapi

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"

	"partner-hub/errors"
	"partner-hub/services"
)

// Server exposes the hub's HTTP surface: the websocket upgrade, the
// internal dispatch API called by the message service after each
// durable commit, and admin read endpoints for presence and stats.
type Server struct {
	log      *slog.Logger
	hub      services.IHubService
	validate *validator.Validate
}

func NewServer(log *slog.Logger, hub services.IHubService) *Server {
	return &Server{
		log:      log,
		hub:      hub,
		validate: validator.New(),
	}
}

// Router assembles the chi routes. The SPA origin list feeds the CORS
// layer; dispatch endpoints live under /internal and are expected to
// be reachable only from the backend network.
func (s *Server) Router(allowedOrigins []string, wsHandler http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/ws", wsHandler)

	r.Route("/internal", func(r chi.Router) {
		r.Post("/notifications/message", s.handleMessage)
		r.Post("/notifications/conversation", s.handleConversationUpdated)
		r.Post("/notifications/message-read", s.handleMessageRead)
		r.Post("/notifications/conversation-read", s.handleConversationRead)
		r.Post("/notifications/room", s.handleRoomBroadcast)
		r.Get("/presence", s.handlePresence)
		r.Get("/stats", s.handleStats)
	})
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.respond(w, http.StatusOK, map[string]string{"status": "ok"})
}

// decode parses and validates a JSON request body. Validation errors
// map to 400; the caller contract says the durable write already
// happened, so a rejected payload is a programming error on the
// message service side, not data loss.
func (s *Server) decode(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return errors.ErrInvalidPayload
	}
	if err := s.validate.Struct(dst); err != nil {
		return errors.ErrInvalidPayload
	}
	return nil
}

func (s *Server) respond(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.log.Error("failed to encode response", "error", err)
	}
}

func (s *Server) respondError(w http.ResponseWriter, err error) {
	s.respond(w, errors.MapToHTTPStatus(err), map[string]string{"error": err.Error()})
}

// accepted is the uniform dispatch reply: the event was handed to the
// hub, whether or not anyone was online to receive it.
func (s *Server) accepted(w http.ResponseWriter) {
	s.respond(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}
