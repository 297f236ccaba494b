package feed

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/MrJamesThe3rd/spendly/internal/feed"
)

type Authenticator interface {
	Authenticate(token string) (uuid.UUID, error)
}

// Handler upgrades authenticated requests to websocket feed clients.
type Handler struct {
	hub            *feed.Hub
	authn          Authenticator
	allowedOrigins map[string]bool
	upgrader       websocket.Upgrader
}

func NewHandler(hub *feed.Hub, authn Authenticator, allowedOrigins []string) *Handler {
	origins := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		origins[o] = true
	}

	h := &Handler{hub: hub, authn: authn, allowedOrigins: origins}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}

	return h
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.serveWS)
}

// checkOrigin admits non-browser clients, which send no Origin.
func (h *Handler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || h.allowedOrigins["*"] || h.allowedOrigins[origin] {
		return true
	}

	slog.Warn("websocket origin rejected", "origin", origin)

	return false
}

// serveWS authenticates with ?token= because browsers cannot set headers on
// websocket requests.
func (h *Handler) serveWS(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		http.Error(w, "missing token", http.StatusUnauthorized)
		return
	}

	userID, err := h.authn.Authenticate(token)
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("websocket upgrade failed", "error", err)
		return
	}

	client := feed.NewClient(conn, userID, h.hub)
	h.hub.Register(client)

	slog.Info("websocket client connected", "user_id", userID, "client_id", client.ID())

	go client.WritePump()
	go client.ReadPump()
}
