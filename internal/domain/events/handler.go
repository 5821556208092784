package events

import (
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// The CORS middleware already gates browser access; the upgrade
		// itself accepts any origin so non-browser tooling can subscribe.
		return true
	},
}

// Handler upgrades dashboard connections onto the hub.
type Handler struct {
	hub *Hub
}

func NewHandler(hub *Hub) *Handler {
	return &Handler{hub: hub}
}

// Subscribe handles GET /api/admin/events.
func (h *Handler) Subscribe(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("websocket upgrade")
		return
	}

	client := &Client{hub: h.hub, conn: conn, send: make(chan []byte, 16)}
	h.hub.register <- client

	go client.writePump()
	go client.readPump()
}
