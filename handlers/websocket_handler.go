package handlers

import (
	"log/slog"
	"net/http"

	"github.com/WhisperedLullaby/tournament-tracker-sub000/live"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Spectator streams carry no credentials; CORS on the API
		// routes covers the mutating surface.
		return true
	},
}

type WebsocketHandler struct {
	hub    *live.Hub
	logger *slog.Logger
}

func NewWebsocketHandler(hub *live.Hub, logger *slog.Logger) *WebsocketHandler {
	return &WebsocketHandler{hub: hub, logger: logger}
}

// Subscribe handles GET /ws/tournaments/{tournamentID}: upgrades the
// connection and joins the tournament's broadcast room.
func (h *WebsocketHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", slog.Any("error", err))
		return
	}

	client := &live.Client{
		Hub:  h.hub,
		Conn: conn,
		Send: make(chan []byte, 256),
		Room: live.TournamentRoom(tournamentID),
	}
	h.hub.Register <- client

	go client.WritePump()
	go client.ReadPump()
}
