package game

import (
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

type Handler struct {
	service  *Service
	upgrader websocket.Upgrader
	log      zerolog.Logger
}

func NewHandler(service *Service, allowedOrigins []string, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				// Non-browser clients send no Origin.
				return origin == "" || slices.Contains(allowedOrigins, origin)
			},
		},
		log: log,
	}
}

// WebsocketHandler upgrades the request and hands the connection its pumps.
// The connection's uuid is its player identity for the rest of its life.
func (h *Handler) WebsocketHandler(ctx *gin.Context) {
	conn, err := h.upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Str("ip", ctx.ClientIP()).Msg("websocket upgrade failed")
		return
	}

	client := NewClient(conn, h.log)
	h.log.Info().Str("player", client.ID()).Str("ip", ctx.ClientIP()).Msg("client connected")

	go client.WritePump()
	go client.ReadPump(h.service)
}
