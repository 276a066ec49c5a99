package server

import (
	"encoding/json"
	"log/slog"

	"chirp/internal/middleware"
	"chirp/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

func (s *Server) websocketUpgradeRequired(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return models.RespondWithError(c, fiber.StatusUpgradeRequired,
			models.NewValidationError("WebSocket upgrade required"))
	}
	return c.Next()
}

// NotificationsWebSocket streams the caller's realtime notification events.
// @Summary Realtime notifications
// @Description Upgrade with ?ticket= from POST /ws/ticket. Each message is
// @Description {"type":"notification","payload":Notification}.
// @Tags realtime
// @Param ticket query string true "Single-use ticket"
// @Success 101
// @Failure 401 {object} models.ErrorResponse
// @Router /ws [get]
func (s *Server) NotificationsWebSocket() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		uid, ok := conn.Locals("userID").(uint)
		if !ok || s.hub == nil {
			_ = conn.Close()
			return
		}

		client, err := s.hub.Register(uid, conn)
		if err != nil {
			middleware.Logger.Warn("websocket register failed",
				slog.Uint64("account_id", uint64(uid)),
				slog.String("error", err.Error()),
			)
			msg, _ := json.Marshal(fiber.Map{"type": "error", "payload": fiber.Map{"error": err.Error()}})
			_ = conn.WriteMessage(websocket.TextMessage, msg)
			_ = conn.Close()
			return
		}

		client.TrySend([]byte(`{"type":"connected"}`))

		go client.WritePump()
		client.ReadPump()
	})
}
