package router

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/bhanuudhay/baat-cheet-backend/internal/chat/app"
	"github.com/bhanuudhay/baat-cheet-backend/pkg/middlewares"
)

// RegisterRoutes mounts the websocket endpoint. The token middleware only
// extracts an optional token; authentication itself happens in the session.
func RegisterRoutes(r *fiber.App, chatWebsocket *app.ChatWebsocketHandler) {
	r.Use(middlewares.TokenMiddleware())

	r.Get("/ws", websocket.New(func(c *websocket.Conn) {
		chatWebsocket.HandleConnection(context.Background(), c)
	}))
}
