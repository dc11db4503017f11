package Controllers

import (
	"context"
	"log"

	"Attendance/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// UpgradeOnly rejects plain HTTP requests on websocket routes.
func UpgradeOnly(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}

// Stream pushes every list published by watch to the websocket client as a
// JSON array. The subscription ends when the client goes away.
func Stream[T any](name string, watch func(context.Context) (<-chan []T, error)) fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		device, _ := conn.Locals(middleware.DeviceKey).(string)
		log.Printf("%s stream opened by %q\n", name, device)
		defer log.Printf("%s stream closed by %q\n", name, device)

		updates, err := watch(ctx)
		if err != nil {
			log.Printf("Error watching %s: %v\n", name, err)
			_ = conn.WriteJSON(fiber.Map{"error": err.Error()})
			return
		}

		// the client never sends anything; reading only detects the close
		go func() {
			defer cancel()
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		for list := range updates {
			if err := conn.WriteJSON(list); err != nil {
				log.Printf("Error writing %s stream: %v\n", name, err)
				return
			}
		}
	})
}
