package main

import (
	"github.com/gofiber/fiber/v2"
)

// registerRoutes registers all routes. The gateway is mounted last and
// receives every request no earlier route answered.
func registerRoutes(app *fiber.App, deps *Dependencies) {
	deps.HealthHandler.RegisterRoutes(app)
	deps.BatchHandler.RegisterRoutes(app, deps.AuthMiddleware)

	app.Use(deps.GatewayHandler.Handle)
}
