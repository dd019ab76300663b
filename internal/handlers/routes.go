// Package handlers wires the fiber app to the router and the
// operational endpoints. Route semantics live in internal/router; this
// layer only moves bytes.
package handlers

import (
	"github.com/gofiber/fiber/v2"

	"cardman/internal/router"
	"cardman/internal/store"
)

// SetupRoutes registers all HTTP routes.
func SetupRoutes(app *fiber.App, rt *router.Router, st store.Store) {
	gw := NewGateway(rt)
	health := NewHealthHandler(st)

	app.Get("/health", health.Check)
	app.Post("/invoke", gw.Invoke)

	// Everything under /api, any method, goes through the router's
	// own route table. OPTIONS outside /api still gets its preflight
	// response.
	app.All("/api/*", gw.Proxy)
	app.Options("/*", gw.Proxy)
}
