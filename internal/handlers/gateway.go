package handlers

import (
	"github.com/gofiber/fiber/v2"

	"cardman/internal/router"
)

// Gateway adapts fiber requests onto the transport-independent router.
type Gateway struct {
	router *router.Router
}

func NewGateway(rt *router.Router) *Gateway {
	return &Gateway{router: rt}
}

// Proxy forwards a plain HTTP request to the router.
func (g *Gateway) Proxy(c *fiber.Ctx) error {
	req := router.Request{
		Method: c.Method(),
		Path:   c.Path(),
		Body:   c.Body(),
	}
	return write(c, g.router.Dispatch(c.UserContext(), req))
}

// Invoke accepts a raw event envelope (either supported shape) and
// replies in the envelope style, for callers still speaking the
// gateway event format.
func (g *Gateway) Invoke(c *fiber.Ctx) error {
	req, err := router.ParseEvent(c.Body())
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid event payload",
		})
	}
	resp := g.router.Dispatch(c.UserContext(), req)
	return c.JSON(fiber.Map{
		"statusCode": resp.StatusCode,
		"headers":    resp.Headers,
		"body":       string(resp.Body),
	})
}

func write(c *fiber.Ctx, resp router.Response) error {
	for k, v := range resp.Headers {
		c.Set(k, v)
	}
	if len(resp.Body) > 0 {
		c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	return c.Status(resp.StatusCode).Send(resp.Body)
}
