package controller

import (
	"context"
	"time"

	"virtual-doctor-be/internal/dto"
	"virtual-doctor-be/internal/pkg/serverutils"

	"github.com/gofiber/fiber/v2"
)

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type IHealthController interface {
	RegisterRoutes(r fiber.Router)
	Live(ctx *fiber.Ctx) error
	Ready(ctx *fiber.Ctx) error
}

type healthController struct {
	store Pinger
}

func NewHealthController(store Pinger) IHealthController {
	return &healthController{store: store}
}

func (c *healthController) RegisterRoutes(r fiber.Router) {
	r.Get("/health", c.Live)
	r.Get("/ready", c.Ready)
}

func (c *healthController) Live(ctx *fiber.Ctx) error {
	return ctx.JSON(serverutils.SuccessResponse("ok", dto.HealthResponse{Status: "up"}))
}

func (c *healthController) Ready(ctx *fiber.Ctx) error {
	pingCtx, cancel := context.WithTimeout(ctx.UserContext(), 2*time.Second)
	defer cancel()

	if err := c.store.Ping(pingCtx); err != nil {
		return ctx.Status(fiber.StatusServiceUnavailable).
			JSON(serverutils.ErrorResponse(fiber.StatusServiceUnavailable, "session store unreachable"))
	}
	return ctx.JSON(serverutils.SuccessResponse("ok", dto.HealthResponse{Status: "ready"}))
}
