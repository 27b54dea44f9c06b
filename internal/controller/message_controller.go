package controller

import (
	"fmt"

	"virtual-doctor-be/internal/dto"
	"virtual-doctor-be/internal/pkg/serverutils"
	"virtual-doctor-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IMessageController interface {
	RegisterRoutes(r fiber.Router)
	SendMessage(ctx *fiber.Ctx) error
	GetSession(ctx *fiber.Ctx) error
	DeleteSession(ctx *fiber.Ctx) error
}

type messageController struct {
	service service.IMessageService
}

func NewMessageController(service service.IMessageService) IMessageController {
	return &messageController{service: service}
}

func (c *messageController) RegisterRoutes(r fiber.Router) {
	r.Post("/message", c.SendMessage)

	h := r.Group("/session")
	h.Get("/:sessionId", c.GetSession)
	h.Delete("/:sessionId", c.DeleteSession)
}

// SendMessage answers with the bare {response, patientContext, sessionId} body
// that chat clients read directly.
func (c *messageController) SendMessage(ctx *fiber.Ctx) error {
	var req dto.SendMessageRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fmt.Errorf("%w: malformed body", service.ErrInvalidRequest)
	}

	if userId, ok := ctx.Locals("user_id").(string); ok && userId != "" {
		req.UserId = userId
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.SendMessage(ctx.UserContext(), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(res)
}

func (c *messageController) GetSession(ctx *fiber.Ctx) error {
	res, err := c.service.GetSession(ctx.UserContext(), ctx.Params("sessionId"))
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get session", res))
}

func (c *messageController) DeleteSession(ctx *fiber.Ctx) error {
	if err := c.service.DeleteSession(ctx.UserContext(), ctx.Params("sessionId")); err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse[any]("Success delete session", nil))
}
