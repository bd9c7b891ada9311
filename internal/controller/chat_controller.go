package controller

import (
	"errors"

	"ai-chat-be/internal/dto"
	"ai-chat-be/internal/pkg/serverutils"
	"ai-chat-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IChatController interface {
	RegisterRoutes(r fiber.Router)
	Create(ctx *fiber.Ctx) error
	List(ctx *fiber.Ctx) error
	Messages(ctx *fiber.Ctx) error
	Send(ctx *fiber.Ctx) error
	SendLatest(ctx *fiber.Ctx) error
	Delete(ctx *fiber.Ctx) error
}

type chatController struct {
	service  service.IChatService
	jwtGuard fiber.Handler
}

func NewChatController(service service.IChatService, jwtGuard fiber.Handler) IChatController {
	return &chatController{service: service, jwtGuard: jwtGuard}
}

func (c *chatController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/chats", c.jwtGuard)
	h.Post("/", c.Create)
	h.Get("/", c.List)
	h.Get("/:chatId/messages", c.Messages)
	h.Post("/:chatId/messages", c.Send)
	h.Delete("/:chatId", c.Delete)

	r.Post("/chat", c.jwtGuard, c.SendLatest)
}

func (c *chatController) Create(ctx *fiber.Ctx) error {
	userId, err := currentUserId(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	chat, err := c.service.CreateChat(ctx.Context(), userId)
	if err != nil {
		return err
	}
	return ctx.Status(fiber.StatusCreated).JSON(fiber.Map{"chat": chat})
}

func (c *chatController) List(ctx *fiber.Ctx) error {
	userId, err := currentUserId(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	chats, err := c.service.ListChats(ctx.Context(), userId)
	if err != nil {
		return err
	}
	return ctx.JSON(fiber.Map{"chats": chats})
}

func (c *chatController) Messages(ctx *fiber.Ctx) error {
	userId, err := currentUserId(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}
	chatId, err := uuid.Parse(ctx.Params("chatId"))
	if err != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Chat not found"})
	}

	messages, err := c.service.GetMessages(ctx.Context(), userId, chatId)
	if err != nil {
		if errors.Is(err, service.ErrChatNotFound) {
			return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Chat not found"})
		}
		return err
	}
	return ctx.JSON(fiber.Map{"messages": messages})
}

func (c *chatController) Send(ctx *fiber.Ctx) error {
	userId, err := currentUserId(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}
	chatId, err := uuid.Parse(ctx.Params("chatId"))
	if err != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Chat not found"})
	}

	var req dto.PostMessageRequest
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := serverutils.ValidateRequest(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Message content is required"})
	}

	res, err := c.service.SendMessage(ctx.Context(), userId, chatId, &req)
	if err != nil {
		if errors.Is(err, service.ErrChatNotFound) {
			return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Chat not found"})
		}
		return err
	}
	return ctx.JSON(res)
}

// SendLatest appends to the caller's most recently updated chat, creating one
// when none exists yet.
func (c *chatController) SendLatest(ctx *fiber.Ctx) error {
	userId, err := currentUserId(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	var req dto.QuickMessageRequest
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := serverutils.ValidateRequest(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Message is required"})
	}

	res, err := c.service.SendToLatest(ctx.Context(), userId, &req)
	if err != nil {
		return err
	}
	return ctx.JSON(fiber.Map{"message": res.AiMessage.Content})
}

func (c *chatController) Delete(ctx *fiber.Ctx) error {
	userId, err := currentUserId(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}
	chatId, err := uuid.Parse(ctx.Params("chatId"))
	if err != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Chat not found"})
	}

	if err := c.service.DeleteChat(ctx.Context(), userId, chatId); err != nil {
		if errors.Is(err, service.ErrChatNotFound) {
			return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Chat not found"})
		}
		return err
	}
	return ctx.SendStatus(fiber.StatusNoContent)
}
