package controller

import (
	"ai-chat-be/internal/dto"
	"ai-chat-be/internal/pkg/serverutils"
	"ai-chat-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IDemoController interface {
	RegisterRoutes(r fiber.Router)
	Answer(ctx *fiber.Ctx) error
}

// demoController serves the unauthenticated landing-page completion. It sits
// behind a per-IP rate limit since there is no session to meter.
type demoController struct {
	service service.IChatService
	limiter fiber.Handler
}

func NewDemoController(service service.IChatService, limiter fiber.Handler) IDemoController {
	return &demoController{service: service, limiter: limiter}
}

func (c *demoController) RegisterRoutes(r fiber.Router) {
	r.Post("/demo-answer", c.limiter, c.Answer)
}

func (c *demoController) Answer(ctx *fiber.Ctx) error {
	var req dto.DemoAnswerRequest
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := serverutils.ValidateRequest(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Question is required"})
	}

	res, err := c.service.DemoAnswer(ctx.Context(), &req)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "AI error"})
	}
	return ctx.JSON(res)
}
