package serverutils

import (
	"github.com/gofiber/fiber/v2"

	"ai-chat-be/pkg/auth"
)

// NewJwtMiddleware resolves the session token into request locals. The token
// arrives either as a Bearer header or as a ?token= query parameter, which is
// how the OAuth redirect hands the token to the client.
func NewJwtMiddleware(codec *auth.TokenCodec) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		tokenStr := ""
		authHeader := ctx.Get("Authorization")
		if len(authHeader) > 7 && authHeader[:7] == "Bearer " {
			tokenStr = authHeader[7:]
		} else {
			tokenStr = ctx.Query("token")
		}

		if tokenStr == "" {
			return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
		}

		claims, err := codec.Verify(tokenStr)
		if err != nil {
			return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
		}

		ctx.Locals("user_id", claims.UserId)
		ctx.Locals("email", claims.Email)
		ctx.Locals("name", claims.Name)
		return ctx.Next()
	}
}
