package middleware

import (
	"strings"

	"libtrack/internal/config"
	"libtrack/internal/pkg/jwt"
	"libtrack/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// AuthMiddleware validates the access token from the cookie or the
// Authorization header and stores the claims in locals.
func AuthMiddleware(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := c.Cookies("access_token")

		if token == "" {
			authHeader := c.Get("Authorization")
			if strings.HasPrefix(authHeader, "Bearer ") {
				token = strings.TrimPrefix(authHeader, "Bearer ")
			}
		}

		if token == "" {
			return response.Unauthorized(c, "Authentication required")
		}

		claims, err := jwt.ValidateAccessToken(token, cfg.JWT.Secret)
		if err != nil {
			return response.Unauthorized(c, "Invalid or expired token")
		}

		c.Locals("userID", claims.UserID)
		c.Locals("username", claims.Username)

		return c.Next()
	}
}
