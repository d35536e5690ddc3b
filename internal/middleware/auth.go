package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/fathima-sithara/social-app/internal/auth"
	"github.com/fathima-sithara/social-app/internal/models"
)

// Locals keys set by JWTAuth.
const (
	LocalUserID = "userID"
	LocalRole   = "role"
)

// JWTAuth verifies the bearer access token and stores the caller's identity
// on the request context.
func JWTAuth(jwtManager *auth.JWTManager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, err := auth.ParseBearerToken(c.Get("Authorization"))
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "missing authorization")
		}
		claims, err := jwtManager.ParseAccess(token)
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid token")
		}
		c.Locals(LocalUserID, claims.UserID)
		c.Locals(LocalRole, claims.Role)
		return c.Next()
	}
}

// AdminOnly requires the admin role; mount after JWTAuth.
func AdminOnly() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if role, _ := c.Locals(LocalRole).(string); role != models.RoleAdmin {
			return fiber.NewError(fiber.StatusForbidden, "admin only")
		}
		return c.Next()
	}
}

// UserID returns the authenticated caller's id from the request context.
func UserID(c *fiber.Ctx) string {
	id, _ := c.Locals(LocalUserID).(string)
	return id
}

// Role returns the authenticated caller's role from the request context.
func Role(c *fiber.Ctx) string {
	role, _ := c.Locals(LocalRole).(string)
	return role
}
