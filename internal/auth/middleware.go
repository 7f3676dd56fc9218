package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"textile-backend/internal/audit"
	"textile-backend/internal/floor"
	"textile-backend/internal/models"
)

const (
	CtxUserIDKey   = "user_id"
	CtxUserNameKey = "user_name"
	CtxUserRoleKey = "user_role"
	CtxFloorKey    = "user_floor"
)

func JWTMiddleware(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "missing Authorization header")
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			return fiber.NewError(fiber.StatusUnauthorized, "Authorization header must be 'Bearer <token>'")
		}

		claims, err := ParseToken(secret, parts[1])
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid or expired token")
		}

		c.Locals(CtxUserIDKey, claims.UserID)
		c.Locals(CtxUserNameKey, claims.Name)
		c.Locals(CtxUserRoleKey, claims.Role)
		c.Locals(CtxFloorKey, claims.Floor)

		return c.Next()
	}
}

func RequireRole(allowedRoles ...models.UserRole) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role, ok := c.Locals(CtxUserRoleKey).(models.UserRole)
		if !ok {
			return fiber.NewError(fiber.StatusForbidden, "role missing from token")
		}

		for _, r := range allowedRoles {
			if r == role {
				return c.Next()
			}
		}
		return fiber.NewError(fiber.StatusForbidden, "not allowed for this role")
	}
}

// RequireFloorAccess lets admins through and limits a supervisor with an
// assigned floor to routes whose :floor parameter names that floor.
func RequireFloorAccess() fiber.Handler {
	return func(c *fiber.Ctx) error {
		role, _ := c.Locals(CtxUserRoleKey).(models.UserRole)
		if role == models.RoleAdmin {
			return c.Next()
		}
		assigned, _ := c.Locals(CtxFloorKey).(floor.Floor)
		if assigned == "" {
			return c.Next()
		}
		requested, err := floor.Parse(c.Params("floor"))
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if requested != assigned {
			return fiber.NewError(fiber.StatusForbidden, "supervisors can only update their own floor")
		}
		return c.Next()
	}
}

// ActorFrom returns the authenticated user for audit attribution.
func ActorFrom(c *fiber.Ctx) audit.Actor {
	id, _ := c.Locals(CtxUserIDKey).(uint)
	name, _ := c.Locals(CtxUserNameKey).(string)
	return audit.Actor{UserID: id, UserName: name}
}
