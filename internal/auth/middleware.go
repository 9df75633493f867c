package auth

import (
	"strings"

	"lab-inventory/internal/config"
	"lab-inventory/internal/models"

	"github.com/gofiber/fiber/v2"
)

const (
	CtxUserIDKey   = "user_id"
	CtxUserRoleKey = "user_role"
	CtxUserNameKey = "user_name"
)

// Principal is the authenticated caller of a request.
type Principal struct {
	ID   uint
	Name string
	Role models.UserRole
}

func JWTMiddleware(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "missing Authorization header")
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			return fiber.NewError(fiber.StatusUnauthorized, "Authorization header must be 'Bearer <token>'")
		}

		claims, err := ParseToken(cfg.JWTSecret, strings.TrimSpace(parts[1]))
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid or expired token")
		}

		c.Locals(CtxUserIDKey, claims.UserID)
		c.Locals(CtxUserRoleKey, claims.Role)
		c.Locals(CtxUserNameKey, claims.Name)

		return c.Next()
	}
}

// RequirePermission rejects callers whose role does not grant perm.
func RequirePermission(perm Permission) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, ok := CurrentUser(c)
		if !ok {
			return fiber.NewError(fiber.StatusUnauthorized, "authentication required")
		}
		if !Can(p.Role, perm) {
			return fiber.NewError(fiber.StatusForbidden, "you are not allowed to perform this action")
		}
		return c.Next()
	}
}

// CurrentUser reads the principal stored by JWTMiddleware.
func CurrentUser(c *fiber.Ctx) (Principal, bool) {
	id, ok := c.Locals(CtxUserIDKey).(uint)
	if !ok {
		return Principal{}, false
	}
	role, ok := c.Locals(CtxUserRoleKey).(models.UserRole)
	if !ok {
		return Principal{}, false
	}
	name, _ := c.Locals(CtxUserNameKey).(string)
	return Principal{ID: id, Name: name, Role: role}, true
}
