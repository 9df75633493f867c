package auth

import (
	"errors"
	"strings"

	"lab-inventory/internal/config"
	"lab-inventory/internal/httpx"
	"lab-inventory/internal/logger"
	"lab-inventory/internal/models"
	"lab-inventory/internal/store"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type UserResponse struct {
	ID          uint            `json:"id"`
	Name        string          `json:"name"`
	Email       string          `json:"email"`
	Role        models.UserRole `json:"role"`
	Permissions []Permission    `json:"permissions"`
}

func NewUserResponse(u *models.User) UserResponse {
	return UserResponse{
		ID:          u.ID,
		Name:        u.Name,
		Email:       u.Email,
		Role:        u.Role,
		Permissions: PermissionsFor(u.Role),
	}
}

// POST /api/auth/login
func LoginHandler(cfg *config.Config, st *store.Store, log *zap.Logger) fiber.Handler {
	log = logger.Named(log, "auth")
	return func(c *fiber.Ctx) error {
		var body LoginRequest
		if err := httpx.Bind(c, &body); err != nil {
			return err
		}

		email := strings.TrimSpace(strings.ToLower(body.Email))
		user, err := st.FindUserByEmail(c.UserContext(), email)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				log.Info("login failed", zap.String("email", email))
				return fiber.NewError(fiber.StatusUnauthorized, "invalid email or password")
			}
			return err
		}

		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(body.Password)); err != nil {
			log.Info("login failed", zap.String("email", email))
			return fiber.NewError(fiber.StatusUnauthorized, "invalid email or password")
		}

		token, err := GenerateToken(cfg.JWTSecret, cfg.JWTTTL, user)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not issue token")
		}

		return c.JSON(fiber.Map{
			"token": token,
			"user":  NewUserResponse(user),
		})
	}
}

// GET /api/auth/me
func MeHandler(st *store.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, ok := CurrentUser(c)
		if !ok {
			return fiber.NewError(fiber.StatusUnauthorized, "authentication required")
		}
		user, err := st.FindUserByID(c.UserContext(), p.ID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fiber.NewError(fiber.StatusUnauthorized, "user no longer exists")
			}
			return err
		}
		return c.JSON(NewUserResponse(user))
	}
}
