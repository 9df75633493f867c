package admin

import (
	"fmt"
	"strings"

	"lab-inventory/internal/audit"
	"lab-inventory/internal/auth"
	"lab-inventory/internal/httpx"
	"lab-inventory/internal/models"
	"lab-inventory/internal/store"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
)

type CreateUserRequest struct {
	Name     string `json:"name" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Role     string `json:"role" validate:"required,oneof=Admin Manager Employee Viewer"`
}

type UserResponse struct {
	ID        uint            `json:"id"`
	Name      string          `json:"name"`
	Email     string          `json:"email"`
	Role      models.UserRole `json:"role"`
	CreatedAt string          `json:"created_at"`
	UpdatedAt string          `json:"updated_at"`
}

func toUserResponse(u models.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Role:      u.Role,
		CreatedAt: u.CreatedAt.Format(httpx.TimeLayout),
		UpdatedAt: u.UpdatedAt.Format(httpx.TimeLayout),
	}
}

// GET /api/admin/users
func ListUsersHandler(st *store.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		users, err := st.ListUsers(c.UserContext())
		if err != nil {
			return err
		}
		resp := make([]UserResponse, 0, len(users))
		for _, u := range users {
			resp = append(resp, toUserResponse(u))
		}
		return c.JSON(resp)
	}
}

// POST /api/admin/users
func CreateUserHandler(st *store.Store, rec *audit.Recorder) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateUserRequest
		if err := httpx.Bind(c, &body); err != nil {
			return err
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(body.Password), bcrypt.DefaultCost)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not hash password")
		}

		user := models.User{
			Name:         strings.TrimSpace(body.Name),
			Email:        strings.TrimSpace(strings.ToLower(body.Email)),
			PasswordHash: string(hash),
			Role:         models.UserRole(body.Role),
		}
		if err := st.CreateUser(c.UserContext(), &user); err != nil {
			return httpx.StoreError(err, "user")
		}

		resp := toUserResponse(user)
		actor, _ := auth.CurrentUser(c)
		rec.Record(c.UserContext(), audit.LogOptions{
			UserID:      actor.ID,
			UserName:    actor.Name,
			EntityType:  audit.EntityUser,
			EntityID:    user.ID,
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("user created: %s (%s)", user.Email, user.Role),
			After:       resp,
		})

		return c.Status(fiber.StatusCreated).JSON(resp)
	}
}
