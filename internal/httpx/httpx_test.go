package httpx

import (
	"errors"
	"fmt"
	"net/http/httptest"
	"testing"

	"lab-inventory/internal/store"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Quantity int    `json:"quantity" validate:"min=1,max=10"`
	Type     string `json:"type" validate:"oneof=Add Remove"`
}

func TestValidateUsesJSONNames(t *testing.T) {
	err := Validate(&sampleRequest{Email: "nope", Quantity: 0, Type: "Move"})
	var fe *fiber.Error
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, fiber.StatusBadRequest, fe.Code)
	assert.Contains(t, fe.Message, "email must be a valid email address")
	assert.Contains(t, fe.Message, "quantity must be at least 1")
	assert.Contains(t, fe.Message, "type must be one of [Add Remove]")

	assert.NoError(t, Validate(&sampleRequest{Email: "a@b.test", Quantity: 3, Type: "Add"}))
}

func TestStoreError(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{store.ErrNotFound, fiber.StatusNotFound},
		{fmt.Errorf("wrapped: %w", store.ErrDuplicate), fiber.StatusConflict},
		{store.ErrForeignKey, fiber.StatusConflict},
		{store.ErrConflict, fiber.StatusConflict},
		{store.ErrConstraint, fiber.StatusBadRequest},
	}
	for _, tc := range cases {
		var fe *fiber.Error
		require.True(t, errors.As(StoreError(tc.err, "supply"), &fe), tc.err.Error())
		assert.Equal(t, tc.code, fe.Code)
	}

	other := errors.New("connection reset")
	assert.Same(t, other, StoreError(other, "supply"))
	assert.NoError(t, StoreError(nil, "supply"))
}

func TestParseID(t *testing.T) {
	app := fiber.New()
	app.Get("/things/:id", func(c *fiber.Ctx) error {
		id, err := ParseID(c, "id")
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"id": id})
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/things/42", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("GET", "/things/abc", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("GET", "/things/0", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}
