// Package httpx holds the request/response helpers shared by every handler package.
package httpx

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"lab-inventory/internal/store"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

const TimeLayout = "2006-01-02T15:04:05Z07:00"

var validate = newValidator()

// newValidator reports fields by their json name.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}

// ParseID reads a positive integer route parameter.
func ParseID(c *fiber.Ctx, name string) (uint, error) {
	raw := c.Params(name)
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("invalid %s: %q", name, raw))
	}
	return uint(id), nil
}

// QueryUint reads an optional positive integer query parameter; absent is 0.
func QueryUint(c *fiber.Ctx, name string) (uint, error) {
	raw := c.Query(name)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("invalid %s: %q", name, raw))
	}
	return uint(v), nil
}

// Bind parses the body into dst and runs its validate tags.
func Bind(c *fiber.Ctx, dst any) error {
	if err := c.BodyParser(dst); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	return Validate(dst)
}

// Validate runs struct validation and folds the failures into one 400 message.
func Validate(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fieldMessage(fe))
	}
	return fiber.NewError(fiber.StatusBadRequest, strings.Join(msgs, "; "))
}

func fieldMessage(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "email":
		return field + " must be a valid email address"
	case "min", "gte":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max", "lte":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", field, fe.Param())
	}
	return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
}

// StoreError maps store sentinels onto HTTP errors. what names the entity.
func StoreError(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrNotFound):
		return fiber.NewError(fiber.StatusNotFound, what+" not found")
	case errors.Is(err, store.ErrDuplicate):
		return fiber.NewError(fiber.StatusConflict, what+" already exists")
	case errors.Is(err, store.ErrForeignKey):
		return fiber.NewError(fiber.StatusConflict, what+" is referenced by other records")
	case errors.Is(err, store.ErrConflict):
		return fiber.NewError(fiber.StatusConflict, what+" was modified by another request, reload and retry")
	case errors.Is(err, store.ErrConstraint):
		return fiber.NewError(fiber.StatusBadRequest, what+" violates a data constraint")
	}
	return err
}
