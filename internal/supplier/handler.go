// Package supplier serves the supplier CRUD endpoints.
package supplier

import (
	"errors"
	"fmt"
	"strings"

	"lab-inventory/internal/audit"
	"lab-inventory/internal/auth"
	"lab-inventory/internal/httpx"
	"lab-inventory/internal/models"
	"lab-inventory/internal/store"

	"github.com/gofiber/fiber/v2"
)

// -------------------------
// Request/Response Types
// -------------------------

type SupplierRequest struct {
	Name          string `json:"name" validate:"required,max=200"`
	ContactPerson string `json:"contact_person" validate:"required,max=200"`
	ContactEmail  string `json:"contact_email" validate:"required,email,max=254"`
}

type SupplierResponse struct {
	ID            uint   `json:"id"`
	Name          string `json:"name"`
	ContactPerson string `json:"contact_person"`
	ContactEmail  string `json:"contact_email"`
	CreatedAt     string `json:"created_at"`
	UpdatedAt     string `json:"updated_at"`
}

func NewSupplierResponse(s *models.Supplier) SupplierResponse {
	return SupplierResponse{
		ID:            s.ID,
		Name:          s.Name,
		ContactPerson: s.ContactPerson,
		ContactEmail:  s.ContactEmail,
		CreatedAt:     s.CreatedAt.Format(httpx.TimeLayout),
		UpdatedAt:     s.UpdatedAt.Format(httpx.TimeLayout),
	}
}

func (r SupplierRequest) apply(s *models.Supplier) {
	s.Name = strings.TrimSpace(r.Name)
	s.ContactPerson = strings.TrimSpace(r.ContactPerson)
	s.ContactEmail = strings.TrimSpace(strings.ToLower(r.ContactEmail))
}

// -------------------------
// Supplier CRUD
// -------------------------

// GET /api/suppliers
func ListSuppliersHandler(st *store.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		suppliers, err := st.ListSuppliers(c.UserContext())
		if err != nil {
			return err
		}
		resp := make([]SupplierResponse, 0, len(suppliers))
		for i := range suppliers {
			resp = append(resp, NewSupplierResponse(&suppliers[i]))
		}
		return c.JSON(resp)
	}
}

// GET /api/suppliers/:id
func GetSupplierHandler(st *store.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := httpx.ParseID(c, "id")
		if err != nil {
			return err
		}
		sup, err := st.FindSupplierByID(c.UserContext(), id)
		if err != nil {
			return httpx.StoreError(err, "supplier")
		}
		return c.JSON(NewSupplierResponse(sup))
	}
}

// POST /api/suppliers
func CreateSupplierHandler(st *store.Store, rec *audit.Recorder) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body SupplierRequest
		if err := httpx.Bind(c, &body); err != nil {
			return err
		}

		var sup models.Supplier
		body.apply(&sup)
		if err := st.CreateSupplier(c.UserContext(), &sup); err != nil {
			return httpx.StoreError(err, "supplier")
		}

		resp := NewSupplierResponse(&sup)
		actor, _ := auth.CurrentUser(c)
		rec.Record(c.UserContext(), audit.LogOptions{
			UserID:      actor.ID,
			UserName:    actor.Name,
			EntityType:  audit.EntitySupplier,
			EntityID:    sup.ID,
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("supplier created: %s", sup.Name),
			After:       resp,
		})
		return c.Status(fiber.StatusCreated).JSON(resp)
	}
}

// PUT /api/suppliers/:id
func UpdateSupplierHandler(st *store.Store, rec *audit.Recorder) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := httpx.ParseID(c, "id")
		if err != nil {
			return err
		}
		var body SupplierRequest
		if err := httpx.Bind(c, &body); err != nil {
			return err
		}

		sup, err := st.FindSupplierByID(c.UserContext(), id)
		if err != nil {
			return httpx.StoreError(err, "supplier")
		}
		before := NewSupplierResponse(sup)

		body.apply(sup)
		if err := st.UpdateSupplier(c.UserContext(), sup); err != nil {
			return httpx.StoreError(err, "supplier")
		}
		// reload for the new updated_at
		if fresh, err := st.FindSupplierByID(c.UserContext(), id); err == nil {
			sup = fresh
		}

		resp := NewSupplierResponse(sup)
		actor, _ := auth.CurrentUser(c)
		rec.Record(c.UserContext(), audit.LogOptions{
			UserID:      actor.ID,
			UserName:    actor.Name,
			EntityType:  audit.EntitySupplier,
			EntityID:    sup.ID,
			Action:      models.AuditActionUpdate,
			Description: fmt.Sprintf("supplier updated: %s", sup.Name),
			Before:      before,
			After:       resp,
		})
		return c.JSON(resp)
	}
}

// DELETE /api/suppliers/:id
func DeleteSupplierHandler(st *store.Store, rec *audit.Recorder) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := httpx.ParseID(c, "id")
		if err != nil {
			return err
		}
		sup, err := st.DeleteSupplier(c.UserContext(), id)
		if err != nil {
			if errors.Is(err, store.ErrForeignKey) {
				return fiber.NewError(fiber.StatusConflict, "supplier still has supplies, delete or reassign them first")
			}
			return httpx.StoreError(err, "supplier")
		}

		actor, _ := auth.CurrentUser(c)
		rec.Record(c.UserContext(), audit.LogOptions{
			UserID:      actor.ID,
			UserName:    actor.Name,
			EntityType:  audit.EntitySupplier,
			EntityID:    sup.ID,
			Action:      models.AuditActionDelete,
			Description: fmt.Sprintf("supplier deleted: %s", sup.Name),
			Before:      NewSupplierResponse(sup),
		})
		return c.SendStatus(fiber.StatusNoContent)
	}
}
