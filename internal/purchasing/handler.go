// Package purchasing serves purchase order CRUD and the spreadsheet export.
package purchasing

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"

	"lab-inventory/internal/audit"
	"lab-inventory/internal/auth"
	"lab-inventory/internal/httpx"
	"lab-inventory/internal/models"
	"lab-inventory/internal/store"

	"github.com/gofiber/fiber/v2"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// -------------------------
// Request/Response Types
// -------------------------

type CreatePurchaseOrderRequest struct {
	SupplyID        uint   `json:"supply_id" validate:"required"`
	OrderDate       string `json:"order_date"` // RFC 3339 or YYYY-MM-DD, defaults to now
	QuantityOrdered int    `json:"quantity_ordered" validate:"min=1,max=1000000"`
}

type UpdatePurchaseOrderRequest struct {
	SupplyID         uint   `json:"supply_id" validate:"required"`
	OrderDate        string `json:"order_date"`
	QuantityOrdered  int    `json:"quantity_ordered" validate:"min=1,max=1000000"`
	QuantityReceived int    `json:"quantity_received" validate:"min=0"`
	Status           string `json:"status" validate:"max=50"`
	Version          int    `json:"version" validate:"required,min=1"`
}

type PurchaseOrderResponse struct {
	ID               uint    `json:"id"`
	SupplyID         uint    `json:"supply_id"`
	SupplyName       string  `json:"supply_name"`
	OrderDate        string  `json:"order_date"`
	QuantityOrdered  int     `json:"quantity_ordered"`
	QuantityReceived int     `json:"quantity_received"`
	Remaining        int     `json:"remaining"`
	FulfillmentPct   float64 `json:"fulfillment_pct"`
	IsFullyReceived  bool    `json:"is_fully_received"`
	Status           string  `json:"status"`
	Version          int     `json:"version"`
	CreatedAt        string  `json:"created_at"`
	UpdatedAt        string  `json:"updated_at"`
}

func NewPurchaseOrderResponse(po *models.PurchaseOrder) PurchaseOrderResponse {
	resp := PurchaseOrderResponse{
		ID:               po.ID,
		SupplyID:         po.SupplyID,
		OrderDate:        po.OrderDate.Format(httpx.TimeLayout),
		QuantityOrdered:  po.QuantityOrdered,
		QuantityReceived: po.QuantityReceived,
		Remaining:        po.Remaining(),
		FulfillmentPct:   po.FulfillmentPct(),
		IsFullyReceived:  po.IsFullyReceived(),
		Status:           models.NormalizeStatus(po.Status),
		Version:          po.Version,
		CreatedAt:        po.CreatedAt.Format(httpx.TimeLayout),
		UpdatedAt:        po.UpdatedAt.Format(httpx.TimeLayout),
	}
	if po.Supply != nil {
		resp.SupplyName = po.Supply.Name
	}
	return resp
}

func parseOrderDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Now(), nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fiber.NewError(fiber.StatusBadRequest, "order_date must be RFC 3339 or YYYY-MM-DD")
	}
	return t, nil
}

func supplyError(err error) error {
	if errors.Is(err, store.ErrForeignKey) {
		return fiber.NewError(fiber.StatusBadRequest, "supply does not exist")
	}
	return httpx.StoreError(err, "purchase order")
}

// -------------------------
// Purchase Order CRUD
// -------------------------

// GET /api/purchase-orders
func ListPurchaseOrdersHandler(st *store.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		orders, err := st.ListPurchaseOrders(c.UserContext())
		if err != nil {
			return err
		}
		resp := make([]PurchaseOrderResponse, 0, len(orders))
		for i := range orders {
			resp = append(resp, NewPurchaseOrderResponse(&orders[i]))
		}
		return c.JSON(resp)
	}
}

// GET /api/purchase-orders/:id
func GetPurchaseOrderHandler(st *store.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := httpx.ParseID(c, "id")
		if err != nil {
			return err
		}
		po, err := st.FindPurchaseOrderByID(c.UserContext(), id)
		if err != nil {
			return httpx.StoreError(err, "purchase order")
		}
		return c.JSON(NewPurchaseOrderResponse(po))
	}
}

// POST /api/purchase-orders
func CreatePurchaseOrderHandler(st *store.Store, rec *audit.Recorder) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreatePurchaseOrderRequest
		if err := httpx.Bind(c, &body); err != nil {
			return err
		}
		orderDate, err := parseOrderDate(body.OrderDate)
		if err != nil {
			return err
		}

		po := models.PurchaseOrder{
			SupplyID:         body.SupplyID,
			OrderDate:        orderDate,
			QuantityOrdered:  body.QuantityOrdered,
			QuantityReceived: 0,
			Status:           models.StatusPending,
		}
		if err := st.CreatePurchaseOrder(c.UserContext(), &po); err != nil {
			return supplyError(err)
		}
		if full, err := st.FindPurchaseOrderByID(c.UserContext(), po.ID); err == nil {
			po = *full
		}

		resp := NewPurchaseOrderResponse(&po)
		actor, _ := auth.CurrentUser(c)
		rec.Record(c.UserContext(), audit.LogOptions{
			UserID:      actor.ID,
			UserName:    actor.Name,
			EntityType:  audit.EntityPurchaseOrder,
			EntityID:    po.ID,
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("purchase order created: %d x %s", po.QuantityOrdered, resp.SupplyName),
			After:       resp,
		})
		return c.Status(fiber.StatusCreated).JSON(resp)
	}
}

// PUT /api/purchase-orders/:id
func UpdatePurchaseOrderHandler(st *store.Store, rec *audit.Recorder) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := httpx.ParseID(c, "id")
		if err != nil {
			return err
		}
		var body UpdatePurchaseOrderRequest
		if err := httpx.Bind(c, &body); err != nil {
			return err
		}
		if body.QuantityReceived > body.QuantityOrdered {
			return fiber.NewError(fiber.StatusBadRequest, "quantity_received cannot exceed quantity_ordered")
		}

		po, err := st.FindPurchaseOrderByID(c.UserContext(), id)
		if err != nil {
			return httpx.StoreError(err, "purchase order")
		}
		before := NewPurchaseOrderResponse(po)

		if body.OrderDate != "" {
			if po.OrderDate, err = parseOrderDate(body.OrderDate); err != nil {
				return err
			}
		}
		po.SupplyID = body.SupplyID
		po.QuantityOrdered = body.QuantityOrdered
		po.QuantityReceived = body.QuantityReceived
		if s := strings.TrimSpace(body.Status); s != "" {
			po.Status = models.NormalizeStatus(s)
		}
		po.Version = body.Version

		if err := st.UpdatePurchaseOrder(c.UserContext(), po); err != nil {
			return supplyError(err)
		}
		if fresh, err := st.FindPurchaseOrderByID(c.UserContext(), id); err == nil {
			po = fresh
		}

		resp := NewPurchaseOrderResponse(po)
		actor, _ := auth.CurrentUser(c)
		rec.Record(c.UserContext(), audit.LogOptions{
			UserID:      actor.ID,
			UserName:    actor.Name,
			EntityType:  audit.EntityPurchaseOrder,
			EntityID:    po.ID,
			Action:      models.AuditActionUpdate,
			Description: fmt.Sprintf("purchase order %d updated", po.ID),
			Before:      before,
			After:       resp,
		})
		return c.JSON(resp)
	}
}

// DELETE /api/purchase-orders/:id
func DeletePurchaseOrderHandler(st *store.Store, rec *audit.Recorder) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := httpx.ParseID(c, "id")
		if err != nil {
			return err
		}
		po, err := st.DeletePurchaseOrder(c.UserContext(), id)
		if err != nil {
			if errors.Is(err, store.ErrForeignKey) {
				return fiber.NewError(fiber.StatusConflict, "purchase order has received stock adjustments")
			}
			return httpx.StoreError(err, "purchase order")
		}

		actor, _ := auth.CurrentUser(c)
		rec.Record(c.UserContext(), audit.LogOptions{
			UserID:      actor.ID,
			UserName:    actor.Name,
			EntityType:  audit.EntityPurchaseOrder,
			EntityID:    po.ID,
			Action:      models.AuditActionDelete,
			Description: fmt.Sprintf("purchase order %d deleted", po.ID),
			Before:      NewPurchaseOrderResponse(po),
		})
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// GET /api/purchase-orders/export
func ExportPurchaseOrdersHandler(st *store.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		orders, err := st.ListPurchaseOrders(c.UserContext())
		if err != nil {
			return err
		}

		var buf bytes.Buffer
		if err := WritePurchaseOrders(&buf, orders); err != nil {
			return fmt.Errorf("export purchase orders: %w", err)
		}

		c.Attachment(fmt.Sprintf("purchase-orders-%s.xlsx", time.Now().Format("20060102")))
		c.Set(fiber.HeaderContentType, xlsxContentType)
		return c.Send(buf.Bytes())
	}
}
