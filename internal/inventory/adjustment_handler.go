package inventory

import (
	"errors"
	"fmt"

	"lab-inventory/internal/audit"
	"lab-inventory/internal/auth"
	"lab-inventory/internal/httpx"
	"lab-inventory/internal/models"
	"lab-inventory/internal/store"

	"github.com/gofiber/fiber/v2"
)

// Quantity and type are range-checked by the service so that their failures
// come back with an error kind.
type StockAdjustmentRequest struct {
	SupplyID        uint   `json:"supply_id" validate:"required"`
	Type            string `json:"adjustment_type" validate:"required"`
	Quantity        int    `json:"quantity"`
	Reason          string `json:"reason" validate:"required,max=500"`
	Reference       string `json:"reference" validate:"max=100"`
	PurchaseOrderID *uint  `json:"purchase_order_id"`
}

type StockAdjustmentResponse struct {
	SupplyID         uint `json:"supply_id"`
	PreviousQuantity int  `json:"previous_quantity"`
	NewQuantity      int  `json:"new_quantity"`
	NeedsReorder     bool `json:"needs_reorder"`

	PurchaseOrderID    *uint  `json:"purchase_order_id,omitempty"`
	UpdatedOrderStatus string `json:"updated_order_status,omitempty"`
	QuantityReceived   *int   `json:"quantity_received,omitempty"`
	Remaining          *int   `json:"remaining,omitempty"`

	AdjustmentID uint `json:"adjustment_id"`
}

type AdjustmentErrorResponse struct {
	Error   string         `json:"error"`
	Kind    string         `json:"kind"`
	Details map[string]any `json:"details,omitempty"`
}

// AdjustmentStatus maps an adjustment failure onto an HTTP status.
func AdjustmentStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, ErrInvalidQuantity),
		errors.Is(err, ErrInvalidAdjustment),
		errors.Is(err, ErrInsufficientStock),
		errors.Is(err, ErrOverReceipt):
		return fiber.StatusUnprocessableEntity
	case errors.Is(err, store.ErrConflict):
		return fiber.StatusConflict
	}
	return fiber.StatusInternalServerError
}

// POST /api/stock-adjustments
func StockAdjustmentHandler(svc *Service, rec *audit.Recorder) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body StockAdjustmentRequest
		if err := httpx.Bind(c, &body); err != nil {
			return err
		}
		actor, _ := auth.CurrentUser(c)

		res, err := svc.AdjustStock(c.UserContext(), AdjustmentRequest{
			SupplyID:        body.SupplyID,
			Type:            models.AdjustmentType(body.Type),
			Quantity:        body.Quantity,
			Reason:          body.Reason,
			Reference:       body.Reference,
			PurchaseOrderID: body.PurchaseOrderID,
			UserID:          actor.ID,
		})
		if err != nil {
			var ae *AdjustmentError
			if !errors.As(err, &ae) {
				return err
			}
			status := AdjustmentStatus(ae)
			msg := ae.Message
			switch {
			case status == fiber.StatusConflict:
				msg = "the supply or purchase order was changed by another request, reload and retry"
			case status == fiber.StatusInternalServerError:
				msg = "stock adjustment could not be saved"
			}
			return c.Status(status).JSON(AdjustmentErrorResponse{
				Error:   msg,
				Kind:    ae.Code(),
				Details: ae.Details(),
			})
		}

		resp := StockAdjustmentResponse{
			SupplyID:         res.Supply.ID,
			PreviousQuantity: res.PreviousQuantity,
			NewQuantity:      res.NewQuantity,
			NeedsReorder:     res.Supply.NeedsReorder(),
			AdjustmentID:     res.Adjustment.ID,
		}
		desc := fmt.Sprintf("%s %d x %s (%d -> %d)", body.Type, body.Quantity, res.Supply.Name, res.PreviousQuantity, res.NewQuantity)
		if res.Order != nil {
			id, received, remaining := res.Order.ID, res.Order.QuantityReceived, res.Order.Remaining()
			resp.PurchaseOrderID = &id
			resp.UpdatedOrderStatus = res.UpdatedOrderStatus
			resp.QuantityReceived = &received
			resp.Remaining = &remaining
			desc += fmt.Sprintf(", purchase order %d now %s", id, res.UpdatedOrderStatus)
		}

		rec.Record(c.UserContext(), audit.LogOptions{
			UserID:      actor.ID,
			UserName:    actor.Name,
			EntityType:  audit.EntitySupply,
			EntityID:    res.Supply.ID,
			Action:      models.AuditActionAdjust,
			Description: desc,
			Before:      map[string]any{"quantity_on_hand": res.PreviousQuantity},
			After:       resp,
		})

		return c.JSON(resp)
	}
}
