package inventory

import (
	"fmt"

	"lab-inventory/internal/models"
)

// applyAdjustment returns the on-hand quantity after the adjustment. It does
// not modify sp.
func applyAdjustment(sp *models.Supply, t models.AdjustmentType, qty int) (int, error) {
	switch t {
	case models.AdjustmentAdd:
		return sp.QuantityOnHand + qty, nil
	case models.AdjustmentRemove:
		if qty > sp.QuantityOnHand {
			return 0, &AdjustmentError{
				Kind:      ErrInsufficientStock,
				Message:   "Cannot remove more items than available in stock.",
				SupplyID:  sp.ID,
				OnHand:    sp.QuantityOnHand,
				Requested: qty,
			}
		}
		return sp.QuantityOnHand - qty, nil
	}
	return 0, &AdjustmentError{
		Kind:     ErrInvalidAdjustment,
		Message:  fmt.Sprintf("unknown adjustment type %q", t),
		SupplyID: sp.ID,
	}
}

// receive books qty units against po and advances its status. On error po is
// left untouched.
func receive(po *models.PurchaseOrder, qty int) error {
	if po.QuantityReceived+qty > po.QuantityOrdered {
		return &AdjustmentError{
			Kind: ErrOverReceipt,
			Message: fmt.Sprintf("Cannot receive more than ordered. Ordered: %d, Already Received: %d",
				po.QuantityOrdered, po.QuantityReceived),
			SupplyID:        po.SupplyID,
			PurchaseOrderID: po.ID,
			Ordered:         po.QuantityOrdered,
			Received:        po.QuantityReceived,
			Requested:       qty,
		}
	}
	po.QuantityReceived += qty
	po.Status = nextStatus(po.Status, po.QuantityReceived, po.QuantityOrdered)
	return nil
}

// nextStatus derives the status from the receipt counts, never moving it
// backwards along Pending -> Partially Received -> Received.
func nextStatus(current string, received, ordered int) string {
	derived := models.StatusPending
	switch {
	case ordered > 0 && received >= ordered:
		derived = models.StatusReceived
	case received > 0:
		derived = models.StatusPartiallyReceived
	}
	if models.StatusRank(derived) > models.StatusRank(current) {
		return derived
	}
	if current == "" {
		return models.StatusPending
	}
	return models.NormalizeStatus(current)
}
