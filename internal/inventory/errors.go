package inventory

import (
	"errors"
	"fmt"
)

// Error kinds reported by AdjustStock. Match them with errors.Is.
var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidQuantity   = errors.New("invalid quantity")
	ErrInvalidAdjustment = errors.New("invalid adjustment")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrOverReceipt       = errors.New("over receipt")
	ErrPersistence       = errors.New("persistence failure")
)

// AdjustmentError carries the values a caller needs to explain a rejected
// adjustment. Only the fields relevant to Kind are set.
type AdjustmentError struct {
	Kind    error
	Message string

	SupplyID        uint
	PurchaseOrderID uint
	OnHand          int
	Requested       int
	Ordered         int
	Received        int

	Err error // underlying store error for ErrPersistence and ErrNotFound
}

func (e *AdjustmentError) Error() string {
	if e.Err != nil && e.Kind == ErrPersistence {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AdjustmentError) Is(target error) bool {
	return target == e.Kind
}

func (e *AdjustmentError) Unwrap() error {
	return e.Err
}

// Code is the stable machine-readable name of the error kind.
func (e *AdjustmentError) Code() string {
	switch e.Kind {
	case ErrNotFound:
		return "not_found"
	case ErrInvalidQuantity:
		return "invalid_quantity"
	case ErrInvalidAdjustment:
		return "invalid_adjustment"
	case ErrInsufficientStock:
		return "insufficient_stock"
	case ErrOverReceipt:
		return "over_receipt"
	}
	return "persistence_failure"
}

// Details is the kind-specific payload rendered to API clients.
func (e *AdjustmentError) Details() map[string]any {
	d := map[string]any{}
	if e.SupplyID != 0 {
		d["supply_id"] = e.SupplyID
	}
	if e.PurchaseOrderID != 0 {
		d["purchase_order_id"] = e.PurchaseOrderID
	}
	switch e.Kind {
	case ErrInsufficientStock:
		d["on_hand"] = e.OnHand
		d["requested"] = e.Requested
	case ErrOverReceipt:
		d["ordered"] = e.Ordered
		d["received"] = e.Received
		d["requested"] = e.Requested
	case ErrInvalidQuantity:
		d["requested"] = e.Requested
	}
	return d
}

func notFound(what string, id uint, err error) *AdjustmentError {
	e := &AdjustmentError{
		Kind:    ErrNotFound,
		Message: fmt.Sprintf("%s %d not found", what, id),
		Err:     err,
	}
	if what == "supply" {
		e.SupplyID = id
	} else {
		e.PurchaseOrderID = id
	}
	return e
}

func persistence(msg string, err error) *AdjustmentError {
	return &AdjustmentError{Kind: ErrPersistence, Message: msg, Err: err}
}
