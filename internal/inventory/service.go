// Package inventory reconciles on-hand stock with purchase order receipts.
package inventory

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"lab-inventory/internal/logger"
	"lab-inventory/internal/models"
	"lab-inventory/internal/store"

	"go.uber.org/zap"
)

// MaxAdjustmentQuantity caps a single adjustment.
const MaxAdjustmentQuantity = 10000

// Tx is the slice of the entity store an adjustment runs against. Every call
// made through one Tx commits or rolls back together.
type Tx interface {
	FindSupplyByID(ctx context.Context, id uint) (*models.Supply, error)
	FindPurchaseOrderByID(ctx context.Context, id uint) (*models.PurchaseOrder, error)
	SaveSupplyQuantity(ctx context.Context, sp *models.Supply) error
	SavePurchaseOrderReceipt(ctx context.Context, po *models.PurchaseOrder) error
	RecordAdjustment(ctx context.Context, adj *models.StockAdjustment) error
}

type Store interface {
	InTx(ctx context.Context, fn func(tx Tx) error) error
	FindSupplyByID(ctx context.Context, id uint) (*models.Supply, error)
	ListOpenPurchaseOrders(ctx context.Context, supplyID uint) ([]models.PurchaseOrder, error)
	ListAdjustments(ctx context.Context, supplyID uint, limit int) ([]models.StockAdjustment, error)
}

type gormStore struct {
	*store.Store
}

// StoreOf adapts the gorm-backed store to Store.
func StoreOf(st *store.Store) Store {
	return gormStore{Store: st}
}

func (g gormStore) InTx(ctx context.Context, fn func(tx Tx) error) error {
	return g.Transact(ctx, func(tx *store.Store) error {
		return fn(tx)
	})
}

type AdjustmentRequest struct {
	SupplyID        uint
	Type            models.AdjustmentType
	Quantity        int
	Reason          string
	Reference       string
	PurchaseOrderID *uint // nil or 0 means no purchase order
	UserID          uint
}

type AdjustmentResult struct {
	Supply           *models.Supply
	PreviousQuantity int
	NewQuantity      int

	// Order and UpdatedOrderStatus are set only for receipts against a purchase order.
	Order              *models.PurchaseOrder
	UpdatedOrderStatus string

	Adjustment *models.StockAdjustment
}

type Service struct {
	store Store
	log   *zap.Logger
}

func NewService(st Store, log *zap.Logger) *Service {
	return &Service{store: st, log: logger.Named(log, "inventory")}
}

// AdjustStock applies an Add or Remove to a supply and, for an Add against a
// purchase order, records the receipt on that order. Supply, order and ledger
// row are persisted in one transaction. Failures are *AdjustmentError values.
func (s *Service) AdjustStock(ctx context.Context, req AdjustmentRequest) (*AdjustmentResult, error) {
	if err := req.check(); err != nil {
		s.logRejected(req, err)
		return nil, err
	}

	var res *AdjustmentResult
	err := s.store.InTx(ctx, func(tx Tx) error {
		r, err := s.adjust(ctx, tx, req)
		if err != nil {
			return err
		}
		res = r
		return nil
	})
	if err != nil {
		var ae *AdjustmentError
		if !errors.As(err, &ae) {
			ae = persistence("failed to commit stock adjustment", err)
		}
		s.logRejected(req, ae)
		return nil, ae
	}

	fields := []zap.Field{
		zap.Uint("supply_id", req.SupplyID),
		zap.String("type", string(req.Type)),
		zap.Int("quantity", req.Quantity),
		zap.Int("previous_quantity", res.PreviousQuantity),
		zap.Int("new_quantity", res.NewQuantity),
		zap.Uint("user_id", req.UserID),
	}
	if res.Order != nil {
		fields = append(fields,
			zap.Uint("purchase_order_id", res.Order.ID),
			zap.String("order_status", res.UpdatedOrderStatus),
		)
	}
	s.log.Info("stock adjusted", fields...)
	return res, nil
}

func (s *Service) adjust(ctx context.Context, tx Tx, req AdjustmentRequest) (*AdjustmentResult, error) {
	sp, err := tx.FindSupplyByID(ctx, req.SupplyID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, notFound("supply", req.SupplyID, err)
		}
		return nil, persistence("failed to load supply", err)
	}

	var po *models.PurchaseOrder
	if id := req.orderID(); id != 0 {
		po, err = tx.FindPurchaseOrderByID(ctx, id)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil, notFound("purchase order", id, err)
			}
			return nil, persistence("failed to load purchase order", err)
		}
		if po.SupplyID != sp.ID {
			return nil, &AdjustmentError{
				Kind:            ErrInvalidAdjustment,
				Message:         fmt.Sprintf("purchase order %d is not for supply %d", po.ID, sp.ID),
				SupplyID:        sp.ID,
				PurchaseOrderID: po.ID,
			}
		}
	}

	before := sp.QuantityOnHand
	after, err := applyAdjustment(sp, req.Type, req.Quantity)
	if err != nil {
		return nil, err
	}
	if po != nil {
		if err := receive(po, req.Quantity); err != nil {
			return nil, err
		}
	}

	sp.QuantityOnHand = after
	if err := tx.SaveSupplyQuantity(ctx, sp); err != nil {
		return nil, persistence("failed to save supply", err)
	}
	if po != nil {
		if err := tx.SavePurchaseOrderReceipt(ctx, po); err != nil {
			return nil, persistence("failed to save purchase order", err)
		}
	}

	adj := &models.StockAdjustment{
		SupplyID:       sp.ID,
		Type:           req.Type,
		Quantity:       req.Quantity,
		QuantityBefore: before,
		QuantityAfter:  after,
		Reason:         strings.TrimSpace(req.Reason),
		Reference:      strings.TrimSpace(req.Reference),
		UserID:         req.UserID,
	}
	if po != nil {
		id := po.ID
		adj.PurchaseOrderID = &id
	}
	if err := tx.RecordAdjustment(ctx, adj); err != nil {
		return nil, persistence("failed to record stock adjustment", err)
	}

	res := &AdjustmentResult{
		Supply:           sp,
		PreviousQuantity: before,
		NewQuantity:      after,
		Adjustment:       adj,
	}
	if po != nil {
		res.Order = po
		res.UpdatedOrderStatus = po.Status
	}
	return res, nil
}

// OpenOrders lists the supply's purchase orders that can still receive units.
func (s *Service) OpenOrders(ctx context.Context, supplyID uint) ([]models.PurchaseOrder, error) {
	if _, err := s.store.FindSupplyByID(ctx, supplyID); err != nil {
		return nil, err
	}
	return s.store.ListOpenPurchaseOrders(ctx, supplyID)
}

// History returns the newest adjustments of a supply first.
func (s *Service) History(ctx context.Context, supplyID uint, limit int) ([]models.StockAdjustment, error) {
	if _, err := s.store.FindSupplyByID(ctx, supplyID); err != nil {
		return nil, err
	}
	return s.store.ListAdjustments(ctx, supplyID, limit)
}

func (s *Service) logRejected(req AdjustmentRequest, err error) {
	fields := []zap.Field{
		zap.Uint("supply_id", req.SupplyID),
		zap.String("type", string(req.Type)),
		zap.Int("quantity", req.Quantity),
		zap.Error(err),
	}
	if errors.Is(err, ErrPersistence) {
		s.log.Error("stock adjustment failed", fields...)
		return
	}
	s.log.Info("stock adjustment rejected", fields...)
}

func (r AdjustmentRequest) orderID() uint {
	if r.PurchaseOrderID == nil {
		return 0
	}
	return *r.PurchaseOrderID
}

func (r AdjustmentRequest) check() error {
	if r.Quantity <= 0 || r.Quantity > MaxAdjustmentQuantity {
		return &AdjustmentError{
			Kind:      ErrInvalidQuantity,
			Message:   fmt.Sprintf("quantity must be between 1 and %d", MaxAdjustmentQuantity),
			SupplyID:  r.SupplyID,
			Requested: r.Quantity,
		}
	}
	if !r.Type.Valid() {
		return &AdjustmentError{
			Kind:     ErrInvalidAdjustment,
			Message:  fmt.Sprintf("unknown adjustment type %q", r.Type),
			SupplyID: r.SupplyID,
		}
	}
	if r.Type == models.AdjustmentRemove && r.orderID() != 0 {
		return &AdjustmentError{
			Kind:            ErrInvalidAdjustment,
			Message:         "a removal cannot reference a purchase order",
			SupplyID:        r.SupplyID,
			PurchaseOrderID: r.orderID(),
		}
	}
	return nil
}
