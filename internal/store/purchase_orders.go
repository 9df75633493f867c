package store

import (
	"context"
	"fmt"

	"lab-inventory/internal/models"
)

func (s *Store) ListPurchaseOrders(ctx context.Context) ([]models.PurchaseOrder, error) {
	var out []models.PurchaseOrder
	err := s.conn(ctx).Preload("Supply").
		Order("order_date desc").Order("id desc").
		Find(&out).Error
	if err != nil {
		return nil, translate(err)
	}
	return out, nil
}

// ListOpenPurchaseOrders returns the supply's orders that still expect units.
func (s *Store) ListOpenPurchaseOrders(ctx context.Context, supplyID uint) ([]models.PurchaseOrder, error) {
	var out []models.PurchaseOrder
	err := s.conn(ctx).
		Where("supply_id = ? AND quantity_received < quantity_ordered", supplyID).
		Order("order_date asc").Order("id asc").
		Find(&out).Error
	if err != nil {
		return nil, translate(err)
	}
	return out, nil
}

func (s *Store) FindPurchaseOrderByID(ctx context.Context, id uint) (*models.PurchaseOrder, error) {
	var po models.PurchaseOrder
	if err := s.conn(ctx).Preload("Supply").First(&po, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &po, nil
}

func (s *Store) CreatePurchaseOrder(ctx context.Context, po *models.PurchaseOrder) error {
	if err := s.requireSupply(ctx, po.SupplyID); err != nil {
		return err
	}
	po.Version = 1
	po.Supply = nil
	return translate(s.conn(ctx).Create(po).Error)
}

// UpdatePurchaseOrder writes every editable column of po, conditional on po.Version.
func (s *Store) UpdatePurchaseOrder(ctx context.Context, po *models.PurchaseOrder) error {
	if err := s.requireSupply(ctx, po.SupplyID); err != nil {
		return err
	}
	err := s.versionedUpdate(ctx, &models.PurchaseOrder{}, po.ID, po.Version, map[string]any{
		"order_date":        po.OrderDate,
		"quantity_ordered":  po.QuantityOrdered,
		"quantity_received": po.QuantityReceived,
		"status":            po.Status,
		"supply_id":         po.SupplyID,
	})
	if err != nil {
		return err
	}
	po.Version++
	return nil
}

// SavePurchaseOrderReceipt persists only the receipt-side columns.
func (s *Store) SavePurchaseOrderReceipt(ctx context.Context, po *models.PurchaseOrder) error {
	err := s.versionedUpdate(ctx, &models.PurchaseOrder{}, po.ID, po.Version, map[string]any{
		"quantity_received": po.QuantityReceived,
		"status":            po.Status,
	})
	if err != nil {
		return err
	}
	po.Version++
	return nil
}

// DeletePurchaseOrder removes an order nothing has been received against.
func (s *Store) DeletePurchaseOrder(ctx context.Context, id uint) (*models.PurchaseOrder, error) {
	var deleted *models.PurchaseOrder
	err := s.Transact(ctx, func(tx *Store) error {
		po, err := tx.FindPurchaseOrderByID(ctx, id)
		if err != nil {
			return err
		}
		var n int64
		if err := tx.conn(ctx).Model(&models.StockAdjustment{}).Where("purchase_order_id = ?", id).Count(&n).Error; err != nil {
			return translate(err)
		}
		if n > 0 {
			return fmt.Errorf("%w: purchase order %d has %d stock adjustments", ErrForeignKey, id, n)
		}
		if err := tx.conn(ctx).Delete(&models.PurchaseOrder{}, "id = ?", id).Error; err != nil {
			return translate(err)
		}
		deleted = po
		return nil
	})
	return deleted, err
}

func (s *Store) requireSupply(ctx context.Context, id uint) error {
	var n int64
	if err := s.conn(ctx).Model(&models.Supply{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return translate(err)
	}
	if n == 0 {
		return fmt.Errorf("%w: supply %d does not exist", ErrForeignKey, id)
	}
	return nil
}
