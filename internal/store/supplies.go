package store

import (
	"context"
	"fmt"

	"lab-inventory/internal/models"
)

type SupplyFilter struct {
	SupplierID   uint
	NeedsReorder bool
}

func (s *Store) ListSupplies(ctx context.Context, f SupplyFilter) ([]models.Supply, error) {
	q := s.conn(ctx).Preload("Supplier")
	if f.SupplierID != 0 {
		q = q.Where("supplier_id = ?", f.SupplierID)
	}
	if f.NeedsReorder {
		q = q.Where("quantity_on_hand <= reorder_point")
	}

	var out []models.Supply
	if err := q.Order("name asc").Order("id asc").Find(&out).Error; err != nil {
		return nil, translate(err)
	}
	return out, nil
}

func (s *Store) FindSupplyByID(ctx context.Context, id uint) (*models.Supply, error) {
	var sp models.Supply
	if err := s.conn(ctx).Preload("Supplier").First(&sp, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &sp, nil
}

func (s *Store) CreateSupply(ctx context.Context, sp *models.Supply) error {
	if err := s.requireSupplier(ctx, sp.SupplierID); err != nil {
		return err
	}
	sp.Version = 1
	sp.Supplier = nil
	return translate(s.conn(ctx).Create(sp).Error)
}

// UpdateSupply writes every editable column of sp, conditional on sp.Version.
func (s *Store) UpdateSupply(ctx context.Context, sp *models.Supply) error {
	if err := s.requireSupplier(ctx, sp.SupplierID); err != nil {
		return err
	}
	err := s.versionedUpdate(ctx, &models.Supply{}, sp.ID, sp.Version, map[string]any{
		"name":             sp.Name,
		"quantity_on_hand": sp.QuantityOnHand,
		"reorder_point":    sp.ReorderPoint,
		"image_url":        sp.ImageURL,
		"supplier_id":      sp.SupplierID,
	})
	if err != nil {
		return err
	}
	sp.Version++
	return nil
}

// SaveSupplyQuantity persists only the on-hand quantity, conditional on sp.Version.
func (s *Store) SaveSupplyQuantity(ctx context.Context, sp *models.Supply) error {
	err := s.versionedUpdate(ctx, &models.Supply{}, sp.ID, sp.Version, map[string]any{
		"quantity_on_hand": sp.QuantityOnHand,
	})
	if err != nil {
		return err
	}
	sp.Version++
	return nil
}

// DeleteSupply removes a supply that no purchase order or stock adjustment
// references and returns it.
func (s *Store) DeleteSupply(ctx context.Context, id uint) (*models.Supply, error) {
	var deleted *models.Supply
	err := s.Transact(ctx, func(tx *Store) error {
		sp, err := tx.FindSupplyByID(ctx, id)
		if err != nil {
			return err
		}
		var orders, adjustments int64
		if err := tx.conn(ctx).Model(&models.PurchaseOrder{}).Where("supply_id = ?", id).Count(&orders).Error; err != nil {
			return translate(err)
		}
		if orders > 0 {
			return fmt.Errorf("%w: supply %d has %d purchase orders", ErrForeignKey, id, orders)
		}
		if err := tx.conn(ctx).Model(&models.StockAdjustment{}).Where("supply_id = ?", id).Count(&adjustments).Error; err != nil {
			return translate(err)
		}
		if adjustments > 0 {
			return fmt.Errorf("%w: supply %d has %d stock adjustments", ErrForeignKey, id, adjustments)
		}
		if err := tx.conn(ctx).Delete(&models.Supply{}, "id = ?", id).Error; err != nil {
			return translate(err)
		}
		deleted = sp
		return nil
	})
	return deleted, err
}

func (s *Store) requireSupplier(ctx context.Context, id uint) error {
	var n int64
	if err := s.conn(ctx).Model(&models.Supplier{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return translate(err)
	}
	if n == 0 {
		return fmt.Errorf("%w: supplier %d does not exist", ErrForeignKey, id)
	}
	return nil
}
