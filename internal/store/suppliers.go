package store

import (
	"context"
	"fmt"

	"lab-inventory/internal/models"
)

func (s *Store) ListSuppliers(ctx context.Context) ([]models.Supplier, error) {
	var out []models.Supplier
	if err := s.conn(ctx).Order("name asc").Find(&out).Error; err != nil {
		return nil, translate(err)
	}
	return out, nil
}

func (s *Store) FindSupplierByID(ctx context.Context, id uint) (*models.Supplier, error) {
	var sup models.Supplier
	if err := s.conn(ctx).First(&sup, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &sup, nil
}

func (s *Store) CreateSupplier(ctx context.Context, sup *models.Supplier) error {
	return translate(s.conn(ctx).Create(sup).Error)
}

func (s *Store) UpdateSupplier(ctx context.Context, sup *models.Supplier) error {
	res := s.conn(ctx).Model(&models.Supplier{}).Where("id = ?", sup.ID).Updates(map[string]any{
		"name":           sup.Name,
		"contact_person": sup.ContactPerson,
		"contact_email":  sup.ContactEmail,
	})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteSupplier removes a supplier that owns no supplies and returns it.
func (s *Store) DeleteSupplier(ctx context.Context, id uint) (*models.Supplier, error) {
	var deleted *models.Supplier
	err := s.Transact(ctx, func(tx *Store) error {
		sup, err := tx.FindSupplierByID(ctx, id)
		if err != nil {
			return err
		}
		var n int64
		if err := tx.conn(ctx).Model(&models.Supply{}).Where("supplier_id = ?", id).Count(&n).Error; err != nil {
			return translate(err)
		}
		if n > 0 {
			return fmt.Errorf("%w: supplier %d has %d supplies", ErrForeignKey, id, n)
		}
		if err := tx.conn(ctx).Delete(&models.Supplier{}, "id = ?", id).Error; err != nil {
			return translate(err)
		}
		deleted = sup
		return nil
	})
	return deleted, err
}
