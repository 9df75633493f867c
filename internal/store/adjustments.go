package store

import (
	"context"

	"lab-inventory/internal/models"
)

func (s *Store) RecordAdjustment(ctx context.Context, adj *models.StockAdjustment) error {
	return translate(s.conn(ctx).Create(adj).Error)
}

// ListAdjustments returns the newest adjustments of a supply first; limit <= 0 means all.
func (s *Store) ListAdjustments(ctx context.Context, supplyID uint, limit int) ([]models.StockAdjustment, error) {
	q := s.conn(ctx).Where("supply_id = ?", supplyID).Order("created_at desc").Order("id desc")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var out []models.StockAdjustment
	if err := q.Find(&out).Error; err != nil {
		return nil, translate(err)
	}
	return out, nil
}
