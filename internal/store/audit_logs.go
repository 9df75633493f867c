package store

import (
	"context"

	"lab-inventory/internal/models"
)

type AuditFilter struct {
	EntityType string
	EntityID   uint
	UserID     uint
	Limit      int
}

func (s *Store) CreateAuditLog(ctx context.Context, entry *models.AuditLog) error {
	return translate(s.conn(ctx).Create(entry).Error)
}

func (s *Store) ListAuditLogs(ctx context.Context, f AuditFilter) ([]models.AuditLog, error) {
	q := s.conn(ctx).Model(&models.AuditLog{})
	if f.EntityType != "" {
		q = q.Where("entity_type = ?", f.EntityType)
	}
	if f.EntityID != 0 {
		q = q.Where("entity_id = ?", f.EntityID)
	}
	if f.UserID != 0 {
		q = q.Where("user_id = ?", f.UserID)
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}

	var out []models.AuditLog
	if err := q.Order("created_at desc").Order("id desc").Find(&out).Error; err != nil {
		return nil, translate(err)
	}
	return out, nil
}
