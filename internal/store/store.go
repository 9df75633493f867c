// Package store holds the typed data-access functions for every entity.
// All functions translate driver errors into the sentinels in errors.go.
package store

import (
	"context"

	"gorm.io/gorm"
)

type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// DB exposes the underlying handle (the transaction handle inside Transact).
func (s *Store) DB() *gorm.DB {
	return s.db
}

// Transact runs fn inside a database transaction. The Store passed to fn is
// bound to the transaction; returning an error rolls everything back.
func (s *Store) Transact(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx})
	})
}

func (s *Store) conn(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx)
}

// versionedUpdate applies values to the row only if its version still matches,
// bumping the version. A missing row is ErrNotFound, a stale version ErrConflict.
func (s *Store) versionedUpdate(ctx context.Context, model any, id uint, version int, values map[string]any) error {
	values["version"] = version + 1
	res := s.conn(ctx).Model(model).Where("id = ? AND version = ?", id, version).Updates(values)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		var n int64
		if err := s.conn(ctx).Model(model).Where("id = ?", id).Count(&n).Error; err != nil {
			return translate(err)
		}
		if n == 0 {
			return ErrNotFound
		}
		return ErrConflict
	}
	return nil
}
