package models

import "time"

// Supply is a stocked laboratory item.
type Supply struct {
	ID             uint   `gorm:"primaryKey"`
	Name           string `gorm:"size:200;not null"`
	QuantityOnHand int    `gorm:"not null;check:chk_supplies_on_hand,quantity_on_hand >= 0"`
	ReorderPoint   int    `gorm:"not null;check:chk_supplies_reorder_point,reorder_point > 0"`
	ImageURL       string `gorm:"size:500"` // relative path under the image root, empty when none

	SupplierID uint      `gorm:"index;not null"`
	Supplier   *Supplier `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`

	// Version is bumped on every update; writes are conditional on it.
	Version   int `gorm:"not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NeedsReorder reports whether on-hand stock is at or below the reorder point.
func (s Supply) NeedsReorder() bool {
	return s.QuantityOnHand <= s.ReorderPoint
}

func (s Supply) OutOfStock() bool {
	return s.QuantityOnHand == 0
}

// LowStock is a supply that needs reordering but still has units left.
func (s Supply) LowStock() bool {
	return s.NeedsReorder() && s.QuantityOnHand > 0
}
