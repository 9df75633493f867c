package models

import "time"

type AdjustmentType string

const (
	AdjustmentAdd    AdjustmentType = "Add"
	AdjustmentRemove AdjustmentType = "Remove"
)

func (t AdjustmentType) Valid() bool {
	return t == AdjustmentAdd || t == AdjustmentRemove
}

// StockAdjustment is the ledger row written alongside every applied adjustment.
type StockAdjustment struct {
	ID              uint           `gorm:"primaryKey"`
	SupplyID        uint           `gorm:"index;not null"`
	Supply          *Supply        `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
	PurchaseOrderID *uint          `gorm:"index"`
	PurchaseOrder   *PurchaseOrder `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
	Type            AdjustmentType `gorm:"size:10;not null"`
	Quantity        int            `gorm:"not null"`
	QuantityBefore  int            `gorm:"not null"`
	QuantityAfter   int            `gorm:"not null"`
	Reason          string         `gorm:"size:500;not null"`
	Reference       string         `gorm:"size:100"`
	UserID          uint           `gorm:"index"`
	CreatedAt       time.Time      `gorm:"index"`
}
