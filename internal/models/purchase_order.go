package models

import (
	"strings"
	"time"
)

// Canonical purchase order statuses. Any other value is kept as free text.
const (
	StatusPending           = "Pending"
	StatusPartiallyReceived = "Partially Received"
	StatusReceived          = "Received"
)

// legacyCompleted is accepted on read and treated as StatusReceived.
const legacyCompleted = "Completed"

type PurchaseOrder struct {
	ID               uint      `gorm:"primaryKey"`
	OrderDate        time.Time `gorm:"index;not null"`
	QuantityOrdered  int       `gorm:"not null;check:chk_purchase_orders_ordered,quantity_ordered >= 1"`
	QuantityReceived int       `gorm:"not null;check:chk_purchase_orders_received,quantity_received BETWEEN 0 AND quantity_ordered"`
	Status           string    `gorm:"size:50;not null;index"`

	SupplyID uint    `gorm:"index;not null"`
	Supply   *Supply `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`

	Version   int `gorm:"not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (po PurchaseOrder) Remaining() int {
	return po.QuantityOrdered - po.QuantityReceived
}

func (po PurchaseOrder) IsFullyReceived() bool {
	return po.QuantityReceived >= po.QuantityOrdered
}

// FulfillmentPct is received/ordered as a percentage in [0,100]; 0 when nothing was ordered.
func (po PurchaseOrder) FulfillmentPct() float64 {
	if po.QuantityOrdered <= 0 {
		return 0
	}
	if po.IsFullyReceived() {
		return 100
	}
	if po.QuantityReceived <= 0 {
		return 0
	}
	return float64(po.QuantityReceived) / float64(po.QuantityOrdered) * 100
}

// NormalizeStatus maps known statuses case-insensitively onto the canonical
// vocabulary. Unknown values are returned trimmed.
func NormalizeStatus(s string) string {
	s = strings.TrimSpace(s)
	switch {
	case strings.EqualFold(s, StatusPending):
		return StatusPending
	case strings.EqualFold(s, StatusPartiallyReceived):
		return StatusPartiallyReceived
	case strings.EqualFold(s, StatusReceived), strings.EqualFold(s, legacyCompleted):
		return StatusReceived
	}
	return s
}

// StatusRank orders statuses along Pending -> Partially Received -> Received.
// Free-text statuses rank with Pending.
func StatusRank(s string) int {
	switch NormalizeStatus(s) {
	case StatusPartiallyReceived:
		return 1
	case StatusReceived:
		return 2
	}
	return 0
}
