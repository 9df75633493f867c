package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSupplyNeedsReorder(t *testing.T) {
	cases := []struct {
		name     string
		onHand   int
		reorder  int
		needs    bool
		low      bool
		outStock bool
	}{
		{"below reorder point", 10, 15, true, true, false},
		{"at reorder point", 15, 15, true, true, false},
		{"above reorder point", 16, 15, false, false, false},
		{"out of stock", 0, 5, true, false, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := Supply{QuantityOnHand: tc.onHand, ReorderPoint: tc.reorder}
			assert.Equal(t, tc.needs, s.NeedsReorder())
			assert.Equal(t, tc.low, s.LowStock())
			assert.Equal(t, tc.outStock, s.OutOfStock())
		})
	}
}

func TestPurchaseOrderDerivedFields(t *testing.T) {
	po := PurchaseOrder{QuantityOrdered: 50, QuantityReceived: 20}
	assert.Equal(t, 30, po.Remaining())
	assert.False(t, po.IsFullyReceived())
	assert.InDelta(t, 40.0, po.FulfillmentPct(), 0.0001)

	po.QuantityReceived = 50
	assert.Equal(t, 0, po.Remaining())
	assert.True(t, po.IsFullyReceived())
	assert.Equal(t, 100.0, po.FulfillmentPct())

	assert.Equal(t, 0.0, PurchaseOrder{}.FulfillmentPct())
}

func TestFulfillmentPctBounds(t *testing.T) {
	for ordered := 1; ordered <= 40; ordered++ {
		for received := 0; received <= ordered; received++ {
			po := PurchaseOrder{QuantityOrdered: ordered, QuantityReceived: received}
			pct := po.FulfillmentPct()
			assert.GreaterOrEqual(t, pct, 0.0)
			assert.LessOrEqual(t, pct, 100.0)
			assert.Equal(t, po.IsFullyReceived(), pct == 100, "ordered=%d received=%d", ordered, received)
		}
	}
}

func TestNormalizeStatus(t *testing.T) {
	assert.Equal(t, StatusPending, NormalizeStatus(" pending "))
	assert.Equal(t, StatusPartiallyReceived, NormalizeStatus("PARTIALLY RECEIVED"))
	assert.Equal(t, StatusReceived, NormalizeStatus("received"))
	assert.Equal(t, StatusReceived, NormalizeStatus("Completed"))
	assert.Equal(t, "Cancelled", NormalizeStatus("Cancelled"))
}

func TestStatusRank(t *testing.T) {
	assert.Less(t, StatusRank(StatusPending), StatusRank(StatusPartiallyReceived))
	assert.Less(t, StatusRank(StatusPartiallyReceived), StatusRank(StatusReceived))
	assert.Equal(t, StatusRank(StatusPending), StatusRank("On Hold"))
}

func TestRoleAndAdjustmentTypeValid(t *testing.T) {
	assert.True(t, RoleViewer.Valid())
	assert.False(t, UserRole("Owner").Valid())
	assert.True(t, AdjustmentRemove.Valid())
	assert.False(t, AdjustmentType("add").Valid())
}
