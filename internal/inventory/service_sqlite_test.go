package inventory

import (
	"context"
	"testing"
	"time"

	"lab-inventory/internal/dbtest"
	"lab-inventory/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestAdjustStockAgainstDatabase(t *testing.T) {
	ctx := context.Background()
	st := dbtest.Store(t)

	sup := &models.Supplier{Name: "Fisher", ContactPerson: "Grace", ContactEmail: "sales@fisher.test"}
	require.NoError(t, st.CreateSupplier(ctx, sup))
	sp := &models.Supply{Name: "Ethanol 70%", QuantityOnHand: 10, ReorderPoint: 15, SupplierID: sup.ID}
	require.NoError(t, st.CreateSupply(ctx, sp))
	po := &models.PurchaseOrder{SupplyID: sp.ID, OrderDate: time.Now(), QuantityOrdered: 50, Status: models.StatusPending}
	require.NoError(t, st.CreatePurchaseOrder(ctx, po))

	svc := NewService(StoreOf(st), zap.NewNop())

	res, err := svc.AdjustStock(ctx, AdjustmentRequest{
		SupplyID: sp.ID, Type: models.AdjustmentAdd, Quantity: 20, PurchaseOrderID: &po.ID, Reason: "delivery", UserID: 1,
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusPartiallyReceived, res.UpdatedOrderStatus)

	_, err = svc.AdjustStock(ctx, AdjustmentRequest{
		SupplyID: sp.ID, Type: models.AdjustmentAdd, Quantity: 31, PurchaseOrderID: &po.ID, Reason: "delivery",
	})
	require.ErrorIs(t, err, ErrOverReceipt)

	gotSupply, err := st.FindSupplyByID(ctx, sp.ID)
	require.NoError(t, err)
	assert.Equal(t, 30, gotSupply.QuantityOnHand)
	assert.Equal(t, 2, gotSupply.Version)

	gotOrder, err := st.FindPurchaseOrderByID(ctx, po.ID)
	require.NoError(t, err)
	assert.Equal(t, 20, gotOrder.QuantityReceived)
	assert.Equal(t, models.StatusPartiallyReceived, gotOrder.Status)

	hist, err := svc.History(ctx, sp.ID, 0)
	require.NoError(t, err)
	require.Len(t, hist, 1)
	assert.Equal(t, 10, hist[0].QuantityBefore)
	assert.Equal(t, 30, hist[0].QuantityAfter)
	require.NotNil(t, hist[0].PurchaseOrderID)
	assert.Equal(t, po.ID, *hist[0].PurchaseOrderID)

	open, err := svc.OpenOrders(ctx, sp.ID)
	require.NoError(t, err)
	assert.Len(t, open, 1)

	_, err = svc.AdjustStock(ctx, AdjustmentRequest{
		SupplyID: sp.ID, Type: models.AdjustmentAdd, Quantity: 30, PurchaseOrderID: &po.ID, Reason: "delivery",
	})
	require.NoError(t, err)
	open, err = svc.OpenOrders(ctx, sp.ID)
	require.NoError(t, err)
	assert.Empty(t, open)
}
