package purchasing

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"lab-inventory/internal/audit"
	"lab-inventory/internal/dbtest"
	"lab-inventory/internal/models"
	"lab-inventory/internal/store"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

func setup(t *testing.T) (*fiber.App, *store.Store, *models.Supply) {
	t.Helper()
	ctx := context.Background()
	st := dbtest.Store(t)
	rec := audit.NewRecorder(st, zap.NewNop())

	sup := &models.Supplier{Name: "Merck", ContactPerson: "Jo", ContactEmail: "jo@merck.test"}
	require.NoError(t, st.CreateSupplier(ctx, sup))
	sp := &models.Supply{Name: "Acetone", QuantityOnHand: 4, ReorderPoint: 10, SupplierID: sup.ID}
	require.NoError(t, st.CreateSupply(ctx, sp))

	app := fiber.New()
	app.Get("/purchase-orders", ListPurchaseOrdersHandler(st))
	app.Get("/purchase-orders/export", ExportPurchaseOrdersHandler(st))
	app.Get("/purchase-orders/:id", GetPurchaseOrderHandler(st))
	app.Post("/purchase-orders", CreatePurchaseOrderHandler(st, rec))
	app.Put("/purchase-orders/:id", UpdatePurchaseOrderHandler(st, rec))
	app.Delete("/purchase-orders/:id", DeletePurchaseOrderHandler(st, rec))
	return app, st, sp
}

func call(t *testing.T, app *fiber.App, method, path, body string) (int, []byte) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, b
}

func TestPurchaseOrderCRUD(t *testing.T) {
	app, _, sp := setup(t)

	status, body := call(t, app, "POST", "/purchase-orders",
		fmt.Sprintf(`{"supply_id":%d,"order_date":"2024-05-01","quantity_ordered":50}`, sp.ID))
	require.Equal(t, fiber.StatusCreated, status, string(body))
	var po PurchaseOrderResponse
	require.NoError(t, json.Unmarshal(body, &po))
	assert.Equal(t, models.StatusPending, po.Status)
	assert.Equal(t, 0, po.QuantityReceived)
	assert.Equal(t, 50, po.Remaining)
	assert.Equal(t, "Acetone", po.SupplyName)

	status, _ = call(t, app, "POST", "/purchase-orders", fmt.Sprintf(`{"supply_id":%d,"quantity_ordered":0}`, sp.ID))
	assert.Equal(t, fiber.StatusBadRequest, status)
	status, _ = call(t, app, "POST", "/purchase-orders", `{"supply_id":999,"quantity_ordered":3}`)
	assert.Equal(t, fiber.StatusBadRequest, status)
	status, _ = call(t, app, "POST", "/purchase-orders", fmt.Sprintf(`{"supply_id":%d,"quantity_ordered":3,"order_date":"yesterday"}`, sp.ID))
	assert.Equal(t, fiber.StatusBadRequest, status)

	path := fmt.Sprintf("/purchase-orders/%d", po.ID)
	status, _ = call(t, app, "PUT", path,
		fmt.Sprintf(`{"supply_id":%d,"quantity_ordered":10,"quantity_received":11,"version":%d}`, sp.ID, po.Version))
	assert.Equal(t, fiber.StatusBadRequest, status)
	status, _ = call(t, app, "PUT", path,
		fmt.Sprintf(`{"supply_id":%d,"quantity_ordered":40,"quantity_received":5}`, sp.ID))
	assert.Equal(t, fiber.StatusBadRequest, status, "missing version")

	status, body = call(t, app, "PUT", path,
		fmt.Sprintf(`{"supply_id":%d,"quantity_ordered":40,"quantity_received":10,"status":"partially received","version":%d}`, sp.ID, po.Version))
	require.Equal(t, fiber.StatusOK, status, string(body))
	var updated PurchaseOrderResponse
	require.NoError(t, json.Unmarshal(body, &updated))
	assert.Equal(t, models.StatusPartiallyReceived, updated.Status)
	assert.InDelta(t, 25.0, updated.FulfillmentPct, 0.001)
	assert.Equal(t, "2024-05-01", updated.OrderDate[:10])

	status, _ = call(t, app, "PUT", path,
		fmt.Sprintf(`{"supply_id":%d,"quantity_ordered":40,"quantity_received":10,"version":%d}`, sp.ID, po.Version))
	assert.Equal(t, fiber.StatusConflict, status, "stale version")

	status, body = call(t, app, "GET", "/purchase-orders", "")
	require.Equal(t, fiber.StatusOK, status)
	var list []PurchaseOrderResponse
	require.NoError(t, json.Unmarshal(body, &list))
	assert.Len(t, list, 1)

	status, _ = call(t, app, "DELETE", path, "")
	assert.Equal(t, fiber.StatusNoContent, status)
	status, _ = call(t, app, "GET", path, "")
	assert.Equal(t, fiber.StatusNotFound, status)
}

func TestDeleteReceivedPurchaseOrder(t *testing.T) {
	app, st, sp := setup(t)
	ctx := context.Background()
	po := &models.PurchaseOrder{
		SupplyID: sp.ID, QuantityOrdered: 10, QuantityReceived: 10, Status: models.StatusReceived,
	}
	require.NoError(t, st.CreatePurchaseOrder(ctx, po))
	require.NoError(t, st.RecordAdjustment(ctx, &models.StockAdjustment{
		SupplyID: sp.ID, PurchaseOrderID: &po.ID, Type: models.AdjustmentAdd, Quantity: 10,
		QuantityBefore: 4, QuantityAfter: 14, Reason: "delivery",
	}))

	path := fmt.Sprintf("/purchase-orders/%d", po.ID)
	status, body := call(t, app, "DELETE", path, "")
	assert.Equal(t, fiber.StatusConflict, status, string(body))
	status, _ = call(t, app, "GET", path, "")
	assert.Equal(t, fiber.StatusOK, status)
}

func TestExportEndpoint(t *testing.T) {
	app, st, sp := setup(t)
	require.NoError(t, st.CreatePurchaseOrder(context.Background(), &models.PurchaseOrder{
		SupplyID: sp.ID, QuantityOrdered: 8, QuantityReceived: 2, Status: models.StatusPartiallyReceived,
	}))

	req := httptest.NewRequest("GET", "/purchase-orders/export", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, xlsxContentType, resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "purchase-orders-")

	f, err := excelize.OpenReader(resp.Body)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(exportSheet)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Acetone", rows[1][1])
	assert.Equal(t, "25.00%", rows[1][6])
}
