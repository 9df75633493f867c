package inventory

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"lab-inventory/internal/audit"
	"lab-inventory/internal/auth"
	"lab-inventory/internal/dbtest"
	"lab-inventory/internal/models"
	"lab-inventory/internal/store"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fixture struct {
	st       *store.Store
	app      *fiber.App
	imageDir string
	supplier *models.Supplier
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st := dbtest.Store(t)
	dir := t.TempDir()
	images := NewDiskImageStore(dir)
	rec := audit.NewRecorder(st, zap.NewNop())
	svc := NewService(StoreOf(st), zap.NewNop())
	log := zap.NewNop()

	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals(auth.CtxUserIDKey, uint(1))
		c.Locals(auth.CtxUserRoleKey, models.RoleEmployee)
		c.Locals(auth.CtxUserNameKey, "Tess")
		return c.Next()
	})
	app.Get("/supplies", ListSuppliesHandler(st))
	app.Get("/supplies/:id", GetSupplyHandler(st))
	app.Get("/supplies/:id/open-orders", OpenOrdersHandler(svc))
	app.Get("/supplies/:id/adjustments", AdjustmentHistoryHandler(svc))
	app.Post("/supplies", CreateSupplyHandler(st, images, rec, log))
	app.Put("/supplies/:id", UpdateSupplyHandler(st, images, rec, log))
	app.Delete("/supplies/:id", DeleteSupplyHandler(st, images, rec, log))
	app.Post("/stock-adjustments", StockAdjustmentHandler(svc, rec))

	sup := &models.Supplier{Name: "Thermo", ContactPerson: "Ray", ContactEmail: "ray@thermo.test"}
	require.NoError(t, st.CreateSupplier(context.Background(), sup))

	return &fixture{st: st, app: app, imageDir: dir, supplier: sup}
}

func (f *fixture) do(t *testing.T, req *http.Request) (int, []byte) {
	t.Helper()
	resp, err := f.app.Test(req, -1)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, body
}

func jsonRequest(method, path, body string) *http.Request {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func multipartRequest(t *testing.T, method, path string, fields map[string]string, fileName string, file []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if fileName != "" {
		fw, err := w.CreateFormFile("image", fileName)
		require.NoError(t, err)
		_, err = fw.Write(file)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func idPath(prefix string, id uint) string {
	return prefix + strconv.FormatUint(uint64(id), 10)
}

func TestSupplyLifecycleWithImages(t *testing.T) {
	f := newFixture(t)
	fields := map[string]string{
		"name":             "Petri dishes",
		"quantity_on_hand": "40",
		"reorder_point":    "50",
		"supplier_id":      strconv.FormatUint(uint64(f.supplier.ID), 10),
	}

	status, body := f.do(t, multipartRequest(t, "POST", "/supplies", fields, "dish.jpg", []byte("jpeg")))
	require.Equal(t, fiber.StatusCreated, status, string(body))
	var created SupplyResponse
	require.NoError(t, json.Unmarshal(body, &created))
	assert.True(t, created.NeedsReorder)
	assert.Equal(t, "Thermo", created.SupplierName)
	require.NotEmpty(t, created.ImageURL)
	firstImage := filepath.Join(f.imageDir, filepath.Base(created.ImageURL))
	assert.FileExists(t, firstImage)

	fields["name"] = "Petri dishes 90mm"
	fields["version"] = strconv.Itoa(created.Version)
	status, body = f.do(t, multipartRequest(t, "PUT", idPath("/supplies/", created.ID), fields, "dish.png", []byte("png")))
	require.Equal(t, fiber.StatusOK, status, string(body))
	var updated SupplyResponse
	require.NoError(t, json.Unmarshal(body, &updated))
	assert.Equal(t, "Petri dishes 90mm", updated.Name)
	assert.NotEqual(t, created.ImageURL, updated.ImageURL)
	assert.NoFileExists(t, firstImage)

	// stale version
	status, _ = f.do(t, multipartRequest(t, "PUT", idPath("/supplies/", created.ID), fields, "", nil))
	assert.Equal(t, fiber.StatusConflict, status)

	status, body = f.do(t, httptest.NewRequest("GET", "/supplies?needs_reorder=true", nil))
	require.Equal(t, fiber.StatusOK, status)
	var list []SupplyResponse
	require.NoError(t, json.Unmarshal(body, &list))
	assert.Len(t, list, 1)

	status, _ = f.do(t, httptest.NewRequest("DELETE", idPath("/supplies/", created.ID), nil))
	assert.Equal(t, fiber.StatusNoContent, status)
	assert.NoFileExists(t, filepath.Join(f.imageDir, filepath.Base(updated.ImageURL)))
}

func TestCreateSupplyRejects(t *testing.T) {
	f := newFixture(t)

	status, _ := f.do(t, jsonRequest("POST", "/supplies", `{"name":"Tips","quantity_on_hand":1,"reorder_point":0,"supplier_id":1}`))
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, _ = f.do(t, jsonRequest("POST", "/supplies", `{"name":"Tips","quantity_on_hand":1,"reorder_point":5,"supplier_id":999}`))
	assert.Equal(t, fiber.StatusBadRequest, status)

	fields := map[string]string{"name": "Tips", "quantity_on_hand": "1", "reorder_point": "5", "supplier_id": "1"}
	status, _ = f.do(t, multipartRequest(t, "POST", "/supplies", fields, "virus.exe", []byte("MZ")))
	assert.Equal(t, fiber.StatusBadRequest, status)

	entries, err := os.ReadDir(f.imageDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestDeleteSupplyWithOrders(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sp := &models.Supply{Name: "Agar", QuantityOnHand: 3, ReorderPoint: 2, SupplierID: f.supplier.ID}
	require.NoError(t, f.st.CreateSupply(ctx, sp))
	require.NoError(t, f.st.CreatePurchaseOrder(ctx, &models.PurchaseOrder{
		SupplyID: sp.ID, OrderDate: time.Now(), QuantityOrdered: 5, Status: models.StatusPending,
	}))

	status, _ := f.do(t, httptest.NewRequest("DELETE", idPath("/supplies/", sp.ID), nil))
	assert.Equal(t, fiber.StatusConflict, status)
}

func TestDeleteSupplyWithAdjustmentHistory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sp := &models.Supply{Name: "Ethanol", QuantityOnHand: 6, ReorderPoint: 2, SupplierID: f.supplier.ID}
	require.NoError(t, f.st.CreateSupply(ctx, sp))

	body := `{"supply_id":` + strconv.FormatUint(uint64(sp.ID), 10) +
		`,"adjustment_type":"Remove","quantity":1,"reason":"evaporated"}`
	status, raw := f.do(t, jsonRequest("POST", "/stock-adjustments", body))
	require.Equal(t, fiber.StatusOK, status, string(raw))

	status, _ = f.do(t, httptest.NewRequest("DELETE", idPath("/supplies/", sp.ID), nil))
	assert.Equal(t, fiber.StatusConflict, status)

	status, raw = f.do(t, httptest.NewRequest("GET", idPath("/supplies/", sp.ID)+"/adjustments", nil))
	require.Equal(t, fiber.StatusOK, status)
	var history []AdjustmentHistoryResponse
	require.NoError(t, json.Unmarshal(raw, &history))
	assert.Len(t, history, 1)
}

func TestUpdateSupplyRequiresVersion(t *testing.T) {
	f := newFixture(t)
	sp := &models.Supply{Name: "Buffer", QuantityOnHand: 9, ReorderPoint: 2, SupplierID: f.supplier.ID}
	require.NoError(t, f.st.CreateSupply(context.Background(), sp))

	body := `{"name":"Buffer","quantity_on_hand":100,"reorder_point":2,"supplier_id":` +
		strconv.FormatUint(uint64(f.supplier.ID), 10) + `}`
	status, _ := f.do(t, jsonRequest("PUT", idPath("/supplies/", sp.ID), body))
	assert.Equal(t, fiber.StatusBadRequest, status)

	got, err := f.st.FindSupplyByID(context.Background(), sp.ID)
	require.NoError(t, err)
	assert.Equal(t, 9, got.QuantityOnHand)
}

func TestStockAdjustmentEndpoint(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sp := &models.Supply{Name: "Gloves", QuantityOnHand: 10, ReorderPoint: 15, SupplierID: f.supplier.ID}
	require.NoError(t, f.st.CreateSupply(ctx, sp))
	po := &models.PurchaseOrder{SupplyID: sp.ID, OrderDate: time.Now(), QuantityOrdered: 50, Status: models.StatusPending}
	require.NoError(t, f.st.CreatePurchaseOrder(ctx, po))

	body := `{"supply_id":` + strconv.FormatUint(uint64(sp.ID), 10) +
		`,"adjustment_type":"Add","quantity":20,"reason":"delivery","purchase_order_id":` +
		strconv.FormatUint(uint64(po.ID), 10) + `}`
	status, raw := f.do(t, jsonRequest("POST", "/stock-adjustments", body))
	require.Equal(t, fiber.StatusOK, status, string(raw))
	var ok StockAdjustmentResponse
	require.NoError(t, json.Unmarshal(raw, &ok))
	assert.Equal(t, 30, ok.NewQuantity)
	assert.Equal(t, models.StatusPartiallyReceived, ok.UpdatedOrderStatus)
	require.NotNil(t, ok.Remaining)
	assert.Equal(t, 30, *ok.Remaining)

	cases := []struct {
		name   string
		body   string
		status int
		kind   string
	}{
		{"insufficient", `{"supply_id":%d,"adjustment_type":"Remove","quantity":100,"reason":"spill"}`, fiber.StatusUnprocessableEntity, "insufficient_stock"},
		{"zero quantity", `{"supply_id":%d,"adjustment_type":"Add","quantity":0,"reason":"x"}`, fiber.StatusUnprocessableEntity, "invalid_quantity"},
		{"bad type", `{"supply_id":%d,"adjustment_type":"Move","quantity":1,"reason":"x"}`, fiber.StatusUnprocessableEntity, "invalid_adjustment"},
		{"missing supply", `{"supply_id":%d9,"adjustment_type":"Add","quantity":1,"reason":"x"}`, fiber.StatusNotFound, "not_found"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			b := strings.Replace(tc.body, "%d", strconv.FormatUint(uint64(sp.ID), 10), 1)
			status, raw := f.do(t, jsonRequest("POST", "/stock-adjustments", b))
			require.Equal(t, tc.status, status, string(raw))
			var er AdjustmentErrorResponse
			require.NoError(t, json.Unmarshal(raw, &er))
			assert.Equal(t, tc.kind, er.Kind)
			assert.NotEmpty(t, er.Error)
		})
	}

	over := `{"supply_id":` + strconv.FormatUint(uint64(sp.ID), 10) +
		`,"adjustment_type":"Add","quantity":31,"reason":"delivery","purchase_order_id":` +
		strconv.FormatUint(uint64(po.ID), 10) + `}`
	status, raw = f.do(t, jsonRequest("POST", "/stock-adjustments", over))
	require.Equal(t, fiber.StatusUnprocessableEntity, status)
	var er AdjustmentErrorResponse
	require.NoError(t, json.Unmarshal(raw, &er))
	assert.Equal(t, "over_receipt", er.Kind)
	assert.EqualValues(t, 50, er.Details["ordered"])
	assert.EqualValues(t, 20, er.Details["received"])

	status, _ = f.do(t, jsonRequest("POST", "/stock-adjustments", `{"supply_id":1,"adjustment_type":"Add","quantity":1}`))
	assert.Equal(t, fiber.StatusBadRequest, status, "reason is required")

	status, raw = f.do(t, httptest.NewRequest("GET", idPath("/supplies/", sp.ID)+"/adjustments", nil))
	require.Equal(t, fiber.StatusOK, status)
	var hist []AdjustmentHistoryResponse
	require.NoError(t, json.Unmarshal(raw, &hist))
	require.Len(t, hist, 1)
	assert.Equal(t, "delivery", hist[0].Reason)

	status, raw = f.do(t, httptest.NewRequest("GET", idPath("/supplies/", sp.ID)+"/open-orders", nil))
	require.Equal(t, fiber.StatusOK, status)
	var open []OpenOrderResponse
	require.NoError(t, json.Unmarshal(raw, &open))
	require.Len(t, open, 1)
	assert.Equal(t, 30, open[0].Remaining)

	status, _ = f.do(t, httptest.NewRequest("GET", "/supplies/999/open-orders", nil))
	assert.Equal(t, fiber.StatusNotFound, status)

	logs, err := f.st.ListAuditLogs(ctx, store.AuditFilter{EntityType: audit.EntitySupply, EntityID: sp.ID})
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, models.AuditActionAdjust, logs[0].Action)
	assert.Equal(t, "Tess", logs[0].UserName)
}

func TestAdjustmentStatus(t *testing.T) {
	assert.Equal(t, fiber.StatusConflict, AdjustmentStatus(persistence("x", store.ErrConflict)))
	assert.Equal(t, fiber.StatusInternalServerError, AdjustmentStatus(persistence("x", assert.AnError)))
	assert.Equal(t, fiber.StatusNotFound, AdjustmentStatus(notFound("supply", 1, store.ErrNotFound)))
}
