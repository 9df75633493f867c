package inventory

import (
	"errors"
	"fmt"
	"strings"

	"lab-inventory/internal/audit"
	"lab-inventory/internal/auth"
	"lab-inventory/internal/httpx"
	"lab-inventory/internal/models"
	"lab-inventory/internal/store"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// -------------------------
// Request/Response Types
// -------------------------

// SupplyForm is sent as multipart/form-data (with an optional "image" file)
// or as JSON without an image.
type SupplyForm struct {
	Name           string `json:"name" form:"name" validate:"required,max=200"`
	QuantityOnHand int    `json:"quantity_on_hand" form:"quantity_on_hand" validate:"min=0"`
	ReorderPoint   int    `json:"reorder_point" form:"reorder_point" validate:"min=1"`
	SupplierID     uint   `json:"supplier_id" form:"supplier_id" validate:"required"`
	// Version is required on update and ignored on create.
	Version     int  `json:"version" form:"version" validate:"min=0"`
	RemoveImage bool `json:"remove_image" form:"remove_image"`
}

type SupplyResponse struct {
	ID             uint   `json:"id"`
	Name           string `json:"name"`
	QuantityOnHand int    `json:"quantity_on_hand"`
	ReorderPoint   int    `json:"reorder_point"`
	ImageURL       string `json:"image_url"`
	SupplierID     uint   `json:"supplier_id"`
	SupplierName   string `json:"supplier_name"`
	NeedsReorder   bool   `json:"needs_reorder"`
	LowStock       bool   `json:"low_stock"`
	OutOfStock     bool   `json:"out_of_stock"`
	Version        int    `json:"version"`
	CreatedAt      string `json:"created_at"`
	UpdatedAt      string `json:"updated_at"`
}

func NewSupplyResponse(s *models.Supply) SupplyResponse {
	resp := SupplyResponse{
		ID:             s.ID,
		Name:           s.Name,
		QuantityOnHand: s.QuantityOnHand,
		ReorderPoint:   s.ReorderPoint,
		ImageURL:       s.ImageURL,
		SupplierID:     s.SupplierID,
		NeedsReorder:   s.NeedsReorder(),
		LowStock:       s.LowStock(),
		OutOfStock:     s.OutOfStock(),
		Version:        s.Version,
		CreatedAt:      s.CreatedAt.Format(httpx.TimeLayout),
		UpdatedAt:      s.UpdatedAt.Format(httpx.TimeLayout),
	}
	if s.Supplier != nil {
		resp.SupplierName = s.Supplier.Name
	}
	return resp
}

type OpenOrderResponse struct {
	ID               uint   `json:"id"`
	OrderDate        string `json:"order_date"`
	QuantityOrdered  int    `json:"quantity_ordered"`
	QuantityReceived int    `json:"quantity_received"`
	Remaining        int    `json:"remaining"`
	Status           string `json:"status"`
}

type AdjustmentHistoryResponse struct {
	ID              uint   `json:"id"`
	Type            string `json:"adjustment_type"`
	Quantity        int    `json:"quantity"`
	QuantityBefore  int    `json:"quantity_before"`
	QuantityAfter   int    `json:"quantity_after"`
	PurchaseOrderID *uint  `json:"purchase_order_id"`
	Reason          string `json:"reason"`
	Reference       string `json:"reference"`
	UserID          uint   `json:"user_id"`
	CreatedAt       string `json:"created_at"`
}

func (f SupplyForm) apply(s *models.Supply) {
	s.Name = strings.TrimSpace(f.Name)
	s.QuantityOnHand = f.QuantityOnHand
	s.ReorderPoint = f.ReorderPoint
	s.SupplierID = f.SupplierID
}

// saveUploadedImage stores the "image" form file if one was sent. It returns
// "" when the request carries no image.
func saveUploadedImage(c *fiber.Ctx, images ImageStore) (string, error) {
	fh, err := c.FormFile("image")
	if err != nil {
		return "", nil
	}
	if fh.Size > MaxImageSize {
		return "", fiber.NewError(fiber.StatusRequestEntityTooLarge, fmt.Sprintf("image must be at most %d bytes", MaxImageSize))
	}
	f, err := fh.Open()
	if err != nil {
		return "", fiber.NewError(fiber.StatusBadRequest, "could not read image")
	}
	defer f.Close()

	url, err := images.Save(fh.Filename, f)
	if err != nil {
		if errors.Is(err, ErrUnsupportedImage) {
			return "", fiber.NewError(fiber.StatusBadRequest, "image must be jpg, png, gif or webp")
		}
		return "", err
	}
	return url, nil
}

// -------------------------
// Supply CRUD
// -------------------------

// GET /api/supplies?needs_reorder=true&supplier_id=3
func ListSuppliesHandler(st *store.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		supplierID, err := httpx.QueryUint(c, "supplier_id")
		if err != nil {
			return err
		}
		supplies, err := st.ListSupplies(c.UserContext(), store.SupplyFilter{
			SupplierID:   supplierID,
			NeedsReorder: c.QueryBool("needs_reorder", false),
		})
		if err != nil {
			return err
		}
		resp := make([]SupplyResponse, 0, len(supplies))
		for i := range supplies {
			resp = append(resp, NewSupplyResponse(&supplies[i]))
		}
		return c.JSON(resp)
	}
}

// GET /api/supplies/:id
func GetSupplyHandler(st *store.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := httpx.ParseID(c, "id")
		if err != nil {
			return err
		}
		sp, err := st.FindSupplyByID(c.UserContext(), id)
		if err != nil {
			return httpx.StoreError(err, "supply")
		}
		return c.JSON(NewSupplyResponse(sp))
	}
}

// POST /api/supplies
func CreateSupplyHandler(st *store.Store, images ImageStore, rec *audit.Recorder, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var form SupplyForm
		if err := httpx.Bind(c, &form); err != nil {
			return err
		}

		imageURL, err := saveUploadedImage(c, images)
		if err != nil {
			return err
		}

		var sp models.Supply
		form.apply(&sp)
		sp.ImageURL = imageURL
		if err := st.CreateSupply(c.UserContext(), &sp); err != nil {
			discardImage(images, imageURL, log)
			if errors.Is(err, store.ErrForeignKey) {
				return fiber.NewError(fiber.StatusBadRequest, "supplier does not exist")
			}
			return httpx.StoreError(err, "supply")
		}
		if full, err := st.FindSupplyByID(c.UserContext(), sp.ID); err == nil {
			sp = *full
		}

		resp := NewSupplyResponse(&sp)
		actor, _ := auth.CurrentUser(c)
		rec.Record(c.UserContext(), audit.LogOptions{
			UserID:      actor.ID,
			UserName:    actor.Name,
			EntityType:  audit.EntitySupply,
			EntityID:    sp.ID,
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("supply created: %s", sp.Name),
			After:       resp,
		})
		return c.Status(fiber.StatusCreated).JSON(resp)
	}
}

// PUT /api/supplies/:id
func UpdateSupplyHandler(st *store.Store, images ImageStore, rec *audit.Recorder, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := httpx.ParseID(c, "id")
		if err != nil {
			return err
		}
		var form SupplyForm
		if err := httpx.Bind(c, &form); err != nil {
			return err
		}
		if form.Version < 1 {
			return fiber.NewError(fiber.StatusBadRequest, "version is required")
		}

		sp, err := st.FindSupplyByID(c.UserContext(), id)
		if err != nil {
			return httpx.StoreError(err, "supply")
		}
		before := NewSupplyResponse(sp)
		oldImage := sp.ImageURL

		newImage, err := saveUploadedImage(c, images)
		if err != nil {
			return err
		}

		form.apply(sp)
		sp.Version = form.Version
		switch {
		case newImage != "":
			sp.ImageURL = newImage
		case form.RemoveImage:
			sp.ImageURL = ""
		}

		if err := st.UpdateSupply(c.UserContext(), sp); err != nil {
			discardImage(images, newImage, log)
			if errors.Is(err, store.ErrForeignKey) {
				return fiber.NewError(fiber.StatusBadRequest, "supplier does not exist")
			}
			return httpx.StoreError(err, "supply")
		}
		if oldImage != "" && oldImage != sp.ImageURL {
			discardImage(images, oldImage, log)
		}
		if fresh, err := st.FindSupplyByID(c.UserContext(), id); err == nil {
			sp = fresh
		}

		resp := NewSupplyResponse(sp)
		actor, _ := auth.CurrentUser(c)
		rec.Record(c.UserContext(), audit.LogOptions{
			UserID:      actor.ID,
			UserName:    actor.Name,
			EntityType:  audit.EntitySupply,
			EntityID:    sp.ID,
			Action:      models.AuditActionUpdate,
			Description: fmt.Sprintf("supply updated: %s", sp.Name),
			Before:      before,
			After:       resp,
		})
		return c.JSON(resp)
	}
}

// DELETE /api/supplies/:id
func DeleteSupplyHandler(st *store.Store, images ImageStore, rec *audit.Recorder, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := httpx.ParseID(c, "id")
		if err != nil {
			return err
		}
		sp, err := st.DeleteSupply(c.UserContext(), id)
		if err != nil {
			if errors.Is(err, store.ErrForeignKey) {
				return fiber.NewError(fiber.StatusConflict, "supply is referenced by purchase orders or stock adjustments")
			}
			return httpx.StoreError(err, "supply")
		}
		discardImage(images, sp.ImageURL, log)

		actor, _ := auth.CurrentUser(c)
		rec.Record(c.UserContext(), audit.LogOptions{
			UserID:      actor.ID,
			UserName:    actor.Name,
			EntityType:  audit.EntitySupply,
			EntityID:    sp.ID,
			Action:      models.AuditActionDelete,
			Description: fmt.Sprintf("supply deleted: %s", sp.Name),
			Before:      NewSupplyResponse(sp),
		})
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// GET /api/supplies/:id/open-orders
func OpenOrdersHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := httpx.ParseID(c, "id")
		if err != nil {
			return err
		}
		orders, err := svc.OpenOrders(c.UserContext(), id)
		if err != nil {
			return httpx.StoreError(err, "supply")
		}
		resp := make([]OpenOrderResponse, 0, len(orders))
		for _, po := range orders {
			resp = append(resp, OpenOrderResponse{
				ID:               po.ID,
				OrderDate:        po.OrderDate.Format(httpx.TimeLayout),
				QuantityOrdered:  po.QuantityOrdered,
				QuantityReceived: po.QuantityReceived,
				Remaining:        po.Remaining(),
				Status:           po.Status,
			})
		}
		return c.JSON(resp)
	}
}

// GET /api/supplies/:id/adjustments?limit=50
func AdjustmentHistoryHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := httpx.ParseID(c, "id")
		if err != nil {
			return err
		}
		limit := c.QueryInt("limit", 50)
		if limit < 0 {
			limit = 50
		}
		history, err := svc.History(c.UserContext(), id, limit)
		if err != nil {
			return httpx.StoreError(err, "supply")
		}
		resp := make([]AdjustmentHistoryResponse, 0, len(history))
		for _, a := range history {
			resp = append(resp, AdjustmentHistoryResponse{
				ID:              a.ID,
				Type:            string(a.Type),
				Quantity:        a.Quantity,
				QuantityBefore:  a.QuantityBefore,
				QuantityAfter:   a.QuantityAfter,
				PurchaseOrderID: a.PurchaseOrderID,
				Reason:          a.Reason,
				Reference:       a.Reference,
				UserID:          a.UserID,
				CreatedAt:       a.CreatedAt.Format(httpx.TimeLayout),
			})
		}
		return c.JSON(resp)
	}
}

func discardImage(images ImageStore, url string, log *zap.Logger) {
	if url == "" {
		return
	}
	if err := images.Delete(url); err != nil {
		log.Warn("supply image not removed", zap.String("image_url", url), zap.Error(err))
	}
}
