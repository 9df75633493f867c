package dashboard

import (
	"lab-inventory/internal/store"

	"github.com/gofiber/fiber/v2"
)

// GET /api/dashboard
func SummaryHandler(st *store.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := c.UserContext()
		supplies, err := st.ListSupplies(ctx, store.SupplyFilter{})
		if err != nil {
			return err
		}
		suppliers, err := st.ListSuppliers(ctx)
		if err != nil {
			return err
		}
		orders, err := st.ListPurchaseOrders(ctx)
		if err != nil {
			return err
		}
		return c.JSON(Compute(supplies, suppliers, orders))
	}
}
