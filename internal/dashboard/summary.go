// Package dashboard derives the inventory overview shown on the landing page.
package dashboard

import (
	"sort"
	"strings"

	"lab-inventory/internal/models"
)

// TopN is the length of the low-stock and recent-order lists.
const TopN = 5

type Summary struct {
	TotalSupplies           int `json:"total_supplies"`
	LowStockCount           int `json:"low_stock_count"`
	OutOfStockCount         int `json:"out_of_stock_count"`
	TotalSuppliers          int `json:"total_suppliers"`
	PendingOrders           int `json:"pending_orders"`
	PartiallyReceivedOrders int `json:"partially_received_orders"`
	CompletedOrders         int `json:"completed_orders"`

	LowStockSupplies []SupplyItem `json:"low_stock_supplies"`
	RecentOrders     []OrderItem  `json:"recent_orders"`
}

type SupplyItem struct {
	ID             uint   `json:"id"`
	Name           string `json:"name"`
	QuantityOnHand int    `json:"quantity_on_hand"`
	ReorderPoint   int    `json:"reorder_point"`
	SupplierName   string `json:"supplier_name"`
	OutOfStock     bool   `json:"out_of_stock"`
}

type OrderItem struct {
	ID               uint    `json:"id"`
	SupplyName       string  `json:"supply_name"`
	OrderDate        string  `json:"order_date"`
	QuantityOrdered  int     `json:"quantity_ordered"`
	QuantityReceived int     `json:"quantity_received"`
	FulfillmentPct   float64 `json:"fulfillment_pct"`
	Status           string  `json:"status"`
}

// Compute is a pure function of its inputs; the slices are not modified.
func Compute(supplies []models.Supply, suppliers []models.Supplier, orders []models.PurchaseOrder) Summary {
	sum := Summary{
		TotalSupplies:    len(supplies),
		TotalSuppliers:   len(suppliers),
		LowStockSupplies: []SupplyItem{},
		RecentOrders:     []OrderItem{},
	}

	var reorder []models.Supply
	for _, s := range supplies {
		if s.LowStock() {
			sum.LowStockCount++
		}
		if s.OutOfStock() {
			sum.OutOfStockCount++
		}
		if s.NeedsReorder() {
			reorder = append(reorder, s)
		}
	}

	for _, po := range orders {
		status := strings.TrimSpace(po.Status)
		switch {
		case strings.EqualFold(status, models.StatusPending):
			sum.PendingOrders++
		case strings.EqualFold(status, models.StatusPartiallyReceived):
			sum.PartiallyReceivedOrders++
		case strings.EqualFold(status, models.StatusReceived), strings.EqualFold(status, "Completed"):
			sum.CompletedOrders++
		}
	}

	sort.SliceStable(reorder, func(i, j int) bool {
		if reorder[i].QuantityOnHand != reorder[j].QuantityOnHand {
			return reorder[i].QuantityOnHand < reorder[j].QuantityOnHand
		}
		return reorder[i].ID < reorder[j].ID
	})
	for _, s := range reorder[:min(TopN, len(reorder))] {
		item := SupplyItem{
			ID:             s.ID,
			Name:           s.Name,
			QuantityOnHand: s.QuantityOnHand,
			ReorderPoint:   s.ReorderPoint,
			OutOfStock:     s.OutOfStock(),
		}
		if s.Supplier != nil {
			item.SupplierName = s.Supplier.Name
		}
		sum.LowStockSupplies = append(sum.LowStockSupplies, item)
	}

	recent := append([]models.PurchaseOrder(nil), orders...)
	sort.SliceStable(recent, func(i, j int) bool {
		if !recent[i].OrderDate.Equal(recent[j].OrderDate) {
			return recent[i].OrderDate.After(recent[j].OrderDate)
		}
		return recent[i].ID > recent[j].ID
	})
	for _, po := range recent[:min(TopN, len(recent))] {
		item := OrderItem{
			ID:               po.ID,
			OrderDate:        po.OrderDate.Format("2006-01-02"),
			QuantityOrdered:  po.QuantityOrdered,
			QuantityReceived: po.QuantityReceived,
			FulfillmentPct:   po.FulfillmentPct(),
			Status:           models.NormalizeStatus(po.Status),
		}
		if po.Supply != nil {
			item.SupplyName = po.Supply.Name
		}
		sum.RecentOrders = append(sum.RecentOrders, item)
	}

	return sum
}
