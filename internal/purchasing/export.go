package purchasing

import (
	"fmt"
	"io"

	"lab-inventory/internal/models"

	"github.com/xuri/excelize/v2"
)

const exportSheet = "Purchase Orders"

var exportHeaders = []string{
	"Order ID", "Supply Name", "Order Date", "Ordered", "Received", "Remaining", "Fulfillment %", "Status",
}

var exportColumnWidths = []float64{10, 32, 14, 10, 10, 11, 14, 20}

// Status cell fills.
const (
	fillReceived = "#C6EFCE"
	fillPartial  = "#FFEB9C"
	fillPending  = "#FFC7CE"
)

type exportStyles struct {
	header   int
	percent  int
	received int
	partial  int
	pending  int
}

func newExportStyles(f *excelize.File) (exportStyles, error) {
	var s exportStyles
	var err error

	if s.header, err = f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "#FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#4472C4"}},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	}); err != nil {
		return s, err
	}

	pctFmt := "0.00%"
	if s.percent, err = f.NewStyle(&excelize.Style{CustomNumFmt: &pctFmt}); err != nil {
		return s, err
	}

	statusStyle := func(color string) (int, error) {
		return f.NewStyle(&excelize.Style{
			Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{color}},
		})
	}
	if s.received, err = statusStyle(fillReceived); err != nil {
		return s, err
	}
	if s.partial, err = statusStyle(fillPartial); err != nil {
		return s, err
	}
	if s.pending, err = statusStyle(fillPending); err != nil {
		return s, err
	}
	return s, nil
}

func (s exportStyles) forStatus(status string) int {
	switch models.NormalizeStatus(status) {
	case models.StatusReceived:
		return s.received
	case models.StatusPartiallyReceived:
		return s.partial
	}
	return s.pending
}

// WritePurchaseOrders renders orders as an .xlsx workbook into w. Orders
// should have their Supply loaded; a missing supply leaves the name blank.
func WritePurchaseOrders(w io.Writer, orders []models.PurchaseOrder) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	styles, err := newExportStyles(f)
	if err != nil {
		return fmt.Errorf("create styles: %w", err)
	}

	for i, h := range exportHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(exportSheet, cell, h); err != nil {
			return err
		}
		col, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(exportSheet, col, col, exportColumnWidths[i]); err != nil {
			return err
		}
	}
	if err := f.SetCellStyle(exportSheet, "A1", "H1", styles.header); err != nil {
		return err
	}

	for i, po := range orders {
		row := i + 2
		supplyName := ""
		if po.Supply != nil {
			supplyName = po.Supply.Name
		}
		values := []any{
			po.ID,
			supplyName,
			po.OrderDate.Format("2006-01-02"),
			po.QuantityOrdered,
			po.QuantityReceived,
			po.Remaining(),
			po.FulfillmentPct() / 100,
			models.NormalizeStatus(po.Status),
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			if err := f.SetCellValue(exportSheet, cell, v); err != nil {
				return err
			}
		}

		pctCell, _ := excelize.CoordinatesToCellName(7, row)
		if err := f.SetCellStyle(exportSheet, pctCell, pctCell, styles.percent); err != nil {
			return err
		}
		statusCell, _ := excelize.CoordinatesToCellName(8, row)
		if err := f.SetCellStyle(exportSheet, statusCell, statusCell, styles.forStatus(po.Status)); err != nil {
			return err
		}
	}

	if err := f.SetPanes(exportSheet, &excelize.Panes{
		Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft",
	}); err != nil {
		return err
	}

	return f.Write(w)
}
