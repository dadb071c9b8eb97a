package service

import (
	"bytes"
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"

	"mavon-shop/internal/model"
)

const orderSheetName = "Orders"

// ReportService builds the admin order export.
type ReportService struct {
	orders orderStore
}

func NewReportService(orders orderStore) *ReportService {
	return &ReportService{orders: orders}
}

// ExportOrders renders all orders matching status (empty means all) into an
// xlsx workbook, one row per order line.
func (s *ReportService) ExportOrders(ctx context.Context, status string) ([]byte, error) {
	if status != "" && !validOrderStatus(status) {
		return nil, model.ErrInvalidInput
	}

	orders, err := s.orders.ListAll(ctx, status)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet, err := f.NewSheet(orderSheetName)
	if err != nil {
		return nil, fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(sheet)
	f.DeleteSheet("Sheet1")

	header := []any{"Order ID", "User ID", "Status", "Created", "Product", "Color", "Size", "Quantity", "Unit Price", "Line Total", "Order Subtotal"}
	if err := f.SetSheetRow(orderSheetName, "A1", &header); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}

	row := 2
	for _, o := range orders {
		for _, item := range o.Items {
			cell, err := excelize.CoordinatesToCellName(1, row)
			if err != nil {
				return nil, fmt.Errorf("cell name: %w", err)
			}
			values := []any{
				o.ID,
				o.UserID,
				o.Status,
				o.CreatedAt.UTC().Format("2006-01-02 15:04:05"),
				item.ProductName,
				item.Color,
				item.Size,
				item.Quantity,
				item.UnitPrice,
				item.LineTotal,
				o.Subtotal,
			}
			if err := f.SetSheetRow(orderSheetName, cell, &values); err != nil {
				return nil, fmt.Errorf("write row: %w", err)
			}
			row++
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}
