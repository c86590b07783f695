package usecase

import (
	"context"
	"io"
)

// ExportKind names an exportable entity.
type ExportKind string

const (
	ExportCustomers ExportKind = "customers"
	ExportOrders    ExportKind = "orders"
	ExportProducts  ExportKind = "products"
)

// ParseExportKind reports whether s names an exportable entity.
func ParseExportKind(s string) (ExportKind, bool) {
	switch kind := ExportKind(s); kind {
	case ExportCustomers, ExportOrders, ExportProducts:
		return kind, true
	default:
		return "", false
	}
}

// Filename is the attachment name offered to the client.
func (k ExportKind) Filename() string {
	return string(k) + ".csv"
}

// ExportUsecase streams reports.
type ExportUsecase interface {
	// Export writes the CSV report for kind to w and returns the number of data rows.
	Export(ctx context.Context, kind ExportKind, w io.Writer) (int, error)
}
