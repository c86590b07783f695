package impl

import (
	"context"
	"io"
	"log/slog"

	"github.com/pkg/errors"
	"go.uber.org/fx"

	deliverycontext "erp/internal/delivery/context"
	"erp/internal/domain/entity"
	domainerrors "erp/internal/domain/errors"
	"erp/internal/domain/repository"
	"erp/internal/infra/export"
	"erp/internal/usecase"
)

var (
	customerExportHeader = []string{"ID", "Name", "Email", "Phone"}
	orderExportHeader    = []string{"ID", "Customer ID", "Total Amount"}
	productExportHeader  = []string{"ID", "Name", "Price", "Stock"}
)

// exportService implements the ExportUsecase interface.
type exportService struct {
	customerRepo repository.CustomerRepository
	orderRepo    repository.OrderRepository
	productRepo  repository.ProductRepository
	logger       *slog.Logger
}

// ExportServiceParams holds dependencies for ExportService, injected by Fx.
type ExportServiceParams struct {
	fx.In

	CustomerRepo repository.CustomerRepository
	OrderRepo    repository.OrderRepository
	ProductRepo  repository.ProductRepository
	Logger       *slog.Logger
}

// NewExportService is the constructor for exportService.
func NewExportService(params ExportServiceParams) usecase.ExportUsecase {
	return &exportService{
		customerRepo: params.CustomerRepo,
		orderRepo:    params.OrderRepo,
		productRepo:  params.ProductRepo,
		logger:       params.Logger,
	}
}

func (srv *exportService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// Export streams rows straight from the database cursor into w.
func (srv *exportService) Export(ctx context.Context, kind usecase.ExportKind, w io.Writer) (int, error) {
	var (
		csvWriter *export.CSVWriter
		err       error
	)

	switch kind {
	case usecase.ExportCustomers:
		if csvWriter, err = export.NewCSVWriter(w, customerExportHeader); err != nil {
			return 0, err
		}
		err = srv.customerRepo.Stream(ctx, func(c *entity.Customer) error {
			return csvWriter.Write([]string{export.FormatID(c.ID), c.Name, c.Email, c.Phone})
		})
	case usecase.ExportOrders:
		if csvWriter, err = export.NewCSVWriter(w, orderExportHeader); err != nil {
			return 0, err
		}
		err = srv.orderRepo.Stream(ctx, func(o *entity.Order) error {
			return csvWriter.Write([]string{export.FormatID(o.ID), export.FormatID(o.CustomerID), export.FormatAmount(o.TotalAmount)})
		})
	case usecase.ExportProducts:
		if csvWriter, err = export.NewCSVWriter(w, productExportHeader); err != nil {
			return 0, err
		}
		err = srv.productRepo.Stream(ctx, func(p *entity.Product) error {
			return csvWriter.Write([]string{export.FormatID(p.ID), p.Name, export.FormatAmount(p.Price), export.FormatID(uint(p.Stock))})
		})
	default:
		return 0, domainerrors.ErrNotFound.WithDetails("unknown export " + string(kind))
	}

	if err != nil {
		srv.log(ctx).Error("Export aborted", slog.String("kind", string(kind)), slog.Int("rows", csvWriter.Rows()), slog.Any("error", err))

		return csvWriter.Rows(), errors.Wrapf(err, "failed to export %s", kind)
	}
	if err := csvWriter.Close(); err != nil {
		return csvWriter.Rows(), err
	}

	srv.log(ctx).Info("Export finished", slog.String("kind", string(kind)), slog.Int("rows", csvWriter.Rows()))

	return csvWriter.Rows(), nil
}
