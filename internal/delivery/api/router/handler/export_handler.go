package handler

import (
	"log/slog"
	"mime"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"

	deliverycontext "erp/internal/delivery/context"
	domainerrors "erp/internal/domain/errors"
	"erp/internal/usecase"
)

// ExportHandlerParams holds dependencies for ExportHandler, injected by Fx.
type ExportHandlerParams struct {
	fx.In

	ExportUC usecase.ExportUsecase
	Logger   *slog.Logger
}

// ExportHandler streams CSV reports.
type ExportHandler struct {
	exportUC usecase.ExportUsecase
	logger   *slog.Logger
}

// NewExportHandler is the constructor for ExportHandler.
func NewExportHandler(params ExportHandlerParams) *ExportHandler {
	return &ExportHandler{
		exportUC: params.ExportUC,
		logger:   params.Logger,
	}
}

// Export writes the requested report as a CSV attachment.
func (h *ExportHandler) Export(c echo.Context) error {
	kind, ok := usecase.ParseExportKind(c.Param("entity"))
	if !ok {
		return domainerrors.ErrNotFound.WithDetails("unknown export " + c.Param("entity"))
	}

	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "text/csv; charset=utf-8")
	res.Header().Set(echo.HeaderContentDisposition, mime.FormatMediaType("attachment", map[string]string{"filename": kind.Filename()}))
	res.WriteHeader(http.StatusOK)

	rows, err := h.exportUC.Export(c.Request().Context(), kind, res)
	if err != nil {
		return err
	}
	res.Flush()

	deliverycontext.GetLoggerOrDefault(c.Request().Context(), h.logger).
		Debug("Export served", slog.String("kind", string(kind)), slog.Int("rows", rows))

	return nil
}
