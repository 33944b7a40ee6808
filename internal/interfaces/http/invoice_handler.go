package http

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/cripto-factura/internal/application/billing"
	"github.com/jhoicas/cripto-factura/internal/application/dto"
	"github.com/jhoicas/cripto-factura/internal/domain"
	"github.com/jhoicas/cripto-factura/internal/domain/entity"
	"github.com/jhoicas/cripto-factura/pkg/logger"
)

// invoiceQuoter lo implementa *billing.QuoteInvoiceUseCase.
type invoiceQuoter interface {
	Quote(ctx context.Context, in dto.QuoteInvoiceRequest) (*dto.QuoteInvoiceResponse, error)
	Resolve(ctx context.Context, in dto.ResolveRequest) (*dto.ResolveResponse, error)
}

// invoiceProducer lo implementa *billing.PDFUseCase.
type invoiceProducer interface {
	Produce(ctx context.Context, in dto.PDFInvoiceRequest) ([]byte, entity.Metadata, error)
}

// invoiceFinder lo implementa el repositorio de facturas emitidas.
type invoiceFinder interface {
	GetByNumber(ctx context.Context, number string) (*entity.InvoiceRecord, error)
}

// InvoiceHandler maneja las peticiones HTTP de facturación (protegido).
type InvoiceHandler struct {
	quoter   invoiceQuoter
	producer invoiceProducer
	finder   invoiceFinder
	log      *logger.Logger
}

// NewInvoiceHandler construye el handler. producer y finder pueden ser nil (rutas deshabilitadas).
func NewInvoiceHandler(quoter invoiceQuoter, producer invoiceProducer, finder invoiceFinder, log *logger.Logger) *InvoiceHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &InvoiceHandler{quoter: quoter, producer: producer, finder: finder, log: log.Component("http")}
}

// Quote cotiza una factura y devuelve sus páginas.
// POST /api/invoices/quote
func (h *InvoiceHandler) Quote(c *fiber.Ctx) error {
	var in dto.QuoteInvoiceRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	out, err := h.quoter.Quote(c.Context(), in)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(out)
}

// PDF emite la factura y devuelve el documento.
// POST /api/invoices/pdf
func (h *InvoiceHandler) PDF(c *fiber.Ctx) error {
	var in dto.PDFInvoiceRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if in.Vendor.Name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "vendor.name requerido"})
	}
	pdfBytes, md, err := h.producer.Produce(c.Context(), in)
	if err != nil {
		return h.fail(c, err)
	}
	h.log.Info().Str("number", md.Number).Str("user_id", GetUserID(c)).Int("bytes", len(pdfBytes)).Msg("factura emitida")
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, billing.Filename(md)))
	c.Set("X-Invoice-Number", md.Number)
	return c.Send(pdfBytes)
}

// GetByNumber cabecera y totales de una factura emitida.
// GET /api/invoices/:number
func (h *InvoiceHandler) GetByNumber(c *fiber.Ctx) error {
	number := c.Params("number")
	if number == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "número requerido"})
	}
	record, err := h.finder.GetByNumber(c.Context(), number)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(dto.ToInvoiceRecordResponse(record))
}

// Resolve completa ratios de conversión.
// POST /api/conversions/resolve
func (h *InvoiceHandler) Resolve(c *fiber.Ctx) error {
	var in dto.ResolveRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	out, err := h.quoter.Resolve(c.Context(), in)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(out)
}

// fail traduce errores de dominio a códigos HTTP.
func (h *InvoiceHandler) fail(c *fiber.Ctx, err error) error {
	var unresolvable *domain.UnresolvableConversionError
	switch {
	case errors.As(err, &unresolvable):
		code := "UNRESOLVABLE_CONVERSION"
		if len(unresolvable.Unresolved) == 0 && len(unresolvable.Worthless) > 0 {
			code = "WORTHLESS_CURRENCY"
		}
		return c.Status(fiber.StatusUnprocessableEntity).JSON(dto.UnresolvableResponse{
			Code:       code,
			Message:    unresolvable.Error(),
			Unresolved: unresolvable.Unresolved,
			Worthless:  unresolvable.Worthless,
			Resolved:   unresolvable.Resolved,
			Candidates: unresolvable.Candidates,
		})
	case errors.Is(err, domain.ErrUnresolvableConversion):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(dto.ErrorResponse{Code: "UNRESOLVABLE_CONVERSION", Message: err.Error()})
	case errors.Is(err, domain.ErrUnknownCurrency):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "UNKNOWN_CURRENCY", Message: err.Error()})
	case billing.IsClientError(err):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
	case errors.Is(err, domain.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "factura no encontrada"})
	case errors.Is(err, context.DeadlineExceeded):
		return c.Status(fiber.StatusGatewayTimeout).JSON(dto.ErrorResponse{Code: "TIMEOUT", Message: "tiempo de espera agotado"})
	}
	h.log.Error().Err(err).Str("path", c.Path()).Msg("error interno")
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
}
