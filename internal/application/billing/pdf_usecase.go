package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/cripto-factura/internal/application/dto"
	"github.com/jhoicas/cripto-factura/internal/domain"
	"github.com/jhoicas/cripto-factura/internal/domain/entity"
	"github.com/jhoicas/cripto-factura/internal/domain/repository"
	"github.com/jhoicas/cripto-factura/pkg/logger"
)

// PDFUseCase emite una factura: la cotiza, la numera, genera el PDF y la registra.
type PDFUseCase struct {
	quote     *QuoteInvoiceUseCase
	counter   Counter
	generator InvoicePDFGenerator
	txRunner  InvoiceTxRunner
	dueDays   int
	now       func() time.Time
	log       *logger.Logger
}

// NewPDFUseCase construye el caso de uso. Sin txRunner la factura no se persiste (CLI).
func NewPDFUseCase(
	quote *QuoteInvoiceUseCase,
	counter Counter,
	generator InvoicePDFGenerator,
	txRunner InvoiceTxRunner,
	log *logger.Logger,
) *PDFUseCase {
	if log == nil {
		log = logger.Nop()
	}
	return &PDFUseCase{
		quote:     quote,
		counter:   counter,
		generator: generator,
		txRunner:  txRunner,
		dueDays:   quote.settings.DueDays,
		now:       time.Now,
		log:       log.Component("pdf"),
	}
}

// WithClock reemplaza el reloj (tests).
func (uc *PDFUseCase) WithClock(now func() time.Time) *PDFUseCase {
	uc.now = now
	return uc
}

// Produce genera el PDF de la factura pedida.
//
// Retorna:
//   - (pdfBytes, metadata, nil)   si todo sale bien.
//   - domain.ErrInvalidInput      si las fechas o las líneas son inválidas.
//   - domain.ErrUnresolvableConversion si falta algún ratio.
func (uc *PDFUseCase) Produce(ctx context.Context, in dto.PDFInvoiceRequest) ([]byte, entity.Metadata, error) {
	// ── 1. Cotizar ────────────────────────────────────────────────────────────
	inv, tables, err := uc.quote.Build(ctx, in.QuoteInvoiceRequest)
	if err != nil {
		return nil, entity.Metadata{}, err
	}

	// ── 2. Cabecera y número ──────────────────────────────────────────────────
	req := MetadataRequest{
		Vendor:  contactFrom(in.Vendor),
		Number:  in.Number,
		DueDays: in.DueDays,
	}
	if req.DueDays == 0 {
		req.DueDays = uc.dueDays
	}
	if in.Client != nil {
		c := contactFrom(*in.Client)
		req.Client = &c
	}
	if req.Date, err = parseDate(in.Date); err != nil {
		return nil, entity.Metadata{}, err
	}
	if req.Due, err = parseDate(in.Due); err != nil {
		return nil, entity.Metadata{}, err
	}
	md, err := BuildMetadata(ctx, req, uc.counter, uc.now)
	if err != nil {
		return nil, entity.Metadata{}, err
	}
	uc.log.Info().Str("number", md.Number).Time("date", md.Date).Time("due", md.Due).Msg("factura numerada")

	// ── 3. Generar PDF ────────────────────────────────────────────────────────
	terms := in.Terms
	if terms == "" {
		terms = DefaultTerms(inv.Currencies())
	}
	doc := &Document{Metadata: md, Currencies: inv.Currencies(), Tables: tables, Terms: terms}
	pdfBytes, err := uc.generator.GenerateInvoicePDF(ctx, doc)
	if err != nil {
		return nil, entity.Metadata{}, fmt.Errorf("pdf: generación fallida: %w", err)
	}

	// ── 4. Registrar factura y ratios en una transacción ──────────────────────
	if uc.txRunner != nil {
		record := &entity.InvoiceRecord{
			ID:        uuid.New().String(),
			Number:    md.Number,
			Vendor:    md.Vendor.Name,
			Client:    md.Client.Name,
			Date:      md.Date,
			Due:       md.Due,
			Lines:     inv.Len(),
			CreatedAt: uc.now().UTC(),
		}
		for _, t := range inv.Totals() {
			record.Totals = append(record.Totals, entity.InvoiceTotal{
				Symbol:  t.Symbol,
				Address: t.Account.Address,
				Total:   t.Amount,
				Taxes:   t.Taxes,
			})
		}
		manual, _ := uc.quote.graphFrom(in.Conversions)
		snapshot := RatioSnapshot(inv.Graph(), manual.Known(), record.CreatedAt)
		err = uc.txRunner.RunInvoice(ctx, func(invoiceRepo repository.InvoiceRepository, ratioRepo repository.RatioRepository) error {
			if err := invoiceRepo.Create(ctx, record); err != nil {
				return fmt.Errorf("pdf: guardar factura: %w", err)
			}
			return ratioRepo.Upsert(ctx, snapshot)
		})
		if err != nil {
			return nil, entity.Metadata{}, err
		}
	}
	return pdfBytes, md, nil
}

// Filename nombre de archivo sugerido para el PDF.
func Filename(md entity.Metadata) string {
	return fmt.Sprintf("factura_%s.pdf", md.Number)
}

func contactFrom(c dto.ContactRequest) entity.Contact {
	return entity.Contact{
		Name:    c.Name,
		Contact: c.Contact,
		Phone:   c.Phone,
		Address: c.Address,
		Billing: c.Billing,
	}
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: fecha %q: %v", domain.ErrInvalidInput, s, err)
	}
	return t, nil
}
