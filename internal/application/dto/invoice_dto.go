package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/cripto-factura/internal/domain/entity"
)

// AccountRequest cuenta de pago de una criptomoneda.
type AccountRequest struct {
	Symbol  string `json:"symbol" validate:"required"`
	Address string `json:"address" validate:"required"`
	Name    string `json:"name,omitempty"`
	Crypto  string `json:"crypto,omitempty"`
	Path    string `json:"path,omitempty"`
}

// LineItemRequest línea de factura. Units por defecto 1; Tax <1 se suma, >1 va incluido.
type LineItemRequest struct {
	Description string           `json:"description" validate:"required"`
	Units       *decimal.Decimal `json:"units,omitempty"`
	Price       decimal.Decimal  `json:"price"`
	Tax         *decimal.Decimal `json:"tax,omitempty"`
	Decimals    *int             `json:"decimals,omitempty"`
	Currency    string           `json:"currency,omitempty"`
}

// RatioRequest ratio conocido: 1 From vale Ratio To.
type RatioRequest struct {
	From  string          `json:"from" validate:"required"`
	To    string          `json:"to" validate:"required"`
	Ratio decimal.Decimal `json:"ratio"`
}

// PairRequest par de monedas deseado.
type PairRequest struct {
	From string `json:"from" validate:"required"`
	To   string `json:"to" validate:"required"`
}

// ContactRequest emisor o cliente.
type ContactRequest struct {
	Name    string `json:"name"`
	Contact string `json:"contact,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Address string `json:"address,omitempty"`
	Billing string `json:"billing,omitempty"`
}

// QuoteInvoiceRequest body para POST /api/invoices/quote.
// Page y Pages son excluyentes; vacíos entregan todas las páginas.
type QuoteInvoiceRequest struct {
	Lines       []LineItemRequest `json:"lines" validate:"required,min=1"`
	Accounts    []AccountRequest  `json:"accounts"`
	Currencies  []string          `json:"currencies,omitempty"`
	Conversions []RatioRequest    `json:"conversions,omitempty"`
	RowsPerPage int               `json:"rows_per_page,omitempty"`
	Page        *int              `json:"page,omitempty"`
	Pages       []int             `json:"pages,omitempty"`
	Columns     []string          `json:"columns,omitempty"`
	Strict      *bool             `json:"strict,omitempty"`
}

// PDFInvoiceRequest body para POST /api/invoices/pdf. Date en formato AAAA-MM-DD.
type PDFInvoiceRequest struct {
	QuoteInvoiceRequest
	Vendor  ContactRequest  `json:"vendor"`
	Client  *ContactRequest `json:"client,omitempty"`
	Number  string          `json:"number,omitempty"`
	Date    string          `json:"date,omitempty"`
	Due     string          `json:"due,omitempty"`
	DueDays int             `json:"due_days,omitempty"`
	Terms   string          `json:"terms,omitempty"`
}

// SummaryResponse subtotal o total de una moneda de pago.
type SummaryResponse struct {
	Account  string          `json:"account"`
	Symbol   string          `json:"symbol"`
	Currency string          `json:"currency"`
	Taxes    decimal.Decimal `json:"taxes"`
	Amount   decimal.Decimal `json:"amount"`
}

// PageResponseDTO una página de líneas con sus subtotales y totales.
type PageResponseDTO struct {
	Index     int               `json:"index"`
	Final     bool              `json:"final"`
	Label     string            `json:"label"`
	Rows      [][]string        `json:"rows"`
	Subtotals []SummaryResponse `json:"subtotals"`
	Totals    []SummaryResponse `json:"totals"`
}

// QuoteInvoiceResponse factura cotizada.
type QuoteInvoiceResponse struct {
	Currencies []string          `json:"currencies"`
	Headers    []string          `json:"headers"`
	Decimals   int               `json:"decimals"`
	Pages      []PageResponseDTO `json:"pages"`
	Iterations int               `json:"iterations"`
	Queries    []string          `json:"queries,omitempty"`
}

// ResolveRequest body para POST /api/conversions/resolve.
type ResolveRequest struct {
	Conversions []RatioRequest `json:"conversions"`
	Want        []PairRequest  `json:"want" validate:"required,min=1"`
	Strict      bool           `json:"strict,omitempty"`
}

// RatioResponse ratio resuelto.
type RatioResponse struct {
	From  string          `json:"from"`
	To    string          `json:"to"`
	Ratio decimal.Decimal `json:"ratio"`
}

// ResolveResponse resultado de completar el grafo de ratios.
type ResolveResponse struct {
	State      string          `json:"state"`
	Iterations int             `json:"iterations"`
	Queries    []string        `json:"queries,omitempty"`
	Ratios     []RatioResponse `json:"ratios"`
	Unresolved []string        `json:"unresolved,omitempty"`
	Worthless  []string        `json:"worthless,omitempty"`
	Diagnostic string          `json:"diagnostic,omitempty"`
	Table      string          `json:"table"`
}

// UnresolvableResponse cuerpo 422 cuando faltan ratios tras agotar el oráculo o el
// destino es una moneda sin valor (código WORTHLESS_CURRENCY).
type UnresolvableResponse struct {
	Code       string   `json:"code"`
	Message    string   `json:"message"`
	Unresolved []string `json:"unresolved"`
	Worthless  []string `json:"worthless,omitempty"`
	Resolved   []string `json:"resolved"`
	Candidates []string `json:"candidates,omitempty"`
}

// InvoiceTotalResponse total de una factura emitida en una moneda.
type InvoiceTotalResponse struct {
	Symbol  string          `json:"symbol"`
	Address string          `json:"address"`
	Total   decimal.Decimal `json:"total"`
	Taxes   decimal.Decimal `json:"taxes"`
}

// InvoiceRecordResponse factura emitida.
type InvoiceRecordResponse struct {
	ID        string                 `json:"id"`
	Number    string                 `json:"number"`
	Vendor    string                 `json:"vendor"`
	Client    string                 `json:"client,omitempty"`
	Date      string                 `json:"date"`
	Due       string                 `json:"due"`
	Lines     int                    `json:"lines"`
	Totals    []InvoiceTotalResponse `json:"totals"`
	CreatedAt time.Time              `json:"created_at"`
}

// ToInvoiceRecordResponse convierte la entidad a DTO.
func ToInvoiceRecordResponse(r *entity.InvoiceRecord) InvoiceRecordResponse {
	out := InvoiceRecordResponse{
		ID:        r.ID,
		Number:    r.Number,
		Vendor:    r.Vendor,
		Client:    r.Client,
		Date:      r.Date.Format(time.DateOnly),
		Due:       r.Due.Format(time.DateOnly),
		Lines:     r.Lines,
		Totals:    make([]InvoiceTotalResponse, 0, len(r.Totals)),
		CreatedAt: r.CreatedAt,
	}
	for _, t := range r.Totals {
		out.Totals = append(out.Totals, InvoiceTotalResponse{
			Symbol:  string(t.Symbol),
			Address: t.Address,
			Total:   t.Total,
			Taxes:   t.Taxes,
		})
	}
	return out
}
