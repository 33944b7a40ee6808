package billing

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/cripto-factura/internal/domain/entity"
	"github.com/jhoicas/cripto-factura/internal/domain/repository"
)

// Quote ratio de mercado reportado por el oráculo: 1 From vale Ratio To.
// From suele ser el token "proxy" del símbolo consultado (ej. WBTC para BTC).
type Quote struct {
	From  entity.Symbol
	To    entity.Symbol
	Ratio decimal.Decimal
}

// PriceOracle fuente externa de precios. Un error significa "candidato agotado", no es fatal.
type PriceOracle interface {
	Quote(ctx context.Context, symbol entity.Symbol) (Quote, error)
}

// CurrencyResolver traduce nombres, símbolos o direcciones de contrato a símbolos canónicos
// y expone los metadatos de token de cada moneda.
type CurrencyResolver interface {
	// Symbol falla con *domain.UnknownCurrencyError si no reconoce name.
	Symbol(name string) (entity.Symbol, error)
	// Proxy token ERC-20 líquido que representa la moneda, si existe (BTC -> WBTC).
	Proxy(name string) (entity.TokenInfo, bool)
	// Token metadatos para decimales y nombre; monedas nativas primero, luego tokens.
	Token(name string) (entity.TokenInfo, error)
}

// Counter genera consecutivos por clave para la numeración de facturas.
type Counter interface {
	Next(ctx context.Context, key string) (int, error)
}

// InvoicePDFGenerator renderiza un documento de factura ya paginado.
type InvoicePDFGenerator interface {
	GenerateInvoicePDF(ctx context.Context, doc *Document) ([]byte, error)
}

// InvoiceTxRunner ejecuta fn dentro de una transacción con los repos de facturación.
type InvoiceTxRunner interface {
	RunInvoice(ctx context.Context, fn func(
		invoiceRepo repository.InvoiceRepository,
		ratioRepo repository.RatioRepository,
	) error) error
}
