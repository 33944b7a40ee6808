package billing

import (
	"iter"
	"slices"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/cripto-factura/internal/domain/entity"
)

// Encabezados fijos de fila. Los que empiezan con "_" se ocultan por defecto.
var baseHeaders = []string{
	"_#",
	"Description",
	"Units",
	"Price",
	"_Tax",
	"Tax %",
	"Taxes",
	"Net",
	"Amount",
	"Currency",
	"_Symbol",
	"_Decimals",
	"_Token",
}

// Row una línea de factura con sus valores calculados y los acumulados en cada moneda
// de factura tras esta línea. Totals y TaxTotals siguen el orden de Invoice.Currencies.
type Row struct {
	Index       int
	Description string
	Units       decimal.Decimal
	Price       decimal.Decimal
	Tax         decimal.NullDecimal
	TaxInfo     string
	Taxes       decimal.Decimal
	Net         decimal.Decimal
	Amount      decimal.Decimal
	Currency    string
	Symbol      entity.Symbol
	Decimals    int
	Token       entity.TokenInfo
	Totals      []decimal.Decimal
	TaxTotals   []decimal.Decimal
}

// Values valores de la fila en el orden de Invoice.Headers.
func (r Row) Values() []any {
	var tax any
	if r.Tax.Valid {
		tax = r.Tax.Decimal
	}
	out := []any{
		r.Index, r.Description, r.Units, r.Price, tax, r.TaxInfo, r.Taxes, r.Net,
		r.Amount, r.Currency, r.Symbol, r.Decimals, r.Token,
	}
	for _, t := range r.Totals {
		out = append(out, t)
	}
	for _, t := range r.TaxTotals {
		out = append(out, t)
	}
	return out
}

// Headers encabezados de fila: los fijos más "_Total X" y "_Taxes X" por moneda ordenada.
func (inv *Invoice) Headers() []string {
	h := slices.Clone(baseHeaders)
	for _, c := range inv.currencies {
		h = append(h, "_Total "+string(c))
	}
	for _, c := range inv.currencies {
		h = append(h, "_Taxes "+string(c))
	}
	return h
}

// Rows secuencia perezosa de filas en orden de línea. Los acumulados usan precisión
// completa; cada recorrido vuelve a empezar desde cero.
func (inv *Invoice) Rows() iter.Seq[Row] {
	return func(yield func(Row) bool) {
		tot := make([]decimal.Decimal, len(inv.currencies))
		tax := make([]decimal.Decimal, len(inv.currencies))
		for i, l := range inv.lines {
			for j := range inv.currencies {
				if l.symbol == inv.currencies[j] {
					tot[j] = tot[j].Add(l.net.Amount)
					tax[j] = tax[j].Add(l.net.Taxes)
					continue
				}
				tot[j] = tot[j].Add(l.net.Amount.Mul(l.ratios[j]))
				tax[j] = tax[j].Add(l.net.Taxes.Mul(l.ratios[j]))
			}
			row := Row{
				Index:       i,
				Description: l.item.Description,
				Units:       l.item.Units,
				Price:       l.item.Price,
				Tax:         l.item.Tax,
				TaxInfo:     l.net.Info,
				Taxes:       l.net.Taxes,
				Net:         l.net.Amount.Sub(l.net.Taxes),
				Amount:      l.net.Amount,
				Currency:    l.currency,
				Symbol:      l.symbol,
				Decimals:    l.decimals,
				Token:       l.token,
				Totals:      slices.Clone(tot),
				TaxTotals:   slices.Clone(tax),
			}
			if !yield(row) {
				return
			}
		}
	}
}
