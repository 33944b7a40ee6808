package entity

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/cripto-factura/internal/domain"
)

// Descriptores de impuesto de una línea.
const (
	TaxNone     = "no tax"
	taxAdded    = "added"
	taxIncluded = "included"
)

// LineItem línea de factura, inmutable. Cada línea puede tener su propia moneda.
//
// Tax: <1 (ej. 0.05) se suma al monto; >1 (ej. 1.05) el precio ya incluye el
// impuesto y se descuenta la fracción sobre 1; ausente o 0 es sin impuesto.
// Units y Price admiten signo: una línea de crédito puede llevarlo en cualquiera de los dos.
type LineItem struct {
	Description string
	Units       decimal.Decimal
	Price       decimal.Decimal
	Tax         decimal.NullDecimal
	Decimals    *int   // override de decimales a mostrar; por defecto los del token
	Currency    string // por defecto la moneda global de factura
}

// NewLineItem línea de 1 unidad sin impuesto.
func NewLineItem(description string, price decimal.Decimal, currency string) LineItem {
	return LineItem{
		Description: description,
		Units:       decimal.NewFromInt(1),
		Price:       price,
		Currency:    currency,
	}
}

// WithTax devuelve una copia con la tasa indicada.
func (l LineItem) WithTax(rate decimal.Decimal) LineItem {
	l.Tax = decimal.NewNullDecimal(rate)
	return l
}

// WithDecimals devuelve una copia con decimales fijos para mostrar.
func (l LineItem) WithDecimals(places int) LineItem {
	l.Decimals = &places
	return l
}

// Net resultado del cálculo de una línea, en la moneda de la línea.
type Net struct {
	Amount decimal.Decimal // incluye el impuesto
	Taxes  decimal.Decimal
	Info   string // "5% added", "5% included", "no tax"
}

// Validate verifica decimales y tasa de impuesto; el signo del monto no se restringe.
func (l LineItem) Validate() error {
	if l.Decimals != nil && *l.Decimals < 0 {
		return fmt.Errorf("%w: %d en %q", domain.ErrInvalidDecimals, *l.Decimals, l.Description)
	}
	if !l.Tax.Valid || l.Tax.Decimal.IsZero() {
		return nil
	}
	rate := l.Tax.Decimal
	one := decimal.NewFromInt(1)
	if rate.IsNegative() || rate.Equal(one) {
		return fmt.Errorf("%w: %s en %q", domain.ErrInvalidTaxRate, rate, l.Description)
	}
	return nil
}

// Net calcula el monto total de la línea, el impuesto y su descripción.
func (l LineItem) Net() (Net, error) {
	if err := l.Validate(); err != nil {
		return Net{}, err
	}
	amount := l.Units.Mul(l.Price)
	if !l.Tax.Valid || l.Tax.Decimal.IsZero() {
		return Net{Amount: amount, Taxes: decimal.Zero, Info: TaxNone}, nil
	}
	rate := l.Tax.Decimal
	one := decimal.NewFromInt(1)
	if rate.LessThan(one) {
		taxes := amount.Mul(rate)
		return Net{
			Amount: amount.Add(taxes),
			Taxes:  taxes,
			Info:   percent(rate) + " " + taxAdded,
		}, nil
	}
	// Tasa incluida: el monto ya contiene el impuesto a (rate - 1).
	taxes := amount.Sub(amount.Div(rate))
	return Net{
		Amount: amount,
		Taxes:  taxes,
		Info:   percent(rate.Sub(one)) + " " + taxIncluded,
	}, nil
}

func percent(rate decimal.Decimal) string {
	return rate.Mul(decimal.NewFromInt(100)).Round(2).String() + "%"
}
