package billing

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/cripto-factura/internal/domain/entity"
)

// Document factura lista para render: cabecera, páginas y condiciones de pago.
type Document struct {
	Metadata   entity.Metadata
	Currencies []entity.Symbol
	Tables     []PageTable
	Terms      string // ej. "Pagadero al recibir en $USDC, $ETH, $BTC"
}

// FormatCell texto plano de una celda de fila, con decimales fijos para montos.
func FormatCell(v any, decimals int) string {
	switch x := v.(type) {
	case nil:
		return ""
	case decimal.Decimal:
		return x.StringFixed(int32(decimals))
	case entity.TokenInfo:
		return string(x.Symbol)
	case entity.Symbol:
		return string(x)
	case string:
		return x
	default:
		return fmt.Sprint(x)
	}
}

// DefaultTerms condiciones por defecto según las monedas de pago.
func DefaultTerms(currencies []entity.Symbol) string {
	items := make([]string, len(currencies))
	for i, c := range currencies {
		items[i] = "$" + string(c)
	}
	s := "Pagadero al recibir"
	if len(items) > 0 {
		s += " en " + strings.Join(items, ", ")
	}
	return s
}
