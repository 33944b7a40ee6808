package conversion

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/cripto-factura/internal/domain/entity"
)

// Matrix tabla de ratios: una fila por símbolo y una columna "in X" por símbolo.
type Matrix struct {
	Headers []string
	Rows    [][]string
}

// Table arma la matriz. "?" marca un par pendiente; vacío, un par ausente o la
// diagonal. Con onlyGreater solo se muestran ratios > 1. Sin symbols usa todos.
func Table(g *Graph, symbols []entity.Symbol, onlyGreater bool) Matrix {
	if len(symbols) == 0 {
		symbols = g.Symbols()
	}
	m := Matrix{Headers: []string{"Symbol"}}
	for _, c := range symbols {
		m.Headers = append(m.Headers, "in "+string(c))
	}
	one := decimal.NewFromInt(1)
	for _, r := range symbols {
		row := []string{string(r)}
		for _, c := range symbols {
			cell := ""
			if r != c && g.Has(r, c) {
				v, ok := g.Ratio(r, c)
				switch {
				case !ok:
					cell = "?"
				case !onlyGreater || v.GreaterThan(one):
					cell = fmt.Sprintf("%.6g", v.InexactFloat64())
				}
			}
			row = append(row, cell)
		}
		m.Rows = append(m.Rows, row)
	}
	return m
}

// String tabla alineada en texto plano, estilo org-mode.
func (m Matrix) String() string {
	widths := make([]int, len(m.Headers))
	for i, h := range m.Headers {
		widths[i] = len(h)
	}
	for _, row := range m.Rows {
		for i, cell := range row {
			widths[i] = max(widths[i], len(cell))
		}
	}
	var b strings.Builder
	line := func(cells []string) {
		b.WriteString("|")
		for i, cell := range cells {
			fmt.Fprintf(&b, " %*s |", widths[i], cell)
		}
		b.WriteString("\n")
	}
	line(m.Headers)
	b.WriteString("|")
	for i, w := range widths {
		b.WriteString(strings.Repeat("-", w+2))
		if i < len(widths)-1 {
			b.WriteString("+")
		}
	}
	b.WriteString("|\n")
	for _, row := range m.Rows {
		line(row)
	}
	return strings.TrimSuffix(b.String(), "\n")
}
