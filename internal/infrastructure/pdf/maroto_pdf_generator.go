// Package pdf genera la representación gráfica de una factura en criptomonedas.
//
// Layout de cada página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Emisor               │  N° Factura + Fecha + Vence  │
//	│  CLIENTE: Nombre + contacto + dirección                     │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABLA: columnas seleccionadas de la página                 │
//	│  ─────────────────────────────────────────────────────────  │
//	│  SUBTOTALES / TOTALES por moneda de pago                    │
//	│  ─────────────────────────────────────────────────────────  │
//	│  FOOTER (última página): condiciones + QR por cuenta         │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"context"
	"fmt"
	"strings"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/code"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/page"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"

	"github.com/jhoicas/cripto-factura/internal/application/billing"
	"github.com/jhoicas/cripto-factura/internal/domain/entity"
	"github.com/jhoicas/cripto-factura/internal/infrastructure/render"
)

// Verificar en tiempo de compilación que el generador implementa el puerto.
var _ billing.InvoicePDFGenerator = (*MarotoPDFGenerator)(nil)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
)

// ── Generator ─────────────────────────────────────────────────────────────────

// MarotoPDFGenerator implementa billing.InvoicePDFGenerator usando Maroto v2.
type MarotoPDFGenerator struct {
	numbers *render.Numbers
}

// NewMarotoPDFGenerator construye el generador; tag define los separadores de miles.
func NewMarotoPDFGenerator(tag language.Tag) *MarotoPDFGenerator {
	return &MarotoPDFGenerator{numbers: render.NewNumbers(tag)}
}

// GenerateInvoicePDF genera el PDF y devuelve sus bytes. Cada PageTable empieza página.
func (g *MarotoPDFGenerator) GenerateInvoicePDF(ctx context.Context, doc *billing.Document) ([]byte, error) {
	if doc == nil || len(doc.Tables) == 0 {
		return nil, fmt.Errorf("pdf: documento sin páginas")
	}
	md := doc.Metadata
	grid := gridSize(len(doc.Tables[0].Headers))
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithMaxGridSize(grid).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 8}).
		WithTitle("Factura "+md.Number, true).
		WithAuthor(md.Vendor.Name, true).
		Build()

	m := maroto.New(cfg)
	for _, t := range doc.Tables {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		var rows []core.Row
		rows = append(rows, headerRow(md, t, grid))
		rows = append(rows, clientRow(md.Client, grid))
		rows = append(rows, line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
		rows = append(rows, tableHeaderRow(t.Headers))
		rows = append(rows, g.tableDetailRows(t)...)
		rows = append(rows, line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
		rows = append(rows, g.summaryRows(t, grid)...)
		if t.Final {
			rows = append(rows, line.NewRow(3))
			rows = append(rows, footerRows(doc, grid)...)
		}
		m.AddPages(page.New().Add(rows...))
	}

	out, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return out.GetBytes(), nil
}

// gridSize dos unidades por columna y cuatro extra para la descripción; mínimo 12.
func gridSize(columns int) int {
	return max(12, 2*columns+4)
}

// ── Secciones ─────────────────────────────────────────────────────────────────

// headerRow: emisor (izq) y número, fechas y página (der).
func headerRow(md entity.Metadata, t billing.PageTable, grid int) core.Row {
	left := grid * 7 / 12
	return row.New(22).Add(
		col.New(left).Add(
			text.New(md.Vendor.Name, props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New(joinNonEmpty(" | ", md.Vendor.Contact, md.Vendor.Phone), props.Text{
				Size: 8, Top: 8, Color: colorGray,
			}),
			text.New(oneLine(md.Vendor.Address), props.Text{
				Size: 8, Top: 13, Color: colorGray,
			}),
		),
		col.New(grid-left).Add(
			text.New("FACTURA", props.Text{
				Style: fontstyle.Bold, Size: 8, Align: align.Right, Color: colorPrimary, Top: 1,
			}),
			text.New(md.Number, props.Text{
				Style: fontstyle.Bold, Size: 12, Align: align.Right, Top: 6,
			}),
			text.New(fmt.Sprintf("Fecha: %s   Vence: %s",
				md.Date.Format("02/01/2006"), md.Due.Format("02/01/2006"),
			), props.Text{Size: 8, Align: align.Right, Top: 13, Color: colorGray}),
			text.New(fmt.Sprintf("Página %d/%d", t.Page.Index+1, t.Count), props.Text{
				Size: 7, Align: align.Right, Top: 18, Color: colorGray,
			}),
		),
	)
}

// clientRow: datos del cliente; vacío si la factura no tiene cliente.
func clientRow(c entity.Contact, grid int) core.Row {
	if c.Name == "" {
		return row.New(4)
	}
	address := c.Billing
	if address == "" {
		address = c.Address
	}
	return row.New(16).Add(
		col.New(grid).Add(
			text.New("CLIENTE", props.Text{
				Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1,
			}),
			text.New(c.Name, props.Text{Style: fontstyle.Bold, Size: 10, Top: 5}),
			text.New(joinNonEmpty("   |   ", c.Contact, c.Phone, oneLine(address)), props.Text{
				Size: 8, Top: 11, Color: colorGray,
			}),
		),
	)
}

// tableHeaderRow: encabezados seleccionados.
func tableHeaderRow(headers []string) core.Row {
	cols := make([]core.Col, len(headers))
	for i, h := range headers {
		cols[i] = col.New(columnSize(h)).Add(text.New(h, props.Text{
			Style: fontstyle.Bold, Size: 7, Align: alignFor(h),
			Color: colorPrimary, Top: 2, Left: 1, Right: 1,
		}))
	}
	return row.New(8).Add(cols...)
}

// tableDetailRows: una fila por línea de la página.
func (g *MarotoPDFGenerator) tableDetailRows(t billing.PageTable) []core.Row {
	result := make([]core.Row, 0, len(t.Cells))
	for _, cells := range t.Cells {
		cols := make([]core.Col, len(cells))
		for i, c := range cells {
			cols[i] = col.New(columnSize(t.Headers[i])).Add(text.New(
				g.cell(c, t.Decimals),
				props.Text{Size: 7, Align: alignFor(t.Headers[i]), Top: 1, Left: 1, Right: 1},
			))
		}
		result = append(result, row.New(6).Add(cols...))
	}
	return result
}

// summaryRows: subtotal y total por moneda, alineados a la derecha.
func (g *MarotoPDFGenerator) summaryRows(t billing.PageTable, grid int) []core.Row {
	label := grid / 3
	value := (grid - label) / 3
	lead := grid - label - 2*value
	var rows []core.Row
	add := func(name string, summary []billing.SummaryRow, bold bool) {
		style := fontstyle.Normal
		if bold {
			style = fontstyle.Bold
		}
		for _, s := range summary {
			rows = append(rows, row.New(5).Add(
				col.New(lead),
				col.New(label).Add(text.New(fmt.Sprintf("%s %s (%s):", name, s.Currency, s.Symbol), props.Text{
					Style: style, Size: 8, Align: align.Right, Right: 2,
				})),
				col.New(value).Add(text.New("Imp. "+g.numbers.Format(s.Taxes, s.Decimals), props.Text{
					Size: 8, Align: align.Right, Right: 1, Color: colorGray,
				})),
				col.New(value).Add(text.New(g.numbers.Format(s.Amount, s.Decimals), props.Text{
					Style: style, Size: 8, Align: align.Right, Right: 1,
				})),
			))
		}
	}
	add(t.Label("Subtotal"), t.Subtotals, false)
	add(t.Label("Total"), t.Totals, true)
	return rows
}

// footerRows: condiciones de pago y un QR por cuenta de pago.
func footerRows(doc *billing.Document, grid int) []core.Row {
	rows := []core.Row{
		row.New(8).Add(col.New(grid).Add(
			text.New(doc.Terms, props.Text{Style: fontstyle.Bold, Size: 9, Color: colorPrimary, Top: 2}),
		)),
	}
	last := doc.Tables[len(doc.Tables)-1]
	qrSize := grid / 4
	for _, s := range last.Totals {
		if s.Account.Address == "" {
			continue
		}
		rows = append(rows, row.New(36).Add(
			col.New(qrSize).Add(code.NewQr(s.Account.Address, props.Rect{Percent: 95, Center: true})),
			col.New(grid-qrSize).Add(
				text.New(fmt.Sprintf("%s (%s)", s.Currency, s.Symbol), props.Text{
					Style: fontstyle.Bold, Size: 9, Top: 6, Left: 3,
				}),
				text.New(s.Account.Address, props.Text{Size: 7, Top: 13, Left: 3, Color: colorGray}),
			),
		))
	}
	return rows
}

// ── helpers ───────────────────────────────────────────────────────────────────

func (g *MarotoPDFGenerator) cell(v any, decimals int) string {
	if d, ok := v.(decimal.Decimal); ok {
		return g.numbers.Format(d, decimals)
	}
	return billing.FormatCell(v, decimals)
}

func columnSize(header string) int {
	if strings.EqualFold(header, "description") {
		return 6
	}
	return 2
}

func alignFor(header string) align.Type {
	switch strings.ToLower(header) {
	case "description", "currency", "symbol", "token":
		return align.Left
	}
	return align.Right
}

func joinNonEmpty(sep string, parts ...string) string {
	var out []string
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, sep)
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(strings.ReplaceAll(s, "\n", ", ")), " ")
}
