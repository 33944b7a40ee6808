// Package render presenta facturas y tablas de conversión como markdown.
package render

import (
	"bytes"
	"embed"
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"

	"github.com/jhoicas/cripto-factura/internal/application/billing"
	"github.com/jhoicas/cripto-factura/internal/domain/conversion"
	"github.com/jhoicas/cripto-factura/internal/domain/entity"
)

//go:embed templates/*.md
var templatesFS embed.FS

// columnas de texto; el resto se alinea a la derecha.
var textColumns = map[string]bool{"description": true, "currency": true, "symbol": true, "token": true}

type mdTable struct {
	Header []string
	Align  []string
	Rows   [][]string
}

type pageView struct {
	Title   string
	Lines   mdTable
	Summary mdTable
}

type documentView struct {
	Metadata *entity.Metadata
	Pages    []pageView
	Terms    string
}

// Markdown renderiza páginas de factura con números agrupados según el idioma.
type Markdown struct {
	numbers *Numbers
	tmpl    *template.Template
}

// NewMarkdown construye el renderer para tag.
func NewMarkdown(tag language.Tag) *Markdown {
	tmpl := template.Must(template.New("invoice.md").Funcs(template.FuncMap{
		"join": strings.Join,
		"esc":  escape,
		"date": func(t time.Time) string { return t.Format(time.DateOnly) },
	}).ParseFS(templatesFS, "templates/invoice.md"))
	return &Markdown{numbers: NewNumbers(tag), tmpl: tmpl}
}

// Numbers formateador de montos usado en las celdas.
func (m *Markdown) Numbers() *Numbers { return m.numbers }

// Document cabecera, páginas y condiciones de pago.
func (m *Markdown) Document(doc *billing.Document) (string, error) {
	md := doc.Metadata
	return m.execute(documentView{Metadata: &md, Pages: m.pages(doc.Tables), Terms: doc.Terms})
}

// Tables solo las páginas, sin cabecera.
func (m *Markdown) Tables(tables []billing.PageTable) (string, error) {
	return m.execute(documentView{Pages: m.pages(tables)})
}

func (m *Markdown) execute(v documentView) (string, error) {
	var buf bytes.Buffer
	if err := m.tmpl.Execute(&buf, v); err != nil {
		return "", fmt.Errorf("render: %w", err)
	}
	return buf.String(), nil
}

// Cell texto de una celda; los decimales se agrupan.
func (m *Markdown) Cell(v any, decimals int) string {
	if d, ok := v.(decimal.Decimal); ok {
		return m.numbers.Format(d, decimals)
	}
	return escape(billing.FormatCell(v, decimals))
}

func (m *Markdown) pages(tables []billing.PageTable) []pageView {
	out := make([]pageView, 0, len(tables))
	for _, t := range tables {
		lines := mdTable{Header: make([]string, len(t.Headers))}
		for i, h := range t.Headers {
			lines.Header[i] = escape(h)
			lines.Align = append(lines.Align, alignFor(h))
		}
		for _, cells := range t.Cells {
			row := make([]string, len(cells))
			for i, c := range cells {
				row[i] = m.Cell(c, t.Decimals)
			}
			lines.Rows = append(lines.Rows, row)
		}

		summary := mdTable{
			Header: []string{"", "Moneda", "Símbolo", "Impuestos", "Monto"},
			Align:  []string{":---", ":---", ":---", "---:", "---:"},
		}
		add := func(label string, rows []billing.SummaryRow) {
			for _, s := range rows {
				summary.Rows = append(summary.Rows, []string{
					label, escape(s.Currency), string(s.Symbol),
					m.numbers.Format(s.Taxes, s.Decimals),
					m.numbers.Format(s.Amount, s.Decimals),
				})
			}
		}
		add(t.Label("Subtotal"), t.Subtotals)
		add(t.Label("Total"), t.Totals)

		out = append(out, pageView{
			Title:   fmt.Sprintf("Página %d/%d", t.Page.Index+1, t.Count),
			Lines:   lines,
			Summary: summary,
		})
	}
	return out
}

// Conversions matriz de ratios como tabla markdown.
func Conversions(mx conversion.Matrix) string {
	t := mdTable{Header: mx.Headers, Rows: mx.Rows}
	for i := range mx.Headers {
		if i == 0 {
			t.Align = append(t.Align, ":---")
			continue
		}
		t.Align = append(t.Align, "---:")
	}
	var b strings.Builder
	fmt.Fprintf(&b, "| %s |\n|%s|\n", strings.Join(t.Header, " | "), strings.Join(t.Align, "|"))
	for _, r := range t.Rows {
		fmt.Fprintf(&b, "| %s |\n", strings.Join(r, " | "))
	}
	return b.String()
}

func alignFor(header string) string {
	if textColumns[strings.ToLower(header)] {
		return ":---"
	}
	return "---:"
}

func escape(s string) string {
	return strings.NewReplacer("|", `\|`, "\n", " ").Replace(s)
}
