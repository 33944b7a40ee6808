package render_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/jhoicas/cripto-factura/internal/application/billing"
	"github.com/jhoicas/cripto-factura/internal/domain/conversion"
	"github.com/jhoicas/cripto-factura/internal/domain/entity"
	"github.com/jhoicas/cripto-factura/internal/infrastructure/render"
	"github.com/jhoicas/cripto-factura/internal/infrastructure/tokens"
)

func pageTables(t *testing.T, n, rowsPerPage int) []billing.PageTable {
	t.Helper()
	lines := make([]entity.LineItem, n)
	for i := range lines {
		lines[i] = entity.NewLineItem(fmt.Sprintf("Item %d", i+1), decimal.NewFromInt(int64(i+1)), "")
	}
	inv, err := billing.NewInvoice(context.Background(), lines, tokens.NewDefault(), billing.InvoiceOptions{
		Accounts: []entity.Account{{Symbol: "USDC", Address: "0xabc", Name: "Caja USD"}},
	})
	require.NoError(t, err)
	tables, err := inv.Tables(billing.TableOptions{RowsPerPage: rowsPerPage})
	require.NoError(t, err)
	return tables
}

// ─── Numbers ────────────────────────────────────────────────────────────────

func TestNumbers_Format(t *testing.T) {
	en := render.NewNumbers(language.English)
	es := render.NewNumbers(language.Spanish)

	cases := []struct {
		name   string
		n      *render.Numbers
		value  string
		places int
		want   string
	}{
		{"agrupa miles", en, "12854.755", 2, "12,854.76"},
		{"negativo", en, "-1234567.5", 0, "-1,234,568"},
		{"completa decimales", en, "0.5", 3, "0.500"},
		{"sin decimales", en, "98765", 0, "98,765"},
		{"español", es, "1234567.891", 2, "1.234.567,89"},
		{"fuera de int64", en, "123456789012345678901234.5", 1, "123456789012345678901234.5"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.n.Format(decimal.RequireFromString(tc.value), tc.places))
		})
	}
}

// ─── Markdown ───────────────────────────────────────────────────────────────

func TestMarkdown_Tables(t *testing.T) {
	out, err := render.NewMarkdown(language.English).Tables(pageTables(t, 3, 2))
	require.NoError(t, err)

	assert.Contains(t, out, "## Página 1/2")
	assert.Contains(t, out, "## Página 2/2")
	assert.Contains(t, out, "| Description | Units | Price | Tax % | Taxes | Net | Amount | Currency |")
	assert.Contains(t, out, "|:---|---:|---:|---:|---:|---:|---:|:---|")
	assert.Contains(t, out, "| Item 1 | 1.00 | 1.00 | no tax |")
	assert.Contains(t, out, "| Subtotal 1/2 | Caja USD | USDC | 0.00 | 3.00 |")
	assert.Contains(t, out, "| Total 1/2 | Caja USD | USDC | 0.00 | 3.00 |")
	assert.Contains(t, out, "| Subtotal | Caja USD | USDC | 0.00 | 3.00 |")
	assert.Contains(t, out, "| Total | Caja USD | USDC | 0.00 | 6.00 |")
	assert.NotContains(t, out, "# Factura")
}

func TestMarkdown_Document(t *testing.T) {
	doc := &billing.Document{
		Metadata: entity.Metadata{
			Vendor: entity.Contact{Name: "Dominion R&D Corp."},
			Date:   time.Date(2023, 1, 31, 0, 0, 0, 0, time.UTC),
			Due:    time.Date(2023, 3, 2, 0, 0, 0, 0, time.UTC),
			Number: "INV-20230131-0001",
		},
		Currencies: []entity.Symbol{"USDC"},
		Tables:     pageTables(t, 1, 10),
		Terms:      "Pagadero al recibir en $USDC",
	}
	out, err := render.NewMarkdown(language.English).Document(doc)
	require.NoError(t, err)

	assert.Contains(t, out, "# Factura INV-20230131-0001")
	assert.Contains(t, out, "| Fecha | 2023-01-31 |")
	assert.Contains(t, out, "| Vence | 2023-03-02 |")
	assert.Contains(t, out, "| Emisor | Dominion R&D Corp. |")
	assert.NotContains(t, out, "Cliente")
	assert.Contains(t, out, "## Página 1/1")
	assert.Contains(t, out, "Pagadero al recibir en $USDC")

	doc.Metadata.Client = entity.Contact{Name: "Awesome | Inc."}
	out, err = render.NewMarkdown(language.English).Document(doc)
	require.NoError(t, err)
	assert.Contains(t, out, `| Cliente | Awesome \| Inc. |`)
}

func TestMarkdown_CellEscapaBarras(t *testing.T) {
	m := render.NewMarkdown(language.English)
	assert.Equal(t, `a \| b`, m.Cell("a | b", 2))
	assert.Equal(t, "1,000.00", m.Cell(decimal.NewFromInt(1000), 2))
	assert.Equal(t, "7", m.Cell(7, 2))
}

func TestConversions(t *testing.T) {
	g := conversion.New()
	require.NoError(t, g.Set("BTC", "ETH", decimal.NewFromInt(15)))
	out := render.Conversions(conversion.Table(g, nil, false))

	assert.Contains(t, out, "| Symbol | in BTC | in ETH |\n|:---|---:|---:|\n")
	assert.Contains(t, out, "| BTC |  | 15 |")
}
