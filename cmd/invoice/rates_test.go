package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/jhoicas/cripto-factura/internal/application/billing"
	"github.com/jhoicas/cripto-factura/internal/application/dto"
	"github.com/jhoicas/cripto-factura/internal/domain/entity"
	"github.com/jhoicas/cripto-factura/internal/infrastructure/render"
)

// ─── rates ──────────────────────────────────────────────────────────────────

func TestRatesParse(t *testing.T) {
	c := &ratesCmd{want: "BTC/USD, eth/usd", set: "ETH/USD=1500,BTC/ETH = 15"}
	var in dto.ResolveRequest
	require.NoError(t, c.parse(&in))

	assert.Equal(t, []dto.PairRequest{{From: "BTC", To: "USD"}, {From: "eth", To: "usd"}}, in.Want)
	require.Len(t, in.Conversions, 2)
	assert.Equal(t, "1500", in.Conversions[0].Ratio.String())
	assert.Equal(t, "BTC", in.Conversions[1].From)
	assert.Equal(t, "15", in.Conversions[1].Ratio.String())
}

func TestRatesParse_Errores(t *testing.T) {
	cases := []struct {
		name string
		cmd  ratesCmd
	}{
		{"sin pares", ratesCmd{}},
		{"par sin barra", ratesCmd{want: "BTCUSD"}},
		{"ratio sin igual", ratesCmd{want: "BTC/USD", set: "ETH/USD"}},
		{"ratio inválido", ratesCmd{want: "BTC/USD", set: "ETH/USD=mucho"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var in dto.ResolveRequest
			assert.Error(t, tc.cmd.parse(&in))
		})
	}
}

func TestGraphOf(t *testing.T) {
	g, err := graphOf(&dto.ResolveResponse{
		Ratios:     []dto.RatioResponse{{From: "ETH", To: "USDC", Ratio: decimal.NewFromInt(1500)}},
		Unresolved: []string{"DOGE/USDC"},
	})
	require.NoError(t, err)

	r, ok := g.Ratio("ETH", "USDC")
	require.True(t, ok)
	assert.Equal(t, "1500", r.String())
	assert.True(t, g.Has("DOGE", "USDC"))
	_, ok = g.Ratio("DOGE", "USDC")
	assert.False(t, ok)
}

// ─── pdf / common ───────────────────────────────────────────────────────────

func TestReadJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "req.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"lines":[{"description":"Widget","price":"1"}]}`), 0o600))

	var in dto.QuoteInvoiceRequest
	require.NoError(t, readJSON(path, &in))
	require.Len(t, in.Lines, 1)

	require.NoError(t, os.WriteFile(path, []byte(`{"linea":[]}`), 0o600))
	assert.Error(t, readJSON(path, &in), "campos desconocidos se rechazan")
}

func TestMarkdownGenerator(t *testing.T) {
	doc := &billing.Document{
		Metadata: entity.Metadata{
			Number: "AWE-20230131-0001",
			Vendor: entity.Contact{Name: "Dominion R&D Corp."},
			Date:   time.Date(2023, 1, 31, 0, 0, 0, 0, time.UTC),
			Due:    time.Date(2023, 3, 2, 0, 0, 0, 0, time.UTC),
		},
		Terms: "Pagadero al recibir en $ETH",
	}
	out, err := markdownGenerator{md: render.NewMarkdown(language.English)}.GenerateInvoicePDF(context.Background(), doc)
	require.NoError(t, err)
	assert.Contains(t, string(out), "# Factura AWE-20230131-0001")
	assert.Contains(t, string(out), "Pagadero al recibir en $ETH")
}
