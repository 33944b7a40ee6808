package billing_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/cripto-factura/internal/application/billing"
	"github.com/jhoicas/cripto-factura/internal/domain"
	"github.com/jhoicas/cripto-factura/internal/domain/conversion"
	"github.com/jhoicas/cripto-factura/internal/domain/entity"
	"github.com/jhoicas/cripto-factura/internal/infrastructure/tokens"
)

// ─── fixtures ───────────────────────────────────────────────────────────────

const (
	btcAddress = "bc1qygm3dlynmjxuflghr0hmq6r7wmff2jd5gtgz0q"
	ethAddress = "0xfc2D5DC38a18A5d1c5d5fBC30bA5c1BD38C1B2a8"
	xrpAddress = "rUPjIsq8Hdt2aN6PQFqC8kY3b5ZfrEUrNb"
)

var fixtureAccounts = []entity.Account{
	{Symbol: "BTC", Address: btcAddress, Name: "Bitcoin"},
	{Symbol: "ETH", Address: ethAddress, Name: "Ethereum"},
	{Symbol: "XRP", Address: xrpAddress, Name: "Ripple"},
}

// fixtureRatios grafo conexo: XRP-BTC-ETH-USDC más los proxies 1:1.
func fixtureRatios(t *testing.T) *conversion.Graph {
	t.Helper()
	g := conversion.New()
	require.NoError(t, g.Set("BTC", "XRP", d("50000")))
	require.NoError(t, g.Set("ETH", "USDC", d("1500")))
	require.NoError(t, g.Set("BTC", "ETH", d("15")))
	require.NoError(t, g.Set("WETH", "ETH", d("1")))
	require.NoError(t, g.Set("WBTC", "BTC", d("1")))
	return g
}

func fixtureLines() []entity.LineItem {
	widget := entity.NewLineItem("Widget", d("417.879"), "US Dollar").WithTax(d("1.05"))
	gadget := entity.NewLineItem("Gadget", d("0.00201"), "ETH").WithTax(d("0.05"))
	gadget.Units = d("2500")
	service := entity.NewLineItem("Service", d("0.201"), "Bitcoin").WithTax(d("1.05"))
	return []entity.LineItem{widget, gadget, service}
}

func fixtureInvoice(t *testing.T) *billing.Invoice {
	t.Helper()
	inv, err := billing.NewInvoice(context.Background(), fixtureLines(), tokens.NewDefault(), billing.InvoiceOptions{
		Currencies: []string{"USD"},
		Accounts:   fixtureAccounts,
		Ratios:     fixtureRatios(t),
	})
	require.NoError(t, err)
	return inv
}

func lastRow(inv *billing.Invoice) billing.Row {
	var last billing.Row
	for r := range inv.Rows() {
		last = r
	}
	return last
}

// ─── construcción ───────────────────────────────────────────────────────────

func TestNewInvoice_CuentasYProxies(t *testing.T) {
	inv := fixtureInvoice(t)

	assert.Equal(t, []entity.Symbol{"BTC", "ETH", "USDC", "WBTC", "WETH", "XRP"}, inv.Currencies())

	for _, c := range []entity.Symbol{"USDC", "WBTC", "WETH"} {
		a, ok := inv.Account(c)
		require.True(t, ok, c)
		assert.Equal(t, ethAddress, a.Address, "la cuenta ETH respalda %s", c)
	}
	a, ok := inv.Account("BTC")
	require.True(t, ok)
	assert.Equal(t, btcAddress, a.Address)

	p, ok := inv.Proxy("BTC")
	require.True(t, ok)
	assert.Equal(t, entity.Symbol("WBTC"), p.Symbol)
	_, ok = inv.Proxy("XRP")
	assert.False(t, ok)

	assert.Equal(t, "Bitcoin", inv.CurrencyName("BTC"))
	assert.Equal(t, "Wrapped BTC", inv.CurrencyName("WBTC"))
	assert.Equal(t, "USD Coin", inv.CurrencyName("USDC"))
	assert.Equal(t, 2, inv.CurrencyDecimals("USDC"))
	assert.Equal(t, 8, inv.CurrencyDecimals("BTC"))

	tok, ok := inv.Token("US Dollar")
	require.True(t, ok)
	assert.Equal(t, entity.Symbol("USDC"), tok.Symbol)
	assert.Equal(t, 3, inv.Len())
	assert.Equal(t, conversion.Stalled, inv.Outcome().State)
}

func TestNewInvoice_ElGrafoNoSeComparte(t *testing.T) {
	g := fixtureRatios(t)
	before := g.Len()
	inv, err := billing.NewInvoice(context.Background(), fixtureLines(), tokens.NewDefault(), billing.InvoiceOptions{
		Currencies: []string{"USD"},
		Accounts:   fixtureAccounts,
		Ratios:     g,
	})
	require.NoError(t, err)
	assert.Equal(t, before, g.Len(), "el grafo de entrada no se modifica")

	cp := inv.Graph()
	require.NoError(t, cp.Set("DOGE", "USDC", d("0.09")))
	assert.False(t, inv.Graph().Has("DOGE", "USDC"))
}

func TestNewInvoice_CuentaDuplicada(t *testing.T) {
	accounts := append([]entity.Account{{Symbol: "btc", Address: "bc1other"}}, fixtureAccounts...)
	_, err := billing.NewInvoice(context.Background(), fixtureLines(), tokens.NewDefault(), billing.InvoiceOptions{
		Accounts: accounts,
		Ratios:   fixtureRatios(t),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrDuplicateAccount)

	var derr *domain.DuplicateAccountError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, "BTC", derr.Symbol)
	assert.Equal(t, "bc1other", derr.Existing)
	assert.Equal(t, btcAddress, derr.Duplicate)
}

func TestNewInvoice_MonedaSinCuenta(t *testing.T) {
	lines := []entity.LineItem{entity.NewLineItem("Widget", d("10"), "")}
	_, err := billing.NewInvoice(context.Background(), lines, tokens.NewDefault(), billing.InvoiceOptions{})
	assert.ErrorIs(t, err, domain.ErrMissingAccount)
}

func TestNewInvoice_MonedaDesconocida(t *testing.T) {
	lines := []entity.LineItem{entity.NewLineItem("Widget", d("10"), "Monopoly Money")}
	_, err := billing.NewInvoice(context.Background(), lines, tokens.NewDefault(), billing.InvoiceOptions{
		Accounts: fixtureAccounts[1:2],
	})
	assert.ErrorIs(t, err, domain.ErrUnknownCurrency)
}

func TestNewInvoice_BloqueadoFallaAunNoEstricto(t *testing.T) {
	lines := []entity.LineItem{entity.NewLineItem("Meme", d("1000"), "Dogecoin")}
	_, err := billing.NewInvoice(context.Background(), lines, tokens.NewDefault(), billing.InvoiceOptions{
		Accounts: fixtureAccounts[1:2],
		Ratios:   fixtureRatios(t),
		Resolver: billing.NewResolver(billing.ResolverOptions{}),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUnresolvableConversion)
	assert.Contains(t, err.Error(), "DOGE/")
}

func TestNewInvoice_LineaInvalida(t *testing.T) {
	lines := []entity.LineItem{entity.NewLineItem("Widget", d("10"), "").WithTax(d("1"))}
	_, err := billing.NewInvoice(context.Background(), lines, tokens.NewDefault(), billing.InvoiceOptions{
		Accounts: []entity.Account{{Symbol: "USDC", Address: "0xabc"}},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidTaxRate)
}

// ─── filas y totales ────────────────────────────────────────────────────────

func TestHeaders(t *testing.T) {
	h := fixtureInvoice(t).Headers()
	require.Len(t, h, 13+2*6)
	assert.Equal(t, "_#", h[0])
	assert.Equal(t, "_Token", h[12])
	assert.Equal(t, "_Total BTC", h[13])
	assert.Equal(t, "_Total XRP", h[18])
	assert.Equal(t, "_Taxes BTC", h[19])
}

func TestRows_ValoresDeLinea(t *testing.T) {
	var rows []billing.Row
	for r := range fixtureInvoice(t).Rows() {
		rows = append(rows, r)
	}
	require.Len(t, rows, 3)

	assert.Equal(t, "417.88", rows[0].Amount.String())
	assert.Equal(t, "19.9", rows[0].Taxes.String())
	assert.Equal(t, "5% included", rows[0].TaxInfo)
	assert.Equal(t, entity.Symbol("USDC"), rows[0].Symbol)
	assert.Equal(t, 2, rows[0].Decimals)

	assert.Equal(t, "5.27625", rows[1].Amount.String())
	assert.Equal(t, "5% added", rows[1].TaxInfo)
	assert.Equal(t, 8, rows[1].Decimals)

	assert.Equal(t, "0.201", rows[2].Amount.String())
	assert.Equal(t, "0.00957143", rows[2].Taxes.String())
	assert.Equal(t, "Bitcoin", rows[2].Currency)
	assert.True(t, rows[2].Net.Add(rows[2].Taxes).Equal(rows[2].Amount))
}

func TestRows_AcumuladosMonotonos(t *testing.T) {
	inv := fixtureInvoice(t)
	var prev *billing.Row
	for r := range inv.Rows() {
		require.Len(t, r.Totals, len(inv.Currencies()))
		if prev != nil {
			for j := range r.Totals {
				assert.True(t, r.Totals[j].GreaterThanOrEqual(prev.Totals[j]), "%s en fila %d", inv.Currencies()[j], r.Index)
			}
		}
		prev = &r
	}

	last := lastRow(inv)
	// USDC: 417.88 + 5.27625*1500 + 0.201*22500
	assert.InDelta(t, 12854.755, last.Totals[2].InexactFloat64(), 1e-9)
	// ETH: 417.88/1500 + 5.27625 + 0.201*15
	assert.InDelta(t, 8.5698366666, last.Totals[1].InexactFloat64(), 1e-9)
}

func TestRows_CortaAntes(t *testing.T) {
	n := 0
	for range fixtureInvoice(t).Rows() {
		n++
		break
	}
	assert.Equal(t, 1, n)
}

func TestTotals(t *testing.T) {
	inv := fixtureInvoice(t)
	totals := inv.Totals()
	require.Len(t, totals, 6)

	byCurrency := make(map[entity.Symbol]billing.SummaryRow)
	for _, s := range totals {
		byCurrency[s.Symbol] = s
	}
	usdc := byCurrency["USDC"]
	assert.Equal(t, 2, usdc.Decimals)
	assert.Equal(t, ethAddress, usdc.Account.Address)
	assert.InDelta(t, 12854.76, usdc.Amount.InexactFloat64(), 0.011)

	eth := byCurrency["ETH"]
	assert.Equal(t, "8.56983667", eth.Amount.StringFixed(8))
}

// ─── tokens sin valor ───────────────────────────────────────────────────────

func TestNewInvoice_TokenSinValor(t *testing.T) {
	g := conversion.New()
	require.NoError(t, g.Set("ZEENUS", "ETH", d("0")))
	require.NoError(t, g.Set("WETH", "ETH", d("1")))
	lines := []entity.LineItem{entity.NewLineItem("Faucet", d("12345.67890123"), "ZEENUS")}

	inv, err := billing.NewInvoice(context.Background(), lines, tokens.NewDefault(), billing.InvoiceOptions{
		Currencies: []string{"ETH"},
		Accounts:   fixtureAccounts[1:2],
		Ratios:     g,
	})
	require.NoError(t, err)

	last := lastRow(inv)
	assert.Equal(t, "12346", last.Amount.String())
	assert.Equal(t, 0, last.Decimals)
	for _, tot := range last.Totals {
		assert.True(t, tot.IsZero())
	}
	r, ok := inv.Graph().Ratio("ZEENUS", "WETH")
	require.True(t, ok)
	assert.True(t, r.IsZero())
}

func TestNewInvoice_MonedaDePagoSinValor(t *testing.T) {
	g := conversion.New()
	require.NoError(t, g.Set("ETH", "USDC", d("1500")))
	require.NoError(t, g.Set("ZEENUS", "ETH", d("0")))
	lines := []entity.LineItem{entity.NewLineItem("Widget", d("10"), "USD")}

	_, err := billing.NewInvoice(context.Background(), lines, tokens.NewDefault(), billing.InvoiceOptions{
		Currencies: []string{"ZEENUS"},
		Accounts:   []entity.Account{{Symbol: "ZEENUS", Address: "0xz", Name: "Zeenus"}},
		Ratios:     g,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrWorthlessCurrency)

	var uerr *domain.UnresolvableConversionError
	require.ErrorAs(t, err, &uerr)
	assert.Empty(t, uerr.Unresolved)
	assert.Equal(t, []string{"USDC/ZEENUS"}, uerr.Worthless)
	assert.NotContains(t, err.Error(), "no se encontró ratio")
}

func TestNewInvoice_PuenteEntreTokensSinValor(t *testing.T) {
	g := conversion.New()
	require.NoError(t, g.Set("WEENUS", "ETH", d("0")))
	require.NoError(t, g.Set("ZEENUS", "ETH", d("0")))
	lines := []entity.LineItem{entity.NewLineItem("Faucet", d("42"), "WEENUS")}

	inv, err := billing.NewInvoice(context.Background(), lines, tokens.NewDefault(), billing.InvoiceOptions{
		Currencies: []string{"ZEENUS"},
		Accounts:   []entity.Account{{Symbol: "ZEENUS", Address: "0xz", Name: "Zeenus"}},
		Ratios:     g,
	})
	require.NoError(t, err)
	assert.Equal(t, []entity.Symbol{"ZEENUS"}, inv.Currencies())

	totals := inv.Totals()
	require.Len(t, totals, 1)
	assert.True(t, totals[0].Amount.IsZero())
	_, ok := inv.Graph().Ratio("ETH", "WEENUS")
	assert.False(t, ok)
}
