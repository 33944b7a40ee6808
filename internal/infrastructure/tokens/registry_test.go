package tokens_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/cripto-factura/internal/domain"
	"github.com/jhoicas/cripto-factura/internal/domain/entity"
	"github.com/jhoicas/cripto-factura/internal/infrastructure/tokens"
)

func TestSymbol_AliasesYDirecciones(t *testing.T) {
	r := tokens.NewDefault()

	cases := map[string]entity.Symbol{
		"BTC":       "BTC",
		"bitcoin":   "BTC",
		"Ethereum":  "ETH",
		"USD":       "USDC",
		"US Dollar": "USDC",
		"usd coin":  "USDC",
		"HoloToken": "HOT",
		"0x2260fac5e5542a773aa44fbcfedf7c193bc2c599": "WBTC",
		" zeenus ": "ZEENUS",
	}
	for name, want := range cases {
		got, err := r.Symbol(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, got, name)
	}
}

func TestSymbol_Desconocido(t *testing.T) {
	r := tokens.NewDefault()
	_, err := r.Symbol("Dogecoin Cash Classic")
	assert.ErrorIs(t, err, domain.ErrUnknownCurrency)

	var uerr *domain.UnknownCurrencyError
	require.ErrorAs(t, err, &uerr)
	assert.Equal(t, "Dogecoin Cash Classic", uerr.Name)

	_, err = r.Symbol("")
	assert.ErrorIs(t, err, domain.ErrUnknownCurrency)
}

func TestProxy(t *testing.T) {
	r := tokens.NewDefault()

	p, ok := r.Proxy("Bitcoin")
	require.True(t, ok)
	assert.Equal(t, entity.Symbol("WBTC"), p.Symbol)

	p, ok = r.Proxy("ETH")
	require.True(t, ok)
	assert.Equal(t, entity.Symbol("WETH"), p.Symbol)

	p, ok = r.Proxy("USD")
	require.True(t, ok)
	assert.Equal(t, entity.Symbol("USDC"), p.Symbol)

	_, ok = r.Proxy("XRP")
	assert.False(t, ok)
	_, ok = r.Proxy("DOGE")
	assert.False(t, ok)
}

func TestToken_PrincipalesAntesQueTokens(t *testing.T) {
	r := tokens.NewDefault()

	btc, err := r.Token("BTC")
	require.NoError(t, err)
	assert.Equal(t, tokens.CryptoDecimals, btc.Decimals)
	assert.Equal(t, 8, btc.DisplayDecimals())

	usdc, err := r.Token("US Dollar")
	require.NoError(t, err)
	assert.Equal(t, 2, usdc.DisplayDecimals())
	assert.Equal(t, "USD Coin", usdc.Name)

	zeenus, err := r.Token("ZEENUS")
	require.NoError(t, err)
	assert.Equal(t, 0, zeenus.DisplayDecimals())
}

func TestRegisterToken_Extiende(t *testing.T) {
	r := tokens.New()
	r.RegisterCrypto("BTC", "Bitcoin", "bitcoin")
	r.RegisterToken(entity.TokenInfo{Symbol: "wbtc", Name: "Wrapped BTC", Decimals: 8}, "wrapped bitcoin")
	r.RegisterProxy("btc", "WBTC")

	s, err := r.Symbol("Wrapped Bitcoin")
	require.NoError(t, err)
	assert.Equal(t, entity.Symbol("WBTC"), s)

	p, ok := r.Proxy("bitcoin")
	require.True(t, ok)
	assert.Equal(t, entity.Symbol("WBTC"), p.Symbol)
	assert.True(t, r.Known("BTC"))
	assert.False(t, r.Known("WBTC"))
}
