package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

func TestReadRates(t *testing.T) {
	in := `from,to,ratio,source
# proxies 1:1
weth, eth, 1
ETH,USDC,1500.25,cotización
WETH,ETH,1.0
`
	rates, err := readRates(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, rates, 2)

	assert.Equal(t, "ETH", string(rates[0].from))
	assert.Equal(t, "USDC", string(rates[0].to))
	assert.Equal(t, "cotización", rates[0].source)

	// El par repetido conserva la última fila.
	assert.Equal(t, "WETH", string(rates[1].from))
	assert.Equal(t, "1", rates[1].ratio.String())
	assert.Equal(t, defaultSource, rates[1].source)
}

func TestReadRates_Latin1(t *testing.T) {
	encoded, err := charmap.ISO8859_1.NewEncoder().String("BTC,USDC,42000,cotización\n")
	require.NoError(t, err)

	rates, err := readRates(transform.NewReader(strings.NewReader(encoded), charmap.ISO8859_1.NewDecoder()))
	require.NoError(t, err)
	require.Len(t, rates, 1)
	assert.Equal(t, "cotización", rates[0].source)
}

func TestReadRates_Errores(t *testing.T) {
	cases := map[string]string{
		"pocas columnas": "ETH,USDC\n",
		"ratio inválido": "ETH,USDC,1\nBTC,USDC,mucho\n",
		"mismo símbolo":  "ETH,eth,1\n",
		"ratio negativo": "ETH,USDC,-1\n",
		"símbolo vacío":  "ETH, ,1\n",
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := readRates(strings.NewReader(in))
			assert.Error(t, err)
		})
	}
}

func TestWriteSQL(t *testing.T) {
	rates, err := readRates(strings.NewReader("WETH,ETH,1\nO'K,ETH,0.5,man'ual\n"))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, writeSQL(&buf, "rates.csv", rates))
	sql := buf.String()

	assert.Contains(t, sql, "-- Generado desde rates.csv (cmd/seed_rates)")
	assert.Contains(t, sql, "  ('O''K', 'ETH', 0.5, 'man''ual'),\n  ('WETH', 'ETH', 1, 'seed')\nON CONFLICT")
	assert.True(t, strings.HasSuffix(sql, "WHERE conversion_ratios.source <> 'manual';\n"))

	assert.Error(t, writeSQL(&buf, "vacío.csv", nil))
}
