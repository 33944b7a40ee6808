package entity

import "strings"

// Symbol identificador canónico en mayúsculas de una moneda o token (BTC, USDC, ...).
type Symbol string

// NormalizeSymbol quita espacios y pasa a mayúsculas. No valida que el símbolo exista.
func NormalizeSymbol(s string) Symbol {
	return Symbol(strings.ToUpper(strings.TrimSpace(s)))
}

func (s Symbol) String() string { return string(s) }

// Account cuenta de pago de una criptomoneda (colaborador externo, solo lectura).
type Account struct {
	Symbol  Symbol // moneda nativa de la cuenta, ej. ETH
	Address string // dirección pagable
	Name    string // nombre para mostrar, ej. "Ethereum"
	Crypto  string // procedencia; opaco para el núcleo
	Path    string // ruta de derivación; opaco para el núcleo
}

// TokenInfo metadatos de un token o moneda "proxy" (ej. WBTC para BTC).
type TokenInfo struct {
	Symbol   Symbol
	Name     string
	Decimals int    // decimales nativos; la precisión por defecto es Decimals/3
	Address  string // contrato ERC-20, vacío para monedas nativas
	PriceID  string // identificador en el oráculo de precios
}

// DisplayDecimals precisión por defecto para mostrar montos en este token.
func (t TokenInfo) DisplayDecimals() int { return t.Decimals / 3 }
