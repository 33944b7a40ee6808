// Package tokens resuelve nombres, símbolos y contratos de monedas y expone sus metadatos.
package tokens

import (
	"fmt"
	"strings"
	"sync"

	"github.com/jhoicas/cripto-factura/internal/application/billing"
	"github.com/jhoicas/cripto-factura/internal/domain"
	"github.com/jhoicas/cripto-factura/internal/domain/entity"
)

var _ billing.CurrencyResolver = (*Registry)(nil)

// CryptoDecimals decimales nativos asumidos para las criptomonedas principales (se muestran 8).
const CryptoDecimals = 24

// Registry registro en memoria de criptomonedas principales y tokens ERC-20.
type Registry struct {
	mu      sync.RWMutex
	cryptos map[entity.Symbol]entity.TokenInfo
	tokens  map[entity.Symbol]entity.TokenInfo
	aliases map[string]entity.Symbol // en minúsculas: nombre, alias o dirección de contrato
	proxies map[entity.Symbol]entity.Symbol
}

// New registro vacío.
func New() *Registry {
	return &Registry{
		cryptos: make(map[entity.Symbol]entity.TokenInfo),
		tokens:  make(map[entity.Symbol]entity.TokenInfo),
		aliases: make(map[string]entity.Symbol),
		proxies: make(map[entity.Symbol]entity.Symbol),
	}
}

// NewDefault registro con las monedas conocidas y sus proxies líquidos.
func NewDefault() *Registry {
	r := New()
	for _, c := range defaultCryptos {
		r.RegisterCrypto(c.symbol, c.name, c.priceID)
	}
	for _, t := range defaultTokens {
		r.RegisterToken(t.info, t.aliases...)
	}
	for core, proxy := range defaultProxies {
		r.RegisterProxy(core, proxy)
	}
	return r
}

// RegisterCrypto agrega una criptomoneda principal (cadena propia).
func (r *Registry) RegisterCrypto(sym entity.Symbol, name, priceID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sym = entity.NormalizeSymbol(string(sym))
	r.cryptos[sym] = entity.TokenInfo{Symbol: sym, Name: name, Decimals: CryptoDecimals, PriceID: priceID}
	r.aliases[strings.ToLower(name)] = sym
}

// RegisterToken agrega o reemplaza un token. Nombre, dirección y aliases quedan resolubles.
func (r *Registry) RegisterToken(info entity.TokenInfo, aliases ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	info.Symbol = entity.NormalizeSymbol(string(info.Symbol))
	r.tokens[info.Symbol] = info
	for _, a := range append([]string{info.Name, info.Address}, aliases...) {
		if a = strings.ToLower(strings.TrimSpace(a)); a != "" {
			r.aliases[a] = info.Symbol
		}
	}
}

// RegisterProxy asocia una moneda principal con el token que la representa en Ethereum.
func (r *Registry) RegisterProxy(core, token entity.Symbol) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.proxies[entity.NormalizeSymbol(string(core))] = entity.NormalizeSymbol(string(token))
}

// Symbol símbolo canónico: criptomoneda principal por símbolo o nombre, luego token por
// símbolo, nombre, alias o dirección.
func (r *Registry) Symbol(name string) (entity.Symbol, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.symbol(name)
}

func (r *Registry) symbol(name string) (entity.Symbol, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return "", &domain.UnknownCurrencyError{Name: name}
	}
	sym := entity.NormalizeSymbol(trimmed)
	if _, ok := r.cryptos[sym]; ok {
		return sym, nil
	}
	if _, ok := r.tokens[sym]; ok {
		return sym, nil
	}
	if s, ok := r.aliases[strings.ToLower(trimmed)]; ok {
		return s, nil
	}
	return "", &domain.UnknownCurrencyError{Name: name}
}

// Proxy token ERC-20 de la moneda: el proxy registrado para una principal, o el propio token.
func (r *Registry) Proxy(name string) (entity.TokenInfo, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sym, err := r.symbol(name)
	if err != nil {
		return entity.TokenInfo{}, false
	}
	if _, ok := r.cryptos[sym]; ok {
		p, ok := r.proxies[sym]
		if !ok {
			return entity.TokenInfo{}, false
		}
		t, ok := r.tokens[p]
		return t, ok
	}
	t, ok := r.tokens[sym]
	return t, ok
}

// Token metadatos: las principales primero, luego tokens.
func (r *Registry) Token(name string) (entity.TokenInfo, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sym, err := r.symbol(name)
	if err != nil {
		return entity.TokenInfo{}, err
	}
	if c, ok := r.cryptos[sym]; ok {
		return c, nil
	}
	if t, ok := r.tokens[sym]; ok {
		return t, nil
	}
	return entity.TokenInfo{}, fmt.Errorf("%w: %s sin metadatos", domain.ErrNotFound, sym)
}

// Known indica si sym es una criptomoneda principal.
func (r *Registry) Known(sym entity.Symbol) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.cryptos[sym]
	return ok
}
