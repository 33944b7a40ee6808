package billing

import (
	"context"
	"fmt"
	"maps"
	"slices"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/cripto-factura/internal/domain"
	"github.com/jhoicas/cripto-factura/internal/domain/conversion"
	"github.com/jhoicas/cripto-factura/internal/domain/entity"
	"github.com/jhoicas/cripto-factura/pkg/logger"
)

// DefaultCurrency moneda de factura y de línea cuando no se indica otra.
const DefaultCurrency = "USD"

// InvoiceOptions parámetros de construcción de una factura.
type InvoiceOptions struct {
	Currencies      []string         // nombres, símbolos o contratos; por defecto DefaultCurrency
	Accounts        []entity.Account // cada símbolo de cuenta se suma a las monedas de factura
	Ratios          *conversion.Graph
	DefaultCurrency string
	Resolver        *Resolver // por defecto estricto y sin oráculo
	Log             *logger.Logger
}

type pricedLine struct {
	item     entity.LineItem
	net      entity.Net // redondeado a decimals
	currency string
	symbol   entity.Symbol
	decimals int
	token    entity.TokenInfo
	ratios   []decimal.Decimal // por moneda de factura; 1 si es la misma moneda
}

// Invoice totales de las líneas en cada moneda de factura, pagables en las cuentas asociadas.
// Los ratios quedan fijos al construirla.
type Invoice struct {
	lines      []pricedLine
	currencies []entity.Symbol // ordenadas
	accounts   map[entity.Symbol]entity.Account
	proxies    map[entity.Symbol]entity.TokenInfo
	tokens     map[string]entity.TokenInfo // por alias: nombre original, nombre del token y símbolo
	graph      *conversion.Graph
	outcome    Outcome
}

// NewInvoice normaliza monedas, asocia cuentas y proxies, siembra los pares requeridos y
// resuelve las conversiones. Falla si algún par queda sin ratio.
func NewInvoice(ctx context.Context, lines []entity.LineItem, currencies CurrencyResolver, opts InvoiceOptions) (*Invoice, error) {
	if currencies == nil {
		return nil, fmt.Errorf("%w: resolvedor de monedas requerido", domain.ErrInvalidInput)
	}
	log := opts.Log
	if log == nil {
		log = logger.Nop()
	}
	log = log.Component("invoice")
	def := opts.DefaultCurrency
	if def == "" {
		def = DefaultCurrency
	}
	names := opts.Currencies
	if len(names) == 0 {
		names = []string{def}
	}

	// ── 1. Monedas de factura ───────────────────────────────────────────────
	accounts := make(map[entity.Symbol]*entity.Account)
	for _, name := range names {
		sym, err := currencies.Symbol(name)
		if err != nil {
			return nil, fmt.Errorf("invoice: moneda %q: %w", name, err)
		}
		accounts[sym] = nil
	}
	log.Info().Strs("currencies", symbolStrings(sortedKeys(accounts))).Msg("monedas de factura")

	// ── 2. Cuentas ──────────────────────────────────────────────────────────
	for i := range opts.Accounts {
		a := opts.Accounts[i]
		a.Symbol = entity.NormalizeSymbol(string(a.Symbol))
		if prev := accounts[a.Symbol]; prev != nil {
			return nil, &domain.DuplicateAccountError{Symbol: string(a.Symbol), Existing: prev.Address, Duplicate: a.Address}
		}
		accounts[a.Symbol] = &a
	}

	// ── 3. Proxies: la cuenta ETH respalda cada token ERC-20 ────────────────
	proxies := make(map[entity.Symbol]entity.TokenInfo)
	eth := accounts["ETH"]
	for _, c := range sortedKeys(accounts) {
		p, ok := currencies.Proxy(string(c))
		if !ok {
			log.Info().Str("currency", string(c)).Msg("moneda sin proxy")
			continue
		}
		proxies[c] = p
		if eth != nil && accounts[p.Symbol] == nil {
			accounts[p.Symbol] = eth
		}
	}
	symbols := sortedKeys(accounts)
	for _, c := range symbols {
		if accounts[c] == nil {
			return nil, fmt.Errorf("%w: %s", domain.ErrMissingAccount, c)
		}
	}
	log.Info().Strs("currencies", symbolStrings(symbols)).Int("proxies", len(proxies)).Msg("monedas con cuenta")

	// ── 4. Pares requeridos línea -> factura ────────────────────────────────
	g := conversion.New()
	if opts.Ratios != nil {
		g = opts.Ratios.Clone()
	}
	lineNames := make([]string, 0, len(lines))
	lineSymbols := make([]entity.Symbol, 0, len(lines))
	for _, l := range lines {
		name := l.Currency
		if name == "" {
			name = def
		}
		sym, err := currencies.Symbol(name)
		if err != nil {
			return nil, fmt.Errorf("invoice: línea %q: %w", l.Description, err)
		}
		lineNames = append(lineNames, name)
		lineSymbols = append(lineSymbols, sym)
	}
	seen := make(map[entity.Symbol]bool)
	for _, ls := range lineSymbols {
		if seen[ls] {
			continue
		}
		seen[ls] = true
		for _, c := range symbols {
			g.Want(ls, c)
		}
	}

	// ── 5. Metadatos de token por alias ─────────────────────────────────────
	tokens := make(map[string]entity.TokenInfo)
	aliasNames := append(slices.Clone(lineNames), symbolStrings(symbols)...)
	for _, name := range aliasNames {
		info, err := currencies.Token(name)
		if err != nil {
			return nil, fmt.Errorf("invoice: token %q: %w", name, err)
		}
		for _, alias := range []string{name, info.Name, string(info.Symbol)} {
			if alias == "" {
				continue
			}
			if prev, ok := tokens[alias]; ok && prev != info {
				return nil, fmt.Errorf("%w: %q como %q: %s != %s", domain.ErrIncompatibleCurrency, name, alias, info.Symbol, prev.Symbol)
			}
			tokens[alias] = info
		}
	}

	// ── 6. Resolución ───────────────────────────────────────────────────────
	resolver := opts.Resolver
	if resolver == nil {
		resolver = NewResolver(ResolverOptions{Strict: true, Log: opts.Log})
	}
	outcome, err := resolver.Resolve(ctx, g)
	if err != nil {
		return nil, fmt.Errorf("invoice: %w", err)
	}
	if outcome.State != conversion.Stalled {
		return nil, fmt.Errorf("invoice: %w", g.Unresolvable())
	}

	inv := &Invoice{
		currencies: symbols,
		accounts:   make(map[entity.Symbol]entity.Account, len(accounts)),
		proxies:    proxies,
		tokens:     tokens,
		graph:      g,
		outcome:    outcome,
	}
	for s, a := range accounts {
		inv.accounts[s] = *a
	}

	// ── 7. Líneas valoradas ─────────────────────────────────────────────────
	for i, l := range lines {
		pl, err := inv.price(l, lineNames[i], lineSymbols[i])
		if err != nil {
			return nil, fmt.Errorf("invoice: línea %d: %w", i, err)
		}
		inv.lines = append(inv.lines, pl)
	}
	return inv, nil
}

func (inv *Invoice) price(l entity.LineItem, name string, sym entity.Symbol) (pricedLine, error) {
	net, err := l.Net()
	if err != nil {
		return pricedLine{}, err
	}
	token := inv.tokens[name]
	decimals := token.DisplayDecimals()
	if l.Decimals != nil {
		decimals = *l.Decimals
	}
	net.Amount = net.Amount.Round(int32(decimals))
	net.Taxes = net.Taxes.Round(int32(decimals))

	ratios := make([]decimal.Decimal, len(inv.currencies))
	for j, c := range inv.currencies {
		if c == sym {
			ratios[j] = decimal.NewFromInt(1)
			continue
		}
		r, ok := inv.graph.Ratio(sym, c)
		if !ok {
			return pricedLine{}, fmt.Errorf("%w: %s/%s", domain.ErrUnresolvableConversion, sym, c)
		}
		ratios[j] = r
	}
	return pricedLine{
		item:     l,
		net:      net,
		currency: name,
		symbol:   sym,
		decimals: decimals,
		token:    token,
		ratios:   ratios,
	}, nil
}

// Currencies monedas de factura, ordenadas.
func (inv *Invoice) Currencies() []entity.Symbol { return slices.Clone(inv.currencies) }

// Account cuenta de pago asociada a la moneda.
func (inv *Invoice) Account(c entity.Symbol) (entity.Account, bool) {
	a, ok := inv.accounts[c]
	return a, ok
}

// Proxy token proxy encontrado para la moneda, si lo hubo.
func (inv *Invoice) Proxy(c entity.Symbol) (entity.TokenInfo, bool) {
	p, ok := inv.proxies[c]
	return p, ok
}

// Token metadatos por nombre, símbolo o alias de cualquier moneda de la factura.
func (inv *Invoice) Token(alias string) (entity.TokenInfo, bool) {
	t, ok := inv.tokens[alias]
	return t, ok
}

// CurrencyName nombre de la cuenta si es su moneda nativa, si no el nombre del token.
func (inv *Invoice) CurrencyName(c entity.Symbol) string {
	if a, ok := inv.accounts[c]; ok && a.Symbol == c {
		return a.Name
	}
	return inv.tokens[string(c)].Name
}

// CurrencyDecimals decimales para redondear totales en la moneda c.
func (inv *Invoice) CurrencyDecimals(c entity.Symbol) int {
	return inv.tokens[string(c)].DisplayDecimals()
}

// Graph copia del grafo de ratios resuelto.
func (inv *Invoice) Graph() *conversion.Graph { return inv.graph.Clone() }

// Outcome resultado de la resolución de conversiones.
func (inv *Invoice) Outcome() Outcome { return inv.outcome }

// Len cantidad de líneas.
func (inv *Invoice) Len() int { return len(inv.lines) }

func sortedKeys[V any](m map[entity.Symbol]V) []entity.Symbol {
	return slices.Sorted(maps.Keys(m))
}

func symbolStrings(in []entity.Symbol) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = string(s)
	}
	return out
}
