// Package conversion completa el grafo de ratios entre pares de monedas.
package conversion

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/cripto-factura/internal/domain"
	"github.com/jhoicas/cripto-factura/internal/domain/entity"
)

// Precision dígitos decimales conservados en divisiones y productos deducidos.
const Precision = 32

// State estado del ciclo de resolución.
type State int

const (
	// Working algún par sigue pendiente y la última pasada dedujo algo.
	Working State = iota
	// Stalled no quedan pares pendientes (éxito).
	Stalled
	// Blocked quedan pares pendientes y ninguna pasada progresó.
	Blocked
)

func (s State) String() string {
	switch s {
	case Working:
		return "working"
	case Stalled:
		return "stalled"
	case Blocked:
		return "blocked"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Pair par ordenado From/To; su ratio es cuántas unidades de To vale una de From.
type Pair struct {
	From entity.Symbol
	To   entity.Symbol
}

func (p Pair) String() string { return string(p.From) + "/" + string(p.To) }

// Inverse par en sentido contrario.
func (p Pair) Inverse() Pair { return Pair{From: p.To, To: p.From} }

func (p Pair) has(s entity.Symbol) bool { return p.From == s || p.To == s }

type ratio struct {
	value decimal.Decimal
	known bool
}

type entry struct {
	pair Pair
	ratio
}

// Graph mapa par -> ratio o desconocido. Un par ausente nunca fue pedido; un par
// presente y desconocido es objetivo de deducción. Se recorre en orden de inserción.
// Un par pendiente a/b cuyo destino b vale cero frente a a queda marcado sin valor:
// ningún ratio finito lo resuelve y no se le consulta al oráculo.
type Graph struct {
	order     []Pair
	ratios    map[Pair]ratio
	worthless map[Pair]struct{}
}

// New grafo vacío.
func New() *Graph {
	return &Graph{ratios: make(map[Pair]ratio), worthless: make(map[Pair]struct{})}
}

// markWorthless solo marca pares pedidos y aún desconocidos.
func (g *Graph) markWorthless(p Pair) {
	if r, ok := g.ratios[p]; ok && !r.known {
		g.worthless[p] = struct{}{}
	}
}

func (g *Graph) put(p Pair, r ratio) {
	if _, ok := g.ratios[p]; !ok {
		g.order = append(g.order, p)
	}
	g.ratios[p] = r
	if r.known {
		delete(g.worthless, p)
	}
}

// Set fija el ratio conocido de from/to. El cero es válido (token sin valor).
func (g *Graph) Set(from, to entity.Symbol, r decimal.Decimal) error {
	if from == to {
		return fmt.Errorf("%w: par %s/%s", domain.ErrInvalidInput, from, to)
	}
	if r.IsNegative() {
		return fmt.Errorf("%w: ratio negativo %s para %s/%s", domain.ErrInvalidInput, r, from, to)
	}
	g.put(Pair{from, to}, ratio{value: r, known: true})
	return nil
}

// Want registra from/to como pendiente si aún no existe. No pisa un ratio conocido.
func (g *Graph) Want(from, to entity.Symbol) {
	if from == to {
		return
	}
	p := Pair{from, to}
	if _, ok := g.ratios[p]; !ok {
		g.put(p, ratio{})
	}
}

// Ratio devuelve el ratio conocido de from/to.
func (g *Graph) Ratio(from, to entity.Symbol) (decimal.Decimal, bool) {
	r, ok := g.ratios[Pair{from, to}]
	if !ok || !r.known {
		return decimal.Zero, false
	}
	return r.value, true
}

// Has indica si from/to está presente, conocido o no.
func (g *Graph) Has(from, to entity.Symbol) bool {
	_, ok := g.ratios[Pair{from, to}]
	return ok
}

func (g *Graph) known(p Pair) bool { return g.ratios[p].known }

// Pairs pares en orden de inserción.
func (g *Graph) Pairs() []Pair { return slices.Clone(g.order) }

// Len cantidad de pares presentes.
func (g *Graph) Len() int { return len(g.order) }

// IsWorthless indica si from/to está pendiente porque to vale cero frente a from.
func (g *Graph) IsWorthless(from, to entity.Symbol) bool {
	_, ok := g.worthless[Pair{from, to}]
	return ok
}

// Worthless pares pendientes hacia una moneda sin valor, ordenados.
func (g *Graph) Worthless() []Pair {
	var out []Pair
	for _, p := range g.order {
		if _, ok := g.worthless[p]; ok {
			out = append(out, p)
		}
	}
	slices.SortFunc(out, comparePairs)
	return out
}

// Unknown pares pendientes, ordenados.
func (g *Graph) Unknown() []Pair {
	var out []Pair
	for _, p := range g.order {
		if !g.ratios[p].known {
			out = append(out, p)
		}
	}
	slices.SortFunc(out, comparePairs)
	return out
}

// Known pares con ratio conocido, ordenados.
func (g *Graph) Known() []Pair {
	var out []Pair
	for _, p := range g.order {
		if g.ratios[p].known {
			out = append(out, p)
		}
	}
	slices.SortFunc(out, comparePairs)
	return out
}

// Symbols símbolos presentes en algún par, ordenados.
func (g *Graph) Symbols() []entity.Symbol {
	seen := make(map[entity.Symbol]struct{})
	var out []entity.Symbol
	for _, p := range g.order {
		for _, s := range []entity.Symbol{p.From, p.To} {
			if _, ok := seen[s]; !ok {
				seen[s] = struct{}{}
				out = append(out, s)
			}
		}
	}
	slices.Sort(out)
	return out
}

// Clone copia independiente del grafo.
func (g *Graph) Clone() *Graph {
	c := &Graph{
		order:     slices.Clone(g.order),
		ratios:    make(map[Pair]ratio, len(g.ratios)),
		worthless: make(map[Pair]struct{}, len(g.worthless)),
	}
	for p, r := range g.ratios {
		c.ratios[p] = r
	}
	for p := range g.worthless {
		c.worthless[p] = struct{}{}
	}
	return c
}

func (g *Graph) snapshot() []entry {
	out := make([]entry, len(g.order))
	for i, p := range g.order {
		out[i] = entry{pair: p, ratio: g.ratios[p]}
	}
	return out
}

// Deduce una pasada de inversión y composición de un salto. Devuelve true si
// dedujo algún ratio. Los pares agregados durante la pasada se recorren en la siguiente.
func (g *Graph) Deduce() bool {
	updated := false
	one := decimal.NewFromInt(1)
	for _, e := range g.snapshot() {
		if !e.known {
			continue
		}
		inv := e.pair.Inverse()
		switch {
		case e.value.IsZero():
			g.markWorthless(inv)
		case !g.known(inv):
			g.put(inv, ratio{value: one.DivRound(e.value, Precision), known: true})
			updated = true
		}
		// a/b * b/c -> a/c
		for _, o := range g.snapshot() {
			if !o.known || e.pair.To != o.pair.From || e.pair.From == o.pair.To {
				continue
			}
			target := Pair{e.pair.From, o.pair.To}
			if g.known(target) {
				continue
			}
			g.put(target, ratio{value: e.value.Mul(o.value).Round(Precision), known: true})
			updated = true
		}
	}
	return updated
}

// Bridge busca, para el primer par pendiente a/b que lo permita, un par conocido
// con a y otro con b que compartan un pivote x; deduce a/b = (a/x) / (b/x) y su
// inverso. Se detiene en la primera deducción.
func (g *Graph) Bridge() bool {
	for _, p := range g.order {
		if g.known(p) || g.IsWorthless(p.From, p.To) {
			continue
		}
		a, b := p.From, p.To
		for _, c2 := range g.order {
			if !g.known(c2) || !c2.has(a) {
				continue
			}
			for _, c3 := range g.order {
				if c3 == c2 || !g.known(c3) || !c3.has(b) {
					continue
				}
				for _, x := range []entity.Symbol{c2.From, c2.To} {
					if x == a || x == b || !c3.has(x) {
						continue
					}
					if g.bridgeVia(a, b, x) {
						return true
					}
				}
			}
		}
	}
	return false
}

// bridgeVia deduce a/b por el pivote x. Si a y b valen cero frente a x, a/b y b/a
// quedan en cero (no en 1): dos tokens sin valor no tienen un cambio definido entre sí.
func (g *Graph) bridgeVia(a, b, x entity.Symbol) bool {
	ra, okA := g.Ratio(a, x)
	rb, okB := g.Ratio(b, x)
	if !okA || !okB {
		return false
	}
	if rb.IsZero() {
		if !ra.IsZero() {
			// a vale algo y b nada: a/b no es representable.
			g.markWorthless(Pair{a, b})
			return false
		}
		// Ambos sin valor frente al pivote: se propaga el cero en los dos sentidos.
		g.put(Pair{a, b}, ratio{value: decimal.Zero, known: true})
		g.put(Pair{b, a}, ratio{value: decimal.Zero, known: true})
		return true
	}
	g.put(Pair{a, b}, ratio{value: ra.DivRound(rb, Precision), known: true})
	if !ra.IsZero() {
		g.put(Pair{b, a}, ratio{value: rb.DivRound(ra, Precision), known: true})
	}
	return true
}

// Step ejecuta una pasada de deducción y, si no progresa, una de puente.
func (g *Graph) Step() State {
	if g.Deduce() || g.Bridge() {
		return Working
	}
	if len(g.Unknown()) > 0 {
		return Blocked
	}
	return Stalled
}

// Settle itera Step hasta un punto fijo. Devuelve la cantidad de pasos con progreso.
func (g *Graph) Settle() (int, State) {
	n := 0
	for {
		s := g.Step()
		if s != Working {
			return n, s
		}
		n++
	}
}

// Unresolvable describe los pares pendientes (separando los que apuntan a una moneda
// sin valor) y los resueltos con ratio > 1; nil si no queda nada pendiente.
func (g *Graph) Unresolvable() *domain.UnresolvableConversionError {
	unknown := g.Unknown()
	if len(unknown) == 0 {
		return nil
	}
	e := &domain.UnresolvableConversionError{}
	for _, p := range unknown {
		if g.IsWorthless(p.From, p.To) {
			e.Worthless = append(e.Worthless, p.String())
			continue
		}
		e.Unresolved = append(e.Unresolved, p.String())
	}
	one := decimal.NewFromInt(1)
	for _, p := range g.Known() {
		if g.ratios[p].value.GreaterThan(one) {
			e.Resolved = append(e.Resolved, p.String())
		}
	}
	return e
}

func comparePairs(x, y Pair) int {
	if c := cmp.Compare(x.From, y.From); c != 0 {
		return c
	}
	return cmp.Compare(x.To, y.To)
}
