package billing

import (
	"context"
	"fmt"

	"github.com/jhoicas/cripto-factura/internal/domain"
	"github.com/jhoicas/cripto-factura/internal/domain/conversion"
	"github.com/jhoicas/cripto-factura/internal/domain/entity"
	"github.com/jhoicas/cripto-factura/pkg/logger"
)

// DefaultReference moneda contra la que cotiza el oráculo; nunca se consulta como candidato.
const DefaultReference entity.Symbol = "ETH"

// ResolverOptions configuración del ciclo de resolución.
type ResolverOptions struct {
	Strict    bool          // Blocked sin candidatos devuelve error en vez de diagnóstico
	Reference entity.Symbol // por defecto ETH
	Oracle    PriceOracle   // opcional; sin oráculo un bloqueo es definitivo
	Log       *logger.Logger
}

// Outcome resultado de una resolución.
type Outcome struct {
	State      conversion.State
	Iterations int             // pasos con progreso, sumando todos los tramos
	Queries    []entity.Symbol // candidatos que el oráculo resolvió, en orden
	Diagnostic string          // "no se encontró ratio ..." si terminó bloqueado en modo no estricto
}

// Resolver completa un grafo de ratios y escala al oráculo cuando se bloquea.
type Resolver struct {
	strict    bool
	reference entity.Symbol
	oracle    PriceOracle
	log       *logger.Logger
}

// NewResolver construye el resolvedor.
func NewResolver(opts ResolverOptions) *Resolver {
	if opts.Reference == "" {
		opts.Reference = DefaultReference
	}
	if opts.Log == nil {
		opts.Log = logger.Nop()
	}
	return &Resolver{
		strict:    opts.Strict,
		reference: opts.Reference,
		oracle:    opts.Oracle,
		log:       opts.Log.Component("resolver"),
	}
}

// Resolve itera el grafo hasta Stalled. En cada bloqueo pide un único ratio nuevo al
// oráculo; cada candidato se consulta como máximo una vez por resolución.
func (r *Resolver) Resolve(ctx context.Context, g *conversion.Graph) (Outcome, error) {
	var out Outcome
	tried := make(map[entity.Symbol]bool)
	var exhausted []string

	for {
		n, state := g.Settle()
		out.Iterations += n
		out.State = state
		if ev := r.log.Debug(); ev.Enabled() {
			ev.Str("state", state.String()).
				Int("iterations", out.Iterations).
				Msgf("ratios:\n%s", conversion.Table(g, nil, false))
		}
		if state == conversion.Stalled {
			r.log.Info().Int("iterations", out.Iterations).Int("queries", len(out.Queries)).Msg("conversiones resueltas")
			return out, nil
		}
		if err := ctx.Err(); err != nil {
			return out, err
		}

		added := false
		for _, c := range r.candidates(g) {
			if tried[c] {
				continue
			}
			tried[c] = true
			if r.oracle == nil {
				exhausted = append(exhausted, string(c))
				continue
			}
			q, err := r.oracle.Quote(ctx, c)
			if err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return out, ctxErr
				}
				r.log.Warn().Err(err).Str("candidate", string(c)).Msg("ignorando candidato")
				exhausted = append(exhausted, string(c))
				continue
			}
			ok, err := insertQuote(g, c, q)
			if err != nil {
				return out, fmt.Errorf("resolver: cotización de %s: %w", c, err)
			}
			if !ok {
				exhausted = append(exhausted, string(c))
				continue
			}
			r.log.Info().
				Str("candidate", string(c)).
				Str("pair", q.From.String()+"/"+q.To.String()).
				Str("ratio", q.Ratio.String()).
				Msg("ratio obtenido del oráculo")
			out.Queries = append(out.Queries, c)
			added = true
			break
		}
		if added {
			continue
		}

		uerr := g.Unresolvable()
		uerr.Candidates = exhausted
		out.Diagnostic = uerr.Error()
		if r.strict {
			return out, uerr
		}
		r.log.Warn().Msg(out.Diagnostic)
		return out, nil
	}
}

// candidates símbolos de pares pendientes en orden de aparición, sin repetir y sin la referencia.
// Los pares hacia una moneda sin valor no generan candidatos.
func (r *Resolver) candidates(g *conversion.Graph) []entity.Symbol {
	seen := make(map[entity.Symbol]bool)
	var out []entity.Symbol
	for _, p := range g.Pairs() {
		if _, ok := g.Ratio(p.From, p.To); ok || g.IsWorthless(p.From, p.To) {
			continue
		}
		for _, s := range []entity.Symbol{p.From, p.To} {
			if s == r.reference || seen[s] {
				continue
			}
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

// insertQuote fija c/To y From/To si alguno seguía sin ratio. Devuelve si agregó algo.
func insertQuote(g *conversion.Graph, c entity.Symbol, q Quote) (bool, error) {
	if q.To == "" || q.To == c {
		return false, fmt.Errorf("%w: destino %q inválido", domain.ErrInvalidInput, q.To)
	}
	_, knownC := g.Ratio(c, q.To)
	_, knownProxy := g.Ratio(q.From, q.To)
	if knownC && (knownProxy || q.From == c || q.From == "") {
		return false, nil
	}
	if !knownC {
		if err := g.Set(c, q.To, q.Ratio); err != nil {
			return false, err
		}
	}
	if q.From != "" && q.From != c && q.From != q.To && !knownProxy {
		if err := g.Set(q.From, q.To, q.Ratio); err != nil {
			return false, err
		}
	}
	return true, nil
}
