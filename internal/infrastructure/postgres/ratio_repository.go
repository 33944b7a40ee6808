package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/cripto-factura/internal/domain/entity"
	"github.com/jhoicas/cripto-factura/internal/domain/repository"
)

var _ repository.RatioRepository = (*RatioRepo)(nil)

// RatioRepo caché persistente de ratios de conversión (usable con pool o tx).
type RatioRepo struct {
	q Querier
}

// NewRatioRepository construye el adaptador. Pasar pool o tx (Querier).
func NewRatioRepository(q Querier) *RatioRepo {
	return &RatioRepo{q: q}
}

// ListAmong devuelve los ratios con ambos símbolos en symbols, ordenados por par.
func (r *RatioRepo) ListAmong(ctx context.Context, symbols []entity.Symbol) ([]repository.Ratio, error) {
	if len(symbols) == 0 {
		return nil, nil
	}
	names := make([]string, len(symbols))
	for i, s := range symbols {
		names[i] = string(s)
	}
	query := `
		SELECT from_symbol, to_symbol, ratio, source, updated_at
		FROM conversion_ratios
		WHERE from_symbol = ANY($1) AND to_symbol = ANY($1)
		ORDER BY from_symbol, to_symbol`
	rows, err := r.q.Query(ctx, query, names)
	if err != nil {
		return nil, fmt.Errorf("list ratios: %w", err)
	}
	defer rows.Close()
	var list []repository.Ratio
	for rows.Next() {
		var (
			ratio    repository.Ratio
			from, to string
		)
		if err := rows.Scan(&from, &to, &ratio.Value, &ratio.Source, &ratio.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan ratio: %w", err)
		}
		ratio.From, ratio.To = entity.Symbol(from), entity.Symbol(to)
		list = append(list, ratio)
	}
	return list, rows.Err()
}

// Upsert guarda los ratios en un solo batch. Un ratio manual no se reemplaza por uno derivado.
func (r *RatioRepo) Upsert(ctx context.Context, ratios []repository.Ratio) error {
	if len(ratios) == 0 {
		return nil
	}
	query := `
		INSERT INTO conversion_ratios (from_symbol, to_symbol, ratio, source, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (from_symbol, to_symbol) DO UPDATE
		SET ratio = EXCLUDED.ratio, source = EXCLUDED.source, updated_at = EXCLUDED.updated_at
		WHERE conversion_ratios.source <> 'manual' OR EXCLUDED.source = 'manual'`
	batch := &pgx.Batch{}
	for _, ratio := range ratios {
		if ratio.From == ratio.To || ratio.Value.IsNegative() {
			return fmt.Errorf("upsert ratio %s/%s: ratio inválido %s", ratio.From, ratio.To, ratio.Value)
		}
		batch.Queue(query, string(ratio.From), string(ratio.To), ratio.Value, ratio.Source, ratio.UpdatedAt)
	}
	br := r.q.SendBatch(ctx, batch)
	defer br.Close()
	for _, ratio := range ratios {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("upsert ratio %s/%s: %w", ratio.From, ratio.To, err)
		}
	}
	return br.Close()
}
