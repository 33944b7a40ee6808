package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/cripto-factura/internal/domain/repository"
)

var _ repository.CounterRepository = (*CounterRepo)(nil)

// CounterRepo consecutivos por clave; el incremento es atómico en una sola sentencia.
type CounterRepo struct {
	q Querier
}

// NewCounterRepository construye el adaptador. Pasar pool o tx (Querier).
func NewCounterRepository(q Querier) *CounterRepo {
	return &CounterRepo{q: q}
}

// Next incrementa el contador de key y devuelve el nuevo valor (1 la primera vez).
func (r *CounterRepo) Next(ctx context.Context, key string) (int, error) {
	query := `
		INSERT INTO invoice_counters (key, value) VALUES ($1, 1)
		ON CONFLICT (key) DO UPDATE SET value = invoice_counters.value + 1
		RETURNING value`
	var n int
	if err := r.q.QueryRow(ctx, query, key).Scan(&n); err != nil {
		return 0, fmt.Errorf("next counter %s: %w", key, err)
	}
	return n, nil
}
