package repository

import "context"

// CounterRepository contador persistente por clave (ej. "PER-20230131").
type CounterRepository interface {
	// Next incrementa y devuelve el siguiente valor (el primero es 1).
	Next(ctx context.Context, key string) (int, error)
}
