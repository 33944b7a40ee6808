package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/cripto-factura/internal/domain/entity"
)

// Ratio ratio conocido entre dos monedas con su procedencia.
type Ratio struct {
	From      entity.Symbol
	To        entity.Symbol
	Value     decimal.Decimal
	Source    string // "manual", "oracle", "deduced", "seed"
	UpdatedAt time.Time
}

// RatioRepository define el puerto de persistencia para ratios de conversión.
type RatioRepository interface {
	// ListAmong devuelve los ratios cuyos dos símbolos pertenecen a symbols.
	ListAmong(ctx context.Context, symbols []entity.Symbol) ([]Ratio, error)
	// Upsert inserta o reemplaza los ratios por par (from, to).
	Upsert(ctx context.Context, ratios []Ratio) error
}
