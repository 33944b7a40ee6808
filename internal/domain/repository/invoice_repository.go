package repository

import (
	"context"

	"github.com/jhoicas/cripto-factura/internal/domain/entity"
)

// InvoiceRepository define el puerto de persistencia para facturas emitidas y sus totales.
type InvoiceRepository interface {
	// Create guarda la cabecera y un total por moneda de pago. Asigna ID si viene vacío.
	Create(ctx context.Context, invoice *entity.InvoiceRecord) error
	GetByID(ctx context.Context, id string) (*entity.InvoiceRecord, error)
	GetByNumber(ctx context.Context, number string) (*entity.InvoiceRecord, error)
}
