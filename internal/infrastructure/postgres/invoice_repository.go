package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/cripto-factura/internal/domain"
	"github.com/jhoicas/cripto-factura/internal/domain/entity"
	"github.com/jhoicas/cripto-factura/internal/domain/repository"
)

var _ repository.InvoiceRepository = (*InvoiceRepo)(nil)

// InvoiceRepo implementación de InvoiceRepository (usable con pool o tx).
type InvoiceRepo struct {
	q Querier
}

// NewInvoiceRepository construye el adaptador. Pasar pool o tx (Querier).
func NewInvoiceRepository(q Querier) *InvoiceRepo {
	return &InvoiceRepo{q: q}
}

// Create persiste la cabecera y un total por moneda. Sin tx, cabecera y totales no son atómicos.
func (r *InvoiceRepo) Create(ctx context.Context, invoice *entity.InvoiceRecord) error {
	if invoice.ID == "" {
		invoice.ID = uuid.New().String()
	}
	query := `
		INSERT INTO invoices (id, number, vendor, client, date, due, lines, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.q.Exec(ctx, query,
		invoice.ID, invoice.Number, invoice.Vendor, nullIfEmpty(invoice.Client),
		invoice.Date, invoice.Due, invoice.Lines, invoice.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: número de factura %s ya existe", domain.ErrInvalidInput, invoice.Number)
		}
		return fmt.Errorf("insert invoice: %w", err)
	}

	if len(invoice.Totals) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, t := range invoice.Totals {
		batch.Queue(`
			INSERT INTO invoice_totals (invoice_id, symbol, address, total, taxes)
			VALUES ($1, $2, $3, $4, $5)`,
			invoice.ID, string(t.Symbol), t.Address, t.Total, t.Taxes,
		)
	}
	br := r.q.SendBatch(ctx, batch)
	defer br.Close()
	for _, t := range invoice.Totals {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("insert invoice total %s: %w", t.Symbol, err)
		}
	}
	return br.Close()
}

// GetByID obtiene una factura con sus totales. domain.ErrNotFound si no existe.
func (r *InvoiceRepo) GetByID(ctx context.Context, id string) (*entity.InvoiceRecord, error) {
	return r.getBy(ctx, "id", id)
}

// GetByNumber obtiene una factura por su número (ej. AWE-20230131-0001).
func (r *InvoiceRepo) GetByNumber(ctx context.Context, number string) (*entity.InvoiceRecord, error) {
	return r.getBy(ctx, "number", number)
}

// getBy column viene de una constante interna, nunca del cliente.
func (r *InvoiceRepo) getBy(ctx context.Context, column, value string) (*entity.InvoiceRecord, error) {
	query := `
		SELECT id, number, vendor, client, date, due, lines, created_at
		FROM invoices WHERE ` + column + ` = $1`
	var (
		inv    entity.InvoiceRecord
		client *string
	)
	err := r.q.QueryRow(ctx, query, value).Scan(
		&inv.ID, &inv.Number, &inv.Vendor, &client,
		&inv.Date, &inv.Due, &inv.Lines, &inv.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: factura %s", domain.ErrNotFound, value)
		}
		return nil, fmt.Errorf("get invoice: %w", err)
	}
	inv.Client = derefStr(client)

	totals, err := r.totals(ctx, inv.ID)
	if err != nil {
		return nil, err
	}
	inv.Totals = totals
	return &inv, nil
}

func (r *InvoiceRepo) totals(ctx context.Context, invoiceID string) ([]entity.InvoiceTotal, error) {
	query := `
		SELECT symbol, address, total, taxes
		FROM invoice_totals WHERE invoice_id = $1 ORDER BY symbol`
	rows, err := r.q.Query(ctx, query, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("list invoice totals: %w", err)
	}
	defer rows.Close()
	var list []entity.InvoiceTotal
	for rows.Next() {
		var (
			t      entity.InvoiceTotal
			symbol string
		)
		if err := rows.Scan(&symbol, &t.Address, &t.Total, &t.Taxes); err != nil {
			return nil, fmt.Errorf("scan invoice total: %w", err)
		}
		t.Symbol = entity.Symbol(symbol)
		list = append(list, t)
	}
	return list, rows.Err()
}
