package billing

import (
	"fmt"
	"slices"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/cripto-factura/internal/domain"
	"github.com/jhoicas/cripto-factura/internal/domain/entity"
)

// ColumnSelector elige columnas de fila. Se resuelve una vez a índices al armar las tablas.
// El valor cero equivale a AllExcept("_").
type ColumnSelector struct {
	kind   selectorKind
	prefix string
	names  []string
	match  func(string) bool
}

type selectorKind int

const (
	selectAllExcept selectorKind = iota
	selectExplicit
	selectPredicate
)

// AllExcept todas las columnas salvo las que empiezan con prefix ("_" si va vacío).
func AllExcept(prefix string) ColumnSelector {
	return ColumnSelector{kind: selectAllExcept, prefix: prefix}
}

// Explicit columnas en el orden dado. Compara sin "_" y sin distinguir mayúsculas.
func Explicit(names ...string) ColumnSelector {
	return ColumnSelector{kind: selectExplicit, names: slices.Clone(names)}
}

// Predicate columnas cuyo encabezado crudo (con "_") cumple fn.
func Predicate(fn func(header string) bool) ColumnSelector {
	return ColumnSelector{kind: selectPredicate, match: fn}
}

func canonical(h string) string { return strings.ToLower(strings.Trim(h, "_")) }

// Resolve índices de headers seleccionados.
func (s ColumnSelector) Resolve(headers []string) ([]int, error) {
	var idx []int
	switch s.kind {
	case selectExplicit:
		canon := make([]string, len(headers))
		for i, h := range headers {
			canon[i] = canonical(h)
		}
		var missing []string
		for _, n := range s.names {
			i := slices.Index(canon, canonical(n))
			if i < 0 {
				missing = append(missing, n)
				continue
			}
			idx = append(idx, i)
		}
		if len(missing) > 0 {
			return nil, fmt.Errorf("%w: columnas no encontradas: %s", domain.ErrInvalidInput, domain.Commas(missing, "y"))
		}
	case selectPredicate:
		if s.match == nil {
			return nil, fmt.Errorf("%w: predicado de columnas nulo", domain.ErrInvalidInput)
		}
		for i, h := range headers {
			if s.match(h) {
				idx = append(idx, i)
			}
		}
	default:
		prefix := s.prefix
		if prefix == "" {
			prefix = "_"
		}
		for i, h := range headers {
			if !strings.HasPrefix(h, prefix) {
				idx = append(idx, i)
			}
		}
	}
	if len(idx) == 0 {
		return nil, fmt.Errorf("%w: ninguna columna seleccionada", domain.ErrInvalidInput)
	}
	return idx, nil
}

// SummaryRow subtotal o total de una moneda de pago.
type SummaryRow struct {
	Account  entity.Account
	Symbol   entity.Symbol
	Currency string // nombre de la cuenta o del token
	Decimals int
	Taxes    decimal.Decimal
	Amount   decimal.Decimal
}

// PageTable una página lista para presentar.
type PageTable struct {
	Page      Page
	Count     int  // páginas del flujo completo
	Final     bool // última página del flujo completo
	Headers   []string
	Cells     [][]any
	Decimals  int // máximos decimales de línea entre las páginas entregadas
	Subtotals []SummaryRow
	Totals    []SummaryRow
}

// Label "Subtotal" en la página final, "Subtotal 2/3" en las demás.
func (t PageTable) Label(base string) string {
	if t.Final {
		return base
	}
	return fmt.Sprintf("%s %d/%d", base, t.Page.Index+1, t.Count)
}

// TableOptions paginación y selección de columnas.
type TableOptions struct {
	RowsPerPage int
	Pages       PageFilter
	Columns     ColumnSelector
}

// Tables arma una tabla por página entregada, con subtotales contra la última fila de la
// página anterior del flujo completo y totales acumulados hasta la página.
func (inv *Invoice) Tables(opts TableOptions) ([]PageTable, error) {
	headers := inv.Headers()
	selected, err := opts.Columns.Resolve(headers)
	if err != nil {
		return nil, err
	}
	shown := make([]string, len(selected))
	for i, c := range selected {
		shown[i] = strings.TrimLeft(headers[c], "_")
	}

	pg, err := NewPaginator(opts.RowsPerPage, opts.Pages)
	if err != nil {
		return nil, err
	}
	count := pg.Count(len(inv.lines))

	var tables []PageTable
	decimals := 0
	for page := range pg.Pages(inv.Rows()) {
		t := PageTable{
			Page:    page,
			Count:   count,
			Final:   page.Index == count-1,
			Headers: shown,
		}
		for _, row := range page.Rows {
			decimals = max(decimals, row.Decimals)
			values := row.Values()
			cells := make([]any, len(selected))
			for i, c := range selected {
				cells[i] = values[c]
			}
			t.Cells = append(t.Cells, cells)
		}
		t.Subtotals, t.Totals = inv.summaries(page)
		tables = append(tables, t)
	}
	for i := range tables {
		tables[i].Decimals = decimals
	}
	return tables, nil
}

func (inv *Invoice) summaries(page Page) (sub, tot []SummaryRow) {
	last := page.Last()
	for j, c := range inv.currencies {
		base := SummaryRow{
			Account:  inv.accounts[c],
			Symbol:   c,
			Currency: inv.CurrencyName(c),
			Decimals: inv.CurrencyDecimals(c),
		}
		places := int32(base.Decimals)

		t := base
		t.Taxes = last.TaxTotals[j].Round(places)
		t.Amount = last.Totals[j].Round(places)
		tot = append(tot, t)

		s := base
		taxes, amount := last.TaxTotals[j], last.Totals[j]
		if page.Previous != nil {
			taxes = taxes.Sub(page.Previous.TaxTotals[j])
			amount = amount.Sub(page.Previous.Totals[j])
		}
		s.Taxes = taxes.Round(places)
		s.Amount = amount.Round(places)
		sub = append(sub, s)
	}
	return sub, tot
}

// Totals totales finales por moneda de pago, sobre todas las líneas.
func (inv *Invoice) Totals() []SummaryRow {
	last := Row{
		Totals:    make([]decimal.Decimal, len(inv.currencies)),
		TaxTotals: make([]decimal.Decimal, len(inv.currencies)),
	}
	for r := range inv.Rows() {
		last = r
	}
	_, tot := inv.summaries(Page{Rows: []Row{last}})
	return tot
}
