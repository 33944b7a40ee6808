package billing

import (
	"fmt"
	"iter"

	"github.com/jhoicas/cripto-factura/internal/domain"
)

// DefaultRowsPerPage filas por página cuando no se indica otra cantidad.
const DefaultRowsPerPage = 10

// PageFilter selecciona qué páginas (base cero) se entregan. El valor cero entrega todas.
type PageFilter struct {
	kind  pageFilterKind
	index int
	set   map[int]bool
	match func(int) bool
}

type pageFilterKind int

const (
	pagesAll pageFilterKind = iota
	pagesOne
	pagesSet
	pagesPredicate
)

// AllPages todas las páginas.
func AllPages() PageFilter { return PageFilter{} }

// OnlyPage una sola página.
func OnlyPage(i int) PageFilter { return PageFilter{kind: pagesOne, index: i} }

// PageSet las páginas indicadas.
func PageSet(indices ...int) PageFilter {
	set := make(map[int]bool, len(indices))
	for _, i := range indices {
		set[i] = true
	}
	return PageFilter{kind: pagesSet, set: set}
}

// PagePredicate las páginas para las que fn devuelve true.
func PagePredicate(fn func(int) bool) PageFilter {
	return PageFilter{kind: pagesPredicate, match: fn}
}

// Match indica si la página i se entrega.
func (f PageFilter) Match(i int) bool {
	switch f.kind {
	case pagesOne:
		return i == f.index
	case pagesSet:
		return f.set[i]
	case pagesPredicate:
		return f.match != nil && f.match(i)
	}
	return true
}

// Page lote de filas. Previous es la última fila de la página anterior del flujo
// completo, aunque esa página no se haya entregado; nil en la primera.
type Page struct {
	Index    int
	Rows     []Row
	Previous *Row
}

// Last última fila de la página.
func (p Page) Last() Row { return p.Rows[len(p.Rows)-1] }

// Paginator agrupa filas en lotes de tamaño fijo.
type Paginator struct {
	rows   int
	filter PageFilter
}

// NewPaginator valida rowsPerPage; 0 usa DefaultRowsPerPage.
func NewPaginator(rowsPerPage int, filter PageFilter) (*Paginator, error) {
	if rowsPerPage == 0 {
		rowsPerPage = DefaultRowsPerPage
	}
	if rowsPerPage < 0 {
		return nil, fmt.Errorf("%w: filas por página %d", domain.ErrInvalidInput, rowsPerPage)
	}
	return &Paginator{rows: rowsPerPage, filter: filter}, nil
}

// RowsPerPage tamaño de página efectivo.
func (p *Paginator) RowsPerPage() int { return p.rows }

// Count cantidad de páginas para n filas.
func (p *Paginator) Count(n int) int { return (n + p.rows - 1) / p.rows }

// Pages recorre rows completo y entrega las páginas que pasan el filtro, incluida
// una última página incompleta.
func (p *Paginator) Pages(rows iter.Seq[Row]) iter.Seq[Page] {
	return func(yield func(Page) bool) {
		var prev *Row
		index := 0
		batch := make([]Row, 0, p.rows)
		emit := func() bool {
			page := Page{Index: index, Rows: batch, Previous: prev}
			last := batch[len(batch)-1]
			prev = &last
			index++
			batch = make([]Row, 0, p.rows)
			if p.filter.Match(page.Index) {
				return yield(page)
			}
			return true
		}
		for row := range rows {
			batch = append(batch, row)
			if len(batch) >= p.rows && !emit() {
				return
			}
		}
		if len(batch) > 0 {
			emit()
		}
	}
}

// Pages páginas de las filas de la factura.
func (inv *Invoice) Pages(rowsPerPage int, filter PageFilter) (iter.Seq[Page], error) {
	pg, err := NewPaginator(rowsPerPage, filter)
	if err != nil {
		return nil, err
	}
	return pg.Pages(inv.Rows()), nil
}
