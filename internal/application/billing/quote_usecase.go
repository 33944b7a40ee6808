package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jhoicas/cripto-factura/internal/application/dto"
	"github.com/jhoicas/cripto-factura/internal/domain"
	"github.com/jhoicas/cripto-factura/internal/domain/conversion"
	"github.com/jhoicas/cripto-factura/internal/domain/entity"
	"github.com/jhoicas/cripto-factura/internal/domain/repository"
	"github.com/jhoicas/cripto-factura/pkg/logger"
)

// Procedencia de los ratios persistidos.
const (
	SourceManual   = "manual"
	SourceResolved = "resolved"
)

// Settings valores por defecto de facturación.
type Settings struct {
	DefaultCurrency string
	Reference       entity.Symbol
	RowsPerPage     int
	Strict          bool
	DueDays         int
}

// QuoteInvoiceUseCase cotiza facturas y resuelve conversiones sin emitir documento.
type QuoteInvoiceUseCase struct {
	currencies CurrencyResolver
	oracle     PriceOracle
	ratioRepo  repository.RatioRepository
	settings   Settings
	log        *logger.Logger
}

// NewQuoteInvoiceUseCase construye el caso de uso. oracle y ratioRepo pueden ser nil.
func NewQuoteInvoiceUseCase(
	currencies CurrencyResolver,
	oracle PriceOracle,
	ratioRepo repository.RatioRepository,
	settings Settings,
	log *logger.Logger,
) *QuoteInvoiceUseCase {
	if log == nil {
		log = logger.Nop()
	}
	return &QuoteInvoiceUseCase{
		currencies: currencies,
		oracle:     oracle,
		ratioRepo:  ratioRepo,
		settings:   settings,
		log:        log,
	}
}

// Quote construye la factura, guarda los ratios resueltos y devuelve las páginas.
func (uc *QuoteInvoiceUseCase) Quote(ctx context.Context, in dto.QuoteInvoiceRequest) (*dto.QuoteInvoiceResponse, error) {
	inv, tables, err := uc.Build(ctx, in)
	if err != nil {
		return nil, err
	}
	if uc.ratioRepo != nil {
		manual, _ := uc.graphFrom(in.Conversions)
		if err := uc.ratioRepo.Upsert(ctx, RatioSnapshot(inv.Graph(), manual.Known(), time.Now())); err != nil {
			// La cotización sigue siendo válida aunque no se guarde el caché de ratios.
			uc.log.Warn().Err(err).Msg("quote: no se guardaron los ratios")
		}
	}
	return QuoteResponse(inv, tables), nil
}

// Build arma la factura y sus tablas a partir del request.
func (uc *QuoteInvoiceUseCase) Build(ctx context.Context, in dto.QuoteInvoiceRequest) (*Invoice, []PageTable, error) {
	if len(in.Lines) == 0 {
		return nil, nil, fmt.Errorf("%w: la factura requiere al menos una línea", domain.ErrInvalidInput)
	}
	if in.Page != nil && len(in.Pages) > 0 {
		return nil, nil, fmt.Errorf("%w: page y pages son excluyentes", domain.ErrInvalidInput)
	}
	lines := make([]entity.LineItem, 0, len(in.Lines))
	for _, l := range in.Lines {
		lines = append(lines, ToLineItem(l))
	}
	accounts := make([]entity.Account, 0, len(in.Accounts))
	for _, a := range in.Accounts {
		accounts = append(accounts, ToAccount(a))
	}

	g, err := uc.seed(ctx, in)
	if err != nil {
		return nil, nil, err
	}

	strict := uc.settings.Strict
	if in.Strict != nil {
		strict = *in.Strict
	}
	inv, err := NewInvoice(ctx, lines, uc.currencies, InvoiceOptions{
		Currencies:      in.Currencies,
		Accounts:        accounts,
		Ratios:          g,
		DefaultCurrency: uc.settings.DefaultCurrency,
		Resolver: NewResolver(ResolverOptions{
			Strict:    strict,
			Reference: uc.settings.Reference,
			Oracle:    uc.oracle,
			Log:       uc.log,
		}),
		Log: uc.log,
	})
	if err != nil {
		return nil, nil, err
	}

	filter := AllPages()
	switch {
	case in.Page != nil:
		filter = OnlyPage(*in.Page)
	case len(in.Pages) > 0:
		filter = PageSet(in.Pages...)
	}
	columns := AllExcept("_")
	if len(in.Columns) > 0 {
		columns = Explicit(in.Columns...)
	}
	rows := in.RowsPerPage
	if rows == 0 {
		rows = uc.settings.RowsPerPage
	}
	tables, err := inv.Tables(TableOptions{RowsPerPage: rows, Pages: filter, Columns: columns})
	if err != nil {
		return nil, nil, err
	}
	return inv, tables, nil
}

// seed ratios del request y, sin pisarlos, los guardados para las monedas involucradas.
func (uc *QuoteInvoiceUseCase) seed(ctx context.Context, in dto.QuoteInvoiceRequest) (*conversion.Graph, error) {
	g, err := uc.graphFrom(in.Conversions)
	if err != nil {
		return nil, err
	}
	if uc.ratioRepo == nil {
		return g, nil
	}
	stored, err := uc.ratioRepo.ListAmong(ctx, uc.symbolsOf(in))
	if err != nil {
		return nil, fmt.Errorf("quote: ratios guardados: %w", err)
	}
	for _, r := range stored {
		if g.Has(r.From, r.To) {
			continue
		}
		if err := g.Set(r.From, r.To, r.Value); err != nil {
			uc.log.Warn().Err(err).Str("pair", r.From.String()+"/"+r.To.String()).Msg("ratio guardado inválido")
		}
	}
	return g, nil
}

func (uc *QuoteInvoiceUseCase) graphFrom(conversions []dto.RatioRequest) (*conversion.Graph, error) {
	g := conversion.New()
	for _, c := range conversions {
		from, err := uc.currencies.Symbol(c.From)
		if err != nil {
			return nil, err
		}
		to, err := uc.currencies.Symbol(c.To)
		if err != nil {
			return nil, err
		}
		if err := g.Set(from, to, c.Ratio); err != nil {
			return nil, err
		}
	}
	return g, nil
}

// symbolsOf símbolos que la factura puede necesitar, incluidos proxies y la referencia.
func (uc *QuoteInvoiceUseCase) symbolsOf(in dto.QuoteInvoiceRequest) []entity.Symbol {
	def := uc.settings.DefaultCurrency
	if def == "" {
		def = DefaultCurrency
	}
	names := append([]string{def}, in.Currencies...)
	for _, l := range in.Lines {
		names = append(names, l.Currency)
	}
	for _, a := range in.Accounts {
		names = append(names, a.Symbol)
	}
	ref := uc.settings.Reference
	if ref == "" {
		ref = DefaultReference
	}
	seen := map[entity.Symbol]bool{ref: true}
	out := []entity.Symbol{ref}
	add := func(s entity.Symbol) {
		if s != "" && !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	for _, n := range names {
		if n == "" {
			continue
		}
		if s, err := uc.currencies.Symbol(n); err == nil {
			add(s)
		}
		if p, ok := uc.currencies.Proxy(n); ok {
			add(p.Symbol)
		}
	}
	return out
}

// Resolve completa el grafo pedido. En modo no estricto un bloqueo se informa en Diagnostic.
func (uc *QuoteInvoiceUseCase) Resolve(ctx context.Context, in dto.ResolveRequest) (*dto.ResolveResponse, error) {
	if len(in.Want) == 0 {
		return nil, fmt.Errorf("%w: want vacío", domain.ErrInvalidInput)
	}
	g, err := uc.graphFrom(in.Conversions)
	if err != nil {
		return nil, err
	}
	for _, w := range in.Want {
		from, err := uc.currencies.Symbol(w.From)
		if err != nil {
			return nil, err
		}
		to, err := uc.currencies.Symbol(w.To)
		if err != nil {
			return nil, err
		}
		g.Want(from, to)
	}
	resolver := NewResolver(ResolverOptions{
		Strict:    in.Strict,
		Reference: uc.settings.Reference,
		Oracle:    uc.oracle,
		Log:       uc.log,
	})
	out, err := resolver.Resolve(ctx, g)
	if err != nil {
		return nil, err
	}

	resp := &dto.ResolveResponse{
		State:      out.State.String(),
		Iterations: out.Iterations,
		Diagnostic: out.Diagnostic,
		Table:      conversion.Table(g, nil, false).String(),
	}
	for _, q := range out.Queries {
		resp.Queries = append(resp.Queries, string(q))
	}
	for _, p := range g.Known() {
		r, _ := g.Ratio(p.From, p.To)
		resp.Ratios = append(resp.Ratios, dto.RatioResponse{From: string(p.From), To: string(p.To), Ratio: r})
	}
	for _, p := range g.Unknown() {
		if g.IsWorthless(p.From, p.To) {
			resp.Worthless = append(resp.Worthless, p.String())
			continue
		}
		resp.Unresolved = append(resp.Unresolved, p.String())
	}
	return resp, nil
}

// ToLineItem convierte el DTO de línea.
func ToLineItem(l dto.LineItemRequest) entity.LineItem {
	item := entity.NewLineItem(l.Description, l.Price, l.Currency)
	if l.Units != nil {
		item.Units = *l.Units
	}
	if l.Tax != nil {
		item = item.WithTax(*l.Tax)
	}
	if l.Decimals != nil {
		item = item.WithDecimals(*l.Decimals)
	}
	return item
}

// ToAccount convierte el DTO de cuenta.
func ToAccount(a dto.AccountRequest) entity.Account {
	return entity.Account{
		Symbol:  entity.NormalizeSymbol(a.Symbol),
		Address: a.Address,
		Name:    a.Name,
		Crypto:  a.Crypto,
		Path:    a.Path,
	}
}

// RatioSnapshot ratios conocidos del grafo; los pares en manual quedan como manuales.
func RatioSnapshot(g *conversion.Graph, manual []conversion.Pair, now time.Time) []repository.Ratio {
	given := make(map[conversion.Pair]bool, len(manual))
	for _, p := range manual {
		given[p] = true
	}
	var out []repository.Ratio
	for _, p := range g.Known() {
		r, _ := g.Ratio(p.From, p.To)
		src := SourceResolved
		if given[p] {
			src = SourceManual
		}
		out = append(out, repository.Ratio{From: p.From, To: p.To, Value: r, Source: src, UpdatedAt: now})
	}
	return out
}

// QuoteResponse convierte las tablas a DTO con celdas ya formateadas.
func QuoteResponse(inv *Invoice, tables []PageTable) *dto.QuoteInvoiceResponse {
	resp := &dto.QuoteInvoiceResponse{
		Currencies: symbolStrings(inv.Currencies()),
		Iterations: inv.Outcome().Iterations,
	}
	for _, q := range inv.Outcome().Queries {
		resp.Queries = append(resp.Queries, string(q))
	}
	for _, t := range tables {
		resp.Headers = t.Headers
		resp.Decimals = t.Decimals
		page := dto.PageResponseDTO{
			Index:     t.Page.Index,
			Final:     t.Final,
			Label:     t.Label("Total"),
			Subtotals: summaryDTOs(t.Subtotals),
			Totals:    summaryDTOs(t.Totals),
		}
		for _, cells := range t.Cells {
			row := make([]string, len(cells))
			for i, c := range cells {
				row[i] = FormatCell(c, t.Decimals)
			}
			page.Rows = append(page.Rows, row)
		}
		resp.Pages = append(resp.Pages, page)
	}
	return resp
}

func summaryDTOs(rows []SummaryRow) []dto.SummaryResponse {
	out := make([]dto.SummaryResponse, len(rows))
	for i, r := range rows {
		out[i] = dto.SummaryResponse{
			Account:  r.Account.Address,
			Symbol:   string(r.Symbol),
			Currency: r.Currency,
			Taxes:    r.Taxes,
			Amount:   r.Amount,
		}
	}
	return out
}

// IsClientError indica errores que se deben a la entrada y no al sistema.
func IsClientError(err error) bool {
	for _, target := range []error{
		domain.ErrInvalidInput,
		domain.ErrUnknownCurrency,
		domain.ErrDuplicateAccount,
		domain.ErrMissingAccount,
		domain.ErrIncompatibleCurrency,
		domain.ErrInvalidTaxRate,
		domain.ErrInvalidDecimals,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
