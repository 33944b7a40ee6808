package main

import (
	"context"
	"flag"
	"fmt"
	"strings"

	"github.com/google/subcommands"

	"github.com/jhoicas/cripto-factura/internal/application/dto"
	"github.com/jhoicas/cripto-factura/internal/domain/conversion"
	"github.com/jhoicas/cripto-factura/internal/infrastructure/render"
)

type tablesCmd struct {
	env
	file        string
	rows        int
	page        int
	columns     string
	conversions bool
}

func (*tablesCmd) Name() string     { return "tables" }
func (*tablesCmd) Synopsis() string { return "muestra las páginas de una factura como tablas" }
func (*tablesCmd) Usage() string {
	return `invoice tables [-f <request.json>] [-rows <n>] [-page <n>] [-columns <a,b>] [-conversions]

  Cotiza la factura descrita en el archivo JSON (o stdin) e imprime cada página
  con sus subtotales y totales por moneda de pago.
`
}

func (c *tablesCmd) SetFlags(f *flag.FlagSet) {
	c.setFlags(f)
	f.StringVar(&c.file, "f", "-", "Archivo JSON con lines, accounts y conversions")
	f.IntVar(&c.rows, "rows", 0, "Líneas por página (0 = INVOICE_ROWS_PER_PAGE)")
	f.IntVar(&c.page, "page", -1, "Solo esta página, contando desde 0")
	f.StringVar(&c.columns, "columns", "", "Columnas separadas por coma (por defecto las visibles)")
	f.BoolVar(&c.conversions, "conversions", false, "Imprimir también la tabla de ratios")
}

func (c *tablesCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if err := c.init(); err != nil {
		fail(err)
		return subcommands.ExitUsageError
	}
	var in dto.QuoteInvoiceRequest
	if err := readJSON(c.file, &in); err != nil {
		fail(err)
		return subcommands.ExitUsageError
	}
	c.apply(f, &in)

	uc, err := c.quoteUseCase()
	if err != nil {
		fail(err)
		return subcommands.ExitFailure
	}
	inv, tables, err := uc.Build(ctx, in)
	if err != nil {
		fail(err)
		return subcommands.ExitFailure
	}
	md, err := render.NewMarkdown(c.tag()).Tables(tables)
	if err != nil {
		fail(err)
		return subcommands.ExitFailure
	}
	if c.conversions {
		md += fmt.Sprintf("\n## Conversiones\n\n%s", render.Conversions(conversion.Table(inv.Graph(), inv.Currencies(), true)))
	}
	c.printMarkdown(md)
	return subcommands.ExitSuccess
}

// apply los flags explícitos pisan el archivo.
func (c *tablesCmd) apply(f *flag.FlagSet, in *dto.QuoteInvoiceRequest) {
	f.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "rows":
			in.RowsPerPage = c.rows
		case "page":
			page := c.page
			in.Page, in.Pages = &page, nil
		case "columns":
			in.Columns = splitList(c.columns)
		}
	})
	if c.lenient {
		strict := false
		in.Strict = &strict
	}
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
