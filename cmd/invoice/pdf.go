package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/google/subcommands"

	"github.com/jhoicas/cripto-factura/internal/application/billing"
	"github.com/jhoicas/cripto-factura/internal/application/dto"
	infrapdf "github.com/jhoicas/cripto-factura/internal/infrastructure/pdf"
	"github.com/jhoicas/cripto-factura/internal/infrastructure/render"
)

type pdfCmd struct {
	env
	file   string
	out    string
	format string
}

func (*pdfCmd) Name() string     { return "pdf" }
func (*pdfCmd) Synopsis() string { return "emite una factura en PDF o markdown" }
func (*pdfCmd) Usage() string {
	return `invoice pdf [-f <request.json>] [-o <archivo>] [-format pdf|md]

  Emite la factura descrita en el archivo JSON (lines, accounts, vendor, client...).
  Sin -o escribe factura_<número>.pdf en el directorio actual. El consecutivo se
  lleva en memoria: cada ejecución empieza en 0001 salvo que se indique "number".
`
}

func (c *pdfCmd) SetFlags(f *flag.FlagSet) {
	c.setFlags(f)
	f.StringVar(&c.file, "f", "-", "Archivo JSON de la factura")
	f.StringVar(&c.out, "o", "", "Archivo de salida (\"-\" para stdout)")
	f.StringVar(&c.format, "format", "pdf", "Formato de salida: pdf o md")
}

func (c *pdfCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if err := c.init(); err != nil {
		fail(err)
		return subcommands.ExitUsageError
	}
	var in dto.PDFInvoiceRequest
	if err := readJSON(c.file, &in); err != nil {
		fail(err)
		return subcommands.ExitUsageError
	}
	if in.Vendor.Name == "" {
		fail(fmt.Errorf("vendor.name requerido"))
		return subcommands.ExitUsageError
	}
	if c.lenient {
		strict := false
		in.Strict = &strict
	}

	var generator billing.InvoicePDFGenerator
	switch strings.ToLower(c.format) {
	case "pdf":
		generator = infrapdf.NewMarotoPDFGenerator(c.tag())
	case "md", "markdown":
		generator = markdownGenerator{md: render.NewMarkdown(c.tag())}
	default:
		fail(fmt.Errorf("formato desconocido %q", c.format))
		return subcommands.ExitUsageError
	}

	quote, err := c.quoteUseCase()
	if err != nil {
		fail(err)
		return subcommands.ExitFailure
	}
	uc := billing.NewPDFUseCase(quote, billing.NewMemoryCounter(), generator, nil, c.log)
	data, md, err := uc.Produce(ctx, in)
	if err != nil {
		fail(err)
		return subcommands.ExitFailure
	}

	out := c.out
	if out == "" {
		out = billing.Filename(md)
		if _, ok := generator.(markdownGenerator); ok {
			out = strings.TrimSuffix(out, ".pdf") + ".md"
		}
	}
	if out == "-" {
		_, err = os.Stdout.Write(data)
	} else {
		err = os.WriteFile(out, data, 0o644)
	}
	if err != nil {
		fail(err)
		return subcommands.ExitFailure
	}
	if out != "-" {
		c.log.Info().Str("number", md.Number).Str("file", out).Msg("factura emitida")
	}
	return subcommands.ExitSuccess
}

// markdownGenerator emite el documento como markdown en vez de PDF.
type markdownGenerator struct {
	md *render.Markdown
}

func (g markdownGenerator) GenerateInvoicePDF(_ context.Context, doc *billing.Document) ([]byte, error) {
	s, err := g.md.Document(doc)
	if err != nil {
		return nil, err
	}
	return []byte(s), nil
}
