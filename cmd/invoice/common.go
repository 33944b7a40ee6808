package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/glamour"
	"golang.org/x/text/language"

	"github.com/jhoicas/cripto-factura/internal/application/billing"
	"github.com/jhoicas/cripto-factura/internal/domain/entity"
	"github.com/jhoicas/cripto-factura/internal/infrastructure/oracle"
	"github.com/jhoicas/cripto-factura/internal/infrastructure/tokens"
	"github.com/jhoicas/cripto-factura/pkg/config"
	"github.com/jhoicas/cripto-factura/pkg/logger"
)

// env flags y dependencias comunes a todos los subcomandos.
type env struct {
	offline bool
	lenient bool
	lang    string
	raw     bool

	cfg *config.Config
	log *logger.Logger
}

func (e *env) setFlags(f *flag.FlagSet) {
	f.BoolVar(&e.offline, "offline", false, "No consultar el oráculo de precios")
	f.BoolVar(&e.lenient, "lenient", false, "Informar conversiones sin resolver en vez de fallar")
	f.StringVar(&e.lang, "lang", "es", "Idioma para separadores de miles y decimales")
	f.BoolVar(&e.raw, "raw", false, "Imprimir markdown sin formato de terminal")
}

func (e *env) init() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	e.cfg = cfg
	e.log = logger.New(logger.Config{Env: "development", Level: cfg.App.LogLevel, Out: os.Stderr})
	return nil
}

func (e *env) tag() language.Tag {
	tag, err := language.Parse(e.lang)
	if err != nil {
		return language.Spanish
	}
	return tag
}

// quoteUseCase caso de uso sin persistencia; el oráculo respeta -offline.
func (e *env) quoteUseCase() (*billing.QuoteInvoiceUseCase, error) {
	registry, err := tokens.Load(e.cfg.Invoice.TokensFile)
	if err != nil {
		return nil, err
	}
	reference := entity.NormalizeSymbol(e.cfg.Invoice.ReferenceCurrency)
	var priceOracle billing.PriceOracle
	if !e.offline {
		priceOracle = oracle.FromConfig(e.cfg.Oracle, reference, registry, e.log)
	}
	return billing.NewQuoteInvoiceUseCase(registry, priceOracle, nil, billing.Settings{
		DefaultCurrency: e.cfg.Invoice.DefaultCurrency,
		Reference:       reference,
		RowsPerPage:     e.cfg.Invoice.RowsPerPage,
		Strict:          e.strictMode(),
		DueDays:         e.cfg.Invoice.DueDays,
	}, e.log), nil
}

// strictMode INVOICE_STRICT salvo -lenient.
func (e *env) strictMode() bool {
	return e.cfg.Invoice.Strict && !e.lenient
}

// printMarkdown imprime md en stdout, con estilo de terminal salvo -raw.
func (e *env) printMarkdown(md string) {
	if e.raw {
		fmt.Print(md)
		return
	}
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(140))
	if err != nil {
		fmt.Print(md)
		return
	}
	out, err := r.Render(md)
	if err != nil {
		fmt.Print(md)
		return
	}
	fmt.Print(out)
}

// readJSON decodifica el archivo path; "-" o vacío lee stdin.
func readJSON(path string, v any) error {
	var r io.Reader = os.Stdin
	if path != "" && path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		r = f
	}
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("leer %s: %w", displayPath(path), err)
	}
	return nil
}

func displayPath(path string) string {
	if path == "" || path == "-" {
		return "stdin"
	}
	return path
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
}
