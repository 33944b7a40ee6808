package main

import (
	"context"
	"flag"
	"fmt"
	"slices"
	"strings"

	"github.com/google/subcommands"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/cripto-factura/internal/application/dto"
	"github.com/jhoicas/cripto-factura/internal/domain/conversion"
	"github.com/jhoicas/cripto-factura/internal/domain/entity"
	"github.com/jhoicas/cripto-factura/internal/infrastructure/render"
)

type ratesCmd struct {
	env
	file    string
	want    string
	set     string
	greater bool
}

func (*ratesCmd) Name() string     { return "rates" }
func (*ratesCmd) Synopsis() string { return "resuelve ratios de conversión entre monedas" }
func (*ratesCmd) Usage() string {
	return `invoice rates [-f <request.json>] [-want BTC/USD,ETH/USD] [-set ETH/USD=1500] [-greater]

  Completa los pares pedidos a partir de los ratios conocidos, consultando el
  oráculo por las monedas que falten, e imprime la tabla de conversiones.
`
}

func (c *ratesCmd) SetFlags(f *flag.FlagSet) {
	c.setFlags(f)
	f.StringVar(&c.file, "f", "", "Archivo JSON con conversions y want")
	f.StringVar(&c.want, "want", "", "Pares deseados FROM/TO separados por coma")
	f.StringVar(&c.set, "set", "", "Ratios conocidos FROM/TO=RATIO separados por coma")
	f.BoolVar(&c.greater, "greater", false, "Mostrar solo ratios mayores que 1")
}

func (c *ratesCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if err := c.init(); err != nil {
		fail(err)
		return subcommands.ExitUsageError
	}
	var in dto.ResolveRequest
	if c.file != "" {
		if err := readJSON(c.file, &in); err != nil {
			fail(err)
			return subcommands.ExitUsageError
		}
	}
	if err := c.parse(&in); err != nil {
		fail(err)
		return subcommands.ExitUsageError
	}
	in.Strict = c.strictMode()

	uc, err := c.quoteUseCase()
	if err != nil {
		fail(err)
		return subcommands.ExitFailure
	}
	out, err := uc.Resolve(ctx, in)
	if err != nil {
		fail(err)
		return subcommands.ExitFailure
	}
	if len(out.Queries) > 0 {
		c.log.Info().Strs("queries", out.Queries).Int("iterations", out.Iterations).Msg("oráculo consultado")
	}

	g, err := graphOf(out)
	if err != nil {
		fail(err)
		return subcommands.ExitFailure
	}
	md := render.Conversions(conversion.Table(g, nil, c.greater))
	if out.Diagnostic != "" {
		md += "\n> " + out.Diagnostic + "\n"
	}
	c.printMarkdown(md)
	return subcommands.ExitSuccess
}

// parse agrega los pares de -want y -set a los del archivo.
func (c *ratesCmd) parse(in *dto.ResolveRequest) error {
	for _, p := range splitList(c.want) {
		from, to, err := splitPair(p)
		if err != nil {
			return err
		}
		in.Want = append(in.Want, dto.PairRequest{From: from, To: to})
	}
	for _, s := range splitList(c.set) {
		pair, value, ok := strings.Cut(s, "=")
		if !ok {
			return fmt.Errorf("ratio %q: se espera FROM/TO=RATIO", s)
		}
		from, to, err := splitPair(pair)
		if err != nil {
			return err
		}
		ratio, err := decimal.NewFromString(strings.TrimSpace(value))
		if err != nil {
			return fmt.Errorf("ratio %q: %w", s, err)
		}
		in.Conversions = append(in.Conversions, dto.RatioRequest{From: from, To: to, Ratio: ratio})
	}
	if len(in.Want) == 0 {
		return fmt.Errorf("indique al menos un par con -want o en el archivo")
	}
	return nil
}

func splitPair(s string) (string, string, error) {
	from, to, ok := strings.Cut(s, "/")
	from, to = strings.TrimSpace(from), strings.TrimSpace(to)
	if !ok || from == "" || to == "" {
		return "", "", fmt.Errorf("par %q: se espera FROM/TO", s)
	}
	return from, to, nil
}

// graphOf reconstruye el grafo resuelto para tabularlo.
func graphOf(out *dto.ResolveResponse) (*conversion.Graph, error) {
	g := conversion.New()
	for _, r := range out.Ratios {
		if err := g.Set(entity.Symbol(r.From), entity.Symbol(r.To), r.Ratio); err != nil {
			return nil, err
		}
	}
	for _, p := range slices.Concat(out.Unresolved, out.Worthless) {
		from, to, err := splitPair(p)
		if err != nil {
			return nil, err
		}
		g.Want(entity.Symbol(from), entity.Symbol(to))
	}
	return g, nil
}
