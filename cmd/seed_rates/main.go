// seed_rates genera un script SQL para precargar conversion_ratios a partir de un CSV
// con columnas from,to,ratio[,source]. La primera fila puede ser encabezado.
//
// Uso: go run ./cmd/seed_rates [-latin1] [-o salida.sql] [ruta/rates.csv]
// Por defecto lee rates.csv del directorio actual.
// Escribe: internal/infrastructure/postgres/migrations/002_seed_rates.up.sql
package main

import (
	"encoding/csv"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/jhoicas/cripto-factura/internal/domain/entity"
)

const defaultSource = "seed"

type seedRate struct {
	from, to entity.Symbol
	ratio    decimal.Decimal
	source   string
}

func main() {
	latin1 := flag.Bool("latin1", false, "El CSV viene en ISO-8859-1 (exportación de hoja de cálculo)")
	outFlag := flag.String("o", "", "Archivo SQL de salida")
	flag.Parse()

	csvPath := "rates.csv"
	if flag.NArg() > 0 {
		csvPath = flag.Arg(0)
	}
	f, err := os.Open(csvPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Abrir CSV: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()

	var in io.Reader = f
	if *latin1 {
		in = transform.NewReader(f, charmap.ISO8859_1.NewDecoder())
	}
	rates, err := readRates(in)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Leer CSV: %v\n", err)
		os.Exit(1)
	}

	// Ruta del script de salida (relativa al módulo)
	outPath := *outFlag
	if outPath == "" {
		outPath = filepath.Join(findModuleRoot(), "internal", "infrastructure", "postgres", "migrations", "002_seed_rates.up.sql")
	}
	out, err := os.Create(outPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Crear archivo: %v\n", err)
		os.Exit(1)
	}
	defer out.Close()

	if err := writeSQL(out, filepath.Base(csvPath), rates); err != nil {
		fmt.Fprintf(os.Stderr, "Escribir SQL: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Generado %s: %d ratios\n", outPath, len(rates))
}

// readRates valida cada fila; un par repetido conserva la última.
func readRates(r io.Reader) ([]seedRate, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.Comment = '#'

	byPair := make(map[[2]entity.Symbol]seedRate)
	for line := 1; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if len(rec) < 3 {
			return nil, fmt.Errorf("fila %d: se esperan al menos 3 columnas, hay %d", line, len(rec))
		}
		ratio, err := decimal.NewFromString(strings.TrimSpace(rec[2]))
		if err != nil {
			if line == 1 {
				continue // encabezado
			}
			return nil, fmt.Errorf("fila %d: ratio %q inválido", line, rec[2])
		}
		sr := seedRate{
			from:   entity.NormalizeSymbol(rec[0]),
			to:     entity.NormalizeSymbol(rec[1]),
			ratio:  ratio,
			source: defaultSource,
		}
		if len(rec) > 3 && strings.TrimSpace(rec[3]) != "" {
			sr.source = strings.TrimSpace(rec[3])
		}
		switch {
		case sr.from == "" || sr.to == "":
			return nil, fmt.Errorf("fila %d: símbolo vacío", line)
		case sr.from == sr.to:
			return nil, fmt.Errorf("fila %d: par %s/%s", line, sr.from, sr.to)
		case sr.ratio.IsNegative():
			return nil, fmt.Errorf("fila %d: ratio negativo %s", line, sr.ratio)
		}
		byPair[[2]entity.Symbol{sr.from, sr.to}] = sr
	}

	out := make([]seedRate, 0, len(byPair))
	for _, sr := range byPair {
		out = append(out, sr)
	}
	// Ordenar por par para salida estable
	slices.SortFunc(out, func(a, b seedRate) int {
		if c := strings.Compare(string(a.from), string(b.from)); c != 0 {
			return c
		}
		return strings.Compare(string(a.to), string(b.to))
	})
	return out, nil
}

// writeSQL un único INSERT; nunca pisa ratios cargados a mano.
func writeSQL(w io.Writer, origin string, rates []seedRate) error {
	if len(rates) == 0 {
		return fmt.Errorf("sin ratios")
	}
	var b strings.Builder
	b.WriteString("-- Ratios de conversión iniciales: 1 from_symbol vale ratio to_symbol.\n")
	fmt.Fprintf(&b, "-- Generado desde %s (cmd/seed_rates)\n\n", origin)
	b.WriteString("INSERT INTO conversion_ratios (from_symbol, to_symbol, ratio, source) VALUES\n")
	for i, r := range rates {
		sep := ","
		if i == len(rates)-1 {
			sep = ""
		}
		fmt.Fprintf(&b, "  ('%s', '%s', %s, '%s')%s\n",
			escapeSQL(string(r.from)), escapeSQL(string(r.to)), r.ratio.String(), escapeSQL(r.source), sep)
	}
	b.WriteString("ON CONFLICT (from_symbol, to_symbol) DO UPDATE\n")
	b.WriteString("  SET ratio = EXCLUDED.ratio, source = EXCLUDED.source, updated_at = NOW()\n")
	b.WriteString("  WHERE conversion_ratios.source <> 'manual';\n")
	_, err := io.WriteString(w, b.String())
	return err
}

func escapeSQL(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}

func findModuleRoot() string {
	dir, _ := os.Getwd()
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return dir
		}
		dir = parent
	}
}
