package render

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Numbers formatea montos con separadores de miles del idioma, sin pasar por float64.
type Numbers struct {
	printer *message.Printer
	point   string
}

// NewNumbers construye el formateador para tag (ej. language.Spanish: 1.234,56).
func NewNumbers(tag language.Tag) *Numbers {
	p := message.NewPrinter(tag)
	point := strings.Trim(p.Sprint(number.Decimal(0.5, number.Scale(1))), "05")
	if point == "" {
		point = "."
	}
	return &Numbers{printer: p, point: point}
}

// Format d con places decimales fijos. Partes enteras fuera de int64 quedan sin agrupar.
func (n *Numbers) Format(d decimal.Decimal, places int) string {
	fixed := d.StringFixed(int32(places))
	sign := ""
	if strings.HasPrefix(fixed, "-") {
		sign, fixed = "-", fixed[1:]
	}
	whole, frac, _ := strings.Cut(fixed, ".")
	v, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return sign + fixed
	}
	out := sign + n.printer.Sprint(number.Decimal(v))
	if frac != "" {
		out += n.point + frac
	}
	return out
}
