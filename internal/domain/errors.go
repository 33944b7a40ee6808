package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound               = errors.New("recurso no encontrado")
	ErrInvalidInput           = errors.New("entrada inválida")
	ErrUnauthorized           = errors.New("no autorizado")
	ErrUnknownCurrency        = errors.New("moneda desconocida")
	ErrDuplicateAccount       = errors.New("cuenta duplicada para la moneda")
	ErrMissingAccount         = errors.New("moneda de factura sin cuenta de pago")
	ErrIncompatibleCurrency   = errors.New("alias de moneda incompatible")
	ErrUnresolvableConversion = errors.New("conversión de moneda no resoluble")
	ErrWorthlessCurrency      = errors.New("moneda de pago sin valor")
	ErrInvalidTaxRate         = errors.New("tasa de impuesto inválida")
	ErrInvalidDecimals        = errors.New("decimales inválidos")
)

// DuplicateAccountError dos cuentas para el mismo símbolo de moneda.
type DuplicateAccountError struct {
	Symbol    string
	Existing  string // dirección ya registrada
	Duplicate string // dirección rechazada
}

func (e *DuplicateAccountError) Error() string {
	return fmt.Sprintf("cuentas duplicadas para %s: %s vs. %s", e.Symbol, e.Duplicate, e.Existing)
}

func (e *DuplicateAccountError) Is(target error) bool { return target == ErrDuplicateAccount }

// UnknownCurrencyError nombre, símbolo o dirección que el resolvedor de alias no reconoce.
type UnknownCurrencyError struct {
	Name string
}

func (e *UnknownCurrencyError) Error() string {
	return fmt.Sprintf("moneda desconocida %q", e.Name)
}

func (e *UnknownCurrencyError) Is(target error) bool { return target == ErrUnknownCurrency }

// UnresolvableConversionError pares que quedaron sin ratio tras agotar el oráculo.
// Unresolved, Worthless y Resolved van como "A/B", ordenados. Worthless son pares
// cuyo destino vale cero frente al origen: faltan por falta de valor, no de datos.
type UnresolvableConversionError struct {
	Unresolved []string
	Worthless  []string
	Resolved   []string
	Candidates []string // símbolos consultados sin éxito
}

func (e *UnresolvableConversionError) Error() string {
	var parts []string
	if len(e.Unresolved) > 0 {
		parts = append(parts, fmt.Sprintf("no se encontró ratio para %s vía %s", Commas(e.Unresolved, "y"), Commas(e.Resolved, "y")))
	}
	if len(e.Worthless) > 0 {
		parts = append(parts, fmt.Sprintf("no se puede convertir a moneda sin valor en %s", Commas(e.Worthless, "y")))
	}
	msg := strings.Join(parts, "; ")
	if len(e.Candidates) > 0 {
		msg += fmt.Sprintf(" (candidatos agotados: %s)", Commas(e.Candidates, "y"))
	}
	return msg
}

// Is coincide con ErrUnresolvableConversion y, si hay pares sin valor, con ErrWorthlessCurrency.
func (e *UnresolvableConversionError) Is(target error) bool {
	switch target {
	case ErrUnresolvableConversion:
		return true
	case ErrWorthlessCurrency:
		return len(e.Worthless) > 0
	}
	return false
}

// Commas une items como "a, b y c".
func Commas(items []string, final string) string {
	switch len(items) {
	case 0:
		return ""
	case 1:
		return items[0]
	}
	return strings.Join(items[:len(items)-1], ", ") + " " + final + " " + items[len(items)-1]
}
