package billing

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jhoicas/cripto-factura/internal/domain"
	"github.com/jhoicas/cripto-factura/internal/domain/entity"
)

// DefaultDueDays plazo por defecto entre emisión y vencimiento.
const DefaultDueDays = 30

// AdvanceDate avanza t en años, meses y días. Al cambiar de mes el día se recorta al
// último del mes destino (31-ene + 1 mes = 28/29-feb).
func AdvanceDate(t time.Time, years, months, days int) time.Time {
	if years != 0 || months != 0 {
		y, m, d := t.Date()
		total := int(m) - 1 + months
		y += years + floorDiv(total, 12)
		m = time.Month(total - floorDiv(total, 12)*12 + 1)
		if last := daysIn(y, m); d > last {
			d = last
		}
		hh, mm, ss := t.Clock()
		t = time.Date(y, m, d, hh, mm, ss, t.Nanosecond(), t.Location())
	}
	if days != 0 {
		t = t.AddDate(0, 0, days)
	}
	return t
}

func floorDiv(a, b int) int {
	q := a / b
	if a%b != 0 && a < 0 {
		q--
	}
	return q
}

func daysIn(y int, m time.Month) int {
	return time.Date(y, m+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// NumberPrefix primeras 3 letras en mayúsculas de la primera palabra del cliente, o "INV".
func NumberPrefix(client *entity.Contact) string {
	if client == nil {
		return "INV"
	}
	words := strings.Fields(client.Name)
	if len(words) == 0 {
		return "INV"
	}
	r := []rune(strings.ToUpper(words[0]))
	return string(r[:min(3, len(r))])
}

// MemoryCounter contador en memoria, útil para CLI y tests.
type MemoryCounter struct {
	mu     sync.Mutex
	counts map[string]int
}

// NewMemoryCounter contador vacío.
func NewMemoryCounter() *MemoryCounter {
	return &MemoryCounter{counts: make(map[string]int)}
}

// Next incrementa la clave y devuelve el nuevo valor.
func (c *MemoryCounter) Next(_ context.Context, key string) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counts[key]++
	return c.counts[key], nil
}

// MetadataRequest datos opcionales de cabecera; lo vacío toma valores por defecto.
type MetadataRequest struct {
	Vendor  entity.Contact
	Client  *entity.Contact
	Number  string
	Date    time.Time // por defecto ahora, en UTC
	Due     time.Time // por defecto Date + DueDays
	DueDays int
}

// BuildMetadata completa fechas y número. El número por defecto es CLI-AAAAMMDD-NNNN con
// NNNN tomado de counter para la clave CLI-AAAAMMDD.
func BuildMetadata(ctx context.Context, req MetadataRequest, counter Counter, now func() time.Time) (entity.Metadata, error) {
	if now == nil {
		now = time.Now
	}
	date := req.Date
	if date.IsZero() {
		date = now().UTC()
	}
	due := req.Due
	if due.IsZero() {
		days := req.DueDays
		if days == 0 {
			days = DefaultDueDays
		}
		due = AdvanceDate(date, 0, 0, days)
	}
	if due.Before(date) {
		return entity.Metadata{}, fmt.Errorf("%w: vencimiento %s anterior a la fecha %s",
			domain.ErrInvalidInput, due.Format(time.DateOnly), date.Format(time.DateOnly))
	}

	number := req.Number
	if number == "" {
		if counter == nil {
			return entity.Metadata{}, fmt.Errorf("%w: contador requerido para numerar", domain.ErrInvalidInput)
		}
		key := NumberPrefix(req.Client) + "-" + date.Format("20060102")
		n, err := counter.Next(ctx, key)
		if err != nil {
			return entity.Metadata{}, fmt.Errorf("metadata: consecutivo %s: %w", key, err)
		}
		number = fmt.Sprintf("%s-%04d", key, n)
	}

	md := entity.Metadata{Vendor: req.Vendor, Date: date, Due: due, Number: number}
	if req.Client != nil {
		md.Client = *req.Client
	}
	return md, nil
}
