package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Contact datos de identificación del emisor o del cliente.
type Contact struct {
	Name    string // empresa o persona
	Contact string // responsable, ej. "Ana Pérez <ana@empresa.co>"
	Phone   string
	Address string // dirección postal, multilínea
	Billing string // dirección de facturación si difiere
}

// Metadata datos de cabecera requeridos para emitir una factura.
type Metadata struct {
	Vendor Contact
	Client Contact
	Date   time.Time
	Due    time.Time
	Number string // ej. AWE-20230131-0001
}

// InvoiceRecord cabecera persistida de una factura emitida.
type InvoiceRecord struct {
	ID        string
	Number    string
	Vendor    string
	Client    string
	Date      time.Time
	Due       time.Time
	Lines     int
	Totals    []InvoiceTotal
	CreatedAt time.Time
}

// InvoiceTotal total y impuestos de una factura en una de sus monedas de pago.
type InvoiceTotal struct {
	Symbol  Symbol
	Address string
	Total   decimal.Decimal
	Taxes   decimal.Decimal
}
