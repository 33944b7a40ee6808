package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/cripto-factura/pkg/jwt"
	"github.com/jhoicas/cripto-factura/pkg/logger"
)

// RouterDeps dependencias para el router. PDF e Invoices son opcionales.
type RouterDeps struct {
	AppName   string
	Quote     invoiceQuoter
	PDF       invoiceProducer
	Invoices  invoiceFinder
	JWTSecret string
	Log       *logger.Logger
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": deps.AppName})
	})

	// Rutas protegidas (requieren Bearer Token)
	api := app.Group("/api", AuthMiddleware(deps.JWTSecret))
	h := NewInvoiceHandler(deps.Quote, deps.PDF, deps.Invoices, deps.Log)
	anyRole := RequireRole(jwt.RoleIssuer, jwt.RoleViewer)

	// Cotización y conversiones (cualquier rol)
	api.Post("/invoices/quote", anyRole, h.Quote)
	api.Post("/conversions/resolve", anyRole, h.Resolve)

	// Emisión (solo emisor)
	if deps.PDF != nil {
		api.Post("/invoices/pdf", RequireRole(jwt.RoleIssuer), h.PDF)
	}
	if deps.Invoices != nil {
		api.Get("/invoices/:number", anyRole, h.GetByNumber)
	}
}
