package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"golang.org/x/text/language"

	"github.com/jhoicas/cripto-factura/internal/application/billing"
	"github.com/jhoicas/cripto-factura/internal/domain/entity"
	"github.com/jhoicas/cripto-factura/internal/infrastructure/oracle"
	infrapdf "github.com/jhoicas/cripto-factura/internal/infrastructure/pdf"
	"github.com/jhoicas/cripto-factura/internal/infrastructure/postgres"
	"github.com/jhoicas/cripto-factura/internal/infrastructure/tokens"
	httpRouter "github.com/jhoicas/cripto-factura/internal/interfaces/http"
	"github.com/jhoicas/cripto-factura/pkg/config"
	"github.com/jhoicas/cripto-factura/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("iniciando aplicación")

	registry, err := tokens.Load(cfg.Invoice.TokensFile)
	if err != nil {
		log.Fatal().Err(err).Msg("cargar tokens")
	}

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()
	if err := postgres.Migrate(ctx, pool, log); err != nil {
		log.Fatal().Err(err).Msg("migraciones")
	}

	ratioRepo := postgres.NewRatioRepository(pool)
	invoiceRepo := postgres.NewInvoiceRepository(pool)
	counterRepo := postgres.NewCounterRepository(pool)
	txRunner := postgres.NewTxRunner(pool)

	// Oráculo: CoinGecko limitado por tasa y con caché por símbolo.
	reference := entity.NormalizeSymbol(cfg.Invoice.ReferenceCurrency)
	priceOracle := oracle.FromConfig(cfg.Oracle, reference, registry, log)
	if priceOracle == nil {
		log.Warn().Msg("oráculo de precios deshabilitado: solo ratios manuales y guardados")
	}

	quoteUC := billing.NewQuoteInvoiceUseCase(registry, priceOracle, ratioRepo, billing.Settings{
		DefaultCurrency: cfg.Invoice.DefaultCurrency,
		Reference:       reference,
		RowsPerPage:     cfg.Invoice.RowsPerPage,
		Strict:          cfg.Invoice.Strict,
		DueDays:         cfg.Invoice.DueDays,
	}, log)

	// PDF: representación gráfica de la factura
	pdfGenerator := infrapdf.NewMarotoPDFGenerator(language.Spanish)
	pdfUC := billing.NewPDFUseCase(quoteUC, counterRepo, pdfGenerator, txRunner, log)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 30,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	httpRouter.Router(app, httpRouter.RouterDeps{
		AppName:   cfg.App.Name,
		Quote:     quoteUC,
		PDF:       pdfUC,
		Invoices:  invoiceRepo,
		JWTSecret: cfg.JWT.Secret,
		Log:       log,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
