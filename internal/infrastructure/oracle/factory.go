package oracle

import (
	"github.com/jhoicas/cripto-factura/internal/application/billing"
	"github.com/jhoicas/cripto-factura/internal/domain/entity"
	"github.com/jhoicas/cripto-factura/pkg/config"
	"github.com/jhoicas/cripto-factura/pkg/logger"
)

// FromConfig arma CoinGecko con límite de consultas y caché según cfg.
// Devuelve nil si el oráculo está deshabilitado; RatePerSecond o CacheTTL en 0 omiten su decorador.
func FromConfig(cfg config.OracleConfig, reference entity.Symbol, tokens billing.CurrencyResolver, log *logger.Logger) billing.PriceOracle {
	if !cfg.Enabled {
		return nil
	}
	var o billing.PriceOracle = NewCoinGecko(Config{
		BaseURL:      cfg.BaseURL,
		APIKey:       cfg.APIKey,
		PathTemplate: cfg.PathTemplate,
		Reference:    reference,
		Timeout:      cfg.Timeout,
	}, tokens, log)
	if cfg.RatePerSecond > 0 {
		o = NewLimited(o, cfg.RatePerSecond, cfg.Burst)
	}
	if cfg.CacheTTL > 0 {
		o = NewCached(o, cfg.CacheTTL)
	}
	return o
}
