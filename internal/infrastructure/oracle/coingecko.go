// Package oracle cotiza monedas contra la moneda de referencia usando una API de precios
// estilo CoinGecko, con decoradores de caché y límite de consultas.
package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PaesslerAG/jsonpath"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/cripto-factura/internal/application/billing"
	"github.com/jhoicas/cripto-factura/internal/domain/entity"
	"github.com/jhoicas/cripto-factura/pkg/logger"
)

// Verificar en tiempo de compilación que CoinGecko implementa PriceOracle.
var _ billing.PriceOracle = (*CoinGecko)(nil)

const (
	DefaultBaseURL = "https://api.coingecko.com/api/v3"
	// DefaultPathTemplate expresión JSONPath del precio; recibe el id de precio y la referencia.
	DefaultPathTemplate = `$["%s"]["%s"]`
	apiKeyHeader        = "x-cg-demo-api-key"
)

// Config parámetros del cliente HTTP.
type Config struct {
	BaseURL      string
	APIKey       string
	PathTemplate string
	Reference    entity.Symbol // por defecto ETH
	Timeout      time.Duration
}

// CoinGecko adaptador que implementa PriceOracle con GET {base}/simple/price.
// Cotiza el token proxy de la moneda si existe (BTC se cotiza como WBTC).
type CoinGecko struct {
	baseURL    string
	apiKey     string
	path       string
	reference  entity.Symbol
	tokens     billing.CurrencyResolver
	httpClient *http.Client
	log        *logger.Logger
}

// NewCoinGecko construye el adaptador. tokens provee el id de precio de cada moneda.
func NewCoinGecko(cfg Config, tokens billing.CurrencyResolver, log *logger.Logger) *CoinGecko {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.PathTemplate == "" {
		cfg.PathTemplate = DefaultPathTemplate
	}
	if cfg.Reference == "" {
		cfg.Reference = billing.DefaultReference
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if log == nil {
		log = logger.Nop()
	}
	return &CoinGecko{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		path:       cfg.PathTemplate,
		reference:  cfg.Reference,
		tokens:     tokens,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		log:        log.Component("oracle"),
	}
}

// Quote precio de symbol (o de su proxy) expresado en la moneda de referencia.
func (o *CoinGecko) Quote(ctx context.Context, symbol entity.Symbol) (billing.Quote, error) {
	from := symbol
	info, err := o.tokens.Token(string(symbol))
	if err != nil {
		return billing.Quote{}, fmt.Errorf("oracle: %w", err)
	}
	if p, ok := o.tokens.Proxy(string(symbol)); ok && p.PriceID != "" {
		from, info = p.Symbol, p
	}
	if info.PriceID == "" {
		return billing.Quote{}, fmt.Errorf("oracle: %s sin id de precio", symbol)
	}
	vs := strings.ToLower(string(o.reference))

	q := url.Values{}
	q.Set("ids", info.PriceID)
	q.Set("vs_currencies", vs)
	endpoint := o.baseURL + "/simple/price?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return billing.Quote{}, fmt.Errorf("oracle: crear HTTP request: %w", err)
	}
	req.Header.Set("accept", "application/json")
	if o.apiKey != "" {
		req.Header.Set(apiKeyHeader, o.apiKey)
	}

	resp, err := o.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return billing.Quote{}, fmt.Errorf("oracle: timeout o cancelación: %w", ctx.Err())
		}
		return billing.Quote{}, fmt.Errorf("oracle: llamada HTTP fallida: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err != nil {
		return billing.Quote{}, fmt.Errorf("oracle: leer respuesta: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return billing.Quote{}, fmt.Errorf("oracle: HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	ratio, err := o.extract(raw, info.PriceID, vs)
	if err != nil {
		return billing.Quote{}, err
	}
	o.log.Debug().Str("symbol", string(symbol)).Str("from", string(from)).Str("ratio", ratio.String()).Msg("cotización")
	return billing.Quote{From: from, To: o.reference, Ratio: ratio}, nil
}

func (o *CoinGecko) extract(raw []byte, id, vs string) (decimal.Decimal, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return decimal.Decimal{}, fmt.Errorf("oracle: deserializar respuesta: %w", err)
	}
	path := fmt.Sprintf(o.path, id, vs)
	v, err := jsonpath.Get(path, doc)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("oracle: %s no encontrado en la respuesta: %w", path, err)
	}
	// jsonpath puede devolver una lista de un elemento.
	if list, ok := v.([]any); ok && len(list) > 0 {
		v = list[0]
	}
	var ratio decimal.Decimal
	switch x := v.(type) {
	case json.Number:
		ratio, err = decimal.NewFromString(x.String())
	case float64:
		ratio = decimal.NewFromFloat(x)
	case string:
		ratio, err = decimal.NewFromString(x)
	default:
		err = fmt.Errorf("valor %v de tipo %T", v, v)
	}
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("oracle: precio inválido en %s: %w", path, err)
	}
	if ratio.IsNegative() {
		return decimal.Decimal{}, fmt.Errorf("oracle: precio negativo %s", ratio)
	}
	return ratio, nil
}
