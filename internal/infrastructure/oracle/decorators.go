package oracle

import (
	"context"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"github.com/jhoicas/cripto-factura/internal/application/billing"
	"github.com/jhoicas/cripto-factura/internal/domain/entity"
)

// Cached memoriza cotizaciones exitosas por símbolo durante ttl. Los errores no se guardan.
type Cached struct {
	next  billing.PriceOracle
	cache *cache.Cache
}

// NewCached envuelve next con una caché en memoria del proceso.
func NewCached(next billing.PriceOracle, ttl time.Duration) *Cached {
	return &Cached{next: next, cache: cache.New(ttl, 2*ttl)}
}

func (c *Cached) Quote(ctx context.Context, symbol entity.Symbol) (billing.Quote, error) {
	key := "quote-" + string(symbol)
	if q, found := c.cache.Get(key); found {
		return q.(billing.Quote), nil
	}
	q, err := c.next.Quote(ctx, symbol)
	if err != nil {
		return billing.Quote{}, err
	}
	c.cache.Set(key, q, cache.DefaultExpiration)
	return q, nil
}

// Flush descarta todas las cotizaciones guardadas.
func (c *Cached) Flush() { c.cache.Flush() }

// Limited limita las consultas a next con un token bucket.
type Limited struct {
	next    billing.PriceOracle
	limiter *rate.Limiter
}

// NewLimited permite perSecond consultas por segundo con ráfagas de burst.
func NewLimited(next billing.PriceOracle, perSecond float64, burst int) *Limited {
	if burst < 1 {
		burst = 1
	}
	return &Limited{next: next, limiter: rate.NewLimiter(rate.Limit(perSecond), burst)}
}

func (l *Limited) Quote(ctx context.Context, symbol entity.Symbol) (billing.Quote, error) {
	if err := l.limiter.Wait(ctx); err != nil {
		return billing.Quote{}, fmt.Errorf("oracle: límite de consultas: %w", err)
	}
	return l.next.Quote(ctx, symbol)
}
