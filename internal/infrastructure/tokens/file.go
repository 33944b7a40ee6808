package tokens

import (
	"github.com/jhoicas/cripto-factura/internal/domain/entity"
	"github.com/jhoicas/cripto-factura/pkg/config"
)

// Extend registra las monedas de un archivo de tokens sobre las existentes.
// Un símbolo repetido reemplaza al anterior.
func (r *Registry) Extend(f *config.TokenFile) {
	if f == nil {
		return
	}
	for _, c := range f.Cryptos {
		r.RegisterCrypto(entity.Symbol(c.Symbol), c.Name, c.PriceID)
	}
	for _, t := range f.Tokens {
		r.RegisterToken(entity.TokenInfo{
			Symbol:   entity.Symbol(t.Symbol),
			Name:     t.Name,
			Decimals: t.Decimals,
			Address:  t.Address,
			PriceID:  t.PriceID,
		}, t.Aliases...)
	}
	for core, token := range f.Proxies {
		r.RegisterProxy(entity.Symbol(core), entity.Symbol(token))
	}
}

// Load registro por defecto extendido con el archivo en path; path vacío no lee nada.
func Load(path string) (*Registry, error) {
	r := NewDefault()
	if path == "" {
		return r, nil
	}
	f, err := config.LoadTokens(path)
	if err != nil {
		return nil, err
	}
	r.Extend(f)
	return r, nil
}
