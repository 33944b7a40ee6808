package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// TokenEntry un token ERC-20 declarado en el archivo de tokens.
type TokenEntry struct {
	Symbol   string   `mapstructure:"symbol"`
	Name     string   `mapstructure:"name"`
	Decimals int      `mapstructure:"decimals"`
	Address  string   `mapstructure:"address"`
	PriceID  string   `mapstructure:"price_id"`
	Aliases  []string `mapstructure:"aliases"`
}

// CryptoEntry una criptomoneda principal declarada en el archivo de tokens.
type CryptoEntry struct {
	Symbol  string `mapstructure:"symbol"`
	Name    string `mapstructure:"name"`
	PriceID string `mapstructure:"price_id"`
}

// TokenFile contenido del archivo de tokens. Las claves de proxies llegan en minúsculas.
type TokenFile struct {
	Cryptos []CryptoEntry     `mapstructure:"cryptos"`
	Tokens  []TokenEntry      `mapstructure:"tokens"`
	Proxies map[string]string `mapstructure:"proxies"`
}

// LoadTokens lee un archivo YAML o JSON (según su extensión) con monedas adicionales.
func LoadTokens(path string) (*TokenFile, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config: leer tokens %s: %w", path, err)
	}
	var f TokenFile
	if err := v.Unmarshal(&f); err != nil {
		return nil, fmt.Errorf("config: tokens %s: %w", path, err)
	}
	for i, t := range f.Tokens {
		if t.Symbol == "" {
			return nil, fmt.Errorf("config: token %d sin símbolo en %s", i, path)
		}
		if t.Decimals < 0 {
			return nil, fmt.Errorf("config: token %s con decimales negativos", t.Symbol)
		}
	}
	for i, c := range f.Cryptos {
		if c.Symbol == "" {
			return nil, fmt.Errorf("config: moneda %d sin símbolo en %s", i, path)
		}
	}
	return &f, nil
}
