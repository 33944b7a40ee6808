package tokens

import "github.com/jhoicas/cripto-factura/internal/domain/entity"

var defaultCryptos = []struct {
	symbol  entity.Symbol
	name    string
	priceID string
}{
	{"BTC", "Bitcoin", "bitcoin"},
	{"ETH", "Ethereum", "ethereum"},
	{"XRP", "Ripple", "ripple"},
	{"DOGE", "Dogecoin", "dogecoin"},
	{"LTC", "Litecoin", "litecoin"},
	{"BCH", "Bitcoin Cash", "bitcoin-cash"},
}

// Tokens ERC-20 de mainnet más los de prueba sin valor (WEENUS, ZEENUS).
var defaultTokens = []struct {
	info    entity.TokenInfo
	aliases []string
}{
	{entity.TokenInfo{Symbol: "USDC", Name: "USD Coin", Decimals: 6, Address: "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48", PriceID: "usd-coin"}, []string{"USD", "US Dollar"}},
	{entity.TokenInfo{Symbol: "USDT", Name: "Tether USD", Decimals: 6, Address: "0xdAC17F958D2ee523a2206206994597C13D831ec7", PriceID: "tether"}, nil},
	{entity.TokenInfo{Symbol: "DAI", Name: "Dai Stablecoin", Decimals: 18, Address: "0x6B175474E89094C44Da98b954EedeAC495271d0F", PriceID: "dai"}, nil},
	{entity.TokenInfo{Symbol: "WBTC", Name: "Wrapped BTC", Decimals: 8, Address: "0x2260FAC5E5542a773Aa44fBCfeDf7C193bc2C599", PriceID: "wrapped-bitcoin"}, nil},
	{entity.TokenInfo{Symbol: "WETH", Name: "Wrapped Ether", Decimals: 18, Address: "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2", PriceID: "weth"}, nil},
	{entity.TokenInfo{Symbol: "HOT", Name: "HoloToken", Decimals: 18, Address: "0x6c6EE5e31d828De241282B9606C8e98Ea48526E2", PriceID: "holotoken"}, []string{"Holo"}},
	{entity.TokenInfo{Symbol: "WEENUS", Name: "Weenus", Decimals: 18, Address: "0xaFF4481D10270F50f203E0763e2597776068CBc5"}, nil},
	{entity.TokenInfo{Symbol: "ZEENUS", Name: "Zeenus", Decimals: 0, Address: "0x1f9061B953bBa0E36BF50F21876132DcF276fC6e"}, nil},
}

var defaultProxies = map[entity.Symbol]entity.Symbol{
	"BTC": "WBTC",
	"ETH": "WETH",
}
