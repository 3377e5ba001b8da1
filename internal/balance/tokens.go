package balance

import "strings"

// TokenInfo is display metadata for a known token.
type TokenInfo struct {
	Symbol   string
	Decimals int
}

// DefaultDecimals is assumed for tokens missing from the registry.
const DefaultDecimals = 18

// tokenRegistry maps network name to token address (lower-cased) to
// metadata. Shielded balances are keyed by ERC-20 contract address; the
// engine has no notion of symbols or decimals, so display metadata lives
// here.
var tokenRegistry = map[string]map[string]TokenInfo{
	"ethereum": {
		"0xc02aaa39b223fe8d0a0e5c4f27ead9083c756cc2": {Symbol: "WETH", Decimals: 18},
		"0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48": {Symbol: "USDC", Decimals: 6},
		"0xdac17f958d2ee523a2206206994597c13d831ec7": {Symbol: "USDT", Decimals: 6},
		"0x6b175474e89094c44da98b954eedeac495271d0f": {Symbol: "DAI", Decimals: 18},
		"0x2260fac5e5542a773aa44fbcfedf7c193bc2c599": {Symbol: "WBTC", Decimals: 8},
	},
	"sepolia": {
		"0xfff9976782d46cc05630d1f6ebab18b2324d6b14": {Symbol: "WETH", Decimals: 18},
	},
	"polygon": {
		"0x0d500b1d8e8ef31e21c99d1db9a6444d3adf1270": {Symbol: "WMATIC", Decimals: 18},
		"0x2791bca1f2de4661ed88a30c99a7a9449aa84174": {Symbol: "USDC", Decimals: 6},
		"0x8f3cf7ad23cd3cadbd9735aff958023239c6a063": {Symbol: "DAI", Decimals: 18},
	},
	"bnb": {
		"0xbb4cdb9cbd36b01bd1cbaebf2de08d9173bc095c": {Symbol: "WBNB", Decimals: 18},
		"0xe9e7cea3dedca5984780bafc599bd69add087d56": {Symbol: "BUSD", Decimals: 18},
	},
	"arbitrum": {
		"0x82af49447d8a07e3bd95bd0d56f35241523fbab1": {Symbol: "WETH", Decimals: 18},
		"0xaf88d065e77c8cc2239327c5edb3a432268e5831": {Symbol: "USDC", Decimals: 6},
	},
}

// lookupToken returns metadata for a token on a network. The address is
// normalized to lower case before lookup. Unknown tokens get the default
// decimals and no symbol.
func lookupToken(network, address string) (string, TokenInfo) {
	addr := strings.ToLower(address)
	if tokens, ok := tokenRegistry[network]; ok {
		if info, ok := tokens[addr]; ok {
			return addr, info
		}
	}
	return addr, TokenInfo{Decimals: DefaultDecimals}
}
