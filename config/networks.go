package config

import (
	"sort"
	"time"
)

// Network describes one supported chain: identity, transport endpoints, and
// the defaults the engine needs to run a provider against it.
type Network struct {
	// Name is the canonical short name used on the command line.
	Name string

	// ChainID is the EVM chain id.
	ChainID uint64

	// RPCEndpoints are fallback-ordered JSON-RPC endpoints handed to the
	// engine's provider loader.
	RPCEndpoints []string

	// ExplorerURL is the base URL of the public block explorer.
	ExplorerURL string

	// PollInterval is how often the engine's provider polls for new blocks.
	PollInterval time.Duration

	// Abbrev is the short label shown in the shell prompt.
	Abbrev string
}

// networks is the supported-network registry. Connecting to anything not
// listed here is rejected before the engine is ever called.
var networks = map[string]Network{
	"ethereum": {
		Name:    "ethereum",
		ChainID: 1,
		RPCEndpoints: []string{
			"https://rpc.ankr.com/eth",
			"https://eth.llamarpc.com",
			"https://cloudflare-eth.com",
		},
		ExplorerURL:  "https://etherscan.io",
		PollInterval: 15 * time.Second,
		Abbrev:       "eth",
	},
	"sepolia": {
		Name:    "sepolia",
		ChainID: 11155111,
		RPCEndpoints: []string{
			"https://rpc.sepolia.org",
			"https://rpc.ankr.com/eth_sepolia",
		},
		ExplorerURL:  "https://sepolia.etherscan.io",
		PollInterval: 15 * time.Second,
		Abbrev:       "sep",
	},
	"polygon": {
		Name:    "polygon",
		ChainID: 137,
		RPCEndpoints: []string{
			"https://polygon-rpc.com",
			"https://rpc.ankr.com/polygon",
		},
		ExplorerURL:  "https://polygonscan.com",
		PollInterval: 5 * time.Second,
		Abbrev:       "pol",
	},
	"bnb": {
		Name:    "bnb",
		ChainID: 56,
		RPCEndpoints: []string{
			"https://bsc-dataseed.binance.org",
			"https://rpc.ankr.com/bsc",
		},
		ExplorerURL:  "https://bscscan.com",
		PollInterval: 5 * time.Second,
		Abbrev:       "bnb",
	},
	"arbitrum": {
		Name:    "arbitrum",
		ChainID: 42161,
		RPCEndpoints: []string{
			"https://arb1.arbitrum.io/rpc",
			"https://rpc.ankr.com/arbitrum",
		},
		ExplorerURL:  "https://arbiscan.io",
		PollInterval: 2 * time.Second,
		Abbrev:       "arb",
	},
}

// LookupNetwork returns the registry entry for name.
func LookupNetwork(name string) (Network, bool) {
	n, ok := networks[name]
	return n, ok
}

// NetworkNames returns the supported network names, sorted.
func NetworkNames() []string {
	names := make([]string, 0, len(networks))
	for name := range networks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NetworkByChainID returns the registry entry with the given chain id.
func NetworkByChainID(chainID uint64) (Network, bool) {
	for _, n := range networks {
		if n.ChainID == chainID {
			return n, true
		}
	}
	return Network{}, false
}
