// Package balance resolves raw engine balance records into display-ready
// token balances and issues rescans.
package balance

import (
	"context"
	"math/big"
	"sort"

	"github.com/umbra-cash/umbra-wallet/config"
	"github.com/umbra-cash/umbra-wallet/internal/engine"
	"github.com/umbra-cash/umbra-wallet/internal/errs"
	"github.com/umbra-cash/umbra-wallet/internal/log"
)

// ProtocolVersion is the shielded-pool protocol version this client reads
// balances for.
const ProtocolVersion = 2

// TokenBalance is one display-ready shielded balance. Balance is in the
// token's smallest unit.
type TokenBalance struct {
	TokenAddress string
	Symbol       string
	Balance      *big.Int
	Decimals     int
}

// Formatted renders the balance as a whole-unit decimal string.
func (b TokenBalance) Formatted() string {
	return FormatBalance(b.Balance, b.Decimals)
}

// Resolver turns engine balance records into TokenBalances.
type Resolver struct {
	eng engine.WalletEngine
}

// NewResolver creates a resolver backed by the given engine.
func NewResolver(eng engine.WalletEngine) *Resolver {
	return &Resolver{eng: eng}
}

// Refresh pulls fresh balance data for a wallet into the engine's local
// scan state. It does not compute balances itself.
func (r *Resolver) Refresh(ctx context.Context, walletID string, network config.Network) error {
	log.Balance.Debug().Str("wallet", walletID).Str("network", network.Name).Msg("refreshing balances")
	return r.eng.RefreshBalances(ctx, network.ChainID, []string{walletID})
}

// Balances returns the non-zero fungible balances of a wallet on a
// network, with token metadata resolved from the static registry, sorted
// by token address. Callers pass ProtocolVersion unless they are reading
// an older pool.
func (r *Resolver) Balances(ctx context.Context, walletID string, network config.Network, protocolVersion int) ([]TokenBalance, error) {
	entries, err := r.eng.WalletBalances(ctx, walletID, network.ChainID, protocolVersion)
	if err != nil {
		return nil, err
	}

	out := make([]TokenBalance, 0, len(entries))
	for _, entry := range entries {
		if entry.TokenType != engine.TokenFungible {
			continue
		}
		amount, ok := new(big.Int).SetString(entry.Balance, 10)
		if !ok {
			return nil, errs.New(errs.Engine, "unparseable balance %q for token %s", entry.Balance, entry.TokenAddress)
		}
		if amount.Sign() == 0 {
			continue
		}

		addr, info := lookupToken(network.Name, entry.TokenAddress)
		out = append(out, TokenBalance{
			TokenAddress: addr,
			Symbol:       info.Symbol,
			Balance:      amount,
			Decimals:     info.Decimals,
		})
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].TokenAddress < out[j].TokenAddress
	})
	return out, nil
}

// History returns the shielded transaction history of a wallet on a
// network from startingBlock onward. Display limits are the caller's
// concern.
func (r *Resolver) History(ctx context.Context, walletID string, network config.Network, startingBlock uint64) ([]engine.HistoryEntry, error) {
	return r.eng.TransactionHistory(ctx, walletID, network.ChainID, startingBlock)
}

// FullRescan discards scan state for a network and rescans from genesis.
// Expensive; only ever run on explicit request.
func (r *Resolver) FullRescan(ctx context.Context, network config.Network) error {
	log.Balance.Info().Str("network", network.Name).Msg("starting full rescan")
	return r.eng.FullRescan(ctx, network.ChainID)
}

// ResetTXIDTrees rebuilds the txid merkle trees for a network. Expensive;
// only ever run on explicit request.
func (r *Resolver) ResetTXIDTrees(ctx context.Context, network config.Network) error {
	log.Balance.Info().Str("network", network.Name).Msg("resetting txid merkletrees")
	return r.eng.ResetTXIDMerkletrees(ctx, network.ChainID)
}
