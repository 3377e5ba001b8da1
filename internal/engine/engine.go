// Package engine defines the narrow interfaces through which the client
// reaches the external shielded-ledger engine, and a JSON-RPC
// implementation of them. The engine owns all wallet cryptography, merkle
// scanning, and proof generation; nothing in this repository reimplements
// those.
package engine

import (
	"context"
	"time"
)

// WalletEngine is the wallet capability set of the engine. Encryption keys
// are derived client-side and handed to the engine; the engine never sees
// the password.
type WalletEngine interface {
	// CreateWallet constructs a wallet from a mnemonic at the given
	// derivation index, encrypted under key.
	CreateWallet(ctx context.Context, key []byte, mnemonic string, index uint32) (WalletInfo, error)

	// CreateViewOnlyWallet constructs a read-only wallet from a viewing
	// key.
	CreateViewOnlyWallet(ctx context.Context, key []byte, viewingKey string) (WalletInfo, error)

	// LoadWallet decrypts and loads an existing wallet. A wrong key
	// surfaces as an error from this call.
	LoadWallet(ctx context.Context, key []byte, id string) (WalletInfo, error)

	// UnloadWallet drops a loaded wallet from engine memory.
	UnloadWallet(ctx context.Context, id string) error

	// DeleteWallet permanently removes a wallet. The wallet must be
	// loaded.
	DeleteWallet(ctx context.Context, id string) error

	// ExportMnemonic returns the recovery phrase of a loaded wallet.
	ExportMnemonic(ctx context.Context, id string) (string, error)

	// ViewingKey returns the read-only viewing key of a loaded wallet.
	ViewingKey(ctx context.Context, id string) (string, error)

	// WalletBalances returns the raw shielded balances of a loaded wallet
	// on one chain.
	WalletBalances(ctx context.Context, id string, chainID uint64, protocolVersion int) ([]BalanceEntry, error)

	// TransactionHistory returns the shielded history of a loaded wallet
	// on one chain, starting at the given block.
	TransactionHistory(ctx context.Context, id string, chainID uint64, startingBlock uint64) ([]HistoryEntry, error)

	// RefreshBalances triggers a balance re-derivation from current scan
	// state for the given wallets.
	RefreshBalances(ctx context.Context, chainID uint64, walletIDs []string) error

	// FullRescan discards scan state for a chain and rescans from
	// genesis.
	FullRescan(ctx context.Context, chainID uint64) error

	// ResetTXIDMerkletrees rebuilds the transaction-id merkle trees for a
	// chain.
	ResetTXIDMerkletrees(ctx context.Context, chainID uint64) error
}

// ChainProvider is the network-provider capability set of the engine.
type ChainProvider interface {
	// LoadProvider connects the engine to a chain through the given RPC
	// endpoints and starts background polling. Returns the chain's
	// current fee snapshot.
	LoadProvider(ctx context.Context, chainID uint64, endpoints []string, pollInterval time.Duration) (FeeData, error)

	// UnloadProvider disconnects a chain and stops its polling.
	UnloadProvider(ctx context.Context, chainID uint64) error

	// PauseProvider suspends background polling for a chain.
	PauseProvider(ctx context.Context, chainID uint64) error

	// ResumeProvider resumes background polling for a chain.
	ResumeProvider(ctx context.Context, chainID uint64) error
}

// Engine is the full client-side view of the shielded-ledger engine.
type Engine interface {
	WalletEngine
	ChainProvider

	// ScanEvents delivers merkle-scan progress events. The channel is
	// closed when the engine is closed.
	ScanEvents() <-chan ScanEvent

	// Close releases the connection and stops event delivery. Safe to
	// call more than once.
	Close() error
}
