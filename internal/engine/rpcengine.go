package engine

import (
	"context"
	"encoding/hex"
	"sync"
	"time"

	"github.com/umbra-cash/umbra-wallet/internal/errs"
	"github.com/umbra-cash/umbra-wallet/internal/log"
)

// eventPollInterval is how often the client polls the engine for queued
// scan-progress events.
const eventPollInterval = time.Second

// RPCEngine reaches a shielded-ledger engine daemon over JSON-RPC 2.0.
type RPCEngine struct {
	rpc    *client
	events chan ScanEvent

	closeOnce sync.Once
	stop      chan struct{}
	done      chan struct{}
}

var _ Engine = (*RPCEngine)(nil)

// Dial connects to the engine daemon at url and verifies it is alive. The
// dataDir is handed to the engine for its own persistent state.
func Dial(ctx context.Context, url, dataDir string) (*RPCEngine, error) {
	e := &RPCEngine{
		rpc:    newClient(url, 30*time.Second),
		events: make(chan ScanEvent, 64),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}

	var res struct {
		Version string `json:"version"`
	}
	if err := e.rpc.Call(ctx, "engine_init", initParam{DataDir: dataDir}, &res); err != nil {
		return nil, errs.Wrap(errs.Engine, err)
	}
	log.Engine.Info().Str("url", url).Str("version", res.Version).Msg("engine connected")

	go e.pollEvents()
	return e, nil
}

type initParam struct {
	DataDir string `json:"data_dir"`
}

type walletCreateParam struct {
	Key      string `json:"key"` // hex-encoded encryption key
	Mnemonic string `json:"mnemonic,omitempty"`
	Index    uint32 `json:"index"`
}

type viewOnlyCreateParam struct {
	Key        string `json:"key"`
	ViewingKey string `json:"viewing_key"`
}

type walletLoadParam struct {
	Key string `json:"key"`
	ID  string `json:"id"`
}

type walletIDParam struct {
	ID string `json:"id"`
}

type balancesParam struct {
	ID              string `json:"id"`
	ChainID         uint64 `json:"chain_id"`
	ProtocolVersion int    `json:"protocol_version"`
}

type historyParam struct {
	ID            string `json:"id"`
	ChainID       uint64 `json:"chain_id"`
	StartingBlock uint64 `json:"starting_block"`
}

type refreshParam struct {
	ChainID   uint64   `json:"chain_id"`
	WalletIDs []string `json:"wallet_ids"`
}

type chainParam struct {
	ChainID uint64 `json:"chain_id"`
}

type providerLoadParam struct {
	ChainID      uint64   `json:"chain_id"`
	Endpoints    []string `json:"endpoints"`
	PollInterval int64    `json:"poll_interval_ms"`
}

// CreateWallet constructs a wallet from a mnemonic at the given index.
func (e *RPCEngine) CreateWallet(ctx context.Context, key []byte, mnemonic string, index uint32) (WalletInfo, error) {
	var info WalletInfo
	err := e.rpc.Call(ctx, "wallet_create", walletCreateParam{
		Key:      hex.EncodeToString(key),
		Mnemonic: mnemonic,
		Index:    index,
	}, &info)
	return info, errs.Wrap(errs.Engine, err)
}

// CreateViewOnlyWallet constructs a read-only wallet from a viewing key.
func (e *RPCEngine) CreateViewOnlyWallet(ctx context.Context, key []byte, viewingKey string) (WalletInfo, error) {
	var info WalletInfo
	err := e.rpc.Call(ctx, "wallet_createViewOnly", viewOnlyCreateParam{
		Key:        hex.EncodeToString(key),
		ViewingKey: viewingKey,
	}, &info)
	return info, errs.Wrap(errs.Engine, err)
}

// LoadWallet decrypts and loads an existing wallet.
func (e *RPCEngine) LoadWallet(ctx context.Context, key []byte, id string) (WalletInfo, error) {
	var info WalletInfo
	err := e.rpc.Call(ctx, "wallet_load", walletLoadParam{
		Key: hex.EncodeToString(key),
		ID:  id,
	}, &info)
	return info, errs.Wrap(errs.Engine, err)
}

// UnloadWallet drops a loaded wallet from engine memory.
func (e *RPCEngine) UnloadWallet(ctx context.Context, id string) error {
	return errs.Wrap(errs.Engine, e.rpc.Call(ctx, "wallet_unload", walletIDParam{ID: id}, nil))
}

// DeleteWallet permanently removes a wallet.
func (e *RPCEngine) DeleteWallet(ctx context.Context, id string) error {
	return errs.Wrap(errs.Engine, e.rpc.Call(ctx, "wallet_delete", walletIDParam{ID: id}, nil))
}

// ExportMnemonic returns the recovery phrase of a loaded wallet.
func (e *RPCEngine) ExportMnemonic(ctx context.Context, id string) (string, error) {
	var res struct {
		Mnemonic string `json:"mnemonic"`
	}
	err := e.rpc.Call(ctx, "wallet_exportMnemonic", walletIDParam{ID: id}, &res)
	return res.Mnemonic, errs.Wrap(errs.Engine, err)
}

// ViewingKey returns the read-only viewing key of a loaded wallet.
func (e *RPCEngine) ViewingKey(ctx context.Context, id string) (string, error) {
	var res struct {
		ViewingKey string `json:"viewing_key"`
	}
	err := e.rpc.Call(ctx, "wallet_viewingKey", walletIDParam{ID: id}, &res)
	return res.ViewingKey, errs.Wrap(errs.Engine, err)
}

// WalletBalances returns the raw shielded balances of a loaded wallet.
func (e *RPCEngine) WalletBalances(ctx context.Context, id string, chainID uint64, protocolVersion int) ([]BalanceEntry, error) {
	var res struct {
		Balances []BalanceEntry `json:"balances"`
	}
	err := e.rpc.Call(ctx, "wallet_balances", balancesParam{
		ID:              id,
		ChainID:         chainID,
		ProtocolVersion: protocolVersion,
	}, &res)
	return res.Balances, errs.Wrap(errs.Engine, err)
}

// TransactionHistory returns the shielded history of a loaded wallet.
func (e *RPCEngine) TransactionHistory(ctx context.Context, id string, chainID uint64, startingBlock uint64) ([]HistoryEntry, error) {
	var res struct {
		History []HistoryEntry `json:"history"`
	}
	err := e.rpc.Call(ctx, "wallet_history", historyParam{
		ID:            id,
		ChainID:       chainID,
		StartingBlock: startingBlock,
	}, &res)
	return res.History, errs.Wrap(errs.Engine, err)
}

// RefreshBalances triggers a balance re-derivation from current scan state.
func (e *RPCEngine) RefreshBalances(ctx context.Context, chainID uint64, walletIDs []string) error {
	return errs.Wrap(errs.Engine, e.rpc.Call(ctx, "scan_refreshBalances", refreshParam{
		ChainID:   chainID,
		WalletIDs: walletIDs,
	}, nil))
}

// FullRescan discards scan state for a chain and rescans from genesis.
func (e *RPCEngine) FullRescan(ctx context.Context, chainID uint64) error {
	return errs.Wrap(errs.Engine, e.rpc.Call(ctx, "scan_fullRescan", chainParam{ChainID: chainID}, nil))
}

// ResetTXIDMerkletrees rebuilds the txid merkle trees for a chain.
func (e *RPCEngine) ResetTXIDMerkletrees(ctx context.Context, chainID uint64) error {
	return errs.Wrap(errs.Engine, e.rpc.Call(ctx, "scan_resetTXIDMerkletrees", chainParam{ChainID: chainID}, nil))
}

// LoadProvider connects the engine to a chain and starts polling.
func (e *RPCEngine) LoadProvider(ctx context.Context, chainID uint64, endpoints []string, pollInterval time.Duration) (FeeData, error) {
	var fees FeeData
	err := e.rpc.Call(ctx, "provider_load", providerLoadParam{
		ChainID:      chainID,
		Endpoints:    endpoints,
		PollInterval: pollInterval.Milliseconds(),
	}, &fees)
	return fees, errs.Wrap(errs.Engine, err)
}

// UnloadProvider disconnects a chain.
func (e *RPCEngine) UnloadProvider(ctx context.Context, chainID uint64) error {
	return errs.Wrap(errs.Engine, e.rpc.Call(ctx, "provider_unload", chainParam{ChainID: chainID}, nil))
}

// PauseProvider suspends background polling for a chain.
func (e *RPCEngine) PauseProvider(ctx context.Context, chainID uint64) error {
	return errs.Wrap(errs.Engine, e.rpc.Call(ctx, "provider_pause", chainParam{ChainID: chainID}, nil))
}

// ResumeProvider resumes background polling for a chain.
func (e *RPCEngine) ResumeProvider(ctx context.Context, chainID uint64) error {
	return errs.Wrap(errs.Engine, e.rpc.Call(ctx, "provider_resume", chainParam{ChainID: chainID}, nil))
}

// ScanEvents delivers merkle-scan progress events.
func (e *RPCEngine) ScanEvents() <-chan ScanEvent {
	return e.events
}

// pollEvents drains the engine's queued scan events into the events
// channel until Close.
func (e *RPCEngine) pollEvents() {
	defer close(e.done)
	ticker := time.NewTicker(eventPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-e.stop:
			close(e.events)
			return
		case <-ticker.C:
		}

		var res struct {
			Events []ScanEvent `json:"events"`
		}
		ctx, cancel := context.WithTimeout(context.Background(), eventPollInterval)
		err := e.rpc.Call(ctx, "scan_pollEvents", nil, &res)
		cancel()
		if err != nil {
			log.Engine.Debug().Err(err).Msg("scan event poll failed")
			continue
		}

		for _, ev := range res.Events {
			select {
			case e.events <- ev:
			case <-e.stop:
				close(e.events)
				return
			}
		}
	}
}

// Close shuts down the engine connection. Safe to call more than once.
func (e *RPCEngine) Close() error {
	var err error
	e.closeOnce.Do(func() {
		close(e.stop)
		<-e.done

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err = errs.Wrap(errs.Engine, e.rpc.Call(ctx, "engine_shutdown", nil, nil))
	})
	return err
}
