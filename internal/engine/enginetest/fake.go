// Package enginetest provides an in-memory engine double so the session
// layer can be exercised without a real proving/scanning backend.
package enginetest

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/umbra-cash/umbra-wallet/internal/engine"
	"github.com/umbra-cash/umbra-wallet/internal/errs"
)

// Wallet is one wallet held by the fake engine.
type Wallet struct {
	Info     engine.WalletInfo
	Mnemonic string
	Viewing  string
	Index    uint32
	ViewOnly bool
	Key      []byte
	Loaded   bool
}

// Provider is one connected provider in the fake engine.
type Provider struct {
	Endpoints []string
	Paused    bool
}

// Fake implements engine.Engine in memory.
type Fake struct {
	mu sync.Mutex

	nextID    int
	Wallets   map[string]*Wallet
	Providers map[uint64]*Provider

	// Fees is returned by LoadProvider.
	Fees engine.FeeData

	// Balances and History are returned verbatim for any wallet.
	Balances []engine.BalanceEntry
	History  []engine.HistoryEntry

	// LastProtocolVersion records what the most recent WalletBalances
	// call asked for.
	LastProtocolVersion int

	// failures maps method name to the 1-based per-method call ordinal
	// that should fail, set via FailNext/FailCall.
	failures map[string]map[int]error
	counts   map[string]int

	// Calls records method names in invocation order.
	Calls []string

	events chan engine.ScanEvent
	closed bool
}

var _ engine.Engine = (*Fake)(nil)

// New creates an empty fake engine.
func New() *Fake {
	return &Fake{
		Wallets:   make(map[string]*Wallet),
		Providers: make(map[uint64]*Provider),
		failures:  make(map[string]map[int]error),
		counts:    make(map[string]int),
		events:    make(chan engine.ScanEvent, 16),
	}
}

// FailNext makes the next call to method return err.
func (f *Fake) FailNext(method string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failCallLocked(method, f.counts[method]+1, err)
}

// FailCall makes the ordinal-th call to method (1-based, counted per
// method over the fake's lifetime) return err.
func (f *Fake) FailCall(method string, ordinal int, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failCallLocked(method, ordinal, err)
}

func (f *Fake) failCallLocked(method string, ordinal int, err error) {
	if f.failures[method] == nil {
		f.failures[method] = make(map[int]error)
	}
	f.failures[method][ordinal] = err
}

// PushEvent queues a scan event for delivery.
func (f *Fake) PushEvent(ev engine.ScanEvent) {
	f.events <- ev
}

// CallsTo counts calls to a method.
func (f *Fake) CallsTo(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.Calls {
		if c == method {
			n++
		}
	}
	return n
}

func (f *Fake) enter(method string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = append(f.Calls, method)
	f.counts[method]++
	if err, ok := f.failures[method][f.counts[method]]; ok {
		delete(f.failures[method], f.counts[method])
		return err
	}
	return nil
}

func (f *Fake) newWallet(key []byte) *Wallet {
	f.nextID++
	w := &Wallet{
		Info: engine.WalletInfo{
			ID:      fmt.Sprintf("wallet-%04d", f.nextID),
			Address: fmt.Sprintf("0zk%040d", f.nextID),
		},
		Key:    append([]byte(nil), key...),
		Loaded: true,
	}
	f.Wallets[w.Info.ID] = w
	return w
}

func (f *Fake) CreateWallet(_ context.Context, key []byte, mnemonic string, index uint32) (engine.WalletInfo, error) {
	if err := f.enter("CreateWallet"); err != nil {
		return engine.WalletInfo{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	w := f.newWallet(key)
	w.Mnemonic = mnemonic
	w.Index = index
	w.Viewing = "vk-" + w.Info.ID
	return w.Info, nil
}

func (f *Fake) CreateViewOnlyWallet(_ context.Context, key []byte, viewingKey string) (engine.WalletInfo, error) {
	if err := f.enter("CreateViewOnlyWallet"); err != nil {
		return engine.WalletInfo{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	w := f.newWallet(key)
	w.ViewOnly = true
	w.Viewing = viewingKey
	return w.Info, nil
}

func (f *Fake) LoadWallet(_ context.Context, key []byte, id string) (engine.WalletInfo, error) {
	if err := f.enter("LoadWallet"); err != nil {
		return engine.WalletInfo{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	w, ok := f.Wallets[id]
	if !ok {
		return engine.WalletInfo{}, errs.New(errs.Engine, "unknown wallet %q", id)
	}
	if !bytes.Equal(w.Key, key) {
		return engine.WalletInfo{}, errs.New(errs.Engine, "decryption failed")
	}
	w.Loaded = true
	return w.Info, nil
}

func (f *Fake) UnloadWallet(_ context.Context, id string) error {
	if err := f.enter("UnloadWallet"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if w, ok := f.Wallets[id]; ok {
		w.Loaded = false
	}
	return nil
}

func (f *Fake) DeleteWallet(_ context.Context, id string) error {
	if err := f.enter("DeleteWallet"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	w, ok := f.Wallets[id]
	if !ok {
		return errs.New(errs.Engine, "unknown wallet %q", id)
	}
	if !w.Loaded {
		return errs.New(errs.Engine, "wallet %q not loaded", id)
	}
	delete(f.Wallets, id)
	return nil
}

func (f *Fake) ExportMnemonic(_ context.Context, id string) (string, error) {
	if err := f.enter("ExportMnemonic"); err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	w, ok := f.Wallets[id]
	if !ok || !w.Loaded {
		return "", errs.New(errs.Engine, "wallet %q not loaded", id)
	}
	return w.Mnemonic, nil
}

func (f *Fake) ViewingKey(_ context.Context, id string) (string, error) {
	if err := f.enter("ViewingKey"); err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	w, ok := f.Wallets[id]
	if !ok || !w.Loaded {
		return "", errs.New(errs.Engine, "wallet %q not loaded", id)
	}
	return w.Viewing, nil
}

func (f *Fake) WalletBalances(_ context.Context, id string, chainID uint64, protocolVersion int) ([]engine.BalanceEntry, error) {
	if err := f.enter("WalletBalances"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.LastProtocolVersion = protocolVersion
	return append([]engine.BalanceEntry(nil), f.Balances...), nil
}

func (f *Fake) TransactionHistory(_ context.Context, id string, chainID uint64, startingBlock uint64) ([]engine.HistoryEntry, error) {
	if err := f.enter("TransactionHistory"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]engine.HistoryEntry, 0, len(f.History))
	for _, h := range f.History {
		if h.BlockNumber >= startingBlock {
			out = append(out, h)
		}
	}
	return out, nil
}

func (f *Fake) RefreshBalances(_ context.Context, chainID uint64, walletIDs []string) error {
	return f.enter("RefreshBalances")
}

func (f *Fake) FullRescan(_ context.Context, chainID uint64) error {
	return f.enter("FullRescan")
}

func (f *Fake) ResetTXIDMerkletrees(_ context.Context, chainID uint64) error {
	return f.enter("ResetTXIDMerkletrees")
}

func (f *Fake) LoadProvider(_ context.Context, chainID uint64, endpoints []string, pollInterval time.Duration) (engine.FeeData, error) {
	if err := f.enter("LoadProvider"); err != nil {
		return engine.FeeData{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Providers[chainID] = &Provider{Endpoints: endpoints}
	return f.Fees, nil
}

func (f *Fake) UnloadProvider(_ context.Context, chainID uint64) error {
	if err := f.enter("UnloadProvider"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.Providers, chainID)
	return nil
}

func (f *Fake) PauseProvider(_ context.Context, chainID uint64) error {
	if err := f.enter("PauseProvider"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.Providers[chainID]; ok {
		p.Paused = true
	}
	return nil
}

func (f *Fake) ResumeProvider(_ context.Context, chainID uint64) error {
	if err := f.enter("ResumeProvider"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.Providers[chainID]; ok {
		p.Paused = false
	}
	return nil
}

func (f *Fake) ScanEvents() <-chan engine.ScanEvent {
	return f.events
}

func (f *Fake) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = append(f.Calls, "Close")
	if !f.closed {
		f.closed = true
		close(f.events)
	}
	return nil
}
