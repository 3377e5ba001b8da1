// Package scan tracks merkle-scan progress reported asynchronously by the
// engine. Balance commands gate freshness on the UTXO track being complete
// for the relevant chain.
package scan

import (
	"context"
	"sync"

	"github.com/umbra-cash/umbra-wallet/internal/engine"
	"github.com/umbra-cash/umbra-wallet/internal/log"
)

// TrackState is the progress of one scan track.
type TrackState struct {
	Status   engine.ScanStatus
	Progress float64
}

// ChainState is the scan state of one chain: both tracks, replaced as a
// whole record on every update.
type ChainState struct {
	UTXO TrackState
	TXID TrackState
}

// Tracker records scan-progress events per chain. Events arrive on the
// engine's callback path while command handlers read synchronously, so the
// map is mutex-guarded and each chain's state is swapped as a value.
type Tracker struct {
	mu     sync.Mutex
	chains map[uint64]ChainState
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{chains: make(map[uint64]ChainState)}
}

// Run pumps events from the engine channel into the tracker until the
// channel closes or ctx is cancelled.
func (t *Tracker) Run(ctx context.Context, events <-chan engine.ScanEvent) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			t.Apply(ev)
		}
	}
}

// Apply records one progress event. Chain state is created lazily on the
// first event. A track that has reached Complete stays Complete; later
// events for it are ignored until Reset.
func (t *Tracker) Apply(ev engine.ScanEvent) {
	t.mu.Lock()
	defer t.mu.Unlock()

	state := t.chains[ev.ChainID]
	switch ev.Track {
	case engine.TrackUTXO:
		state.UTXO = advance(state.UTXO, ev)
	case engine.TrackTXID:
		state.TXID = advance(state.TXID, ev)
	default:
		log.Scan.Warn().Str("track", string(ev.Track)).Msg("unknown scan track")
		return
	}
	t.chains[ev.ChainID] = state

	log.Scan.Debug().
		Uint64("chain_id", ev.ChainID).
		Str("track", string(ev.Track)).
		Str("status", string(ev.Status)).
		Float64("progress", ev.Progress).
		Msg("scan progress")
}

func advance(cur TrackState, ev engine.ScanEvent) TrackState {
	if cur.Status == engine.ScanComplete {
		// No regression once complete. Duplicate Complete events are
		// harmless.
		return cur
	}
	next := TrackState{Status: ev.Status, Progress: ev.Progress}
	if ev.Status == engine.ScanComplete {
		next.Progress = 1
	}
	return next
}

// Reset clears the recorded state for a chain. Used around full rescans.
func (t *Tracker) Reset(chainID uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.chains, chainID)
}

// UTXOScanComplete reports whether the UTXO track for a chain has reached
// Complete. Unknown chains report false.
func (t *Tracker) UTXOScanComplete(chainID uint64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.chains[chainID].UTXO.Status == engine.ScanComplete
}

// Progress returns a snapshot of both tracks for a chain. ok is false when
// no event has been seen for the chain.
func (t *Tracker) Progress(chainID uint64) (ChainState, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	state, ok := t.chains[chainID]
	return state, ok
}
