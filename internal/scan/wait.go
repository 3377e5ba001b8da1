package scan

import (
	"context"
	"time"
)

// DefaultWaitInterval is how often WaitForUTXO re-checks completion.
const DefaultWaitInterval = 500 * time.Millisecond

// WaitForUTXO blocks until the UTXO scan for a chain reports Complete or
// ctx is cancelled. Each tick invokes onProgress (when non-nil) with the
// latest UTXO progress so callers can render a bar. Returns ctx.Err() on
// cancellation.
func (t *Tracker) WaitForUTXO(ctx context.Context, chainID uint64, interval time.Duration, onProgress func(float64)) error {
	if interval <= 0 {
		interval = DefaultWaitInterval
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if state, ok := t.Progress(chainID); ok && onProgress != nil {
			onProgress(state.UTXO.Progress)
		}
		if t.UTXOScanComplete(chainID) {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
