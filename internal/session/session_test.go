package session

import (
	"context"
	"testing"
	"time"

	"github.com/umbra-cash/umbra-wallet/config"
	"github.com/umbra-cash/umbra-wallet/internal/engine"
	"github.com/umbra-cash/umbra-wallet/internal/engine/enginetest"
	"github.com/umbra-cash/umbra-wallet/internal/storage"
)

const testMnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"

func newTestContext(t *testing.T) (*Context, *enginetest.Fake) {
	t.Helper()
	cfg := config.Default()
	cfg.DataDir = t.TempDir()
	fake := enginetest.New()
	c := New(cfg, storage.NewMemory(), fake)
	t.Cleanup(func() { c.Close() })
	return c, fake
}

func TestScanEventsReachTracker(t *testing.T) {
	c, fake := newTestContext(t)

	fake.PushEvent(engine.ScanEvent{
		ChainID: 1, Track: engine.TrackUTXO, Status: engine.ScanComplete, Progress: 1,
	})

	deadline := time.Now().Add(2 * time.Second)
	for !c.Scans.UTXOScanComplete(1) {
		if time.Now().After(deadline) {
			t.Fatal("scan event never reached the tracker")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestClose_TearsDownEverything(t *testing.T) {
	c, fake := newTestContext(t)
	ctx := context.Background()

	if _, err := c.Wallets.Create(ctx, testMnemonic, "longenough1", 0); err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	if _, err := c.Networks.Load(ctx, "ethereum"); err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if err := c.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}

	if len(fake.Providers) != 0 {
		t.Errorf("engine still holds %d providers", len(fake.Providers))
	}
	for id, w := range fake.Wallets {
		if w.Loaded {
			t.Errorf("wallet %s still loaded after shutdown", id)
		}
	}
	if fake.CallsTo("Close") != 1 {
		t.Errorf("engine Close called %d times, want 1", fake.CallsTo("Close"))
	}
}

func TestClose_Idempotent(t *testing.T) {
	c, fake := newTestContext(t)

	if err := c.Close(); err != nil {
		t.Fatalf("first Close() error: %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("second Close() error: %v", err)
	}
	if fake.CallsTo("Close") != 1 {
		t.Errorf("engine Close called %d times, want 1", fake.CallsTo("Close"))
	}
}

func TestCatalogSurvivesRestart(t *testing.T) {
	cfg := config.Default()
	cfg.DataDir = t.TempDir()
	db := storage.NewMemory()
	fake := enginetest.New()
	ctx := context.Background()

	c1 := New(cfg, db, fake)
	rec, err := c1.Wallets.Create(ctx, testMnemonic, "longenough1", 0)
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	if err := c1.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}

	// Second session over the same store sees the record, not the session.
	c2 := New(cfg, db, enginetest.New())
	defer c2.Close()
	if _, ok := c2.Wallets.ByID(rec.ID); !ok {
		t.Errorf("wallet %s missing after restart", rec.ID)
	}
	if c2.Wallets.Loaded(rec.ID) {
		t.Error("encryption session must not survive restart")
	}
}
