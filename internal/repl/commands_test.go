package repl

import (
	"context"
	"strings"
	"testing"

	"github.com/umbra-cash/umbra-wallet/internal/engine"
)

func TestWalletCreate_EndToEnd(t *testing.T) {
	sh, fake, out := newTestShell(t)
	scriptPasswords(sh, "longenough1")

	if exit := sh.Dispatch(context.Background(), "wallet create"); exit {
		t.Fatal("wallet create exited the loop")
	}

	if len(fake.Wallets) != 1 {
		t.Fatalf("engine holds %d wallets, want 1", len(fake.Wallets))
	}
	rec, ok := sh.sess.Wallets.Active()
	if !ok {
		t.Fatal("first wallet did not become active")
	}
	if !sh.sess.Wallets.Loaded(rec.ID) {
		t.Error("new wallet should be loaded")
	}
	if !strings.Contains(out.String(), "Recovery phrase") {
		t.Error("mnemonic was not shown")
	}
	if !strings.Contains(out.String(), "created wallet "+rec.ID) {
		t.Errorf("output = %q", out.String())
	}
}

func TestWalletCreate_ConfirmationMismatch(t *testing.T) {
	sh, fake, out := newTestShell(t)
	scriptPasswords(sh, "longenough1", "different1")

	sh.Dispatch(context.Background(), "wallet create")

	if len(fake.Wallets) != 0 {
		t.Error("mismatched confirmation still created a wallet")
	}
	if !strings.Contains(out.String(), "passwords do not match") {
		t.Errorf("output = %q", out.String())
	}
}

func TestWalletImport_MnemonicAndViewingKey(t *testing.T) {
	sh, fake, out := newTestShell(t)
	scriptPasswords(sh, "longenough1")
	ctx := context.Background()

	sh.pushLine(testMnemonic)
	sh.Dispatch(ctx, "wallet import")
	if !strings.Contains(out.String(), "imported wallet") {
		t.Fatalf("output = %q", out.String())
	}

	// A non-mnemonic secret imports as view-only.
	sh.pushLine("vk-deadbeef")
	sh.Dispatch(ctx, "wallet import")
	if !strings.Contains(out.String(), "imported view-only wallet") {
		t.Fatalf("output = %q", out.String())
	}

	if len(fake.Wallets) != 2 {
		t.Errorf("engine holds %d wallets, want 2", len(fake.Wallets))
	}
	viewOnly := 0
	for _, rec := range sh.sess.Wallets.List() {
		if rec.ViewOnly {
			viewOnly++
		}
	}
	if viewOnly != 1 {
		t.Errorf("catalog has %d view-only records, want 1", viewOnly)
	}
}

func TestWalletDelete_RequiresConfirmation(t *testing.T) {
	sh, fake, _ := newTestShell(t)
	scriptPasswords(sh, "longenough1")
	ctx := context.Background()

	sh.Dispatch(ctx, "wallet create")
	rec, _ := sh.sess.Wallets.Active()

	sh.pushLine("wrong-id")
	sh.Dispatch(ctx, "wallet delete "+rec.ID)
	if len(fake.Wallets) != 1 {
		t.Fatal("mismatched confirmation deleted the wallet")
	}

	sh.pushLine(rec.ID)
	sh.Dispatch(ctx, "wallet delete "+rec.ID)
	if len(fake.Wallets) != 0 {
		t.Error("confirmed delete left the wallet behind")
	}
	if len(sh.sess.Wallets.List()) != 0 {
		t.Error("catalog record survived delete")
	}
}

func TestNetworkScenario_ConnectSwitchDisconnect(t *testing.T) {
	sh, fake, out := newTestShell(t)
	fake.Fees = engine.FeeData{MaxFeePerGas: 25, MaxPriorityFeePerGas: 2}
	ctx := context.Background()

	sh.Dispatch(ctx, "network connect ethereum")
	if sh.sess.Networks.Active() != "ethereum" {
		t.Fatalf("active = %q", sh.sess.Networks.Active())
	}
	if !strings.Contains(out.String(), "connected to ethereum") {
		t.Errorf("output = %q", out.String())
	}

	sh.Dispatch(ctx, "network switch polygon")
	if sh.sess.Networks.Active() != "polygon" {
		t.Fatalf("active = %q after switch", sh.sess.Networks.Active())
	}
	if eth, _ := sh.sess.Networks.Conn("ethereum"); !eth.Paused {
		t.Error("ethereum should be paused after switching away")
	}

	sh.Dispatch(ctx, "network disconnect polygon")
	if sh.sess.Networks.Active() != "ethereum" {
		t.Errorf("active = %q, want promotion back to ethereum", sh.sess.Networks.Active())
	}
	if len(sh.sess.Networks.Loaded()) != 1 {
		t.Errorf("loaded = %v", sh.sess.Networks.Loaded())
	}
}

func TestNetworkConnect_RecordsWalletUsage(t *testing.T) {
	sh, _, _ := newTestShell(t)
	scriptPasswords(sh, "longenough1")
	ctx := context.Background()

	sh.Dispatch(ctx, "wallet create")
	sh.Dispatch(ctx, "network connect sepolia")

	rec, _ := sh.sess.Wallets.Active()
	rec, _ = sh.sess.Wallets.ByID(rec.ID)
	if len(rec.Networks) != 1 || rec.Networks[0] != "sepolia" {
		t.Errorf("wallet networks = %v, want [sepolia]", rec.Networks)
	}
}

func TestBalance_RequiresLoadedWalletAndNetwork(t *testing.T) {
	sh, _, out := newTestShell(t)

	sh.Dispatch(context.Background(), "balance")
	if !strings.Contains(out.String(), "no active wallet") {
		t.Errorf("output = %q", out.String())
	}
}

func TestBalance_RendersTokens(t *testing.T) {
	sh, fake, out := newTestShell(t)
	scriptPasswords(sh, "longenough1")
	ctx := context.Background()

	sh.Dispatch(ctx, "wallet create")
	sh.Dispatch(ctx, "network connect ethereum")
	fake.Balances = []engine.BalanceEntry{
		// USDC mainnet, 6 decimals in the registry.
		{TokenAddress: "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48", TokenType: engine.TokenFungible, Balance: "2500000"},
		{TokenAddress: "0x000000000000000000000000000000000000dead", TokenType: engine.TokenNFT, Balance: "1"},
	}
	sh.sess.Scans.Apply(engine.ScanEvent{ChainID: 1, Track: engine.TrackUTXO, Status: engine.ScanComplete})

	out.Reset()
	sh.Dispatch(ctx, "balance")

	got := out.String()
	if !strings.Contains(got, "USDC") || !strings.Contains(got, "2.500000") {
		t.Errorf("output = %q, want USDC 2.500000", got)
	}
	if strings.Contains(got, "dead") {
		t.Error("NFT entry leaked into the balance table")
	}
	if strings.Contains(got, "scan incomplete") {
		t.Error("staleness note shown although the scan is complete")
	}
}

func TestBalance_WarnsWhenScanIncomplete(t *testing.T) {
	sh, _, out := newTestShell(t)
	scriptPasswords(sh, "longenough1")
	ctx := context.Background()

	sh.Dispatch(ctx, "wallet create")
	sh.Dispatch(ctx, "network connect ethereum")
	out.Reset()

	sh.Dispatch(ctx, "balance")
	if !strings.Contains(out.String(), "scan incomplete") {
		t.Errorf("output = %q, want staleness note", out.String())
	}
}

func TestSync_ReportsProgress(t *testing.T) {
	sh, _, out := newTestShell(t)
	ctx := context.Background()

	sh.Dispatch(ctx, "network connect ethereum")
	sh.sess.Scans.Apply(engine.ScanEvent{ChainID: 1, Track: engine.TrackUTXO, Status: engine.ScanUpdated, Progress: 0.4})
	out.Reset()

	sh.Dispatch(ctx, "sync")
	if !strings.Contains(out.String(), "utxo 40%") {
		t.Errorf("output = %q, want utxo 40%%", out.String())
	}
}

func TestSync_FullRescanResetsTracker(t *testing.T) {
	sh, fake, _ := newTestShell(t)
	ctx := context.Background()

	sh.Dispatch(ctx, "network connect ethereum")
	sh.sess.Scans.Apply(engine.ScanEvent{ChainID: 1, Track: engine.TrackUTXO, Status: engine.ScanComplete})

	sh.Dispatch(ctx, "sync --full")
	if fake.CallsTo("FullRescan") != 1 {
		t.Errorf("FullRescan called %d times, want 1", fake.CallsTo("FullRescan"))
	}
	if sh.sess.Scans.UTXOScanComplete(1) {
		t.Error("tracker state must be reset for a full rescan")
	}
}

func TestWalletFind_EndToEnd(t *testing.T) {
	sh, fake, out := newTestShell(t)
	ctx := context.Background()

	sh.pushLine(testMnemonic)
	sh.Dispatch(ctx, "wallet find 3")

	if fake.CallsTo("CreateWallet") != 3 || len(fake.Wallets) != 0 {
		t.Errorf("probing left engine state: %d creates, %d wallets", fake.CallsTo("CreateWallet"), len(fake.Wallets))
	}
	if !strings.Contains(out.String(), "derivation index") {
		t.Errorf("output = %q", out.String())
	}
}
