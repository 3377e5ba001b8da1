package network

import (
	"context"
	"testing"

	"github.com/umbra-cash/umbra-wallet/internal/engine"
	"github.com/umbra-cash/umbra-wallet/internal/engine/enginetest"
	"github.com/umbra-cash/umbra-wallet/internal/errs"
)

// checkInvariant asserts the single-active-network invariant: active is
// either empty or a member of the connected set.
func checkInvariant(t *testing.T, s *Session) {
	t.Helper()
	active := s.Active()
	if active == "" {
		return
	}
	for _, name := range s.Loaded() {
		if name == active {
			return
		}
	}
	t.Fatalf("invariant broken: active %q not in connected set %v", active, s.Loaded())
}

func TestLoad_UnsupportedNetwork(t *testing.T) {
	s := NewSession(enginetest.New())
	_, err := s.Load(context.Background(), "fantasynet")
	if !errs.IsKind(err, errs.NotFound) {
		t.Errorf("Load(unsupported) = %v, want NotFound", err)
	}
	checkInvariant(t, s)
}

func TestLoad_ConnectsAndActivates(t *testing.T) {
	fake := enginetest.New()
	fake.Fees = engine.FeeData{MaxFeePerGas: 30, MaxPriorityFeePerGas: 2}
	s := NewSession(fake)

	fees, err := s.Load(context.Background(), "ethereum")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if fees.MaxFeePerGas != 30 {
		t.Errorf("fees = %+v", fees)
	}
	if s.Active() != "ethereum" {
		t.Errorf("active = %q", s.Active())
	}
	if _, ok := fake.Providers[1]; !ok {
		t.Error("provider for chain 1 not loaded in engine")
	}
	checkInvariant(t, s)
}

// Reconnecting an already loaded network is idempotent and — surprisingly —
// reports zero fee data rather than the cached snapshot. Preserved
// behavior, flagged here so a deliberate fix shows up as a test change.
func TestLoad_IdempotentReturnsZeroFees(t *testing.T) {
	fake := enginetest.New()
	fake.Fees = engine.FeeData{MaxFeePerGas: 30, MaxPriorityFeePerGas: 2}
	s := NewSession(fake)
	ctx := context.Background()

	if _, err := s.Load(ctx, "ethereum"); err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	fees, err := s.Load(ctx, "ethereum")
	if err != nil {
		t.Fatalf("second Load() error: %v", err)
	}
	if fees != (engine.FeeData{}) {
		t.Errorf("idempotent Load fees = %+v, want zero", fees)
	}
	if fake.CallsTo("LoadProvider") != 1 {
		t.Errorf("LoadProvider called %d times, want 1 (no reconnect)", fake.CallsTo("LoadProvider"))
	}

	// The original snapshot is still cached on the connection.
	conn, _ := s.Conn("ethereum")
	if conn.Fees.MaxFeePerGas != 30 {
		t.Errorf("cached fees = %+v", conn.Fees)
	}
}

func TestSwitch_PausesOthers(t *testing.T) {
	fake := enginetest.New()
	s := NewSession(fake)
	ctx := context.Background()

	if _, err := s.Load(ctx, "ethereum"); err != nil {
		t.Fatalf("Load(ethereum) error: %v", err)
	}
	if err := s.Switch(ctx, "polygon"); err != nil {
		t.Fatalf("Switch(polygon) error: %v", err)
	}

	if s.Active() != "polygon" {
		t.Errorf("active = %q, want polygon", s.Active())
	}
	loaded := s.Loaded()
	if len(loaded) != 2 {
		t.Fatalf("loaded = %v, want both networks", loaded)
	}
	checkInvariant(t, s)

	eth, _ := s.Conn("ethereum")
	if !eth.Paused {
		t.Error("ethereum should be paused after switching away")
	}
	pol, _ := s.Conn("polygon")
	if pol.Paused {
		t.Error("polygon should be polling")
	}
	if fake.Providers[1] == nil || !fake.Providers[1].Paused {
		t.Error("engine provider for ethereum not paused")
	}

	// Switching back resumes ethereum and pauses polygon.
	if err := s.Switch(ctx, "ethereum"); err != nil {
		t.Fatalf("Switch(ethereum) error: %v", err)
	}
	if s.Active() != "ethereum" {
		t.Errorf("active = %q, want ethereum", s.Active())
	}
	if eth.Paused || !pol.Paused {
		t.Errorf("paused flags: eth=%v pol=%v", eth.Paused, pol.Paused)
	}
	checkInvariant(t, s)
}

func TestUnload_PromotesRemaining(t *testing.T) {
	fake := enginetest.New()
	s := NewSession(fake)
	ctx := context.Background()

	if _, err := s.Load(ctx, "ethereum"); err != nil {
		t.Fatal(err)
	}
	if err := s.Switch(ctx, "polygon"); err != nil {
		t.Fatal(err)
	}

	// Disconnect the active network: the remaining one takes over.
	if err := s.Unload(ctx, "polygon"); err != nil {
		t.Fatalf("Unload() error: %v", err)
	}
	if s.Active() != "ethereum" {
		t.Errorf("active = %q, want ethereum", s.Active())
	}
	checkInvariant(t, s)

	// Disconnect the last network: active clears.
	if err := s.Unload(ctx, "ethereum"); err != nil {
		t.Fatalf("Unload() error: %v", err)
	}
	if s.Active() != "" {
		t.Errorf("active = %q, want empty", s.Active())
	}
	if len(s.Loaded()) != 0 {
		t.Errorf("loaded = %v, want empty", s.Loaded())
	}
	if len(fake.Providers) != 0 {
		t.Errorf("engine still holds %d providers", len(fake.Providers))
	}

	// Unloading a never-connected network is a no-op.
	if err := s.Unload(ctx, "bnb"); err != nil {
		t.Errorf("Unload(not connected) = %v, want nil", err)
	}
}

func TestUnload_NonActiveKeepsActive(t *testing.T) {
	s := NewSession(enginetest.New())
	ctx := context.Background()

	s.Load(ctx, "ethereum")
	s.Switch(ctx, "polygon")

	if err := s.Unload(ctx, "ethereum"); err != nil {
		t.Fatalf("Unload() error: %v", err)
	}
	if s.Active() != "polygon" {
		t.Errorf("active = %q, want polygon", s.Active())
	}
	checkInvariant(t, s)
}

func TestLoad_EngineFailureLeavesNoState(t *testing.T) {
	fake := enginetest.New()
	fake.FailNext("LoadProvider", errs.New(errs.Engine, "all endpoints down"))
	s := NewSession(fake)

	if _, err := s.Load(context.Background(), "ethereum"); err == nil {
		t.Fatal("Load should surface the engine failure")
	}
	if len(s.Loaded()) != 0 || s.Active() != "" {
		t.Errorf("failed load left state: loaded=%v active=%q", s.Loaded(), s.Active())
	}
	checkInvariant(t, s)
}
