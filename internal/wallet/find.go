package wallet

import (
	"context"
	"crypto/rand"
	"fmt"

	"github.com/umbra-cash/umbra-wallet/internal/errs"
	"github.com/umbra-cash/umbra-wallet/internal/keys"
	"github.com/umbra-cash/umbra-wallet/internal/log"
)

// FindAddresses surfaces the candidate addresses a mnemonic yields at
// derivation indices 0..count-1. Each index is probed with an ephemeral
// engine wallet under a throwaway key; the ephemeral wallet never enters
// the catalog and is deleted before the next probe, even when a probe
// fails partway.
func (s *Session) FindAddresses(ctx context.Context, mnemonic string, count int) ([]string, error) {
	if !ValidateMnemonic(mnemonic) {
		return nil, errs.New(errs.Validation, "invalid mnemonic: bad word or checksum")
	}
	if count <= 0 {
		return nil, errs.New(errs.Validation, "count must be positive")
	}

	addrs := make([]string, 0, count)
	for i := 0; i < count; i++ {
		addr, err := s.probeIndex(ctx, mnemonic, uint32(i))
		if err != nil {
			return nil, fmt.Errorf("probe index %d: %w", i, err)
		}
		addrs = append(addrs, addr)
	}
	return addrs, nil
}

// probeIndex creates and tears down one ephemeral wallet. The deferred
// delete runs on every path after a successful create.
func (s *Session) probeIndex(ctx context.Context, mnemonic string, index uint32) (addr string, err error) {
	key := make([]byte, keys.KeySize)
	if _, err := rand.Read(key); err != nil {
		return "", fmt.Errorf("throwaway key: %w", err)
	}

	info, err := s.eng.CreateWallet(ctx, key, mnemonic, index)
	if err != nil {
		return "", err
	}
	defer func() {
		if derr := s.eng.DeleteWallet(ctx, info.ID); derr != nil {
			log.Wallet.Warn().Err(derr).Str("id", info.ID).Uint32("index", index).
				Msg("ephemeral wallet cleanup failed")
		}
	}()

	return info.Address, nil
}
