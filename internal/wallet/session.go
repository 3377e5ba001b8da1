package wallet

import (
	"context"
	"errors"
	"time"

	"github.com/umbra-cash/umbra-wallet/internal/engine"
	"github.com/umbra-cash/umbra-wallet/internal/errs"
	"github.com/umbra-cash/umbra-wallet/internal/keys"
	"github.com/umbra-cash/umbra-wallet/internal/log"
	"github.com/umbra-cash/umbra-wallet/internal/storage"
)

// MinPasswordLen is the minimum accepted wallet password length.
const MinPasswordLen = 8

// Session owns the wallet catalog: which wallets exist, which are loaded
// (hold an encryption session), and which one is active. The REPL is
// single-threaded, so the catalog needs no locking; every mutation is
// persisted before it returns.
type Session struct {
	db      storage.DB
	salts   storage.DB
	eng     engine.WalletEngine
	creds   *keys.Store
	catalog catalogRecord
}

// NewSession builds a wallet session on top of the given store and engine.
func NewSession(db storage.DB, eng engine.WalletEngine, creds *keys.Store) *Session {
	return &Session{
		db:      db,
		salts:   storage.NewPrefixDB(db, saltPrefix),
		eng:     eng,
		creds:   creds,
		catalog: loadCatalog(db),
	}
}

// List returns all catalog records.
func (s *Session) List() []WalletRecord {
	out := make([]WalletRecord, len(s.catalog.Wallets))
	copy(out, s.catalog.Wallets)
	return out
}

// ByID returns the record for a wallet id.
func (s *Session) ByID(id string) (WalletRecord, bool) {
	for _, rec := range s.catalog.Wallets {
		if rec.ID == id {
			return rec, true
		}
	}
	return WalletRecord{}, false
}

// Active returns the active wallet record, if any.
func (s *Session) Active() (WalletRecord, bool) {
	if s.catalog.ActiveWalletID == "" {
		return WalletRecord{}, false
	}
	return s.ByID(s.catalog.ActiveWalletID)
}

// Loaded reports whether a wallet currently holds an encryption session.
func (s *Session) Loaded(id string) bool {
	return s.creds.Loaded(id)
}

// SetActive marks a wallet as the implicit target for wallet commands.
func (s *Session) SetActive(id string) error {
	if _, ok := s.ByID(id); !ok {
		return errs.New(errs.NotFound, "wallet %q not found", id)
	}
	s.catalog.ActiveWalletID = id
	return saveCatalog(s.db, s.catalog)
}

// Create validates the mnemonic, derives an encryption key, has the engine
// construct the wallet, and persists the record and salt. The new wallet
// is loaded, and becomes active when no wallet is.
func (s *Session) Create(ctx context.Context, mnemonic, password string, index uint32) (WalletRecord, error) {
	if !ValidateMnemonic(mnemonic) {
		return WalletRecord{}, errs.New(errs.Validation, "invalid mnemonic: bad word or checksum")
	}
	return s.create(ctx, password, func(key []byte) (engine.WalletInfo, error) {
		return s.eng.CreateWallet(ctx, key, mnemonic, index)
	}, false)
}

// CreateViewOnly constructs a wallet from a viewing key. The resulting
// record can see balances but never spend.
func (s *Session) CreateViewOnly(ctx context.Context, viewingKey, password string) (WalletRecord, error) {
	if viewingKey == "" {
		return WalletRecord{}, errs.New(errs.Validation, "empty viewing key")
	}
	return s.create(ctx, password, func(key []byte) (engine.WalletInfo, error) {
		return s.eng.CreateViewOnlyWallet(ctx, key, viewingKey)
	}, true)
}

func (s *Session) create(ctx context.Context, password string, construct func(key []byte) (engine.WalletInfo, error), viewOnly bool) (WalletRecord, error) {
	if len(password) < MinPasswordLen {
		return WalletRecord{}, errs.New(errs.Validation, "password must be at least %d characters", MinPasswordLen)
	}

	key, salt, err := keys.DeriveKey([]byte(password), nil)
	if err != nil {
		return WalletRecord{}, errs.Wrap(errs.Validation, err)
	}

	info, err := construct(key)
	if err != nil {
		return WalletRecord{}, err
	}

	rec := WalletRecord{
		ID:        info.ID,
		Address:   info.Address,
		ViewOnly:  viewOnly,
		CreatedAt: time.Now().UTC(),
	}

	// Persist first, mutate the in-memory catalog only on success: a
	// failed write must not leave a phantom record that has no salt.
	next := s.catalog
	next.Wallets = append(append([]WalletRecord(nil), s.catalog.Wallets...), rec)
	if next.ActiveWalletID == "" {
		next.ActiveWalletID = rec.ID
	}

	if err := s.salts.Put([]byte(rec.ID), salt); err != nil {
		s.discardEngineWallet(ctx, rec.ID)
		return WalletRecord{}, errs.Wrap(errs.IO, err)
	}
	if err := saveCatalog(s.db, next); err != nil {
		if derr := s.salts.Delete([]byte(rec.ID)); derr != nil {
			log.Wallet.Warn().Err(derr).Str("id", rec.ID).Msg("salt rollback failed")
		}
		s.discardEngineWallet(ctx, rec.ID)
		return WalletRecord{}, err
	}

	s.catalog = next
	s.creds.Remember(rec.ID, key)
	log.Wallet.Info().Str("id", rec.ID).Str("address", rec.Address).Bool("view_only", viewOnly).Msg("wallet created")
	return rec, nil
}

// discardEngineWallet best-effort removes an engine wallet that never made
// it into the catalog.
func (s *Session) discardEngineWallet(ctx context.Context, id string) {
	if err := s.eng.DeleteWallet(ctx, id); err != nil {
		log.Wallet.Warn().Err(err).Str("id", id).Msg("orphaned engine wallet cleanup failed")
	}
}

// Load derives the key from the stored salt and asks the engine to decrypt
// and load the wallet. A wrong password is only discovered by the engine
// call failing.
func (s *Session) Load(ctx context.Context, id, password string) (WalletRecord, error) {
	rec, ok := s.ByID(id)
	if !ok {
		return WalletRecord{}, errs.New(errs.NotFound, "wallet %q not found", id)
	}

	salt, err := s.salts.Get([]byte(id))
	if errors.Is(err, storage.ErrNotFound) {
		return WalletRecord{}, errs.New(errs.NotFound, "no salt stored for wallet %q", id)
	}
	if err != nil {
		return WalletRecord{}, errs.Wrap(errs.IO, err)
	}

	key, _, err := keys.DeriveKey([]byte(password), salt)
	if err != nil {
		return WalletRecord{}, errs.Wrap(errs.Validation, err)
	}

	if _, err := s.eng.LoadWallet(ctx, key, id); err != nil {
		return WalletRecord{}, err
	}

	s.creds.Remember(id, key)
	log.Wallet.Info().Str("id", id).Msg("wallet loaded")
	return rec, nil
}

// Unload drops the engine-side wallet and its encryption session. No-op
// when the wallet is not loaded.
func (s *Session) Unload(ctx context.Context, id string) error {
	if !s.creds.Loaded(id) {
		return nil
	}
	if err := s.eng.UnloadWallet(ctx, id); err != nil {
		return err
	}
	s.creds.Forget(id)
	log.Wallet.Info().Str("id", id).Msg("wallet unloaded")
	return nil
}

// UnloadAll unloads every loaded wallet. Called on shutdown.
func (s *Session) UnloadAll(ctx context.Context) {
	for _, rec := range s.catalog.Wallets {
		if err := s.Unload(ctx, rec.ID); err != nil {
			log.Wallet.Warn().Err(err).Str("id", rec.ID).Msg("unload on shutdown failed")
		}
	}
	s.creds.ForgetAll()
}

// Delete permanently removes a wallet. The password is proven by loading
// first. If the deleted wallet was active, another wallet is promoted, or
// the active selection is cleared.
func (s *Session) Delete(ctx context.Context, id, password string) error {
	if _, err := s.Load(ctx, id, password); err != nil {
		return err
	}
	if err := s.eng.DeleteWallet(ctx, id); err != nil {
		return err
	}

	// Same discipline as create: persist the removal before the in-memory
	// catalog changes. The salt goes last since an orphaned salt is inert
	// garbage, while a record without its salt can never load again.
	next := s.catalog
	next.Wallets = make([]WalletRecord, 0, len(s.catalog.Wallets))
	for _, rec := range s.catalog.Wallets {
		if rec.ID != id {
			next.Wallets = append(next.Wallets, rec)
		}
	}
	if next.ActiveWalletID == id {
		next.ActiveWalletID = ""
		if len(next.Wallets) > 0 {
			next.ActiveWalletID = next.Wallets[0].ID
		}
	}

	if err := saveCatalog(s.db, next); err != nil {
		return err
	}
	s.catalog = next
	s.creds.Forget(id)
	if err := s.salts.Delete([]byte(id)); err != nil {
		log.Wallet.Warn().Err(err).Str("id", id).Msg("orphaned salt cleanup failed")
	}
	log.Wallet.Info().Str("id", id).Msg("wallet deleted")
	return nil
}

// ExportMnemonic returns the recovery phrase of a wallet. The wallet must
// be loaded; supplying a password loads it implicitly.
func (s *Session) ExportMnemonic(ctx context.Context, id, password string) (string, error) {
	rec, ok := s.ByID(id)
	if !ok {
		return "", errs.New(errs.NotFound, "wallet %q not found", id)
	}
	if rec.ViewOnly {
		return "", errs.New(errs.State, "wallet %q is view-only and has no mnemonic", id)
	}
	if !s.creds.Loaded(id) {
		if password == "" {
			return "", errs.New(errs.State, "wallet %q is not loaded", id)
		}
		if _, err := s.Load(ctx, id, password); err != nil {
			return "", err
		}
	}
	return s.eng.ExportMnemonic(ctx, id)
}

// ViewingKey returns the read-only viewing key of a loaded wallet.
func (s *Session) ViewingKey(ctx context.Context, id string) (string, error) {
	if _, ok := s.ByID(id); !ok {
		return "", errs.New(errs.NotFound, "wallet %q not found", id)
	}
	if !s.creds.Loaded(id) {
		return "", errs.New(errs.State, "wallet %q is not loaded", id)
	}
	return s.eng.ViewingKey(ctx, id)
}

// AddNetwork records that a wallet has been used on a network.
func (s *Session) AddNetwork(id, network string) error {
	for i, rec := range s.catalog.Wallets {
		if rec.ID != id {
			continue
		}
		for _, n := range rec.Networks {
			if n == network {
				return nil
			}
		}
		s.catalog.Wallets[i].Networks = append(rec.Networks, network)
		return saveCatalog(s.db, s.catalog)
	}
	return errs.New(errs.NotFound, "wallet %q not found", id)
}
