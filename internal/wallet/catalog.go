package wallet

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/zeebo/blake3"

	"github.com/umbra-cash/umbra-wallet/internal/errs"
	"github.com/umbra-cash/umbra-wallet/internal/log"
	"github.com/umbra-cash/umbra-wallet/internal/storage"
)

// WalletRecord is one catalog entry. Created on create/import, removed on
// delete. Networks records where the wallet has been used.
type WalletRecord struct {
	ID        string    `json:"id"`
	Address   string    `json:"address"`
	ViewOnly  bool      `json:"view_only,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	Networks  []string  `json:"networks,omitempty"`
}

// catalogRecord is the persisted catalog format.
type catalogRecord struct {
	Wallets        []WalletRecord `json:"wallets"`
	ActiveWalletID string         `json:"active_wallet_id"`
}

// Storage keys. The catalog is one JSON value plus a blake3 checksum;
// per-wallet salts live under their own prefix.
var (
	catalogKey    = []byte("catalog")
	catalogSumKey = []byte("catalog#sum")
	saltPrefix    = []byte("salt/")
)

// loadCatalog reads the persisted catalog. A missing catalog is a fresh
// install; a malformed one or a checksum mismatch is treated the same way,
// with a warning. Silent data loss is the known cost of that choice.
func loadCatalog(db storage.DB) catalogRecord {
	data, err := db.Get(catalogKey)
	if errors.Is(err, storage.ErrNotFound) {
		return catalogRecord{}
	}
	if err != nil {
		log.Wallet.Warn().Err(err).Msg("wallet catalog unreadable, starting empty")
		return catalogRecord{}
	}

	sum, err := db.Get(catalogSumKey)
	if err != nil {
		log.Wallet.Warn().Err(err).Msg("wallet catalog checksum missing, starting empty")
		return catalogRecord{}
	}
	if got := blake3.Sum256(data); string(got[:]) != string(sum) {
		log.Wallet.Warn().Msg("wallet catalog checksum mismatch, starting empty")
		return catalogRecord{}
	}

	var cat catalogRecord
	if err := json.Unmarshal(data, &cat); err != nil {
		log.Wallet.Warn().Err(err).Msg("wallet catalog malformed, starting empty")
		return catalogRecord{}
	}
	return cat
}

// saveCatalog writes the catalog and its checksum.
func saveCatalog(db storage.DB, cat catalogRecord) error {
	data, err := json.Marshal(cat)
	if err != nil {
		return errs.Wrap(errs.IO, err)
	}
	if err := db.Put(catalogKey, data); err != nil {
		return errs.Wrap(errs.IO, err)
	}
	sum := blake3.Sum256(data)
	if err := db.Put(catalogSumKey, sum[:]); err != nil {
		return errs.Wrap(errs.IO, err)
	}
	return nil
}
