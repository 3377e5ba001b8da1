// Package session wires the client together: storage, engine connection,
// wallet and network sessions, scan tracking, and balance resolution, all
// owned by one Context built at startup and released by one Close.
package session

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/umbra-cash/umbra-wallet/config"
	"github.com/umbra-cash/umbra-wallet/internal/balance"
	"github.com/umbra-cash/umbra-wallet/internal/engine"
	"github.com/umbra-cash/umbra-wallet/internal/errs"
	"github.com/umbra-cash/umbra-wallet/internal/keys"
	"github.com/umbra-cash/umbra-wallet/internal/log"
	"github.com/umbra-cash/umbra-wallet/internal/network"
	"github.com/umbra-cash/umbra-wallet/internal/scan"
	"github.com/umbra-cash/umbra-wallet/internal/storage"
	"github.com/umbra-cash/umbra-wallet/internal/wallet"
)

// shutdownTimeout bounds the teardown work in Close.
const shutdownTimeout = 10 * time.Second

// Context holds every long-lived component of a client session.
type Context struct {
	Cfg      *config.Config
	DB       storage.DB
	Engine   engine.Engine
	Creds    *keys.Store
	Wallets  *wallet.Session
	Networks *network.Session
	Scans    *scan.Tracker
	Balances *balance.Resolver

	pumpDone  chan struct{}
	closeOnce sync.Once
	closeErr  error
}

// Open builds a session context against a real badger store and a live
// engine connection. Failure here is fatal to the process.
func Open(ctx context.Context, cfg *config.Config) (*Context, error) {
	if err := os.MkdirAll(cfg.DataDir, 0700); err != nil {
		return nil, errs.Wrap(errs.IO, err)
	}

	db, err := storage.NewBadger(cfg.WalletDBDir())
	if err != nil {
		return nil, errs.Wrap(errs.IO, err)
	}

	eng, err := engine.Dial(ctx, cfg.EngineURL, cfg.EngineDir())
	if err != nil {
		db.Close()
		return nil, err
	}

	return New(cfg, db, eng), nil
}

// New assembles a context from explicit parts. Used by Open and by tests
// that inject a memory store and a fake engine.
func New(cfg *config.Config, db storage.DB, eng engine.Engine) *Context {
	creds := keys.NewStore()
	c := &Context{
		Cfg:      cfg,
		DB:       db,
		Engine:   eng,
		Creds:    creds,
		Wallets:  wallet.NewSession(db, eng, creds),
		Networks: network.NewSession(eng),
		Scans:    scan.NewTracker(),
		Balances: balance.NewResolver(eng),
		pumpDone: make(chan struct{}),
	}

	// Scan-progress events flow into the tracker independently of the
	// command loop, for as long as the engine is up.
	go func() {
		defer close(c.pumpDone)
		c.Scans.Run(context.Background(), eng.ScanEvents())
	}()

	return c
}

// Close tears the session down: disconnect networks, unload wallets, shut
// the engine, close storage. Idempotent; a second call returns the first
// result.
func (c *Context) Close() error {
	c.closeOnce.Do(func() {
		log.Info().Msg("shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		c.Networks.UnloadAll(ctx)
		c.Wallets.UnloadAll(ctx)

		if err := c.Engine.Close(); err != nil {
			log.Engine.Warn().Err(err).Msg("engine shutdown failed")
			c.closeErr = err
		}

		// The engine closed its event channel; wait for the pump to
		// drain.
		select {
		case <-c.pumpDone:
		case <-ctx.Done():
			log.Scan.Warn().Msg("scan pump did not drain before timeout")
		}

		if err := c.DB.Close(); err != nil {
			log.Storage.Warn().Err(err).Msg("store close failed")
			if c.closeErr == nil {
				c.closeErr = err
			}
		}
	})
	return c.closeErr
}
