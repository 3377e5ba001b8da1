// Package network manages the set of connected chain providers and which
// one is active. At most one network is active at any time; switching
// pauses polling everywhere else.
package network

import (
	"context"
	"sort"

	"github.com/umbra-cash/umbra-wallet/config"
	"github.com/umbra-cash/umbra-wallet/internal/engine"
	"github.com/umbra-cash/umbra-wallet/internal/errs"
	"github.com/umbra-cash/umbra-wallet/internal/log"
)

// Conn is one connected network.
type Conn struct {
	Network config.Network

	// Fees is the snapshot the provider reported when it connected.
	// Idempotent re-loads return a zero FeeData instead of this cache;
	// see Load.
	Fees engine.FeeData

	// Paused is true while another network is active and this one's
	// polling is suspended.
	Paused bool
}

// Session owns the connected-provider set. Like the wallet session it is
// only driven from the single-threaded command loop.
type Session struct {
	eng       engine.ChainProvider
	connected map[string]*Conn
	active    string
}

// NewSession creates a session with no connected networks.
func NewSession(eng engine.ChainProvider) *Session {
	return &Session{
		eng:       eng,
		connected: make(map[string]*Conn),
	}
}

// Active returns the active network name, or "" when none.
func (s *Session) Active() string {
	return s.active
}

// ActiveNetwork returns the registry entry of the active network.
func (s *Session) ActiveNetwork() (config.Network, bool) {
	conn, ok := s.connected[s.active]
	if !ok {
		return config.Network{}, false
	}
	return conn.Network, true
}

// Loaded returns the names of the connected networks, sorted.
func (s *Session) Loaded() []string {
	names := make([]string, 0, len(s.connected))
	for name := range s.connected {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Conn returns the connection state for a network name.
func (s *Session) Conn(name string) (*Conn, bool) {
	conn, ok := s.connected[name]
	return conn, ok
}

// Load connects a network and makes it active. Loading an already
// connected network is idempotent and does not reconnect; the returned
// FeeData is then zero rather than the cached snapshot, matching the
// engine's long-standing observable behavior.
func (s *Session) Load(ctx context.Context, name string) (engine.FeeData, error) {
	if _, ok := s.connected[name]; ok {
		return engine.FeeData{}, nil
	}

	net, ok := config.LookupNetwork(name)
	if !ok {
		return engine.FeeData{}, errs.New(errs.NotFound, "unsupported network %q (see: network list)", name)
	}

	fees, err := s.eng.LoadProvider(ctx, net.ChainID, net.RPCEndpoints, net.PollInterval)
	if err != nil {
		return engine.FeeData{}, err
	}

	s.connected[name] = &Conn{Network: net, Fees: fees}
	s.active = name
	log.Network.Info().Str("network", name).Uint64("chain_id", net.ChainID).Msg("network connected")
	return fees, nil
}

// Unload disconnects a network. No-op when not connected. When the active
// network is unloaded, an arbitrary remaining network is promoted, or the
// active selection is cleared.
func (s *Session) Unload(ctx context.Context, name string) error {
	conn, ok := s.connected[name]
	if !ok {
		return nil
	}

	if err := s.eng.UnloadProvider(ctx, conn.Network.ChainID); err != nil {
		return err
	}
	delete(s.connected, name)

	if s.active == name {
		s.active = ""
		for remaining := range s.connected {
			s.active = remaining
			break
		}
		if s.active != "" {
			log.Network.Info().Str("network", s.active).Msg("active network reassigned")
		}
	}

	log.Network.Info().Str("network", name).Msg("network disconnected")
	return nil
}

// UnloadAll disconnects every network. Called on shutdown.
func (s *Session) UnloadAll(ctx context.Context) {
	for _, name := range s.Loaded() {
		if err := s.Unload(ctx, name); err != nil {
			log.Network.Warn().Err(err).Str("network", name).Msg("disconnect on shutdown failed")
		}
	}
}

// Switch makes a network active, connecting it first if needed. Polling is
// paused on every other connected network and ensured on the target.
func (s *Session) Switch(ctx context.Context, name string) error {
	if _, ok := s.connected[name]; !ok {
		if _, err := s.Load(ctx, name); err != nil {
			return err
		}
	}

	for other, conn := range s.connected {
		if other == name || conn.Paused {
			continue
		}
		if err := s.eng.PauseProvider(ctx, conn.Network.ChainID); err != nil {
			return err
		}
		conn.Paused = true
	}

	target := s.connected[name]
	if err := s.eng.ResumeProvider(ctx, target.Network.ChainID); err != nil {
		return err
	}
	target.Paused = false

	s.active = name
	log.Network.Info().Str("network", name).Msg("network switched")
	return nil
}
