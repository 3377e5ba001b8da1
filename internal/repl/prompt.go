package repl

import (
	"fmt"

	"github.com/umbra-cash/umbra-wallet/internal/session"
)

// addrPrefixLen is how much of the shielded address the prompt shows.
const addrPrefixLen = 9

// Prompt renders the shell prompt for a given selection. Pure: the same
// inputs always produce the same prompt.
//
//	umbra>                              nothing selected
//	umbra [eth]>                        network only
//	umbra [eth:0zk123456…]>             network + loaded wallet
//	umbra [eth:0zk123456…|locked]>      network + unloaded wallet
func Prompt(netAbbrev, address string, loaded bool) string {
	if netAbbrev == "" && address == "" {
		return "umbra> "
	}

	inner := netAbbrev
	if address != "" {
		short := address
		if len(short) > addrPrefixLen {
			short = short[:addrPrefixLen] + "…"
		}
		if inner != "" {
			inner += ":"
		}
		inner += short
		if !loaded {
			inner += "|locked"
		}
	}
	return fmt.Sprintf("umbra [%s]> ", inner)
}

// promptFor derives the prompt from the live session state.
func promptFor(sess *session.Context) string {
	abbrev := ""
	if net, ok := sess.Networks.ActiveNetwork(); ok {
		abbrev = net.Abbrev
	}
	address := ""
	loaded := false
	if rec, ok := sess.Wallets.Active(); ok {
		address = rec.Address
		loaded = sess.Wallets.Loaded(rec.ID)
	}
	return Prompt(abbrev, address, loaded)
}
