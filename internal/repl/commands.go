package repl

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/schollz/progressbar/v3"

	"github.com/umbra-cash/umbra-wallet/config"
	"github.com/umbra-cash/umbra-wallet/internal/balance"
	"github.com/umbra-cash/umbra-wallet/internal/errs"
	"github.com/umbra-cash/umbra-wallet/internal/scan"
	"github.com/umbra-cash/umbra-wallet/internal/wallet"
)

// historyDisplayLimit caps how many history rows the shell renders.
const historyDisplayLimit = 20

// defaultFindCount is how many candidate addresses wallet find probes.
const defaultFindCount = 5

func registry() []*Command {
	return []*Command{
		{Name: "help", Aliases: []string{"h", "?"}, Usage: "help", Short: "list commands", Run: cmdHelp},
		{Name: "status", Aliases: []string{"st"}, Usage: "status", Short: "show session state", Run: cmdStatus},
		{Name: "clear", Aliases: []string{"cls"}, Usage: "clear", Short: "clear the screen", Run: cmdClear},
		{Name: "exit", Aliases: []string{"quit", "q"}, Usage: "exit", Short: "leave the shell", Run: cmdExit},

		{Name: "wallet create", Aliases: []string{"wc"}, Usage: "wallet create [index]", Short: "create a wallet from a fresh mnemonic", Run: cmdWalletCreate},
		{Name: "wallet import", Aliases: []string{"wi"}, Usage: "wallet import [index]", Short: "import a wallet from a mnemonic or viewing key", Run: cmdWalletImport},
		{Name: "wallet list", Aliases: []string{"wl"}, Usage: "wallet list", Short: "list wallets", Run: cmdWalletList},
		{Name: "wallet load", Aliases: []string{"wload"}, Usage: "wallet load <id>", Short: "unlock a wallet", Run: cmdWalletLoad},
		{Name: "wallet use", Aliases: []string{"wu"}, Usage: "wallet use <id>", Short: "select the active wallet", Run: cmdWalletUse},
		{Name: "wallet export", Aliases: []string{"we"}, Usage: "wallet export [id]", Short: "show a wallet's recovery phrase", Run: cmdWalletExport},
		{Name: "wallet find", Aliases: []string{"wf"}, Usage: "wallet find [count]", Short: "probe derivation indexes of a mnemonic", Run: cmdWalletFind},
		{Name: "wallet delete", Usage: "wallet delete <id>", Short: "permanently delete a wallet", Run: cmdWalletDelete},
		{Name: "wallet key", Usage: "wallet key [id]", Short: "show a wallet's viewing key", Run: cmdWalletKey},

		{Name: "network list", Aliases: []string{"nl"}, Usage: "network list", Short: "list known networks", Run: cmdNetworkList},
		{Name: "network connect", Aliases: []string{"nc"}, Usage: "network connect <name>", Short: "connect a network and make it active", Run: cmdNetworkConnect},
		{Name: "network disconnect", Aliases: []string{"nd"}, Usage: "network disconnect <name>", Short: "disconnect a network", Run: cmdNetworkDisconnect},
		{Name: "network switch", Aliases: []string{"ns"}, Usage: "network switch <name>", Short: "make a network active", Run: cmdNetworkSwitch},

		{Name: "balance", Aliases: []string{"bal", "b"}, Usage: "balance", Short: "show shielded balances", Run: cmdBalance},
		{Name: "balance refresh", Aliases: []string{"br"}, Usage: "balance refresh", Short: "pull fresh balance data", Run: cmdBalanceRefresh},
		{Name: "history", Aliases: []string{"hist"}, Usage: "history [startblock]", Short: "show shielded transaction history", Run: cmdHistory},
		{Name: "sync", Aliases: []string{"sy"}, Usage: "sync [--wait|--full|--reset-txid]", Short: "show or drive chain scanning", Run: cmdSync},
	}
}

// activeWallet resolves the active wallet or explains how to get one.
func (sh *Shell) activeWallet() (wallet.WalletRecord, error) {
	rec, ok := sh.sess.Wallets.Active()
	if !ok {
		return wallet.WalletRecord{}, errs.New(errs.State, "no active wallet (see: wallet create, wallet use)")
	}
	return rec, nil
}

// targetWallet picks the wallet named in args, falling back to the active
// one.
func (sh *Shell) targetWallet(args []string) (wallet.WalletRecord, error) {
	if len(args) > 0 {
		rec, ok := sh.sess.Wallets.ByID(args[0])
		if !ok {
			return wallet.WalletRecord{}, errs.New(errs.NotFound, "wallet %q not found", args[0])
		}
		return rec, nil
	}
	return sh.activeWallet()
}

// activeNetwork resolves the active network or explains how to get one.
func (sh *Shell) activeNetwork() (config.Network, error) {
	net, ok := sh.sess.Networks.ActiveNetwork()
	if !ok {
		return config.Network{}, errs.New(errs.State, "no active network (see: network connect)")
	}
	return net, nil
}

func (sh *Shell) newTable() table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(sh.out)
	t.SetStyle(table.StyleLight)
	return t
}

func cmdHelp(_ context.Context, sh *Shell, _ []string) error {
	writeHelp(sh.out, sh.commands)
	return nil
}

func cmdClear(_ context.Context, sh *Shell, _ []string) error {
	fmt.Fprint(sh.out, "\033[2J\033[H")
	return nil
}

func cmdExit(_ context.Context, _ *Shell, _ []string) error {
	return errExit
}

func cmdStatus(_ context.Context, sh *Shell, _ []string) error {
	if rec, ok := sh.sess.Wallets.Active(); ok {
		state := "locked"
		if sh.sess.Wallets.Loaded(rec.ID) {
			state = "loaded"
		}
		fmt.Fprintf(sh.out, "wallet:   %s  %s  (%s)\n", rec.ID, rec.Address, state)
	} else {
		fmt.Fprintln(sh.out, "wallet:   none")
	}

	if net, ok := sh.sess.Networks.ActiveNetwork(); ok {
		fmt.Fprintf(sh.out, "network:  %s (chain %d)\n", net.Name, net.ChainID)
		if state, ok := sh.sess.Scans.Progress(net.ChainID); ok {
			fmt.Fprintf(sh.out, "scan:     utxo %.0f%% (%s), txid %.0f%% (%s)\n",
				state.UTXO.Progress*100, state.UTXO.Status,
				state.TXID.Progress*100, state.TXID.Status)
		} else {
			fmt.Fprintln(sh.out, "scan:     no progress reported yet")
		}
	} else {
		fmt.Fprintln(sh.out, "network:  none")
	}

	if connected := sh.sess.Networks.Loaded(); len(connected) > 0 {
		fmt.Fprintf(sh.out, "connected: %v\n", connected)
	}
	return nil
}

func cmdWalletCreate(ctx context.Context, sh *Shell, args []string) error {
	index, err := parseIndex(args)
	if err != nil {
		return err
	}

	mnemonic, err := wallet.GenerateMnemonic()
	if err != nil {
		return err
	}
	fmt.Fprintln(sh.out, "Recovery phrase (write it down, it is shown once):")
	fmt.Fprintf(sh.out, "\n  %s\n\n", mnemonic)

	password, err := sh.promptNewPassword()
	if err != nil {
		return err
	}

	rec, err := sh.sess.Wallets.Create(ctx, mnemonic, password, index)
	if err != nil {
		return err
	}
	fmt.Fprintf(sh.out, "created wallet %s\naddress: %s\n", rec.ID, rec.Address)
	return nil
}

func cmdWalletImport(ctx context.Context, sh *Shell, args []string) error {
	index, err := parseIndex(args)
	if err != nil {
		return err
	}

	secret, err := sh.readLine(ctx, "Mnemonic (or viewing key for a view-only wallet): ")
	if err != nil {
		return err
	}
	password, err := sh.promptNewPassword()
	if err != nil {
		return err
	}

	var rec wallet.WalletRecord
	if wallet.ValidateMnemonic(secret) {
		rec, err = sh.sess.Wallets.Create(ctx, secret, password, index)
	} else {
		rec, err = sh.sess.Wallets.CreateViewOnly(ctx, secret, password)
	}
	if err != nil {
		return err
	}

	kind := "wallet"
	if rec.ViewOnly {
		kind = "view-only wallet"
	}
	fmt.Fprintf(sh.out, "imported %s %s\naddress: %s\n", kind, rec.ID, rec.Address)
	return nil
}

func cmdWalletList(_ context.Context, sh *Shell, _ []string) error {
	records := sh.sess.Wallets.List()
	if len(records) == 0 {
		fmt.Fprintln(sh.out, "no wallets (see: wallet create)")
		return nil
	}

	active, _ := sh.sess.Wallets.Active()
	t := sh.newTable()
	t.AppendHeader(table.Row{"", "ID", "ADDRESS", "TYPE", "STATUS", "CREATED"})
	for _, rec := range records {
		mark := ""
		if rec.ID == active.ID {
			mark = "*"
		}
		kind := "full"
		if rec.ViewOnly {
			kind = "view-only"
		}
		state := "locked"
		if sh.sess.Wallets.Loaded(rec.ID) {
			state = "loaded"
		}
		t.AppendRow(table.Row{mark, rec.ID, rec.Address, kind, state, rec.CreatedAt.Format("2006-01-02")})
	}
	t.Render()
	return nil
}

func cmdWalletLoad(ctx context.Context, sh *Shell, args []string) error {
	if len(args) != 1 {
		return usageError("wallet load <id>")
	}
	password, err := sh.promptPassword()
	if err != nil {
		return err
	}
	rec, err := sh.sess.Wallets.Load(ctx, args[0], password)
	if err != nil {
		return err
	}
	fmt.Fprintf(sh.out, "wallet %s loaded\n", rec.ID)
	return nil
}

func cmdWalletUse(_ context.Context, sh *Shell, args []string) error {
	if len(args) != 1 {
		return usageError("wallet use <id>")
	}
	if err := sh.sess.Wallets.SetActive(args[0]); err != nil {
		return err
	}
	fmt.Fprintf(sh.out, "active wallet is now %s\n", args[0])
	return nil
}

func cmdWalletExport(ctx context.Context, sh *Shell, args []string) error {
	rec, err := sh.targetWallet(args)
	if err != nil {
		return err
	}

	password := ""
	if !sh.sess.Wallets.Loaded(rec.ID) {
		if password, err = sh.promptPassword(); err != nil {
			return err
		}
	}
	mnemonic, err := sh.sess.Wallets.ExportMnemonic(ctx, rec.ID, password)
	if err != nil {
		return err
	}
	fmt.Fprintf(sh.out, "Recovery phrase for %s:\n\n  %s\n\n", rec.ID, mnemonic)
	return nil
}

func cmdWalletKey(ctx context.Context, sh *Shell, args []string) error {
	rec, err := sh.targetWallet(args)
	if err != nil {
		return err
	}
	key, err := sh.sess.Wallets.ViewingKey(ctx, rec.ID)
	if err != nil {
		return err
	}
	fmt.Fprintf(sh.out, "viewing key for %s:\n%s\n", rec.ID, key)
	return nil
}

func cmdWalletFind(ctx context.Context, sh *Shell, args []string) error {
	count := defaultFindCount
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 1 {
			return errs.New(errs.Validation, "count must be a positive integer, got %q", args[0])
		}
		count = n
	}

	mnemonic, err := sh.readLine(ctx, "Mnemonic: ")
	if err != nil {
		return err
	}

	addrs, err := sh.sess.Wallets.FindAddresses(ctx, mnemonic, count)
	if err != nil {
		return err
	}
	fmt.Fprintln(sh.out, "derivation index -> address:")
	for i, addr := range addrs {
		fmt.Fprintf(sh.out, "  %3d  %s\n", i, addr)
	}
	fmt.Fprintln(sh.out, "import the one you recognize with: wallet import <index>")
	return nil
}

func cmdWalletDelete(ctx context.Context, sh *Shell, args []string) error {
	if len(args) != 1 {
		return usageError("wallet delete <id>")
	}
	id := args[0]
	if _, ok := sh.sess.Wallets.ByID(id); !ok {
		return errs.New(errs.NotFound, "wallet %q not found", id)
	}

	confirm, err := sh.readLine(ctx, fmt.Sprintf("This permanently deletes %s. Type the wallet id to confirm: ", id))
	if err != nil {
		return err
	}
	if confirm != id {
		return errs.New(errs.Validation, "confirmation mismatch, nothing deleted")
	}

	password, err := sh.promptPassword()
	if err != nil {
		return err
	}
	if err := sh.sess.Wallets.Delete(ctx, id, password); err != nil {
		return err
	}
	fmt.Fprintf(sh.out, "wallet %s deleted\n", id)
	return nil
}

func cmdNetworkList(_ context.Context, sh *Shell, _ []string) error {
	t := sh.newTable()
	t.AppendHeader(table.Row{"NAME", "ABBREV", "CHAIN ID", "STATUS"})
	for _, name := range config.NetworkNames() {
		net, _ := config.LookupNetwork(name)
		status := ""
		if conn, ok := sh.sess.Networks.Conn(name); ok {
			switch {
			case name == sh.sess.Networks.Active():
				status = "active"
			case conn.Paused:
				status = "paused"
			default:
				status = "connected"
			}
		}
		t.AppendRow(table.Row{net.Name, net.Abbrev, net.ChainID, status})
	}
	t.Render()
	return nil
}

func cmdNetworkConnect(ctx context.Context, sh *Shell, args []string) error {
	if len(args) != 1 {
		return usageError("network connect <name>")
	}
	name := args[0]

	fees, err := sh.sess.Networks.Load(ctx, name)
	if err != nil {
		return err
	}
	fmt.Fprintf(sh.out, "connected to %s\n", name)
	if fees.MaxFeePerGas > 0 {
		fmt.Fprintf(sh.out, "max fee %d wei, priority fee %d wei\n", fees.MaxFeePerGas, fees.MaxPriorityFeePerGas)
	}

	if rec, ok := sh.sess.Wallets.Active(); ok {
		if err := sh.sess.Wallets.AddNetwork(rec.ID, name); err != nil {
			return err
		}
	}
	return nil
}

func cmdNetworkDisconnect(ctx context.Context, sh *Shell, args []string) error {
	if len(args) != 1 {
		return usageError("network disconnect <name>")
	}
	if err := sh.sess.Networks.Unload(ctx, args[0]); err != nil {
		return err
	}
	fmt.Fprintf(sh.out, "disconnected from %s\n", args[0])
	return nil
}

func cmdNetworkSwitch(ctx context.Context, sh *Shell, args []string) error {
	if len(args) != 1 {
		return usageError("network switch <name>")
	}
	if err := sh.sess.Networks.Switch(ctx, args[0]); err != nil {
		return err
	}
	fmt.Fprintf(sh.out, "active network is now %s\n", args[0])
	return nil
}

func cmdBalance(ctx context.Context, sh *Shell, _ []string) error {
	rec, err := sh.activeWallet()
	if err != nil {
		return err
	}
	if !sh.sess.Wallets.Loaded(rec.ID) {
		return errs.New(errs.State, "wallet %s is locked (see: wallet load)", rec.ID)
	}
	net, err := sh.activeNetwork()
	if err != nil {
		return err
	}

	if !sh.sess.Scans.UTXOScanComplete(net.ChainID) {
		fmt.Fprintln(sh.out, "note: utxo scan incomplete, balances may be stale (see: sync)")
	}

	balances, err := sh.sess.Balances.Balances(ctx, rec.ID, net, balance.ProtocolVersion)
	if err != nil {
		return err
	}
	if len(balances) == 0 {
		fmt.Fprintln(sh.out, "no shielded balances")
		return nil
	}

	t := sh.newTable()
	t.AppendHeader(table.Row{"TOKEN", "SYMBOL", "BALANCE"})
	for _, b := range balances {
		t.AppendRow(table.Row{b.TokenAddress, b.Symbol, b.Formatted()})
	}
	t.Render()
	return nil
}

func cmdBalanceRefresh(ctx context.Context, sh *Shell, _ []string) error {
	rec, err := sh.activeWallet()
	if err != nil {
		return err
	}
	net, err := sh.activeNetwork()
	if err != nil {
		return err
	}
	if err := sh.sess.Balances.Refresh(ctx, rec.ID, net); err != nil {
		return err
	}
	fmt.Fprintf(sh.out, "balance refresh started on %s\n", net.Name)
	return nil
}

func cmdHistory(ctx context.Context, sh *Shell, args []string) error {
	rec, err := sh.activeWallet()
	if err != nil {
		return err
	}
	net, err := sh.activeNetwork()
	if err != nil {
		return err
	}

	var startBlock uint64
	if len(args) > 0 {
		startBlock, err = strconv.ParseUint(args[0], 10, 64)
		if err != nil {
			return errs.New(errs.Validation, "starting block must be a number, got %q", args[0])
		}
	}

	entries, err := sh.sess.Balances.History(ctx, rec.ID, net, startBlock)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintln(sh.out, "no shielded transactions")
		return nil
	}
	if len(entries) > historyDisplayLimit {
		fmt.Fprintf(sh.out, "showing latest %d of %d transactions\n", historyDisplayLimit, len(entries))
		entries = entries[len(entries)-historyDisplayLimit:]
	}

	t := sh.newTable()
	t.AppendHeader(table.Row{"TXID", "BLOCK", "TIME", "TOKEN", "AMOUNT"})
	for _, e := range entries {
		t.AppendRow(table.Row{
			e.TxID, e.BlockNumber,
			time.Unix(e.Timestamp, 0).UTC().Format("2006-01-02 15:04"),
			e.TokenAddress, e.Amount,
		})
	}
	t.Render()
	return nil
}

func cmdSync(ctx context.Context, sh *Shell, args []string) error {
	net, err := sh.activeNetwork()
	if err != nil {
		return err
	}

	var wait, full, resetTXID bool
	for _, arg := range args {
		switch arg {
		case "--wait":
			wait = true
		case "--full":
			full = true
		case "--reset-txid":
			resetTXID = true
		default:
			return errs.New(errs.Validation, "unknown sync flag %q", arg)
		}
	}

	if full {
		sh.sess.Scans.Reset(net.ChainID)
		if err := sh.sess.Balances.FullRescan(ctx, net); err != nil {
			return err
		}
		fmt.Fprintf(sh.out, "full rescan started on %s\n", net.Name)
	}
	if resetTXID {
		if err := sh.sess.Balances.ResetTXIDTrees(ctx, net); err != nil {
			return err
		}
		fmt.Fprintf(sh.out, "txid merkletree reset started on %s\n", net.Name)
	}

	if wait {
		bar := progressbar.NewOptions(100,
			progressbar.OptionSetDescription("utxo scan"),
			progressbar.OptionSetWriter(sh.out),
			progressbar.OptionClearOnFinish(),
		)
		err := sh.sess.Scans.WaitForUTXO(ctx, net.ChainID, scan.DefaultWaitInterval, func(p float64) {
			bar.Set(int(p * 100))
		})
		if err != nil {
			return err
		}
		bar.Finish()
		fmt.Fprintf(sh.out, "utxo scan complete on %s\n", net.Name)
		return nil
	}

	if state, ok := sh.sess.Scans.Progress(net.ChainID); ok {
		fmt.Fprintf(sh.out, "utxo %.0f%% (%s), txid %.0f%% (%s)\n",
			state.UTXO.Progress*100, state.UTXO.Status,
			state.TXID.Progress*100, state.TXID.Status)
	} else {
		fmt.Fprintln(sh.out, "no scan progress reported yet")
	}
	return nil
}

// parseIndex reads an optional derivation index argument.
func parseIndex(args []string) (uint32, error) {
	if len(args) == 0 {
		return 0, nil
	}
	n, err := strconv.ParseUint(args[0], 10, 32)
	if err != nil {
		return 0, errs.New(errs.Validation, "derivation index must be a number, got %q", args[0])
	}
	return uint32(n), nil
}
