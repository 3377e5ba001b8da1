// umbra is a local session manager for a privacy-preserving wallet. It
// fronts an external shielded-ledger engine over JSON-RPC: wallet
// lifecycle, network selection, scan tracking, and balance display. Run
// with no arguments for the interactive shell, or with a subcommand for
// one-shot use.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/umbra-cash/umbra-wallet/config"
	"github.com/umbra-cash/umbra-wallet/internal/log"
	"github.com/umbra-cash/umbra-wallet/internal/repl"
	"github.com/umbra-cash/umbra-wallet/internal/session"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app().RunContext(ctx, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "umbra: %v\n", err)
		os.Exit(1)
	}
}

func app() *cli.App {
	return &cli.App{
		Name:  "umbra",
		Usage: "shielded wallet session manager",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "datadir",
				Usage: "data directory for the wallet catalog and engine state",
				Value: config.DefaultDataDir(),
			},
			&cli.StringFlag{
				Name:  "engine-url",
				Usage: "JSON-RPC endpoint of the shielded-ledger engine",
				Value: config.DefaultEngineURL,
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "enable debug logging",
			},
			&cli.BoolFlag{
				Name:  "log-json",
				Usage: "log in JSON instead of colored console output",
			},
		},
		Action: func(c *cli.Context) error {
			return withShell(c, func(ctx context.Context, sh *repl.Shell) error {
				return sh.Run(ctx)
			})
		},
		Commands: []*cli.Command{
			{
				Name:  "wallet",
				Usage: "wallet lifecycle",
				Subcommands: []*cli.Command{
					{Name: "create", Usage: "create a wallet from a fresh mnemonic", ArgsUsage: "[index]", Action: forward("wallet", "create")},
					{Name: "import", Usage: "import a wallet from a mnemonic or viewing key", ArgsUsage: "[index]", Action: forward("wallet", "import")},
					{Name: "list", Usage: "list wallets", Action: forward("wallet", "list")},
					{Name: "load", Usage: "unlock a wallet", ArgsUsage: "<id>", Action: forward("wallet", "load")},
					{Name: "use", Usage: "select the active wallet", ArgsUsage: "<id>", Action: forward("wallet", "use")},
					{Name: "export", Usage: "show a wallet's recovery phrase", ArgsUsage: "[id]", Action: forward("wallet", "export")},
					{Name: "find", Usage: "probe derivation indexes of a mnemonic", ArgsUsage: "[count]", Action: forward("wallet", "find")},
					{Name: "delete", Usage: "permanently delete a wallet", ArgsUsage: "<id>", Action: forward("wallet", "delete")},
					{Name: "key", Usage: "show a wallet's viewing key", ArgsUsage: "[id]", Action: forward("wallet", "key")},
				},
			},
			{
				Name:  "network",
				Usage: "network lifecycle",
				Subcommands: []*cli.Command{
					{Name: "list", Usage: "list known networks", Action: forward("network", "list")},
					{Name: "connect", Usage: "connect a network and make it active", ArgsUsage: "<name>", Action: forward("network", "connect")},
					{Name: "disconnect", Usage: "disconnect a network", ArgsUsage: "<name>", Action: forward("network", "disconnect")},
					{Name: "switch", Usage: "make a network active", ArgsUsage: "<name>", Action: forward("network", "switch")},
				},
			},
			{
				Name:   "balance",
				Usage:  "show shielded balances",
				Action: forward("balance"),
				Subcommands: []*cli.Command{
					{Name: "refresh", Usage: "pull fresh balance data", Action: forward("balance", "refresh")},
				},
			},
			{Name: "history", Usage: "show shielded transaction history", ArgsUsage: "[startblock]", Action: forward("history")},
			{Name: "sync", Usage: "show or drive chain scanning", ArgsUsage: "[--wait|--full|--reset-txid]", Action: forward("sync")},
			{Name: "status", Usage: "show session state", Action: forward("status")},
		},
	}
}

// forward runs one shell command non-interactively and exits.
func forward(words ...string) cli.ActionFunc {
	return func(c *cli.Context) error {
		return withShell(c, func(ctx context.Context, sh *repl.Shell) error {
			return sh.Exec(ctx, append(words, c.Args().Slice()...))
		})
	}
}

// withShell builds the session from flags, runs fn, and tears down.
func withShell(c *cli.Context, fn func(context.Context, *repl.Shell) error) error {
	cfg := config.Default()
	cfg.DataDir = c.String("datadir")
	cfg.EngineURL = c.String("engine-url")
	cfg.Debug = c.Bool("debug")
	cfg.Log.JSON = c.Bool("log-json")

	if err := log.Init(cfg.LogLevel(), cfg.Log.JSON, ""); err != nil {
		return err
	}

	sess, err := session.Open(c.Context, cfg)
	if err != nil {
		return fmt.Errorf("session init: %w", err)
	}
	defer sess.Close()

	return fn(c.Context, repl.New(sess))
}
