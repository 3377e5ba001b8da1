// Package repl implements the interactive shell: a command registry with
// two-word canonical names and short aliases, a prompt reflecting the
// active selection, and the read-dispatch loop.
package repl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/umbra-cash/umbra-wallet/internal/errs"
	"github.com/umbra-cash/umbra-wallet/internal/log"
)

// errExit signals a clean shutdown request from a handler.
var errExit = errors.New("exit requested")

// Command is one shell command. Name is canonical and may be two words
// ("wallet create"); aliases are single tokens.
type Command struct {
	Name    string
	Aliases []string
	Usage   string
	Short   string
	Run     func(ctx context.Context, sh *Shell, args []string) error
}

// buildIndex maps every canonical name and alias to its command.
func buildIndex(commands []*Command) map[string]*Command {
	index := make(map[string]*Command)
	for _, cmd := range commands {
		index[cmd.Name] = cmd
		for _, alias := range cmd.Aliases {
			index[alias] = cmd
		}
	}
	return index
}

// resolve matches input tokens to a command. Two-word canonical names win
// over one-word ones, so "wallet create x" never hits a bare "wallet".
func (sh *Shell) resolve(tokens []string) (*Command, []string, bool) {
	if len(tokens) >= 2 {
		if cmd, ok := sh.index[tokens[0]+" "+tokens[1]]; ok {
			return cmd, tokens[2:], true
		}
	}
	if cmd, ok := sh.index[tokens[0]]; ok {
		return cmd, tokens[1:], true
	}
	return nil, nil, false
}

// Dispatch parses one input line and runs the matched command. Unknown
// input and handler failures are rendered and swallowed; only an exit
// request stops the loop.
func (sh *Shell) Dispatch(ctx context.Context, line string) (exit bool) {
	tokens := strings.Fields(line)
	if len(tokens) == 0 {
		return false
	}

	cmd, args, ok := sh.resolve(tokens)
	if !ok {
		fmt.Fprintf(sh.out, "unknown command %q (try: help)\n", tokens[0])
		return false
	}

	if err := cmd.Run(ctx, sh, args); err != nil {
		if errors.Is(err, errExit) {
			return true
		}
		sh.renderError(cmd, err)
	}
	return false
}

// Exec resolves and runs one command, surfacing the handler error to the
// caller. This is the one-shot (non-interactive) entry point.
func (sh *Shell) Exec(ctx context.Context, tokens []string) error {
	if len(tokens) == 0 {
		return errs.New(errs.Validation, "no command given")
	}
	cmd, args, ok := sh.resolve(tokens)
	if !ok {
		return errs.New(errs.Validation, "unknown command %q", tokens[0])
	}
	return cmd.Run(ctx, sh, args)
}

// renderError prints a handler failure in taxonomy-aware form and keeps
// the loop alive.
func (sh *Shell) renderError(cmd *Command, err error) {
	log.Shell.Debug().Err(err).Str("command", cmd.Name).Msg("command failed")
	switch errs.KindOf(err) {
	case errs.Validation:
		fmt.Fprintf(sh.out, "%v\n", err)
	case errs.NotFound:
		fmt.Fprintf(sh.out, "%v\n", err)
	case errs.State:
		fmt.Fprintf(sh.out, "%v\n", err)
	case errs.Engine:
		fmt.Fprintf(sh.out, "engine error: %v\n", err)
	case errs.IO:
		fmt.Fprintf(sh.out, "storage error: %v\n", err)
	default:
		fmt.Fprintf(sh.out, "error: %v\n", err)
	}
}

// usageError is the common shape for wrong-arity handler input.
func usageError(usage string) error {
	return errs.New(errs.Validation, "usage: %s", usage)
}

// writeHelp renders the command table in registration order.
func writeHelp(w io.Writer, commands []*Command) {
	fmt.Fprintln(w, "Commands:")
	for _, cmd := range commands {
		alias := ""
		if len(cmd.Aliases) > 0 {
			alias = " (" + strings.Join(cmd.Aliases, ", ") + ")"
		}
		fmt.Fprintf(w, "  %-28s %s\n", cmd.Usage, cmd.Short+alias)
	}
}
