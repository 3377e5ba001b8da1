package repl

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/umbra-cash/umbra-wallet/internal/errs"
	"github.com/umbra-cash/umbra-wallet/internal/session"
	"github.com/umbra-cash/umbra-wallet/internal/wallet"
)

// Shell is the interactive command loop over one session.
type Shell struct {
	sess *session.Context
	out  io.Writer

	// readPassword reads a secret without echo. Swapped in tests.
	readPassword func(prompt string) (string, error)

	// lines carries input lines from the reader goroutine; readErr
	// carries its terminal error (io.EOF on closed stdin).
	lines   chan string
	readErr chan error

	commands []*Command
	index    map[string]*Command
}

// New builds a shell on stdin/stdout.
func New(sess *session.Context) *Shell {
	sh := &Shell{
		sess:         sess,
		out:          os.Stdout,
		readPassword: terminalPassword,
		lines:        make(chan string),
		readErr:      make(chan error, 1),
	}
	sh.commands = registry()
	sh.index = buildIndex(sh.commands)

	go func() {
		r := bufio.NewReader(os.Stdin)
		for {
			line, err := r.ReadString('\n')
			if len(line) > 0 {
				sh.lines <- line
			}
			if err != nil {
				sh.readErr <- err
				return
			}
		}
	}()
	return sh
}

// Run drives the loop until an exit command, stdin EOF, or ctx
// cancellation (SIGINT/SIGTERM via the caller's NotifyContext). Teardown
// belongs to the caller.
func (sh *Shell) Run(ctx context.Context) error {
	fmt.Fprintln(sh.out, "umbra shell — type help for commands")
	for {
		fmt.Fprint(sh.out, promptFor(sh.sess))
		select {
		case <-ctx.Done():
			fmt.Fprintln(sh.out)
			return nil
		case err := <-sh.readErr:
			fmt.Fprintln(sh.out)
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		case line := <-sh.lines:
			if sh.Dispatch(ctx, line) {
				return nil
			}
		}
	}
}

// readLine prompts for one visible line of input mid-command. A closed
// input stream is re-queued on readErr so the Run loop still sees it and
// shuts down instead of blocking on a channel that will never fill again.
func (sh *Shell) readLine(ctx context.Context, prompt string) (string, error) {
	fmt.Fprint(sh.out, prompt)
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case err := <-sh.readErr:
		sh.readErr <- err
		return "", errs.Wrap(errs.IO, err)
	case line := <-sh.lines:
		return strings.TrimSpace(line), nil
	}
}

// promptPassword reads a password for unlocking an existing wallet.
func (sh *Shell) promptPassword() (string, error) {
	pw, err := sh.readPassword("Password: ")
	if err != nil {
		return "", errs.Wrap(errs.IO, err)
	}
	return pw, nil
}

// promptNewPassword reads and confirms a password for a new wallet.
func (sh *Shell) promptNewPassword() (string, error) {
	pw, err := sh.readPassword("New password: ")
	if err != nil {
		return "", errs.Wrap(errs.IO, err)
	}
	if len(pw) < wallet.MinPasswordLen {
		return "", errs.New(errs.Validation, "password must be at least %d characters", wallet.MinPasswordLen)
	}
	confirm, err := sh.readPassword("Confirm password: ")
	if err != nil {
		return "", errs.Wrap(errs.IO, err)
	}
	if pw != confirm {
		return "", errs.New(errs.Validation, "passwords do not match")
	}
	return pw, nil
}

// terminalPassword reads a secret from the controlling terminal with echo
// off. The prompt goes to stderr so piped stdout stays clean.
func terminalPassword(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	defer fmt.Fprintln(os.Stderr)
	raw, err := term.ReadPassword(int(os.Stdin.Fd()))
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(raw), nil
}
