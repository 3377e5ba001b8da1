package repl

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/umbra-cash/umbra-wallet/config"
	"github.com/umbra-cash/umbra-wallet/internal/engine/enginetest"
	"github.com/umbra-cash/umbra-wallet/internal/session"
	"github.com/umbra-cash/umbra-wallet/internal/storage"
)

const testMnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"

// newTestShell builds a shell over a fake engine with scriptable input.
// Queue visible lines with pushLine and secrets with scriptPasswords.
func newTestShell(t *testing.T) (*Shell, *enginetest.Fake, *bytes.Buffer) {
	t.Helper()
	cfg := config.Default()
	cfg.DataDir = t.TempDir()
	fake := enginetest.New()
	sess := session.New(cfg, storage.NewMemory(), fake)
	t.Cleanup(func() { sess.Close() })

	out := &bytes.Buffer{}
	sh := &Shell{
		sess:    sess,
		out:     out,
		lines:   make(chan string, 8),
		readErr: make(chan error, 1),
	}
	sh.commands = registry()
	sh.index = buildIndex(sh.commands)
	sh.readPassword = func(string) (string, error) {
		t.Fatal("unexpected password prompt")
		return "", nil
	}
	return sh, fake, out
}

func (sh *Shell) pushLine(line string) {
	sh.lines <- line + "\n"
}

func scriptPasswords(sh *Shell, passwords ...string) {
	i := 0
	sh.readPassword = func(string) (string, error) {
		pw := passwords[i%len(passwords)]
		i++
		return pw, nil
	}
}

func TestResolve_TwoWordPriority(t *testing.T) {
	sh, _, _ := newTestShell(t)

	cmd, args, ok := sh.resolve([]string{"wallet", "create", "3"})
	if !ok || cmd.Name != "wallet create" {
		t.Fatalf("resolve(wallet create 3) = %v, ok=%v", cmd, ok)
	}
	if len(args) != 1 || args[0] != "3" {
		t.Errorf("args = %v, want [3]", args)
	}
}

func TestResolve_Aliases(t *testing.T) {
	sh, _, _ := newTestShell(t)

	cases := map[string]string{
		"st":    "status",
		"?":     "help",
		"q":     "exit",
		"wc":    "wallet create",
		"wload": "wallet load",
		"nc":    "network connect",
		"bal":   "balance",
		"br":    "balance refresh",
		"hist":  "history",
		"sy":    "sync",
	}
	for alias, want := range cases {
		cmd, _, ok := sh.resolve([]string{alias})
		if !ok || cmd.Name != want {
			t.Errorf("resolve(%q) = %v, want %q", alias, cmd, want)
		}
	}
}

func TestDispatch_UnknownCommandContinues(t *testing.T) {
	sh, _, out := newTestShell(t)

	if exit := sh.Dispatch(context.Background(), "bogus nonsense"); exit {
		t.Error("unknown command must not exit the loop")
	}
	if !strings.Contains(out.String(), "unknown command") {
		t.Errorf("output = %q, want unknown-command message", out.String())
	}
}

func TestDispatch_EmptyLine(t *testing.T) {
	sh, _, out := newTestShell(t)

	if exit := sh.Dispatch(context.Background(), "   \n"); exit {
		t.Error("empty line must not exit")
	}
	if out.Len() != 0 {
		t.Errorf("empty line produced output %q", out.String())
	}
}

func TestDispatch_Exit(t *testing.T) {
	sh, _, _ := newTestShell(t)

	if !sh.Dispatch(context.Background(), "exit") {
		t.Error("exit must stop the loop")
	}
	if !sh.Dispatch(context.Background(), "q") {
		t.Error("alias q must stop the loop")
	}
}

func TestDispatch_HandlerErrorContinues(t *testing.T) {
	sh, _, out := newTestShell(t)

	// Unknown wallet id: NotFound rendered, loop survives.
	if exit := sh.Dispatch(context.Background(), "wallet use nope"); exit {
		t.Error("handler error must not exit the loop")
	}
	if !strings.Contains(out.String(), "not found") {
		t.Errorf("output = %q, want a not-found message", out.String())
	}
}

func TestDispatch_UsageOnBadArity(t *testing.T) {
	sh, _, out := newTestShell(t)

	sh.Dispatch(context.Background(), "network connect")
	if !strings.Contains(out.String(), "usage: network connect <name>") {
		t.Errorf("output = %q, want usage line", out.String())
	}
}

// Closing stdin while a command is prompting for input must still shut
// the shell down: the closure is re-queued for the Run loop rather than
// consumed once by the prompt.
func TestRun_ExitsAfterEOFMidPrompt(t *testing.T) {
	sh, _, _ := newTestShell(t)
	ctx := context.Background()

	// The import prompt hits the closed stream first.
	sh.readErr <- io.EOF
	if exit := sh.Dispatch(ctx, "wallet import"); exit {
		t.Fatal("mid-command EOF must not be treated as an exit command")
	}

	done := make(chan error, 1)
	go func() { done <- sh.Run(ctx) }()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() = %v, want nil on closed input", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after the input stream closed")
	}
}

func TestHelp_ListsEveryCommand(t *testing.T) {
	sh, _, out := newTestShell(t)

	sh.Dispatch(context.Background(), "help")
	for _, cmd := range sh.commands {
		if !strings.Contains(out.String(), cmd.Usage) {
			t.Errorf("help output missing %q", cmd.Usage)
		}
	}
}
