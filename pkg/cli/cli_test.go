package cli

import (
	"bufio"
	"errors"
	"io"
	"strings"
	"testing"
	"testing/iotest"
	"time"

	"github.com/Fepozopo/milk/pkg/milk"
)

// runShellWithin runs the shell over r and fails if it has not returned by the deadline.
func runShellWithin(t *testing.T, r io.Reader) string {
	t.Helper()
	store := NewOptionStore(milk.Options)
	m := milk.New()
	return captureStdout(t, func() {
		done := make(chan struct{})
		go func() {
			runShell(bufio.NewReader(r), store, m)
			close(done)
		}()
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Fatal("shell did not return")
		}
	})
}

func TestRunShellStopsOnReadError(t *testing.T) {
	runShellWithin(t, iotest.ErrReader(errors.New("device gone")))
}

func TestRunShellStopsAfterPartialReadError(t *testing.T) {
	r := io.MultiReader(strings.NewReader("c\n"), iotest.ErrReader(errors.New("device gone")))
	out := runShellWithin(t, r)
	if !strings.Contains(out, "enabled    = true") {
		t.Fatalf("config listing missing before the error:\n%s", out)
	}
}

func TestRunShellCommands(t *testing.T) {
	out := runShellWithin(t, strings.NewReader("\nzz\np\nq\nc\n"))
	if !strings.Contains(out, `unknown command "zz"`) {
		t.Fatalf("unknown command not reported:\n%s", out)
	}
	if !strings.Contains(out, "No image loaded") {
		t.Fatalf("process without image not reported:\n%s", out)
	}
	if !strings.Contains(out, "Exiting...") || strings.Contains(out, "enabled    =") {
		t.Fatalf("shell should stop at q:\n%s", out)
	}
}

func TestRunShellStopsAtEOF(t *testing.T) {
	runShellWithin(t, strings.NewReader("h"))
}
