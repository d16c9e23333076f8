//go:build !windows
// +build !windows

package main

import (
	"bufio"
	"bytes"
	"io"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/creack/pty"
	"golang.org/x/term"
)

func buildBinary(t *testing.T) string {
	t.Helper()
	binPath := filepath.Join(t.TempDir(), "nettest_bin")
	buildCmd := exec.Command("go", "build", "-o", binPath, ".")
	if out, err := buildCmd.CombinedOutput(); err != nil {
		t.Fatalf("failed to build nettest binary: %v\n%s", err, string(out))
	}
	return binPath
}

// freeUDPAddr reserves a loopback port and releases it for the child.
func freeUDPAddr(t *testing.T) string {
	t.Helper()
	conn, err := net.ListenPacket("udp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("reserve port: %v", err)
	}
	addr := conn.LocalAddr().String()
	conn.Close()
	return addr
}

// TestLoopbackRun drives a receiver and a sender process against each other
// over loopback and checks both summaries and the results log.
func TestLoopbackRun(t *testing.T) {
	if testing.Short() {
		t.Skip("builds and runs the binary")
	}
	binPath := buildBinary(t)
	rxAddr := freeUDPAddr(t)
	logDir := t.TempDir()

	var rxOut bytes.Buffer
	rx := exec.Command(binPath, "-m", "receiver", "--log-dir", logDir, "--idle-timeout", "5s", rxAddr, "-")
	rx.Stdout = &rxOut
	rxErr, err := rx.StderrPipe()
	if err != nil {
		t.Fatalf("stderr pipe: %v", err)
	}
	if err := rx.Start(); err != nil {
		t.Fatalf("start receiver: %v", err)
	}
	defer rx.Process.Kill()

	// Wait until the receiver is listening before sending Init
	ready := make(chan struct{})
	go func() {
		sc := bufio.NewScanner(rxErr)
		for sc.Scan() {
			if strings.Contains(sc.Text(), "waiting for Init") {
				close(ready)
				break
			}
		}
		io.Copy(io.Discard, rxErr)
	}()
	select {
	case <-ready:
	case <-time.After(10 * time.Second):
		t.Fatal("receiver never started waiting for Init")
	}

	tx := exec.Command(binPath, "-m", "sender", "-c", "200", "-l", "64", "--pps", "2000",
		"--handshake-timeout", "5s", "127.0.0.1:0", rxAddr)
	txOut, err := tx.Output()
	if err != nil {
		t.Fatalf("sender failed: %v\n%s", err, txOut)
	}
	if !strings.Contains(string(txOut), "Packets transmitted     : 200") {
		t.Errorf("sender summary:\n%s", txOut)
	}

	done := make(chan error, 1)
	go func() { done <- rx.Wait() }()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("receiver exited with error: %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("receiver did not finish")
	}

	out := rxOut.String()
	for _, want := range []string{
		"start: ",
		"Received exit: End reception",
		"Number of packets received : 200",
		"Total bytes received       : 12800",
		"duplicated packets         : 0",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("receiver output missing %q:\n%s", want, out)
		}
	}

	logs, _ := filepath.Glob(filepath.Join(logDir, "nettest_benchmark_*.txt"))
	if len(logs) != 1 {
		t.Fatalf("got results logs %v, want one", logs)
	}
	logged, err := os.ReadFile(logs[0])
	if err != nil {
		t.Fatal(err)
	}
	if string(logged) != out {
		t.Errorf("results log differs from stdout:\n%s", logged)
	}
}

func TestTerminalWidth(t *testing.T) {
	master, slave, err := pty.Open()
	if err != nil {
		t.Skipf("open pty: %v", err)
	}
	defer master.Close()
	defer slave.Close()

	if err := pty.Setsize(master, &pty.Winsize{Rows: 30, Cols: 100}); err != nil {
		t.Fatalf("setsize: %v", err)
	}
	if !term.IsTerminal(int(slave.Fd())) {
		t.Fatal("pty slave is not a terminal")
	}
	if got := terminalWidth(int(slave.Fd())); got != 100 {
		t.Errorf("terminalWidth = %d, want 100", got)
	}

	// Not a terminal: fall back to the default rule
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	defer w.Close()
	if got := terminalWidth(int(w.Fd())); got != 72 {
		t.Errorf("terminalWidth(pipe) = %d, want 72", got)
	}
}
