package adb

import (
	"context"
	"errors"
	"net/netip"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dokzlo13/tvpower/internal/subprocess"
)

var tvAddr = netip.MustParseAddrPort("192.168.1.50:5555")

// fakeADB writes a shell script standing in for adb. Every invocation is
// appended to the returned log file.
func fakeADB(t *testing.T, connectReply string, shellBody string) (binary, logPath string) {
	t.Helper()
	dir := t.TempDir()
	logPath = filepath.Join(dir, "calls.log")
	binary = filepath.Join(dir, "adb")

	script := "#!/bin/sh\n" +
		"echo \"$@\" >> " + logPath + "\n" +
		"if [ \"$1\" = connect ]; then\n" +
		"  echo \"" + connectReply + "\"\n" +
		"  exit 0\n" +
		"fi\n" +
		shellBody + "\n"
	if err := os.WriteFile(binary, []byte(script), 0o755); err != nil {
		t.Fatalf("write fake adb: %v", err)
	}
	return binary, logPath
}

func readCalls(t *testing.T, logPath string) []string {
	t.Helper()
	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read calls: %v", err)
	}
	return strings.Split(strings.TrimSpace(string(data)), "\n")
}

func TestSendKeycode(t *testing.T) {
	binary, logPath := fakeADB(t, "connected to 192.168.1.50:5555", "exit 0")
	client := New(binary)

	if err := client.SendKeycode(context.Background(), tvAddr, KeycodePower, 0); err != nil {
		t.Fatalf("SendKeycode() error = %v", err)
	}

	calls := readCalls(t, logPath)
	want := []string{
		"connect 192.168.1.50:5555",
		"-s 192.168.1.50:5555 shell input keyevent 26",
	}
	if len(calls) != len(want) {
		t.Fatalf("calls = %q, want %q", calls, want)
	}
	for i := range want {
		if calls[i] != want[i] {
			t.Errorf("call %d = %q, want %q", i, calls[i], want[i])
		}
	}
}

func TestSendKeycodes_JoinsIntoOneShell(t *testing.T) {
	binary, logPath := fakeADB(t, "already connected to 192.168.1.50:5555", "exit 0")
	client := New(binary)

	if err := client.SendKeycodes(context.Background(), tvAddr, []int{3, 26}, time.Second); err != nil {
		t.Fatalf("SendKeycodes() error = %v", err)
	}

	calls := readCalls(t, logPath)
	if got, want := calls[len(calls)-1], "-s 192.168.1.50:5555 shell input keyevent 3 && input keyevent 26"; got != want {
		t.Errorf("shell call = %q, want %q", got, want)
	}
}

func TestConnect_FailedReply(t *testing.T) {
	binary, _ := fakeADB(t, "failed to connect to '192.168.1.50:5555': Connection refused", "exit 0")
	client := New(binary)

	err := client.SendKeycode(context.Background(), tvAddr, KeycodePower, time.Second)

	var connErr *ConnectError
	if !errors.As(err, &connErr) {
		t.Fatalf("error = %v, want *ConnectError", err)
	}
	if connErr.Addr != tvAddr {
		t.Errorf("Addr = %v, want %v", connErr.Addr, tvAddr)
	}
}

func TestShell_NonzeroExit(t *testing.T) {
	binary, _ := fakeADB(t, "connected to 192.168.1.50:5555", "exit 1")
	client := New(binary)

	err := client.SendKeycode(context.Background(), tvAddr, KeycodePower, time.Second)

	var exitErr *subprocess.ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("error = %v, want *subprocess.ExitError", err)
	}
	if exitErr.Code != 1 {
		t.Errorf("Code = %d, want 1", exitErr.Code)
	}
}

func TestShell_Timeout(t *testing.T) {
	binary, _ := fakeADB(t, "connected to 192.168.1.50:5555", "exec sleep 10")
	client := New(binary)

	err := client.SendKeycode(context.Background(), tvAddr, KeycodePower, 200*time.Millisecond)

	var deadlineErr *subprocess.DeadlineError
	if !errors.As(err, &deadlineErr) {
		t.Fatalf("error = %v, want *subprocess.DeadlineError", err)
	}
}

func TestMissingBinary(t *testing.T) {
	client := New(filepath.Join(t.TempDir(), "no-adb-here"))

	err := client.SendKeycode(context.Background(), tvAddr, KeycodePower, time.Second)

	var invErr *subprocess.InvocationError
	if !errors.As(err, &invErr) {
		t.Fatalf("error = %v, want *subprocess.InvocationError", err)
	}
	if !strings.Contains(err.Error(), "adb is installed") {
		t.Errorf("error %q should carry the install hint", err.Error())
	}
}
