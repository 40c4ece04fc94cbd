package notify

import (
	"net"
	"path/filepath"
	"testing"
	"time"
)

func listen(t *testing.T) *net.UnixConn {
	t.Helper()
	path := filepath.Join(t.TempDir(), "notify.sock")
	conn, err := net.ListenUnixgram("unixgram", &net.UnixAddr{Name: path, Net: "unixgram"})
	if err != nil {
		t.Fatalf("ListenUnixgram() error = %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	t.Setenv("NOTIFY_SOCKET", path)
	return conn
}

func read(t *testing.T, conn *net.UnixConn) string {
	t.Helper()
	buf := make([]byte, 256)
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	n, err := conn.Read(buf)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	return string(buf[:n])
}

func TestNotifier_Messages(t *testing.T) {
	conn := listen(t)
	n := New()

	tests := []struct {
		send func()
		want string
	}{
		{send: n.Ready, want: "READY=1"},
		{send: func() { n.Status("Turning TV on") }, want: "STATUS=Turning TV on"},
		{send: n.Stopping, want: "STOPPING=1"},
	}
	for _, tt := range tests {
		tt.send()
		if got := read(t, conn); got != tt.want {
			t.Errorf("message = %q, want %q", got, tt.want)
		}
	}
}

func TestNotifier_NoSocket(t *testing.T) {
	t.Setenv("NOTIFY_SOCKET", "")
	n := New()
	// Must not panic or block.
	n.Ready()
	n.Status("Idle")
}
