package power

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"syscall"

	"golang.org/x/sys/unix"
)

// DefaultBroadcast is where magic packets go unless configured otherwise.
const DefaultBroadcast = "255.255.255.255:9"

// MagicPacket builds a Wake-on-LAN payload: six 0xFF bytes followed by the
// MAC address repeated sixteen times.
func MagicPacket(mac net.HardwareAddr) ([]byte, error) {
	if len(mac) != 6 {
		return nil, fmt.Errorf("invalid MAC address %s: need 6 bytes, got %d", mac, len(mac))
	}
	var buf bytes.Buffer
	buf.Write(bytes.Repeat([]byte{0xFF}, 6))
	for i := 0; i < 16; i++ {
		buf.Write(mac)
	}
	return buf.Bytes(), nil
}

// WakeOnLAN broadcasts magic packets over UDP.
type WakeOnLAN struct {
	broadcast string
}

// NewWakeOnLAN creates a sender for the given broadcast "ip:port".
func NewWakeOnLAN(broadcast string) *WakeOnLAN {
	if broadcast == "" {
		broadcast = DefaultBroadcast
	}
	return &WakeOnLAN{broadcast: broadcast}
}

// Wake sends one magic packet. It returns once the packet is handed to the
// kernel; whether the TV wakes up is for the caller to confirm.
func (w *WakeOnLAN) Wake(ctx context.Context, mac net.HardwareAddr) error {
	packet, err := MagicPacket(mac)
	if err != nil {
		return err
	}

	dst, err := net.ResolveUDPAddr("udp4", w.broadcast)
	if err != nil {
		return fmt.Errorf("invalid broadcast address %q: %w", w.broadcast, err)
	}

	lc := net.ListenConfig{Control: enableBroadcast}
	conn, err := lc.ListenPacket(ctx, "udp4", ":0")
	if err != nil {
		return fmt.Errorf("failed to open UDP socket: %w", err)
	}
	defer conn.Close()

	if _, err := conn.WriteTo(packet, dst); err != nil {
		return fmt.Errorf("failed to send Wake-on-LAN packet to %s: %w", dst, err)
	}
	return nil
}

func enableBroadcast(network, address string, c syscall.RawConn) error {
	var sockErr error
	err := c.Control(func(fd uintptr) {
		sockErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_BROADCAST, 1)
	})
	if err != nil {
		return err
	}
	return sockErr
}
