package power

import (
	"fmt"
	"net"
	"net/netip"
)

// Identity is how tv-power reaches the TV: the MAC address for Wake-on-LAN
// and the IP address plus adb port for everything else. Either half may be
// zero for one-shot commands that don't need it.
type Identity struct {
	MAC  net.HardwareAddr
	Addr netip.AddrPort
}

// ParseIdentity parses a MAC address and an "ip:port" address. Empty
// strings leave the corresponding field zero.
func ParseIdentity(mac, addr string) (Identity, error) {
	var id Identity
	if mac != "" {
		hw, err := net.ParseMAC(mac)
		if err != nil {
			return Identity{}, fmt.Errorf("invalid MAC address %q: %w", mac, err)
		}
		if len(hw) != 6 {
			return Identity{}, fmt.Errorf("invalid MAC address %q: Wake-on-LAN needs a 6-byte address", mac)
		}
		id.MAC = hw
	}
	if addr != "" {
		ap, err := netip.ParseAddrPort(addr)
		if err != nil {
			return Identity{}, fmt.Errorf("invalid TV address %q (expected ip:port, usually port 5555): %w", addr, err)
		}
		id.Addr = ap
	}
	return id, nil
}

func (id Identity) String() string {
	return fmt.Sprintf("mac=%s addr=%s", id.MAC, id.Addr)
}
