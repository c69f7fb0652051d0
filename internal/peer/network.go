package peer

import (
	"net"
	"strings"
)

// cgnat is the 100.64.0.0/10 block used by carrier-grade NAT,
// Cloudflare WARP, and Tailscale. Hosts inside it rarely manage a
// direct connection.
var cgnat = func() *net.IPNet {
	_, block, _ := net.ParseCIDR("100.64.0.0/10")
	return block
}()

// BehindRestrictiveNAT reports whether the host looks like it is on a
// VPN or carrier-grade NAT, where ICE usually needs a TURN relay. It
// is a heuristic: interface names and CGNAT addressing.
func BehindRestrictiveNAT() bool {
	interfaces, err := net.Interfaces()
	if err != nil {
		return false
	}

	for _, iface := range interfaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}

		name := strings.ToLower(iface.Name)
		if strings.Contains(name, "tun") ||
			strings.Contains(name, "tap") ||
			strings.Contains(name, "wg") ||
			strings.Contains(name, "ppp") ||
			strings.Contains(name, "warp") {
			return true
		}

		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		for _, addr := range addrs {
			var ip net.IP
			switch v := addr.(type) {
			case *net.IPNet:
				ip = v.IP
			case *net.IPAddr:
				ip = v.IP
			}
			if cgnat.Contains(ip) {
				return true
			}
		}
	}

	return false
}
