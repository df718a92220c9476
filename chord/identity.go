package chord

import (
	"fmt"
	"net"
)

// PeerIdentity is the triple (node_id, ipv4, port) that addresses a peer
// (spec.md §3). Equality is by node id only.
type PeerIdentity struct {
	ID   ID
	IP   [4]byte
	Port uint16
}

func peerIdentityFromAddr(id ID, ip net.IP, port uint16) PeerIdentity {
	var p PeerIdentity
	p.ID = id
	p.Port = port
	ip4 := ip.To4()
	if ip4 != nil {
		copy(p.IP[:], ip4)
	}
	return p
}

func (p PeerIdentity) Addr() string {
	return fmt.Sprintf("%d.%d.%d.%d:%d", p.IP[0], p.IP[1], p.IP[2], p.IP[3], p.Port)
}

func (p PeerIdentity) String() string {
	return fmt.Sprintf("peer(id=%d, addr=%s)", p.ID, p.Addr())
}

// parseIPv4 returns the 4-byte big-endian form of an IPv4 address string,
// or the zero address if it does not parse.
func parseIPv4(s string) []byte {
	ip := net.ParseIP(s)
	if ip4 := ip.To4(); ip4 != nil {
		return ip4
	}
	return make([]byte, 4)
}
