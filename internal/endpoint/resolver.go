// Package endpoint resolves (family, host, service) tuples into bound or
// connected UDP sockets, the data-plane and control-plane transport for
// both the client and server roles.
package endpoint

import (
	"fmt"
	"net"
)

// Family selects the address family to resolve against.
type Family int

const (
	// Unspecified prefers IPv6 when the resolved address list contains
	// one, otherwise falls back to IPv4.
	Unspecified Family = iota
	V4
	V6
)

const (
	// defaultSocketBufferBytes sizes the kernel send/receive buffers
	// generously for burst handling, mirroring the teacher's
	// socketRecvBufferSize/socketSendBufferSize constants.
	defaultSocketBufferBytes = 4 * 1024 * 1024
)

func (f Family) network() string {
	switch f {
	case V4:
		return "udp4"
	case V6:
		return "udp6"
	default:
		return "udp"
	}
}

// Create resolves host:service (host may be empty for a bound/passive
// socket) and returns a UDP socket. When passive is true the socket is
// bound via net.ListenUDP; otherwise it is connected via net.DialUDP.
//
// When family is Unspecified and host is non-empty, Create looks host up
// once and uses the first IPv6 address in the result if there is one;
// otherwise it falls back to the runtime's "udp" resolution (IPv4).
func Create(family Family, host, service string, passive bool) (*net.UDPConn, error) {
	addrSpec := net.JoinHostPort(host, service)
	if family == Unspecified && host != "" {
		if ips, err := net.LookupIP(host); err == nil {
			for _, ip := range ips {
				if ip.To4() == nil {
					addrSpec = net.JoinHostPort(ip.String(), service)
					break
				}
			}
		}
	}

	addr, err := net.ResolveUDPAddr(family.network(), addrSpec)
	if err != nil {
		return nil, fmt.Errorf("endpoint: could not resolve %s: %w", addrSpec, err)
	}

	var conn *net.UDPConn
	if passive {
		conn, err = net.ListenUDP(family.network(), addr)
	} else {
		conn, err = net.DialUDP(family.network(), nil, addr)
	}
	if err != nil {
		return nil, fmt.Errorf("endpoint: could not create socket on %s: %w", addrSpec, err)
	}

	_ = conn.SetReadBuffer(defaultSocketBufferBytes)
	_ = conn.SetWriteBuffer(defaultSocketBufferBytes)

	return conn, nil
}
