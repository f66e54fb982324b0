// Copyright 2025 The packetd Authors
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package socket holds the small address types shared by the stream engine,
// the sample engine and the log pipeline: an endpoint is always named by an
// IP + port pair, never by a raw net.Conn.
package socket

import (
	"fmt"
	"net"
	"time"
)

const (
	// TCPMsl bounds the retry/redispatch back-off ceilings and the
	// connection-reuse guard window.
	TCPMsl = 2 * time.Minute
)

// Version is the IP family of an address.
type Version uint8

const (
	V4 Version = iota
	V6
)

// IPV wraps a net.IP with its family, stored inline to avoid a heap
// allocation per endpoint.
type IPV struct {
	IP      [net.IPv6len]byte
	Version Version
}

// ToIPV converts a net.IP into an IPV, picking the family from the length
// of the 4-in-6 mapped form.
func ToIPV(ip net.IP) IPV {
	var dst [net.IPv6len]byte
	v := V6
	if ip4 := ip.To4(); ip4 != nil {
		copy(dst[:], ip4)
		v = V4
	} else {
		copy(dst[:], ip.To16())
	}
	return IPV{IP: dst, Version: v}
}

// NetIP converts an IPV back into a net.IP.
func (ipv IPV) NetIP() net.IP {
	if ipv.Version == V4 {
		return net.IP(ipv.IP[:net.IPv4len])
	}
	return net.IP(ipv.IP[:])
}

func (ipv IPV) String() string {
	return ipv.NetIP().String()
}

// Port is a TCP/UDP port number.
type Port uint16

// Tuple identifies the two ends of a connection: the client-facing address
// and the server-facing address a Stream was established between.
type Tuple struct {
	SrcIP   IPV
	DstIP   IPV
	SrcPort Port
	DstPort Port
}

// FromAddrs builds a Tuple from the local/remote net.Addr of an accepted or
// dialed connection.
func FromAddrs(local, remote net.Addr) Tuple {
	return Tuple{
		SrcIP:   ToIPV(addrIP(remote)),
		SrcPort: Port(addrPort(remote)),
		DstIP:   ToIPV(addrIP(local)),
		DstPort: Port(addrPort(local)),
	}
}

func addrIP(a net.Addr) net.IP {
	if t, ok := a.(*net.TCPAddr); ok {
		return t.IP
	}
	host, _, err := net.SplitHostPort(a.String())
	if err != nil {
		return net.IPv4zero
	}
	return net.ParseIP(host)
}

func addrPort(a net.Addr) int {
	if t, ok := a.(*net.TCPAddr); ok {
		return t.Port
	}
	_, port, err := net.SplitHostPort(a.String())
	if err != nil {
		return 0
	}
	var p int
	fmt.Sscanf(port, "%d", &p)
	return p
}

func (t Tuple) String() string {
	return fmt.Sprintf("%s:%d > %s:%d", t.SrcIP, t.SrcPort, t.DstIP, t.DstPort)
}

// Mirror returns the tuple as seen from the other side of the connection.
func (t Tuple) Mirror() Tuple {
	return Tuple{
		SrcIP:   t.DstIP,
		DstIP:   t.SrcIP,
		SrcPort: t.DstPort,
		DstPort: t.SrcPort,
	}
}

// L4Proto is the transport-layer protocol of a frontend/backend.
type L4Proto string

const (
	L4ProtoTCP L4Proto = "tcp"
	L4ProtoUDP L4Proto = "udp"
)
