// Copyright (C) 2023 The Syncthing Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

// Package netutil enumerates local addresses per address family and
// classifies them.
package netutil

import (
	"context"
	"fmt"
	"io"
	"net"
	"runtime"
	"strings"

	"github.com/jackpal/gateway"
)

// Family is an IP address family.
type Family int

const (
	IPv4 Family = 4
	IPv6 Family = 6
)

func (f Family) String() string {
	switch f {
	case IPv4:
		return "IPv4"
	case IPv6:
		return "IPv6"
	default:
		return fmt.Sprintf("Family(%d)", int(f))
	}
}

// Network returns the family specific variant of the given network, i.e.
// "udp" becomes "udp4" or "udp6".
func (f Family) Network(network string) string {
	switch f {
	case IPv4:
		return network + "4"
	case IPv6:
		return network + "6"
	default:
		return network
	}
}

// Contains returns true if the IP belongs to the family.
func (f Family) Contains(ip net.IP) bool {
	if ip == nil {
		return false
	}
	if ip.To4() != nil {
		return f == IPv4
	}
	return f == IPv6 && len(ip) == net.IPv6len
}

// FamilyOf returns the family of the given IP.
func FamilyOf(ip net.IP) Family {
	if ip.To4() != nil {
		return IPv4
	}
	return IPv6
}

var (
	_, cgnatNet     = mustParseCIDR("100.64.0.0/10")
	_, siteLocal6   = mustParseCIDR("fec0::/10")
	_, uniqueLocal6 = mustParseCIDR("fc00::/7")
)

func mustParseCIDR(s string) (net.IP, *net.IPNet) {
	ip, n, err := net.ParseCIDR(s)
	if err != nil {
		panic(err)
	}
	return ip, n
}

// IsPublic returns true for global unicast addresses that are not in a
// private, carrier grade NAT or unique local range.
func IsPublic(ip net.IP) bool {
	if ip == nil || !ip.IsGlobalUnicast() || ip.IsPrivate() {
		return false
	}
	if cgnatNet.Contains(ip) || siteLocal6.Contains(ip) {
		return false
	}
	return true
}

// IsSiteLocal returns true for IPv6 site local (deprecated fec0::/10) and
// unique local (fc00::/7) addresses.
func IsSiteLocal(ip net.IP) bool {
	if ip.To4() != nil {
		return false
	}
	return siteLocal6.Contains(ip) || uniqueLocal6.Contains(ip)
}

// LocalAddresses returns the unicast addresses of the given family on all
// interfaces that are up, excluding loopback. IPv6 link local addresses
// carry their interface name as zone.
func LocalAddresses(family Family) ([]*net.IPAddr, error) {
	intfs, err := interfaces()
	if err != nil {
		return nil, err
	}

	var res []*net.IPAddr
	for i := range intfs {
		intf := intfs[i]

		// Interface flags seem to always be 0 on Windows
		if runtime.GOOS != "windows" && intf.Flags&net.FlagUp == 0 {
			continue
		}
		if intf.Flags&net.FlagLoopback != 0 {
			continue
		}

		addrs, err := interfaceAddrs(&intf)
		if err != nil {
			l.Debugln("Listing addresses of", intf.Name, err)
			continue
		}
		for _, addr := range addrs {
			ip, err := IPFromAddr(addr)
			if err != nil || ip == nil || !family.Contains(ip) || ip.IsLoopback() {
				continue
			}
			ipAddr := &net.IPAddr{IP: ip}
			if ip.IsLinkLocalUnicast() && family == IPv6 {
				ipAddr.Zone = intf.Name
			}
			res = append(res, ipAddr)
		}
	}
	return res, nil
}

// PublicAddress returns the first locally configured public address of the
// given family, or nil.
func PublicAddress(family Family) net.IP {
	addrs, err := LocalAddresses(family)
	if err != nil {
		l.Debugln("Listing local addresses:", err)
		return nil
	}
	for _, addr := range addrs {
		if IsPublic(addr.IP) {
			return addr.IP
		}
	}
	return nil
}

// InterfaceByAddress returns the interface that carries the address.
func InterfaceByAddress(ip net.IP) (*net.Interface, error) {
	intfs, err := interfaces()
	if err != nil {
		return nil, err
	}
	for i := range intfs {
		addrs, err := interfaceAddrs(&intfs[i])
		if err != nil {
			continue
		}
		for _, addr := range addrs {
			if a, err := IPFromAddr(addr); err == nil && a.Equal(ip) {
				return &intfs[i], nil
			}
		}
	}
	return nil, fmt.Errorf("no interface with address %s", ip)
}

// CloseOnDone closes c when ctx is done, unblocking pending reads. The
// returned function stops the watch.
func CloseOnDone(ctx context.Context, c io.Closer) (stop func() bool) {
	return context.AfterFunc(ctx, func() {
		c.Close()
	})
}

// GatewayInterfaceAddress returns the IPv4 address of the interface holding
// the default route.
func GatewayInterfaceAddress() (net.IP, error) {
	return gateway.DiscoverInterface()
}

// DefaultGateway returns the IPv4 address of the default gateway.
func DefaultGateway() (net.IP, error) {
	return gateway.DiscoverGateway()
}

// IPFromString parses an address that may carry a port and an IPv6 zone.
func IPFromString(addr string) net.IP {
	// strip the port
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		host = addr
	}
	// strip IPv6 zone identifier
	host, _, _ = strings.Cut(host, "%")
	return net.ParseIP(host)
}

func IPFromAddr(addr net.Addr) (net.IP, error) {
	switch a := addr.(type) {
	case *net.IPNet:
		return a.IP, nil
	case *net.IPAddr:
		return a.IP, nil
	case *net.TCPAddr:
		return a.IP, nil
	case *net.UDPAddr:
		return a.IP, nil
	default:
		host, _, err := net.SplitHostPort(addr.String())
		return net.ParseIP(host), err
	}
}
