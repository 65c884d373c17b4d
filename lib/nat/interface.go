// Copyright (C) 2015 The Syncthing Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

//go:generate -command counterfeiter go run github.com/maxbrunsfeld/counterfeiter/v6
//go:generate counterfeiter -o mocks/gateway.go --fake-name Gateway . Gateway
//go:generate counterfeiter -o mocks/prober.go --fake-name Prober . Prober

package nat

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/syncthing/natreach/lib/netutil"
)

type Protocol string

const (
	TCP Protocol = "TCP"
	UDP Protocol = "UDP"
)

// Number returns the IANA protocol number.
func (p Protocol) Number() int {
	switch p {
	case TCP:
		return 6
	case UDP:
		return 17
	default:
		return 0
	}
}

type Family = netutil.Family

const (
	IPv4 = netutil.IPv4
	IPv6 = netutil.IPv6
)

// A PortReservation is a local port the caller wants reachable from the
// outside.
type PortReservation struct {
	Port        int
	Protocol    Protocol
	Lease       time.Duration
	Description string
}

func (r PortReservation) String() string {
	return fmt.Sprintf("%s/%d", r.Protocol, r.Port)
}

// A PortMapping pairs a reserved internal port with the external port peers
// should use. External differs from Internal behind a translating NAT.
type PortMapping struct {
	Internal int
	External int
}

func (m PortMapping) String() string {
	return fmt.Sprintf("%d->%d", m.Internal, m.External)
}

// A PinholeID identifies an IPv6 firewall pinhole on a gateway.
type PinholeID uint16

// Tristate is the result of a best effort boolean query.
type Tristate int8

const (
	Unknown Tristate = iota
	False
	True
)

func TristateOf(b bool) Tristate {
	if b {
		return True
	}
	return False
}

func (t Tristate) String() string {
	switch t {
	case False:
		return "false"
	case True:
		return "true"
	default:
		return "unknown"
	}
}

// FirewallStatus is the state of the IPv6 firewall of a gateway.
type FirewallStatus struct {
	Enabled               Tristate
	InboundPinholeAllowed Tristate
}

// ProbeResult is what reflexive address probing learned. The zero value means
// no probing server answered.
type ProbeResult struct {
	Address  net.IP
	Mappings []PortMapping
}

func (r ProbeResult) Empty() bool {
	return r.Address == nil && len(r.Mappings) == 0
}

// External returns the external port reported for the internal port.
func (r ProbeResult) External(internal int) (int, bool) {
	for _, m := range r.Mappings {
		if m.Internal == internal {
			return m.External, true
		}
	}
	return 0, false
}

// A PortMapper can open IPv4 port mappings on a router.
type PortMapper interface {
	ID() string
	// OpenIPv4Port maps the reservation to the internal address and returns
	// the external port the router assigned.
	OpenIPv4Port(ctx context.Context, internal net.IP, r PortReservation) (int, error)
	// CloseIPv4Port removes the mapping for the external port. Errors are
	// logged, never returned.
	CloseIPv4Port(ctx context.Context, externalPort int)
	// GetExternalIPv4Address returns nil when unknown.
	GetExternalIPv4Address(ctx context.Context) net.IP
}

// A Gateway is a UPnP Internet Gateway Device.
type Gateway interface {
	PortMapper
	FriendlyName() string
	// GetLocalIPv4Address returns the local address facing the gateway, or
	// nil.
	GetLocalIPv4Address() net.IP
	GetNATStatus(ctx context.Context) Tristate
	// GetIPv6FirewallStatus returns an error only when ctx is done.
	GetIPv6FirewallStatus(ctx context.Context) (FirewallStatus, error)
	OpenIPv6Port(ctx context.Context, address net.IP, r PortReservation) (PinholeID, error)
	// CloseIPv6Port removes the pinhole. Errors are logged, never returned.
	CloseIPv6Port(ctx context.Context, id PinholeID)
}

// A GatewayFinder locates the preferred gateway. A nil Gateway with a nil
// error means no gateway exists.
type GatewayFinder interface {
	FindGateway(ctx context.Context) (Gateway, error)
}

// A MapperFinder locates a fallback PortMapper, such as a NAT-PMP gateway. A
// nil PortMapper with a nil error means none exists.
type MapperFinder interface {
	FindMapper(ctx context.Context) (PortMapper, error)
}

// A Prober learns the public address and port translations of local ports by
// asking external servers. It never fails; no answer is an empty result.
type Prober interface {
	Probe(ctx context.Context, servers []string, ports []int, family Family, timeout time.Duration) ProbeResult
}

// An AddressSource reports the public IPv4 address by other means, such as
// an HTTP trace endpoint. It returns nil when unknown.
type AddressSource interface {
	ExternalIPv4Address(ctx context.Context) net.IP
}

// SetupResult is everything a SetupPorts call established. It is owned by
// the caller for the lifetime of the session.
type SetupResult struct {
	Gateway Gateway
	// IPv4Mapper holds the router side IPv4 mappings, or is nil when the
	// mappings come from probing or are identity.
	IPv4Mapper   PortMapper
	IPv4Mappings []PortMapping
	IPv6Mappings []PortMapping
	IPv6Pinholes []PinholeID
	IPv6Address  net.IP
	IPv4Address  net.IP
}
