// Copyright (C) 2016 The Syncthing Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

// Package pmp maps IPv4 ports through a NAT-PMP gateway.
package pmp

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	natpmp "github.com/jackpal/go-nat-pmp"

	"github.com/syncthing/natreach/lib/config"
	"github.com/syncthing/natreach/lib/nat"
	"github.com/syncthing/natreach/lib/netutil"
	"github.com/syncthing/natreach/lib/svcutil"
)

// natpmpPort is where gateways listen, per RFC 6886.
const natpmpPort = 5351

// client is the part of *natpmp.Client we use.
type client interface {
	GetExternalAddress() (*natpmp.GetExternalAddressResult, error)
	AddPortMapping(protocol string, internalPort, requestedExternalPort int, lifetime int) (*natpmp.AddPortMappingResult, error)
}

// A Finder locates a NAT-PMP speaking default gateway.
type Finder struct {
	timeout time.Duration
	lease   time.Duration

	discoverGateway func() (net.IP, error)
	newClient       func(gateway net.IP, timeout time.Duration) client
}

var _ nat.MapperFinder = (*Finder)(nil)

func NewFinder(cfg config.Options) *Finder {
	return &Finder{
		timeout:         cfg.RPCTimeout(),
		lease:           cfg.Lease(),
		discoverGateway: netutil.DefaultGateway,
		newClient: func(gateway net.IP, timeout time.Duration) client {
			return natpmp.NewClientWithTimeout(gateway, timeout)
		},
	}
}

func (f *Finder) String() string {
	return "pmp.Finder"
}

// FindMapper returns a mapper for the default gateway, or nil when the
// gateway does not answer NAT-PMP requests.
func (f *Finder) FindMapper(ctx context.Context) (nat.PortMapper, error) {
	var ip net.IP
	err := svcutil.CallWithContext(ctx, func() error {
		var err error
		ip, err = f.discoverGateway()
		return err
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		l.Debugln("Failed to discover gateway", err)
		return nil, nil
	}
	if ip == nil || ip.IsUnspecified() {
		return nil, nil
	}

	l.Debugln("Discovered gateway at", ip)

	c := f.newClient(ip, f.timeout)
	// Try contacting the gateway, if it does not respond, assume it does not
	// speak NAT-PMP.
	var ext *natpmp.GetExternalAddressResult
	err = svcutil.CallWithContext(ctx, func() error {
		var err error
		ext, err = c.GetExternalAddress()
		return err
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		l.Debugf("No NAT-PMP at %s: %v", ip, err)
		return nil, nil
	}
	l.Debugf("NAT-PMP gateway %s reports external address %s", ip, externalIP(ext))

	return &Mapper{
		gatewayIP: ip,
		localIP:   f.localIP(ctx, ip),
		lease:     f.lease,
		client:    c,
		mappings:  make(map[int]int),
	}, nil
}

// localIP returns the local address facing the gateway, or nil.
func (f *Finder) localIP(ctx context.Context, gatewayIP net.IP) net.IP {
	timeoutCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()
	conn, err := (&net.Dialer{}).DialContext(timeoutCtx, "udp4", net.JoinHostPort(gatewayIP.String(), strconv.Itoa(natpmpPort)))
	if err != nil {
		l.Debugln("Failed to lookup local IP", err)
		return nil
	}
	defer conn.Close()
	ip, err := netutil.IPFromAddr(conn.LocalAddr())
	if err != nil {
		l.Debugln("Failed to lookup local IP", err)
	}
	return ip
}

// A Mapper holds the port mappings made on one NAT-PMP gateway.
type Mapper struct {
	gatewayIP net.IP
	localIP   net.IP
	lease     time.Duration
	client    client

	mut sync.Mutex
	// mappings maps external ports to internal ones.
	mappings map[int]int
}

var _ nat.PortMapper = (*Mapper)(nil)

func (m *Mapper) ID() string {
	return fmt.Sprintf("NAT-PMP@%s", m.gatewayIP)
}

func (m *Mapper) String() string {
	return m.ID()
}

// GetLocalIPv4Address returns the address the gateway maps to, or nil.
func (m *Mapper) GetLocalIPv4Address() net.IP {
	return m.localIP
}

// OpenIPv4Port requests the same external port. NAT-PMP always maps to the
// requesting host, so the internal address is only checked.
func (m *Mapper) OpenIPv4Port(ctx context.Context, internal net.IP, r nat.PortReservation) (int, error) {
	if internal != nil && m.localIP != nil && !internal.Equal(m.localIP) {
		l.Debugf("%s: mapping for %s on behalf of %s", m, m.localIP, internal)
	}
	// NAT-PMP says that if duration is 0, the mapping is actually removed.
	lease := r.Lease
	if lease <= 0 {
		lease = m.lease
	}
	var result *natpmp.AddPortMappingResult
	err := svcutil.CallWithContext(ctx, func() error {
		var err error
		result, err = m.client.AddPortMapping(strings.ToLower(string(r.Protocol)), r.Port, r.Port, int(lease/time.Second))
		return err
	})
	if err != nil {
		l.Infof("%s: mapping %s failed: %v", m, r, err)
		return 0, err
	}
	port := int(result.MappedExternalPort)
	if port == 0 {
		err := fmt.Errorf("%s: no external port for %s", m, r)
		l.Infoln(err)
		return 0, err
	}

	m.mut.Lock()
	m.mappings[port] = r.Port
	m.mut.Unlock()

	l.Debugf("%s: mapped %s to external port %d for %ds", m, r, port, result.PortMappingLifetimeInSeconds)
	return port, nil
}

// CloseIPv4Port removes the UDP mapping of the external port by requesting a
// zero lifetime. Failures are logged.
func (m *Mapper) CloseIPv4Port(ctx context.Context, externalPort int) {
	m.mut.Lock()
	internal, ok := m.mappings[externalPort]
	delete(m.mappings, externalPort)
	m.mut.Unlock()
	if !ok {
		l.Infof("%s: no mapping of port %d to remove", m, externalPort)
		return
	}

	err := svcutil.CallWithContext(ctx, func() error {
		_, err := m.client.AddPortMapping(strings.ToLower(string(nat.UDP)), internal, 0, 0)
		return err
	})
	if err != nil {
		l.Infof("%s: removing mapping of port %d failed: %v", m, externalPort, err)
		return
	}
	l.Debugf("%s: removed mapping of port %d", m, externalPort)
}

// GetExternalIPv4Address returns nil when unknown.
func (m *Mapper) GetExternalIPv4Address(ctx context.Context) net.IP {
	var result *natpmp.GetExternalAddressResult
	err := svcutil.CallWithContext(ctx, func() error {
		var err error
		result, err = m.client.GetExternalAddress()
		return err
	})
	if err != nil {
		l.Debugf("%s: GetExternalAddress: %v", m, err)
		return nil
	}
	ip := externalIP(result)
	if ip.IsUnspecified() {
		return nil
	}
	return ip
}

func externalIP(result *natpmp.GetExternalAddressResult) net.IP {
	return net.IPv4(
		result.ExternalIPAddress[0],
		result.ExternalIPAddress[1],
		result.ExternalIPAddress[2],
		result.ExternalIPAddress[3],
	).To4()
}
