// Copyright (C) 2024 The Syncthing Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

// Package stun learns the reflexive transport addresses of local ports from
// STUN servers, and classifies the NAT in front of us.
package stun

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	pion "github.com/pion/stun"

	"github.com/syncthing/natreach/lib/nat"
	"github.com/syncthing/natreach/lib/netutil"
)

const (
	defaultPort    = "3478"
	maxMessageSize = 1500
)

var errTransactionMismatch = errors.New("transaction ID mismatch")

// A Prober sends STUN Binding Requests from local ports and reports the
// addresses the servers saw them come from.
type Prober struct {
	resolver *net.Resolver
}

var _ nat.Prober = (*Prober)(nil)

func NewProber() *Prober {
	return &Prober{resolver: net.DefaultResolver}
}

func (p *Prober) String() string {
	return "stun.Prober"
}

// Probe binds each port and asks every server at once; the first valid
// answer per port wins. The public address is the one most ports observed.
// Ports that cannot be bound are skipped. Without any answer the result is
// empty.
func (p *Prober) Probe(ctx context.Context, servers []string, ports []int, family nat.Family, timeout time.Duration) nat.ProbeResult {
	if len(ports) == 0 {
		return nat.ProbeResult{}
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	addrs := p.resolve(ctx, servers, family)
	if len(addrs) == 0 {
		l.Debugf("No %s STUN server among %v", family, servers)
		return nat.ProbeResult{}
	}

	observed := make([]*net.UDPAddr, len(ports))
	var wg sync.WaitGroup
	for i, port := range ports {
		wg.Add(1)
		go func() {
			defer wg.Done()
			observed[i] = probePort(ctx, addrs, port, family)
		}()
	}
	wg.Wait()

	res := vote(ports, observed)
	l.Debugf("Probed %s ports %v: address %v, mappings %v", family, ports, res.Address, res.Mappings)
	return res
}

// resolve returns one address per server in the family, in order.
func (p *Prober) resolve(ctx context.Context, servers []string, family nat.Family) []*net.UDPAddr {
	var res []*net.UDPAddr
	seen := make(map[string]struct{})
	for _, server := range servers {
		host, portStr, err := net.SplitHostPort(serverAddress(server))
		if err != nil {
			l.Debugf("Invalid STUN server %q: %v", server, err)
			continue
		}
		port, err := strconv.Atoi(portStr)
		if err != nil || port <= 0 || port > 65535 {
			l.Debugf("Invalid STUN server port %q", server)
			continue
		}
		ips, err := p.resolver.LookupIP(ctx, family.Network("ip"), host)
		if err != nil {
			l.Debugf("Resolving STUN server %s: %v", host, err)
			continue
		}
		for _, ip := range ips {
			if !family.Contains(ip) {
				continue
			}
			addr := &net.UDPAddr{IP: ip, Port: port}
			if _, ok := seen[addr.String()]; !ok {
				seen[addr.String()] = struct{}{}
				res = append(res, addr)
			}
			break
		}
	}
	return res
}

// serverAddress strips the URI scheme and adds the default port.
func serverAddress(server string) string {
	server = strings.TrimPrefix(strings.TrimSpace(server), "stun:")
	if _, _, err := net.SplitHostPort(server); err == nil {
		return server
	}
	return net.JoinHostPort(strings.Trim(server, "[]"), defaultPort)
}

func probePort(ctx context.Context, servers []*net.UDPAddr, port int, family nat.Family) *net.UDPAddr {
	var lc net.ListenConfig
	conn, err := lc.ListenPacket(ctx, family.Network("udp"), ":"+strconv.Itoa(port))
	if err != nil {
		l.Infof("Cannot probe %s port %d: %v", family, port, err)
		metricProbesTotal.WithLabelValues(family.String(), resultUnbound).Inc()
		return nil
	}
	defer conn.Close()
	stop := netutil.CloseOnDone(ctx, conn)
	defer stop()

	req, err := pion.Build(pion.TransactionID, pion.BindingRequest)
	if err != nil {
		l.Debugln("Building binding request:", err)
		return nil
	}
	sent := 0
	for _, server := range servers {
		if _, err := conn.WriteTo(req.Raw, server); err != nil {
			l.Debugf("Sending binding request from port %d to %s: %v", port, server, err)
			continue
		}
		sent++
	}

	buf := make([]byte, maxMessageSize)
	for sent > 0 {
		n, from, err := conn.ReadFrom(buf)
		if err != nil {
			// Closed when the probe times out or is cancelled.
			l.Debugf("No STUN answer on %s port %d: %v", family, port, err)
			break
		}
		addr, err := parseResponse(buf[:n], req.TransactionID)
		if err != nil {
			l.Debugf("Ignoring packet from %s on port %d: %v", from, port, err)
			continue
		}
		if !family.Contains(addr.IP) {
			l.Debugf("Ignoring %s answer %s from %s", family, addr, from)
			continue
		}
		l.Debugf("%s saw port %d as %s", from, port, addr)
		metricProbesTotal.WithLabelValues(family.String(), resultAnswered).Inc()
		return addr
	}
	metricProbesTotal.WithLabelValues(family.String(), resultUnanswered).Inc()
	return nil
}

// parseResponse returns the mapped address of a Binding Success answering
// the transaction.
func parseResponse(raw []byte, id [pion.TransactionIDSize]byte) (*net.UDPAddr, error) {
	m := &pion.Message{Raw: append([]byte(nil), raw...)}
	if err := m.Decode(); err != nil {
		return nil, err
	}
	if m.Type != pion.BindingSuccess {
		return nil, fmt.Errorf("unexpected message type %s", m.Type)
	}
	if m.TransactionID != id {
		return nil, errTransactionMismatch
	}

	var xorAddr pion.XORMappedAddress
	if err := xorAddr.GetFrom(m); err == nil {
		return &net.UDPAddr{IP: xorAddr.IP, Port: xorAddr.Port}, nil
	}
	// Servers implementing only RFC 3489 send MAPPED-ADDRESS.
	var mappedAddr pion.MappedAddress
	if err := mappedAddr.GetFrom(m); err != nil {
		return nil, fmt.Errorf("no mapped address: %w", err)
	}
	return &net.UDPAddr{IP: mappedAddr.IP, Port: mappedAddr.Port}, nil
}

// vote pairs each answered port with its external port and picks the
// address observed most often, the earliest on ties.
func vote(ports []int, observed []*net.UDPAddr) nat.ProbeResult {
	var res nat.ProbeResult
	counts := make(map[string]int)
	best := 0
	for i, addr := range observed {
		if addr == nil {
			continue
		}
		res.Mappings = append(res.Mappings, nat.PortMapping{Internal: ports[i], External: addr.Port})
		key := addr.IP.String()
		counts[key]++
		if counts[key] > best {
			best = counts[key]
			res.Address = addr.IP
		}
	}
	return res
}
