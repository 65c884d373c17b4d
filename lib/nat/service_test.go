// Copyright (C) 2024 The Syncthing Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

package nat_test

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/d4l3k/messagediff"

	"github.com/syncthing/natreach/lib/config"
	"github.com/syncthing/natreach/lib/nat"
	"github.com/syncthing/natreach/lib/nat/mocks"
)

type gatewayFinder struct {
	gw    nat.Gateway
	err   error
	calls int
}

func (f *gatewayFinder) FindGateway(context.Context) (nat.Gateway, error) {
	f.calls++
	return f.gw, f.err
}

type mapperFinder struct {
	mapper nat.PortMapper
}

func (f mapperFinder) FindMapper(context.Context) (nat.PortMapper, error) {
	return f.mapper, nil
}

type addressFunc func(ctx context.Context) net.IP

func (f addressFunc) ExternalIPv4Address(ctx context.Context) net.IP {
	return f(ctx)
}

var (
	probedIPv4  = net.ParseIP("203.0.113.7").To4()
	deviceIPv4  = net.ParseIP("198.51.100.1").To4()
	traceIPv4   = net.ParseIP("192.0.2.44").To4()
	localIPv4   = net.ParseIP("192.0.2.99").To4()
	gatewayLAN  = net.ParseIP("192.168.1.10").To4()
	localIPv6   = net.ParseIP("2001:db8::10")
	probedIPv6  = net.ParseIP("2001:db8::77")
	testServers = []string{"stun.example.com:3478"}
)

func reservations(ports ...int) []nat.PortReservation {
	res := make([]nat.PortReservation, len(ports))
	for i, p := range ports {
		res[i] = nat.PortReservation{Port: p}
	}
	return res
}

// prober answers IPv4 probes with v4 and IPv6 probes with v6.
func prober(v4, v6 nat.ProbeResult) *mocks.Prober {
	p := new(mocks.Prober)
	p.ProbeCalls(func(_ context.Context, _ []string, _ []int, family nat.Family, _ time.Duration) nat.ProbeResult {
		if family == nat.IPv6 {
			return v6
		}
		return v4
	})
	return p
}

// newGateway returns a gateway with NAT enabled that maps every port to the
// port plus offset and opens pinholes numbered from one.
func newGateway(offset int) *mocks.Gateway {
	gw := new(mocks.Gateway)
	gw.IDReturns("uuid:test::urn:schemas-upnp-org:device:InternetGatewayDevice:2")
	gw.FriendlyNameReturns("Test Router")
	gw.GetNATStatusReturns(nat.True)
	gw.GetExternalIPv4AddressReturns(deviceIPv4)
	gw.GetLocalIPv4AddressReturns(gatewayLAN)
	gw.GetIPv6FirewallStatusReturns(nat.FirewallStatus{Enabled: nat.True, InboundPinholeAllowed: nat.True}, nil)
	gw.OpenIPv4PortCalls(func(_ context.Context, _ net.IP, r nat.PortReservation) (int, error) {
		return r.Port + offset, nil
	})
	var next nat.PinholeID
	gw.OpenIPv6PortCalls(func(context.Context, net.IP, nat.PortReservation) (nat.PinholeID, error) {
		next++
		return next, nil
	})
	return gw
}

func newService(t *testing.T, finder nat.GatewayFinder, p nat.Prober, trace nat.AddressSource, public map[nat.Family]net.IP) *nat.Service {
	t.Helper()
	svc := nat.NewService(config.Default(), finder, p, trace, nil)
	nat.SetPublicAddressFunc(svc, func(family nat.Family) net.IP {
		return public[family]
	})
	return svc
}

// serve runs the teardown worker for the duration of the test.
func serve(t *testing.T, svc *nat.Service) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		svc.Serve(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("timed out waiting for", what)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestSetupPortsWithoutGatewayUsesProbe(t *testing.T) {
	t.Parallel()

	p := prober(nat.ProbeResult{
		Address:  probedIPv4,
		Mappings: []nat.PortMapping{{Internal: 5000, External: 40000}, {Internal: 5001, External: 40001}},
	}, nat.ProbeResult{})
	svc := newService(t, &gatewayFinder{}, p, nil, nil)

	res, err := svc.SetupPorts(context.Background(), nil, reservations(5000, 5001), testServers)
	if err != nil {
		t.Fatal(err)
	}

	exp := nat.SetupResult{
		IPv4Address:  probedIPv4,
		IPv4Mappings: []nat.PortMapping{{Internal: 5000, External: 40000}, {Internal: 5001, External: 40001}},
		IPv6Mappings: []nat.PortMapping{{Internal: 5000, External: 5000}, {Internal: 5001, External: 5001}},
	}
	if diff, equal := messagediff.PrettyDiff(exp, res); !equal {
		t.Errorf("Unexpected result. Diff:\n%s", diff)
	}

	if p.ProbeCallCount() != 2 {
		t.Errorf("expected one probe per family, got %d", p.ProbeCallCount())
	}
	_, servers, ports, _, _ := p.ProbeArgsForCall(0)
	if len(servers) != 1 || servers[0] != testServers[0] {
		t.Errorf("probe servers not passed through: %v", servers)
	}
	if len(ports) != 2 {
		t.Errorf("expected both ports probed, got %v", ports)
	}
}

func TestSetupPortsDefaultProbeServers(t *testing.T) {
	t.Parallel()

	p := prober(nat.ProbeResult{}, nat.ProbeResult{})
	svc := newService(t, &gatewayFinder{}, p, nil, nil)

	if _, err := svc.SetupPorts(context.Background(), nil, reservations(5000), nil); err != nil {
		t.Fatal(err)
	}
	_, servers, _, _, _ := p.ProbeArgsForCall(0)
	if diff, equal := messagediff.PrettyDiff(config.DefaultStunServers, servers); !equal {
		t.Errorf("Unexpected servers. Diff:\n%s", diff)
	}
}

func TestSetupPortsMapsThroughGateway(t *testing.T) {
	t.Parallel()

	gw := newGateway(10000)
	finder := &gatewayFinder{gw: gw}
	svc := newService(t, finder, prober(nat.ProbeResult{}, nat.ProbeResult{}), nil, map[nat.Family]net.IP{nat.IPv6: localIPv6})

	res, err := svc.SetupPorts(context.Background(), nil, reservations(5000, 5001, 5002), testServers)
	if err != nil {
		t.Fatal(err)
	}

	if res.Gateway != gw || res.IPv4Mapper != gw {
		t.Error("gateway not recorded as mapper")
	}
	if !res.IPv4Address.Equal(deviceIPv4) {
		t.Errorf("expected device address, got %v", res.IPv4Address)
	}
	expMappings := []nat.PortMapping{{Internal: 5000, External: 15000}, {Internal: 5001, External: 15001}, {Internal: 5002, External: 15002}}
	if diff, equal := messagediff.PrettyDiff(expMappings, res.IPv4Mappings); !equal {
		t.Errorf("Unexpected mappings. Diff:\n%s", diff)
	}
	for _, m := range res.IPv4Mappings {
		if m.Internal < 5000 || m.Internal > 5002 {
			t.Errorf("mapping for unreserved port %d", m.Internal)
		}
	}

	if len(res.IPv6Pinholes) != 3 {
		t.Errorf("expected three pinholes, got %v", res.IPv6Pinholes)
	}
	if !res.IPv6Address.Equal(localIPv6) {
		t.Errorf("expected local IPv6 address, got %v", res.IPv6Address)
	}
	_, addr, _ := gw.OpenIPv6PortArgsForCall(0)
	if !addr.Equal(localIPv6) {
		t.Errorf("pinhole opened for %v", addr)
	}

	_, internal, r := gw.OpenIPv4PortArgsForCall(0)
	if !internal.Equal(gatewayLAN) {
		t.Errorf("mapped to %v, not the address facing the gateway", internal)
	}
	if r.Protocol != nat.UDP || r.Lease != config.Default().Lease() || r.Description != "natreach" {
		t.Errorf("reservation not normalized: %+v", r)
	}
}

func TestSetupPortsUsesExistingGateway(t *testing.T) {
	t.Parallel()

	gw := newGateway(0)
	finder := &gatewayFinder{}
	svc := newService(t, finder, prober(nat.ProbeResult{}, nat.ProbeResult{}), nil, nil)

	res, err := svc.SetupPorts(context.Background(), gw, reservations(5000), testServers)
	if err != nil {
		t.Fatal(err)
	}
	if finder.calls != 0 {
		t.Error("discovery ran despite an existing gateway")
	}
	if res.IPv4Mapper != gw {
		t.Error("existing gateway not used")
	}
}

func TestSetupPortsIgnoresDuplicateAndInvalidPorts(t *testing.T) {
	t.Parallel()

	gw := newGateway(0)
	svc := newService(t, &gatewayFinder{gw: gw}, prober(nat.ProbeResult{}, nat.ProbeResult{}), nil, nil)

	res, err := svc.SetupPorts(context.Background(), nil, reservations(5000, 0, 5000, 70000), testServers)
	if err != nil {
		t.Fatal(err)
	}
	if gw.OpenIPv4PortCallCount() != 1 || len(res.IPv4Mappings) != 1 {
		t.Errorf("expected a single mapping, got %v", res.IPv4Mappings)
	}
}

func TestSetupPortsMappingFailureFallsBackToIdentity(t *testing.T) {
	t.Parallel()

	gw := newGateway(0)
	gw.OpenIPv4PortReturns(0, &nat.ProtocolError{Action: "AddAnyPortMapping", Status: 500, Code: 718})
	gw.OpenIPv6PortReturns(0, &nat.ProtocolError{Action: "AddPinhole", Status: 500, Code: 606})
	svc := newService(t, &gatewayFinder{gw: gw}, prober(nat.ProbeResult{}, nat.ProbeResult{}), nil, map[nat.Family]net.IP{nat.IPv4: localIPv4, nat.IPv6: localIPv6})

	res, err := svc.SetupPorts(context.Background(), nil, reservations(5000, 5001), testServers)
	if err != nil {
		t.Fatal(err)
	}

	identity := []nat.PortMapping{{Internal: 5000, External: 5000}, {Internal: 5001, External: 5001}}
	if diff, equal := messagediff.PrettyDiff(identity, res.IPv4Mappings); !equal {
		t.Errorf("Unexpected IPv4 mappings. Diff:\n%s", diff)
	}
	if diff, equal := messagediff.PrettyDiff(identity, res.IPv6Mappings); !equal {
		t.Errorf("Unexpected IPv6 mappings. Diff:\n%s", diff)
	}
	if res.IPv4Mapper != nil || len(res.IPv6Pinholes) != 0 {
		t.Error("failed mappings recorded as router side")
	}
	if res.Gateway != gw {
		t.Error("gateway should still be returned for reuse")
	}
}

func TestSetupPortsPartialMappingIsReleased(t *testing.T) {
	t.Parallel()

	gw := newGateway(100)
	gw.OpenIPv4PortReturnsOnCall(0, 5100, nil)
	gw.OpenIPv4PortReturnsOnCall(1, 0, &nat.ProtocolError{Action: "AddAnyPortMapping", Status: 500, Code: 728})

	p := prober(nat.ProbeResult{
		Address:  probedIPv4,
		Mappings: []nat.PortMapping{{Internal: 5000, External: 41000}, {Internal: 5001, External: 41001}},
	}, nat.ProbeResult{})
	svc := newService(t, &gatewayFinder{gw: gw}, p, nil, nil)
	serve(t, svc)

	res, err := svc.SetupPorts(context.Background(), nil, reservations(5000, 5001), testServers)
	if err != nil {
		t.Fatal(err)
	}

	expMappings := []nat.PortMapping{{Internal: 5000, External: 41000}, {Internal: 5001, External: 41001}}
	if diff, equal := messagediff.PrettyDiff(expMappings, res.IPv4Mappings); !equal {
		t.Errorf("Unexpected mappings. Diff:\n%s", diff)
	}
	if res.IPv4Mapper != nil {
		t.Error("partial mapping recorded as router side")
	}

	waitFor(t, "release of the opened mapping", func() bool {
		return gw.CloseIPv4PortCallCount() == 1
	})
	if _, port := gw.CloseIPv4PortArgsForCall(0); port != 5100 {
		t.Errorf("closed external port %d, expected 5100", port)
	}
}

func TestSetupPortsUsesMapperWithoutLocalAddress(t *testing.T) {
	t.Parallel()

	gw := newGateway(0)
	gw.GetLocalIPv4AddressReturns(nil)
	mapper := newGateway(20000)
	mapper.IDReturns("NAT-PMP@192.168.1.1")

	cfg := config.Default()
	cfg.NATPMPEnabled = true
	svc := nat.NewService(cfg, &gatewayFinder{gw: gw}, prober(nat.ProbeResult{}, nat.ProbeResult{}), nil, mapperFinder{mapper: mapper})
	nat.SetPublicAddressFunc(svc, func(nat.Family) net.IP { return nil })

	res, err := svc.SetupPorts(context.Background(), nil, reservations(5000), testServers)
	if err != nil {
		t.Fatal(err)
	}
	if gw.OpenIPv4PortCallCount() != 0 {
		t.Error("mapped on a gateway without a local address")
	}
	if res.IPv4Mapper != mapper {
		t.Fatalf("port mapper not used, got %v", res.IPv4Mapper)
	}
	if diff, equal := messagediff.PrettyDiff([]nat.PortMapping{{Internal: 5000, External: 25000}}, res.IPv4Mappings); !equal {
		t.Errorf("Unexpected mappings. Diff:\n%s", diff)
	}
}

func TestSetupPortsNATDisabled(t *testing.T) {
	t.Parallel()

	gw := newGateway(0)
	gw.GetNATStatusReturns(nat.False)
	svc := newService(t, &gatewayFinder{gw: gw}, prober(nat.ProbeResult{}, nat.ProbeResult{}), nil, nil)

	res, err := svc.SetupPorts(context.Background(), nil, reservations(5000), testServers)
	if err != nil {
		t.Fatal(err)
	}
	if gw.OpenIPv4PortCallCount() != 0 {
		t.Error("mapping attempted with NAT disabled")
	}
	if len(res.IPv4Mappings) != 1 || res.IPv4Mappings[0].External != 5000 {
		t.Errorf("expected identity mapping, got %v", res.IPv4Mappings)
	}
}

func TestSetupPortsNATStatusUnknownStillMaps(t *testing.T) {
	t.Parallel()

	gw := newGateway(0)
	gw.GetNATStatusReturns(nat.Unknown)
	svc := newService(t, &gatewayFinder{gw: gw}, prober(nat.ProbeResult{}, nat.ProbeResult{}), nil, nil)

	if _, err := svc.SetupPorts(context.Background(), nil, reservations(5000), testServers); err != nil {
		t.Fatal(err)
	}
	if gw.OpenIPv4PortCallCount() != 1 {
		t.Error("mapping not attempted with unknown NAT status")
	}
}

func TestSetupPortsPinholePolicy(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		status   nat.FirewallStatus
		pinholes int
	}{
		{"open", nat.FirewallStatus{Enabled: nat.True, InboundPinholeAllowed: nat.True}, 1},
		{"unknown", nat.FirewallStatus{}, 1},
		{"disabled", nat.FirewallStatus{Enabled: nat.False, InboundPinholeAllowed: nat.True}, 0},
		{"closed", nat.FirewallStatus{Enabled: nat.True, InboundPinholeAllowed: nat.False}, 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			gw := newGateway(0)
			gw.GetIPv6FirewallStatusReturns(tc.status, nil)
			svc := newService(t, &gatewayFinder{gw: gw}, prober(nat.ProbeResult{}, nat.ProbeResult{}), nil, map[nat.Family]net.IP{nat.IPv6: localIPv6})

			res, err := svc.SetupPorts(context.Background(), nil, reservations(5000), testServers)
			if err != nil {
				t.Fatal(err)
			}
			if gw.OpenIPv6PortCallCount() != tc.pinholes || len(res.IPv6Pinholes) != tc.pinholes {
				t.Errorf("expected %d pinholes, got %d calls and %v", tc.pinholes, gw.OpenIPv6PortCallCount(), res.IPv6Pinholes)
			}
			if len(res.IPv6Mappings) != 1 || res.IPv6Mappings[0].External != 5000 {
				t.Errorf("unexpected IPv6 mappings %v", res.IPv6Mappings)
			}
		})
	}
}

func TestSetupPortsIPv4AddressPriority(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		probe  net.IP
		device net.IP
		trace  net.IP
		local  net.IP
		exp    net.IP
	}{
		{"probe first", probedIPv4, deviceIPv4, traceIPv4, localIPv4, probedIPv4},
		{"device second", nil, deviceIPv4, traceIPv4, localIPv4, deviceIPv4},
		{"unspecified device ignored", nil, net.IPv4zero, traceIPv4, localIPv4, traceIPv4},
		{"trace third", nil, nil, traceIPv4, localIPv4, traceIPv4},
		{"local last", nil, nil, nil, localIPv4, localIPv4},
		{"none", nil, nil, nil, nil, nil},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			gw := newGateway(0)
			gw.GetExternalIPv4AddressReturns(tc.device)
			traced := 0
			trace := addressFunc(func(context.Context) net.IP {
				traced++
				return tc.trace
			})
			svc := newService(t, &gatewayFinder{gw: gw}, prober(nat.ProbeResult{Address: tc.probe}, nat.ProbeResult{}), trace, map[nat.Family]net.IP{nat.IPv4: tc.local})

			res, err := svc.SetupPorts(context.Background(), nil, reservations(5000), testServers)
			if err != nil {
				t.Fatal(err)
			}
			if !res.IPv4Address.Equal(tc.exp) {
				t.Errorf("expected %v, got %v", tc.exp, res.IPv4Address)
			}
			if (tc.probe != nil || (tc.device != nil && !tc.device.IsUnspecified())) && traced != 0 {
				t.Error("trace source queried although a better address was known")
			}
			if tc.exp == nil && gw.OpenIPv4PortCallCount() != 0 {
				t.Error("mapping attempted without a public address")
			}
		})
	}
}

func TestSetupPortsIPv6AddressPriority(t *testing.T) {
	t.Parallel()

	svc := newService(t, &gatewayFinder{}, prober(nat.ProbeResult{}, nat.ProbeResult{Address: probedIPv6}), nil, map[nat.Family]net.IP{nat.IPv6: localIPv6})
	res, err := svc.SetupPorts(context.Background(), nil, reservations(5000), testServers)
	if err != nil {
		t.Fatal(err)
	}
	if !res.IPv6Address.Equal(probedIPv6) {
		t.Errorf("expected probed address, got %v", res.IPv6Address)
	}

	svc = newService(t, &gatewayFinder{}, prober(nat.ProbeResult{}, nat.ProbeResult{}), nil, map[nat.Family]net.IP{nat.IPv6: localIPv6})
	res, err = svc.SetupPorts(context.Background(), nil, reservations(5000), testServers)
	if err != nil {
		t.Fatal(err)
	}
	if !res.IPv6Address.Equal(localIPv6) {
		t.Errorf("expected local address, got %v", res.IPv6Address)
	}
}

func TestSetupPortsCancelledBeforeStart(t *testing.T) {
	t.Parallel()

	finder := &gatewayFinder{gw: newGateway(0)}
	p := prober(nat.ProbeResult{}, nat.ProbeResult{})
	svc := newService(t, finder, p, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := svc.SetupPorts(ctx, nil, reservations(5000), testServers)
	if !errors.Is(err, nat.ErrCancelled) {
		t.Fatalf("expected ErrCancelled, got %v", err)
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("context error not wrapped: %v", err)
	}
	if res.Gateway != nil || res.IPv4Mappings != nil || res.IPv6Mappings != nil {
		t.Errorf("expected zero result, got %+v", res)
	}
	if finder.calls != 0 || p.ProbeCallCount() != 0 {
		t.Error("I/O started after cancellation")
	}
}

func TestSetupPortsCancelledWhileMapping(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	gw := newGateway(0)
	gw.OpenIPv4PortCalls(func(_ context.Context, _ net.IP, r nat.PortReservation) (int, error) {
		cancel()
		return r.Port, nil
	})
	svc := newService(t, &gatewayFinder{gw: gw}, prober(nat.ProbeResult{}, nat.ProbeResult{}), nil, nil)
	serve(t, svc)

	res, err := svc.SetupPorts(ctx, nil, reservations(5000, 5001), testServers)
	if !errors.Is(err, nat.ErrCancelled) {
		t.Fatalf("expected ErrCancelled, got %v", err)
	}
	if res.Gateway != nil {
		t.Error("expected zero result")
	}
	if gw.OpenIPv4PortCallCount() != 1 {
		t.Errorf("mapping continued after cancellation: %d calls", gw.OpenIPv4PortCallCount())
	}
	waitFor(t, "release of the mapping opened before cancellation", func() bool {
		return gw.CloseIPv4PortCallCount() == 1
	})
}

func TestTeardown(t *testing.T) {
	t.Parallel()

	gw := newGateway(0)
	svc := newService(t, &gatewayFinder{}, prober(nat.ProbeResult{}, nat.ProbeResult{}), nil, nil)

	svc.Teardown(context.Background(), nat.SetupResult{
		Gateway:      gw,
		IPv4Mapper:   gw,
		IPv4Mappings: []nat.PortMapping{{Internal: 5000, External: 15000}, {Internal: 5001, External: 15001}},
		IPv6Pinholes: []nat.PinholeID{3, 4, 5},
	})

	if gw.CloseIPv4PortCallCount() != 2 {
		t.Errorf("expected two closed ports, got %d", gw.CloseIPv4PortCallCount())
	}
	closed := make(map[int]bool)
	for i := 0; i < gw.CloseIPv4PortCallCount(); i++ {
		_, port := gw.CloseIPv4PortArgsForCall(i)
		closed[port] = true
	}
	if !closed[15000] || !closed[15001] {
		t.Errorf("closed internal instead of external ports: %v", closed)
	}
	if gw.CloseIPv6PortCallCount() != 3 {
		t.Errorf("expected three closed pinholes, got %d", gw.CloseIPv6PortCallCount())
	}
}

func TestTeardownWithoutRouterSideMappings(t *testing.T) {
	t.Parallel()

	gw := newGateway(0)
	svc := newService(t, &gatewayFinder{}, prober(nat.ProbeResult{}, nat.ProbeResult{}), nil, nil)

	// Probe translations are not router side and must never be closed.
	svc.Teardown(context.Background(), nat.SetupResult{
		Gateway:      gw,
		IPv4Mappings: []nat.PortMapping{{Internal: 5000, External: 41000}},
	})
	if gw.CloseIPv4PortCallCount() != 0 {
		t.Error("closed a mapping that was never opened")
	}

	svc.CloseIPv4Port(context.Background(), nil, 5000)
	svc.CloseIPv6Port(context.Background(), nil, 1)
}

func TestServeDrainsQueueOnStop(t *testing.T) {
	t.Parallel()

	gw := newGateway(0)
	svc := newService(t, &gatewayFinder{}, prober(nat.ProbeResult{}, nat.ProbeResult{}), nil, nil)

	svc.ScheduleTeardown(nat.SetupResult{
		IPv4Mapper:   gw,
		IPv4Mappings: []nat.PortMapping{{Internal: 5000, External: 5000}},
	})
	if gw.CloseIPv4PortCallCount() != 0 {
		t.Fatal("teardown ran synchronously")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := svc.Serve(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("unexpected Serve error %v", err)
	}
	if gw.CloseIPv4PortCallCount() != 1 {
		t.Error("queued teardown not run on stop")
	}
}

func TestTeardownWithZeroOptions(t *testing.T) {
	t.Parallel()

	gw := newGateway(0)
	svc := nat.NewService(config.Options{}, &gatewayFinder{}, prober(nat.ProbeResult{}, nat.ProbeResult{}), nil, nil)

	done := make(chan struct{})
	go func() {
		defer close(done)
		svc.Teardown(context.Background(), nat.SetupResult{
			IPv4Mapper:   gw,
			IPv4Mappings: []nat.PortMapping{{Internal: 5000, External: 5000}},
		})
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Teardown did not return")
	}
	if gw.CloseIPv4PortCallCount() != 1 {
		t.Errorf("expected one closed port, got %d", gw.CloseIPv4PortCallCount())
	}
}

func TestScheduleTeardownAfterStop(t *testing.T) {
	t.Parallel()

	gw := newGateway(0)
	svc := newService(t, &gatewayFinder{}, prober(nat.ProbeResult{}, nat.ProbeResult{}), nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := svc.Serve(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("unexpected Serve error %v", err)
	}

	svc.ScheduleTeardown(nat.SetupResult{
		IPv4Mapper:   gw,
		IPv4Mappings: []nat.PortMapping{{Internal: 5000, External: 5000}},
	})
	if gw.CloseIPv4PortCallCount() != 1 {
		t.Error("teardown scheduled after stop was not run")
	}
}
