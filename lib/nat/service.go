// Copyright (C) 2015 The Syncthing Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

package nat

import (
	"context"
	"net"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/syncthing/natreach/lib/config"
	"github.com/syncthing/natreach/lib/netutil"
)

const teardownQueueSize = 64

// Service sets up reachable ports for peer to peer sessions, combining
// gateway port mappings with reflexive address probing, and runs the
// teardown of what it opened in the background (see Serve).
type Service struct {
	cfg     config.Options
	finder  GatewayFinder
	mappers MapperFinder
	prober  Prober
	trace   AddressSource

	// publicAddress returns a locally configured public address of the
	// family, or nil.
	publicAddress func(Family) net.IP

	jobs    chan teardownJob
	mut     sync.Mutex
	stopped bool // Serve has returned; teardowns run inline
}

type teardownJob struct {
	name string
	fn   func(ctx context.Context)
}

// NewService returns a new Service. The trace source and the mapper finder
// are optional. Timeouts and the teardown concurrency that are not positive
// in cfg take their defaults. Teardowns scheduled before Serve starts wait
// for it; those scheduled after it returned run inline.
func NewService(cfg config.Options, finder GatewayFinder, prober Prober, trace AddressSource, mappers MapperFinder) *Service {
	return &Service{
		cfg:           cfg.WithDefaults(),
		finder:        finder,
		mappers:       mappers,
		prober:        prober,
		trace:         trace,
		publicAddress: netutil.PublicAddress,
		jobs:          make(chan teardownJob, teardownQueueSize),
	}
}

func (s *Service) String() string {
	return "nat.Service"
}

type ipv4Result struct {
	address  net.IP
	mapper   PortMapper
	mappings []PortMapping
}

type ipv6Result struct {
	address  net.IP
	mappings []PortMapping
	pinholes []PinholeID
}

// SetupPorts makes the reserved ports reachable over IPv4 and IPv6 as far
// as possible. If existing is nil a gateway is discovered. Failures of
// individual queries and mappings degrade the result instead of failing the
// call; the only error returned is ErrCancelled, together with a zero
// result, when ctx is cancelled.
func (s *Service) SetupPorts(ctx context.Context, existing Gateway, reservations []PortReservation, probeServers []string) (SetupResult, error) {
	if err := ctx.Err(); err != nil {
		return SetupResult{}, cancelled(err)
	}

	reservations = s.normalize(reservations)
	if len(probeServers) == 0 {
		probeServers = s.cfg.StunServers
	}

	gw, mapper := s.findDevices(ctx, existing)
	if err := ctx.Err(); err != nil {
		return SetupResult{}, cancelled(err)
	}

	var res4 ipv4Result
	var res6 ipv6Result
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		res4 = s.setupIPv4(ctx, gw, mapper, reservations, probeServers)
	}()
	go func() {
		defer wg.Done()
		res6 = s.setupIPv6(ctx, gw, reservations, probeServers)
	}()
	wg.Wait()

	if err := ctx.Err(); err != nil {
		s.ScheduleTeardown(SetupResult{
			Gateway:      gw,
			IPv4Mapper:   res4.mapper,
			IPv4Mappings: res4.mappings,
			IPv6Pinholes: res6.pinholes,
		})
		return SetupResult{}, cancelled(err)
	}

	res := SetupResult{
		Gateway:      gw,
		IPv4Mapper:   res4.mapper,
		IPv4Mappings: res4.mappings,
		IPv6Mappings: res6.mappings,
		IPv6Pinholes: res6.pinholes,
		IPv6Address:  res6.address,
		IPv4Address:  res4.address,
	}
	l.Infof("Port setup complete: IPv4 %v %v, IPv6 %v %v", res.IPv4Address, res.IPv4Mappings, res.IPv6Address, res.IPv6Mappings)
	return res, nil
}

func (s *Service) normalize(reservations []PortReservation) []PortReservation {
	seen := make(map[int]struct{}, len(reservations))
	res := make([]PortReservation, 0, len(reservations))
	for _, r := range reservations {
		if r.Port <= 0 || r.Port > 65535 {
			l.Infoln("Ignoring invalid port reservation", r)
			continue
		}
		if _, ok := seen[r.Port]; ok {
			continue
		}
		seen[r.Port] = struct{}{}
		if r.Protocol == "" {
			r.Protocol = UDP
		}
		if r.Lease == 0 {
			r.Lease = s.cfg.Lease()
		}
		if r.Description == "" {
			r.Description = s.cfg.MappingDescription
		}
		res = append(res, r)
	}
	return res
}

// findDevices returns the gateway to use, discovering one if none was
// given, and the fallback port mapper when enabled.
func (s *Service) findDevices(ctx context.Context, existing Gateway) (Gateway, PortMapper) {
	gw := existing
	var mapper PortMapper
	var wg sync.WaitGroup

	if gw == nil && s.finder != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			found, err := s.finder.FindGateway(ctx)
			if err != nil {
				l.Infoln("Gateway discovery:", err)
				return
			}
			if found == nil {
				l.Debugln("No gateway device found")
				return
			}
			l.Infof("Using gateway %s (%s)", found.FriendlyName(), found.ID())
			gw = found
		}()
	}

	if existing == nil && s.mappers != nil && s.cfg.NATPMPEnabled {
		wg.Add(1)
		go func() {
			defer wg.Done()
			found, err := s.mappers.FindMapper(ctx)
			if err != nil {
				l.Debugln("Port mapper discovery:", err)
				return
			}
			mapper = found
		}()
	}

	wg.Wait()
	return gw, mapper
}

func (s *Service) setupIPv4(ctx context.Context, gw Gateway, mapper PortMapper, reservations []PortReservation, servers []string) ipv4Result {
	var (
		natStatus  Tristate
		deviceAddr net.IP
		probe      ProbeResult
		wg         sync.WaitGroup
	)

	if gw != nil {
		wg.Add(2)
		go func() {
			defer wg.Done()
			natStatus = gw.GetNATStatus(ctx)
		}()
		go func() {
			defer wg.Done()
			deviceAddr = usableAddress(gw.GetExternalIPv4Address(ctx), IPv4)
		}()
	} else if mapper != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			deviceAddr = usableAddress(mapper.GetExternalIPv4Address(ctx), IPv4)
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		probe = s.prober.Probe(ctx, servers, portsOf(reservations), IPv4, s.cfg.ProbeTimeout())
	}()
	wg.Wait()

	if ctx.Err() != nil {
		return ipv4Result{}
	}

	probeAddr := usableAddress(probe.Address, IPv4)
	if probeAddr != nil && deviceAddr != nil && !probeAddr.Equal(deviceAddr) {
		l.Infof("Router reports external address %s but probing observed %s; there may be another NAT upstream", deviceAddr, probeAddr)
	}

	res := ipv4Result{
		address: s.selectIPv4Address(ctx, probeAddr, deviceAddr),
	}

	switch {
	case res.address == nil:
		l.Infoln("No public IPv4 address detected")

	case gw != nil && natStatus == False:
		l.Infof("Gateway %s reports NAT disabled, not mapping IPv4 ports", gw.FriendlyName())

	case gw != nil && gw.GetLocalIPv4Address() != nil:
		mappings, err := s.openIPv4(ctx, gw, gw.GetLocalIPv4Address(), reservations)
		if err != nil {
			l.Infof("Mapping IPv4 ports on %s failed, falling back to probed ports: %v", gw.FriendlyName(), err)
			break
		}
		res.mapper = gw
		res.mappings = mappings
		metricSetupsTotal.WithLabelValues(IPv4.String(), sourceGateway).Inc()
		return res

	case mapper != nil:
		if gw != nil {
			l.Infof("No local IPv4 address facing gateway %s, mapping ports on %s", gw.FriendlyName(), mapper.ID())
		}
		mappings, err := s.openIPv4(ctx, mapper, nil, reservations)
		if err != nil {
			l.Infof("Mapping IPv4 ports on %s failed, falling back to probed ports: %v", mapper.ID(), err)
			break
		}
		res.mapper = mapper
		res.mappings = mappings
		metricSetupsTotal.WithLabelValues(IPv4.String(), sourceNATPMP).Inc()
		return res

	case gw != nil:
		l.Infof("No local IPv4 address facing gateway %s, not mapping ports", gw.FriendlyName())
	}

	var source string
	res.mappings, source = translations(probe, reservations)
	metricSetupsTotal.WithLabelValues(IPv4.String(), source).Inc()
	return res
}

// selectIPv4Address picks the public IPv4 address by priority: probing,
// then the router, then the trace source, then a local public address.
func (s *Service) selectIPv4Address(ctx context.Context, probeAddr, deviceAddr net.IP) net.IP {
	if probeAddr != nil {
		return addressFrom(IPv4, sourceProbe, probeAddr)
	}
	if deviceAddr != nil {
		if !netutil.IsPublic(deviceAddr) {
			l.Infof("Router reported external address %s is not public", deviceAddr)
		}
		return addressFrom(IPv4, sourceGateway, deviceAddr)
	}
	if s.trace != nil {
		if ip := usableAddress(s.trace.ExternalIPv4Address(ctx), IPv4); ip != nil {
			return addressFrom(IPv4, sourceTrace, ip)
		}
	}
	if ip := s.publicAddress(IPv4); ip != nil {
		return addressFrom(IPv4, sourceLocal, ip)
	}
	metricAddressSourceTotal.WithLabelValues(IPv4.String(), sourceNone).Inc()
	return nil
}

func (s *Service) setupIPv6(ctx context.Context, gw Gateway, reservations []PortReservation, servers []string) ipv6Result {
	var (
		fw    FirewallStatus
		fwErr error
		probe ProbeResult
		wg    sync.WaitGroup
	)

	if gw != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			fw, fwErr = gw.GetIPv6FirewallStatus(ctx)
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		probe = s.prober.Probe(ctx, servers, portsOf(reservations), IPv6, s.cfg.ProbeTimeout())
	}()
	wg.Wait()

	if ctx.Err() != nil || fwErr != nil {
		return ipv6Result{}
	}

	local := s.publicAddress(IPv6)
	var res ipv6Result
	if ip := usableAddress(probe.Address, IPv6); ip != nil {
		res.address = addressFrom(IPv6, sourceProbe, ip)
	} else if local != nil {
		res.address = addressFrom(IPv6, sourceLocal, local)
	} else {
		metricAddressSourceTotal.WithLabelValues(IPv6.String(), sourceNone).Inc()
	}

	switch {
	case res.address == nil:
		l.Debugln("No public IPv6 address detected")

	case gw == nil:

	case local == nil:
		l.Infof("No local public IPv6 address to open pinholes on %s for", gw.FriendlyName())

	case fw.Enabled == False:
		l.Infof("Gateway %s reports the IPv6 firewall disabled, no pinholes required", gw.FriendlyName())

	case fw.InboundPinholeAllowed == False:
		l.Infof("Gateway %s does not allow inbound IPv6 pinholes", gw.FriendlyName())

	default:
		pinholes, err := s.openIPv6(ctx, gw, local, reservations)
		if err != nil {
			l.Infof("Opening IPv6 pinholes on %s failed, falling back to probed ports: %v", gw.FriendlyName(), err)
			break
		}
		res.pinholes = pinholes
		res.mappings = make([]PortMapping, 0, len(reservations))
		for _, r := range reservations {
			res.mappings = append(res.mappings, PortMapping{Internal: r.Port, External: r.Port})
		}
		metricSetupsTotal.WithLabelValues(IPv6.String(), sourceGateway).Inc()
		return res
	}

	var source string
	res.mappings, source = translations(probe, reservations)
	metricSetupsTotal.WithLabelValues(IPv6.String(), source).Inc()
	return res
}

// openIPv4 maps all reservations or none; mappings opened before a failure
// are scheduled for removal.
func (s *Service) openIPv4(ctx context.Context, m PortMapper, internal net.IP, reservations []PortReservation) ([]PortMapping, error) {
	mappings := make([]PortMapping, 0, len(reservations))
	for _, r := range reservations {
		external, err := m.OpenIPv4Port(ctx, internal, r)
		if err == nil {
			mappings = append(mappings, PortMapping{Internal: r.Port, External: external})
			err = ctx.Err()
		}
		if err != nil {
			if len(mappings) > 0 {
				s.ScheduleTeardown(SetupResult{IPv4Mapper: m, IPv4Mappings: mappings})
			}
			return nil, err
		}
		l.Debugf("Mapped %s to external port %d on %s", r, external, m.ID())
	}
	return mappings, nil
}

// openIPv6 opens pinholes for all reservations or none; pinholes opened
// before a failure are scheduled for removal.
func (s *Service) openIPv6(ctx context.Context, gw Gateway, address net.IP, reservations []PortReservation) ([]PinholeID, error) {
	pinholes := make([]PinholeID, 0, len(reservations))
	for _, r := range reservations {
		id, err := gw.OpenIPv6Port(ctx, address, r)
		if err == nil {
			pinholes = append(pinholes, id)
			err = ctx.Err()
		}
		if err != nil {
			if len(pinholes) > 0 {
				s.ScheduleTeardown(SetupResult{Gateway: gw, IPv6Pinholes: pinholes})
			}
			return nil, err
		}
		l.Debugf("Opened pinhole %d for %s on %s", id, r, gw.ID())
	}
	return pinholes, nil
}

// translations returns the probed external port for each reservation,
// or the internal port when probing did not see it.
func translations(probe ProbeResult, reservations []PortReservation) ([]PortMapping, string) {
	source := sourceIdentity
	mappings := make([]PortMapping, 0, len(reservations))
	for _, r := range reservations {
		external, ok := probe.External(r.Port)
		if ok {
			source = sourceProbe
		} else {
			external = r.Port
		}
		mappings = append(mappings, PortMapping{Internal: r.Port, External: external})
	}
	return mappings, source
}

func portsOf(reservations []PortReservation) []int {
	ports := make([]int, len(reservations))
	for i, r := range reservations {
		ports[i] = r.Port
	}
	return ports
}

func usableAddress(ip net.IP, family Family) net.IP {
	if ip == nil || ip.IsUnspecified() || !family.Contains(ip) {
		return nil
	}
	return ip
}

func addressFrom(family Family, source string, ip net.IP) net.IP {
	l.Debugf("Public %s address %s from %s", family, ip, source)
	metricAddressSourceTotal.WithLabelValues(family.String(), source).Inc()
	return ip
}

// CloseIPv4Port removes a mapping this service opened. It never fails;
// problems are logged.
func (s *Service) CloseIPv4Port(ctx context.Context, m PortMapper, externalPort int) {
	if m == nil {
		l.Debugln("No port mapper to close port", externalPort, "on")
		return
	}
	m.CloseIPv4Port(ctx, externalPort)
}

// CloseIPv6Port removes a pinhole this service opened. It never fails;
// problems are logged.
func (s *Service) CloseIPv6Port(ctx context.Context, gw Gateway, id PinholeID) {
	if gw == nil {
		l.Debugln("No gateway to close pinhole", id, "on")
		return
	}
	gw.CloseIPv6Port(ctx, id)
}

// Teardown closes every router side mapping and pinhole in res, with
// bounded concurrency, and returns when all attempts are done.
func (s *Service) Teardown(ctx context.Context, res SetupResult) {
	var g errgroup.Group
	g.SetLimit(s.teardownLimit())
	if res.IPv4Mapper != nil {
		for _, m := range res.IPv4Mappings {
			g.Go(func() error {
				s.CloseIPv4Port(ctx, res.IPv4Mapper, m.External)
				return nil
			})
		}
	}
	if res.Gateway != nil {
		for _, id := range res.IPv6Pinholes {
			g.Go(func() error {
				s.CloseIPv6Port(ctx, res.Gateway, id)
				return nil
			})
		}
	}
	_ = g.Wait()
}

// ScheduleTeardown queues the teardown of res for the Serve loop and
// returns immediately.
func (s *Service) ScheduleTeardown(res SetupResult) {
	if (res.IPv4Mapper == nil || len(res.IPv4Mappings) == 0) && (res.Gateway == nil || len(res.IPv6Pinholes) == 0) {
		return
	}
	s.schedule("teardown", func(ctx context.Context) {
		s.Teardown(ctx, res)
	})
}

func (s *Service) schedule(name string, fn func(ctx context.Context)) {
	job := teardownJob{name: name, fn: fn}
	s.mut.Lock()
	if s.stopped {
		s.mut.Unlock()
		l.Infof("Teardown worker stopped, running %s inline", name)
		s.runJob(job)
		return
	}
	select {
	case s.jobs <- job:
		s.mut.Unlock()
		l.Debugln("Scheduled", name)
	default:
		s.mut.Unlock()
		l.Infof("Teardown queue full, running %s inline", name)
		s.runJob(job)
	}
}

func (s *Service) teardownLimit() int {
	return max(s.cfg.TeardownConcurrency, 1)
}

// Serve runs scheduled teardown jobs until ctx is cancelled, then finishes
// the queued ones before returning.
func (s *Service) Serve(ctx context.Context) error {
	s.mut.Lock()
	s.stopped = false
	s.mut.Unlock()

	var g errgroup.Group
	g.SetLimit(s.teardownLimit())

	for {
		select {
		case job := <-s.jobs:
			g.Go(func() error {
				s.runJob(job)
				return nil
			})

		case <-ctx.Done():
			s.mut.Lock()
			s.stopped = true
			s.mut.Unlock()
			s.drain(&g)
			_ = g.Wait()
			return ctx.Err()
		}
	}
}

// drain starts every job still queued.
func (s *Service) drain(g *errgroup.Group) {
	for {
		select {
		case job := <-s.jobs:
			g.Go(func() error {
				s.runJob(job)
				return nil
			})
		default:
			return
		}
	}
}

// runJob gets its own deadline so that teardown completes even while the
// service is stopping.
func (s *Service) runJob(job teardownJob) {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.TeardownTimeout())
	defer cancel()

	job.fn(ctx)

	if err := ctx.Err(); err != nil {
		l.Infof("Teardown job %s did not complete: %v", job.name, err)
		metricTeardownsTotal.WithLabelValues("timeout").Inc()
		return
	}
	l.Debugln("Completed", job.name)
	metricTeardownsTotal.WithLabelValues("done").Inc()
}
