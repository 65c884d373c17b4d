// Copyright (C) 2024 The Syncthing Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/thejerf/suture/v4"

	"github.com/syncthing/natreach/lib/nat"
	"github.com/syncthing/natreach/lib/pmp"
	"github.com/syncthing/natreach/lib/stun"
	"github.com/syncthing/natreach/lib/svcutil"
	"github.com/syncthing/natreach/lib/tracedip"
	"github.com/syncthing/natreach/lib/upnp"
)

type setupCommand struct {
	Ports []int `arg:"" help:"Local UDP ports to make reachable"`
	Hold  bool  `default:"true" negatable:"" help:"Keep the mappings until interrupted"`
}

func (c *setupCommand) Run(ctx context.Context, env *environment) error {
	client := upnp.NewClient(env.cfg)
	defer client.Close()

	var mappers nat.MapperFinder
	if env.cfg.NATPMPEnabled {
		mappers = pmp.NewFinder(env.cfg)
	}
	svc := nat.NewService(env.cfg, client, stun.NewProber(), tracedip.New(env.cfg), mappers)

	// The supervisor outlives ctx so that teardown runs after an interrupt.
	supCtx, supCancel := context.WithCancel(context.Background())
	defer supCancel()
	sup := suture.New("natreach", svcutil.SpecWithInfoLogger(l))
	sup.Add(svc)
	supDone := sup.ServeBackground(supCtx)

	reservations := make([]nat.PortReservation, 0, len(c.Ports))
	for _, port := range c.Ports {
		reservations = append(reservations, nat.PortReservation{Port: port, Protocol: nat.UDP})
	}

	res, err := svc.SetupPorts(ctx, nil, reservations, env.cfg.StunServers)
	if err != nil {
		supCancel()
		<-supDone
		return err
	}
	printResult(os.Stdout, res)

	if c.Hold {
		l.Infoln("Holding mappings until interrupted")
		<-ctx.Done()
	}

	l.Infoln("Releasing mappings")
	svc.ScheduleTeardown(res)
	supCancel()
	if err := <-supDone; err != nil && !errors.Is(err, context.Canceled) {
		l.Debugln("Supervisor:", err)
	}
	return nil
}

func printResult(w io.Writer, res nat.SetupResult) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	defer tw.Flush()

	if gw := res.Gateway; gw != nil {
		fmt.Fprintf(tw, "Gateway:\t%s\n", gw.FriendlyName())
	} else {
		fmt.Fprintf(tw, "Gateway:\tnone\n")
	}
	if res.IPv4Mapper != nil {
		fmt.Fprintf(tw, "IPv4 mapper:\t%s\n", res.IPv4Mapper.ID())
	}
	fmt.Fprintf(tw, "IPv4 address:\t%v\n", orNone(res.IPv4Address))
	fmt.Fprintf(tw, "IPv4 ports:\t%v\n", res.IPv4Mappings)
	fmt.Fprintf(tw, "IPv6 address:\t%v\n", orNone(res.IPv6Address))
	fmt.Fprintf(tw, "IPv6 ports:\t%v\n", res.IPv6Mappings)
	if len(res.IPv6Pinholes) > 0 {
		fmt.Fprintf(tw, "IPv6 pinholes:\t%v\n", res.IPv6Pinholes)
	}
}

func orNone(v fmt.Stringer) string {
	if s := v.String(); s != "<nil>" {
		return s
	}
	return "none"
}

type discoverCommand struct{}

func (*discoverCommand) Run(ctx context.Context, env *environment) error {
	client := upnp.NewClient(env.cfg)
	defer client.Close()

	igds, err := client.Gateways(ctx)
	if err != nil {
		l.Infoln("Discovery:", err)
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if len(igds) == 0 {
		fmt.Println("No gateways found")
		return nil
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	defer tw.Flush()
	for _, igd := range igds {
		fmt.Fprintf(tw, "%s\n", igd.FriendlyIdentifier())
		fmt.Fprintf(tw, "\tUSN:\t%s\n", igd.ID())
		fmt.Fprintf(tw, "\tLocation:\t%s\n", igd.URL())
		fmt.Fprintf(tw, "\tServer:\t%s\n", igd.Location().Server)
		fmt.Fprintf(tw, "\tVersion:\t%s\n", igd.Version())
		if igd.Version() == upnp.VersionUnknown {
			continue
		}
		fmt.Fprintf(tw, "\tLocal address:\t%v\n", orNone(igd.GetLocalIPv4Address()))
		fmt.Fprintf(tw, "\tExternal address:\t%v\n", orNone(igd.GetExternalIPv4Address(ctx)))
		fmt.Fprintf(tw, "\tNAT enabled:\t%s\n", igd.GetNATStatus(ctx))
		fw, err := igd.GetIPv6FirewallStatus(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(tw, "\tIPv6 firewall:\t%s\n", fw.Enabled)
		fmt.Fprintf(tw, "\tIPv6 pinholes allowed:\t%s\n", fw.InboundPinholeAllowed)
	}
	return nil
}

type probeCommand struct {
	Ports  []int  `arg:"" help:"Local UDP ports to probe from"`
	Family string `default:"ipv4" enum:"ipv4,ipv6" help:"Address family to probe (ipv4 or ipv6)"`
}

func (c *probeCommand) Run(ctx context.Context, env *environment) error {
	family := nat.IPv4
	if c.Family == "ipv6" {
		family = nat.IPv6
	}
	res := stun.NewProber().Probe(ctx, env.cfg.StunServers, c.Ports, family, env.cfg.ProbeTimeout())
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if res.Empty() {
		fmt.Printf("No %s STUN server answered\n", family)
		return nil
	}
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	defer tw.Flush()
	fmt.Fprintf(tw, "%s address:\t%v\n", family, orNone(res.Address))
	fmt.Fprintf(tw, "%s ports:\t%v\n", family, res.Mappings)
	return nil
}

type natTypeCommand struct {
	Server string `arg:"" optional:"" help:"STUN server to test against (default: the first configured)"`
}

func (c *natTypeCommand) Run(ctx context.Context, env *environment) error {
	server := c.Server
	if server == "" {
		server = env.cfg.StunServers[0]
	}
	natType, addr, err := stun.DetectNATType(ctx, server)
	if err != nil {
		return fmt.Errorf("detecting NAT type via %s: %w", server, err)
	}
	fmt.Printf("NAT type:\t%s\n", natType)
	fmt.Printf("External address:\t%s\n", addr.TransportAddr())
	fmt.Printf("Punchable:\t%v\n", stun.IsPunchable(natType))
	return nil
}
