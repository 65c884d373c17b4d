// Copyright (C) 2024 The Syncthing Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

// Command natreach makes local UDP ports reachable from the Internet through
// UPnP gateways and reports how peers can reach them.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/thejerf/suture/v4"

	"github.com/syncthing/natreach/lib/config"
	"github.com/syncthing/natreach/lib/logger"
	"github.com/syncthing/natreach/lib/svcutil"
)

var l = logger.DefaultLogger.NewFacility("main", "Main package")

type CLI struct {
	Config        string   `name:"config" placeholder:"PATH" env:"NATREACH_CONFIG" help:"Read options from this YAML file"`
	StunServers   []string `name:"stun-server" placeholder:"HOST:PORT" env:"NATREACH_STUN_SERVERS" help:"STUN server to probe (repeatable)"`
	NATPMP        bool     `name:"natpmp" env:"NATREACH_NATPMP" help:"Fall back to NAT-PMP when no UPnP gateway answers"`
	MetricsListen string   `name:"metrics-listen" placeholder:"ADDR" env:"NATREACH_METRICS_LISTEN" help:"Serve Prometheus metrics on this address"`
	Debug         []string `name:"debug" placeholder:"FACILITY" help:"Enable debug output for the facility, or all (repeatable)"`

	Setup    setupCommand    `cmd:"" help:"Make local UDP ports reachable and print the result"`
	Discover discoverCommand `cmd:"" help:"List the UPnP gateways on the local networks"`
	Probe    probeCommand    `cmd:"" help:"Learn the public address and ports of local UDP ports"`
	NATType  natTypeCommand  `cmd:"" name:"nat-type" help:"Classify the NAT in front of this host"`
}

// environment is what every command runs with.
type environment struct {
	cfg config.Options
}

func (cli CLI) AfterApply(kongCtx *kong.Context) error {
	for _, facility := range cli.Debug {
		if facility == "all" {
			for name := range logger.DefaultLogger.Facilities() {
				logger.DefaultLogger.SetDebug(name, true)
			}
			continue
		}
		logger.DefaultLogger.SetDebug(facility, true)
	}

	cfg := config.Default()
	if cli.Config != "" {
		var err error
		cfg, err = config.Load(cli.Config)
		if err != nil {
			return fmt.Errorf("command line options: %w", err)
		}
	}
	if len(cli.StunServers) > 0 {
		cfg.StunServers = cli.StunServers
	}
	if cli.NATPMP {
		cfg.NATPMPEnabled = true
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("command line options: %w", err)
	}

	kongCtx.Bind(&environment{cfg: cfg})
	return nil
}

func serveMetrics(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	stop := context.AfterFunc(ctx, func() { srv.Close() })
	defer stop()

	l.Infoln("Serving metrics on", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		l.Warnln("Metrics listener:", err)
		return err
	}
	return ctx.Err()
}

func main() {
	var cli CLI
	kongCtx := kong.Parse(&cli,
		kong.Name("natreach"),
		kong.Description("UPnP port mapping, IPv6 pinholes and STUN probing for peer reachability."),
		kong.UsageOnError(),
	)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	kongCtx.BindTo(ctx, (*context.Context)(nil))

	if cli.MetricsListen != "" {
		sup := suture.New("main", svcutil.SpecWithDebugLogger(l))
		sup.Add(svcutil.AsService(func(ctx context.Context) error {
			return serveMetrics(ctx, cli.MetricsListen)
		}, "metrics listener"))
		sup.ServeBackground(ctx)
	}

	kongCtx.FatalIfErrorf(kongCtx.Run())
}
