// Copyright (C) 2014 The Syncthing Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

// Package upnp implements UPnP InternetGatewayDevice discovery, querying, and
// port mapping.
package upnp

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/syncthing/natreach/lib/config"
	"github.com/syncthing/natreach/lib/nat"
	"github.com/syncthing/natreach/lib/netutil"
)

const (
	descriptionCacheSize = 32
	descriptionCacheTTL  = 10 * time.Minute
	userAgent            = "natreach/1.0 UPnP/1.1"
)

type sourceAddressKey struct{}

// withSourceAddress makes requests made with the returned context originate
// from the given local address.
func withSourceAddress(ctx context.Context, ip net.IP) context.Context {
	return context.WithValue(ctx, sourceAddressKey{}, ip)
}

// A Client performs all UPnP network exchanges. It owns the HTTP client used
// for descriptions and actions and a cache of device descriptions.
type Client struct {
	http             *http.Client
	dialer           *net.Dialer
	descriptions     *expirable.LRU[string, *rootDescription]
	discoveryTimeout time.Duration

	// localAddresses lists the addresses to search from.
	localAddresses func() []*net.IPAddr
}

func NewClient(cfg config.Options) *Client {
	dialer := &net.Dialer{Timeout: cfg.RPCTimeout()}
	c := &Client{
		dialer:           dialer,
		descriptions:     expirable.NewLRU[string, *rootDescription](descriptionCacheSize, nil, descriptionCacheTTL),
		discoveryTimeout: cfg.DiscoveryTimeout(),
		localAddresses:   localAddresses,
	}
	c.http = &http.Client{
		Timeout: cfg.RPCTimeout(),
		Transport: &http.Transport{
			// Gateways are always on the local network.
			Proxy:             nil,
			DialContext:       c.dialContext,
			DisableKeepAlives: true,
		},
	}
	return c
}

func (c *Client) dialContext(ctx context.Context, network, addr string) (net.Conn, error) {
	ip, _ := ctx.Value(sourceAddressKey{}).(net.IP)
	if ip == nil {
		return c.dialer.DialContext(ctx, network, addr)
	}
	d := *c.dialer
	d.LocalAddr = &net.TCPAddr{IP: ip}
	conn, err := d.DialContext(ctx, network, addr)
	if err != nil && ctx.Err() == nil {
		l.Debugf("Dialing %s from %s: %v", addr, ip, err)
		return c.dialer.DialContext(ctx, network, addr)
	}
	return conn, err
}

// Close releases idle connections and forgets cached descriptions.
func (c *Client) Close() {
	c.http.CloseIdleConnections()
	c.descriptions.Purge()
}

func (c *Client) String() string {
	return "upnp.Client"
}

// FindGateway discovers the gateways on the local networks and returns the
// preferred one: the first IGDv2 device, else the first IGDv1 device. It
// returns nil and no error when no gateway answers.
func (c *Client) FindGateway(ctx context.Context) (nat.Gateway, error) {
	locations := c.Discover(ctx, c.localAddresses(), c.discoveryTimeout)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	igd, err := c.selectGateway(ctx, locations)
	if igd == nil {
		return nil, err
	}
	return igd, nil
}

// Gateways discovers and describes every device answering on the local
// networks, whatever its version.
func (c *Client) Gateways(ctx context.Context) ([]*IGD, error) {
	locations := c.Discover(ctx, c.localAddresses(), c.discoveryTimeout)
	var res []*IGD
	var errs []error
	for _, loc := range locations {
		igd, err := c.Fetch(ctx, loc)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			errs = append(errs, err)
			continue
		}
		res = append(res, igd)
	}
	return res, errors.Join(errs...)
}

// selectGateway describes each location in turn, preferring IGDv2.
func (c *Client) selectGateway(ctx context.Context, locations []NetworkLocation) (*IGD, error) {
	var v1 *IGD
	var errs []error
	for _, loc := range locations {
		igd, err := c.Fetch(ctx, loc)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			l.Infoln("UPnP:", err)
			errs = append(errs, err)
			continue
		}

		switch igd.Version() {
		case Version2:
			l.Debugln("Selected IGDv2 device", igd.FriendlyIdentifier())
			return igd, nil
		case Version1:
			if v1 == nil {
				v1 = igd
			}
		default:
			l.Debugf("Ignoring %s: %v", igd.FriendlyIdentifier(), nat.ErrUnsupportedVersion)
		}
	}
	if v1 != nil {
		l.Debugln("Selected IGDv1 device", v1.FriendlyIdentifier())
		return v1, nil
	}
	return nil, errors.Join(errs...)
}

func localAddresses() []*net.IPAddr {
	var res []*net.IPAddr
	for _, family := range []netutil.Family{netutil.IPv4, netutil.IPv6} {
		addrs, err := netutil.LocalAddresses(family)
		if err != nil {
			l.Infoln("Listing local addresses:", err)
			continue
		}
		res = append(res, addrs...)
	}
	return res
}
