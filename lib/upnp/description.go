// Copyright (C) 2014 The Syncthing Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

package upnp

import (
	"context"
	"encoding/xml"
	"errors"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/syncthing/natreach/lib/nat"
	"github.com/syncthing/natreach/lib/netutil"
)

const (
	igdDeviceType       = "urn:schemas-upnp-org:device:InternetGatewayDevice:"
	wanDeviceType       = "urn:schemas-upnp-org:device:WANDevice:"
	wanConnectionType   = "urn:schemas-upnp-org:device:WANConnectionDevice:"
	wanIPConnection     = "urn:schemas-upnp-org:service:WANIPConnection:"
	wanPPPConnectionV1  = "urn:schemas-upnp-org:service:WANPPPConnection:1"
	ipv6FirewallControl = "urn:schemas-upnp-org:service:WANIPv6FirewallControl:1"

	maxDescriptionSize = 1 << 20
	localIPDialTimeout = time.Second
)

type serviceDescription struct {
	ID         string `xml:"serviceId"`
	Type       string `xml:"serviceType"`
	ControlURL string `xml:"controlURL"`
}

type deviceDescription struct {
	DeviceType   string               `xml:"deviceType"`
	FriendlyName string               `xml:"friendlyName"`
	UDN          string               `xml:"UDN"`
	Devices      []deviceDescription  `xml:"deviceList>device"`
	Services     []serviceDescription `xml:"serviceList>service"`
}

type rootDescription struct {
	URLBase string            `xml:"URLBase"`
	Device  deviceDescription `xml:"device"`
}

// Version is the InternetGatewayDevice version of a device.
type Version int

const (
	VersionUnknown Version = iota
	Version1
	Version2
)

func (v Version) String() string {
	switch v {
	case Version1:
		return "IGDv1"
	case Version2:
		return "IGDv2"
	default:
		return "unknown"
	}
}

// versionOf parses the version from the suffix of the root device type.
func versionOf(deviceType string) Version {
	suffix, ok := strings.CutPrefix(strings.TrimSpace(deviceType), igdDeviceType)
	if !ok {
		return VersionUnknown
	}
	n, err := strconv.Atoi(suffix)
	if err != nil {
		return VersionUnknown
	}
	switch n {
	case 1:
		return Version1
	case 2:
		return Version2
	default:
		return VersionUnknown
	}
}

// A service is an action endpoint of a device.
type service struct {
	Type       string
	ControlURL string
}

// resolveServices walks WANDevice > WANConnectionDevice of the given version
// and returns the first WAN connection service and the first IPv6 firewall
// service found. Either may be nil.
func resolveServices(root *rootDescription, version Version, base *url.URL) (wan, firewall *service) {
	n := strconv.Itoa(int(version))
	wanTypes := []string{wanIPConnection + n}
	if version == Version1 {
		wanTypes = append(wanTypes, wanPPPConnectionV1)
	}

	for _, wanDevice := range childDevices(root.Device, wanDeviceType+n) {
		for _, conn := range childDevices(wanDevice, wanConnectionType+n) {
			for _, svc := range conn.Services {
				switch {
				case wan == nil && contains(wanTypes, svc.Type):
					wan = newService(base, svc)
				case firewall == nil && svc.Type == ipv6FirewallControl:
					firewall = newService(base, svc)
				}
			}
		}
	}
	return wan, firewall
}

func newService(base *url.URL, svc serviceDescription) *service {
	if svc.ControlURL == "" {
		l.Infoln(base, "- malformed", svc.Type, "description: no control URL.")
		return nil
	}
	ref, err := url.Parse(strings.TrimSpace(svc.ControlURL))
	if err != nil {
		l.Infoln(base, "- malformed", svc.Type, "control URL:", err)
		return nil
	}
	u := base.ResolveReference(ref)
	l.Debugln(base, "- found", svc.Type, "with URL", u)
	return &service{Type: svc.Type, ControlURL: u.String()}
}

func childDevices(d deviceDescription, deviceType string) []deviceDescription {
	var res []deviceDescription
	for _, dev := range d.Devices {
		if dev.DeviceType == deviceType {
			res = append(res, dev)
		}
	}
	return res
}

func contains(ss []string, s string) bool {
	for _, e := range ss {
		if e == s {
			return true
		}
	}
	return false
}

// Fetch retrieves the description of the device at its preferred location,
// the first IPv6 location if any, else the first IPv4 one. When an IPv6
// fetch times out the first IPv4 location is tried instead.
func (c *Client) Fetch(ctx context.Context, loc NetworkLocation) (*IGD, error) {
	if len(loc.Locations) == 0 {
		return nil, &nat.DiscoveryError{USN: loc.USN, Err: errors.New("no location")}
	}

	u := preferredLocation(loc.Locations)
	root, err := c.describe(ctx, u)
	if err != nil && isIPv6Host(u) && isTimeout(err) && ctx.Err() == nil {
		if v4 := firstIPv4Location(loc.Locations); v4 != nil {
			l.Debugf("Description fetch from %s timed out, trying %s", u, v4)
			metricDescriptionFetches.WithLabelValues(metricResultFallback).Inc()
			u = v4
			root, err = c.describe(ctx, u)
		}
	}
	if err != nil {
		return nil, &nat.DiscoveryError{USN: loc.USN, Err: err}
	}

	igd := &IGD{
		client:   c,
		location: loc,
		url:      u,
		root:     root,
	}
	igd.localIPv4 = c.localIPv4(ctx, loc.Locations)
	return igd, nil
}

// describe returns the cached description at u, or fetches it.
func (c *Client) describe(ctx context.Context, u *url.URL) (*rootDescription, error) {
	key := u.String()
	if root, ok := c.descriptions.Get(key); ok {
		metricDescriptionFetches.WithLabelValues(metricResultCached).Inc()
		return root, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, key, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		metricDescriptionFetches.WithLabelValues(metricResultError).Inc()
		return nil, &nat.TransportError{Op: "GET", URL: key, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		metricDescriptionFetches.WithLabelValues(metricResultError).Inc()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxDescriptionSize))
		return nil, &nat.ProtocolError{Action: "GET " + key, Status: resp.StatusCode, Body: string(body)}
	}

	var root rootDescription
	if err := xml.NewDecoder(io.LimitReader(resp.Body, maxDescriptionSize)).Decode(&root); err != nil {
		metricDescriptionFetches.WithLabelValues(metricResultError).Inc()
		return nil, &nat.ProtocolError{Action: "GET " + key, Status: resp.StatusCode, Err: err}
	}
	if root.URLBase != "" {
		if _, err := url.Parse(root.URLBase); err != nil {
			root.URLBase = ""
		}
	}

	metricDescriptionFetches.WithLabelValues(metricResultSuccess).Inc()
	c.descriptions.Add(key, &root)
	return &root, nil
}

// localIPv4 returns the local address used to reach the device over IPv4.
// We connect to it and look at the local end of the socket; when no IPv4
// location answers, the address facing the default route is used.
func (c *Client) localIPv4(ctx context.Context, locations []*url.URL) net.IP {
	if u := firstIPv4Location(locations); u != nil {
		ctx, cancel := context.WithTimeout(ctx, localIPDialTimeout)
		defer cancel()
		conn, err := c.dialer.DialContext(ctx, "tcp4", hostPort(u))
		if err == nil {
			defer conn.Close()
			if ip, err := netutil.IPFromAddr(conn.LocalAddr()); err == nil && ip.To4() != nil {
				return ip.To4()
			}
		} else {
			l.Debugln("Dialing", u.Host, "for local address:", err)
		}
	}

	ip, err := netutil.GatewayInterfaceAddress()
	if err != nil || ip.To4() == nil {
		l.Debugln("No local IPv4 address facing the gateway:", err)
		return nil
	}
	return ip.To4()
}

func preferredLocation(locations []*url.URL) *url.URL {
	for _, u := range locations {
		if isIPv6Host(u) {
			return u
		}
	}
	return locations[0]
}

func firstIPv4Location(locations []*url.URL) *url.URL {
	for _, u := range locations {
		if !isIPv6Host(u) {
			return u
		}
	}
	return nil
}

func isIPv6Host(u *url.URL) bool {
	ip := netutil.IPFromString(u.Hostname())
	return ip != nil && ip.To4() == nil
}

func hostPort(u *url.URL) string {
	if u.Port() != "" {
		return u.Host
	}
	if u.Scheme == "https" {
		return net.JoinHostPort(u.Hostname(), "443")
	}
	return net.JoinHostPort(u.Hostname(), "80")
}

func isTimeout(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
