// Copyright (C) 2014 The Syncthing Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

package upnp

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"sync"
	"time"

	"github.com/syncthing/natreach/lib/nat"
)

var errNoService = errors.New("service not offered by the device")

// An IGD is a UPnP InternetGatewayDevice.
type IGD struct {
	client    *Client
	location  NetworkLocation
	url       *url.URL
	root      *rootDescription
	localIPv4 net.IP

	once     sync.Once
	version  Version
	wan      *service
	firewall *service
}

var _ nat.Gateway = (*IGD)(nil)

// ID returns the unique service name of the device.
func (n *IGD) ID() string {
	return n.location.USN
}

func (n *IGD) FriendlyName() string {
	return n.root.Device.FriendlyName
}

// FriendlyIdentifier returns a friendly identifier (friendly name + IP
// address) for the IGD.
func (n *IGD) FriendlyIdentifier() string {
	return "'" + n.FriendlyName() + "' (" + n.url.Hostname() + ")"
}

// URL returns the location the description was fetched from.
func (n *IGD) URL() *url.URL {
	return n.url
}

func (n *IGD) Location() NetworkLocation {
	return n.location
}

// Version returns the device version, resolving it and the services of
// that version on first use.
func (n *IGD) Version() Version {
	n.once.Do(func() {
		n.version = versionOf(n.root.Device.DeviceType)
		if n.version == VersionUnknown {
			l.Infof("%s: %v %q", n.FriendlyIdentifier(), nat.ErrUnsupportedVersion, n.root.Device.DeviceType)
			return
		}
		n.wan, n.firewall = resolveServices(n.root, n.version, n.baseURL())
	})
	return n.version
}

func (n *IGD) baseURL() *url.URL {
	if n.root.URLBase != "" {
		if u, err := url.Parse(n.root.URLBase); err == nil && u.IsAbs() {
			return u
		}
	}
	return n.url
}

func (n *IGD) wanService(action string) (*service, error) {
	if n.Version() == VersionUnknown {
		return nil, nat.ErrUnsupportedVersion
	}
	if n.wan == nil {
		return nil, fmt.Errorf("%s: %w", action, errNoService)
	}
	return n.wan, nil
}

func (n *IGD) firewallService(action string) (*service, error) {
	if n.Version() == VersionUnknown {
		return nil, nat.ErrUnsupportedVersion
	}
	if n.firewall == nil {
		return nil, fmt.Errorf("%s: %w", action, errNoService)
	}
	return n.firewall, nil
}

func (n *IGD) logFailure(action string, family nat.Family, err error) {
	l.Infof("%s: %s (%s) failed: %v", n.FriendlyIdentifier(), action, family, err)
}

// GetLocalIPv4Address returns the IP address of the local network interface
// which is facing the IGD.
func (n *IGD) GetLocalIPv4Address() net.IP {
	return n.localIPv4
}

// OpenIPv4Port maps the reservation to the internal address. IGDv2 devices
// choose the external port themselves; IGDv1 devices map the same port.
func (n *IGD) OpenIPv4Port(ctx context.Context, internal net.IP, r nat.PortReservation) (int, error) {
	if internal == nil {
		internal = n.localIPv4
	}
	if internal == nil {
		err := errors.New("no local IPv4 address")
		n.logFailure("map port", nat.IPv4, err)
		return 0, err
	}

	req := portMappingRequest{
		ExternalPort:   r.Port,
		Protocol:       string(r.Protocol),
		InternalPort:   r.Port,
		InternalClient: internal.String(),
		Enabled:        true,
		Description:    r.Description,
		LeaseDuration:  int(r.Lease / time.Second),
	}

	switch n.Version() {
	case Version2:
		wan, err := n.wanService("AddAnyPortMapping")
		if err != nil {
			n.logFailure("AddAnyPortMapping", nat.IPv4, err)
			return 0, err
		}
		resp, err := invoke[portMappingRequest, addAnyPortMappingResponse](ctx, n.client, wan, "AddAnyPortMapping", req)
		if err != nil {
			n.logFailure("AddAnyPortMapping", nat.IPv4, err)
			return 0, err
		}
		if resp.ReservedPort <= 0 || resp.ReservedPort > 65535 {
			err := &nat.ProtocolError{Action: "AddAnyPortMapping", Status: 200, Err: fmt.Errorf("invalid reserved port %d", resp.ReservedPort)}
			n.logFailure("AddAnyPortMapping", nat.IPv4, err)
			return 0, err
		}
		l.Debugf("%s: mapped %s to external port %d", n.FriendlyIdentifier(), r, resp.ReservedPort)
		return resp.ReservedPort, nil

	case Version1:
		wan, err := n.wanService("AddPortMapping")
		if err != nil {
			n.logFailure("AddPortMapping", nat.IPv4, err)
			return 0, err
		}
		_, err = invoke[portMappingRequest, addPortMappingResponse](ctx, n.client, wan, "AddPortMapping", req)
		if err != nil && req.LeaseDuration > 0 && upnpErrorCode(err) == errOnlyPermanentLeasesSupported {
			l.Debugf("%s: only permanent leases supported, retrying", n.FriendlyIdentifier())
			req.LeaseDuration = 0
			_, err = invoke[portMappingRequest, addPortMappingResponse](ctx, n.client, wan, "AddPortMapping", req)
		}
		if err != nil {
			n.logFailure("AddPortMapping", nat.IPv4, err)
			return 0, err
		}
		l.Debugf("%s: mapped %s", n.FriendlyIdentifier(), r)
		return r.Port, nil

	default:
		n.logFailure("map port", nat.IPv4, nat.ErrUnsupportedVersion)
		return 0, nat.ErrUnsupportedVersion
	}
}

// CloseIPv4Port removes the UDP mapping of the external port. Failures are
// logged.
func (n *IGD) CloseIPv4Port(ctx context.Context, externalPort int) {
	wan, err := n.wanService("DeletePortMapping")
	if err != nil {
		n.logFailure("DeletePortMapping", nat.IPv4, err)
		return
	}
	req := deletePortMappingRequest{
		ExternalPort: externalPort,
		Protocol:     string(nat.UDP),
	}
	_, err = invoke[deletePortMappingRequest, deletePortMappingResponse](ctx, n.client, wan, "DeletePortMapping", req)
	switch {
	case err == nil:
		l.Debugf("%s: removed mapping of port %d", n.FriendlyIdentifier(), externalPort)
	case upnpErrorCode(err) == errNoSuchEntryInArray:
		l.Infof("%s: no mapping of port %d to remove", n.FriendlyIdentifier(), externalPort)
	default:
		n.logFailure("DeletePortMapping", nat.IPv4, err)
	}
}

// GetExternalIPv4Address queries the device for its external address. It
// returns nil when unknown.
func (n *IGD) GetExternalIPv4Address(ctx context.Context) net.IP {
	wan, err := n.wanService("GetExternalIPAddress")
	if err != nil {
		l.Debugf("%s: %v", n.FriendlyIdentifier(), err)
		return nil
	}
	resp, err := invoke[getExternalIPAddressRequest, getExternalIPAddressResponse](ctx, n.client, wan, "GetExternalIPAddress", getExternalIPAddressRequest{})
	if err != nil {
		l.Debugf("%s: GetExternalIPAddress: %v", n.FriendlyIdentifier(), err)
		return nil
	}
	ip := net.ParseIP(resp.ExternalIPAddress).To4()
	if ip == nil || ip.IsUnspecified() {
		l.Debugf("%s: no usable external address %q", n.FriendlyIdentifier(), resp.ExternalIPAddress)
		return nil
	}
	return ip
}

// GetNATStatus reports whether the device performs NAT.
func (n *IGD) GetNATStatus(ctx context.Context) nat.Tristate {
	wan, err := n.wanService("GetNATRSIPStatus")
	if err != nil {
		l.Debugf("%s: %v", n.FriendlyIdentifier(), err)
		return nat.Unknown
	}
	resp, err := invoke[getNATRSIPStatusRequest, getNATRSIPStatusResponse](ctx, n.client, wan, "GetNATRSIPStatus", getNATRSIPStatusRequest{})
	if err != nil {
		l.Debugf("%s: GetNATRSIPStatus: %v", n.FriendlyIdentifier(), err)
		return nat.Unknown
	}
	return nat.TristateOf(bool(resp.NATEnabled))
}

// GetIPv6FirewallStatus queries the IPv6 firewall. Failures give an unknown
// status; the error is only set when ctx is done.
func (n *IGD) GetIPv6FirewallStatus(ctx context.Context) (nat.FirewallStatus, error) {
	fw, err := n.firewallService("GetFirewallStatus")
	if err != nil {
		l.Debugf("%s: %v", n.FriendlyIdentifier(), err)
		return nat.FirewallStatus{}, nil
	}
	resp, err := invoke[getFirewallStatusRequest, getFirewallStatusResponse](ctx, n.client, fw, "GetFirewallStatus", getFirewallStatusRequest{})
	if err != nil {
		if ctx.Err() != nil {
			return nat.FirewallStatus{}, ctx.Err()
		}
		l.Debugf("%s: GetFirewallStatus: %v", n.FriendlyIdentifier(), err)
		return nat.FirewallStatus{}, nil
	}
	return nat.FirewallStatus{
		Enabled:               nat.TristateOf(bool(resp.FirewallEnabled)),
		InboundPinholeAllowed: nat.TristateOf(bool(resp.InboundPinholeAllowed)),
	}, nil
}

// OpenIPv6Port opens a pinhole from any remote host to the port on the
// given address, in accordance with
// http://upnp.org/specs/gw/UPnP-gw-WANIPv6FirewallControl-v1-Service.pdf
func (n *IGD) OpenIPv6Port(ctx context.Context, address net.IP, r nat.PortReservation) (nat.PinholeID, error) {
	fw, err := n.firewallService("AddPinhole")
	if err != nil {
		n.logFailure("AddPinhole", nat.IPv6, err)
		return 0, err
	}
	req := addPinholeRequest{
		InternalClient: address.String(),
		InternalPort:   r.Port,
		Protocol:       r.Protocol.Number(),
		LeaseTime:      int(r.Lease / time.Second),
	}
	// By the UPnP spec, the source address for unauthenticated clients should
	// be the same as the InternalClient the pinhole is requested for.
	resp, err := invoke[addPinholeRequest, addPinholeResponse](withSourceAddress(ctx, address), n.client, fw, "AddPinhole", req)
	if err != nil {
		n.logFailure("AddPinhole", nat.IPv6, err)
		return 0, err
	}
	l.Debugf("%s: opened pinhole %d for %s on %s", n.FriendlyIdentifier(), resp.UniqueID, r, address)
	return nat.PinholeID(resp.UniqueID), nil
}

// CloseIPv6Port removes the pinhole. Failures are logged.
func (n *IGD) CloseIPv6Port(ctx context.Context, id nat.PinholeID) {
	fw, err := n.firewallService("DeletePinhole")
	if err != nil {
		n.logFailure("DeletePinhole", nat.IPv6, err)
		return
	}
	_, err = invoke[deletePinholeRequest, deletePinholeResponse](ctx, n.client, fw, "DeletePinhole", deletePinholeRequest{UniqueID: uint16(id)})
	switch {
	case err == nil:
		l.Debugf("%s: removed pinhole %d", n.FriendlyIdentifier(), id)
	case upnpErrorCode(err) == errNoSuchPinhole:
		l.Infof("%s: no pinhole %d to remove", n.FriendlyIdentifier(), id)
	default:
		n.logFailure("DeletePinhole", nat.IPv6, err)
	}
}
