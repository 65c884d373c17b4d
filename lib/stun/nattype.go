// Copyright (C) 2019 The Syncthing Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

package stun

import (
	"context"
	"fmt"
	"net"

	"github.com/ccding/go-stun/stun"

	"github.com/syncthing/natreach/lib/svcutil"
)

type (
	Host    = stun.Host
	NATType = stun.NATType
)

// NAT types.

const (
	NATError                = stun.NATError
	NATUnknown              = stun.NATUnknown
	NATNone                 = stun.NATNone
	NATBlocked              = stun.NATBlocked
	NATFull                 = stun.NATFull
	NATSymmetric            = stun.NATSymmetric
	NATRestricted           = stun.NATRestricted
	NATPortRestricted       = stun.NATPortRestricted
	NATSymmetricUDPFirewall = stun.NATSymmetricUDPFirewall
)

// IsPunchable returns true for NAT types that let a peer reach a port mapped
// by a previous outgoing packet.
func IsPunchable(natType NATType) bool {
	return natType == NATNone || natType == NATPortRestricted || natType == NATRestricted || natType == NATFull || natType == NATSymmetricUDPFirewall
}

// DetectNATType classifies the NAT between us and the server, using the
// RFC 3489 tests, and returns the external address seen by the server.
func DetectNATType(ctx context.Context, server string) (NATType, *Host, error) {
	server = serverAddress(server)

	// Resolve the address once, so that every test hits the same server
	// even when the name has several addresses.
	udpAddr, err := net.ResolveUDPAddr("udp4", server)
	if err != nil {
		l.Debugf("stun addr resolution on %s: %s", server, err)
		return NATError, nil, err
	}

	client := stun.NewClient()
	client.SetSoftwareName("") // Explicitly unset this, seems to freak some servers out.
	client.SetServerAddr(udpAddr.String())

	natType := NATError
	var extAddr *Host
	err = svcutil.CallWithContext(ctx, func() error {
		var err error
		natType, extAddr, err = client.Discover()
		return err
	})
	if err != nil {
		l.Debugf("stun discovery on %s: %v", server, err)
		return NATError, nil, err
	}
	metricNATTypeDetections.WithLabelValues(natType.String()).Inc()
	if extAddr == nil {
		l.Debugf("stun discovery on %s resulted in no address", server)
		return natType, nil, fmt.Errorf("%s: no address", server)
	}
	l.Debugf("Detected NAT type %s with external address %s via %s", natType, extAddr.TransportAddr(), server)
	return natType, extAddr, nil
}
