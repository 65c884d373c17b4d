// Copyright (C) 2025 The Syncthing Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

//go:build android

package netutil

import (
	"net"

	"github.com/wlynxg/anet"
)

// Android restricts netlink access for applications, which breaks the
// standard library interface listing.

func interfaces() ([]net.Interface, error) {
	return anet.Interfaces()
}

func interfaceAddrs(intf *net.Interface) ([]net.Addr, error) {
	return anet.InterfaceAddrsByInterface(intf)
}
