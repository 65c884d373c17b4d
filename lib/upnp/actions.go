// Copyright (C) 2024 The Syncthing Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

package upnp

// WANIPConnection:1 and :2, WANPPPConnection:1

type portMappingRequest struct {
	RemoteHost     string   `xml:"NewRemoteHost"`
	ExternalPort   int      `xml:"NewExternalPort"`
	Protocol       string   `xml:"NewProtocol"`
	InternalPort   int      `xml:"NewInternalPort"`
	InternalClient string   `xml:"NewInternalClient"`
	Enabled        upnpBool `xml:"NewEnabled"`
	Description    string   `xml:"NewPortMappingDescription"`
	LeaseDuration  int      `xml:"NewLeaseDuration"`
}

type addPortMappingResponse struct{}

type addAnyPortMappingResponse struct {
	ReservedPort int `xml:"NewReservedPort"`
}

type deletePortMappingRequest struct {
	RemoteHost   string `xml:"NewRemoteHost"`
	ExternalPort int    `xml:"NewExternalPort"`
	Protocol     string `xml:"NewProtocol"`
}

type deletePortMappingResponse struct{}

type getExternalIPAddressRequest struct{}

type getExternalIPAddressResponse struct {
	ExternalIPAddress string `xml:"NewExternalIPAddress"`
}

type getNATRSIPStatusRequest struct{}

type getNATRSIPStatusResponse struct {
	RSIPAvailable upnpBool `xml:"NewRSIPAvailable"`
	NATEnabled    upnpBool `xml:"NewNATEnabled"`
}

// WANIPv6FirewallControl:1

type getFirewallStatusRequest struct{}

type getFirewallStatusResponse struct {
	FirewallEnabled       upnpBool `xml:"FirewallEnabled"`
	InboundPinholeAllowed upnpBool `xml:"InboundPinholeAllowed"`
}

type addPinholeRequest struct {
	RemoteHost     string `xml:"RemoteHost"`
	RemotePort     int    `xml:"RemotePort"`
	InternalClient string `xml:"InternalClient"`
	InternalPort   int    `xml:"InternalPort"`
	Protocol       int    `xml:"Protocol"`
	LeaseTime      int    `xml:"LeaseTime"`
}

type addPinholeResponse struct {
	UniqueID uint16 `xml:"UniqueID"`
}

type deletePinholeRequest struct {
	UniqueID uint16 `xml:"UniqueID"`
}

type deletePinholeResponse struct{}

// UPnP error codes handled specially.
const (
	errNoSuchPinhole                = 704
	errNoSuchEntryInArray           = 714
	errOnlyPermanentLeasesSupported = 725
)
