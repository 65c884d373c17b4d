// Copyright (C) 2014 The Syncthing Authors.
//
// Adapted from https://github.com/jackpal/Taipei-Torrent/blob/dd88a8bfac6431c01d959ce3c745e74b8a911793/IGD.go
// Copyright (c) 2010 Jack Palevich (https://github.com/jackpal/Taipei-Torrent/blob/dd88a8bfac6431c01d959ce3c745e74b8a911793/LICENSE)
//
// Redistribution and use in source and binary forms, with or without
// modification, are permitted provided that the following conditions are
// met:
//
//    * Redistributions of source code must retain the above copyright
// notice, this list of conditions and the following disclaimer.
//    * Redistributions in binary form must reproduce the above
// copyright notice, this list of conditions and the following disclaimer
// in the documentation and/or other materials provided with the
// distribution.
//    * Neither the name of Google Inc. nor the names of its
// contributors may be used to endorse or promote products derived from
// this software without specific prior written permission.
//
// THIS SOFTWARE IS PROVIDED BY THE COPYRIGHT HOLDERS AND CONTRIBUTORS
// "AS IS" AND ANY EXPRESS OR IMPLIED WARRANTIES, INCLUDING, BUT NOT
// LIMITED TO, THE IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS FOR
// A PARTICULAR PURPOSE ARE DISCLAIMED. IN NO EVENT SHALL THE COPYRIGHT
// OWNER OR CONTRIBUTORS BE LIABLE FOR ANY DIRECT, INDIRECT, INCIDENTAL,
// SPECIAL, EXEMPLARY, OR CONSEQUENTIAL DAMAGES (INCLUDING, BUT NOT
// LIMITED TO, PROCUREMENT OF SUBSTITUTE GOODS OR SERVICES; LOSS OF USE,
// DATA, OR PROFITS; OR BUSINESS INTERRUPTION) HOWEVER CAUSED AND ON ANY
// THEORY OF LIABILITY, WHETHER IN CONTRACT, STRICT LIABILITY, OR TORT
// (INCLUDING NEGLIGENCE OR OTHERWISE) ARISING IN ANY WAY OUT OF THE USE
// OF THIS SOFTWARE, EVEN IF ADVISED OF THE POSSIBILITY OF SUCH DAMAGE.

package upnp

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/net/ipv4"
	"golang.org/x/net/ipv6"

	"github.com/syncthing/natreach/lib/nat"
	"github.com/syncthing/natreach/lib/netutil"
)

const (
	ssdpPort       = 1900
	searchTarget   = "upnp:rootdevice"
	searchMX       = 2
	searchRepeats  = 3
	searchInterval = 50 * time.Millisecond
	multicastTTL   = 2
)

var (
	ssdpGroupIPv4      = net.IPv4(239, 255, 255, 250)
	ssdpGroupLinkLocal = net.ParseIP("ff02::c")
	ssdpGroupSiteLocal = net.ParseIP("ff05::c")

	requiredHeaders = []string{"Location", "Server", "Cache-Control", "Ext", "St", "Usn"}
)

// A NetworkLocation is a device that answered discovery, with every
// description location it was seen at.
type NetworkLocation struct {
	Locations    []*url.URL
	Server       string
	CacheControl string
	Ext          string
	SearchTarget string
	USN          string
}

// multicastGroup returns the SSDP group to search from the local address,
// or nil when the address has no suitable scope.
func multicastGroup(local *net.IPAddr) *net.UDPAddr {
	ip := local.IP
	switch {
	case ip == nil || ip.IsLoopback() || ip.IsUnspecified():
		return nil
	case ip.To4() != nil:
		return &net.UDPAddr{IP: ssdpGroupIPv4, Port: ssdpPort}
	case ip.IsLinkLocalUnicast():
		return &net.UDPAddr{IP: ssdpGroupLinkLocal, Port: ssdpPort, Zone: local.Zone}
	case netutil.IsSiteLocal(ip):
		return &net.UDPAddr{IP: ssdpGroupSiteLocal, Port: ssdpPort}
	default:
		return nil
	}
}

func searchRequest(group *net.UDPAddr) []byte {
	host := net.JoinHostPort(group.IP.String(), fmt.Sprint(group.Port))
	tpl := `M-SEARCH * HTTP/1.1
HOST: %s
ST: %s
MAN: "ssdp:discover"
MX: %d
USER-AGENT: %s

`
	req := fmt.Sprintf(tpl, host, searchTarget, searchMX, userAgent)
	return []byte(strings.ReplaceAll(req, "\n", "\r\n"))
}

// Discover searches for root devices from each of the local addresses
// concurrently, for the duration of timeout, and returns the answering
// devices grouped by USN. The order of the result is not deterministic.
func (c *Client) Discover(ctx context.Context, locals []*net.IPAddr, timeout time.Duration) []NetworkLocation {
	var (
		mut       sync.Mutex
		responses []http.Header
		wg        sync.WaitGroup
	)

	for _, local := range locals {
		group := multicastGroup(local)
		if group == nil {
			continue
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			headers, err := search(ctx, local, group, timeout)
			if err != nil {
				l.Infof("UPnP discovery from %s: %v", local, err)
			}
			mut.Lock()
			responses = append(responses, headers...)
			mut.Unlock()
		}()
	}
	wg.Wait()

	if ctx.Err() != nil {
		return nil
	}
	return groupResponses(responses)
}

// search sends the M-SEARCH from the local address and collects the
// responses until the window closes.
func search(ctx context.Context, local *net.IPAddr, group *net.UDPAddr, timeout time.Duration) ([]http.Header, error) {
	family := netutil.FamilyOf(local.IP)
	conn, err := net.ListenUDP(family.Network("udp"), &net.UDPAddr{IP: local.IP, Zone: local.Zone})
	if err != nil {
		return nil, &nat.TransportError{Op: "listen", URL: local.String(), Err: err}
	}
	defer conn.Close()

	intf, err := netutil.InterfaceByAddress(local.IP)
	if err != nil {
		l.Debugln("UPnP discovery:", err)
	}
	if family == netutil.IPv4 {
		pc := ipv4.NewPacketConn(conn)
		if err := pc.SetMulticastTTL(multicastTTL); err != nil {
			l.Debugln("UPnP discovery: setting TTL:", err)
		}
		if intf != nil {
			if err := pc.SetMulticastInterface(intf); err != nil {
				l.Debugln("UPnP discovery: setting interface:", err)
			}
		}
	} else {
		pc := ipv6.NewPacketConn(conn)
		if err := pc.SetMulticastHopLimit(multicastTTL); err != nil {
			l.Debugln("UPnP discovery: setting hop limit:", err)
		}
		if intf != nil {
			if err := pc.SetMulticastInterface(intf); err != nil {
				l.Debugln("UPnP discovery: setting interface:", err)
			}
		}
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	defer netutil.CloseOnDone(ctx, conn)()

	req := searchRequest(group)
	l.Debugln("Sending search request from", local, "to", group)
	sent := 0
	for i := 0; i < searchRepeats; i++ {
		if i > 0 {
			select {
			case <-time.After(searchInterval):
			case <-ctx.Done():
				return nil, nil
			}
		}
		if _, err := conn.WriteTo(req, group); err != nil {
			l.Debugln("UPnP discovery: sending search request:", err)
			continue
		}
		sent++
	}
	if sent == 0 {
		return nil, &nat.TransportError{Op: "search", URL: group.String(), Err: errors.New("no request could be sent")}
	}

	var responses []http.Header
	buf := make([]byte, 65536)
	for {
		n, from, err := conn.ReadFrom(buf)
		if err != nil {
			if ctx.Err() != nil {
				// The window closed.
				return responses, nil
			}
			return responses, &nat.TransportError{Op: "read", URL: group.String(), Err: err}
		}

		header, err := parseResponse(buf[:n])
		if err != nil {
			l.Debugf("Ignoring SSDP response from %s: %v", from, err)
			metricDiscoveryResponses.WithLabelValues(family.String(), metricResultInvalid).Inc()
			continue
		}
		l.Debugf("SSDP response from %s: %v", from, header)
		metricDiscoveryResponses.WithLabelValues(family.String(), metricResultSuccess).Inc()
		responses = append(responses, header)
	}
}

// parseResponse reads the header block of a search response.
func parseResponse(data []byte) (http.Header, error) {
	resp, err := http.ReadResponse(bufio.NewReader(bytes.NewReader(data)), nil)
	if err != nil {
		return nil, err
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}
	return resp.Header, nil
}

// groupResponses collapses responses sharing a USN into one
// NetworkLocation. Responses lacking a required header are dropped.
func groupResponses(responses []http.Header) []NetworkLocation {
	var res []NetworkLocation
	index := make(map[string]int)

	for _, header := range responses {
		if missing := missingHeader(header); missing != "" {
			l.Debugf("Discarding SSDP response from %s without %s", header.Get("Usn"), missing)
			continue
		}
		location, err := url.Parse(header.Get("Location"))
		if err != nil || !location.IsAbs() {
			l.Debugf("Discarding SSDP response with invalid location %q", header.Get("Location"))
			continue
		}

		usn := header.Get("Usn")
		i, ok := index[usn]
		if !ok {
			i = len(res)
			index[usn] = i
			res = append(res, NetworkLocation{
				Server:       header.Get("Server"),
				CacheControl: header.Get("Cache-Control"),
				Ext:          header.Get("Ext"),
				SearchTarget: header.Get("St"),
				USN:          usn,
			})
		}
		if !containsURL(res[i].Locations, location) {
			res[i].Locations = append(res[i].Locations, location)
		}
	}
	return res
}

// missingHeader returns the first required header absent from h. EXT may be
// empty but must be present.
func missingHeader(h http.Header) string {
	for _, name := range requiredHeaders {
		vals, ok := h[name]
		if !ok || len(vals) == 0 {
			return name
		}
		if name != "Ext" && strings.TrimSpace(vals[0]) == "" {
			return name
		}
	}
	return ""
}

func containsURL(urls []*url.URL, u *url.URL) bool {
	for _, e := range urls {
		if e.String() == u.String() {
			return true
		}
	}
	return false
}
