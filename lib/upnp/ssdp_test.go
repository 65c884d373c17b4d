// Copyright (C) 2016 The Syncthing Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

package upnp

import (
	"net"
	"net/http"
	"strings"
	"testing"
)

func TestParseResponse(t *testing.T) {
	t.Parallel()

	data := []byte("HTTP/1.1 200 OK\r\n" +
		"CACHE-CONTROL: max-age=120\r\n" +
		"ST: upnp:rootdevice\r\n" +
		"USN: uuid:3d3cec3a-8cf0-11e0-98ee-001a6baf5f30::upnp:rootdevice\r\n" +
		"EXT:\r\n" +
		"SERVER: Linux/5.10 UPnP/1.1 MiniUPnPd/2.3.3\r\n" +
		"LOCATION: http://192.168.1.1:5000/rootDesc.xml\r\n" +
		"\r\n")

	header, err := parseResponse(data)
	if err != nil {
		t.Fatal(err)
	}
	if missing := missingHeader(header); missing != "" {
		t.Errorf("header %s reported missing", missing)
	}
	if header.Get("Location") != "http://192.168.1.1:5000/rootDesc.xml" {
		t.Errorf("unexpected location %q", header.Get("Location"))
	}

	if _, err := parseResponse([]byte("NOTIFY * HTTP/1.1\r\nHOST: 239.255.255.250:1900\r\n\r\n")); err == nil {
		t.Error("notification parsed as a search response")
	}
	if _, err := parseResponse([]byte("HTTP/1.1 404 Not Found\r\n\r\n")); err == nil {
		t.Error("unsuccessful response accepted")
	}
}

func response(usn, location string, drop ...string) http.Header {
	h := http.Header{
		"Cache-Control": {"max-age=1800"},
		"St":            {"upnp:rootdevice"},
		"Usn":           {usn},
		"Ext":           {""},
		"Server":        {"Custom/1.0 UPnP/1.0 Proc/Ver"},
		"Location":      {location},
	}
	for _, d := range drop {
		delete(h, d)
	}
	return h
}

func TestGroupResponses(t *testing.T) {
	t.Parallel()

	const (
		usnA = "uuid:aaaa::upnp:rootdevice"
		usnB = "uuid:bbbb::upnp:rootdevice"
		usnC = "uuid:cccc::upnp:rootdevice"
	)

	groups := groupResponses([]http.Header{
		response(usnA, "http://192.168.1.1:5000/rootDesc.xml"),
		response(usnA, "http://[fe80::1]:5000/rootDesc.xml"),
		response(usnA, "http://192.168.1.1:5000/rootDesc.xml"),
		response(usnB, "http://192.168.1.2/desc.xml", "Server"),
		response(usnC, "http://192.168.1.3/desc.xml", "Ext"),
		response(usnC, "not a url"),
	})

	if len(groups) != 1 {
		t.Fatalf("expected one valid group, got %d: %+v", len(groups), groups)
	}
	g := groups[0]
	if g.USN != usnA {
		t.Errorf("unexpected USN %q", g.USN)
	}
	if len(g.Locations) != 2 {
		t.Errorf("expected two distinct locations, got %v", g.Locations)
	}
	if g.Server == "" || g.CacheControl == "" || g.SearchTarget != searchTarget {
		t.Errorf("headers not carried over: %+v", g)
	}
}

func TestMissingHeader(t *testing.T) {
	t.Parallel()

	for _, name := range requiredHeaders {
		if missing := missingHeader(response("uuid:x", "http://192.168.1.1/", name)); missing != name {
			t.Errorf("without %s, got %q", name, missing)
		}
	}

	h := response("uuid:x", "http://192.168.1.1/")
	h["Server"] = []string{" "}
	if missingHeader(h) != "Server" {
		t.Error("blank server accepted")
	}
}

func TestMulticastGroup(t *testing.T) {
	t.Parallel()

	cases := []struct {
		addr string
		zone string
		exp  string
	}{
		{"192.168.1.10", "", "239.255.255.250:1900"},
		{"127.0.0.1", "", ""},
		{"fe80::1", "eth0", "[ff02::c%eth0]:1900"},
		{"fec0::1", "", "[ff05::c]:1900"},
		{"fd00::1", "", "[ff05::c]:1900"},
		{"2001:db8::1", "", ""},
		{"::1", "", ""},
	}

	for _, tc := range cases {
		group := multicastGroup(&net.IPAddr{IP: net.ParseIP(tc.addr), Zone: tc.zone})
		var got string
		if group != nil {
			got = group.String()
		}
		if got != tc.exp {
			t.Errorf("%s: expected %q, got %q", tc.addr, tc.exp, got)
		}
	}
}

func TestSearchRequest(t *testing.T) {
	t.Parallel()

	req := string(searchRequest(&net.UDPAddr{IP: ssdpGroupLinkLocal, Port: ssdpPort, Zone: "eth0"}))
	for _, line := range []string{
		"M-SEARCH * HTTP/1.1\r\n",
		"HOST: [ff02::c]:1900\r\n",
		"ST: upnp:rootdevice\r\n",
		"MAN: \"ssdp:discover\"\r\n",
		"MX: 2\r\n",
	} {
		if !strings.Contains(req, line) {
			t.Errorf("request lacks %q:\n%s", line, req)
		}
	}
	if !strings.HasSuffix(req, "\r\n\r\n") {
		t.Error("request not terminated by an empty line")
	}
}
