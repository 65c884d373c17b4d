// Copyright (C) 2024 The Syncthing Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

package upnp

import (
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
)

const descriptionTemplate = `<?xml version="1.0"?>
<root xmlns="urn:schemas-upnp-org:device-1-0">
  <specVersion><major>1</major><minor>0</minor></specVersion>
  <device>
    <deviceType>urn:schemas-upnp-org:device:InternetGatewayDevice:%[1]d</deviceType>
    <friendlyName>Test Router v%[1]d</friendlyName>
    <UDN>uuid:00000000-0000-0000-0000-00000000000%[1]d</UDN>
    <deviceList>
      <device>
        <deviceType>urn:schemas-upnp-org:device:WANDevice:%[1]d</deviceType>
        <deviceList>
          <device>
            <deviceType>urn:schemas-upnp-org:device:WANConnectionDevice:%[1]d</deviceType>
            <serviceList>
              <service>
                <serviceType>%[2]s</serviceType>
                <serviceId>urn:upnp-org:serviceId:WANIPConn1</serviceId>
                <controlURL>/ctl/IPConn</controlURL>
              </service>
              <service>
                <serviceType>urn:schemas-upnp-org:service:WANIPv6FirewallControl:1</serviceType>
                <serviceId>urn:upnp-org:serviceId:WANIPv6FC1</serviceId>
                <controlURL>ctl/IP6FCtl</controlURL>
              </service>
            </serviceList>
          </device>
        </deviceList>
      </device>
    </deviceList>
  </device>
</root>
`

// soapArgs holds the arguments of every action the fake understands.
type soapArgs struct {
	ExternalPort   int    `xml:"NewExternalPort"`
	InternalPort   int    `xml:"NewInternalPort"`
	Protocol       string `xml:"NewProtocol"`
	InternalClient string `xml:"NewInternalClient"`
	Enabled        string `xml:"NewEnabled"`
	LeaseDuration  int    `xml:"NewLeaseDuration"`
	PinholeClient  string `xml:"InternalClient"`
	PinholePort    int    `xml:"InternalPort"`
	PinholeProto   int    `xml:"Protocol"`
	RemoteHost     string `xml:"RemoteHost"`
	UniqueID       int    `xml:"UniqueID"`
}

type soapCall struct {
	Action     string
	SOAPAction string
	Body       string
	Args       soapArgs
}

// fakeIGD is an InternetGatewayDevice served over HTTP.
type fakeIGD struct {
	version     int
	serviceType string
	// reservedOffset is added to the requested port by AddAnyPortMapping.
	reservedOffset int
	// fault returns a UPnP error code to fail the call with, or zero.
	fault func(call soapCall) int

	mut          sync.Mutex
	calls        []soapCall
	descriptions int
	mapped       map[int]bool
	pinholes     int
	openPinholes map[int]bool

	srv *httptest.Server
}

func newFakeIGD(t *testing.T, version int) *fakeIGD {
	t.Helper()
	f := &fakeIGD{
		version:      version,
		serviceType:  fmt.Sprintf("urn:schemas-upnp-org:service:WANIPConnection:%d", version),
		mapped:       make(map[int]bool),
		openPinholes: make(map[int]bool),
	}
	f.srv = httptest.NewServer(f)
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeIGD) location() NetworkLocation {
	u, _ := url.Parse(f.srv.URL + "/rootDesc.xml")
	return NetworkLocation{
		Locations:    []*url.URL{u},
		Server:       "Linux/5.10 UPnP/1.1 MiniUPnPd/2.3.3",
		CacheControl: "max-age=120",
		SearchTarget: searchTarget,
		USN:          fmt.Sprintf("uuid:00000000-0000-0000-0000-00000000000%d::upnp:rootdevice", f.version),
	}
}

func (f *fakeIGD) descriptionCount() int {
	f.mut.Lock()
	defer f.mut.Unlock()
	return f.descriptions
}

func (f *fakeIGD) actions() []string {
	f.mut.Lock()
	defer f.mut.Unlock()
	var res []string
	for _, c := range f.calls {
		res = append(res, c.Action)
	}
	return res
}

func (f *fakeIGD) callsOf(action string) []soapCall {
	f.mut.Lock()
	defer f.mut.Unlock()
	var res []soapCall
	for _, c := range f.calls {
		if c.Action == action {
			res = append(res, c)
		}
	}
	return res
}

func (f *fakeIGD) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet && r.URL.Path == "/rootDesc.xml" {
		f.mut.Lock()
		f.descriptions++
		f.mut.Unlock()
		w.Header().Set("Content-Type", "text/xml")
		fmt.Fprintf(w, descriptionTemplate, f.version, f.serviceType)
		return
	}
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	body, _ := io.ReadAll(r.Body)
	soapAction := r.Header.Get("SOAPAction")
	_, action, _ := strings.Cut(strings.Trim(soapAction, `"`), "#")

	var env soapResponseEnvelope
	var call soapCall
	if err := xml.Unmarshal(body, &env); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := xml.Unmarshal(env.Body.Inner, &call.Args); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	call.Action = action
	call.SOAPAction = soapAction
	call.Body = string(body)

	f.mut.Lock()
	f.calls = append(f.calls, call)
	f.mut.Unlock()

	if f.fault != nil {
		if code := f.fault(call); code != 0 {
			writeFault(w, code)
			return
		}
	}

	serviceType := f.serviceType
	if r.URL.Path == "/ctl/IP6FCtl" {
		serviceType = ipv6FirewallControl
	}

	var inner string
	switch action {
	case "AddPortMapping":
		f.setMapped(call.Args.ExternalPort, true)
	case "AddAnyPortMapping":
		port := call.Args.ExternalPort + f.reservedOffset
		f.setMapped(port, true)
		inner = fmt.Sprintf("<NewReservedPort>%d</NewReservedPort>", port)
	case "DeletePortMapping":
		if !f.setMapped(call.Args.ExternalPort, false) {
			writeFault(w, errNoSuchEntryInArray)
			return
		}
	case "GetExternalIPAddress":
		inner = "<NewExternalIPAddress>198.51.100.1</NewExternalIPAddress>"
	case "GetNATRSIPStatus":
		inner = "<NewRSIPAvailable>0</NewRSIPAvailable><NewNATEnabled>1</NewNATEnabled>"
	case "GetFirewallStatus":
		inner = "<FirewallEnabled>1</FirewallEnabled><InboundPinholeAllowed>1</InboundPinholeAllowed>"
	case "AddPinhole":
		f.mut.Lock()
		f.pinholes++
		id := f.pinholes
		f.openPinholes[id] = true
		f.mut.Unlock()
		inner = fmt.Sprintf("<UniqueID>%d</UniqueID>", id)
	case "DeletePinhole":
		f.mut.Lock()
		open := f.openPinholes[call.Args.UniqueID]
		delete(f.openPinholes, call.Args.UniqueID)
		f.mut.Unlock()
		if !open {
			writeFault(w, errNoSuchPinhole)
			return
		}
	default:
		writeFault(w, 401)
		return
	}

	w.Header().Set("Content-Type", `text/xml; charset="utf-8"`)
	fmt.Fprintf(w, `<?xml version="1.0"?>
<s:Envelope xmlns:s="http://schemas.xmlsoap.org/soap/envelope/" s:encodingStyle="http://schemas.xmlsoap.org/soap/encoding/"><s:Body><u:%[1]sResponse xmlns:u="%[2]s">%[3]s</u:%[1]sResponse></s:Body></s:Envelope>`, action, serviceType, inner)
}

// setMapped records the port state and reports whether it changed.
func (f *fakeIGD) setMapped(port int, mapped bool) bool {
	f.mut.Lock()
	defer f.mut.Unlock()
	changed := f.mapped[port] != mapped
	f.mapped[port] = mapped
	return changed
}

func writeFault(w http.ResponseWriter, code int) {
	w.Header().Set("Content-Type", `text/xml; charset="utf-8"`)
	w.WriteHeader(http.StatusInternalServerError)
	fmt.Fprintf(w, `<?xml version="1.0"?>
<s:Envelope xmlns:s="http://schemas.xmlsoap.org/soap/envelope/" s:encodingStyle="http://schemas.xmlsoap.org/soap/encoding/"><s:Body><s:Fault><faultcode>s:Client</faultcode><faultstring>UPnPError</faultstring><detail><UPnPError xmlns="urn:schemas-upnp-org:control-1-0"><errorCode>%d</errorCode><errorDescription>Error</errorDescription></UPnPError></detail></s:Fault></s:Body></s:Envelope>`, code)
}
