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
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/syncthing/natreach/lib/nat"
)

const maxResponseSize = 1 << 20

// upnpBool is a UPnP boolean, 1 or 0 on the wire.
type upnpBool bool

func (b upnpBool) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	v := "0"
	if b {
		v = "1"
	}
	return e.EncodeElement(v, start)
}

func (b *upnpBool) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	var s string
	if err := d.DecodeElement(&s, &start); err != nil {
		return err
	}
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes":
		*b = true
	case "0", "false", "no":
		*b = false
	default:
		return fmt.Errorf("invalid boolean %q", s)
	}
	return nil
}

type soapResponseEnvelope struct {
	Body struct {
		Inner []byte `xml:",innerxml"`
	} `xml:"Body"`
}

type soapErrorResponse struct {
	ErrorCode        int    `xml:"Body>Fault>detail>UPnPError>errorCode"`
	ErrorDescription string `xml:"Body>Fault>detail>UPnPError>errorDescription"`
}

// soapBody encodes the request as the action element of the given service.
func soapBody(serviceType, action string, req any) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(`<?xml version="1.0"?>` + "\r\n")
	buf.WriteString(`<s:Envelope xmlns:s="http://schemas.xmlsoap.org/soap/envelope/" s:encodingStyle="http://schemas.xmlsoap.org/soap/encoding/"><s:Body>`)

	start := xml.StartElement{
		Name: xml.Name{Local: "u:" + action},
		Attr: []xml.Attr{{Name: xml.Name{Local: "xmlns:u"}, Value: serviceType}},
	}
	enc := xml.NewEncoder(&buf)
	if err := enc.EncodeElement(req, start); err != nil {
		return nil, err
	}
	if err := enc.Flush(); err != nil {
		return nil, err
	}

	buf.WriteString(`</s:Body></s:Envelope>` + "\r\n")
	return buf.Bytes(), nil
}

// invoke performs the action on the service at controlURL and decodes the
// action response element into Resp.
func invoke[Req, Resp any](ctx context.Context, c *Client, svc *service, action string, req Req) (Resp, error) {
	var resp Resp

	body, err := soapBody(svc.Type, action, req)
	if err != nil {
		return resp, err
	}

	hreq, err := http.NewRequestWithContext(ctx, http.MethodPost, svc.ControlURL, bytes.NewReader(body))
	if err != nil {
		return resp, err
	}
	hreq.Close = true
	hreq.Header.Set("Content-Type", `text/xml; charset="utf-8"`)
	hreq.Header.Set("User-Agent", userAgent)
	hreq.Header["SOAPAction"] = []string{fmt.Sprintf(`"%s#%s"`, svc.Type, action)} // Enforce capitalization in header-entry for sensitive routers. See issue #1696
	hreq.Header.Set("Connection", "Close")
	hreq.Header.Set("Cache-Control", "no-cache")
	hreq.Header.Set("Pragma", "no-cache")

	l.Debugln("SOAP Request URL: " + svc.ControlURL)
	l.Debugln("SOAP Action: " + hreq.Header.Get("SOAPAction"))
	l.Debugln("SOAP Request:\n\n" + string(body))

	r, err := c.http.Do(hreq)
	if err != nil {
		l.Debugln("SOAP do:", err)
		metricActions.WithLabelValues(action, metricResultError).Inc()
		return resp, &nat.TransportError{Op: action, URL: svc.ControlURL, Err: err}
	}
	defer r.Body.Close()

	data, err := io.ReadAll(io.LimitReader(r.Body, maxResponseSize))
	if err != nil {
		metricActions.WithLabelValues(action, metricResultError).Inc()
		return resp, &nat.TransportError{Op: action, URL: svc.ControlURL, Err: err}
	}
	l.Debugf("SOAP Response: %s\n\n%s\n\n", r.Status, data)

	if r.StatusCode >= 400 {
		metricActions.WithLabelValues(action, metricResultError).Inc()
		perr := &nat.ProtocolError{Action: action, Status: r.StatusCode, Body: string(data)}
		var fault soapErrorResponse
		if xml.Unmarshal(data, &fault) == nil {
			perr.Code = fault.ErrorCode
		}
		return resp, perr
	}

	var envelope soapResponseEnvelope
	if err := xml.Unmarshal(data, &envelope); err != nil {
		metricActions.WithLabelValues(action, metricResultError).Inc()
		return resp, &nat.ProtocolError{Action: action, Status: r.StatusCode, Body: string(data), Err: err}
	}
	if err := xml.Unmarshal(envelope.Body.Inner, &resp); err != nil {
		metricActions.WithLabelValues(action, metricResultError).Inc()
		return resp, &nat.ProtocolError{Action: action, Status: r.StatusCode, Body: string(data), Err: err}
	}

	metricActions.WithLabelValues(action, metricResultSuccess).Inc()
	return resp, nil
}

// upnpErrorCode returns the UPnP error code carried by err, or zero.
func upnpErrorCode(err error) int {
	var perr *nat.ProtocolError
	if errors.As(err, &perr) {
		return perr.Code
	}
	return 0
}
