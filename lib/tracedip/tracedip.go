// Copyright (C) 2024 The Syncthing Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

// Package tracedip learns the public IPv4 address from an HTTP endpoint that
// echoes the client address, such as Cloudflare's /cdn-cgi/trace.
package tracedip

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"

	"github.com/syncthing/natreach/lib/config"
	"github.com/syncthing/natreach/lib/nat"
)

const maxBodySize = 4 << 10

type Source struct {
	url    string
	client *http.Client
}

var _ nat.AddressSource = (*Source)(nil)

func New(cfg config.Options) *Source {
	dialer := &net.Dialer{Timeout: cfg.TraceTimeout()}
	return &Source{
		url: cfg.TraceURL,
		client: &http.Client{
			Timeout: cfg.TraceTimeout(),
			Transport: &http.Transport{
				Proxy: http.ProxyFromEnvironment,
				// The answer is only meaningful for the IPv4 path.
				DialContext: func(ctx context.Context, _, addr string) (net.Conn, error) {
					return dialer.DialContext(ctx, "tcp4", addr)
				},
				DisableKeepAlives: true,
			},
		},
	}
}

func (s *Source) String() string {
	return "tracedip@" + s.url
}

// ExternalIPv4Address returns the address the endpoint saw, or nil.
func (s *Source) ExternalIPv4Address(ctx context.Context) net.IP {
	if s.url == "" {
		return nil
	}
	ip, err := s.fetch(ctx)
	if err != nil {
		l.Debugf("%s: %v", s, err)
		return nil
	}
	l.Debugf("%s: external address %s", s, ip)
	return ip
}

func (s *Source) fetch(ctx context.Context) (net.IP, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, err
	}
	return parseBody(body)
}

// parseBody accepts a trace document with an "ip=" line, or a body holding
// just the address.
func parseBody(body []byte) (net.IP, error) {
	value := strings.TrimSpace(string(body))
	sc := bufio.NewScanner(bytes.NewReader(body))
	for sc.Scan() {
		if v, ok := strings.CutPrefix(strings.TrimSpace(sc.Text()), "ip="); ok {
			value = strings.TrimSpace(v)
			break
		}
	}
	ip := net.ParseIP(value).To4()
	if ip == nil {
		return nil, fmt.Errorf("no IPv4 address in %q", truncate(value, 64))
	}
	return ip, nil
}

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
