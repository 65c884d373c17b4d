// Copyright (C) 2014 The Syncthing Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

// Package config holds the tunables of port setup and their defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"sigs.k8s.io/yaml"
)

// DefaultStunServers are used when no probing servers are configured.
var DefaultStunServers = []string{
	"stun.l.google.com:19302",
	"stun1.l.google.com:19302",
	"stun.cloudflare.com:3478",
}

type Options struct {
	DiscoveryTimeoutS   int      `json:"discoveryTimeoutSeconds" default:"3"`
	RPCTimeoutS         int      `json:"rpcTimeoutSeconds" default:"5"`
	ProbeTimeoutS       int      `json:"probeTimeoutSeconds" default:"3"`
	TraceTimeoutS       int      `json:"traceTimeoutSeconds" default:"3"`
	TeardownTimeoutS    int      `json:"teardownTimeoutSeconds" default:"10"`
	TeardownConcurrency int      `json:"teardownConcurrency" default:"4"`
	LeaseM              int      `json:"leaseMinutes" default:"120"`
	MappingDescription  string   `json:"mappingDescription" default:"natreach"`
	StunServers         []string `json:"stunServers"`
	TraceURL            string   `json:"traceURL" default:"https://1.1.1.1/cdn-cgi/trace"`
	NATPMPEnabled       bool     `json:"natpmpEnabled"`
}

// Default returns the options with all defaults applied.
func Default() Options {
	var opts Options
	setDefaults(&opts)
	opts.StunServers = append([]string(nil), DefaultStunServers...)
	return opts
}

// Load reads YAML (or JSON) options from path. Settings not present in the
// file keep their defaults.
func Load(path string) (Options, error) {
	bs, err := os.ReadFile(path)
	if err != nil {
		return Options{}, err
	}
	return Parse(bs)
}

// Parse decodes YAML (or JSON) options. Settings not present keep their
// defaults.
func Parse(bs []byte) (Options, error) {
	opts := Default()
	opts.StunServers = nil
	if err := yaml.UnmarshalStrict(bs, &opts); err != nil {
		return Options{}, fmt.Errorf("parsing options: %w", err)
	}
	opts.StunServers = uniqueTrimmedStrings(opts.StunServers)
	if len(opts.StunServers) == 0 {
		opts.StunServers = append([]string(nil), DefaultStunServers...)
	}
	if err := opts.Validate(); err != nil {
		return Options{}, err
	}
	return opts, nil
}

// Validate returns an error describing every invalid setting.
func (opts Options) Validate() error {
	var errs []error
	check := func(name string, v int) {
		if v <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive, not %d", name, v))
		}
	}
	check("discoveryTimeoutSeconds", opts.DiscoveryTimeoutS)
	check("rpcTimeoutSeconds", opts.RPCTimeoutS)
	check("probeTimeoutSeconds", opts.ProbeTimeoutS)
	check("traceTimeoutSeconds", opts.TraceTimeoutS)
	check("teardownTimeoutSeconds", opts.TeardownTimeoutS)
	check("teardownConcurrency", opts.TeardownConcurrency)
	if opts.LeaseM < 0 {
		errs = append(errs, fmt.Errorf("leaseMinutes must not be negative, not %d", opts.LeaseM))
	}
	return errors.Join(errs...)
}

// WithDefaults returns opts with the default in place of every timeout and
// the teardown concurrency where those are not positive.
func (opts Options) WithDefaults() Options {
	def := Default()
	for _, f := range []struct{ v, d *int }{
		{&opts.DiscoveryTimeoutS, &def.DiscoveryTimeoutS},
		{&opts.RPCTimeoutS, &def.RPCTimeoutS},
		{&opts.ProbeTimeoutS, &def.ProbeTimeoutS},
		{&opts.TraceTimeoutS, &def.TraceTimeoutS},
		{&opts.TeardownTimeoutS, &def.TeardownTimeoutS},
		{&opts.TeardownConcurrency, &def.TeardownConcurrency},
	} {
		if *f.v <= 0 {
			*f.v = *f.d
		}
	}
	return opts
}

func (opts Options) DiscoveryTimeout() time.Duration {
	return time.Duration(opts.DiscoveryTimeoutS) * time.Second
}

func (opts Options) RPCTimeout() time.Duration {
	return time.Duration(opts.RPCTimeoutS) * time.Second
}

func (opts Options) ProbeTimeout() time.Duration {
	return time.Duration(opts.ProbeTimeoutS) * time.Second
}

func (opts Options) TraceTimeout() time.Duration {
	return time.Duration(opts.TraceTimeoutS) * time.Second
}

func (opts Options) TeardownTimeout() time.Duration {
	return time.Duration(opts.TeardownTimeoutS) * time.Second
}

// Lease is the requested lifetime of port mappings and pinholes. Zero asks
// for a permanent mapping.
func (opts Options) Lease() time.Duration {
	return time.Duration(opts.LeaseM) * time.Minute
}

// setDefaults sets default values on a struct, based on the default
// annotation.
func setDefaults(data interface{}) {
	s := reflect.ValueOf(data).Elem()
	t := s.Type()

	for i := 0; i < s.NumField(); i++ {
		f := s.Field(i)
		v := t.Field(i).Tag.Get("default")
		if v == "" {
			continue
		}

		switch f.Interface().(type) {
		case string:
			f.SetString(v)

		case int, int64:
			i, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				panic(err)
			}
			f.SetInt(i)

		case bool:
			f.SetBool(v == "true")

		default:
			panic(f.Type())
		}
	}
}

// uniqueTrimmedStrings returns a list on unique, non empty strings, trimming
// at the same time.
func uniqueTrimmedStrings(ss []string) []string {
	m := make(map[string]struct{}, len(ss))
	us := make([]string, 0, len(ss))
	for _, v := range ss {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := m[v]; ok {
			continue
		}
		m[v] = struct{}{}
		us = append(us, v)
	}
	return us
}
