// Copyright (C) 2024 The Syncthing Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

package upnp

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricDiscoveryResponses = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "natreach",
		Subsystem: "upnp",
		Name:      "discovery_responses_total",
		Help:      "Total number of SSDP responses received, per address family and whether they were usable.",
	}, []string{"family", "result"})
	metricDescriptionFetches = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "natreach",
		Subsystem: "upnp",
		Name:      "description_fetches_total",
		Help:      "Total number of device description lookups, per result.",
	}, []string{"result"})
	metricActions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "natreach",
		Subsystem: "upnp",
		Name:      "actions_total",
		Help:      "Total number of SOAP actions invoked, per action and result.",
	}, []string{"action", "result"})
)

const (
	metricResultSuccess  = "success"
	metricResultError    = "error"
	metricResultCached   = "cached"
	metricResultInvalid  = "invalid"
	metricResultFallback = "fallback"
)
