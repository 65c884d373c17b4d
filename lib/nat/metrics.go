// Copyright (C) 2024 The Syncthing Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

package nat

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricSetupsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "natreach",
		Subsystem: "nat",
		Name:      "setups_total",
		Help:      "Total number of port setups, per address family and source of the resulting mappings.",
	}, []string{"family", "source"})
	metricAddressSourceTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "natreach",
		Subsystem: "nat",
		Name:      "address_source_total",
		Help:      "Total number of public address detections, per address family and winning source.",
	}, []string{"family", "source"})
	metricTeardownsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "natreach",
		Subsystem: "nat",
		Name:      "teardowns_total",
		Help:      "Total number of scheduled teardown jobs, per outcome.",
	}, []string{"result"})
)

const (
	sourceGateway  = "gateway"
	sourceNATPMP   = "natpmp"
	sourceProbe    = "probe"
	sourceTrace    = "trace"
	sourceLocal    = "local"
	sourceIdentity = "identity"
	sourceNone     = "none"
)
